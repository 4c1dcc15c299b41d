// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"acp-cli/internal/config"
	"acp-cli/internal/depres"
	"acp-cli/internal/fetch"
	"acp-cli/internal/installer"

	"github.com/spf13/cobra"
)

var (
	installRepo         string
	installGlobal       bool
	installExperimental bool
	installYes          bool
	installList         bool
	installPatterns     []string
	installCommands     []string
	installDesigns      []string
	installFiles        []string

	installCmd = &cobra.Command{
		Use:   "install",
		Short: "Install a content package from a repository or local directory",
		Long: `Install fetches a content bundle, validates its package.yaml, and copies
the declared content into the install root. Scripts install only when a
selected command references them. Experimental entries are excluded
unless --experimental is passed.`,
		RunE: runInstall,
	}
)

func init() {
	installCmd.Flags().StringVar(&installRepo, "repo", "", "repository URL or local directory (required)")
	installCmd.Flags().BoolVar(&installGlobal, "global", false, "install into the user-global root")
	installCmd.Flags().BoolVar(&installExperimental, "experimental", false, "include entries marked experimental")
	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "skip confirmation prompts")
	installCmd.Flags().BoolVar(&installList, "list", false, "resolve and report without installing")
	installCmd.Flags().StringSliceVar(&installPatterns, "patterns", nil, "install only the named patterns")
	installCmd.Flags().StringSliceVar(&installCommands, "commands", nil, "install only the named commands")
	installCmd.Flags().StringSliceVar(&installDesigns, "designs", nil, "install only the named designs")
	installCmd.Flags().StringSliceVar(&installFiles, "files", nil, "install only the named files")
	_ = installCmd.MarkFlagRequired("repo")
}

// newInstaller builds an installer bound to the configured install root.
func newInstaller(global bool) (*installer.Installer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	prompter := &installer.IOPrompter{In: os.Stdin, Out: os.Stdout}
	return installer.New(cfg.Root(global), fetch.NewFetcher(), prompter), nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	inst, err := newInstaller(installGlobal)
	if err != nil {
		return err
	}

	opts := installer.InstallOptions{
		Source:       installRepo,
		Experimental: installExperimental,
		Yes:          installYes,
		List:         installList,
		Only:         onlyFilter(),
	}

	plan, err := inst.Stage(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer plan.Close()

	printPlan(plan)

	if installList {
		fmt.Println(SubtitleStyle.Render("Dry run; nothing was installed."))
		return nil
	}

	if err := confirmPlan(plan, opts); err != nil {
		return err
	}

	report, err := inst.Apply(plan, opts)
	if err != nil {
		return err
	}

	fmt.Println(SuccessStyle.Render(fmt.Sprintf("Installed %s (%d files)", report.Package, len(report.Installed))))
	return nil
}

// onlyFilter assembles the per-category name filter from the CLI flags.
func onlyFilter() map[string][]string {
	only := map[string][]string{}
	for cat, names := range map[string][]string{
		"patterns": installPatterns,
		"commands": installCommands,
		"designs":  installDesigns,
		"files":    installFiles,
	} {
		if len(names) > 0 {
			only[cat] = names
		}
	}
	if len(only) == 0 {
		return nil
	}
	return only
}

// printPlan reports what staging resolved.
func printPlan(plan *installer.Plan) {
	fmt.Println(TitleStyle.Render("Package: ") + PkgStyle.Render(plan.Package))
	for _, item := range plan.Items {
		line := "  " + item.Category + "/" + item.Entry.Name + " " + SubtitleStyle.Render(item.Version)
		if item.Conflict {
			line += WarningStyle.Render(" (overwrites existing file)")
		}
		fmt.Println(line)
	}
	for _, name := range plan.ExperimentalSkipped {
		fmt.Println(SubtitleStyle.Render("  skipped (experimental): " + name))
	}
	for _, w := range plan.Warnings {
		fmt.Println(WarningStyle.Render("  warning: ") + w.Error())
	}
	for _, c := range plan.Prereqs {
		if c.Verified && c.Satisfied {
			fmt.Println(SuccessStyle.Render("  prereq: ") + c.Message())
		} else {
			fmt.Println(WarningStyle.Render("  prereq: ") + c.Message())
		}
	}
}

// confirmPlan asks for confirmation of unsatisfied prerequisites and the
// installation itself, unless -y was passed.
func confirmPlan(plan *installer.Plan, opts installer.InstallOptions) error {
	if opts.Yes {
		return nil
	}
	prompter := &installer.IOPrompter{In: os.Stdin, Out: os.Stdout}

	if !depres.AllSatisfied(plan.Prereqs) && len(plan.Prereqs) > 0 {
		ok, err := prompter.Confirm("Some prerequisites are unverified or unmet, continue anyway")
		if err != nil {
			return err
		}
		if !ok {
			return &ExitError{Code: 1, Err: fmt.Errorf("installation aborted")}
		}
	}

	ok, err := prompter.Confirm(fmt.Sprintf("Install %d file(s) from package %s", len(plan.Items), plan.Package))
	if err != nil {
		return err
	}
	if !ok {
		return &ExitError{Code: 1, Err: fmt.Errorf("installation aborted")}
	}
	return nil
}
