// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"acp-cli/internal/installer"

	"github.com/spf13/cobra"
)

var (
	updateGlobal       bool
	updateCheck        bool
	updateSkipModified bool
	updateForce        bool
	updateYes          bool
	updateExperimental bool

	updateCmd = &cobra.Command{
		Use:   "update [package]",
		Short: "Update installed packages from their sources",
		Long: `Update re-fetches each installed package and overwrites files whose
checksum still matches the manifest. Locally modified files are
prompted for individually; --skip-modified leaves them alone and
--force overwrites them. --check reports without changing anything.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runUpdate,
	}
)

func init() {
	updateCmd.Flags().BoolVar(&updateGlobal, "global", false, "update the user-global root")
	updateCmd.Flags().BoolVar(&updateCheck, "check", false, "report pending updates without applying them")
	updateCmd.Flags().BoolVar(&updateSkipModified, "skip-modified", false, "leave locally modified files untouched")
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "overwrite locally modified files")
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "answer overwrite prompts with yes")
	updateCmd.Flags().BoolVar(&updateExperimental, "experimental", false, "include entries newly marked experimental")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	inst, err := newInstaller(updateGlobal)
	if err != nil {
		return err
	}

	opts := installer.UpdateOptions{
		Check:        updateCheck,
		SkipModified: updateSkipModified,
		Force:        updateForce,
		Yes:          updateYes,
		Experimental: updateExperimental,
	}
	if len(args) > 0 {
		opts.Package = args[0]
	}

	reports, err := inst.Update(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println(SubtitleStyle.Render("No packages installed."))
		return nil
	}

	for _, r := range reports {
		printUpdateReport(r)
	}
	return nil
}

func printUpdateReport(r *installer.UpdateReport) {
	verb := "updated"
	if r.Checked {
		verb = "would update"
	}

	fmt.Println(TitleStyle.Render("Package: ") + PkgStyle.Render(r.Package))
	if !r.Changed() && len(r.Skipped) == 0 {
		fmt.Println(SubtitleStyle.Render("  up to date"))
	}
	for _, name := range r.Updated {
		fmt.Println(SuccessStyle.Render("  "+verb+": ") + name)
	}
	for _, name := range r.Added {
		fmt.Println(SuccessStyle.Render("  added: ") + name)
	}
	for _, name := range r.Skipped {
		fmt.Println(WarningStyle.Render("  modified locally, skipped: ") + name)
	}
	for _, name := range r.Graduated {
		fmt.Println(SubtitleStyle.Render("  graduated from experimental: " + name))
	}
	for _, name := range r.ExperimentalSkipped {
		fmt.Println(SubtitleStyle.Render("  skipped (experimental): " + name))
	}
	for _, name := range r.MissingUpstream {
		fmt.Println(WarningStyle.Render("  no longer upstream: ") + name)
	}
}
