// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"acp-cli/internal/installer"

	"github.com/spf13/cobra"
)

var (
	removeGlobal       bool
	removeYes          bool
	removeKeepModified bool

	removeCmd = &cobra.Command{
		Use:   "remove <package>",
		Short: "Remove an installed package",
		Long: `Remove deletes a package's installed files and drops it from the
manifest. With --keep-modified, locally modified files stay on disk
but are no longer tracked.`,
		Args: cobra.ExactArgs(1),
		RunE: runRemove,
	}
)

func init() {
	removeCmd.Flags().BoolVar(&removeGlobal, "global", false, "remove from the user-global root")
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "skip the confirmation prompt")
	removeCmd.Flags().BoolVar(&removeKeepModified, "keep-modified", false, "leave locally modified files on disk")
}

func runRemove(cmd *cobra.Command, args []string) error {
	pkg := args[0]

	inst, err := newInstaller(removeGlobal)
	if err != nil {
		return err
	}

	if !removeYes {
		prompter := &installer.IOPrompter{In: os.Stdin, Out: os.Stdout}
		ok, err := prompter.Confirm(fmt.Sprintf("Remove package %s and its installed files", pkg))
		if err != nil {
			return err
		}
		if !ok {
			return &ExitError{Code: 1, Err: fmt.Errorf("removal aborted")}
		}
	}

	report, err := inst.Remove(installer.RemoveOptions{
		Package:      pkg,
		KeepModified: removeKeepModified,
	})
	if err != nil {
		return err
	}

	fmt.Println(SuccessStyle.Render(fmt.Sprintf("Removed %s (%d files)", report.Package, len(report.Removed))))
	for _, name := range report.Kept {
		fmt.Println(WarningStyle.Render("  kept (modified locally): ") + name)
	}
	return nil
}
