// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"acp-cli/internal/descriptor"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the package.yaml in the current directory",
	Long: `Validate checks every schema constraint of the package descriptor and
reports all violations at once. Errors fail the command; warnings
(missing optional metadata) do not.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	desc, err := descriptor.Load(dir)
	if err != nil {
		return err
	}

	result := desc.Validate()
	errs := result.Errors()
	warns := result.Warnings()

	for _, e := range errs {
		fmt.Println(ErrorStyle.Render("error: ") + e.Error())
	}
	for _, w := range warns {
		fmt.Println(WarningStyle.Render("warning: ") + w.Error())
	}

	if len(errs) > 0 {
		return &ExitError{
			Code: 1,
			Err:  fmt.Errorf("%d validation error(s) in %s", len(errs), descriptor.FileName),
		}
	}

	name := desc.Name
	if name == "" {
		name = descriptor.FileName
	}
	fmt.Println(SuccessStyle.Render(fmt.Sprintf("%s is valid (%d warning(s))", name, len(warns))))
	return nil
}
