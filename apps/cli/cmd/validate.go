package cmd

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/mig/packages/core/parser"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate .mig files for syntax errors",
	Long: `Validate .mig files for syntax errors without executing them.

Assertions that parse but can never be evaluated, such as an unsupported
JSON path, are reported as warnings: those test cases fail when run.

Examples:
  mig validate api.mig
  mig validate ./tests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	if len(files) == 0 {
		return exitWith(ExitUsageError, fmt.Errorf("no %s files found", FileExtension))
	}

	hasErrors := false
	for _, file := range files {
		f, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d test cases)\n", file, len(f.TestCases))
		for _, tc := range f.TestCases {
			if tc.ConfigErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "  warning: %s:%d: %v\n", file, tc.ConfigErr.Line, tc.ConfigErr)
			}
		}
	}

	if hasErrors {
		return exitReported(ExitParseError, errors.New("validation failed"))
	}

	return nil
}
