package cmd

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/mig/packages/core/parser"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List all tests in .mig files",
	Long: `List all test cases defined in .mig files.

Examples:
  mig list api.mig
  mig list ./tests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	if len(files) == 0 {
		return exitWith(ExitUsageError, fmt.Errorf("no %s files found", FileExtension))
	}

	failed := false
	for _, file := range files {
		f, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error parsing %s: %v\n", file, err)
			failed = true
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", file)
		for _, tc := range f.TestCases {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", tc.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "    %s %s -> %d, %s\n", tc.Method, tc.URL, tc.StatusCode, plural(len(tc.Assertions), "assertion"))
			if tc.Description != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", tc.Description)
			}
		}
	}

	if failed {
		return exitReported(ExitParseError, errors.New("some files could not be parsed"))
	}
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
