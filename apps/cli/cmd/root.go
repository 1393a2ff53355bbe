package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "mig",
	Short: "Plain text API checks. One request, one verdict.",
	Long: `mig runs HTTP API test cases described in plain text .mig files.

Each test case names a request (method, URL, headers, payload), the status
code it must answer with, and assertions on the JSON body and the response
headers. Every case gets a verdict and the run exits non-zero on failure.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and returns the process exit code.
func Execute(v, bt string) int {
	version = v
	buildTime = bt
	return execute(os.Args[1:])
}

func execute(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil && !exitErr.reported {
			fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", exitErr.err)
		}
		return exitErr.code
	}

	// anything cobra rejects before RunE is a usage problem
	fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	return ExitUsageError
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}
