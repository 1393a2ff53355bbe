// Package cmd implements the mig CLI commands using Cobra.
//
// Available commands:
//   - run: Execute the test cases of .mig files
//   - validate: Check test file syntax without executing
//   - list: Display all test cases defined in files
//   - results: Show runs recorded in a results database
//   - init: Create a new mig project with example files
//   - version: Show mig version information
//   - completion: Generate shell completion scripts
//
// Commands return an exitError to choose the process exit code; Execute
// maps it onto the codes in exitcodes.go.
package cmd
