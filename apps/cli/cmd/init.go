package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/mig/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a new mig project",
	Long: `Initialize a new mig project in the given directory (default: current).

This creates:
  - .mig.yaml     - Configuration file with the default settings
  - example.mig   - Example test file

Examples:
  mig init
  mig init ./api-tests --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleContent = `# Example test cases. Run them with: mig run example.mig
TestCase: List items
Description: The items endpoint answers with JSON
Author: mig
Method: GET
URL: https://api.example.com/items
StatusCode: 200
Headers:
  Accept: application/json
Assertions:
  HeaderExists: Content-Type
  HeaderValue: Content-Type == application/json
  JSONPathExists: $.data.items
  JSONPathValue: $.data.items[0].id == 123
---
TestCase: Create item
Description: Creating an item echoes it back
Method: POST
URL: https://api.example.com/items
StatusCode: 201
Payload:
  name: Example Item
  color: blue
Assertions:
  JSONPathValue: $.name == "Example Item"
  JSONPathValue: $.color == "blue"
`

func initCommand(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return exitWith(ExitUsageError, fmt.Errorf("failed to create directory: %w", err))
	}

	configFile := filepath.Join(dir, ".mig.yaml")
	exampleFile := filepath.Join(dir, "example.mig")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return exitWith(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{
		"User-Agent": "mig/" + version,
	}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleContent), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nmig project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'mig run %s' to execute the example tests.\n", exampleFile)

	return nil
}
