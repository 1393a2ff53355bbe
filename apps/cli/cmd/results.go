package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/abdul-hamid-achik/mig/packages/output"
	"github.com/abdul-hamid-achik/mig/packages/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	resultsLimitFlag   int
	resultsRunFlag     string
	resultsNoColorFlag bool
)

var resultsCmd = &cobra.Command{
	Use:   "results [database]",
	Short: "Show runs recorded with --results-db",
	Long: `Show runs recorded in a results database.

Without --run the most recent runs are listed, newest first. With --run the
verdict of every test case of that run is shown.

The database defaults to $MIG_RESULTS_DB.

Examples:
  mig results results.db
  mig results results.db --limit 50
  mig results results.db --run 6f1c2e0a-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: resultsCommand,
}

func init() {
	resultsCmd.Flags().IntVar(&resultsLimitFlag, "limit", 10, "Number of runs to show, 0 for all")
	resultsCmd.Flags().StringVar(&resultsRunFlag, "run", "", "Show the test cases of this run")
	resultsCmd.Flags().BoolVar(&resultsNoColorFlag, "no-color", getEnvBool("MIG_NO_COLOR", false), "Disable colored output (env: MIG_NO_COLOR)")
}

func resultsCommand(cmd *cobra.Command, args []string) error {
	target := getEnvString("MIG_RESULTS_DB", "")
	if len(args) == 1 {
		target = args[0]
	}
	if target == "" {
		return exitWith(ExitUsageError, errors.New("no results database given (pass a path or set MIG_RESULTS_DB)"))
	}
	if resultsNoColorFlag {
		color.NoColor = true
	}

	db, err := store.Open(cmd.Context(), target)
	if err != nil {
		return exitWith(ExitConfigError, err)
	}
	defer db.Close()

	if resultsRunFlag != "" {
		return showRun(cmd, db, resultsRunFlag)
	}

	runs, err := db.Runs(cmd.Context(), resultsLimitFlag)
	if err != nil {
		return exitWith(ExitConfigError, err)
	}
	if len(runs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded in %s\n", db.Path())
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tSTARTED\tFILE\tPASSED\tFAILED\tERRORED\tDURATION\tP95")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.File,
			run.Passed,
			run.Failed,
			run.Errored,
			output.FormatDuration(run.Duration),
			output.FormatDuration(run.P95),
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, db *store.Store, runID string) error {
	results, err := db.Results(cmd.Context(), runID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return exitWith(ExitUsageError, err)
		}
		return exitWith(ExitConfigError, err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n\n", runID)
	for _, r := range results {
		if r.Passed {
			fmt.Fprintf(out, "  %s %s %s\n", green("✓"), r.Name, cyan("("+output.FormatDuration(r.Duration)+")"))
			continue
		}
		fmt.Fprintf(out, "  %s %s %s\n", red("✗"), r.Name, cyan("("+output.FormatDuration(r.Duration)+")"))
		fmt.Fprintf(out, "    %s %s\n", red("→"), r.Reason)
	}
	return nil
}
