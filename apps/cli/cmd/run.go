package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/mig/packages/core/config"
	"github.com/abdul-hamid-achik/mig/packages/core/parser"
	"github.com/abdul-hamid-achik/mig/packages/core/runner"
	"github.com/abdul-hamid-achik/mig/packages/output"
	"github.com/abdul-hamid-achik/mig/packages/store"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Run API tests from .mig files",
	Long: `Run the test cases defined in .mig files.

Every file is parsed before anything is sent; a single parse error stops
the run with exit code 2.

Examples:
  mig run api.mig
  mig run ./tests/ --parallel --concurrency 10
  mig run api.mig --name "Example*"
  mig run api.mig -o junit --output-file report.xml
  mig run ./tests/ -o xlsx --output-file report.xlsx
  mig run api.mig --results-db results.db
  mig run ./tests/ --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	nameFlag        string
	verboseFlag     bool
	quietFlag       bool
	timeoutFlag     string
	noColorFlag     bool
	dryRunFlag      bool
	outputFlag      string
	outputFileFlag  string
	parallelFlag    bool
	concurrencyFlag int
	rateFlag        float64
	watchFlag       bool
	proxyFlag       string
	insecureFlag    bool
	configFlag      string
	resultsDBFlag   string
)

func init() {
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("MIG_CONFIG", ""), "Path to config file (env: MIG_CONFIG)")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only tests matching name pattern")

	// Output flags
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("MIG_VERBOSE", false), "Show status, size and passing assertions; debug logging (env: MIG_VERBOSE)")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", getEnvBool("MIG_QUIET", false), "Only show failing tests and the summary (env: MIG_QUIET)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("MIG_NO_COLOR", false), "Disable colored output (env: MIG_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("MIG_OUTPUT", "console"), "Output format: "+strings.Join(output.Formats, ", ")+" (env: MIG_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("MIG_OUTPUT_FILE", ""), "Write output to file (default: stdout, required for xlsx) (env: MIG_OUTPUT_FILE)")
	runCmd.Flags().StringVar(&resultsDBFlag, "results-db", getEnvString("MIG_RESULTS_DB", ""), "Record runs in this SQLite database (env: MIG_RESULTS_DB)")

	// Execution flags
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("MIG_TIMEOUT", "30s"), "Request timeout (e.g., 30s, 1m) (env: MIG_TIMEOUT)")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Parse and show what would run without executing")
	runCmd.Flags().BoolVarP(&parallelFlag, "parallel", "p", getEnvBool("MIG_PARALLEL", false), "Run test cases in parallel (env: MIG_PARALLEL)")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", getEnvInt("MIG_CONCURRENCY", runner.DefaultConcurrency), "Number of concurrent requests when running in parallel (env: MIG_CONCURRENCY)")
	runCmd.Flags().Float64Var(&rateFlag, "rate", getEnvFloat("MIG_RATE", 0), "Maximum requests per second, 0 for unlimited (env: MIG_RATE)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run tests")

	// Network flags
	runCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("MIG_PROXY", ""), "Proxy URL for HTTP requests (env: MIG_PROXY)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("MIG_INSECURE", false), "Disable SSL certificate validation (env: MIG_INSECURE)")
}

// overridden reports whether a flag was set on the command line or through
// its environment variable.
func overridden(cmd *cobra.Command, name, envKey string) bool {
	return cmd.Flags().Changed(name) || os.Getenv(envKey) != ""
}

// loadSettings layers command line flags over the config file.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	var (
		fileConfig *config.Config
		err        error
	)
	if configFlag != "" {
		fileConfig, err = config.LoadConfig(configFlag)
	} else {
		fileConfig, err = config.FindAndLoadConfig(".")
	}
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}

	flags := &config.Config{}
	if overridden(cmd, "timeout", "MIG_TIMEOUT") {
		timeout, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, exitWith(ExitUsageError, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err))
		}
		if timeout < time.Millisecond {
			return nil, exitWith(ExitUsageError, fmt.Errorf("timeout must be at least 1ms, got %s", timeoutFlag))
		}
		flags.Timeout = int(timeout / time.Millisecond)
	}
	if overridden(cmd, "concurrency", "MIG_CONCURRENCY") {
		if concurrencyFlag < 1 {
			return nil, exitWith(ExitUsageError, fmt.Errorf("concurrency must be at least 1, got %d", concurrencyFlag))
		}
		flags.Concurrency = concurrencyFlag
	}
	if overridden(cmd, "rate", "MIG_RATE") {
		if rateFlag < 0 {
			return nil, exitWith(ExitUsageError, fmt.Errorf("rate must not be negative, got %g", rateFlag))
		}
		flags.Rate = rateFlag
	}
	if overridden(cmd, "parallel", "MIG_PARALLEL") {
		flags.Parallel = config.BoolPtr(parallelFlag)
	}
	if overridden(cmd, "insecure", "MIG_INSECURE") {
		flags.ValidateSSL = config.BoolPtr(!insecureFlag)
	}
	if overridden(cmd, "verbose", "MIG_VERBOSE") {
		flags.Verbose = config.BoolPtr(verboseFlag)
	}
	if overridden(cmd, "no-color", "MIG_NO_COLOR") {
		flags.NoColor = config.BoolPtr(noColorFlag)
	}
	if overridden(cmd, "output", "MIG_OUTPUT") {
		flags.Output = strings.ToLower(outputFlag)
	}
	flags.Proxy = proxyFlag
	flags.ResultsDB = resultsDBFlag

	settings := fileConfig.Merge(flags)

	if !slices.Contains(output.Formats, settings.Output) {
		return nil, exitWith(ExitUsageError, fmt.Errorf("unknown output format %q (expected one of %s)", settings.Output, strings.Join(output.Formats, ", ")))
	}
	if settings.Output == "xlsx" && outputFileFlag == "" {
		return nil, exitWith(ExitUsageError, errors.New("xlsx output requires --output-file"))
	}
	return settings, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runnerConfig(settings *config.Config, logger *slog.Logger) *runner.Config {
	return &runner.Config{
		Timeout:        settings.GetTimeout(),
		FollowRedirect: settings.GetFollowRedirects(),
		MaxRedirects:   settings.MaxRedirects,
		Insecure:       !settings.GetValidateSSL(),
		Proxy:          settings.Proxy,
		DefaultHeaders: settings.Headers,
		NameFilter:     nameFlag,
		Parallel:       settings.GetParallel(),
		Concurrency:    settings.Concurrency,
		Rate:           settings.Rate,
		Logger:         logger,
	}
}

func runCommand(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), settings.GetVerbose())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &session{
		cmd:      cmd,
		settings: settings,
		logger:   logger,
		runner:   runner.NewRunner(runnerConfig(settings, logger)),
		errors: output.NewConsoleFormatter(
			output.WithWriter(cmd.ErrOrStderr()),
			output.WithNoColor(settings.GetNoColor()),
		),
	}

	if settings.ResultsDB != "" && !dryRunFlag {
		s.store, err = store.Open(ctx, settings.ResultsDB)
		if err != nil {
			return exitWith(ExitConfigError, err)
		}
		defer s.store.Close()
	}

	code := s.runOnce(ctx, args)
	if !watchFlag {
		if code == ExitSuccess {
			return nil
		}
		return exitReported(code, nil)
	}

	return s.watch(ctx, args)
}

// session holds what stays the same between runs in watch mode.
type session struct {
	cmd      *cobra.Command
	settings *config.Config
	logger   *slog.Logger
	runner   *runner.Runner
	store    *store.Store
	errors   *output.ConsoleFormatter
}

// runOnce collects, parses and runs every file, returning the exit code.
func (s *session) runOnce(ctx context.Context, args []string) int {
	paths, err := collectFiles(args)
	if err != nil {
		s.errors.FormatError(err)
		return ExitUsageError
	}
	if len(paths) == 0 {
		s.errors.FormatError(fmt.Errorf("no %s files found", FileExtension))
		return ExitUsageError
	}

	files, parseErrs := parseAll(paths)
	if len(parseErrs) > 0 {
		for _, err := range parseErrs {
			s.errors.FormatError(err)
		}
		return ExitParseError
	}

	if dryRunFlag {
		s.dryRun(files)
		return ExitSuccess
	}

	formatter, closeOutput, err := s.newFormatter()
	if err != nil {
		s.errors.FormatError(err)
		return ExitUsageError
	}
	defer closeOutput()

	formatter.FormatHeader(version)

	var failed, requestFailed int
	startTime := time.Now()
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}

		result := s.runner.Run(ctx, file)
		formatter.FormatResult(result)
		s.save(ctx, result)

		for _, r := range result.Results {
			if r.Passed {
				continue
			}
			failed++
			if r.Err != nil {
				requestFailed++
			}
		}
	}

	code := exitCodeFor(failed, requestFailed)

	// Flush output for formatters that accumulate results
	if flushable, ok := formatter.(output.Flushable); ok {
		if err := flushable.Flush(time.Since(startTime)); err != nil {
			s.errors.FormatError(fmt.Errorf("error writing output: %w", err))
			if code == ExitSuccess {
				code = ExitTestFailure
			}
		}
	}
	return code
}

// exitCodeFor maps failure counts onto an exit code. A run where every
// failure is a request error points at the network rather than the API.
func exitCodeFor(failed, requestFailed int) int {
	switch {
	case failed == 0:
		return ExitSuccess
	case requestFailed == failed:
		return ExitNetworkError
	default:
		return ExitTestFailure
	}
}

func (s *session) save(ctx context.Context, result *runner.RunResult) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveRun(context.WithoutCancel(ctx), result); err != nil {
		s.logger.Warn("failed to record run", "run_id", result.RunID, "db", s.store.Path(), "error", err)
		return
	}
	s.logger.Debug("recorded run", "run_id", result.RunID, "db", s.store.Path())
}

func (s *session) dryRun(files []*parser.File) {
	out := s.cmd.OutOrStdout()
	for _, file := range files {
		fmt.Fprintf(out, "Would run: %s\n", file.Path)
		for _, tc := range file.TestCases {
			if nameFlag != "" && !runner.MatchesName(tc.Name, nameFlag) {
				continue
			}
			fmt.Fprintf(out, "  - %s (%s %s, expect %d)\n", tc.Name, tc.Method, tc.URL, tc.StatusCode)
		}
	}
}

// newFormatter creates a fresh formatter for one run. The returned func
// closes the output file, if any.
func (s *session) newFormatter() (output.Formatter, func(), error) {
	format := s.settings.Output
	if format == "xlsx" {
		return output.NewXLSXFormatter(output.XLSXWithPath(outputFileFlag)), func() {}, nil
	}

	var w io.Writer = s.cmd.OutOrStdout()
	closeOutput := func() {}
	if outputFileFlag != "" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot create output file: %w", err)
		}
		w = f
		closeOutput = func() { _ = f.Close() }
	}

	var formatter output.Formatter
	switch format {
	case "json":
		formatter = output.NewJSONFormatter(output.JSONWithWriter(w))
	case "yaml":
		formatter = output.NewYAMLFormatter(output.YAMLWithWriter(w))
	case "junit":
		formatter = output.NewJUnitFormatter(output.JUnitWithWriter(w))
	case "tap":
		formatter = output.NewTAPFormatter(output.TAPWithWriter(w))
	default: // "console"
		formatter = output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(s.settings.GetVerbose()),
			output.WithNoColor(s.settings.GetNoColor() || outputFileFlag != ""),
			output.WithQuiet(quietFlag),
		)
	}
	return formatter, closeOutput, nil
}

// watch re-runs every file whenever a .mig file under args changes, until
// ctx is cancelled.
func (s *session) watch(ctx context.Context, args []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return exitWith(ExitUsageError, fmt.Errorf("failed to create file watcher: %w", err))
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	addDir := func(dir string) {
		if watchedDirs[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			s.errors.FormatError(fmt.Errorf("failed to watch %s: %w", dir, err))
		}
		watchedDirs[dir] = true
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			addDir(filepath.Dir(arg))
			continue
		}
		_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				addDir(path)
			}
			return nil
		})
	}

	out := s.cmd.OutOrStdout()
	fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var (
		debounce <-chan time.Time
		changed  string
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write|fsnotify.Create) && isMigFile(event.Name) {
				changed = event.Name
				debounce = time.After(WatchDebounceDelay)
			}

		case <-debounce:
			debounce = nil
			fmt.Fprintf(out, "\n\nFile changed: %s\nRe-running tests...\n\n", changed)
			code := s.runOnce(ctx, args)
			s.logger.Debug("watch run finished", "exit_code", code)
			fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}
