package output

import (
	"fmt"
	"io"
	"os"

	"github.com/abdul-hamid-achik/mig/packages/core/runner"
	"github.com/abdul-hamid-achik/mig/packages/http"
	"github.com/fatih/color"
)

// truncate shortens long values for display
func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
	quiet   bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// WithQuiet prints only failing test cases and the summary.
func WithQuiet(q bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.quiet = q
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s %s\n", bold("Running: "+result.File), faint("run "+result.RunID))
	fmt.Fprintf(f.writer, "\n")

	for _, r := range result.Results {
		if r.Passed && f.quiet {
			continue
		}

		if r.ConfigErr != nil {
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("x"), r.Name(), red("[config error]"))
			fmt.Fprintf(f.writer, "    %s line %d: %s\n", red("→"), r.ConfigErr.Line, r.ConfigErr.Message)
			continue
		}

		if r.Err != nil {
			fmt.Fprintf(f.writer, "  %s %s %s %s\n", red("x"), r.Name(), red("["+r.Err.Kind.String()+"]"), cyan("("+FormatDuration(r.Duration)+")"))
			fmt.Fprintf(f.writer, "    %s %v\n", red("→"), r.Err.Err)
			continue
		}

		symbol := green("✓")
		if !r.Passed {
			symbol = red("✗")
		}

		fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, r.Name(), cyan("("+FormatDuration(r.Duration)+")"))

		if f.verbose && r.Response != nil {
			fmt.Fprintf(f.writer, "    Status: %s  Size: %s\n", statusColor(r.Response)(r.Response.Status), FormatSize(r.Response.Size()))
		}

		if !r.StatusMatch {
			fmt.Fprintf(f.writer, "    %s status: expected %d, got %d\n", red("→"), r.TestCase.StatusCode, r.Status)
		}

		for _, a := range r.Assertions {
			if a.Passed {
				if f.verbose {
					fmt.Fprintf(f.writer, "    %s %s %s\n", green("✓"), a.Assertion.Kind(), a.Assertion.Target())
				}
				continue
			}
			fmt.Fprintf(f.writer, "    %s %s %s\n", red("→"), a.Assertion.Kind(), a.Assertion.Target())
			fmt.Fprintf(f.writer, "      %s\n", truncate(a.Detail, 200))
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Tests: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Errored > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d errored", result.Errored)))
	}
	fmt.Fprintf(f.writer, "%d total\n", len(result.Results))
	fmt.Fprintf(f.writer, "Time:  %s\n", FormatDuration(result.Duration))
	if l := result.Latency; l.Count > 0 {
		fmt.Fprintf(f.writer, "Latency: p50 %s  p95 %s  p99 %s  max %s\n",
			FormatDuration(l.P50), FormatDuration(l.P95), FormatDuration(l.P99), FormatDuration(l.Max))
	}
	fmt.Fprintf(f.writer, "\n")
}

// statusColor paints 2xx green, 3xx cyan, 4xx yellow and 5xx red.
func statusColor(resp *http.Response) func(a ...any) string {
	switch {
	case resp.IsSuccess():
		return color.New(color.FgGreen).SprintFunc()
	case resp.IsRedirect():
		return color.New(color.FgCyan).SprintFunc()
	case resp.IsClientError():
		return color.New(color.FgYellow).SprintFunc()
	case resp.IsServerError():
		return color.New(color.FgRed).SprintFunc()
	default:
		return color.New(color.FgWhite).SprintFunc()
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("mig"), version)
}
