package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/mig/packages/assertions"
	"github.com/abdul-hamid-achik/mig/packages/core/parser"
	"github.com/abdul-hamid-achik/mig/packages/http"
	"github.com/abdul-hamid-achik/mig/packages/stats"
)

const (
	// DefaultConcurrency is the default number of concurrent requests in parallel mode
	DefaultConcurrency = 5
	// RunIDHeader carries the run ID on every request so servers can correlate a run.
	RunIDHeader = "X-Mig-Run-Id"
)

type Runner struct {
	client *http.Client
	config *Config
	logger *slog.Logger
}

type Config struct {
	Timeout        time.Duration
	FollowRedirect bool
	MaxRedirects   int
	Insecure       bool
	Proxy          string
	DefaultHeaders map[string]string
	NameFilter     string
	Parallel       bool
	Concurrency    int
	// Rate caps request starts per second across the run; 0 means unlimited.
	Rate   float64
	Logger *slog.Logger
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{FollowRedirect: true}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	clientOpts := []http.ClientOption{
		http.WithFollowRedirects(cfg.FollowRedirect),
		http.WithValidateSSL(!cfg.Insecure),
		http.WithLogger(logger),
	}
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, http.WithTimeout(cfg.Timeout))
	}
	if cfg.MaxRedirects > 0 {
		clientOpts = append(clientOpts, http.WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.Proxy != "" {
		clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
	}
	if len(cfg.DefaultHeaders) > 0 {
		clientOpts = append(clientOpts, http.WithDefaultHeaders(cfg.DefaultHeaders))
	}
	if cfg.Rate > 0 {
		clientOpts = append(clientOpts, http.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.Rate), 1)))
	}

	return &Runner{
		client: http.NewClient(clientOpts...),
		config: cfg,
		logger: logger,
	}
}

type RunResult struct {
	File      string
	RunID     string
	StartedAt time.Time
	Results   []*TestResult
	Duration  time.Duration
	Passed    int
	// Failed counts every test case that did not pass, including errored ones.
	Failed  int
	Errored int
	Latency stats.Summary
}

// OK reports whether every test case passed.
func (r *RunResult) OK() bool {
	return r.Failed == 0
}

type TestResult struct {
	TestCase    *parser.TestCase
	Passed      bool
	StatusMatch bool
	// Status is the received status code, zero when no response arrived.
	Status     int
	Assertions []*assertions.Result
	Err        *http.RequestError
	ConfigErr  *parser.ConfigError
	Duration   time.Duration
	Response   *http.Response
}

func (r *TestResult) Name() string {
	return r.TestCase.Name
}

// Errored reports whether the test case failed without a response to check.
func (r *TestResult) Errored() bool {
	return r.Err != nil || r.ConfigErr != nil
}

// Reason summarises why the test case failed; it is empty for passing cases.
func (r *TestResult) Reason() string {
	switch {
	case r.Passed:
		return ""
	case r.ConfigErr != nil:
		return "config error: " + r.ConfigErr.Message
	case r.Err != nil:
		return "request error: " + r.Err.Error()
	case !r.StatusMatch:
		return fmt.Sprintf("expected status %d, got %d", r.TestCase.StatusCode, r.Status)
	}

	failed := 0
	for _, a := range r.Assertions {
		if !a.Passed {
			failed++
		}
	}
	if failed == 1 {
		return "1 assertion failed"
	}
	return fmt.Sprintf("%d assertions failed", failed)
}

// RunFile parses path and runs it. A parse error is returned before any
// request is sent.
func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	file, err := parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	return r.Run(ctx, file), nil
}

// Run executes the test cases of file. Results are in declaration order
// whatever the concurrency. A failing test case never stops the others; only
// cancelling ctx does.
func (r *Runner) Run(ctx context.Context, file *parser.File) *RunResult {
	exec := &execution{
		runner:   r,
		id:       uuid.NewString(),
		recorder: stats.NewRecorder(),
	}

	result := &RunResult{
		File:      file.Path,
		RunID:     exec.id,
		StartedAt: time.Now(),
	}

	var cases []*parser.TestCase
	for _, tc := range file.TestCases {
		if MatchesName(tc.Name, r.config.NameFilter) {
			cases = append(cases, tc)
		}
	}

	r.logger.Debug("starting run",
		"file", file.Path,
		"run_id", exec.id,
		"test_cases", len(cases),
		"concurrency", r.concurrency(),
	)

	if r.concurrency() > 1 {
		result.Results = exec.runParallel(ctx, cases, r.concurrency())
	} else {
		result.Results = exec.runSequential(ctx, cases)
	}

	for _, tr := range result.Results {
		switch {
		case tr.Passed:
			result.Passed++
		case tr.Errored():
			result.Failed++
			result.Errored++
		default:
			result.Failed++
		}
	}

	result.Duration = time.Since(result.StartedAt)
	result.Latency = exec.recorder.Summary()

	r.logger.Debug("finished run",
		"file", file.Path,
		"run_id", exec.id,
		"passed", result.Passed,
		"failed", result.Failed,
		"duration", result.Duration,
	)
	return result
}

func (r *Runner) concurrency() int {
	if !r.config.Parallel {
		return 1
	}
	if r.config.Concurrency > 0 {
		return r.config.Concurrency
	}
	return DefaultConcurrency
}

type execution struct {
	runner   *Runner
	id       string
	recorder *stats.Recorder
}

func (e *execution) runSequential(ctx context.Context, cases []*parser.TestCase) []*TestResult {
	results := make([]*TestResult, len(cases))
	for i, tc := range cases {
		if err := ctx.Err(); err != nil {
			results[i] = e.abandoned(tc, err)
			continue
		}
		results[i] = e.runTestCase(ctx, tc)
	}
	return results
}

// runParallel bounds in-flight requests with a weighted semaphore. Each task
// writes only its own slot, so the slice keeps declaration order.
func (e *execution) runParallel(ctx context.Context, cases []*parser.TestCase, concurrency int) []*TestResult {
	results := make([]*TestResult, len(cases))
	sem := semaphore.NewWeighted(int64(concurrency))

	var g errgroup.Group
	for i, tc := range cases {
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(cases); j++ {
				results[j] = e.abandoned(cases[j], err)
			}
			break
		}

		i, tc := i, tc
		g.Go(func() error {
			defer sem.Release(1)
			results[i] = e.runTestCase(ctx, tc)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// abandoned is the result of a test case the run never got to send.
func (e *execution) abandoned(tc *parser.TestCase, err error) *TestResult {
	if tc.ConfigErr != nil {
		return &TestResult{TestCase: tc, ConfigErr: tc.ConfigErr}
	}
	e.recorder.RecordError(false)
	return &TestResult{
		TestCase: tc,
		Err:      &http.RequestError{Kind: http.Classify(err), Err: err},
	}
}

func (e *execution) runTestCase(ctx context.Context, tc *parser.TestCase) *TestResult {
	logger := e.runner.logger
	result := &TestResult{TestCase: tc}

	if tc.ConfigErr != nil {
		logger.Warn("skipping test case with invalid assertion", "test_case", tc.Name, "error", tc.ConfigErr)
		result.ConfigErr = tc.ConfigErr
		return result
	}

	req, err := http.BuildRequest(tc)
	if err != nil {
		result.Err = &http.RequestError{Kind: http.ConnectionFailed, Err: err}
		return result
	}
	if _, ok := tc.Header(RunIDHeader); !ok {
		req.SetHeader(RunIDHeader, e.id)
	}

	logger.Debug("sending request", "test_case", tc.Name, "method", req.Method, "url", req.URL)

	start := time.Now()
	resp, err := e.runner.client.Do(ctx, req)
	result.Duration = time.Since(start)

	if err != nil {
		var reqErr *http.RequestError
		if !errors.As(err, &reqErr) {
			reqErr = &http.RequestError{Kind: http.Classify(err), Err: err}
		}
		result.Err = reqErr
		e.recorder.RecordError(reqErr.Kind == http.Timeout)
		logger.Warn("request failed", "test_case", tc.Name, "kind", reqErr.Kind.String(), "error", reqErr.Err)
		return result
	}

	e.recorder.Record(resp.Duration)
	result.Response = resp
	result.Status = resp.StatusCode
	result.StatusMatch = resp.StatusCode == tc.StatusCode
	result.Assertions = assertions.EvaluateAll(resp, tc.Assertions)

	result.Passed = result.StatusMatch
	for _, a := range result.Assertions {
		if !a.Passed {
			result.Passed = false
			break
		}
	}

	logger.Debug("test case finished", "test_case", tc.Name, "passed", result.Passed, "status", resp.StatusCode)
	return result
}

// MatchesName reports whether name matches a filter pattern. A leading or
// trailing "*" matches any suffix or prefix; both match a substring.
func MatchesName(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	if len(pattern) > 1 && pattern[0] == '*' && pattern[len(pattern)-1] == '*' {
		substr := pattern[1 : len(pattern)-1]
		for i := 0; i <= len(name)-len(substr); i++ {
			if name[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	}

	if pattern[0] == '*' {
		suffix := pattern[1:]
		return len(name) >= len(suffix) && name[len(name)-len(suffix):] == suffix
	}

	if pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(name) >= len(prefix) && name[:len(prefix)] == prefix
	}

	return name == pattern
}
