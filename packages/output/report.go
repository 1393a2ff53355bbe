package output

import (
	"time"

	"github.com/abdul-hamid-achik/mig/packages/core/parser"
	"github.com/abdul-hamid-achik/mig/packages/core/runner"
)

// Report is the document written by the JSON and YAML formatters.
type Report struct {
	Summary  ReportSummary `json:"summary" yaml:"summary"`
	Runs     []ReportRun   `json:"runs" yaml:"runs"`
	Tests    []ReportTest  `json:"tests" yaml:"tests"`
	Duration float64       `json:"duration" yaml:"duration"` // milliseconds
	Time     string        `json:"time" yaml:"time"`
}

type ReportSummary struct {
	Total   int `json:"total" yaml:"total"`
	Passed  int `json:"passed" yaml:"passed"`
	Failed  int `json:"failed" yaml:"failed"`
	Errored int `json:"errored" yaml:"errored"`
}

// ReportRun describes one file of the invocation.
type ReportRun struct {
	File    string        `json:"file" yaml:"file"`
	RunID   string        `json:"runId" yaml:"runId"`
	Passed  int           `json:"passed" yaml:"passed"`
	Failed  int           `json:"failed" yaml:"failed"`
	Latency ReportLatency `json:"latency" yaml:"latency"`
}

// ReportLatency holds response latencies in milliseconds.
type ReportLatency struct {
	Count int64   `json:"count" yaml:"count"`
	Min   float64 `json:"min" yaml:"min"`
	Mean  float64 `json:"mean" yaml:"mean"`
	P50   float64 `json:"p50" yaml:"p50"`
	P95   float64 `json:"p95" yaml:"p95"`
	P99   float64 `json:"p99" yaml:"p99"`
	Max   float64 `json:"max" yaml:"max"`
}

type ReportTest struct {
	Name       string            `json:"name" yaml:"name"`
	File       string            `json:"file" yaml:"file"`
	Line       int               `json:"line" yaml:"line"`
	Method     string            `json:"method" yaml:"method"`
	URL        string            `json:"url" yaml:"url"`
	Passed     bool              `json:"passed" yaml:"passed"`
	Duration   float64           `json:"duration" yaml:"duration"`
	Status     ReportStatus      `json:"status" yaml:"status"`
	Error      *ReportError      `json:"error,omitempty" yaml:"error,omitempty"`
	Response   *ReportResponse   `json:"response,omitempty" yaml:"response,omitempty"`
	Assertions []ReportAssertion `json:"assertions,omitempty" yaml:"assertions,omitempty"`
}

type ReportStatus struct {
	Expected int  `json:"expected" yaml:"expected"`
	Actual   int  `json:"actual,omitempty" yaml:"actual,omitempty"`
	Match    bool `json:"match" yaml:"match"`
}

// ReportError is set for test cases that produced no response to check.
// Kind is ConnectionFailed, Timeout, InvalidResponse or ConfigError.
type ReportError struct {
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

type ReportResponse struct {
	StatusCode int               `json:"statusCode" yaml:"statusCode"`
	Status     string            `json:"status" yaml:"status"`
	Size       int               `json:"size" yaml:"size"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

type ReportAssertion struct {
	Kind     string `json:"kind" yaml:"kind"`
	Target   string `json:"target" yaml:"target"`
	Expected string `json:"expected,omitempty" yaml:"expected,omitempty"`
	Actual   string `json:"actual,omitempty" yaml:"actual,omitempty"`
	Passed   bool   `json:"passed" yaml:"passed"`
	Detail   string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// reportCollector accumulates runs for formatters that write one document.
type reportCollector struct {
	runs  []ReportRun
	tests []ReportTest
}

func (c *reportCollector) add(result *runner.RunResult) {
	c.runs = append(c.runs, ReportRun{
		File:    result.File,
		RunID:   result.RunID,
		Passed:  result.Passed,
		Failed:  result.Failed,
		Latency: newReportLatency(result),
	})
	for _, r := range result.Results {
		c.tests = append(c.tests, newReportTest(result.File, r))
	}
}

func (c *reportCollector) report(totalDuration time.Duration) Report {
	rep := Report{
		Runs:     c.runs,
		Tests:    c.tests,
		Duration: ms(totalDuration),
		Time:     time.Now().Format(time.RFC3339),
	}
	if rep.Runs == nil {
		rep.Runs = []ReportRun{}
	}
	if rep.Tests == nil {
		rep.Tests = []ReportTest{}
	}

	for _, t := range c.tests {
		rep.Summary.Total++
		switch {
		case t.Passed:
			rep.Summary.Passed++
		case t.Error != nil:
			rep.Summary.Failed++
			rep.Summary.Errored++
		default:
			rep.Summary.Failed++
		}
	}
	return rep
}

func newReportLatency(result *runner.RunResult) ReportLatency {
	l := result.Latency
	return ReportLatency{
		Count: l.Count,
		Min:   ms(l.Min),
		Mean:  ms(l.Mean),
		P50:   ms(l.P50),
		P95:   ms(l.P95),
		P99:   ms(l.P99),
		Max:   ms(l.Max),
	}
}

func newReportTest(file string, r *runner.TestResult) ReportTest {
	tc := r.TestCase
	test := ReportTest{
		Name:     tc.Name,
		File:     file,
		Line:     tc.Line,
		Method:   string(tc.Method),
		URL:      tc.URL,
		Passed:   r.Passed,
		Duration: ms(r.Duration),
		Status: ReportStatus{
			Expected: tc.StatusCode,
			Actual:   r.Status,
			Match:    r.StatusMatch,
		},
	}

	switch {
	case r.ConfigErr != nil:
		test.Error = &ReportError{Kind: "ConfigError", Message: r.ConfigErr.Error()}
	case r.Err != nil:
		test.Error = &ReportError{Kind: r.Err.Kind.String(), Message: r.Err.Err.Error()}
	}

	if r.Response != nil {
		test.Response = &ReportResponse{
			StatusCode: r.Response.StatusCode,
			Status:     r.Response.Status,
			Size:       r.Response.Size(),
			Headers:    r.Response.Headers,
		}
	}

	for _, a := range r.Assertions {
		test.Assertions = append(test.Assertions, ReportAssertion{
			Kind:     a.Assertion.Kind().String(),
			Target:   a.Assertion.Target(),
			Expected: parser.Expected(a.Assertion),
			Actual:   a.Actual,
			Passed:   a.Passed,
			Detail:   a.Detail,
		})
	}
	return test
}
