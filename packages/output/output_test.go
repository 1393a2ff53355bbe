package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/mig/packages/assertions"
	"github.com/abdul-hamid-achik/mig/packages/core/parser"
	"github.com/abdul-hamid-achik/mig/packages/core/runner"
	"github.com/abdul-hamid-achik/mig/packages/http"
	"github.com/abdul-hamid-achik/mig/packages/jsonpath"
	"github.com/abdul-hamid-achik/mig/packages/stats"
)

// sampleRun builds a run with one case of each outcome: passed, failed,
// timed out and misconfigured.
func sampleRun() *runner.RunResult {
	idPath := &parser.JSONPathValue{
		Expr:     "$.data.items[0].id",
		Path:     jsonpath.MustCompile("$.data.items[0].id"),
		Expected: parser.Literal{Kind: parser.LiteralInt, Int: 124, Raw: "124"},
		Line:     7,
	}
	header := &parser.HeaderExists{Name: "Content-Type", Line: 6}

	passed := &runner.TestResult{
		TestCase:    &parser.TestCase{Name: "list items", Method: parser.MethodGet, URL: "http://api.test/items", StatusCode: 200, Line: 1},
		Passed:      true,
		StatusMatch: true,
		Status:      200,
		Assertions:  []*assertions.Result{{Assertion: header, Passed: true, Actual: "application/json"}},
		Duration:    12 * time.Millisecond,
		Response: &http.Response{
			StatusCode: 200,
			Status:     "200 OK",
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       []byte(`{"data":{}}`),
		},
	}

	failed := &runner.TestResult{
		TestCase:    &parser.TestCase{Name: "wrong id", Method: parser.MethodGet, URL: "http://api.test/items", StatusCode: 201, Line: 9},
		StatusMatch: false,
		Status:      200,
		Assertions: []*assertions.Result{
			{Assertion: idPath, Detail: "expected 124, got 123", Actual: "123"},
		},
		Duration: 450 * time.Millisecond,
		Response: &http.Response{StatusCode: 200, Status: "200 OK", Body: []byte(`{}`)},
	}

	timedOut := &runner.TestResult{
		TestCase: &parser.TestCase{Name: "slow", Method: parser.MethodPost, URL: "http://api.test/slow", StatusCode: 200, Line: 15},
		Err:      &http.RequestError{Kind: http.Timeout, Err: errors.New("context deadline exceeded")},
		Duration: time.Second,
	}

	misconfigured := &runner.TestResult{
		TestCase:  &parser.TestCase{Name: "bad path", Method: parser.MethodGet, URL: "http://api.test/items", StatusCode: 200, Line: 20},
		ConfigErr: &parser.ConfigError{Record: "bad path", Assertion: "JSONPathExists: $..x", Line: 24, Message: "recursive descent ('..') is not supported"},
	}

	return &runner.RunResult{
		File:      "suite.mig",
		RunID:     "run-1",
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Results:   []*runner.TestResult{passed, failed, timedOut, misconfigured},
		Duration:  1500 * time.Millisecond,
		Passed:    1,
		Failed:    3,
		Errored:   2,
		Latency: stats.Summary{
			Count: 2,
			Min:   12 * time.Millisecond,
			Max:   450 * time.Millisecond,
			Mean:  231 * time.Millisecond,
			P50:   12 * time.Millisecond,
			P95:   450 * time.Millisecond,
			P99:   450 * time.Millisecond,
		},
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 bytes"},
		{1023, "1023 bytes"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1 << 20, "1.00 MB"},
		{5 << 30, "5.00 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.n), tt.n)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0 ms"},
		{850 * time.Millisecond, "850 ms"},
		{1250 * time.Millisecond, "1.250 s"},
		{59*time.Second + 5*time.Millisecond, "59.005 s"},
		{2*time.Minute + 5*time.Second, "2 min 5.000 s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.d), tt.d.String())
	}
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))
	f.FormatResult(sampleRun())
	out := buf.String()

	assert.Contains(t, out, "Running: suite.mig")
	assert.Contains(t, out, "✓ list items (12 ms)")
	assert.Contains(t, out, "Status: 200 OK  Size: 11 bytes")
	assert.Contains(t, out, "✗ wrong id (450 ms)")
	assert.Contains(t, out, "status: expected 201, got 200")
	assert.Contains(t, out, "JSONPathValue $.data.items[0].id")
	assert.Contains(t, out, "expected 124, got 123")
	assert.Contains(t, out, "x slow [Timeout]")
	assert.Contains(t, out, "x bad path [config error]")
	assert.Contains(t, out, "line 24: recursive descent")
	assert.Contains(t, out, "1 passed")
	assert.Contains(t, out, "3 failed")
	assert.Contains(t, out, "2 errored")
	assert.Contains(t, out, "4 total")
	assert.Contains(t, out, "Latency: p50 12 ms  p95 450 ms")
}

func TestConsoleFormatter_Quiet(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithQuiet(true))
	f.FormatResult(sampleRun())

	assert.NotContains(t, buf.String(), "list items")
	assert.Contains(t, buf.String(), "wrong id")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))
	f.FormatResult(sampleRun())
	require.NoError(t, f.Flush(2*time.Second))

	var rep Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))

	assert.Equal(t, ReportSummary{Total: 4, Passed: 1, Failed: 3, Errored: 2}, rep.Summary)
	assert.Equal(t, 2000.0, rep.Duration)
	require.Len(t, rep.Runs, 1)
	assert.Equal(t, "run-1", rep.Runs[0].RunID)
	assert.Equal(t, 450.0, rep.Runs[0].Latency.P95)

	require.Len(t, rep.Tests, 4)
	assert.Equal(t, "list items", rep.Tests[0].Name)
	assert.True(t, rep.Tests[0].Passed)
	assert.Equal(t, 11, rep.Tests[0].Response.Size)

	failed := rep.Tests[1]
	assert.False(t, failed.Status.Match)
	assert.Equal(t, 201, failed.Status.Expected)
	require.Len(t, failed.Assertions, 1)
	assert.Equal(t, "JSONPathValue", failed.Assertions[0].Kind)
	assert.Equal(t, "124", failed.Assertions[0].Expected)
	assert.Equal(t, "123", failed.Assertions[0].Actual)

	require.NotNil(t, rep.Tests[2].Error)
	assert.Equal(t, "Timeout", rep.Tests[2].Error.Kind)
	require.NotNil(t, rep.Tests[3].Error)
	assert.Equal(t, "ConfigError", rep.Tests[3].Error.Kind)
}

func TestJSONFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(JSONWithWriter(&buf)).Flush(0))
	assert.Contains(t, buf.String(), `"tests": []`)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewYAMLFormatter(YAMLWithWriter(&buf))
	f.FormatResult(sampleRun())
	require.NoError(t, f.Flush(time.Second))

	var rep Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &rep))
	assert.Equal(t, 4, rep.Summary.Total)
	assert.Equal(t, "suite.mig", rep.Runs[0].File)
	assert.Equal(t, "Timeout", rep.Tests[2].Error.Kind)
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))
	f.FormatResult(sampleRun())
	require.NoError(t, f.Flush(time.Second))

	assert.True(t, strings.HasPrefix(buf.String(), `<?xml version="1.0" encoding="UTF-8"?>`))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))
	assert.Equal(t, "mig", suites.Name)
	assert.Equal(t, 4, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 2, suites.Errors)

	require.Len(t, suites.TestSuites, 1)
	suite := suites.TestSuites[0]
	assert.Equal(t, []JUnitProperty{{Name: "runId", Value: "run-1"}}, suite.Properties)

	cases := suite.TestCases
	require.Len(t, cases, 4)
	assert.Nil(t, cases[0].Failure)
	assert.Nil(t, cases[0].Error)

	require.NotNil(t, cases[1].Failure)
	assert.Equal(t, "AssertionError", cases[1].Failure.Type)
	assert.Contains(t, cases[1].Failure.Content, "status: expected 201, got 200")
	assert.Contains(t, cases[1].Failure.Content, "expected 124, got 123")

	require.NotNil(t, cases[2].Error)
	assert.Equal(t, "Timeout", cases[2].Error.Type)
	require.NotNil(t, cases[3].Error)
	assert.Equal(t, "ConfigError", cases[3].Error.Type)
}

func TestTAPFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))
	f.FormatResult(sampleRun())
	require.NoError(t, f.Flush(time.Second))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "TAP version 13\n1..4\n"))
	assert.Contains(t, out, "ok 1 - list items\n")
	assert.Contains(t, out, "not ok 2 - wrong id\n")
	assert.Contains(t, out, `    - "status: expected 201, got 200"`)
	assert.Contains(t, out, "not ok 3 - slow\n")
	assert.Contains(t, out, "  severity: Timeout\n")
	assert.Contains(t, out, "  severity: ConfigError\n")
	assert.Contains(t, out, "# time 1.000 s\n")
}

func TestEscapeYAML(t *testing.T) {
	assert.Equal(t, "plain", escapeYAML("plain"))
	assert.Equal(t, `"a: b"`, escapeYAML("a: b"))
	assert.Equal(t, `"say \"hi\""`, escapeYAML(`say "hi"`))
	assert.Equal(t, `"one\ntwo"`, escapeYAML("one\ntwo"))
}

func TestXLSXFormatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	f := NewXLSXFormatter(XLSXWithPath(path))

	run := sampleRun()
	again := sampleRun()
	again.File = "other/suite.mig"
	f.FormatResult(run)
	f.FormatResult(again)
	require.NoError(t, f.Flush(time.Second))

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{"suite", "suite (2)"}, book.GetSheetList())

	header, err := book.GetCellValue("suite", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Name", header)

	name, _ := book.GetCellValue("suite", "B2")
	assert.Equal(t, "list items", name)
	result, _ := book.GetCellValue("suite", "G3")
	assert.Equal(t, "FAIL", result)
	reason, _ := book.GetCellValue("suite", "J4")
	assert.Equal(t, "request error: Timeout: context deadline exceeded", reason)

	passStyle, _ := book.GetCellStyle("suite", "A2")
	failStyle, _ := book.GetCellStyle("suite", "A3")
	assert.NotEqual(t, passStyle, failStyle)

	summary, _ := book.GetCellValue("suite", "A7")
	assert.Equal(t, "Summary", summary)
	runID, _ := book.GetCellValue("suite", "A9")
	assert.Equal(t, "Run ID: run-1", runID)
}

func TestXLSXFormatter_NeedsDestination(t *testing.T) {
	err := NewXLSXFormatter().Flush(0)
	require.Error(t, err)
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	assert.Equal(t, "a_b", sheetName("dir/a:b.mig", used))
	assert.Equal(t, "a_b (2)", sheetName("a:b.mig", used))
	assert.Equal(t, "Run", sheetName(".mig", used))

	long := strings.Repeat("x", 40) + ".mig"
	assert.Len(t, sheetName(long, used), 31)
}

var _ Formatter = (*ConsoleFormatter)(nil)
var _ Flushable = (*JSONFormatter)(nil)
var _ Flushable = (*YAMLFormatter)(nil)
var _ Flushable = (*JUnitFormatter)(nil)
var _ Flushable = (*TAPFormatter)(nil)
var _ Flushable = (*XLSXFormatter)(nil)
