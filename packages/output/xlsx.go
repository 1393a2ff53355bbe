package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/mig/packages/core/runner"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxMaxSheetName = 31
	xlsxColumnWidth  = 16

	patternType    = "pattern"
	patternValue   = 1
	errorBgColor   = "FF5900"
	warningBgColor = "FFEB9C"

	// SlowThreshold marks passing rows in the workbook as slow.
	SlowThreshold = 300 * time.Millisecond
)

var xlsxHeaders = []string{
	"#", "Name", "Method", "URL", "Expected Status", "Status",
	"Result", "Duration (ms)", "Size", "Reason", "Line",
}

// XLSXFormatter writes one worksheet per file into an Excel workbook.
type XLSXFormatter struct {
	path   string
	writer io.Writer
	runs   []*runner.RunResult
}

type XLSXOption func(*XLSXFormatter)

func NewXLSXFormatter(opts ...XLSXOption) *XLSXFormatter {
	f := &XLSXFormatter{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// XLSXWithPath saves the workbook to path on Flush.
func XLSXWithPath(path string) XLSXOption {
	return func(f *XLSXFormatter) {
		f.path = path
	}
}

func XLSXWithWriter(w io.Writer) XLSXOption {
	return func(f *XLSXFormatter) {
		f.writer = w
	}
}

func (f *XLSXFormatter) FormatResult(result *runner.RunResult) {
	f.runs = append(f.runs, result)
}

func (f *XLSXFormatter) FormatError(err error) {}

func (f *XLSXFormatter) FormatHeader(version string) {}

func (f *XLSXFormatter) Flush(totalDuration time.Duration) error {
	if f.path == "" && f.writer == nil {
		return fmt.Errorf("xlsx output needs a file path")
	}

	book := excelize.NewFile()
	defer book.Close()

	errorStyle, err := book.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: patternType, Pattern: patternValue, Color: []string{errorBgColor}},
	})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}
	warningStyle, err := book.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: patternType, Pattern: patternValue, Color: []string{warningBgColor}},
	})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}
	headerStyle, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}

	styles := xlsxStyles{failed: errorStyle, slow: warningStyle, header: headerStyle}
	defaultSheet := book.GetSheetName(0)
	used := make(map[string]bool)

	for i, run := range f.runs {
		name := sheetName(run.File, used)
		if i == 0 {
			if err := book.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("naming sheet: %w", err)
			}
		} else if _, err := book.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet: %w", err)
		}
		if err := writeSheet(book, name, run, styles); err != nil {
			return err
		}
	}
	book.SetActiveSheet(0)

	if f.path != "" {
		if err := book.SaveAs(f.path); err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
		return nil
	}
	return book.Write(f.writer)
}

type xlsxStyles struct {
	failed, slow, header int
}

func writeSheet(book *excelize.File, sheet string, run *runner.RunResult, styles xlsxStyles) error {
	lastCol, _ := excelize.ColumnNumberToName(len(xlsxHeaders))
	if err := book.SetColWidth(sheet, "A", lastCol, xlsxColumnWidth); err != nil {
		return fmt.Errorf("setting column width: %w", err)
	}

	for i, header := range xlsxHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		book.SetCellValue(sheet, cell, header)
	}
	book.SetCellStyle(sheet, "A1", lastCol+"1", styles.header)

	for i, r := range run.Results {
		row := i + 2
		result := "PASS"
		if !r.Passed {
			result = "FAIL"
		}
		size := ""
		if r.Response != nil {
			size = FormatSize(r.Response.Size())
		}

		cells := []any{
			i + 1,
			r.Name(),
			string(r.TestCase.Method),
			r.TestCase.URL,
			r.TestCase.StatusCode,
			r.Status,
			result,
			ms(r.Duration),
			size,
			r.Reason(),
			r.TestCase.Line,
		}
		for col, value := range cells {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			book.SetCellValue(sheet, cell, value)
		}

		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(cells), row)
		switch {
		case !r.Passed:
			book.SetCellStyle(sheet, first, last, styles.failed)
		case r.Duration > SlowThreshold:
			book.SetCellStyle(sheet, first, last, styles.slow)
		}
	}

	summaryRow := len(run.Results) + 3
	summary := []string{
		"Summary",
		"File: " + run.File,
		"Run ID: " + run.RunID,
		fmt.Sprintf("Total time: %s", FormatDuration(run.Duration)),
		fmt.Sprintf("Test cases: %d", len(run.Results)),
		fmt.Sprintf("Passed: %d", run.Passed),
		fmt.Sprintf("Failed: %d", run.Failed),
		fmt.Sprintf("Errored: %d", run.Errored),
	}
	if l := run.Latency; l.Count > 0 {
		summary = append(summary, fmt.Sprintf("Latency p50/p95/p99: %s / %s / %s",
			FormatDuration(l.P50), FormatDuration(l.P95), FormatDuration(l.P99)))
	}
	for i, line := range summary {
		book.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow+i), line)
	}
	book.SetCellStyle(sheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("A%d", summaryRow), styles.header)
	return nil
}

// sheetName derives a unique worksheet name from a file path.
func sheetName(file string, used map[string]bool) string {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	base = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, base)
	if base == "" {
		base = "Run"
	}

	name := truncateRunes(base, xlsxMaxSheetName)
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncateRunes(base, xlsxMaxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
