// Package output provides formatters for displaying test results.
//
// Supported output formats:
//   - Console: colored terminal output with per-case lines and a latency summary
//   - JSON and YAML: one machine-readable report for the whole invocation
//   - JUnit: JUnit XML format for CI integration
//   - TAP: Test Anything Protocol version 13
//   - XLSX: an Excel workbook with one worksheet per file
//
// Each formatter implements the Formatter interface. Formatters that write
// a single document for the whole invocation also implement Flushable.
package output
