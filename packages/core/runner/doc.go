// Package runner executes mig definition files.
//
// It provides functionality for:
//   - Running individual test files
//   - Bounded parallel execution with a configurable in-flight limit
//   - Per-request timeouts that never affect sibling test cases
//   - Status code checks and assertion evaluation per test case
//   - Latency statistics per run
//
// Results are always reported in declaration order. Parse errors abort a
// file before any request is sent, while request and assertion failures are
// recorded on the failing test case and the run continues.
package runner
