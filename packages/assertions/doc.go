// Package assertions evaluates parsed mig assertions against a response.
//
// Supported assertions:
//   - HeaderExists: a header with the given name is present (name matched case-insensitively)
//   - HeaderValue: the header is present and its value matches exactly
//   - JSONPathExists: the path resolves to at least one node
//   - JSONPathValue: the path resolves to exactly one node equal to a typed literal
//
// Evaluation is pure. Failures are ordinary results carrying a detail message,
// never errors. The expected status code is checked by the runner.
package assertions
