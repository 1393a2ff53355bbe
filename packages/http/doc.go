// Package http provides HTTP client functionality for mig test execution.
//
// It wraps the standard library's http package with additional features:
//   - Per-request timeouts carried on the request context
//   - Redirect handling
//   - Request building from parsed test cases
//   - Optional request pacing through a shared rate limiter
//   - Failure classification into ConnectionFailed, Timeout and InvalidResponse
package http
