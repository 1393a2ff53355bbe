package output

import (
	"fmt"

	"github.com/abdul-hamid-achik/mig/packages/core/runner"
)

// failureLines lists the checks a test case failed, one line each.
func failureLines(r *runner.TestResult) []string {
	var lines []string
	if !r.StatusMatch {
		lines = append(lines, fmt.Sprintf("status: expected %d, got %d", r.TestCase.StatusCode, r.Status))
	}
	for _, a := range r.Assertions {
		if !a.Passed {
			lines = append(lines, fmt.Sprintf("%s %s: %s", a.Assertion.Kind(), a.Assertion.Target(), a.Detail))
		}
	}
	return lines
}
