package output

import (
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/mig/packages/core/runner"
)

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Formats lists the names accepted by --output.
var Formats = []string{"console", "json", "yaml", "junit", "tap", "xlsx"}

// FormatSize renders a byte count in binary units.
func FormatSize(n int) string {
	size := float64(n)
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GB", size/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MB", size/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KB", size/(1<<10))
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

// FormatDuration renders d as "850 ms", "1.250 s" or "2 min 5.000 s".
func FormatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	millis := int64(d%time.Second) / int64(time.Millisecond)

	switch {
	case secs >= 60:
		return fmt.Sprintf("%d min %d.%03d s", secs/60, secs%60, millis)
	case secs > 0:
		return fmt.Sprintf("%d.%03d s", secs, millis)
	default:
		return fmt.Sprintf("%d ms", millis)
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
