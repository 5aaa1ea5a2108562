package output

import (
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/scenarist/packages/assertions"
	"github.com/abdul-hamid-achik/scenarist/packages/core/runner"
)

// Formatter renders run results.
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable is implemented by formatters that write once all results are in.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Names of the supported formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatJUnit   = "junit"
	FormatTAP     = "tap"
)

// mismatch returns the validation mismatch behind err, if any.
func mismatch(err error) (*assertions.MismatchError, bool) {
	var m *assertions.MismatchError
	if errors.As(err, &m) {
		return m, true
	}
	return nil, false
}

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	case string:
		if len(val) > maxLen {
			return fmt.Sprintf("%q...", val[:maxLen])
		}
		return fmt.Sprintf("%q", val)
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}
