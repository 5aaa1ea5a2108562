package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/scenarist/packages/core/runner"
)

// TAPFormatter formats step results in TAP (Test Anything Protocol) format
type TAPFormatter struct {
	writer    io.Writer
	testCount int
	results   []tapResult
}

type tapResult struct {
	number     int
	name       string
	status     runner.Status
	skipReason string
	error      string
	diff       []string
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{
		writer:  os.Stdout,
		results: make([]tapResult, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		f.testCount++
		tr := tapResult{
			number:     f.testCount,
			name:       r.Name,
			status:     r.Status,
			skipReason: r.SkipReason,
		}
		if r.Status == runner.StatusXFail {
			tr.skipReason = r.XFailReason
		}

		if r.Error != nil {
			tr.error = r.Error.Error()
			if m, ok := mismatch(r.Error); ok && m.Diff != "" {
				tr.diff = strings.Split(strings.TrimRight(m.Diff, "\n"), "\n")
			}
		}

		f.results = append(f.results, tr)
	}
}

func (f *TAPFormatter) FormatError(err error) {
	// Errors are included in individual test results
}

func (f *TAPFormatter) FormatHeader(version string) {
	// Header is written in Flush
}

// Flush writes the accumulated TAP output
func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	// TAP version header
	fmt.Fprintf(f.writer, "TAP version 13\n")

	// Test plan
	fmt.Fprintf(f.writer, "1..%d\n", f.testCount)

	// Individual step results
	for _, r := range f.results {
		switch r.status {
		case runner.StatusSkipped:
			reason := r.skipReason
			if reason == "" || reason == "filtered out" {
				reason = "SKIP"
			}
			fmt.Fprintf(f.writer, "ok %d - %s # SKIP %s\n", r.number, r.name, reason)
		case runner.StatusXFail:
			fmt.Fprintf(f.writer, "not ok %d - %s # TODO %s\n", r.number, r.name, strings.TrimSpace("xfail "+r.skipReason))
		case runner.StatusPassed, runner.StatusXPass:
			fmt.Fprintf(f.writer, "ok %d - %s\n", r.number, r.name)
		default:
			fmt.Fprintf(f.writer, "not ok %d - %s\n", r.number, r.name)
			if r.error == "" {
				continue
			}
			fmt.Fprintf(f.writer, "  ---\n")
			fmt.Fprintf(f.writer, "  message: %s\n", escapeYAML(r.error))
			fmt.Fprintf(f.writer, "  severity: fail\n")
			if len(r.diff) > 0 {
				fmt.Fprintf(f.writer, "  diff: |\n")
				for _, line := range r.diff {
					fmt.Fprintf(f.writer, "    %s\n", line)
				}
			}
			fmt.Fprintf(f.writer, "  ...\n")
		}
	}

	// Add final newline for proper TAP output
	fmt.Fprintln(f.writer)

	return nil
}

func escapeYAML(s string) string {
	// Simple YAML escaping - wrap in quotes if contains special chars
	if strings.ContainsAny(s, ":\n\"'[]{}#&*!|>%@`") {
		s = strings.ReplaceAll(s, "\"", "\\\"")
		return "\"" + s + "\""
	}
	return s
}
