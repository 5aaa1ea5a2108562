package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/scenarist/packages/core/runner"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary `json:"summary"`
	Steps    []JSONStep  `json:"steps"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary represents the run summary
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	XFailed int `json:"xfailed"`
}

// JSONStep represents a single step result
type JSONStep struct {
	Index      int           `json:"index"`
	Name       string        `json:"name"`
	File       string        `json:"file"`
	Status     string        `json:"status"`
	SkipReason string        `json:"skipReason,omitempty"`
	Duration   float64       `json:"duration"`
	Error      string        `json:"error,omitempty"`
	Mismatch   *JSONMismatch `json:"mismatch,omitempty"`
	Request    *JSONRequest  `json:"request,omitempty"`
	Response   *JSONResponse `json:"response,omitempty"`
}

// JSONMismatch carries the details of a failed response validation
type JSONMismatch struct {
	Kind     string `json:"kind"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Diff     string `json:"diff,omitempty"`
}

// JSONRequest represents request details
type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// JSONResponse represents response details
type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
	Duration   float64           `json:"duration"`
}

// JSONFormatter formats run results as JSON
type JSONFormatter struct {
	writer  io.Writer
	results []JSONStep
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONStep, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		step := JSONStep{
			Index:    r.Index,
			Name:     r.Name,
			File:     result.File,
			Status:   string(r.Status),
			Duration: float64(r.Duration.Milliseconds()),
		}

		if r.SkipReason != "" && r.SkipReason != "filtered out" {
			step.SkipReason = r.SkipReason
		}

		if r.Error != nil {
			step.Error = r.Error.Error()
			if m, ok := mismatch(r.Error); ok {
				step.Mismatch = &JSONMismatch{
					Kind:     string(m.Kind),
					Expected: m.Expected,
					Actual:   m.Actual,
					Diff:     m.Diff,
				}
			}
		}

		if r.Request != nil {
			req := &JSONRequest{
				Method: r.Request.Method,
				URL:    r.URL,
			}
			if len(r.Request.Headers) > 0 {
				req.Headers = make(map[string]string, len(r.Request.Headers))
				for _, h := range r.Request.Headers {
					req.Headers[h.Key] = h.Value
				}
			}
			step.Request = req
		}

		if r.Response != nil {
			step.Response = &JSONResponse{
				StatusCode: r.Response.StatusCode,
				Status:     r.Response.Status,
				Headers:    r.Response.Headers,
				Duration:   float64(r.Response.DurationMs()),
			}
		}

		f.results = append(f.results, step)
	}
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual step results
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var summary JSONSummary
	summary.Total = len(f.results)
	for _, s := range f.results {
		switch runner.Status(s.Status) {
		case runner.StatusPassed, runner.StatusXPass:
			summary.Passed++
		case runner.StatusFailed:
			summary.Failed++
		case runner.StatusSkipped:
			summary.Skipped++
		case runner.StatusXFail:
			summary.XFailed++
		}
	}

	output := JSONOutput{
		Summary:  summary,
		Steps:    f.results,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
