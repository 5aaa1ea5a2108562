package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/scenarist/packages/assertions"
	"github.com/abdul-hamid-achik/scenarist/packages/audit"
	"github.com/abdul-hamid-achik/scenarist/packages/core/runner"
	"github.com/abdul-hamid-achik/scenarist/packages/http"
)

func sampleResult() *runner.RunResult {
	return &runner.RunResult{
		File:     "users/create.json",
		Name:     "create user",
		Duration: 120 * time.Millisecond,
		Passed:   2,
		Failed:   1,
		Skipped:  1,
		XFailed:  1,
		Results: []*runner.StepResult{
			{
				Index:    0,
				Name:     "login",
				Method:   "POST",
				URL:      "http://api.test/login",
				Status:   runner.StatusPassed,
				Duration: 10 * time.Millisecond,
				Request: &http.Request{
					Method:  "POST",
					URL:     "http://api.test/login",
					Headers: []http.KeyValue{{Key: "Content-Type", Value: "application/json"}},
				},
				Response: &http.Response{
					StatusCode: 200,
					Status:     "200 OK",
					Reason:     "OK",
					Headers:    map[string]string{"content-type": "application/json; charset=utf-8"},
					Duration:   9*time.Millisecond + 800*time.Microsecond,
				},
			},
			{
				Index:    1,
				Name:     "create",
				Method:   "POST",
				URL:      "http://api.test/users",
				Status:   runner.StatusFailed,
				Duration: 20 * time.Millisecond,
				Error: &assertions.MismatchError{
					Kind:     assertions.BodyMismatch,
					Expected: map[string]any{"id": 1.0},
					Actual:   map[string]any{"id": 2.0},
					Diff:     "--- expected\n+++ actual\n@@ -1,3 +1,3 @@\n {\n-  \"id\": 1\n+  \"id\": 2\n }\n",
				},
			},
			{
				Index:      2,
				Name:       "cleanup",
				Method:     "DELETE",
				Status:     runner.StatusSkipped,
				SkipReason: "not ready",
			},
			{
				Index:       3,
				Name:        "known bug",
				Method:      "GET",
				Status:      runner.StatusXFail,
				XFailReason: "issue 12",
				Error:       errors.New("boom"),
			},
			{
				Index:  4,
				Name:   "fixed bug",
				Method: "GET",
				Status: runner.StatusXPass,
			},
		},
	}
}

func TestConsoleFormatter_FormatResult(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatResult(sampleResult())
	out := buf.String()

	assert.Contains(t, out, "Running: create user (users/create.json)")
	assert.Contains(t, out, "✓ #0 POST login")
	assert.Contains(t, out, "✗ #1 POST create")
	assert.Contains(t, out, "body mismatch")
	assert.Contains(t, out, "{object with 1 keys}")
	assert.Contains(t, out, `-  "id": 1`)
	assert.Contains(t, out, `+  "id": 2`)
	assert.Contains(t, out, "- #2 DELETE cleanup (not ready)")
	assert.Contains(t, out, "x #3 GET known bug xfail")
	assert.Contains(t, out, "#4 GET fixed bug xpass")
	assert.Contains(t, out, "2 passed, 1 failed, 1 xfailed, 1 skipped, 5 total")
}

func TestConsoleFormatter_Verbose(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    []string
		absent  []string
	}{
		{
			name:    "verbose shows response details",
			verbose: true,
			want:    []string{"    POST http://api.test/login", "    Status: 200 OK", "    Content-Type: application/json; charset=utf-8"},
		},
		{
			name:   "quiet omits response details",
			absent: []string{"Status: 200", "Content-Type:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(tt.verbose))
			f.FormatResult(sampleResult())
			out := buf.String()
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, a := range tt.absent {
				assert.NotContains(t, out, a)
			}
		})
	}
}

func TestConsoleFormatter_PlainError(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatResult(&runner.RunResult{
		File:    "a.json",
		Failed:  1,
		Results: []*runner.StepResult{{Name: "s", Method: "GET", Status: runner.StatusFailed, Error: errors.New("connection refused")}},
	})

	assert.Contains(t, buf.String(), "→ connection refused")
}

func TestConsoleFormatter_FormatAudit(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatAudit(audit.Summary{Count: 3, P50: time.Millisecond, P95: 2 * time.Millisecond, P99: 3 * time.Millisecond, Max: 3 * time.Millisecond}, "logs/api_calls.csv")

	out := buf.String()
	assert.Contains(t, out, "Timing: 3 steps, p50 1ms")
	assert.Contains(t, out, "API calls: logs/api_calls.csv")
}

func TestConsoleFormatter_HeaderAndError(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatHeader("1.2.3")
	f.FormatError(errors.New("bad config"))

	assert.Equal(t, "scenarist 1.2.3\nError: bad config\n", buf.String())
}

func TestJSONFormatter_Flush(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))
	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, JSONSummary{Total: 5, Passed: 2, Failed: 1, Skipped: 1, XFailed: 1}, out.Summary)
	assert.Equal(t, float64(1000), out.Duration)
	require.Len(t, out.Steps, 5)

	login := out.Steps[0]
	require.NotNil(t, login.Request)
	assert.Equal(t, "application/json", login.Request.Headers["Content-Type"])
	require.NotNil(t, login.Response)
	assert.Equal(t, 200, login.Response.StatusCode)
	assert.Equal(t, float64(9), login.Response.Duration)

	create := out.Steps[1]
	assert.Equal(t, "failed", create.Status)
	require.NotNil(t, create.Mismatch)
	assert.Equal(t, "body", create.Mismatch.Kind)
	assert.Contains(t, create.Mismatch.Diff, `+  "id": 2`)

	assert.Equal(t, "not ready", out.Steps[2].SkipReason)
	assert.Equal(t, "xfail", out.Steps[3].Status)
}

func TestJUnitFormatter_Flush(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))
	f.FormatResult(sampleResult())
	f.FormatResult(&runner.RunResult{
		File:    "broken.json",
		Failed:  1,
		Results: []*runner.StepResult{{Name: "s", Status: runner.StatusFailed, Error: errors.New("dial tcp: refused")}},
	})
	require.NoError(t, f.Flush(2*time.Second))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "<?xml"))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))
	assert.Equal(t, "scenarist", suites.Name)
	assert.Equal(t, 6, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	assert.Equal(t, 2, suites.Skipped)

	first := suites.TestSuites[0]
	require.Len(t, first.TestCases, 5)
	require.NotNil(t, first.TestCases[1].Failure)
	assert.Equal(t, "MismatchError", first.TestCases[1].Failure.Type)
	assert.Contains(t, first.TestCases[1].Failure.Content, `-  "id": 1`)
	require.NotNil(t, first.TestCases[3].Skipped)
	assert.Equal(t, "expected failure: issue 12", first.TestCases[3].Skipped.Message)
	assert.Nil(t, first.TestCases[4].Failure)

	second := suites.TestSuites[1]
	require.NotNil(t, second.TestCases[0].Error)
	assert.Equal(t, "dial tcp: refused", second.TestCases[0].Error.Message)
}

func TestTAPFormatter_Flush(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))
	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "TAP version 13\n1..5\n"))
	assert.Contains(t, out, "ok 1 - login\n")
	assert.Contains(t, out, "not ok 2 - create\n")
	assert.Contains(t, out, "  diff: |\n")
	assert.Contains(t, out, "ok 3 - cleanup # SKIP not ready\n")
	assert.Contains(t, out, "not ok 4 - known bug # TODO xfail issue 12\n")
	assert.Contains(t, out, "ok 5 - fixed bug\n")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "abc", `"abc"`},
		{"long string", "abcdef", `"abc"...`},
		{"array", []any{1, 2}, "[array with 2 items]"},
		{"object", map[string]any{"a": 1}, "{object with 1 keys}"},
		{"number", 404, "404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.in, 3))
		})
	}
}
