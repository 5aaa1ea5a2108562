package runner

import (
	"time"

	"github.com/abdul-hamid-achik/scenarist/packages/http"
)

type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusXFail   Status = "xfail"
	StatusXPass   Status = "xpass"
)

type RunResult struct {
	File     string
	Name     string
	Results  []*StepResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
	XFailed  int
	// Recorded is the path the recorded document was written to, if any.
	Recorded string
}

type StepResult struct {
	Index       int
	Name        string
	Method      string
	URL         string
	Status      Status
	SkipReason  string
	XFailReason string
	Duration    time.Duration
	Request     *http.Request
	Response    *http.Response
	Error       error
}

// Passed reports whether the step counts as passed. Expected failures that
// did fail are not failures, but they are not passes either.
func (s *StepResult) Passed() bool {
	return s.Status == StatusPassed || s.Status == StatusXPass
}

func (s *StepResult) Failed() bool {
	return s.Status == StatusFailed
}

func (s *StepResult) Skipped() bool {
	return s.Status == StatusSkipped
}

func (r *RunResult) add(s *StepResult) {
	r.Results = append(r.Results, s)
	switch s.Status {
	case StatusPassed, StatusXPass:
		r.Passed++
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.Skipped++
	case StatusXFail:
		r.XFailed++
	}
}

// FailedIndices returns the indices of failed steps.
func (r *RunResult) FailedIndices() []int {
	var out []int
	for _, s := range r.Results {
		if s.Failed() {
			out = append(out, s.Index)
		}
	}
	return out
}

// Err returns a *StepsFailedError when any step failed.
func (r *RunResult) Err() error {
	if r.Failed == 0 {
		return nil
	}
	return &StepsFailedError{Path: r.File, Count: r.Failed, Indices: r.FailedIndices()}
}
