package runner

import (
	"errors"
	"fmt"
)

var ErrMethodNotSupported = errors.New("request method not supported")

// StepsFailedError is returned by RunFile when at least one step failed.
type StepsFailedError struct {
	Path    string
	Count   int
	Indices []int
}

func (e *StepsFailedError) Error() string {
	return fmt.Sprintf("%d step(s) failed in %s: %v", e.Count, e.Path, e.Indices)
}
