package expand

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrReferenceCycle        = errors.New("scenario reference cycle")
	ErrScenarioVarsNotSubset = errors.New("referenced scenario variables are not a subset of the caller's")
)

type CycleError struct {
	Path  string
	Trail []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("scenario reference cycle: %s -> %s", strings.Join(e.Trail, " -> "), e.Path)
}

func (e *CycleError) Unwrap() error {
	return ErrReferenceCycle
}

type NotSubsetError struct {
	Path    string
	Missing []string
}

func (e *NotSubsetError) Error() string {
	return fmt.Sprintf("scenario %s declares variables unknown to its caller: %s", e.Path, strings.Join(e.Missing, ", "))
}

func (e *NotSubsetError) Unwrap() error {
	return ErrScenarioVarsNotSubset
}
