package assertions

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrCodeMismatch   = errors.New("response code mismatch")
	ErrStatusMismatch = errors.New("response status mismatch")
	ErrBodyMismatch   = errors.New("response body mismatch")
)

type MismatchKind string

const (
	CodeMismatch   MismatchKind = "code"
	StatusMismatch MismatchKind = "status"
	BodyMismatch   MismatchKind = "body"
)

const maxValueLen = 200

// MismatchError is returned when no expected response matches. Diff holds a
// unified diff of the bodies for body mismatches.
type MismatchError struct {
	Kind     MismatchKind
	Expected any
	Actual   any
	Diff     string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.sentinel(), short(e.Expected), short(e.Actual))
}

func (e *MismatchError) Unwrap() error {
	return e.sentinel()
}

func (e *MismatchError) sentinel() error {
	switch e.Kind {
	case CodeMismatch:
		return ErrCodeMismatch
	case StatusMismatch:
		return ErrStatusMismatch
	default:
		return ErrBodyMismatch
	}
}

func short(v any) string {
	var s string
	switch val := v.(type) {
	case string:
		s = fmt.Sprintf("%q", val)
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			s = fmt.Sprintf("%v", val)
		} else {
			s = string(data)
		}
	default:
		s = fmt.Sprintf("%v", val)
	}
	if len(s) > maxValueLen {
		s = s[:maxValueLen] + "..."
	}
	return s
}
