package assertions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/scenarist/packages/http"
	"github.com/abdul-hamid-achik/scenarist/packages/markup"
)

// StatusOK as an expected status accepts any code below 400.
const StatusOK = "OK"

// Expected is one acceptable response. Nil fields are not checked.
type Expected struct {
	Code   *int
	Status *string
	Body   *string
}

// Resolver substitutes tokens in the expected body before comparison.
type Resolver interface {
	Resolve(input string) (string, error)
}

type Validator struct {
	excluded []string
	resolver Resolver
	logger   *slog.Logger
}

type ValidatorOption func(*Validator)

// WithExcludedProperties names object members ignored by full validation.
func WithExcludedProperties(names []string) ValidatorOption {
	return func(v *Validator) {
		v.excluded = append([]string(nil), names...)
	}
}

func WithResolver(r Resolver) ValidatorOption {
	return func(v *Validator) {
		v.resolver = r
	}
}

func WithLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// entryResult is the outcome of checking one expected entry.
type entryResult struct {
	codeOK   bool
	statusOK bool
	bodyOK   bool

	expectedBody any
	actualBody   any
	diff         string
}

func (r entryResult) ok() bool {
	return r.codeOK && r.statusOK && r.bodyOK
}

// Validate returns nil when actual satisfies one of expected, or when there
// is nothing to check. Otherwise it returns a *MismatchError for the last
// entry tried, reporting code before status before body.
func (v *Validator) Validate(expected []Expected, actual *http.Response, mode markup.PartialMode) error {
	if len(expected) == 0 {
		v.logger.Info("no expected response to validate")
		return nil
	}

	var last entryResult
	var lastEntry Expected
	for i, exp := range expected {
		res, err := v.check(exp, actual, mode)
		if err != nil {
			return err
		}
		if res.ok() {
			v.logger.Debug("expected response matched", "entry", i)
			return nil
		}
		last, lastEntry = res, exp
	}

	switch {
	case !last.codeOK:
		return &MismatchError{Kind: CodeMismatch, Expected: *lastEntry.Code, Actual: actual.StatusCode}
	case !last.statusOK:
		return &MismatchError{Kind: StatusMismatch, Expected: *lastEntry.Status, Actual: actual.Reason}
	default:
		return &MismatchError{Kind: BodyMismatch, Expected: last.expectedBody, Actual: last.actualBody, Diff: last.diff}
	}
}

func (v *Validator) check(exp Expected, actual *http.Response, mode markup.PartialMode) (entryResult, error) {
	res := entryResult{codeOK: true, statusOK: true, bodyOK: true}

	if exp.Code != nil {
		res.codeOK = *exp.Code == actual.StatusCode
	}

	if exp.Status != nil {
		if *exp.Status == StatusOK {
			res.statusOK = actual.OK()
		} else {
			res.statusOK = *exp.Status == actual.Reason
		}
	}

	if exp.Body == nil || !res.codeOK {
		return res, nil
	}

	expectedText := *exp.Body
	if v.resolver != nil {
		resolved, err := v.resolver.Resolve(expectedText)
		if err != nil {
			return res, fmt.Errorf("resolving expected body: %w", err)
		}
		expectedText = resolved
	}
	actualText := string(actual.Body)

	expectedValue, expOK := decodeJSON(expectedText)
	actualValue, actOK := decodeJSON(actualText)
	if !expOK || !actOK {
		if expectedText != actualText {
			return res, &MismatchError{
				Kind:     BodyMismatch,
				Expected: expectedText,
				Actual:   actualText,
				Diff:     udiff.Unified("expected", "actual", expectedText, actualText),
			}
		}
		return res, nil
	}

	if mode != markup.NoPartial {
		d := Diff(expectedValue, actualValue)
		res.bodyOK = partialMatch(d, mode)
		v.logger.Debug("partial body validation", "mode", mode.String(), "passed", res.bodyOK, "changes", len(d.All()))
	} else {
		StripProperties(expectedValue, v.excluded)
		StripProperties(actualValue, v.excluded)
		res.bodyOK = cmp.Equal(expectedValue, actualValue, numbers)
		if !res.bodyOK {
			v.logger.Debug("full body validation failed", "diff", cmp.Diff(expectedValue, actualValue, numbers))
		}
	}

	if !res.bodyOK {
		res.expectedBody = expectedValue
		res.actualBody = actualValue
		res.diff = jsonDiff(expectedValue, actualValue)
	}
	return res, nil
}

func partialMatch(d DiffResult, mode markup.PartialMode) bool {
	switch mode {
	case markup.KeysOnly:
		return len(d.TopLevelKeysRemoved()) == 0
	case markup.KeysAndValues:
		return len(d.KeysRemoved) == 0 || len(d.ValuesChanged) == 0
	}
	return d.Empty()
}

// decodeJSON keeps numbers as json.Number so large integers compare exactly.
func decodeJSON(text string) (any, bool) {
	if strings.TrimSpace(text) == "" || !gjson.Valid(text) {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

func jsonDiff(expected, actual any) string {
	e, err := json.MarshalIndent(expected, "", "  ")
	if err != nil {
		return ""
	}
	a, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		return ""
	}
	return udiff.Unified("expected", "actual", string(e)+"\n", string(a)+"\n")
}
