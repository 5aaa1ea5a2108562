package markup

import (
	"errors"
	"fmt"
	"strings"
)

type Op string

const (
	OpSkip              Op = "skip"
	OpExpectedFailure   Op = "xfail"
	OpSetVariable       Op = "set-variable"
	OpScenarioReference Op = "refer-scenario-file"
	OpPartialValidation Op = "is-partial-response-validation"
)

// arity is the number of ':'-separated fields, operation name included.
var arity = map[Op]int{
	OpSkip:              2,
	OpExpectedFailure:   2,
	OpSetVariable:       4,
	OpScenarioReference: 4,
	OpPartialValidation: 2,
}

// required is the minimum field count when it differs from arity.
var required = map[Op]int{
	OpScenarioReference: 2,
}

var (
	ErrUnknownDirective   = errors.New("unknown directive")
	ErrMalformedDirective = errors.New("malformed directive")
)

type UnknownDirectiveError struct {
	Op        string
	Statement string
}

func (e *UnknownDirectiveError) Error() string {
	return fmt.Sprintf("unknown directive %q in %s", e.Op, e.Statement)
}

func (e *UnknownDirectiveError) Unwrap() error {
	return ErrUnknownDirective
}

// Directive is one parsed markup statement. The concrete types are Skip,
// ExpectedFailure, SetVariable, PartialValidation and ScenarioReference.
type Directive interface {
	Op() Op
	String() string
	directive()
}

type Skip struct {
	Reason string
}

type ExpectedFailure struct {
	Reason string
}

type SourceKind int

const (
	Literal SourceKind = iota
	ResponseProperty
)

func (k SourceKind) String() string {
	if k == ResponseProperty {
		return "response"
	}
	return "value"
}

type SetVariable struct {
	Name   string
	Kind   SourceKind
	Source string
}

type PartialMode int

const (
	NoPartial PartialMode = iota
	KeysOnly
	KeysAndValues
)

func (m PartialMode) String() string {
	switch m {
	case KeysOnly:
		return "keys_only"
	case KeysAndValues:
		return "keys_and_values"
	default:
		return "none"
	}
}

type PartialValidation struct {
	Mode PartialMode
}

type ScenarioReference struct {
	Path string
}

func (Skip) Op() Op              { return OpSkip }
func (ExpectedFailure) Op() Op   { return OpExpectedFailure }
func (SetVariable) Op() Op       { return OpSetVariable }
func (PartialValidation) Op() Op { return OpPartialValidation }
func (ScenarioReference) Op() Op { return OpScenarioReference }

func (Skip) directive()              {}
func (ExpectedFailure) directive()   {}
func (SetVariable) directive()       {}
func (PartialValidation) directive() {}
func (ScenarioReference) directive() {}

func (d Skip) String() string {
	return format(OpSkip, d.Reason)
}

func (d ExpectedFailure) String() string {
	return format(OpExpectedFailure, d.Reason)
}

func (d SetVariable) String() string {
	return format(OpSetVariable, d.Name, d.Kind.String(), d.Source)
}

func (d PartialValidation) String() string {
	return format(OpPartialValidation, d.Mode.String())
}

func (d ScenarioReference) String() string {
	return format(OpScenarioReference, d.Path)
}

func format(op Op, args ...string) string {
	return "<" + strings.Join(append([]string{string(op)}, args...), ":") + ">"
}
