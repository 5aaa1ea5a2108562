package markup

import (
	"fmt"
	"regexp"
	"strings"
)

var statementPattern = regexp.MustCompile(`<[a-zA-Z0-9_:.@$%/\s\-{}\\+\[\]]+>`)

// Find returns the first markup statement in text, brackets stripped.
func Find(text string) (string, bool) {
	m := statementPattern.FindString(text)
	if m == "" {
		return "", false
	}
	return m[1 : len(m)-1], true
}

// Parse returns the directive found in text, or nil when text is plain.
func Parse(text string) (Directive, error) {
	stmt, ok := Find(text)
	if !ok {
		return nil, nil
	}

	name, _, _ := strings.Cut(stmt, ":")
	op := Op(name)
	n, ok := arity[op]
	if !ok {
		return nil, &UnknownDirectiveError{Op: name, Statement: text}
	}

	fields := strings.SplitN(stmt, ":", n)
	want, ok := required[op]
	if !ok {
		want = n
	}
	if len(fields) < want {
		return nil, fmt.Errorf("%w: %s expects %d arguments: %s", ErrMalformedDirective, op, want-1, text)
	}
	args := fields[1:]

	switch op {
	case OpSkip:
		return Skip{Reason: args[0]}, nil
	case OpExpectedFailure:
		return ExpectedFailure{Reason: args[0]}, nil
	case OpScenarioReference:
		return ScenarioReference{Path: args[0]}, nil
	case OpSetVariable:
		return parseSetVariable(args, text)
	case OpPartialValidation:
		return parsePartialValidation(args[0], text)
	}
	return nil, &UnknownDirectiveError{Op: name, Statement: text}
}

func parseSetVariable(args []string, text string) (Directive, error) {
	d := SetVariable{Name: args[0], Source: args[2]}
	switch args[1] {
	case "value":
		d.Kind = Literal
	case "response":
		d.Kind = ResponseProperty
	default:
		return nil, fmt.Errorf("%w: set-variable source must be value or response, got %q: %s", ErrMalformedDirective, args[1], text)
	}
	if d.Name == "" {
		return nil, fmt.Errorf("%w: set-variable needs a name: %s", ErrMalformedDirective, text)
	}
	return d, nil
}

func parsePartialValidation(mode, text string) (Directive, error) {
	switch strings.TrimSpace(mode) {
	case "keys_only":
		return PartialValidation{Mode: KeysOnly}, nil
	case "keys_and_values":
		return PartialValidation{Mode: KeysAndValues}, nil
	}
	return nil, fmt.Errorf("%w: unknown partial validation mode %q: %s", ErrMalformedDirective, mode, text)
}

// ParseAll parses every line of a script, skipping plain text.
func ParseAll(lines []string) ([]Directive, error) {
	var out []Directive
	for _, line := range lines {
		d, err := Parse(line)
		if err != nil {
			return nil, err
		}
		if d != nil {
			out = append(out, d)
		}
	}
	return out, nil
}
