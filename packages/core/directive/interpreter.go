package directive

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/abdul-hamid-achik/scenarist/packages/capture"
	"github.com/abdul-hamid-achik/scenarist/packages/core/env"
	"github.com/abdul-hamid-achik/scenarist/packages/http"
	"github.com/abdul-hamid-achik/scenarist/packages/markup"
)

type Phase int

const (
	PreRequest Phase = iota
	PostRequest
)

func (p Phase) String() string {
	if p == PostRequest {
		return "post-request"
	}
	return "pre-request"
}

// Outcome is what a directive list decided about the step.
type Outcome struct {
	Skipped         bool
	SkipReason      string
	ExpectedFailure bool
	XFailReason     string
}

type Interpreter struct {
	resolver *env.Resolver
	logger   *slog.Logger
}

type Option func(*Interpreter)

func WithLogger(logger *slog.Logger) Option {
	return func(in *Interpreter) {
		if logger != nil {
			in.logger = logger
		}
	}
}

func New(resolver *env.Resolver, opts ...Option) *Interpreter {
	in := &Interpreter{
		resolver: resolver,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Run executes directives in order. resp is nil for the pre-request phase;
// a post-request run without a response does nothing.
func (in *Interpreter) Run(phase Phase, directives []markup.Directive, resp *http.Response) (Outcome, error) {
	var out Outcome
	if phase == PostRequest && resp == nil {
		return out, nil
	}

	for _, d := range directives {
		in.logger.Debug("directive", "phase", phase.String(), "statement", d.String())

		switch d := d.(type) {
		case markup.Skip:
			out.Skipped = true
			out.SkipReason = d.Reason
			return out, nil

		case markup.ExpectedFailure:
			out.ExpectedFailure = true
			out.XFailReason = d.Reason

		case markup.SetVariable:
			if err := in.setVariable(d, resp); err != nil {
				return out, err
			}

		case markup.PartialValidation, markup.ScenarioReference:
			// read elsewhere: PartialMode and the expander
		}
	}
	return out, nil
}

func (in *Interpreter) setVariable(d markup.SetVariable, resp *http.Response) error {
	var value any

	switch d.Kind {
	case markup.Literal:
		resolved, err := in.resolver.Resolve(d.Source)
		if err != nil {
			return fmt.Errorf("set-variable %s: %w", d.Name, err)
		}
		value = resolved

	case markup.ResponseProperty:
		if resp == nil {
			in.logger.Warn("response property requested before any response", "name", d.Name, "path", d.Source)
			return nil
		}
		extracted, err := capture.NewExtractor(resp).Extract(d.Source)
		if err != nil {
			return fmt.Errorf("set-variable %s: %w", d.Name, err)
		}
		value = extracted
	}

	if !in.resolver.Scope().Update(d.Name, value) {
		in.logger.Warn("variable is not declared in any scope, value dropped", "name", d.Name)
		return nil
	}
	in.logger.Debug("variable set", "name", d.Name, "value", env.FormatValue(value))
	return nil
}

// PartialMode reports the partial validation mode requested by directives.
// The last request wins; NoPartial means full validation.
func PartialMode(directives []markup.Directive) markup.PartialMode {
	mode := markup.NoPartial
	for _, d := range directives {
		if pv, ok := d.(markup.PartialValidation); ok {
			mode = pv.Mode
		}
	}
	return mode
}

// References returns the scenario paths named by directives, in order.
func References(directives []markup.Directive) []string {
	var out []string
	for _, d := range directives {
		if ref, ok := d.(markup.ScenarioReference); ok {
			out = append(out, ref.Path)
		}
	}
	return out
}
