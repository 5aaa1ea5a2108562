package expand

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/abdul-hamid-achik/scenarist/packages/core/directive"
	"github.com/abdul-hamid-achik/scenarist/packages/core/scenario"
	"github.com/abdul-hamid-achik/scenarist/packages/markup"
)

// ControlMethod marks steps that may refer to another scenario document.
const ControlMethod = http.MethodOptions

type Expander struct {
	store  scenario.Store
	logger *slog.Logger
}

type Option func(*Expander)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Expander) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func New(store scenario.Store, opts ...Option) *Expander {
	e := &Expander{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand replaces every control step of doc with the steps of the document
// it refers to, then renumbers the steps. environment holds the names of
// the run's environment variables.
func (e *Expander) Expand(doc *scenario.Document, environment map[string]any) error {
	merged := make(map[string]any, len(environment)+len(doc.Variables))
	for k, v := range environment {
		merged[k] = v
	}
	for k, v := range doc.VariableMap() {
		merged[k] = v
	}

	steps, err := e.expand(doc.Steps, e.store.DataDir(doc.Path), NewTrail(doc.Path), merged, environment)
	if err != nil {
		return fmt.Errorf("expanding %s: %w", doc.Path, err)
	}
	doc.Steps = steps
	doc.Reindex()
	return nil
}

func (e *Expander) expand(steps []*scenario.Step, dataDir string, trail Trail, callerScope, environment map[string]any) ([]*scenario.Step, error) {
	for i, step := range steps {
		ref, inherited, ok, err := controlReference(step)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		path, err := e.store.Resolve(ref, dataDir)
		if err != nil {
			return nil, err
		}
		if trail.Contains(path) {
			return nil, &CycleError{Path: path, Trail: trail.Paths()}
		}

		e.logger.Debug("loading referenced scenario", "step", step.Name, "path", path)
		referenced, err := e.store.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading referenced scenario: %w", err)
		}

		if missing := notDeclared(referenced.VariableNames(), callerScope); len(missing) > 0 {
			return nil, &NotSubsetError{Path: path, Missing: missing}
		}

		if len(referenced.Steps) > 0 {
			referenced.Steps[0].PrependPreRequest(inherited)
		}

		refScope := make(map[string]any, len(environment)+len(referenced.Variables))
		for k, v := range environment {
			refScope[k] = v
		}
		for k, v := range referenced.VariableMap() {
			refScope[k] = v
		}

		inner, err := e.expand(referenced.Steps, dataDir, trail.With(path), refScope, environment)
		if err != nil {
			return nil, err
		}
		rest, err := e.expand(steps[i+1:], dataDir, trail, callerScope, environment)
		if err != nil {
			return nil, err
		}

		out := make([]*scenario.Step, 0, i+len(inner)+len(rest))
		out = append(out, steps[:i]...)
		out = append(out, inner...)
		return append(out, rest...), nil
	}
	return steps, nil
}

// controlReference reports the first scenario reference of an OPTIONS step
// and the prerequest set-variable lines it hands down.
func controlReference(step *scenario.Step) (ref string, inherited []string, ok bool, err error) {
	if step.Method() != ControlMethod {
		return "", nil, false, nil
	}

	pre, err := step.PreRequestDirectives()
	if err != nil {
		return "", nil, false, err
	}
	post, err := step.PostRequestDirectives()
	if err != nil {
		return "", nil, false, err
	}

	refs := directive.References(append(append([]markup.Directive{}, pre...), post...))
	if len(refs) == 0 {
		return "", nil, false, nil
	}

	for _, line := range step.PreRequestScript() {
		d, err := markup.Parse(line)
		if err != nil {
			return "", nil, false, err
		}
		if _, isSet := d.(markup.SetVariable); isSet {
			inherited = append(inherited, line)
		}
	}
	return refs[0], inherited, true, nil
}

func notDeclared(names []string, scope map[string]any) []string {
	var missing []string
	for _, n := range names {
		if _, ok := scope[n]; !ok {
			missing = append(missing, n)
		}
	}
	sort.Strings(missing)
	return missing
}
