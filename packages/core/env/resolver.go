package env

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/scenarist/packages/builtin"
)

var tokenPattern = regexp.MustCompile(`\{\{[a-zA-Z0-9_$+-]+\}\}`)

// Resolver substitutes {{name}} tokens using a Scope and {{$name}} tokens
// using a dynamic value generator.
type Resolver struct {
	scope  *Scope
	gen    *builtin.Generator
	logger *slog.Logger
}

type ResolverOption func(*Resolver)

func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewResolver(scope *Scope, gen *builtin.Generator, opts ...ResolverOption) *Resolver {
	if scope == nil {
		scope = NewScope(nil, nil)
	}
	if gen == nil {
		gen = builtin.NewGenerator()
	}
	r := &Resolver{
		scope:  scope,
		gen:    gen,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Scope() *Scope {
	return r.scope
}

func (r *Resolver) Generator() *builtin.Generator {
	return r.gen
}

// Tokens returns the distinct {{...}} tokens of input in first-seen order.
func Tokens(input string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range tokenPattern.FindAllString(input, -1) {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

func tokenName(tok string) string {
	return tok[2 : len(tok)-2]
}

// Resolve replaces every token it can resolve. Tokens naming an undeclared
// variable are left as they are. Dynamic tokens fail on an unknown
// generator or a misplaced offset.
func (r *Resolver) Resolve(input string) (string, error) {
	out := input
	for _, tok := range Tokens(input) {
		val, ok, err := r.value(tokenName(tok))
		if err != nil {
			return "", err
		}
		if !ok {
			r.logger.Debug("unresolved variable", "token", tok)
			continue
		}
		out = strings.ReplaceAll(out, tok, val)
	}
	return out, nil
}

// Unresolved lists the variable names in input that neither tier declares.
// Dynamic tokens are never reported.
func (r *Resolver) Unresolved(input string) []string {
	var out []string
	for _, tok := range Tokens(input) {
		name := tokenName(tok)
		if strings.Contains(name, "$") {
			continue
		}
		if !r.scope.Declared(name) {
			out = append(out, name)
		}
	}
	return out
}

func (r *Resolver) value(name string) (string, bool, error) {
	if prefix, expr, dynamic := strings.Cut(name, "$"); dynamic {
		val, err := r.gen.Eval(expr)
		if err != nil {
			return "", false, fmt.Errorf("resolving {{%s}}: %w", name, err)
		}
		return prefix + val, true, nil
	}

	v, _, ok := r.scope.Lookup(name)
	if !ok {
		return "", false, nil
	}
	return FormatValue(v), true, nil
}

// FormatValue renders a variable value for substitution. Lists and maps
// become JSON text.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case []any, map[string]any, []string, map[string]string:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(val); err != nil {
			return fmt.Sprintf("%v", val)
		}
		return strings.TrimSuffix(buf.String(), "\n")
	default:
		return fmt.Sprintf("%v", val)
	}
}
