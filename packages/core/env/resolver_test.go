package env

import (
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/scenarist/packages/builtin"
)

func newTestResolver(scenario, environment map[string]any) *Resolver {
	gen := builtin.NewGenerator(
		builtin.WithClock(func() time.Time { return time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC) }),
		builtin.WithRand(rand.New(rand.NewSource(1))),
	)
	return NewResolver(NewScope(NewVarsFromMap(scenario), NewVarsFromMap(environment)), gen)
}

func TestResolverResolve(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		scenario    map[string]any
		environment map[string]any
		expected    string
	}{
		{
			name:     "no tokens",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:     "scenario variable",
			input:    "/users/{{userId}}",
			scenario: map[string]any{"userId": "42"},
			expected: "/users/42",
		},
		{
			name:        "environment variable",
			input:       "{{host}}/health",
			environment: map[string]any{"host": "api.local"},
			expected:    "api.local/health",
		},
		{
			name:        "scenario shadows environment",
			input:       "{{x}}",
			scenario:    map[string]any{"x": "1"},
			environment: map[string]any{"x": "2"},
			expected:    "1",
		},
		{
			name:     "unresolved token left unchanged",
			input:    "{{a}} {{missing}}",
			scenario: map[string]any{"a": "A"},
			expected: "A {{missing}}",
		},
		{
			name:     "every occurrence replaced",
			input:    "{{a}}-{{a}}-{{a}}",
			scenario: map[string]any{"a": "z"},
			expected: "z-z-z",
		},
		{
			name:     "structured scenario value serialized",
			input:    `{"ids": {{ids}}}`,
			scenario: map[string]any{"ids": []any{float64(1), float64(2)}},
			expected: `{"ids": [1,2]}`,
		},
		{
			name:     "map value serialized",
			input:    `{{obj}}`,
			scenario: map[string]any{"obj": map[string]any{"k": "<v>"}},
			expected: `{"k":"<v>"}`,
		},
		{
			name:     "numbers rendered plainly",
			input:    "{{n}}",
			scenario: map[string]any{"n": float64(1500000)},
			expected: "1500000",
		},
		{
			name:     "dynamic with prefix",
			input:    "{{day$currentDate+1}}",
			expected: "day2024-01-16",
		},
		{
			name:     "tokens with spaces are not tokens",
			input:    "{{ a }}",
			scenario: map[string]any{"a": "x"},
			expected: "{{ a }}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(tt.scenario, tt.environment)
			got, err := r.Resolve(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolverResolve_Dynamic(t *testing.T) {
	r := newTestResolver(nil, nil)

	got, err := r.Resolve("{{$randomAlphaNumeric}}")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{16}$`), got)

	got, err = r.Resolve("{{$guid}}/{{$guid}}")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^([0-9a-f]{32})/([0-9a-f]{32})$`), got)
	assert.Equal(t, got[:32], got[33:], "one value per distinct token")

	got, err = r.Resolve("{{$currentDate-5}}")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", got)
}

func TestResolverResolve_DynamicErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		target error
	}{
		{"offset on guid", "{{$guid+1}}", builtin.ErrOperatorNotAllowed},
		{"two offsets", "{{$currentDate+1-2}}", builtin.ErrInvalidOffset},
		{"unknown generator", "{{$timestamp}}", builtin.ErrDynamicVariableNotSupported},
		{"offset on unknown generator", "{{$timestamp+5}}", builtin.ErrOperatorNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(nil, nil)
			_, err := r.Resolve(tt.input)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestResolverUnresolved(t *testing.T) {
	r := newTestResolver(map[string]any{"a": "1"}, map[string]any{"b": "2"})

	assert.Nil(t, r.Unresolved("{{a}} {{b}}"))
	assert.Equal(t, []string{"c", "d"}, r.Unresolved("{{c}} {{a}} {{d}} {{c}} {{$guid}}"))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"{{b}}", "{{a}}"}, Tokens("{{b}}{{a}}{{b}}"))
	assert.Nil(t, Tokens("none"))
}

func TestScopeUpdate(t *testing.T) {
	scope := NewScope(
		NewVarsFromMap(map[string]any{"shared": "s", "onlyScenario": "x"}),
		NewVarsFromMap(map[string]any{"shared": "e", "onlyEnv": "y"}),
	)

	assert.True(t, scope.Update("shared", "new"))
	v, _ := scope.Scenario.Get("shared")
	assert.Equal(t, "new", v)
	v, _ = scope.Environment.Get("shared")
	assert.Equal(t, "new", v)

	assert.True(t, scope.Update("onlyEnv", "z"))
	assert.False(t, scope.Scenario.Has("onlyEnv"))

	assert.False(t, scope.Update("undeclared", "v"))
	assert.False(t, scope.Declared("undeclared"))
	assert.Equal(t, []string{"onlyScenario", "shared"}, scope.Scenario.Keys())

	merged := scope.Merged()
	assert.Equal(t, "new", merged["shared"])
	assert.Equal(t, "z", merged["onlyEnv"])
	assert.Equal(t, "x", merged["onlyScenario"])
}
