package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/scenarist/packages/builtin"
	"github.com/abdul-hamid-achik/scenarist/packages/capture"
	"github.com/abdul-hamid-achik/scenarist/packages/core/env"
	"github.com/abdul-hamid-achik/scenarist/packages/http"
	"github.com/abdul-hamid-achik/scenarist/packages/markup"
)

func newInterpreter(scenario, environment map[string]any) (*Interpreter, *env.Scope) {
	scope := env.NewScope(env.NewVarsFromMap(scenario), env.NewVarsFromMap(environment))
	return New(env.NewResolver(scope, builtin.NewGenerator())), scope
}

func parse(t *testing.T, lines ...string) []markup.Directive {
	t.Helper()
	ds, err := markup.ParseAll(lines)
	require.NoError(t, err)
	return ds
}

func TestRun_SetLiteral(t *testing.T) {
	in, scope := newInterpreter(
		map[string]any{"greeting": "", "name": "bob"},
		map[string]any{"greeting": "", "host": "h"},
	)

	_, err := in.Run(PreRequest, parse(t, "<set-variable:greeting:value:hi {{name}}@{{host}}>"), nil)
	require.NoError(t, err)

	v, _ := scope.Scenario.Get("greeting")
	assert.Equal(t, "hi bob@h", v)
	v, _ = scope.Environment.Get("greeting")
	assert.Equal(t, "hi bob@h", v)
}

func TestRun_SetUndeclaredIsNoOp(t *testing.T) {
	in, scope := newInterpreter(map[string]any{"a": "1"}, nil)

	_, err := in.Run(PreRequest, parse(t, "<set-variable:ghost:value:boo>"), nil)
	require.NoError(t, err)
	assert.False(t, scope.Declared("ghost"))
}

func TestRun_SetFromResponse(t *testing.T) {
	in, scope := newInterpreter(map[string]any{"token": "", "ids": ""}, map[string]any{"token": ""})
	resp := &http.Response{StatusCode: 200, Body: []byte(`{"auth": {"token": "abc"}, "list": {"ids": "[1, 2]"}}`)}

	_, err := in.Run(PostRequest, parse(t,
		"<set-variable:token:response:auth.token>",
		"<set-variable:ids:response:list.ids>",
	), resp)
	require.NoError(t, err)

	v, _ := scope.Environment.Get("token")
	assert.Equal(t, "abc", v)
	v, _ = scope.Scenario.Get("ids")
	assert.Equal(t, []any{float64(1), float64(2)}, v)
}

func TestRun_PropertyNotFound(t *testing.T) {
	in, _ := newInterpreter(map[string]any{"token": ""}, nil)
	resp := &http.Response{Body: []byte(`{"auth": {}}`)}

	_, err := in.Run(PostRequest, parse(t, "<set-variable:token:response:auth.token>"), resp)
	require.ErrorIs(t, err, capture.ErrPropertyNotFound)
}

func TestRun_PostRequestWithoutResponse(t *testing.T) {
	in, _ := newInterpreter(map[string]any{"token": ""}, nil)

	out, err := in.Run(PostRequest, parse(t, "<set-variable:token:response:missing>", "<skip:x>"), nil)
	require.NoError(t, err)
	assert.Equal(t, Outcome{}, out)
}

func TestRun_SkipStopsProcessing(t *testing.T) {
	in, scope := newInterpreter(map[string]any{"a": "before"}, nil)

	out, err := in.Run(PreRequest, parse(t,
		"<xfail:known issue>",
		"<skip:not deployed>",
		"<set-variable:a:value:after>",
	), nil)
	require.NoError(t, err)

	assert.True(t, out.Skipped)
	assert.Equal(t, "not deployed", out.SkipReason)
	assert.True(t, out.ExpectedFailure)
	assert.Equal(t, "known issue", out.XFailReason)

	v, _ := scope.Scenario.Get("a")
	assert.Equal(t, "before", v)
}

func TestRun_DynamicErrorPropagates(t *testing.T) {
	in, _ := newInterpreter(map[string]any{"d": ""}, nil)

	_, err := in.Run(PreRequest, parse(t, "<set-variable:d:value:{{$guid+1}}>"), nil)
	assert.ErrorIs(t, err, builtin.ErrOperatorNotAllowed)
}

func TestPartialMode(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected markup.PartialMode
	}{
		{"none", []string{"<skip:x>"}, markup.NoPartial},
		{"keys only", []string{"<is-partial-response-validation:keys_only>"}, markup.KeysOnly},
		{"last wins", []string{
			"<is-partial-response-validation:keys_only>",
			"<is-partial-response-validation:keys_and_values>",
		}, markup.KeysAndValues},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PartialMode(parse(t, tt.lines...)))
		})
	}
}

func TestReferences(t *testing.T) {
	ds := parse(t, "<refer-scenario-file:a.json>", "<set-variable:x:value:1>", "<refer-scenario-file:b.json>")
	assert.Equal(t, []string{"a.json", "b.json"}, References(ds))
}
