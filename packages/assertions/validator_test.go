package assertions

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/scenarist/packages/http"
	"github.com/abdul-hamid-achik/scenarist/packages/markup"
)

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func resp(code int, reason, body string) *http.Response {
	return &http.Response{StatusCode: code, Reason: reason, Body: []byte(body)}
}

type mapResolver map[string]string

func (m mapResolver) Resolve(input string) (string, error) {
	if v, ok := m[input]; ok {
		return v, nil
	}
	return input, nil
}

type failingResolver struct{}

func (failingResolver) Resolve(string) (string, error) {
	return "", errors.New("boom")
}

func TestValidate_NoExpectedResponses(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Validate(nil, resp(500, "Internal Server Error", ""), markup.NoPartial))
}

func TestValidate_Code(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate([]Expected{{Code: intPtr(201)}}, resp(201, "Created", ""), markup.NoPartial))

	err := v.Validate([]Expected{{Code: intPtr(200)}}, resp(404, "Not Found", ""), markup.NoPartial)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCodeMismatch))

	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, CodeMismatch, mismatch.Kind)
	assert.Equal(t, 200, mismatch.Expected)
	assert.Equal(t, 404, mismatch.Actual)
}

func TestValidate_Status(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		code    int
		reason  string
		wantErr bool
	}{
		{"ok sentinel accepts 2xx", StatusOK, 204, "No Content", false},
		{"ok sentinel accepts 3xx", StatusOK, 302, "Found", false},
		{"ok sentinel rejects 4xx", StatusOK, 400, "Bad Request", true},
		{"exact reason", "Created", 201, "Created", false},
		{"reason differs", "Created", 200, "OK", true},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate([]Expected{{Status: strPtr(tt.status)}}, resp(tt.code, tt.reason, ""), markup.NoPartial)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrStatusMismatch))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_FirstFullMatchWins(t *testing.T) {
	v := NewValidator()
	expected := []Expected{
		{Code: intPtr(200), Body: strPtr(`{"a":1}`)},
		{Code: intPtr(200), Body: strPtr(`{"a":2}`)},
	}
	assert.NoError(t, v.Validate(expected, resp(200, "OK", `{"a":2}`), markup.NoPartial))
	assert.NoError(t, v.Validate(expected, resp(200, "OK", `{"a":1}`), markup.NoPartial))

	err := v.Validate(expected, resp(200, "OK", `{"a":3}`), markup.NoPartial)
	assert.True(t, errors.Is(err, ErrBodyMismatch))
}

func TestValidate_ErrorPriorityFollowsLastEntry(t *testing.T) {
	v := NewValidator()
	expected := []Expected{
		{Code: intPtr(200), Body: strPtr(`{"a":1}`)},
		{Code: intPtr(201)},
	}
	err := v.Validate(expected, resp(200, "OK", `{"a":2}`), markup.NoPartial)
	assert.True(t, errors.Is(err, ErrCodeMismatch))

	err = v.Validate([]Expected{{Code: intPtr(500), Status: strPtr("Oops")}}, resp(200, "OK", ""), markup.NoPartial)
	assert.True(t, errors.Is(err, ErrCodeMismatch))
}

func TestValidate_BodySkippedWhenCodeDiffers(t *testing.T) {
	v := NewValidator()
	err := v.Validate([]Expected{{Code: intPtr(201), Body: strPtr("not json")}}, resp(200, "OK", "other"), markup.NoPartial)
	assert.True(t, errors.Is(err, ErrCodeMismatch))
}

func TestValidate_PartialModes(t *testing.T) {
	tests := []struct {
		name     string
		mode     markup.PartialMode
		expected string
		actual   string
		wantErr  bool
	}{
		{"keys only passes on extra keys", markup.KeysOnly, `{"a":1}`, `{"a":9,"b":2}`, false},
		{"keys only ignores nested removal", markup.KeysOnly, `{"a":{"x":1}}`, `{"a":{}}`, false},
		{"keys only fails on top level removal", markup.KeysOnly, `{"a":1,"b":2}`, `{"a":1}`, true},
		{"keys and values passes with changed values only", markup.KeysAndValues, `{"a":1,"b":2}`, `{"a":5,"b":2}`, false},
		{"keys and values passes with removed keys only", markup.KeysAndValues, `{"a":1,"b":2}`, `{"a":1}`, false},
		{"keys and values fails when both", markup.KeysAndValues, `{"a":1,"b":2}`, `{"a":5}`, true},
		{"full fails on extra key", markup.NoPartial, `{"a":1}`, `{"a":1,"b":2}`, true},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate([]Expected{{Body: strPtr(tt.expected)}}, resp(200, "OK", tt.actual), tt.mode)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrBodyMismatch))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_ExcludedPropertiesAtAnyDepth(t *testing.T) {
	expected := `{"id":"e1","user":{"id":"e2","name":"ann"},"tags":[{"id":"e3","v":1}]}`
	actual := `{"id":"a1","user":{"id":"a2","name":"ann"},"tags":[{"id":"a3","v":1}]}`

	err := NewValidator().Validate([]Expected{{Body: strPtr(expected)}}, resp(200, "OK", actual), markup.NoPartial)
	assert.True(t, errors.Is(err, ErrBodyMismatch))

	v := NewValidator(WithExcludedProperties([]string{"id"}))
	assert.NoError(t, v.Validate([]Expected{{Body: strPtr(expected)}}, resp(200, "OK", actual), markup.NoPartial))
}

func TestValidate_RawTextBody(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Validate([]Expected{{Body: strPtr("pong")}}, resp(200, "OK", "pong"), markup.NoPartial))

	// A raw mismatch stops at the first entry even if a later one would match.
	expected := []Expected{{Body: strPtr("ping")}, {Body: strPtr("pong")}}
	err := v.Validate(expected, resp(200, "OK", "pong"), markup.NoPartial)
	require.Error(t, err)
	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, BodyMismatch, mismatch.Kind)
	assert.Equal(t, "ping", mismatch.Expected)
	assert.NotEmpty(t, mismatch.Diff)
}

func TestValidate_ResolvesExpectedBody(t *testing.T) {
	v := NewValidator(WithResolver(mapResolver{`{"id":"{{id}}"}`: `{"id":"42"}`}))
	assert.NoError(t, v.Validate([]Expected{{Body: strPtr(`{"id":"{{id}}"}`)}}, resp(200, "OK", `{"id":"42"}`), markup.NoPartial))

	v = NewValidator(WithResolver(failingResolver{}))
	err := v.Validate([]Expected{{Body: strPtr(`{}`)}}, resp(200, "OK", `{}`), markup.NoPartial)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolving expected body")
}

func TestValidate_BodyMismatchCarriesDiff(t *testing.T) {
	err := NewValidator().Validate([]Expected{{Body: strPtr(`{"a":1}`)}}, resp(200, "OK", `{"a":2}`), markup.NoPartial)
	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Contains(t, mismatch.Diff, `-  "a": 1`)
	assert.Contains(t, mismatch.Diff, `+  "a": 2`)
}

func TestValidate_LargeIntegersCompareExactly(t *testing.T) {
	v := NewValidator()

	err := v.Validate([]Expected{{Code: intPtr(200), Body: strPtr(`{"id": 9007199254740993}`)}}, resp(200, "OK", `{"id": 9007199254740992}`), markup.NoPartial)
	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, BodyMismatch, mismatch.Kind)
	assert.Contains(t, mismatch.Diff, `-  "id": 9007199254740993`)

	err = v.Validate([]Expected{{Body: strPtr(`{"id": 9007199254740993}`)}}, resp(200, "OK", `{"id": 9007199254740992}`), markup.KeysAndValues)
	assert.NoError(t, err, "keys_and_values passes while no key is missing")

	assert.NoError(t, v.Validate([]Expected{{Body: strPtr(`{"n": 1, "list": [2.0]}`)}}, resp(200, "OK", `{"n": 1.0, "list": [2]}`), markup.NoPartial))
}
