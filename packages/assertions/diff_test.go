package assertions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, s string) any {
	t.Helper()
	v, ok := decodeJSON(s)
	require.True(t, ok, "invalid json: %s", s)
	return v
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name          string
		expected      string
		actual        string
		keysRemoved   []string
		valuesChanged []string
		empty         bool
	}{
		{
			name:     "identical",
			expected: `{"a":1,"b":{"c":"x"}}`,
			actual:   `{"b":{"c":"x"},"a":1}`,
			empty:    true,
		},
		{
			name:        "top level key removed",
			expected:    `{"a":1,"b":2}`,
			actual:      `{"a":1}`,
			keysRemoved: []string{"root['b']"},
		},
		{
			name:        "nested key removed",
			expected:    `{"a":{"b":1,"c":2}}`,
			actual:      `{"a":{"b":1}}`,
			keysRemoved: []string{"root['a']['c']"},
		},
		{
			name:          "value changed in array",
			expected:      `{"items":[{"id":1},{"id":2}]}`,
			actual:        `{"items":[{"id":1},{"id":3}]}`,
			valuesChanged: []string{"root['items'][1]['id']"},
		},
		{
			name:          "64-bit integers differ in the last digit",
			expected:      `{"id":9007199254740993}`,
			actual:        `{"id":9007199254740992}`,
			valuesChanged: []string{"root['id']"},
		},
		{
			name:     "integer and decimal forms of one number",
			expected: `{"n":1,"m":2.50}`,
			actual:   `{"n":1.0,"m":2.5}`,
			empty:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Diff(parse(t, tt.expected), parse(t, tt.actual))
			assert.Equal(t, tt.empty, d.Empty())
			assert.Equal(t, tt.keysRemoved, paths(d.KeysRemoved))
			assert.Equal(t, tt.valuesChanged, paths(d.ValuesChanged))
		})
	}
}

func TestDiff_AddedKeysAndItems(t *testing.T) {
	d := Diff(parse(t, `{"a":[1]}`), parse(t, `{"a":[1,2],"b":true}`))
	assert.Equal(t, []string{"root['b']"}, paths(d.KeysAdded))
	assert.Equal(t, []string{"root['a'][1]"}, paths(d.ItemsAdded))
	assert.Empty(t, d.KeysRemoved)
}

func TestDiff_TypeChanged(t *testing.T) {
	d := Diff(parse(t, `{"a":"1"}`), parse(t, `{"a":1}`))
	require.Len(t, d.TypesChanged, 1)
	assert.Equal(t, "root['a']", d.TypesChanged[0].Path)
	assert.Empty(t, d.ValuesChanged)
}

func TestTopLevelKeysRemoved(t *testing.T) {
	d := Diff(parse(t, `{"a":{"x":1},"b":2}`), parse(t, `{"a":{}}`))
	assert.Len(t, d.KeysRemoved, 2)
	assert.Equal(t, []string{"root['b']"}, paths(d.TopLevelKeysRemoved()))
}

func TestStripProperties(t *testing.T) {
	v := parse(t, `{"id":1,"name":"x","nested":{"id":2,"list":[{"id":3,"keep":true}]}}`)
	StripProperties(v, []string{"id"})
	assert.Equal(t, parse(t, `{"name":"x","nested":{"list":[{"keep":true}]}}`), v)

	unchanged := parse(t, `{"id":1}`)
	StripProperties(unchanged, nil)
	assert.Equal(t, parse(t, `{"id":1}`), unchanged)
}

func paths(changes []Change) []string {
	if len(changes) == 0 {
		return nil
	}
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Path
	}
	return out
}
