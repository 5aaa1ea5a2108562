package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `{
	"data": {
		"user": {"id": 7, "name": "alice", "tags": ["a", "b"]},
		"items": [
			{"sku": null},
			{"sku": "B-2", "price": 9.5},
			{"sku": "C-3"}
		],
		"location": "/api/v1/orders/1234/details",
		"meta": {"page": {"size": 10}},
		"a.b": "dotted"
	}
}`

func TestParsePath(t *testing.T) {
	tests := []struct {
		source   string
		segments []string
		pattern  string
	}{
		{"data.user.id", []string{"data", "user", "id"}, ""},
		{`data.location./\d+/`, []string{"data", "location"}, `\d+`},
		{`/x/.data./y/`, []string{"data"}, "x"},
		{"id", []string{"id"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			segments, pattern := ParsePath(tt.source)
			assert.Equal(t, tt.segments, segments)
			assert.Equal(t, tt.pattern, pattern)
		})
	}
}

func TestExtract(t *testing.T) {
	e := NewBodyExtractor([]byte(sampleBody))

	tests := []struct {
		name     string
		source   string
		expected any
	}{
		{"string member", "data.user.name", "alice"},
		{"number kept as text", "data.user.id", "7"},
		{"array index", "data.user.tags.1", "b"},
		{"array scan skips null", "data.items.sku", "B-2"},
		{"array scan deeper", "data.items.price", "9.5"},
		{"structured result decoded", "data.meta.page", map[string]any{"size": float64(10)}},
		{"array result decoded", "data.user.tags", []any{"a", "b"}},
		{"regex first match", `data.location./\d+/`, "1234"},
		{"regex group", `data.location./orders\/(\d+)/`, "1234"},
		{"regex without match", `data.location./zzz/`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Extract(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtract_NotFound(t *testing.T) {
	e := NewBodyExtractor([]byte(sampleBody))

	for _, source := range []string{"data.user.email", "data.user.tags.5", "data.items.missing", "nope"} {
		t.Run(source, func(t *testing.T) {
			_, err := e.Extract(source)
			require.ErrorIs(t, err, ErrPropertyNotFound)

			var notFound *PropertyNotFoundError
			require.ErrorAs(t, err, &notFound)
			assert.Equal(t, source, notFound.Path)
		})
	}
}

func TestExtract_NonJSONBody(t *testing.T) {
	_, err := NewBodyExtractor([]byte("plain text")).Extract("data")
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, "plain", ParseValue("plain"))
	assert.Equal(t, []any{float64(1), float64(2)}, ParseValue("[1, 2]"))
	assert.Equal(t, map[string]any{"k": "v"}, ParseValue(`{"k":"v"}`))
	assert.Equal(t, "[not json", ParseValue("[not json"))
	assert.Equal(t, "{broken}", ParseValue("{broken}"))
}
