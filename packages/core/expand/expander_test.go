package expand

import (
	"encoding/json"
	"fmt"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/scenarist/packages/core/scenario"
)

// memStore serves documents from memory and counts loads.
type memStore struct {
	docs  map[string]string
	loads []string
}

func (m *memStore) Load(p string) (*scenario.Document, error) {
	m.loads = append(m.loads, p)
	raw, ok := m.docs[p]
	if !ok {
		return nil, fmt.Errorf("no document %s", p)
	}
	var doc scenario.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	doc.Path = p
	doc.Reindex()
	return &doc, nil
}

func (m *memStore) Resolve(ref, dataDir string) (string, error) {
	return path.Join(dataDir, ref), nil
}

func (m *memStore) DataDir(string) string {
	return "/data/api"
}

func step(name, method string, pre ...string) string {
	events := ""
	if len(pre) > 0 {
		lines, _ := json.Marshal(pre)
		events = fmt.Sprintf(`, "event": [{"listen": "prerequest", "script": {"exec": %s}}]`, lines)
	}
	return fmt.Sprintf(`{"name": %q, "request": {"method": %q, "url": "http://x/%s"}%s}`, name, method, name, events)
}

func document(vars string, steps ...string) string {
	items := ""
	for i, s := range steps {
		if i > 0 {
			items += ","
		}
		items += s
	}
	return fmt.Sprintf(`{"info": {"name": "doc"}, "variable": [%s], "item": [%s]}`, vars, items)
}

func names(doc *scenario.Document) []string {
	var out []string
	for _, s := range doc.Steps {
		out = append(out, s.Name)
	}
	return out
}

func load(t *testing.T, store *memStore, p string) *scenario.Document {
	t.Helper()
	doc, err := store.Load(p)
	require.NoError(t, err)
	store.loads = nil
	return doc
}

func TestExpand_NoReferences(t *testing.T) {
	store := &memStore{docs: map[string]string{
		"/data/api/root.json": document("", step("a", "GET"), step("preflight", "OPTIONS"), step("b", "POST")),
	}}
	doc := load(t, store, "/data/api/root.json")

	require.NoError(t, New(store).Expand(doc, nil))
	assert.Equal(t, []string{"a", "preflight", "b"}, names(doc))
	assert.Empty(t, store.loads)
}

func TestExpand_Flattens(t *testing.T) {
	store := &memStore{docs: map[string]string{
		"/data/api/root.json": document(`{"key": "userId", "value": ""}`,
			step("first", "GET"),
			step("login", "OPTIONS", "<set-variable:userId:value:42>", "<refer-scenario-file:common/login.json>"),
			step("last", "DELETE"),
		),
		"/data/api/common/login.json": document(`{"key": "userId", "value": ""}`,
			step("auth", "POST", "<xfail:slow>"),
			step("me", "GET"),
		),
	}}
	doc := load(t, store, "/data/api/root.json")

	require.NoError(t, New(store).Expand(doc, map[string]any{"url": "http://x"}))

	assert.Equal(t, []string{"first", "auth", "me", "last"}, names(doc))
	for i, s := range doc.Steps {
		assert.Equal(t, i, s.Index)
	}
	assert.Equal(t,
		[]string{"<set-variable:userId:value:42>", "<xfail:slow>"},
		doc.Steps[1].PreRequestScript(),
		"inherited lines come first")
	assert.Empty(t, doc.Steps[2].PreRequestScript())
}

func TestExpand_Nested(t *testing.T) {
	store := &memStore{docs: map[string]string{
		"/data/api/root.json": document("",
			step("r1", "OPTIONS", "<refer-scenario-file:a.json>"),
			step("r2", "OPTIONS", "<refer-scenario-file:a.json>"),
		),
		"/data/api/a.json": document("", step("a1", "GET"), step("toB", "OPTIONS", "<refer-scenario-file:b.json>")),
		"/data/api/b.json": document("", step("b1", "GET")),
	}}
	doc := load(t, store, "/data/api/root.json")

	require.NoError(t, New(store).Expand(doc, nil))
	assert.Equal(t, []string{"a1", "b1", "a1", "b1"}, names(doc))
}

func TestExpand_CycleDetectedBeforeLoad(t *testing.T) {
	store := &memStore{docs: map[string]string{
		"/data/api/a.json": document("", step("toB", "OPTIONS", "<refer-scenario-file:b.json>")),
		"/data/api/b.json": document("", step("toA", "OPTIONS", "<refer-scenario-file:a.json>")),
	}}
	doc := load(t, store, "/data/api/a.json")

	err := New(store).Expand(doc, nil)
	require.ErrorIs(t, err, ErrReferenceCycle)

	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, "/data/api/a.json", cycle.Path)
	assert.Equal(t, []string{"/data/api/a.json", "/data/api/b.json"}, cycle.Trail)
	assert.Equal(t, []string{"/data/api/b.json"}, store.loads, "a.json is not loaded a second time")
}

func TestExpand_SelfReference(t *testing.T) {
	store := &memStore{docs: map[string]string{
		"/data/api/a.json": document("", step("self", "OPTIONS", "<refer-scenario-file:a.json>")),
	}}
	doc := load(t, store, "/data/api/a.json")

	assert.ErrorIs(t, New(store).Expand(doc, nil), ErrReferenceCycle)
	assert.Empty(t, store.loads)
}

func TestExpand_NotSubset(t *testing.T) {
	store := &memStore{docs: map[string]string{
		"/data/api/root.json": document(`{"key": "a", "value": 1}`,
			step("ref", "OPTIONS", "<refer-scenario-file:child.json>"),
		),
		"/data/api/child.json": document(`{"key": "a", "value": 1}, {"key": "z", "value": 2}, {"key": "token", "value": ""}`,
			step("c", "GET"),
		),
	}}
	doc := load(t, store, "/data/api/root.json")

	err := New(store).Expand(doc, map[string]any{"token": "t"})
	require.ErrorIs(t, err, ErrScenarioVarsNotSubset)

	var notSubset *NotSubsetError
	require.ErrorAs(t, err, &notSubset)
	assert.Equal(t, []string{"z"}, notSubset.Missing)
}

func TestExpand_ReferenceInTestEvent(t *testing.T) {
	control := `{"name": "ref", "request": {"method": "OPTIONS"}, "event": [{"listen": "test", "script": {"exec": ["<refer-scenario-file:b.json>"]}}]}`
	store := &memStore{docs: map[string]string{
		"/data/api/root.json": document("", control),
		"/data/api/b.json":    document("", step("b1", "GET")),
	}}
	doc := load(t, store, "/data/api/root.json")

	require.NoError(t, New(store).Expand(doc, nil))
	assert.Equal(t, []string{"b1"}, names(doc))
}

func TestExpand_LoadErrorPropagates(t *testing.T) {
	store := &memStore{docs: map[string]string{
		"/data/api/root.json": document("", step("ref", "OPTIONS", "<refer-scenario-file:missing.json>")),
	}}
	doc := load(t, store, "/data/api/root.json")

	assert.Error(t, New(store).Expand(doc, nil))
}

func TestTrail(t *testing.T) {
	base := NewTrail("a")
	extended := base.With("b")

	assert.False(t, base.Contains("b"))
	assert.True(t, extended.Contains("a"))
	assert.Equal(t, []string{"a", "b"}, extended.Paths())
	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, NewTrail("x", "y", "x").Len())
}
