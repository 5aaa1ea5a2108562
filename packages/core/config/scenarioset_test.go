package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioFiles_SingleDataDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "users/create/a_create.json", "{}")
	writeFile(t, root, "users/create/b_create.json", "{}")
	writeFile(t, root, "users/delete/a_delete.json", "{}")
	writeFile(t, root, "users/notes.txt", "")
	writeFile(t, root, "users/.hidden/x_delete.json", "{}")

	set := &ScenarioSet{
		Name:     "smoke",
		DataDir:  "users",
		Patterns: []string{"*_delete", "*"},
	}

	files, err := set.ScenarioFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "users/delete/a_delete.json"),
		filepath.Join(root, "users/create/a_create.json"),
		filepath.Join(root, "users/create/b_create.json"),
	}, files)
}

func TestScenarioFiles_DataDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "orders/list.json", "{}")
	writeFile(t, root, "users/v2/list.json", "{}")
	writeFile(t, root, "users/v1/list.json", "{}")

	set := &ScenarioSet{
		DataDirs: []DataDir{
			{DataDir: "users", Patterns: []string{"v2/list"}},
			{DataDir: "orders", Patterns: []string{"list"}},
			{DataDir: "missing", Patterns: []string{"*"}},
		},
	}

	files, err := set.ScenarioFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "users/v2/list.json"),
		filepath.Join(root, "orders/list.json"),
	}, files)
}

func TestScenarioFiles_BadPattern(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "d/a.json", "{}")
	set := &ScenarioSet{DataDir: "d", Patterns: []string{"["}}
	_, err := set.ScenarioFiles(root)
	assert.Error(t, err)
}

func TestLoadScenarioSet(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scenario_set.yaml", `
name: regression
data_dirs:
  - data_dir: users
    patterns: ["*"]
`)
	set, err := LoadScenarioSet(path)
	require.NoError(t, err)
	assert.Equal(t, "regression", set.Name)
	require.Len(t, set.DataDirs, 1)
	assert.Equal(t, []string{"*"}, set.DataDirs[0].Patterns)

	unnamed := writeFile(t, dir, "nightly.yaml", "data_dir: users\n")
	set, err = LoadScenarioSet(unnamed)
	require.NoError(t, err)
	assert.Equal(t, "nightly", set.Name)
}
