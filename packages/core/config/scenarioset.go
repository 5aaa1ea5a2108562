package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScenarioFileExt is the extension of scenario documents.
const ScenarioFileExt = ".json"

// DataDir is one data directory of a scenario set with its file patterns.
type DataDir struct {
	DataDir  string   `yaml:"data_dir"`
	Patterns []string `yaml:"patterns,omitempty"`
}

// ScenarioSet selects scenario files (scenario_set.yaml). Either the top
// level data_dir/patterns pair, data_dirs, or both may be given.
type ScenarioSet struct {
	Name     string    `yaml:"name"`
	DataDir  string    `yaml:"data_dir,omitempty"`
	Patterns []string  `yaml:"patterns,omitempty"`
	DataDirs []DataDir `yaml:"data_dirs,omitempty"`
}

// LoadScenarioSet reads a scenario set file.
func LoadScenarioSet(path string) (*ScenarioSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario set: %w", err)
	}

	var set ScenarioSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse scenario set %s: %w", path, err)
	}
	if set.Name == "" {
		set.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &set, nil
}

// ScenarioFiles returns the scenario files matched under root. Each pattern
// matches "<root>/<data dir>/**/<pattern>.json". Files keep the order of the
// patterns that matched them and appear once per data dir.
func (s *ScenarioSet) ScenarioFiles(root string) ([]string, error) {
	var dirs []DataDir
	if s.DataDir != "" {
		dirs = append(dirs, DataDir{DataDir: s.DataDir, Patterns: s.Patterns})
	}
	dirs = append(dirs, s.DataDirs...)

	var files []string
	for _, d := range dirs {
		if d.DataDir == "" {
			continue
		}
		matched, err := globData(filepath.Join(root, d.DataDir), d.Patterns)
		if err != nil {
			return nil, err
		}
		files = append(files, matched...)
	}
	return files, nil
}

func globData(dir string, patterns []string) ([]string, error) {
	var candidates []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && os.IsNotExist(err) {
				return fs.SkipDir
			}
			return err
		}
		if strings.HasPrefix(entry.Name(), ".") && path != dir {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ScenarioFileExt) {
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		full := filepath.ToSlash(pattern) + ScenarioFileExt
		depth := strings.Count(full, "/") + 1
		for _, path := range candidates {
			if seen[path] {
				continue
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				continue
			}
			parts := strings.Split(filepath.ToSlash(rel), "/")
			if len(parts) < depth {
				continue
			}
			tail := strings.Join(parts[len(parts)-depth:], "/")
			ok, err := filepath.Match(full, tail)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			if ok {
				seen[path] = true
				out = append(out, path)
			}
		}
	}
	return out, nil
}
