package env

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadDotEnv reads KEY=value pairs from a .env file. Blank lines and
// # comments are skipped, an "export " prefix is dropped, and matching
// single or double quotes around a value are removed.
func LoadDotEnv(path string) (map[string]any, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open env file: %w", err)
	}
	defer file.Close()

	result := make(map[string]any)
	scanner := bufio.NewScanner(file)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("%s:%d: expected KEY=value", path, lineNo)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%s:%d: empty key", path, lineNo)
		}

		result[key] = unquote(strings.TrimSpace(value))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	return result, nil
}

func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if (first == '"' || first == '\'') && first == last {
		return value[1 : len(value)-1]
	}
	return value
}

// LoadEnvironment builds the environment tier from the configured variables
// and any .env files. Later sources override earlier ones.
func LoadEnvironment(configured map[string]any, dotenvPaths ...string) (*Vars, error) {
	merged := make(map[string]any, len(configured))
	for k, v := range configured {
		merged[k] = v
	}
	for _, path := range dotenvPaths {
		if path == "" {
			continue
		}
		vars, err := LoadDotEnv(path)
		if err != nil {
			return nil, err
		}
		for k, v := range vars {
			merged[k] = v
		}
	}
	return NewVarsFromMap(merged), nil
}
