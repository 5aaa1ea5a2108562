package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/scenarist/packages/core/config"
	"github.com/abdul-hamid-achik/scenarist/packages/core/env"
	"github.com/abdul-hamid-achik/scenarist/packages/core/runner"
)

var (
	configFlag   string
	envFileFlag  string
	dataRootFlag string
)

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() && path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				if !d.IsDir() && isScenarioFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else {
			if isScenarioFile(arg) {
				files = append(files, arg)
			}
		}
	}

	return files, nil
}

func isScenarioFile(path string) bool {
	base := filepath.Base(path)
	return filepath.Ext(base) == config.ScenarioFileExt && !strings.HasPrefix(base, ".")
}

func loadTestConfig() (*config.TestConfig, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}
	return cfg, nil
}

// dataRoot returns the absolute data root, or "" when none is configured.
func dataRoot(fallback string) (string, error) {
	root := dataRootFlag
	if root == "" {
		root = fallback
	}
	if root == "" {
		return "", nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", exitWith(ExitConfigError, fmt.Errorf("resolving data root: %w", err))
	}
	return abs, nil
}

func loadEnvironment(cfg *config.TestConfig) (*env.Vars, error) {
	environment, err := env.LoadEnvironment(cfg.Environment(), envFileFlag)
	if err != nil {
		return nil, exitWith(ExitConfigError, fmt.Errorf("loading environment: %w", err))
	}
	return environment, nil
}

// runnerConfig maps the test config onto the runner's settings.
func runnerConfig(cfg *config.TestConfig, root string) *runner.Config {
	return &runner.Config{
		Verbose:            cfg.GetVerbose(),
		Timeout:            cfg.TimeoutDuration(),
		FollowRedirects:    cfg.GetFollowRedirects(),
		MaxRedirects:       cfg.MaxRedirects,
		ValidateSSL:        cfg.GetValidateSSL(),
		Proxy:              cfg.Proxy,
		Headers:            cfg.Headers,
		RateLimit:          cfg.RateLimit,
		ExcludedProperties: cfg.ExcludedProperties(),
		Record:             cfg.GetRecordResponses(),
		Bail:               cfg.GetBail(),
		DataRoot:           root,
	}
}

// offlineRunner builds a runner for commands that load documents without
// sending requests.
func offlineRunner() (*runner.Runner, error) {
	cfg, err := loadTestConfig()
	if err != nil {
		return nil, err
	}
	environment, err := loadEnvironment(cfg)
	if err != nil {
		return nil, err
	}
	root, err := dataRoot("")
	if err != nil {
		return nil, err
	}
	r, err := runner.NewRunner(runnerConfig(cfg, root), runner.WithRunContext(runner.NewRunContext(environment, nil, nil)))
	if err != nil {
		return nil, exitWith(ExitConfigError, err)
	}
	return r, nil
}
