package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SystemUnderTest describes the target of a test run.
type SystemUnderTest struct {
	Hostname string `yaml:"hostname,omitempty"`
	URL      string `yaml:"url,omitempty"`
	APIPath  string `yaml:"api_path,omitempty"`
}

// BaseURL joins URL and APIPath.
func (s SystemUnderTest) BaseURL() string {
	if s.URL == "" {
		return ""
	}
	if s.APIPath == "" {
		return s.URL
	}
	return strings.TrimRight(s.URL, "/") + "/" + strings.TrimLeft(s.APIPath, "/")
}

type ResponseBodyValidation struct {
	ExcludedProperties []string `yaml:"excluded_properties,omitempty"`
}

type ResponseValidation struct {
	ResponseBody ResponseBodyValidation `yaml:"response_body,omitempty"`
}

// TestConfig is the test configuration of a run (test_config.yaml).
type TestConfig struct {
	Name                 string             `yaml:"name"`
	SystemUnderTest      SystemUnderTest    `yaml:"system_under_test,omitempty"`
	EnvironmentVariables map[string]any     `yaml:"environment_variables,omitempty"`
	ResponseValidation   ResponseValidation `yaml:"actual_response_validation,omitempty"`

	Timeout         int               `yaml:"timeout,omitempty"` // milliseconds
	FollowRedirects *bool             `yaml:"follow_redirects,omitempty"`
	MaxRedirects    int               `yaml:"max_redirects,omitempty"`
	ValidateSSL     *bool             `yaml:"validate_ssl,omitempty"`
	Proxy           string            `yaml:"proxy,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty"`
	RateLimit       float64           `yaml:"rate_limit,omitempty"` // requests per second
	RecordResponses *bool             `yaml:"record_responses,omitempty"`
	LogDir          string            `yaml:"log_dir,omitempty"`
	Bail            *bool             `yaml:"bail,omitempty"`
	Verbose         *bool             `yaml:"verbose,omitempty"`
	NoColor         *bool             `yaml:"no_color,omitempty"`
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *TestConfig) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *TestConfig) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

func (c *TestConfig) GetRecordResponses() bool {
	return getBool(c.RecordResponses, false)
}

func (c *TestConfig) GetBail() bool {
	return getBool(c.Bail, false)
}

func (c *TestConfig) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

func (c *TestConfig) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// TimeoutDuration returns the request timeout, or zero for none.
func (c *TestConfig) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return 0
	}
	return time.Duration(c.Timeout) * time.Millisecond
}

// ExcludedProperties returns the response body members ignored by full
// validation.
func (c *TestConfig) ExcludedProperties() []string {
	return c.ResponseValidation.ResponseBody.ExcludedProperties
}

// Environment returns a copy of the environment variables. When "url" is not
// declared and the system under test has a URL, it is declared from
// SystemUnderTest.BaseURL.
func (c *TestConfig) Environment() map[string]any {
	out := make(map[string]any, len(c.EnvironmentVariables)+1)
	for k, v := range c.EnvironmentVariables {
		out[k] = v
	}
	if _, ok := out["url"]; !ok {
		if base := c.SystemUnderTest.BaseURL(); base != "" {
			out["url"] = base
		}
	}
	return out
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	"test_config.yaml",
	"test_config.yml",
	".scenarist.yaml",
	".scenarist.yml",
}

// LoadConfig loads configuration from path, or searches the current
// directory when path is empty.
func LoadConfig(path string) (*TestConfig, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*TestConfig, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*TestConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := DefaultConfig()
	config.Name = ""
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if config.Name == "" {
		config.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *TestConfig) Merge(other *TestConfig) *TestConfig {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Name != "" {
		result.Name = other.Name
	}
	if other.SystemUnderTest.Hostname != "" {
		result.SystemUnderTest.Hostname = other.SystemUnderTest.Hostname
	}
	if other.SystemUnderTest.URL != "" {
		result.SystemUnderTest.URL = other.SystemUnderTest.URL
	}
	if other.SystemUnderTest.APIPath != "" {
		result.SystemUnderTest.APIPath = other.SystemUnderTest.APIPath
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.LogDir != "" {
		result.LogDir = other.LogDir
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.RecordResponses != nil {
		result.RecordResponses = other.RecordResponses
	}
	if other.Bail != nil {
		result.Bail = other.Bail
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	if len(other.EnvironmentVariables) > 0 {
		vars := make(map[string]any, len(result.EnvironmentVariables)+len(other.EnvironmentVariables))
		for k, v := range result.EnvironmentVariables {
			vars[k] = v
		}
		for k, v := range other.EnvironmentVariables {
			vars[k] = v
		}
		result.EnvironmentVariables = vars
	}

	if len(other.ExcludedProperties()) > 0 {
		result.ResponseValidation.ResponseBody.ExcludedProperties = other.ExcludedProperties()
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *TestConfig) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
