package config

const (
	DefaultTimeout      = 30000 // 30 seconds
	DefaultMaxRedirects = 10
	DefaultLogDir       = "logs"
	DefaultName         = "default"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *TestConfig {
	return &TestConfig{
		Name:            DefaultName,
		Timeout:         DefaultTimeout,
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    DefaultMaxRedirects,
		ValidateSSL:     BoolPtr(true),
		RecordResponses: BoolPtr(false),
		LogDir:          DefaultLogDir,
		Bail:            BoolPtr(false),
		Verbose:         BoolPtr(false),
		NoColor:         BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *TestConfig) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Name == defaults.Name &&
		c.SystemUnderTest == defaults.SystemUnderTest &&
		len(c.EnvironmentVariables) == 0 &&
		len(c.ExcludedProperties()) == 0 &&
		c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == defaults.Proxy &&
		len(c.Headers) == 0 &&
		c.RateLimit == defaults.RateLimit &&
		c.GetRecordResponses() == defaults.GetRecordResponses() &&
		c.LogDir == defaults.LogDir &&
		c.GetBail() == defaults.GetBail() &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor()
}
