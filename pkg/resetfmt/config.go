package resetfmt

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all configuration options for go-resetfmt
type Config struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `yaml:"log_level"`
	// LogFormat selects the log encoding (console or json)
	LogFormat string `yaml:"log_format"`
	// Workers bounds how many documents a batch processes in parallel
	Workers int `yaml:"workers"`
	// Server configures the HTTP API
	Server ServerConfig `yaml:"server"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// Debug runs gin in debug mode
	Debug bool `yaml:"debug"`
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func init() {
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "console",
		Workers:   runtime.NumCPU(),
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 32 << 20,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()
	config.applyEnvironment()
	return config
}

func (c *Config) applyEnvironment() {
	// RESETFMT_LOG_LEVEL
	if val := os.Getenv("RESETFMT_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}

	// RESETFMT_LOG_FORMAT
	if val := os.Getenv("RESETFMT_LOG_FORMAT"); val != "" {
		c.LogFormat = val
	}

	// RESETFMT_WORKERS
	if val := os.Getenv("RESETFMT_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Workers = n
		}
	}

	// RESETFMT_ADDR
	if val := os.Getenv("RESETFMT_ADDR"); val != "" {
		c.Server.Addr = val
	}

	// RESETFMT_MAX_BODY_BYTES
	if val := os.Getenv("RESETFMT_MAX_BODY_BYTES"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.Server.MaxBodyBytes = n
		}
	}

	// RESETFMT_READ_TIMEOUT
	if val := os.Getenv("RESETFMT_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Server.ReadTimeout = d
		}
	}

	// RESETFMT_SERVER_DEBUG
	if val := os.Getenv("RESETFMT_SERVER_DEBUG"); val != "" {
		c.Server.Debug = parseBool(val)
	}

	// RESETFMT_WRITE_TIMEOUT
	if val := os.Getenv("RESETFMT_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Server.WriteTimeout = d
		}
	}
}

// LoadConfigFile reads a YAML configuration file. Keys missing from the file
// keep their defaults and environment variables override the file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDocumentError("read config", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration on top of the defaults and applies
// environment overrides.
func ParseConfig(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, &ConfigError{Issues: []ConfigIssue{{Field: "yaml", Message: err.Error()}}}
	}
	config.applyEnvironment()
	return config, nil
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.LogFormat == "" {
		config.LogFormat = defaults.LogFormat
	}
	if config.Workers == 0 {
		config.Workers = defaults.Workers
	}
	if config.Server.Addr == "" {
		config.Server.Addr = defaults.Server.Addr
	}
	if config.Server.MaxBodyBytes == 0 {
		config.Server.MaxBodyBytes = defaults.Server.MaxBodyBytes
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = defaults.Server.WriteTimeout
	}

	return &config
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"off":   true,
}

var validLogFormats = map[string]bool{
	"console": true,
	"json":    true,
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	errs := &ConfigError{}

	if !validLogLevels[c.LogLevel] {
		errs.add("log_level", "invalid log level: %s", c.LogLevel)
	}
	if !validLogFormats[c.LogFormat] {
		errs.add("log_format", "invalid log format: %s", c.LogFormat)
	}
	if c.Workers <= 0 {
		errs.add("workers", "must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs.add("server.max_body_bytes", "must be positive")
	}
	if c.Server.ReadTimeout < 0 {
		errs.add("server.read_timeout", "cannot be negative")
	}
	if c.Server.WriteTimeout < 0 {
		errs.add("server.write_timeout", "cannot be negative")
	}

	if len(errs.Issues) > 0 {
		return errs
	}
	return nil
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	// Return a copy to prevent modification
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// Outside the lock: the logger reads the config back.
	UpdateLoggerFromConfig()
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
