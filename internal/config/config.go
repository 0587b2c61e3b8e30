// Package config loads the optional sitejam configuration file.
//
// A configuration file is YAML. Environment variables are expanded in its
// content after .env files in the working directory have been loaded:
//
//	source: ./content
//	dest: ${SITE_OUT}
//	log: true
//	markdown:
//	  breaks: false
//	  smartypants: true
//	logging:
//	  level: info
//	  format: text
//	output:
//	  report_dir: ./reports
//	  metrics_file: ./sitejam.prom
//
// Command line values take precedence over the file; see Overrides.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitejam/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Source   string         `yaml:"source"`
	Dest     string         `yaml:"dest"`
	Log      *bool          `yaml:"log,omitempty"` // progress messages; defaults to true
	Markdown MarkdownConfig `yaml:"markdown"`
	Logging  LoggingConfig  `yaml:"logging"`
	Output   OutputConfig   `yaml:"output"`
}

// MarkdownConfig mirrors the Markdown rendering options.
type MarkdownConfig struct {
	Breaks      bool `yaml:"breaks"`
	Smartypants bool `yaml:"smartypants"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// OutputConfig holds build side outputs. Both are disabled when empty.
type OutputConfig struct {
	ReportDir   string `yaml:"report_dir"`
	MetricsFile string `yaml:"metrics_file"`
}

// LogEnabled reports whether progress messages are on.
func (c *Config) LogEnabled() bool {
	return c.Log == nil || *c.Log
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the configuration file at path. An empty path yields Default.
// In both cases .env files are loaded first, never overriding variables that
// are already set.
func Load(path string) (*Config, error) {
	_, _ = loadEnvFile()

	if path == "" {
		return Default(), nil
	}

	// #nosec G304 -- the config path is chosen by the operator.
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.ConfigError("configuration file not found: " + path).WithCause(err).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().WithContext("path", path).Build()
	}
	return Parse(data)
}

// Parse decodes YAML configuration content, expanding environment variables
// first. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewBufferString(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = LogLevelInfo
	}
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
	if c.Dest == "" {
		c.Dest = c.Source
	}
}

// Validate checks enumerations and normalizes them in place.
func (c *Config) Validate() error {
	level, err := logLevelNormalizer.NormalizeWithValidation(string(c.Logging.Level))
	if err != nil {
		return ferrors.ValidationError("invalid logging.level").WithCause(err).
			WithContext("valid", logLevelNormalizer.ValidValues()).Build()
	}
	format, err := logFormatNormalizer.NormalizeWithValidation(string(c.Logging.Format))
	if err != nil {
		return ferrors.ValidationError("invalid logging.format").WithCause(err).
			WithContext("valid", logFormatNormalizer.ValidValues()).Build()
	}
	c.Logging.Level, c.Logging.Format = level, format
	return nil
}

// Overrides are command line values. Zero values leave the file value alone.
type Overrides struct {
	Source      string
	Dest        string
	Quiet       bool
	Breaks      bool
	Smartypants bool
	ReportDir   string
	MetricsFile string
}

// Apply merges o into c. Boolean flags can only switch features on, except
// Quiet which switches progress messages off.
func (c *Config) Apply(o Overrides) {
	if o.Source != "" {
		if c.Dest == c.Source {
			c.Dest = ""
		}
		c.Source = o.Source
	}
	if o.Dest != "" {
		c.Dest = o.Dest
	}
	if c.Dest == "" {
		c.Dest = c.Source
	}
	if o.Quiet {
		off := false
		c.Log = &off
	}
	c.Markdown.Breaks = c.Markdown.Breaks || o.Breaks
	c.Markdown.Smartypants = c.Markdown.Smartypants || o.Smartypants
	if o.ReportDir != "" {
		c.Output.ReportDir = o.ReportDir
	}
	if o.MetricsFile != "" {
		c.Output.MetricsFile = o.MetricsFile
	}
}
