// Package config loads the readiness check configuration from YAML.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/txn2/dma-readiness/pkg/engine"
	"github.com/txn2/dma-readiness/pkg/query"
	"github.com/txn2/dma-readiness/pkg/source"
)

const (
	defaultConnectTimeout = 15 * time.Second
	maxPort               = 65535
)

// Config holds the complete readiness check configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Staging StagingConfig `yaml:"staging"`
	Run     RunConfig     `yaml:"run"`
	Log     LogConfig     `yaml:"log"`
}

// SourceConfig describes the database being assessed.
type SourceConfig struct {
	Type           string            `yaml:"type"`
	Host           string            `yaml:"host"`
	Port           int               `yaml:"port"`
	Username       string            `yaml:"username"`
	Password       string            `yaml:"password"` //nolint:gosec // credential read from config, never logged
	Database       string            `yaml:"database"`
	Options        map[string]string `yaml:"options"`
	ConnectTimeout time.Duration     `yaml:"connect_timeout"`
}

// StagingConfig configures the local staging store.
type StagingConfig struct {
	Path string `yaml:"path"` // empty = in-memory
}

// RunConfig identifies the run to the queries it executes.
type RunConfig struct {
	Key      string `yaml:"key"`       // PKEY
	SourceID string `yaml:"source_id"` // DMA_SOURCE_ID
	ManualID string `yaml:"manual_id"` // DMA_MANUAL_ID
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration, expanding ${VAR} references first.
func Parse(data []byte) (*Config, error) {
	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

var envVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ApplyDefaults fills unset values. It is safe to call again after command
// line overrides; values already set are kept.
func (c *Config) ApplyDefaults() {
	if c.Source.Port == 0 {
		if e, err := engine.Parse(c.Source.Type); err == nil {
			c.Source.Port = e.DefaultPort()
		}
	}
	if c.Source.ConnectTimeout == 0 {
		c.Source.ConnectTimeout = defaultConnectTimeout
	}
	if c.Run.Key == "" {
		c.Run.Key = uuid.NewString()
	}
	if c.Run.SourceID == "" && c.Source.Host != "" {
		c.Run.SourceID = fmt.Sprintf("%s:%d/%s", c.Source.Host, c.Source.Port, c.Source.Database)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Source.Type == "" {
		errs = append(errs, "source.type is required")
	} else if _, err := engine.Parse(c.Source.Type); err != nil {
		errs = append(errs, fmt.Sprintf("source.type %q is not one of postgres, mysql, oracle, sqlserver", c.Source.Type))
	}
	if c.Source.Host == "" {
		errs = append(errs, "source.host is required")
	}
	if c.Source.Port < 0 || c.Source.Port > maxPort {
		errs = append(errs, fmt.Sprintf("source.port %d is out of range", c.Source.Port))
	}
	if c.Source.ConnectTimeout < 0 {
		errs = append(errs, "source.connect_timeout must not be negative")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err.Error())
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SourceConfig returns the connection settings for the source.
func (c *Config) SourceConfig() (source.Config, error) {
	e, err := engine.Parse(c.Source.Type)
	if err != nil {
		return source.Config{}, err
	}
	return source.Config{
		Engine:         e,
		Host:           c.Source.Host,
		Port:           c.Source.Port,
		Username:       c.Source.Username,
		Password:       c.Source.Password,
		Database:       c.Source.Database,
		Options:        c.Source.Options,
		ConnectTimeout: c.Source.ConnectTimeout,
	}, nil
}

// RunParams returns the bound parameters for the run. An empty manual id
// binds NULL.
func (c *Config) RunParams() query.RunParams {
	p := query.RunParams{Key: c.Run.Key, SourceID: c.Run.SourceID}
	if c.Run.ManualID != "" {
		manual := c.Run.ManualID
		p.ManualID = &manual
	}
	return p
}

// LogLevel returns the configured slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level %q must be debug, info, warn or error", s)
	}
}
