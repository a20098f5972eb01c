// Package config loads schemadesigner settings from a YAML file, with
// .env support and ${VAR} expansion in string values.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/tordrt/schemadesigner/internal/cache"
	"github.com/tordrt/schemadesigner/internal/generator"
	"github.com/tordrt/schemadesigner/internal/history"
	"github.com/tordrt/schemadesigner/internal/store"
)

// DefaultPath is the config file looked up when none is given
const DefaultPath = "schemadesigner.yaml"

// ErrConfigValidation is returned when configuration validation fails
var ErrConfigValidation = errors.New("configuration validation failed")

// Config represents the schemadesigner configuration
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	Generator GeneratorConfig `yaml:"generator"`
	History   HistoryConfig   `yaml:"history"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// WorkspaceConfig selects the workspace and where it is cached
type WorkspaceConfig struct {
	Name     string `yaml:"name"`
	Key      string `yaml:"key"`
	CacheURL string `yaml:"cache_url"`
}

// GeneratorConfig points at the remote generation service
type GeneratorConfig struct {
	BaseURL        string        `yaml:"base_url"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// HistoryConfig bounds undo history
type HistoryConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// ServerConfig configures the HTTP edge
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Name:     store.DefaultName,
			Key:      cache.DefaultKey,
			CacheURL: cache.DefaultURL,
		},
		Generator: GeneratorConfig{
			BaseURL:        "http://localhost:8000/api",
			PollInterval:   generator.DefaultPollInterval,
			MaxAttempts:    generator.DefaultMaxAttempts,
			RequestTimeout: generator.DefaultRequestTimeout,
		},
		History: HistoryConfig{MaxDepth: history.DefaultMaxDepth},
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"http://localhost:5173"},
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the configuration at path. A .env file in the working
// directory is loaded first; variables already set win over it. A missing
// config file yields the defaults.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		expandConfigEnvVars(cfg)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML document strictly, fills unset fields with defaults
// and validates the result
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	expandConfigEnvVars(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Workspace.Name == "" {
		cfg.Workspace.Name = def.Workspace.Name
	}
	if cfg.Workspace.Key == "" {
		cfg.Workspace.Key = def.Workspace.Key
	}
	if cfg.Workspace.CacheURL == "" {
		cfg.Workspace.CacheURL = def.Workspace.CacheURL
	}

	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = def.Generator.BaseURL
	}
	if cfg.Generator.PollInterval == 0 {
		cfg.Generator.PollInterval = def.Generator.PollInterval
	}
	if cfg.Generator.MaxAttempts == 0 {
		cfg.Generator.MaxAttempts = def.Generator.MaxAttempts
	}
	if cfg.Generator.RequestTimeout == 0 {
		cfg.Generator.RequestTimeout = def.Generator.RequestTimeout
	}

	if cfg.History.MaxDepth == 0 {
		cfg.History.MaxDepth = def.History.MaxDepth
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = def.Server.AllowedOrigins
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
}

func validateConfig(cfg *Config) error {
	u, err := url.Parse(cfg.Generator.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: generator.base_url '%s' must be an absolute http(s) URL", ErrConfigValidation, cfg.Generator.BaseURL)
	}
	if cfg.Generator.PollInterval < 0 {
		return fmt.Errorf("%w: generator.poll_interval must be positive, got %s", ErrConfigValidation, cfg.Generator.PollInterval)
	}
	if cfg.Generator.MaxAttempts < 0 {
		return fmt.Errorf("%w: generator.max_attempts must be positive, got %d", ErrConfigValidation, cfg.Generator.MaxAttempts)
	}
	if cfg.Generator.RequestTimeout < 0 {
		return fmt.Errorf("%w: generator.request_timeout must be positive, got %s", ErrConfigValidation, cfg.Generator.RequestTimeout)
	}
	if cfg.History.MaxDepth < 0 {
		return fmt.Errorf("%w: history.max_depth must be positive, got %d", ErrConfigValidation, cfg.History.MaxDepth)
	}
	if cfg.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: server.shutdown_timeout must be positive, got %s", ErrConfigValidation, cfg.Server.ShutdownTimeout)
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrConfigValidation, err)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format '%s' is invalid: must be one of text, json", ErrConfigValidation, cfg.Log.Format)
	}
	return nil
}

func loadEnvFiles() error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}
	return nil
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} with the value of VAR
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

func expandConfigEnvVars(cfg *Config) {
	cfg.Workspace.Name = expandEnvVars(cfg.Workspace.Name)
	cfg.Workspace.Key = expandEnvVars(cfg.Workspace.Key)
	cfg.Workspace.CacheURL = expandEnvVars(cfg.Workspace.CacheURL)
	cfg.Generator.BaseURL = expandEnvVars(cfg.Generator.BaseURL)
	cfg.Server.Addr = expandEnvVars(cfg.Server.Addr)
	for i, origin := range cfg.Server.AllowedOrigins {
		cfg.Server.AllowedOrigins[i] = expandEnvVars(origin)
	}
}
