// Package config provides YAML-based configuration loading for signalbox.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// APIKeyEnv names the environment variable consulted when server.api_key
// is empty.
const APIKeyEnv = "SIGNALBOX_API_KEY"

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config is the top-level signalbox configuration, loaded from signalbox.yaml.
type Config struct {
	Owner    string         `yaml:"owner"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// DatabaseConfig selects the storage driver and its connection settings.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Path     string `yaml:"path"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port          int    `yaml:"port"`
	RequireAPIKey *bool  `yaml:"require_api_key"`
	APIKey        string `yaml:"api_key"`
}

// APIKeyRequired reports whether requests must carry X-API-Key.
func (s ServerConfig) APIKeyRequired() bool {
	return s.RequireAPIKey == nil || *s.RequireAPIKey
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Development bool `yaml:"development"`
}

// IngestConfig locates the issues directory and the optional S3 source.
type IngestConfig struct {
	IssuesDir string   `yaml:"issues_dir"`
	S3        S3Config `yaml:"s3"`
}

// S3Config is the bucket files are pulled from.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
	Prefix string `yaml:"prefix"`
}

// NotifyConfig configures webhook notifications for important messages.
type NotifyConfig struct {
	MinImportance       int    `yaml:"min_importance"`
	SlackWebhookURL     string `yaml:"slack_webhook_url"`
	DiscordWebhookID    string `yaml:"discord_webhook_id"`
	DiscordWebhookToken string `yaml:"discord_webhook_token"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	d := &c.Database
	if d.Driver == "" {
		d.Driver = DriverSQLite
	}
	switch d.Driver {
	case DriverSQLite:
		if d.Path == "" {
			d.Path = "signalbox.db"
		}
	case DriverMySQL, DriverPostgres:
		if d.Host == "" {
			d.Host = "127.0.0.1"
		}
		if d.Port == 0 {
			if d.Driver == DriverMySQL {
				d.Port = 3306
			} else {
				d.Port = 5432
			}
		}
		if d.User == "" {
			if d.Driver == DriverMySQL {
				d.User = "root"
			} else {
				d.User = "postgres"
			}
		}
		if d.Name == "" && c.Owner != "" {
			d.Name = "signalbox_" + c.Owner
		}
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.APIKey == "" {
		c.Server.APIKey = os.Getenv(APIKeyEnv)
	}

	if c.Ingest.IssuesDir == "" {
		c.Ingest.IssuesDir = "issues"
	}
	if c.Ingest.S3.Region == "" {
		c.Ingest.S3.Region = "us-east-1"
	}

	if c.Notify.MinImportance == 0 {
		c.Notify.MinImportance = 8
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverMySQL, DriverPostgres:
		if c.Database.Name == "" {
			errs = append(errs, "database.name is required (or set owner)")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		errs = append(errs, "database.port must be between 1 and 65535")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Notify.MinImportance < 0 || c.Notify.MinImportance > 10 {
		errs = append(errs, "notify.min_importance must be between 0 and 10")
	}
	if (c.Notify.DiscordWebhookID == "") != (c.Notify.DiscordWebhookToken == "") {
		errs = append(errs, "notify.discord_webhook_id and notify.discord_webhook_token must be set together")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
