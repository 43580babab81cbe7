package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/stampede-db/stampede/pkg/engine"
)

const (
	yamlFileName = ".stampede.yml"
	tomlFileName = ".stampede.toml"
)

// Config is the on-disk configuration of the stampede CLI and server.
type Config struct {
	Version  string         `yaml:"version" toml:"version"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Engine   EngineConfig   `yaml:"engine" toml:"engine"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
}

// DatabaseConfig holds connection settings. URL wins over the discrete
// fields when both are present; the DATABASE_URL environment variable
// wins over everything.
type DatabaseConfig struct {
	URL            string `yaml:"url" toml:"url"`
	Host           string `yaml:"host" toml:"host"`
	Port           int    `yaml:"port" toml:"port"`
	Database       string `yaml:"database" toml:"database"`
	User           string `yaml:"user" toml:"user"`
	Password       string `yaml:"password" toml:"password"`
	MaxConnections int32  `yaml:"max_connections" toml:"max_connections"`
}

// EngineConfig mirrors engine.Options plus the bulk backend selection.
type EngineConfig struct {
	RowByRowThreshold int    `yaml:"row_by_row_threshold" toml:"row_by_row_threshold"`
	PreferBulkAPI     bool   `yaml:"prefer_bulk_api" toml:"prefer_bulk_api"`
	PageSize          int    `yaml:"page_size" toml:"page_size"`
	BatchSize         int    `yaml:"batch_size" toml:"batch_size"`
	BulkBackend       string `yaml:"bulk_backend" toml:"bulk_backend"`
}

// ServerConfig holds the HTTP admin surface settings.
type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

// Default returns the configuration written by `stampede config init`.
func Default() *Config {
	return &Config{
		Version: "0.1.0",
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			Database:       "stampede",
			User:           "postgres",
			MaxConnections: 10,
		},
		Engine: EngineConfig{
			RowByRowThreshold: 50,
			PreferBulkAPI:     false,
			PageSize:          500,
			BatchSize:         1000,
			BulkBackend:       "pgx",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

// Loader reads configuration from a working directory. `.stampede.yml`
// is preferred; `.stampede.toml` is accepted as an alternative.
type Loader struct {
	workDir  string
	filePath string
}

// NewLoader creates a loader rooted at workDir.
func NewLoader(workDir string) *Loader {
	return &Loader{
		workDir:  workDir,
		filePath: filepath.Join(workDir, yamlFileName),
	}
}

// Load reads and parses the configuration file.
func (l *Loader) Load() (*Config, error) {
	yamlPath := filepath.Join(l.workDir, yamlFileName)
	if content, err := os.ReadFile(yamlPath); err == nil {
		return l.parse(content, yamlPath, yaml.Unmarshal)
	}

	tomlPath := filepath.Join(l.workDir, tomlFileName)
	if content, err := os.ReadFile(tomlPath); err == nil {
		return l.parse(content, tomlPath, toml.Unmarshal)
	}

	return nil, fmt.Errorf(
		"configuration not found in %s (expected %s or %s)",
		l.workDir, yamlFileName, tomlFileName,
	)
}

func (l *Loader) parse(content []byte, path string, unmarshal func([]byte, interface{}) error) (*Config, error) {
	cfg := Default()
	if err := unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	l.filePath = path
	return cfg, nil
}

// Init writes the default configuration to .stampede.yml.
// Fails if a configuration file already exists.
func (l *Loader) Init() (string, error) {
	yamlPath := filepath.Join(l.workDir, yamlFileName)
	tomlPath := filepath.Join(l.workDir, tomlFileName)
	for _, path := range []string{yamlPath, tomlPath} {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("configuration already exists: %s", path)
		}
	}

	content, err := yaml.Marshal(Default())
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(yamlPath, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", yamlPath, err)
	}
	return yamlPath, nil
}

// ConnectorConfig converts the database section into connector settings.
// DATABASE_URL and the url field take priority over discrete fields.
func (c *Config) ConnectorConfig() (engine.ConnectorConfig, error) {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		return engine.ParseConnectionString(databaseURL)
	}
	if c.Database.URL != "" {
		return engine.ParseConnectionString(c.Database.URL)
	}

	config := engine.DefaultConfig()
	if c.Database.Host != "" {
		config.Host = c.Database.Host
	}
	if c.Database.Port != 0 {
		config.Port = c.Database.Port
	}
	if c.Database.Database != "" {
		config.Database = c.Database.Database
	}
	if c.Database.User != "" {
		config.User = c.Database.User
	}
	config.Password = c.Database.Password
	if c.Database.MaxConnections > 0 {
		config.MaxConns = c.Database.MaxConnections
	}
	return config, nil
}

// Options converts the engine section into engine options.
func (c *Config) Options() engine.Options {
	return engine.Options{
		RowByRowThreshold: c.Engine.RowByRowThreshold,
		PreferBulkAPI:     c.Engine.PreferBulkAPI,
		PageSize:          c.Engine.PageSize,
		BatchSize:         c.Engine.BatchSize,
	}
}
