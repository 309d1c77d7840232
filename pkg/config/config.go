package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is the configuration file read when no -config flag is given.
const DefaultPath = "config.yaml"

// Config holds all configuration for a schema sync run.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (database password, API key) must only come from environment variables.
type Config struct {
	Version string `yaml:"-"` // Set at load time, not from config

	Log       LogConfig       `yaml:"log"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Source    SourceConfig    `yaml:"source"`
	Sync      SyncConfig      `yaml:"sync"`
}

// LogConfig controls the zap logger built in main.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"` // console | json
}

// KnowledgeConfig points at the knowledge-base REST API.
type KnowledgeConfig struct {
	APIURL string `yaml:"api_url" env:"KNOWLEDGE_API_URL" env-default:""`
	APIKey string `yaml:"-" env:"KNOWLEDGE_API_KEY"` // Secret - not in YAML

	EmbeddingModel    string `yaml:"embedding_model" env:"KNOWLEDGE_EMBEDDING_MODEL" env-default:""`
	EmbeddingProvider string `yaml:"embedding_provider" env:"KNOWLEDGE_EMBEDDING_PROVIDER" env-default:""`
	RerankModel       string `yaml:"rerank_model" env:"KNOWLEDGE_RERANK_MODEL" env-default:""`
	RerankProvider    string `yaml:"rerank_provider" env:"KNOWLEDGE_RERANK_PROVIDER" env-default:""`
}

// SourceConfig describes the database whose schema is published.
type SourceConfig struct {
	Type     string `yaml:"type" env:"SOURCE_DB_TYPE" env-default:""`
	Host     string `yaml:"host" env:"SOURCE_DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"SOURCE_DB_PORT" env-default:"0"` // 0 = dialect default
	Username string `yaml:"username" env:"SOURCE_DB_USER" env-default:""`
	Password string `yaml:"-" env:"SOURCE_DB_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"SOURCE_DB_NAME" env-default:""`
	Schema   string `yaml:"schema" env:"SOURCE_DB_SCHEMA" env-default:""`

	// TableNames is a comma-separated filter. Empty means every table.
	TableNames string `yaml:"table_names" env:"SOURCE_TABLE_NAMES" env-default:""`

	// ConnectRetries bounds retries of the initial ping. 0 = single attempt.
	ConnectRetries int `yaml:"connect_retries" env:"SOURCE_CONNECT_RETRIES" env-default:"0"`
}

// SyncConfig holds sync target settings.
type SyncConfig struct {
	// DatasetID is the dataset to upsert into. Empty creates a new dataset.
	DatasetID string `yaml:"dataset_id" env:"SYNC_DATASET_ID" env-default:""`
}

// Load reads configuration from path with environment variable overrides.
// An empty path means DefaultPath. The version parameter is injected at build
// time and set on the returned Config.
func Load(path, version string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.normalize()

	return cfg, nil
}

// LoadFromEnv builds a Config from environment variables only.
func LoadFromEnv(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.normalize()

	return cfg, nil
}

func (c *Config) normalize() {
	c.Source.Type = strings.ToLower(strings.TrimSpace(c.Source.Type))
	c.Knowledge.APIURL = strings.TrimRight(strings.TrimSpace(c.Knowledge.APIURL), "/")
}

// Validate checks the fields a sync run cannot start without.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Knowledge.APIURL == "" {
		errs = append(errs, errors.New("knowledge.api_url is required"))
	}
	if c.Knowledge.APIKey == "" {
		errs = append(errs, errors.New("KNOWLEDGE_API_KEY is required"))
	}
	if err := c.ValidateSource(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ValidateSource checks only the source database section. Extract mode needs
// nothing else.
func (c *Config) ValidateSource() error {
	var errs []error

	if c.Source.Type == "" {
		errs = append(errs, errors.New("source.type is required"))
	}
	if c.Source.Host == "" {
		errs = append(errs, errors.New("source.host is required"))
	}
	if c.Source.Port < 0 || c.Source.Port > 65535 {
		errs = append(errs, fmt.Errorf("source.port %d out of range", c.Source.Port))
	}
	if c.Source.Database == "" {
		errs = append(errs, errors.New("source.database is required"))
	}
	if c.Source.ConnectRetries < 0 {
		errs = append(errs, errors.New("source.connect_retries must not be negative"))
	}

	return errors.Join(errs...)
}
