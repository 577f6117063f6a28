package config

import (
	"fmt"
	"runtime"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the matching service.
// Environment variables are parsed from the MATCHSVC_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Postgres Configuration (document store)
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Vector index (Weaviate) host:port, no scheme
	VectorIndexURL string `envconfig:"VECTOR_INDEX_URL" default:"weaviate:8080"`

	// Embedding provider used by the relay worker to index profiles
	EmbedProvider string `envconfig:"EMBED_PROVIDER" default:"ollama"`
	EmbedModel    string `envconfig:"EMBED_MODEL" default:"mxbai-embed-large"`

	// External collaborators (empty URL disables the collaborator)
	GraphSyncURL     string `envconfig:"GRAPH_SYNC_URL" default:""`
	NamingServiceURL string `envconfig:"NAMING_SERVICE_URL" default:""`
	NamingModel      string `envconfig:"NAMING_MODEL" default:""`
	NotifyWebhookURL string `envconfig:"NOTIFY_WEBHOOK_URL" default:""`

	// Scoring worker pool; 0 resolves to 2*NumCPU
	ScoreWorkers int `envconfig:"SCORE_WORKERS" default:"0"`

	// Feature gate: when true, matchmaking is enabled for every tier
	MatchmakingAllTiers bool `envconfig:"MATCHMAKING_ALL_TIERS" default:"false"`

	// Outbox relay worker
	OutboxBatchSize       int `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	OutboxIntervalSeconds int `envconfig:"OUTBOX_INTERVAL_SECONDS" default:"2"`

	// Expiry sweep cadence for the relay worker
	ExpirySweepSeconds int `envconfig:"EXPIRY_SWEEP_SECONDS" default:"300"`

	// Dependency bootstrap timeout for async startup checks
	BootstrapTimeoutSeconds int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"30"`
}

// ResolveDefaults validates and derives settings left at their zero/auto values.
func (c *Config) ResolveDefaults() error {
	if c.ScoreWorkers <= 0 {
		c.ScoreWorkers = 2 * runtime.NumCPU()
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", c.OutboxBatchSize)
	}
	if c.OutboxIntervalSeconds <= 0 {
		return fmt.Errorf("OUTBOX_INTERVAL_SECONDS must be positive, got %d", c.OutboxIntervalSeconds)
	}
	switch c.Environment {
	case EnvDevelopment, EnvTesting, EnvProduction:
	default:
		return fmt.Errorf("unsupported ENVIRONMENT: %s", c.Environment)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Variables are prefixed with MATCHSVC_, e.g. MATCHSVC_POSTGRES_DSN.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("MATCHSVC", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("vector_index_url", cfg.VectorIndexURL).
		Str("embed_provider", cfg.EmbedProvider).
		Str("embed_model", cfg.EmbedModel).
		Int("score_workers", cfg.ScoreWorkers).
		Bool("matchmaking_all_tiers", cfg.MatchmakingAllTiers).
		Str("postgres_dsn_present", func() string {
			if cfg.PostgresDSN != "" {
				return "true"
			}
			return "false"
		}()).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	cfg := &Config{
		Environment:             EnvTesting,
		HTTPPort:                8080,
		VectorIndexURL:          "localhost:8082",
		EmbedProvider:           "ollama",
		EmbedModel:              "mxbai-embed-large",
		ScoreWorkers:            4,
		MatchmakingAllTiers:     true,
		OutboxBatchSize:         100,
		OutboxIntervalSeconds:   2,
		ExpirySweepSeconds:      300,
		BootstrapTimeoutSeconds: 5,
	}
	return cfg
}

// IsTesting returns true if the environment is set to testing.
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
