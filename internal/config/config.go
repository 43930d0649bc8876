package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/onair-media/be-editorial-workflow/internal/workflow"
)

// Config is the full service configuration, loaded from the environment
// (with a best-effort .env file for local development).
type Config struct {
	Service  ServiceConfig
	Server   ServerConfig
	Database DatabaseConfig
	NATS     NATSConfig
	Workflow WorkflowConfig
}

type ServiceConfig struct {
	Name        string `env:"SERVICE_NAME" envDefault:"be-editorial-workflow"`
	Version     string `env:"SERVICE_VERSION" envDefault:"dev"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

type ServerConfig struct {
	Port            int           `env:"HTTP_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type DatabaseConfig struct {
	Host        string        `env:"DB_HOST" envDefault:"localhost"`
	Port        int           `env:"DB_PORT" envDefault:"5432"`
	User        string        `env:"DB_USER" envDefault:"editorial"`
	Password    string        `env:"DB_PASSWORD"`
	Database    string        `env:"DB_NAME" envDefault:"editorial"`
	SSLMode     string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns    int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	MinConns    int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	MaxIdleTime time.Duration `env:"DB_MAX_IDLE_TIME" envDefault:"5m"`
}

type NATSConfig struct {
	// URL is optional: when empty, notification intents are logged and
	// dropped instead of published.
	URL string `env:"NATS_URL"`
}

type WorkflowConfig struct {
	// PublishMinRole is the lowest role allowed to publish stories and
	// bulletins (sub_editor or editor, per newsroom policy).
	PublishMinRole string `env:"PUBLISH_MIN_ROLE" envDefault:"sub_editor"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// .env is a local-development convenience only.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if _, err := workflow.ParseRole(cfg.Workflow.PublishMinRole); err != nil {
		return nil, fmt.Errorf("PUBLISH_MIN_ROLE: %w", err)
	}
	return cfg, nil
}

// Rules materializes the workflow rule set from configuration.
func (c *Config) Rules() workflow.Rules {
	role, err := workflow.ParseRole(c.Workflow.PublishMinRole)
	if err != nil {
		return workflow.DefaultRules()
	}
	return workflow.Rules{PublishMinRole: role}
}
