package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port int `env:"PORT, default=8080"`

	// logging
	LogLevel      string `env:"LOG_LEVEL, default=info"`
	LogFormatJSON bool   `env:"LOG_FORMAT_JSON, default=false"`

	DB DBConfig `env:", prefix=DB_"`
}

type DBConfig struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT, default=5432"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	Database string `env:"DATABASE"`
	SSLMode  string `env:"SSLMODE, default=disable"`

	MaxIdleConns    int           `env:"MAX_IDLE_CONNS, default=10"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS, default=100"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME, default=1h"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &cfg, nil
}

// Configured reports whether enough connection details are present to use
// Postgres. Without them the service falls back to the in-memory store.
func (c DBConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != "" && c.Database != ""
}

// DSN renders the connection string expected by the GORM postgres driver.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.Username, c.Password, c.Database, c.Port, c.SSLMode)
}
