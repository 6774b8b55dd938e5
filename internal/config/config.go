package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port              int    `envconfig:"PORT" default:"8080"`
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL       string `envconfig:"DATABASE_URL" required:"true"`
	Version           string `envconfig:"VERSION" default:"dev"`
	JWTSecret         string `envconfig:"JWT_SECRET" required:"true"`
	TokenTTLMinutes   int    `envconfig:"TOKEN_TTL_MINUTES" default:"720"`
	BcryptCost        int    `envconfig:"BCRYPT_COST" default:"12"`
	DebounceMillis    int    `envconfig:"SYNC_DEBOUNCE_MS" default:"150"`
	ResyncSeconds     int    `envconfig:"SYNC_RESYNC_SECONDS" default:"60"`
	CreateSchema      bool   `envconfig:"CREATE_SCHEMA" default:"false"`
	BootstrapAdmin    string `envconfig:"BOOTSTRAP_ADMIN_EMAIL" default:""`
	BootstrapPassword string `envconfig:"BOOTSTRAP_ADMIN_PASSWORD" default:""`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
