// Package config loads the gateway's environment-driven configuration
// (§6) via viper, failing fast on a missing required key.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/metamcp/metamcp/pkg/errors"
)

// Config is the gateway's fully resolved, validated runtime configuration.
type Config struct {
	DatabaseURL    string
	EncryptionKey  [32]byte
	JWTSecret      string
	ServerHost     string
	ServerPort     int
	LogLevel       string
	TokenTTL       time.Duration
	AllowedOrigins []string
}

// Load reads configuration from the environment, applying the defaults of
// §6 and failing with a Config error on any missing/malformed required key.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.SetDefault("SERVER_HOST", "127.0.0.1")
	v.SetDefault("SERVER_PORT", 12009)
	v.SetDefault("RUST_LOG", "info")
	v.SetDefault("TOKEN_TTL_SECONDS", 900)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	for _, key := range []string{"DATABASE_URL", "ENCRYPTION_KEY", "JWT_SECRET", "SERVER_HOST", "SERVER_PORT", "RUST_LOG", "TOKEN_TTL_SECONDS", "CORS_ALLOWED_ORIGINS"} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.NewConfigError("failed to bind env var "+key, err)
		}
	}

	dbURL := v.GetString("DATABASE_URL")
	if dbURL == "" {
		return nil, errors.NewConfigError("DATABASE_URL is required", nil)
	}

	encHex := v.GetString("ENCRYPTION_KEY")
	if len(encHex) != 64 {
		return nil, errors.NewConfigError("ENCRYPTION_KEY must be 64 hex chars (32 bytes)", nil)
	}
	encBytes, err := hex.DecodeString(encHex)
	if err != nil {
		return nil, errors.NewConfigError("ENCRYPTION_KEY must be valid hex", err)
	}
	var key [32]byte
	copy(key[:], encBytes)

	jwtSecret := v.GetString("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.NewConfigError("JWT_SECRET is required", nil)
	}

	var origins []string
	if raw := v.GetString("CORS_ALLOWED_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Config{
		DatabaseURL:    dbURL,
		EncryptionKey:  key,
		JWTSecret:      jwtSecret,
		ServerHost:     v.GetString("SERVER_HOST"),
		ServerPort:     v.GetInt("SERVER_PORT"),
		LogLevel:       v.GetString("RUST_LOG"),
		TokenTTL:       time.Duration(v.GetInt("TOKEN_TTL_SECONDS")) * time.Second,
		AllowedOrigins: origins,
	}, nil
}

// Address returns the host:port listen string.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
