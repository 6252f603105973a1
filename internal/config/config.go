// Package config loads server settings from the environment and the ranked
// model definitions from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go-simpler.org/env"
)

const (
	AuthModeLocal = "local"
	AuthModeJWT   = "jwt"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	ServerMode      string        `env:"SERVER_MODE" default:"tcp" usage:"listen on tcp or uds"`
	Port            string        `env:"PORT" default:"8080" usage:"tcp port in tcp mode"`
	SocketPath      string        `env:"SERVER_SOCKET_PATH" usage:"unix socket or named pipe path in uds mode"`
	DBMode          string        `env:"DB_MODE" default:"memory" usage:"memory or local"`
	DBPath          string        `env:"DB_PATH" default:"./data" usage:"directory of the local database"`
	DBName          string        `env:"DB_NAME" default:"orderedmodel" usage:"file name of the local database without extension"`
	LogLevel        string        `env:"LOG_LEVEL" default:"info" usage:"debug info warn error"`
	AuthMode        string        `env:"AUTH_MODE" default:"local" usage:"local trusts every caller, jwt requires a bearer token"`
	JWTSecret       string        `env:"JWT_SECRET" usage:"HMAC secret for jwt auth mode"`
	ModelsFile      string        `env:"MODELS_FILE" usage:"yaml file with ranked model definitions, built-in demo models when empty"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" usage:"allowed origins, any origin when empty"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s" usage:"grace period for in-flight requests"`
}

// Load reads the config from the process environment, or from src when it
// is not nil.
func Load(src env.Source) (*Config, error) {
	cfg := &Config{}
	if err := env.Load(cfg, &env.Options{Source: src, SliceSep: ","}); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.ServerMode {
	case "tcp", "uds":
	default:
		return fmt.Errorf("%w: SERVER_MODE %q", ErrInvalidConfig, c.ServerMode)
	}
	switch c.DBMode {
	case "memory", "local":
	default:
		return fmt.Errorf("%w: DB_MODE %q", ErrInvalidConfig, c.DBMode)
	}
	switch c.AuthMode {
	case AuthModeLocal:
	case AuthModeJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("%w: JWT_SECRET is required in jwt auth mode", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: AUTH_MODE %q", ErrInvalidConfig, c.AuthMode)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level is the parsed LOG_LEVEL.
func (c *Config) Level() slog.Level {
	lvl, _ := ParseLevel(c.LogLevel)
	return lvl
}

func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("%w: LOG_LEVEL %q", ErrInvalidConfig, s)
	}
	return lvl, nil
}

// PrintUsage writes every supported variable with its default.
func PrintUsage(w io.Writer) {
	env.Usage(&Config{}, w, &env.Options{SliceSep: ","})
}
