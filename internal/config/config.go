// Package config handles loading and parsing application configuration.
//
// Sources, lowest priority first:
//  1. Built-in defaults (env-default tags), so the service starts with no file.
//  2. A YAML file named by CONFIG_PATH or the --config flag.
//  3. Environment variables, optionally seeded from a local .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev" validate:"oneof=dev staging prod"`

	// StoragePath is the filesystem path to the SQLite .db file.
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"smartumis.db" validate:"required"`

	// HideDBErrors drops the raw driver message from the "error" field of
	// 500 responses. Kept as a negative flag: cleanenv re-applies
	// env-default to any zero-valued field.
	HideDBErrors bool `yaml:"hide_db_errors" env:"HIDE_DB_ERRORS"`

	HTTPServer `yaml:"http_server"`

	Auth Auth `yaml:"auth"`

	Tracing Tracing `yaml:"tracing"`
}

// HTTPServer holds settings specific to the HTTP server.
// Nested under http_server: in the YAML file.
type HTTPServer struct {
	Addr         string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"0.0.0.0:5000" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// Auth selects how account passwords are stored and compared.
type Auth struct {
	// PasswordHasher is "bcrypt" or "plaintext". Plaintext keeps databases
	// written by the legacy service usable.
	PasswordHasher string `yaml:"password_hasher" env:"AUTH_PASSWORD_HASHER" env-default:"bcrypt" validate:"oneof=bcrypt plaintext"`
	BcryptCost     int    `yaml:"bcrypt_cost" env:"AUTH_BCRYPT_COST" env-default:"10" validate:"min=4,max=31"`
}

// Tracing selects where HTTP spans are exported.
// Nested under tracing: in the YAML file.
type Tracing struct {
	// Exporter is "none", "stdout" (spans printed as JSON on stdout) or
	// "otlp" (OTLP over gRPC to OTLPEndpoint).
	Exporter     string `yaml:"exporter" env:"TRACING_EXPORTER" env-default:"none" validate:"oneof=none stdout otlp"`
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"TRACING_OTLP_ENDPOINT" env-default:"localhost:4317" validate:"required"`
	OTLPInsecure bool   `yaml:"otlp_insecure" env:"TRACING_OTLP_INSECURE"`
}

// Load builds a Config from defaults, the optional YAML file at path and
// the environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config.Load: read env: %w", err)
		}
	} else {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config.Load: config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: invalid config: %w", err)
	}

	return &cfg, nil
}

// MustLoad resolves the config path from CONFIG_PATH or --config, loads it
// and exits the process on any error.
func MustLoad() *Config {
	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("cannot read .env file: %s", err.Error())
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %s", err.Error())
	}

	return cfg
}
