package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects the blob-store backend: "gcs" for production object
// storage, "sqlite" for the single-file local-dev store.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Bucket  string `yaml:"bucket"`
	Path    string `yaml:"path"`
}

// AuthConfig holds the dashboard bearer token; empty disables auth.
type AuthConfig struct {
	Token string `yaml:"token"`
}

type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			Path:    "teams-board.db",
		},
		Cache: CacheConfig{
			TTLSeconds: 5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("TEAMSBOARD_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("TEAMSBOARD_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("TEAMSBOARD_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TEAMSBOARD_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if backend := os.Getenv("TEAMSBOARD_STORAGE_BACKEND"); backend != "" {
		cfg.Storage.Backend = backend
	}
	if bucket := os.Getenv("TEAMSBOARD_STORAGE_BUCKET"); bucket != "" {
		cfg.Storage.Bucket = bucket
	}
	if path := os.Getenv("TEAMSBOARD_STORAGE_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if token := os.Getenv("TEAMSBOARD_AUTH_TOKEN"); token != "" {
		cfg.Auth.Token = token
	}
	if ttlStr := os.Getenv("TEAMSBOARD_CACHE_TTL_SECONDS"); ttlStr != "" {
		ttl, err := strconv.Atoi(ttlStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TEAMSBOARD_CACHE_TTL_SECONDS: %w", err)
		}
		cfg.Cache.TTLSeconds = ttl
	}
	if level := os.Getenv("TEAMSBOARD_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	switch cfg.Storage.Backend {
	case "sqlite":
	case "gcs":
		if cfg.Storage.Bucket == "" {
			return Config{}, fmt.Errorf("gcs backend requires a bucket name")
		}
	default:
		return Config{}, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
