package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	backendMemory   = "memory"
	backendFile     = "file"
	backendRedis    = "redis"
	backendPostgres = "postgres"

	defaultDir = ".portal"
)

// Config is the portalctl YAML config file.
type Config struct {
	Backend    string           `yaml:"backend"`
	KeyPrefix  string           `yaml:"key_prefix,omitempty"`
	Manifest   string           `yaml:"manifest,omitempty"`
	File       FileConfig       `yaml:"file,omitempty"`
	Redis      RedisConfig      `yaml:"redis,omitempty"`
	Postgres   PostgresConfig   `yaml:"postgres,omitempty"`
	Server     ServerConfig     `yaml:"server,omitempty"`
	WidgetData WidgetDataConfig `yaml:"widget_data,omitempty"`
}

type FileConfig struct {
	Dir string `yaml:"dir"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Channel  string `yaml:"channel,omitempty"`
}

type PostgresConfig struct {
	URL     string `yaml:"url"`
	Table   string `yaml:"table,omitempty"`
	Channel string `yaml:"channel,omitempty"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr,omitempty"`
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
	Router      string `yaml:"router,omitempty"`
	BasePath    string `yaml:"base_path,omitempty"`
}

// WidgetDataConfig routes the listed widgets to a remote data API.
type WidgetDataConfig struct {
	BaseURL string   `yaml:"base_url,omitempty"`
	APIKey  string   `yaml:"api_key,omitempty"`
	Widgets []string `yaml:"widgets,omitempty"`
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return cfg, fmt.Errorf("portalctl: open config: %w", err)
	}
	defer f.Close()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("portalctl: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// resolve merges the config file with flag overrides and fills defaults.
func (g *Globals) resolve() (Config, error) {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return cfg, err
	}
	override(&cfg.Backend, g.Backend)
	override(&cfg.File.Dir, g.Dir)
	override(&cfg.Redis.Addr, g.RedisAddr)
	override(&cfg.Postgres.URL, g.PostgresURL)
	override(&cfg.Manifest, g.Manifest)
	override(&cfg.KeyPrefix, g.KeyPrefix)

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if cfg.Backend == "" {
		cfg.Backend = backendFile
	}
	switch cfg.Backend {
	case backendMemory:
	case backendFile:
		if cfg.File.Dir == "" {
			cfg.File.Dir = defaultDir
		}
	case backendRedis:
		if cfg.Redis.Addr == "" {
			return cfg, errors.New("portalctl: redis backend needs an address")
		}
	case backendPostgres:
		if cfg.Postgres.URL == "" {
			return cfg, errors.New("portalctl: postgres backend needs a url")
		}
	default:
		return cfg, fmt.Errorf("portalctl: unknown backend %q", cfg.Backend)
	}
	return cfg, nil
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
