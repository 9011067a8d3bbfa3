package config

import (
	"errors"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrNoSinksEnabled is returned when the config enables no sink at all.
var ErrNoSinksEnabled = errors.New("no sinks enabled")

type Config struct {
	Snapshot struct {
		Enabled bool   `toml:"enabled"`
		Dir     string `toml:"dir"`
	} `toml:"snapshot"`

	Board struct {
		Enabled        bool   `toml:"enabled"`
		URL            string `toml:"url"` // e.g. ws://localhost:6007/live
		DialTimeoutSec int    `toml:"dial_timeout_sec"`
	} `toml:"board"`

	SQLite struct {
		Enabled bool   `toml:"enabled"`
		Path    string `toml:"path"`
	} `toml:"sqlite"`

	Postgres struct {
		Enabled bool   `toml:"enabled"`
		DSN     string `toml:"dsn"`
	} `toml:"postgres"`

	Redis struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
		Prefix  string `toml:"prefix"`
	} `toml:"redis"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Snapshot.Dir == "" {
		cfg.Snapshot.Dir = "logs"
	}
	if cfg.Board.DialTimeoutSec <= 0 {
		cfg.Board.DialTimeoutSec = 10
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "logs/rlog.db"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "rlog"
	}
}

func validate(cfg *Config) error {
	if !cfg.Snapshot.Enabled && !cfg.Board.Enabled && !cfg.SQLite.Enabled &&
		!cfg.Postgres.Enabled && !cfg.Redis.Enabled {
		return ErrNoSinksEnabled
	}

	if cfg.Board.Enabled && strings.TrimSpace(cfg.Board.URL) == "" {
		return errors.New("board.url empty but enabled")
	}
	if cfg.Postgres.Enabled && strings.TrimSpace(cfg.Postgres.DSN) == "" {
		return errors.New("postgres.dsn empty but enabled")
	}
	if cfg.Redis.Enabled && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return errors.New("redis.addr empty but enabled")
	}
	return nil
}
