package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/persist"
)

// DefaultConfigPath is read when --config is not given. A missing file
// there is not an error.
const DefaultConfigPath = "~/.canopy/config.toml"

// Storage backends.
const (
	BackendDisk   = "diskv"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// AppConfig is the full config file: the canvas tables read by
// canopy.ParseConfig plus the host tables below.
type AppConfig struct {
	Canvas canopy.Config `toml:"-"`
	Store  StoreConfig   `toml:"store"`
	Server ServerConfig  `toml:"server"`
	Log    LogConfig     `toml:"log"`

	// Path is the file the config came from, empty for defaults.
	Path string `toml:"-"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend string `toml:"backend"`
	Board   string `toml:"board"`
	// Dir is the diskv base directory.
	Dir string `toml:"dir"`
	// Addr, Password, DB and Prefix configure redis.
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
	// URI and Database configure mongo.
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig sets the default log level: debug, info, warn or error.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultAppConfig returns the built-in configuration.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Canvas: canopy.DefaultConfig(),
		Store: StoreConfig{
			Backend:  BackendDisk,
			Board:    persist.DefaultBoard,
			Dir:      persist.DefaultDir,
			Addr:     "localhost:6379",
			Prefix:   appName,
			URI:      "mongodb://localhost:27017",
			Database: appName,
		},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info"},
	}
}

// ParseAppConfig decodes TOML over DefaultAppConfig.
func ParseAppConfig(data []byte) (AppConfig, error) {
	cfg := DefaultAppConfig()
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}
	canvas, err := canopy.ParseConfig(data)
	if err != nil {
		return AppConfig{}, err
	}
	cfg.Canvas = canvas
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// LoadAppConfig reads path, or DefaultConfigPath when path is empty.
func LoadAppConfig(path string) (AppConfig, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}
	full, err := homedir.Expand(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return DefaultAppConfig(), nil
		}
		return AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	cfg, err := ParseAppConfig(data)
	if err != nil {
		return AppConfig{}, fmt.Errorf("%s: %w", full, err)
	}
	cfg.Path = full
	return cfg, nil
}

// Validate checks the host tables.
func (c AppConfig) Validate() error {
	switch c.Store.Backend {
	case BackendDisk, BackendRedis, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if err := persist.ValidateBoard(c.Store.Board); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server addr must not be empty")
	}
	return nil
}

// openBackend connects to the configured store.
func openBackend(ctx context.Context, cfg StoreConfig) (persist.Backend, error) {
	switch cfg.Backend {
	case BackendDisk:
		return persist.NewDisk(cfg.Dir)
	case BackendRedis:
		return persist.NewRedis(ctx, persist.RedisOptions{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			Prefix:   cfg.Prefix,
		})
	case BackendMongo:
		return persist.NewMongo(ctx, persist.MongoOptions{
			URI:      cfg.URI,
			Database: cfg.Database,
		})
	case BackendMemory:
		return persist.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
