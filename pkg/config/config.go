// Package config loads flowviz configuration.
//
// Configuration is resolved in three layers, later layers winning:
//  1. Built-in defaults
//  2. A TOML config file (~/.config/flowviz/config.toml by default)
//  3. FLOWVIZ_* environment variables
//
// The serve command additionally loads a .env file from the working
// directory before reading the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/flowviz/flowviz/pkg/errors"
)

// Config holds all flowviz settings.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Sim    SimConfig    `toml:"sim"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
}

// LayoutConfig overrides the layout spacing defaults.
// Zero values mean "use the built-in default".
type LayoutConfig struct {
	HSpacing   float64 `toml:"h_spacing"`
	VSpacing   float64 `toml:"v_spacing"`
	NodeWidth  float64 `toml:"node_width"`
	NodeHeight float64 `toml:"node_height"`
}

// SimConfig holds simulation settings.
type SimConfig struct {
	TravelMs float64 `toml:"travel_ms"` // edge traversal time in milliseconds
	Seed     uint64  `toml:"seed"`      // spawner seed
	FPS      int     `toml:"fps"`       // playback frame rate
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`   // file cache directory
	Redis   string `toml:"redis"` // redis addr; empty selects the file cache
	Scope   string `toml:"scope"` // key prefix for shared backends
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr        string `toml:"addr"`
	MaxSessions int    `toml:"max_sessions"`
}

// StoreConfig holds scene store settings.
type StoreConfig struct {
	Dir      string `toml:"dir"`       // scene directory for the file store
	MongoURI string `toml:"mongo_uri"` // optional MongoDB-backed store
	MongoDB  string `toml:"mongo_db"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Sim: SimConfig{
			TravelMs: 2000,
			Seed:     42,
			FPS:      30,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     DefaultCacheDir(),
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MaxSessions: 16,
		},
		Store: StoreConfig{
			Dir:     DefaultStoreDir(),
			MongoDB: "flowviz",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "flowviz", "config.toml")
}

// DefaultCacheDir returns the default file cache location.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".flowviz-cache"
	}
	return filepath.Join(dir, "flowviz")
}

// DefaultStoreDir returns the default scene store location.
func DefaultStoreDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".flowviz-scenes"
	}
	return filepath.Join(dir, "flowviz", "scenes")
}

// Load reads configuration from path, falling back to DefaultPath when
// path is empty. A missing file is not an error: defaults apply.
// Environment variables override file values either way.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "reading config file %s", path)
		}
		if err == nil {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parsing config file %s", path)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv applies FLOWVIZ_* environment overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("FLOWVIZ_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("FLOWVIZ_MAX_SESSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Server.MaxSessions = n
		}
	}
	if v := os.Getenv("FLOWVIZ_CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv("FLOWVIZ_REDIS"); v != "" {
		c.Cache.Redis = v
	}
	if v := os.Getenv("FLOWVIZ_CACHE_SCOPE"); v != "" {
		c.Cache.Scope = v
	}
	if v := os.Getenv("FLOWVIZ_STORE_DIR"); v != "" {
		c.Store.Dir = v
	}
	if v := os.Getenv("FLOWVIZ_MONGO_URI"); v != "" {
		c.Store.MongoURI = v
	}
	if v := os.Getenv("FLOWVIZ_MONGO_DB"); v != "" {
		c.Store.MongoDB = v
	}
}

// Validate checks settings that have hard constraints.
func (c *Config) Validate() error {
	if err := errors.ValidateListenAddr(c.Server.Addr); err != nil {
		return err
	}
	if c.Server.MaxSessions < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_sessions must be at least 1, got %d", c.Server.MaxSessions)
	}
	if c.Sim.FPS < 1 || c.Sim.FPS > 240 {
		return errors.New(errors.ErrCodeInvalidConfig, "fps must be between 1 and 240, got %d", c.Sim.FPS)
	}
	return nil
}
