package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

const (
	DefaultPoolSize = 64
	DefaultDBFile   = "ember.db"

	ReplacerClock = "clock"
	ReplacerLru   = "lru"
)

// Config holds the settings of one database instance.
type Config struct {
	// DBFile is the path of the database file. The write-ahead log lives next to it
	// with a .log suffix.
	DBFile string `toml:"db_file"`

	// PoolSize is the buffer pool capacity in frames. Fixed for the pool's lifetime.
	PoolSize int `toml:"pool_size"`

	// Replacer selects the eviction policy, "clock" or "lru".
	Replacer string `toml:"replacer"`

	// EnableWAL turns write-ahead logging on.
	EnableWAL bool `toml:"enable_wal"`
}

func Default() *Config {
	return &Config{
		DBFile:   DefaultDBFile,
		PoolSize: DefaultPoolSize,
		Replacer: ReplacerClock,
	}
}

// Load reads a toml config file, fills unset fields with defaults and validates the
// result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Config{}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DBFile == "" {
		c.DBFile = DefaultDBFile
	}
	if c.PoolSize == 0 {
		c.PoolSize = DefaultPoolSize
	}
	if c.Replacer == "" {
		c.Replacer = ReplacerClock
	}
}

func (c *Config) Validate() error {
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be positive, got %d", c.PoolSize)
	}
	if c.Replacer != ReplacerClock && c.Replacer != ReplacerLru {
		return fmt.Errorf("unknown replacer %q", c.Replacer)
	}
	return nil
}
