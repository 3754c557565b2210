package config

import (
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/habiliai/botruntime/errors"
)

type BotConfig struct {
	LogConfig `yaml:",inline"`

	// DatabasePath is the sqlite file holding bot profiles and settings.
	// Use ":memory:" for a throwaway database.
	DatabasePath        string `env:"BOT_DATABASE_PATH" yaml:"databasePath" json:"databasePath,omitempty"`
	DatabaseAutoMigrate bool   `env:"BOT_DATABASE_AUTO_MIGRATE" yaml:"databaseAutoMigrate" json:"databaseAutoMigrate,omitempty"`

	// TickInterval is how often the scheduler runs every live bot's controller.
	TickInterval time.Duration `env:"BOT_TICK_INTERVAL" yaml:"tickInterval" json:"tickInterval,omitempty"`
	// TickWorkers bounds how many controllers run concurrently within one tick.
	TickWorkers int `env:"BOT_TICK_WORKERS" yaml:"tickWorkers" json:"tickWorkers,omitempty"`

	// StorageTimeout bounds every storage call.
	StorageTimeout time.Duration `env:"BOT_STORAGE_TIMEOUT" yaml:"storageTimeout" json:"storageTimeout,omitempty"`

	Host string `env:"BOT_HOST" yaml:"host" json:"host,omitempty"`
	Port int    `env:"BOT_PORT" yaml:"port" json:"port,omitempty"`
}

func NewBotConfig() *BotConfig {
	return &BotConfig{
		LogConfig:           *NewLogConfig(),
		DatabasePath:        "botruntime.db",
		DatabaseAutoMigrate: true,
		TickInterval:        500 * time.Millisecond,
		TickWorkers:         8,
		StorageTimeout:      3 * time.Second,
		Host:                "0.0.0.0",
		Port:                9080,
	}
}

func (c *BotConfig) Validate() error {
	switch {
	case c.DatabasePath == "":
		return errors.Wrapf(errors.ErrInvalidConfig, "databasePath is required")
	case c.TickInterval <= 0:
		return errors.Wrapf(errors.ErrInvalidConfig, "tickInterval must be positive, got %s", c.TickInterval)
	case c.TickWorkers <= 0:
		return errors.Wrapf(errors.ErrInvalidConfig, "tickWorkers must be positive, got %d", c.TickWorkers)
	case c.StorageTimeout <= 0:
		return errors.Wrapf(errors.ErrInvalidConfig, "storageTimeout must be positive, got %s", c.StorageTimeout)
	case c.Port <= 0 || c.Port > 65535:
		return errors.Wrapf(errors.ErrInvalidConfig, "port out of range: %d", c.Port)
	}
	return nil
}

// LoadBotConfig layers the defaults, the optional YAML file, .env files and
// BOT_* environment variables, in that order.
func LoadBotConfig(file string) (*BotConfig, error) {
	c := NewBotConfig()

	if file != "" {
		yamlBytes, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read file %s", file)
		}
		if err := yaml.Unmarshal(yamlBytes, c); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal file %s", file)
		}
	}

	if err := resolveConfig(&c.LogConfig); err != nil {
		return nil, err
	}
	if err := resolveConfig(c); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}
