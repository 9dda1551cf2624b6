// Package config loads TaskFlow settings from a config file, environment
// variables, and flags, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings.
type Config struct {
	// DataDir is where the local database and inbox live.
	DataDir string `mapstructure:"data_dir"`

	// SyncInterval is how often the background syncer runs.
	SyncInterval time.Duration `mapstructure:"sync_interval"`

	// DashboardPort is the dashboard listen port.
	DashboardPort int `mapstructure:"dashboard_port"`

	// InboxDir is the note drop directory. Defaults to <DataDir>/inbox.
	InboxDir string `mapstructure:"inbox_dir"`

	// LogFile, when set, sends server logs to a rotating file instead of
	// stderr.
	LogFile string `mapstructure:"log_file"`
}

// DatabasePath returns the SQLite file location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "taskflow.db")
}

// Load reads configuration. cfgFile overrides the default search path
// (~/.taskflow/config.yaml). Environment variables use the TASKFLOW_ prefix,
// e.g. TASKFLOW_DATA_DIR.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	defaultDataDir := filepath.Join(home, ".taskflow")

	v.SetDefault("data_dir", defaultDataDir)
	v.SetDefault("sync_interval", 5*time.Minute)
	v.SetDefault("dashboard_port", 8422)
	v.SetDefault("inbox_dir", "")
	v.SetDefault("log_file", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultDataDir)
	}

	v.SetEnvPrefix("TASKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover everything.
		// An unreadable or malformed one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.InboxDir == "" {
		cfg.InboxDir = filepath.Join(cfg.DataDir, "inbox")
	}
	return &cfg, nil
}
