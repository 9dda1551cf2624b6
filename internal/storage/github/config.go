package github

import (
	"context"
	"encoding/json"
	"fmt"
)

// Config identifies the repository a board syncs with. It is stored in the
// local key/value store as JSON, token included, matching the slot older
// TaskFlow clients used.
type Config struct {
	Token  string `json:"token"`
	Repo   string `json:"repo"`   // "owner/name"
	Branch string `json:"branch"` // defaults to "main"
}

// IsConfigured reports whether the config is complete enough to sync.
func (c Config) IsConfigured() bool {
	return c.Token != "" && c.Repo != ""
}

// KV is the subset of the local store the config layer needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// configKey matches local.KeyRemoteConfig; duplicated here to keep this
// package free of a dependency on the local store.
const configKey = "github_config"

// LoadConfig reads the remote config from kv. A missing config is not an
// error; the zero Config reports !IsConfigured().
func LoadConfig(ctx context.Context, kv KV) (Config, error) {
	raw, found, err := kv.Get(ctx, configKey)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load remote config: %w", err)
	}
	if !found {
		return Config{}, nil
	}
	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse remote config: %w", err)
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	return cfg, nil
}

// SaveConfig writes the remote config to kv.
func SaveConfig(ctx context.Context, kv KV, cfg Config) error {
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode remote config: %w", err)
	}
	if err := kv.Put(ctx, configKey, string(data)); err != nil {
		return fmt.Errorf("failed to save remote config: %w", err)
	}
	return nil
}

// ClearConfig removes the remote config, disconnecting the board.
func ClearConfig(ctx context.Context, kv KV) error {
	if err := kv.Delete(ctx, configKey); err != nil {
		return fmt.Errorf("failed to clear remote config: %w", err)
	}
	return nil
}
