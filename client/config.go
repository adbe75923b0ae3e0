package client

import (
	"encoding/hex"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/custodia-net/vault-escrow-contract/common"
	"github.com/custodia-net/vault-escrow-contract/statestore"
)

// Config is the on-disk caller configuration. It is loaded from one
// explicit path; there is no discovery and no ambient fallback.
type Config struct {
	// StatePath is the derived-address cache file. Empty disables the
	// cache.
	StatePath string `yaml:"state_path"`
	// LogLevel is a zap level name ("debug", "info", ...). Empty means
	// info.
	LogLevel string `yaml:"log_level"`
	// SignerSeed is a hex-encoded 32-byte ed25519 seed. A convenience for
	// development setups; production callers pass a Signer directly and
	// leave this empty.
	SignerSeed string `yaml:"signer_seed"`
}

// LoadConfig reads and parses the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// NewContext assembles a caller context from the configuration: logger,
// optional state store, and the configured signer unless one is passed in.
// The returned closer releases the store.
func (cfg *Config) NewContext(signer common.Signer, session Session) (*Context, func() error, error) {
	level := zap.InfoLevel
	if cfg.LogLevel != "" {
		parsed, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed.Level()
	}
	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(level)
	log, err := logCfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	if signer == nil {
		if cfg.SignerSeed == "" {
			return nil, nil, fmt.Errorf("no signer supplied and no signer_seed configured")
		}
		seed, err := hex.DecodeString(cfg.SignerSeed)
		if err != nil {
			return nil, nil, fmt.Errorf("decode signer_seed: %w", err)
		}
		signer, err = common.KeypairFromSeed(seed)
		if err != nil {
			return nil, nil, err
		}
	}

	opts := []Option{WithLogger(log)}
	closer := func() error { return nil }
	if cfg.StatePath != "" {
		store, err := statestore.Open(cfg.StatePath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, WithStore(store))
		closer = store.Close
	}
	return NewContext(signer, session, opts...), closer, nil
}
