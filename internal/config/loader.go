package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load reads, parses and validates the configuration file at path.
// Defaults are applied before validation, so callers can rely on
// provider, max_tokens and metrics job being set.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, NewConfigError(fmt.Sprintf("config file not found: %s", path))
		}
		return nil, NewConfigError(fmt.Sprintf("cannot access config file %s: %v", path, err))
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, NewConfigError(fmt.Sprintf("failed to parse config file %s: %v", path, err))
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, NewConfigError(fmt.Sprintf("failed to unmarshal config: %v", err))
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
