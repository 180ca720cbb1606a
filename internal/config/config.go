package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models thingslens.yml.
type Config struct {
	Database struct {
		// Path overrides store discovery when set.
		Path string `yaml:"path"`
	} `yaml:"database"`
	Dates struct {
		// EncodeOffsetDays is added on the encode path only. The host has
		// been observed shifting some packed fields by 33 days; the correct
		// variant is unconfirmed, so it stays configurable and defaults to 0.
		EncodeOffsetDays int `yaml:"encode_offset_days"`
	} `yaml:"dates"`
	Lists struct {
		// SomedayArea is the area title the host files Someday tasks under.
		SomedayArea string `yaml:"someday_area"`
	} `yaml:"lists"`
	API struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
		// AuthSecret enables bearer-token auth when set. The API is bound
		// to loopback by default, so auth is off unless asked for.
		AuthSecret string `yaml:"auth_secret"`
	} `yaml:"api"`
}

const fileName = "thingslens.yml"

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, fileName)
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	cfg.Lists.SomedayArea = "Someday"
	cfg.API.Addr = "127.0.0.1:8420"
	cfg.API.BasePath = "/v0"
	return &cfg
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Dates.EncodeOffsetDays < -366 || c.Dates.EncodeOffsetDays > 366 {
		return fmt.Errorf("config.dates.encode_offset_days must be within [-366, 366]")
	}
	if c.Lists.SomedayArea == "" {
		return fmt.Errorf("config.lists.someday_area is required")
	}
	if c.API.BasePath != "" && c.API.BasePath[0] != '/' {
		return fmt.Errorf("config.api.base_path must start with /")
	}
	return nil
}

// FromYAML parses and validates config from raw YAML bytes. Fields left
// unset fall back to defaults before validation.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if cfg.Lists.SomedayArea == "" {
		cfg.Lists.SomedayArea = "Someday"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config when the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}
