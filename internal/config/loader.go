package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"gopkg.in/yaml.v2"
)

// LoadFile loads a config file. The format is chosen by extension:
// .hcl, .json, .yaml or .yml. Anything else is tried as HCL, then JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".hcl":
		return LoadHCL(data, path)
	case ".json":
		return LoadJSON(data)
	case ".yaml", ".yml":
		return LoadYAML(data)
	default:
		cfg, err := LoadHCL(data, path)
		if err != nil {
			return LoadJSON(data)
		}
		return cfg, nil
	}
}

// LoadHCL loads config from HCL bytes
func LoadHCL(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("HCL parse error: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("HCL decode error: %s", diags.Error())
	}
	return finish(&cfg)
}

// LoadJSON loads config from JSON bytes
func LoadJSON(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}
	return finish(&cfg)
}

// LoadYAML loads config from YAML bytes
func LoadYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	version, err := ParseVersion(cfg.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid schema version: %w", err)
	}
	if !IsSupportedVersion(version) {
		return nil, fmt.Errorf("unsupported config schema version %s (supported: %v)",
			version, SupportedVersions)
	}

	cfg.ApplyDefaults()
	if errs := cfg.Validate(); errs.HasErrors() {
		return nil, fmt.Errorf("invalid config: %w", errs)
	}
	return cfg, nil
}

// SaveFile saves config to a file (format determined by extension)
func SaveFile(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = GenerateHCL(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateHCL generates HCL bytes from Config
func GenerateHCL(cfg *Config) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(cfg, f.Body())
	return hclwrite.Format(f.Bytes()), nil
}
