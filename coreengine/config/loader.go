package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadPipeline reads a pipeline definition in YAML form and validates it.
// Zero or missing bounds fall back to the package defaults.
func LoadPipeline(r io.Reader) (*PipelineConfig, error) {
	cfg := NewPipelineConfig("")
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode pipeline config: %w", err)
	}

	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = 30
	}
	if cfg.DefaultTimeoutSeconds == 0 {
		cfg.DefaultTimeoutSeconds = 300
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	return cfg, nil
}

// LoadPipelineFile loads a pipeline definition from a YAML file.
func LoadPipelineFile(path string) (*PipelineConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pipeline config: %w", err)
	}
	defer f.Close()
	return LoadPipeline(f)
}
