package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Bundle is the on-disk layout of a report configuration file.
type Bundle struct {
	Report  ReportConfig   `yaml:"report"`
	Sources []SourceConfig `yaml:"sources"`
}

type sourcesBundle struct {
	Sources []SourceConfig `yaml:"sources"`
}

// LoadConfigBundle loads a report and its sources from a YAML file and
// validates them.
func LoadConfigBundle(path string) (*ReportConfig, map[string]*SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config bundle: %w", err)
	}
	return ParseConfigBundle(data)
}

// ParseConfigBundle decodes and validates a YAML report bundle.
func ParseConfigBundle(data []byte) (*ReportConfig, map[string]*SourceConfig, error) {
	var bundle Bundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config bundle: %w", err)
	}

	sources, err := indexSources(bundle.Sources)
	if err != nil {
		return nil, nil, err
	}

	validator := NewValidator(nil)
	if err := validator.ValidateReport(&bundle.Report); err != nil {
		return nil, nil, fmt.Errorf("invalid report config: %w", err)
	}
	return &bundle.Report, sources, nil
}

// LoadSourcesBundle loads a standalone list of sources, used to override the
// sources declared next to a report.
func LoadSourcesBundle(path string) (map[string]*SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources bundle: %w", err)
	}
	var bundle sourcesBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse sources bundle: %w", err)
	}
	return indexSources(bundle.Sources)
}

func indexSources(list []SourceConfig) (map[string]*SourceConfig, error) {
	validator := NewValidator(nil)
	sources := make(map[string]*SourceConfig, len(list))
	for i := range list {
		src := &list[i]
		if err := validator.ValidateSource(src); err != nil {
			return nil, fmt.Errorf("source %d error: %w", i, err)
		}
		if _, dup := sources[src.ID]; dup {
			return nil, fmt.Errorf("duplicate source id '%s'", src.ID)
		}
		sources[src.ID] = src
	}
	return sources, nil
}
