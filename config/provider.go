package config

import "fmt"

// Provider defines the interface for retrieving source configurations.
type Provider interface {
	GetSourceConfig(id string) (*SourceConfig, error)
}

// MemoryConfigRegistry implements Provider using an in-memory map.
type MemoryConfigRegistry struct {
	sources map[string]*SourceConfig
}

// NewMemoryConfigRegistry creates a new registry with the given sources.
func NewMemoryConfigRegistry(sources map[string]*SourceConfig) *MemoryConfigRegistry {
	if sources == nil {
		sources = map[string]*SourceConfig{}
	}
	return &MemoryConfigRegistry{sources: sources}
}

// GetSourceConfig retrieves a SourceConfig by id.
func (r *MemoryConfigRegistry) GetSourceConfig(id string) (*SourceConfig, error) {
	if conf, ok := r.sources[id]; ok {
		return conf, nil
	}
	return nil, fmt.Errorf("source config not found: %s", id)
}
