package clusterstate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StaticConfig is the on-disk shape of a cluster-attributes file: a
// flat list of nodes and the placement attributes each one carries.
// Operators hand-author this file for clusters small enough (or
// static enough) that polling every node's attribute endpoint is
// unnecessary overhead; LoadStaticConfig parses it and Seed installs
// it into a Directory directly via SetAttributes.
type StaticConfig struct {
	Nodes []StaticNodeConfig `yaml:"nodes"`
}

// StaticNodeConfig describes one node entry in a cluster-attributes
// file.
type StaticNodeConfig struct {
	ID         string            `yaml:"id"`
	Addr       string            `yaml:"addr,omitempty"`
	Attributes map[string]string `yaml:"attributes"`
}

// LoadStaticConfig reads and parses a cluster-attributes YAML file.
func LoadStaticConfig(path string) (*StaticConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cluster attributes file: %w", err)
	}

	var cfg StaticConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing cluster attributes file: %w", err)
	}

	for i, n := range cfg.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("cluster attributes file: node at index %d has no id", i)
		}
	}

	return &cfg, nil
}

// Seed installs every node in the config into dir via SetAttributes
// and Register, so prefer-attributes policies can resolve them
// immediately without waiting on a poll cycle.
func (c *StaticConfig) Seed(dir *Directory) {
	for _, n := range c.Nodes {
		if n.Addr != "" {
			dir.Register(n.ID, n.Addr)
		}
		dir.SetAttributes(n.ID, n.Attributes)
	}
}
