/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config loads the YAML pipeline description that selects which
// observers run, in what order, and with what per-observer options.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NodeConfig describes one DAG node to build: which observer to
// instantiate, and which already-declared nodes (by name) feed it.
type NodeConfig struct {
	Name     string                 `yaml:"name"`
	Observer string                 `yaml:"observer"`
	Inputs   []string               `yaml:"inputs,omitempty"`
	Options  map[string]interface{} `yaml:"options,omitempty"`
}

// Pipeline is the top-level pipeline description.
type Pipeline struct {
	// System names a video system. It is parsed but not read:
	// coordinator.Run always resolves unknown systems by auto-detection.
	System string `yaml:"system,omitempty"`

	// HistoryWindow bounds how many fields of observer.History
	// stay visible; 0 means unbounded within the run.
	HistoryWindow uint64 `yaml:"history_window,omitempty"`

	Nodes []NodeConfig `yaml:"nodes"`

	// LogLevel names a logging verbosity, e.g. "debug", "info",
	// "warning", "error". It is parsed but not read: cmd/orc always logs
	// at Info.
	LogLevel string `yaml:"log_level,omitempty"`

	// LogFile names a log file. It is parsed but not read: cmd/orc logs
	// to its --log file and stderr.
	LogFile string `yaml:"log_file,omitempty"`
}

// Load reads and parses a Pipeline from path.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &p, nil
}

// Validate checks internal consistency: every node name is unique and
// every input refers to an earlier-declared node.
func (p *Pipeline) Validate() error {
	seen := make(map[string]bool, len(p.Nodes))
	for _, n := range p.Nodes {
		if n.Name == "" {
			return fmt.Errorf("node with empty name")
		}
		if seen[n.Name] {
			return fmt.Errorf("duplicate node name %q", n.Name)
		}
		for _, in := range n.Inputs {
			if !seen[in] {
				return fmt.Errorf("node %q depends on %q, which is not declared before it", n.Name, in)
			}
		}
		seen[n.Name] = true
	}
	return nil
}
