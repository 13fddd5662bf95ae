package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/facility-sim/facility-sim/sim"
	"github.com/facility-sim/facility-sim/sim/replication"
	"github.com/facility-sim/facility-sim/sim/workload"
)

// ReplicationDefaults is the `replication` section of defaults.yaml.
type ReplicationDefaults struct {
	Initial    int     `yaml:"initial"`
	Max        int     `yaml:"max"`
	Precision  float64 `yaml:"precision"`
	Confidence float64 `yaml:"confidence"`
	BaseSeed   int64   `yaml:"base_seed"`
}

// Config represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Version            string              `yaml:"version"`
	Rates              workload.Rates      `yaml:"rates"`
	ComponentsPerQueue int                 `yaml:"components_per_queue"`
	WarmupMinutes      float64             `yaml:"warmup_minutes"`
	Policy             string              `yaml:"policy"`
	Replication        ReplicationDefaults `yaml:"replication"`
}

// builtinDefaults mirrors the shipped defaults.yaml and is used when no
// defaults file is present.
func builtinDefaults() Config {
	rc := replication.DefaultConfig()
	return Config{
		Version:            "1",
		Rates:              rc.Workload.Rates,
		ComponentsPerQueue: rc.Workload.ComponentsPerQueue,
		WarmupMinutes:      rc.WarmupMinutes,
		Policy:             string(rc.Policy),
		Replication: ReplicationDefaults{
			Initial:    rc.InitialReplications,
			Max:        rc.MaxReplications,
			Precision:  rc.Precision,
			Confidence: rc.Confidence,
			BaseSeed:   rc.BaseSeed,
		},
	}
}

// loadDefaultsConfig parses the defaults file at path with strict field
// checking. Sections missing from the file keep their built-in values.
func loadDefaultsConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read defaults file: %w", err)
	}
	cfg := builtinDefaults()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse defaults file %s: %w", path, err)
	}
	return cfg, nil
}

// ReplicationConfig converts the file values into a study configuration.
func (c Config) ReplicationConfig() replication.Config {
	return replication.Config{
		Workload: workload.Config{
			Rates:              c.Rates,
			ComponentsPerQueue: c.ComponentsPerQueue,
		},
		WarmupMinutes:       c.WarmupMinutes,
		InitialReplications: c.Replication.Initial,
		MaxReplications:     c.Replication.Max,
		Precision:           c.Replication.Precision,
		Confidence:          c.Replication.Confidence,
		BaseSeed:            c.Replication.BaseSeed,
		Policy:              sim.DispatchPolicy(c.Policy),
	}
}
