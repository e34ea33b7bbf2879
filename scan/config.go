package scan

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sampling methods.
const (
	MethodLHS    = "lhs"
	MethodRandom = "random"
)

var validMethods = map[string]bool{
	MethodLHS:    true,
	MethodRandom: true,
}

// ScanSpec is the top-level scan configuration.
// Loaded from YAML via LoadScanSpec(path).
type ScanSpec struct {
	Version     string      `yaml:"version"`
	Objective   string      `yaml:"objective"`
	Method      string      `yaml:"method"`
	Samples     int         `yaml:"samples"`
	Seed        int64       `yaml:"seed"`
	Workers     int         `yaml:"workers,omitempty"`     // 0 = hardware default
	MaxWorkers  int         `yaml:"max_workers,omitempty"` // 0 = DefaultMaxWorkers
	Observables []string    `yaml:"observables,omitempty"` // empty = all
	Priors      []PriorSpec `yaml:"priors"`
}

// LoadScanSpec reads and parses a YAML scan specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadScanSpec(path string) (*ScanSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scan spec: %w", err)
	}
	return ParseScanSpec(data)
}

// ParseScanSpec parses YAML scan specification bytes with strict field checking.
func ParseScanSpec(data []byte) (*ScanSpec, error) {
	var spec ScanSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing scan spec: %w", err)
	}
	spec.applyDefaults()
	return &spec, nil
}

// applyDefaults fills in the version and the LHS sampling method.
func (s *ScanSpec) applyDefaults() {
	if s.Version == "" {
		s.Version = "1"
	}
	if s.Method == "" {
		s.Method = MethodLHS
	}
}

// Save writes the spec as YAML.
func (s *ScanSpec) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling scan spec: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing scan spec: %w", err)
	}
	return nil
}

// Validate fills in defaults for omitted fields, then checks that all
// fields in the spec are valid.
func (s *ScanSpec) Validate() error {
	s.applyDefaults()
	if s.Objective == "" {
		return fmt.Errorf("objective is required")
	}
	if !validMethods[s.Method] {
		return fmt.Errorf("unknown sampling method %q; valid: lhs, random", s.Method)
	}
	if s.Samples < 1 {
		return fmt.Errorf("samples must be >= 1, got %d", s.Samples)
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", s.Workers)
	}
	if s.MaxWorkers < 0 {
		return fmt.Errorf("max_workers must be >= 0, got %d", s.MaxWorkers)
	}
	return ValidatePriors(s.Priors)
}
