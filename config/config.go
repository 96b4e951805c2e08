// Package config loads the YAML experiment configuration: datacenter
// topology, scheduling cadence, and policy selection. Grounded on
// cmd/default_config.go's yaml.v3 + KnownFields(true) strict-decode
// pattern.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HostSpec describes one host to build.
type HostSpec struct {
	ID               int       `yaml:"id"`
	NominalMipsPerPE []float64 `yaml:"mips_per_pe"`
	RAM              float64   `yaml:"ram"`
	BW               float64   `yaml:"bw"`
	VMScheduler      string    `yaml:"vm_scheduler"`
	PowerModel       string    `yaml:"power_model"`
}

// AllocationSpec selects and tunes the allocation policy.
type AllocationSpec struct {
	Policy           string `yaml:"policy"` // "simple" or "migration"
	OverloadDetector string `yaml:"overload_detector"`
	VmSelection      string `yaml:"vm_selection"`
}

// VMSpec describes one VM in the broker's fixed fleet, created at
// simulation start.
type VMSpec struct {
	ID              int     `yaml:"id"`
	OwnerID         int     `yaml:"owner_id"`
	MipsPerPE       float64 `yaml:"mips_per_pe"`
	NumPEs          int     `yaml:"num_pes"`
	RAM             float64 `yaml:"ram"`
	BW              float64 `yaml:"bw"`
	ImageSize       float64 `yaml:"image_size"`
}

// WorkloadSpec points at a trace file and its format.
type WorkloadSpec struct {
	Format string  `yaml:"format"` // "swf" or "planetlab"
	Path   string  `yaml:"path"`
	Rating float64 `yaml:"rating"`
}

// Config is the full experiment configuration, decoded with
// KnownFields(true) so a typo'd key fails fast instead of silently using
// a zero value (matching cmd/default_config.go's R10 strict-parsing
// rationale).
type Config struct {
	ExperimentName     string  `yaml:"experiment_name"`
	SchedulingInterval float64 `yaml:"scheduling_interval"`
	MinEventGap        float64 `yaml:"min_event_gap"`
	// Oversubscribe is a pointer so an omitted key can be told apart from
	// an explicit `oversubscribe: false` — spec.md §6 defaults this to
	// true, and a bare bool's false zero value would silently flip that
	// default for anyone who leaves the key out.
	Oversubscribe     *bool          `yaml:"oversubscribe"`
	SimulationLimit   float64        `yaml:"simulation_limit"`
	DisableMigrations bool           `yaml:"disable_migrations"`
	Seed              int64          `yaml:"seed"`
	Hosts             []HostSpec     `yaml:"hosts"`
	VMs               []VMSpec       `yaml:"vms"`
	Allocation        AllocationSpec `yaml:"allocation"`
	Workload          WorkloadSpec   `yaml:"workload"`
	ReportPath        string         `yaml:"report_path"`
	TraceLevel        string         `yaml:"trace_level"`
}

// Load reads and strictly decodes a Config from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SchedulingInterval <= 0 {
		c.SchedulingInterval = 300
	}
	if c.MinEventGap <= 0 {
		c.MinEventGap = 1e-9
	}
	if c.SimulationLimit <= 0 {
		c.SimulationLimit = -1
	}
	if c.ReportPath == "" {
		c.ReportPath = "report.csv"
	}
	if c.Oversubscribe == nil {
		def := true
		c.Oversubscribe = &def
	}
}

// OversubscribeEnabled reports the effective oversubscribe setting. Safe to
// call only after Load (or applyDefaults) has run, which guarantees
// Oversubscribe is non-nil.
func (c *Config) OversubscribeEnabled() bool { return *c.Oversubscribe }
