package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dcsim.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "experiment_name: test\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SchedulingInterval != 300 {
		t.Fatalf("SchedulingInterval = %v, want default 300", cfg.SchedulingInterval)
	}
	if cfg.MinEventGap != 1e-9 {
		t.Fatalf("MinEventGap = %v, want default 1e-9", cfg.MinEventGap)
	}
	if cfg.SimulationLimit != -1 {
		t.Fatalf("SimulationLimit = %v, want default -1 (unbounded)", cfg.SimulationLimit)
	}
	if cfg.ReportPath != "report.csv" {
		t.Fatalf("ReportPath = %q, want default \"report.csv\"", cfg.ReportPath)
	}
}

func TestLoadPreservesExplicitValues(t *testing.T) {
	path := writeConfig(t, "scheduling_interval: 60\nreport_path: out.csv\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SchedulingInterval != 60 {
		t.Fatalf("SchedulingInterval = %v, want 60", cfg.SchedulingInterval)
	}
	if cfg.ReportPath != "out.csv" {
		t.Fatalf("ReportPath = %q, want \"out.csv\"", cfg.ReportPath)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "experiment_name: test\nbogus_field: 1\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown top-level field under strict decoding")
	}
}

func TestLoadParsesHostsAndVMs(t *testing.T) {
	path := writeConfig(t, `
experiment_name: test
hosts:
  - id: 1
    mips_per_pe: [1000, 1000]
    ram: 4096
    bw: 1000
    vm_scheduler: time-shared
    power_model: hp-proliant-g4
vms:
  - id: 1
    owner_id: 1
    mips_per_pe: 500
    num_pes: 1
    ram: 512
    bw: 100
    image_size: 1000
allocation:
  policy: migration
  overload_detector: mad
  vm_selection: max-correlation
workload:
  format: swf
  path: trace.swf
  rating: 1000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Hosts) != 1 || cfg.Hosts[0].RAM != 4096 {
		t.Fatalf("Hosts = %+v, unexpected", cfg.Hosts)
	}
	if len(cfg.VMs) != 1 || cfg.VMs[0].MipsPerPE != 500 {
		t.Fatalf("VMs = %+v, unexpected", cfg.VMs)
	}
	if cfg.Allocation.Policy != "migration" || cfg.Allocation.OverloadDetector != "mad" {
		t.Fatalf("Allocation = %+v, unexpected", cfg.Allocation)
	}
	if cfg.Workload.Format != "swf" || cfg.Workload.Rating != 1000 {
		t.Fatalf("Workload = %+v, unexpected", cfg.Workload)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
