// Package report writes the per-experiment summary metrics CSV row.
// Grounded on sim/workload/convert.go's encoding/csv usage, here for
// writing rather than reading.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Header is the fixed column order for the summary CSV (SPEC_FULL.md §7).
var Header = []string{
	"experiment_name",
	"simulation_time",
	"energy_Ws",
	"migrations",
	"sla_violation_pct",
	"hosts_switched_off_ticks",
}

// Row is one experiment's summary metrics.
type Row struct {
	ExperimentName        string
	SimulationTime        float64
	EnergyWs              float64
	Migrations            int
	SLAViolationPct       float64
	HostsSwitchedOffTicks int
}

func (r Row) strings() []string {
	return []string{
		r.ExperimentName,
		strconv.FormatFloat(r.SimulationTime, 'f', 3, 64),
		strconv.FormatFloat(r.EnergyWs, 'f', 3, 64),
		strconv.Itoa(r.Migrations),
		strconv.FormatFloat(r.SLAViolationPct, 'f', 4, 64),
		strconv.Itoa(r.HostsSwitchedOffTicks),
	}
}

// WriteFile writes a single-row CSV report (header + one data row) to path,
// overwriting any existing file.
func WriteFile(path string, row Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}
	if err := w.Write(row.strings()); err != nil {
		return fmt.Errorf("writing report row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// AppendFile appends row to an existing CSV report at path, writing the
// header first if the file doesn't yet exist — used when a single process
// runs a sweep of experiments into one shared report file.
func AppendFile(path string, row Row) error {
	_, statErr := os.Stat(path)
	needsHeader := statErr != nil

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening report %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needsHeader {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("writing report header: %w", err)
		}
	}
	if err := w.Write(row.strings()); err != nil {
		return fmt.Errorf("writing report row: %w", err)
	}
	w.Flush()
	return w.Error()
}
