package workload

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/poweraware/dcsim/cloudlet"
)

// PlanetLabSampleInterval is the fixed spacing between samples in a
// PlanetLab CPU-utilisation trace file (SPEC_FULL.md §6.3): 300 seconds.
const PlanetLabSampleInterval = 300.0

// PlanetLabSamplesPerDay is the expected sample count per trace file (one
// day at PlanetLabSampleInterval spacing): 288.
const PlanetLabSamplesPerDay = 288

// PlanetLabTrace holds one VM's CPU-utilisation samples, one file per VM
// named by the VM's original id.
type PlanetLabTrace struct {
	VMName  string
	Samples []float64 // fraction 0..1, one per PlanetLabSampleInterval
}

// ParsePlanetLabDay reads every file in dir (one file per VM, one sample
// per line, a day's worth at PlanetLabSampleInterval spacing) and returns
// one PlanetLabTrace per file.
func ParsePlanetLabDay(dir string) ([]PlanetLabTrace, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading PlanetLab directory %s: %w", dir, err)
	}
	var traces []PlanetLabTrace
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		samples, err := parsePlanetLabFile(path)
		if err != nil {
			return nil, err
		}
		traces = append(traces, PlanetLabTrace{VMName: entry.Name(), Samples: samples})
	}
	return traces, nil
}

func parsePlanetLabFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PlanetLab trace %s: %w", path, err)
	}
	defer f.Close()

	var samples []float64
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("PlanetLab %s line %d: invalid sample %q: %w", path, lineNo, line, err)
		}
		samples = append(samples, v/100.0) // trace values are percentages
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning PlanetLab trace %s: %w", path, err)
	}
	return samples, nil
}

// UtilizationModel builds a cloudlet.UtilizationModel that looks up the
// sample for whichever PlanetLabSampleInterval bucket `now` falls in,
// holding the last sample steady past the end of the trace.
func (t PlanetLabTrace) UtilizationModel() cloudlet.UtilizationModel {
	samples := t.Samples
	return func(now float64) float64 {
		if len(samples) == 0 {
			return 0
		}
		idx := int(now / PlanetLabSampleInterval)
		if idx < 0 {
			idx = 0
		}
		if idx >= len(samples) {
			idx = len(samples) - 1
		}
		return samples[idx]
	}
}
