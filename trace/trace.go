// Package trace implements an optional, zero-overhead-when-disabled
// recorder of placement and migration decisions. Grounded on
// sim/trace/trace.go's TraceLevel/SimulationTrace shape (level gate +
// append-only record slices).
package trace

import "github.com/poweraware/dcsim/host"

// Level controls trace verbosity.
type Level string

const (
	// LevelNone disables tracing; Record* calls are no-ops.
	LevelNone Level = "none"
	// LevelDecisions records every placement and migration decision.
	LevelDecisions Level = "decisions"
)

var validLevels = map[Level]bool{
	LevelNone:      true,
	LevelDecisions: true,
	"":             true,
}

// IsValidLevel reports whether level is a recognized trace level string.
func IsValidLevel(level string) bool { return validLevels[Level(level)] }

// PlacementRecord captures one VM_CREATE placement.
type PlacementRecord struct {
	Time   float64
	VMID   int
	HostID host.ID
	Reason string
}

// MigrationRecord captures one executed migration.
type MigrationRecord struct {
	Time     float64
	VMID     int
	FromHost host.ID
	ToHost   host.ID
}

// PlacementTrace collects decision records during a run. A nil
// *PlacementTrace, or one constructed with LevelNone, absorbs every Record
// call without allocating.
type PlacementTrace struct {
	Level       Level
	Placements  []PlacementRecord
	Migrations  []MigrationRecord
}

// New creates a PlacementTrace at the given level.
func New(level Level) *PlacementTrace {
	return &PlacementTrace{Level: level}
}

func (t *PlacementTrace) enabled() bool {
	return t != nil && t.Level == LevelDecisions
}

// RecordPlacement appends a placement decision, if tracing is enabled.
func (t *PlacementTrace) RecordPlacement(r PlacementRecord) {
	if !t.enabled() {
		return
	}
	t.Placements = append(t.Placements, r)
}

// RecordMigration appends a migration decision, if tracing is enabled.
func (t *PlacementTrace) RecordMigration(r MigrationRecord) {
	if !t.enabled() {
		return
	}
	t.Migrations = append(t.Migrations, r)
}
