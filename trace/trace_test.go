package trace

import "testing"

func TestIsValidLevel(t *testing.T) {
	cases := map[string]bool{"": true, "none": true, "decisions": true, "bogus": false}
	for in, want := range cases {
		if got := IsValidLevel(in); got != want {
			t.Errorf("IsValidLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNilTraceAbsorbsRecordsWithoutPanicking(t *testing.T) {
	var tr *PlacementTrace
	tr.RecordPlacement(PlacementRecord{VMID: 1})
	tr.RecordMigration(MigrationRecord{VMID: 1})
}

func TestLevelNoneDoesNotRecord(t *testing.T) {
	tr := New(LevelNone)
	tr.RecordPlacement(PlacementRecord{VMID: 1})
	if len(tr.Placements) != 0 {
		t.Fatalf("expected no placements recorded at LevelNone, got %d", len(tr.Placements))
	}
}

func TestLevelDecisionsRecordsPlacementsAndMigrations(t *testing.T) {
	tr := New(LevelDecisions)
	tr.RecordPlacement(PlacementRecord{Time: 1, VMID: 1, HostID: 2, Reason: "vm-create"})
	tr.RecordMigration(MigrationRecord{Time: 2, VMID: 1, FromHost: 2, ToHost: 3})

	if len(tr.Placements) != 1 || tr.Placements[0].HostID != 2 {
		t.Fatalf("Placements = %+v, unexpected", tr.Placements)
	}
	if len(tr.Migrations) != 1 || tr.Migrations[0].ToHost != 3 {
		t.Fatalf("Migrations = %+v, unexpected", tr.Migrations)
	}
}
