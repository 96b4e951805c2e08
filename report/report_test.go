package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading csv %s: %v", path, err)
	}
	return rows
}

func TestWriteFileWritesHeaderAndRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	row := Row{ExperimentName: "exp1", SimulationTime: 100, EnergyWs: 5000, Migrations: 3, SLAViolationPct: 1.25, HostsSwitchedOffTicks: 10}

	if err := WriteFile(path, row); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	rows := readRows(t, path)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2 (header + 1 data row)", len(rows))
	}
	if rows[1][0] != "exp1" {
		t.Fatalf("rows[1][0] = %q, want \"exp1\"", rows[1][0])
	}
}

func TestWriteFileOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	WriteFile(path, Row{ExperimentName: "first"})
	WriteFile(path, Row{ExperimentName: "second"})

	rows := readRows(t, path)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2: WriteFile should overwrite, not append", len(rows))
	}
	if rows[1][0] != "second" {
		t.Fatalf("rows[1][0] = %q, want \"second\"", rows[1][0])
	}
}

func TestAppendFileWritesHeaderOnlyOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.csv")
	if err := AppendFile(path, Row{ExperimentName: "a"}); err != nil {
		t.Fatalf("AppendFile: %v", err)
	}
	if err := AppendFile(path, Row{ExperimentName: "b"}); err != nil {
		t.Fatalf("AppendFile: %v", err)
	}

	rows := readRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3 (1 header + 2 data rows)", len(rows))
	}
	if rows[0][0] != Header[0] {
		t.Fatalf("expected header row first, got %v", rows[0])
	}
	if rows[1][0] != "a" || rows[2][0] != "b" {
		t.Fatalf("unexpected data rows: %v", rows[1:])
	}
}
