package workload

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestParseSWFSkipsCommentsAndBlankLines(t *testing.T) {
	dir := t.TempDir()
	content := "; this is a comment\n\n1 0 0 100 5 1 1 1 1 1 1 1 1 1\n2 50 0 200 10 1 1 1 1 1 1 1 1 1\n"
	path := writeFile(t, dir, "trace.swf", content)

	jobs, err := ParseSWF(path)
	if err != nil {
		t.Fatalf("ParseSWF: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2", len(jobs))
	}
	if jobs[0].JobID != 1 || jobs[0].RunTime != 100 || jobs[0].NumProcs != 5 {
		t.Fatalf("jobs[0] = %+v, unexpected", jobs[0])
	}
	if jobs[1].SubmitTime != 50 {
		t.Fatalf("jobs[1].SubmitTime = %v, want 50", jobs[1].SubmitTime)
	}
}

func TestParseSWFDiscardsNonPositiveRuntimeOrProcs(t *testing.T) {
	dir := t.TempDir()
	content := "1 0 0 0 5 1 1 1 1 1 1 1 1 1\n2 0 0 100 0 1 1 1 1 1 1 1 1 1\n3 0 0 100 2 1 1 1 1 1 1 1 1\n"
	path := writeFile(t, dir, "trace.swf", content)

	jobs, err := ParseSWF(path)
	if err != nil {
		t.Fatalf("ParseSWF: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d, want 1 (only job 3 has positive runtime and procs)", len(jobs))
	}
	if jobs[0].JobID != 3 {
		t.Fatalf("surviving job id = %d, want 3", jobs[0].JobID)
	}
}

func TestParseSWFHandlesGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.swf.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte("1 0 0 100 5 1 1 1 1 1 1 1 1 1\n")); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	gz.Close()
	f.Close()

	jobs, err := ParseSWF(path)
	if err != nil {
		t.Fatalf("ParseSWF (gzip): %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d, want 1", len(jobs))
	}
}

func TestParseSWFRejectsTooFewColumns(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "trace.swf", "1 0 0\n")
	if _, err := ParseSWF(path); err == nil {
		t.Fatal("expected an error for a line with too few columns")
	}
}

func TestCloudletLengthMI(t *testing.T) {
	j := SWFJob{RunTime: 10}
	if got := j.CloudletLengthMI(1000); got != 10000 {
		t.Fatalf("CloudletLengthMI = %v, want 10000", got)
	}
}
