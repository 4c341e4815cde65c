package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/taskflow/dag"
	"github.com/kbukum/taskflow/errors"
)

func sampleSummary(runID string) *dag.Summary {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := dag.Summarize(map[string]dag.TaskResult{
		"build.sh": {
			Name: "build.sh", Status: dag.StatusSuccess, Attempts: 1,
			StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond), Duration: 1500 * time.Millisecond,
		},
		"test.py": {
			Name: "test.py", Status: dag.StatusFailed, Attempts: 3,
			StartedAt: start.Add(2 * time.Second), FinishedAt: start.Add(3 * time.Second), Duration: time.Second,
			Error: "python3 test.py exited with status 1\nmore detail",
		},
		"ghost.sh": {Name: "ghost.sh", Status: dag.StatusNotFound, Error: "task not found"},
	})
	s.RunID = runID
	return &s
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sampleSummary("r1"), TableOptions{NoColor: true, ShowErrors: true}); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	if lines[0] != "Build Dashboard" {
		t.Errorf("title = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Task") || !strings.Contains(lines[1], "Attempts") {
		t.Errorf("header = %q", lines[1])
	}
	// rows are in name order
	for i, want := range []string{"build.sh", "ghost.sh", "test.py"} {
		if !strings.HasPrefix(lines[3+i], want) {
			t.Errorf("row %d = %q, want prefix %q", i, lines[3+i], want)
		}
	}
	if !strings.Contains(lines[3], "1.50s") {
		t.Errorf("build row = %q", lines[3])
	}
	if !strings.Contains(lines[4], "N/A") {
		t.Errorf("ghost row = %q", lines[4])
	}
	if strings.Contains(out, "more detail") {
		t.Error("only the first error line should be shown")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("NoColor output contains escape codes")
	}
	if !strings.Contains(lines[len(lines)-1], "3 scheduled, 1 succeeded, 1 failed, 1 not found") {
		t.Errorf("totals = %q", lines[len(lines)-1])
	}

	statusCol := strings.Index(lines[1], "Status")
	for _, row := range lines[3:6] {
		if row[statusCol-2:statusCol] != "  " {
			t.Errorf("misaligned row %q", row)
		}
	}
}

func TestWriteTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	s := dag.Summarize(nil)
	if err := WriteTable(&buf, &s, TableOptions{Title: "Nothing", NoColor: true}); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Nothing\n") || !strings.Contains(buf.String(), "0 scheduled") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestExportAndLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dashboard.json")
	want := sampleSummary("run-1")

	if err := ExportJSON(path, want); err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"duration_sec"`)) || !bytes.Contains(data, []byte(`"run_id": "run-1"`)) {
		t.Errorf("unexpected dashboard content:\n%s", data)
	}

	got, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if got.RunID != "run-1" || got.Failed != 1 || len(got.Results) != 3 {
		t.Errorf("loaded = %+v", got)
	}
	if got.Results["build.sh"].Duration != 1500*time.Millisecond {
		t.Errorf("duration = %v", got.Results["build.sh"].Duration)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestLoadJSONMissing(t *testing.T) {
	_, err := LoadJSON(filepath.Join(t.TempDir(), "none.json"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestClearLogs(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "build.log")
	if err := os.WriteFile(logFile, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "dashboard.json")

	removed, err := ClearLogs(logFile, missing)
	if err != nil {
		t.Fatalf("ClearLogs failed: %v", err)
	}
	if len(removed) != 1 || removed[0] != logFile {
		t.Errorf("removed = %v", removed)
	}
	if _, err := os.Stat(logFile); !os.IsNotExist(err) {
		t.Error("log file still exists")
	}

	removed, err = ClearLogs(logFile)
	if err != nil || len(removed) != 0 {
		t.Errorf("second clear = %v, %v", removed, err)
	}
}

func TestStore(t *testing.T) {
	st := NewStore(2)
	if _, err := st.Latest(); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("empty store Latest = %v", err)
	}

	st.Add(sampleSummary("a"))
	st.Add(sampleSummary("b"))
	st.Add(sampleSummary("c"))
	st.Add(nil)

	if st.Len() != 2 {
		t.Fatalf("len = %d, want 2", st.Len())
	}
	if _, err := st.Get("a"); !errors.Is(err, errors.ErrNotFound) {
		t.Error("oldest run should have been evicted")
	}
	latest, err := st.Latest()
	if err != nil || latest.RunID != "c" {
		t.Errorf("latest = %v, %v", latest, err)
	}

	st.Add(sampleSummary("b"))
	var ids []string
	for _, s := range st.List() {
		ids = append(ids, s.RunID)
	}
	if strings.Join(ids, ",") != "b,c" {
		t.Errorf("list = %v, want [b c]", ids)
	}
}
