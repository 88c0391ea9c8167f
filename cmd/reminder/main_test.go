package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMatchCommand(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "medicines.yaml")
	err := os.WriteFile(file, []byte(`
- id: aspirin
  name: Aspirin
  days: [Monday]
  times: ["08:00"]
`), 0o644)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("DATA_DIR", dir)
	t.Setenv("SCHEDULES_FILE", file)
	t.Setenv("LOG_LEVEL", "error")

	run := func(at string) string {
		var out bytes.Buffer
		root := newRootCmd()
		root.SetOut(&out)
		root.SetArgs([]string{"match", "--at", at})
		if err := root.Execute(); err != nil {
			t.Fatalf("match --at %s: %v", at, err)
		}
		return out.String()
	}

	// 2024-01-01 is a Monday.
	if got := run("2024-01-01T08:00:00" + offset()); !strings.Contains(got, "aspirin\tAspirin") {
		t.Errorf("08:00 output = %q, want aspirin due", got)
	}
	if got := run("2024-01-01T08:01:00" + offset()); !strings.Contains(got, "nothing due") {
		t.Errorf("08:01 output = %q, want nothing due", got)
	}
}

func TestMatchCommandRejectsBadTime(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"match", "--at", "tomorrow"})
	if err := root.Execute(); err == nil {
		t.Error("expected error for a bad --at value")
	}
}

// offset renders the local zone offset on 2024-01-01 so the test evaluates
// wall-clock 08:00 in whatever zone it runs in.
func offset() string {
	return time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local).Format("-07:00")
}
