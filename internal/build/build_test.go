package build

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func TestTarget_Stale(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.png")
	pre := filepath.Join(dir, "data.csv")

	now := time.Now()
	touch(t, pre, now.Add(-time.Hour))

	tgt := &Target{Name: "t", Outputs: []string{out}, Prereqs: []string{pre}}

	// Missing output is stale.
	stale, err := tgt.Stale()
	if err != nil || !stale {
		t.Errorf("missing output: stale=%v err=%v, want true", stale, err)
	}

	// Output newer than prereq is fresh.
	touch(t, out, now)
	stale, err = tgt.Stale()
	if err != nil || stale {
		t.Errorf("fresh output: stale=%v err=%v, want false", stale, err)
	}

	// Prereq newer than output is stale.
	touch(t, pre, now.Add(time.Hour))
	stale, err = tgt.Stale()
	if err != nil || !stale {
		t.Errorf("stale output: stale=%v err=%v, want true", stale, err)
	}
}

func TestTarget_PhonyAlwaysStale(t *testing.T) {
	tgt := &Target{Name: "site"}
	stale, err := tgt.Stale()
	if err != nil || !stale {
		t.Errorf("phony target should always be stale, got %v, %v", stale, err)
	}
}

func TestRunner_RunsStaleOnly(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	pre := filepath.Join(dir, "in.txt")
	touch(t, pre, time.Now().Add(-time.Hour))
	touch(t, out, time.Now())

	runs := 0
	r := NewRunner()
	r.Log = io.Discard
	if err := r.Add(&Target{
		Name:    "fresh",
		Outputs: []string{out},
		Prereqs: []string{pre},
		Run:     func() error { runs++; return nil },
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := r.Run(nil, false); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if runs != 0 {
		t.Errorf("fresh target ran %d times, want 0", runs)
	}

	if err := r.Run(nil, true); err != nil {
		t.Fatalf("Run force: %v", err)
	}
	if runs != 1 {
		t.Errorf("forced run count = %d, want 1", runs)
	}
}

func TestRunner_AfterOrdering(t *testing.T) {
	var order []string
	r := NewRunner()
	r.Log = io.Discard
	r.Add(&Target{Name: "index", Run: func() error { order = append(order, "index"); return nil }})
	r.Add(&Target{
		Name:  "site",
		After: []string{"index"},
		Run:   func() error { order = append(order, "site"); return nil },
	})

	if err := r.Run([]string{"site"}, false); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(order) != 2 || order[0] != "index" || order[1] != "site" {
		t.Errorf("unexpected run order %v", order)
	}
}

func TestRunner_UnknownTarget(t *testing.T) {
	r := NewRunner()
	r.Log = io.Discard
	r.Add(&Target{Name: "index", Run: func() error { return nil }})

	err := r.Run([]string{"nope"}, false)
	if err == nil || !strings.Contains(err.Error(), "unknown target nope") {
		t.Errorf("expected unknown-target error, got %v", err)
	}
}

func TestRunner_FailurePropagates(t *testing.T) {
	r := NewRunner()
	r.Log = io.Discard
	r.Add(&Target{Name: "boom", Run: func() error { return os.ErrPermission }})

	err := r.Run(nil, false)
	if err == nil || !strings.Contains(err.Error(), "target boom") {
		t.Errorf("expected wrapped target error, got %v", err)
	}
}

func TestCommand_FailureIncludesStderr(t *testing.T) {
	err := Command("sh -c", "echo oops >&2; exit 3")
	if err == nil {
		t.Fatal("expected command failure")
	}
	if !strings.Contains(err.Error(), "oops") {
		t.Errorf("error should carry the tool's stderr, got %v", err)
	}
}

func TestCommand_Success(t *testing.T) {
	if err := Command("true"); err != nil {
		t.Errorf("true should succeed, got %v", err)
	}
}

func TestLookTool(t *testing.T) {
	if err := LookTool("sh -c foo"); err != nil {
		t.Errorf("sh should be found, got %v", err)
	}
	if err := LookTool("definitely-not-a-real-tool-xyz"); err == nil {
		t.Error("expected missing-tool error")
	}
}
