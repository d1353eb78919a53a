package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const baselineHeader = "code,name,wbs,level,due,effort,predecessors,successors\n"

// writeStore creates a store directory with one snapshot and optional
// annotation files.
func writeStore(t *testing.T, snapshotName, baseline string, annotations map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "pmcs"), 0755); err != nil {
		t.Fatalf("mkdir pmcs: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pmcs", snapshotName), []byte(baseline), 0644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	if len(annotations) > 0 {
		if err := os.MkdirAll(filepath.Join(dir, "local"), 0755); err != nil {
			t.Fatalf("mkdir local: %v", err)
		}
		for name, content := range annotations {
			if err := os.WriteFile(filepath.Join(dir, "local", name), []byte(content), 0644); err != nil {
				t.Fatalf("write annotation %s: %v", name, err)
			}
		}
	}
	return dir
}

func TestLoad_MissingDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("expected error for missing store dir")
	}
	if !strings.Contains(err.Error(), "milestone store not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_NoSnapshot(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("expected error for store without snapshot")
	}
}

func TestLoad_Baseline(t *testing.T) {
	baseline := baselineHeader +
		"DM-AP-02,Alert pipeline prototype,02C.03.01,2,2026-05-15,4.0,DM-AP-01,\n" +
		"DM-AP-01,Alert format defined,02C.03.00,3,2026-02-01,1.5,,DM-AP-02\n"
	dir := writeStore(t, "202606-ME.csv", baseline, nil)

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(s.Milestones) != 2 {
		t.Fatalf("expected 2 milestones, got %d", len(s.Milestones))
	}
	// Milestones are sorted by code.
	if s.Milestones[0].Code != "DM-AP-01" || s.Milestones[1].Code != "DM-AP-02" {
		t.Errorf("unexpected order: %s, %s", s.Milestones[0].Code, s.Milestones[1].Code)
	}

	ms := s.Get("DM-AP-02")
	if ms == nil {
		t.Fatal("Get(DM-AP-02) returned nil")
	}
	if ms.WBS != "02C.03.01" || ms.Level != 2 || ms.Effort != 4.0 {
		t.Errorf("unexpected record: %+v", ms)
	}
	if len(ms.Predecessors) != 1 || ms.Predecessors[0] != "DM-AP-01" {
		t.Errorf("unexpected predecessors: %v", ms.Predecessors)
	}
	if want := time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC); !ms.Due.Equal(want) {
		t.Errorf("expected due %v, got %v", want, ms.Due)
	}

	if want := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC); !s.AsOf().Equal(want) {
		t.Errorf("expected as-of %v, got %v", want, s.AsOf())
	}
}

func TestLoad_LatestSnapshotWins(t *testing.T) {
	dir := writeStore(t, "202512-ME.csv",
		baselineHeader+"OLD-01,Old,02C.01.00,1,2025-01-01,1,,\n", nil)
	newer := baselineHeader + "NEW-01,New,02C.01.00,1,2026-01-01,1,,\n"
	if err := os.WriteFile(filepath.Join(dir, "pmcs", "202601-ME.csv"), []byte(newer), 0644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Get("NEW-01") == nil || s.Get("OLD-01") != nil {
		t.Errorf("expected only the 202601 snapshot to be loaded, got %v", s.Milestones)
	}
}

func TestLoad_MalformedRowsSkipped(t *testing.T) {
	baseline := baselineHeader +
		"DM-OK-01,Fine,02C.01.00,1,2026-01-01,1.0,,\n" +
		"DM-BAD-1,Bad level,02C.01.00,one,2026-01-01,1.0,,\n" +
		"DM-BAD-2,Bad due,02C.01.00,1,someday,1.0,,\n" +
		",No code,02C.01.00,1,2026-01-01,1.0,,\n" +
		"DM-BAD-3,No WBS,,1,2026-01-01,1.0,,\n"
	dir := writeStore(t, "202606-ME.csv", baseline, nil)

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Milestones) != 1 {
		t.Fatalf("expected 1 milestone, got %d", len(s.Milestones))
	}
	if len(s.Warnings) != 4 {
		t.Errorf("expected 4 warnings, got %d: %v", len(s.Warnings), s.Warnings)
	}
}

func TestLoad_MissingDueIsLegal(t *testing.T) {
	baseline := baselineHeader + "DM-ND-01,No date yet,02C.02.00,2,,2.0,,\n"
	dir := writeStore(t, "202606-ME.csv", baseline, nil)

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ms := s.Get("DM-ND-01")
	if ms == nil {
		t.Fatal("milestone without due date should be loaded")
	}
	if !ms.Due.IsZero() {
		t.Errorf("expected zero due date, got %v", ms.Due)
	}
	if len(s.Warnings) != 0 {
		t.Errorf("missing due date should not warn at load time: %v", s.Warnings)
	}
}

func TestLoad_Annotations(t *testing.T) {
	baseline := baselineHeader +
		"DM-AP-01,Alert format defined,02C.03.00,3,2026-02-01,1.5,,\n" +
		"DM-AP-02,Alert pipeline prototype,02C.03.01,2,2026-05-15,4.0,,\n"
	annotations := map[string]string{
		"alerts.yaml": `DM-AP-01:
  completed: 2026-01-20
  description: Schema agreed with the broker teams.
  jira: DM-1234
DM-GHOST:
  completed: 2026-01-01
`,
	}
	dir := writeStore(t, "202606-ME.csv", baseline, annotations)

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ms := s.Get("DM-AP-01")
	if !ms.IsCompleted() {
		t.Fatal("DM-AP-01 should be completed")
	}
	if want := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC); !ms.Completed.Equal(want) {
		t.Errorf("expected completed %v, got %v", want, ms.Completed)
	}
	if ms.Jira != "DM-1234" || ms.Description == "" {
		t.Errorf("annotation not applied: %+v", ms)
	}

	if s.Get("DM-AP-02").IsCompleted() {
		t.Error("DM-AP-02 should be pending")
	}

	// The unknown-code annotation is a warning, not an error.
	if len(s.Warnings) != 1 || !strings.Contains(s.Warnings[0], "DM-GHOST") {
		t.Errorf("expected one unknown-code warning, got %v", s.Warnings)
	}
}

func TestMilestone_IsOverdue(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	done := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		ms      Milestone
		overdue bool
	}{
		{"past due, pending", Milestone{Due: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}, true},
		{"past due, completed", Milestone{Due: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Completed: &done}, false},
		{"future due", Milestone{Due: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)}, false},
		{"no due date", Milestone{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ms.IsOverdue(asOf); got != tt.overdue {
				t.Errorf("IsOverdue = %v, want %v", got, tt.overdue)
			}
		})
	}
}

func TestStore_WithPrefixAndSubWBS(t *testing.T) {
	baseline := baselineHeader +
		"A-01,A,02C.03.01,1,2026-01-01,1,,\n" +
		"B-01,B,02C.04.00,1,2026-01-01,1,,\n" +
		"C-01,C,02C.04.02,1,2026-01-01,1,,\n" +
		"D-01,D,05X.01.00,1,2026-01-01,1,,\n"
	dir := writeStore(t, "202606-ME.csv", baseline, nil)

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := len(s.WithPrefix("02C.04")); got != 2 {
		t.Errorf("expected 2 milestones under 02C.04, got %d", got)
	}
	if got := len(s.WithPrefix("02C")); got != 3 {
		t.Errorf("expected 3 milestones under 02C, got %d", got)
	}

	subs := s.SubWBSCodes("02C")
	want := []string{"02C.03", "02C.04"}
	if len(subs) != len(want) || subs[0] != want[0] || subs[1] != want[1] {
		t.Errorf("expected sub-WBS %v, got %v", want, subs)
	}
}
