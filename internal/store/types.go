package store

import "time"

// Milestone is a single milestone record from the project controls baseline,
// possibly enriched by a local annotation.
type Milestone struct {
	// Code is the unique milestone identifier (e.g. "DM-AP-01").
	Code string `yaml:"code" json:"code"`
	// Name is the human-readable milestone title.
	Name string `yaml:"name" json:"name"`
	// WBS is the work breakdown structure code (e.g. "02C.03.01").
	WBS string `yaml:"wbs" json:"wbs"`
	// Level is the milestone level (1-4); 0 means undefined.
	Level int `yaml:"level,omitempty" json:"level,omitempty"`
	// Due is the baseline due date. Zero when the baseline carries no date.
	Due time.Time `yaml:"due,omitempty" json:"due,omitempty"`
	// Effort is the remaining effort estimate in the baseline's unit.
	Effort float64 `yaml:"effort,omitempty" json:"effort,omitempty"`
	// Predecessors and Successors hold related milestone codes as declared
	// in the baseline.
	Predecessors []string `yaml:"predecessors,omitempty" json:"predecessors,omitempty"`
	Successors   []string `yaml:"successors,omitempty" json:"successors,omitempty"`

	// Annotation fields, overlaid from local/*.yaml.
	Completed    *time.Time `yaml:"completed,omitempty" json:"completed,omitempty"`
	Description  string     `yaml:"description,omitempty" json:"description,omitempty"`
	TestSpec     string     `yaml:"test_spec,omitempty" json:"test_spec,omitempty"`
	Jira         string     `yaml:"jira,omitempty" json:"jira,omitempty"`
	JiraTestplan string     `yaml:"jira_testplan,omitempty" json:"jira_testplan,omitempty"`
}

// IsCompleted reports whether a completion date has been recorded.
func (m *Milestone) IsCompleted() bool {
	return m.Completed != nil
}

// IsOverdue reports whether the milestone was due before asOf and is still
// incomplete. Milestones without a due date are never overdue.
func (m *Milestone) IsOverdue(asOf time.Time) bool {
	return !m.Due.IsZero() && m.Due.Before(asOf) && !m.IsCompleted()
}

// SubWBS returns the six-character sub-element of the WBS code
// (e.g. "02C.03" for "02C.03.01"), or the full code when shorter.
func (m *Milestone) SubWBS() string {
	if len(m.WBS) <= 6 {
		return m.WBS
	}
	return m.WBS[:6]
}

// Snapshot identifies the project controls baseline export the store was
// loaded from.
type Snapshot struct {
	// Path is the snapshot file path within the store.
	Path string
	// Month is the reporting month parsed from the file name.
	Month time.Time
}

// Provenance describes the version of the milestone store a report was
// derived from.
type Provenance struct {
	// SHA is the git commit of the store checkout; empty when the store is
	// not under version control.
	SHA string
	// CommitDate is the commit timestamp of SHA.
	CommitDate time.Time
	// SnapshotMonth is the reporting month of the baseline snapshot.
	SnapshotMonth time.Time
}
