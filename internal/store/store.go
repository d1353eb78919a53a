// Package store loads the read-only milestone store: a directory holding
// project controls baseline snapshots (pmcs/YYYYMM-ME.csv) plus local YAML
// annotations (local/*.yaml) overlaid by milestone code. Reporters never
// write to the store; every artifact is a pure function of its contents.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrStoreNotFound is returned when the store directory does not exist.
var ErrStoreNotFound = errors.New("milestone store not found")

// ErrNoSnapshot is returned when the store contains no baseline snapshot.
var ErrNoSnapshot = errors.New("no baseline snapshot in milestone store")

// snapshotSuffix is the naming convention for baseline exports: YYYYMM-ME.csv.
const snapshotSuffix = "-ME.csv"

const dateLayout = "2006-01-02"

// Store holds the milestones loaded from a store directory.
type Store struct {
	// Milestones are all well-formed records, ordered by code.
	Milestones []Milestone
	// Snapshot is the baseline export the records came from.
	Snapshot Snapshot
	// Warnings lists malformed rows and annotations that were skipped.
	Warnings []string

	dir string
}

// Load reads the milestone store at dir. Malformed individual records are
// skipped and reported in Warnings; a missing directory or missing snapshot
// is fatal.
func Load(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, dir)
		}
		return nil, fmt.Errorf("stat milestone store: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrStoreNotFound, dir)
	}

	snap, err := latestSnapshot(dir)
	if err != nil {
		return nil, err
	}

	s := &Store{Snapshot: snap, dir: dir}

	byCode, err := s.loadBaseline(snap.Path)
	if err != nil {
		return nil, err
	}
	if err := s.applyAnnotations(byCode); err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	s.Milestones = make([]Milestone, 0, len(codes))
	for _, code := range codes {
		s.Milestones = append(s.Milestones, *byCode[code])
	}

	return s, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Get returns the milestone with the given code, or nil.
func (s *Store) Get(code string) *Milestone {
	for i := range s.Milestones {
		if s.Milestones[i].Code == code {
			return &s.Milestones[i]
		}
	}
	return nil
}

// AsOf returns the reporting date all derived artifacts use as "now": the
// baseline snapshot month. Using the snapshot month instead of wall-clock
// time keeps report output byte-identical across reruns.
func (s *Store) AsOf() time.Time {
	return s.Snapshot.Month
}

// WithPrefix returns milestones whose WBS code starts with prefix.
func (s *Store) WithPrefix(prefix string) []Milestone {
	var out []Milestone
	for _, ms := range s.Milestones {
		if strings.HasPrefix(ms.WBS, prefix) {
			out = append(out, ms)
		}
	}
	return out
}

// SubWBSCodes returns the sorted set of six-character sub-WBS elements
// present under prefix.
func (s *Store) SubWBSCodes(prefix string) []string {
	seen := make(map[string]struct{})
	for _, ms := range s.Milestones {
		if strings.HasPrefix(ms.WBS, prefix) {
			seen[ms.SubWBS()] = struct{}{}
		}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// SourceFiles returns the store files that derived artifacts depend on:
// the baseline snapshot and every annotation file. Used by the build
// orchestrator for staleness checks.
func (s *Store) SourceFiles() []string {
	files := []string{s.Snapshot.Path}
	matches, err := filepath.Glob(filepath.Join(s.dir, "local", "*.yaml"))
	if err == nil {
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files
}

func (s *Store) warnf(format string, args ...interface{}) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// latestSnapshot finds the lexically latest pmcs/YYYYMM-ME.csv file. The
// naming convention sorts chronologically.
func latestSnapshot(dir string) (Snapshot, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "pmcs", "*"+snapshotSuffix))
	if err != nil || len(matches) == 0 {
		return Snapshot{}, fmt.Errorf("%w: no pmcs/*%s under %s", ErrNoSnapshot, snapshotSuffix, dir)
	}
	sort.Strings(matches)
	path := matches[len(matches)-1]

	base := strings.TrimSuffix(filepath.Base(path), snapshotSuffix)
	month, err := time.Parse("200601", base)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s: bad month in file name: %w", path, err)
	}
	return Snapshot{Path: path, Month: month}, nil
}

// baseline CSV columns.
const (
	colCode = iota
	colName
	colWBS
	colLevel
	colDue
	colEffort
	colPredecessors
	colSuccessors
	colCount
)

// loadBaseline parses the snapshot CSV into milestone records keyed by code.
func (s *Store) loadBaseline(path string) (map[string]*Milestone, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // row length checked per record so one bad row is not fatal

	byCode := make(map[string]*Milestone)
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read snapshot %s: %w", path, err)
		}
		line++
		if line == 1 && strings.EqualFold(record[colCode], "code") {
			continue // header
		}

		ms, err := parseBaselineRow(record)
		if err != nil {
			s.warnf("%s:%d: skipping row: %v", filepath.Base(path), line, err)
			continue
		}
		if _, dup := byCode[ms.Code]; dup {
			s.warnf("%s:%d: duplicate milestone %s, keeping first", filepath.Base(path), line, ms.Code)
			continue
		}
		byCode[ms.Code] = ms
	}

	return byCode, nil
}

func parseBaselineRow(record []string) (*Milestone, error) {
	if len(record) < colCount {
		return nil, fmt.Errorf("expected %d fields, got %d", colCount, len(record))
	}

	code := strings.TrimSpace(record[colCode])
	if code == "" {
		return nil, errors.New("empty milestone code")
	}
	wbs := strings.TrimSpace(record[colWBS])
	if wbs == "" {
		return nil, fmt.Errorf("milestone %s: empty WBS code", code)
	}

	ms := &Milestone{
		Code:         code,
		Name:         strings.TrimSpace(record[colName]),
		WBS:          wbs,
		Predecessors: splitCodes(record[colPredecessors]),
		Successors:   splitCodes(record[colSuccessors]),
	}

	if v := strings.TrimSpace(record[colLevel]); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("milestone %s: bad level %q", code, v)
		}
		ms.Level = level
	}

	// A missing due date is legal; the burndown reporter excludes such
	// milestones with a warning of its own.
	if v := strings.TrimSpace(record[colDue]); v != "" {
		due, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, fmt.Errorf("milestone %s: bad due date %q", code, v)
		}
		ms.Due = due
	}

	if v := strings.TrimSpace(record[colEffort]); v != "" {
		effort, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("milestone %s: bad effort %q", code, v)
		}
		ms.Effort = effort
	}

	return ms, nil
}

// splitCodes parses a semicolon-separated code list.
func splitCodes(s string) []string {
	var codes []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			codes = append(codes, part)
		}
	}
	return codes
}
