// Package burndown computes remaining-effort series from milestone records
// and renders them as chart images.
package burndown

import (
	"fmt"
	"time"

	"github.com/skysurvey/msr/internal/store"
)

// Point is one sample of the burndown series.
type Point struct {
	// Date is the sample date (first of month).
	Date time.Time `yaml:"date" json:"date"`
	// Remaining is the summed effort of milestones not yet completed as of
	// Date.
	Remaining float64 `yaml:"remaining" json:"remaining"`
}

// Series is the derived burndown data for a trailing window. It is
// recomputed on every invocation and never persisted except as the rendered
// image (and the derived-data cache).
type Series struct {
	// Points are monthly samples, oldest first.
	Points []Point `yaml:"points" json:"points"`
	// Excluded counts milestones left out because they carry no due date.
	Excluded int `yaml:"excluded,omitempty" json:"excluded,omitempty"`
	// Warnings names the excluded milestones.
	Warnings []string `yaml:"warnings,omitempty" json:"warnings,omitempty"`
}

// Compute builds the burndown series for the trailing window of the given
// number of months ending at asOf. Samples are taken at month starts, from
// asOf minus months through asOf inclusive. Milestones without a due date
// are excluded and reported, not fatal.
func Compute(milestones []store.Milestone, months int, asOf time.Time) (*Series, error) {
	if months < 1 {
		return nil, fmt.Errorf("window must be at least 1 month, got %d", months)
	}

	series := &Series{}

	var usable []store.Milestone
	for _, ms := range milestones {
		if ms.Due.IsZero() {
			series.Excluded++
			series.Warnings = append(series.Warnings,
				fmt.Sprintf("milestone %s has no due date, excluded from burndown", ms.Code))
			continue
		}
		usable = append(usable, ms)
	}

	end := monthStart(asOf)
	for i := months; i >= 0; i-- {
		at := end.AddDate(0, -i, 0)
		series.Points = append(series.Points, Point{
			Date:      at,
			Remaining: remainingAt(usable, at),
		})
	}

	return series, nil
}

// remainingAt sums the effort of milestones still open at the sample date.
// A milestone counts while its completion date is unset or after the sample.
func remainingAt(milestones []store.Milestone, at time.Time) float64 {
	var total float64
	for _, ms := range milestones {
		if ms.Completed != nil && !ms.Completed.After(at) {
			continue
		}
		total += ms.Effort
	}
	return total
}

// IsEmpty reports whether the series was computed from zero usable
// milestones.
func (s *Series) IsEmpty() bool {
	for _, p := range s.Points {
		if p.Remaining != 0 {
			return false
		}
	}
	return true
}

// Start and End return the window bounds of the series.
func (s *Series) Start() time.Time { return s.Points[0].Date }
func (s *Series) End() time.Time   { return s.Points[len(s.Points)-1].Date }

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
