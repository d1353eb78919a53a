// Package report generates the root index document consumed by the external
// document builder. Output is a pure function of the milestone store: the
// reporting date is always the baseline snapshot month, never the wall
// clock, so regenerating with unchanged inputs is byte-identical.
package report

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/skysurvey/msr/internal/rst"
	"github.com/skysurvey/msr/internal/store"
)

// Options configures index generation.
type Options struct {
	// Prefix is the top-level WBS prefix the report covers.
	Prefix string
	// StaticDir is the image directory referenced by figure paths.
	StaticDir string
	// TitleFor maps a sub-WBS code to its display title.
	TitleFor func(code string) string
	// BibGlob locates bibliography files for the closing directive.
	BibGlob string
}

// DefaultOptions returns generation defaults matching the published report.
func DefaultOptions() *Options {
	return &Options{
		Prefix:    "02C",
		StaticDir: "_static",
		TitleFor:  func(code string) string { return code },
		BibGlob:   "lsstbib/*.bib",
	}
}

// Generate renders the full index document for the store.
func Generate(s *store.Store, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	titleFor := opts.TitleFor
	if titleFor == nil {
		titleFor = func(code string) string { return code }
	}

	asOf := s.AsOf()
	selected := s.WithPrefix(opts.Prefix)

	doc := rst.NewDocument("", "", []rst.Option{{Name: "tocdepth", Value: "1"}})

	writeSubstitutions(doc, s.Milestones)
	writeProvenance(doc, s)
	writeNotation(doc)
	writeSummary(doc, selected, asOf, opts)
	writeOverdue(doc, selected, asOf)
	writeByDueDate(doc, selected)
	writeByWBS(doc, s, selected, asOf, opts, titleFor)
	writeBibliography(doc, opts.BibGlob)

	return banner + doc.String(), nil
}

// banner marks the file as generated so nobody edits it by hand. It carries
// no timestamp; regeneration must be byte-identical.
const banner = ".. This file is generated from the milestone store. Do not edit by hand.\n\n"

// writeSubstitutions defines replacements for every milestone code so its
// display follows its state: completed milestones are set in italics.
func writeSubstitutions(doc *rst.Document, milestones []store.Milestone) {
	lines := make([]string, 0, len(milestones))
	for i := range milestones {
		ms := &milestones[i]
		if ms.IsCompleted() {
			lines = append(lines, fmt.Sprintf(".. |%s| replace:: *%s*", ms.Code, ms.Code))
		} else {
			lines = append(lines, fmt.Sprintf(".. |%s| replace:: %s", ms.Code, ms.Code))
		}
	}
	doc.Paragraph(lines...)
}

func writeProvenance(doc *rst.Document, s *store.Store) {
	sec := doc.Section("Provenance", "")

	p := s.ReadProvenance()
	var lines []string
	if p.SHA != "" {
		lines = append(lines, fmt.Sprintf(
			"This document was generated from the milestone store at version %s, dated %s.",
			p.SHA[:8], p.CommitDate.Format("2006-01-02")))
	} else {
		lines = append(lines, "This document was generated from the contents of the milestone store.")
	}
	lines = append(lines, fmt.Sprintf(
		"This corresponds to the status recorded in the project controls system for %s.",
		p.SnapshotMonth.Format("January 2006")))
	sec.Paragraph(lines...)
}

func writeNotation(doc *rst.Document) {
	sec := doc.Section("Notation", "")
	sec.Paragraph(
		"Throughout this document, the identifiers of completed",
		"milestones are set in italics; those of milestones which are",
		"still pending, in roman.")
}

func writeSummary(doc *rst.Document, selected []store.Milestone, asOf time.Time, opts *Options) {
	sec := doc.Section("Summary", "")

	levels := make(map[int]int)
	completed, late := 0, 0
	for i := range selected {
		ms := &selected[i]
		levels[ms.Level]++
		if ms.IsCompleted() {
			completed++
		} else if ms.IsOverdue(asOf) {
			late++
		}
	}

	lines := []string{
		fmt.Sprintf("The subsystem is currently tracking %d milestones: "+
			"%d at Level 1, %d at Level 2, %d at Level 3, and %d at Level 4.",
			len(selected), levels[1], levels[2], levels[3], levels[4]),
	}
	if levels[0] != 0 {
		lines = append(lines, fmt.Sprintf("%d have no level defined.", levels[0]))
	}
	lines = append(lines,
		fmt.Sprintf("Of these, %d have been completed.", completed),
		fmt.Sprintf("Of the incomplete milestones, %d are late relative to "+
			"the baseline schedule, while the remainder are scheduled for the future.", late))
	sec.Paragraph(lines...)

	sec.Figure(path.Join(opts.StaticDir, "burndown.png"), "",
		"Milestone completion as a function of date.")
}

func writeOverdue(doc *rst.Document, selected []store.Milestone, asOf time.Time) {
	sec := doc.Section("Currently overdue milestones", "")

	var overdue []store.Milestone
	for _, ms := range selected {
		if ms.IsOverdue(asOf) {
			overdue = append(overdue, ms)
		}
	}
	sort.Slice(overdue, func(i, j int) bool {
		return overdue[i].WBS+overdue[i].Code < overdue[j].WBS+overdue[j].Code
	})

	sec.Paragraph(fmt.Sprintf("There are %d milestones overdue as of %s.",
		len(overdue), asOf.Format("2006-01-02")))

	if len(overdue) == 0 {
		sec.Paragraph("None.")
		return
	}
	list := sec.BulletList()
	for _, ms := range overdue {
		list.Item(fmt.Sprintf("`%s`_: %s [Due %s]", ms.Code, ms.Name, ms.Due.Format("2006-01-02")))
	}
	list.End()
}

// writeByDueDate emits one subsection per month, newest first, spanning the
// full due-date range of the selection.
func writeByDueDate(doc *rst.Document, selected []store.Milestone) {
	sec := doc.Section("Milestones by due date", "")

	earliest, latest, ok := extremeDates(selected)
	if !ok {
		sec.Paragraph("No milestones carry a due date.")
		return
	}

	firstMonth := time.Date(earliest.Year(), earliest.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(latest.Year(), latest.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	for year := latest.Year(); year >= earliest.Year(); year-- {
		for month := time.December; month >= time.January; month-- {
			start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			end := start.AddDate(0, 1, 0)
			if !end.After(firstMonth) || !start.Before(lastMonth) {
				continue
			}

			monthSec := sec.Section(fmt.Sprintf("Due in %s", start.Format("January 2006")), "")
			list := monthSec.BulletList()
			due := false
			for _, ms := range selected {
				if ms.Due.IsZero() || ms.Due.Before(start) || !ms.Due.Before(end) {
					continue
				}
				list.Item(fmt.Sprintf("|%s|_: %s", ms.Code, ms.Name))
				due = true
			}
			if !due {
				list.Item("No milestones due.")
			}
			list.End()
		}
	}
}

func writeByWBS(doc *rst.Document, s *store.Store, selected []store.Milestone,
	asOf time.Time, opts *Options, titleFor func(string) string) {

	sec := doc.Section("Milestones by WBS", "")

	for _, subWBS := range s.SubWBSCodes(opts.Prefix) {
		sub := sec.Section(fmt.Sprintf("%s: %s", subWBS, titleFor(subWBS)), "")

		figure := path.Join(opts.StaticDir, fmt.Sprintf("graph_%s.png", subWBS))
		sub.Figure(figure, figure,
			fmt.Sprintf("Relationships between milestones in WBS %s and", subWBS),
			"their immediate predecessors and successors.",
			"Ellipses correspond to milestones within this WBS",
			"element; rectangles to those in other elements.",
			"Blue milestones have been completed; orange",
			"milestones are overdue.")

		group := byDue(selected, subWBS)
		for i := range group {
			writeMilestoneDetail(sub, s, &group[i], opts.Prefix)
		}
	}
}

// byDue returns the milestones under subWBS sorted by due date, undated
// first, codes breaking ties for stable output.
func byDue(selected []store.Milestone, subWBS string) []store.Milestone {
	var group []store.Milestone
	for _, ms := range selected {
		if strings.HasPrefix(ms.WBS, subWBS) {
			group = append(group, ms)
		}
	}
	sort.Slice(group, func(i, j int) bool {
		if !group[i].Due.Equal(group[j].Due) {
			return group[i].Due.Before(group[j].Due)
		}
		return group[i].Code < group[j].Code
	})
	return group
}

func writeMilestoneDetail(sec *rst.Section, s *store.Store, ms *store.Milestone, prefix string) {
	sub := sec.Section(fmt.Sprintf("|%s|: %s", ms.Code, ms.Name), ms.Code)

	list := sub.BulletList()
	list.Item(fmt.Sprintf("**WBS:** %s", ms.WBS))

	level := "Undefined"
	if ms.Level != 0 {
		level = fmt.Sprintf("%d", ms.Level)
	}
	list.Item(fmt.Sprintf("**Level:** %s", level))

	if ms.TestSpec != "" || ms.JiraTestplan != "" {
		lines := []string{"**Test specification:**"}
		if ms.TestSpec != "" {
			lines = append(lines, Citations(ms.TestSpec))
		} else {
			lines = append(lines, "Undefined")
		}
		if ms.JiraTestplan != "" {
			lines = append(lines, fmt.Sprintf(":jirab:`%s`", ms.JiraTestplan))
		}
		list.Item(lines...)
	}

	if preds := relatedRefs(s, ms.Predecessors, prefix); len(preds) > 0 {
		list.Item(fmt.Sprintf("**Predecessors**: %s", strings.Join(preds, ", ")))
	}
	if succs := relatedRefs(s, ms.Successors, prefix); len(succs) > 0 {
		list.Item(fmt.Sprintf("**Successors**: %s", strings.Join(succs, ", ")))
	}

	if ms.Due.IsZero() {
		list.Item("**Due:** Undefined")
	} else {
		list.Item(fmt.Sprintf("**Due:** %s", ms.Due.Format("2006-01-02")))
	}

	completion := []string{"**Completion pending**"}
	if ms.IsCompleted() {
		completion = []string{fmt.Sprintf("**Completed:** %s", ms.Completed.Format("2006-01-02"))}
	}
	if ms.Jira != "" {
		completion = append(completion, fmt.Sprintf(":jirab:`%s`", ms.Jira))
	}
	list.Item(completion...)
	list.End()

	if ms.Description == "" {
		sub.Admonition("warning", "No description available")
		return
	}
	var lines []string
	for _, sentence := range strings.Split(strings.TrimSpace(ms.Description), ". ") {
		lines = append(lines, Citations(strings.Trim(sentence, " .")+"."))
	}
	sub.Paragraph(lines...)
}

// relatedRefs renders related milestone codes as substitution references;
// codes inside the report prefix additionally link to their detail section.
// Codes absent from the store are dropped.
func relatedRefs(s *store.Store, codes []string, prefix string) []string {
	var refs []string
	for _, code := range codes {
		related := s.Get(code)
		if related == nil {
			continue
		}
		if strings.HasPrefix(related.WBS, prefix) {
			refs = append(refs, fmt.Sprintf("|%s|_", code))
		} else {
			refs = append(refs, fmt.Sprintf("|%s|", code))
		}
	}
	return refs
}

func writeBibliography(doc *rst.Document, bibGlob string) {
	matches, err := filepath.Glob(bibGlob)
	if err != nil {
		matches = nil
	}
	sort.Strings(matches)
	sec := doc.Section("Bibliography", "")
	sec.Directive("bibliography", strings.Join(matches, " "),
		[]rst.Option{{Name: "style", Value: "lsst_aa"}})
}

func extremeDates(milestones []store.Milestone) (earliest, latest time.Time, ok bool) {
	for _, ms := range milestones {
		if ms.Due.IsZero() {
			continue
		}
		if !ok || ms.Due.Before(earliest) {
			earliest = ms.Due
		}
		if !ok || ms.Due.After(latest) {
			latest = ms.Due
		}
		ok = true
	}
	return earliest, latest, ok
}
