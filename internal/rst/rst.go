// Package rst writes reStructuredText documents: sections, bullet lists,
// figures, directives, and admonitions, with the heading hierarchy used by
// the technote toolchain.
package rst

import (
	"fmt"
	"strings"
)

// headingChars are the underline characters per section level; index 0 is
// the document title.
const headingChars = `#=-^"`

// Option is a named directive or document option. Options are ordered so
// output is deterministic.
type Option struct {
	Name  string
	Value string
}

// Document accumulates a reStructuredText document.
type Document struct {
	sb strings.Builder
}

// NewDocument starts a document with optional title, subtitle, and
// field options (e.g. tocdepth).
func NewDocument(title, subtitle string, options []Option) *Document {
	d := &Document{}
	if title != "" {
		d.sb.WriteString(underline(title, headingChars[0], true))
		d.sb.WriteString("\n")
	}
	if subtitle != "" {
		d.sb.WriteString(underline(subtitle, headingChars[1], true))
		d.sb.WriteString("\n")
	}
	for _, opt := range options {
		d.sb.WriteString(":" + opt.Name + ":")
		if opt.Value != "" {
			d.sb.WriteString(" " + opt.Value)
		}
		d.sb.WriteString("\n")
	}
	if title != "" || subtitle != "" || len(options) > 0 {
		d.sb.WriteString("\n")
	}
	return d
}

// String returns the accumulated document text.
func (d *Document) String() string {
	return d.sb.String()
}

// Paragraph writes lines followed by a blank line.
func (d *Document) Paragraph(lines ...string) {
	writeParagraph(&d.sb, lines)
}

// Section opens a level-1 section. Content written through the returned
// Section lands in the document in call order.
func (d *Document) Section(title, anchor string) *Section {
	return newSection(&d.sb, 1, title, anchor)
}

// Directive writes a directive with optional argument, options, and body
// lines.
func (d *Document) Directive(name, argument string, options []Option, body ...string) {
	writeDirective(&d.sb, name, argument, options, body)
}

// Section is a section at a given heading level; it writes into the
// document buffer.
type Section struct {
	sb    *strings.Builder
	level int
}

func newSection(sb *strings.Builder, level int, title, anchor string) *Section {
	if anchor != "" {
		fmt.Fprintf(sb, ".. _%s:\n\n", anchor)
	}
	idx := level
	if idx >= len(headingChars) {
		idx = len(headingChars) - 1
	}
	sb.WriteString(underline(title, headingChars[idx], false))
	sb.WriteString("\n\n")
	return &Section{sb: sb, level: level}
}

// Section opens a subsection one level deeper.
func (s *Section) Section(title, anchor string) *Section {
	return newSection(s.sb, s.level+1, title, anchor)
}

// Paragraph writes lines followed by a blank line.
func (s *Section) Paragraph(lines ...string) {
	writeParagraph(s.sb, lines)
}

// Directive writes a directive into the section.
func (s *Section) Directive(name, argument string, options []Option, body ...string) {
	writeDirective(s.sb, name, argument, options, body)
}

// Admonition writes an admonition directive (note, warning, ...) with an
// argument and no body.
func (s *Section) Admonition(kind, argument string) {
	writeDirective(s.sb, kind, argument, nil, nil)
}

// Figure writes a figure directive with an optional link target and caption
// lines.
func (s *Section) Figure(path, target string, caption ...string) {
	var opts []Option
	if target != "" {
		opts = []Option{{Name: "target", Value: target}}
	}
	writeDirective(s.sb, "figure", path, opts, caption)
}

// BulletList opens a bullet list in the section.
func (s *Section) BulletList() *BulletList {
	return &BulletList{sb: s.sb}
}

// BulletList accumulates "- " items with continuation-line indentation.
type BulletList struct {
	sb *strings.Builder
}

// Item writes one bullet; extra lines are indented under the bullet marker.
func (l *BulletList) Item(lines ...string) {
	for i, line := range lines {
		if i == 0 {
			l.sb.WriteString("- " + line + "\n")
		} else {
			l.sb.WriteString("  " + line + "\n")
		}
	}
}

// End closes the list with a blank line.
func (l *BulletList) End() {
	l.sb.WriteString("\n")
}

func writeParagraph(sb *strings.Builder, lines []string) {
	for _, line := range lines {
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n")
}

func writeDirective(sb *strings.Builder, name, argument string, options []Option, body []string) {
	sb.WriteString(".. " + name + "::")
	if argument != "" {
		sb.WriteString(" " + argument)
	}
	sb.WriteString("\n")
	for _, opt := range options {
		if opt.Value != "" {
			sb.WriteString("   :" + opt.Name + ": " + opt.Value + "\n")
		} else {
			sb.WriteString("   :" + opt.Name + ":\n")
		}
	}
	if len(body) > 0 {
		sb.WriteString("\n")
		for _, line := range body {
			if line == "" {
				sb.WriteString("\n")
			} else {
				sb.WriteString("   " + line + "\n")
			}
		}
	}
	sb.WriteString("\n")
}

// underline renders a heading with its underline (and overline for document
// titles).
func underline(text string, char byte, overline bool) string {
	line := strings.Repeat(string(char), len(text))
	if overline {
		return line + "\n" + text + "\n" + line
	}
	return text + "\n" + line
}
