package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// annotation is one local overlay entry, keyed by milestone code in the
// enclosing YAML document.
type annotation struct {
	Completed    string `yaml:"completed"`
	Description  string `yaml:"description"`
	TestSpec     string `yaml:"test_spec"`
	Jira         string `yaml:"jira"`
	JiraTestplan string `yaml:"jira_testplan"`
}

// applyAnnotations overlays local/*.yaml onto the baseline records. A file
// that fails to parse, an entry for an unknown code, or a bad completion
// date is reported as a warning and skipped.
func (s *Store) applyAnnotations(byCode map[string]*Milestone) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, "local", "*.yaml"))
	if err != nil {
		return fmt.Errorf("glob annotations: %w", err)
	}
	sort.Strings(matches)

	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read annotations %s: %w", path, err)
		}

		entries := make(map[string]annotation)
		if err := yaml.Unmarshal(data, &entries); err != nil {
			s.warnf("%s: skipping file: %v", filepath.Base(path), err)
			continue
		}

		codes := make([]string, 0, len(entries))
		for code := range entries {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		for _, code := range codes {
			ms, ok := byCode[code]
			if !ok {
				s.warnf("%s: annotation for unknown milestone %s", filepath.Base(path), code)
				continue
			}
			if err := applyAnnotation(ms, entries[code]); err != nil {
				s.warnf("%s: milestone %s: %v", filepath.Base(path), code, err)
			}
		}
	}

	return nil
}

func applyAnnotation(ms *Milestone, a annotation) error {
	if a.Description != "" {
		ms.Description = a.Description
	}
	if a.TestSpec != "" {
		ms.TestSpec = a.TestSpec
	}
	if a.Jira != "" {
		ms.Jira = a.Jira
	}
	if a.JiraTestplan != "" {
		ms.JiraTestplan = a.JiraTestplan
	}
	if a.Completed != "" {
		completed, err := time.Parse(dateLayout, a.Completed)
		if err != nil {
			return fmt.Errorf("bad completed date %q", a.Completed)
		}
		ms.Completed = &completed
	}
	return nil
}
