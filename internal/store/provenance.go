package store

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ReadProvenance resolves the version of the store checkout for report
// provenance. When the store directory is not a git checkout the SHA and
// commit date are left empty; only the snapshot month is mandatory.
func (s *Store) ReadProvenance() Provenance {
	p := Provenance{SnapshotMonth: s.Snapshot.Month}

	sha, date, err := gitHead(s.dir)
	if err == nil {
		p.SHA = sha
		p.CommitDate = date
	}
	return p
}

// gitHead returns the HEAD commit SHA and commit date of the repository
// containing dir.
func gitHead(dir string) (string, time.Time, error) {
	cmd := exec.Command("git", "log", "-1", "--pretty=format:%H %ad", "--date=unix")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("git log: %w", err)
	}

	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) != 2 {
		return "", time.Time{}, fmt.Errorf("unexpected git log output %q", string(out))
	}
	unix, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("bad commit date %q: %w", fields[1], err)
	}
	return fields[0], time.Unix(unix, 0).UTC(), nil
}
