package report

import (
	"fmt"
	"regexp"
)

// handlePattern matches document handles (LDM-503, DMTN-042, ...) that
// should become bibliography citations.
var handlePattern = regexp.MustCompile(`\b(LDM|LSE|LPM|LSO|DMTN|DMTR|SQR)-\d+\b`)

// Citations replaces document handles in text with citation roles so the
// bibliography directive can resolve them.
func Citations(text string) string {
	return handlePattern.ReplaceAllStringFunc(text, func(handle string) string {
		return fmt.Sprintf(":cite:`%s`", handle)
	})
}
