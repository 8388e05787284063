package testutil

import (
	"regexp"
	"strings"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes ANSI escape codes so rendered views can be compared as text.
func StripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// FindLine returns the first line of the stripped output containing substr,
// or "" if there is none.
func FindLine(output, substr string) string {
	for line := range strings.SplitSeq(StripANSI(output), "\n") {
		if strings.Contains(line, substr) {
			return line
		}
	}
	return ""
}
