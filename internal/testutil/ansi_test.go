package testutil

import "testing"

func TestStripANSI(t *testing.T) {
	in := "\x1b[1;38;2;167;139;250mbold\x1b[0m plain"
	if got := StripANSI(in); got != "bold plain" {
		t.Errorf("StripANSI = %q", got)
	}
}

func TestFindLine(t *testing.T) {
	out := "first\n\x1b[1m  second line\x1b[0m\nthird"
	if got := FindLine(out, "second"); got != "  second line" {
		t.Errorf("FindLine = %q", got)
	}
	if got := FindLine(out, "missing"); got != "" {
		t.Errorf("FindLine(missing) = %q, want empty", got)
	}
}
