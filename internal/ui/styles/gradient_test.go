package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/llehouerou/rhythm/internal/testutil"
)

func TestSweep_KeepsText(t *testing.T) {
	for _, p := range []float64{-1, 0, 0.3, 0.5, 1, 2} {
		got := Sweep("héllo👋🏽", p, "#a78bfa", "#f1a208", lipgloss.NewStyle())
		if testutil.StripANSI(got) != "héllo👋🏽" {
			t.Errorf("Sweep(progress=%v) text = %q", p, testutil.StripANSI(got))
		}
	}
}

func TestSweep_Empty(t *testing.T) {
	if got := Sweep("", 0.5, "#000000", "#ffffff", lipgloss.NewStyle()); got != "" {
		t.Errorf("Sweep(\"\") = %q, want empty", got)
	}
}

func TestGraphemes(t *testing.T) {
	got := graphemes("éa👋🏽")
	if len(got) != 3 {
		t.Fatalf("graphemes = %q, want 3 clusters", got)
	}
}

func TestBlendColors(t *testing.T) {
	colors := blendColors(3, "#000000", "#ffffff")
	if len(colors) != 3 {
		t.Fatalf("len = %d, want 3", len(colors))
	}
	black, _ := colorful.Hex("#000000")
	white, _ := colorful.Hex("#ffffff")
	first, _ := colorful.MakeColor(colors[0])
	last, _ := colorful.MakeColor(colors[2])
	if first.DistanceRgb(black) > 0.01 {
		t.Errorf("first = %s, want ~#000000", first.Hex())
	}
	if last.DistanceRgb(white) > 0.01 {
		t.Errorf("last = %s, want ~#ffffff", last.Hex())
	}
	if one := blendColors(1, "#a78bfa", "#ffffff"); colorToHex(one[0]) != "#a78bfa" {
		t.Errorf("single color = %s, want #a78bfa", colorToHex(one[0]))
	}
}

func TestLipglossToColor_ANSIFallsBackToGray(t *testing.T) {
	if got := colorToHex(lipglossToColor("39")); got != "#808080" {
		t.Errorf("ANSI fallback = %s, want #808080", got)
	}
}
