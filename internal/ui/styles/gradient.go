package styles

import (
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// ApplyGradient renders text with a horizontal color gradient.
func ApplyGradient(text string, from, to lipgloss.Color) string {
	return Sweep(text, 1, from, to, lipgloss.NewStyle())
}

// Sweep renders a word being sung. The first progress fraction of its
// graphemes gets the from→to gradient in bold, the remainder is rendered
// with rest. progress is clamped to [0, 1].
func Sweep(text string, progress float64, from, to lipgloss.Color, rest lipgloss.Style) string {
	clusters := graphemes(text)
	if len(clusters) == 0 {
		return ""
	}

	progress = max(0, min(progress, 1))
	lit := int(progress*float64(len(clusters)) + 0.5)
	if lit == 0 {
		return rest.Render(text)
	}

	colors := blendColors(lit, from, to)

	var b strings.Builder
	for i, cluster := range clusters {
		if i >= lit {
			b.WriteString(rest.Render(strings.Join(clusters[i:], "")))
			break
		}
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorToHex(colors[i]))).
			Bold(true)
		b.WriteString(style.Render(cluster))
	}
	return b.String()
}

// graphemes splits text into grapheme clusters so combining marks and
// emoji sequences are colored as one unit.
func graphemes(text string) []string {
	var clusters []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		clusters = append(clusters, gr.Str())
	}
	return clusters
}

// blendColors returns a slice of colors blended between from and to.
// Blending is done in HCL color space for perceptually uniform transitions.
func blendColors(size int, from, to lipgloss.Color) []color.Color {
	if size < 2 {
		return []color.Color{lipglossToColor(from)}
	}

	c1, _ := colorful.MakeColor(lipglossToColor(from))
	c2, _ := colorful.MakeColor(lipglossToColor(to))

	colors := make([]color.Color, size)
	for i := range size {
		t := float64(i) / float64(size-1)
		colors[i] = c1.BlendHcl(c2, t)
	}

	return colors
}

// lipglossToColor converts a lipgloss.Color to a color.Color.
func lipglossToColor(c lipgloss.Color) color.Color {
	hex := string(c)
	if len(hex) == 7 && hex[0] == '#' {
		col, err := colorful.Hex(hex)
		if err == nil {
			return col
		}
	}
	// Fallback for ANSI colors - return a neutral gray
	return color.RGBA{R: 128, G: 128, B: 128, A: 255}
}

// colorToHex converts a color.Color to a hex string.
func colorToHex(c color.Color) string {
	cf, ok := c.(colorful.Color)
	if ok {
		return cf.Hex()
	}
	r, g, b, _ := c.RGBA()
	return colorful.Color{
		R: float64(r) / 65535.0,
		G: float64(g) / 65535.0,
		B: float64(b) / 65535.0,
	}.Hex()
}
