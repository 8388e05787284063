package ui

// Base provides size management for full-screen models.
// Embed it to get the standard accessors:
//
//	type Model struct {
//	    ui.Base
//	    lines []string
//	}
type Base struct {
	width, height int
}

// SetSize sets the component dimensions.
func (b *Base) SetSize(width, height int) {
	b.width = width
	b.height = height
}

// Size returns the component dimensions.
func (b Base) Size() (width, height int) {
	return b.width, b.height
}

// Width returns the component width.
func (b Base) Width() int {
	return b.width
}

// Height returns the component height.
func (b Base) Height() int {
	return b.height
}

// ContentHeight returns the height left after subtracting overhead, at least 1.
func (b Base) ContentHeight(overhead int) int {
	return max(b.height-overhead, 1)
}

// ContentWidth returns the width inside a padded frame, at least 1.
func (b Base) ContentWidth() int {
	return max(b.width-BorderWidth-PaddingWidth, 1)
}
