// Package ui provides shared UI constants and utilities.
package ui

// Layout constants for framed full-screen views.
const (
	// BorderHeight is the vertical space consumed by a rounded frame.
	BorderHeight = 2

	// BorderWidth is the horizontal space consumed by a rounded frame.
	BorderWidth = 2

	// PaddingWidth is the horizontal padding inside a frame.
	PaddingWidth = 2

	// HeaderHeight is the title line plus its spacer.
	HeaderHeight = 2

	// FooterHeight is the progress bar plus the status line.
	FooterHeight = 2

	// PanelOverhead is the vertical space left for content:
	// contentHeight = panelHeight - PanelOverhead
	PanelOverhead = BorderHeight + HeaderHeight + FooterHeight
)
