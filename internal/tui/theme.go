package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// savesync color palette
var (
	// Accent is used for borders and titles.
	Accent = tcell.NewRGBColor(20, 184, 166) // #14B8A6

	Dark  = tcell.NewRGBColor(40, 40, 40)    // #282828
	Gray  = tcell.NewRGBColor(128, 128, 128) // #808080
	Light = tcell.NewRGBColor(200, 200, 200) // #C8C8C8

	// Status colors
	SuccessGreen  = tcell.NewRGBColor(34, 197, 94)  // #22C55E
	ErrorRed      = tcell.NewRGBColor(239, 68, 68)  // #EF4444
	WarningYellow = tcell.NewRGBColor(234, 179, 8)  // #EAB308
	InfoBlue      = tcell.NewRGBColor(59, 130, 246) // #3B82F6
)

// Symbols and icons
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolInfo    = "ℹ"
	SymbolBullet  = "•"
)

// StatusColor returns the appropriate color for a status
func StatusColor(status string) tcell.Color {
	switch status {
	case "success", "ok", "done":
		return SuccessGreen
	case "error", "failed":
		return ErrorRed
	case "warning", "skipped":
		return WarningYellow
	case "info", "running":
		return InfoBlue
	default:
		return tcell.ColorLightGray
	}
}

// StatusSymbol returns the appropriate symbol for a status
func StatusSymbol(status string) string {
	switch status {
	case "success", "ok", "done":
		return SymbolSuccess
	case "error", "failed":
		return SymbolError
	case "warning", "skipped":
		return SymbolWarning
	case "info", "running":
		return SymbolInfo
	default:
		return SymbolBullet
	}
}

// StatusTag returns the tview color tag of a status, e.g. "[#22C55E]".
func StatusTag(status string) string {
	return "[" + StatusColor(status).CSS() + "]"
}

// applyTheme sets the global tview styles to the savesync palette.
func applyTheme() {
	tview.Styles.PrimitiveBackgroundColor = tcell.ColorBlack
	tview.Styles.ContrastBackgroundColor = tcell.ColorBlack
	tview.Styles.MoreContrastBackgroundColor = Dark
	tview.Styles.BorderColor = Accent
	tview.Styles.TitleColor = Accent
	tview.Styles.GraphicsColor = Accent
	tview.Styles.PrimaryTextColor = tcell.ColorWhite
	tview.Styles.SecondaryTextColor = Light
	tview.Styles.TertiaryTextColor = Gray
	tview.Styles.InverseTextColor = tcell.ColorBlack
	tview.Styles.ContrastSecondaryTextColor = tcell.ColorWhite
}
