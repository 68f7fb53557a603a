package theme

// Centralized theming and styling initialization for the flipbook window.
// Provides palette constants and InitStyles to activate a base theme and
// configure semantic widget styles.

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Palette defines core semantic colors used across widgets.
const (
	ColorBg       = "#f7f9fb" // app background
	ColorPrimary  = "#2563eb" // export button
	ColorDanger   = "#dc2626" // cancel button
	ColorDarkBg   = "#0f172a"
	ColorDarkPrim = "#3b82f6"
	ColorDarkDang = "#ef4444"
)

// style names used with Style("primary.TButton") etc.
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
)

// internal flag for current mode
var darkMode bool

// InitStyles (re)applies styles for the current darkMode value.
func InitStyles() { applyStyles(darkMode) }

// SetDark sets dark mode and reapplies styles. Returns new mode value.
func SetDark(dark bool) bool {
	darkMode = dark
	applyStyles(darkMode)
	return darkMode
}

func pick(dark bool, d, l string) string {
	if dark {
		return d
	}
	return l
}

// applyStyles encapsulates palette & style configuration for light/dark.
func applyStyles(dark bool) {
	_ = ActivateTheme("azure light") // baseline metrics
	App.Configure(Background(pick(dark, ColorDarkBg, ColorBg)))

	StyleConfigure(StylePrimaryButton,
		Background(pick(dark, ColorDarkPrim, ColorPrimary)),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
	StyleConfigure(StyleDangerButton,
		Background(pick(dark, ColorDarkDang, ColorDanger)),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
}
