package app

import (
	"image/color"

	"hat-editor/pkg/colorutil"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// HatTheme is the application theme: festive red accents and a selection
// color matching the on-canvas outline.
type HatTheme struct{}

var _ fyne.Theme = (*HatTheme)(nil)

func (t *HatTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return colorutil.Festive
	case theme.ColorNameFocus, theme.ColorNameSelection:
		return colorutil.WithAlpha(colorutil.Selection, 0x60)
	case theme.ColorNameHover:
		return colorutil.WithAlpha(colorutil.Festive, 0x30)
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *HatTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *HatTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *HatTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameInlineIcon:
		return 22 // Toolbar icons read better slightly larger
	default:
		return theme.DefaultTheme().Size(name)
	}
}
