package ui

import "github.com/gdamore/tcell/v2"

// Colors - Midnight Commander style
var (
	ColorBg        = tcell.NewRGBColor(0, 0, 128)     // Dark blue background
	ColorFg        = tcell.NewRGBColor(192, 192, 192) // Light gray text
	ColorBorder    = tcell.NewRGBColor(0, 255, 255)   // Cyan borders
	ColorTitle     = tcell.NewRGBColor(255, 255, 255) // White titles
	ColorHighlight = tcell.NewRGBColor(0, 255, 255)   // Cyan highlight
	ColorField     = tcell.NewRGBColor(0, 0, 64)      // Input fields
	ColorButton    = tcell.NewRGBColor(0, 128, 128)   // Buttons, selection and bars
	ColorDim       = tcell.NewRGBColor(128, 128, 128) // Secondary text
	ColorBackdrop  = tcell.NewRGBColor(64, 64, 64)    // Behind the auth form
)
