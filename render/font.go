package render

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Alignment positions a track label relative to its bounding box
type Alignment int

const (
	// Left anchors the label to the top left corner of the box
	Left Alignment = 1
	// Center centers the label over the top edge of the box
	Center Alignment = 2
	// Right anchors the label to the top right corner of the box
	Right Alignment = 3
)

// Font holds the text settings used when drawing track labels
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// padding between the text and the edges of its backing box
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	Alignment Alignment
}

// DefaultFont returns the font settings used for track labels
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Left,
	}
}
