package capture

import (
	"fmt"
	"image/color"
	"time"

	"github.com/teslashibe/go-plantvision/pkg/classify"
)

// Overlay colors.
var (
	ColorClassification = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	ColorCountdown      = color.RGBA{R: 0, G: 255, B: 255, A: 255}
)

// TextLine is one line of text drawn on the preview.
type TextLine struct {
	Text      string
	X, Y      int // baseline origin in pixels
	Scale     float64
	Color     color.RGBA
	Thickness int
}

// Overlay is the text drawn over a preview frame.
type Overlay struct {
	Lines []TextLine
}

// Texts returns the overlay strings in draw order.
func (o Overlay) Texts() []string {
	out := make([]string, len(o.Lines))
	for i, l := range o.Lines {
		out[i] = l.Text
	}
	return out
}

// CountdownText formats the time until the next scheduled classification.
func CountdownText(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("Proxima clasificacion en: %.1fs", d.Seconds())
}

// BuildOverlay renders the current classification (if any) and the
// countdown.
func BuildOverlay(last *classify.Classification, untilNext time.Duration) Overlay {
	var o Overlay
	if last != nil {
		o.Lines = append(o.Lines, TextLine{
			Text:      last.Label(),
			X:         10,
			Y:         30,
			Scale:     1,
			Color:     ColorClassification,
			Thickness: 2,
		})
	}
	o.Lines = append(o.Lines, TextLine{
		Text:      CountdownText(untilNext),
		X:         10,
		Y:         70,
		Scale:     0.7,
		Color:     ColorCountdown,
		Thickness: 2,
	})
	return o
}
