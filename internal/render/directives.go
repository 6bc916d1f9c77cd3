package render

import (
	"fmt"
	"image"
	"image/color"

	"packwatch/internal/classify"
	"packwatch/internal/stability"
)

// Fixed palette. BGR values from the original operator display, expressed as
// RGBA for the drawing layer.
var (
	ColorAwaiting  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	ColorHold      = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	ColorSuccess   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	ColorDuplicate = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	ColorError     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	ColorConflict  = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

// Directive tells the presentation layer how to draw one detected identifier.
type Directive struct {
	Text    string
	Color   color.RGBA
	Polygon []image.Point
}

// Header is the frame-level status banner.
type Header struct {
	Text  string
	Color color.RGBA
}

// Indicator reports the recording state for the frame.
type Indicator struct {
	Active  bool
	Invoice string
}

// ForTick derives the overlay for one tick from the classification, the
// stability progress, and the recording indicator. The choice is an
// exhaustive switch over the outcome kind; semantic state is never inferred
// from rendered text.
func ForTick(res classify.Result, st stability.Status, rec Indicator) ([]Directive, Header) {
	header := Header{Text: "Awaiting scan...", Color: ColorAwaiting}

	if len(res.Detections) == 0 {
		return nil, header
	}

	if res.Conflict {
		header = Header{Text: "CONFLICT: show one label at a time", Color: ColorConflict}
		directives := make([]Directive, 0, len(res.Detections))
		for _, det := range res.Detections {
			directives = append(directives, Directive{
				Text:    "CONFLICT",
				Color:   ColorConflict,
				Polygon: det.Polygon,
			})
		}
		return directives, header
	}

	if res.Primary == "" {
		return nil, header
	}

	var text string
	var clr color.RGBA
	switch res.Outcome.Kind {
	case classify.KindNotFound:
		text = fmt.Sprintf("ERROR: %s not in manifest", res.Primary)
		clr = ColorError
	case classify.KindFound:
		if rec.Active && rec.Invoice == res.Outcome.Invoice {
			text = fmt.Sprintf("OK: NF %s - %s", res.Outcome.Invoice, res.Outcome.Recipient)
			clr = ColorSuccess
		} else {
			text = fmt.Sprintf("HOLD %d%%", int(st.Progress*100))
			clr = ColorHold
		}
	case classify.KindDuplicate:
		if rec.Active && rec.Invoice == res.Outcome.Invoice {
			// The item whose session is still recording; keep showing success.
			text = fmt.Sprintf("OK: NF %s", res.Outcome.Invoice)
			clr = ColorSuccess
		} else {
			text = fmt.Sprintf("ALERT: NF %s already checked", res.Outcome.Invoice)
			clr = ColorDuplicate
		}
	case classify.KindConflict:
		text = "CONFLICT"
		clr = ColorConflict
	default:
		text = "Processing..."
		clr = ColorAwaiting
	}

	header = Header{Text: text, Color: clr}
	directives := make([]Directive, 0, len(res.Detections))
	for _, det := range res.Detections {
		directives = append(directives, Directive{Text: text, Color: clr, Polygon: det.Polygon})
	}
	return directives, header
}
