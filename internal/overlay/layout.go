package overlay

import "github.com/cueline/cueline/internal/cue"

// Bounds is an on-screen rectangle in pixels, positioned relative to the
// host video's bounding box.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Factor returns the scale factor from the design frame to the host video's
// current on-screen width. A non-positive video width yields 1, so overlays
// degrade to design-frame geometry instead of collapsing to zero size.
func Factor(videoWidth, designWidth float64) float64 {
	if videoWidth <= 0 || designWidth <= 0 {
		return 1
	}
	return videoWidth / designWidth
}

// ScaleRect converts a design-frame rectangle to on-screen pixel bounds.
func ScaleRect(r cue.Rect, factor float64) Bounds {
	return Bounds{
		Left:   r.X * factor,
		Top:    r.Y * factor,
		Width:  r.Width * factor,
		Height: r.Height * factor,
	}
}

// ScaleStyle returns a copy of the text style with its size-like fields
// (font size, padding, border radius) scaled by the same factor as the
// geometry, preserving visual proportions across host player resizes.
func ScaleStyle(s cue.TextStyle, factor float64) cue.TextStyle {
	scaled := s
	scaled.FontSize = s.FontSize * factor
	scaled.Padding = s.Padding * factor
	scaled.BorderRadius = s.BorderRadius * factor
	return scaled
}
