package scroll

import "math"

// Mode selects where the active line is placed in the viewport.
type Mode int

const (
	// Top puts the active line at the top of the visible region.
	Top Mode = iota
	// Centered puts the active line's midpoint at CenterFraction of the
	// viewport height.
	Centered
)

func (m Mode) String() string {
	if m == Centered {
		return "centered"
	}
	return "top"
}

// ParseMode maps "top" and "centered"/"center" to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "top":
		return Top, true
	case "centered", "center":
		return Centered, true
	}
	return Top, false
}

// Layout holds the viewport parameters of an offset computation.
type Layout struct {
	Mode           Mode
	ViewportHeight float64
	CenterFraction float64
}

// Heights stores measured line heights by index. It is sized to the
// timeline; entries not yet measured are 0.
type Heights []float64

// NewHeights returns an arena for n lines.
func NewHeights(n int) Heights {
	if n < 0 {
		n = 0
	}
	return make(Heights, n)
}

// Set records the height of line i. Out-of-range indices are ignored and
// negative or NaN heights are stored as 0. It reports whether the stored
// value changed.
func (h Heights) Set(i int, px float64) bool {
	if i < 0 || i >= len(h) {
		return false
	}
	if px < 0 || math.IsNaN(px) || math.IsInf(px, 0) {
		px = 0
	}
	if h[i] == px {
		return false
	}
	h[i] = px
	return true
}

// At returns the height of line i, or 0 if unknown.
func (h Heights) At(i int) float64 {
	if i < 0 || i >= len(h) {
		return 0
	}
	return h[i]
}

// Before returns the cumulative height of lines [0, i).
func (h Heights) Before(i int) float64 {
	if i > len(h) {
		i = len(h)
	}
	var sum float64
	for j := 0; j < i; j++ {
		sum += h[j]
	}
	return sum
}

// Measured returns how many lines have a non-zero height.
func (h Heights) Measured() int {
	n := 0
	for _, px := range h {
		if px > 0 {
			n++
		}
	}
	return n
}

// ComputeOffset returns the scroll offset that brings line active into
// position for the layout. Unmeasured lines count as 0, so the result is an
// under-estimate until every preceding line has reported. The result is
// never negative, and is 0 when no line is active.
func ComputeOffset(h Heights, active int, l Layout) float64 {
	if active < 0 {
		return 0
	}

	y := h.Before(active)
	if l.Mode == Centered {
		y = y - l.ViewportHeight*l.CenterFraction + h.At(active)/2
	}

	if y < 0 || math.IsNaN(y) {
		return 0
	}
	return y
}

// Padding returns the blank space reserved above the first and below the last
// line so both can reach the anchor position. Nothing is reserved when
// auto-scroll is off.
func Padding(viewport float64, autoScroll bool, topFraction, bottomFraction float64) (top, bottom float64) {
	if !autoScroll || viewport <= 0 {
		return 0, 0
	}
	return viewport * topFraction, viewport * bottomFraction
}
