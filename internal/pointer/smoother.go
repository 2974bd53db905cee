// Package pointer maps camera-space fingertip positions to smoothed screen positions.
package pointer

// Point is a 2-D position in either camera or screen pixels.
type Point struct {
	X float64
	Y float64
}

// Size is a width/height pair in pixels.
type Size struct {
	W float64
	H float64
}

// Interp maps v from [inLo, inHi] onto [outLo, outHi]. Values outside the
// input range clamp to the nearest output endpoint.
func Interp(v, inLo, inHi, outLo, outHi float64) float64 {
	if inHi <= inLo {
		if v <= inLo {
			return outLo
		}
		return outHi
	}
	if v <= inLo {
		return outLo
	}
	if v >= inHi {
		return outHi
	}
	return outLo + (v-inLo)*(outHi-outLo)/(inHi-inLo)
}

// Map converts a raw camera coordinate to screen space.
//
// Only the sub-rectangle inset by inset pixels on every side of the frame is
// mapped; the border band clamps to the screen edge. X is mirrored because the
// camera faces the user.
func Map(raw Point, frame Size, inset float64, screen Size) Point {
	x := Interp(raw.X, inset, frame.W-inset, 0, screen.W)
	y := Interp(raw.Y, inset, frame.H-inset, 0, screen.H)
	return Point{X: screen.W - x, Y: y}
}

// Smoother damps cursor jitter with exponential smoothing. It is owned by a
// single pipeline and is not safe for concurrent use.
type Smoother struct {
	factor float64
	prev   Point
}

// NewSmoother returns a Smoother starting at the origin. Larger factors give
// a steadier but laggier cursor; factors below 1 are raised to 1 (no damping).
func NewSmoother(factor float64) *Smoother {
	if factor < 1 {
		factor = 1
	}
	return &Smoother{factor: factor}
}

// Smooth moves the held position 1/factor of the way towards target and
// returns the new position.
func (s *Smoother) Smooth(target Point) Point {
	s.prev = Point{
		X: s.prev.X + (target.X-s.prev.X)/s.factor,
		Y: s.prev.Y + (target.Y-s.prev.Y)/s.factor,
	}
	return s.prev
}

// Previous returns the last smoothed position.
func (s *Smoother) Previous() Point {
	return s.prev
}
