package diagram

// Lerp interpolates linearly between a and b; t=0 gives a, t=1 gives b.
func Lerp(a, b Point, t float64) Point {
	return Point{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

// PointAt evaluates the arrow path at t in [0,1]. Curved arrows follow the
// quadratic Bézier B(t) = (1-t)²·P0 + 2(1-t)t·C + t²·P1.
func (a Arrow) PointAt(t float64) Point {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	if a.Kind != ArrowCurved || a.Control == nil {
		return Lerp(a.From, a.To, t)
	}
	// de Casteljau: lerp of lerps
	return Lerp(Lerp(a.From, *a.Control, t), Lerp(*a.Control, a.To, t), t)
}

// Midpoint is where the step label is drawn.
func (a Arrow) Midpoint() Point {
	return a.PointAt(0.5)
}

// ToPixels maps a percentage point onto a canvas of width×height pixels.
func ToPixels(p Point, width, height float64) Point {
	return Point{X: p.X / 100 * width, Y: p.Y / 100 * height}
}

// FromPixels is the inverse of ToPixels, clamped to the court.
// A zero-sized canvas yields the origin.
func FromPixels(px Point, width, height float64) Point {
	if width <= 0 || height <= 0 {
		return Point{}
	}
	return Point{X: clamp(px.X / width * 100), Y: clamp(px.Y / height * 100)}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
