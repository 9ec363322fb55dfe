package geom

import "math"

// Rect is an axis-aligned rectangle with float coordinates.
// Left/Top are inclusive, Right/Bottom exclusive. A rect with
// Right <= Left or Bottom <= Top is empty.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// RectXYWH creates a Rect from origin and size.
func RectXYWH(x, y, w, h float64) Rect {
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// RectLTRB creates a Rect from its edges.
func RectLTRB(l, t, r, b float64) Rect {
	return Rect{Left: l, Top: t, Right: r, Bottom: b}
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the height of the rectangle.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// IsEmpty reports whether the rectangle covers no area.
func (r Rect) IsEmpty() bool {
	return !(r.Left < r.Right && r.Top < r.Bottom)
}

// Contains reports whether o lies entirely inside r.
// An empty o is contained by any non-empty r.
func (r Rect) Contains(o Rect) bool {
	if r.IsEmpty() {
		return false
	}
	if o.IsEmpty() {
		return true
	}
	return r.Left <= o.Left && r.Top <= o.Top && r.Right >= o.Right && r.Bottom >= o.Bottom
}

// Intersects reports whether r and o overlap with non-zero area.
func (r Rect) Intersects(o Rect) bool {
	return r.Left < o.Right && o.Left < r.Right && r.Top < o.Bottom && o.Top < r.Bottom
}

// Union returns the smallest rectangle containing both r and o.
// Empty rectangles are ignored.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return Rect{
		Left:   math.Min(r.Left, o.Left),
		Top:    math.Min(r.Top, o.Top),
		Right:  math.Max(r.Right, o.Right),
		Bottom: math.Max(r.Bottom, o.Bottom),
	}
}

// Intersect returns the overlap of r and o, or the zero Rect.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		Left:   math.Max(r.Left, o.Left),
		Top:    math.Max(r.Top, o.Top),
		Right:  math.Min(r.Right, o.Right),
		Bottom: math.Min(r.Bottom, o.Bottom),
	}
	if out.IsEmpty() {
		return Rect{}
	}
	return out
}

// RoundOut returns the smallest integer rectangle containing r.
func (r Rect) RoundOut() IRect {
	return IRect{
		Left:   int(math.Floor(r.Left)),
		Top:    int(math.Floor(r.Top)),
		Right:  int(math.Ceil(r.Right)),
		Bottom: int(math.Ceil(r.Bottom)),
	}
}

// IRect is an axis-aligned integer rectangle, used for scissors and copies.
type IRect struct {
	Left, Top, Right, Bottom int
}

// IRectWH creates an IRect at the origin with the given size.
func IRectWH(w, h int) IRect {
	return IRect{Right: w, Bottom: h}
}

// IRectXYWH creates an IRect from origin and size.
func IRectXYWH(x, y, w, h int) IRect {
	return IRect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// Width returns the width of the rectangle.
func (r IRect) Width() int { return r.Right - r.Left }

// Height returns the height of the rectangle.
func (r IRect) Height() int { return r.Bottom - r.Top }

// IsEmpty reports whether the rectangle covers no pixels.
func (r IRect) IsEmpty() bool {
	return !(r.Left < r.Right && r.Top < r.Bottom)
}

// Contains reports whether o lies entirely inside r.
func (r IRect) Contains(o IRect) bool {
	if r.IsEmpty() {
		return false
	}
	if o.IsEmpty() {
		return true
	}
	return r.Left <= o.Left && r.Top <= o.Top && r.Right >= o.Right && r.Bottom >= o.Bottom
}

// Intersect returns the overlap of r and o, or the zero IRect.
func (r IRect) Intersect(o IRect) IRect {
	out := IRect{
		Left:   max(r.Left, o.Left),
		Top:    max(r.Top, o.Top),
		Right:  min(r.Right, o.Right),
		Bottom: min(r.Bottom, o.Bottom),
	}
	if out.IsEmpty() {
		return IRect{}
	}
	return out
}

// Union returns the smallest rectangle containing both r and o.
// Empty rectangles are ignored.
func (r IRect) Union(o IRect) IRect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return IRect{
		Left:   min(r.Left, o.Left),
		Top:    min(r.Top, o.Top),
		Right:  max(r.Right, o.Right),
		Bottom: max(r.Bottom, o.Bottom),
	}
}

// Rect converts r to a float rectangle.
func (r IRect) Rect() Rect {
	return Rect{
		Left:   float64(r.Left),
		Top:    float64(r.Top),
		Right:  float64(r.Right),
		Bottom: float64(r.Bottom),
	}
}
