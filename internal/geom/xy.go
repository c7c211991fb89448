// Package geom holds the integer and fixed-point vector types shared by the
// simulation, together with the legacy direction and distance approximations.
package geom

import "github.com/drevilslab/openbw/internal/fixed"

// XY is a position or offset in pixels.
type XY struct {
	X, Y int
}

func (a XY) Add(b XY) XY { return XY{a.X + b.X, a.Y + b.Y} }
func (a XY) Sub(b XY) XY { return XY{a.X - b.X, a.Y - b.Y} }

// Rect is an inclusive-exclusive or inclusive-inclusive box depending on the
// caller; bounding boxes of units are inclusive on both ends.
type Rect struct {
	From, To XY
}

func (r Rect) Width() int  { return r.To.X - r.From.X }
func (r Rect) Height() int { return r.To.Y - r.From.Y }

// Intersects reports whether two inclusive boxes overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.From.X <= o.To.X && r.To.X >= o.From.X && r.From.Y <= o.To.Y && r.To.Y >= o.From.Y
}

// XYFP8 is a sub-pixel vector.
type XYFP8 struct {
	X, Y fixed.FP8
}

func (a XYFP8) Add(b XYFP8) XYFP8 { return XYFP8{a.X.Add(b.X), a.Y.Add(b.Y)} }
func (a XYFP8) Sub(b XYFP8) XYFP8 { return XYFP8{a.X.Sub(b.X), a.Y.Sub(b.Y)} }

// Mul scales both components by a fixed-point length.
func (a XYFP8) Mul(n fixed.FP8) XYFP8 { return XYFP8{a.X.Mul(n), a.Y.Mul(n)} }

// ToXY drops the fractional part.
func (a XYFP8) ToXY() XY {
	return XY{int(a.X.IntegerPart()), int(a.Y.IntegerPart())}
}

// ToXYFP8 promotes a pixel position.
func ToXYFP8(p XY) XYFP8 {
	return XYFP8{fixed.FP8Int(int64(p.X)), fixed.FP8Int(int64(p.Y))}
}

// RectDifference returns the per-axis gap between two boxes, zero where they
// overlap.
func RectDifference(a, b Rect) XY {
	var d XY
	switch {
	case a.From.X > b.To.X:
		d.X = a.From.X - b.To.X
	case b.From.X > a.To.X:
		d.X = b.From.X - a.To.X
	}
	switch {
	case a.From.Y > b.To.Y:
		d.Y = a.From.Y - b.To.Y
	case b.From.Y > a.To.Y:
		d.Y = b.From.Y - a.To.Y
	}
	return d
}

// XYLength is the octagonal distance approximation.
func XYLength(v XY) int {
	x := uint(abs(v.X))
	y := uint(abs(v.Y))
	if x < y {
		x, y = y, x
	}
	if x/4 < y {
		x = x - x/16 + (y*3)/8 - x/64 + (y*3)/256
	}
	return int(x)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
