package geom

import (
	"sort"

	"github.com/drevilslab/openbw/internal/fixed"
)

// arctanInv holds the tangent thresholds of the 64 directions in one octant
// pair, as 24.8 raw values.
var arctanInv = [64]uint64{
	7, 13, 19, 26, 32, 38, 45, 51, 58, 65, 71, 78, 85, 92,
	99, 107, 114, 122, 129, 137, 146, 154, 163, 172, 181,
	190, 200, 211, 221, 233, 244, 256, 269, 283, 297, 312,
	329, 346, 364, 384, 405, 428, 452, 479, 509, 542, 578,
	619, 664, 716, 775, 844, 926, 1023, 1141, 1287, 1476,
	1726, 2076, 2600, 3471, 5211, 10429, 1<<32 - 1,
}

// DirectionTable maps a direction index to a unit vector in 24.8.
var DirectionTable = buildDirectionTable()

// intSin returns round(sin(pi/128*x)*256) for x in [0, 64] with integer
// arithmetic only.
func intSin(x int64) int64 {
	x2 := x * x
	x3 := x2 * x
	x4 := x3 * x
	x5 := x4 * x
	const (
		a0 = 26980449732
		a1 = 1140609
		a2 = -2785716
		a3 = 2159
		a4 = 58
	)
	return (x*a0 + x2*a1 + x3*a2 + x4*a3 + x5*a4 + 1<<31) >> 32
}

func buildDirectionTable() [256]XYFP8 {
	var t [256]XYFP8
	for i := 0; i <= 64; i++ {
		v := fixed.FP8Raw(intSin(int64(i)))
		t[i].X = v
		t[64-i].Y = v.Neg()
		t[128-i].X = v
		t[64+i].Y = v
		t[128+i].X = v.Neg()
		t[192-i].Y = v
		t[(256-i)%256].X = v.Neg()
		t[(192+i)%256].Y = v.Neg()
	}
	return t
}

// DirectionIndex maps a heading to [0, 256).
func DirectionIndex(d fixed.Direction) int {
	v := d.FractionalPart()
	if v < 0 {
		return int(256 + v)
	}
	return int(v)
}

// DirectionXY scales the unit vector of d by length.
func DirectionXY(d fixed.Direction, length fixed.FP8) XYFP8 {
	return DirectionTable[DirectionIndex(d)].Mul(length)
}

// atan maps a signed 24.8 tangent, given as its raw value at any width, to a
// direction in [-63, 63] by binary search over the threshold table.
func atan(raw int64) fixed.Direction {
	negative := raw < 0
	if negative {
		raw = -raw
	}
	var r int
	if uint64(raw) > 1<<32-1 {
		r = 63
	} else {
		r = sort.Search(len(arctanInv), func(i int) bool { return arctanInv[i] > uint64(raw) })
	}
	if negative {
		return fixed.DirRaw(int64(-r))
	}
	return fixed.DirRaw(int64(r))
}

// XYDirection returns the heading that points along v. Heading 0 is north
// and directions grow clockwise.
func XYDirection(v XY) fixed.Direction {
	if v.X == 0 {
		if v.Y <= 0 {
			return fixed.DirRaw(0)
		}
		return fixed.DirRaw(-128)
	}
	q := fixed.FP8Int(int64(v.Y)).DivInt(int64(v.X))
	r := atan(q.Raw())
	if v.X > 0 {
		return r.Add(fixed.DirRaw(64))
	}
	return r.Sub(fixed.DirRaw(64))
}

// XYDirectionFP8 is XYDirection for sub-pixel vectors. The quotient keeps its
// full width before the table lookup.
func XYDirectionFP8(v XYFP8) fixed.Direction {
	if v.X.IsZero() {
		if v.Y.Raw() <= 0 {
			return fixed.DirRaw(0)
		}
		return fixed.DirRaw(-128)
	}
	r := atan(v.Y.DivRaw(v.X))
	if v.X.Raw() > 0 {
		return r.Add(fixed.DirRaw(64))
	}
	return r.Sub(fixed.DirRaw(64))
}
