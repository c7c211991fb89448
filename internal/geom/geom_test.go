package geom

import (
	"testing"

	"github.com/drevilslab/openbw/internal/fixed"
)

func TestDirectionTableCardinals(t *testing.T) {
	tests := []struct {
		index int
		x, y  int64
	}{
		{0, 0, -256},
		{32, 181, -181},
		{64, 256, 0},
		{96, 181, 181},
		{128, 0, 256},
		{192, -256, 0},
	}
	for _, tt := range tests {
		v := DirectionTable[tt.index]
		if v.X.Raw() != tt.x || v.Y.Raw() != tt.y {
			t.Errorf("table[%d]: expected (%d, %d), got (%d, %d)", tt.index, tt.x, tt.y, v.X.Raw(), v.Y.Raw())
		}
	}
}

func TestXYDirection(t *testing.T) {
	tests := []struct {
		v    XY
		want int
	}{
		{XY{0, -10}, 0},
		{XY{0, 0}, 0},
		{XY{10, 0}, 64},
		{XY{0, 10}, 128},
		{XY{-10, 0}, 192},
		{XY{10, 10}, 96},
		{XY{-10, -10}, 224},
		{XY{-10, 10}, 160},
		{XY{10, -10}, 32},
	}
	for _, tt := range tests {
		if got := DirectionIndex(XYDirection(tt.v)); got != tt.want {
			t.Errorf("XYDirection(%v): expected %d, got %d", tt.v, tt.want, got)
		}
	}
}

func TestXYDirectionFP8MatchesIntegerForm(t *testing.T) {
	for x := -20; x <= 20; x += 3 {
		for y := -20; y <= 20; y += 4 {
			v := XY{x, y}
			a := XYDirection(v)
			b := XYDirectionFP8(ToXYFP8(v))
			if a != b {
				t.Errorf("%v: integer form %d, fp8 form %d", v, a.Raw(), b.Raw())
			}
		}
	}
}

func TestDirectionXY(t *testing.T) {
	v := DirectionXY(fixed.DirRaw(64), fixed.FP8Int(4))
	if v.X.Raw() != 1024 || v.Y.Raw() != 0 {
		t.Errorf("expected (1024, 0), got (%d, %d)", v.X.Raw(), v.Y.Raw())
	}
	v = DirectionXY(fixed.DirRaw(-128), fixed.FP8Int(1))
	if v.X.Raw() != 0 || v.Y.Raw() != 256 {
		t.Errorf("expected (0, 256), got (%d, %d)", v.X.Raw(), v.Y.Raw())
	}
}

func TestXYLength(t *testing.T) {
	tests := []struct {
		v    XY
		want int
	}{
		{XY{0, 0}, 0},
		{XY{100, 0}, 100},
		{XY{0, -100}, 100},
		{XY{100, 10}, 100},
		// 100 - 6 + 37 - 1 + 1
		{XY{100, 100}, 131},
	}
	for _, tt := range tests {
		if got := XYLength(tt.v); got != tt.want {
			t.Errorf("XYLength(%v): expected %d, got %d", tt.v, tt.want, got)
		}
	}
}

func TestRectDifference(t *testing.T) {
	a := Rect{XY{0, 0}, XY{10, 10}}
	b := Rect{XY{20, 5}, XY{30, 8}}
	if d := RectDifference(a, b); d != (XY{10, 0}) {
		t.Errorf("expected (10, 0), got %v", d)
	}
	if d := RectDifference(b, a); d != (XY{10, 0}) {
		t.Errorf("expected symmetric (10, 0), got %v", d)
	}
	if d := RectDifference(a, a); d != (XY{}) {
		t.Errorf("expected zero for overlap, got %v", d)
	}
}
