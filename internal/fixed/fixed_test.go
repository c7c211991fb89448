package fixed

import "testing"

type s4f4 struct{}

func (s4f4) IntBits() uint  { return 4 }
func (s4f4) FracBits() uint { return 4 }
func (s4f4) Signed() bool   { return true }
func (s4f4) Exact() bool    { return true }

type u4f4 struct{}

func (u4f4) IntBits() uint  { return 4 }
func (u4f4) FracBits() uint { return 4 }
func (u4f4) Signed() bool   { return false }
func (u4f4) Exact() bool    { return true }

type s12f4 struct{}

func (s12f4) IntBits() uint  { return 12 }
func (s12f4) FracBits() uint { return 4 }
func (s12f4) Signed() bool   { return true }
func (s12f4) Exact() bool    { return false }

type u12f4 struct{}

func (u12f4) IntBits() uint  { return 12 }
func (u12f4) FracBits() uint { return 4 }
func (u12f4) Signed() bool   { return false }
func (u12f4) Exact() bool    { return false }

type s8f8 struct{}

func (s8f8) IntBits() uint  { return 8 }
func (s8f8) FracBits() uint { return 8 }
func (s8f8) Signed() bool   { return true }
func (s8f8) Exact() bool    { return false }

func TestTruncateExtendRoundTrip(t *testing.T) {
	for raw := int64(-128); raw < 128; raw++ {
		x := FromRaw[s4f4](raw)
		wide := Extend[s12f4](x)
		if wide.Raw() != x.Raw() {
			t.Fatalf("extend changed raw %d to %d", x.Raw(), wide.Raw())
		}
		if back := Truncate[s4f4](wide); back != x {
			t.Errorf("expected %d after round trip, got %d", x.Raw(), back.Raw())
		}
	}
	for raw := int64(0); raw < 256; raw++ {
		x := FromRaw[u4f4](raw)
		if back := Truncate[u4f4](Extend[u12f4](x)); back != x {
			t.Errorf("expected %d after unsigned round trip, got %d", x.Raw(), back.Raw())
		}
	}
	for raw := int64(-1 << 15); raw < 1<<15; raw += 97 {
		x := FromRaw[s8f8](raw)
		if back := Truncate[s8f8](Extend[FP8Format](x)); back != x {
			t.Errorf("expected %d after fp8 round trip, got %d", x.Raw(), back.Raw())
		}
	}
}

func TestFloorCeilBracket(t *testing.T) {
	// the top integer is excluded because its ceiling is not representable
	for raw := int64(-128); raw < 112; raw++ {
		x := FromRaw[s4f4](raw)
		if x.Floor().Cmp(x) > 0 || x.Ceil().Cmp(x) < 0 {
			t.Errorf("raw %d: floor %d ceil %d do not bracket", raw, x.Floor().Raw(), x.Ceil().Raw())
		}
	}
	for raw := int64(-5000); raw < 5000; raw += 7 {
		x := FP8Raw(raw)
		f, c := x.Floor(), x.Ceil()
		if f.Cmp(x) > 0 || c.Cmp(x) < 0 {
			t.Errorf("raw %d: floor %d ceil %d do not bracket", raw, f.Raw(), c.Raw())
		}
		if c.Sub(f).Raw() > 256 {
			t.Errorf("raw %d: floor and ceil more than one apart", raw)
		}
	}
}

func TestFloorCeilValues(t *testing.T) {
	tests := []struct {
		raw         int64
		floor, ceil int64
	}{
		{raw: 0, floor: 0, ceil: 0},
		{raw: 1, floor: 0, ceil: 256},
		{raw: 256, floor: 256, ceil: 256},
		{raw: -1, floor: -256, ceil: 0},
		{raw: -257, floor: -512, ceil: -256},
	}
	for _, tt := range tests {
		v := FP8Raw(tt.raw)
		if got := v.Floor().Raw(); got != tt.floor {
			t.Errorf("floor(%d): expected %d, got %d", tt.raw, tt.floor, got)
		}
		if got := v.Ceil().Raw(); got != tt.ceil {
			t.Errorf("ceil(%d): expected %d, got %d", tt.raw, tt.ceil, got)
		}
	}
}

func TestDirectionWrapsExactly(t *testing.T) {
	d := DirRaw(127).Add(DirRaw(1))
	if d.Raw() != -128 {
		t.Errorf("expected -128, got %d", d.Raw())
	}
	if d := DirRaw(-128).Sub(DirRaw(1)); d.Raw() != 127 {
		t.Errorf("expected 127, got %d", d.Raw())
	}
	if got := FP8ToDir(FP8Raw(300)).Raw(); got != 44 {
		t.Errorf("expected truncation to 44, got %d", got)
	}
}

func TestTruncatingDivision(t *testing.T) {
	a := FP8Int(7)
	b := FP8Int(2)
	if got := a.Div(b).Raw(); got != 896 {
		t.Errorf("expected 3.5 (896), got %d", got)
	}
	if got := FP8Raw(-7).DivInt(2).Raw(); got != -3 {
		t.Errorf("expected truncation toward zero (-3), got %d", got)
	}
	if got := FP8Raw(1).Div(FP8Int(3)).Raw(); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := FP8Raw(384).Mul(FP8Raw(384)).Raw(); got != 576 {
		t.Errorf("expected 1.5*1.5 = 576, got %d", got)
	}
}

func TestUnsignedConversion(t *testing.T) {
	u := UFP8Raw(0x1ff)
	if got := UFP8ToFP8(u).Raw(); got != 0x1ff {
		t.Errorf("expected 0x1ff, got %#x", got)
	}
	if got := FP8ToUFP8(FP8Raw(-40)).Raw(); got != 40 {
		t.Errorf("expected 40, got %d", got)
	}
	if got := UFP8Raw(0).Sub(UFP8Raw(1)).Raw(); got != 0xffffffff {
		t.Errorf("expected unsigned wrap to 0xffffffff, got %#x", got)
	}
}
