// Package fixed implements the fixed-point number family used for every
// position, speed and timer in the simulation.
//
// A Value stores a raw integer scaled by 2^FracBits. All arithmetic is done on
// a 64-bit intermediate and truncated (never rounded) back into the storage
// width of the format.
package fixed

// Format describes the bit layout of a fixed-point type. Implementations are
// empty marker structs; the methods must be constant.
type Format interface {
	IntBits() uint
	FracBits() uint
	Signed() bool
	// Exact formats wrap at exactly IntBits+FracBits bits. Other formats wrap at
	// the smallest storage width (8, 16, 32 or 64 bits) that can hold them.
	Exact() bool
}

// Value is a fixed-point number in format F.
type Value[F Format] struct {
	raw int64
}

func totalBits(f Format) uint { return f.IntBits() + f.FracBits() }

func storageBits(f Format) uint {
	n := totalBits(f)
	switch {
	case n <= 8:
		return 8
	case n <= 16:
		return 16
	case n <= 32:
		return 32
	}
	return 64
}

// wrap brings raw back into the representable range of F.
func wrap[F Format](raw int64) int64 {
	var f F
	bits := storageBits(f)
	if f.Exact() {
		bits = totalBits(f)
	}
	if bits >= 64 {
		return raw
	}
	if f.Signed() {
		shift := 64 - bits
		return raw << shift >> shift
	}
	return int64(uint64(raw) & (uint64(1)<<bits - 1))
}

// FromRaw builds a value from its raw representation.
func FromRaw[F Format](raw int64) Value[F] {
	return Value[F]{raw: wrap[F](raw)}
}

// Integer builds the value n.0.
func Integer[F Format](n int64) Value[F] {
	var f F
	return FromRaw[F](n << f.FracBits())
}

// Zero returns 0 in format F.
func Zero[F Format]() Value[F] { return Value[F]{} }

// Convert reinterprets the raw bits of v in format To and re-wraps them.
// Widening (extend) never changes the value; narrowing (truncate) keeps the
// low bits.
func Convert[To, From Format](v Value[From]) Value[To] {
	var to To
	var from From
	if to.FracBits() != from.FracBits() {
		panic("fixed: convert between different fractional widths")
	}
	return FromRaw[To](v.raw)
}

// Truncate narrows v into format To.
func Truncate[To, From Format](v Value[From]) Value[To] { return Convert[To](v) }

// Extend widens v into format To.
func Extend[To, From Format](v Value[From]) Value[To] { return Convert[To](v) }

// AsSigned reinterprets an unsigned value as a signed one with one extra integer bit.
func AsSigned[To, From Format](v Value[From]) Value[To] {
	var to To
	var from From
	if from.Signed() || !to.Signed() || to.IntBits() < from.IntBits() {
		panic("fixed: as_signed format mismatch")
	}
	return Convert[To](v)
}

// AsUnsigned returns |v| in unsigned format To.
func AsUnsigned[To, From Format](v Value[From]) Value[To] {
	var to To
	if to.Signed() {
		panic("fixed: as_unsigned into a signed format")
	}
	return Convert[To](v.Abs())
}

func (v Value[F]) Raw() int64 { return v.raw }

func (v Value[F]) IntegerPart() int64 {
	var f F
	return v.raw >> f.FracBits()
}

func (v Value[F]) FractionalPart() int64 {
	var f F
	return wrap[F](v.raw & (int64(1)<<f.FracBits() - 1))
}

func (v Value[F]) Floor() Value[F] {
	return Integer[F](v.IntegerPart())
}

func (v Value[F]) Ceil() Value[F] {
	var f F
	return FromRaw[F](v.raw + int64(1)<<f.FracBits() - 1).Floor()
}

func (v Value[F]) Abs() Value[F] {
	if v.raw < 0 {
		return FromRaw[F](-v.raw)
	}
	return v
}

func (v Value[F]) Add(o Value[F]) Value[F] { return FromRaw[F](v.raw + o.raw) }
func (v Value[F]) Sub(o Value[F]) Value[F] { return FromRaw[F](v.raw - o.raw) }

func (v Value[F]) Neg() Value[F] {
	var f F
	if !f.Signed() {
		panic("fixed: negation of an unsigned value")
	}
	return FromRaw[F](-v.raw)
}

// MulInt multiplies by an integer.
func (v Value[F]) MulInt(n int64) Value[F] { return FromRaw[F](v.raw * n) }

// DivInt divides by an integer, truncating toward zero.
func (v Value[F]) DivInt(n int64) Value[F] { return FromRaw[F](v.raw / n) }

// Mul multiplies two values; the product is formed at full width and then
// shifted down by the fractional width.
func (v Value[F]) Mul(o Value[F]) Value[F] {
	var f F
	return FromRaw[F](v.raw * o.raw >> f.FracBits())
}

// DivRaw returns the raw quotient of v/o before it is narrowed back into F.
// The dividend is scaled up by the fractional width first.
func (v Value[F]) DivRaw(o Value[F]) int64 {
	var f F
	return (v.raw << f.FracBits()) / o.raw
}

func (v Value[F]) Div(o Value[F]) Value[F] { return FromRaw[F](v.DivRaw(o)) }

// ShiftRight is an arithmetic shift of the raw value.
func (v Value[F]) ShiftRight(n uint) Value[F] { return FromRaw[F](v.raw >> n) }

func (v Value[F]) Cmp(o Value[F]) int {
	switch {
	case v.raw < o.raw:
		return -1
	case v.raw > o.raw:
		return 1
	}
	return 0
}

func (v Value[F]) Less(o Value[F]) bool { return v.raw < o.raw }
func (v Value[F]) IsZero() bool         { return v.raw == 0 }
