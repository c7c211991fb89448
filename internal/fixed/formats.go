package fixed

// FP8Format is the 24.8 signed format used for positions, speeds and hit points.
type FP8Format struct{}

func (FP8Format) IntBits() uint  { return 24 }
func (FP8Format) FracBits() uint { return 8 }
func (FP8Format) Signed() bool   { return true }
func (FP8Format) Exact() bool    { return false }

// UFP8Format is the unsigned 24.8 format used for turn rates and top speeds.
type UFP8Format struct{}

func (UFP8Format) IntBits() uint  { return 24 }
func (UFP8Format) FracBits() uint { return 8 }
func (UFP8Format) Signed() bool   { return false }
func (UFP8Format) Exact() bool    { return false }

// SFP8Wide is the 25.8 signed format produced by AsSigned on a UFP8.
type SFP8Wide struct{}

func (SFP8Wide) IntBits() uint  { return 25 }
func (SFP8Wide) FracBits() uint { return 8 }
func (SFP8Wide) Signed() bool   { return true }
func (SFP8Wide) Exact() bool    { return false }

// DirectionFormat holds a heading: 256 steps per revolution, wrapping exactly
// at 8 bits so that 127+1 == -128.
type DirectionFormat struct{}

func (DirectionFormat) IntBits() uint  { return 0 }
func (DirectionFormat) FracBits() uint { return 8 }
func (DirectionFormat) Signed() bool   { return true }
func (DirectionFormat) Exact() bool    { return true }

type (
	FP8       = Value[FP8Format]
	UFP8      = Value[UFP8Format]
	Direction = Value[DirectionFormat]
)

func FP8Int(n int64) FP8       { return Integer[FP8Format](n) }
func FP8Raw(r int64) FP8       { return FromRaw[FP8Format](r) }
func UFP8Int(n int64) UFP8     { return Integer[UFP8Format](n) }
func UFP8Raw(r int64) UFP8     { return FromRaw[UFP8Format](r) }
func DirRaw(r int64) Direction { return FromRaw[DirectionFormat](r) }
func FP8ToDir(v FP8) Direction { return Truncate[DirectionFormat](v) }
func DirToFP8(d Direction) FP8 { return Extend[FP8Format](d) }
func UFP8ToFP8(v UFP8) FP8     { return Truncate[FP8Format](AsSigned[SFP8Wide](v)) }
func FP8ToUFP8(v FP8) UFP8     { return AsUnsigned[UFP8Format](v) }
