package system

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseTimers   Phase = iota // 0: global countdowns, order timer staggering
	PhaseMovement              // 1: movement of visible units
	PhaseVision                // 2: scanner vision, sprite visibility
	PhaseUnits                 // 3: orders and scripts of visible units
	PhaseHidden                // 4: units that are not on the map
	PhaseScanner               // 5: scanner sweeps
)

// System is one stage of a tick.
type System interface {
	Phase() Phase
	Update()
}

// Func adapts a plain function to System.
type Func struct {
	P  Phase
	Fn func()
}

func (f Func) Phase() Phase { return f.P }
func (f Func) Update()      { f.Fn() }
