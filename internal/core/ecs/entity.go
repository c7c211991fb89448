package ecs

// Handle encodes an 11-bit slot index in the lower bits and a 5-bit generation
// in the upper bits. Slot indices are 1-based; index 0 is the nil handle.
// Generation increments when a slot is recycled to invalidate stale refs.
type Handle uint16

const (
	indexBits       = 11
	indexMask       = 1<<indexBits - 1
	generationCount = 32

	// MaxHandleSlots is the largest pool a Handle can address.
	MaxHandleSlots = indexMask
)

func NewHandle(slot int32, generation uint8) Handle {
	return Handle(uint16(slot)&indexMask | uint16(generation)<<indexBits)
}

func (h Handle) Index() int32         { return int32(h & indexMask) }
func (h Handle) Generation() uint8    { return uint8(h >> indexBits) }
func (h Handle) IsNil() bool          { return h.Index() == 0 }
func (h Handle) Raw() uint16          { return uint16(h) }
func HandleFromRaw(raw uint16) Handle { return Handle(raw) }
