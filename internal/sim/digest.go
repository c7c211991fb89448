package sim

import (
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/drevilslab/openbw/internal/world"
)

// DigestSize is the length of a state digest in bytes.
const DigestSize = blake2b.Size256

// digestWriter feeds fixed width little endian values to a hash.
type digestWriter struct {
	h   hash.Hash
	buf [8]byte
}

func (w *digestWriter) i64(v int64) {
	binary.LittleEndian.PutUint64(w.buf[:], uint64(v))
	w.h.Write(w.buf[:])
}

func (w *digestWriter) int(v int)    { w.i64(int64(v)) }
func (w *digestWriter) u32(v uint32) { w.i64(int64(v)) }

func (w *digestWriter) xy(x, y int) {
	w.int(x)
	w.int(y)
}

// Digest hashes the parts of st that a deterministic replay must
// reproduce: the frame, the random number generator and every live unit,
// sprite and image. Two games that ran the same frames from the same seed
// have equal digests.
func Digest(st *world.State) [DigestSize]byte {
	h, _ := blake2b.New256(nil)
	w := &digestWriter{h: h}

	w.int(st.Frame)
	w.u32(st.RNG.State())
	w.int(st.RNG.Total())
	for _, c := range st.RNG.Counts() {
		w.int(c)
	}

	for slot := int32(1); slot <= int32(st.Units.Cap()); slot++ {
		if !st.Units.Live(slot) {
			continue
		}
		digestUnit(w, st, st.Units.Get(slot))
	}
	for slot := int32(1); slot <= int32(st.Sprites.Cap()); slot++ {
		if !st.Sprites.Live(slot) {
			continue
		}
		sp := st.Sprites.Get(slot)
		w.int(int(slot))
		w.xy(sp.Position.X, sp.Position.Y)
		w.int(int(sp.Flags))
		w.u32(sp.VisibilityFlags)
		st.EachImage(sp, func(img *world.Image) {
			w.int(img.Type.ID)
			w.int(img.FrameIndex)
			w.xy(img.Offset.X, img.Offset.Y)
			w.int(img.Iscript.PC)
			w.int(img.Iscript.Wait)
			w.int(int(img.Iscript.Animation))
		})
	}

	var sum [DigestSize]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func digestUnit(w *digestWriter, st *world.State, u *world.Unit) {
	w.int(int(st.UnitHandle(u)))
	w.int(int(u.Type.ID))
	w.int(u.Owner)
	w.xy(u.Position.X, u.Position.Y)
	w.i64(u.Halt.X.Raw())
	w.i64(u.Halt.Y.Raw())
	w.i64(u.Heading.Raw())
	w.i64(u.VelocityDirection.Raw())
	w.i64(u.Velocity.X.Raw())
	w.i64(u.Velocity.Y.Raw())
	w.i64(u.CurrentSpeed.Raw())
	w.i64(u.TopSpeed.Raw())
	w.i64(u.HP.Raw())
	w.i64(u.Shields.Raw())
	w.i64(u.Energy.Raw())
	w.u32(uint32(u.StatusFlags))
	w.int(int(u.MovementFlags))
	w.int(int(u.MovementState))
	w.int(int(u.OrderType.ID))
	w.int(u.OrderState)
	w.int(int(u.SecondaryOrderType.ID))
	w.int(u.MainOrderTimer)
	w.int(u.OrderQueueTimer)
	w.int(int(u.Subunit))
	u.OrderQueue.Each(func(s int32) {
		o := st.Orders.Get(s)
		w.int(int(o.Type.ID))
		w.xy(o.Target.Pos.X, o.Target.Pos.Y)
		w.int(int(o.Target.Unit))
	})
}
