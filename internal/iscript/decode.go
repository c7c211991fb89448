package iscript

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// ErrMalformed is returned for an iscript.bin that cannot be decoded.
var ErrMalformed = errors.New("malformed iscript binary")

type binReader struct {
	b   []byte
	pos int
	err error
}

func (r *binReader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pos < 0 || r.pos+n > len(r.b) {
		r.err = fmt.Errorf("%w: read of %d bytes at %#x past end", ErrMalformed, n, r.pos)
		return false
	}
	return true
}

func (r *binReader) u8() int {
	if !r.need(1) {
		return 0
	}
	v := r.b[r.pos]
	r.pos++
	return int(v)
}

func (r *binReader) s8() int { return int(int8(r.u8())) }

func (r *binReader) u16() int {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.b[r.pos:])
	r.pos += 2
	return int(v)
}

func (r *binReader) s16() int { return int(int16(r.u16())) }

func (r *binReader) u32() int {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return int(v)
}

func (r *binReader) skip(n int) {
	if r.need(n) {
		r.pos += n
	}
}

type branchFixup struct {
	addr  int
	index int
}

// decoder translates one script. Addresses already translated for the same
// script are shared, so animations that fall into common code reuse it.
type decoder struct {
	p        *Program
	b        []byte
	seen     map[int]int
	branches []branchFixup
}

// decodeAt translates the code reachable from addr and then every branch
// target it queued, breadth first.
func (d *decoder) decodeAt(addr int) (int, error) {
	d.branches = d.branches[:0]
	pc, err := d.decode(addr)
	if err != nil {
		return 0, err
	}
	for len(d.branches) > 0 {
		f := d.branches[0]
		d.branches = d.branches[1:]
		target, err := d.decode(f.addr)
		if err != nil {
			return 0, err
		}
		d.p.Code[f.index] = target
	}
	return pc, nil
}

func (d *decoder) decode(addr int) (int, error) {
	if addr == 0 {
		return 0, fmt.Errorf("%w: decode at null address", ErrMalformed)
	}
	if pc, ok := d.seen[addr]; ok {
		return pc, nil
	}
	initial := len(d.p.Code)
	d.seen[addr] = initial
	r := binReader{b: d.b, pos: addr}
	for done := false; !done; {
		cur := r.pos
		if cur != addr {
			if prev, ok := d.seen[cur]; ok {
				// falls into code that is already translated
				d.p.Code = append(d.p.Code, Encode(OpGoto), prev)
				break
			}
			d.seen[cur] = len(d.p.Code)
		}
		v := r.u8()
		if r.err != nil {
			return 0, r.err
		}
		op := Opcode(v)
		if !op.Valid() {
			return 0, fmt.Errorf("%w: at %#04x: invalid instruction %d", ErrMalformed, cur, v)
		}
		d.p.Code = append(d.p.Code, Encode(op))
		for _, k := range opcodeOperands[op] {
			switch k {
			case operandS8:
				d.p.Code = append(d.p.Code, r.s8())
			case operandS16:
				d.p.Code = append(d.p.Code, r.s16())
			case operandU8:
				d.p.Code = append(d.p.Code, r.u8())
			case operandU16:
				d.p.Code = append(d.p.Code, r.u16())
			case operandList:
				n := r.u8()
				d.p.Code = append(d.p.Code, n)
				for ; n > 0; n-- {
					d.p.Code = append(d.p.Code, r.u16())
				}
			case operandJump:
				target := r.u16()
				if pc, ok := d.seen[target]; ok {
					d.p.Code = append(d.p.Code, pc)
					done = true
				} else {
					// Inline the target in place of the goto.
					d.p.Code = d.p.Code[:len(d.p.Code)-1]
					r.pos = target
				}
			case operandBranch:
				d.branches = append(d.branches, branchFixup{addr: r.u16(), index: len(d.p.Code)})
				d.p.Code = append(d.p.Code, 0)
			}
		}
		if op == OpEnd {
			done = true
		}
		if r.err != nil {
			return 0, r.err
		}
	}
	return initial, nil
}

// DecodeBin decodes the legacy iscript.bin layout. The file starts with a
// uint32 offset to the id list, a run of (int16 id, uint16 address) pairs
// terminated by id -1. Each script header is a 4 byte signature, a uint32
// highest animation index and (highest+2)&^1 uint16 animation addresses.
func DecodeBin(b []byte) (*Program, error) {
	p := NewProgram()
	r := binReader{b: b}
	r.pos = r.u32()
	if r.err == nil && r.pos >= len(b) {
		return nil, fmt.Errorf("%w: id list offset %#x past end", ErrMalformed, r.pos)
	}
	for r.err == nil && r.pos < len(b) {
		id := r.s16()
		if id == -1 {
			break
		}
		addr := r.u16()
		if r.err != nil {
			break
		}
		if _, dup := p.Scripts[id]; dup {
			return nil, fmt.Errorf("%w: duplicate script id %d", ErrMalformed, id)
		}
		s, err := decodeScript(p, b, id, addr)
		if err != nil {
			return nil, fmt.Errorf("decode script %d: %w", id, err)
		}
		p.Scripts[id] = s
	}
	if r.err != nil {
		return nil, fmt.Errorf("decode id list: %w", r.err)
	}
	return p, nil
}

func decodeScript(p *Program, b []byte, id, addr int) (*Script, error) {
	sr := binReader{b: b, pos: addr}
	sr.skip(4)
	highest := sr.u32()
	if sr.err != nil {
		return nil, sr.err
	}
	n := (highest + 2) &^ 1
	if n > 2*int(NumAnims) {
		return nil, fmt.Errorf("%w: %d animations", ErrMalformed, n)
	}
	d := &decoder{p: p, b: b, seen: make(map[int]int)}
	s := &Script{ID: id, Anims: make([]int, n)}
	for i := 0; i < n; i++ {
		a := sr.u16()
		if sr.err != nil {
			return nil, sr.err
		}
		if a == 0 {
			continue
		}
		pc, err := d.decodeAt(a)
		if err != nil {
			return nil, fmt.Errorf("animation %s: %w", Anim(i), err)
		}
		s.Anims[i] = pc
	}
	return s, nil
}

// LoadBin reads and decodes an iscript.bin file.
func LoadBin(path string) (*Program, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read iscript: %w", err)
	}
	return DecodeBin(b)
}
