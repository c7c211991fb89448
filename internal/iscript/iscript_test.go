package iscript

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

// binBuilder lays out a fake iscript.bin with code at fixed addresses.
type binBuilder struct {
	b []byte
}

func (bb *binBuilder) at(addr int, data ...byte) {
	for len(bb.b) < addr+len(data) {
		bb.b = append(bb.b, 0)
	}
	copy(bb.b[addr:], data)
}

func (bb *binBuilder) u16(addr, v int) {
	bb.at(addr, byte(v), byte(v>>8))
}

// header writes a script header with the given animation addresses at addr.
func (bb *binBuilder) header(addr int, anims ...int) {
	bb.at(addr, 'S', 'C', 'P', 'E')
	bb.at(addr+4, 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(bb.b[addr+4:], uint32(len(anims)-1))
	for i, a := range anims {
		bb.u16(addr+8+2*i, a)
	}
}

func (bb *binBuilder) idList(addr int, pairs ...int) {
	bb.at(0, 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(bb.b, uint32(addr))
	for i := 0; i < len(pairs); i += 2 {
		bb.u16(addr+2*i, pairs[i])
		bb.u16(addr+2*i+2, pairs[i+1])
	}
	bb.u16(addr+2*len(pairs), 0xffff)
}

func op(o Opcode) byte { return byte(o) }

func sampleBin() []byte {
	var bb binBuilder
	bb.header(4, 16, 22)
	bb.at(16, op(OpPlayFram), 5, 0)
	bb.at(19, op(OpGoto), 30, 0)
	bb.at(22, op(OpWait), 1)
	bb.at(24, op(OpGoto), 16, 0)
	bb.at(30, op(OpRandCondJmp), 128, 22, 0)
	bb.at(34, op(OpEnd))
	bb.idList(36, 0, 4)
	return bb.b
}

func TestDecodeBinInlinesJumpsAndFixesBranches(t *testing.T) {
	p, err := DecodeBin(sampleBin())
	if err != nil {
		t.Fatalf("DecodeBin failed: %v", err)
	}
	want := []int{
		0,
		Encode(OpPlayFram), 5,
		Encode(OpRandCondJmp), 128, 7,
		Encode(OpEnd),
		Encode(OpWait), 1,
		Encode(OpGoto), 1,
	}
	if len(p.Code) != len(want) {
		t.Fatalf("expected %d words, got %d: %v", len(want), len(p.Code), p.Code)
	}
	for i := range want {
		if p.Code[i] != want[i] {
			t.Errorf("word %d: expected %d, got %d", i, want[i], p.Code[i])
		}
	}
	s, ok := p.Script(0)
	if !ok {
		t.Fatal("expected script 0")
	}
	if s.AnimPC(AnimInit) != 1 {
		t.Errorf("expected Init at pc 1, got %d", s.AnimPC(AnimInit))
	}
	if s.AnimPC(AnimDeath) != 7 {
		t.Errorf("expected Death at pc 7, got %d", s.AnimPC(AnimDeath))
	}
	if s.AnimPC(AnimWalking) != 0 {
		t.Errorf("expected no Walking animation, got pc %d", s.AnimPC(AnimWalking))
	}
}

func TestDecodeBinFallthroughBecomesGoto(t *testing.T) {
	var bb binBuilder
	bb.header(4, 50, 48)
	bb.at(48, op(OpWait), 9)
	bb.at(50, op(OpPlayFram), 1, 0)
	bb.at(53, op(OpWait), 3)
	bb.at(55, op(OpEnd))
	bb.idList(60, 7, 4)
	p, err := DecodeBin(bb.b)
	if err != nil {
		t.Fatalf("DecodeBin failed: %v", err)
	}
	s, _ := p.Script(7)
	death := s.AnimPC(AnimDeath)
	in, err := p.At(death)
	if err != nil {
		t.Fatalf("At(%d) failed: %v", death, err)
	}
	if in.Op != OpWait || in.Args[0] != 9 {
		t.Fatalf("expected wait 9, got %s %v", in.Op, in.Args)
	}
	next, err := p.At(in.Next)
	if err != nil {
		t.Fatalf("At(%d) failed: %v", in.Next, err)
	}
	if next.Op != OpGoto || next.Args[0] != s.AnimPC(AnimInit) {
		t.Errorf("expected goto %d, got %s %v", s.AnimPC(AnimInit), next.Op, next.Args)
	}
}

func TestDecodeBinRejectsInvalidOpcode(t *testing.T) {
	var bb binBuilder
	bb.header(4, 16, 0)
	bb.at(16, 99)
	bb.idList(20, 1, 4)
	if _, err := DecodeBin(bb.b); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestDecodeBinTruncated(t *testing.T) {
	b := sampleBin()
	if _, err := DecodeBin(b[:20]); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

const sampleSource = `
marine_init:
  playfram 0          # idle frame
  waitrand 63 75
marine_loop:
  wait 1
  playsndrand 100 101 102
  randcondjmp 128 marine_alt
  goto marine_loop
marine_alt:
  turnrand 3
  end
`

func TestAssemble(t *testing.T) {
	p, err := Assemble(&Doc{
		Scripts: []ScriptDoc{{ID: 0, Anims: map[string]string{"Init": "marine_init", "Walking": "marine_loop"}}},
		Code:    sampleSource,
	})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	s, _ := p.Script(0)
	if s.AnimPC(AnimInit) != 1 {
		t.Errorf("expected Init at pc 1, got %d", s.AnimPC(AnimInit))
	}
	// playfram(2) + waitrand(3)
	if s.AnimPC(AnimWalking) != 6 {
		t.Errorf("expected Walking at pc 6, got %d", s.AnimPC(AnimWalking))
	}
	in, err := p.At(8)
	if err != nil {
		t.Fatalf("At(8) failed: %v", err)
	}
	if in.Op != OpPlaySndRand || len(in.Args) != 4 || in.Args[0] != 3 {
		t.Errorf("expected playsndrand with 3 sounds, got %s %v", in.Op, in.Args)
	}
	jmp, err := p.At(in.Next)
	if err != nil {
		t.Fatalf("At(%d) failed: %v", in.Next, err)
	}
	// randcondjmp(3) + goto(2) follow
	if jmp.Op != OpRandCondJmp || jmp.Args[1] != jmp.Next+2 {
		t.Errorf("expected branch to pc %d, got %s %v", jmp.Next+2, jmp.Op, jmp.Args)
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"unknown opcode", "frobnicate 1"},
		{"undefined label", "goto nowhere"},
		{"operand range", "wait 300"},
		{"signed range", "sethorpos -129"},
		{"operand count", "waitrand 1"},
		{"duplicate label", "a:\na:\n end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Assemble(&Doc{Code: tt.code}); !errors.Is(err, ErrSyntax) {
				t.Errorf("expected ErrSyntax, got %v", err)
			}
		})
	}
}

func TestToDocReassembles(t *testing.T) {
	p, err := DecodeBin(sampleBin())
	if err != nil {
		t.Fatalf("DecodeBin failed: %v", err)
	}
	doc, err := ToDoc(p)
	if err != nil {
		t.Fatalf("ToDoc failed: %v", err)
	}
	q, err := Assemble(doc)
	if err != nil {
		t.Fatalf("Assemble failed: %v\n%s", err, doc.Code)
	}
	if len(q.Code) != len(p.Code) {
		t.Fatalf("expected %d words, got %d", len(p.Code), len(q.Code))
	}
	for i := range p.Code {
		if q.Code[i] != p.Code[i] {
			t.Errorf("word %d: expected %d, got %d", i, p.Code[i], q.Code[i])
		}
	}
	s, _ := q.Script(0)
	if s.AnimPC(AnimDeath) != 7 {
		t.Errorf("expected Death at pc 7, got %d", s.AnimPC(AnimDeath))
	}
}

func TestDisassemble(t *testing.T) {
	p, err := DecodeBin(sampleBin())
	if err != nil {
		t.Fatalf("DecodeBin failed: %v", err)
	}
	var buf bytes.Buffer
	if err := Disassemble(p, &buf); err != nil {
		t.Fatalf("Disassemble failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"script 0", "randcondjmp 128 L7", "goto L1", "L7:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected listing to contain %q, got:\n%s", want, out)
		}
	}
}

func TestDecodeOpcode(t *testing.T) {
	if op, ok := DecodeOpcode(Encode(OpDoGrdDamage)); !ok || op != OpDoGrdDamage {
		t.Errorf("expected dogrddamage, got %v %v", op, ok)
	}
	if _, ok := DecodeOpcode(5); ok {
		t.Error("expected a raw operand to decode as invalid")
	}
	if NumOpcodes != 69 {
		t.Errorf("expected 69 opcodes, got %d", NumOpcodes)
	}
}
