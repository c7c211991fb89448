package iscript

import (
	"fmt"
	"sort"
)

// Anim is an animation entry point of a script.
type Anim int

const (
	AnimInit Anim = iota
	AnimDeath
	AnimGndAttkInit
	AnimAirAttkInit
	AnimUnused1
	AnimGndAttkRpt
	AnimAirAttkRpt
	AnimCastSpell
	AnimGndAttkToIdle
	AnimAirAttkToIdle
	AnimUnused2
	AnimWalking
	AnimWalkingToIdle
	AnimSpecialState1
	AnimSpecialState2
	AnimAlmostBuilt
	AnimBuilt
	AnimLanding
	AnimLiftOff
	AnimIsWorking
	AnimWorkingToIdle
	AnimWarpIn
	AnimUnused3
	AnimStarEditInit
	AnimDisable
	AnimBurrow
	AnimUnBurrow
	AnimEnable

	NumAnims
)

var animNames = [NumAnims]string{
	"Init", "Death", "GndAttkInit", "AirAttkInit", "Unused1", "GndAttkRpt", "AirAttkRpt",
	"CastSpell", "GndAttkToIdle", "AirAttkToIdle", "Unused2", "Walking", "WalkingToIdle",
	"SpecialState1", "SpecialState2", "AlmostBuilt", "Built", "Landing", "LiftOff", "IsWorking",
	"WorkingToIdle", "WarpIn", "Unused3", "StarEditInit", "Disable", "Burrow", "UnBurrow", "Enable",
}

func (a Anim) String() string {
	if a < 0 || a >= NumAnims {
		return fmt.Sprintf("Anim(%d)", int(a))
	}
	return animNames[a]
}

// AnimByName looks an animation up by name.
func AnimByName(name string) (Anim, bool) {
	for i, n := range animNames {
		if n == name {
			return Anim(i), true
		}
	}
	return 0, false
}

// Script is one iscript entry: a pc per animation, 0 where the script has no
// such animation.
type Script struct {
	ID    int
	Anims []int
}

// AnimPC returns the entry pc of anim, or 0.
func (s *Script) AnimPC(a Anim) int {
	if s == nil || a < 0 || int(a) >= len(s.Anims) {
		return 0
	}
	return s.Anims[a]
}

// Program is the decoded instruction buffer shared by every script. Index 0
// is the null pc and never holds an instruction.
type Program struct {
	Code    []int
	Scripts map[int]*Script
}

func NewProgram() *Program {
	return &Program{Code: []int{0}, Scripts: make(map[int]*Script)}
}

// Script returns the script with the given id.
func (p *Program) Script(id int) (*Script, bool) {
	s, ok := p.Scripts[id]
	return s, ok
}

// ScriptIDs returns the script ids in ascending order.
func (p *Program) ScriptIDs() []int {
	ids := make([]int, 0, len(p.Scripts))
	for id := range p.Scripts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// State is the execution state an image carries between ticks.
type State struct {
	Script        *Script
	PC            int
	ReturnAddress int
	Animation     Anim
	Wait          int
}

// Instruction is one decoded instruction. Args holds the operands in program
// order; a 'v' list contributes its count followed by the values.
type Instruction struct {
	PC   int
	Op   Opcode
	Args []int
	Next int
}

// At decodes the instruction at pc.
func (p *Program) At(pc int) (Instruction, error) {
	if pc <= 0 || pc >= len(p.Code) {
		return Instruction{}, fmt.Errorf("pc %d out of range", pc)
	}
	op, ok := DecodeOpcode(p.Code[pc])
	if !ok {
		return Instruction{}, fmt.Errorf("pc %d: invalid opcode %#x", pc, p.Code[pc])
	}
	in := Instruction{PC: pc, Op: op}
	i := pc + 1
	for _, k := range opcodeOperands[op] {
		if i >= len(p.Code) {
			return Instruction{}, fmt.Errorf("pc %d: %s truncated", pc, op)
		}
		in.Args = append(in.Args, p.Code[i])
		i++
		if k == operandList {
			n := p.Code[i-1]
			if i+n > len(p.Code) {
				return Instruction{}, fmt.Errorf("pc %d: %s list truncated", pc, op)
			}
			in.Args = append(in.Args, p.Code[i:i+n]...)
			i += n
		}
	}
	in.Next = i
	return in, nil
}

// Targets returns the indices into Args that hold a pc.
func (in Instruction) Targets() []int {
	var out []int
	j := 0
	for _, k := range opcodeOperands[in.Op] {
		if k == operandJump || k == operandBranch {
			out = append(out, j)
		}
		if k == operandList {
			j += in.Args[j]
		}
		j++
	}
	return out
}
