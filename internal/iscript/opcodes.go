// Package iscript holds animation script programs: the opcode set, the
// decoded program buffer, a labelled assembly format and a decoder for the
// legacy binary layout. Execution lives in package vm.
package iscript

import "strconv"

// Opcode is a legacy iscript instruction number.
type Opcode int

const (
	OpPlayFram Opcode = iota
	OpPlayFramTile
	OpSetHorPos
	OpSetVertPos
	OpSetPos
	OpWait
	OpWaitRand
	OpGoto
	OpImgOl
	OpImgUl
	OpImgOlOrig
	OpSwitchUl
	OpUnused0C
	OpImgOlUseLo
	OpImgUlUseLo
	OpSprOl
	OpHighSprOl
	OpLowSprUl
	OpUflUnstable
	OpSprUlUseLo
	OpSprUl
	OpSprOlUseLo
	OpEnd
	OpSetFlipState
	OpPlaySnd
	OpPlaySndRand
	OpPlaySndBtwn
	OpDoMissileDmg
	OpAttackMelee
	OpFollowMainGraphic
	OpRandCondJmp
	OpTurnCCWise
	OpTurnCWise
	OpTurn1CWise
	OpTurnRand
	OpSetSpawnFrame
	OpSigOrder
	OpAttackWith
	OpAttack
	OpCastSpell
	OpUseWeapon
	OpMove
	OpGotoRepeatAttk
	OpEngFrame
	OpEngSet
	OpUnused2D
	OpNoBrkCodeStart
	OpNoBrkCodeEnd
	OpIgnoreRest
	OpAttkShiftProj
	OpTmpRmGraphicStart
	OpTmpRmGraphicEnd
	OpSetFlDirect
	OpCall
	OpReturn
	OpSetFlSpeed
	OpCreateGasOverlays
	OpPwrupCondJmp
	OpTrgtRangeCondJmp
	OpTrgtArcCondJmp
	OpCurDirectCondJmp
	OpImgUlNextID
	OpUnused3E
	OpLiftoffCondJmp
	OpWarpOverlay
	OpOrderDone
	OpGrdSprOl
	OpUnused43
	OpDoGrdDamage

	NumOpcodes
)

// Opcodes are stored biased in the program buffer so that a pc landing on an
// operand decodes as an invalid instruction instead of a plausible one.
const opcodeBias = 0x808091

// Operand format letters:
//
//	s1 s2  signed 8/16 bit
//	1 2    unsigned 8/16 bit
//	v      uint8 count followed by that many uint16
//	j      jump target, ends the instruction stream
//	b      branch target
//	e      ends the instruction stream
type opcodeInfo struct {
	name   string
	format string
}

var opcodes = [NumOpcodes]opcodeInfo{
	{"playfram", "2"},
	{"playframtile", "2"},
	{"sethorpos", "s1"},
	{"setvertpos", "s1"},
	{"setpos", "s1s1"},
	{"wait", "1"},
	{"waitrand", "11"},
	{"goto", "j"},
	{"imgol", "211"},
	{"imgul", "211"},
	{"imgolorig", "2"},
	{"switchul", "2"},
	{"__0c", ""},
	{"imgoluselo", "211"},
	{"imguluselo", "211"},
	{"sprol", "211"},
	{"highsprol", "211"},
	{"lowsprul", "211"},
	{"uflunstable", "2"},
	{"spruluselo", "211"},
	{"sprul", "211"},
	{"sproluselo", "21"},
	{"end", "e"},
	{"setflipstate", "1"},
	{"playsnd", "2"},
	{"playsndrand", "v"},
	{"playsndbtwn", "22"},
	{"domissiledmg", ""},
	{"attackmelee", "v"},
	{"followmaingraphic", ""},
	{"randcondjmp", "1b"},
	{"turnccwise", "1"},
	{"turncwise", "1"},
	{"turn1cwise", ""},
	{"turnrand", "1"},
	{"setspawnframe", "1"},
	{"sigorder", "1"},
	{"attackwith", "1"},
	{"attack", ""},
	{"castspell", ""},
	{"useweapon", "1"},
	{"move", "1"},
	{"gotorepeatattk", ""},
	{"engframe", "1"},
	{"engset", "1"},
	{"__2d", ""},
	{"nobrkcodestart", ""},
	{"nobrkcodeend", ""},
	{"ignorerest", ""},
	{"attkshiftproj", "1"},
	{"tmprmgraphicstart", ""},
	{"tmprmgraphicend", ""},
	{"setfldirect", "1"},
	{"call", "b"},
	{"return", ""},
	{"setflspeed", "2"},
	{"creategasoverlays", "1"},
	{"pwrupcondjmp", "b"},
	{"trgtrangecondjmp", "2b"},
	{"trgtarccondjmp", "22b"},
	{"curdirectcondjmp", "22b"},
	{"imgulnextid", "11"},
	{"__3e", ""},
	{"liftoffcondjmp", "b"},
	{"warpoverlay", "2"},
	{"orderdone", "1"},
	{"grdsprol", "211"},
	{"__43", ""},
	{"dogrddamage", ""},
}

var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, NumOpcodes)
	for i, o := range opcodes {
		m[o.name] = Opcode(i)
	}
	return m
}()

func (op Opcode) Valid() bool { return op >= 0 && op < NumOpcodes }

func (op Opcode) String() string {
	if !op.Valid() {
		return "opcode(" + strconv.Itoa(int(op)) + ")"
	}
	return opcodes[op].name
}

// Format returns the operand format string of op.
func (op Opcode) Format() string {
	if !op.Valid() {
		return ""
	}
	return opcodes[op].format
}

// OpcodeByName looks an opcode up by its mnemonic.
func OpcodeByName(name string) (Opcode, bool) {
	op, ok := opcodeByName[name]
	return op, ok
}

// Encode returns the program buffer value for op.
func Encode(op Opcode) int { return int(op) + opcodeBias }

// DecodeOpcode reverses Encode. Values that are not a biased opcode report
// false.
func DecodeOpcode(v int) (Opcode, bool) {
	op := Opcode(v - opcodeBias)
	return op, op.Valid()
}

// operand kinds after parsing a format string
type operandKind uint8

const (
	operandS8 operandKind = iota
	operandS16
	operandU8
	operandU16
	operandList
	operandJump
	operandBranch
)

// operands splits a format into operand kinds. The 'e' terminator carries no
// operand and is reported by terminates.
func operands(format string) []operandKind {
	var out []operandKind
	for i := 0; i < len(format); i++ {
		switch format[i] {
		case 's':
			i++
			if format[i] == '1' {
				out = append(out, operandS8)
			} else {
				out = append(out, operandS16)
			}
		case '1':
			out = append(out, operandU8)
		case '2':
			out = append(out, operandU16)
		case 'v':
			out = append(out, operandList)
		case 'j':
			out = append(out, operandJump)
		case 'b':
			out = append(out, operandBranch)
		}
	}
	return out
}

var opcodeOperands = func() [NumOpcodes][]operandKind {
	var t [NumOpcodes][]operandKind
	for i, o := range opcodes {
		t[i] = operands(o.format)
	}
	return t
}()

// terminates reports whether op never falls through to the next instruction.
func terminates(op Opcode) bool {
	return op == OpGoto || op == OpEnd
}
