package iscript

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrSyntax is returned for assembly source that does not parse.
var ErrSyntax = errors.New("iscript syntax error")

// Doc is the YAML assembly format. Code is a listing of labels ("name:")
// and instructions ("mnemonic arg..."); '#' starts a comment. Jump and
// branch operands name labels. Each script maps animation names to labels.
type Doc struct {
	Scripts []ScriptDoc `yaml:"scripts"`
	Code    string      `yaml:"code"`
}

type ScriptDoc struct {
	ID    int               `yaml:"id"`
	Anims map[string]string `yaml:"anims"`
}

type asmLine struct {
	n    int
	op   Opcode
	args []string
}

// LoadYAML reads and assembles an assembly document.
func LoadYAML(path string) (*Program, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read iscript: %w", err)
	}
	var doc Doc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse iscript: %w", err)
	}
	p, err := Assemble(&doc)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", path, err)
	}
	return p, nil
}

// Assemble builds a program from doc in two passes: the first sizes every
// instruction and places the labels, the second encodes operands.
func Assemble(doc *Doc) (*Program, error) {
	labels := make(map[string]int)
	var lines []asmLine
	pc := 1
	sc := bufio.NewScanner(strings.NewReader(doc.Code))
	n := 0
	for sc.Scan() {
		n++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if name, ok := strings.CutSuffix(fields[0], ":"); ok {
			if _, dup := labels[name]; dup {
				return nil, fmt.Errorf("line %d: duplicate label %q: %w", n, name, ErrSyntax)
			}
			labels[name] = pc
			fields = fields[1:]
			if len(fields) == 0 {
				continue
			}
		}
		op, ok := OpcodeByName(fields[0])
		if !ok {
			return nil, fmt.Errorf("line %d: unknown opcode %q: %w", n, fields[0], ErrSyntax)
		}
		size, err := instructionSize(op, len(fields)-1)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		lines = append(lines, asmLine{n: n, op: op, args: fields[1:]})
		pc += size
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan code: %w", err)
	}

	p := NewProgram()
	for _, l := range lines {
		if err := encodeLine(p, l, labels); err != nil {
			return nil, fmt.Errorf("line %d: %w", l.n, err)
		}
	}
	for _, sd := range doc.Scripts {
		if _, dup := p.Scripts[sd.ID]; dup {
			return nil, fmt.Errorf("duplicate script id %d: %w", sd.ID, ErrSyntax)
		}
		s := &Script{ID: sd.ID, Anims: make([]int, NumAnims)}
		for name, label := range sd.Anims {
			a, ok := AnimByName(name)
			if !ok {
				return nil, fmt.Errorf("script %d: unknown animation %q: %w", sd.ID, name, ErrSyntax)
			}
			target, ok := labels[label]
			if !ok {
				return nil, fmt.Errorf("script %d: undefined label %q: %w", sd.ID, label, ErrSyntax)
			}
			s.Anims[a] = target
		}
		p.Scripts[sd.ID] = s
	}
	return p, nil
}

func instructionSize(op Opcode, nargs int) (int, error) {
	kinds := opcodeOperands[op]
	if len(kinds) == 1 && kinds[0] == operandList {
		return 2 + nargs, nil
	}
	if nargs != len(kinds) {
		return 0, fmt.Errorf("%s takes %d operands, got %d: %w", op, len(kinds), nargs, ErrSyntax)
	}
	return 1 + nargs, nil
}

var operandRanges = map[operandKind][2]int{
	operandS8:  {-128, 127},
	operandS16: {-32768, 32767},
	operandU8:  {0, 255},
	operandU16: {0, 65535},
}

func encodeLine(p *Program, l asmLine, labels map[string]int) error {
	p.Code = append(p.Code, Encode(l.op))
	kinds := opcodeOperands[l.op]
	if len(kinds) == 1 && kinds[0] == operandList {
		p.Code = append(p.Code, len(l.args))
		kinds = make([]operandKind, len(l.args))
		for i := range kinds {
			kinds[i] = operandU16
		}
	}
	for i, k := range kinds {
		arg := l.args[i]
		if k == operandJump || k == operandBranch {
			target, ok := labels[arg]
			if !ok {
				return fmt.Errorf("undefined label %q: %w", arg, ErrSyntax)
			}
			p.Code = append(p.Code, target)
			continue
		}
		v, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%s operand %d: %q is not a number: %w", l.op, i+1, arg, ErrSyntax)
		}
		r := operandRanges[k]
		if v < r[0] || v > r[1] {
			return fmt.Errorf("%s operand %d: %d out of range [%d, %d]: %w", l.op, i+1, v, r[0], r[1], ErrSyntax)
		}
		p.Code = append(p.Code, v)
	}
	return nil
}
