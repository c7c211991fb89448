package iscript

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// walk decodes the whole buffer front to back. Both the assembler and the
// binary decoder emit complete instructions back to back, so a linear sweep
// visits every instruction exactly once.
func walk(p *Program) ([]Instruction, error) {
	var out []Instruction
	for pc := 1; pc < len(p.Code); {
		in, err := p.At(pc)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
		pc = in.Next
	}
	return out, nil
}

func labelName(pc int) string { return "L" + strconv.Itoa(pc) }

// labelSet collects every pc that is the target of a jump, a branch or an
// animation entry.
func labelSet(p *Program, code []Instruction) map[int]bool {
	labels := make(map[int]bool)
	for _, s := range p.Scripts {
		for _, pc := range s.Anims {
			if pc != 0 {
				labels[pc] = true
			}
		}
	}
	for _, in := range code {
		for _, i := range in.Targets() {
			labels[in.Args[i]] = true
		}
	}
	return labels
}

func formatArgs(in Instruction) []string {
	targets := make(map[int]bool)
	for _, i := range in.Targets() {
		targets[i] = true
	}
	kinds := opcodeOperands[in.Op]
	args := in.Args
	if len(kinds) == 1 && kinds[0] == operandList {
		args = args[1:]
	}
	out := make([]string, len(args))
	for i, v := range args {
		if targets[i] {
			out[i] = labelName(v)
		} else {
			out[i] = strconv.Itoa(v)
		}
	}
	return out
}

// ToDoc turns a program back into assembly source. Assembling the result
// reproduces the program buffer.
func ToDoc(p *Program) (*Doc, error) {
	code, err := walk(p)
	if err != nil {
		return nil, err
	}
	labels := labelSet(p, code)
	doc := &Doc{}
	for _, id := range p.ScriptIDs() {
		s := p.Scripts[id]
		sd := ScriptDoc{ID: id, Anims: make(map[string]string)}
		for a, pc := range s.Anims {
			if pc != 0 {
				sd.Anims[Anim(a).String()] = labelName(pc)
			}
		}
		doc.Scripts = append(doc.Scripts, sd)
	}
	var b strings.Builder
	for _, in := range code {
		if labels[in.PC] {
			fmt.Fprintf(&b, "%s:\n", labelName(in.PC))
		}
		b.WriteString("  ")
		b.WriteString(in.Op.String())
		for _, a := range formatArgs(in) {
			b.WriteByte(' ')
			b.WriteString(a)
		}
		b.WriteByte('\n')
	}
	doc.Code = b.String()
	return doc, nil
}

// Disassemble writes a listing of every script header followed by the code
// with pcs.
func Disassemble(p *Program, w io.Writer) error {
	code, err := walk(p)
	if err != nil {
		return fmt.Errorf("disassemble: %w", err)
	}
	labels := labelSet(p, code)
	bw := bufio.NewWriter(w)
	for _, id := range p.ScriptIDs() {
		s := p.Scripts[id]
		fmt.Fprintf(bw, "script %d\n", id)
		for a, pc := range s.Anims {
			if pc != 0 {
				fmt.Fprintf(bw, "  %-14s %s\n", Anim(a), labelName(pc))
			}
		}
	}
	fmt.Fprintf(bw, "\ncode (%d words)\n", len(p.Code))
	for _, in := range code {
		if labels[in.PC] {
			fmt.Fprintf(bw, "%s:\n", labelName(in.PC))
		}
		fmt.Fprintf(bw, "%6d  %s", in.PC, in.Op)
		if args := formatArgs(in); len(args) > 0 {
			fmt.Fprintf(bw, " %s", strings.Join(args, " "))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
