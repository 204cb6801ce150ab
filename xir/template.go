package xir

import (
	"fmt"

	"github.com/embervm/ember/lir"
)

// SlotClass says how a template slot gets its concrete operand.
type SlotClass uint8

const (
	SlotParam SlotClass = iota // bound by the caller per expansion
	SlotTemp                   // scratch location allocated per expansion
	SlotConst                  // fixed at template build time
)

// Slot describes one entry of the operand array a snippet binds.
type Slot struct {
	Name  string
	Kind  lir.Kind
	Class SlotClass
	Const lir.Operand // SlotConst only
}

// Label is a named jump target inside a template. The two reserved
// roles map onto the surrounding LIR instruction's successor blocks.
type Label struct {
	Name           string
	TrueSuccessor  bool
	FalseSuccessor bool
}

// Template is an immutable runtime snippet: slots, labels, a fast path
// and an optional slow path emitted out of line.
type Template struct {
	Name     string
	Slots    []Slot
	Labels   []Label
	FastPath []Instr
	SlowPath []Instr
}

// ParamCount counts the slots the caller must bind.
func (t *Template) ParamCount() int {
	n := 0
	for _, s := range t.Slots {
		if s.Class == SlotParam {
			n++
		}
	}
	return n
}

// TempCount counts the scratch slots an expansion must provide.
func (t *Template) TempCount() int {
	n := 0
	for _, s := range t.Slots {
		if s.Class == SlotTemp {
			n++
		}
	}
	return n
}

// HasSlowPath reports whether the template defers code out of line.
func (t *Template) HasSlowPath() bool { return len(t.SlowPath) > 0 }

// Snippet is a template bound to concrete operands, attached to a LIR
// instruction for expansion. Operands is indexed by Ref and aligned with
// Template.Slots.
type Snippet struct {
	Template *Template
	Operands []lir.Operand

	// Successor blocks for the reserved labels; nil falls back to a
	// fresh end-of-template label bound by the interpreter.
	TrueSucc  *lir.Block
	FalseSucc *lir.Block
}

// XirName implements lir.XirPayload.
func (s *Snippet) XirName() string { return s.Template.Name }

// Bind builds a snippet from the template's parameter and temp operands,
// in slot order. Kinds must match the declared slot kinds.
func (t *Template) Bind(args, temps []lir.Operand) (*Snippet, error) {
	if len(args) != t.ParamCount() {
		return nil, fmt.Errorf("xir: template %s wants %d args, got %d", t.Name, t.ParamCount(), len(args))
	}
	if len(temps) != t.TempCount() {
		return nil, fmt.Errorf("xir: template %s wants %d temps, got %d", t.Name, t.TempCount(), len(temps))
	}
	ops := make([]lir.Operand, len(t.Slots))
	ai, ti := 0, 0
	for i, s := range t.Slots {
		switch s.Class {
		case SlotParam:
			if args[ai].Kind.StackKind() != s.Kind.StackKind() {
				return nil, fmt.Errorf("xir: template %s slot %s: kind %s, argument is %s",
					t.Name, s.Name, s.Kind, args[ai].Kind)
			}
			ops[i] = args[ai]
			ai++
		case SlotTemp:
			ops[i] = temps[ti]
			ti++
		case SlotConst:
			ops[i] = s.Const
		}
	}
	return &Snippet{Template: t, Operands: ops}, nil
}

// MustBind is Bind for statically known-good call sites.
func (t *Template) MustBind(args, temps []lir.Operand) *Snippet {
	s, err := t.Bind(args, temps)
	if err != nil {
		panic(err)
	}
	return s
}
