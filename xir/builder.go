package xir

import (
	"fmt"

	"github.com/embervm/ember/lir"
)

// Builder assembles a template. Slot and label creation return the Ref
// and label index the ops use; Append grows whichever path is current.
type Builder struct {
	name     string
	slots    []Slot
	labels   []Label
	fast     []Instr
	slow     []Instr
	inSlow   bool
	finished bool
}

func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

func (b *Builder) slot(s Slot) Ref {
	b.slots = append(b.slots, s)
	return Ref(len(b.slots) - 1)
}

// Param declares a caller-bound input slot.
func (b *Builder) Param(name string, kind lir.Kind) Ref {
	return b.slot(Slot{Name: name, Kind: kind, Class: SlotParam})
}

// Temp declares a per-expansion scratch slot.
func (b *Builder) Temp(name string, kind lir.Kind) Ref {
	return b.slot(Slot{Name: name, Kind: kind, Class: SlotTemp})
}

// Const fixes a slot to a constant operand.
func (b *Builder) Const(name string, c lir.Operand) Ref {
	if !c.IsConstant() {
		panic(fmt.Sprintf("xir: Const slot %s bound to %s", name, c))
	}
	return b.slot(Slot{Name: name, Kind: c.Kind, Class: SlotConst, Const: c})
}

// CreateLabel declares an internal jump target.
func (b *Builder) CreateLabel(name string) int {
	b.labels = append(b.labels, Label{Name: name})
	return len(b.labels) - 1
}

// TrueSuccessor declares the reserved label standing for the surrounding
// instruction's true-successor block.
func (b *Builder) TrueSuccessor() int {
	b.labels = append(b.labels, Label{Name: "true-successor", TrueSuccessor: true})
	return len(b.labels) - 1
}

// FalseSuccessor declares the reserved false-successor label.
func (b *Builder) FalseSuccessor() int {
	b.labels = append(b.labels, Label{Name: "false-successor", FalseSuccessor: true})
	return len(b.labels) - 1
}

// Append adds ops to the current path.
func (b *Builder) Append(ops ...Instr) *Builder {
	if b.inSlow {
		b.slow = append(b.slow, ops...)
	} else {
		b.fast = append(b.fast, ops...)
	}
	return b
}

// BeginSlowPath switches appending to the out-of-line path.
func (b *Builder) BeginSlowPath() *Builder {
	b.inSlow = true
	return b
}

// Finish freezes the template. Label references are validated here so a
// malformed builtin fails at construction, not mid-emission.
func (b *Builder) Finish() *Template {
	if b.finished {
		panic("xir: builder finished twice")
	}
	b.finished = true
	t := &Template{
		Name:     b.name,
		Slots:    b.slots,
		Labels:   b.labels,
		FastPath: b.fast,
		SlowPath: b.slow,
	}
	for _, in := range append(append([]Instr{}, b.fast...), b.slow...) {
		b.checkRefs(in, t)
	}
	return t
}

func (b *Builder) checkLabel(t *Template, idx int) {
	if idx < 0 || idx >= len(t.Labels) {
		panic(fmt.Sprintf("xir: template %s references label %d of %d", t.Name, idx, len(t.Labels)))
	}
}

func (b *Builder) checkRef(t *Template, r Ref) {
	if r == NoRef {
		return
	}
	if int(r) < 0 || int(r) >= len(t.Slots) {
		panic(fmt.Sprintf("xir: template %s references slot %d of %d", t.Name, r, len(t.Slots)))
	}
}

func (b *Builder) checkRefs(in Instr, t *Template) {
	switch v := in.(type) {
	case Arith:
		b.checkRef(t, v.Result)
		b.checkRef(t, v.X)
		b.checkRef(t, v.Y)
	case Mov:
		b.checkRef(t, v.Result)
		b.checkRef(t, v.X)
	case PointerLoad:
		b.checkRef(t, v.Result)
		b.checkRef(t, v.Pointer)
	case PointerStore:
		b.checkRef(t, v.Pointer)
		b.checkRef(t, v.Value)
	case PointerLoadDisp:
		b.checkRef(t, v.Result)
		b.checkRef(t, v.Pointer)
		b.checkRef(t, v.Index)
	case PointerStoreDisp:
		b.checkRef(t, v.Pointer)
		b.checkRef(t, v.Index)
		b.checkRef(t, v.Value)
	case LoadEffectiveAddress:
		b.checkRef(t, v.Result)
		b.checkRef(t, v.Pointer)
		b.checkRef(t, v.Index)
	case PointerCAS:
		b.checkRef(t, v.Result)
		b.checkRef(t, v.Pointer)
		b.checkRef(t, v.NewValue)
		b.checkRef(t, v.Expected)
	case CallStub:
		b.checkRef(t, v.Result)
		for _, a := range v.Args {
			b.checkRef(t, a)
		}
	case CallRuntime:
		b.checkRef(t, v.Result)
		for _, a := range v.Args {
			b.checkRef(t, a)
		}
	case Jmp:
		b.checkLabel(t, v.Label)
	case Jcc:
		b.checkLabel(t, v.Label)
		b.checkRef(t, v.X)
		b.checkRef(t, v.Y)
	case Jbset:
		b.checkLabel(t, v.Label)
		b.checkRef(t, v.Pointer)
		b.checkRef(t, v.Offset)
		b.checkRef(t, v.Bit)
	case DecAndJumpNotZero:
		b.checkLabel(t, v.Label)
		b.checkRef(t, v.Value)
	case Bind:
		b.checkLabel(t, v.Label)
	case NullCheck:
		b.checkRef(t, v.Pointer)
	case Push:
		b.checkRef(t, v.Value)
	case Pop:
		b.checkRef(t, v.Result)
	}
}
