// Package xir defines the architecture-neutral template language for
// runtime snippets: a fixed vocabulary of micro-operations over symbolic
// operand slots, assembled into templates with a fast path and an
// optional slow path. Templates are expanded into machine code by the
// backend's template interpreter.
package xir

import "github.com/embervm/ember/lir"

// Ref indexes a slot in the expanding snippet's concrete operand array.
// NoRef marks an absent operand.
type Ref int

const NoRef Ref = -1

// ArithOp restricts Arith to the micro-op arithmetic vocabulary.
type ArithOp uint8

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr // logical right shift
	OpSar // arithmetic right shift
	OpAnd
	OpOr
	OpXor
)

var arithNames = [...]string{"add", "sub", "mul", "div", "mod", "shl", "shr", "sar", "and", "or", "xor"}

func (op ArithOp) String() string {
	if int(op) < len(arithNames) {
		return arithNames[op]
	}
	return "arith?"
}

// Instr is one abstract micro-operation. The set is closed; the
// interpreter dispatches with an exhaustive type switch.
type Instr interface {
	opName() string
}

// Arith is the two-input arithmetic/logic/shift family. The result
// operand's kind selects the instruction width.
type Arith struct {
	Op           ArithOp
	Result, X, Y Ref
}

// Mov copies X into Result.
type Mov struct {
	Result, X Ref
}

// PointerLoad loads Result from the address held in Pointer.
type PointerLoad struct {
	Result, Pointer Ref
	CanTrap         bool
}

// PointerStore stores Value to the address held in Pointer.
type PointerStore struct {
	Pointer, Value Ref
	CanTrap        bool
}

// PointerLoadDisp loads Result from [Pointer + Index*Scale + Disp].
// Index may be NoRef.
type PointerLoadDisp struct {
	Result, Pointer, Index Ref
	Scale                  lir.Scale
	Disp                   int32
	CanTrap                bool
}

// PointerStoreDisp stores Value to [Pointer + Index*Scale + Disp].
type PointerStoreDisp struct {
	Pointer, Index, Value Ref
	Scale                 lir.Scale
	Disp                  int32
	CanTrap               bool
}

// LoadEffectiveAddress computes [Pointer + Index*Scale + Disp] into
// Result without touching memory.
type LoadEffectiveAddress struct {
	Result, Pointer, Index Ref
	Scale                  lir.Scale
	Disp                   int32
}

// RepeatMoveBytes copies Count bytes from Src to Dst. Operands must
// already occupy the architecture's string-move registers.
type RepeatMoveBytes struct {
	Src, Dst, Count Ref
}

// RepeatMoveWords copies Count machine words from Src to Dst.
type RepeatMoveWords struct {
	Src, Dst, Count Ref
}

// PointerCAS compares-and-swaps at the address in Pointer. Expected must
// already occupy the architecture's designated compare register; this is
// a precondition the interpreter asserts, not establishes.
type PointerCAS struct {
	Result, Pointer, NewValue, Expected Ref
}

// CallStub calls a compiler stub, marshalling Args into the stub's
// caller-frame slots and loading Result back afterwards.
type CallStub struct {
	Stub   lir.RuntimeCall
	Result Ref
	Args   []Ref
}

// CallRuntime calls a runtime entry through the regular calling
// convention. UseInfoAfter attaches the post-call frame state instead of
// the at-call state.
type CallRuntime struct {
	Target       lir.RuntimeCall
	Result       Ref
	Args         []Ref
	UseInfoAfter bool
}

// Jmp jumps unconditionally to a template label.
type Jmp struct {
	Label int
}

// JmpTarget jumps unconditionally to a runtime target, used by stubs
// that tail-transfer out of compiled code.
type JmpTarget struct {
	Target *lir.CallTarget
}

// Jcc compares X against Y and jumps to Label when Cond holds.
type Jcc struct {
	Cond  lir.Condition
	Label int
	X, Y  Ref
}

// Jbset jumps to Label when the bit selected by Bit is set in the word
// at [Pointer + Offset].
type Jbset struct {
	Label                int
	Pointer, Offset, Bit Ref
}

// DecAndJumpNotZero decrements Value and jumps to Label while the result
// is nonzero.
type DecAndJumpNotZero struct {
	Label int
	Value Ref
}

// Bind fixes a template label at the current code position.
type Bind struct {
	Label int
}

// Safepoint records the current position in the safepoint table.
type Safepoint struct{}

// NullCheck performs an access through Pointer whose only purpose is to
// fault on null, recording an implicit exception.
type NullCheck struct {
	Pointer Ref
}

// Align pads with no-ops until the position is a multiple of Multiple.
type Align struct {
	Multiple int
}

// StackOverflowCheck emits the guard-page banging writes for the frame.
type StackOverflowCheck struct{}

// PushFrame allocates the method frame and saves callee-save registers.
type PushFrame struct{}

// PopFrame restores callee-saves and releases the frame.
type PopFrame struct{}

// Push pushes Value onto the machine stack.
type Push struct {
	Value Ref
}

// Pop pops the machine stack into Result.
type Pop struct {
	Result Ref
}

// Mark registers a named code-position anchor for metadata association.
type Mark struct {
	Name string
}

// Nop emits Count single-byte no-ops.
type Nop struct {
	Count int
}

// RawBytes emits the given bytes verbatim.
type RawBytes struct {
	Bytes []byte
}

// ShouldNotReachHere emits a halting guard; executing it is a fatal
// runtime error.
type ShouldNotReachHere struct {
	Message string
}

func (Arith) opName() string                { return "arith" }
func (Mov) opName() string                  { return "mov" }
func (PointerLoad) opName() string          { return "pload" }
func (PointerStore) opName() string         { return "pstore" }
func (PointerLoadDisp) opName() string      { return "pload_disp" }
func (PointerStoreDisp) opName() string     { return "pstore_disp" }
func (LoadEffectiveAddress) opName() string { return "lea" }
func (RepeatMoveBytes) opName() string      { return "repmovb" }
func (RepeatMoveWords) opName() string      { return "repmovq" }
func (PointerCAS) opName() string           { return "pcas" }
func (CallStub) opName() string             { return "callstub" }
func (CallRuntime) opName() string          { return "callrt" }
func (Jmp) opName() string                  { return "jmp" }
func (JmpTarget) opName() string            { return "jmp_target" }
func (Jcc) opName() string                  { return "jcc" }
func (Jbset) opName() string                { return "jbset" }
func (DecAndJumpNotZero) opName() string    { return "decjnz" }
func (Bind) opName() string                 { return "bind" }
func (Safepoint) opName() string            { return "safepoint" }
func (NullCheck) opName() string            { return "nullcheck" }
func (Align) opName() string                { return "align" }
func (StackOverflowCheck) opName() string   { return "stackcheck" }
func (PushFrame) opName() string            { return "pushframe" }
func (PopFrame) opName() string             { return "popframe" }
func (Push) opName() string                 { return "push" }
func (Pop) opName() string                  { return "pop" }
func (Mark) opName() string                 { return "mark" }
func (Nop) opName() string                  { return "nop" }
func (RawBytes) opName() string             { return "raw" }
func (ShouldNotReachHere) opName() string   { return "unreachable" }

// OpName exposes the mnemonic for printing.
func OpName(in Instr) string { return in.opName() }
