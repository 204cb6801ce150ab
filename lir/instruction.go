package lir

import (
	"fmt"
	"strings"

	"github.com/embervm/ember/asm"
)

// Block is a branch target in the instruction stream. The backend binds
// its label when emission reaches the block's first instruction.
type Block struct {
	ID    int
	Label asm.Label
}

// NewBlock returns a block with an unbound label.
func NewBlock(id int) *Block {
	return &Block{ID: id, Label: *asm.NewLabel()}
}

func (b *Block) String() string {
	if b == nil {
		return "B?"
	}
	return fmt.Sprintf("B%d", b.ID)
}

// BranchTarget is the payload of OpBranch and OpCondFloatBranch. Unordered
// names the successor taken when a preceding float compare saw a NaN; nil
// for integer branches.
type BranchTarget struct {
	Target    *Block
	Unordered *Block
}

// SwitchTargets is the payload of OpTableSwitch: one target per key in
// the contiguous range [LowKey, LowKey+len(Targets)-1].
type SwitchTargets struct {
	LowKey  int32
	Targets []*Block
	Default *Block
}

// HighKey is the largest key covered by the table.
func (s *SwitchTargets) HighKey() int32 {
	return s.LowKey + int32(len(s.Targets)) - 1
}

// CallTarget identifies what a call instruction reaches. Exactly one of
// the three shapes applies: a runtime entry (IsRuntime), a native symbol
// with a known absolute address (Addr != 0), or a managed method named by
// Method whose address is resolved at install time.
type CallTarget struct {
	Method    string
	IsRuntime bool
	Runtime   RuntimeCall
	Addr      uint64
}

func (t *CallTarget) String() string {
	switch {
	case t == nil:
		return "?"
	case t.IsRuntime:
		return "rt:" + t.Runtime.String()
	case t.Addr != 0:
		return fmt.Sprintf("native:%s@%#x", t.Method, t.Addr)
	}
	return t.Method
}

// XirPayload is implemented by the xir package's snippet type; keeping it
// abstract here avoids an import cycle between the IR and the template
// language built on it.
type XirPayload interface {
	XirName() string
}

// Instr is one LIR instruction: opcode, kind family, up to three input
// operands, a result, and opcode-specific payloads. Instructions are
// immutable once built and consumed exactly once by the backend.
type Instr struct {
	Code Opcode
	Kind Kind
	Cond Condition

	X, Y, Z Operand
	Result  Operand

	// Info describes the frame state at the instruction (attached to
	// faulting accesses and calls); InfoAfter the state past a
	// potentially-faulting point.
	Info      *DebugInfo
	InfoAfter *DebugInfo

	Conversion Conversion
	Branch     *BranchTarget
	Switch     *SwitchTargets
	Call       *CallTarget
	Xir        XirPayload

	// BlockStart, when non-nil, binds the block's label before the
	// instruction is emitted.
	BlockStart *Block
}

func (in *Instr) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s.%s", in.Code, in.Kind)
	for _, o := range []Operand{in.X, in.Y, in.Z} {
		if !o.IsIllegal() {
			sb.WriteByte(' ')
			sb.WriteString(o.String())
		}
	}
	if !in.Result.IsIllegal() {
		sb.WriteString(" -> ")
		sb.WriteString(in.Result.String())
	}
	if in.Cond != CondTrue {
		fmt.Fprintf(&sb, " [%s]", in.Cond)
	}
	return sb.String()
}

// Method is one compilation unit: a finalized instruction sequence and
// its frame map, as produced by the register allocator.
type Method struct {
	Name  string
	Code  []*Instr
	Frame *FrameMap
}
