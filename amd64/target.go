package amd64

import "github.com/embervm/ember/lir"

// CallSite records one call instruction's byte range and target for the
// exception and call-site tables.
type CallSite struct {
	Before int // first byte of the call instruction
	After  int // first byte past it
	Target *lir.CallTarget
	Direct bool
	Info   *lir.DebugInfo
}

// ImplicitException marks a code offset where a faulting instruction
// (null dereference, division) is recovered via the trap handler.
type ImplicitException struct {
	Pos  int
	Info *lir.DebugInfo
}

// DataPatchKind selects what the install-time fix-up writes.
type DataPatchKind uint8

const (
	// PatchDataRef: a rip-relative disp32 pointing at a constant the
	// installer places after the code.
	PatchDataRef DataPatchKind = iota
	// PatchInlineObject: an 8-byte inline object reference placeholder.
	PatchInlineObject
)

func (k DataPatchKind) String() string {
	if k == PatchInlineObject {
		return "inline-object"
	}
	return "data-ref"
}

// DataPatch records a code position embedding a not-yet-relocatable
// constant (float/double literal or object reference).
type DataPatch struct {
	Pos      int
	Kind     DataPatchKind
	Constant lir.Operand
}

// Safepoint is a position where the thread may be suspended.
type Safepoint struct {
	Pos  int
	Info *lir.DebugInfo
}

// JumpTable annotates an embedded table of 4-byte relative entries.
type JumpTable struct {
	Pos       int
	LowKey    int32
	HighKey   int32
	EntrySize int
}

// CodeMark is a named position anchor registered by template expansion.
type CodeMark struct {
	Name string
	Pos  int
}

// TargetMethod collects everything emission produces for one method:
// the code bytes live in the buffer, the rest is the metadata the
// installer, the trap handler and the deoptimizer consume.
type TargetMethod struct {
	Name      string
	FrameSize int
	Code      []byte

	Calls              []CallSite
	ImplicitExceptions []ImplicitException
	DataPatches        []DataPatch
	Safepoints         []Safepoint
	JumpTables         []JumpTable
	Marks              []CodeMark
}

func (t *TargetMethod) recordCall(before, after int, target *lir.CallTarget, direct bool, info *lir.DebugInfo) {
	t.Calls = append(t.Calls, CallSite{Before: before, After: after, Target: target, Direct: direct, Info: info})
}

func (t *TargetMethod) recordImplicitException(pos int, info *lir.DebugInfo) {
	t.ImplicitExceptions = append(t.ImplicitExceptions, ImplicitException{Pos: pos, Info: info})
}

func (t *TargetMethod) recordDataPatch(pos int, kind DataPatchKind, c lir.Operand) {
	t.DataPatches = append(t.DataPatches, DataPatch{Pos: pos, Kind: kind, Constant: c})
}

func (t *TargetMethod) recordSafepoint(pos int, info *lir.DebugInfo) {
	t.Safepoints = append(t.Safepoints, Safepoint{Pos: pos, Info: info})
}

func (t *TargetMethod) recordJumpTable(pos int, low, high int32, entrySize int) {
	t.JumpTables = append(t.JumpTables, JumpTable{Pos: pos, LowKey: low, HighKey: high, EntrySize: entrySize})
}

func (t *TargetMethod) recordMark(name string, pos int) {
	t.Marks = append(t.Marks, CodeMark{Name: name, Pos: pos})
}
