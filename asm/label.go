package asm

// PatchKind says how a pending reference must be rewritten once its label
// is bound.
type PatchKind uint8

const (
	// PatchRel32 is a 32-bit displacement relative to the end of the
	// displacement field (the next instruction), as used by jcc/jmp/call.
	PatchRel32 PatchKind = iota
	// PatchTableEntry32 is a 32-bit offset relative to an anchor position
	// (the start of a jump table).
	PatchTableEntry32
)

type patch struct {
	kind PatchKind
	pos  int // offset of the 4-byte field inside the buffer
	base int // anchor for PatchTableEntry32
}

// Label is a forward/backward branch target. It is either bound to a
// buffer position or carries the list of emitted references waiting to be
// patched. Every label must be bound before emission completes.
type Label struct {
	position int // -1 while unbound
	patches  []patch
}

func NewLabel() *Label {
	return &Label{position: -1}
}

func (l *Label) IsBound() bool {
	return l.position >= 0
}

// Position returns the bound code offset. Calling it on an unbound label
// is a caller bug.
func (l *Label) Position() int {
	if !l.IsBound() {
		panic("asm: position of unbound label")
	}
	return l.position
}

// AddPatchAt registers a pending 4-byte reference at pos. For
// PatchTableEntry32 the base is the anchor the entry is relative to;
// PatchRel32 ignores it.
func (l *Label) AddPatchAt(kind PatchKind, pos, base int) {
	if l.IsBound() {
		panic("asm: patch request on bound label")
	}
	l.patches = append(l.patches, patch{kind: kind, pos: pos, base: base})
}

// Bind fixes the label at the buffer's current position and rewrites all
// pending references.
func (l *Label) Bind(buf *Buffer) {
	l.BindTo(buf, buf.Position())
}

// BindTo fixes the label at an explicit position.
func (l *Label) BindTo(buf *Buffer, pos int) {
	if l.IsBound() {
		panic("asm: label bound twice")
	}
	l.position = pos
	for _, p := range l.patches {
		switch p.kind {
		case PatchRel32:
			buf.PutIntAt(p.pos, uint32(pos-(p.pos+4)))
		case PatchTableEntry32:
			buf.PutIntAt(p.pos, uint32(pos-p.base))
		default:
			panic("asm: unknown patch kind")
		}
	}
	l.patches = nil
}

// PendingPatches reports how many references are still waiting on the
// label. Used by completion checks.
func (l *Label) PendingPatches() int {
	return len(l.patches)
}
