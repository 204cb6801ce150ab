package lir

import "fmt"

// DebugInfo ties a code position back to the logical machine state the
// runtime needs there: the method and bytecode index, and reference maps
// describing which registers and frame slots hold object pointers. The
// backend copies the pointer into its side tables unchanged.
type DebugInfo struct {
	Method string
	BCI    int

	// Reference bitmaps, one bit per register / frame slot. May be nil
	// when the state carries no live references.
	RegisterRefMap []byte
	FrameRefMap    []byte
}

func (d *DebugInfo) String() string {
	if d == nil {
		return "<no info>"
	}
	return fmt.Sprintf("%s@%d", d.Method, d.BCI)
}
