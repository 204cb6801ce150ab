package lir

import "fmt"

// SlotSize is the byte width of one stack slot; every kind occupies a
// full slot.
const SlotSize = 8

// FrameMap fixes the byte layout of a method's stack frame once the
// final slot counts are known. Offsets grow upward from the stack
// pointer:
//
//	rsp+0                outgoing argument area (stub/call out-args)
//	+OutgoingSize        monitor slots
//	+monitors            spill slots
//	+spills              callee-save area
//	+FrameSize()         return address pushed by the caller
//
// The backend consumes the map read-only.
type FrameMap struct {
	OutgoingSize   int // bytes reserved for outgoing call arguments
	MonitorCount   int
	SpillSlotCount int
	CalleeSaved    []Register
}

func align16(n int) int {
	return (n + 15) &^ 15
}

// FrameSize is the stack-pointer adjustment on entry, excluding the
// return address. Aligned so rsp stays 16-byte aligned at call sites.
func (m *FrameMap) FrameSize() int {
	raw := m.OutgoingSize + (m.MonitorCount+m.SpillSlotCount+len(m.CalleeSaved))*SlotSize
	// the pushed return address accounts for 8 of the 16-byte alignment
	return align16(raw+SlotSize) - SlotSize
}

func (m *FrameMap) spillBase() int {
	return m.OutgoingSize + m.MonitorCount*SlotSize
}

// CalleeSaveOffset is the frame offset of the first callee-save slot.
func (m *FrameMap) CalleeSaveOffset() int {
	return m.spillBase() + m.SpillSlotCount*SlotSize
}

// MonitorOffset is the frame offset of monitor index i.
func (m *FrameMap) MonitorOffset(i int) int32 {
	if i < 0 || i >= m.MonitorCount {
		panic(fmt.Sprintf("lir: monitor index %d out of range", i))
	}
	return int32(m.OutgoingSize + i*SlotSize)
}

// SlotOffset translates a stack operand to its rsp-relative byte offset.
// Caller-frame slots sit past this frame and the return address.
func (m *FrameMap) SlotOffset(o Operand) int32 {
	if !o.IsStack() {
		panic("lir: SlotOffset on non-stack operand " + o.String())
	}
	if o.InCallerFrame {
		return int32(m.FrameSize() + SlotSize + o.SlotIndex*SlotSize)
	}
	return int32(m.spillBase() + o.SlotIndex*SlotSize)
}

// OutArgOffset is the rsp-relative offset of outgoing argument slot i,
// the location a called stub sees as its caller-frame slot i.
func (m *FrameMap) OutArgOffset(i int) int32 {
	off := i * SlotSize
	if off >= m.OutgoingSize {
		panic(fmt.Sprintf("lir: out-arg slot %d exceeds outgoing area (%d bytes)", i, m.OutgoingSize))
	}
	return int32(off)
}
