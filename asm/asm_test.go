package asm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferEmitAndOverwrite(t *testing.T) {
	b := NewBuffer()
	require.Equal(t, 0, b.Position())

	b.EmitByte(0x90)
	b.EmitInt(0x11223344)
	b.EmitLong(0x8877665544332211)
	require.Equal(t, 13, b.Position())

	// little-endian layout
	require.Equal(t, []byte{0x90, 0x44, 0x33, 0x22, 0x11}, b.Bytes()[:5])
	require.Equal(t, uint32(0x11223344), b.IntAt(1))

	b.PutIntAt(1, 0xAABBCCDD)
	require.Equal(t, uint32(0xAABBCCDD), b.IntAt(1))
	require.Equal(t, byte(0xDD), b.ByteAt(1))
	require.Equal(t, 13, b.Position())
}

func TestLabelBackwardReference(t *testing.T) {
	b := NewBuffer()
	l := NewLabel()
	b.EmitByte(0x90)
	l.Bind(b)
	require.True(t, l.IsBound())
	require.Equal(t, 1, l.Position())
	require.Equal(t, 0, l.PendingPatches())
}

func TestLabelForwardRel32(t *testing.T) {
	b := NewBuffer()
	l := NewLabel()

	// jmp rel32 with a pending displacement at offset 1
	b.EmitByte(0xE9)
	l.AddPatchAt(PatchRel32, b.Position(), 0)
	b.EmitInt(0)
	require.Equal(t, 1, l.PendingPatches())

	b.EmitByte(0x90)
	b.EmitByte(0x90)
	l.Bind(b)

	// target 7, displacement relative to the end of the field at 5
	require.Equal(t, uint32(2), b.IntAt(1))
	require.Equal(t, 0, l.PendingPatches())
}

func TestLabelTableEntry(t *testing.T) {
	b := NewBuffer()
	l := NewLabel()

	tableBase := 4
	b.EmitInt(0)
	l.AddPatchAt(PatchTableEntry32, b.Position(), tableBase)
	b.EmitInt(0)
	b.EmitByte(0x90)
	l.Bind(b)

	// entry is relative to the table base, not the entry position
	require.Equal(t, uint32(9-tableBase), b.IntAt(4))
}

func TestLabelDoubleBindPanics(t *testing.T) {
	b := NewBuffer()
	l := NewLabel()
	l.Bind(b)
	require.Panics(t, func() { l.Bind(b) })
	require.Panics(t, func() { l.AddPatchAt(PatchRel32, 0, 0) })
}

func TestUnboundLabelPositionPanics(t *testing.T) {
	l := NewLabel()
	require.False(t, l.IsBound())
	require.Panics(t, func() { l.Position() })
}
