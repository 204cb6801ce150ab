// Package asm provides the architecture-neutral pieces of code emission:
// a growable, position-addressable code buffer and two-phase labels.
package asm

import "encoding/binary"

// Buffer is an append-only byte sequence with an addressable cursor.
// Bytes already emitted may be overwritten in place, which is how forward
// references (branches, jump tables, reserved loads) get resolved.
type Buffer struct {
	data []byte
}

func NewBuffer() *Buffer {
	return &Buffer{data: make([]byte, 0, 256)}
}

// Position returns the offset at which the next byte will be emitted.
func (b *Buffer) Position() int {
	return len(b.data)
}

func (b *Buffer) EmitByte(v byte) {
	b.data = append(b.data, v)
}

func (b *Buffer) EmitBytes(v ...byte) {
	b.data = append(b.data, v...)
}

func (b *Buffer) EmitShort(v uint16) {
	b.data = binary.LittleEndian.AppendUint16(b.data, v)
}

func (b *Buffer) EmitInt(v uint32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, v)
}

func (b *Buffer) EmitLong(v uint64) {
	b.data = binary.LittleEndian.AppendUint64(b.data, v)
}

// PutIntAt overwrites the four bytes at pos. pos must address bytes that
// have already been emitted.
func (b *Buffer) PutIntAt(pos int, v uint32) {
	binary.LittleEndian.PutUint32(b.data[pos:], v)
}

func (b *Buffer) PutByteAt(pos int, v byte) {
	b.data[pos] = v
}

func (b *Buffer) IntAt(pos int) uint32 {
	return binary.LittleEndian.Uint32(b.data[pos:])
}

func (b *Buffer) ByteAt(pos int) byte {
	return b.data[pos]
}

// Bytes returns the emitted code. The slice aliases the buffer's storage;
// callers finishing a compilation should copy it if the buffer lives on.
func (b *Buffer) Bytes() []byte {
	return b.data
}
