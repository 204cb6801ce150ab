package amd64

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"
)

func TestDisassembleUndecodableBytes(t *testing.T) {
	// a lone escape byte cannot decode; it is rendered as raw data
	out := Disassemble([]byte{0xC3, 0x0F})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "0x0000")
	require.Contains(t, lines[1], "db 0x0f")

	require.Empty(t, DisassembleInstructions([]byte{0x0F}))
}

func TestDisassembleInstructionOffsets(t *testing.T) {
	a := newAsm()
	a.MovImm32(false, RAX, 42)
	a.Ret()
	insts := DisassembleInstructions(a.Buf.Bytes())
	require.Equal(t, x86asm.MOV, insts[0].Op)
	require.Equal(t, x86asm.RET, insts[6].Op)
}
