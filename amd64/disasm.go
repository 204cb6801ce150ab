package amd64

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// Disassemble renders emitted code for trace logging and tooling.
// Undecodable bytes (alignment padding inside jump tables) are shown as
// raw data bytes.
func Disassemble(code []byte) string {
	var sb strings.Builder
	offset := 0
	for offset < len(code) {
		inst, err := x86asm.Decode(code[offset:], 64)
		if err != nil || inst.Op == 0 {
			sb.WriteString(fmt.Sprintf("0x%04x: db 0x%02x\n", offset, code[offset]))
			offset++
			continue
		}
		length := inst.Len

		var hexBytes []string
		for i := 0; i < length; i++ {
			hexBytes = append(hexBytes, fmt.Sprintf("%02x", code[offset+i]))
		}
		sb.WriteString(fmt.Sprintf(
			"0x%04x: %-16s %s\n",
			offset,
			strings.Join(hexBytes, " "),
			inst.String(),
		))
		offset += length
	}
	return sb.String()
}

// DisassembleInstructions decodes the buffer into instruction records,
// keyed by offset, for tests that assert on instruction identity.
func DisassembleInstructions(code []byte) map[int]x86asm.Inst {
	insts := make(map[int]x86asm.Inst)
	offset := 0
	for offset < len(code) {
		inst, err := x86asm.Decode(code[offset:], 64)
		if err != nil || inst.Op == 0 {
			offset++
			continue
		}
		insts[offset] = inst
		offset += inst.Len
	}
	return insts
}
