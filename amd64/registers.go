// Package amd64 is the x86-64 code-emission backend: it lowers a
// register-allocated LIR sequence and its XIR snippets into machine code
// plus the side tables (calls, implicit exceptions, safepoints, data
// patches, jump tables) the installer consumes.
package amd64

import "github.com/embervm/ember/lir"

// General-purpose registers, Num is the hardware encoding.
var (
	RAX = lir.Register{Num: 0, Name: "rax"}
	RCX = lir.Register{Num: 1, Name: "rcx"}
	RDX = lir.Register{Num: 2, Name: "rdx"}
	RBX = lir.Register{Num: 3, Name: "rbx"}
	RSP = lir.Register{Num: 4, Name: "rsp"}
	RBP = lir.Register{Num: 5, Name: "rbp"}
	RSI = lir.Register{Num: 6, Name: "rsi"}
	RDI = lir.Register{Num: 7, Name: "rdi"}
	R8  = lir.Register{Num: 8, Name: "r8"}
	R9  = lir.Register{Num: 9, Name: "r9"}
	R10 = lir.Register{Num: 10, Name: "r10"}
	R11 = lir.Register{Num: 11, Name: "r11"}
	R12 = lir.Register{Num: 12, Name: "r12"}
	R13 = lir.Register{Num: 13, Name: "r13"}
	R14 = lir.Register{Num: 14, Name: "r14"}
	R15 = lir.Register{Num: 15, Name: "r15"}
)

// XMM registers, numbered after the GP file.
var (
	XMM0  = lir.Register{Num: 16, Name: "xmm0", FPU: true}
	XMM1  = lir.Register{Num: 17, Name: "xmm1", FPU: true}
	XMM2  = lir.Register{Num: 18, Name: "xmm2", FPU: true}
	XMM3  = lir.Register{Num: 19, Name: "xmm3", FPU: true}
	XMM4  = lir.Register{Num: 20, Name: "xmm4", FPU: true}
	XMM5  = lir.Register{Num: 21, Name: "xmm5", FPU: true}
	XMM6  = lir.Register{Num: 22, Name: "xmm6", FPU: true}
	XMM7  = lir.Register{Num: 23, Name: "xmm7", FPU: true}
	XMM8  = lir.Register{Num: 24, Name: "xmm8", FPU: true}
	XMM9  = lir.Register{Num: 25, Name: "xmm9", FPU: true}
	XMM10 = lir.Register{Num: 26, Name: "xmm10", FPU: true}
	XMM11 = lir.Register{Num: 27, Name: "xmm11", FPU: true}
	XMM12 = lir.Register{Num: 28, Name: "xmm12", FPU: true}
	XMM13 = lir.Register{Num: 29, Name: "xmm13", FPU: true}
	XMM14 = lir.Register{Num: 30, Name: "xmm14", FPU: true}
	XMM15 = lir.Register{Num: 31, Name: "xmm15", FPU: true}
)

// Fixed-role registers of the calling convention and the ISA.
var (
	// ScratchRegister is reserved for the backend; never allocated.
	ScratchRegister = R11
	// ShiftCountRegister holds variable shift amounts.
	ShiftCountRegister = RCX
	// CASCompareRegister must hold the expected value at a cmpxchg.
	CASCompareRegister = RAX
	// SafepointLatchRegister holds the thread-local safepoint page.
	SafepointLatchRegister = R14
	// XMMScratchRegister backs volatile 64-bit moves and conversions.
	XMMScratchRegister = XMM15
)

// encoding returns the 4-bit hardware number within the register file.
func encoding(r lir.Register) int {
	if !r.IsValid() {
		panic("amd64: encoding of invalid register " + r.Name)
	}
	if r.FPU {
		return r.Num - 16
	}
	return r.Num
}

// regBits is the 3-bit ModRM/SIB field, rexBit the extension bit.
func regBits(r lir.Register) byte { return byte(encoding(r) & 7) }
func rexBit(r lir.Register) byte {
	if encoding(r) >= 8 {
		return 1
	}
	return 0
}
