package amd64

import (
	"fmt"

	"github.com/embervm/ember/asm"
	"github.com/embervm/ember/lir"
)

// Mem is a resolved memory reference. RIP selects rip-relative
// addressing, where Disp is a placeholder patched by the caller.
type Mem struct {
	Base  lir.Register
	Index lir.Register
	Scale lir.Scale
	Disp  int32
	RIP   bool
}

func BaseDisp(base lir.Register, disp int32) Mem {
	return Mem{Base: base, Index: lir.NoRegister, Scale: lir.Times1, Disp: disp}
}

func ripRef() Mem {
	return Mem{Base: lir.NoRegister, Index: lir.NoRegister, Scale: lir.Times1, RIP: true}
}

func (m Mem) String() string {
	if m.RIP {
		return fmt.Sprintf("[rip%+d]", m.Disp)
	}
	if m.Index.IsValid() {
		return fmt.Sprintf("[%s+%s*%d%+d]", m.Base, m.Index, m.Scale, m.Disp)
	}
	return fmt.Sprintf("[%s%+d]", m.Base, m.Disp)
}

// Assembler emits raw x86-64 instructions into a code buffer. It knows
// encodings only; operand selection lives in the Emitter.
type Assembler struct {
	Buf *asm.Buffer
}

func NewAssembler(buf *asm.Buffer) *Assembler {
	return &Assembler{Buf: buf}
}

func (a *Assembler) Position() int { return a.Buf.Position() }

// rex emits a REX prefix when any extension bit is set, the operand size
// is 64 bits, or force is set (uniform byte registers spl/bpl/sil/dil).
func (a *Assembler) rex(w bool, bits byte, force bool) {
	if w {
		bits |= rexW
	}
	if bits != 0 || force {
		a.Buf.EmitByte(rexBase | bits)
	}
}

func (a *Assembler) rexRR(w bool, reg, rm lir.Register, force bool) {
	a.rex(w, rexBit(reg)<<2|rexBit(rm), force)
}

func (a *Assembler) rexM(w bool, reg lir.Register, m Mem, force bool) {
	var bits byte = rexBit(reg) << 2
	if m.Index.IsValid() {
		bits |= rexBit(m.Index) << 1
	}
	if m.Base.IsValid() {
		bits |= rexBit(m.Base)
	}
	a.rex(w, bits, force)
}

func (a *Assembler) modrm(mod, reg, rm byte) {
	a.Buf.EmitByte(mod<<6 | (reg&7)<<3 | rm&7)
}

func (a *Assembler) sib(scale lir.Scale, index, base byte) {
	var ss byte
	switch scale {
	case lir.Times1:
		ss = 0
	case lir.Times2:
		ss = 1
	case lir.Times4:
		ss = 2
	case lir.Times8:
		ss = 3
	}
	a.Buf.EmitByte(ss<<6 | (index&7)<<3 | base&7)
}

// operand encodes the ModRM/SIB/displacement bytes for a memory operand
// with regField in the reg slot. Returns the buffer position of the
// 32-bit displacement when one was emitted, else -1.
func (a *Assembler) operand(regField byte, m Mem) int {
	if m.RIP {
		a.modrm(modIndirect, regField, 5)
		pos := a.Buf.Position()
		a.Buf.EmitInt(uint32(m.Disp))
		return pos
	}
	if !m.Base.IsValid() {
		// absolute [disp32]: SIB with no base, no index
		idx := byte(4)
		if m.Index.IsValid() {
			idx = regBits(m.Index)
		}
		a.modrm(modIndirect, regField, 4)
		a.sib(m.Scale, idx, 5)
		pos := a.Buf.Position()
		a.Buf.EmitInt(uint32(m.Disp))
		return pos
	}

	base := regBits(m.Base)
	needSIB := m.Index.IsValid() || base == 4 // rsp/r12 base always needs SIB
	mod := byte(modIndirectDisp32)
	switch {
	case m.Disp == 0 && base != 5: // rbp/r13 base has no disp-less form
		mod = modIndirect
	case m.Disp >= -128 && m.Disp <= 127:
		mod = modIndirectDisp8
	}

	if needSIB {
		idx := byte(4)
		if m.Index.IsValid() {
			if regBits(m.Index) == 4 && rexBit(m.Index) == 0 {
				panic("amd64: rsp cannot be an index register")
			}
			idx = regBits(m.Index)
		}
		a.modrm(mod, regField, 4)
		a.sib(m.Scale, idx, base)
	} else {
		a.modrm(mod, regField, base)
	}

	switch mod {
	case modIndirectDisp8:
		a.Buf.EmitByte(byte(m.Disp))
	case modIndirectDisp32:
		pos := a.Buf.Position()
		a.Buf.EmitInt(uint32(m.Disp))
		return pos
	}
	return -1
}

// uniformByteReg reports a GP register whose low byte is only reachable
// with a REX prefix present.
func uniformByteReg(r lir.Register) bool {
	return !r.FPU && r.Num >= 4 && r.Num <= 7
}

// ---- moves ----

func (a *Assembler) MovRR(w bool, dst, src lir.Register) {
	a.rexRR(w, dst, src, false)
	a.Buf.EmitByte(opMovRRM)
	a.modrm(modRegister, regBits(dst), regBits(src))
}

func (a *Assembler) MovRM(w bool, dst lir.Register, m Mem) int {
	a.rexM(w, dst, m, false)
	a.Buf.EmitByte(opMovRRM)
	return a.operand(regBits(dst), m)
}

func (a *Assembler) MovMR(w bool, m Mem, src lir.Register) int {
	a.rexM(w, src, m, false)
	a.Buf.EmitByte(opMovRMR)
	return a.operand(regBits(src), m)
}

func (a *Assembler) MovMR8(m Mem, src lir.Register) {
	a.rexM(false, src, m, uniformByteReg(src))
	a.Buf.EmitByte(opMovRM8R8)
	a.operand(regBits(src), m)
}

func (a *Assembler) MovMR16(m Mem, src lir.Register) {
	a.Buf.EmitByte(opPrefixOpSize)
	a.rexM(false, src, m, false)
	a.Buf.EmitByte(opMovRMR)
	a.operand(regBits(src), m)
}

// MovsxB and friends are the widening loads for sub-word kinds.
func (a *Assembler) MovsxB(dst lir.Register, m Mem) {
	a.rexM(false, dst, m, false)
	a.Buf.EmitBytes(op2Escape, op2MovsxB)
	a.operand(regBits(dst), m)
}

func (a *Assembler) MovzxB(dst lir.Register, m Mem) {
	a.rexM(false, dst, m, false)
	a.Buf.EmitBytes(op2Escape, op2MovzxB)
	a.operand(regBits(dst), m)
}

func (a *Assembler) MovsxW(dst lir.Register, m Mem) {
	a.rexM(false, dst, m, false)
	a.Buf.EmitBytes(op2Escape, op2MovsxW)
	a.operand(regBits(dst), m)
}

func (a *Assembler) MovzxW(dst lir.Register, m Mem) {
	a.rexM(false, dst, m, false)
	a.Buf.EmitBytes(op2Escape, op2MovzxW)
	a.operand(regBits(dst), m)
}

// Register-to-register widening forms, used by the narrowing
// conversions (i2b, i2c, i2s).
func (a *Assembler) MovsxBRR(dst, src lir.Register) {
	a.rexRR(false, dst, src, uniformByteReg(src))
	a.Buf.EmitBytes(op2Escape, op2MovsxB)
	a.modrm(modRegister, regBits(dst), regBits(src))
}

func (a *Assembler) MovzxBRR(dst, src lir.Register) {
	a.rexRR(false, dst, src, uniformByteReg(src))
	a.Buf.EmitBytes(op2Escape, op2MovzxB)
	a.modrm(modRegister, regBits(dst), regBits(src))
}

func (a *Assembler) MovsxWRR(dst, src lir.Register) {
	a.rexRR(false, dst, src, false)
	a.Buf.EmitBytes(op2Escape, op2MovsxW)
	a.modrm(modRegister, regBits(dst), regBits(src))
}

func (a *Assembler) MovzxWRR(dst, src lir.Register) {
	a.rexRR(false, dst, src, false)
	a.Buf.EmitBytes(op2Escape, op2MovzxW)
	a.modrm(modRegister, regBits(dst), regBits(src))
}

// MovsxdRR sign-extends a 32-bit register into 64 bits.
func (a *Assembler) MovsxdRR(dst, src lir.Register) {
	a.rexRR(true, dst, src, false)
	a.Buf.EmitByte(opMovsxd)
	a.modrm(modRegister, regBits(dst), regBits(src))
}

func (a *Assembler) MovsxdRM(dst lir.Register, m Mem) {
	a.rexM(true, dst, m, false)
	a.Buf.EmitByte(opMovsxd)
	a.operand(regBits(dst), m)
}

// MovImm32 writes a sign-extended 32-bit immediate into a register.
func (a *Assembler) MovImm32(w bool, dst lir.Register, imm int32) {
	a.rex(w, rexBit(dst), false)
	a.Buf.EmitByte(opMovRMImm)
	a.modrm(modRegister, 0, regBits(dst))
	a.Buf.EmitInt(uint32(imm))
}

// MovImm64 materializes a full 64-bit immediate. Returns the position of
// the immediate for install-time patching.
func (a *Assembler) MovImm64(dst lir.Register, imm uint64) int {
	a.rex(true, rexBit(dst), false)
	a.Buf.EmitByte(opMovRImm + regBits(dst))
	pos := a.Buf.Position()
	a.Buf.EmitLong(imm)
	return pos
}

func (a *Assembler) MovMemImm32(w bool, m Mem, imm int32) {
	a.rexM(w, lir.Register{}, m, false)
	a.Buf.EmitByte(opMovRMImm)
	a.operand(0, m)
	a.Buf.EmitInt(uint32(imm))
}

func (a *Assembler) MovMemImm8(m Mem, imm int8) {
	a.rexM(false, lir.Register{}, m, false)
	a.Buf.EmitByte(opMovRMImm8)
	a.operand(0, m)
	a.Buf.EmitByte(byte(imm))
}

func (a *Assembler) MovMemImm16(m Mem, imm int16) {
	a.Buf.EmitByte(opPrefixOpSize)
	a.rexM(false, lir.Register{}, m, false)
	a.Buf.EmitByte(opMovRMImm)
	a.operand(0, m)
	a.Buf.EmitShort(uint16(imm))
}

// ---- arithmetic / logic ----

// aluRR uses the r <- r/m opcode form.
func (a *Assembler) aluRR(op byte, w bool, dst, src lir.Register) {
	a.rexRR(w, dst, src, false)
	a.Buf.EmitByte(op)
	a.modrm(modRegister, regBits(dst), regBits(src))
}

func (a *Assembler) aluRM(op byte, w bool, dst lir.Register, m Mem) {
	a.rexM(w, dst, m, false)
	a.Buf.EmitByte(op)
	a.operand(regBits(dst), m)
}

func (a *Assembler) aluMR(op byte, w bool, m Mem, src lir.Register) {
	a.rexM(w, src, m, false)
	a.Buf.EmitByte(op)
	a.operand(regBits(src), m)
}

// aluImm picks the sign-extended imm8 form when the value fits.
func (a *Assembler) aluImm(digit byte, w bool, dst lir.Register, imm int32) {
	a.rex(w, rexBit(dst), false)
	if imm >= -128 && imm <= 127 {
		a.Buf.EmitByte(opGroup1Imm8)
		a.modrm(modRegister, digit, regBits(dst))
		a.Buf.EmitByte(byte(imm))
		return
	}
	a.Buf.EmitByte(opGroup1Imm32)
	a.modrm(modRegister, digit, regBits(dst))
	a.Buf.EmitInt(uint32(imm))
}

func (a *Assembler) aluMemImm(digit byte, w bool, m Mem, imm int32) {
	a.rexM(w, lir.Register{}, m, false)
	if imm >= -128 && imm <= 127 {
		a.Buf.EmitByte(opGroup1Imm8)
		a.operand(digit, m)
		a.Buf.EmitByte(byte(imm))
		return
	}
	a.Buf.EmitByte(opGroup1Imm32)
	a.operand(digit, m)
	a.Buf.EmitInt(uint32(imm))
}

func (a *Assembler) AddRR(w bool, dst, src lir.Register)   { a.aluRR(opAddRRM, w, dst, src) }
func (a *Assembler) SubRR(w bool, dst, src lir.Register)   { a.aluRR(opSubRRM, w, dst, src) }
func (a *Assembler) AndRR(w bool, dst, src lir.Register)   { a.aluRR(opAndRRM, w, dst, src) }
func (a *Assembler) OrRR(w bool, dst, src lir.Register)    { a.aluRR(opOrRRM, w, dst, src) }
func (a *Assembler) XorRR(w bool, dst, src lir.Register)   { a.aluRR(opXorRRM, w, dst, src) }
func (a *Assembler) CmpRR(w bool, x, y lir.Register)       { a.aluRR(opCmpRRM, w, x, y) }
func (a *Assembler) AddRM(w bool, dst lir.Register, m Mem) { a.aluRM(opAddRRM, w, dst, m) }
func (a *Assembler) SubRM(w bool, dst lir.Register, m Mem) { a.aluRM(opSubRRM, w, dst, m) }
func (a *Assembler) AndRM(w bool, dst lir.Register, m Mem) { a.aluRM(opAndRRM, w, dst, m) }
func (a *Assembler) OrRM(w bool, dst lir.Register, m Mem)  { a.aluRM(opOrRRM, w, dst, m) }
func (a *Assembler) XorRM(w bool, dst lir.Register, m Mem) { a.aluRM(opXorRRM, w, dst, m) }
func (a *Assembler) CmpRM(w bool, x lir.Register, m Mem)   { a.aluRM(opCmpRRM, w, x, m) }

func (a *Assembler) AddImm(w bool, dst lir.Register, imm int32) { a.aluImm(g1Add, w, dst, imm) }
func (a *Assembler) SubImm(w bool, dst lir.Register, imm int32) { a.aluImm(g1Sub, w, dst, imm) }
func (a *Assembler) AndImm(w bool, dst lir.Register, imm int32) { a.aluImm(g1And, w, dst, imm) }
func (a *Assembler) OrImm(w bool, dst lir.Register, imm int32)  { a.aluImm(g1Or, w, dst, imm) }
func (a *Assembler) XorImm(w bool, dst lir.Register, imm int32) { a.aluImm(g1Xor, w, dst, imm) }
func (a *Assembler) CmpImm(w bool, x lir.Register, imm int32)   { a.aluImm(g1Cmp, w, x, imm) }

func (a *Assembler) CmpMemImm(w bool, m Mem, imm int32) { a.aluMemImm(g1Cmp, w, m, imm) }

func (a *Assembler) TestRR(w bool, x, y lir.Register) {
	a.rexRR(w, y, x, false)
	a.Buf.EmitByte(opTestRMR)
	a.modrm(modRegister, regBits(y), regBits(x))
}

func (a *Assembler) TestImm(w bool, r lir.Register, imm int32) {
	a.rex(w, rexBit(r), false)
	a.Buf.EmitByte(opGroup3)
	a.modrm(modRegister, 0, regBits(r))
	a.Buf.EmitInt(uint32(imm))
}

func (a *Assembler) Inc(w bool, r lir.Register) {
	a.rex(w, rexBit(r), false)
	a.Buf.EmitByte(opGroup5)
	a.modrm(modRegister, g5Inc, regBits(r))
}

func (a *Assembler) Dec(w bool, r lir.Register) {
	a.rex(w, rexBit(r), false)
	a.Buf.EmitByte(opGroup5)
	a.modrm(modRegister, g5Dec, regBits(r))
}

func (a *Assembler) Neg(w bool, r lir.Register) {
	a.rex(w, rexBit(r), false)
	a.Buf.EmitByte(opGroup3)
	a.modrm(modRegister, g3Neg, regBits(r))
}

func (a *Assembler) Not(w bool, r lir.Register) {
	a.rex(w, rexBit(r), false)
	a.Buf.EmitByte(opGroup3)
	a.modrm(modRegister, g3Not, regBits(r))
}

// ImulImm multiplies src by an immediate into dst.
func (a *Assembler) ImulImm(w bool, dst, src lir.Register, imm int32) {
	a.rexRR(w, dst, src, false)
	if imm >= -128 && imm <= 127 {
		a.Buf.EmitByte(0x6B)
		a.modrm(modRegister, regBits(dst), regBits(src))
		a.Buf.EmitByte(byte(imm))
		return
	}
	a.Buf.EmitByte(0x69)
	a.modrm(modRegister, regBits(dst), regBits(src))
	a.Buf.EmitInt(uint32(imm))
}

func (a *Assembler) ImulRR(w bool, dst, src lir.Register) {
	a.rexRR(w, dst, src, false)
	a.Buf.EmitBytes(op2Escape, op2ImulRRM)
	a.modrm(modRegister, regBits(dst), regBits(src))
}

// IDiv divides rdx:rax by r; Div is the unsigned form.
func (a *Assembler) IDiv(w bool, r lir.Register) {
	a.rex(w, rexBit(r), false)
	a.Buf.EmitByte(opGroup3)
	a.modrm(modRegister, g3IDiv, regBits(r))
}

func (a *Assembler) Div(w bool, r lir.Register) {
	a.rex(w, rexBit(r), false)
	a.Buf.EmitByte(opGroup3)
	a.modrm(modRegister, g3Div, regBits(r))
}

// Cdq sign-extends eax into edx; with w it is cqo (rax into rdx).
func (a *Assembler) Cdq(w bool) {
	a.rex(w, 0, false)
	a.Buf.EmitByte(opCdq)
}

func (a *Assembler) ShiftImm(digit byte, w bool, r lir.Register, imm byte) {
	a.rex(w, rexBit(r), false)
	a.Buf.EmitByte(opGroup2Imm8)
	a.modrm(modRegister, digit, regBits(r))
	a.Buf.EmitByte(imm)
}

func (a *Assembler) ShiftCL(digit byte, w bool, r lir.Register) {
	a.rex(w, rexBit(r), false)
	a.Buf.EmitByte(opGroup2CL)
	a.modrm(modRegister, digit, regBits(r))
}

func (a *Assembler) Lea(w bool, dst lir.Register, m Mem) int {
	a.rexM(w, dst, m, false)
	a.Buf.EmitByte(opLea)
	return a.operand(regBits(dst), m)
}

func (a *Assembler) Bsf(w bool, dst, src lir.Register) {
	a.rexRR(w, dst, src, false)
	a.Buf.EmitBytes(op2Escape, op2Bsf)
	a.modrm(modRegister, regBits(dst), regBits(src))
}

func (a *Assembler) Bsr(w bool, dst, src lir.Register) {
	a.rexRR(w, dst, src, false)
	a.Buf.EmitBytes(op2Escape, op2Bsr)
	a.modrm(modRegister, regBits(dst), regBits(src))
}

// BtMemImm tests a bit in memory, setting the carry flag.
func (a *Assembler) BtMemImm(m Mem, bit byte) {
	a.rexM(false, lir.Register{}, m, false)
	a.Buf.EmitBytes(op2Escape, 0xBA)
	a.operand(4, m)
	a.Buf.EmitByte(bit)
}

// ---- stack ----

func (a *Assembler) Push(r lir.Register) {
	a.rex(false, rexBit(r), false)
	a.Buf.EmitByte(opPushR + regBits(r))
}

func (a *Assembler) Pop(r lir.Register) {
	a.rex(false, rexBit(r), false)
	a.Buf.EmitByte(opPopR + regBits(r))
}

func (a *Assembler) PushMem(m Mem) {
	a.rexM(false, lir.Register{}, m, false)
	a.Buf.EmitByte(opGroup5)
	a.operand(g5Push, m)
}

// ---- control flow ----

// rel32 emits the 4-byte displacement for a label target, registering a
// patch request when the label is still unbound.
func (a *Assembler) rel32(l *asm.Label) {
	pos := a.Buf.Position()
	if l.IsBound() {
		a.Buf.EmitInt(uint32(l.Position() - (pos + 4)))
		return
	}
	l.AddPatchAt(asm.PatchRel32, pos, 0)
	a.Buf.EmitInt(0)
}

func (a *Assembler) Jcc(cc ccode, l *asm.Label) {
	a.Buf.EmitBytes(op2Escape, op2JccBase+byte(cc))
	a.rel32(l)
}

func (a *Assembler) Jmp(l *asm.Label) {
	a.Buf.EmitByte(opJmpRel32)
	a.rel32(l)
}

func (a *Assembler) JmpReg(r lir.Register) {
	a.rex(false, rexBit(r), false)
	a.Buf.EmitByte(opGroup5)
	a.modrm(modRegister, g5Jmp, regBits(r))
}

// CallRel32 emits a direct call with a zero displacement and returns the
// displacement position; the installer resolves the real target.
func (a *Assembler) CallRel32() int {
	a.Buf.EmitByte(opCallRel32)
	pos := a.Buf.Position()
	a.Buf.EmitInt(0)
	return pos
}

func (a *Assembler) CallReg(r lir.Register) {
	a.rex(false, rexBit(r), false)
	a.Buf.EmitByte(opGroup5)
	a.modrm(modRegister, g5Call, regBits(r))
}

func (a *Assembler) Setcc(cc ccode, r lir.Register) {
	a.rex(false, rexBit(r), uniformByteReg(r))
	a.Buf.EmitBytes(op2Escape, op2SetccBase+byte(cc))
	a.modrm(modRegister, 0, regBits(r))
}

func (a *Assembler) Cmovcc(cc ccode, w bool, dst, src lir.Register) {
	a.rexRR(w, dst, src, false)
	a.Buf.EmitBytes(op2Escape, op2CmovBase+byte(cc))
	a.modrm(modRegister, regBits(dst), regBits(src))
}

func (a *Assembler) Ret()  { a.Buf.EmitByte(opRet) }
func (a *Assembler) Int3() { a.Buf.EmitByte(opInt3) }
func (a *Assembler) Hlt()  { a.Buf.EmitByte(opHlt) }

// Nop emits n bytes of single-byte no-ops.
func (a *Assembler) Nop(n int) {
	for i := 0; i < n; i++ {
		a.Buf.EmitByte(opNop)
	}
}

// AlignTo pads with no-ops to the next multiple.
func (a *Assembler) AlignTo(multiple int) {
	for a.Buf.Position()%multiple != 0 {
		a.Buf.EmitByte(opNop)
	}
}

// ---- atomics / ordering ----

func (a *Assembler) Lock() { a.Buf.EmitByte(opLock) }

func (a *Assembler) Cmpxchg(w bool, m Mem, src lir.Register) {
	a.rexM(w, src, m, false)
	a.Buf.EmitBytes(op2Escape, op2Cmpxchg)
	a.operand(regBits(src), m)
}

func (a *Assembler) MFence() {
	a.Buf.EmitBytes(op2Escape, op2MFence, 0xF0)
}

func (a *Assembler) PrefetchT0(m Mem) {
	a.rexM(false, lir.Register{}, m, false)
	a.Buf.EmitBytes(op2Escape, op2Prefetch)
	a.operand(1, m)
}

// ---- string moves ----

func (a *Assembler) RepMovsb() {
	a.Buf.EmitBytes(opF3, opRepMovsb)
}

func (a *Assembler) RepMovsq() {
	a.Buf.EmitByte(opF3)
	a.rex(true, 0, false)
	a.Buf.EmitByte(opRepMovsq)
}

// ---- condition mapping ----

// intCC maps a logical condition onto the flag encoding after an
// integer compare.
func intCC(c lir.Condition) ccode {
	switch c {
	case lir.CondEQ:
		return ccE
	case lir.CondNE:
		return ccNE
	case lir.CondLT:
		return ccL
	case lir.CondLE:
		return ccLE
	case lir.CondGE:
		return ccGE
	case lir.CondGT:
		return ccG
	case lir.CondBT:
		return ccB
	case lir.CondBE:
		return ccBE
	case lir.CondAE:
		return ccAE
	case lir.CondAT:
		return ccA
	case lir.CondOF:
		return ccO
	case lir.CondNOF:
		return ccNO
	}
	panic("amd64: no flag encoding for condition " + c.String())
}

// floatCC maps a condition onto the flags ucomiss/ucomisd produce, which
// mirror an unsigned compare.
func floatCC(c lir.Condition) ccode {
	switch c {
	case lir.CondEQ:
		return ccE
	case lir.CondNE:
		return ccNE
	case lir.CondLT, lir.CondBT:
		return ccB
	case lir.CondLE, lir.CondBE:
		return ccBE
	case lir.CondGE, lir.CondAE:
		return ccAE
	case lir.CondGT, lir.CondAT:
		return ccA
	}
	panic("amd64: no float flag encoding for condition " + c.String())
}

// trueOnUnordered reports whether the flag pattern left by a NaN compare
// (ZF=PF=CF=1) already satisfies the condition.
func trueOnUnordered(c lir.Condition) bool {
	switch c {
	case lir.CondEQ, lir.CondLE, lir.CondBE, lir.CondLT, lir.CondBT:
		return true
	}
	return false
}
