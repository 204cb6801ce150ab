package amd64

import "github.com/embervm/ember/lir"

// SSE scalar instructions. The mandatory prefix (F3/F2/66) precedes the
// REX byte; prefix 0 means none.

func (a *Assembler) sseRR(prefix, op byte, w bool, reg, rm lir.Register) {
	if prefix != 0 {
		a.Buf.EmitByte(prefix)
	}
	a.rexRR(w, reg, rm, false)
	a.Buf.EmitBytes(op2Escape, op)
	a.modrm(modRegister, regBits(reg), regBits(rm))
}

func (a *Assembler) sseRM(prefix, op byte, w bool, reg lir.Register, m Mem) int {
	if prefix != 0 {
		a.Buf.EmitByte(prefix)
	}
	a.rexM(w, reg, m, false)
	a.Buf.EmitBytes(op2Escape, op)
	return a.operand(regBits(reg), m)
}

// ---- float moves ----

func (a *Assembler) MovssRR(dst, src lir.Register) {
	a.sseRR(opF3, sseMovUpsLoad, false, dst, src)
}

func (a *Assembler) MovsdRR(dst, src lir.Register) {
	a.sseRR(opF2, sseMovUpsLoad, false, dst, src)
}

func (a *Assembler) MovssRM(dst lir.Register, m Mem) int {
	return a.sseRM(opF3, sseMovUpsLoad, false, dst, m)
}

func (a *Assembler) MovsdRM(dst lir.Register, m Mem) int {
	return a.sseRM(opF2, sseMovUpsLoad, false, dst, m)
}

func (a *Assembler) MovssMR(m Mem, src lir.Register) int {
	return a.sseRM(opF3, sseMovUpsStore, false, src, m)
}

func (a *Assembler) MovsdMR(m Mem, src lir.Register) int {
	return a.sseRM(opF2, sseMovUpsStore, false, src, m)
}

// MovdToXmm moves a GP register's bits into an XMM register; with w it
// is the 64-bit movq form.
func (a *Assembler) MovdToXmm(w bool, dst, src lir.Register) {
	a.sseRR(opPrefixOpSize, sseMovdToXmm, w, dst, src)
}

func (a *Assembler) MovdFromXmm(w bool, dst, src lir.Register) {
	a.sseRR(opPrefixOpSize, sseMovdFromXmm, w, src, dst)
}

// ---- float arithmetic ----

func (a *Assembler) Addss(dst, src lir.Register) { a.sseRR(opF3, sseAdd, false, dst, src) }
func (a *Assembler) Addsd(dst, src lir.Register) { a.sseRR(opF2, sseAdd, false, dst, src) }
func (a *Assembler) Subss(dst, src lir.Register) { a.sseRR(opF3, sseSub, false, dst, src) }
func (a *Assembler) Subsd(dst, src lir.Register) { a.sseRR(opF2, sseSub, false, dst, src) }
func (a *Assembler) Mulss(dst, src lir.Register) { a.sseRR(opF3, sseMul, false, dst, src) }
func (a *Assembler) Mulsd(dst, src lir.Register) { a.sseRR(opF2, sseMul, false, dst, src) }
func (a *Assembler) Divss(dst, src lir.Register) { a.sseRR(opF3, sseDiv, false, dst, src) }
func (a *Assembler) Divsd(dst, src lir.Register) { a.sseRR(opF2, sseDiv, false, dst, src) }

func (a *Assembler) Sqrtss(dst, src lir.Register) { a.sseRR(opF3, sseSqrt, false, dst, src) }
func (a *Assembler) Sqrtsd(dst, src lir.Register) { a.sseRR(opF2, sseSqrt, false, dst, src) }

func (a *Assembler) AddssRM(dst lir.Register, m Mem) int {
	return a.sseRM(opF3, sseAdd, false, dst, m)
}

func (a *Assembler) AddsdRM(dst lir.Register, m Mem) int {
	return a.sseRM(opF2, sseAdd, false, dst, m)
}

// ---- bitwise (sign manipulation) ----

func (a *Assembler) Xorps(dst, src lir.Register) { a.sseRR(0, sseXorps, false, dst, src) }

func (a *Assembler) Xorpd(dst, src lir.Register) {
	a.sseRR(opPrefixOpSize, sseXorps, false, dst, src)
}

func (a *Assembler) XorpsRM(dst lir.Register, m Mem) int {
	return a.sseRM(0, sseXorps, false, dst, m)
}

func (a *Assembler) XorpdRM(dst lir.Register, m Mem) int {
	return a.sseRM(opPrefixOpSize, sseXorps, false, dst, m)
}

func (a *Assembler) AndpsRM(dst lir.Register, m Mem) int {
	return a.sseRM(0, sseAndps, false, dst, m)
}

func (a *Assembler) AndpdRM(dst lir.Register, m Mem) int {
	return a.sseRM(opPrefixOpSize, sseAndps, false, dst, m)
}

// ---- compares ----

func (a *Assembler) Ucomiss(x, y lir.Register) { a.sseRR(0, sseUcomiss, false, x, y) }

func (a *Assembler) Ucomisd(x, y lir.Register) {
	a.sseRR(opPrefixOpSize, sseUcomiss, false, x, y)
}

// ---- conversions ----

// Cvtsi2ss converts a GP integer (w selects 64-bit source) to float.
func (a *Assembler) Cvtsi2ss(w bool, dst, src lir.Register) {
	a.sseRR(opF3, sseCvtsi2ss, w, dst, src)
}

func (a *Assembler) Cvtsi2sd(w bool, dst, src lir.Register) {
	a.sseRR(opF2, sseCvtsi2ss, w, dst, src)
}

// Cvttss2si truncates toward zero into a GP register (w selects 64-bit
// destination).
func (a *Assembler) Cvttss2si(w bool, dst, src lir.Register) {
	a.sseRR(opF3, sseCvttss2si, w, dst, src)
}

func (a *Assembler) Cvttsd2si(w bool, dst, src lir.Register) {
	a.sseRR(opF2, sseCvttss2si, w, dst, src)
}

func (a *Assembler) Cvtss2sd(dst, src lir.Register) {
	a.sseRR(opF3, sseCvtss2sd, false, dst, src)
}

func (a *Assembler) Cvtsd2ss(dst, src lir.Register) {
	a.sseRR(opF2, sseCvtss2sd, false, dst, src)
}
