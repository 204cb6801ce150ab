package amd64

import (
	"math"
	"math/bits"

	"github.com/embervm/ember/asm"
	"github.com/embervm/ember/lir"
)

// Sign-manipulation masks for float negate/abs, loaded rip-relative via
// a data patch.
var (
	floatSignFlip  = lir.Operand{Tag: lir.TagConstant, Kind: lir.Float, Bits: 0x80000000}
	floatSignMask  = lir.Operand{Tag: lir.TagConstant, Kind: lir.Float, Bits: 0x7FFFFFFF}
	doubleSignFlip = lir.Operand{Tag: lir.TagConstant, Kind: lir.Double, Bits: 0x8000000000000000}
	doubleSignMask = lir.Operand{Tag: lir.TagConstant, Kind: lir.Double, Bits: 0x7FFFFFFFFFFFFFFF}
)

// emitArith handles the destructive two-operand Add/Sub/Mul/Div family.
// The left operand must already occupy the result location.
func (e *Emitter) emitArith(in *lir.Instr) {
	if !in.X.Equal(in.Result) {
		e.fatalf("arith left operand %s must equal result %s", in.X, in.Result)
	}
	switch in.Kind.StackKind() {
	case lir.Int:
		e.intArith(in, false)
	case lir.Long, lir.Word:
		e.intArith(in, true)
	case lir.Float, lir.Double:
		e.floatArith(in)
	default:
		e.fatalf("arith of kind %s", in.Kind)
	}
}

func (e *Emitter) intArith(in *lir.Instr, w bool) {
	dst := e.asGPRegister(in.Result)
	y := in.Y
	switch {
	case y.IsRegister():
		src := e.asGPRegister(y)
		switch in.Code {
		case lir.OpAdd:
			e.asm.AddRR(w, dst, src)
		case lir.OpSub:
			e.asm.SubRR(w, dst, src)
		case lir.OpMul:
			e.asm.ImulRR(w, dst, src)
		default:
			e.fatalf("integer %s with register operand", in.Code)
		}
	case y.IsConstant():
		v := y.AsInt()
		if w && y.Kind.Is64() {
			lv := y.AsLong()
			if lv != int64(int32(lv)) {
				e.const2reg(y, e.scratch)
				e.intArith(&lir.Instr{Code: in.Code, Kind: in.Kind,
					X: in.X, Y: lir.Reg(in.Kind, e.scratch), Result: in.Result}, w)
				return
			}
			v = int32(lv)
		}
		switch in.Code {
		case lir.OpAdd:
			switch v {
			case 1:
				e.asm.Inc(w, dst)
			case -1:
				e.asm.Dec(w, dst)
			default:
				e.asm.AddImm(w, dst, v)
			}
		case lir.OpSub:
			switch v {
			case 1:
				e.asm.Dec(w, dst)
			case -1:
				e.asm.Inc(w, dst)
			default:
				e.asm.SubImm(w, dst, v)
			}
		case lir.OpMul:
			e.asm.ImulImm(w, dst, dst, v)
		default:
			e.fatalf("integer %s with constant operand", in.Code)
		}
	case y.IsStack():
		slot := e.stackSlotMem(y)
		switch in.Code {
		case lir.OpAdd:
			e.asm.AddRM(w, dst, slot)
		case lir.OpSub:
			e.asm.SubRM(w, dst, slot)
		default:
			e.fatalf("integer %s with stack operand", in.Code)
		}
	default:
		e.fatalf("integer %s with operand %s", in.Code, y)
	}
}

func (e *Emitter) floatArith(in *lir.Instr) {
	dst := e.asXMMRegister(in.Result)
	double := in.Kind.IsDouble()
	prefix := byte(opF3)
	if double {
		prefix = opF2
	}
	var op byte
	switch in.Code {
	case lir.OpAdd:
		op = sseAdd
	case lir.OpSub:
		op = sseSub
	case lir.OpMul:
		op = sseMul
	case lir.OpDiv:
		op = sseDiv
	default:
		e.fatalf("float %s", in.Code)
	}
	y := in.Y
	switch {
	case y.IsRegister():
		e.asm.sseRR(prefix, op, false, dst, e.asXMMRegister(y))
	case y.IsStack():
		e.asm.sseRM(prefix, op, false, dst, e.stackSlotMem(y))
	case y.IsConstant():
		pos := e.asm.sseRM(prefix, op, false, dst, ripRef())
		e.target.recordDataPatch(pos, PatchDataRef, y)
	default:
		e.fatalf("float %s with operand %s", in.Code, y)
	}
}

func (e *Emitter) emitNegate(in *lir.Instr) {
	e.moveOperand(in.X, in.Result, in.Kind, nil)
	switch in.Kind.StackKind() {
	case lir.Int:
		e.asm.Neg(false, e.asGPRegister(in.Result))
	case lir.Long, lir.Word:
		e.asm.Neg(true, e.asGPRegister(in.Result))
	case lir.Float:
		pos := e.asm.XorpsRM(e.asXMMRegister(in.Result), ripRef())
		e.target.recordDataPatch(pos, PatchDataRef, floatSignFlip)
	case lir.Double:
		pos := e.asm.XorpdRM(e.asXMMRegister(in.Result), ripRef())
		e.target.recordDataPatch(pos, PatchDataRef, doubleSignFlip)
	default:
		e.fatalf("negate of kind %s", in.Kind)
	}
}

func (e *Emitter) emitIntrinsic(in *lir.Instr) {
	dst := e.asXMMRegister(in.Result)
	src := e.asXMMRegister(in.X)
	switch {
	case in.Code == lir.OpSqrt && in.Kind.IsDouble():
		e.asm.Sqrtsd(dst, src)
	case in.Code == lir.OpSqrt:
		e.asm.Sqrtss(dst, src)
	case in.Code == lir.OpAbs && in.Kind.IsDouble():
		e.reg2reg(src, dst, in.Kind)
		pos := e.asm.AndpdRM(dst, ripRef())
		e.target.recordDataPatch(pos, PatchDataRef, doubleSignMask)
	case in.Code == lir.OpAbs:
		e.reg2reg(src, dst, in.Kind)
		pos := e.asm.AndpsRM(dst, ripRef())
		e.target.recordDataPatch(pos, PatchDataRef, floatSignMask)
	}
}

// ---- integer division ----

func isPowerOf2(v int64) bool {
	return v > 0 && v&(v-1) == 0
}

// emitSignedDivRem lowers Idiv/Irem/Ldiv/Lrem. The dividend must occupy
// rax; the quotient lands in rax, the remainder in rdx.
func (e *Emitter) emitSignedDivRem(in *lir.Instr) {
	w := in.Code == lir.OpLdiv || in.Code == lir.OpLrem
	isRem := in.Code == lir.OpIrem || in.Code == lir.OpLrem

	lreg := e.asGPRegister(in.X)
	if !lreg.Equal(RAX) {
		e.fatalf("division dividend must be in rax, got %s", lreg)
	}
	res := e.asGPRegister(in.Result)
	if isRem && !res.Equal(RDX) {
		e.fatalf("remainder result must be in rdx, got %s", res)
	}
	if !isRem && !res.Equal(RAX) {
		e.fatalf("quotient result must be in rax, got %s", res)
	}

	if in.Y.IsConstant() {
		d := in.Y.AsLong()
		if !w {
			d = int64(in.Y.AsInt())
		}
		if !isPowerOf2(d) {
			e.fatalf("constant divisor %d is not a positive power of two", d)
		}
		if isRem {
			e.remByPowerOf2(w, d)
		} else {
			e.divByPowerOf2(w, d)
		}
		return
	}

	rreg := e.asGPRegister(in.Y)
	if rreg.Equal(RAX) || rreg.Equal(RDX) {
		e.fatalf("divisor register %s conflicts with division inputs", rreg)
	}

	continuation := asm.NewLabel()
	normalCase := asm.NewLabel()

	// MIN_VALUE / -1 overflows the hardware divide; the result wraps to
	// MIN_VALUE with remainder zero.
	if w {
		e.asm.MovImm64(RDX, 1<<63)
		e.asm.CmpRR(true, RAX, RDX)
	} else {
		e.asm.CmpImm(false, RAX, math.MinInt32)
	}
	e.asm.Jcc(ccNE, normalCase)
	e.asm.CmpImm(w, rreg, -1)
	e.asm.Jcc(ccNE, normalCase)
	if isRem {
		e.asm.XorRR(false, RDX, RDX)
	}
	e.asm.Jmp(continuation)

	normalCase.Bind(e.buf)
	e.asm.Cdq(w)
	// the divide faults on a zero divisor; the record must name its
	// exact offset
	pos := e.buf.Position()
	e.asm.IDiv(w, rreg)
	e.target.recordImplicitException(pos, in.Info)
	continuation.Bind(e.buf)
}

// divByPowerOf2 is the branch-free truncating division: bias a negative
// dividend by divisor-1 before the arithmetic shift.
func (e *Emitter) divByPowerOf2(w bool, d int64) {
	e.asm.Cdq(w)
	if d == 2 {
		e.asm.SubRR(w, RAX, RDX)
	} else {
		e.asm.AndImm(w, RDX, int32(d-1))
		e.asm.AddRR(w, RAX, RDX)
	}
	e.asm.ShiftImm(g2Sar, w, RAX, byte(bits.TrailingZeros64(uint64(d))))
}

// remByPowerOf2 masks sign and low bits together, then folds a negative
// dividend back toward zero.
func (e *Emitter) remByPowerOf2(w bool, d int64) {
	done := asm.NewLabel()
	e.asm.MovRR(w, RDX, RAX)
	if w {
		e.asm.MovImm64(e.scratch, 1<<63|uint64(d-1))
		e.asm.AndRR(true, RDX, e.scratch)
	} else {
		e.asm.AndImm(false, RDX, int32(uint32(0x80000000)|uint32(d-1)))
	}
	e.asm.Jcc(ccGE, done)
	e.asm.Dec(w, RDX)
	if w {
		e.asm.MovImm64(e.scratch, ^uint64(d-1))
		e.asm.OrRR(true, RDX, e.scratch)
	} else {
		e.asm.OrImm(false, RDX, int32(^uint32(d-1)))
	}
	e.asm.Inc(w, RDX)
	done.Bind(e.buf)
}

// emitUnsignedDivRem lowers the word division family. The *i forms take
// a 32-bit divisor and zero-extend it first.
func (e *Emitter) emitUnsignedDivRem(in *lir.Instr) {
	isRem := in.Code == lir.OpWrem || in.Code == lir.OpWremi
	narrow := in.Code == lir.OpWdivi || in.Code == lir.OpWremi

	lreg := e.asGPRegister(in.X)
	if !lreg.Equal(RAX) {
		e.fatalf("division dividend must be in rax, got %s", lreg)
	}
	rreg := e.asGPRegister(in.Y)
	if rreg.Equal(RAX) || rreg.Equal(RDX) {
		e.fatalf("divisor register %s conflicts with division inputs", rreg)
	}

	if narrow {
		// 32-bit mov zero-extends the divisor into the full register
		e.asm.MovRR(false, rreg, rreg)
	}
	e.asm.XorRR(false, RDX, RDX)
	pos := e.buf.Position()
	e.asm.Div(true, rreg)
	e.target.recordImplicitException(pos, in.Info)
	res := e.asGPRegister(in.Result)
	if isRem && !res.Equal(RDX) || !isRem && !res.Equal(RAX) {
		e.fatalf("word division result in %s", res)
	}
}

// ---- logic and shifts ----

func (e *Emitter) emitLogic(in *lir.Instr) {
	if !in.X.Equal(in.Result) {
		e.fatalf("logic left operand %s must equal result %s", in.X, in.Result)
	}
	w := e.is64(in.Kind)
	dst := e.asGPRegister(in.Result)
	y := in.Y
	switch {
	case y.IsRegister():
		src := e.asGPRegister(y)
		switch in.Code {
		case lir.OpLogicAnd:
			e.asm.AndRR(w, dst, src)
		case lir.OpLogicOr:
			e.asm.OrRR(w, dst, src)
		case lir.OpLogicXor:
			e.asm.XorRR(w, dst, src)
		}
	case y.IsConstant():
		v := y.AsInt()
		if w {
			lv := y.AsLong()
			if lv != int64(int32(lv)) {
				e.const2reg(y, e.scratch)
				e.emitLogic(&lir.Instr{Code: in.Code, Kind: in.Kind,
					X: in.X, Y: lir.Reg(in.Kind, e.scratch), Result: in.Result})
				return
			}
			v = int32(lv)
		}
		switch in.Code {
		case lir.OpLogicAnd:
			e.asm.AndImm(w, dst, v)
		case lir.OpLogicOr:
			e.asm.OrImm(w, dst, v)
		case lir.OpLogicXor:
			e.asm.XorImm(w, dst, v)
		}
	default:
		e.fatalf("logic %s with operand %s", in.Code, y)
	}
}

func (e *Emitter) emitShift(in *lir.Instr) {
	if !in.X.Equal(in.Result) {
		e.fatalf("shift left operand %s must equal result %s", in.X, in.Result)
	}
	w := e.is64(in.Kind)
	dst := e.asGPRegister(in.Result)
	var digit byte
	switch in.Code {
	case lir.OpShl:
		digit = g2Shl
	case lir.OpShr:
		digit = g2Sar
	case lir.OpUshr:
		digit = g2Shr
	}
	if in.Y.IsConstant() {
		mask := byte(31)
		if w {
			mask = 63
		}
		e.asm.ShiftImm(digit, w, dst, byte(in.Y.AsInt())&mask)
		return
	}
	count := e.asGPRegister(in.Y)
	if !count.Equal(ShiftCountRegister) {
		e.fatalf("variable shift count must be in rcx, got %s", count)
	}
	e.asm.ShiftCL(digit, w, dst)
}

// ---- compares ----

// emitCompare sets the flags; the following branch, setcc or cmov
// consumes them.
func (e *Emitter) emitCompare(x, y lir.Operand) {
	switch x.Kind.StackKind() {
	case lir.Int:
		e.intCompare(false, x, y)
	case lir.Long, lir.Word, lir.Object:
		e.intCompare(true, x, y)
	case lir.Float, lir.Double:
		e.floatCompare(x, y)
	default:
		e.fatalf("compare of kind %s", x.Kind)
	}
}

func (e *Emitter) intCompare(w bool, x, y lir.Operand) {
	xr := e.asGPRegister(x)
	switch {
	case y.IsRegister():
		e.asm.CmpRR(w, xr, e.asGPRegister(y))
	case y.IsStack():
		e.asm.CmpRM(w, xr, e.stackSlotMem(y))
	case y.IsConstant():
		if y.IsNullConstant() {
			e.asm.TestRR(w, xr, xr)
			return
		}
		if y.Kind == lir.Object {
			e.objectConst2reg(y, e.scratch)
			e.asm.CmpRR(true, xr, e.scratch)
			return
		}
		v := y.AsLong()
		if w && v != int64(int32(v)) {
			e.const2reg(y, e.scratch)
			e.asm.CmpRR(true, xr, e.scratch)
			return
		}
		e.asm.CmpImm(w, xr, int32(v))
	case y.IsAddress():
		e.asm.CmpRM(w, xr, e.addressMem(y))
	default:
		e.fatalf("compare with operand %s", y)
	}
}

func (e *Emitter) floatCompare(x, y lir.Operand) {
	xr := e.asXMMRegister(x)
	double := x.Kind.IsDouble()
	prefix := byte(0)
	if double {
		prefix = opPrefixOpSize
	}
	switch {
	case y.IsRegister():
		e.asm.sseRR(prefix, sseUcomiss, false, xr, e.asXMMRegister(y))
	case y.IsStack():
		e.asm.sseRM(prefix, sseUcomiss, false, xr, e.stackSlotMem(y))
	case y.IsConstant():
		pos := e.asm.sseRM(prefix, sseUcomiss, false, xr, ripRef())
		e.target.recordDataPatch(pos, PatchDataRef, y)
	default:
		e.fatalf("float compare with operand %s", y)
	}
}

// emitCompare2Int materializes the three-way compare result.
func (e *Emitter) emitCompare2Int(in *lir.Instr) {
	dst := e.asGPRegister(in.Result)
	done := asm.NewLabel()
	switch in.Code {
	case lir.OpCmpl2i:
		e.asm.CmpRR(true, e.asGPRegister(in.X), e.asGPRegister(in.Y))
		e.asm.MovImm32(false, dst, -1)
		e.asm.Jcc(ccL, done)
		e.asm.MovImm32(false, dst, 0)
		e.asm.Jcc(ccE, done)
		e.asm.MovImm32(false, dst, 1)
	case lir.OpCmpfd2i, lir.OpUcmpfd2i:
		e.floatCompare(in.X, in.Y)
		// unordered result: -1 for the l form, 1 for the g form
		unordered := int32(-1)
		if in.Code == lir.OpUcmpfd2i {
			unordered = 1
		}
		e.asm.MovImm32(false, dst, unordered)
		e.asm.Jcc(ccP, done)
		e.asm.MovImm32(false, dst, -1)
		e.asm.Jcc(ccB, done)
		e.asm.MovImm32(false, dst, 0)
		e.asm.Jcc(ccE, done)
		e.asm.MovImm32(false, dst, 1)
	}
	done.Bind(e.buf)
}

// emitConditionalMove lowers result = cond ? X : Y. When Y already
// occupies the result register it becomes the default and the condition
// flips instead of moving it aside.
func (e *Emitter) emitConditionalMove(in *lir.Instr) {
	def, other := in.X, in.Y
	cmovCond := in.Cond.Negate()
	if in.Y.IsRegister() && in.Result.IsRegister() && in.Y.Register.Equal(in.Result.Register) {
		def, other = in.Y, in.X
		cmovCond = in.Cond
	}
	e.moveOperand(def, in.Result, in.Kind, nil)

	useCmov := other.IsRegister() && in.Result.IsRegister() &&
		!in.Result.Register.FPU && !in.Kind.IsFPU()
	if useCmov {
		e.asm.Cmovcc(intCC(cmovCond), e.is64(in.Kind), in.Result.Register, other.Register)
		return
	}
	// branch fallback for constants and float kinds
	skip := asm.NewLabel()
	e.asm.Jcc(intCC(cmovCond.Negate()), skip)
	e.moveOperand(other, in.Result, in.Kind, nil)
	skip.Bind(e.buf)
}

// emitSignificantBit finds the lowest or highest set bit; Kind selects
// the width, Cond abuse is avoided by the Y operand: a zero Y means
// lowest (bsf), otherwise highest (bsr).
func (e *Emitter) emitSignificantBit(in *lir.Instr) {
	dst := e.asGPRegister(in.Result)
	src := e.asGPRegister(in.X)
	most := in.Y.IsConstant() && in.Y.AsInt() != 0
	if most {
		e.asm.Bsr(e.is64(in.Kind), dst, src)
	} else {
		e.asm.Bsf(e.is64(in.Kind), dst, src)
	}
}
