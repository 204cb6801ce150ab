package amd64

import (
	"math"

	"github.com/embervm/ember/asm"
	"github.com/embervm/ember/lir"
)

// emitConvert lowers the numeric conversions. The float-to-integer
// forms compare the truncated result against the hardware's MIN
// sentinel and defer NaN and out-of-range inputs to the arithmetic
// stubs, which compute the saturating result.
func (e *Emitter) emitConvert(in *lir.Instr) {
	switch in.Conversion {
	case lir.ConvI2L:
		e.asm.MovsxdRR(e.asGPRegister(in.Result), e.asGPRegister(in.X))
	case lir.ConvL2I:
		e.asm.MovRR(false, e.asGPRegister(in.Result), e.asGPRegister(in.X))
	case lir.ConvI2B:
		e.asm.MovsxBRR(e.asGPRegister(in.Result), e.asGPRegister(in.X))
	case lir.ConvI2C:
		e.asm.MovzxWRR(e.asGPRegister(in.Result), e.asGPRegister(in.X))
	case lir.ConvI2S:
		e.asm.MovsxWRR(e.asGPRegister(in.Result), e.asGPRegister(in.X))

	case lir.ConvF2D:
		e.asm.Cvtss2sd(e.asXMMRegister(in.Result), e.asXMMRegister(in.X))
	case lir.ConvD2F:
		e.asm.Cvtsd2ss(e.asXMMRegister(in.Result), e.asXMMRegister(in.X))
	case lir.ConvI2F:
		e.asm.Cvtsi2ss(false, e.asXMMRegister(in.Result), e.asGPRegister(in.X))
	case lir.ConvI2D:
		e.asm.Cvtsi2sd(false, e.asXMMRegister(in.Result), e.asGPRegister(in.X))
	case lir.ConvL2F:
		e.asm.Cvtsi2ss(true, e.asXMMRegister(in.Result), e.asGPRegister(in.X))
	case lir.ConvL2D:
		e.asm.Cvtsi2sd(true, e.asXMMRegister(in.Result), e.asGPRegister(in.X))

	case lir.ConvF2I:
		e.floatToInt(in, false, false, lir.RTArithmeticF2I)
	case lir.ConvD2I:
		e.floatToInt(in, true, false, lir.RTArithmeticD2I)
	case lir.ConvF2L:
		e.floatToInt(in, false, true, lir.RTArithmeticF2L)
	case lir.ConvD2L:
		e.floatToInt(in, true, true, lir.RTArithmeticD2L)

	case lir.ConvMovI2F:
		e.asm.MovdToXmm(false, e.asXMMRegister(in.Result), e.asGPRegister(in.X))
	case lir.ConvMovF2I:
		e.asm.MovdFromXmm(false, e.asGPRegister(in.Result), e.asXMMRegister(in.X))
	case lir.ConvMovL2D:
		e.asm.MovdToXmm(true, e.asXMMRegister(in.Result), e.asGPRegister(in.X))
	case lir.ConvMovD2L:
		e.asm.MovdFromXmm(true, e.asGPRegister(in.Result), e.asXMMRegister(in.X))

	default:
		e.fatalf("unhandled conversion %s", in.Conversion)
	}
}

// floatToInt truncates toward zero. A cvtt result equal to the integer
// MIN value means NaN or overflow; only then is the stub consulted.
func (e *Emitter) floatToInt(in *lir.Instr, double, wide bool, stub lir.RuntimeCall) {
	dst := e.asGPRegister(in.Result)
	src := e.asXMMRegister(in.X)
	if double {
		e.asm.Cvttsd2si(wide, dst, src)
	} else {
		e.asm.Cvttss2si(wide, dst, src)
	}
	end := asm.NewLabel()
	if wide {
		e.asm.MovImm64(e.scratch, 1<<63)
		e.asm.CmpRR(true, dst, e.scratch)
	} else {
		e.asm.CmpImm(false, dst, math.MinInt32)
	}
	e.asm.Jcc(ccNE, end)
	resultKind := lir.Int
	if wide {
		resultKind = lir.Long
	}
	e.callStub(stub, resultKind, in.Result, in.Info, in.X)
	end.Bind(e.buf)
}
