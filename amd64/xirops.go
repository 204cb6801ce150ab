package amd64

import (
	"github.com/embervm/ember/asm"
	"github.com/embervm/ember/lir"
	"github.com/embervm/ember/xir"
)

// xirFrame is one template expansion in flight: the snippet, its
// resolved label array and the surrounding LIR instruction.
type xirFrame struct {
	snippet *xir.Snippet
	labels  []*asm.Label
	in      *lir.Instr
}

func (f *xirFrame) operand(r xir.Ref) lir.Operand {
	if r == xir.NoRef {
		return lir.IllegalOperand
	}
	if int(r) < 0 || int(r) >= len(f.snippet.Operands) {
		panic(bailout{msg: "xir operand reference out of range"})
	}
	return f.snippet.Operands[r]
}

// emitXir expands a template attached to a LIR instruction. Reserved
// successor labels resolve to the instruction's successor blocks when
// present, otherwise to fresh labels bound at the end of the fast path.
func (e *Emitter) emitXir(in *lir.Instr) {
	snippet, ok := in.Xir.(*xir.Snippet)
	if !ok {
		e.fatalf("xir instruction carries payload %T", in.Xir)
	}
	t := snippet.Template

	labels := make([]*asm.Label, len(t.Labels))
	var endLabels []*asm.Label
	for i, l := range t.Labels {
		switch {
		case l.TrueSuccessor && snippet.TrueSucc != nil:
			labels[i] = &snippet.TrueSucc.Label
		case l.FalseSuccessor && snippet.FalseSucc != nil:
			labels[i] = &snippet.FalseSucc.Label
		case l.TrueSuccessor || l.FalseSuccessor:
			fresh := asm.NewLabel()
			labels[i] = fresh
			endLabels = append(endLabels, fresh)
		default:
			labels[i] = asm.NewLabel()
		}
	}

	frame := &xirFrame{snippet: snippet, labels: labels, in: in}
	for _, op := range t.FastPath {
		e.expandXirOp(frame, op)
	}
	for _, l := range endLabels {
		l.Bind(e.buf)
	}
	if t.HasSlowPath() {
		e.addSlowPath(func() {
			for _, op := range t.SlowPath {
				e.expandXirOp(frame, op)
			}
		})
	}
}

// pointerReg coerces a pointer operand into a register, materializing
// constants through the scratch register.
func (e *Emitter) pointerReg(o lir.Operand) lir.Register {
	switch {
	case o.IsRegister():
		return e.asGPRegister(o)
	case o.IsConstant():
		e.const2reg(o, e.scratch)
		return e.scratch
	case o.IsStack():
		e.asm.MovRM(true, e.scratch, e.stackSlotMem(o))
		return e.scratch
	}
	e.fatalf("operand %s cannot serve as a pointer", o)
	return lir.Register{}
}

func (e *Emitter) expandXirOp(f *xirFrame, op xir.Instr) {
	switch v := op.(type) {
	case xir.Arith:
		e.xirArith(f, v)
	case xir.Mov:
		dst := f.operand(v.Result)
		e.moveOperand(f.operand(v.X), dst, dst.Kind, nil)

	case xir.PointerLoad:
		dst := f.operand(v.Result)
		base := e.pointerReg(f.operand(v.Pointer))
		e.moveOperand(lir.BaseAddr(dst.Kind, base, 0), dst, dst.Kind, e.trapInfo(f, v.CanTrap))
	case xir.PointerStore:
		val := f.operand(v.Value)
		base := e.pointerReg(f.operand(v.Pointer))
		e.moveOperand(val, lir.BaseAddr(val.Kind, base, 0), val.Kind, e.trapInfo(f, v.CanTrap))
	case xir.PointerLoadDisp:
		dst := f.operand(v.Result)
		m := e.xirAddress(f, v.Pointer, v.Index, v.Scale, v.Disp, dst.Kind)
		e.moveOperand(m, dst, dst.Kind, e.trapInfo(f, v.CanTrap))
	case xir.PointerStoreDisp:
		val := f.operand(v.Value)
		m := e.xirAddress(f, v.Pointer, v.Index, v.Scale, v.Disp, val.Kind)
		e.moveOperand(val, m, val.Kind, e.trapInfo(f, v.CanTrap))
	case xir.LoadEffectiveAddress:
		dst := f.operand(v.Result)
		m := e.xirAddress(f, v.Pointer, v.Index, v.Scale, v.Disp, lir.Word)
		e.asm.Lea(true, e.asGPRegister(dst), e.addressMem(m))

	case xir.RepeatMoveBytes:
		e.xirRepeatMove(f, v.Src, v.Dst, v.Count, false)
	case xir.RepeatMoveWords:
		e.xirRepeatMove(f, v.Src, v.Dst, v.Count, true)

	case xir.PointerCAS:
		res := f.operand(v.Result)
		base := e.pointerReg(f.operand(v.Pointer))
		e.emitCompareAndSwap(&lir.Instr{
			Code:   lir.OpCas,
			Kind:   res.Kind,
			X:      lir.BaseAddr(res.Kind, base, 0),
			Y:      f.operand(v.Expected),
			Z:      f.operand(v.NewValue),
			Result: res,
		})

	case xir.CallStub:
		res := f.operand(v.Result)
		args := make([]lir.Operand, len(v.Args))
		for i, a := range v.Args {
			args[i] = f.operand(a)
		}
		e.callStub(v.Stub, res.Kind, res, f.in.Info, args...)
	case xir.CallRuntime:
		res := f.operand(v.Result)
		info := f.in.Info
		if v.UseInfoAfter {
			info = f.in.InfoAfter
		}
		args := make([]lir.Operand, len(v.Args))
		for i, a := range v.Args {
			args[i] = f.operand(a)
		}
		e.callRuntime(v.Target, res.Kind, res, info, args...)

	case xir.Jmp:
		e.asm.Jmp(f.labels[v.Label])
	case xir.JmpTarget:
		before := e.buf.Position()
		e.buf.EmitByte(opJmpRel32)
		e.buf.EmitInt(0)
		e.target.recordCall(before, e.buf.Position(), v.Target, true, f.in.Info)
	case xir.Jcc:
		x := f.operand(v.X)
		e.emitCompare(x, f.operand(v.Y))
		if x.Kind.IsFPU() {
			e.asm.Jcc(floatCC(v.Cond), f.labels[v.Label])
		} else {
			e.asm.Jcc(intCC(v.Cond), f.labels[v.Label])
		}
	case xir.Jbset:
		base := e.pointerReg(f.operand(v.Pointer))
		off := f.operand(v.Offset)
		bit := f.operand(v.Bit)
		if !off.IsConstant() || !bit.IsConstant() {
			e.fatalf("jbset requires constant offset and bit")
		}
		e.asm.BtMemImm(BaseDisp(base, off.AsInt()), byte(bit.AsInt()))
		e.asm.Jcc(ccB, f.labels[v.Label])
	case xir.DecAndJumpNotZero:
		val := f.operand(v.Value)
		e.asm.Dec(e.is64(val.Kind), e.asGPRegister(val))
		e.asm.Jcc(ccNE, f.labels[v.Label])
	case xir.Bind:
		f.labels[v.Label].Bind(e.buf)

	case xir.Safepoint:
		e.target.recordSafepoint(e.buf.Position(), f.in.Info)
	case xir.NullCheck:
		base := e.pointerReg(f.operand(v.Pointer))
		pos := e.buf.Position()
		e.asm.MovRM(false, e.scratch, BaseDisp(base, 0))
		e.target.recordImplicitException(pos, f.in.Info)
	case xir.Align:
		e.asm.AlignTo(v.Multiple)
	case xir.StackOverflowCheck:
		e.bangStackPages()
	case xir.PushFrame:
		e.pushFrame()
	case xir.PopFrame:
		e.popFrame()
	case xir.Push:
		e.asm.Push(e.asGPRegister(f.operand(v.Value)))
	case xir.Pop:
		e.asm.Pop(e.asGPRegister(f.operand(v.Result)))
	case xir.Mark:
		e.target.recordMark(v.Name, e.buf.Position())
	case xir.Nop:
		e.asm.Nop(v.Count)
	case xir.RawBytes:
		for _, b := range v.Bytes {
			e.buf.EmitByte(b)
		}
	case xir.ShouldNotReachHere:
		e.asm.Hlt()

	default:
		e.fatalf("unhandled xir op %s", xir.OpName(op))
	}
}

func (e *Emitter) trapInfo(f *xirFrame, canTrap bool) *lir.DebugInfo {
	if !canTrap {
		return nil
	}
	return f.in.Info
}

func (e *Emitter) xirAddress(f *xirFrame, pointer, index xir.Ref, scale lir.Scale, disp int32, kind lir.Kind) lir.Operand {
	base := e.pointerReg(f.operand(pointer))
	idx := lir.NoRegister
	if index != xir.NoRef {
		idxOp := f.operand(index)
		if idxOp.IsConstant() {
			disp += idxOp.AsInt() * int32(scale)
			return lir.BaseAddr(kind, base, disp)
		}
		idx = e.asGPRegister(idxOp)
	}
	return lir.Addr(kind, base, idx, scale, disp)
}

// xirArith dispatches by the result operand's kind, moving the left
// operand into the result first when they differ.
func (e *Emitter) xirArith(f *xirFrame, v xir.Arith) {
	res := f.operand(v.Result)
	x := f.operand(v.X)
	y := f.operand(v.Y)
	if !x.Equal(res) {
		e.moveOperand(x, res, res.Kind, nil)
	}
	in := &lir.Instr{Kind: res.Kind, X: res, Y: y, Result: res, Info: f.in.Info}
	switch v.Op {
	case xir.OpAdd:
		in.Code = lir.OpAdd
		e.emitArith(in)
	case xir.OpSub:
		in.Code = lir.OpSub
		e.emitArith(in)
	case xir.OpMul:
		in.Code = lir.OpMul
		e.emitArith(in)
	case xir.OpDiv:
		if res.Kind.IsFPU() {
			in.Code = lir.OpDiv
			e.emitArith(in)
			return
		}
		in.Code = lir.OpIdiv
		if res.Kind.Is64() {
			in.Code = lir.OpLdiv
		}
		e.emitSignedDivRem(in)
	case xir.OpMod:
		in.Code = lir.OpIrem
		if res.Kind.Is64() {
			in.Code = lir.OpLrem
		}
		e.emitSignedDivRem(in)
	case xir.OpAnd:
		in.Code = lir.OpLogicAnd
		e.emitLogic(in)
	case xir.OpOr:
		in.Code = lir.OpLogicOr
		e.emitLogic(in)
	case xir.OpXor:
		in.Code = lir.OpLogicXor
		e.emitLogic(in)
	case xir.OpShl:
		in.Code = lir.OpShl
		e.emitShift(in)
	case xir.OpSar:
		in.Code = lir.OpShr
		e.emitShift(in)
	case xir.OpShr:
		in.Code = lir.OpUshr
		e.emitShift(in)
	default:
		e.fatalf("unhandled xir arith op %s", v.Op)
	}
}

// xirRepeatMove requires the string-move register triple rsi/rdi/rcx.
func (e *Emitter) xirRepeatMove(f *xirFrame, src, dst, count xir.Ref, words bool) {
	if !e.asGPRegister(f.operand(src)).Equal(RSI) ||
		!e.asGPRegister(f.operand(dst)).Equal(RDI) ||
		!e.asGPRegister(f.operand(count)).Equal(RCX) {
		e.fatalf("repeat move operands must occupy rsi/rdi/rcx")
	}
	if words {
		e.asm.RepMovsq()
	} else {
		e.asm.RepMovsb()
	}
}
