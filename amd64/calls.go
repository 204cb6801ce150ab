package amd64

import (
	"github.com/embervm/ember/asm"
	"github.com/embervm/ember/lir"
)

// ---- frame push/pop ----

// emitPrologue bangs the guard pages the frame will span, allocates the
// frame and saves the callee-save window.
func (e *Emitter) emitPrologue() {
	e.bangStackPages()
	e.pushFrame()
}

// bangStackPages writes into each guard page the frame spans, offset by
// the shadow-page count, so a stack overflow faults here and not inside
// the frame.
func (e *Emitter) bangStackPages() {
	lastFramePage := e.frame.FrameSize() / e.cfg.PageSize
	for i := 0; i <= lastFramePage; i++ {
		disp := int32((i + e.cfg.StackShadowPages) * e.cfg.PageSize)
		e.asm.MovMR(true, BaseDisp(RSP, -disp), RAX)
	}
}

func (e *Emitter) pushFrame() {
	frameSize := e.frame.FrameSize()
	if frameSize > 0 {
		e.asm.SubImm(true, RSP, int32(frameSize))
	}
	if e.cfg.ZapStackOnMethodEntry {
		for off := 0; off+4 <= frameSize; off += 4 {
			e.asm.MovMemImm32(false, BaseDisp(RSP, int32(off)), int32(stackZapPattern))
		}
	}
	base := e.frame.CalleeSaveOffset()
	for i, r := range e.frame.CalleeSaved {
		e.asm.MovMR(true, BaseDisp(RSP, int32(base+i*lir.SlotSize)), r)
	}
}

func (e *Emitter) popFrame() {
	base := e.frame.CalleeSaveOffset()
	for i, r := range e.frame.CalleeSaved {
		e.asm.MovRM(true, r, BaseDisp(RSP, int32(base+i*lir.SlotSize)))
	}
	if frameSize := e.frame.FrameSize(); frameSize > 0 {
		e.asm.AddImm(true, RSP, int32(frameSize))
	}
}

func (e *Emitter) emitReturn() {
	e.popFrame()
	e.asm.Ret()
}

// ---- calls ----

func (e *Emitter) emitCall(in *lir.Instr) {
	switch in.Code {
	case lir.OpDirectCall:
		e.directCall(in.Call, in.Info)
	case lir.OpIndirectCall:
		e.indirectCall(e.asGPRegister(in.X), in.Call, in.Info)
	case lir.OpNativeCall:
		if in.Call == nil || in.Call.Addr == 0 {
			e.fatalf("native call without target address")
		}
		// an absolute native target is not generally reachable with a
		// rel32 displacement from freshly installed code
		e.asm.MovImm64(e.scratch, in.Call.Addr)
		e.indirectCall(e.scratch, in.Call, in.Info)
	}
}

// directCall emits a rel32 call with a zero displacement; the installer
// resolves the target from the call-site table.
func (e *Emitter) directCall(target *lir.CallTarget, info *lir.DebugInfo) {
	if e.cfg.AlignCallsForPatching {
		// keep the displacement field inside one 8-byte unit so it can
		// be patched with a single atomic store
		for (e.buf.Position()+1)%8 > 4 {
			e.asm.Nop(1)
		}
	}
	e.uniquePCPad()
	before := e.buf.Position()
	e.asm.CallRel32()
	after := e.buf.Position()
	e.target.recordCall(before, after, target, true, info)
	e.lastCallEnd = after
}

func (e *Emitter) indirectCall(reg lir.Register, target *lir.CallTarget, info *lir.DebugInfo) {
	e.uniquePCPad()
	before := e.buf.Position()
	e.asm.CallReg(reg)
	after := e.buf.Position()
	e.target.recordCall(before, after, target, false, info)
	e.lastCallEnd = after
}

// uniquePCPad guarantees consecutive calls have distinct return
// addresses when the configuration asks for it.
func (e *Emitter) uniquePCPad() {
	if e.cfg.CallSiteUniquePC && e.lastCallEnd == e.buf.Position() {
		e.asm.Nop(1)
	}
}

// ---- compiler stubs ----

// callStub marshals the arguments into the outgoing argument slots the
// stub reads as its caller frame, calls it, and loads the result back
// from slot 0.
func (e *Emitter) callStub(stub lir.RuntimeCall, resultKind lir.Kind, result lir.Operand, info *lir.DebugInfo, args ...lir.Operand) {
	for i, arg := range args {
		e.storeParameter(arg, i)
	}
	e.directCall(&lir.CallTarget{IsRuntime: true, Runtime: stub}, info)
	if !result.IsIllegal() {
		e.loadStubResult(resultKind, result)
	}
	if e.cfg.GenAssertionCode {
		for i := range args {
			e.asm.MovMemImm32(true, BaseDisp(RSP, e.frame.OutArgOffset(i)), int32(stackZapPattern))
		}
	}
}

func (e *Emitter) storeParameter(arg lir.Operand, slot int) {
	m := BaseDisp(RSP, e.frame.OutArgOffset(slot))
	switch {
	case arg.IsRegister():
		r := arg.Register
		switch {
		case r.FPU && arg.Kind.IsDouble():
			e.asm.MovsdMR(m, r)
		case r.FPU:
			e.asm.MovssMR(m, r)
		case arg.Kind.Is64():
			e.asm.MovMR(true, m, r)
		default:
			e.asm.MovMR(false, m, r)
		}
	case arg.IsConstant():
		e.const2reg(arg, e.scratch)
		e.asm.MovMR(true, m, e.scratch)
	case arg.IsStack():
		e.asm.MovRM(true, e.scratch, e.stackSlotMem(arg))
		e.asm.MovMR(true, m, e.scratch)
	default:
		e.fatalf("cannot pass operand %s to a stub", arg)
	}
}

func (e *Emitter) loadStubResult(kind lir.Kind, result lir.Operand) {
	m := BaseDisp(RSP, e.frame.OutArgOffset(0))
	r := e.asRegister(result)
	switch kind.StackKind() {
	case lir.Int:
		e.asm.MovRM(false, r, m)
	case lir.Long, lir.Word, lir.Object:
		e.asm.MovRM(true, r, m)
	case lir.Float:
		e.asm.MovssRM(r, m)
	case lir.Double:
		e.asm.MovsdRM(r, m)
	default:
		e.fatalf("stub result of kind %s", kind)
	}
}

// ---- runtime calls through the register convention ----

var (
	gpArgRegisters = []lir.Register{RDI, RSI, RDX, RCX, R8, R9}
	fpArgRegisters = []lir.Register{XMM0, XMM1, XMM2, XMM3, XMM4, XMM5, XMM6, XMM7}
)

// callRuntime moves the arguments into the argument registers, calls
// the runtime entry and fetches the result from rax or xmm0.
func (e *Emitter) callRuntime(target lir.RuntimeCall, resultKind lir.Kind, result lir.Operand, info *lir.DebugInfo, args ...lir.Operand) {
	gp, fp := 0, 0
	for _, arg := range args {
		if arg.Kind.IsFPU() {
			if fp >= len(fpArgRegisters) {
				e.fatalf("too many float arguments for runtime call %s", target)
			}
			e.moveOperand(arg, lir.Reg(arg.Kind, fpArgRegisters[fp]), arg.Kind, nil)
			fp++
			continue
		}
		if gp >= len(gpArgRegisters) {
			e.fatalf("too many arguments for runtime call %s", target)
		}
		e.moveOperand(arg, lir.Reg(arg.Kind.StackKind(), gpArgRegisters[gp]), arg.Kind.StackKind(), nil)
		gp++
	}
	e.directCall(&lir.CallTarget{IsRuntime: true, Runtime: target}, info)
	if result.IsIllegal() {
		return
	}
	if resultKind.IsFPU() {
		e.moveOperand(lir.Reg(resultKind, XMM0), result, resultKind, nil)
	} else {
		e.moveOperand(lir.Reg(resultKind.StackKind(), RAX), result, resultKind.StackKind(), nil)
	}
}

// ---- deoptimization ----

// EmitDeoptStub schedules an out-of-line deoptimization transfer and
// returns its entry label for a preceding guard branch. The stub never
// returns; a halt guard follows the runtime call.
func (e *Emitter) EmitDeoptStub(action lir.DeoptAction, info *lir.DebugInfo) *asm.Label {
	entry := asm.NewLabel()
	e.addSlowPath(func() {
		entry.Bind(e.buf)
		if e.cfg.CreateDeoptInfo && info != nil {
			e.callStub(lir.RTSetDeoptInfo, lir.Void, lir.IllegalOperand, info,
				lir.ConstInt(int32(info.BCI)))
		}
		e.asm.MovImm32(false, e.scratch, int32(action.Code()))
		e.directCall(&lir.CallTarget{IsRuntime: true, Runtime: lir.RTDeoptimize}, info)
		e.asm.Hlt()
	})
	return entry
}

// ---- compare and swap ----

// emitCompareAndSwap requires the expected value in rax (the cmpxchg
// input register); the witness value lands there afterwards.
func (e *Emitter) emitCompareAndSwap(in *lir.Instr) {
	expected := e.asGPRegister(in.Y)
	if !expected.Equal(CASCompareRegister) {
		e.fatalf("cas expected value must be in rax, got %s", expected)
	}
	newVal := e.asGPRegister(in.Z)
	m := e.asMem(in.X)
	w := e.is64(in.Kind)
	pos := e.buf.Position()
	e.asm.Lock()
	e.asm.Cmpxchg(w, m, newVal)
	if in.Info != nil {
		e.target.recordImplicitException(pos, in.Info)
	}
	if !in.Result.IsIllegal() && !e.asGPRegister(in.Result).Equal(RAX) {
		e.reg2reg(RAX, e.asGPRegister(in.Result), in.Kind)
	}
}
