package amd64

import "github.com/embervm/ember/lir"

// moveOperand is the (source class x destination class) move matrix.
// info, when non-nil, marks the access as potentially faulting and is
// recorded against the exact offset of the memory instruction.
func (e *Emitter) moveOperand(src, dst lir.Operand, kind lir.Kind, info *lir.DebugInfo) {
	switch {
	case src.IsConstant() && dst.IsRegister():
		e.const2reg(src, dst.Register)
	case src.IsConstant() && dst.IsStack():
		e.const2stack(src, dst)
	case src.IsConstant() && dst.IsAddress():
		e.const2mem(src, dst, kind, info)
	case src.IsRegister() && dst.IsRegister():
		e.reg2reg(src.Register, dst.Register, kind)
	case src.IsRegister() && dst.IsStack():
		e.reg2stack(src.Register, dst, kind)
	case src.IsRegister() && dst.IsAddress():
		e.reg2mem(src.Register, dst, kind, info)
	case src.IsStack() && dst.IsRegister():
		e.stack2reg(src, dst.Register, kind)
	case src.IsStack() && dst.IsStack():
		e.stack2stack(src, dst)
	case src.IsStack() && dst.IsAddress():
		e.mem2mem(e.stackSlotMem(src), dst, kind, info)
	case src.IsAddress() && dst.IsRegister():
		e.mem2reg(src, dst.Register, kind, info)
	case src.IsAddress() && dst.IsStack():
		e.mem2stack(src, dst, kind, info)
	case src.IsAddress() && dst.IsAddress():
		e.mem2mem(e.addressMem(src), dst, kind, info)
	default:
		e.fatalf("unsupported move %s -> %s", src, dst)
	}
}

func (e *Emitter) const2reg(c lir.Operand, dst lir.Register) {
	switch c.Kind {
	case lir.Boolean, lir.Byte, lir.Char, lir.Short, lir.Int, lir.Jsr:
		e.asm.MovImm32(false, dst, c.AsInt())
	case lir.Long, lir.Word:
		v := c.AsLong()
		if v == int64(int32(v)) {
			e.asm.MovImm32(true, dst, int32(v))
		} else {
			e.asm.MovImm64(dst, uint64(v))
		}
	case lir.Object:
		e.objectConst2reg(c, dst)
	case lir.Float:
		if !dst.FPU {
			e.asm.MovImm32(false, dst, int32(c.FloatBits()))
			return
		}
		// xorps materializes +0.0 only; -0.0 is bit-distinct and needs
		// a real load
		if c.FloatBits() == 0 {
			e.asm.Xorps(dst, dst)
			return
		}
		pos := e.asm.MovssRM(dst, ripRef())
		e.target.recordDataPatch(pos, PatchDataRef, c)
	case lir.Double:
		if !dst.FPU {
			e.const2reg(lir.ConstLong(int64(c.DoubleBits())), dst)
			return
		}
		if c.DoubleBits() == 0 {
			e.asm.Xorpd(dst, dst)
			return
		}
		pos := e.asm.MovsdRM(dst, ripRef())
		e.target.recordDataPatch(pos, PatchDataRef, c)
	default:
		e.fatalf("constant of kind %s to register", c.Kind)
	}
}

func (e *Emitter) objectConst2reg(c lir.Operand, dst lir.Register) {
	if c.IsNullConstant() {
		e.asm.XorRR(false, dst, dst)
		return
	}
	if e.cfg.InlineObjects {
		pos := e.asm.MovImm64(dst, objectPatchPlaceholder)
		e.target.recordDataPatch(pos, PatchInlineObject, c)
		return
	}
	pos := e.asm.MovRM(true, dst, ripRef())
	e.target.recordDataPatch(pos, PatchDataRef, c)
}

func (e *Emitter) const2stack(c lir.Operand, dst lir.Operand) {
	slot := e.stackSlotMem(dst)
	switch c.Kind {
	case lir.Boolean, lir.Byte, lir.Char, lir.Short, lir.Int, lir.Jsr, lir.Float:
		e.asm.MovMemImm32(false, slot, int32(uint32(c.Bits)))
	case lir.Long, lir.Word:
		v := c.AsLong()
		if v == int64(int32(v)) {
			e.asm.MovMemImm32(true, slot, int32(v))
		} else {
			e.asm.MovImm64(e.scratch, uint64(v))
			e.asm.MovMR(true, slot, e.scratch)
		}
	case lir.Double:
		e.asm.MovImm64(e.scratch, c.DoubleBits())
		e.asm.MovMR(true, slot, e.scratch)
	case lir.Object:
		if c.IsNullConstant() {
			e.asm.MovMemImm32(true, slot, 0)
			return
		}
		e.objectConst2reg(c, e.scratch)
		e.asm.MovMR(true, slot, e.scratch)
	default:
		e.fatalf("constant of kind %s to stack", c.Kind)
	}
}

func (e *Emitter) const2mem(c lir.Operand, dst lir.Operand, kind lir.Kind, info *lir.DebugInfo) {
	m := e.addressMem(dst)
	pos := e.buf.Position()
	switch kind {
	case lir.Boolean, lir.Byte:
		e.asm.MovMemImm8(m, int8(c.AsInt()))
	case lir.Char, lir.Short:
		e.asm.MovMemImm16(m, int16(c.AsInt()))
	case lir.Int, lir.Jsr, lir.Float:
		e.asm.MovMemImm32(false, m, int32(uint32(c.Bits)))
	case lir.Long, lir.Word, lir.Double:
		v := int64(c.Bits)
		if v != int64(int32(v)) {
			// materialize first so the faulting instruction is the store
			e.asm.MovImm64(e.scratch, uint64(v))
			pos = e.buf.Position()
			e.asm.MovMR(true, m, e.scratch)
			break
		}
		e.asm.MovMemImm32(true, m, int32(v))
	case lir.Object:
		if !c.IsNullConstant() {
			e.objectConst2reg(c, e.scratch)
			pos = e.buf.Position()
			e.asm.MovMR(true, m, e.scratch)
			break
		}
		e.asm.MovMemImm32(true, m, 0)
	default:
		e.fatalf("constant of kind %s to memory", kind)
	}
	if info != nil {
		e.target.recordImplicitException(pos, info)
	}
}

func (e *Emitter) reg2reg(src, dst lir.Register, kind lir.Kind) {
	if src.Equal(dst) {
		return
	}
	switch {
	case src.FPU && dst.FPU:
		if kind.IsDouble() {
			e.asm.MovsdRR(dst, src)
		} else {
			e.asm.MovssRR(dst, src)
		}
	case !src.FPU && !dst.FPU:
		e.asm.MovRR(e.is64(kind), dst, src)
	default:
		e.fatalf("register file mismatch moving %s to %s", src, dst)
	}
}

func (e *Emitter) reg2stack(src lir.Register, dst lir.Operand, kind lir.Kind) {
	slot := e.stackSlotMem(dst)
	switch kind.StackKind() {
	case lir.Int:
		e.asm.MovMR(false, slot, src)
	case lir.Long, lir.Word, lir.Object:
		e.asm.MovMR(true, slot, src)
	case lir.Float:
		e.asm.MovssMR(slot, src)
	case lir.Double:
		e.asm.MovsdMR(slot, src)
	default:
		e.fatalf("register of kind %s to stack", kind)
	}
}

func (e *Emitter) reg2mem(src lir.Register, dst lir.Operand, kind lir.Kind, info *lir.DebugInfo) {
	m := e.addressMem(dst)
	pos := e.buf.Position()
	switch kind {
	case lir.Boolean, lir.Byte:
		e.asm.MovMR8(m, src)
	case lir.Char, lir.Short:
		e.asm.MovMR16(m, src)
	case lir.Int, lir.Jsr:
		e.asm.MovMR(false, m, src)
	case lir.Long, lir.Word, lir.Object:
		e.asm.MovMR(true, m, src)
	case lir.Float:
		e.asm.MovssMR(m, src)
	case lir.Double:
		e.asm.MovsdMR(m, src)
	default:
		e.fatalf("register of kind %s to memory", kind)
	}
	if info != nil {
		e.target.recordImplicitException(pos, info)
	}
}

func (e *Emitter) stack2reg(src lir.Operand, dst lir.Register, kind lir.Kind) {
	slot := e.stackSlotMem(src)
	switch kind.StackKind() {
	case lir.Int:
		e.asm.MovRM(false, dst, slot)
	case lir.Long, lir.Word, lir.Object:
		e.asm.MovRM(true, dst, slot)
	case lir.Float:
		e.asm.MovssRM(dst, slot)
	case lir.Double:
		e.asm.MovsdRM(dst, slot)
	default:
		e.fatalf("stack slot of kind %s to register", kind)
	}
}

// stack2stack copies a full slot through the scratch register.
func (e *Emitter) stack2stack(src, dst lir.Operand) {
	e.asm.MovRM(true, e.scratch, e.stackSlotMem(src))
	e.asm.MovMR(true, e.stackSlotMem(dst), e.scratch)
}

func (e *Emitter) mem2reg(src lir.Operand, dst lir.Register, kind lir.Kind, info *lir.DebugInfo) {
	m := e.addressMem(src)
	pos := e.buf.Position()
	switch kind {
	case lir.Boolean:
		e.asm.MovzxB(dst, m)
	case lir.Byte:
		e.asm.MovsxB(dst, m)
	case lir.Char:
		e.asm.MovzxW(dst, m)
	case lir.Short:
		e.asm.MovsxW(dst, m)
	case lir.Int, lir.Jsr:
		e.asm.MovRM(false, dst, m)
	case lir.Long, lir.Word, lir.Object:
		e.asm.MovRM(true, dst, m)
	case lir.Float:
		e.asm.MovssRM(dst, m)
	case lir.Double:
		e.asm.MovsdRM(dst, m)
	default:
		e.fatalf("memory of kind %s to register", kind)
	}
	if info != nil {
		e.target.recordImplicitException(pos, info)
	}
}

func (e *Emitter) mem2stack(src, dst lir.Operand, kind lir.Kind, info *lir.DebugInfo) {
	e.mem2reg(src, e.scratch, kind.StackKind(), info)
	e.reg2stack(e.scratch, dst, kind.StackKind())
}

func (e *Emitter) mem2mem(src Mem, dst lir.Operand, kind lir.Kind, info *lir.DebugInfo) {
	pos := e.buf.Position()
	switch kind.StackKind() {
	case lir.Int, lir.Float:
		e.asm.MovRM(false, e.scratch, src)
	case lir.Long, lir.Word, lir.Object, lir.Double:
		e.asm.MovRM(true, e.scratch, src)
	default:
		e.fatalf("memory-to-memory move of kind %s", kind)
	}
	if info != nil {
		e.target.recordImplicitException(pos, info)
	}
	m := e.addressMem(dst)
	if kind.StackKind() == lir.Int || kind.StackKind() == lir.Float {
		e.asm.MovMR(false, m, e.scratch)
	} else {
		e.asm.MovMR(true, m, e.scratch)
	}
}

// emitVolatileMove is the 64-bit volatile access path: the value moves
// through an XMM register so the memory access is a single 8-byte
// instruction.
func (e *Emitter) emitVolatileMove(in *lir.Instr) {
	if in.Kind != lir.Long {
		e.fatalf("volatile move of kind %s", in.Kind)
	}
	src, dst := in.X, in.Result
	switch {
	case src.IsAddress() && dst.IsRegister():
		m := e.addressMem(src)
		pos := e.buf.Position()
		e.asm.MovsdRM(XMMScratchRegister, m)
		if in.Info != nil {
			e.target.recordImplicitException(pos, in.Info)
		}
		e.asm.MovdFromXmm(true, e.asGPRegister(dst), XMMScratchRegister)
	case src.IsRegister() && dst.IsAddress():
		e.asm.MovdToXmm(true, XMMScratchRegister, e.asGPRegister(src))
		m := e.addressMem(dst)
		pos := e.buf.Position()
		e.asm.MovsdMR(m, XMMScratchRegister)
		if in.Info != nil {
			e.target.recordImplicitException(pos, in.Info)
		}
	default:
		e.fatalf("unsupported volatile move %s -> %s", src, dst)
	}
}

func (e *Emitter) emitLea(in *lir.Instr) {
	e.asm.Lea(true, e.asGPRegister(in.Result), e.asMem(in.X))
}

// emitMonitorAddress materializes the address of a monitor slot; the
// monitor index arrives as an integer constant.
func (e *Emitter) emitMonitorAddress(in *lir.Instr) {
	if !in.X.IsConstant() {
		e.fatalf("monitor index must be constant, got %s", in.X)
	}
	off := e.frame.MonitorOffset(int(in.X.AsInt()))
	e.asm.Lea(true, e.asGPRegister(in.Result), BaseDisp(RSP, off))
}

// emitStackAllocate hands out the address of a reserved stack block.
func (e *Emitter) emitStackAllocate(in *lir.Instr) {
	e.asm.Lea(true, e.asGPRegister(in.Result), e.stackSlotMem(in.X))
}

// emitNullCheck loads through the pointer solely to fault on null.
func (e *Emitter) emitNullCheck(in *lir.Instr) {
	r := e.asGPRegister(in.X)
	pos := e.buf.Position()
	e.asm.MovRM(false, e.scratch, BaseDisp(r, 0))
	e.target.recordImplicitException(pos, in.Info)
}
