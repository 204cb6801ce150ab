package amd64

import (
	"github.com/embervm/ember/asm"
	"github.com/embervm/ember/lir"
)

func (e *Emitter) emitBranch(in *lir.Instr) {
	if in.Branch == nil || in.Branch.Target == nil {
		e.fatalf("branch without target")
	}
	target := &in.Branch.Target.Label

	if in.Cond == lir.CondTrue {
		e.asm.Jmp(target)
		return
	}

	if in.Code == lir.OpCondFloatBranch {
		if in.Branch.Unordered == nil {
			e.fatalf("float branch without unordered successor")
		}
		// NaN comparisons set the parity flag; route them to the
		// unordered successor first, unless the primary condition
		// already takes them to the same place
		if in.Branch.Unordered != in.Branch.Target || !trueOnUnordered(in.Cond) {
			e.asm.Jcc(ccP, &in.Branch.Unordered.Label)
		}
		e.asm.Jcc(floatCC(in.Cond), target)
		return
	}

	e.asm.Jcc(intCC(in.Cond), target)
}

// emitTableSwitch lowers a dense key range to an embedded table of
// 4-byte table-relative entries. The base-address lea is emitted with a
// placeholder displacement and patched once the table position is
// known, since it forward-references the end of this very sequence.
func (e *Emitter) emitTableSwitch(in *lir.Instr) {
	sw := in.Switch
	if sw == nil || len(sw.Targets) == 0 {
		e.fatalf("table switch without targets")
	}
	value := e.asGPRegister(in.X)

	if sw.LowKey != 0 {
		e.asm.SubImm(false, value, sw.LowKey)
	}
	// unsigned compare folds the below-range case into above-range
	e.asm.CmpImm(false, value, int32(len(sw.Targets)-1))
	e.asm.Jcc(ccA, &sw.Default.Label)

	leaDispPos := e.asm.Lea(true, e.scratch, ripRef())
	e.asm.MovsxdRM(value, Mem{Base: e.scratch, Index: value, Scale: lir.Times4})
	e.asm.AddRR(true, value, e.scratch)
	e.asm.JmpReg(value)

	e.asm.AlignTo(4)
	tablePos := e.buf.Position()
	for _, t := range sw.Targets {
		entryPos := e.buf.Position()
		if t.Label.IsBound() {
			e.buf.EmitInt(uint32(t.Label.Position() - tablePos))
		} else {
			t.Label.AddPatchAt(asm.PatchTableEntry32, entryPos, tablePos)
			e.buf.EmitInt(0)
		}
	}

	// back-patch the base lea now that the table position is fixed
	e.buf.PutIntAt(leaDispPos, uint32(tablePos-(leaDispPos+4)))

	e.target.recordJumpTable(tablePos, sw.LowKey, sw.HighKey(), 4)
}
