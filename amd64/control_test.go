package amd64

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/embervm/ember/lir"
)

func TestFloatBranchUnorderedRouting(t *testing.T) {
	// distinct successors: NaN routes through jp first
	e := testEmitter(DefaultConfig())
	tgt := lir.NewBlock(1)
	un := lir.NewBlock(2)
	e.emitBranch(&lir.Instr{
		Code: lir.OpCondFloatBranch, Cond: lir.CondGT,
		Branch: &lir.BranchTarget{Target: tgt, Unordered: un},
	})
	code := e.buf.Bytes()
	require.Len(t, code, 12)
	require.Equal(t, []byte{0x0F, 0x8A}, code[0:2]) // jp unordered
	require.Equal(t, []byte{0x0F, 0x87}, code[6:8]) // ja target

	// same successor and a condition NaN already satisfies: no jp
	e = testEmitter(DefaultConfig())
	b := lir.NewBlock(3)
	e.emitBranch(&lir.Instr{
		Code: lir.OpCondFloatBranch, Cond: lir.CondLE,
		Branch: &lir.BranchTarget{Target: b, Unordered: b},
	})
	code = e.buf.Bytes()
	require.Len(t, code, 6)
	require.Equal(t, []byte{0x0F, 0x86}, code[0:2]) // jbe only

	// same successor but NaN fails the condition: jp still needed
	e = testEmitter(DefaultConfig())
	b = lir.NewBlock(4)
	e.emitBranch(&lir.Instr{
		Code: lir.OpCondFloatBranch, Cond: lir.CondGT,
		Branch: &lir.BranchTarget{Target: b, Unordered: b},
	})
	require.Len(t, e.buf.Bytes(), 12)

	require.Panics(t, func() {
		testEmitter(DefaultConfig()).emitBranch(&lir.Instr{
			Code: lir.OpCondFloatBranch, Cond: lir.CondGT,
			Branch: &lir.BranchTarget{Target: lir.NewBlock(5)},
		})
	})
}

func TestIntBranchForms(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.emitBranch(&lir.Instr{
		Code: lir.OpBranch, Branch: &lir.BranchTarget{Target: lir.NewBlock(1)},
	})
	require.Equal(t, byte(0xE9), e.buf.Bytes()[0]) // CondTrue is unconditional

	e = testEmitter(DefaultConfig())
	e.emitBranch(&lir.Instr{
		Code: lir.OpBranch, Cond: lir.CondNE,
		Branch: &lir.BranchTarget{Target: lir.NewBlock(2)},
	})
	require.Equal(t, []byte{0x0F, 0x85}, e.buf.Bytes()[0:2])

	require.Panics(t, func() {
		testEmitter(DefaultConfig()).emitBranch(&lir.Instr{Code: lir.OpBranch})
	})
}

func TestTableSwitchSequence(t *testing.T) {
	e := testEmitter(DefaultConfig())
	bound := lir.NewBlock(1)
	bound.Label.Bind(e.buf) // backward target at offset 0
	forward := lir.NewBlock(2)
	def := lir.NewBlock(3)

	e.emitTableSwitch(&lir.Instr{
		Code: lir.OpTableSwitch, Kind: lir.Int, X: lir.Reg(lir.Int, RAX),
		Switch: &lir.SwitchTargets{LowKey: 1, Targets: []*lir.Block{bound, forward}, Default: def},
	})
	forward.Label.Bind(e.buf)
	def.Label.Bind(e.buf)
	code := e.buf.Bytes()

	// key normalization and the unsigned range check come first
	require.Equal(t, []byte{0x83, 0xE8, 0x01}, code[0:3]) // sub eax, 1
	require.Equal(t, []byte{0x83, 0xF8, 0x01}, code[3:6]) // cmp eax, 1
	require.Equal(t, []byte{0x0F, 0x87}, code[6:8])       // ja default

	require.Len(t, e.target.JumpTables, 1)
	jt := e.target.JumpTables[0]
	require.Equal(t, 0, jt.Pos%4)
	require.Equal(t, int32(1), jt.LowKey)
	require.Equal(t, int32(2), jt.HighKey)
	require.Equal(t, 4, jt.EntrySize)

	// bound targets are written directly, forward ones patched on bind
	require.Equal(t, uint32(0-jt.Pos), e.buf.IntAt(jt.Pos))
	require.Equal(t, uint32(forward.Label.Position()-jt.Pos), e.buf.IntAt(jt.Pos+4))

	// the rip-relative lea displacement was back-patched to the table
	leaDisp := 12 + 3 // the lea follows the 6-byte ja; disp32 after rex+opcode+modrm
	require.Equal(t, uint32(jt.Pos-(leaDisp+4)), e.buf.IntAt(leaDisp))
}
