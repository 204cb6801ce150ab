package amd64

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/embervm/ember/lir"
	"github.com/embervm/ember/xir"
)

// testEmitter builds an emitter over a small frame with room for stub
// arguments and a few spill slots.
func testEmitter(cfg Config) *Emitter {
	frame := &lir.FrameMap{OutgoingSize: 2 * lir.SlotSize, SpillSlotCount: 4}
	return NewEmitter(cfg, &lir.Method{Name: "Test.m", Frame: frame})
}

var testInfo = &lir.DebugInfo{Method: "Test.m", BCI: 7}

func TestCompileStraightLine(t *testing.T) {
	m := &lir.Method{
		Name:  "Test.straight",
		Frame: &lir.FrameMap{},
		Code: []*lir.Instr{
			{Code: lir.OpMove, Kind: lir.Int, X: lir.ConstInt(42), Result: lir.Reg(lir.Int, RAX)},
			{Code: lir.OpReturn},
		},
	}
	tm, err := Compile(context.Background(), m, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, 8, tm.FrameSize)

	want := []byte{
		0x48, 0x89, 0x84, 0x24, 0x00, 0xE0, 0xFF, 0xFF, // guard-page bang at rsp-8192
		0x48, 0x83, 0xEC, 0x08, // sub rsp, 8
		0xC7, 0xC0, 0x2A, 0x00, 0x00, 0x00, // mov eax, 42
		0x48, 0x83, 0xC4, 0x08, // add rsp, 8
		0xC3,
	}
	require.Equal(t, want, tm.Code)
}

func TestCompileZeroValueConfig(t *testing.T) {
	// a zero Config gets the default guard-page geometry
	build := func() *lir.Method {
		return &lir.Method{
			Name:  "Test.zero",
			Frame: &lir.FrameMap{},
			Code: []*lir.Instr{
				{Code: lir.OpMove, Kind: lir.Int, X: lir.ConstInt(42), Result: lir.Reg(lir.Int, RAX)},
				{Code: lir.OpReturn},
			},
		}
	}
	zero, err := Compile(context.Background(), build(), Config{})
	require.NoError(t, err)
	def, err := Compile(context.Background(), build(), DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, def.Code, zero.Code)
}

func TestCompileBailoutBecomesError(t *testing.T) {
	m := &lir.Method{
		Name:  "Test.badshift",
		Frame: &lir.FrameMap{},
		Code: []*lir.Instr{
			{Code: lir.OpShl, Kind: lir.Int,
				X: lir.Reg(lir.Int, RAX), Y: lir.Reg(lir.Int, RBX), Result: lir.Reg(lir.Int, RAX)},
			{Code: lir.OpReturn},
		},
	}
	_, err := Compile(context.Background(), m, DefaultConfig())
	require.Error(t, err)
	require.Contains(t, err.Error(), "rcx")
}

func TestCompileRejectsUnboundBlock(t *testing.T) {
	orphan := lir.NewBlock(9)
	m := &lir.Method{
		Name:  "Test.orphan",
		Frame: &lir.FrameMap{},
		Code: []*lir.Instr{
			{Code: lir.OpBranch, Cond: lir.CondEQ, Branch: &lir.BranchTarget{Target: orphan}},
			{Code: lir.OpReturn},
		},
	}
	_, err := Compile(context.Background(), m, DefaultConfig())
	require.Error(t, err)
	require.Contains(t, err.Error(), "never bound")
}

func TestCompileSafepointAndSwitch(t *testing.T) {
	frame := &lir.FrameMap{OutgoingSize: 2 * lir.SlotSize, SpillSlotCount: 2}

	b1 := lir.NewBlock(1)
	b2 := lir.NewBlock(2)
	bDefault := lir.NewBlock(3)
	bEnd := lir.NewBlock(4)

	rax := lir.Reg(lir.Int, RAX)
	rbx := lir.Reg(lir.Int, RBX)
	poll := xir.SafepointTemplate().MustBind(
		[]lir.Operand{lir.Reg(lir.Word, SafepointLatchRegister)},
		[]lir.Operand{lir.Reg(lir.Word, R10)},
	)

	m := &lir.Method{
		Name:  "Test.dispatch",
		Frame: frame,
		Code: []*lir.Instr{
			{Code: lir.OpXir, Xir: poll, Info: testInfo},
			{Code: lir.OpMove, Kind: lir.Int, X: lir.ConstInt(2), Result: rax},
			{Code: lir.OpTableSwitch, Kind: lir.Int, X: rax,
				Switch: &lir.SwitchTargets{LowKey: 1, Targets: []*lir.Block{b1, b2}, Default: bDefault}},

			{Code: lir.OpMove, Kind: lir.Int, X: lir.ConstInt(10), Result: rbx, BlockStart: b1},
			{Code: lir.OpBranch, Branch: &lir.BranchTarget{Target: bEnd}},
			{Code: lir.OpMove, Kind: lir.Int, X: lir.ConstInt(20), Result: rbx, BlockStart: b2},
			{Code: lir.OpBranch, Branch: &lir.BranchTarget{Target: bEnd}},
			{Code: lir.OpMove, Kind: lir.Int, X: lir.ConstInt(-1), Result: rbx, BlockStart: bDefault},

			{Code: lir.OpMove, Kind: lir.Int, X: rbx, Result: rax, BlockStart: bEnd},
			{Code: lir.OpReturn},
		},
	}

	tm, err := Compile(context.Background(), m, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, tm.Safepoints, 1)
	require.Equal(t, testInfo, tm.Safepoints[0].Info)
	require.Len(t, tm.Marks, 1)
	require.Equal(t, "safepoint", tm.Marks[0].Name)
	require.Equal(t, tm.Safepoints[0].Pos, tm.Marks[0].Pos)

	require.Len(t, tm.JumpTables, 1)
	jt := tm.JumpTables[0]
	require.Equal(t, 0, jt.Pos%4)
	require.Equal(t, 4, jt.EntrySize)
	require.Equal(t, int32(1), jt.LowKey)
	require.Equal(t, int32(2), jt.HighKey)

	// every entry is table-relative and resolves to its block's start
	for i, b := range []*lir.Block{b1, b2} {
		entry := int32(binary.LittleEndian.Uint32(tm.Code[jt.Pos+4*i:]))
		require.Equal(t, b.Label.Position()-jt.Pos, int(entry), "entry %d", i)
	}
}

func TestBreakpointGuards(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MethodEndBreakpointGuards = 3
	m := &lir.Method{
		Name:  "Test.guards",
		Frame: &lir.FrameMap{},
		Code:  []*lir.Instr{{Code: lir.OpReturn}},
	}
	tm, err := Compile(context.Background(), m, cfg)
	require.NoError(t, err)
	n := len(tm.Code)
	require.Equal(t, []byte{0xCC, 0xCC, 0xCC}, tm.Code[n-3:])
}

func TestZapStackOnEntry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ZapStackOnMethodEntry = true
	m := &lir.Method{
		Name:  "Test.zap",
		Frame: &lir.FrameMap{},
		Code:  []*lir.Instr{{Code: lir.OpReturn}},
	}
	tm, err := Compile(context.Background(), m, cfg)
	require.NoError(t, err)
	// the 8-byte frame gets two 4-byte poison stores
	require.Equal(t, 2, bytes.Count(tm.Code, []byte{0xC1, 0xC1, 0xC1, 0xC1}))
}
