package amd64

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/embervm/ember/lir"
)

func TestFloatConstMaterialization(t *testing.T) {
	// +0.0 is the only float constant xorps may materialize
	e := testEmitter(DefaultConfig())
	e.const2reg(lir.ConstFloat(0), XMM0)
	require.Equal(t, []byte{0x0F, 0x57, 0xC0}, e.buf.Bytes())
	require.Empty(t, e.target.DataPatches)

	// -0.0 differs in the sign bit and must go through the data section
	e = testEmitter(DefaultConfig())
	negZero := lir.ConstFloat(float32(math.Copysign(0, -1)))
	e.const2reg(negZero, XMM1)
	require.Equal(t, []byte{0xF3, 0x0F, 0x10, 0x0D, 0x00, 0x00, 0x00, 0x00}, e.buf.Bytes())
	require.Len(t, e.target.DataPatches, 1)
	dp := e.target.DataPatches[0]
	require.Equal(t, 4, dp.Pos)
	require.Equal(t, PatchDataRef, dp.Kind)
	require.Equal(t, uint32(0x80000000), dp.Constant.FloatBits())

	e = testEmitter(DefaultConfig())
	e.const2reg(lir.ConstDouble(0), XMM2)
	require.Equal(t, []byte{0x66, 0x0F, 0x57, 0xD2}, e.buf.Bytes())

	// a float constant headed for a GP register moves its raw bits
	e = testEmitter(DefaultConfig())
	e.const2reg(lir.ConstFloat(1.5), RAX)
	require.Equal(t, []byte{0xC7, 0xC0, 0x00, 0x00, 0xC0, 0x3F}, e.buf.Bytes())
}

func TestObjectConstMaterialization(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.const2reg(lir.ConstObject(nil), RCX)
	require.Equal(t, []byte{0x33, 0xC9}, e.buf.Bytes())
	require.Empty(t, e.target.DataPatches)

	e = testEmitter(DefaultConfig())
	e.const2reg(lir.ConstObject("hub"), RDX)
	require.Equal(t, []byte{0x48, 0x8B, 0x15, 0x00, 0x00, 0x00, 0x00}, e.buf.Bytes())
	require.Len(t, e.target.DataPatches, 1)
	require.Equal(t, 3, e.target.DataPatches[0].Pos)
	require.Equal(t, PatchDataRef, e.target.DataPatches[0].Kind)

	cfg := DefaultConfig()
	cfg.InlineObjects = true
	e = testEmitter(cfg)
	e.const2reg(lir.ConstObject("hub"), RAX)
	require.Equal(t, []byte{0x48, 0xB8, 0xAD, 0xDE, 0xAD, 0xDE, 0xAD, 0xDE, 0xAD, 0xDE}, e.buf.Bytes())
	require.Len(t, e.target.DataPatches, 1)
	require.Equal(t, 2, e.target.DataPatches[0].Pos)
	require.Equal(t, PatchInlineObject, e.target.DataPatches[0].Kind)
}

func TestSubWordLoads(t *testing.T) {
	cases := []struct {
		kind lir.Kind
		want []byte
	}{
		{lir.Boolean, []byte{0x0F, 0xB6, 0x08}},
		{lir.Byte, []byte{0x0F, 0xBE, 0x08}},
		{lir.Char, []byte{0x0F, 0xB7, 0x08}},
		{lir.Short, []byte{0x0F, 0xBF, 0x08}},
	}
	for _, c := range cases {
		e := testEmitter(DefaultConfig())
		e.mem2reg(lir.BaseAddr(c.kind, RAX, 0), RCX, c.kind, testInfo)
		require.Equal(t, c.want, e.buf.Bytes(), c.kind.String())
		require.Len(t, e.target.ImplicitExceptions, 1)
		require.Equal(t, 0, e.target.ImplicitExceptions[0].Pos)
	}
}

func TestStackToStackMovesThroughScratch(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.moveOperand(lir.Stack(lir.Long, 0), lir.Stack(lir.Long, 1), lir.Long, nil)
	// spill area starts past the 16-byte outgoing area
	want := []byte{
		0x4C, 0x8B, 0x5C, 0x24, 0x10, // mov r11, [rsp+16]
		0x4C, 0x89, 0x5C, 0x24, 0x18, // mov [rsp+24], r11
	}
	require.Equal(t, want, e.buf.Bytes())
}

func TestVolatileLongMove(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.emitVolatileMove(&lir.Instr{
		Code: lir.OpVolatileMove, Kind: lir.Long,
		X: lir.BaseAddr(lir.Long, RBX, 0), Result: lir.Reg(lir.Long, RAX),
		Info: testInfo,
	})
	// one 8-byte load through xmm15, then bits to rax
	want := []byte{
		0xF2, 0x44, 0x0F, 0x10, 0x3B, // movsd xmm15, [rbx]
		0x66, 0x4C, 0x0F, 0x7E, 0xF8, // movq rax, xmm15
	}
	require.Equal(t, want, e.buf.Bytes())
	require.Len(t, e.target.ImplicitExceptions, 1)
	require.Equal(t, 0, e.target.ImplicitExceptions[0].Pos)

	require.Panics(t, func() {
		testEmitter(DefaultConfig()).emitVolatileMove(&lir.Instr{
			Code: lir.OpVolatileMove, Kind: lir.Int,
			X: lir.BaseAddr(lir.Int, RBX, 0), Result: lir.Reg(lir.Int, RAX),
		})
	})
}

func TestConstToMemoryFaultOffset(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.const2mem(lir.ConstLong(1<<40), lir.BaseAddr(lir.Long, RAX, 0), lir.Long, testInfo)
	// the 64-bit immediate is materialized first; the fault record names
	// the store, not the mov
	require.Equal(t, []byte{0x49, 0xBB}, e.buf.Bytes()[:2])
	require.Equal(t, []byte{0x4C, 0x89, 0x18}, e.buf.Bytes()[10:])
	require.Len(t, e.target.ImplicitExceptions, 1)
	require.Equal(t, 10, e.target.ImplicitExceptions[0].Pos)
}

func TestNullCheck(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.emitNullCheck(&lir.Instr{Code: lir.OpNullCheck, X: lir.Reg(lir.Object, RDI), Info: testInfo})
	require.Equal(t, []byte{0x44, 0x8B, 0x1F}, e.buf.Bytes())
	require.Len(t, e.target.ImplicitExceptions, 1)
	require.Equal(t, 0, e.target.ImplicitExceptions[0].Pos)
}
