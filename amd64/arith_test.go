package amd64

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"

	"github.com/embervm/ember/lir"
)

func TestDivByPowerOfTwo(t *testing.T) {
	// bias a negative dividend by divisor-1, then shift
	e := testEmitter(DefaultConfig())
	e.divByPowerOf2(false, 8)
	want := []byte{
		0x99,             // cdq
		0x83, 0xE2, 0x07, // and edx, 7
		0x03, 0xC2, // add eax, edx
		0xC1, 0xF8, 0x03, // sar eax, 3
	}
	require.Equal(t, want, e.buf.Bytes())

	// dividing by 2 folds the bias into a subtract
	e = testEmitter(DefaultConfig())
	e.divByPowerOf2(true, 2)
	want = []byte{
		0x48, 0x99, // cqo
		0x48, 0x2B, 0xC2, // sub rax, rdx
		0x48, 0xC1, 0xF8, 0x01, // sar rax, 1
	}
	require.Equal(t, want, e.buf.Bytes())
}

func TestSignedDivRegister(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.emitSignedDivRem(&lir.Instr{
		Code: lir.OpIdiv, Kind: lir.Int,
		X: lir.Reg(lir.Int, RAX), Y: lir.Reg(lir.Int, RSI),
		Result: lir.Reg(lir.Int, RAX), Info: testInfo,
	})
	code := e.Finish().Code

	// the MIN/-1 guard precedes the hardware divide
	require.Equal(t, []byte{0x81, 0xF8, 0x00, 0x00, 0x00, 0x80}, code[:6])

	require.Len(t, e.target.ImplicitExceptions, 1)
	divPos := e.target.ImplicitExceptions[0].Pos
	insts := DisassembleInstructions(code)
	require.Equal(t, x86asm.IDIV, insts[divPos].Op)

	count := 0
	for _, inst := range insts {
		if inst.Op == x86asm.IDIV {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestSignedRemPowerOfTwoAvoidsDivide(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.emitSignedDivRem(&lir.Instr{
		Code: lir.OpIrem, Kind: lir.Int,
		X: lir.Reg(lir.Int, RAX), Y: lir.ConstInt(8),
		Result: lir.Reg(lir.Int, RDX), Info: testInfo,
	})
	for _, inst := range DisassembleInstructions(e.Finish().Code) {
		require.NotEqual(t, x86asm.IDIV, inst.Op)
		require.NotEqual(t, x86asm.DIV, inst.Op)
	}
	require.Empty(t, e.target.ImplicitExceptions)
}

func TestSignedDivLongGuard(t *testing.T) {
	// the 64-bit MIN/-1 guard materializes MIN through rdx
	e := testEmitter(DefaultConfig())
	e.emitSignedDivRem(&lir.Instr{
		Code: lir.OpLdiv, Kind: lir.Long,
		X: lir.Reg(lir.Long, RAX), Y: lir.Reg(lir.Long, RSI),
		Result: lir.Reg(lir.Long, RAX), Info: testInfo,
	})
	code := e.Finish().Code

	// mov rdx, 0x8000000000000000
	want := []byte{0x48, 0xBA, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80}
	require.Equal(t, want, code[:10])
	// cmp rax, rdx
	require.Equal(t, []byte{0x48, 0x3B, 0xC2}, code[10:13])

	require.Len(t, e.target.ImplicitExceptions, 1)
	insts := DisassembleInstructions(code)
	require.Equal(t, x86asm.IDIV, insts[e.target.ImplicitExceptions[0].Pos].Op)
}

func TestLongRemPowerOfTwoMask(t *testing.T) {
	// the 64-bit remainder masks sign and low bits through the scratch
	// register
	e := testEmitter(DefaultConfig())
	e.emitSignedDivRem(&lir.Instr{
		Code: lir.OpLrem, Kind: lir.Long,
		X: lir.Reg(lir.Long, RAX), Y: lir.ConstLong(8),
		Result: lir.Reg(lir.Long, RDX), Info: testInfo,
	})
	code := e.Finish().Code

	// mov rdx, rax
	require.Equal(t, []byte{0x48, 0x8B, 0xD0}, code[:3])
	// mov r11, 0x8000000000000007
	want := []byte{0x49, 0xBB, 0x07, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80}
	require.Equal(t, want, code[3:13])

	for _, inst := range DisassembleInstructions(code) {
		require.NotEqual(t, x86asm.IDIV, inst.Op)
		require.NotEqual(t, x86asm.DIV, inst.Op)
	}
	require.Empty(t, e.target.ImplicitExceptions)
}

func TestSignedDivConstraints(t *testing.T) {
	// dividend not in rax
	require.Panics(t, func() {
		testEmitter(DefaultConfig()).emitSignedDivRem(&lir.Instr{
			Code: lir.OpIdiv, Kind: lir.Int,
			X: lir.Reg(lir.Int, RBX), Y: lir.Reg(lir.Int, RSI),
			Result: lir.Reg(lir.Int, RAX),
		})
	})
	// remainder result not in rdx
	require.Panics(t, func() {
		testEmitter(DefaultConfig()).emitSignedDivRem(&lir.Instr{
			Code: lir.OpIrem, Kind: lir.Int,
			X: lir.Reg(lir.Int, RAX), Y: lir.Reg(lir.Int, RSI),
			Result: lir.Reg(lir.Int, RAX),
		})
	})
	// divisor clobbered by the sign extension
	require.Panics(t, func() {
		testEmitter(DefaultConfig()).emitSignedDivRem(&lir.Instr{
			Code: lir.OpIdiv, Kind: lir.Int,
			X: lir.Reg(lir.Int, RAX), Y: lir.Reg(lir.Int, RDX),
			Result: lir.Reg(lir.Int, RAX),
		})
	})
	// only positive powers of two may be constant divisors
	require.Panics(t, func() {
		testEmitter(DefaultConfig()).emitSignedDivRem(&lir.Instr{
			Code: lir.OpIdiv, Kind: lir.Int,
			X: lir.Reg(lir.Int, RAX), Y: lir.ConstInt(10),
			Result: lir.Reg(lir.Int, RAX),
		})
	})
}

func TestUnsignedNarrowDivide(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.emitUnsignedDivRem(&lir.Instr{
		Code: lir.OpWdivi, Kind: lir.Word,
		X: lir.Reg(lir.Word, RAX), Y: lir.Reg(lir.Word, RSI),
		Result: lir.Reg(lir.Word, RAX), Info: testInfo,
	})
	want := []byte{
		0x8B, 0xF6, // mov esi, esi (zero-extend the divisor)
		0x33, 0xD2, // xor edx, edx
		0x48, 0xF7, 0xF6, // div rsi
	}
	require.Equal(t, want, e.buf.Bytes())
	require.Len(t, e.target.ImplicitExceptions, 1)
	require.Equal(t, 4, e.target.ImplicitExceptions[0].Pos)
}

func TestShiftLowering(t *testing.T) {
	// constant counts are masked to the operand width
	e := testEmitter(DefaultConfig())
	e.emitShift(&lir.Instr{
		Code: lir.OpShl, Kind: lir.Int,
		X: lir.Reg(lir.Int, RAX), Y: lir.ConstInt(35), Result: lir.Reg(lir.Int, RAX),
	})
	require.Equal(t, []byte{0xC1, 0xE0, 0x03}, e.buf.Bytes())

	e = testEmitter(DefaultConfig())
	e.emitShift(&lir.Instr{
		Code: lir.OpShr, Kind: lir.Long,
		X: lir.Reg(lir.Long, RBX), Y: lir.Reg(lir.Int, RCX), Result: lir.Reg(lir.Long, RBX),
	})
	require.Equal(t, []byte{0x48, 0xD3, 0xFB}, e.buf.Bytes())

	require.Panics(t, func() {
		testEmitter(DefaultConfig()).emitShift(&lir.Instr{
			Code: lir.OpShl, Kind: lir.Int,
			X: lir.Reg(lir.Int, RAX), Y: lir.Reg(lir.Int, RBX), Result: lir.Reg(lir.Int, RAX),
		})
	})
}

func TestArithRequiresDestructiveForm(t *testing.T) {
	require.Panics(t, func() {
		testEmitter(DefaultConfig()).emitArith(&lir.Instr{
			Code: lir.OpAdd, Kind: lir.Int,
			X: lir.Reg(lir.Int, RBX), Y: lir.Reg(lir.Int, RCX), Result: lir.Reg(lir.Int, RAX),
		})
	})
}

func TestFloatArithConstantOperand(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.emitArith(&lir.Instr{
		Code: lir.OpAdd, Kind: lir.Double,
		X: lir.Reg(lir.Double, XMM1), Y: lir.ConstDouble(2.5), Result: lir.Reg(lir.Double, XMM1),
	})
	require.Equal(t, []byte{0xF2, 0x0F, 0x58, 0x0D, 0x00, 0x00, 0x00, 0x00}, e.buf.Bytes())
	require.Len(t, e.target.DataPatches, 1)
	dp := e.target.DataPatches[0]
	require.Equal(t, 4, dp.Pos)
	require.Equal(t, PatchDataRef, dp.Kind)
	require.Equal(t, math.Float64bits(2.5), dp.Constant.DoubleBits())
}

func TestNegateFloatFlipsSignBit(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.emitNegate(&lir.Instr{
		Code: lir.OpNegate, Kind: lir.Float,
		X: lir.Reg(lir.Float, XMM2), Result: lir.Reg(lir.Float, XMM2),
	})
	require.Equal(t, []byte{0x0F, 0x57, 0x15, 0x00, 0x00, 0x00, 0x00}, e.buf.Bytes())
	require.Len(t, e.target.DataPatches, 1)
	require.Equal(t, 3, e.target.DataPatches[0].Pos)
	require.Equal(t, uint32(0x80000000), e.target.DataPatches[0].Constant.FloatBits())
}

func TestCompareWithNullConstant(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.emitCompare(lir.Reg(lir.Object, RAX), lir.ConstObject(nil))
	require.Equal(t, []byte{0x48, 0x85, 0xC0}, e.buf.Bytes())
}

func TestFloatCompare2Int(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.emitCompare2Int(&lir.Instr{
		Code: lir.OpCmpfd2i, Kind: lir.Float,
		X: lir.Reg(lir.Float, XMM0), Y: lir.Reg(lir.Float, XMM1),
		Result: lir.Reg(lir.Int, RAX),
	})
	code := e.buf.Bytes()
	// ucomiss, then the unordered (-1) result guarded by jp
	require.Equal(t, []byte{
		0x0F, 0x2E, 0xC1,
		0xC7, 0xC0, 0xFF, 0xFF, 0xFF, 0xFF,
		0x0F, 0x8A,
	}, code[:11])
	require.Len(t, code, 45)
}

func TestConditionalMove(t *testing.T) {
	// the operand already in the result register becomes the default and
	// the condition is kept instead of negated
	e := testEmitter(DefaultConfig())
	e.emitConditionalMove(&lir.Instr{
		Code: lir.OpCondMove, Kind: lir.Int, Cond: lir.CondLT,
		X: lir.Reg(lir.Int, RSI), Y: lir.Reg(lir.Int, RAX), Result: lir.Reg(lir.Int, RAX),
	})
	require.Equal(t, []byte{0x0F, 0x4C, 0xC6}, e.buf.Bytes())

	// constants fall back to a branch around the move
	e = testEmitter(DefaultConfig())
	e.emitConditionalMove(&lir.Instr{
		Code: lir.OpCondMove, Kind: lir.Int, Cond: lir.CondLT,
		X: lir.Reg(lir.Int, RBX), Y: lir.ConstInt(3), Result: lir.Reg(lir.Int, RAX),
	})
	want := []byte{
		0x8B, 0xC3, // mov eax, ebx
		0x0F, 0x8C, 0x06, 0x00, 0x00, 0x00, // jl past the move
		0xC7, 0xC0, 0x03, 0x00, 0x00, 0x00, // mov eax, 3
	}
	require.Equal(t, want, e.buf.Bytes())
}
