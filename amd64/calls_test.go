package amd64

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/embervm/ember/lir"
)

func TestStubCallMarshalling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GenAssertionCode = true
	e := testEmitter(cfg)
	e.callStub(lir.RTArithmeticF2I, lir.Int, lir.Reg(lir.Int, RAX), testInfo,
		lir.Reg(lir.Float, XMM0))

	want := []byte{
		0xF3, 0x0F, 0x11, 0x04, 0x24, // movss [rsp], xmm0
		0xE8, 0x00, 0x00, 0x00, 0x00, // call (installer fills the target)
		0x8B, 0x04, 0x24, // mov eax, [rsp] (stub result)
		0x48, 0xC7, 0x04, 0x24, 0xC1, 0xC1, 0xC1, 0xC1, // zap the argument slot
	}
	require.Equal(t, want, e.buf.Bytes())

	require.Len(t, e.target.Calls, 1)
	c := e.target.Calls[0]
	require.Equal(t, 5, c.Before)
	require.Equal(t, 10, c.After)
	require.True(t, c.Direct)
	require.True(t, c.Target.IsRuntime)
	require.Equal(t, lir.RTArithmeticF2I, c.Target.Runtime)
	require.Equal(t, testInfo, c.Info)
}

func TestDirectCallAlignment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AlignCallsForPatching = true
	for pad := 0; pad < 8; pad++ {
		e := testEmitter(cfg)
		e.asm.Nop(pad)
		e.directCall(&lir.CallTarget{Method: "Test.callee"}, nil)
		c := e.target.Calls[0]
		// the 4-byte displacement must not straddle an 8-byte unit
		require.LessOrEqual(t, (c.Before+1)%8, 4, "pad %d", pad)
	}
}

func TestCallSiteUniquePC(t *testing.T) {
	target := &lir.CallTarget{Method: "Test.callee"}

	e := testEmitter(DefaultConfig())
	e.directCall(target, nil)
	e.directCall(target, nil)
	require.Equal(t, e.target.Calls[0].After, e.target.Calls[1].Before)

	cfg := DefaultConfig()
	cfg.CallSiteUniquePC = true
	e = testEmitter(cfg)
	e.directCall(target, nil)
	e.directCall(target, nil)
	require.Equal(t, e.target.Calls[0].After+1, e.target.Calls[1].Before)
}

func TestRuntimeCallConvention(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.callRuntime(lir.RTMonitorEnter, lir.Void, lir.IllegalOperand, testInfo,
		lir.Reg(lir.Object, RBX))
	want := []byte{
		0x48, 0x8B, 0xFB, // mov rdi, rbx
		0xE8, 0x00, 0x00, 0x00, 0x00,
	}
	require.Equal(t, want, e.buf.Bytes())
	require.Equal(t, lir.RTMonitorEnter, e.target.Calls[0].Target.Runtime)
}

func TestNativeCallIsIndirect(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.emitCall(&lir.Instr{
		Code: lir.OpNativeCall,
		Call: &lir.CallTarget{Method: "memcpy", Addr: 0x7F0011223344},
		Info: testInfo,
	})
	code := e.buf.Bytes()
	// mov r11, addr ... call r11
	require.Equal(t, []byte{0x49, 0xBB}, code[:2])
	require.Equal(t, []byte{0x41, 0xFF, 0xD3}, code[len(code)-3:])
	require.Len(t, e.target.Calls, 1)
	require.False(t, e.target.Calls[0].Direct)

	require.Panics(t, func() {
		testEmitter(DefaultConfig()).emitCall(&lir.Instr{
			Code: lir.OpNativeCall, Call: &lir.CallTarget{Method: "memcpy"},
		})
	})
}

func TestDeoptStubIsOutOfLine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CreateDeoptInfo = true
	e := testEmitter(cfg)

	entry := e.EmitDeoptStub(lir.DeoptRecompile, testInfo)
	require.False(t, entry.IsBound())
	require.Empty(t, e.buf.Bytes())

	e.flushSlowPaths()
	require.True(t, entry.IsBound())

	require.Len(t, e.target.Calls, 2)
	require.Equal(t, lir.RTSetDeoptInfo, e.target.Calls[0].Target.Runtime)
	require.Equal(t, lir.RTDeoptimize, e.target.Calls[1].Target.Runtime)

	// the transfer never returns; a halt guard closes the stub
	code := e.buf.Bytes()
	require.Equal(t, byte(0xF4), code[len(code)-1])
}

func TestCompareAndSwap(t *testing.T) {
	e := testEmitter(DefaultConfig())
	e.emitCompareAndSwap(&lir.Instr{
		Code: lir.OpCas, Kind: lir.Long,
		X: lir.BaseAddr(lir.Long, RBX, 0),
		Y: lir.Reg(lir.Long, RAX), Z: lir.Reg(lir.Long, RCX),
		Result: lir.Reg(lir.Long, RAX), Info: testInfo,
	})
	require.Equal(t, []byte{0xF0, 0x48, 0x0F, 0xB1, 0x0B}, e.buf.Bytes())
	require.Len(t, e.target.ImplicitExceptions, 1)
	require.Equal(t, 0, e.target.ImplicitExceptions[0].Pos)

	// the expected value must already occupy the cmpxchg input register
	require.Panics(t, func() {
		testEmitter(DefaultConfig()).emitCompareAndSwap(&lir.Instr{
			Code: lir.OpCas, Kind: lir.Long,
			X: lir.BaseAddr(lir.Long, RBX, 0),
			Y: lir.Reg(lir.Long, RSI), Z: lir.Reg(lir.Long, RCX),
			Result: lir.Reg(lir.Long, RSI),
		})
	})
}
