package amd64

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/embervm/ember/asm"
	"github.com/embervm/ember/lir"
	"github.com/embervm/ember/log"
)

// Config is the option set governing emission. The zero value is a
// usable production configuration; guard-page geometry left at zero is
// defaulted when the emitter is constructed.
type Config struct {
	// InlineObjects embeds object references as 8-byte placeholder
	// immediates; otherwise they are loaded rip-relative through the
	// data section.
	InlineObjects bool
	// AlignCallsForPatching pads direct calls so the displacement field
	// never crosses an 8-byte boundary, keeping it patchable in place.
	AlignCallsForPatching bool
	// ZapStackOnMethodEntry fills fresh frames with a poison pattern.
	ZapStackOnMethodEntry bool
	// GenAssertionCode zaps stub argument slots after use.
	GenAssertionCode bool
	// CreateDeoptInfo passes a deopt-info reference to the runtime
	// before transferring to the deoptimizer.
	CreateDeoptInfo bool
	// MethodEndBreakpointGuards appends int3 guards after the last
	// instruction.
	MethodEndBreakpointGuards int
	// CallSiteUniquePC pads with a nop before a call immediately
	// following another call, so every call site has a distinct
	// return address.
	CallSiteUniquePC bool
	// TraceAssembler logs every LIR instruction as it is emitted.
	TraceAssembler bool

	StackShadowPages int
	PageSize         int
}

const (
	defaultStackShadowPages = 2
	defaultPageSize         = 4096
)

func DefaultConfig() Config {
	return Config{
		StackShadowPages: defaultStackShadowPages,
		PageSize:         defaultPageSize,
	}
}

// bailout is the panic payload for internal invariant violations. It
// aborts the current compilation; Compile converts it into an error so
// the caller can fall back to interpretation.
type bailout struct {
	msg string
}

func (b bailout) Error() string { return b.msg }

const logModule = "amd64"

// Emitter is the per-compilation emission context. All state, including
// the scratch register, is private to one compilation; instances are
// never shared.
type Emitter struct {
	cfg    Config
	buf    *asm.Buffer
	asm    *Assembler
	frame  *lir.FrameMap
	target *TargetMethod
	method *lir.Method

	scratch lir.Register

	// deferred out-of-line code, emitted after the main instruction
	// stream
	slowPaths []func()

	lastCallEnd int
}

func NewEmitter(cfg Config, method *lir.Method) *Emitter {
	if cfg.StackShadowPages == 0 {
		cfg.StackShadowPages = defaultStackShadowPages
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = defaultPageSize
	}
	buf := asm.NewBuffer()
	return &Emitter{
		cfg:         cfg,
		buf:         buf,
		asm:         NewAssembler(buf),
		frame:       method.Frame,
		method:      method,
		scratch:     ScratchRegister,
		target:      &TargetMethod{Name: method.Name, FrameSize: method.Frame.FrameSize()},
		lastCallEnd: -1,
	}
}

func (e *Emitter) fatalf(format string, args ...any) {
	panic(bailout{msg: fmt.Sprintf(format, args...)})
}

func (e *Emitter) shouldNotReachHere(what string) {
	e.fatalf("should not reach here: %s", what)
}

var tracer = otel.Tracer("ember/amd64")

// Compile emits the method and returns its code and metadata. Internal
// invariant violations surface as an error, never a panic.
func Compile(ctx context.Context, method *lir.Method, cfg Config) (tm *TargetMethod, err error) {
	_, span := tracer.Start(ctx, "amd64.Compile",
		trace.WithAttributes(attribute.String("method", method.Name)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("compiling %s: %w", method.Name, b)
			log.Error(logModule, "compilation bailout", "method", method.Name, "err", b.msg)
		}
	}()

	e := NewEmitter(cfg, method)
	e.emitMethod()
	tm = e.Finish()
	span.SetAttributes(attribute.Int("code.size", len(tm.Code)))
	log.Debug(logModule, "compiled", "method", method.Name, "size", len(tm.Code))
	return tm, nil
}

func (e *Emitter) emitMethod() {
	e.emitPrologue()
	for _, in := range e.method.Code {
		if in.BlockStart != nil {
			in.BlockStart.Label.Bind(e.buf)
		}
		if e.cfg.TraceAssembler {
			log.Trace(logModule, "emit", "pos", e.buf.Position(), "instr", in.String())
		}
		e.emitInstr(in)
	}
	e.flushSlowPaths()
	for i := 0; i < e.cfg.MethodEndBreakpointGuards; i++ {
		e.asm.Int3()
	}
	e.checkLabelsBound()
}

// Finish seals the target method.
func (e *Emitter) Finish() *TargetMethod {
	e.target.Code = e.buf.Bytes()
	return e.target
}

// addSlowPath schedules out-of-line code emitted after the main stream.
func (e *Emitter) addSlowPath(f func()) {
	e.slowPaths = append(e.slowPaths, f)
}

func (e *Emitter) flushSlowPaths() {
	// a slow path may schedule further slow paths
	for len(e.slowPaths) > 0 {
		paths := e.slowPaths
		e.slowPaths = nil
		for _, f := range paths {
			f()
		}
	}
}

// checkLabelsBound asserts emission left no dangling forward reference.
func (e *Emitter) checkLabelsBound() {
	check := func(b *lir.Block) {
		if b == nil {
			return
		}
		if !b.Label.IsBound() || b.Label.PendingPatches() != 0 {
			e.fatalf("block %s never bound", b)
		}
	}
	for _, in := range e.method.Code {
		check(in.BlockStart)
		if in.Branch != nil {
			check(in.Branch.Target)
			check(in.Branch.Unordered)
		}
		if in.Switch != nil {
			check(in.Switch.Default)
			for _, t := range in.Switch.Targets {
				check(t)
			}
		}
	}
}

// emitInstr dispatches one instruction, grouped by architectural family.
func (e *Emitter) emitInstr(in *lir.Instr) {
	switch in.Code {
	case lir.OpNop:

	// moves
	case lir.OpMove:
		e.moveOperand(in.X, in.Result, in.Kind, in.Info)
	case lir.OpVolatileMove:
		e.emitVolatileMove(in)
	case lir.OpLea:
		e.emitLea(in)
	case lir.OpMonitorAddress:
		e.emitMonitorAddress(in)
	case lir.OpStackAllocate:
		e.emitStackAllocate(in)

	// arithmetic
	case lir.OpAdd, lir.OpSub, lir.OpMul, lir.OpDiv:
		e.emitArith(in)
	case lir.OpNegate:
		e.emitNegate(in)
	case lir.OpAbs, lir.OpSqrt:
		e.emitIntrinsic(in)
	case lir.OpIdiv, lir.OpIrem, lir.OpLdiv, lir.OpLrem:
		e.emitSignedDivRem(in)
	case lir.OpWdiv, lir.OpWdivi, lir.OpWrem, lir.OpWremi:
		e.emitUnsignedDivRem(in)

	// logic and shifts
	case lir.OpLogicAnd, lir.OpLogicOr, lir.OpLogicXor:
		e.emitLogic(in)
	case lir.OpShl, lir.OpShr, lir.OpUshr:
		e.emitShift(in)

	// compares and conditional data flow
	case lir.OpCmp:
		e.emitCompare(in.X, in.Y)
	case lir.OpCmpl2i, lir.OpCmpfd2i, lir.OpUcmpfd2i:
		e.emitCompare2Int(in)
	case lir.OpCondMove:
		e.emitConditionalMove(in)

	// control flow
	case lir.OpBranch, lir.OpCondFloatBranch:
		e.emitBranch(in)
	case lir.OpTableSwitch:
		e.emitTableSwitch(in)
	case lir.OpReturn:
		e.emitReturn()

	case lir.OpConvert:
		e.emitConvert(in)

	// calls
	case lir.OpDirectCall, lir.OpIndirectCall, lir.OpNativeCall:
		e.emitCall(in)

	// misc
	case lir.OpNullCheck:
		e.emitNullCheck(in)
	case lir.OpCas:
		e.emitCompareAndSwap(in)
	case lir.OpMemBar:
		e.asm.MFence()
	case lir.OpSignificantBit:
		e.emitSignificantBit(in)
	case lir.OpReadPrefetch:
		e.asm.PrefetchT0(e.asMem(in.X))
	case lir.OpBreakpoint:
		e.asm.Int3()
	case lir.OpXir:
		e.emitXir(in)

	default:
		e.fatalf("unhandled opcode %s", in.Code)
	}
}

// ---- operand resolution ----

func (e *Emitter) asRegister(o lir.Operand) lir.Register {
	if !o.IsRegister() {
		e.fatalf("operand %s is not a register", o)
	}
	return o.Register
}

func (e *Emitter) asGPRegister(o lir.Operand) lir.Register {
	r := e.asRegister(o)
	if r.FPU {
		e.fatalf("operand %s is not a general-purpose register", o)
	}
	return r
}

func (e *Emitter) asXMMRegister(o lir.Operand) lir.Register {
	r := e.asRegister(o)
	if !r.FPU {
		e.fatalf("operand %s is not an xmm register", o)
	}
	return r
}

// stackSlotMem resolves a stack operand through the frame map.
func (e *Emitter) stackSlotMem(o lir.Operand) Mem {
	return BaseDisp(RSP, e.frame.SlotOffset(o))
}

// addressMem resolves an address operand.
func (e *Emitter) addressMem(o lir.Operand) Mem {
	if !o.IsAddress() {
		e.fatalf("operand %s is not an address", o)
	}
	return Mem{Base: o.Base, Index: o.Index, Scale: o.Scale, Disp: o.Disp}
}

// asMem resolves either storage class that lives in memory.
func (e *Emitter) asMem(o lir.Operand) Mem {
	switch {
	case o.IsStack():
		return e.stackSlotMem(o)
	case o.IsAddress():
		return e.addressMem(o)
	}
	e.fatalf("operand %s is not in memory", o)
	return Mem{}
}

// is64 maps a kind onto the REX.W requirement.
func (e *Emitter) is64(k lir.Kind) bool {
	return k.Is64()
}
