package lir

// Opcode is the closed set of LIR operations the backend can emit.
// Dispatch over it lives in the backend, grouped by architectural family,
// so the compiler's exhaustiveness checking replaces the virtual-dispatch
// opcode objects of older designs.
type Opcode uint8

const (
	OpNop Opcode = iota

	// moves
	OpMove
	OpVolatileMove
	OpLea
	OpMonitorAddress
	OpStackAllocate

	// two-operand arithmetic (left operand == result, destructive form)
	OpAdd
	OpSub
	OpMul
	OpDiv // float/double only; integer division is the Op3 family below
	OpNegate
	OpAbs
	OpSqrt

	// three-operand division family (fixed-register forms)
	OpIdiv
	OpIrem
	OpLdiv
	OpLrem
	OpWdiv
	OpWdivi
	OpWrem
	OpWremi

	// logic and shifts
	OpLogicAnd
	OpLogicOr
	OpLogicXor
	OpShl
	OpShr  // arithmetic right shift
	OpUshr // logical right shift

	// compares and conditional data flow
	OpCmp // compare, sets flags for a following branch
	OpCmpl2i
	OpCmpfd2i
	OpUcmpfd2i
	OpCondMove

	// control flow
	OpBranch
	OpCondFloatBranch
	OpTableSwitch
	OpReturn

	// conversions
	OpConvert

	// calls
	OpDirectCall
	OpIndirectCall
	OpNativeCall

	// misc
	OpNullCheck
	OpCas
	OpMemBar
	OpSignificantBit
	OpReadPrefetch
	OpBreakpoint
	OpXir
)

var opcodeNames = [...]string{
	OpNop:             "nop",
	OpMove:            "move",
	OpVolatileMove:    "volatile_move",
	OpLea:             "lea",
	OpMonitorAddress:  "monitor_address",
	OpStackAllocate:   "stack_allocate",
	OpAdd:             "add",
	OpSub:             "sub",
	OpMul:             "mul",
	OpDiv:             "div",
	OpNegate:          "neg",
	OpAbs:             "abs",
	OpSqrt:            "sqrt",
	OpIdiv:            "idiv",
	OpIrem:            "irem",
	OpLdiv:            "ldiv",
	OpLrem:            "lrem",
	OpWdiv:            "wdiv",
	OpWdivi:           "wdivi",
	OpWrem:            "wrem",
	OpWremi:           "wremi",
	OpLogicAnd:        "and",
	OpLogicOr:         "or",
	OpLogicXor:        "xor",
	OpShl:             "shl",
	OpShr:             "shr",
	OpUshr:            "ushr",
	OpCmp:             "cmp",
	OpCmpl2i:          "cmpl2i",
	OpCmpfd2i:         "cmpfd2i",
	OpUcmpfd2i:        "ucmpfd2i",
	OpCondMove:        "cmove",
	OpBranch:          "branch",
	OpCondFloatBranch: "fbranch",
	OpTableSwitch:     "tableswitch",
	OpReturn:          "return",
	OpConvert:         "convert",
	OpDirectCall:      "call",
	OpIndirectCall:    "icall",
	OpNativeCall:      "ncall",
	OpNullCheck:       "null_check",
	OpCas:             "cas",
	OpMemBar:          "membar",
	OpSignificantBit:  "sigbit",
	OpReadPrefetch:    "prefetch",
	OpBreakpoint:      "breakpoint",
	OpXir:             "xir",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return "op?"
}

// Conversion selects the numeric conversion performed by OpConvert.
type Conversion uint8

const (
	ConvI2L Conversion = iota
	ConvL2I
	ConvI2B
	ConvI2C
	ConvI2S
	ConvF2D
	ConvD2F
	ConvI2F
	ConvI2D
	ConvL2F
	ConvL2D
	ConvF2I
	ConvD2I
	ConvF2L
	ConvD2L
	ConvMovI2F // raw bit moves between register files
	ConvMovF2I
	ConvMovL2D
	ConvMovD2L
)

var conversionNames = [...]string{
	ConvI2L: "i2l", ConvL2I: "l2i", ConvI2B: "i2b", ConvI2C: "i2c",
	ConvI2S: "i2s", ConvF2D: "f2d", ConvD2F: "d2f", ConvI2F: "i2f",
	ConvI2D: "i2d", ConvL2F: "l2f", ConvL2D: "l2d", ConvF2I: "f2i",
	ConvD2I: "d2i", ConvF2L: "f2l", ConvD2L: "d2l",
	ConvMovI2F: "mov_i2f", ConvMovF2I: "mov_f2i",
	ConvMovL2D: "mov_l2d", ConvMovD2L: "mov_d2l",
}

func (c Conversion) String() string {
	if int(c) < len(conversionNames) {
		return conversionNames[c]
	}
	return "conv?"
}

// RuntimeCall identifies an entry point into the managed runtime reached
// by emitted code.
type RuntimeCall uint8

const (
	RTDeoptimize RuntimeCall = iota
	RTSetDeoptInfo
	RTDebug
	RTUnwindException
	RTArithmeticF2I
	RTArithmeticF2L
	RTArithmeticD2I
	RTArithmeticD2L
	RTMonitorEnter
	RTMonitorExit
	RTNewInstance
)

var runtimeCallNames = [...]string{
	RTDeoptimize:      "Deoptimize",
	RTSetDeoptInfo:    "SetDeoptInfo",
	RTDebug:           "Debug",
	RTUnwindException: "UnwindException",
	RTArithmeticF2I:   "ArithmeticF2I",
	RTArithmeticF2L:   "ArithmeticF2L",
	RTArithmeticD2I:   "ArithmeticD2I",
	RTArithmeticD2L:   "ArithmeticD2L",
	RTMonitorEnter:    "MonitorEnter",
	RTMonitorExit:     "MonitorExit",
	RTNewInstance:     "NewInstance",
}

func (rc RuntimeCall) String() string {
	if int(rc) < len(runtimeCallNames) {
		return runtimeCallNames[rc]
	}
	return "rt?"
}

// DeoptAction tells the runtime what to do with the method after the
// deoptimization transfer completes.
type DeoptAction uint8

const (
	DeoptNone DeoptAction = iota
	DeoptRecompile
	DeoptInvalidateReprofile
	DeoptInvalidateRecompile
	DeoptInvalidateStopCompiling
)

// Code is the small-integer encoding passed to the runtime entry point.
func (a DeoptAction) Code() int {
	return int(a)
}
