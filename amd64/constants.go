package amd64

// REX prefix bits.
const (
	rexBase = 0x40
	rexW    = 0x08 // 64-bit operand size
	rexR    = 0x04 // extends ModRM reg
	rexX    = 0x02 // extends SIB index
	rexB    = 0x01 // extends ModRM r/m, SIB base, opcode reg
)

// ModRM modes.
const (
	modIndirect       = 0x00 // [reg], [disp32], [rip+disp32]
	modIndirectDisp8  = 0x01 // [reg+disp8]
	modIndirectDisp32 = 0x02 // [reg+disp32]
	modRegister       = 0x03 // reg
)

// Primary opcodes.
const (
	opAddRMR       = 0x01 // ADD r/m, r
	opAddRRM       = 0x03 // ADD r, r/m
	opOrRMR        = 0x09
	opOrRRM        = 0x0B
	opAndRMR       = 0x21
	opAndRRM       = 0x23
	opSubRMR       = 0x29
	opSubRRM       = 0x2B
	opXorRMR       = 0x31
	opXorRRM       = 0x33
	opCmpRMR       = 0x39
	opCmpRRM       = 0x3B
	opPushR        = 0x50 // + reg
	opPopR         = 0x58 // + reg
	opMovsxd       = 0x63 // MOVSXD r64, r/m32
	opPrefixOpSize = 0x66
	opGroup1Imm32  = 0x81 // group 1 with imm32
	opGroup1Imm8   = 0x83 // group 1 with sign-extended imm8
	opTestRMR      = 0x85
	opMovRM8R8     = 0x88 // MOV r/m8, r8
	opMovRMR       = 0x89 // MOV r/m, r
	opMovRRM       = 0x8B // MOV r, r/m
	opLea          = 0x8D
	opNop          = 0x90
	opCdq          = 0x99 // CDQ / CQO with REX.W
	opMovRImm      = 0xB8 // + reg, imm32/imm64
	opGroup2Imm8   = 0xC1
	opRet          = 0xC3
	opMovRMImm8    = 0xC6 // MOV r/m8, imm8
	opMovRMImm     = 0xC7 // MOV r/m, imm32
	opInt3         = 0xCC
	opGroup2CL     = 0xD3
	opCallRel32    = 0xE8
	opJmpRel32     = 0xE9
	opF2           = 0xF2
	opF3           = 0xF3
	opHlt          = 0xF4
	opLock         = 0xF0
	opGroup3       = 0xF7 // TEST/NOT/NEG/MUL/IMUL/DIV/IDIV
	opGroup5       = 0xFF // INC/DEC/CALL/JMP/PUSH
	opRepMovsb     = 0xA4 // with F3 prefix
	opRepMovsq     = 0xA5 // with F3 + REX.W
)

// Group /digit fields.
const (
	g1Add = 0
	g1Or  = 1
	g1And = 4
	g1Sub = 5
	g1Xor = 6
	g1Cmp = 7

	g2Shl = 4
	g2Shr = 5
	g2Sar = 7

	g3Not  = 2
	g3Neg  = 3
	g3Mul  = 4
	g3IMul = 5
	g3Div  = 6
	g3IDiv = 7

	g5Inc  = 0
	g5Dec  = 1
	g5Call = 2
	g5Jmp  = 4
	g5Push = 6
)

// Two-byte opcodes (0x0F prefix).
const (
	op2Escape    = 0x0F
	op2Nop       = 0x1F // multi-byte NOP
	op2MovzxB    = 0xB6
	op2MovzxW    = 0xB7
	op2MovsxB    = 0xBE
	op2MovsxW    = 0xBF
	op2Bsf       = 0xBC
	op2Bsr       = 0xBD
	op2ImulRRM   = 0xAF
	op2JccBase   = 0x80 // + condition, rel32
	op2SetccBase = 0x90 // + condition, r/m8
	op2CmovBase  = 0x40 // + condition, r, r/m
	op2Cmpxchg   = 0xB1 // CMPXCHG r/m, r
	op2MFence    = 0xAE // /6 with F0 modrm byte... see mfence()
	op2Prefetch  = 0x18 // /0 prefetchnta, /1 t0
)

// SSE opcodes (after mandatory prefix and 0x0F).
const (
	sseMovUpsLoad  = 0x10 // movss/movsd xmm, r/m with F3/F2
	sseMovUpsStore = 0x11
	sseCvtsi2ss    = 0x2A // F3/F2: cvtsi2ss/sd
	sseCvttss2si   = 0x2C // F3/F2: cvttss2si/cvttsd2si
	sseUcomiss     = 0x2E // none/66: ucomiss/ucomisd
	sseSqrt        = 0x51
	sseAndps       = 0x54
	sseXorps       = 0x57
	sseAdd         = 0x58
	sseMul         = 0x59
	sseCvtss2sd    = 0x5A // F3: ss->sd, F2: sd->ss
	sseSub         = 0x5C
	sseDiv         = 0x5E
	sseMovdToXmm   = 0x6E // 66: movd/movq xmm, r/m
	sseMovdFromXmm = 0x7E // 66: movd/movq r/m, xmm
)

// Condition-code encodings appended to 0x0F 0x80/0x90/0x40 bases.
type ccode byte

const (
	ccO  ccode = 0x0
	ccNO ccode = 0x1
	ccB  ccode = 0x2
	ccAE ccode = 0x3
	ccE  ccode = 0x4
	ccNE ccode = 0x5
	ccBE ccode = 0x6
	ccA  ccode = 0x7
	ccS  ccode = 0x8
	ccNS ccode = 0x9
	ccP  ccode = 0xA
	ccNP ccode = 0xB
	ccL  ccode = 0xC
	ccGE ccode = 0xD
	ccLE ccode = 0xE
	ccG  ccode = 0xF
)

// Frame-zap pattern written over fresh frames in assertion builds:
// 0xC1C1C1C1, held as the int32 the store immediates take.
const stackZapPattern = -0x3E3E3E3F

// Placeholder bit pattern emitted for not-yet-relocatable object
// constants; the install-time patch pass overwrites it.
const objectPatchPlaceholder = 0xDEADDEADDEADDEAD
