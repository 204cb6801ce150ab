// Package lir defines the register-allocated low-level IR consumed by the
// machine-code backend: value kinds, operands, condition codes, opcodes,
// instructions, the frame map and debug info.
package lir

// Kind is the value kind carried by registers, stack slots, constants and
// addresses. It determines instruction width and whether the floating
// point unit is involved.
type Kind uint8

const (
	Illegal Kind = iota
	Boolean
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
	Object
	Word // machine word, always 64-bit here
	Jsr
	Void
)

var kindNames = [...]string{
	Illegal: "illegal",
	Boolean: "boolean",
	Byte:    "byte",
	Char:    "char",
	Short:   "short",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
	Object:  "object",
	Word:    "word",
	Jsr:     "jsr",
	Void:    "void",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind?"
}

func (k Kind) IsFloat() bool  { return k == Float }
func (k Kind) IsDouble() bool { return k == Double }

// IsFPU reports whether values of this kind live in XMM registers.
func (k Kind) IsFPU() bool { return k == Float || k == Double }

// IsInt reports whether the kind belongs to the 32-bit integer family
// (sub-word kinds are widened to 32 bits in registers).
func (k Kind) IsInt() bool {
	switch k {
	case Boolean, Byte, Char, Short, Int, Jsr:
		return true
	}
	return false
}

// Is64 reports whether the kind occupies a full 64-bit register.
func (k Kind) Is64() bool {
	switch k {
	case Long, Object, Word:
		return true
	}
	return false
}

// SizeInBytes is the memory footprint of the kind.
func (k Kind) SizeInBytes() int {
	switch k {
	case Boolean, Byte:
		return 1
	case Char, Short:
		return 2
	case Int, Float, Jsr:
		return 4
	case Long, Double, Object, Word:
		return 8
	}
	return 0
}

// StackKind widens sub-word kinds to Int, the representation they take in
// registers and on the expression stack.
func (k Kind) StackKind() Kind {
	if k.IsInt() {
		return Int
	}
	return k
}
