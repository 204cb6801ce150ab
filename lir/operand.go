package lir

import (
	"fmt"
	"math"
)

// Register is an architecture register descriptor. Num is the hardware
// encoding number (0..15 general purpose, 16..31 XMM on amd64).
type Register struct {
	Num  int
	Name string
	FPU  bool
}

// NoRegister marks an absent base/index register in an Address.
var NoRegister = Register{Num: -1, Name: "none"}

func (r Register) IsValid() bool         { return r.Num >= 0 }
func (r Register) Equal(o Register) bool { return r.Num == o.Num }
func (r Register) String() string        { return r.Name }

// Scale is an address index multiplier. Only 1, 2, 4 and 8 are encodable.
type Scale uint8

const (
	Times1 Scale = 1
	Times2 Scale = 2
	Times4 Scale = 4
	Times8 Scale = 8
)

// ScaleFor returns the scale for a kind's size.
func ScaleFor(k Kind) Scale {
	switch k.SizeInBytes() {
	case 1:
		return Times1
	case 2:
		return Times2
	case 4:
		return Times4
	case 8:
		return Times8
	}
	panic(fmt.Sprintf("lir: no scale for kind %s", k))
}

// Tag discriminates the operand storage classes.
type Tag uint8

const (
	TagIllegal Tag = iota
	TagRegister
	TagStack
	TagConstant
	TagAddress
)

// Operand is the closed sum of operand storage classes. The Tag selects
// which of the class-specific fields are meaningful; constructors below
// are the only intended way to build one.
type Operand struct {
	Tag  Tag
	Kind Kind

	// TagRegister
	Register Register

	// TagStack
	SlotIndex     int
	InCallerFrame bool

	// TagConstant: raw bit pattern; for Object constants ObjectRef holds
	// the referenced object (nil means the null constant).
	Bits      uint64
	ObjectRef any

	// TagAddress
	Base  Register
	Index Register
	Scale Scale
	Disp  int32
}

// IllegalOperand is the absent operand.
var IllegalOperand = Operand{Tag: TagIllegal, Kind: Illegal}

func Reg(kind Kind, r Register) Operand {
	return Operand{Tag: TagRegister, Kind: kind, Register: r}
}

func Stack(kind Kind, slotIndex int) Operand {
	return Operand{Tag: TagStack, Kind: kind, SlotIndex: slotIndex}
}

// CallerStack addresses a slot in the caller's frame (incoming argument
// area, or a compiler stub's argument slots seen from inside the stub).
func CallerStack(kind Kind, slotIndex int) Operand {
	return Operand{Tag: TagStack, Kind: kind, SlotIndex: slotIndex, InCallerFrame: true}
}

func ConstInt(v int32) Operand {
	return Operand{Tag: TagConstant, Kind: Int, Bits: uint64(uint32(v))}
}

func ConstLong(v int64) Operand {
	return Operand{Tag: TagConstant, Kind: Long, Bits: uint64(v)}
}

func ConstFloat(v float32) Operand {
	return Operand{Tag: TagConstant, Kind: Float, Bits: uint64(math.Float32bits(v))}
}

func ConstDouble(v float64) Operand {
	return Operand{Tag: TagConstant, Kind: Double, Bits: math.Float64bits(v)}
}

// ConstObject wraps an object reference; ref == nil yields the null
// constant.
func ConstObject(ref any) Operand {
	return Operand{Tag: TagConstant, Kind: Object, ObjectRef: ref}
}

func ConstBool(v bool) Operand {
	o := Operand{Tag: TagConstant, Kind: Boolean}
	if v {
		o.Bits = 1
	}
	return o
}

// Addr builds a memory operand. kind governs access width; base may be
// NoRegister only for absolute addressing, index may be NoRegister.
func Addr(kind Kind, base, index Register, scale Scale, disp int32) Operand {
	switch scale {
	case Times1, Times2, Times4, Times8:
	default:
		panic(fmt.Sprintf("lir: unsupported address scale %d", scale))
	}
	return Operand{Tag: TagAddress, Kind: kind, Base: base, Index: index, Scale: scale, Disp: disp}
}

// BaseAddr builds a [base+disp] operand.
func BaseAddr(kind Kind, base Register, disp int32) Operand {
	return Addr(kind, base, NoRegister, Times1, disp)
}

func (o Operand) IsIllegal() bool  { return o.Tag == TagIllegal }
func (o Operand) IsRegister() bool { return o.Tag == TagRegister }
func (o Operand) IsStack() bool    { return o.Tag == TagStack }
func (o Operand) IsConstant() bool { return o.Tag == TagConstant }
func (o Operand) IsAddress() bool  { return o.Tag == TagAddress }

// IsNullConstant reports an object constant referring to nothing.
func (o Operand) IsNullConstant() bool {
	return o.Tag == TagConstant && o.Kind == Object && o.ObjectRef == nil
}

func (o Operand) AsInt() int32      { return int32(uint32(o.Bits)) }
func (o Operand) AsLong() int64     { return int64(o.Bits) }
func (o Operand) AsFloat() float32  { return math.Float32frombits(uint32(o.Bits)) }
func (o Operand) AsDouble() float64 { return math.Float64frombits(o.Bits) }

// FloatBits and DoubleBits expose the raw constant pattern; distinct from
// value comparison so that -0.0 keeps its sign bit.
func (o Operand) FloatBits() uint32  { return uint32(o.Bits) }
func (o Operand) DoubleBits() uint64 { return o.Bits }

func (o Operand) Equal(other Operand) bool {
	if o.Tag != other.Tag {
		return false
	}
	switch o.Tag {
	case TagIllegal:
		return true
	case TagRegister:
		return o.Register.Equal(other.Register)
	case TagStack:
		return o.SlotIndex == other.SlotIndex && o.InCallerFrame == other.InCallerFrame
	case TagConstant:
		return o.Kind == other.Kind && o.Bits == other.Bits && o.ObjectRef == other.ObjectRef
	case TagAddress:
		return o.Base.Equal(other.Base) && o.Index.Equal(other.Index) &&
			o.Scale == other.Scale && o.Disp == other.Disp
	}
	return false
}

func (o Operand) String() string {
	switch o.Tag {
	case TagIllegal:
		return "-"
	case TagRegister:
		return fmt.Sprintf("%s:%s", o.Register.Name, o.Kind)
	case TagStack:
		if o.InCallerFrame {
			return fmt.Sprintf("caller-slot[%d]:%s", o.SlotIndex, o.Kind)
		}
		return fmt.Sprintf("slot[%d]:%s", o.SlotIndex, o.Kind)
	case TagConstant:
		switch o.Kind {
		case Float:
			return fmt.Sprintf("%vf", o.AsFloat())
		case Double:
			return fmt.Sprintf("%vd", o.AsDouble())
		case Object:
			if o.ObjectRef == nil {
				return "null"
			}
			return fmt.Sprintf("obj(%v)", o.ObjectRef)
		case Long:
			return fmt.Sprintf("%dL", o.AsLong())
		}
		return fmt.Sprintf("%d", o.AsInt())
	case TagAddress:
		if o.Index.IsValid() {
			return fmt.Sprintf("[%s+%s*%d%+d]:%s", o.Base, o.Index, o.Scale, o.Disp, o.Kind)
		}
		return fmt.Sprintf("[%s%+d]:%s", o.Base, o.Disp, o.Kind)
	}
	return "operand?"
}
