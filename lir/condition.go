package lir

// Condition is the logical comparison condition attached to branches,
// conditional moves and boolean materialization. Signed orderings use
// LT/LE/GE/GT; unsigned orderings use BT/BE/AE/AT (below/above).
type Condition uint8

const (
	CondTrue Condition = iota // unconditional
	CondEQ
	CondNE
	CondLT
	CondLE
	CondGE
	CondGT
	CondBT // below (unsigned <)
	CondBE
	CondAE
	CondAT
	CondOF  // overflow
	CondNOF // no overflow
)

var condNames = [...]string{
	CondTrue: "true",
	CondEQ:   "==",
	CondNE:   "!=",
	CondLT:   "<",
	CondLE:   "<=",
	CondGE:   ">=",
	CondGT:   ">",
	CondBT:   "|<|",
	CondBE:   "|<=|",
	CondAE:   "|>=|",
	CondAT:   "|>|",
	CondOF:   "overflow",
	CondNOF:  "noOverflow",
}

func (c Condition) String() string {
	if int(c) < len(condNames) {
		return condNames[c]
	}
	return "cond?"
}

// Negate returns the logically opposite condition.
func (c Condition) Negate() Condition {
	switch c {
	case CondEQ:
		return CondNE
	case CondNE:
		return CondEQ
	case CondLT:
		return CondGE
	case CondLE:
		return CondGT
	case CondGE:
		return CondLT
	case CondGT:
		return CondLE
	case CondBT:
		return CondAE
	case CondBE:
		return CondAT
	case CondAE:
		return CondBT
	case CondAT:
		return CondBE
	case CondOF:
		return CondNOF
	case CondNOF:
		return CondOF
	}
	panic("lir: condition has no negation: " + c.String())
}
