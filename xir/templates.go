package xir

import "github.com/embervm/ember/lir"

// Builtin template library. These are the snippets the runtime hands the
// compiler for safepoints, barriers and type tests; kept small here but
// exercising every structural feature: marks, constants, slow paths and
// the reserved successor labels.

const (
	cardShift = 9
	hubOffset = 8
)

// SafepointTemplate polls the thread-local safepoint latch: a readable
// load through the latch pointer that the runtime arms by protecting the
// page. The mark correlates the poll with its metadata record.
func SafepointTemplate() *Template {
	b := NewBuilder("safepoint")
	latch := b.Param("latch", lir.Word)
	scratch := b.Temp("scratch", lir.Word)
	b.Append(
		Mark{Name: "safepoint"},
		Safepoint{},
		PointerLoad{Result: scratch, Pointer: latch},
	)
	return b.Finish()
}

// WriteBarrierTemplate dirties the card covering a stored-into object:
// card index is the object address shifted by the card granularity, the
// byte at cardTable[index] is zeroed.
func WriteBarrierTemplate() *Template {
	b := NewBuilder("write-barrier")
	object := b.Param("object", lir.Object)
	table := b.Param("cardTable", lir.Word)
	card := b.Temp("card", lir.Word)
	shift := b.Const("cardShift", lir.ConstInt(cardShift))
	dirty := b.Const("dirty", lir.ConstInt(0))
	b.Append(
		Mov{Result: card, X: object},
		Arith{Op: OpShr, Result: card, X: card, Y: shift},
		PointerStoreDisp{Pointer: table, Index: card, Scale: lir.Times1, Value: dirty},
	)
	return b.Finish()
}

// MonitorEnterTemplate is the lock fast path: an unlocked lock word is
// claimed inline, anything else defers to the runtime on the slow path.
func MonitorEnterTemplate() *Template {
	b := NewBuilder("monitor-enter")
	object := b.Param("object", lir.Object)
	lock := b.Temp("lock", lir.Word)
	unlocked := b.Const("unlocked", lir.ConstLong(0))
	slow := b.CreateLabel("slow")
	done := b.CreateLabel("done")
	b.Append(
		PointerLoad{Result: lock, Pointer: object, CanTrap: true},
		Jcc{Cond: lir.CondNE, Label: slow, X: lock, Y: unlocked},
		PointerCAS{Result: lock, Pointer: object, NewValue: object, Expected: lock},
		Bind{Label: done},
	)
	b.BeginSlowPath().Append(
		Bind{Label: slow},
		CallRuntime{Target: lir.RTMonitorEnter, Result: NoRef, Args: []Ref{object}},
		Jmp{Label: done},
	)
	return b.Finish()
}

// InstanceOfTemplate compares the object's hub against the expected hub
// and transfers to the surrounding instruction's successor blocks.
func InstanceOfTemplate() *Template {
	b := NewBuilder("instanceof")
	object := b.Param("object", lir.Object)
	hub := b.Param("hub", lir.Word)
	actual := b.Temp("actualHub", lir.Word)
	trueSucc := b.TrueSuccessor()
	falseSucc := b.FalseSuccessor()
	b.Append(
		PointerLoadDisp{Result: actual, Pointer: object, Index: NoRef, Scale: lir.Times1, Disp: hubOffset, CanTrap: true},
		Jcc{Cond: lir.CondEQ, Label: trueSucc, X: actual, Y: hub},
		Jmp{Label: falseSucc},
	)
	return b.Finish()
}

// Builtins returns the template library in a stable order.
func Builtins() []*Template {
	return []*Template{
		SafepointTemplate(),
		WriteBarrierTemplate(),
		MonitorEnterTemplate(),
		InstanceOfTemplate(),
	}
}
