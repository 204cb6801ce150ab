package xir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/embervm/ember/lir"
)

var (
	regRAX = lir.Register{Num: 0, Name: "rax"}
	regRDI = lir.Register{Num: 7, Name: "rdi"}
	regR10 = lir.Register{Num: 10, Name: "r10"}
)

func TestBuilderSlotAndLabelRefs(t *testing.T) {
	b := NewBuilder("t")
	p := b.Param("p", lir.Word)
	tmp := b.Temp("t", lir.Word)
	done := b.CreateLabel("done")
	b.Append(
		PointerLoad{Result: tmp, Pointer: p},
		Jcc{Cond: lir.CondEQ, Label: done, X: tmp, Y: p},
		Bind{Label: done},
	)
	tpl := b.Finish()

	require.Equal(t, 1, tpl.ParamCount())
	require.Equal(t, 1, tpl.TempCount())
	require.Len(t, tpl.Labels, 1)
	require.False(t, tpl.HasSlowPath())
	require.Panics(t, func() { b.Finish() })
}

func TestBuilderRejectsDanglingRefs(t *testing.T) {
	b := NewBuilder("bad")
	p := b.Param("p", lir.Word)
	b.Append(Jmp{Label: 3})
	require.Panics(t, func() { b.Finish() })

	b2 := NewBuilder("bad2")
	b2.Append(Mov{Result: Ref(5), X: p})
	require.Panics(t, func() { b2.Finish() })
}

func TestConstSlotRequiresConstant(t *testing.T) {
	b := NewBuilder("c")
	require.Panics(t, func() {
		b.Const("x", lir.Reg(lir.Word, regRAX))
	})
	b.Const("ok", lir.ConstInt(9))
}

func TestBindValidatesOperands(t *testing.T) {
	tpl := SafepointTemplate()

	latch := lir.Reg(lir.Word, regRDI)
	scratch := lir.Reg(lir.Word, regR10)

	s, err := tpl.Bind([]lir.Operand{latch}, []lir.Operand{scratch})
	require.NoError(t, err)
	require.Equal(t, "safepoint", s.XirName())
	require.Equal(t, latch, s.Operands[0])
	require.Equal(t, scratch, s.Operands[1])

	_, err = tpl.Bind(nil, []lir.Operand{scratch})
	require.Error(t, err)

	_, err = tpl.Bind([]lir.Operand{latch, latch}, []lir.Operand{scratch})
	require.Error(t, err)

	// kind mismatch: the latch slot is a machine word, not a float
	_, err = tpl.Bind([]lir.Operand{lir.Reg(lir.Float, regRDI)}, []lir.Operand{scratch})
	require.Error(t, err)
}

func TestBindFillsConstSlots(t *testing.T) {
	tpl := WriteBarrierTemplate()
	obj := lir.Reg(lir.Object, regRDI)
	table := lir.Reg(lir.Word, regRAX)
	card := lir.Reg(lir.Word, regR10)

	s := tpl.MustBind([]lir.Operand{obj, table}, []lir.Operand{card})
	var consts []lir.Operand
	for i, slot := range tpl.Slots {
		if slot.Class == SlotConst {
			consts = append(consts, s.Operands[i])
		}
	}
	require.Len(t, consts, 2)
	for _, c := range consts {
		require.True(t, c.IsConstant())
	}
}

func TestBuiltins(t *testing.T) {
	all := Builtins()
	require.Len(t, all, 4)

	byName := map[string]*Template{}
	for _, tpl := range all {
		byName[tpl.Name] = tpl
	}

	require.True(t, byName["monitor-enter"].HasSlowPath())
	require.False(t, byName["safepoint"].HasSlowPath())

	// instanceof transfers control through the reserved successor labels
	iof := byName["instanceof"]
	var hasTrue, hasFalse bool
	for _, l := range iof.Labels {
		hasTrue = hasTrue || l.TrueSuccessor
		hasFalse = hasFalse || l.FalseSuccessor
	}
	require.True(t, hasTrue)
	require.True(t, hasFalse)

	// every builtin renders without panicking
	for _, tpl := range all {
		require.NotEmpty(t, tpl.Tree().String())
	}
}
