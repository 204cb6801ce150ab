package xir

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Tree renders the template for inspection tooling.
func (t *Template) Tree() treeprint.Tree {
	root := treeprint.NewWithRoot(t.Name)

	slots := root.AddBranch("slots")
	for i, s := range t.Slots {
		switch s.Class {
		case SlotParam:
			slots.AddNode(fmt.Sprintf("%d: param %s %s", i, s.Name, s.Kind))
		case SlotTemp:
			slots.AddNode(fmt.Sprintf("%d: temp %s %s", i, s.Name, s.Kind))
		case SlotConst:
			slots.AddNode(fmt.Sprintf("%d: const %s = %s", i, s.Name, s.Const))
		}
	}

	if len(t.Labels) > 0 {
		labels := root.AddBranch("labels")
		for i, l := range t.Labels {
			labels.AddNode(fmt.Sprintf("%d: %s", i, l.Name))
		}
	}

	fast := root.AddBranch("fast path")
	for _, in := range t.FastPath {
		fast.AddNode(describe(in))
	}
	if t.HasSlowPath() {
		slow := root.AddBranch("slow path")
		for _, in := range t.SlowPath {
			slow.AddNode(describe(in))
		}
	}
	return root
}

func describe(in Instr) string {
	switch v := in.(type) {
	case Arith:
		return fmt.Sprintf("%s s%d, s%d -> s%d", v.Op, v.X, v.Y, v.Result)
	case Mov:
		return fmt.Sprintf("mov s%d -> s%d", v.X, v.Result)
	case PointerLoad:
		return fmt.Sprintf("pload [s%d] -> s%d trap=%v", v.Pointer, v.Result, v.CanTrap)
	case PointerStore:
		return fmt.Sprintf("pstore s%d -> [s%d] trap=%v", v.Value, v.Pointer, v.CanTrap)
	case PointerLoadDisp:
		return fmt.Sprintf("pload [s%d+s%d*%d%+d] -> s%d trap=%v", v.Pointer, v.Index, v.Scale, v.Disp, v.Result, v.CanTrap)
	case PointerStoreDisp:
		return fmt.Sprintf("pstore s%d -> [s%d+s%d*%d%+d] trap=%v", v.Value, v.Pointer, v.Index, v.Scale, v.Disp, v.CanTrap)
	case Jcc:
		return fmt.Sprintf("j%s s%d, s%d -> L%d", v.Cond, v.X, v.Y, v.Label)
	case Jmp:
		return fmt.Sprintf("jmp L%d", v.Label)
	case Bind:
		return fmt.Sprintf("bind L%d", v.Label)
	case CallRuntime:
		return fmt.Sprintf("call %s", v.Target)
	case CallStub:
		return fmt.Sprintf("callstub %s", v.Stub)
	case PointerCAS:
		return fmt.Sprintf("cas [s%d] s%d/s%d -> s%d", v.Pointer, v.Expected, v.NewValue, v.Result)
	case Mark:
		return "mark " + v.Name
	case ShouldNotReachHere:
		return "unreachable " + v.Message
	default:
		return OpName(in)
	}
}
