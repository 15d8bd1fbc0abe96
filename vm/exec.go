package vm

import (
	"github.com/latticelang/lattice/ssa"
	"github.com/latticelang/lattice/types"
)

// exec dispatches one instruction within frame f (spec §4.2 "Instruction
// loop"). Branching instructions (Jump, If) set f.Block/f.Index and
// f.PrevBlock for the benefit of a Phi at the head of the target block;
// Return sets f.Block = nil so runFrame's loop exits.
func (m *VirtualMachine) exec(f *Frame, instr *ssa.Instr) {
	switch instr.Op {
	case ssa.OpStartupRuntime:
		m.execStartupRuntime(f)
	case ssa.OpComment:
		// no runtime effect

	case ssa.OpLocal:
		size := types.SizeOf(m.Layout, instr.Type)
		ptr := m.Mem.AllocArena(size)
		f.Values[instr.ID] = PtrValue(ptr)

	case ssa.OpZeroInit:
		dst := m.operandValue(f, instr.Args[0])
		size := types.SizeOf(m.Layout, instr.Type)
		m.Mem.Zero(dst.Ptr, size)

	case ssa.OpStore:
		dst := m.operandValue(f, instr.Args[0])
		val := m.operandValue(f, instr.Args[1])
		m.store(f, dst.Ptr, val, instr.Type)

	case ssa.OpLoad:
		src := m.operandValue(f, instr.Args[0])
		f.Values[instr.ID] = m.load(f, src.Ptr, instr.Type)

	case ssa.OpArrayElementPtr:
		base := m.operandValue(f, instr.Args[0])
		idx := m.operandValue(f, instr.Args[1])
		elemSize := types.SizeOf(m.Layout, instr.Type)
		f.Values[instr.ID] = PtrValue(base.Ptr + uint64(idx.Int64)*elemSize)

	case ssa.OpStructElementPtr:
		base := m.operandValue(f, instr.Args[0])
		structType := types.Deref(instr.Args[0].Type)
		off := types.OffsetOf(m.Layout, structType, instr.FieldIndex)
		f.Values[instr.ID] = PtrValue(base.Ptr + off)

	case ssa.OpPtrOffset:
		base := m.operandValue(f, instr.Args[0])
		off := m.operandValue(f, instr.Args[1])
		f.Values[instr.ID] = PtrValue(base.Ptr + uint64(off.Int64))

	case ssa.OpPhi:
		f.Values[instr.ID] = m.evalPhi(f, instr)

	case ssa.OpArrayExtractValue, ssa.OpStructExtractValue:
		base := m.operandValue(f, instr.Args[0])
		if instr.FieldIndex < 0 || instr.FieldIndex >= len(base.Composite) {
			faultf(f.procName(), "extract_value: index %d out of range (len %d)", instr.FieldIndex, len(base.Composite))
		}
		f.Values[instr.ID] = base.Composite[instr.FieldIndex]

	case ssa.OpJump:
		f.PrevBlock = f.Block
		f.Block = instr.Target
		f.Index = 0

	case ssa.OpIf:
		cond := m.operandValue(f, instr.Args[0])
		f.PrevBlock = f.Block
		if cond.IsTruthy() {
			f.Block = instr.Then
		} else {
			f.Block = instr.Else
		}
		f.Index = 0

	case ssa.OpReturn:
		if len(instr.Args) > 0 {
			f.Result = m.operandValue(f, instr.Args[0])
		}
		f.Block = nil

	case ssa.OpConv:
		v := m.operandValue(f, instr.Args[0])
		f.Values[instr.ID] = m.convert(f, instr.Conv, v, instr.Args[0].Type, instr.Type)

	case ssa.OpUnreachable:
		faultf(f.procName(), "reached an unreachable instruction")

	case ssa.OpBinaryOp:
		x := m.operandValue(f, instr.Args[0])
		y := m.operandValue(f, instr.Args[1])
		f.Values[instr.ID] = m.binaryOp(f, instr.BinOp, x, y, instr.Type)

	case ssa.OpCall:
		f.Values[instr.ID] = m.execCall(f, instr)

	case ssa.OpSelect:
		cond := m.operandValue(f, instr.Args[0])
		if cond.IsTruthy() {
			f.Values[instr.ID] = m.operandValue(f, instr.Args[1])
		} else {
			f.Values[instr.ID] = m.operandValue(f, instr.Args[2])
		}

	case ssa.OpVectorExtractElement:
		vec := m.operandValue(f, instr.Args[0])
		idx := m.operandValue(f, instr.Args[1])
		if idx.Int64 < 0 || int(idx.Int64) >= len(vec.Composite) {
			faultf(f.procName(), "vector_extract_element: index %d out of range", idx.Int64)
		}
		f.Values[instr.ID] = vec.Composite[idx.Int64]

	case ssa.OpVectorInsertElement:
		vec := m.operandValue(f, instr.Args[0])
		idx := m.operandValue(f, instr.Args[1])
		elt := m.operandValue(f, instr.Args[2])
		out := append([]Value(nil), vec.Composite...)
		if idx.Int64 < 0 || int(idx.Int64) >= len(out) {
			faultf(f.procName(), "vector_insert_element: index %d out of range", idx.Int64)
		}
		out[idx.Int64] = elt
		f.Values[instr.ID] = Value{Kind: KComposite, Composite: out}

	case ssa.OpVectorShuffle:
		a := m.operandValue(f, instr.Args[0])
		b := m.operandValue(f, instr.Args[1])
		out := make([]Value, 0, len(instr.Args)-2)
		for _, maskOp := range instr.Args[2:] {
			mask := m.operandValue(f, maskOp)
			n := len(a.Composite)
			if int(mask.Int64) < n {
				out = append(out, a.Composite[mask.Int64])
			} else {
				out = append(out, b.Composite[int(mask.Int64)-n])
			}
		}
		f.Values[instr.ID] = Value{Kind: KComposite, Composite: out}

	case ssa.OpBoundsCheck, ssa.OpSliceBoundsCheck:
		m.execBoundsCheck(f, instr)

	default:
		faultf(f.procName(), "unhandled ssa op %v", instr.Op)
	}
}

// execStartupRuntime dispatches the `__startup_runtime` call the
// codegen emits as the first instruction of the entry block (spec §3
// "StartupRuntime"). A module or host that registers no such procedure
// runs it as a true no-op, matching the teacher interpreter's behavior
// when no runtime hook is linked in.
func (m *VirtualMachine) execStartupRuntime(f *Frame) {
	if fn, ok := m.Externals["__startup_runtime"]; ok {
		fn(m, nil)
		return
	}
	if proc := m.Module.ProcByName("__startup_runtime"); proc != nil {
		m.callProcedure(f, proc, nil)
	}
}

// evalPhi selects the incoming value matching f.PrevBlock, the block
// control flow just arrived from (spec §4.2 "Phi").
func (m *VirtualMachine) evalPhi(f *Frame, instr *ssa.Instr) Value {
	for i, pred := range instr.Preds {
		if pred == f.PrevBlock {
			return m.operandValue(f, instr.Incoming[i])
		}
	}
	faultf(f.procName(), "phi: no incoming value for predecessor %q", blockName(f.PrevBlock))
	return Value{}
}

func blockName(b *ssa.Block) string {
	if b == nil {
		return "<entry>"
	}
	return b.Name
}

// execCall implements spec §4.2 "Call": resolve callee and arguments,
// push a new frame (or dispatch to a host callback for an external
// procedure), run it, and return its result.
func (m *VirtualMachine) execCall(f *Frame, instr *ssa.Instr) Value {
	name := instr.Callee.Name
	proc := m.Module.ProcByName(name)
	if proc == nil {
		faultf(f.procName(), "call to undefined procedure %q", name)
	}
	args := make([]Value, len(instr.CallArgs))
	for i, a := range instr.CallArgs {
		args[i] = m.operandValue(f, a)
	}
	return m.callProcedure(f, proc, args)
}

// execBoundsCheck implements spec §4.2 "BoundsCheck / SliceBoundsCheck":
// on violation, invoke the host callback registered under the named
// runtime procedure (__bounds_check_error, __slice_expr_error,
// __substring_expr_error) with the index and the limit; the source
// position is not passed to it. With no callback registered under that
// name, the violation faults, citing the source position.
func (m *VirtualMachine) execBoundsCheck(f *Frame, instr *ssa.Instr) {
	idx := m.operandValue(f, instr.Args[0])
	limit := m.operandValue(f, instr.Args[1])
	inBounds := idx.Int64 >= 0 && idx.Int64 < limit.Int64
	if instr.Op == ssa.OpSliceBoundsCheck {
		inBounds = idx.Int64 >= 0 && idx.Int64 <= limit.Int64
	}
	if inBounds {
		return
	}
	if fn, ok := m.Externals[instr.RuntimeProc]; ok {
		fn(m, []Value{idx, limit})
		return
	}
	faultf(f.procName(), "%s: index %d out of range [0:%d] at %s:%d:%d",
		instr.RuntimeProc, idx.Int64, limit.Int64, instr.Pos.File, instr.Pos.Line, instr.Pos.Column)
}
