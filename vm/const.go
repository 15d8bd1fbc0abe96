package vm

import (
	"github.com/latticelang/lattice/ssa"
	"github.com/latticelang/lattice/types"
)

// exactValue materializes a Constant operand's value (spec §4.2
// "Constant materialization (vm_exact_value)"), dispatching on the
// constant's exact-value kind and its base type after Named-unwrap.
func (m *VirtualMachine) exactValue(op ssa.Value) Value {
	base := types.BaseType(op.Type)
	if base == nil {
		return Value{Kind: KInt64}
	}
	switch base.Kind {
	case types.Bool:
		return BoolValue(op.ConstVal.Scalar.I != 0)
	case types.I8, types.I16, types.I32, types.I64, types.U8, types.U16, types.U32, types.U64:
		return Int64Value(op.ConstVal.Scalar.I)
	case types.F32:
		return F32Value(float32(op.ConstVal.Scalar.F))
	case types.F64:
		return F64Value(op.ConstVal.Scalar.F)
	case types.RawPtr, types.Pointer:
		return PtrValue(op.ConstVal.Scalar.P)
	case types.String:
		return m.materializeString(op)
	case types.Array, types.Struct, types.RawUnion, types.Union:
		return m.materializeCompound(op)
	default:
		return Value{Kind: KInt64}
	}
}

func (m *VirtualMachine) materializeString(op ssa.Value) Value {
	data := []byte(op.ConstVal.Scalar.S)
	ptr := m.Mem.AllocHeap(uint64(len(data)))
	copy(m.Mem.Bytes(ptr, uint64(len(data))), data)
	return Value{Kind: KComposite, Composite: []Value{PtrValue(ptr), Int64Value(int64(len(data)))}}
}

// materializeCompound implements memoized array/struct constant
// materialization (spec §4.2 "memoized in const_compound_lits keyed by
// ssaValue identity so equal constant literals share representation",
// and spec §8 invariant 10).
func (m *VirtualMachine) materializeCompound(op ssa.Value) Value {
	if v, ok := m.ConstCompoundLits[op.ID]; ok {
		return v
	}
	base := types.BaseType(op.Type)
	var comp []Value
	switch base.Kind {
	case types.Array:
		comp = make([]Value, base.Len)
		for i := range comp {
			if i < len(op.ConstVal.Elems) {
				comp[i] = m.exactValue(op.ConstVal.Elems[i])
			} else {
				comp[i] = ZeroValue(base.Elem)
			}
		}
	case types.Struct, types.RawUnion:
		// Zero-init walks fields in source order (spec §2 "field lookup by
		// ... source order"), not just struct-literal order, since a named
		// field override below is then applied by that same source index.
		fields := types.FieldsInSourceOrder(op.Type)
		comp = make([]Value, len(fields))
		for i, fld := range fields {
			comp[i] = ZeroValue(fld.Type)
		}
		for i, el := range op.ConstVal.Elems {
			idx := i
			if i < len(op.ConstVal.FieldNames) && op.ConstVal.FieldNames[i] != "" {
				if f, ok := types.FieldByName(base, op.ConstVal.FieldNames[i]); ok {
					idx = f.Index
				}
			}
			if idx >= 0 && idx < len(comp) {
				comp[idx] = m.exactValue(el)
			}
		}
	default:
		comp = nil
	}
	v := Value{Kind: KComposite, Composite: comp}
	if m.ConstCompoundLits == nil {
		m.ConstCompoundLits = make(map[int]Value)
	}
	m.ConstCompoundLits[op.ID] = v
	return v
}

// operandValue resolves an SSA operand to a runtime Value within frame f
// (spec §4.2 "Operand resolution (vm_operand_value)").
func (m *VirtualMachine) operandValue(f *Frame, op ssa.Value) Value {
	switch op.Kind {
	case ssa.VConstant:
		return m.exactValue(op)
	case ssa.VConstantSlice:
		backing := m.operandValue(f, *op.Backing)
		size := types.SizeOf(m.Layout, op.Backing.Type)
		ptr := m.Mem.AllocHeap(size)
		m.store(f, ptr, backing, op.Backing.Type)
		return Value{Kind: KComposite, Composite: []Value{PtrValue(ptr), Int64Value(op.Count), Int64Value(op.Count)}}
	case ssa.VGlobal:
		v, ok := m.Globals[op.Name]
		if !ok {
			faultf(f.procName(), "undefined global %q", op.Name)
		}
		return v
	case ssa.VParam:
		v, ok := f.Values[op.ID]
		if !ok {
			faultf(f.procName(), "missing parameter value id=%d", op.ID)
		}
		return v
	case ssa.VProc:
		return ProcValue(op.Name)
	case ssa.VInstr:
		if v, ok := f.Values[op.ID]; ok {
			return v
		}
		return ZeroValue(op.Type) // unreached phi, spec §4.2
	default:
		faultf(f.procName(), "unreachable operand kind %v", op.Kind)
		return Value{}
	}
}

