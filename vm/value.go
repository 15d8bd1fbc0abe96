// Package vm implements the tree-walking SSA interpreter spec.md §4.2
// describes: a frame-local arena, boxed composite values, raw-memory
// store/load against a target.Profile layout, and a host-callback table
// for external procedure calls. Grounded on the teacher's vm package
// (frame/arena discipline, log.go tracing idiom) generalized from a
// straight-line bytecode interpreter to the spec's explicit block-
// structured control flow; see DESIGN.md for the full per-file ledger.
package vm

import "github.com/latticelang/lattice/types"

// Kind tags the dynamic shape of a Value (spec §3 "vmValue").
type Kind int

const (
	KInvalid Kind = iota
	KF32
	KF64
	KPtr
	KInt64
	KProc
	KComposite
)

// Value is the VM's tagged union of runtime representations. Composite
// values stand for structs, arrays, strings (data, length), slices
// (data, length, capacity), and any (type_info, data) -- always as a
// slice of component Values, never flattened, so store/load can recurse
// field-by-field (spec §4.2 "Store"/"Load").
type Value struct {
	Kind      Kind
	F32       float32
	F64       float64
	Ptr       uint64 // raw address into the VM's address space (arena or heap)
	Int64     int64
	Proc      *ProcRef
	Composite []Value
}

// ProcRef is a proc-valued handle (spec §3 "vmValue ... proc(ptr|proc_ref)").
type ProcRef struct {
	Name string
}

func Int64Value(i int64) Value   { return Value{Kind: KInt64, Int64: i} }
func BoolValue(b bool) Value {
	if b {
		return Value{Kind: KInt64, Int64: 1}
	}
	return Value{Kind: KInt64, Int64: 0}
}
func F32Value(f float32) Value   { return Value{Kind: KF32, F32: f} }
func F64Value(f float64) Value   { return Value{Kind: KF64, F64: f} }
func PtrValue(p uint64) Value    { return Value{Kind: KPtr, Ptr: p} }
func ProcValue(name string) Value { return Value{Kind: KProc, Proc: &ProcRef{Name: name}} }

// IsTruthy interprets a bool-typed Value's Int64 field (0/1 encoding,
// spec §4.2 "bool/integer -> int64 field (bool = 0/1)").
func (v Value) IsTruthy() bool { return v.Int64 != 0 }

// ZeroValue returns the zero representation for t -- the value an
// uninitialized store location holds before any write, and what
// vm_operand_value falls back to for an unreached phi (spec §4.2).
func ZeroValue(t *types.Type) Value {
	b := types.BaseType(t)
	if b == nil {
		return Value{Kind: KInt64}
	}
	switch {
	case b.Kind == types.F32:
		return Value{Kind: KF32}
	case b.Kind == types.F64:
		return Value{Kind: KF64}
	case b.Kind == types.RawPtr, b.Kind == types.Pointer:
		return Value{Kind: KPtr}
	case b.Kind == types.Proc:
		return Value{Kind: KProc}
	case b.Kind == types.String:
		return Value{Kind: KComposite, Composite: []Value{{Kind: KPtr}, {Kind: KInt64}}}
	case b.Kind == types.Slice:
		return Value{Kind: KComposite, Composite: []Value{{Kind: KPtr}, {Kind: KInt64}, {Kind: KInt64}}}
	case b.Kind == types.Any:
		return Value{Kind: KComposite, Composite: []Value{{Kind: KPtr}, {Kind: KPtr}}}
	case b.Kind == types.Array:
		comp := make([]Value, b.Len)
		zv := ZeroValue(b.Elem)
		for i := range comp {
			comp[i] = zv
		}
		return Value{Kind: KComposite, Composite: comp}
	case b.Kind == types.Struct, b.Kind == types.RawUnion:
		comp := make([]Value, len(b.Fields))
		for i, f := range b.Fields {
			comp[i] = ZeroValue(f.Type)
		}
		return Value{Kind: KComposite, Composite: comp}
	case b.Kind == types.Union:
		return Value{Kind: KComposite, Composite: []Value{{Kind: KInt64}, {Kind: KInt64}}}
	default:
		return Value{Kind: KInt64}
	}
}
