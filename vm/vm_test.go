package vm

import (
	"testing"

	"github.com/latticelang/lattice/internal/exactval"
	"github.com/latticelang/lattice/ssa"
	"github.com/latticelang/lattice/target"
	"github.com/latticelang/lattice/types"
)

func newTestVM() *VirtualMachine {
	return Init(&ssa.Module{}, target.Default(), NoopLogger)
}

// TestStoreLoadRoundTrip exercises S4's store/load invariant for every
// primitive type T: storing then loading a value yields back val.
func TestStoreLoadRoundTrip(t *testing.T) {
	m := newTestVM()
	f := &Frame{Proc: &ssa.Procedure{Name: "roundtrip"}}

	cases := []struct {
		name string
		typ  *types.Type
		val  Value
	}{
		{"bool", types.TypBool, BoolValue(true)},
		{"i8", types.TypI8, Int64Value(-5)},
		{"u8", types.TypU8, Int64Value(250)},
		{"i16", types.TypI16, Int64Value(-1000)},
		{"u16", types.TypU16, Int64Value(60000)},
		{"i32", types.TypI32, Int64Value(-70000)},
		{"u32", types.TypU32, Int64Value(1 << 30)},
		{"i64", types.TypI64, Int64Value(-123456789)},
		{"u64", types.TypU64, Int64Value(int64(1) << 62)},
		{"f32", types.TypF32, F32Value(3.5)},
		{"f64", types.TypF64, F64Value(-2.25)},
		{"rawptr", types.TypRawPtr, PtrValue(0xdeadbeef)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			size := types.SizeOf(m.Layout, c.typ)
			ptr := m.Mem.AllocArena(size)
			m.store(f, ptr, c.val, c.typ)
			got := m.load(f, ptr, c.typ)
			switch c.val.Kind {
			case KInt64:
				if got.Int64 != c.val.Int64 {
					t.Errorf("got %d, want %d", got.Int64, c.val.Int64)
				}
			case KF32:
				if got.F32 != c.val.F32 {
					t.Errorf("got %v, want %v", got.F32, c.val.F32)
				}
			case KF64:
				if got.F64 != c.val.F64 {
					t.Errorf("got %v, want %v", got.F64, c.val.F64)
				}
			case KPtr:
				if got.Ptr != c.val.Ptr {
					t.Errorf("got %#x, want %#x", got.Ptr, c.val.Ptr)
				}
			}
		})
	}
}

// TestStructLayout checks known offsets for a two-field struct under the
// default profile: {a i32; b i64} packs a at 0 and b at 8 (aligned).
func TestStructLayout(t *testing.T) {
	layout := target.Default()
	st := &types.Type{Kind: types.Struct, Fields: []types.Field{
		{Name: "a", Type: types.TypI32, Index: 0, Public: true},
		{Name: "b", Type: types.TypI64, Index: 1, Public: true},
	}}
	if off := types.OffsetOf(layout, st, 0); off != 0 {
		t.Errorf("field a offset = %d, want 0", off)
	}
	if off := types.OffsetOf(layout, st, 1); off != 8 {
		t.Errorf("field b offset = %d, want 8", off)
	}
	if size := types.SizeOf(layout, st); size != 16 {
		t.Errorf("struct size = %d, want 16", size)
	}
}

// TestStructStoreLoadRoundTrip exercises the aggregate store/load path.
func TestStructStoreLoadRoundTrip(t *testing.T) {
	m := newTestVM()
	f := &Frame{Proc: &ssa.Procedure{Name: "structcase"}}
	st := &types.Type{Kind: types.Struct, Fields: []types.Field{
		{Name: "a", Type: types.TypI32, Index: 0, Public: true},
		{Name: "b", Type: types.TypI64, Index: 1, Public: true},
	}}
	val := Value{Kind: KComposite, Composite: []Value{Int64Value(42), Int64Value(-7)}}
	ptr := m.Mem.AllocArena(types.SizeOf(m.Layout, st))
	m.store(f, ptr, val, st)
	got := m.load(f, ptr, st)
	if got.Composite[0].Int64 != 42 || got.Composite[1].Int64 != -7 {
		t.Errorf("got %+v, want %+v", got.Composite, val.Composite)
	}
}

// TestConstCompoundMemoization exercises spec invariant 10: two operand
// references to the same constant ssaValue identity share representation
// (same materialized Composite slice header).
func TestConstCompoundMemoization(t *testing.T) {
	m := newTestVM()
	arrType := &types.Type{Kind: types.Array, Elem: types.TypI64, Len: 2}
	op := ssa.Value{
		Kind: ssa.VConstant, ID: 7, Type: arrType,
		ConstVal: ssa.AstConst{
			Type: arrType,
			Elems: []ssa.Value{
				{Kind: ssa.VConstant, Type: types.TypI64, ConstVal: ssa.AstConst{Scalar: exactval.Int(1)}},
				{Kind: ssa.VConstant, Type: types.TypI64, ConstVal: ssa.AstConst{Scalar: exactval.Int(2)}},
			},
		},
	}
	v1 := m.materializeCompound(op)
	v2 := m.materializeCompound(op)
	if &v1.Composite[0] != &v2.Composite[0] {
		t.Error("materializeCompound did not memoize: distinct backing arrays for the same constant identity")
	}
}

// TestAddCall exercises S6: calling add(a, b) returns their sum, and the
// frame's arena checkpoint is released after the call (no leaked
// allocations from the callee's Locals).
func TestAddCall(t *testing.T) {
	i64 := types.TypI64
	entry := &ssa.Block{Name: "entry"}
	entry.Instrs = []*ssa.Instr{
		{ID: 1, Op: ssa.OpBinaryOp, Type: i64, BinOp: ssa.BinAdd, Args: []ssa.Value{
			{Kind: ssa.VParam, ID: 0, Type: i64},
			{Kind: ssa.VParam, ID: 1, Type: i64},
		}},
		{ID: 2, Op: ssa.OpReturn, Args: []ssa.Value{{Kind: ssa.VInstr, ID: 1, Type: i64}}},
	}
	proc := &ssa.Procedure{
		Name:       "add",
		Params:     []ssa.Param{{ID: 0, Name: "a", Type: i64}, {ID: 1, Name: "b", Type: i64}},
		Blocks:     []*ssa.Block{entry},
		EntryBlock: entry,
	}
	mod := &ssa.Module{Procedures: []*ssa.Procedure{proc}}
	m := Init(mod, target.Default(), NoopLogger)

	cpBefore := m.Mem.Arena.Checkpoint()
	result, err := m.CallProcedure("add", []Value{Int64Value(19), Int64Value(23)})
	if err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	if result.Int64 != 42 {
		t.Errorf("add(19, 23) = %d, want 42", result.Int64)
	}
	if cpAfter := m.Mem.Arena.Checkpoint(); cpAfter != cpBefore {
		t.Errorf("arena checkpoint leaked: before=%d after=%d", cpBefore, cpAfter)
	}
}

// TestStringConstCall exercises S5: a procedure returning a string
// constant yields a composite (ptr, len) whose bytes match the literal.
func TestStringConstCall(t *testing.T) {
	strType := types.TypString
	constOp := ssa.Value{Kind: ssa.VConstant, Type: strType, ConstVal: ssa.AstConst{Scalar: exactval.Str("hi")}}
	entry := &ssa.Block{Name: "entry"}
	entry.Instrs = []*ssa.Instr{
		{ID: 1, Op: ssa.OpReturn, Args: []ssa.Value{constOp}},
	}
	proc := &ssa.Procedure{Name: "greeting", Blocks: []*ssa.Block{entry}, EntryBlock: entry}
	mod := &ssa.Module{Procedures: []*ssa.Procedure{proc}}
	m := Init(mod, target.Default(), NoopLogger)

	result, err := m.CallProcedure("greeting", nil)
	if err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	if len(result.Composite) != 2 {
		t.Fatalf("expected a (ptr, len) composite, got %+v", result.Composite)
	}
	if result.Composite[1].Int64 != 2 {
		t.Errorf("length = %d, want 2", result.Composite[1].Int64)
	}
	data := m.Mem.Bytes(result.Composite[0].Ptr, 2)
	if data[0] != 0x68 || data[1] != 0x69 {
		t.Errorf("bytes = %v, want [0x68 0x69]", data)
	}
}

// TestFaultRecoveredAtCallBoundary exercises spec §7/§9: a Fault
// panicked deep in the instruction loop is recovered only at
// CallProcedure's boundary and returned as an error, never escaping as a
// raw panic.
func TestFaultRecoveredAtCallBoundary(t *testing.T) {
	entry := &ssa.Block{Name: "entry"}
	entry.Instrs = []*ssa.Instr{{Op: ssa.OpUnreachable}}
	proc := &ssa.Procedure{Name: "boom", Blocks: []*ssa.Block{entry}, EntryBlock: entry}
	mod := &ssa.Module{Procedures: []*ssa.Procedure{proc}}
	m := Init(mod, target.Default(), NoopLogger)

	_, err := m.CallProcedure("boom", nil)
	if err == nil {
		t.Fatal("expected a fault, got nil error")
	}
	if _, ok := err.(*Fault); !ok {
		t.Errorf("expected *Fault, got %T", err)
	}
}

// TestStartupRuntimeDispatchesRegisteredExternal exercises OpStartupRuntime:
// when a host registers "__startup_runtime", executing the instruction
// invokes it; with nothing registered, it is a true no-op.
func TestStartupRuntimeDispatchesRegisteredExternal(t *testing.T) {
	entry := &ssa.Block{Name: "entry"}
	entry.Instrs = []*ssa.Instr{
		{Op: ssa.OpStartupRuntime},
		{ID: 1, Op: ssa.OpReturn},
	}
	proc := &ssa.Procedure{Name: "main", Blocks: []*ssa.Block{entry}, EntryBlock: entry}
	mod := &ssa.Module{Procedures: []*ssa.Procedure{proc}}
	m := Init(mod, target.Default(), NoopLogger)

	var fired bool
	m.RegisterExternal("__startup_runtime", func(vmach *VirtualMachine, args []Value) Value {
		fired = true
		return Value{}
	})
	if _, err := m.CallProcedure("main", nil); err != nil {
		t.Fatalf("unexpected fault: %v", err)
	}
	if !fired {
		t.Error("__startup_runtime external should have fired")
	}

	m2 := Init(mod, target.Default(), NoopLogger)
	if _, err := m2.CallProcedure("main", nil); err != nil {
		t.Fatalf("unexpected fault with no registered startup hook: %v", err)
	}
}

// TestMaterializeCompoundNamedFieldOrder exercises materializeCompound's
// use of types.FieldsInSourceOrder: a struct constant with a named-field
// override lands in the field it names, not positionally, even though the
// zero-init pass walks FieldsInSourceOrder rather than the literal's own
// element order.
func TestMaterializeCompoundNamedFieldOrder(t *testing.T) {
	m := newTestVM()
	st := &types.Type{Kind: types.Struct, Fields: []types.Field{
		{Name: "a", Type: types.TypI64, Index: 0, Public: true},
		{Name: "b", Type: types.TypI64, Index: 1, Public: true},
	}}
	op := ssa.Value{
		Kind: ssa.VConstant, ID: 11, Type: st,
		ConstVal: ssa.AstConst{
			Type: st,
			Elems: []ssa.Value{
				{Kind: ssa.VConstant, Type: types.TypI64, ConstVal: ssa.AstConst{Scalar: exactval.Int(99)}},
			},
			FieldNames: []string{"b"},
		},
	}
	v := m.materializeCompound(op)
	if v.Composite[0].Int64 != 0 {
		t.Errorf("field a should remain zero-initialized, got %d", v.Composite[0].Int64)
	}
	if v.Composite[1].Int64 != 99 {
		t.Errorf("field b should hold the named override, got %d", v.Composite[1].Int64)
	}
}

// TestBinaryOpComparison exercises the fixed comparison semantics (spec
// §9's documented "known source bug" of always-true comparisons).
func TestBinaryOpComparison(t *testing.T) {
	m := newTestVM()
	f := &Frame{Proc: &ssa.Procedure{Name: "cmp"}}
	got := m.binaryOp(f, ssa.BinLss, Int64Value(1), Int64Value(2), types.TypI64)
	if !got.IsTruthy() {
		t.Error("1 < 2 should be true")
	}
	got = m.binaryOp(f, ssa.BinLss, Int64Value(5), Int64Value(2), types.TypI64)
	if got.IsTruthy() {
		t.Error("5 < 2 should be false")
	}
}
