package exprchk

import (
	"testing"

	"github.com/latticelang/lattice/ast"
	"github.com/latticelang/lattice/scope"
	"github.com/latticelang/lattice/types"
)

// fakeEnv is a standalone Env double so these tests don't need a full
// checker.CheckerContext.
type fakeEnv struct {
	entities map[string]*scope.Entity
	errs     []string
}

func newFakeEnv() *fakeEnv { return &fakeEnv{entities: make(map[string]*scope.Entity)} }

func (e *fakeEnv) declare(ent *scope.Entity) { e.entities[ent.Name] = ent }

func (e *fakeEnv) Lookup(name string) (*scope.Entity, bool) {
	ent, ok := e.entities[name]
	return ent, ok
}

func (e *fakeEnv) Errorf(pos ast.Pos, format string, args ...any) {
	e.errs = append(e.errs, pos.String())
}

func pos(line int) ast.Pos { return ast.Pos{File: "t.lat", Line: line, Column: 1} }

func TestCheckIdentUndefined(t *testing.T) {
	env := newFakeEnv()
	op := CheckExpr(env, NoHint, ast.NewIdent(pos(1), "missing"))
	if !op.IsInvalid() {
		t.Error("undefined identifier should produce an Invalid operand")
	}
	if len(env.errs) != 1 {
		t.Fatalf("expected one diagnostic, got %d", len(env.errs))
	}
}

func TestCheckBinaryExprNumericMismatch(t *testing.T) {
	env := newFakeEnv()
	x := ast.NewBasicLit(pos(1), ast.LitInt, "1")
	y := ast.NewBasicLit(pos(1), ast.LitFloat, "1.5")
	op := CheckBinaryExpr(env, NoHint, ast.NewBinaryExpr(pos(1), ast.OpAdd, x, y))
	if !op.IsInvalid() {
		t.Error("i64 + f64 should be rejected: operands must agree exactly")
	}
}

func TestCheckBinaryExprNumericMatch(t *testing.T) {
	env := newFakeEnv()
	x := ast.NewBasicLit(pos(1), ast.LitInt, "1")
	y := ast.NewBasicLit(pos(1), ast.LitInt, "2")
	op := CheckBinaryExpr(env, NoHint, ast.NewBinaryExpr(pos(1), ast.OpAdd, x, y))
	if op.IsInvalid() {
		t.Fatalf("1 + 2 should type-check, got diagnostics: %v", env.errs)
	}
	if op.Mode != Constant {
		t.Errorf("adding two constants should stay Constant mode, got %v", op.Mode)
	}
}

func TestCheckComparisonOrderingRequiresNumericOrString(t *testing.T) {
	x := Operand{Mode: Value, Type: types.TypBool, Expr: ast.NewIdent(pos(1), "a")}
	y := Operand{Mode: Value, Type: types.TypBool, Expr: ast.NewIdent(pos(1), "b")}
	env := newFakeEnv()
	op := CheckComparison(env, ast.OpLss, x, y)
	if !op.IsInvalid() {
		t.Error("bool < bool should be rejected")
	}
}

func TestCheckComparisonEqualityAllowsAnyIdenticalType(t *testing.T) {
	x := Operand{Mode: Value, Type: types.TypBool, Expr: ast.NewIdent(pos(1), "a")}
	y := Operand{Mode: Value, Type: types.TypBool, Expr: ast.NewIdent(pos(1), "b")}
	env := newFakeEnv()
	op := CheckComparison(env, ast.OpEql, x, y)
	if op.IsInvalid() {
		t.Error("bool == bool should be legal")
	}
	if op.Type != types.TypBool {
		t.Errorf("comparison result type = %v, want bool", op.Type)
	}
}

func TestConvertToTypedRejectsMismatch(t *testing.T) {
	env := newFakeEnv()
	o := Operand{Mode: Value, Type: types.TypI64, Expr: ast.NewIdent(pos(1), "x")}
	got := ConvertToTyped(env, o, types.TypF64)
	if !got.IsInvalid() {
		t.Error("i64 is not assignable to f64 without an explicit conversion")
	}
}

func TestConvertToTypedAcceptsIdentical(t *testing.T) {
	env := newFakeEnv()
	o := Operand{Mode: Value, Type: types.TypI64, Expr: ast.NewIdent(pos(1), "x")}
	got := ConvertToTyped(env, o, types.TypI64)
	if got.IsInvalid() {
		t.Fatalf("identical types should convert cleanly, got diagnostics: %v", env.errs)
	}
}

func TestCheckAssignmentRejectsNonVariable(t *testing.T) {
	env := newFakeEnv()
	lhs := Operand{Mode: Constant, Type: types.TypI64, Expr: ast.NewIdent(pos(1), "c")}
	rhs := Operand{Mode: Value, Type: types.TypI64, Expr: ast.NewIdent(pos(1), "v")}
	if CheckAssignment(env, lhs, rhs) {
		t.Error("assigning into a constant should be rejected")
	}
}

func TestCheckAssignmentAcceptsMatchingVariable(t *testing.T) {
	env := newFakeEnv()
	lhs := Operand{Mode: Variable, Type: types.TypI64, Expr: ast.NewIdent(pos(1), "v")}
	rhs := Operand{Mode: Value, Type: types.TypI64, Expr: ast.NewIdent(pos(1), "w")}
	if !CheckAssignment(env, lhs, rhs) {
		t.Fatalf("matching variable assignment should succeed, got diagnostics: %v", env.errs)
	}
}

// TestCheckSelectorStructField exercises field selection against a plain
// struct type (no pointer indirection).
func TestCheckSelectorStructField(t *testing.T) {
	env := newFakeEnv()
	st := &types.Type{Kind: types.Struct, Fields: []types.Field{
		{Name: "count", Type: types.TypI64, Index: 0, Public: true},
	}}
	env.declare(&scope.Entity{Kind: scope.Variable, Name: "s", Type: st})
	sel := ast.NewSelectorExpr(pos(1), ast.NewIdent(pos(1), "s"), "count")
	op := CheckSelector(env, sel)
	if op.IsInvalid() {
		t.Fatalf("s.count should resolve, got diagnostics: %v", env.errs)
	}
	if op.Type != types.TypI64 {
		t.Errorf("s.count type = %v, want i64", op.Type)
	}
}

func TestCheckSelectorUnknownField(t *testing.T) {
	env := newFakeEnv()
	st := &types.Type{Kind: types.Struct, Fields: []types.Field{
		{Name: "count", Type: types.TypI64, Index: 0, Public: true},
	}}
	env.declare(&scope.Entity{Kind: scope.Variable, Name: "s", Type: st})
	sel := ast.NewSelectorExpr(pos(1), ast.NewIdent(pos(1), "s"), "missing")
	op := CheckSelector(env, sel)
	if !op.IsInvalid() {
		t.Error("s.missing should be rejected")
	}
}

// TestCheckMultiExprArity exercises the call-arity mismatch diagnostic.
func TestCheckMultiExprArity(t *testing.T) {
	env := newFakeEnv()
	procType := &types.Type{Kind: types.Proc, Params: []*types.Type{types.TypI64}, Results: []*types.Type{types.TypI64}}
	env.declare(&scope.Entity{Kind: scope.Procedure, Name: "f", ProcType: procType})
	call := ast.NewCallExpr(pos(1), ast.NewIdent(pos(1), "f"), nil)
	CheckMultiExpr(env, call)
	if len(env.errs) != 1 {
		t.Fatalf("expected an arity diagnostic, got %d diagnostics", len(env.errs))
	}
}

func TestCheckMultiExprMultiResult(t *testing.T) {
	env := newFakeEnv()
	procType := &types.Type{Kind: types.Proc, Results: []*types.Type{types.TypI64, types.TypBool}}
	env.declare(&scope.Entity{Kind: scope.Procedure, Name: "f", ProcType: procType})
	call := ast.NewCallExpr(pos(1), ast.NewIdent(pos(1), "f"), nil)
	results := CheckMultiExpr(env, call)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Type != types.TypI64 || results[1].Type != types.TypBool {
		t.Errorf("result types = %v, %v; want i64, bool", results[0].Type, results[1].Type)
	}
}
