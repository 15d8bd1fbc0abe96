package checker

import (
	"strings"
	"testing"

	"github.com/latticelang/lattice/ast"
	"github.com/latticelang/lattice/scope"
	"github.com/latticelang/lattice/target"
	"github.com/latticelang/lattice/types"
)

func pos(line int) ast.Pos { return ast.Pos{File: "t.lat", Line: line, Column: 1} }

func newCtx() *CheckerContext {
	return NewContext(scope.New(nil, "file"), "t.lat", target.Default())
}

// TestParallelDefineThenAssign exercises S1: x := 3; y, z := 1, 2;
// x = y + z produces no diagnostics.
func TestParallelDefineThenAssign(t *testing.T) {
	ctx := newCtx()
	x := ast.NewIdent(pos(1), "x")
	y := ast.NewIdent(pos(2), "y")
	z := ast.NewIdent(pos(2), "z")
	stmts := []ast.Node{
		ast.NewAssignStmt(pos(1), []ast.Expr{x}, []ast.Expr{ast.NewBasicLit(pos(1), ast.LitInt, "3")}, ast.OpDefine),
		ast.NewAssignStmt(pos(2), []ast.Expr{y, z}, []ast.Expr{
			ast.NewBasicLit(pos(2), ast.LitInt, "1"),
			ast.NewBasicLit(pos(2), ast.LitInt, "2"),
		}, ast.OpDefine),
		ast.NewAssignStmt(pos(3), []ast.Expr{x}, []ast.Expr{ast.NewBinaryExpr(pos(3), ast.OpAdd, y, z)}, ast.OpAssign),
	}
	CheckStmtList(ctx, stmts, 0)
	if ctx.Reporter.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", ctx.Reporter.Diags)
	}
}

// TestBlankAssignmentIgnored exercises the blank-identifier edge case:
// `x, _ := 1, 2` declares only x, never inserting an entity for `_`.
func TestBlankAssignmentIgnored(t *testing.T) {
	ctx := newCtx()
	x := ast.NewIdent(pos(1), "x")
	blank := ast.NewIdent(pos(1), "_")
	stmt := ast.NewAssignStmt(pos(1), []ast.Expr{x, blank}, []ast.Expr{
		ast.NewBasicLit(pos(1), ast.LitInt, "1"),
		ast.NewBasicLit(pos(1), ast.LitInt, "2"),
	}, ast.OpDefine)
	CheckStmt(ctx, stmt, 0)
	if ctx.Reporter.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", ctx.Reporter.Diags)
	}
	if _, ok := ctx.Scope.Lookup("_"); ok {
		t.Error("blank identifier must not be inserted as an entity")
	}
	if _, ok := ctx.Scope.Lookup("x"); !ok {
		t.Error("x should have been declared")
	}
}

// TestMatchDuplicateCase exercises S2: two case clauses with the same
// constant value produce a duplicate-case diagnostic.
func TestMatchDuplicateCase(t *testing.T) {
	ctx := newCtx()
	tag := ast.NewIdent(pos(1), "tag")
	ctx.Scope.Insert(&scope.Entity{Kind: scope.Variable, Name: "tag", Pos: pos(0), Type: types.TypI64})

	cases := []*ast.CaseClause{
		ast.NewCaseClause(pos(2), []ast.Expr{ast.NewBasicLit(pos(2), ast.LitInt, "1")}, nil),
		ast.NewCaseClause(pos(3), []ast.Expr{ast.NewBasicLit(pos(3), ast.LitInt, "1")}, nil),
	}
	stmt := ast.NewMatchStmt(pos(1), nil, tag, cases)
	CheckStmt(ctx, stmt, 0)
	if !ctx.Reporter.HasErrors() {
		t.Fatal("expected a duplicate-case diagnostic")
	}
	found := false
	for _, d := range ctx.Reporter.Diags {
		if d.Pos.Line == 3 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the diagnostic to be positioned at the second case, got %v", ctx.Reporter.Diags)
	}
}

// TestMatchDefaultUniqueness checks that a second default clause is
// rejected.
func TestMatchDefaultUniqueness(t *testing.T) {
	ctx := newCtx()
	tag := ast.NewIdent(pos(1), "tag")
	ctx.Scope.Insert(&scope.Entity{Kind: scope.Variable, Name: "tag", Pos: pos(0), Type: types.TypI64})
	cases := []*ast.CaseClause{
		ast.NewCaseClause(pos(2), nil, nil),
		ast.NewCaseClause(pos(3), nil, nil),
	}
	stmt := ast.NewMatchStmt(pos(1), nil, tag, cases)
	CheckStmt(ctx, stmt, 0)
	if !ctx.Reporter.HasErrors() {
		t.Fatal("expected a duplicate-default diagnostic")
	}
}

// TestUsingImportCollision exercises S4: injecting an import scope whose
// members collide with an already-declared name reports the namespace
// collision diagnostic (spec §8 invariant 6).
func TestUsingImportCollision(t *testing.T) {
	ctx := newCtx()
	imported := scope.New(nil, "import")
	imported.Insert(&scope.Entity{Kind: scope.Variable, Name: "helper", Type: types.TypI64})
	ctx.Scope.Insert(&scope.Entity{Kind: scope.ImportName, Name: "m", ImportScope: imported})
	ctx.Scope.Insert(&scope.Entity{Kind: scope.Variable, Name: "helper", Type: types.TypBool})

	stmt := ast.NewUsingStmtExpr(pos(1), ast.NewIdent(pos(1), "m"))
	CheckStmt(ctx, stmt, 0)
	if !ctx.Reporter.HasErrors() {
		t.Fatal("expected a namespace collision diagnostic")
	}
}

// TestUsingImportCollisionSortedOrder exercises injectImportScope's use of
// scope.Scope.Names(): when an imported scope injects several names that
// all collide with already-declared bindings, the collision diagnostics
// come out in sorted-name order, not the imported scope's declaration
// order (here deliberately reversed: "zeta" before "alpha").
func TestUsingImportCollisionSortedOrder(t *testing.T) {
	ctx := newCtx()
	imported := scope.New(nil, "import")
	imported.Insert(&scope.Entity{Kind: scope.Variable, Name: "zeta", Type: types.TypI64})
	imported.Insert(&scope.Entity{Kind: scope.Variable, Name: "alpha", Type: types.TypI64})
	ctx.Scope.Insert(&scope.Entity{Kind: scope.ImportName, Name: "m", ImportScope: imported})
	ctx.Scope.Insert(&scope.Entity{Kind: scope.Variable, Name: "zeta", Type: types.TypBool})
	ctx.Scope.Insert(&scope.Entity{Kind: scope.Variable, Name: "alpha", Type: types.TypBool})

	stmt := ast.NewUsingStmtExpr(pos(1), ast.NewIdent(pos(1), "m"))
	CheckStmt(ctx, stmt, 0)
	if len(ctx.Reporter.Diags) != 2 {
		t.Fatalf("expected 2 collision diagnostics, got %v", ctx.Reporter.Diags)
	}
	if !strings.Contains(ctx.Reporter.Diags[0].Msg, "alpha") {
		t.Errorf("expected alpha's collision diagnostic first (sorted order), got %q", ctx.Reporter.Diags[0].Msg)
	}
	if !strings.Contains(ctx.Reporter.Diags[1].Msg, "zeta") {
		t.Errorf("expected zeta's collision diagnostic second (sorted order), got %q", ctx.Reporter.Diags[1].Msg)
	}
}

// TestDeferReturnRejected exercises the invariant that a return statement
// is illegal inside a deferred call's body.
func TestDeferReturnRejected(t *testing.T) {
	ctx := newCtx()
	ctx.ProcStack = append(ctx.ProcStack, &types.Type{Kind: types.Proc, Results: []*types.Type{types.TypI64}})
	ctx.InDefer = true
	stmt := ast.NewReturnStmt(pos(1), []ast.Expr{ast.NewBasicLit(pos(1), ast.LitInt, "1")})
	CheckStmt(ctx, stmt, 0)
	if !ctx.Reporter.HasErrors() {
		t.Fatal("expected a diagnostic for return inside defer")
	}
}

// TestBreakOutsideLoop exercises StmtFlags propagation: a bare break
// statement at top level (flags == 0) is rejected.
func TestBreakOutsideLoop(t *testing.T) {
	ctx := newCtx()
	CheckStmt(ctx, ast.NewBranchStmt(pos(1), ast.BranchBreak), 0)
	if !ctx.Reporter.HasErrors() {
		t.Fatal("expected a diagnostic for break outside a loop or match")
	}
}

// TestBreakInsideForAllowed exercises the same flag, set this time: a
// break inside a ForStmt's body is legal.
func TestBreakInsideForAllowed(t *testing.T) {
	ctx := newCtx()
	body := ast.NewBlockStmt(pos(1), []ast.Node{ast.NewBranchStmt(pos(1), ast.BranchBreak)})
	loop := ast.NewForStmt(pos(1), nil, nil, nil, body)
	CheckStmt(ctx, loop, 0)
	if ctx.Reporter.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", ctx.Reporter.Diags)
	}
}

// TestNodeFlagsRestored exercises the scoped bounds_check/no_bounds_check
// override: ctx.Flags reverts to its prior value after a node carrying a
// local override finishes checking, even though checking itself doesn't
// touch ctx.Flags (spec §4.1 "restored on exit").
func TestNodeFlagsRestored(t *testing.T) {
	ctx := newCtx()
	before := ctx.Flags
	empty := ast.NewEmptyStmt(pos(1))
	ast.SetFlags(empty, ast.FlagNoBoundsCheck)
	CheckStmt(ctx, empty, 0)
	if ctx.Flags != before {
		t.Errorf("ctx.Flags = %v after node flags should have been restored, want %v", ctx.Flags, before)
	}
}

// TestProcDeclThroughStmtList exercises the forward-declaration path a
// bare CheckStmt call never sees: CheckStmtList's checkScopeDecls forward
// pass inserts a Procedure entity for a named, non-top-level ProcDecl
// before the ordered per-statement pass reaches it. checkProcDecl must
// recognize and complete that same entity rather than re-insert a fresh
// one under the same name, which would collide with itself and raise a
// false "redeclared" diagnostic.
func TestProcDeclThroughStmtList(t *testing.T) {
	ctx := newCtx()
	decl := ast.NewProcDecl(pos(1), "helper", nil, nil, ast.NewBlockStmt(pos(1), nil))
	CheckStmtList(ctx, []ast.Node{decl}, 0)
	if ctx.Reporter.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", ctx.Reporter.Diags)
	}
	ent, ok := ctx.Scope.Lookup("helper")
	if !ok {
		t.Fatal("helper should have been declared")
	}
	if ent.ProcType == nil || ent.ProcType.Kind != types.Proc {
		t.Errorf("helper entity should carry a resolved Proc type, got %+v", ent.ProcType)
	}
}

// TestProcDeclGenuineRedeclaration exercises the other half of the same
// fix: a name already occupied by something other than this exact
// ProcDecl's forward-declared stub is still a genuine conflict.
func TestProcDeclGenuineRedeclaration(t *testing.T) {
	ctx := newCtx()
	ctx.Scope.Insert(&scope.Entity{Kind: scope.Variable, Name: "helper", Pos: pos(0), Type: types.TypI64})
	decl := ast.NewProcDecl(pos(1), "helper", nil, nil, ast.NewBlockStmt(pos(1), nil))
	CheckStmt(ctx, decl, 0)
	if !ctx.Reporter.HasErrors() {
		t.Fatal("expected a redeclared diagnostic when helper already names a variable")
	}
}

// TestPushAllocatorTracksStackAndChecksAssignability exercises both halves
// of checkPushAllocator: AllocatorStack is popped back to empty once the
// pushed body has been checked, and an expression not assignable to the
// "allocator" builtin (when one is in scope) is rejected.
func TestPushAllocatorTracksStackAndChecksAssignability(t *testing.T) {
	ctx := newCtx()
	allocType := &types.Type{Kind: types.Struct, Fields: []types.Field{}}
	ctx.Scope.Insert(&scope.Entity{Kind: scope.TypeName, Name: "allocator", NamedType: allocType})
	ctx.Scope.Insert(&scope.Entity{Kind: scope.Variable, Name: "a", Type: allocType})

	push := ast.NewPushAllocator(pos(1), ast.NewIdent(pos(1), "a"), ast.NewBlockStmt(pos(2), nil))

	CheckStmt(ctx, push, 0)
	if ctx.Reporter.HasErrors() {
		t.Fatalf("unexpected diagnostics for a well-typed push_allocator: %v", ctx.Reporter.Diags)
	}
	if len(ctx.AllocatorStack) != 0 {
		t.Errorf("AllocatorStack should be popped back to empty after the push body finishes, got %v", ctx.AllocatorStack)
	}

	ctx2 := newCtx()
	ctx2.Scope.Insert(&scope.Entity{Kind: scope.TypeName, Name: "allocator", NamedType: allocType})
	ctx2.Scope.Insert(&scope.Entity{Kind: scope.Variable, Name: "n", Type: types.TypI64})
	badPush := ast.NewPushAllocator(pos(1), ast.NewIdent(pos(1), "n"), ast.NewBlockStmt(pos(1), nil))
	CheckStmt(ctx2, badPush, 0)
	if !ctx2.Reporter.HasErrors() {
		t.Fatal("expected a diagnostic pushing a non-allocator-typed expression")
	}
}

// TestPushContextNoBuiltinRegisteredSkipsCheck exercises the graceful
// no-op path: a program that never declares a "context" builtin type
// still checks push_context's body without raising a spurious "not a
// type" diagnostic.
func TestPushContextNoBuiltinRegisteredSkipsCheck(t *testing.T) {
	ctx := newCtx()
	ctx.Scope.Insert(&scope.Entity{Kind: scope.Variable, Name: "c", Type: types.TypI64})
	push := ast.NewPushContext(pos(1), ast.NewIdent(pos(1), "c"), ast.NewBlockStmt(pos(1), nil))
	CheckStmt(ctx, push, 0)
	if ctx.Reporter.HasErrors() {
		t.Fatalf("unexpected diagnostics with no context builtin in scope: %v", ctx.Reporter.Diags)
	}
}

func TestCheckIsTerminating(t *testing.T) {
	ctx := newCtx()

	t.Run("block ending in return", func(t *testing.T) {
		block := ast.NewBlockStmt(pos(1), []ast.Node{
			ast.NewReturnStmt(pos(1), []ast.Expr{ast.NewIdent(pos(1), "x")}),
		})
		if !CheckIsTerminating(ctx, block) {
			t.Error("block{return x} should terminate")
		}
	})

	t.Run("for with break", func(t *testing.T) {
		body := ast.NewBlockStmt(pos(1), []ast.Node{ast.NewBranchStmt(pos(1), ast.BranchBreak)})
		loop := ast.NewForStmt(pos(1), nil, nil, nil, body)
		if CheckIsTerminating(ctx, loop) {
			t.Error("for { break } should not terminate")
		}
	})

	t.Run("infinite for without break", func(t *testing.T) {
		body := ast.NewBlockStmt(pos(1), nil)
		loop := ast.NewForStmt(pos(1), nil, nil, nil, body)
		if !CheckIsTerminating(ctx, loop) {
			t.Error("for {} should terminate (infinite loop, no escape)")
		}
	})

	t.Run("match without default", func(t *testing.T) {
		cases := []*ast.CaseClause{
			ast.NewCaseClause(pos(1), []ast.Expr{ast.NewBasicLit(pos(1), ast.LitInt, "1")}, []ast.Node{
				ast.NewReturnStmt(pos(1), nil),
			}),
		}
		m := ast.NewMatchStmt(pos(1), nil, ast.NewIdent(pos(1), "tag"), cases)
		if CheckIsTerminating(ctx, m) {
			t.Error("match without a default clause should not terminate")
		}
	})

	t.Run("match with default, all clauses terminate", func(t *testing.T) {
		cases := []*ast.CaseClause{
			ast.NewCaseClause(pos(1), []ast.Expr{ast.NewBasicLit(pos(1), ast.LitInt, "1")}, []ast.Node{
				ast.NewReturnStmt(pos(1), nil),
			}),
			ast.NewCaseClause(pos(2), nil, []ast.Node{
				ast.NewReturnStmt(pos(2), nil),
			}),
		}
		m := ast.NewMatchStmt(pos(1), nil, ast.NewIdent(pos(1), "tag"), cases)
		if !CheckIsTerminating(ctx, m) {
			t.Error("match with a default and all-terminating clauses should terminate")
		}
	})
}
