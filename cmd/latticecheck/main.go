// Command latticecheck is a small diagnostic binary exercising the
// checker and VM end to end, in the spirit of the teacher's single-file
// cmd/ diagnostic tools: it builds one hand-constructed program for each
// pipeline, runs it, and prints the result.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/latticelang/lattice/ast"
	"github.com/latticelang/lattice/checker"
	"github.com/latticelang/lattice/scope"
	"github.com/latticelang/lattice/ssa"
	"github.com/latticelang/lattice/target"
	"github.com/latticelang/lattice/types"
	"github.com/latticelang/lattice/vm"
)

func main() {
	verbose := flag.Bool("v", false, "enable VM trace logging")
	flag.Parse()

	layout := target.Default()

	fmt.Println("== checker: x := 3; y, z := 1, 2; x = y + z ==")
	if err := runCheckerDemo(layout); err != nil {
		fmt.Fprintln(os.Stderr, "checker demo failed:", err)
		os.Exit(1)
	}

	fmt.Println("== vm: add(a, b int64) int64 { return a + b } ==")
	logger := vm.NoopLogger
	if *verbose {
		logger = vm.NewStdLogger()
	}
	if err := runVMDemo(layout, logger); err != nil {
		fmt.Fprintln(os.Stderr, "vm demo failed:", err)
		os.Exit(1)
	}
}

// runCheckerDemo builds S1 from the test matrix (a define, a parallel
// define, and a plain assignment) and reports any diagnostics.
func runCheckerDemo(layout types.Layout) error {
	pos := ast.Pos{File: "demo.lat", Line: 1, Column: 1}

	x := ast.NewIdent(pos, "x")
	y := ast.NewIdent(pos, "y")
	z := ast.NewIdent(pos, "z")

	stmts := []ast.Node{
		ast.NewAssignStmt(pos, []ast.Expr{x}, []ast.Expr{ast.NewBasicLit(pos, ast.LitInt, "3")}, ast.OpDefine),
		ast.NewAssignStmt(pos, []ast.Expr{y, z}, []ast.Expr{
			ast.NewBasicLit(pos, ast.LitInt, "1"),
			ast.NewBasicLit(pos, ast.LitInt, "2"),
		}, ast.OpDefine),
		ast.NewAssignStmt(pos, []ast.Expr{x}, []ast.Expr{ast.NewBinaryExpr(pos, ast.OpAdd, y, z)}, ast.OpAssign),
	}

	fileScope := scope.New(nil, "file")
	ctx := checker.NewContext(fileScope, "demo.lat", layout)
	checker.CheckStmtList(ctx, stmts, 0)

	if ctx.Reporter.HasErrors() {
		for _, d := range ctx.Reporter.Diags {
			fmt.Printf("  %s: %s\n", d.Pos, d.Msg)
		}
		return fmt.Errorf("%d diagnostic(s)", len(ctx.Reporter.Diags))
	}
	fmt.Println("  ok: no diagnostics")
	return nil
}

// runVMDemo builds a two-block-free `add` procedure directly in SSA form
// and calls it, exercising operand resolution, BinaryOp, and Return.
func runVMDemo(layout types.Layout, logger vm.Logger) error {
	i64 := types.TypI64
	procType := &types.Type{Kind: types.Proc, Params: []*types.Type{i64, i64}, Results: []*types.Type{i64}}

	entry := &ssa.Block{ID: 0, Name: "entry"}
	addInstr := &ssa.Instr{
		ID: 1, Op: ssa.OpBinaryOp, Type: i64, BinOp: ssa.BinAdd,
		Args: []ssa.Value{
			{Kind: ssa.VParam, ID: 0, Type: i64},
			{Kind: ssa.VParam, ID: 1, Type: i64},
		},
	}
	retInstr := &ssa.Instr{
		ID: 2, Op: ssa.OpReturn,
		Args: []ssa.Value{{Kind: ssa.VInstr, ID: 1, Type: i64}},
	}
	entry.Instrs = []*ssa.Instr{addInstr, retInstr}

	proc := &ssa.Procedure{
		Name: "add",
		Params: []ssa.Param{
			{ID: 0, Name: "a", Type: i64},
			{ID: 1, Name: "b", Type: i64},
		},
		Type:       procType,
		Blocks:     []*ssa.Block{entry},
		EntryBlock: entry,
	}
	mod := &ssa.Module{Procedures: []*ssa.Procedure{proc}}

	m := vm.Init(mod, layout, logger)
	defer m.Destroy()

	result, err := m.CallProcedure("add", []vm.Value{vm.Int64Value(19), vm.Int64Value(23)})
	if err != nil {
		return err
	}
	fmt.Printf("  add(19, 23) = %d\n", result.Int64)
	return nil
}
