package checker

import (
	"github.com/latticelang/lattice/ast"
	"github.com/latticelang/lattice/exprchk"
	"github.com/latticelang/lattice/scope"
	"github.com/latticelang/lattice/types"
)

// CheckStmt validates one statement, augmenting ctx (spec §4.1 contract).
// It never returns an error: every failure is a diagnostic appended to
// ctx.Reporter.
func CheckStmt(ctx *CheckerContext, n ast.Node, flags StmtFlags) {
	if n == nil {
		return
	}
	restore := ctx.applyNodeFlags(n)
	defer restore()

	switch s := n.(type) {
	case *ast.EmptyStmt, *ast.BadStmt, *ast.BadDecl:
		// no-op

	case *ast.ExprStmt:
		checkExprStmt(ctx, s)

	case *ast.TagStmt:
		ctx.Errorf(s.Pos(), "%s: not supported yet", s.Kind())
		CheckStmt(ctx, s.Inner, flags)

	case *ast.IncDecStmt:
		checkIncDecStmt(ctx, s)

	case *ast.AssignStmt:
		checkAssignStmt(ctx, s)

	case *ast.BlockStmt:
		ctx.OpenScope("block")
		CheckStmtList(ctx, s.List, flags)
		ctx.CloseScope()

	case *ast.IfStmt:
		checkIfStmt(ctx, s, flags)

	case *ast.WhenStmt:
		checkWhenStmt(ctx, s, flags)

	case *ast.ReturnStmt:
		checkReturnStmt(ctx, s)

	case *ast.ForStmt:
		checkForStmt(ctx, s, flags)

	case *ast.MatchStmt:
		checkMatchStmt(ctx, s, flags)

	case *ast.TypeMatchStmt:
		checkTypeMatchStmt(ctx, s, flags)

	case *ast.DeferStmt:
		checkDeferStmt(ctx, s)

	case *ast.BranchStmt:
		checkBranchStmt(ctx, s, flags)

	case *ast.UsingStmt:
		checkUsingStmt(ctx, s)

	case *ast.PushAllocator:
		checkPushAllocator(ctx, s, flags)

	case *ast.PushContext:
		checkPushContext(ctx, s, flags)

	case *ast.VarDecl:
		checkVarDecl(ctx, s)

	case *ast.ConstDecl, *ast.TypeDecl:
		// reserved for an earlier pass; no-op here.

	case *ast.ProcDecl:
		checkProcDecl(ctx, s)

	default:
		ctx.Errorf(n.Pos(), "internal: unhandled statement kind %s", n.Kind())
	}
}

// CheckStmtList checks a statement list: a forward-declaration pass
// (check_scope_decls) so mutually-recursive declarations are visible,
// then an ordered pass that reattaches FallthroughAllowed only to the
// last non-empty element of a list that was itself given
// FallthroughAllowed (spec §4.1 "List form").
func CheckStmtList(ctx *CheckerContext, list []ast.Node, flags StmtFlags) {
	checkScopeDecls(ctx, list)

	last := -1
	for i, s := range list {
		if _, ok := s.(*ast.EmptyStmt); ok {
			continue
		}
		last = i
	}

	childFlags := flags.WithoutFallthrough()
	for i, s := range list {
		f := childFlags
		if flags&FallthroughAllowed != 0 && i == last {
			f |= FallthroughAllowed
		}
		CheckStmt(ctx, s, f)
	}
}

// checkScopeDecls performs the forward-declaration pass: procedure names
// are registered before any statement body is checked, so mutually
// recursive procedures resolve each other regardless of source order.
func checkScopeDecls(ctx *CheckerContext, list []ast.Node) {
	for _, s := range list {
		p, ok := s.(*ast.ProcDecl)
		if !ok || p.Name == "" {
			continue
		}
		if _, already := ctx.Scope.Lookup(p.Name); already {
			continue
		}
		procType := &types.Type{Kind: types.Proc}
		for _, param := range p.Params {
			t := resolveTypeExpr(ctx, param.Type)
			for range param.Names {
				procType.Params = append(procType.Params, t)
			}
		}
		for _, r := range p.Results {
			t := resolveTypeExpr(ctx, r.Type)
			if len(r.Names) == 0 {
				procType.Results = append(procType.Results, t)
			}
			for range r.Names {
				procType.Results = append(procType.Results, t)
			}
		}
		ctx.Scope.Insert(&scope.Entity{Kind: scope.Procedure, Name: p.Name, Pos: p.Pos(), ProcType: procType, Type: procType})
	}
}

func checkExprStmt(ctx *CheckerContext, s *ast.ExprStmt) {
	if _, ok := s.X.(*ast.CallExpr); ok {
		exprchk.CheckMultiExpr(ctx, s.X)
		return
	}
	op := exprchk.CheckExpr(ctx, exprchk.NoHint, s.X)
	if op.IsInvalid() {
		return
	}
	if op.Mode != exprchk.NoValue {
		ctx.Errorf(s.Pos(), "expression is not used")
	}
}

func checkIncDecStmt(ctx *CheckerContext, s *ast.IncDecStmt) {
	x := exprchk.CheckExpr(ctx, exprchk.NoHint, s.X)
	if x.IsInvalid() {
		return
	}
	if !types.IsNumeric(x.Type) {
		ctx.Errorf(s.Pos(), "%s requires a numeric operand", s.Op)
		return
	}
	one := exprchk.Operand{Mode: exprchk.Constant, Type: x.Type, Expr: s.X}
	exprchk.CheckAssignment(ctx, x, one)
}

func checkAssignStmt(ctx *CheckerContext, s *ast.AssignStmt) {
	if s.Op == ast.OpAssign || s.Op == ast.OpDefine {
		checkMultiAssign(ctx, s)
		return
	}
	// compound assignment: single-valued both sides.
	if len(s.Lhs) != 1 || len(s.Rhs) != 1 {
		ctx.Errorf(s.Pos(), "compound assignment must be single-valued")
		return
	}
	lhs := exprchk.CheckExpr(ctx, exprchk.NoHint, s.Lhs[0])
	rhs := exprchk.CheckExpr(ctx, exprchk.TypeHint(lhs.Type), s.Rhs[0])
	if lhs.IsInvalid() || rhs.IsInvalid() {
		return
	}
	bin := exprchk.CheckBinaryExpr(ctx, exprchk.NoHint, ast.NewBinaryExpr(s.Pos(), s.Op, s.Lhs[0], s.Rhs[0]))
	if bin.IsInvalid() {
		return
	}
	exprchk.CheckAssignment(ctx, lhs, bin)
}

func checkMultiAssign(ctx *CheckerContext, s *ast.AssignStmt) {
	if s.Op == ast.OpDefine {
		var names []string
		for _, l := range s.Lhs {
			id, ok := l.(*ast.Ident)
			if !ok {
				ctx.Errorf(l.Pos(), "left side of := must be an identifier")
				return
			}
			names = append(names, id.Name)
		}
		exprchk.CheckInitVariables(ctx, ctx.Scope, s.Pos(), names, nil, s.Rhs)
		return
	}

	var rhsVals []exprchk.Operand
	for _, r := range s.Rhs {
		rhsVals = append(rhsVals, exprchk.CheckMultiExpr(ctx, r)...)
	}

	n := len(s.Lhs)
	if n > len(rhsVals) {
		n = len(rhsVals)
	}
	if len(s.Lhs) != len(rhsVals) {
		ctx.Errorf(s.Pos(), "assignment mismatch: %d variables but %d values", len(s.Lhs), len(rhsVals))
	}
	for i := 0; i < n; i++ {
		if id, ok := s.Lhs[i].(*ast.Ident); ok && id.Name == "_" {
			continue
		}
		lhs := exprchk.CheckExpr(ctx, exprchk.NoHint, s.Lhs[i])
		exprchk.CheckAssignment(ctx, lhs, rhsVals[i])
	}
}

func checkIfStmt(ctx *CheckerContext, s *ast.IfStmt, flags StmtFlags) {
	ctx.OpenScope("if")
	defer ctx.CloseScope()
	if s.Init != nil {
		CheckStmt(ctx, s.Init, 0)
	}
	cond := exprchk.CheckExpr(ctx, exprchk.NoHint, s.Cond)
	if !cond.IsInvalid() && !types.IsBool(cond.Type) {
		ctx.Errorf(s.Cond.Pos(), "non-bool condition in if statement")
	}
	CheckStmt(ctx, s.Body, flags.WithoutFallthrough())
	switch s.Else.(type) {
	case nil:
	case *ast.IfStmt, *ast.BlockStmt:
		CheckStmt(ctx, s.Else, flags.WithoutFallthrough())
	default:
		ctx.Errorf(s.Pos(), "else must be an if statement or a block")
	}
}

func checkWhenStmt(ctx *CheckerContext, s *ast.WhenStmt, flags StmtFlags) {
	cond := exprchk.CheckExpr(ctx, exprchk.NoHint, s.Cond)
	if cond.IsInvalid() {
		return
	}
	if cond.Mode != exprchk.Constant || !types.IsBool(cond.Type) {
		ctx.Errorf(s.Cond.Pos(), "when condition must be a constant bool")
		return
	}
	if cond.Value.I != 0 {
		CheckStmt(ctx, s.Body, flags)
		return
	}
	switch e := s.Else.(type) {
	case nil:
	case *ast.WhenStmt:
		checkWhenStmt(ctx, e, flags)
	case *ast.BlockStmt:
		CheckStmt(ctx, e, flags)
	default:
		ctx.Errorf(s.Pos(), "when-else must be a when statement or a block")
	}
}

func checkReturnStmt(ctx *CheckerContext, s *ast.ReturnStmt) {
	if ctx.InDefer {
		ctx.Errorf(s.Pos(), "return is not allowed inside defer")
		return
	}
	proc := ctx.CurrentProc()
	var results []exprchk.Operand
	if len(s.Results) == 1 {
		results = exprchk.CheckMultiExpr(ctx, s.Results[0])
	} else {
		for _, r := range s.Results {
			results = append(results, exprchk.CheckExpr(ctx, exprchk.NoHint, r))
		}
	}
	if proc == nil {
		return
	}
	if len(results) != len(proc.Results) {
		ctx.Errorf(s.Pos(), "wrong number of return values: have %d, want %d", len(results), len(proc.Results))
		return
	}
	for i, r := range results {
		if r.IsInvalid() {
			continue
		}
		exprchk.ConvertToTyped(ctx, r, proc.Results[i])
	}
}

func checkForStmt(ctx *CheckerContext, s *ast.ForStmt, flags StmtFlags) {
	ctx.OpenScope("for")
	defer ctx.CloseScope()
	if s.Init != nil {
		CheckStmt(ctx, s.Init, 0)
	}
	if s.Cond != nil {
		cond := exprchk.CheckExpr(ctx, exprchk.NoHint, s.Cond)
		if !cond.IsInvalid() && !types.IsBool(cond.Type) {
			ctx.Errorf(s.Cond.Pos(), "non-bool condition in for statement")
		}
	}
	if s.Post != nil {
		CheckStmt(ctx, s.Post, 0)
	}
	bodyFlags := (flags | BreakAllowed | ContinueAllowed).WithoutFallthrough()
	CheckStmt(ctx, s.Body, bodyFlags)
}

func checkDeferStmt(ctx *CheckerContext, s *ast.DeferStmt) {
	if _, isDecl := s.Call.(ast.Decl); isDecl {
		ctx.Errorf(s.Pos(), "declaration is not allowed in defer")
		return
	}
	prev := ctx.InDefer
	ctx.InDefer = true
	CheckStmt(ctx, s.Call, 0)
	ctx.InDefer = prev
}

func checkBranchStmt(ctx *CheckerContext, s *ast.BranchStmt, flags StmtFlags) {
	switch s.Tok {
	case ast.BranchBreak:
		if flags&BreakAllowed == 0 {
			ctx.Errorf(s.Pos(), "break outside a loop or match")
		}
	case ast.BranchContinue:
		if flags&ContinueAllowed == 0 {
			ctx.Errorf(s.Pos(), "continue outside a loop")
		}
	case ast.BranchFallthrough:
		if flags&FallthroughAllowed == 0 {
			ctx.Errorf(s.Pos(), "fallthrough statement out of place")
		}
	}
}

func checkPushAllocator(ctx *CheckerContext, s *ast.PushAllocator, flags StmtFlags) {
	checkPushExpr(ctx, s.X, "allocator")
	ctx.AllocatorStack = append(ctx.AllocatorStack, s.Pos())
	CheckStmt(ctx, s.Body, flags)
	ctx.AllocatorStack = ctx.AllocatorStack[:len(ctx.AllocatorStack)-1]
}

func checkPushContext(ctx *CheckerContext, s *ast.PushContext, flags StmtFlags) {
	checkPushExpr(ctx, s.X, "context")
	ctx.ContextStack = append(ctx.ContextStack, s.Pos())
	CheckStmt(ctx, s.Body, flags)
	ctx.ContextStack = ctx.ContextStack[:len(ctx.ContextStack)-1]
}

// checkPushExpr verifies x's type is assignable to the builtin type
// named typeName ("allocator" or "context"), per spec §4.1 "check the
// expression assignable to allocator/context". A program that never
// declares that builtin into scope skips the check rather than
// reporting a spurious "not a type" diagnostic.
func checkPushExpr(ctx *CheckerContext, x ast.Expr, typeName string) {
	op := exprchk.CheckExpr(ctx, exprchk.NoHint, x)
	if op.IsInvalid() {
		return
	}
	ent, ok := ctx.Lookup(typeName)
	if !ok || ent.Kind != scope.TypeName {
		return
	}
	exprchk.ConvertToTyped(ctx, op, ent.NamedType)
}
