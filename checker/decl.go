package checker

import (
	"github.com/latticelang/lattice/ast"
	"github.com/latticelang/lattice/exprchk"
	"github.com/latticelang/lattice/scope"
	"github.com/latticelang/lattice/types"
)

// resolveTypeExpr checks e as a type designator, reporting a diagnostic
// and returning types.TypInvalid if e does not name a type.
func resolveTypeExpr(ctx *CheckerContext, e ast.Expr) *types.Type {
	if e == nil {
		return nil
	}
	op := exprchk.CheckExprOrType(ctx, e)
	if op.Mode != exprchk.Type {
		ctx.Errorf(e.Pos(), "not a type")
		return types.TypInvalid
	}
	return op.Type
}

// checkVarDecl resolves a VarDecl's declared type (if any) and its
// initializer values, inserting one Variable entity per non-blank name
// into the current scope. It is the external "check_var_decl_node" entry
// spec §6 names, and is also reused by UsingStmt-on-VarDecl (spec §4.1).
func checkVarDecl(ctx *CheckerContext, n *ast.VarDecl) []*scope.Entity {
	var declType *types.Type
	if n.Type != nil {
		declType = resolveTypeExpr(ctx, n.Type)
	}
	return exprchk.CheckInitVariables(ctx, ctx.Scope, n.Pos(), n.Names, declType, n.Values)
}

// checkProcDecl implements spec §4.1 ProcDecl: "create a procedure
// entity in the enclosing scope ... attach a DeclInfo, register the
// entity/decl pair, and invoke the external check_entity_decl." Since
// check_entity_decl (signature + body elaboration) has no other
// collaborator in this layer, the body is checked directly here, against
// a fresh scope seeded with the parameter entities.
func checkProcDecl(ctx *CheckerContext, n *ast.ProcDecl) {
	procType := &types.Type{Kind: types.Proc}
	for _, p := range n.Params {
		t := resolveTypeExpr(ctx, p.Type)
		for range p.Names {
			procType.Params = append(procType.Params, t)
		}
	}
	for _, r := range n.Results {
		t := resolveTypeExpr(ctx, r.Type)
		for range r.Names {
			procType.Results = append(procType.Results, t)
		}
		if len(r.Names) == 0 {
			procType.Results = append(procType.Results, t)
		}
	}

	// checkScopeDecls already forward-declared this exact ProcDecl (same
	// name, same position) in the enclosing scope; complete that entity
	// in place rather than re-inserting, which would collide with itself
	// and produce a false "redeclared" diagnostic. Anything else occupying
	// the name here is a genuine conflict.
	var ent *scope.Entity
	if prev, found := ctx.Scope.Lookup(n.Name); found && prev.Kind == scope.Procedure && prev.Pos == n.Pos() {
		ent = prev
		ent.ProcType = procType
		ent.Type = procType
	} else {
		ent = &scope.Entity{Kind: scope.Procedure, Name: n.Name, Pos: n.Pos(), ProcType: procType, Type: procType}
		if prev, inserted := ctx.Scope.Insert(ent); !inserted {
			ctx.Errorf(n.Pos(), "%s redeclared in this block (previous declaration at %s)", n.Name, prev.Pos)
		}
	}
	if n.Body == nil {
		return
	}

	outer := ctx.Scope
	ctx.OpenScope("proc:" + n.Name)
	for _, p := range n.Params {
		t := resolveTypeExpr(ctx, p.Type)
		for _, name := range p.Names {
			if name == "_" {
				continue
			}
			pe := &scope.Entity{Kind: scope.Variable, Name: name, Pos: p.Pos(), Type: t}
			ctx.Scope.Insert(pe)
		}
	}
	ctx.ProcStack = append(ctx.ProcStack, procType)
	CheckStmt(ctx, n.Body, 0)
	ctx.ProcStack = ctx.ProcStack[:len(ctx.ProcStack)-1]
	ctx.Scope = outer
}
