package checker

import (
	"github.com/latticelang/lattice/ast"
	"github.com/latticelang/lattice/exprchk"
	"github.com/latticelang/lattice/scope"
	"github.com/latticelang/lattice/types"
)

// checkUsingStmt implements spec §4.1 "UsingStmt". Injection always
// targets the scope current at the point of the `using` statement.
func checkUsingStmt(ctx *CheckerContext, n *ast.UsingStmt) {
	if n.Decl != nil {
		checkUsingDecl(ctx, n)
		return
	}
	checkUsingExpr(ctx, n.X, n.X)
}

func checkUsingExpr(ctx *CheckerContext, x ast.Expr, usingExpr ast.Expr) {
	op := exprchk.CheckExpr(ctx, exprchk.NoHint, x)
	if op.IsInvalid() || op.Entity == nil {
		return
	}
	ent := op.Entity
	switch ent.Kind {
	case scope.TypeName:
		injectTypeMembers(ctx, ent, x.Pos())
	case scope.ImportName:
		injectImportScope(ctx, ent, x.Pos())
	case scope.Variable:
		base := types.BaseType(ent.Type)
		if base == nil || (base.Kind != types.Struct && base.Kind != types.RawUnion) {
			ctx.Errorf(x.Pos(), "using: variable %s is not a struct or raw_union", ent.Name)
			return
		}
		var selExpr ast.Expr
		if _, ok := x.(*ast.SelectorExpr); ok {
			selExpr = x
		}
		injectVariableFields(ctx, ent, base, selExpr, x.Pos())
	default:
		ctx.Errorf(x.Pos(), "using: %s cannot be injected", ent.Kind)
	}
}

func injectTypeMembers(ctx *CheckerContext, typeEnt *scope.Entity, pos ast.Pos) {
	base := types.BaseType(typeEnt.NamedType)
	if base == nil {
		return
	}
	switch base.Kind {
	case types.Struct, types.RawUnion:
		for _, f := range base.Fields {
			if !f.Public {
				continue
			}
			e := &scope.Entity{
				Kind: scope.Variable, Name: f.Name, Pos: pos, Type: f.Type,
				FieldIndex: f.Index, UsingParent: typeEnt,
			}
			insertOrCollide(ctx, e, pos)
		}
	case types.Union:
		for _, v := range base.Variants {
			e := &scope.Entity{
				Kind: scope.TypeName, Name: v.Name, Pos: pos, NamedType: v,
				UsingParent: typeEnt,
			}
			insertOrCollide(ctx, e, pos)
		}
	}
}

func injectImportScope(ctx *CheckerContext, importEnt *scope.Entity, pos ast.Pos) {
	if importEnt.ImportScope == nil {
		return
	}
	// Walk names in sorted order (scope.Scope.Names()) rather than
	// declaration order, so that when an import injects several
	// colliding names, the resulting diagnostics come out in a
	// deterministic, source-independent order.
	for _, name := range importEnt.ImportScope.Names() {
		e, _ := importEnt.ImportScope.Lookup(name)
		clone := *e
		clone.Pos = pos
		clone.UsingParent = importEnt
		insertOrCollide(ctx, &clone, pos)
	}
}

func injectVariableFields(ctx *CheckerContext, varEnt *scope.Entity, base *types.Type, selExpr ast.Expr, pos ast.Pos) {
	for _, f := range base.Fields {
		if !f.Public {
			continue
		}
		e := &scope.Entity{
			Kind: scope.Variable, Name: f.Name, Pos: pos, Type: f.Type,
			FieldIndex: f.Index, UsingParent: varEnt, UsingExpr: selExpr,
		}
		insertOrCollide(ctx, e, pos)
	}
}

// insertOrCollide inserts e into the current scope, reporting the "using"
// namespace collision diagnostic (spec §8 invariant 6) when a binding
// already exists.
func insertOrCollide(ctx *CheckerContext, e *scope.Entity, pos ast.Pos) {
	if prev, inserted := ctx.Scope.Insert(e); !inserted {
		ctx.Errorf(pos, "namespace collision: %s already declared at %s", e.Name, prev.Pos)
	}
}

func checkUsingDecl(ctx *CheckerContext, n *ast.UsingStmt) {
	decl := n.Decl
	if len(decl.Names) > 1 && decl.Type != nil {
		ctx.Errorf(decl.Pos(), "using: only one using-variable is allowed per same-typed multi-declaration")
	}
	entities := checkVarDecl(ctx, decl)
	for _, ent := range entities {
		if ent == nil {
			continue
		}
		base := types.BaseType(ent.Type)
		if base == nil || (base.Kind != types.Struct && base.Kind != types.RawUnion) {
			continue
		}
		injectVariableFields(ctx, ent, base, nil, decl.Pos())
	}
}
