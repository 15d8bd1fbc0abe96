package checker

import (
	"github.com/latticelang/lattice/ast"
	"github.com/latticelang/lattice/exprchk"
	"github.com/latticelang/lattice/internal/exactval"
	"github.com/latticelang/lattice/scope"
	"github.com/latticelang/lattice/types"
)

type seenCase struct {
	val exactval.Value
	typ *types.Type
	pos ast.Pos
}

// checkMatchStmt implements spec §4.1 MatchStmt (value match).
func checkMatchStmt(ctx *CheckerContext, n *ast.MatchStmt, flags StmtFlags) {
	ctx.OpenScope("match")
	defer ctx.CloseScope()

	if n.Init != nil {
		CheckStmt(ctx, n.Init, 0)
	}

	var tagType *types.Type
	var tagOp exprchk.Operand
	if n.Tag == nil {
		tagType = types.TypBool
		tagOp = exprchk.Operand{Mode: exprchk.Constant, Type: types.TypBool, Value: exactval.Bool_(true)}
	} else {
		tagOp = exprchk.CheckExpr(ctx, exprchk.NoHint, n.Tag)
		tagType = tagOp.Type
	}

	checkDefaultUniqueness(ctx, n.Cases)

	seen := make(map[uint64][]seenCase)
	for _, c := range n.Cases {
		for _, y := range c.List {
			op := exprchk.CheckExpr(ctx, exprchk.TypeHint(tagType), y)
			if op.IsInvalid() {
				continue
			}
			op = exprchk.ConvertToTyped(ctx, op, tagType)
			if op.IsInvalid() {
				continue
			}
			if !tagOp.IsInvalid() {
				exprchk.CheckComparison(ctx, ast.OpEql, tagOp, op)
			}
			if op.Mode != exprchk.Constant {
				ctx.Errorf(y.Pos(), "case expression must be constant")
				continue
			}
			h := exactval.Hash(op.Value)
			dup := false
			for _, s := range seen[h] {
				if exactval.Equal(s.val, op.Value) && types.Identical(s.typ, op.Type) {
					ctx.Errorf(y.Pos(), "duplicate case (first occurrence at %s)", s.pos)
					dup = true
					break
				}
			}
			if !dup {
				seen[h] = append(seen[h], seenCase{val: op.Value, typ: op.Type, pos: y.Pos()})
			}
		}
	}

	checkCaseClauses(ctx, n.Cases, flags, nil)
}

func checkDefaultUniqueness(ctx *CheckerContext, cases []*ast.CaseClause) {
	var firstDefault ast.Pos
	seenDefault := false
	for _, c := range cases {
		if !c.IsDefault() {
			continue
		}
		if seenDefault {
			ctx.Errorf(c.Pos(), "duplicate default clause (first default at %s)", firstDefault)
			continue
		}
		seenDefault = true
		firstDefault = c.Pos()
	}
}

// bindVar, when non-nil, is called once per clause to bind the
// TypeMatchStmt implicit variable into that clause's fresh scope.
func checkCaseClauses(ctx *CheckerContext, cases []*ast.CaseClause, flags StmtFlags, bindVar func(c *ast.CaseClause)) {
	base := flags.WithoutFallthrough() | BreakAllowed
	for i, c := range cases {
		ctx.OpenScope("case")
		clauseFlags := base
		if i != len(cases)-1 {
			clauseFlags |= FallthroughAllowed
		}
		if bindVar != nil {
			bindVar(c)
		}
		CheckStmtList(ctx, c.Body, clauseFlags)
		ctx.CloseScope()
	}
}

// checkTypeMatchStmt implements spec §4.1 TypeMatchStmt.
func checkTypeMatchStmt(ctx *CheckerContext, n *ast.TypeMatchStmt, flags StmtFlags) {
	ctx.OpenScope("type match")
	defer ctx.CloseScope()

	if n.Init != nil {
		CheckStmt(ctx, n.Init, 0)
	}

	tagOp := exprchk.CheckExpr(ctx, exprchk.NoHint, n.Tag)
	if tagOp.IsInvalid() {
		checkCaseClauses(ctx, n.Cases, flags, nil)
		return
	}
	isUnionPtr := types.IsPointerToUnion(tagOp.Type)
	isAny := types.IsAny(tagOp.Type)
	if !isUnionPtr && !isAny {
		ctx.Errorf(n.Tag.Pos(), "type match requires a union pointer or any, got %s", typeNameOf(tagOp.Type))
	}

	checkDefaultUniqueness(ctx, n.Cases)

	seenTypes := make(map[*types.Type]ast.Pos)
	caseType := make(map[*ast.CaseClause]*types.Type)
	for _, c := range n.Cases {
		if c.IsDefault() {
			caseType[c] = tagOp.Type
			continue
		}
		for _, texpr := range c.List {
			t := resolveTypeExpr(ctx, texpr)
			if isUnionPtr {
				member := false
				for _, v := range types.BaseType(types.Deref(tagOp.Type)).Variants {
					if types.Identical(v, t) {
						member = true
						break
					}
				}
				if !member {
					ctx.Errorf(texpr.Pos(), "%s is not a member of union %s", typeNameOf(t), typeNameOf(tagOp.Type))
				}
			}
			if prev, ok := seenTypes[t]; ok {
				ctx.Errorf(texpr.Pos(), "duplicate case type %s (first occurrence at %s)", typeNameOf(t), prev)
			} else {
				seenTypes[t] = texpr.Pos()
			}
			caseType[c] = t
		}
	}

	checkCaseClauses(ctx, n.Cases, flags, func(c *ast.CaseClause) {
		if n.Var == "" {
			return
		}
		t := caseType[c]
		if t == nil {
			t = tagOp.Type
		}
		e := &scope.Entity{Kind: scope.Variable, Name: n.Var, Pos: c.Pos(), Type: t}
		e.MarkUsed()
		ctx.Scope.Insert(e)
	})
}

func typeNameOf(t *types.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name != "" {
		return t.Name
	}
	return t.Kind.String()
}
