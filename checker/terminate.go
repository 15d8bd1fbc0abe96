package checker

import "github.com/latticelang/lattice/ast"

// CheckIsTerminating reports whether node is guaranteed to divert control
// away from its successor (spec §4.1 "Termination analysis").
func CheckIsTerminating(ctx *CheckerContext, n ast.Node) bool {
	switch s := n.(type) {
	case nil:
		return false
	case *ast.ReturnStmt:
		return true
	case *ast.BlockStmt:
		last := s.LastNonEmpty()
		if last == nil {
			return false
		}
		return CheckIsTerminating(ctx, last)
	case *ast.ExprStmt:
		call, ok := s.X.(*ast.CallExpr)
		if !ok {
			return false
		}
		id, ok := call.Fun.(*ast.Ident)
		if !ok {
			return false
		}
		ent, found := ctx.Lookup(id.Name)
		return found && ent.ProcType != nil && ent.ProcType.NoReturn
	case *ast.IfStmt:
		if s.Else == nil {
			return false
		}
		return CheckIsTerminating(ctx, s.Body) && CheckIsTerminating(ctx, s.Else)
	case *ast.WhenStmt:
		if s.Else == nil {
			return false
		}
		return CheckIsTerminating(ctx, s.Body) && CheckIsTerminating(ctx, s.Else)
	case *ast.ForStmt:
		if s.Cond != nil {
			return false
		}
		return !CheckHasBreak(s.Body, true)
	case *ast.MatchStmt:
		return matchTerminates(ctx, s.Cases)
	case *ast.TypeMatchStmt:
		return matchTerminates(ctx, s.Cases)
	case *ast.PushAllocator:
		return CheckIsTerminating(ctx, s.Body)
	case *ast.PushContext:
		return CheckIsTerminating(ctx, s.Body)
	default:
		return false
	}
}

func matchTerminates(ctx *CheckerContext, cases []*ast.CaseClause) bool {
	hasDefault := false
	for _, c := range cases {
		if c.IsDefault() {
			hasDefault = true
		}
		if !clauseTerminates(ctx, c) {
			return false
		}
	}
	return hasDefault
}

func clauseTerminates(ctx *CheckerContext, c *ast.CaseClause) bool {
	if hasBreakInList(c.Body, true) {
		return false
	}
	last := lastNonEmptyInList(c.Body)
	if last == nil {
		return false
	}
	return CheckIsTerminating(ctx, last)
}

func lastNonEmptyInList(list []ast.Node) ast.Node {
	for i := len(list) - 1; i >= 0; i-- {
		if _, ok := list[i].(*ast.EmptyStmt); ok {
			continue
		}
		return list[i]
	}
	return nil
}

// CheckHasBreak walks node looking for a bare `break` that would escape
// to the construct node belongs to. It does not descend into nested
// ForStmt/MatchStmt/TypeMatchStmt bodies: their own break terminates
// *them*, not the outer construct (spec §4.1 "Implicit-break detection").
// The implicit parameter names the spec's documented call convention
// (implicit=true from a loop/match computing its own termination); it
// does not change the walk itself, since a break is always "implicit"
// with respect to the construct it escapes from.
func CheckHasBreak(n ast.Node, implicit bool) bool {
	switch s := n.(type) {
	case nil:
		return false
	case *ast.BranchStmt:
		return s.Tok == ast.BranchBreak
	case *ast.BlockStmt:
		return hasBreakInList(s.List, implicit)
	case *ast.IfStmt:
		return CheckHasBreak(s.Body, implicit) || CheckHasBreak(s.Else, implicit)
	case *ast.WhenStmt:
		return CheckHasBreak(s.Body, implicit) || CheckHasBreak(s.Else, implicit)
	case *ast.PushAllocator:
		return CheckHasBreak(s.Body, implicit)
	case *ast.PushContext:
		return CheckHasBreak(s.Body, implicit)
	case *ast.TagStmt:
		return CheckHasBreak(s.Inner, implicit)
	case *ast.ForStmt, *ast.MatchStmt, *ast.TypeMatchStmt:
		return false // own break does not escape
	default:
		return false
	}
}

func hasBreakInList(list []ast.Node, implicit bool) bool {
	for _, s := range list {
		if CheckHasBreak(s, implicit) {
			return true
		}
	}
	return false
}
