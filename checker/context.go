// Package checker implements the statement checker: the scope-and-flow-
// sensitive semantic analyzer that validates statements, builds the
// scope graph, enforces match exhaustiveness/duplication invariants,
// resolves `using` injections, and propagates stmt_state_flags. Modeled
// on the shape (not the SQL semantics) of the teacher's plan/pir binder
// passes and on go/types' Checker for the scoped-context discipline; see
// DESIGN.md for the full grounding note.
package checker

import (
	"fmt"

	"github.com/latticelang/lattice/ast"
	"github.com/latticelang/lattice/scope"
	"github.com/latticelang/lattice/types"
)

// StateFlags is the CheckerContext-level bitset mirroring ast.StmtFlags:
// bounds_check / no_bounds_check, mutually exclusive.
type StateFlags uint32

const (
	BoundsCheck StateFlags = 1 << iota
	NoBoundsCheck
)

// StmtFlags controls which branch statements are legal in the statement
// currently being checked (spec §3 "StmtFlags").
type StmtFlags uint8

const (
	BreakAllowed StmtFlags = 1 << iota
	ContinueAllowed
	FallthroughAllowed
)

// WithoutFallthrough returns f with FallthroughAllowed masked off, the
// form passed to every nested statement list except the last element of
// a case clause (spec §3 StmtFlags invariant).
func (f StmtFlags) WithoutFallthrough() StmtFlags { return f &^ FallthroughAllowed }

// Diagnostic is one reported checker finding.
type Diagnostic struct {
	Pos ast.Pos
	Msg string
}

// Reporter accumulates diagnostics; the checker never halts on a
// semantic error; it reports and continues (spec §7).
type Reporter struct {
	Diags []Diagnostic
}

func (r *Reporter) Errorf(pos ast.Pos, format string, args ...any) {
	r.Diags = append(r.Diags, Diagnostic{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (r *Reporter) HasErrors() bool { return len(r.Diags) > 0 }

// CheckerContext is the mutable state threaded through CheckStmt (spec
// §3 "CheckerContext"). ProcStack holds the enclosing procedures'
// signatures so ReturnStmt can check against the innermost one.
type CheckerContext struct {
	Scope     *scope.Scope
	File      string
	Flags     StateFlags
	InDefer   bool
	ProcStack []*types.Type
	Reporter  *Reporter
	Layout    types.Layout

	// AllocatorStack and ContextStack record the positions of enclosing
	// PushAllocator/PushContext statements, innermost last, so a
	// diagnostic inside the pushed body can cite the enclosing push's
	// location rather than just "somewhere" (spec §4.1 "PushAllocator/
	// PushContext").
	AllocatorStack []ast.Pos
	ContextStack   []ast.Pos
}

// NewContext creates a root checker context over the given file scope.
func NewContext(fileScope *scope.Scope, file string, layout types.Layout) *CheckerContext {
	return &CheckerContext{Scope: fileScope, File: file, Reporter: &Reporter{}, Layout: layout}
}

// --- exprchk.Env ---

func (ctx *CheckerContext) Lookup(name string) (*scope.Entity, bool) {
	return scope.LookupChain(ctx.Scope, name)
}

func (ctx *CheckerContext) Errorf(pos ast.Pos, format string, args ...any) {
	ctx.Reporter.Errorf(pos, format, args...)
}

// OpenScope pushes a new nested scope and returns it; CloseScope pops
// back to the scope active before the matching OpenScope call.
func (ctx *CheckerContext) OpenScope(comment string) *scope.Scope {
	ctx.Scope = scope.New(ctx.Scope, comment)
	return ctx.Scope
}

func (ctx *CheckerContext) CloseScope() {
	if ctx.Scope.Parent != nil {
		ctx.Scope = ctx.Scope.Parent
	}
}

// CurrentProc returns the innermost enclosing procedure's type, or nil
// at the top level.
func (ctx *CheckerContext) CurrentProc() *types.Type {
	if len(ctx.ProcStack) == 0 {
		return nil
	}
	return ctx.ProcStack[len(ctx.ProcStack)-1]
}

// CurrentAllocator returns the position of the innermost enclosing
// PushAllocator, or false at the top level.
func (ctx *CheckerContext) CurrentAllocator() (ast.Pos, bool) {
	if len(ctx.AllocatorStack) == 0 {
		return ast.Pos{}, false
	}
	return ctx.AllocatorStack[len(ctx.AllocatorStack)-1], true
}

// CurrentContext returns the position of the innermost enclosing
// PushContext, or false at the top level.
func (ctx *CheckerContext) CurrentContext() (ast.Pos, bool) {
	if len(ctx.ContextStack) == 0 {
		return ast.Pos{}, false
	}
	return ctx.ContextStack[len(ctx.ContextStack)-1], true
}

// applyNodeFlags installs n's local bounds_check/no_bounds_check
// override (if any), returning a restore function the caller must defer
// immediately -- the scoped-acquisition discipline spec §4.1 requires
// ("restored on exit... including early returns triggered by
// diagnostics"), satisfied here by defer regardless of exit path.
func (ctx *CheckerContext) applyNodeFlags(n ast.Node) (restore func()) {
	nf := n.Flags()
	if nf&ast.FlagBoundsCheck == 0 && nf&ast.FlagNoBoundsCheck == 0 {
		return func() {}
	}
	prev := ctx.Flags
	switch {
	case nf&ast.FlagBoundsCheck != 0:
		ctx.Flags = (ctx.Flags &^ NoBoundsCheck) | BoundsCheck
	case nf&ast.FlagNoBoundsCheck != 0:
		ctx.Flags = (ctx.Flags &^ BoundsCheck) | NoBoundsCheck
	}
	return func() { ctx.Flags = prev }
}
