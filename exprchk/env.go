package exprchk

import (
	"github.com/latticelang/lattice/ast"
	"github.com/latticelang/lattice/scope"
	"github.com/latticelang/lattice/types"
)

// Env is the slice of checker state exprchk needs from its caller: name
// resolution and diagnostic reporting. checker.CheckerContext implements
// this so exprchk never imports checker (avoiding an import cycle, since
// checker imports exprchk).
type Env interface {
	Lookup(name string) (*scope.Entity, bool)
	Errorf(pos ast.Pos, format string, args ...any)
}

// TypeError reports a type mismatch at a specific node. Mirrors the
// teacher's expr/check.go TypeError, kept as a distinct type from
// SyntaxError so callers can tell "ill-typed" from "ill-formed" apart
// where that distinction matters.
type TypeError struct {
	Pos ast.Pos
	Msg string
}

func (e *TypeError) Error() string { return e.Msg }

// SyntaxError reports a malformed expression (wrong arity, wrong operand
// shape) independent of typing.
type SyntaxError struct {
	Pos ast.Pos
	Msg string
}

func (e *SyntaxError) Error() string { return e.Msg }

// Hint carries the type the surrounding context expects an expression to
// produce (e.g. a VarDecl's declared type, or a CompoundLit's element
// type), used to resolve untyped constants and to type empty composite
// literals. A nil Hint means no surrounding expectation.
type Hint interface {
	HintType() *types.Type
}

// HintFn adapts a plain function to Hint.
type HintFn func() *types.Type

func (f HintFn) HintType() *types.Type { return f() }

// NoHint is the absence of a surrounding type expectation.
var NoHint Hint = HintFn(func() *types.Type { return nil })

// TypeHint wraps a concrete expected type as a Hint.
func TypeHint(t *types.Type) Hint { return HintFn(func() *types.Type { return t }) }
