// Package exprchk is a minimal but real implementation of the expression
// checker spec.md lists as an external collaborator (§2.3, §6): check_expr,
// check_multi_expr, check_expr_or_type, check_binary_expr, check_comparison,
// convert_to_typed, check_assignment, check_selector, check_init_variables.
// Spec scopes this component at ~0% of the budget and treats it as
// supplied by surrounding infrastructure; it is still implemented here
// (compactly) because the statement checker must call real code to be
// exercised end to end. Modeled on the teacher's expr/check.go
// (TypeError/SyntaxError + per-node check(Hint) dispatch).
package exprchk

import (
	"github.com/latticelang/lattice/ast"
	"github.com/latticelang/lattice/internal/exactval"
	"github.com/latticelang/lattice/scope"
	"github.com/latticelang/lattice/types"
)

// Mode is the addressing-mode classification of an Operand (spec
// glossary "Addressing mode").
type Mode int

const (
	Invalid Mode = iota
	NoValue
	Value
	Variable
	Constant
	Type
)

func (m Mode) String() string {
	switch m {
	case NoValue:
		return "no value"
	case Value:
		return "value"
	case Variable:
		return "variable"
	case Constant:
		return "constant"
	case Type:
		return "type"
	default:
		return "invalid"
	}
}

// Operand is the (mode, type, value, expr) tuple spec.md §3 names.
type Operand struct {
	Mode  Mode
	Type  *types.Type
	Value exactval.Value // meaningful when Mode == Constant
	Expr  ast.Expr
	// Entity is set, whatever the Mode, when the operand denotes a
	// direct reference to a named entity (an identifier or an import
	// member, as opposed to e.g. a field selection), so callers can
	// mark it Used.
	Entity *scope.Entity
}

// IsInvalid reports whether o is the Invalid operand, which callers use
// to suppress cascaded diagnostics (spec §4.1 "semantic failure produces
// Invalid operands that propagate without further cascaded errors").
func (o Operand) IsInvalid() bool { return o.Mode == Invalid }

// InvalidOperand is the canonical Invalid operand for expression e.
func InvalidOperand(e ast.Expr) Operand { return Operand{Mode: Invalid, Type: types.TypInvalid, Expr: e} }
