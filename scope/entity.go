// Package scope implements the lexically nested Scope & Entity table
// (spec §3) shared by the statement checker: entities tagged by kind,
// scopes chained to a parent with deterministic ordered iteration.
// Modeled on the teacher's plan/pir Trace resolution table (scope.go)
// and on go/types' Scope shape.
package scope

import (
	"github.com/latticelang/lattice/ast"
	"github.com/latticelang/lattice/types"
)

// Kind tags what an Entity denotes.
type Kind int

const (
	Invalid Kind = iota
	Variable
	Constant
	TypeName
	Procedure
	ImportName
	Builtin
	ImplicitValue
	Nil
)

func (k Kind) String() string {
	switch k {
	case Variable:
		return "variable"
	case Constant:
		return "constant"
	case TypeName:
		return "type name"
	case Procedure:
		return "procedure"
	case ImportName:
		return "import"
	case Builtin:
		return "builtin"
	case ImplicitValue:
		return "implicit value"
	case Nil:
		return "nil"
	default:
		return "invalid"
	}
}

// Flags is a small bitset of entity-level facts.
type Flags uint8

const (
	Used Flags = 1 << iota
)

// Entity is one name binding. Variable entities additionally use
// FieldIndex/UsingParent/UsingExpr to describe bindings synthesized by a
// `using` injection (spec §4.1 UsingStmt).
type Entity struct {
	Kind       Kind
	Name       string
	Pos        ast.Pos
	Type       *types.Type
	Flags      Flags
	Scope      *Scope // the scope this entity is declared in

	// Set when this entity was synthesized by `using` (UsingParent on
	// every such entity, including type names and import members;
	// FieldIndex/UsingExpr on injected variables):
	FieldIndex  int     // index of the field within UsingParent's type
	UsingParent *Entity // the entity this was injected from
	UsingExpr   ast.Expr // the original selector expression, for re-materialization during codegen

	// Import-only: the scope exported by the imported file.
	ImportScope *Scope

	// Procedure-only: the declared signature.
	ProcType *types.Type

	// TypeName-only: the named type this entity introduces.
	NamedType *types.Type
}

// MarkUsed sets the Used flag.
func (e *Entity) MarkUsed() { e.Flags |= Used }

// IsUsed reports whether MarkUsed has been called.
func (e *Entity) IsUsed() bool { return e.Flags&Used != 0 }

// Injectable reports whether an entity of this kind may be the target of
// a `using` injection (spec §4.1: TypeName/ImportName/Variable qualify;
// Constant/Procedure/Builtin/ImplicitValue/Nil/Invalid do not).
func (k Kind) Injectable() bool {
	switch k {
	case TypeName, ImportName, Variable:
		return true
	default:
		return false
	}
}
