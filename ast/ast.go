// Package ast defines the resolved abstract syntax tree handed to the
// statement checker. Lexing, parsing, and name resolution for top-level
// declarations happen upstream of this package and are out of scope here;
// this package only models the node shapes the checker inspects.
package ast

import "fmt"

// Pos is a source position. It carries enough information for
// diagnostics to point at a specific byte in a specific file.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// IsValid reports whether p refers to an actual source location.
func (p Pos) IsValid() bool { return p.Line > 0 }

// Kind tags the dynamic type of a Node. The checker dispatches with Go
// type switches over the node types; Kind names a node's kind in its
// diagnostics.
type Kind int

const (
	KindInvalid Kind = iota
	KindEmptyStmt
	KindBadStmt
	KindBadDecl
	KindExprStmt
	KindTagStmt
	KindIncDecStmt
	KindAssignStmt
	KindBlockStmt
	KindIfStmt
	KindWhenStmt
	KindReturnStmt
	KindForStmt
	KindMatchStmt
	KindTypeMatchStmt
	KindDeferStmt
	KindBranchStmt
	KindUsingStmt
	KindPushAllocator
	KindPushContext
	KindVarDecl
	KindConstDecl
	KindTypeDecl
	KindProcDecl
	KindCaseClause
	KindIdent
	KindSelectorExpr
	KindBasicLit
	KindBinaryExpr
	KindCallExpr
	KindFieldValue
	KindCompoundLit
)

func (k Kind) String() string {
	switch k {
	case KindEmptyStmt:
		return "EmptyStmt"
	case KindBadStmt:
		return "BadStmt"
	case KindBadDecl:
		return "BadDecl"
	case KindExprStmt:
		return "ExprStmt"
	case KindTagStmt:
		return "TagStmt"
	case KindIncDecStmt:
		return "IncDecStmt"
	case KindAssignStmt:
		return "AssignStmt"
	case KindBlockStmt:
		return "BlockStmt"
	case KindIfStmt:
		return "IfStmt"
	case KindWhenStmt:
		return "WhenStmt"
	case KindReturnStmt:
		return "ReturnStmt"
	case KindForStmt:
		return "ForStmt"
	case KindMatchStmt:
		return "MatchStmt"
	case KindTypeMatchStmt:
		return "TypeMatchStmt"
	case KindDeferStmt:
		return "DeferStmt"
	case KindBranchStmt:
		return "BranchStmt"
	case KindUsingStmt:
		return "UsingStmt"
	case KindPushAllocator:
		return "PushAllocator"
	case KindPushContext:
		return "PushContext"
	case KindVarDecl:
		return "VarDecl"
	case KindConstDecl:
		return "ConstDecl"
	case KindTypeDecl:
		return "TypeDecl"
	case KindProcDecl:
		return "ProcDecl"
	case KindCaseClause:
		return "CaseClause"
	case KindIdent:
		return "Ident"
	case KindSelectorExpr:
		return "SelectorExpr"
	case KindBasicLit:
		return "BasicLit"
	case KindBinaryExpr:
		return "BinaryExpr"
	case KindCallExpr:
		return "CallExpr"
	case KindFieldValue:
		return "FieldValue"
	case KindCompoundLit:
		return "CompoundLit"
	default:
		return "Invalid"
	}
}

// StmtFlags is the per-node override bitset (spec §4.1): a node can
// locally force bounds_check or no_bounds_check for its subtree. The two
// bits are mutually exclusive; setting one clears the other.
type StmtFlags uint32

const (
	FlagBoundsCheck StmtFlags = 1 << iota
	FlagNoBoundsCheck
)

// Node is implemented by every AST node the checker visits.
type Node interface {
	Kind() Kind
	Pos() Pos
	// Flags returns this node's local stmt_state_flags override, or 0
	// if the node does not override anything.
	Flags() StmtFlags
	walk(v Visitor)
}

// base is embedded by every concrete node to supply Pos/Flags/Kind
// plumbing without repeating it on every type.
type base struct {
	pos   Pos
	kind  Kind
	flags StmtFlags
}

func (b *base) Pos() Pos        { return b.pos }
func (b *base) Kind() Kind      { return b.kind }
func (b *base) Flags() StmtFlags { return b.flags }

// SetFlags installs a local bounds_check/no_bounds_check override on n,
// respecting mutual exclusion between the two bits.
func SetFlags(n Node, f StmtFlags) {
	b, ok := n.(interface{ setFlags(StmtFlags) })
	if !ok {
		return
	}
	b.setFlags(f)
}

func (b *base) setFlags(f StmtFlags) {
	if f&FlagBoundsCheck != 0 {
		f &^= FlagNoBoundsCheck
	} else if f&FlagNoBoundsCheck != 0 {
		f &^= FlagBoundsCheck
	}
	b.flags = f
}

// Visitor is invoked once per node encountered by Walk, following the
// same depth-first contract as go/ast.Visitor: if the returned Visitor w
// is non-nil, Walk descends into the node's children with w, then calls
// w.Visit(nil) to signal the end of that subtree.
type Visitor interface {
	Visit(Node) Visitor
}

// Walk traverses an AST in depth-first order.
func Walk(v Visitor, n Node) {
	if n == nil {
		return
	}
	w := v.Visit(n)
	if w == nil {
		return
	}
	n.walk(w)
	w.Visit(nil)
}
