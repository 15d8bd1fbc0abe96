// Package ssa implements the block-structured SSA value/instruction
// model spec.md §3/§4.2 names as an external collaborator consumed by
// the VM: ordered blocks, typed instructions, and operand identity
// kinds. Grounded on the teacher's vm/ssa.go (value{id,op,args,imm}
// shape) and vm/ssadefs.go's iota-enum opcode style, extended with an
// explicit block/terminator structure per spec's "block-structured"
// requirement -- the teacher's own ssaProgram is a single straight-line
// instruction stream with no block boundaries.
package ssa

import (
	"github.com/latticelang/lattice/internal/exactval"
	"github.com/latticelang/lattice/types"
)

// Op tags the dynamic shape of an Instr.
type Op int

const (
	OpInvalid Op = iota
	OpStartupRuntime
	OpComment
	OpLocal
	OpZeroInit
	OpStore
	OpLoad
	OpArrayElementPtr
	OpStructElementPtr
	OpPtrOffset
	OpPhi
	OpArrayExtractValue
	OpStructExtractValue
	OpJump
	OpIf
	OpReturn
	OpConv
	OpUnreachable
	OpBinaryOp
	OpCall
	OpSelect
	OpVectorExtractElement
	OpVectorInsertElement
	OpVectorShuffle
	OpBoundsCheck
	OpSliceBoundsCheck
)

func (op Op) String() string {
	switch op {
	case OpStartupRuntime:
		return "startup_runtime"
	case OpComment:
		return "comment"
	case OpLocal:
		return "local"
	case OpZeroInit:
		return "zero_init"
	case OpStore:
		return "store"
	case OpLoad:
		return "load"
	case OpArrayElementPtr:
		return "array_element_ptr"
	case OpStructElementPtr:
		return "struct_element_ptr"
	case OpPtrOffset:
		return "ptr_offset"
	case OpPhi:
		return "phi"
	case OpArrayExtractValue:
		return "array_extract_value"
	case OpStructExtractValue:
		return "struct_extract_value"
	case OpJump:
		return "jump"
	case OpIf:
		return "if"
	case OpReturn:
		return "return"
	case OpConv:
		return "conv"
	case OpUnreachable:
		return "unreachable"
	case OpBinaryOp:
		return "binary_op"
	case OpCall:
		return "call"
	case OpSelect:
		return "select"
	case OpVectorExtractElement:
		return "vector_extract_element"
	case OpVectorInsertElement:
		return "vector_insert_element"
	case OpVectorShuffle:
		return "vector_shuffle"
	case OpBoundsCheck:
		return "bounds_check"
	case OpSliceBoundsCheck:
		return "slice_bounds_check"
	default:
		return "invalid"
	}
}

// ConvKind enumerates the ten Conv variants (spec §4.2 "Conv").
type ConvKind int

const (
	ConvInvalid ConvKind = iota
	ConvTrunc
	ConvZext
	ConvFptrunc
	ConvFpext
	ConvFptoui
	ConvFptosi
	ConvUitofp
	ConvSitofp
	ConvPtrtoint
	ConvInttoptr
	ConvBitcast
)

// ValueKind tags the addressing kind of an operand reference (spec §4.2
// "vm_operand_value").
type ValueKind int

const (
	VInvalid ValueKind = iota
	VConstant
	VConstantSlice
	VGlobal
	VParam
	VProc
	VInstr
	VNil
	VTypeName
	VBlock
)

// Value is an SSA operand reference. Which fields are meaningful depends
// on Kind: VConstant uses ConstVal/Type (and ID as its memoization
// identity when compound); VParam/VInstr use ID (an identity shared with
// the defining param/Instr); VGlobal/VProc use Name; VBlock uses Block.
type Value struct {
	Kind     ValueKind
	ID       int // identity of the referenced Instr/Param, or of a compound constant
	Type     *types.Type
	ConstVal AstConst // for VConstant
	Block    *Block   // for VBlock
	Name     string   // VProc: callee name; VGlobal: global name

	// VConstantSlice: a slice constant backed by a constant array operand.
	Backing *Value
	Count   int64
}

// AstConst is the precomputed (type, exact value) pair a Constant
// operand carries, grounded on spec §4.2's "precomputed AST type-and-
// value" phrasing for compound constant materialization.
type AstConst struct {
	Type *types.Type
	// Elems holds, for Compound constants, one operand per element/field
	// (spec §4.2 "each element materialized via its precomputed AST
	// type-and-value"); FieldNames parallels Elems for struct literals.
	Elems      []Value
	FieldNames []string
	// Scalar holds the precomputed exact value for non-Compound
	// constants (bool/integer/float/string/pointer).
	Scalar exactval.Value
}

// Instr is one SSA instruction. Only the fields relevant to Op are
// populated; the rest are zero.
type Instr struct {
	ID   int
	Op   Op
	Type *types.Type

	// operands, reused across ops with op-specific meaning:
	Args []Value

	// Conv
	Conv ConvKind

	// BinaryOp
	BinOp BinOp

	// Jump
	Target *Block

	// If
	Then, Else *Block

	// Call
	Callee   Value // VProc
	CallArgs []Value

	// Field/element access (ArrayElementPtr, StructElementPtr,
	// ArrayExtractValue, StructExtractValue): FieldIndex selects the
	// member; Args[0] is the base.
	FieldIndex int

	// Phi: one incoming value per predecessor block, indexed in
	// parallel with Preds.
	Preds    []*Block
	Incoming []Value

	// BoundsCheck / SliceBoundsCheck
	RuntimeProc string // __bounds_check_error, __slice_expr_error, __substring_expr_error
	Pos         SourcePos

	// Comment
	Text string
}

// BinOp enumerates the arithmetic/bitwise/comparison operators a
// BinaryOp instruction may carry.
type BinOp int

const (
	BinInvalid BinOp = iota
	BinAdd
	BinSub
	BinMul
	BinQuo
	BinRem
	BinAnd
	BinOr
	BinXor
	BinShl
	BinShr
	BinAndNot
	BinEql
	BinNeq
	BinLss
	BinLeq
	BinGtr
	BinGeq
)

// SourcePos is the (file, line, column) triple BoundsCheck/
// SliceBoundsCheck pass to the runtime error procedures.
type SourcePos struct {
	File   string
	Line   int
	Column int
}

// Block is one SSA basic block: a straight-line instruction sequence
// ending in a terminator (Jump/If/Return/Unreachable).
type Block struct {
	ID     int
	Name   string
	Instrs []*Instr
}

// Terminator returns the block's last instruction, or nil if the block
// is empty (malformed).
func (b *Block) Terminator() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	return b.Instrs[len(b.Instrs)-1]
}

// Param is one procedure parameter: an SSA identity other instructions'
// Value{Kind: VParam} operands reference by ID.
type Param struct {
	ID   int
	Name string
	Type *types.Type
}

// Procedure is a lowered, block-structured procedure (spec §3
// "ssaProcedure"). Blocks == nil marks an external (host-callback)
// procedure.
type Procedure struct {
	Name       string
	Params     []Param
	NumLocals  int
	Type       *types.Type // Proc
	Blocks     []*Block
	EntryBlock *Block
}

// Module is the fully lowered unit the VM executes (spec §6
// "vm_init(module)").
type Module struct {
	Procedures []*Procedure
	Globals    []Global
}

// Global is a module-scope storage location, addressed by Value{Kind:
// VGlobal, Name: ...} operands.
type Global struct {
	Name string
	Type *types.Type
	Init AstConst
}

// ProcByName looks up a procedure by name.
func (m *Module) ProcByName(name string) *Procedure {
	for _, p := range m.Procedures {
		if p.Name == name {
			return p
		}
	}
	return nil
}
