package types

// TypeSet is a bitset of Kind classes, used by the external expression
// checker's binary-expression and comparison operand checks to describe
// "what this node could evaluate to" without committing to a single
// concrete Type. Modeled directly on
// the teacher's expr.TypeSet (expr/simplify.go), generalized from Ion's
// wire-format type tags to this language's own Kind enumeration.
type TypeSet uint32

const (
	tsBool TypeSet = 1 << iota
	tsSignedInt
	tsUnsignedInt
	tsFloat
	tsString
	tsStruct
	tsArray
	tsSlice
	tsPointer
	tsProc
	tsAny
)

const (
	// AnyType is the universal set: no information is known.
	AnyType TypeSet = tsBool | tsSignedInt | tsUnsignedInt | tsFloat | tsString |
		tsStruct | tsArray | tsSlice | tsPointer | tsProc | tsAny

	BoolType    TypeSet = tsBool
	IntegerType TypeSet = tsSignedInt | tsUnsignedInt
	FloatType   TypeSet = tsFloat
	NumericType TypeSet = IntegerType | FloatType
	StringType  TypeSet = tsString
	StructType  TypeSet = tsStruct
	ArrayType   TypeSet = tsArray
	SliceType   TypeSet = tsSlice
	PointerType TypeSet = tsPointer
	ProcType    TypeSet = tsProc
	AnyValType  TypeSet = tsAny

	// LogicalType is the set of types usable as a boolean condition.
	LogicalType TypeSet = tsBool
)

// KindSet returns the singleton TypeSet containing k's class, or 0 if k
// has no TypeSet representation (e.g. Invalid, Named -- callers should
// unwrap with BaseType first).
func KindSet(k Kind) TypeSet {
	switch {
	case k == Bool:
		return tsBool
	case k.IsSigned():
		return tsSignedInt
	case k.IsUnsigned():
		return tsUnsignedInt
	case k.IsFloat():
		return tsFloat
	case k == String:
		return tsString
	case k == Struct, k == RawUnion:
		return tsStruct
	case k == Array:
		return tsArray
	case k == Slice:
		return tsSlice
	case k == Pointer, k == RawPtr:
		return tsPointer
	case k == Proc:
		return tsProc
	case k == Any:
		return tsAny
	default:
		return 0
	}
}

// SetOf returns the TypeSet of t's base kind.
func SetOf(t *Type) TypeSet {
	b := BaseType(t)
	if b == nil {
		return 0
	}
	return KindSet(b.Kind)
}

// Logical reports whether every type in s can be used in boolean
// context.
func (s TypeSet) Logical() bool { return s != 0 && s&^LogicalType == 0 }

// Numeric reports whether every type in s is numeric.
func (s TypeSet) Numeric() bool { return s != 0 && s&^NumericType == 0 }

// Contains reports whether s and o overlap.
func (s TypeSet) Contains(o TypeSet) bool { return s&o != 0 }
