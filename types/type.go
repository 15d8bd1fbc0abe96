package types

// Field describes one member of a struct or raw_union.
type Field struct {
	Name string
	Type *Type
	// Index is the field's position in source/declaration order; it is
	// what vm_store/vm_load use to select val.composite[Index], and what
	// the checker's "lookup by source order" query returns.
	Index int
	// Public controls whether `using` injection (spec §4.1 UsingStmt)
	// exposes this field from the enclosing type.
	Public bool
}

// Type is the structural type representation the checker and VM share.
// It is a plain struct (not an interface) because the set of shapes is
// closed and the VM's layout queries need direct field access.
type Type struct {
	Kind Kind

	// Named/Pointer/Array/Slice
	Name       string // Named, Union (member types carry their own Name)
	Underlying *Type  // Named
	Elem       *Type  // Pointer, Array, Slice

	// Array
	Len int64

	// Struct, RawUnion
	Fields []Field

	// Union: tagged union member types. A pointer-to-union is the only
	// legal operand of a value-position type match (spec glossary
	// "Union pointer").
	Variants []*Type

	// Proc
	Params   []*Type
	Results  []*Type
	NoReturn bool // Proc: procedure never returns control to its caller
}

// Basic type singletons, shared so Identical can use pointer equality as
// a fast path for the common case.
var (
	TypBool   = &Type{Kind: Bool}
	TypI8     = &Type{Kind: I8}
	TypI16    = &Type{Kind: I16}
	TypI32    = &Type{Kind: I32}
	TypI64    = &Type{Kind: I64}
	TypU8     = &Type{Kind: U8}
	TypU16    = &Type{Kind: U16}
	TypU32    = &Type{Kind: U32}
	TypU64    = &Type{Kind: U64}
	TypF32    = &Type{Kind: F32}
	TypF64    = &Type{Kind: F64}
	TypString = &Type{Kind: String}
	TypRawPtr = &Type{Kind: RawPtr}
	TypAny    = &Type{Kind: Any}
	TypInvalid = &Type{Kind: Invalid}
)

// BaseType unwraps Named layers until a non-Named type is reached (spec
// §2 "base_type unwrap"). A nil input yields nil.
func BaseType(t *Type) *Type {
	for t != nil && t.Kind == Named {
		t = t.Underlying
	}
	return t
}

// Deref returns the pointee type if t (after unwrapping Named) is a
// Pointer, or nil otherwise (spec §2 "pointer deref").
func Deref(t *Type) *Type {
	b := BaseType(t)
	if b == nil || b.Kind != Pointer {
		return nil
	}
	return b.Elem
}

// IsNumeric reports whether base_type(t) is an integer or float kind.
func IsNumeric(t *Type) bool {
	b := BaseType(t)
	return b != nil && (b.Kind.IsInteger() || b.Kind.IsFloat())
}

// IsBool reports whether base_type(t) is bool.
func IsBool(t *Type) bool {
	b := BaseType(t)
	return b != nil && b.Kind == Bool
}

// IsString reports whether base_type(t) is string.
func IsString(t *Type) bool {
	b := BaseType(t)
	return b != nil && b.Kind == String
}

// IsStruct reports whether base_type(t) is a struct.
func IsStruct(t *Type) bool {
	b := BaseType(t)
	return b != nil && b.Kind == Struct
}

// IsRawUnion reports whether base_type(t) is a raw_union.
func IsRawUnion(t *Type) bool {
	b := BaseType(t)
	return b != nil && b.Kind == RawUnion
}

// IsUnion reports whether base_type(t) is a tagged union.
func IsUnion(t *Type) bool {
	b := BaseType(t)
	return b != nil && b.Kind == Union
}

// IsPointer reports whether base_type(t) is a pointer.
func IsPointer(t *Type) bool {
	b := BaseType(t)
	return b != nil && b.Kind == Pointer
}

// IsPointerToUnion reports whether t is a pointer whose pointee
// (after unwrapping) is a union -- the legal operand shape for a
// value-narrowing TypeMatchStmt (spec §4.1).
func IsPointerToUnion(t *Type) bool {
	return IsUnion(Deref(t))
}

// IsArray reports whether base_type(t) is a fixed-size array.
func IsArray(t *Type) bool {
	b := BaseType(t)
	return b != nil && b.Kind == Array
}

// IsSlice reports whether base_type(t) is a slice.
func IsSlice(t *Type) bool {
	b := BaseType(t)
	return b != nil && b.Kind == Slice
}

// IsAny reports whether base_type(t) is the built-in `any` type.
func IsAny(t *Type) bool {
	b := BaseType(t)
	return b != nil && b.Kind == Any
}

// IsProc reports whether base_type(t) is a procedure type.
func IsProc(t *Type) bool {
	b := BaseType(t)
	return b != nil && b.Kind == Proc
}

// FieldByName looks up a struct/raw_union field by name (spec §2 "field
// lookup by name").
func FieldByName(t *Type, name string) (Field, bool) {
	b := BaseType(t)
	if b == nil {
		return Field{}, false
	}
	for _, f := range b.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldsInSourceOrder returns a copy of a struct/raw_union's fields in
// the order Fields stores them, which is source order by construction
// (spec §2 "field lookup by ... source order"). It does not re-sort by
// Field.Index.
func FieldsInSourceOrder(t *Type) []Field {
	b := BaseType(t)
	if b == nil {
		return nil
	}
	out := make([]Field, len(b.Fields))
	copy(out, b.Fields)
	return out
}

// Identical reports whether a and b denote the same type. Named types
// compare by identity (two distinct declarations with identical
// structure are still distinct types), matching the source language's
// nominal typing for declared types; unnamed composite types compare
// structurally.
func Identical(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind == Named || b.Kind == Named {
		// Named types are only identical if they are the same
		// declaration (pointer identity, already checked above).
		return false
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Pointer, Array, Slice:
		if a.Kind == Array && a.Len != b.Len {
			return false
		}
		return Identical(a.Elem, b.Elem)
	case Struct, RawUnion:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || !Identical(a.Fields[i].Type, b.Fields[i].Type) {
				return false
			}
		}
		return true
	case Union:
		if len(a.Variants) != len(b.Variants) {
			return false
		}
		for i := range a.Variants {
			if !Identical(a.Variants[i], b.Variants[i]) {
				return false
			}
		}
		return true
	case Proc:
		if len(a.Params) != len(b.Params) || len(a.Results) != len(b.Results) {
			return false
		}
		for i := range a.Params {
			if !Identical(a.Params[i], b.Params[i]) {
				return false
			}
		}
		for i := range a.Results {
			if !Identical(a.Results[i], b.Results[i]) {
				return false
			}
		}
		return true
	default:
		return true // both basic kinds, already matched above
	}
}
