package types

// Layout supplies the target-specific primitive sizes the VM's
// vm_type_size_of/align_of/offset_of queries (spec §4.2) are built from.
// It is implemented by package target's Profile; types itself stays
// target-agnostic so it can be imported by both the checker and the VM
// without pulling in configuration-loading machinery.
type Layout interface {
	PointerSize() uint64
	IntSize(k Kind) uint64   // I8/I16/I32/I64/U8/U16/U32/U64
	FloatSize(k Kind) uint64 // F32/F64
	BigEndian() bool
}

// SizeOf returns the in-memory size, in bytes, of t under l.
func SizeOf(l Layout, t *Type) uint64 {
	b := BaseType(t)
	if b == nil {
		return 0
	}
	switch {
	case b.Kind == Bool:
		return 1
	case b.Kind.IsInteger():
		return l.IntSize(b.Kind)
	case b.Kind.IsFloat():
		return l.FloatSize(b.Kind)
	case b.Kind == String:
		return 2 * l.PointerSize() // (data ptr, length)
	case b.Kind == RawPtr, b.Kind == Pointer, b.Kind == Proc:
		return l.PointerSize()
	case b.Kind == Any:
		return 2 * l.PointerSize() // (type_info ptr, data ptr)
	case b.Kind == Array:
		return SizeOf(l, b.Elem) * uint64(b.Len)
	case b.Kind == Slice:
		return 3 * l.PointerSize() // (data ptr, length, capacity)
	case b.Kind == Struct:
		return structSize(l, b)
	case b.Kind == RawUnion:
		return rawUnionSize(l, b)
	case b.Kind == Union:
		return unionSize(l, b)
	default:
		return 0
	}
}

// AlignOf returns the required alignment, in bytes, of t under l.
func AlignOf(l Layout, t *Type) uint64 {
	b := BaseType(t)
	if b == nil {
		return 1
	}
	switch {
	case b.Kind == Bool:
		return 1
	case b.Kind.IsInteger():
		return l.IntSize(b.Kind)
	case b.Kind.IsFloat():
		return l.FloatSize(b.Kind)
	case b.Kind == String, b.Kind == Any, b.Kind == Slice:
		return l.PointerSize()
	case b.Kind == RawPtr, b.Kind == Pointer, b.Kind == Proc:
		return l.PointerSize()
	case b.Kind == Array:
		return AlignOf(l, b.Elem)
	case b.Kind == Struct, b.Kind == RawUnion:
		return aggregateAlign(l, b.Fields)
	case b.Kind == Union:
		a := l.PointerSize() // discriminant word
		for _, v := range b.Variants {
			if va := AlignOf(l, v); va > a {
				a = va
			}
		}
		return a
	default:
		return 1
	}
}

func align(off, a uint64) uint64 {
	if a == 0 {
		return off
	}
	return (off + a - 1) &^ (a - 1)
}

func aggregateAlign(l Layout, fields []Field) uint64 {
	a := uint64(1)
	for _, f := range fields {
		if fa := AlignOf(l, f.Type); fa > a {
			a = fa
		}
	}
	return a
}

func structSize(l Layout, t *Type) uint64 {
	var off uint64
	for _, f := range t.Fields {
		fa := AlignOf(l, f.Type)
		off = align(off, fa)
		off += SizeOf(l, f.Type)
	}
	return align(off, aggregateAlign(l, t.Fields))
}

func rawUnionSize(l Layout, t *Type) uint64 {
	var size uint64
	for _, f := range t.Fields {
		if fs := SizeOf(l, f.Type); fs > size {
			size = fs
		}
	}
	return align(size, aggregateAlign(l, t.Fields))
}

func unionSize(l Layout, t *Type) uint64 {
	tag := l.PointerSize()
	var payload uint64
	for _, v := range t.Variants {
		if vs := SizeOf(l, v); vs > payload {
			payload = vs
		}
	}
	return align(tag+payload, AlignOf(l, t))
}

// OffsetOf returns the byte offset of the field at fieldIndex within
// t's struct layout (spec §4.2 vm_type_size_of/align_of/offset_of "must
// match what the code generator assumed"). raw_union fields are all at
// offset 0 by definition.
func OffsetOf(l Layout, t *Type, fieldIndex int) uint64 {
	b := BaseType(t)
	if b == nil || fieldIndex < 0 || fieldIndex >= len(b.Fields) {
		return 0
	}
	if b.Kind == RawUnion {
		return 0
	}
	var off uint64
	for i, f := range b.Fields {
		fa := AlignOf(l, f.Type)
		off = align(off, fa)
		if i == fieldIndex {
			return off
		}
		off += SizeOf(l, f.Type)
	}
	return off
}
