// Package exactval implements the compile-time constant representation
// spec.md's glossary calls ExactValue, plus a stable hash over it. It is
// shared by the checker (hash_exact_value, for the match "seen"
// multimap) and by ssa/vm (constant operand materialization), grounded
// on the teacher's vm/interphash.go siphash-over-boxed-values pattern.
package exactval

import (
	"encoding/binary"
	"math"

	"github.com/dchest/siphash"
)

// Kind tags the dynamic shape of a Value.
type Kind int

const (
	Invalid Kind = iota
	Bool
	Integer
	Float
	String
	Pointer
	Compound
)

// Value is a compile-time-known constant. Compound holds either an
// array's elements or a struct's fields in source order; Named
// distinguishes a struct literal's field names from an array's
// positional elements (Named is nil for arrays).
type Value struct {
	Kind  Kind
	I     int64
	F     float64
	S     string
	P     uint64
	Elems []Value
	Named []string // parallel to Elems when this Compound is a struct
}

func Bool_(b bool) Value {
	var i int64
	if b {
		i = 1
	}
	return Value{Kind: Bool, I: i}
}

func Int(i int64) Value     { return Value{Kind: Integer, I: i} }
func Float64(f float64) Value { return Value{Kind: Float, F: f} }
func Str(s string) Value    { return Value{Kind: String, S: s} }
func Ptr(p uint64) Value    { return Value{Kind: Pointer, P: p} }

// siphash key. Fixed and unexported: this hash is used only to bucket
// values for in-process duplicate-case detection, never persisted or
// compared across processes, so a stable process-local key is enough.
const k0, k1 uint64 = 0x6c61747469636500, 0x73656d616e746963 // "lattice\0" / "semantic"

// Hash returns a stable 64-bit digest of v. Equal values (by Equal, not
// by Go's == over the struct, which would also compare slice headers)
// always hash equal; unequal values usually don't, but callers that need
// exactness (spec §4.1 MatchStmt duplicate-case detection) must still
// confirm with Equal after a hash bucket match, per the standard
// hash-then-verify discipline.
func Hash(v Value) uint64 {
	var buf []byte
	buf = appendValue(buf, v)
	return siphash.Hash(k0, k1, buf)
}

func appendValue(buf []byte, v Value) []byte {
	buf = append(buf, byte(v.Kind))
	switch v.Kind {
	case Bool, Integer:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(v.I))
		buf = append(buf, tmp[:]...)
	case Float:
		var tmp [8]byte
		f := v.F
		if f == 0 {
			f = 0 // -0.0 is Equal to +0.0, so both hash as +0.0
		}
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(f))
		buf = append(buf, tmp[:]...)
	case String:
		buf = append(buf, v.S...)
	case Pointer:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], v.P)
		buf = append(buf, tmp[:]...)
	case Compound:
		for i := range v.Elems {
			if i < len(v.Named) {
				buf = append(buf, v.Named[i]...)
			}
			buf = appendValue(buf, v.Elems[i])
		}
	}
	return buf
}

// Equal reports whether a and b denote the same constant value.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Bool, Integer:
		return a.I == b.I
	case Float:
		return a.F == b.F
	case String:
		return a.S == b.S
	case Pointer:
		return a.P == b.P
	case Compound:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			an := ""
			bn := ""
			if i < len(a.Named) {
				an = a.Named[i]
			}
			if i < len(b.Named) {
				bn = b.Named[i]
			}
			if an != bn || !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return true // both Invalid
	}
}
