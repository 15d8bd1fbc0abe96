package vm

import (
	"github.com/latticelang/lattice/ssa"
	"github.com/latticelang/lattice/types"
)

// binaryOp implements spec §4.2 "BinaryOp". Comparisons are evaluated
// per operand type rather than the documented source bug (spec §9
// "Comparison BinaryOp": "the source always returns true with a TODO...
// flagged as a known source bug" -- fixed here).
func (m *VirtualMachine) binaryOp(f *Frame, op ssa.BinOp, x, y Value, typ *types.Type) Value {
	base := types.BaseType(typ)
	if base != nil && base.Kind == types.Array {
		n := len(x.Composite)
		out := make([]Value, n)
		for i := 0; i < n; i++ {
			out[i] = m.binaryOp(f, op, x.Composite[i], y.Composite[i], base.Elem)
		}
		return Value{Kind: KComposite, Composite: out}
	}

	switch op {
	case ssa.BinEql, ssa.BinNeq, ssa.BinLss, ssa.BinLeq, ssa.BinGtr, ssa.BinGeq:
		return m.compare(op, x, y, base)
	}

	if x.Kind == KF32 {
		return F32Value(floatArith32(op, x.F32, y.F32))
	}
	if x.Kind == KF64 {
		return F64Value(floatArith64(op, x.F64, y.F64))
	}

	signed := base != nil && base.Kind.IsSigned()
	width := uint64(64)
	if base != nil && base.Kind.IsInteger() {
		width = m.Layout.IntSize(base.Kind) * 8
	}
	return Int64Value(intArith(op, x.Int64, y.Int64, signed, width))
}

func (m *VirtualMachine) compare(op ssa.BinOp, x, y Value, base *types.Type) Value {
	switch {
	case x.Kind == KF32:
		return BoolValue(cmpFloat(op, float64(x.F32), float64(y.F32)))
	case x.Kind == KF64:
		return BoolValue(cmpFloat(op, x.F64, y.F64))
	case x.Kind == KPtr:
		return BoolValue(cmpUint(op, x.Ptr, y.Ptr))
	case x.Kind == KComposite:
		return BoolValue(compositeEqual(x, y) == (op == ssa.BinEql))
	default:
		if base != nil && base.Kind.IsUnsigned() {
			return BoolValue(cmpUint(op, uint64(x.Int64), uint64(y.Int64)))
		}
		return BoolValue(cmpInt(op, x.Int64, y.Int64))
	}
}

func compositeEqual(a, b Value) bool {
	if len(a.Composite) != len(b.Composite) {
		return false
	}
	for i := range a.Composite {
		av, bv := a.Composite[i], b.Composite[i]
		if av.Kind != bv.Kind {
			return false
		}
		switch av.Kind {
		case KF32:
			if av.F32 != bv.F32 {
				return false
			}
		case KF64:
			if av.F64 != bv.F64 {
				return false
			}
		case KPtr:
			if av.Ptr != bv.Ptr {
				return false
			}
		case KInt64:
			if av.Int64 != bv.Int64 {
				return false
			}
		case KComposite:
			if !compositeEqual(av, bv) {
				return false
			}
		}
	}
	return true
}

func cmpFloat(op ssa.BinOp, x, y float64) bool {
	switch op {
	case ssa.BinEql:
		return x == y
	case ssa.BinNeq:
		return x != y
	case ssa.BinLss:
		return x < y
	case ssa.BinLeq:
		return x <= y
	case ssa.BinGtr:
		return x > y
	case ssa.BinGeq:
		return x >= y
	default:
		return false
	}
}

func cmpInt(op ssa.BinOp, x, y int64) bool {
	switch op {
	case ssa.BinEql:
		return x == y
	case ssa.BinNeq:
		return x != y
	case ssa.BinLss:
		return x < y
	case ssa.BinLeq:
		return x <= y
	case ssa.BinGtr:
		return x > y
	case ssa.BinGeq:
		return x >= y
	default:
		return false
	}
}

func cmpUint(op ssa.BinOp, x, y uint64) bool {
	switch op {
	case ssa.BinEql:
		return x == y
	case ssa.BinNeq:
		return x != y
	case ssa.BinLss:
		return x < y
	case ssa.BinLeq:
		return x <= y
	case ssa.BinGtr:
		return x > y
	case ssa.BinGeq:
		return x >= y
	default:
		return false
	}
}

func floatArith32(op ssa.BinOp, x, y float32) float32 {
	switch op {
	case ssa.BinAdd:
		return x + y
	case ssa.BinSub:
		return x - y
	case ssa.BinMul:
		return x * y
	case ssa.BinQuo:
		return x / y
	default:
		return 0
	}
}

func floatArith64(op ssa.BinOp, x, y float64) float64 {
	switch op {
	case ssa.BinAdd:
		return x + y
	case ssa.BinSub:
		return x - y
	case ssa.BinMul:
		return x * y
	case ssa.BinQuo:
		return x / y
	default:
		return 0
	}
}

// intArith evaluates an integer arithmetic/bitwise op at the given
// signedness and bit width (spec §4.2: "Division and modulus must
// respect signedness and width... Shifts are logical on unsigned,
// arithmetic on signed right shift").
func intArith(op ssa.BinOp, x, y int64, signed bool, width uint64) int64 {
	mask := uint64(1)<<width - 1
	if width >= 64 {
		mask = ^uint64(0)
	}
	ux, uy := uint64(x)&mask, uint64(y)&mask
	switch op {
	case ssa.BinAdd:
		return truncSigned(ux+uy, width, signed)
	case ssa.BinSub:
		return truncSigned(ux-uy, width, signed)
	case ssa.BinMul:
		return truncSigned(ux*uy, width, signed)
	case ssa.BinQuo:
		if signed {
			return truncSigned(uint64(x/y), width, signed)
		}
		return int64(ux / uy)
	case ssa.BinRem:
		if signed {
			return x % y
		}
		return int64(ux % uy)
	case ssa.BinAnd:
		return truncSigned(ux&uy, width, signed)
	case ssa.BinOr:
		return truncSigned(ux|uy, width, signed)
	case ssa.BinXor:
		return truncSigned(ux^uy, width, signed)
	case ssa.BinAndNot:
		return truncSigned(ux&^uy, width, signed)
	case ssa.BinShl:
		return truncSigned(ux<<uint(uy), width, signed)
	case ssa.BinShr:
		if signed {
			return x >> uint(uy)
		}
		return int64(ux >> uint(uy))
	default:
		return 0
	}
}

func truncSigned(u uint64, width uint64, signed bool) int64 {
	if width < 64 {
		mask := uint64(1)<<width - 1
		u &= mask
		if signed && u&(1<<(width-1)) != 0 {
			return int64(u | ^mask)
		}
	}
	return int64(u)
}
