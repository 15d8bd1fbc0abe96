package vm

import (
	"math"

	"github.com/latticelang/lattice/ssa"
	"github.com/latticelang/lattice/types"
)

// convert implements the ten Conv kinds (spec §4.2 "Conv"). fromType and
// toType drive width/signedness; both are non-nil for every kind except
// ptrtoint/inttoptr/bitcast, which are width-preserving reinterpretation.
func (m *VirtualMachine) convert(f *Frame, kind ssa.ConvKind, v Value, fromType, toType *types.Type) Value {
	from := types.BaseType(fromType)
	to := types.BaseType(toType)
	switch kind {
	case ssa.ConvTrunc:
		toWidth := m.Layout.IntSize(to.Kind) * 8
		return Int64Value(truncSigned(uint64(v.Int64), toWidth, to.Kind.IsSigned()))
	case ssa.ConvZext:
		fromWidth := m.Layout.IntSize(from.Kind) * 8
		mask := uint64(1)<<fromWidth - 1
		if fromWidth >= 64 {
			mask = ^uint64(0)
		}
		return Int64Value(int64(uint64(v.Int64) & mask))
	case ssa.ConvFptrunc:
		return F32Value(float32(v.F64))
	case ssa.ConvFpext:
		return F64Value(float64(v.F32))
	case ssa.ConvFptoui:
		return Int64Value(int64(saturateUint(floatOf(v), m.Layout.IntSize(to.Kind)*8)))
	case ssa.ConvFptosi:
		return Int64Value(saturateInt(floatOf(v), m.Layout.IntSize(to.Kind)*8))
	case ssa.ConvUitofp:
		u := uint64(v.Int64)
		if to.Kind == types.F32 {
			return F32Value(float32(u))
		}
		return F64Value(float64(u))
	case ssa.ConvSitofp:
		if to.Kind == types.F32 {
			return F32Value(float32(v.Int64))
		}
		return F64Value(float64(v.Int64))
	case ssa.ConvPtrtoint:
		return Int64Value(int64(v.Ptr))
	case ssa.ConvInttoptr:
		return PtrValue(uint64(v.Int64))
	case ssa.ConvBitcast:
		return v
	default:
		faultf(f.procName(), "unreachable conv kind %v", kind)
		return Value{}
	}
}

func floatOf(v Value) float64 {
	if v.Kind == KF32 {
		return float64(v.F32)
	}
	return v.F64
}

// saturateInt/saturateUint implement the documented overflow policy for
// fptosi/fptoui (spec §4.2: "overflow is implementation-defined and must
// be documented rather than undefined"): out-of-range floats saturate to
// the destination width's representable min/max, and NaN saturates to 0.
func saturateInt(f float64, width uint64) int64 {
	if math.IsNaN(f) {
		return 0
	}
	maxV := int64(1)<<(width-1) - 1
	minV := -(int64(1) << (width - 1))
	if width >= 64 {
		maxV = math.MaxInt64
		minV = math.MinInt64
	}
	if f >= float64(maxV) {
		return maxV
	}
	if f <= float64(minV) {
		return minV
	}
	return int64(f)
}

func saturateUint(f float64, width uint64) uint64 {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	maxV := uint64(1)<<width - 1
	if width >= 64 {
		maxV = math.MaxUint64
	}
	if f >= float64(maxV) {
		return maxV
	}
	return uint64(f)
}
