package vm

import (
	"math"

	"github.com/latticelang/lattice/types"
)

// putUint writes the low n bytes of v to dst, honoring the target
// profile's endianness (spec §4.2 "Little-endian is assumed... big-
// endian targets require byte-swap").
func (m *VirtualMachine) putUint(dst uint64, n uint64, v uint64) {
	buf := m.Mem.Bytes(dst, n)
	if m.Layout.BigEndian() {
		for i := uint64(0); i < n; i++ {
			buf[i] = byte(v >> ((n - 1 - i) * 8))
		}
	} else {
		for i := uint64(0); i < n; i++ {
			buf[i] = byte(v >> (i * 8))
		}
	}
}

func (m *VirtualMachine) getUint(ptr uint64, n uint64) uint64 {
	buf := m.Mem.Bytes(ptr, n)
	var v uint64
	if m.Layout.BigEndian() {
		for i := uint64(0); i < n; i++ {
			v = (v << 8) | uint64(buf[i])
		}
	} else {
		for i := uint64(0); i < n; i++ {
			v |= uint64(buf[i]) << (i * 8)
		}
	}
	return v
}

func signExtend(v uint64, n uint64) int64 {
	shift := 64 - n*8
	return int64(v<<shift) >> shift
}

// procAddr assigns (or returns) a stable synthetic address for a proc
// value, so storing then loading a procedure-typed variable round-trips
// within one VM instance.
func (m *VirtualMachine) procAddr(name string) uint64 {
	if a, ok := m.procAddrs[name]; ok {
		return a
	}
	m.nextProcAddr++
	a := m.nextProcAddr
	m.procAddrs[name] = a
	m.procNames[a] = name
	return a
}

// store implements spec §4.2 "Store (vm_store(dst, val, type))".
func (m *VirtualMachine) store(f *Frame, dst uint64, val Value, typ *types.Type) {
	base := types.BaseType(typ)
	if base == nil {
		faultf(f.procName(), "store: untyped destination")
		return
	}
	switch {
	case base.Kind == types.Bool:
		m.putUint(dst, 1, uint64(val.Int64))
	case base.Kind.IsInteger():
		m.putUint(dst, m.Layout.IntSize(base.Kind), uint64(val.Int64))
	case base.Kind == types.F32:
		m.putUint(dst, 4, uint64(math.Float32bits(val.F32)))
	case base.Kind == types.F64:
		m.putUint(dst, 8, math.Float64bits(val.F64))
	case base.Kind == types.RawPtr, base.Kind == types.Pointer:
		m.putUint(dst, m.Layout.PointerSize(), val.Ptr)
	case base.Kind == types.Proc:
		name := ""
		if val.Proc != nil {
			name = val.Proc.Name
		}
		m.putUint(dst, m.Layout.PointerSize(), m.procAddr(name))
	case base.Kind == types.String:
		ps := m.Layout.PointerSize()
		m.putUint(dst, ps, val.Composite[0].Ptr)
		m.putUint(dst+ps, ps, uint64(val.Composite[1].Int64))
	case base.Kind == types.Slice:
		ps := m.Layout.PointerSize()
		m.putUint(dst, ps, val.Composite[0].Ptr)
		m.putUint(dst+ps, ps, uint64(val.Composite[1].Int64))
		m.putUint(dst+2*ps, ps, uint64(val.Composite[2].Int64))
	case base.Kind == types.Any:
		ps := m.Layout.PointerSize()
		m.putUint(dst, ps, val.Composite[0].Ptr)
		m.putUint(dst+ps, ps, val.Composite[1].Ptr)
	case base.Kind == types.Struct:
		for i, fld := range base.Fields {
			if i >= len(val.Composite) {
				break
			}
			m.store(f, dst+types.OffsetOf(m.Layout, base, i), val.Composite[i], fld.Type)
		}
	case base.Kind == types.RawUnion:
		for i, fld := range base.Fields {
			if i >= len(val.Composite) {
				break
			}
			m.store(f, dst, val.Composite[i], fld.Type)
		}
	case base.Kind == types.Array:
		elemSize := types.SizeOf(m.Layout, base.Elem)
		n := len(val.Composite)
		if int64(n) > base.Len {
			n = int(base.Len)
		}
		for i := 0; i < n; i++ {
			m.store(f, dst+uint64(i)*elemSize, val.Composite[i], base.Elem)
		}
	case base.Kind == types.Union:
		ps := m.Layout.PointerSize()
		if len(val.Composite) == 0 {
			return
		}
		tag := val.Composite[0]
		m.putUint(dst, ps, uint64(tag.Int64))
		if len(val.Composite) > 1 && tag.Int64 >= 0 && int(tag.Int64) < len(base.Variants) {
			m.store(f, dst+ps, val.Composite[1], base.Variants[tag.Int64])
		}
	default:
		faultf(f.procName(), "store: unhandled type %s", typ.Kind)
	}
}

// load implements spec §4.2 "Load (vm_load(ptr, type))".
func (m *VirtualMachine) load(f *Frame, ptr uint64, typ *types.Type) Value {
	base := types.BaseType(typ)
	if base == nil {
		faultf(f.procName(), "load: untyped source")
		return Value{}
	}
	switch {
	case base.Kind == types.Bool:
		return BoolValue(m.getUint(ptr, 1) != 0)
	case base.Kind.IsInteger():
		n := m.Layout.IntSize(base.Kind)
		raw := m.getUint(ptr, n)
		if base.Kind.IsSigned() {
			return Int64Value(signExtend(raw, n))
		}
		return Int64Value(int64(raw))
	case base.Kind == types.F32:
		return F32Value(math.Float32frombits(uint32(m.getUint(ptr, 4))))
	case base.Kind == types.F64:
		return F64Value(math.Float64frombits(m.getUint(ptr, 8)))
	case base.Kind == types.RawPtr, base.Kind == types.Pointer:
		return PtrValue(m.getUint(ptr, m.Layout.PointerSize()))
	case base.Kind == types.Proc:
		addr := m.getUint(ptr, m.Layout.PointerSize())
		return Value{Kind: KProc, Proc: &ProcRef{Name: m.procNames[addr]}}
	case base.Kind == types.String:
		ps := m.Layout.PointerSize()
		data := m.getUint(ptr, ps)
		length := m.getUint(ptr+ps, ps)
		return Value{Kind: KComposite, Composite: []Value{PtrValue(data), Int64Value(int64(length))}}
	case base.Kind == types.Slice:
		ps := m.Layout.PointerSize()
		data := m.getUint(ptr, ps)
		length := m.getUint(ptr+ps, ps)
		cap_ := m.getUint(ptr+2*ps, ps)
		return Value{Kind: KComposite, Composite: []Value{PtrValue(data), Int64Value(int64(length)), Int64Value(int64(cap_))}}
	case base.Kind == types.Any:
		ps := m.Layout.PointerSize()
		ti := m.getUint(ptr, ps)
		data := m.getUint(ptr+ps, ps)
		return Value{Kind: KComposite, Composite: []Value{PtrValue(ti), PtrValue(data)}}
	case base.Kind == types.Struct:
		comp := make([]Value, len(base.Fields))
		for i, fld := range base.Fields {
			comp[i] = m.load(f, ptr+types.OffsetOf(m.Layout, base, i), fld.Type)
		}
		return Value{Kind: KComposite, Composite: comp}
	case base.Kind == types.RawUnion:
		comp := make([]Value, len(base.Fields))
		for i, fld := range base.Fields {
			comp[i] = m.load(f, ptr, fld.Type)
		}
		return Value{Kind: KComposite, Composite: comp}
	case base.Kind == types.Array:
		elemSize := types.SizeOf(m.Layout, base.Elem)
		comp := make([]Value, base.Len)
		for i := range comp {
			comp[i] = m.load(f, ptr+uint64(i)*elemSize, base.Elem)
		}
		return Value{Kind: KComposite, Composite: comp}
	case base.Kind == types.Union:
		ps := m.Layout.PointerSize()
		tag := int64(m.getUint(ptr, ps))
		var payload Value
		if tag >= 0 && int(tag) < len(base.Variants) {
			payload = m.load(f, ptr+ps, base.Variants[tag])
		}
		return Value{Kind: KComposite, Composite: []Value{Int64Value(tag), payload}}
	default:
		faultf(f.procName(), "load: unhandled type %s", typ.Kind)
		return Value{}
	}
}
