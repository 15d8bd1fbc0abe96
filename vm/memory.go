package vm

import "github.com/latticelang/lattice/internal/memops"

// heapBase partitions the VM's one flat address space (the Ptr field of
// a Value) into two disjoint regions, arena addresses below it and heap
// addresses at or above it, so a single uint64 can
// address either the frame arena or the process heap without extra
// tagging (spec §3 "a stack arena and allocator, a heap allocator").
const heapBase uint64 = 1 << 40

// Arena is the LIFO frame-local stack spec §3/§5 describes: a
// checkpoint is taken on frame push and released on frame pop, freeing
// every Local allocation in one step.
// Grounded on the teacher's span-allocator discipline, generalized here
// to a plain growable byte buffer since the VM's addresses are simulated
// rather than real machine pointers.
type Arena struct {
	buf []byte
}

func NewArena(initialCap int) *Arena {
	return &Arena{buf: make([]byte, 0, initialCap)}
}

// Checkpoint returns the current high-water mark.
func (a *Arena) Checkpoint() int { return len(a.buf) }

// Release truncates the arena back to cp, invalidating every address
// allocated since that checkpoint (spec §3 "frame.stack arena checkpoint
// is released exactly when that frame is popped").
func (a *Arena) Release(cp int) { a.buf = a.buf[:cp] }

// alloc reserves n zero-filled bytes and returns their arena offset,
// which Memory.AllocArena returns unchanged as the VM address (the arena
// region starts at 0).
func (a *Arena) alloc(n uint64) uint64 {
	off := uint64(len(a.buf))
	if n == 0 {
		return off
	}
	grown := make([]byte, n)
	a.buf = append(a.buf, grown...)
	return off
}

func (a *Arena) bytes(off, n uint64) []byte {
	return a.buf[off : off+n]
}

// Heap is the process-heap allocator: append-only, lives for the VM's
// lifetime (spec §3 "globals are heap-owned and live for the VM's
// lifetime").
type Heap struct {
	buf []byte
}

func NewHeap() *Heap { return &Heap{buf: make([]byte, 0, 4096)} }

func (h *Heap) alloc(n uint64) uint64 {
	off := uint64(len(h.buf))
	grown := make([]byte, n)
	h.buf = append(h.buf, grown...)
	return off
}

func (h *Heap) bytes(off, n uint64) []byte {
	return h.buf[off : off+n]
}

// Memory is the VM's unified address space over Arena (addresses below
// heapBase) and Heap (addresses at or above heapBase).
type Memory struct {
	Arena *Arena
	Heap  *Heap
}

func NewMemory() *Memory {
	return &Memory{Arena: NewArena(64 * 1024), Heap: NewHeap()}
}

// AllocArena reserves n bytes in the current frame's arena region.
func (m *Memory) AllocArena(n uint64) uint64 { return m.Arena.alloc(n) }

// AllocHeap reserves n bytes in the heap region; its address never
// aliases an arena address.
func (m *Memory) AllocHeap(n uint64) uint64 { return heapBase + m.Heap.alloc(n) }

func (m *Memory) Bytes(ptr, n uint64) []byte {
	if n == 0 {
		return nil
	}
	if ptr >= heapBase {
		return m.Heap.bytes(ptr-heapBase, n)
	}
	return m.Arena.bytes(ptr, n)
}

// Zero clears n bytes at ptr, routed through memops.ZeroMemory so the
// frame arena's ZeroInit shares that package's zero-fill.
func (m *Memory) Zero(ptr, n uint64) {
	memops.ZeroMemory(m.Bytes(ptr, n))
}
