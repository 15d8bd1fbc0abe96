// Copyright (C) 2023 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package memops implements memory block manipulation primitives used
// by the VM's Memory.Zero to clear local storage (ssa.OpZeroInit) as one
// byte block rather than field by field.
package memops

import (
	"unsafe"
)

type Pointerless interface {
	// TODO: should be constraints.Integer | constraints.Float | a recursive composition of Pointerless, but Go doesn't support this concept.
}

// ZeroMemory fills buf with zeros. CAUTION: must be used only for T not
// containing pointers!
func ZeroMemory[T Pointerless](buf []T) {
	if len(buf) == 0 {
		return
	}
	zeroMemoryPointerless(unsafe.Pointer(unsafe.SliceData(buf)), uintptr(len(buf))*unsafe.Sizeof(buf[0]))
}

// zeroMemoryPointerless clears n bytes starting at ptr. The pack this
// module was distilled from backs this with target-specific assembly;
// that file was not part of the retrieved sources, so this is a plain
// Go byte-at-a-time clear. The exported API (and its callers in vm)
// are unaffected by the swap.
func zeroMemoryPointerless(ptr unsafe.Pointer, n uintptr) {
	b := unsafe.Slice((*byte)(ptr), n)
	for i := range b {
		b[i] = 0
	}
}
