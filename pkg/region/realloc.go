package region

import "unsafe"

// validPtr reports whether the oldSize bytes at ptr lie inside a live
// allocation window of this Region: for Reserve, between MinPos and the
// current position; for Chunked, inside some node's committed range. This
// is a conservative detector of obviously-invalid pointers, not a proof
// that ptr was actually returned by a previous Push.
func (a *Region) validPtr(ptr unsafe.Pointer, size uint64) bool {
	if ptr == nil {
		return false
	}

	if a.kind == Chunked {
		addr := uintptr(ptr)
		for cur := a.current; cur != nil; cur = cur.prev {
			if len(cur.data) == 0 {
				continue
			}
			base := uintptr(unsafe.Pointer(&cur.data[0]))
			end := base + uintptr(len(cur.data))
			if addr >= base && addr < end && addr+uintptr(size) <= end {
				return true
			}
		}
		return false
	}

	base := uintptr(unsafe.Pointer(&a.base[0]))
	offset := uintptr(ptr) - base
	return offset >= MinPos && offset+uintptr(size) <= a.pos
}

// Realloc changes the size of the allocation at ptr from oldSize to
// newSize, returning a pointer to the (possibly moved) memory. The contract:
//
//   - a == nil raises InvalidPtr and returns nil.
//   - ptr == nil behaves as Push(newSize).
//   - newSize == 0 is invalid: it raises InvalidPtr and returns nil.
//   - ptr must lie inside a live allocation window of at least oldSize
//     bytes, or Realloc raises InvalidPtr and returns nil.
//   - newSize <= oldSize is a no-op: ptr is returned unchanged, even
//     though the arena could in principle reclaim the tail.
//   - if ptr is the arena's most recent allocation, it is grown in place
//     when there's room.
//   - otherwise a fresh allocation is pushed and the old bytes are
//     copied over.
func (a *Region) Realloc(ptr unsafe.Pointer, oldSize, newSize uint64) unsafe.Pointer {
	if a == nil {
		raise(nil, InvalidPtr, "realloc called on a nil Region")
		return nil
	}
	if ptr == nil {
		return a.Push(newSize)
	}
	if newSize == 0 {
		raise(a, InvalidPtr, "realloc to zero size")
		return nil
	}
	if !a.validPtr(ptr, oldSize) {
		raise(a, InvalidPtr, "realloc pointer does not lie within a live allocation")
		return nil
	}
	if newSize <= oldSize {
		return ptr
	}

	if ptr == a.lastPtr && a.lastSize == oldSize {
		additional := newSize - oldSize
		grew := false
		switch a.kind {
		case Chunked:
			grew = a.growInPlaceChunked(additional)
		default:
			grew = a.growInPlaceReserve(additional)
		}
		if grew {
			a.lastSize = newSize
			return ptr
		}
	}

	newPtr := a.Push(newSize)
	if newPtr == nil {
		raise(a, ReallocFailed, "failed to grow allocation from %d to %d bytes", oldSize, newSize)
		return nil
	}
	copy(Bytes(newPtr, newSize), Bytes(ptr, oldSize))
	return newPtr
}
