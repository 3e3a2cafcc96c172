package region

import (
	"unsafe"
)

// createChunked builds a Region backed by a linked chain of heap-allocated
// nodes, growing by spawning a new node whenever the current one is full.
// The first node is sized to block_size.
func createChunked(desc Description) (*Region, Error) {
	heap := desc.Heap
	if heap == nil {
		heap = DefaultHeap
	}

	resolved := resolveDescription(desc, constPageSize)

	data := heap.Alloc(uint64(resolved.blockSize))
	if data == nil {
		err := Error{Code: MallocFailed, Message: "initial node allocation failed"}
		resolved.callback(err)
		return nil, err
	}

	first := &node{data: data}

	a := &Region{
		kind:      Chunked,
		size:      resolved.maxSize,
		blockSize: resolved.blockSize,
		align:     resolved.align,
		current:   first,
		heap:      heap,
		onError:   resolved.callback,
	}
	return a, Error{}
}

func (a *Region) destroyChunked() {
	for cur := a.current; cur != nil; {
		prev := cur.prev
		a.heap.Free(cur.data)
		cur = prev
	}
	a.current, a.pos, a.size = nil, 0, 0
}

// nodeCapacityFor picks the size of a fresh node able to hold size bytes:
// size rounded up to a's block_size, clamped to what's left of arena.size
// above the tentative (already-advanced) position. Mirrors si_arena.h's
// sia_push: `unclamped_node_size = ALIGN_UP(size, block_size); node_size =
// MIN(unclamped_node_size, arena->_size - arena->_pos)`.
//
// The reference clamps node_size there unconditionally, which can size a
// node smaller than the very push that is about to land in it once the
// cumulative wasted-tail accounting has eaten into arena->_size - arena->_pos
// more than size itself. A Go []byte can't silently overrun the way the
// reference's malloc(node_size) + memcpy(size) can, so floor the result at
// size: the node may end up a few bytes over the nominal remaining budget,
// but that beats handing back a buffer too small for its own first write.
func (a *Region) nodeCapacityFor(size uint64) uint64 {
	unclamped := alignUp(size, uint64(a.blockSize))
	maxNodeSize := a.size - a.pos
	return max(min(unclamped, maxNodeSize), size)
}

// pushChunked mirrors si_arena.h's sia_push for the malloc backend: the
// overflow test is against the arena-wide (cumulative) position and the
// *current* node's size, not against how much room is left locally in the
// node. Once the cumulative position has grown past a node's size, every
// further push against that node overflows immediately, regardless of how
// little of the node's own bytes are actually occupied — this is the
// "wasted tail" accounting spec §9 calls out, counted against arena.pos
// even though those bytes are never written to.
func (a *Region) pushChunked(size, align uint64) unsafe.Pointer {
	if a.pos+size > a.size {
		raise(a, OutOfMemory, "push of %d bytes at position %d exceeds size %d", size, a.pos, a.size)
		return nil
	}

	cur := a.current
	alignedPos := alignUp(cur.pos, align)
	delta := alignedPos - cur.pos
	a.pos += delta + size

	if a.pos >= uint64(len(cur.data)) {
		capNeeded := a.nodeCapacityFor(size)
		data := a.heap.Alloc(capNeeded)
		if data == nil {
			raise(a, MallocFailed, "node allocation of %d bytes failed", capNeeded)
			return nil
		}

		next := &node{prev: cur, data: data, pos: size}
		a.current = next

		a.lastPtr = unsafe.Pointer(&data[0])
		a.lastSize = size
		a.lastNode = next
		return a.lastPtr
	}

	cur.pos = alignedPos + size

	a.lastPtr = unsafe.Pointer(&cur.data[alignedPos])
	a.lastSize = size
	a.lastNode = cur
	return a.lastPtr
}

// growInPlaceChunked extends the most recent chunked-backend push by
// additional bytes, provided it still fits in the node it was carved from.
func (a *Region) growInPlaceChunked(additional uint64) bool {
	cur := a.lastNode
	if cur == nil || cur != a.current {
		return false
	}
	newLocal := cur.pos + additional
	if newLocal > uint64(len(cur.data)) {
		return false
	}
	if a.pos+additional > a.size {
		return false
	}
	cur.pos = newLocal
	a.pos += additional
	return true
}

func (a *Region) popChunked(n uint64) {
	if n > a.pos {
		raise(a, CannotPopMore, "pop of %d bytes exceeds %d live bytes", n, a.pos)
		return
	}

	remaining := n
	for remaining > 0 {
		cur := a.current
		if cur == nil {
			raise(a, CannotPopMore, "pop underflowed the node chain")
			return
		}

		if remaining < cur.pos {
			cur.pos -= remaining
			a.pos -= remaining
			remaining = 0
			continue
		}

		remaining -= cur.pos
		a.pos -= cur.pos

		if cur.prev == nil {
			// Keep the root node alive, just emptied, so future pushes
			// don't need to allocate a first node again.
			cur.pos = 0
			break
		}

		a.current = cur.prev
		a.heap.Free(cur.data)
	}

	a.lastPtr = nil
	a.lastSize = 0
	a.lastNode = nil
}
