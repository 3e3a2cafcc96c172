package region

import (
	"unsafe"
)

// createReserve builds a Region backed by a single virtual-memory
// reservation. The first block_size bytes (capped at the
// rounded max_size) are committed immediately so that MinPos worth of
// bookkeeping space is always usable.
func createReserve(desc Description) (*Region, Error) {
	platform := desc.Platform
	if platform == nil {
		platform = DefaultPlatform
	}

	resolved := resolveDescription(desc, platform.PageSize())

	base := platform.Reserve(resolved.maxSize)
	if base == nil {
		err := Error{Code: InitFailed, Message: "platform reservation failed"}
		resolved.callback(err)
		return nil, err
	}

	commitSize := uint64(resolved.blockSize)
	if commitSize > resolved.maxSize {
		commitSize = resolved.maxSize
	}

	if !platform.Commit(base, commitSize) {
		platform.Release(base, resolved.maxSize)
		err := Error{Code: InitFailed, Message: "initial commit failed"}
		resolved.callback(err)
		return nil, err
	}

	a := &Region{
		kind:      Reserve,
		size:      resolved.maxSize,
		blockSize: resolved.blockSize,
		align:     resolved.align,
		base:      base,
		commitPos: commitSize,
		platform:  platform,
		pos:       MinPos,
		onError:   resolved.callback,
	}
	return a, Error{}
}

func (a *Region) destroyReserve() {
	a.platform.Release(a.base, a.size)
	a.base = nil
	a.pos, a.size, a.commitPos = 0, 0, 0
}

// ensureCommitted grows a's committed range in blockSize steps until at
// least upTo bytes are committed, or reports failure.
func (a *Region) ensureCommitted(upTo uint64) bool {
	if upTo <= a.commitPos {
		return true
	}
	newCommit := a.commitPos
	for newCommit < upTo {
		newCommit += uint64(a.blockSize)
		if newCommit > a.size {
			newCommit = a.size
		}
	}
	if !a.platform.Commit(a.base[a.commitPos:], newCommit-a.commitPos) {
		raise(a, CommitFailed, "commit of %d bytes at offset %d failed", newCommit-a.commitPos, a.commitPos)
		return false
	}
	a.commitPos = newCommit
	return true
}

func (a *Region) pushReserve(size, align uint64) unsafe.Pointer {
	alignedPos := alignUp(a.pos, align)
	newPos := alignedPos + size

	if newPos > a.size {
		raise(a, OutOfMemory, "push of %d bytes at position %d exceeds size %d", size, alignedPos, a.size)
		return nil
	}

	if !a.ensureCommitted(newPos) {
		return nil
	}

	a.pos = newPos
	a.lastPtr = unsafe.Pointer(&a.base[alignedPos])
	a.lastSize = size
	return a.lastPtr
}

// growInPlaceReserve extends the most recent reserve-backend push by
// additional bytes without re-aligning, used by Realloc to grow the last
// allocation contiguously.
func (a *Region) growInPlaceReserve(additional uint64) bool {
	newPos := a.pos + additional
	if newPos > a.size {
		return false
	}
	if !a.ensureCommitted(newPos) {
		return false
	}
	a.pos = newPos
	return true
}

// decommitExcess releases committed pages above the block_size-aligned
// ceiling of a's current position, so popping and resetting a long-lived
// reserve-backed Region actually returns memory to the OS instead of
// holding its high-water mark committed forever.
func (a *Region) decommitExcess() {
	target := alignUp(a.pos, uint64(a.blockSize))
	if target < uint64(a.blockSize) {
		target = uint64(a.blockSize)
	}
	if target >= a.commitPos {
		return
	}
	a.platform.Decommit(a.base[target:], a.commitPos-target)
	a.commitPos = target
}

func (a *Region) popReserve(n uint64) {
	if n > a.pos-MinPos {
		raise(a, CannotPopMore, "pop of %d bytes exceeds %d live bytes", n, a.pos-MinPos)
		return
	}
	a.pos -= n
	a.lastPtr = nil
	a.lastSize = 0
	a.decommitExcess()
}
