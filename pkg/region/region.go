// Package region implements a bump-allocating memory arena: many small
// allocations are served out of large pre-acquired regions of memory and
// freed together, rather than one at a time.
//
// A Region is built on one of two interchangeable backends:
// Reserve, which reserves a single contiguous range of virtual address
// space up front and commits it lazily in block-sized steps, and Chunked,
// which grows a linked chain of heap-allocated nodes on demand. Both
// backends share the same bump-allocation arithmetic, the same Push/Pop/
// Temp/Scratch/Merge operations, and the same error-reporting channel; only
// how capacity is grown and released differs.
//
// # Basic usage
//
//	r, err := region.Create(region.Description{MaxSize: 1 << 20})
//	if err.Code != region.None {
//		// handle err
//	}
//	defer r.Destroy()
//
//	buf := r.Push(256)
//	r.Reset() // O(1) bulk reclamation; buf is no longer valid after this
//
// # Thread safety
//
// A Region is confined to a single goroutine: Push, Pop, Realloc,
// Temp, and Reset are not safe to call concurrently on the same Region, and
// nothing in this package takes a lock to prevent that. Scratch and the
// error channel are goroutine-local by design, so separate goroutines never
// contend over them.
package region

import (
	"unsafe"

	"github.com/flier/region/internal/debug"
)

// Kind selects which backend a Region uses.
type Kind int

const (
	// Reserve backs a Region with a single contiguous virtual-memory
	// reservation, committed lazily in Description.BlockSize steps.
	Reserve Kind = iota
	// Chunked backs a Region with a linked chain of heap-allocated nodes,
	// growing by spawning a new node on overflow.
	Chunked
)

// PtrWidth is the default alignment applied to every push when a
// Description leaves Align unset.
const PtrWidth = int(unsafe.Sizeof(uintptr(0)))

// MinPos is the reserved prefix, in bytes, at the start of a Reserve-backend
// arena, conceptually where a self-hosted handle would otherwise live.
// Region itself stays in ordinary garbage-collected memory instead of
// inside the raw mmap'd pages — embedding live Go pointers (error
// callbacks, the Platform value) in memory the garbage collector does not
// scan is unsound. MinPos is kept anyway as dead reserved space excluded
// from every push, so Pos/Size/BlockSize/commit-position arithmetic stays
// consistent whether or not that space is ever used.
const MinPos = 64

// constPageSize is the compile-time page size used for the chunked
// backend's size rounding, even on platforms whose real page size
// differs.
const constPageSize = 4096

// Description configures a new Region. The zero value requests
// every default: Align becomes PtrWidth, BlockSize becomes
// ceil_to_page(MaxSize/8), and ErrorCallback becomes a no-op sink. With a
// zero MaxSize, a Chunked Region is created but every non-empty Push fails
// with OutOfMemory; a Reserve Region cannot reserve zero bytes, so Create
// fails with InitFailed.
type Description struct {
	// MaxSize is the upper bound on total addressable bytes. Rounded up to
	// a multiple of the page size.
	MaxSize uint64

	// BlockSize is the growth/commit granularity. Zero requests
	// ceil_to_page(MaxSize/8); the result is always rounded up to a power
	// of two page multiple.
	BlockSize uint32

	// Align is the default alignment applied to every push. Zero requests
	// PtrWidth. Must be a power of two if set explicitly.
	Align uint32

	// ErrorCallback is invoked once per error raised on the resulting
	// Region. Nil requests NoopCallback.
	ErrorCallback Callback

	// Kind selects the backend. The zero value is Reserve.
	Kind Kind

	// Platform overrides the virtual-memory backend used by Reserve-kind
	// arenas. Nil requests DefaultPlatform.
	Platform Platform

	// Heap overrides the heap allocator used by Chunked-kind arenas. Nil
	// requests DefaultHeap.
	Heap Heap
}

// node is a single bump region in the chunked backend's node chain.
type node struct {
	prev *node
	data []byte
	pos  uint64
}

// Region is a bump allocator over one of two backends. The zero value is
// not ready to use; construct one with Create.
type Region struct {
	pos       uint64
	size      uint64
	blockSize uint32
	align     uint32

	kind Kind

	// Reserve-backend state.
	base      []byte
	commitPos uint64
	platform  Platform

	// Chunked-backend state.
	current *node
	heap    Heap

	// lastPtr/lastSize/lastNode track the most recent push so Realloc can
	// grow it in place instead of always copying.
	// lastNode is nil when the backend is Reserve or no push has happened
	// since the last pop.
	lastPtr  unsafe.Pointer
	lastSize uint64
	lastNode *node

	lastError Error
	onError   Callback
}

// alignUp rounds v up to the next multiple of align, which must be a power
// of two.
func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}

func isPow2(v uint64) bool { return v != 0 && v&(v-1) == 0 }

// nextPow2 rounds v up to the next power of two.
func nextPow2(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}

// resolved holds the fully-defaulted parameters common to both backends.
type resolved struct {
	maxSize   uint64
	blockSize uint32
	align     uint32
	callback  Callback
}

func resolveDescription(desc Description, pageSize uint32) resolved {
	cb := desc.ErrorCallback
	if cb == nil {
		cb = NoopCallback
	}

	maxSize := alignUp(desc.MaxSize, uint64(pageSize))

	blockSize := uint64(desc.BlockSize)
	if blockSize == 0 {
		blockSize = maxSize / 8
	}
	blockSize = alignUp(blockSize, uint64(pageSize))
	if blockSize == 0 {
		blockSize = uint64(pageSize)
	}

	align := desc.Align
	if align == 0 {
		align = uint32(PtrWidth)
	}
	debug.Assert(isPow2(uint64(align)), "region: align must be a power of two, got %d", align)

	return resolved{
		maxSize:   maxSize,
		blockSize: nextPow2(uint32(min(blockSize, uint64(^uint32(0))))),
		align:     align,
		callback:  cb,
	}
}

// Create allocates a new Region per desc. On failure it returns a nil Region
// and a non-None Error; the error is also delivered to desc.ErrorCallback.
func Create(desc Description) (*Region, Error) {
	switch desc.Kind {
	case Chunked:
		return createChunked(desc)
	default:
		return createReserve(desc)
	}
}

// Destroy releases every resource owned by a, rendering it unusable.
func (a *Region) Destroy() {
	switch a.kind {
	case Chunked:
		a.destroyChunked()
	default:
		a.destroyReserve()
	}
}

// Pos returns the next logical write offset.
func (a *Region) Pos() uint64 { return a.pos }

// Size returns the upper bound on total addressable bytes.
func (a *Region) Size() uint64 { return a.size }

// BlockSize returns the growth/commit granularity.
func (a *Region) BlockSize() uint32 { return a.blockSize }

// Align returns the default alignment applied to every push.
func (a *Region) Align() uint32 { return a.align }

// Backend returns which backend a uses.
func (a *Region) Backend() Kind { return a.kind }

// Push allocates size bytes aligned to a.Align() and returns a pointer to
// them, or nil on failure. The memory is uninitialized.
func (a *Region) Push(size uint64) unsafe.Pointer {
	switch a.kind {
	case Chunked:
		return a.pushChunked(size, uint64(a.align))
	default:
		return a.pushReserve(size, uint64(a.align))
	}
}

// pushTight is Push with alignment disabled, used internally by Merge so
// that concatenating sources' live bytes produces a byte-tight copy with
// no inter-source padding.
func (a *Region) pushTight(size uint64) unsafe.Pointer {
	switch a.kind {
	case Chunked:
		return a.pushChunked(size, 1)
	default:
		return a.pushReserve(size, 1)
	}
}

// PushZero is Push followed by zeroing the returned size bytes.
func (a *Region) PushZero(size uint64) unsafe.Pointer {
	p := a.Push(size)
	if p != nil {
		clear(unsafe.Slice((*byte)(p), size))
	}
	return p
}

// Pop releases the most recently pushed n bytes. On underflow it raises
// CannotPopMore and leaves a.Pos() unchanged.
func (a *Region) Pop(n uint64) {
	switch a.kind {
	case Chunked:
		a.popChunked(n)
	default:
		a.popReserve(n)
	}
}

// PopTo rolls a back to an earlier position.
func (a *Region) PopTo(pos uint64) {
	if pos > a.pos {
		raise(a, CannotPopMore, "pop_to target %d is ahead of current position %d", pos, a.pos)
		return
	}
	a.Pop(a.pos - pos)
}

// initialPos is the position a freshly-created Region of this kind starts
// at, and the position Reset returns to.
func (a *Region) initialPos() uint64 {
	if a.kind == Chunked {
		return 0
	}
	return MinPos
}

// Reset rolls a back to its initial position.
func (a *Region) Reset() {
	a.PopTo(a.initialPos())
}

// Bytes views the n bytes at p as a []byte. p must have been returned by a
// Push/PushZero/Realloc on this Region and n must not exceed the size of
// that allocation; the result is only valid until the next Pop/Reset/
// Destroy that crosses p's offset.
func Bytes(p unsafe.Pointer, n uint64) []byte {
	if p == nil || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), n)
}
