package region

// Platform is the host virtual-memory interface the reserve/commit backend
// is built on. It mirrors POSIX mmap/mprotect/madvise/munmap
// or the Windows VirtualAlloc family closely enough that either can satisfy
// it directly.
//
// Implementations must be safe to call from a single goroutine at a time;
// Region never calls into Platform concurrently with itself.
type Platform interface {
	// Reserve reserves size bytes of address space without making them
	// accessible. Returns nil on failure.
	Reserve(size uint64) []byte

	// Commit makes [base, base+size) accessible. base must be a slice
	// previously returned by Reserve (or a sub-slice of one). Returns false
	// on failure.
	Commit(base []byte, size uint64) bool

	// Decommit gives [base, base+size) back to the OS without releasing the
	// address space reservation.
	Decommit(base []byte, size uint64)

	// Release gives the entire reservation back to the OS.
	Release(base []byte, size uint64)

	// PageSize returns the host page size. Always a power of two, at least
	// 4096 in practice.
	PageSize() uint32
}

// Heap is the external heap-allocator collaborator used by the chunked
// backend. The default implementation delegates to Go's own runtime
// allocator, which already satisfies the "aligned-to-pointer-width
// allocate, free accepts no-op" contract.
type Heap interface {
	// Alloc allocates size bytes. May return nil.
	Alloc(size uint64) []byte

	// Free releases a block previously returned by Alloc. Accepts nil.
	Free(b []byte)
}

// goHeap is the zero-overhead default Heap: every chunked-backend node lives
// on the Go heap and is reclaimed by the garbage collector once no live
// Region still references it. "Free" only has to drop the reference.
type goHeap struct{}

func (goHeap) Alloc(size uint64) []byte {
	if size == 0 {
		return nil
	}
	return make([]byte, size)
}

func (goHeap) Free(b []byte) {}

// DefaultHeap is the Heap used when a Description leaves Heap unset.
var DefaultHeap Heap = goHeap{}

// DefaultPlatform is the Platform used when a Description leaves Platform
// unset. Exactly one of platform_unix.go, platform_windows.go, or
// platform_other.go is compiled for any given build target, and each
// assigns this variable in its own init().
var DefaultPlatform Platform
