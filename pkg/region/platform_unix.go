//go:build unix

package region

import (
	"golang.org/x/sys/unix"

	"github.com/flier/region/internal/debug"
)

// unixPlatform implements Platform on top of mmap/mprotect/madvise/munmap.
type unixPlatform struct{}

func init() {
	DefaultPlatform = unixPlatform{}
}

func (unixPlatform) Reserve(size uint64) []byte {
	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		debug.Log(nil, "reserve", "mmap(%d) failed: %v", size, err)
		return nil
	}
	return b
}

func (unixPlatform) Commit(base []byte, size uint64) bool {
	if size == 0 {
		return true
	}
	if err := unix.Mprotect(base[:size], unix.PROT_READ|unix.PROT_WRITE); err != nil {
		debug.Log(nil, "commit", "mprotect(%d) failed: %v", size, err)
		return false
	}
	return true
}

func (unixPlatform) Decommit(base []byte, size uint64) {
	if size == 0 {
		return
	}
	region := base[:size]
	_ = unix.Mprotect(region, unix.PROT_NONE)
	_ = unix.Madvise(region, unix.MADV_DONTNEED)
}

func (unixPlatform) Release(base []byte, size uint64) {
	if size == 0 {
		return
	}
	_ = unix.Munmap(base[:size])
}

func (unixPlatform) PageSize() uint32 {
	return uint32(unix.Getpagesize())
}
