//go:build windows

package region

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/flier/region/internal/debug"
)

// windowsPlatform implements Platform on top of the VirtualAlloc/VirtualFree
// family.
type windowsPlatform struct{}

func init() {
	DefaultPlatform = windowsPlatform{}
}

func (windowsPlatform) Reserve(size uint64) []byte {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil || addr == 0 {
		debug.Log(nil, "reserve", "VirtualAlloc(%d, MEM_RESERVE) failed: %v", size, err)
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}

func (windowsPlatform) Commit(base []byte, size uint64) bool {
	if size == 0 {
		return true
	}
	addr := uintptr(unsafe.Pointer(&base[0]))
	_, err := windows.VirtualAlloc(addr, uintptr(size), windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		debug.Log(nil, "commit", "VirtualAlloc(%d, MEM_COMMIT) failed: %v", size, err)
		return false
	}
	return true
}

func (windowsPlatform) Decommit(base []byte, size uint64) {
	if size == 0 {
		return
	}
	addr := uintptr(unsafe.Pointer(&base[0]))
	_ = windows.VirtualFree(addr, uintptr(size), windows.MEM_DECOMMIT)
}

func (windowsPlatform) Release(base []byte, size uint64) {
	if len(base) == 0 {
		return
	}
	addr := uintptr(unsafe.Pointer(&base[0]))
	_ = windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
}

func (windowsPlatform) PageSize() uint32 {
	var si windows.SystemInfo
	windows.GetSystemInfo(&si)
	return si.PageSize
}
