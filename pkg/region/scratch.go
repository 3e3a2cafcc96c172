package region

import (
	"github.com/timandy/routine"
)

// ScratchCount is the number of scratch arenas kept per goroutine.
const ScratchCount = 2

// Default scratch arena sizing: 64 MiB max size, 256 KiB block size.
const (
	DefaultScratchMaxSize   = 64 << 20
	DefaultScratchBlockSize = 256 << 10
)

// scratchPool and scratchDesc are goroutine-local, using the same
// github.com/timandy/routine mechanism internal/debug uses for its own
// per-goroutine testing hook, instead of a global keyed by goroutine ID.
var (
	scratchPool = routine.NewThreadLocal[*[ScratchCount]*Region]()
	scratchDesc = routine.NewThreadLocal[*Description]()
)

// ScratchSetDesc overrides the Description used to lazily create this
// goroutine's scratch pool. It only takes effect before the pool is first
// created; calling it afterward has no effect on already-created scratch
// arenas.
func ScratchSetDesc(desc Description) {
	scratchDesc.Set(&desc)
}

func scratchArenas() *[ScratchCount]*Region {
	if p := scratchPool.Get(); p != nil {
		return p
	}

	desc := Description{MaxSize: DefaultScratchMaxSize, BlockSize: DefaultScratchBlockSize}
	if d := scratchDesc.Get(); d != nil {
		desc = *d
	}

	p := &[ScratchCount]*Region{}
	for i := range p {
		a, err := Create(desc)
		if err.Code != None {
			raise(nil, InitFailed, "scratch slot %d: %s", i, err.Message)
			continue
		}
		p[i] = a
	}
	scratchPool.Set(p)
	return p
}

// ScratchGet returns a Temp over one of this goroutine's scratch arenas
// that does not alias any of conflicts, lazily creating the pool on first
// use. Callers pass every arena they already hold live so the scratch
// arena handed back is safe to use alongside them.
//
// When more than one slot is free of conflicts, the reference
// implementation's selection among them is unspecified; this port
// resolves that ambiguity by returning the LAST non-conflicting slot, not
// the first.
func ScratchGet(conflicts ...*Region) Temp {
	pool := scratchArenas()

	chosen := -1
	for i, a := range pool {
		if a == nil {
			continue
		}
		conflicted := false
		for _, c := range conflicts {
			if c == a {
				conflicted = true
				break
			}
		}
		if !conflicted {
			chosen = i
		}
	}

	if chosen == -1 {
		raise(nil, InitFailed, "no non-conflicting scratch arena available")
		return Temp{}
	}
	return pool[chosen].TempBegin()
}

// ScratchRelease ends a Temp obtained from ScratchGet, returning its
// scratch arena to the pool.
func ScratchRelease(t Temp) {
	t.End()
}
