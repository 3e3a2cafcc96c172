package region

import (
	"fmt"
	"os"

	"github.com/timandy/routine"

	"github.com/flier/region/internal/debug"
	"github.com/flier/region/pkg/xerrors"
)

// Code identifies the kind of failure recorded in an Error.
type Code int

const (
	// None means no error is currently recorded.
	None Code = iota
	// InitFailed means a Region could not be created at all.
	InitFailed
	// MallocFailed means the chunked heap backend failed to allocate a node.
	MallocFailed
	// CommitFailed means the reserve/commit backend failed to commit pages.
	CommitFailed
	// OutOfMemory means a push would exceed the arena's Size.
	OutOfMemory
	// CannotPopMore means a pop asked for more bytes than are live.
	CannotPopMore
	// ReallocFailed means Realloc could not grow an allocation in place or
	// by copying.
	ReallocFailed
	// InvalidPtr means a pointer failed validation (Realloc, Merge).
	InvalidPtr
	// MergeFailed means Merge could not complete.
	MergeFailed
)

func (c Code) String() string {
	switch c {
	case None:
		return "None"
	case InitFailed:
		return "InitFailed"
	case MallocFailed:
		return "MallocFailed"
	case CommitFailed:
		return "CommitFailed"
	case OutOfMemory:
		return "OutOfMemory"
	case CannotPopMore:
		return "CannotPopMore"
	case ReallocFailed:
		return "ReallocFailed"
	case InvalidPtr:
		return "InvalidPtr"
	case MergeFailed:
		return "MergeFailed"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Error is the value recorded and delivered on every failure.
// A zero Error (Code == None) means "no error".
type Error struct {
	Code    Code
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("region: %s: %s", e.Code, e.Message)
}

// Callback is invoked exactly once per error event, at the point of
// failure. Callbacks must not panic.
type Callback func(Error)

// NoopCallback discards every error. It is the zero-value behavior when a
// Description's ErrorCallback is left nil.
func NoopCallback(Error) {}

// StderrCallback is the optional default diagnostic sink: it prints the
// error and the stack that raised it to the process's standard error
// stream. Arena-less errors (e.g. from Merge's validation) fall back to
// this when no thread-global callback has been set.
func StderrCallback(err Error) {
	fmt.Fprintf(os.Stderr, "region error %d: %s\n%s", err.Code, err.Message, debug.Stack(3))
}

// globalError and globalCallback are the thread-global (here: goroutine-
// local) error state. github.com/timandy/routine gives real goroutine-local
// storage, the same mechanism internal/debug uses for its own per-goroutine
// testing hook.
var (
	globalError    = routine.NewThreadLocal[*Error]()
	globalCallback = routine.NewThreadLocal[Callback]()
)

// SetGlobalCallback installs a per-goroutine override invoked for errors
// that have no owning arena (e.g. Merge's upfront validation).
func SetGlobalCallback(cb Callback) {
	globalCallback.Set(cb)
}

// GlobalCallback returns the current goroutine's global callback override,
// or nil if none has been set.
func GlobalCallback() Callback {
	return globalCallback.Get()
}

func getGlobalError() Error {
	if p := globalError.Get(); p != nil {
		return *p
	}
	return Error{}
}

func setGlobalError(err Error) {
	globalError.Set(&err)
}

func clearGlobalError() Error {
	prev := getGlobalError()
	globalError.Set(&Error{})
	return prev
}

// raise records err on the arena (if a is non-nil) and on the thread-global
// slot, then invokes the appropriate callback exactly once.
func raise(a *Region, code Code, format string, args ...any) Error {
	err := Error{Code: code, Message: fmt.Sprintf(format, args...)}

	setGlobalError(err)

	debug.Log(nil, "error", "%s: %s", code, err.Message)

	if a != nil {
		a.lastError = err
		cb := a.onError
		if cb == nil {
			cb = NoopCallback
		}
		cb(err)
		return err
	}

	// Arena-less errors (Merge's upfront validation) use the goroutine's
	// global callback override if set, else fall back to the diagnostic
	// sink.
	cb := GlobalCallback()
	if cb == nil {
		cb = StderrCallback
	}
	cb(err)

	return err
}

// GetError returns a's last recorded error (or the thread-global error if
// a is nil) and clears the slot it read from.
func GetError(a *Region) Error {
	if a == nil {
		return clearGlobalError()
	}
	err := a.lastError
	a.lastError = Error{}
	return err
}

// As extracts an Error from anywhere in err's chain, for callers who wrap
// the errors returned by this package (e.g. with fmt.Errorf's %w) before
// propagating them further.
func As(err error) (Error, bool) {
	return xerrors.AsA[Error](err)
}
