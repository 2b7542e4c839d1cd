package kernel

import "errors"

var (
	// ErrInvalidArgument reports a bad slot id, thread id or request.
	ErrInvalidArgument = errors.New("kernel: invalid argument")
	// ErrNoChild reports that no child matches a wait.
	ErrNoChild = errors.New("kernel: no such child")
	// ErrStillRunning reports that matching children or threads have not exited.
	ErrStillRunning = errors.New("kernel: still running")
	// ErrStalled is returned by Run when live threads remain but none can run.
	ErrStalled = errors.New("kernel: all live threads are blocked")
	// ErrInvariant reports a corrupt kernel invariant detected by a call.
	ErrInvariant = errors.New("kernel: invariant violation")
	// ErrHalted is returned when Run is called on a kernel that already ran.
	ErrHalted = errors.New("kernel: halted")
	// ErrUnsupported reports an unknown syscall number.
	ErrUnsupported = errors.New("kernel: unsupported syscall")
)
