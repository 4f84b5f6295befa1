package fs

import (
	"os"
	"syscall"

	. "github.com/warpfork/go-errcat"
)

type ErrorCategory string

const (
	ErrInvalidPath   = ErrorCategory("fs-invalid-path")   // Path is blank or otherwise unusable.
	ErrNotExists     = ErrorCategory("fs-not-exists")     // Path does not exist.
	ErrAlreadyExists = ErrorCategory("fs-already-exists") // Path already exists.
	ErrNotDir        = ErrorCategory("fs-not-dir")        // Path (or a parent) is not a directory.
	ErrPermission    = ErrorCategory("fs-permission")     // Permission denied.
	ErrRecursion     = ErrorCategory("fs-recursion")      // Cyclic symlinks.
	ErrBreakout      = ErrorCategory("fs-breakout")       // Operation would leave (or traverse a symlink out of) the base path.
	ErrUnhandledType = ErrorCategory("fs-unhandled-type") // We can't place that kind of node.
	ErrIOUnknown     = ErrorCategory("fs-io-unknown")     // Catchall.
)

/*
	Normalize an error from the os package (or syscall package) into
	an errcat error with one of the fs package's categories.

	Returns nil for nil.
*/
func NormalizeIOError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(Error); ok {
		return err
	}
	errno := unwrapErrno(err)
	switch {
	case os.IsNotExist(err), errno == syscall.ENOENT:
		return Errorf(ErrNotExists, "%s", err)
	case os.IsExist(err), errno == syscall.EEXIST:
		return Errorf(ErrAlreadyExists, "%s", err)
	case os.IsPermission(err), errno == syscall.EPERM, errno == syscall.EACCES:
		return Errorf(ErrPermission, "%s", err)
	case errno == syscall.ENOTDIR:
		return Errorf(ErrNotDir, "%s", err)
	case errno == syscall.ELOOP:
		return Errorf(ErrRecursion, "%s", err)
	default:
		return Errorf(ErrIOUnknown, "%s", err)
	}
}

func unwrapErrno(err error) syscall.Errno {
	switch e := err.(type) {
	case syscall.Errno:
		return e
	case *os.PathError:
		return unwrapErrno(e.Err)
	case *os.LinkError:
		return unwrapErrno(e.Err)
	case *os.SyscallError:
		return unwrapErrno(e.Err)
	default:
		return 0
	}
}
