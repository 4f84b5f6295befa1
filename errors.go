package tarfn

import (
	"github.com/warpfork/go-errcat"
)

type ErrorCategory string
type ExitCode int

const (
	ExitSuccess           = ExitCode(0)
	ExitUsage             = ExitCode(1)
	ExitPanic             = ExitCode(2) // Placeholder.  We don't use this.  '2' happens when golang exits due to panic.
	ExitSourceUnavailable = ExitCode(3)
	ExitSourceIO          = ExitCode(4)
	ExitArchiveCorrupt    = ExitCode(6)
	ExitInoperablePath    = ExitCode(7)
	ExitCancelled         = ExitCode(8)
	ExitUnknown           = ExitCode(254) // Errors from a caller-supplied operation set, which carry no category of ours.
)

const (
	ErrUsage             = ErrorCategory("tarfn-usage-error")        // Some piece of user input to a command was invalid and unrunnable.
	ErrSourceUnavailable = ErrorCategory("tarfn-source-unavailable") // The archive source could not be opened at all.
	ErrSourceIO          = ErrorCategory("tarfn-source-io")          // Reading from the byte source failed part way through.
	ErrArchiveTruncated  = ErrorCategory("tarfn-archive-truncated")  // A block (header, long name payload, or content) ended early.
	ErrHeaderChecksum    = ErrorCategory("tarfn-header-checksum")    // "Header checksum error": a header with a name failed its checksum.
	ErrBadHeaderData     = ErrorCategory("tarfn-bad-header-data")    // "Bad header data": a checksum-valid header has an empty name.
	ErrBadHeaderField    = ErrorCategory("tarfn-bad-header-field")   // "Bad header field": the entry type is not one we know.
	ErrInoperablePath    = ErrorCategory("tarfn-inoperable-path")    // Placing an entry on the filesystem failed.
	ErrCancelled         = ErrorCategory("tarfn-cancelled")          // The operation was cancelled.
)

/*
	Map an error to the exit code a command should return for it.
*/
func ExitCodeForError(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	if IsArchiveCorrupt(err) {
		return ExitArchiveCorrupt
	}
	switch errcat.Category(err) {
	case ErrUsage:
		return ExitUsage
	case ErrSourceUnavailable:
		return ExitSourceUnavailable
	case ErrSourceIO:
		return ExitSourceIO
	case ErrInoperablePath:
		return ExitInoperablePath
	case ErrCancelled:
		return ExitCancelled
	default:
		return ExitUnknown
	}
}

/*
	True for any of the categories meaning "the archive bytes are malformed"
	(as opposed to "we couldn't read them" or "we couldn't place them").
*/
func IsArchiveCorrupt(err error) bool {
	switch errcat.Category(err) {
	case ErrArchiveTruncated, ErrHeaderChecksum, ErrBadHeaderData, ErrBadHeaderField:
		return true
	default:
		return false
	}
}
