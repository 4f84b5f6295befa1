/*
	Helper functions for emitting structured logs to a tarfn.Monitor.

	These cover the common lifecycle events of an extraction, and using them
	keeps the common stuff formatted in a common way.
	Callers can of course also write their own log events raw; it is freetext.
*/
package log

import (
	"fmt"
	"strconv"
	"time"

	"github.com/polydawn/tarfn"
	"github.com/polydawn/tarfn/header"
)

func emit(mon tarfn.Monitor, level tarfn.LogLevel, msg string, detail ...[2]string) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- tarfn.Event{
		Log: &tarfn.Event_Log{
			Time:   time.Now(),
			Level:  level,
			Msg:    msg,
			Detail: detail,
		},
	}
}

// Called for every entry handed to an operation (or queued, for symlinks).
func EntryDispatched(mon tarfn.Monitor, op string, e *header.Entry) {
	emit(mon, tarfn.LogDebug,
		fmt.Sprintf("%s %q", op, e.Name),
		[2]string{"type", e.Type.String()},
		[2]string{"format", e.Format.String()},
		[2]string{"size", strconv.FormatInt(e.Size, 10)},
	)
}

// A long-name or long-link payload has been read and awaits the next real entry.
func LongFieldPending(mon tarfn.Monitor, typ header.Type, value string) {
	emit(mon, tarfn.LogDebug,
		fmt.Sprintf("%s pending for next entry", typ),
		[2]string{"value", value},
	)
}

// A pending long field was replaced before any entry consumed it.
func LongFieldDiscarded(mon tarfn.Monitor, typ header.Type, discarded, replacement string) {
	emit(mon, tarfn.LogWarn,
		fmt.Sprintf("%s %q replaced by a later marker before use", typ, discarded),
		[2]string{"discarded", discarded},
		[2]string{"replacement", replacement},
	)
}

func SymlinkDeferred(mon tarfn.Monitor, e *header.Entry) {
	emit(mon, tarfn.LogDebug,
		fmt.Sprintf("symlink %q deferred until end of archive", e.Name),
		[2]string{"target", e.Linkname},
	)
}

// Reports the drain phase: how many queued symlinks were created, and whether
// creation was skipped because the main pass had already failed.
func SymlinksDrained(mon tarfn.Monitor, created, queued int, skipped bool) {
	level := tarfn.LogInfo
	msg := fmt.Sprintf("created %d of %d deferred symlinks", created, queued)
	if skipped {
		level = tarfn.LogWarn
		msg = fmt.Sprintf("skipped creating %d deferred symlinks after failure", queued)
	}
	emit(mon, level, msg,
		[2]string{"created", strconv.Itoa(created)},
		[2]string{"queued", strconv.Itoa(queued)},
	)
}

// Reason is e.g. "end-of-archive block" or "end of stream".
func ArchiveEnded(mon tarfn.Monitor, entries int, reason string) {
	emit(mon, tarfn.LogInfo,
		fmt.Sprintf("archive ended after %d entries: %s", entries, reason),
		[2]string{"entries", strconv.Itoa(entries)},
	)
}

func OwnershipSkipped(mon tarfn.Monitor, name string, uid, gid int) {
	emit(mon, tarfn.LogDebug,
		fmt.Sprintf("not setting ownership of %q", name),
		[2]string{"uid", strconv.Itoa(uid)},
		[2]string{"gid", strconv.Itoa(gid)},
	)
}

// Typically called with an error from extraction, just before it's returned.
func ExtractFailed(mon tarfn.Monitor, err error) {
	emit(mon, tarfn.LogError,
		fmt.Sprintf("extraction failed: %s", err),
		[2]string{"error", err.Error()},
	)
}

func DirectoryInferred(mon tarfn.Monitor, dir string, forEntry string) {
	emit(mon, tarfn.LogInfo,
		fmt.Sprintf("inferring directory %q, which the archive never declared", dir),
		[2]string{"dir", dir},
		[2]string{"entry", forEntry},
	)
}
