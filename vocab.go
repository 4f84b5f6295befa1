package tarfn

// Types in this file cover the observable surface of an extraction:
// progress/log events sent while running, and the final result.

import (
	"time"

	"github.com/warpfork/go-errcat"
)

/*
	Configuration for what intermediate reports a process should send,
	and slot for the channel the caller wishes them to be sent to.
*/
type Monitor struct {
	// Channel to which events will be sent as the process proceeds.
	// The channel will be closed when the process is done.
	// A nil channel will disable all intermediate reporting.
	Chan chan<- Event
}

/*
	A "union" type of all the kinds of event that may be generated.

	The "Result" message is never sent to Monitor.Chan --
	its values are converted into the function returns --
	but *is* seen in the serial form emitted by the command line.
*/
type Event struct {
	Log    *Event_Log    `refmt:"log,omitempty"`
	Result *Event_Result `refmt:"result,omitempty"`
}

type Event_Log struct {
	Time   time.Time   `refmt:"time"`
	Level  LogLevel    `refmt:"level"`
	Msg    string      `refmt:"msg"`
	Detail [][2]string `refmt:"detail,omitempty"`
}

type LogLevel int8

const (
	LogError = LogLevel(4)
	LogWarn  = LogLevel(3)
	LogInfo  = LogLevel(2)
	LogDebug = LogLevel(1)
)

func (l LogLevel) String() string {
	switch l {
	case LogError:
		return "error"
	case LogWarn:
		return "warn"
	case LogInfo:
		return "info"
	case LogDebug:
		return "debug"
	default:
		return "unknown"
	}
}

type Event_Result struct {
	Entries  int             `refmt:"entries"`
	Manifest []ManifestEntry `refmt:"manifest,omitempty"`
	Error    *ErrorInfo      `refmt:"error,omitempty"`
}

/*
	One placed (or listed) archive member, as reported in results.
*/
type ManifestEntry struct {
	Name     string `refmt:"name"`
	Type     string `refmt:"type"`
	Linkname string `refmt:"linkname,omitempty"`
	Size     int64  `refmt:"size,omitempty"`
	Digest   string `refmt:"digest,omitempty"`
}

/*
	Serializable rendition of an error: category string plus message.
*/
type ErrorInfo struct {
	Category string            `refmt:"category"`
	Message  string            `refmt:"message"`
	Details  map[string]string `refmt:"details,omitempty"`
}

func (r *Event_Result) SetError(err error) {
	if err == nil {
		r.Error = nil
		return
	}
	info := &ErrorInfo{Message: err.Error()}
	if e2, ok := err.(errcat.Error); ok {
		info.Category = categoryString(e2.Category())
		info.Details = e2.Details()
	}
	r.Error = info
}

func categoryString(cat interface{}) string {
	switch c := cat.(type) {
	case ErrorCategory:
		return string(c)
	case interface{ String() string }:
		return c.String()
	case string:
		return c
	default:
		return "unknown"
	}
}
