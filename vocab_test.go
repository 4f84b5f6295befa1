package tarfn

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/json"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"
)

func TestResultSerialization(t *testing.T) {
	marshal := func(ev Event) string {
		var buf bytes.Buffer
		err := refmt.NewMarshallerAtlased(json.EncodeOptions{}, &buf, Atlas).Marshal(&ev)
		So(err, ShouldBeNil)
		return buf.String()
	}

	Convey("Serializing results:", t, func() {
		Convey("a successful result lists its manifest", func() {
			out := marshal(Event{Result: &Event_Result{
				Entries:  1,
				Manifest: []ManifestEntry{
					{Name: "a/b", Type: "file", Size: 3, Digest: "sha256:abc"},
				},
			}})
			So(out, ShouldContainSubstring, `"entries":1`)
			So(out, ShouldContainSubstring, `"name":"a/b"`)
			So(out, ShouldContainSubstring, `"digest":"sha256:abc"`)
			So(out, ShouldNotContainSubstring, `"error"`)
			So(out, ShouldNotContainSubstring, `"linkname"`)
		})
		Convey("a failed result carries category and details", func() {
			result := &Event_Result{}
			result.SetError(errcat.ErrorDetailed(ErrInoperablePath, "no room", map[string]string{"path": "a"}))
			out := marshal(Event{Result: result})
			So(out, ShouldContainSubstring, `"category":"tarfn-inoperable-path"`)
			So(out, ShouldContainSubstring, `"message":"no room"`)
			So(out, ShouldContainSubstring, `"path":"a"`)
		})
		Convey("an uncategorized error has a blank category", func() {
			result := &Event_Result{}
			result.SetError(fmt.Errorf("disk on fire"))
			So(result.Error.Category, ShouldEqual, "")
			So(result.Error.Message, ShouldEqual, "disk on fire")
		})
		Convey("log events serialize their times as RFC3339", func() {
			out := marshal(Event{Log: &Event_Log{
				Time:  time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
				Level: LogWarn,
				Msg:   "hello",
			}})
			So(out, ShouldContainSubstring, `"time":"2020-01-02T03:04:05Z"`)
			So(out, ShouldContainSubstring, `"msg":"hello"`)
		})
	})
}

func TestExitCodes(t *testing.T) {
	Convey("Exit codes follow error categories", t, func() {
		So(ExitCodeForError(nil), ShouldEqual, ExitSuccess)
		So(ExitCodeForError(errcat.Errorf(ErrUsage, "x")), ShouldEqual, ExitUsage)
		So(ExitCodeForError(errcat.Errorf(ErrSourceUnavailable, "x")), ShouldEqual, ExitSourceUnavailable)
		So(ExitCodeForError(errcat.Errorf(ErrSourceIO, "x")), ShouldEqual, ExitSourceIO)
		for _, cat := range []ErrorCategory{ErrArchiveTruncated, ErrHeaderChecksum, ErrBadHeaderData, ErrBadHeaderField} {
			err := errcat.Errorf(cat, "x")
			So(ExitCodeForError(err), ShouldEqual, ExitArchiveCorrupt)
			So(IsArchiveCorrupt(err), ShouldBeTrue)
		}
		So(IsArchiveCorrupt(errcat.Errorf(ErrSourceIO, "x")), ShouldBeFalse)
		So(ExitCodeForError(errcat.Errorf(ErrInoperablePath, "x")), ShouldEqual, ExitInoperablePath)
		So(ExitCodeForError(errcat.Errorf(ErrCancelled, "x")), ShouldEqual, ExitCancelled)
		So(ExitCodeForError(fmt.Errorf("from some caller's ops")), ShouldEqual, ExitUnknown)
	})
}
