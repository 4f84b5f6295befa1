package filters

import (
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/tarfn"
	"github.com/polydawn/tarfn/fs"
)

func TestParse(t *testing.T) {
	Convey("Parsing filters:", t, func() {
		Convey("blanks get defaults", func() {
			f, err := Parse("", "", "", "")
			So(err, ShouldBeNil)
			So(f, ShouldResemble, Filters{Uid: Mine, Gid: Mine})
		})
		Convey("keep everything", func() {
			f, err := Parse("keep", "keep", "keep", "keep")
			So(err, ShouldBeNil)
			So(f, ShouldResemble, KeepAll)
		})
		Convey("numbers and timestamps", func() {
			f, err := Parse("1000", "0", "@1262304000", "zero")
			So(err, ShouldBeNil)
			So(f.Uid, ShouldEqual, 1000)
			So(f.Gid, ShouldEqual, 0)
			So(*f.Mtime, ShouldResemble, time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC))
		})
		Convey("RFC3339 dates", func() {
			f, err := Parse("", "", "2010-01-01T00:00:00Z", "")
			So(err, ShouldBeNil)
			So(f.Mtime.Unix(), ShouldEqual, 1262304000)
		})
		Convey("garbage is a usage error", func() {
			for _, args := range [][4]string{
				{"-5", "", "", ""},
				{"", "wheel", "", ""},
				{"", "", "@soon", ""},
				{"", "", "yesterday", ""},
				{"", "", "", "maybe"},
			} {
				_, err := Parse(args[0], args[1], args[2], args[3])
				So(err, errcat.ErrorShouldHaveCategory, tarfn.ErrUsage)
			}
		})
	})
}

func TestApply(t *testing.T) {
	Convey("Applying filters:", t, func() {
		orig := fs.Metadata{
			Name:  fs.MustRelPath("x"),
			Type:  fs.Type_File,
			Perms: 04755,
			Uid:   7,
			Gid:   8,
			Mtime: time.Unix(1000, 0).UTC(),
		}
		Convey("KeepAll changes nothing", func() {
			fmeta := orig
			KeepAll.Apply(&fmeta)
			So(fmeta, ShouldResemble, orig)
		})
		Convey("everything can be overridden", func() {
			when := time.Unix(5, 0).UTC()
			fmeta := orig
			Filters{Uid: 1, Gid: 2, Mtime: &when}.Apply(&fmeta)
			So(fmeta.Uid, ShouldEqual, 1)
			So(fmeta.Gid, ShouldEqual, 2)
			So(fmeta.Mtime, ShouldResemble, when)
			So(fmeta.Perms, ShouldEqual, fs.Perms(0755))
		})
		Convey("mine means the current process", func() {
			fmeta := orig
			Filters{Uid: Mine, Gid: Mine, Sticky: true}.Apply(&fmeta)
			So(fmeta.Uid, ShouldEqual, os.Getuid())
			So(fmeta.Gid, ShouldEqual, os.Getgid())
			So(fmeta.Perms, ShouldEqual, fs.Perms(04755))
		})
	})
}
