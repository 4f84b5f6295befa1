package fsOp

import (
	"bytes"
	"io/ioutil"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/tarfn/fs"
	"github.com/polydawn/tarfn/fs/osfs"
	"github.com/polydawn/tarfn/testutil"
)

func TestPlaceFile(t *testing.T) {
	Convey("PlaceFile suite:", t, func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			afs := osfs.New(tmpDir)
			Convey("Simple file placements should work...", func() {
				Convey("Placing a file with read bits should work", func() {
					fsErr := PlaceFile(afs, fs.Metadata{
						Name:  fs.MustRelPath("thing"),
						Type:  fs.Type_File,
						Perms: 0644,
					}, bytes.NewBuffer([]byte("abc\n")), true)
					So(fsErr, ShouldBeNil)
					bs, err := ioutil.ReadFile(tmpDir.Join(fs.MustRelPath("thing")).String())
					So(err, ShouldBeNil)
					So(string(bs), ShouldResemble, "abc\n")
				})
				Convey("Placing a file with *no* read bits should work", func() {
					fsErr := PlaceFile(afs, fs.Metadata{
						Name:  fs.MustRelPath("thing"),
						Type:  fs.Type_File,
						Perms: 0, // this is a meaningful zero!
					}, bytes.NewBuffer([]byte("abc\n")), true)
					So(fsErr, ShouldBeNil)
					// Skip attempt to read.  If low privilege, will fail.
				})
				Convey("Placing a file twice replaces its content", func() {
					mustPlaceFile(afs, fs.Metadata{Name: fs.MustRelPath("thing"), Type: fs.Type_File, Perms: 0644}, bytes.NewBufferString("long original\n"))
					mustPlaceFile(afs, fs.Metadata{Name: fs.MustRelPath("thing"), Type: fs.Type_File, Perms: 0644}, bytes.NewBufferString("new\n"))
					bs, err := ioutil.ReadFile(tmpDir.Join(fs.MustRelPath("thing")).String())
					So(err, ShouldBeNil)
					So(string(bs), ShouldEqual, "new\n")
				})
				Convey("File placements missing parent dirs should fail", func() {
					fsErr := PlaceFile(afs, fs.Metadata{
						Name: fs.MustRelPath("deeper/thing"),
						Type: fs.Type_File,
					}, bytes.NewBuffer([]byte("abc\n")), true)
					So(fsErr, errcat.ErrorShouldHaveCategory, fs.ErrNotExists)
				})
			})
			Convey("Simple dir placements should work", func() {
				mtime := time.Unix(1500000000, 0).UTC()
				mustPlaceFile(afs, fs.Metadata{Name: fs.MustRelPath("dir"), Type: fs.Type_Dir, Perms: 0750, Mtime: mtime}, nil)
				stat := testutil.ShouldStat(afs, fs.MustRelPath("dir"))
				So(stat.Type, ShouldEqual, fs.Type_Dir)
				So(stat.Perms, ShouldEqual, fs.Perms(0750))
				So(stat.Mtime, ShouldResemble, mtime)
				Convey("and placing the same dir again just updates it", func() {
					mustPlaceFile(afs, fs.Metadata{Name: fs.MustRelPath("dir"), Type: fs.Type_Dir, Perms: 0700, Mtime: mtime}, nil)
					So(testutil.ShouldStat(afs, fs.MustRelPath("dir")).Perms, ShouldEqual, fs.Perms(0700))
				})
				Convey("but a dir over a file is an error", func() {
					mustPlaceFile(afs, fs.Metadata{Name: fs.MustRelPath("file"), Type: fs.Type_File, Perms: 0644}, nil)
					err := PlaceFile(afs, fs.Metadata{Name: fs.MustRelPath("file"), Type: fs.Type_Dir, Perms: 0755}, nil, true)
					So(err, errcat.ErrorShouldHaveCategory, fs.ErrAlreadyExists)
				})
			})
			Convey("Symlink placements keep their own mtime", func() {
				mtime := time.Unix(1400000000, 0).UTC()
				mustPlaceFile(afs, fs.Metadata{Name: fs.MustRelPath("lnk"), Type: fs.Type_Symlink, Linkname: "/nowhere", Mtime: mtime}, nil)
				stat := testutil.ShouldStat(afs, fs.MustRelPath("lnk"))
				So(stat.Type, ShouldEqual, fs.Type_Symlink)
				So(stat.Linkname, ShouldEqual, "/nowhere")
				So(stat.Mtime, ShouldResemble, mtime)
			})
			Convey("Hardlink placements share content with their target", func() {
				mustPlaceFile(afs, fs.Metadata{Name: fs.MustRelPath("orig"), Type: fs.Type_File, Perms: 0644}, bytes.NewBufferString("shared"))
				mustPlaceFile(afs, fs.Metadata{Name: fs.MustRelPath("alias"), Type: fs.Type_Hardlink, Linkname: "orig"}, nil)
				bs, err := ioutil.ReadFile(tmpDir.Join(fs.MustRelPath("alias")).String())
				So(err, ShouldBeNil)
				So(string(bs), ShouldEqual, "shared")
				Convey("and may not point outside the base", func() {
					err := PlaceFile(afs, fs.Metadata{Name: fs.MustRelPath("esc"), Type: fs.Type_Hardlink, Linkname: "../../etc/passwd"}, nil, true)
					So(err, errcat.ErrorShouldHaveCategory, fs.ErrBreakout)
				})
			})
			Convey("FIFO placements should work", func() {
				mustPlaceFile(afs, fs.Metadata{Name: fs.MustRelPath("pipe"), Type: fs.Type_NamedPipe, Perms: 0600}, nil)
				So(testutil.ShouldStat(afs, fs.MustRelPath("pipe")).Type, ShouldEqual, fs.Type_NamedPipe)
			})
			Convey("Placements that would traverse a symlink should fail", func() {
				So(os.Mkdir(tmpDir.Join(fs.MustRelPath("real")).String(), 0755), ShouldBeNil)
				mustPlaceFile(afs, fs.Metadata{Name: fs.MustRelPath("lnk"), Type: fs.Type_Symlink, Linkname: "./real"}, nil)
				err := PlaceFile(afs, fs.Metadata{Name: fs.MustRelPath("lnk/evil"), Type: fs.Type_File, Perms: 0644}, &bytes.Buffer{}, true)
				So(err, errcat.ErrorShouldHaveCategory, fs.ErrBreakout)
				_, err = os.Lstat(tmpDir.Join(fs.MustRelPath("real/evil")).String())
				So(os.IsNotExist(err), ShouldBeTrue)
				Convey("including deep ones", func() {
					err := PlaceFile(afs, fs.Metadata{Name: fs.MustRelPath("lnk/a/b/c"), Type: fs.Type_Dir, Perms: 0755}, nil, true)
					So(err, errcat.ErrorShouldHaveCategory, fs.ErrBreakout)
				})
			})
			Convey("Sockets can't be placed", func() {
				err := PlaceFile(afs, fs.Metadata{Name: fs.MustRelPath("sock"), Type: fs.Type_Socket}, nil, true)
				So(err, errcat.ErrorShouldHaveCategory, fs.ErrUnhandledType)
			})
		})
	})
}

func mustPlaceFile(afs fs.FS, fmeta fs.Metadata, body *bytes.Buffer) {
	if fmeta.Type == fs.Type_File && body == nil {
		body = &bytes.Buffer{}
	}
	if err := PlaceFile(afs, fmeta, body, true); err != nil {
		panic(err)
	}
}
