/*
	Behavioral checks any fs.FS implementation backed by a real filesystem must pass.
	Call these from inside a Convey block with a fresh, empty FS.
*/
package tests

import (
	"os"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/tarfn/fs"
)

func CheckBaseLstat(afs fs.FS) {
	Convey("lstat of the base path should work", func() {
		stat, err := afs.LStat(fs.RelPath{})
		So(err, ShouldBeNil)
		So(stat.Type, ShouldEqual, fs.Type_Dir)
	})
}

func CheckMkdirLstatRoundtrip(afs fs.FS) {
	Convey("mkdir and lstat should roundtrip", func() {
		d1 := fs.MustRelPath("d1")
		So(afs.Mkdir(d1, 0755), ShouldBeNil)
		stat, err := afs.LStat(d1)
		So(err, ShouldBeNil)
		So(stat.Type, ShouldEqual, fs.Type_Dir)
		So(stat.Perms, ShouldEqual, fs.Perms(0755))
	})
}

func CheckDeepMkdirError(afs fs.FS) {
	Convey("deep mkdir should error", func() {
		d1d2 := fs.MustRelPath("d1/d2")
		So(afs.Mkdir(d1d2, 0755), errcat.ErrorShouldHaveCategory, fs.ErrNotExists)
		_, err := afs.LStat(d1d2)
		So(err, errcat.ErrorShouldHaveCategory, fs.ErrNotExists)
	})
}

func CheckMklinkLstatRoundtrip(afs fs.FS) {
	Convey("mklink and lstat should roundtrip", func() {
		l1 := fs.MustRelPath("l1")
		So(afs.Mklink(l1, "./target"), ShouldBeNil)
		stat, err := afs.LStat(l1)
		So(err, ShouldBeNil)
		So(stat.Type, ShouldEqual, fs.Type_Symlink)
		So(stat.Linkname, ShouldEqual, "./target")
	})
}

func CheckHardlinks(afs fs.FS) {
	Convey("hardlinks share content with their target", func() {
		So(makeFile(afs, fs.MustRelPath("orig"), "body"), ShouldBeNil)
		So(afs.Mkhardlink(fs.MustRelPath("twin"), fs.MustRelPath("orig")), ShouldBeNil)
		stat, err := afs.LStat(fs.MustRelPath("twin"))
		So(err, ShouldBeNil)
		So(stat.Type, ShouldEqual, fs.Type_File)
		So(stat.Size, ShouldEqual, 4)
	})
}

func CheckSymlinks(afs fs.FS) {
	Convey("symlink handling", func() {
		Convey("opening a symlink itself is refused", func() {
			So(makeFile(afs, fs.MustRelPath("target"), "body"), ShouldBeNil)
			So(afs.Mklink(fs.MustRelPath("l1"), "./target"), ShouldBeNil)
			So(makeFile(afs, fs.MustRelPath("l1"), "clobber"), errcat.ErrorShouldHaveCategory, fs.ErrRecursion)
			stat, err := afs.LStat(fs.MustRelPath("target"))
			So(err, ShouldBeNil)
			So(stat.Size, ShouldEqual, 4)
		})
		Convey("cyclic symlinks are detected", func() {
			So(afs.Mklink(fs.MustRelPath("a"), "./b"), ShouldBeNil)
			So(afs.Mklink(fs.MustRelPath("b"), "./a"), ShouldBeNil)
			So(afs.Mkdir(fs.MustRelPath("a/x"), 0755), errcat.ErrorShouldHaveCategory, fs.ErrRecursion)
		})
	})
}

func CheckPerniciousSymlinks(afs fs.FS) {
	Convey("absolute symlinks resolve inside the base path", func() {
		So(afs.Mkdir(fs.MustRelPath("etc"), 0755), ShouldBeNil)
		So(afs.Mklink(fs.MustRelPath("lnk"), "/etc"), ShouldBeNil)
		So(makeFile(afs, fs.MustRelPath("lnk/passwd"), "nope"), ShouldBeNil)
		stat, err := afs.LStat(fs.MustRelPath("etc/passwd"))
		So(err, ShouldBeNil)
		So(stat.Type, ShouldEqual, fs.Type_File)
	})
	Convey("upward symlinks clamp at the base path", func() {
		So(afs.Mklink(fs.MustRelPath("up"), "../../../.."), ShouldBeNil)
		So(afs.Mkdir(fs.MustRelPath("up/x"), 0755), ShouldBeNil)
		stat, err := afs.LStat(fs.MustRelPath("x"))
		So(err, ShouldBeNil)
		So(stat.Type, ShouldEqual, fs.Type_Dir)
	})
}

func CheckOpsTraversingSymlinks(afs fs.FS) {
	Convey("mkdir through a symlinked parent lands in the target", func() {
		So(afs.Mkdir(fs.MustRelPath("real"), 0755), ShouldBeNil)
		So(afs.Mklink(fs.MustRelPath("via"), "real"), ShouldBeNil)
		So(afs.Mkdir(fs.MustRelPath("via/sub"), 0755), ShouldBeNil)
		stat, err := afs.LStat(fs.MustRelPath("real/sub"))
		So(err, ShouldBeNil)
		So(stat.Type, ShouldEqual, fs.Type_Dir)
	})
	Convey("paths going up are refused", func() {
		So(afs.Mkdir(fs.MustRelPath("../escape"), 0755), errcat.ErrorShouldHaveCategory, fs.ErrBreakout)
	})
}

func makeFile(afs fs.FS, path fs.RelPath, body string) error {
	f, err := afs.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write([]byte(body))
	return err
}
