package testutil

import (
	"io/ioutil"
	"os"

	"github.com/smartystreets/goconvey/convey"

	"github.com/polydawn/tarfn/fs"
)

/*
	Creates a temp dir, invokes the given func with its path, and removes
	the dir (recursively, best-effort) when the func returns.
*/
func WithTmpdir(fn func(tmpDir fs.AbsolutePath)) {
	dir, err := ioutil.TempDir("", "tarfn-test-")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)
	fn(fs.MustAbsolutePath(dir))
}

func ShouldStat(afs fs.FS, path fs.RelPath) fs.Metadata {
	stat, err := afs.LStat(path)
	convey.So(err, convey.ShouldBeNil)
	stat.Mtime = stat.Mtime.UTC()
	return *stat
}
