/*
	A filesystem that accepts every mutation and remembers nothing.

	Useful for dry runs: an archive can be driven all the way through
	placement logic (path checks, filters, content consumption) without
	touching the host.
*/
package nilfs

import (
	"io"
	"time"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/tarfn/fs"
)

func New() fs.FS {
	return &nilFS{fs.MustAbsolutePath("/-")}
}

type nilFS struct {
	basePath fs.AbsolutePath
}

func (afs *nilFS) BasePath() fs.AbsolutePath {
	return afs.basePath
}

func (afs *nilFS) check(path fs.RelPath) error {
	if path.GoesUp() {
		return Errorf(fs.ErrBreakout, "fs: invalid path %q: must not depart basepath", path)
	}
	return nil
}

func (afs *nilFS) OpenFile(path fs.RelPath, flag int, perms fs.Perms) (fs.File, error) {
	if err := afs.check(path); err != nil {
		return nil, err
	}
	return nilFile{}, nil
}

func (afs *nilFS) Mkdir(path fs.RelPath, perms fs.Perms) error {
	return afs.check(path)
}

func (afs *nilFS) Mklink(path fs.RelPath, target string) error {
	return afs.check(path)
}

func (afs *nilFS) Mkhardlink(path fs.RelPath, target fs.RelPath) error {
	if err := afs.check(target); err != nil {
		return err
	}
	return afs.check(path)
}

func (afs *nilFS) Mkfifo(path fs.RelPath, perms fs.Perms) error {
	return afs.check(path)
}

func (afs *nilFS) MkdevBlock(path fs.RelPath, major int64, minor int64, perms fs.Perms) error {
	return afs.check(path)
}

func (afs *nilFS) MkdevChar(path fs.RelPath, major int64, minor int64, perms fs.Perms) error {
	return afs.check(path)
}

func (afs *nilFS) Lchown(path fs.RelPath, uid uint32, gid uint32) error {
	return afs.check(path)
}

func (afs *nilFS) Chmod(path fs.RelPath, perms fs.Perms) error {
	return afs.check(path)
}

func (afs *nilFS) SetTimesLNano(path fs.RelPath, mtime time.Time, atime time.Time) error {
	return afs.check(path)
}

func (afs *nilFS) SetTimesNano(path fs.RelPath, mtime time.Time, atime time.Time) error {
	return afs.check(path)
}

// LStat always reports not-exists, so callers treat every placement as fresh.
func (afs *nilFS) LStat(path fs.RelPath) (*fs.Metadata, error) {
	if err := afs.check(path); err != nil {
		return nil, err
	}
	return nil, Errorf(fs.ErrNotExists, "nilfs: %s does not exist", path)
}

func (afs *nilFS) Readlink(path fs.RelPath) (string, bool, error) {
	return "", false, afs.check(path)
}

type nilFile struct{}

func (nilFile) Read([]byte) (int, error)     { return 0, io.EOF }
func (nilFile) Write(bs []byte) (int, error) { return len(bs), nil }
func (nilFile) Close() error                 { return nil }
