package fs

import (
	"io"
	"time"
)

/*
	Interface for all primitive functions we expect to be able to perform
	on a filesystem.

	All paths accepted are RelPath types; typically the FS instance
	is constructed with an AbsolutePath, and all further operations are
	joined with that base path.

	Implementations must refuse to operate on any RelPath that GoesUp.
	Intermediate symlinks are resolved within the base path (an absolute
	symlink target is interpreted relative to the base), so no operation
	ever touches anything outside the base path.
*/
type FS interface {
	BasePath() AbsolutePath

	OpenFile(path RelPath, flag int, perms Perms) (File, error)
	Mkdir(path RelPath, perms Perms) error
	Mklink(path RelPath, target string) error
	Mkhardlink(path RelPath, target RelPath) error
	Mkfifo(path RelPath, perms Perms) error
	MkdevBlock(path RelPath, major int64, minor int64, perms Perms) error
	MkdevChar(path RelPath, major int64, minor int64, perms Perms) error

	Lchown(path RelPath, uid uint32, gid uint32) error
	Chmod(path RelPath, perms Perms) error
	SetTimesLNano(path RelPath, mtime time.Time, atime time.Time) error
	SetTimesNano(path RelPath, mtime time.Time, atime time.Time) error

	LStat(path RelPath) (*Metadata, error)
	Readlink(path RelPath) (target string, isSymlink bool, err error)
}

type File interface {
	io.Reader
	io.Writer
	io.Closer
}
