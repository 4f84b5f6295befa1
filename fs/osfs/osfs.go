package osfs

import (
	"os"
	"strings"
	"syscall"
	"time"

	. "github.com/warpfork/go-errcat"
	"golang.org/x/sys/unix"

	"github.com/polydawn/tarfn/fs"
)

func init() {
	syscall.Umask(0)
}

func New(basePath fs.AbsolutePath) fs.FS {
	return &osFS{basePath}
}

type osFS struct {
	basePath fs.AbsolutePath
}

func (afs *osFS) BasePath() fs.AbsolutePath {
	return afs.basePath
}

func (afs *osFS) OpenFile(path fs.RelPath, flag int, perms fs.Perms) (fs.File, error) {
	rpath, err := afs.realpath(path, false)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(rpath, flag|syscall.O_NOFOLLOW, permsToOs(perms))
	if err != nil {
		return nil, fs.NormalizeIOError(err)
	}
	return f, nil
}

func (afs *osFS) Mkdir(path fs.RelPath, perms fs.Perms) error {
	rpath, err := afs.realpath(path, false)
	if err != nil {
		return err
	}
	err = os.Mkdir(rpath, permsToOs(perms))
	return fs.NormalizeIOError(err)
}

func (afs *osFS) Mklink(path fs.RelPath, target string) error {
	rpath, err := afs.realpath(path, false)
	if err != nil {
		return err
	}
	err = os.Symlink(target, rpath)
	return fs.NormalizeIOError(err)
}

func (afs *osFS) Mkhardlink(path fs.RelPath, target fs.RelPath) error {
	rpath, err := afs.realpath(path, false)
	if err != nil {
		return err
	}
	rtarget, err := afs.realpath(target, false)
	if err != nil {
		return err
	}
	err = os.Link(rtarget, rpath)
	return fs.NormalizeIOError(err)
}

func (afs *osFS) Mkfifo(path fs.RelPath, perms fs.Perms) error {
	rpath, err := afs.realpath(path, false)
	if err != nil {
		return err
	}
	err = unix.Mkfifo(rpath, uint32(perms&07777))
	return fs.NormalizeIOError(err)
}

func (afs *osFS) MkdevBlock(path fs.RelPath, major int64, minor int64, perms fs.Perms) error {
	rpath, err := afs.realpath(path, false)
	if err != nil {
		return err
	}
	mode := uint32(perms&07777) | unix.S_IFBLK
	err = unix.Mknod(rpath, mode, int(unix.Mkdev(uint32(major), uint32(minor))))
	return fs.NormalizeIOError(err)
}

func (afs *osFS) MkdevChar(path fs.RelPath, major int64, minor int64, perms fs.Perms) error {
	rpath, err := afs.realpath(path, false)
	if err != nil {
		return err
	}
	mode := uint32(perms&07777) | unix.S_IFCHR
	err = unix.Mknod(rpath, mode, int(unix.Mkdev(uint32(major), uint32(minor))))
	return fs.NormalizeIOError(err)
}

func (afs *osFS) Lchown(path fs.RelPath, uid uint32, gid uint32) error {
	rpath, err := afs.realpath(path, false)
	if err != nil {
		return err
	}
	err = os.Lchown(rpath, int(uid), int(gid))
	return fs.NormalizeIOError(err)
}

func (afs *osFS) Chmod(path fs.RelPath, perms fs.Perms) error {
	rpath, err := afs.realpath(path, true)
	if err != nil {
		return err
	}
	err = os.Chmod(rpath, permsToOs(perms))
	return fs.NormalizeIOError(err)
}

func (afs *osFS) SetTimesLNano(path fs.RelPath, mtime time.Time, atime time.Time) error {
	rpath, err := afs.realpath(path, false)
	if err != nil {
		return err
	}
	return afs.utimes(rpath, mtime, atime, unix.AT_SYMLINK_NOFOLLOW)
}

func (afs *osFS) SetTimesNano(path fs.RelPath, mtime time.Time, atime time.Time) error {
	rpath, err := afs.realpath(path, true)
	if err != nil {
		return err
	}
	return afs.utimes(rpath, mtime, atime, 0)
}

// Refuses to fall back to lower precision; depends on utimensat (linux 2.6.22 or newer).
func (afs *osFS) utimes(rpath string, mtime time.Time, atime time.Time, flags int) error {
	utimes := []unix.Timespec{
		unix.NsecToTimespec(atime.UnixNano()),
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	if err := unix.UtimesNanoAt(unix.AT_FDCWD, rpath, utimes, flags); err != nil {
		return fs.NormalizeIOError(&os.PathError{Op: "utimensat", Path: rpath, Err: err})
	}
	return nil
}

func (afs *osFS) LStat(path fs.RelPath) (*fs.Metadata, error) {
	rpath, err := afs.realpath(path, false)
	if err != nil {
		return nil, err
	}
	fi, err := os.Lstat(rpath)
	if err != nil {
		return nil, fs.NormalizeIOError(err)
	}
	return afs.convertFileinfo(path, fi)
}

func (afs *osFS) convertFileinfo(path fs.RelPath, fi os.FileInfo) (*fs.Metadata, error) {
	// Copy over the easy 1-to-1 parts.
	fmeta := &fs.Metadata{
		Name:  path,
		Mtime: fi.ModTime(),
	}

	// Munge perms and mode to our types.
	fm := fi.Mode()
	switch fm & (os.ModeType | os.ModeCharDevice) {
	case 0:
		fmeta.Type = fs.Type_File
	case os.ModeDir:
		fmeta.Type = fs.Type_Dir
	case os.ModeSymlink:
		fmeta.Type = fs.Type_Symlink
		// If it's a symlink, get that info.
		//  It's an extra syscall, but we almost always want it.
		target, _, err := afs.readlink(afs.basePath.Join(path).String())
		if err != nil {
			return nil, fs.NormalizeIOError(err)
		}
		fmeta.Linkname = target
	case os.ModeNamedPipe:
		fmeta.Type = fs.Type_NamedPipe
	case os.ModeSocket:
		fmeta.Type = fs.Type_Socket
	case os.ModeDevice:
		fmeta.Type = fs.Type_Device
	case os.ModeDevice | os.ModeCharDevice:
		fmeta.Type = fs.Type_CharDevice
	default:
		return nil, Errorf(fs.ErrUnhandledType, "unknown file mode %s at %s", fm, path)
	}
	fmeta.Perms = fs.Perms(fm.Perm())
	if fm&os.ModeSetuid != 0 {
		fmeta.Perms |= fs.Perms_Setuid
	}
	if fm&os.ModeSetgid != 0 {
		fmeta.Perms |= fs.Perms_Setgid
	}
	if fm&os.ModeSticky != 0 {
		fmeta.Perms |= fs.Perms_Sticky
	}

	// Copy over the size info... but only for file types.
	//  This is "system dependent" for others.
	if fmeta.Type == fs.Type_File {
		fmeta.Size = fi.Size()
	}

	// Munge UID and GID bits, and device numbers if applicable.
	if sys, ok := fi.Sys().(*syscall.Stat_t); ok {
		fmeta.Uid = sys.Uid
		fmeta.Gid = sys.Gid
		if fmeta.Type == fs.Type_Device || fmeta.Type == fs.Type_CharDevice {
			fmeta.Devmajor = int64(unix.Major(uint64(sys.Rdev)))
			fmeta.Devminor = int64(unix.Minor(uint64(sys.Rdev)))
		}
	}

	return fmeta, nil
}

func (afs *osFS) Readlink(path fs.RelPath) (string, bool, error) {
	rpath, err := afs.realpath(path, false)
	if err != nil {
		return "", false, err
	}
	target, isLink, err := afs.readlink(rpath)
	return target, isLink, fs.NormalizeIOError(err)
}

func (afs *osFS) readlink(path string) (string, bool, error) {
	target, err := os.Readlink(path)
	if err == nil {
		return target, true, nil
	}
	if pe, ok := err.(*os.PathError); ok && pe.Err == syscall.EINVAL {
		// EINVAL means "not a symlink".
		// We return this as false and a nil error because it's frequently useful to use
		// the readlink syscall blindly with an lstat first in order to save a syscall.
		return "", false, nil
	}
	return "", false, err
}

// resolves a path.
// resolving a path can have errors traversing things and still return nil error,
//  because failure to resolve the path doesn't necessarily mean you shouldn't try.
// (it does however return real errors in case of ErrRecursion and ErrBreakout.)
func (afs *osFS) realpath(path fs.RelPath, resolveLast bool) (string, error) {
	if path.GoesUp() {
		return "", Errorf(fs.ErrBreakout, "fs: invalid path %q: must not depart basepath", path)
	}
	path, err := afs._realpath(path, resolveLast)
	switch Category(err) {
	case nil, fs.ErrNotExists:
		return afs.BasePath().Join(path).String(), nil
	default:
		return afs.BasePath().Join(path).String(), err
	}
}

func (afs *osFS) _realpath(path fs.RelPath, resolveLast bool) (fs.RelPath, error) {
	if path == (fs.RelPath{}) {
		return path, nil
	}
	segments := strings.Split(path.String(), "/")[1:]
	iLast := len(segments) - 1
	resolved := fs.RelPath{}
	for i, segment := range segments {
		resolved = resolved.Join(fs.MustRelPath(segment))
		if i == iLast && !resolveLast {
			return resolved, nil
		}
		morelink, isLink, err := afs.readlink(afs.BasePath().Join(resolved).String())
		if err != nil {
			// Keep the unresolved remainder; the caller's syscall will report what's wrong.
			rest := strings.Join(segments[i+1:], "/")
			if rest != "" {
				resolved = resolved.Join(fs.MustRelPath(rest))
			}
			return resolved, fs.NormalizeIOError(err)
		}
		if isLink {
			resolved, err = afs.resolveLink(morelink, resolved, map[fs.RelPath]struct{}{})
			if err != nil {
				return resolved, err
			}
		}
	}
	return resolved, nil
}

func (afs *osFS) resolveLink(symlink string, startingAt fs.RelPath, seen map[fs.RelPath]struct{}) (fs.RelPath, error) {
	if _, isSeen := seen[startingAt]; isSeen {
		return startingAt, Errorf(fs.ErrRecursion, "cyclic symlinks detected from %q", startingAt)
	}
	seen[startingAt] = struct{}{}
	segments := strings.Split(symlink, "/")
	path := startingAt
	if segments[0] == "" { // rooted
		path = fs.RelPath{}
		segments = segments[1:]
	} else {
		path = startingAt.Dir() // drop the link node itself
	}
	iLast := len(segments) - 1
	for i, s := range segments {
		// Identity segments can simply be skipped.
		if s == "" || s == "." {
			continue
		}
		// Excessive up segements aren't an error; they simply no-op when already at root.
		if s == ".." && path == (fs.RelPath{}) {
			continue
		}
		// Okay, join the segment and peek at it.
		path = path.Join(fs.MustRelPath(s))
		// Bail on cycles before considering recursion!
		if path == startingAt {
			return startingAt, Errorf(fs.ErrRecursion, "cyclic symlinks detected from %q", startingAt)
		}
		// Check if this is a symlink; if so we must recurse on it.
		morelink, isLink, err := afs.readlink(afs.BasePath().Join(path).String())
		if err != nil {
			if i == iLast && os.IsNotExist(err) {
				return path, nil
			}
			return startingAt, fs.NormalizeIOError(err)
		}
		if isLink {
			path, err = afs.resolveLink(morelink, path, seen)
			if err != nil {
				return startingAt, err
			}
		}
	}
	return path, nil
}

func permsToOs(perms fs.Perms) (mode os.FileMode) {
	mode = os.FileMode(perms & 0777)
	if perms&04000 != 0 {
		mode |= os.ModeSetuid
	}
	if perms&02000 != 0 {
		mode |= os.ModeSetgid
	}
	if perms&01000 != 0 {
		mode |= os.ModeSticky
	}
	return mode
}
