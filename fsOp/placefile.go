package fsOp

import (
	"io"
	"os"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/tarfn/fs"
)

/*
	Places a file on the filesystem.
	Replicates all attributes described in the metadata.

	The path within the filesystem is `fmeta.Name` (conventionally, this means
	the filesystem will join the `fmeta.Name` with the absolute base path
	it was constructed with).

	No changes are allowed to occur outside of the filesystem's base path.
	Hardlinks may not point outside of the base path.
	Symlinks may *point* at paths outside of the base path (because you
	may be about to chroot into this, in which case absolute link paths
	make perfect sense), and invalid symlinks are acceptable -- however
	symlinks may *not* be traversed during any part of `fmeta.Name`; this is
	considered malformed input and will result in an ErrBreakout.

	An existing directory at the path of a directory placement is fine:
	its attributes are simply updated.  Any other existing file is an error.

	Please note that like all filesystem operations within a lightyear of
	symlinks, all validations are best-effort, but are only capable of
	correctness in the absense of concurrent modifications inside the base path.

	Device files *will* be created, with their maj/min numbers.
	This may be considered a security concern; you should whitelist inputs
	if using this to provision a sandbox.
*/
func PlaceFile(afs fs.FS, fmeta fs.Metadata, body io.Reader, skipChown bool) error {
	// First, no part of the parent path may be a symlink.
	if err := checkNoSymlinkParents(afs, fmeta.Name); err != nil {
		return err
	}

	// Fill in the content.  (Attribs come later.)
	switch fmeta.Type {
	case fs.Type_File:
		file, err := afs.OpenFile(fmeta.Name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fmeta.Perms)
		if err != nil {
			return err
		}
		if _, err := io.Copy(file, body); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return fs.NormalizeIOError(err)
		}
	case fs.Type_Dir:
		// The dir may exist; we'll just chown+chmod+chtime it.
		// There is no race-free path through this btw, unless you know of a way to lstat and mkdir in the same syscall.
		if existingFmeta, err := afs.LStat(fmeta.Name); err == nil && existingFmeta.Type == fs.Type_Dir {
			break
		}
		if err := afs.Mkdir(fmeta.Name, fmeta.Perms); err != nil {
			return err
		}
	case fs.Type_Symlink:
		// Linkname can be anything you want.  It continues to be a string parameter rather than
		// any of our normalized `fs.*Path` types because it is perfectly valid (if odd)
		// to store the string ".///" as a symlink target.
		if err := afs.Mklink(fmeta.Name, fmeta.Linkname); err != nil {
			return err
		}
	case fs.Type_NamedPipe:
		if err := afs.Mkfifo(fmeta.Name, fmeta.Perms); err != nil {
			return err
		}
	case fs.Type_Device:
		if err := afs.MkdevBlock(fmeta.Name, fmeta.Devmajor, fmeta.Devminor, fmeta.Perms); err != nil {
			return err
		}
	case fs.Type_CharDevice:
		if err := afs.MkdevChar(fmeta.Name, fmeta.Devmajor, fmeta.Devminor, fmeta.Perms); err != nil {
			return err
		}
	case fs.Type_Hardlink:
		target, err := fs.ParseRelPath(fmeta.Linkname)
		if err != nil {
			return Errorf(Category(err), "invalid hardlink %q -> %q: %s", fmeta.Name, fmeta.Linkname, err)
		}
		if err := checkNoSymlinkParents(afs, target); err != nil {
			return err
		}
		if err := afs.Mkhardlink(fmeta.Name, target); err != nil {
			return err
		}
		// A hardlink shares its target's inode, and so its attributes.  Nothing more to do.
		return nil
	case fs.Type_Socket:
		return Errorf(fs.ErrUnhandledType, "cannot place %q: sockets cannot be materialized", fmeta.Name)
	default:
		return Errorf(fs.ErrUnhandledType, "cannot place %q: unhandled file type %q", fmeta.Name, fmeta.Type)
	}

	// Chown first, since chown can clear setuid/setgid bits that chmod then restores.
	if !skipChown {
		if err := afs.Lchown(fmeta.Name, fmeta.Uid, fmeta.Gid); err != nil {
			return err
		}
	}

	if fmeta.Type == fs.Type_Symlink {
		// need to use LUtimesNano to avoid traverse symlinks
		if err := afs.SetTimesLNano(fmeta.Name, fmeta.Mtime, fs.DefaultAtime); err != nil {
			return err
		}
	} else {
		// do this for everything not a symlink, since there's no such thing as `lchmod` on linux -.-
		if err := afs.Chmod(fmeta.Name, fmeta.Perms); err != nil {
			return err
		}
		if err := afs.SetTimesNano(fmeta.Name, fmeta.Mtime, fs.DefaultAtime); err != nil {
			return err
		}
	}
	return nil
}

/*
	Walks from the parent of `path` up to the base, and returns ErrBreakout
	if any of those components is a symlink.  Components that don't exist
	yet are fine.
*/
func checkNoSymlinkParents(afs fs.FS, path fs.RelPath) error {
	if path == (fs.RelPath{}) {
		return nil
	}
	for parent := path.Dir(); parent != (fs.RelPath{}); parent = parent.Dir() {
		target, isSymlink, err := afs.Readlink(parent)
		switch {
		case isSymlink:
			return Errorf(fs.ErrBreakout, "refusing to place %q: parent %q is a symlink (to %q)", path, parent, target)
		case err == nil:
			continue // regular paths are fine.
		case Category(err) == fs.ErrNotExists:
			continue // not existing is fine.
		default:
			return err // any other unknown error means we lack perms or something: reject.
		}
	}
	return nil
}
