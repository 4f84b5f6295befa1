package fsOp

import (
	_ "crypto/sha256"
	"io"
	"os"

	"github.com/opencontainers/go-digest"
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/tarfn/fs"
)

/*
	Scan file attributes into an `fs.Metadata` struct, and return an
	`io.ReadCloser` for the file content.

	The reader is nil if the path is any type other than a file.  If a
	reader is returned, the caller is expected to close it.
*/
func ScanFile(afs fs.FS, path fs.RelPath) (fmeta *fs.Metadata, body io.ReadCloser, err error) {
	fmeta, err = afs.LStat(path)
	if err != nil {
		return fmeta, nil, err
	}
	if fmeta.Type != fs.Type_File {
		return fmeta, nil, nil
	}
	body, err = afs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return fmeta, nil, err
	}
	return fmeta, body, nil
}

/*
	Return the sha256 digest of the content at path, in "sha256:<hex>" form.

	Paths that hold something other than a regular file have no content
	and yield "".  So do paths that don't exist: on a nilfs dry run,
	nothing was ever written.
*/
func DigestFile(afs fs.FS, path fs.RelPath) (string, error) {
	fmeta, body, err := ScanFile(afs, path)
	switch {
	case Category(err) == fs.ErrNotExists:
		return "", nil
	case err != nil:
		return "", err
	case fmeta.Type != fs.Type_File:
		return "", nil
	}
	defer body.Close()
	dgst, err := digest.Canonical.FromReader(body)
	if err != nil {
		return "", fs.NormalizeIOError(err)
	}
	return dgst.String(), nil
}
