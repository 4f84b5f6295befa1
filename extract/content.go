package extract

import (
	"io"
	"io/ioutil"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/tarfn"
	"github.com/polydawn/tarfn/header"
)

/*
	ContentReader yields exactly one entry's content from the archive stream:
	Size bytes, then io.EOF.  Close consumes anything left unread, plus the
	padding up to the next block boundary, leaving src positioned at the
	next header.

	If the stream ends early, reads fail with ErrArchiveTruncated.  So does
	io.ErrUnexpectedEOF from src, which is how decompressors report a cut stream.
	Other read errors are ErrSourceIO (unless they already carry a category).
*/
type ContentReader struct {
	src       io.Reader
	remaining int64
	pad       int64
}

func NewContentReader(src io.Reader, size int64) *ContentReader {
	return &ContentReader{
		src:       src,
		remaining: size,
		pad:       padding(size),
	}
}

func (c *ContentReader) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.src.Read(p)
	c.remaining -= int64(n)
	switch {
	case err == io.EOF && c.remaining == 0:
		return n, nil
	case err == io.EOF, err == io.ErrUnexpectedEOF:
		return n, Errorf(tarfn.ErrArchiveTruncated, "truncated archive: content ended with %d bytes missing", c.remaining)
	case err != nil:
		return n, sourceError(err)
	}
	return n, nil
}

func (c *ContentReader) Close() error {
	if c.remaining > 0 {
		if _, err := io.Copy(ioutil.Discard, c); err != nil {
			return err
		}
	}
	if c.pad > 0 {
		n, err := io.CopyN(ioutil.Discard, c.src, c.pad)
		c.pad -= n
		switch {
		case err == io.EOF, err == io.ErrUnexpectedEOF:
			return Errorf(tarfn.ErrArchiveTruncated, "truncated archive: block padding ended with %d bytes missing", c.pad)
		case err != nil:
			return sourceError(err)
		}
	}
	return nil
}

/*
	ReadContent copies exactly size bytes of entry content from src to w,
	then reads and discards the padding up to the next block boundary.

	Stream problems are reported as by ContentReader.
	Errors from w are returned as-is.
*/
func ReadContent(src io.Reader, size int64, w io.Writer) error {
	cr := NewContentReader(src, size)
	if _, err := io.Copy(w, cr); err != nil {
		return err
	}
	return cr.Close()
}

// SkipContent is ReadContent with nowhere to put the bytes.
func SkipContent(src io.Reader, size int64) error {
	return NewContentReader(src, size).Close()
}

func padding(size int64) int64 {
	return (header.BlockSize - size%header.BlockSize) % header.BlockSize
}
