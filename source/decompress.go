package source

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	. "github.com/warpfork/go-errcat"
	"github.com/xi2/xz"

	"github.com/polydawn/tarfn"
	"github.com/polydawn/tarfn/header"
)

type Compression int

const (
	None Compression = iota
	Gzip
	Bzip2
	Xz
	Zstd
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case Xz:
		return "xz"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

var magics = []struct {
	c     Compression
	magic []byte
}{
	{Gzip, []byte{0x1f, 0x8b, 0x08}},
	{Bzip2, []byte{'B', 'Z', 'h'}},
	{Xz, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}},
	{Zstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
}

/*
	Detect the compression of a stream from its first few bytes.
	Anything unrecognized is None; a plain tar starts with a file name.
*/
func Detect(head []byte) Compression {
	for _, m := range magics {
		if bytes.HasPrefix(head, m.magic) {
			return m.c
		}
	}
	return None
}

/*
	Wrap r so that reads yield the decompressed stream, whatever the
	compression (if any) sniffed from its leading bytes.  A stream whose
	first block is already a checksum-valid tar header is taken as plain,
	whatever its first member's name happens to start with.

	Closing the result releases decompressor state; it does not close r.

	May return errors of category:

	  - `tarfn.ErrSourceIO` -- if the leading bytes can't be read
	  - `tarfn.ErrArchiveTruncated` -- if a compression header is cut short or malformed
*/
func Decompress(r io.Reader) (io.ReadCloser, Compression, error) {
	buf := bufio.NewReaderSize(r, 32*1024)
	head, err := buf.Peek(header.BlockSize)
	if err != nil && err != io.EOF {
		return nil, None, Errorf(tarfn.ErrSourceIO, "error reading source: %s", err)
	}
	c := Detect(head)
	if c != None && isTarHeader(head) {
		c = None
	}
	switch c {
	case None:
		return readCloser{buf, nil}, c, nil
	case Gzip:
		gzReader, err := gzip.NewReader(buf)
		if err != nil {
			return nil, c, Errorf(tarfn.ErrArchiveTruncated, "corrupt gzip stream: %s", err)
		}
		return readCloser{gzReader, gzReader.Close}, c, nil
	case Bzip2:
		return readCloser{bzip2.NewReader(buf), nil}, c, nil
	case Xz:
		xzReader, err := xz.NewReader(buf, xz.DefaultDictMax)
		if err != nil {
			return nil, c, Errorf(tarfn.ErrArchiveTruncated, "corrupt xz stream: %s", err)
		}
		return readCloser{xzReader, nil}, c, nil
	case Zstd:
		zstdReader, err := zstd.NewReader(buf)
		if err != nil {
			return nil, c, Errorf(tarfn.ErrArchiveTruncated, "corrupt zstd stream: %s", err)
		}
		return zstdReader.IOReadCloser(), c, nil
	default:
		panic("unreachable")
	}
}

func isTarHeader(head []byte) bool {
	if len(head) < header.BlockSize {
		return false
	}
	var blk header.Block
	copy(blk[:], head)
	_, ok := header.Decode(&blk, nil)
	return ok
}

type readCloser struct {
	io.Reader
	closer func() error
}

func (r readCloser) Close() error {
	if r.closer != nil {
		return r.closer()
	}
	return nil
}
