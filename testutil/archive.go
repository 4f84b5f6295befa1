package testutil

import (
	"bytes"

	"github.com/polydawn/tarfn/header"
)

/*
	ArchiveBuilder assembles tar streams in memory for tests.
	Encoding problems panic; fixtures are expected to be well-formed
	unless a test corrupts them on purpose with Raw.
*/
type ArchiveBuilder struct {
	buf bytes.Buffer
}

func NewArchive() *ArchiveBuilder {
	return &ArchiveBuilder{}
}

// Entry appends a header for e, followed by content padded to a block boundary.
// e.Size is set from the content if it's zero.
func (a *ArchiveBuilder) Entry(e header.Entry, content []byte) *ArchiveBuilder {
	if e.Size == 0 {
		e.Size = int64(len(content))
	}
	if e.Mode == 0 {
		e.Mode = 0644
	}
	blk, err := header.Encode(e)
	if err != nil {
		panic(err)
	}
	a.buf.Write(blk[:])
	a.buf.Write(content)
	if pad := len(content) % header.BlockSize; pad != 0 {
		a.buf.Write(make([]byte, header.BlockSize-pad))
	}
	return a
}

func (a *ArchiveBuilder) File(name string, content string) *ArchiveBuilder {
	return a.Entry(header.Entry{Name: name, Type: header.TypeRegular, Format: header.FormatUstar}, []byte(content))
}

func (a *ArchiveBuilder) Dir(name string) *ArchiveBuilder {
	return a.Entry(header.Entry{Name: name, Mode: 0755, Type: header.TypeDirectory, Format: header.FormatUstar}, nil)
}

func (a *ArchiveBuilder) Symlink(name, target string) *ArchiveBuilder {
	return a.Entry(header.Entry{Name: name, Linkname: target, Mode: 0777, Type: header.TypeSymlink, Format: header.FormatUstar}, nil)
}

func (a *ArchiveBuilder) Hardlink(name, target string) *ArchiveBuilder {
	return a.Entry(header.Entry{Name: name, Linkname: target, Type: header.TypeHardlink, Format: header.FormatUstar}, nil)
}

// Long appends a GNU long-name or long-link marker and its payload.
func (a *ArchiveBuilder) Long(typ header.Type, value string) *ArchiveBuilder {
	blocks, err := header.EncodeLong(typ, value)
	if err != nil {
		panic(err)
	}
	for _, blk := range blocks {
		a.buf.Write(blk[:])
	}
	return a
}

// Raw appends bytes verbatim.
func (a *ArchiveBuilder) Raw(raw []byte) *ArchiveBuilder {
	a.buf.Write(raw)
	return a
}

// End appends the two zero blocks that conventionally close an archive.
func (a *ArchiveBuilder) End() *ArchiveBuilder {
	a.buf.Write(make([]byte, 2*header.BlockSize))
	return a
}

func (a *ArchiveBuilder) Bytes() []byte {
	return a.buf.Bytes()
}
