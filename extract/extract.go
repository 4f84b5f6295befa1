/*
	The extraction driver: reads an archive block by block, decodes headers,
	folds GNU long-name and long-link continuations into the entry they
	precede, and sequences calls into an Operations set.

	Symlinks are never created during the main pass.  They're queued, in
	archive order, and only created once every other entry has been handled
	successfully.  That way no entry is ever placed by traversing a symlink
	that the same archive just planted.
*/
package extract

import (
	"context"
	"io"
	"strings"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/tarfn"
	"github.com/polydawn/tarfn/header"
	"github.com/polydawn/tarfn/identity"
	"github.com/polydawn/tarfn/log"
)

/*
	Operations is the set of filesystem mutations the driver calls.

	Each call gets the current entry and may not retain the pointer
	past its return.  Any error returned aborts the extraction, and is
	returned from Extract exactly as given.
*/
type Operations interface {
	// ExtractFile must consume the entry's content from src: Size bytes,
	// plus padding up to the next block boundary.  ReadContent does that.
	ExtractFile(e *header.Entry, src io.Reader) error

	// Mkdir creates a directory.  The name never has a trailing slash.
	Mkdir(e *header.Entry) error

	// Link creates a hardlink at Name pointing to Linkname.
	Link(e *header.Entry) error

	// Symlink creates a symlink at Name with target Linkname.
	// It's only called after all other entries are done.
	Symlink(e *header.Entry) error

	// Mknod creates a character device, block device, or FIFO,
	// as given by the entry's Type, Device, and Mode.
	Mknod(e *header.Entry) error
}

type Options struct {
	// Optionally: used to resolve owner names in headers to ids.
	Identity identity.Resolver

	// Optionally: where to send log events.  Closed when Extract returns.
	Monitor tarfn.Monitor
}

/*
	Extract drives ops over every entry in the archive read from src.

	It returns nil when the archive ends cleanly: either on an end-of-archive
	block (a checksum-invalid block with an empty name) or when src is
	exhausted exactly on a block boundary.

	Errors from src or from malformed archive data carry one of the
	tarfn.Err* categories.  Errors from ops are returned verbatim.
	In either case, symlinks queued so far are not created.

	The context is checked between entries; cancellation yields
	tarfn.ErrCancelled.
*/
func Extract(ctx context.Context, src io.Reader, ops Operations, opts Options) (err error) {
	mon := opts.Monitor
	if mon.Chan != nil {
		defer close(mon.Chan)
	}

	d := &driver{
		src: src,
		ops: ops,
		ids: opts.Identity,
		mon: mon,
	}
	err = d.run(ctx)
	if drainErr := d.drain(err == nil); err == nil {
		err = drainErr
	}
	if err != nil {
		log.ExtractFailed(mon, err)
	}
	return err
}

type driver struct {
	src io.Reader
	ops Operations
	ids identity.Resolver
	mon tarfn.Monitor

	blk      header.Block
	entries  int
	longName pending
	longLink pending
	symlinks []header.Entry
}

// One slot for a long-name or long-link payload awaiting its entry.
type pending struct {
	value string
	set   bool
}

func (d *driver) run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return Errorf(tarfn.ErrCancelled, "cancelled")
		}

		// Read one header block.  Running out of stream right here is a clean end.
		eof, err := readBlock(d.src, &d.blk)
		if err != nil {
			return err
		}
		if eof {
			log.ArchiveEnded(d.mon, d.entries, "end of stream")
			return nil
		}

		// Decode.  A bad checksum is the end marker if the name's empty,
		// and corruption otherwise.
		e, ok := header.Decode(&d.blk, d.ids)
		if !ok {
			if e.Name == "" {
				log.ArchiveEnded(d.mon, d.entries, "end-of-archive block")
				return nil
			}
			return Errorf(tarfn.ErrHeaderChecksum, "header checksum error: entry %q", e.Name)
		}

		// Any real entry consumes (and clears) both pending long fields.
		if !e.Type.IsLongField() {
			if d.longName.set {
				e.Name = d.longName.value
			}
			if d.longLink.set {
				e.Linkname = d.longLink.value
			}
			d.longName, d.longLink = pending{}, pending{}
		}

		if e.Name == "" {
			return Errorf(tarfn.ErrBadHeaderData, "bad header data: entry has an empty name")
		}

		if err := d.dispatch(&e); err != nil {
			return err
		}
	}
}

func (d *driver) dispatch(e *header.Entry) error {
	switch e.Type {
	case header.TypeRegularOld, header.TypeRegular:
		// Old archivers marked directories with a trailing slash on a regular file.
		if !strings.HasSuffix(e.Name, "/") {
			d.entries++
			log.EntryDispatched(d.mon, "extract_file", e)
			return d.ops.ExtractFile(e, d.src)
		}
		fallthrough
	case header.TypeDirectory:
		e.Name = strings.TrimSuffix(e.Name, "/")
		d.entries++
		log.EntryDispatched(d.mon, "mkdir", e)
		return d.ops.Mkdir(e)
	case header.TypeHardlink:
		d.entries++
		log.EntryDispatched(d.mon, "link", e)
		return d.ops.Link(e)
	case header.TypeSymlink:
		d.entries++
		d.symlinks = append(d.symlinks, *e)
		log.SymlinkDeferred(d.mon, e)
		return nil
	case header.TypeCharDevice, header.TypeBlockDevice, header.TypeFIFO:
		d.entries++
		log.EntryDispatched(d.mon, "mknod", e)
		return d.ops.Mknod(e)
	case header.TypeGnuLongName, header.TypeGnuLongLink:
		return d.readLongField(e)
	default:
		return Errorf(tarfn.ErrBadHeaderField, "bad header field: entry %q has unrecognized type %s", e.Name, e.Type)
	}
}

/*
	Reads the payload following a long-name or long-link marker:
	Size bytes spread over whole blocks, the tail of the last block discarded.
	The text ends at the first NUL, if any.  The result replaces whatever
	was pending in that slot.
*/
func (d *driver) readLongField(e *header.Entry) error {
	var buf []byte
	for remaining := e.Size; remaining > 0; remaining -= header.BlockSize {
		eof, err := readBlock(d.src, &d.blk)
		if err != nil {
			return err
		}
		if eof {
			return Errorf(tarfn.ErrArchiveTruncated, "truncated archive: stream ended inside %s payload (%d of %d bytes read)", e.Type, len(buf), e.Size)
		}
		buf = append(buf, d.blk[:min(remaining, header.BlockSize)]...)
	}
	value := header.ParseString(buf)

	slot := &d.longName
	if e.Type == header.TypeGnuLongLink {
		slot = &d.longLink
	}
	if slot.set {
		log.LongFieldDiscarded(d.mon, e.Type, slot.value, value)
	}
	*slot = pending{value, true}
	log.LongFieldPending(d.mon, e.Type, value)
	return nil
}

/*
	Works through the symlink queue in archive order.  If the main pass
	failed, nothing is created.  Otherwise each is created in turn, stopping
	at the first failure.
*/
func (d *driver) drain(ok bool) error {
	queued := d.symlinks
	d.symlinks = nil
	if len(queued) == 0 {
		return nil
	}
	if !ok {
		log.SymlinksDrained(d.mon, 0, len(queued), true)
		return nil
	}
	for i := range queued {
		log.EntryDispatched(d.mon, "symlink", &queued[i])
		if err := d.ops.Symlink(&queued[i]); err != nil {
			log.SymlinksDrained(d.mon, i, len(queued), false)
			return err
		}
	}
	log.SymlinksDrained(d.mon, len(queued), len(queued), false)
	return nil
}

/*
	Reads exactly one block.  Reports eof if the stream had no bytes left at all;
	a partial block is a truncated archive.  Errors from the reader that already
	carry a category are passed through; others are ErrSourceIO.
*/
func readBlock(r io.Reader, blk *header.Block) (eof bool, err error) {
	_, err = io.ReadFull(r, blk[:])
	switch err {
	case nil:
		return false, nil
	case io.EOF:
		return true, nil
	case io.ErrUnexpectedEOF:
		return false, Errorf(tarfn.ErrArchiveTruncated, "truncated archive: partial header block")
	default:
		return false, sourceError(err)
	}
}

func sourceError(err error) error {
	if _, ok := err.(Error); ok {
		return err
	}
	return Errorf(tarfn.ErrSourceIO, "error reading archive: %s", err)
}
