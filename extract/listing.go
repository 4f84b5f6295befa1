package extract

import (
	"io"

	"github.com/polydawn/tarfn"
	"github.com/polydawn/tarfn/header"
)

var _ Operations = &Listing{}

/*
	Listing is an Operations set that touches nothing.  It records each
	call it receives, in order, and skips over file content.
*/
type Listing struct {
	Calls []Call
}

type Call struct {
	Op    string // One of "extract_file", "mkdir", "link", "symlink", "mknod".
	Entry header.Entry
}

func (l *Listing) ExtractFile(e *header.Entry, src io.Reader) error {
	l.record("extract_file", e)
	return SkipContent(src, e.Size)
}

func (l *Listing) Mkdir(e *header.Entry) error   { l.record("mkdir", e); return nil }
func (l *Listing) Link(e *header.Entry) error    { l.record("link", e); return nil }
func (l *Listing) Symlink(e *header.Entry) error { l.record("symlink", e); return nil }
func (l *Listing) Mknod(e *header.Entry) error   { l.record("mknod", e); return nil }

func (l *Listing) record(op string, e *header.Entry) {
	l.Calls = append(l.Calls, Call{op, *e})
}

// Manifest renders the recorded calls as result entries.
func (l *Listing) Manifest() []tarfn.ManifestEntry {
	out := make([]tarfn.ManifestEntry, 0, len(l.Calls))
	for _, c := range l.Calls {
		me := tarfn.ManifestEntry{
			Name: c.Entry.Name,
			Type: c.Entry.Type.String(),
		}
		switch c.Op {
		case "extract_file":
			me.Size = c.Entry.Size
		case "link", "symlink":
			me.Linkname = c.Entry.Linkname
		}
		out = append(out, me)
	}
	return out
}
