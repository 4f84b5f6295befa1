/*
	Filters adjust the metadata of archive entries before they're placed:
	forcing ownership, flattening mtimes, and stripping setuid/setgid/sticky bits.
*/
package filters

import (
	"os"
	"strconv"
	"time"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/tarfn"
	"github.com/polydawn/tarfn/fs"
)

const (
	Keep = -1
	Mine = -2
)

type Filters struct {
	Uid    int        // -1 for "keep", -2 for "mine"
	Gid    int        // -1 for "keep", -2 for "mine"
	Mtime  *time.Time // nil for "keep"
	Sticky bool       // false strips setuid, setgid, and sticky bits

	// Don't attempt to chown at all.  Set this when we lack the privilege to.
	SkipChown bool
}

// Keeps everything exactly as the archive describes it.
var KeepAll = Filters{Uid: Keep, Gid: Keep, Sticky: true}

/*
	Parse filter settings as given on the command line.

	uid and gid may be "keep", "mine", or a non-negative integer;
	blank means "mine".
	mtime may be "keep", "@" followed by a unix timestamp, or an RFC3339 date;
	blank means "keep".
	sticky may be "keep" or "zero"; blank means "zero".

	Errors are ErrUsage.
*/
func Parse(uid, gid, mtime, sticky string) (f Filters, err error) {
	if f.Uid, err = parseId("uid", uid); err != nil {
		return f, err
	}
	if f.Gid, err = parseId("gid", gid); err != nil {
		return f, err
	}

	switch {
	case mtime == "", mtime == "keep":
		f.Mtime = nil
	case mtime[0] == '@':
		ut, err := strconv.ParseInt(mtime[1:], 10, 64)
		if err != nil {
			return f, Errorf(tarfn.ErrUsage, "filter mtime parameter starting with '@' must be unix timestamp integer")
		}
		t := time.Unix(ut, 0).UTC()
		f.Mtime = &t
	default:
		t, err := time.Parse(time.RFC3339, mtime)
		if err != nil {
			return f, Errorf(tarfn.ErrUsage, "filter mtime parameter must be either 'keep', a unix timestamp integer beginning with '@', or an RFC3339 date string")
		}
		t = t.UTC()
		f.Mtime = &t
	}

	switch sticky {
	case "", "zero":
		f.Sticky = false
	case "keep":
		f.Sticky = true
	default:
		return f, Errorf(tarfn.ErrUsage, "filter sticky parameter must be either 'keep' or 'zero'")
	}
	return f, nil
}

func parseId(which, s string) (int, error) {
	switch s {
	case "", "mine":
		return Mine, nil
	case "keep":
		return Keep, nil
	default:
		id, err := strconv.Atoi(s)
		if err != nil || id < 0 {
			return 0, Errorf(tarfn.ErrUsage, "filter %s must be one of 'keep', 'mine', or a positive int", which)
		}
		return id, nil
	}
}

/*
	Mutate the given fmeta handle to apply filters.
*/
func (f Filters) Apply(fmeta *fs.Metadata) {
	// Apply UID.
	switch f.Uid {
	case Keep:
		// pass
	case Mine:
		fmeta.Uid = uint32(os.Getuid())
	default:
		fmeta.Uid = uint32(f.Uid)
	}

	// Apply GID.
	switch f.Gid {
	case Keep:
		// pass
	case Mine:
		fmeta.Gid = uint32(os.Getgid())
	default:
		fmeta.Gid = uint32(f.Gid)
	}

	// Apply Mtime.
	if f.Mtime != nil {
		fmeta.Mtime = *f.Mtime
	}

	// Apply Sticky.
	if !f.Sticky {
		fmeta.Perms &= 0777
	}
}
