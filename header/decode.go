package header

import (
	"time"

	"github.com/polydawn/tarfn/identity"
)

/*
	Decode turns one raw block into an Entry.

	Decode never fails.  The checksum verdict is reported in
	Entry.ChecksumValid and also returned, and it's the caller's job to
	decide what a bad checksum means: on a block whose name is empty
	(such as the all-zero blocks at the end of an archive) it means
	"clean end", and on anything else it means corruption.

	If ids is non-nil, non-empty user and group names are looked up with it,
	and a successful lookup overrides the numeric id from the header.
*/
func Decode(b *Block, ids identity.Resolver) (Entry, bool) {
	e := Entry{
		Format:   b.Format(),
		Linkname: ParseString(b.LinkName()),
		Mode:     uint32(ParseOctal(b.Mode())),
		Size:     ParseOctal(b.Size()),
		ModTime:  time.Unix(ParseOctal(b.ModTime()), 0).UTC(),
		Device:   PackDevice(ParseOctal(b.DevMajor()), ParseOctal(b.DevMinor())),
		Uid:      int(ParseOctal(b.Uid())),
		Gid:      int(ParseOctal(b.Gid())),
		Uname:    ParseString(b.UserName()),
		Gname:    ParseString(b.GroupName()),
		Type:     Type(b.TypeFlag()[0]),
	}

	// Ustar splits long paths across the prefix and name fields.
	if prefix := ParseString(b.Prefix()); e.Format == FormatUstar && prefix != "" {
		e.Name = prefix + "/" + ParseString(b.Name())
	} else {
		e.Name = ParseString(b.Name())
	}

	if ids != nil {
		if e.Uname != "" {
			if uid, ok := ids.LookupUser(e.Uname); ok {
				e.Uid = uid
			}
		}
		if e.Gname != "" {
			if gid, ok := ids.LookupGroup(e.Gname); ok {
				e.Gid = gid
			}
		}
	}

	e.ChecksumValid = ParseOctal(b.Chksum()) == b.Checksum()
	return e, e.ChecksumValid
}
