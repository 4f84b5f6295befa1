package header

import (
	"fmt"
	"time"
)

const (
	nameLen   = 100
	prefixLen = 155

	// The name GNU tar gives its long-name and long-link marker headers.
	gnuLongMarkerName = "././@LongLink"
)

/*
	Encode renders an entry as a header block in the entry's Format.

	For FormatUstar, a name too long for the name field is split at a
	slash into prefix and name; if no split fits, an error is returned.
	For the other formats, a long name is an error; callers wanting GNU
	long names should emit EncodeLong markers first and then encode the
	entry with a placeholder name.

	Numbers are written as NUL-terminated octal.  A number too large
	for its field is an error.  A zero ModTime is written as the epoch.
*/
func Encode(e Entry) (*Block, error) {
	b := &Block{}
	switch e.Format {
	case FormatUstar:
		copy(b.Magic(), magicUstar)
		prefix, name, err := splitUstarName(e.Name)
		if err != nil {
			return nil, err
		}
		if err := putString(b.Name(), name); err != nil {
			return nil, err
		}
		if err := putString(b.Prefix(), prefix); err != nil {
			return nil, err
		}
	case FormatGnu:
		copy(b.Magic(), magicGnu)
		fallthrough
	default:
		if err := putString(b.Name(), e.Name); err != nil {
			return nil, err
		}
	}
	if err := putString(b.LinkName(), e.Linkname); err != nil {
		return nil, err
	}
	if e.Format != FormatLegacy {
		if err := putString(b.UserName(), e.Uname); err != nil {
			return nil, err
		}
		if err := putString(b.GroupName(), e.Gname); err != nil {
			return nil, err
		}
		if err := putOctal(b.DevMajor(), e.Major()); err != nil {
			return nil, err
		}
		if err := putOctal(b.DevMinor(), e.Minor()); err != nil {
			return nil, err
		}
	}
	for _, f := range []struct {
		field []byte
		n     int64
	}{
		{b.Mode(), int64(e.Mode)},
		{b.Uid(), int64(e.Uid)},
		{b.Gid(), int64(e.Gid)},
		{b.Size(), e.Size},
		{b.ModTime(), unixOrEpoch(e.ModTime)},
	} {
		if err := putOctal(f.field, f.n); err != nil {
			return nil, err
		}
	}
	b.TypeFlag()[0] = byte(e.Type)
	b.SetChecksum()
	return b, nil
}

/*
	EncodeLong renders a GNU long-name (or long-link) marker header plus
	the continuation blocks carrying the value.  The value is stored with
	a trailing NUL, which is counted in the marker's size, the same as GNU tar does.
*/
func EncodeLong(typ Type, value string) ([]Block, error) {
	if !typ.IsLongField() {
		return nil, fmt.Errorf("type %s is not a long field marker", typ)
	}
	payload := append([]byte(value), 0)
	marker, err := Encode(Entry{
		Name:   gnuLongMarkerName,
		Mode:   0644,
		Size:   int64(len(payload)),
		Type:   typ,
		Format: FormatGnu,
	})
	if err != nil {
		return nil, err
	}
	blocks := []Block{*marker}
	for len(payload) > 0 {
		var cont Block
		n := copy(cont[:], payload)
		payload = payload[n:]
		blocks = append(blocks, cont)
	}
	return blocks, nil
}

// SetChecksum computes the checksum and writes it into the checksum field,
// formatted the way tar writers customarily do: six octal digits, NUL, space.
func (b *Block) SetChecksum() {
	copy(b.Chksum(), fmt.Sprintf("%06o\x00 ", b.Checksum()))
}

func splitUstarName(name string) (prefix, rest string, err error) {
	if len(name) <= nameLen {
		return "", name, nil
	}
	// Find a slash leaving at most nameLen bytes after it and at most prefixLen before it.
	for i := len(name) - nameLen - 1; i < len(name); i++ {
		if i < 0 || name[i] != '/' {
			continue
		}
		if i > prefixLen {
			break
		}
		if i == 0 || i == len(name)-1 {
			continue
		}
		return name[:i], name[i+1:], nil
	}
	return "", "", fmt.Errorf("name %q cannot be split to fit the ustar name and prefix fields", name)
}

func unixOrEpoch(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func putString(field []byte, s string) error {
	if len(s) > len(field) {
		return fmt.Errorf("value %q is too long for a %d byte field", s, len(field))
	}
	copy(field, s)
	return nil
}

func putOctal(field []byte, n int64) error {
	// Leave room for the terminating NUL.
	digits := len(field) - 1
	s := fmt.Sprintf("%0*o", digits, n)
	if n < 0 || len(s) > digits {
		return fmt.Errorf("value %d does not fit in a %d byte octal field", n, len(field))
	}
	copy(field, s)
	field[digits] = 0
	return nil
}
