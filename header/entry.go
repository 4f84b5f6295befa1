package header

import (
	"fmt"
	"time"
)

/*
	Type is the literal value of a header's type flag byte.

	Decode passes unrecognized values straight through;
	it's up to the consumer to reject them.
*/
type Type byte

const (
	TypeRegularOld  Type = '\x00'
	TypeRegular     Type = '0'
	TypeHardlink    Type = '1'
	TypeSymlink     Type = '2'
	TypeCharDevice  Type = '3'
	TypeBlockDevice Type = '4'
	TypeDirectory   Type = '5'
	TypeFIFO        Type = '6'
	TypeGnuLongLink Type = 'K'
	TypeGnuLongName Type = 'L'
)

func (t Type) String() string {
	switch t {
	case TypeRegularOld, TypeRegular:
		return "file"
	case TypeHardlink:
		return "hardlink"
	case TypeSymlink:
		return "symlink"
	case TypeCharDevice:
		return "chardev"
	case TypeBlockDevice:
		return "blockdev"
	case TypeDirectory:
		return "dir"
	case TypeFIFO:
		return "fifo"
	case TypeGnuLongLink:
		return "longlink"
	case TypeGnuLongName:
		return "longname"
	default:
		return fmt.Sprintf("unknown(%q)", byte(t))
	}
}

// IsLongField reports whether this is a GNU long-name or long-link marker.
func (t Type) IsLongField() bool {
	return t == TypeGnuLongName || t == TypeGnuLongLink
}

/*
	Entry is one decoded archive member.

	Name and Linkname are owned copies; nothing here aliases the block
	it was decoded from, so entries may be kept after the block is reused.
*/
type Entry struct {
	Name     string
	Linkname string
	Mode     uint32
	Size     int64
	ModTime  time.Time // Always UTC, with second precision.
	Device   uint16    // Major in the high byte, minor in the low byte.
	Uid      int
	Gid      int
	Uname    string
	Gname    string
	Type     Type
	Format   Format

	ChecksumValid bool
}

func (e Entry) Major() int64 { return int64(e.Device >> 8) }
func (e Entry) Minor() int64 { return int64(e.Device & 0xff) }

// PackDevice folds major and minor numbers into the single 16-bit device
// value, keeping only the low byte of each.
func PackDevice(major, minor int64) uint16 {
	return uint16((major&0xff)<<8 | (minor & 0xff))
}
