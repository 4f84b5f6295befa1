package fs

import (
	"time"
)

type Metadata struct {
	Name     RelPath   // filename
	Type     Type      // type enum
	Perms    Perms     // permission bits
	Uid      uint32    // user id of owner
	Gid      uint32    // group id of owner
	Size     int64     // length in bytes
	Linkname string    // if symlink or hardlink: target name of link
	Devmajor int64     // major number of character or block device
	Devminor int64     // minor number of character or block device
	Mtime    time.Time // modified time
}

type Type string

const (
	Type_Invalid    Type = ""
	Type_File       Type = "F"
	Type_Dir        Type = "D"
	Type_Symlink    Type = "L"
	Type_NamedPipe  Type = "P"
	Type_Socket     Type = "S"
	Type_Device     Type = "B"
	Type_CharDevice Type = "C"
	Type_Hardlink   Type = "H" // Only used by archives; a placed hardlink is indistinguishable from its target.
)

func (t Type) String() string {
	switch t {
	case Type_File:
		return "file"
	case Type_Dir:
		return "dir"
	case Type_Symlink:
		return "symlink"
	case Type_NamedPipe:
		return "fifo"
	case Type_Socket:
		return "socket"
	case Type_Device:
		return "blockdev"
	case Type_CharDevice:
		return "chardev"
	case Type_Hardlink:
		return "hardlink"
	default:
		return "invalid"
	}
}

/*
	Permission bits, including setuid/setgid/sticky, in the classic unix layout.
	(Note that this differs from `os.FileMode`, which moves the high bits around.)
*/
type Perms uint16

const (
	Perms_Setuid Perms = 04000
	Perms_Setgid Perms = 02000
	Perms_Sticky Perms = 01000
)

var (
	DefaultAtime = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
)
