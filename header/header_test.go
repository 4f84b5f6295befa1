package header

import (
	"strconv"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/polydawn/tarfn/identity"
)

func TestChecksum(t *testing.T) {
	Convey("Checksums:", t, func() {
		Convey("a zero block sums to eight spaces and fails validation", func() {
			var b Block
			So(b.Checksum(), ShouldEqual, 8*' ')
			e, ok := Decode(&b, nil)
			So(ok, ShouldBeFalse)
			So(e.ChecksumValid, ShouldBeFalse)
			So(e.Name, ShouldEqual, "")
		})
		Convey("an encoded header validates", func() {
			b, err := Encode(Entry{Name: "foo", Mode: 0644, Type: TypeRegular, Format: FormatUstar})
			So(err, ShouldBeNil)
			_, ok := Decode(b, nil)
			So(ok, ShouldBeTrue)
			Convey("and the declared value equals an independent sum", func() {
				var sum int64
				for i, c := range b {
					if i >= 148 && i < 156 {
						sum += ' '
						continue
					}
					sum += int64(c)
				}
				So(ParseOctal(b.Chksum()), ShouldEqual, sum)
			})
			Convey("the checksum field's own contents don't affect the sum", func() {
				before := b.Checksum()
				copy(b.Chksum(), "garbage!")
				So(b.Checksum(), ShouldEqual, before)
			})
			Convey("flipping any other byte invalidates it", func() {
				b.Name()[1] = 'x'
				e, ok := Decode(b, nil)
				So(ok, ShouldBeFalse)
				So(e.Name, ShouldEqual, "fxo")
			})
		})
		Convey("a checksum padded with leading spaces validates", func() {
			b, err := Encode(Entry{Name: "bar", Type: TypeRegular, Format: FormatLegacy})
			So(err, ShouldBeNil)
			sum := ParseOctal(b.Chksum())
			// Space-padded octal, as some old writers emit.
			s := []byte(strings.Repeat(" ", 8))
			digits := []byte(strconv.FormatInt(sum, 8))
			copy(s[7-len(digits):], digits)
			copy(b.Chksum(), s)
			_, ok := Decode(b, nil)
			So(ok, ShouldBeTrue)
		})
	})
}

func TestFormatDetection(t *testing.T) {
	Convey("Formats are discriminated by magic", t, func() {
		for _, f := range []Format{FormatLegacy, FormatUstar, FormatGnu} {
			b, err := Encode(Entry{Name: "x", Type: TypeRegular, Format: f})
			So(err, ShouldBeNil)
			So(b.Format(), ShouldEqual, f)
		}
		Convey("only the first six magic bytes matter", func() {
			var b Block
			copy(b.Magic(), "ustar\x00zz")
			So(b.Format(), ShouldEqual, FormatUstar)
			copy(b.Magic(), "ustar zz")
			So(b.Format(), ShouldEqual, FormatGnu)
			copy(b.Magic(), "ustaR\x0000")
			So(b.Format(), ShouldEqual, FormatLegacy)
		})
	})
}

func TestRoundTrip(t *testing.T) {
	Convey("Encode then Decode:", t, func() {
		Convey("a 150 character ustar name survives the prefix split", func() {
			name := strings.Repeat("d", 60) + "/" + strings.Repeat("e", 40) + "/" + strings.Repeat("f", 48)
			So(len(name), ShouldEqual, 150)
			b, err := Encode(Entry{Name: name, Mode: 0644, Type: TypeRegular, Format: FormatUstar})
			So(err, ShouldBeNil)
			So(ParseString(b.Prefix()), ShouldNotEqual, "")
			e, ok := Decode(b, nil)
			So(ok, ShouldBeTrue)
			So(e.Name, ShouldEqual, name)
			So(e.Format, ShouldEqual, FormatUstar)
		})
		Convey("a long name without a usable slash is refused", func() {
			_, err := Encode(Entry{Name: strings.Repeat("z", 150), Type: TypeRegular, Format: FormatUstar})
			So(err, ShouldNotBeNil)
		})
		Convey("the prefix is ignored outside of ustar", func() {
			b, err := Encode(Entry{Name: "leaf", Type: TypeRegular, Format: FormatGnu})
			So(err, ShouldBeNil)
			copy(b.Prefix(), "ignored")
			b.SetChecksum()
			e, ok := Decode(b, nil)
			So(ok, ShouldBeTrue)
			So(e.Name, ShouldEqual, "leaf")
		})
		Convey("all the numeric fields survive", func() {
			orig := Entry{
				Name:     "dev/sda",
				Linkname: "",
				Mode:     0660,
				Size:     0,
				ModTime:  time.Date(2016, 3, 4, 5, 6, 7, 0, time.UTC),
				Device:   PackDevice(8, 1),
				Uid:      4000,
				Gid:      5000,
				Uname:    "operator",
				Gname:    "disk",
				Type:     TypeBlockDevice,
				Format:   FormatUstar,
			}
			b, err := Encode(orig)
			So(err, ShouldBeNil)
			e, ok := Decode(b, nil)
			So(ok, ShouldBeTrue)
			orig.ChecksumValid = true
			So(e, ShouldResemble, orig)
			So(e.Major(), ShouldEqual, 8)
			So(e.Minor(), ShouldEqual, 1)
		})
		Convey("a size too large for its field is refused", func() {
			_, err := Encode(Entry{Name: "big", Size: 1 << 40, Type: TypeRegular})
			So(err, ShouldNotBeNil)
		})
		Convey("unknown type bytes pass straight through", func() {
			b, err := Encode(Entry{Name: "odd", Type: Type('X'), Format: FormatGnu})
			So(err, ShouldBeNil)
			e, ok := Decode(b, nil)
			So(ok, ShouldBeTrue)
			So(e.Type, ShouldEqual, Type('X'))
		})
		Convey("a zero mtime is written as the epoch", func() {
			b, err := Encode(Entry{Name: "undated", Type: TypeRegular})
			So(err, ShouldBeNil)
			e, _ := Decode(b, nil)
			So(e.ModTime.Unix(), ShouldEqual, 0)
		})
	})
}

func TestDeviceFolding(t *testing.T) {
	Convey("Device numbers keep only the low byte of major and minor", t, func() {
		So(PackDevice(1, 3), ShouldEqual, uint16(0x0103))
		So(PackDevice(0x1ff, 0x2ab), ShouldEqual, uint16(0xffab))
		var b Block
		copy(b.DevMajor(), "0000777\x00")
		copy(b.DevMinor(), "0000001\x00")
		e, _ := Decode(&b, nil)
		So(e.Device, ShouldEqual, uint16(0xff01))
	})
}

func TestIdentityOverride(t *testing.T) {
	Convey("Owner names override numeric ids when they resolve", t, func() {
		b, err := Encode(Entry{Name: "f", Uid: 10, Gid: 20, Uname: "alice", Gname: "nogroup", Type: TypeRegular, Format: FormatUstar})
		So(err, ShouldBeNil)
		ids := identity.Table{
			Users:  map[string]int{"alice": 1001},
			Groups: map[string]int{"staff": 50},
		}
		e, ok := Decode(b, ids)
		So(ok, ShouldBeTrue)
		So(e.Uid, ShouldEqual, 1001)
		So(e.Gid, ShouldEqual, 20)
		Convey("and a nil resolver keeps the header's numbers", func() {
			e, _ := Decode(b, nil)
			So(e.Uid, ShouldEqual, 10)
			So(e.Gid, ShouldEqual, 20)
		})
	})
}

func TestEncodeLong(t *testing.T) {
	Convey("EncodeLong", t, func() {
		name := strings.Repeat("n", 600)
		blocks, err := EncodeLong(TypeGnuLongName, name)
		So(err, ShouldBeNil)
		So(blocks, ShouldHaveLength, 3)
		marker, ok := Decode(&blocks[0], nil)
		So(ok, ShouldBeTrue)
		So(marker.Type, ShouldEqual, TypeGnuLongName)
		So(marker.Size, ShouldEqual, 601)
		So(marker.Format, ShouldEqual, FormatGnu)
		So(string(blocks[1][:]), ShouldEqual, name[:512])
		So(ParseString(blocks[2][:]), ShouldEqual, name[512:])
		Convey("refuses non-marker types", func() {
			_, err := EncodeLong(TypeRegular, "x")
			So(err, ShouldNotBeNil)
		})
	})
}
