package header

const BlockSize = 512

/*
	One raw header block, exactly as it appears on the wire.

	Every field accessor returns a sub-slice bounded by that field's
	declared width; nothing in this package reads a field past its end.
*/
type Block [BlockSize]byte

func (b *Block) Name() []byte      { return b[0:][:100] }
func (b *Block) Mode() []byte      { return b[100:][:8] }
func (b *Block) Uid() []byte       { return b[108:][:8] }
func (b *Block) Gid() []byte       { return b[116:][:8] }
func (b *Block) Size() []byte      { return b[124:][:12] }
func (b *Block) ModTime() []byte   { return b[136:][:12] }
func (b *Block) Chksum() []byte    { return b[148:][:8] }
func (b *Block) TypeFlag() []byte  { return b[156:][:1] }
func (b *Block) LinkName() []byte  { return b[157:][:100] }
func (b *Block) Magic() []byte     { return b[257:][:8] }
func (b *Block) UserName() []byte  { return b[265:][:32] }
func (b *Block) GroupName() []byte { return b[297:][:32] }
func (b *Block) DevMajor() []byte  { return b[329:][:8] }
func (b *Block) DevMinor() []byte  { return b[337:][:8] }
func (b *Block) Prefix() []byte    { return b[345:][:155] }

const (
	magicUstar = "ustar\x0000"
	magicGnu   = "ustar  \x00"
)

// Only the first six bytes of the magic field discriminate formats.
const magicLen = 6

/*
	Format names which of the three header layouts a block uses.
	Only Ustar honors the prefix field.
*/
type Format int

const (
	FormatLegacy Format = iota
	FormatUstar
	FormatGnu
)

func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatUstar:
		return "ustar"
	case FormatGnu:
		return "gnu"
	default:
		return "invalid"
	}
}

// Format reports the layout of the block by its magic signature.
func (b *Block) Format() Format {
	magic := string(b.Magic()[:magicLen])
	switch {
	case magic == magicGnu[:magicLen]:
		return FormatGnu
	case magic == magicUstar[:magicLen]:
		return FormatUstar
	default:
		return FormatLegacy
	}
}

// Checksum computes the header sum: every byte added as unsigned,
// with the eight checksum bytes counted as ASCII spaces.
func (b *Block) Checksum() int64 {
	var sum int64
	for i, c := range b {
		if i >= 148 && i < 156 {
			c = ' '
		}
		sum += int64(c)
	}
	return sum
}
