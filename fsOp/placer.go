package fsOp

import (
	_ "crypto/sha256"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/tarfn"
	"github.com/polydawn/tarfn/extract"
	"github.com/polydawn/tarfn/filters"
	"github.com/polydawn/tarfn/fs"
	"github.com/polydawn/tarfn/header"
	"github.com/polydawn/tarfn/log"
)

var _ extract.Operations = &Placer{}

/*
	Placer is the extract.Operations set that materializes entries on a filesystem.

	Every placement refuses to traverse a symlink in its parent path, and refuses
	names that would leave the base path.  Filters are applied to each entry's
	metadata before it's placed.  Failures carry tarfn.ErrInoperablePath
	(with the underlying fs error category in the details), except problems
	reading the archive stream itself, which keep their own category.

	Call Finish after extraction to restore directory mtimes and collect the manifest.
*/
type Placer struct {
	FS      fs.FS
	Filters filters.Filters

	// If true, parent directories the archive never declared are created
	// (mode 0755) instead of causing a failure.
	InferParents bool

	Monitor tarfn.Monitor

	manifest []tarfn.ManifestEntry
	dirs     []fs.Metadata
	known    map[fs.RelPath]struct{} // dirs placed or inferred so far
}

func NewPlacer(afs fs.FS, filt filters.Filters) *Placer {
	return &Placer{FS: afs, Filters: filt}
}

/*
	EntryToMetadata converts a decoded archive entry to the metadata used for placement.
	Leading slashes on names are dropped.  Names that would leave the base are ErrBreakout.
*/
func EntryToMetadata(e *header.Entry) (fs.Metadata, error) {
	var fmeta fs.Metadata
	name, err := fs.ParseRelPath(e.Name)
	if err != nil {
		return fmeta, err
	}
	fmeta.Name = name
	switch e.Type {
	case header.TypeRegular, header.TypeRegularOld:
		fmeta.Type = fs.Type_File
	case header.TypeDirectory:
		fmeta.Type = fs.Type_Dir
	case header.TypeHardlink:
		fmeta.Type = fs.Type_Hardlink
	case header.TypeSymlink:
		fmeta.Type = fs.Type_Symlink
	case header.TypeCharDevice:
		fmeta.Type = fs.Type_CharDevice
	case header.TypeBlockDevice:
		fmeta.Type = fs.Type_Device
	case header.TypeFIFO:
		fmeta.Type = fs.Type_NamedPipe
	default:
		return fmeta, Errorf(fs.ErrUnhandledType, "%q has type %s, which cannot be placed", e.Name, e.Type)
	}
	fmeta.Perms = fs.Perms(e.Mode & 07777)
	fmeta.Uid = uint32(e.Uid)
	fmeta.Gid = uint32(e.Gid)
	fmeta.Size = e.Size
	fmeta.Linkname = e.Linkname
	fmeta.Devmajor = e.Major()
	fmeta.Devminor = e.Minor()
	fmeta.Mtime = e.ModTime
	return fmeta, nil
}

func (p *Placer) ExtractFile(e *header.Entry, src io.Reader) error {
	content := extract.NewContentReader(src, e.Size)
	digester := digest.Canonical.Digester()
	fmeta, err := p.prepare(e)
	if err == nil {
		err = PlaceFile(p.FS, fmeta, io.TeeReader(content, digester.Hash()), p.Filters.SkipChown)
	}
	if err != nil {
		return p.wrap("extract_file", e, err)
	}
	if err := content.Close(); err != nil {
		return err
	}
	p.record(fmeta, digester.Digest().String())
	return nil
}

func (p *Placer) Mkdir(e *header.Entry) error {
	fmeta, err := p.prepare(e)
	if err == nil {
		err = PlaceFile(p.FS, fmeta, nil, p.Filters.SkipChown)
	}
	if err != nil {
		return p.wrap("mkdir", e, err)
	}
	p.noteDir(fmeta)
	p.record(fmeta, "")
	return nil
}

func (p *Placer) Link(e *header.Entry) error {
	fmeta, err := p.prepare(e)
	if err == nil {
		err = PlaceFile(p.FS, fmeta, nil, p.Filters.SkipChown)
	}
	if err != nil {
		return p.wrap("link", e, err)
	}
	dgst, err := DigestFile(p.FS, fmeta.Name)
	if err != nil {
		return p.wrap("link", e, err)
	}
	p.record(fmeta, dgst)
	return nil
}

func (p *Placer) Symlink(e *header.Entry) error {
	fmeta, err := p.prepare(e)
	if err == nil {
		err = PlaceFile(p.FS, fmeta, nil, p.Filters.SkipChown)
	}
	if err != nil {
		return p.wrap("symlink", e, err)
	}
	p.record(fmeta, "")
	return nil
}

func (p *Placer) Mknod(e *header.Entry) error {
	fmeta, err := p.prepare(e)
	if err == nil {
		err = PlaceFile(p.FS, fmeta, nil, p.Filters.SkipChown)
	}
	if err != nil {
		return p.wrap("mknod", e, err)
	}
	p.record(fmeta, "")
	return nil
}

/*
	Finish re-applies the mtimes of every directory placed, deepest first.
	Placing things inside a directory bumps its mtime, so this has to come
	after everything else (including the symlinks).
*/
func (p *Placer) Finish() error {
	dirs := make([]fs.Metadata, len(p.dirs))
	copy(dirs, p.dirs)
	sort.SliceStable(dirs, func(i, j int) bool {
		return depth(dirs[i].Name) > depth(dirs[j].Name)
	})
	for _, fmeta := range dirs {
		if err := p.FS.SetTimesNano(fmeta.Name, fmeta.Mtime, fs.DefaultAtime); err != nil {
			return ErrorDetailed(
				tarfn.ErrInoperablePath,
				fmt.Sprintf("error restoring mtime of %s: %s", fmeta.Name, err),
				map[string]string{"path": fmeta.Name.String()},
			)
		}
	}
	return nil
}

// Manifest lists everything placed so far, in placement order.
func (p *Placer) Manifest() []tarfn.ManifestEntry {
	return p.manifest
}

// Converts, filters, and if so configured conjures missing parents.
func (p *Placer) prepare(e *header.Entry) (fs.Metadata, error) {
	fmeta, err := EntryToMetadata(e)
	if err != nil {
		return fmeta, err
	}
	p.Filters.Apply(&fmeta)
	if p.Filters.SkipChown {
		log.OwnershipSkipped(p.Monitor, e.Name, int(fmeta.Uid), int(fmeta.Gid))
	}
	if p.InferParents {
		if err := p.inferParents(fmeta); err != nil {
			return fmeta, err
		}
	}
	return fmeta, nil
}

func (p *Placer) inferParents(fmeta fs.Metadata) error {
	for _, parent := range fmeta.Name.SplitParent() {
		if parent == (fs.RelPath{}) {
			continue
		}
		if _, ok := p.known[parent]; ok {
			continue
		}
		if _, err := p.FS.LStat(parent); err == nil {
			continue
		} else if Category(err) != fs.ErrNotExists {
			return err
		}
		log.DirectoryInferred(p.Monitor, parent.String(), fmeta.Name.String())
		conjured := fs.Metadata{
			Name:  parent,
			Type:  fs.Type_Dir,
			Perms: 0755,
			Uid:   fmeta.Uid,
			Gid:   fmeta.Gid,
			Mtime: fs.DefaultAtime,
		}
		p.Filters.Apply(&conjured)
		if err := PlaceFile(p.FS, conjured, nil, p.Filters.SkipChown); err != nil {
			return err
		}
		p.noteDir(conjured)
	}
	return nil
}

func (p *Placer) noteDir(fmeta fs.Metadata) {
	if p.known == nil {
		p.known = make(map[fs.RelPath]struct{})
	}
	p.known[fmeta.Name] = struct{}{}
	p.dirs = append(p.dirs, fmeta)
}

// Names are recorded bare ("etc/motd", not "./etc/motd"), as Listing reports them.
func (p *Placer) record(fmeta fs.Metadata, dgst string) {
	me := tarfn.ManifestEntry{
		Name:   strings.TrimPrefix(fmeta.Name.String(), "./"),
		Type:   fmeta.Type.String(),
		Digest: dgst,
	}
	switch fmeta.Type {
	case fs.Type_File:
		me.Size = fmeta.Size
	case fs.Type_Symlink, fs.Type_Hardlink:
		me.Linkname = fmeta.Linkname
	}
	p.manifest = append(p.manifest, me)
}

func (p *Placer) wrap(op string, e *header.Entry, err error) error {
	cat := Category(err)
	if _, ok := cat.(tarfn.ErrorCategory); ok {
		return err
	}
	return ErrorDetailed(
		tarfn.ErrInoperablePath,
		fmt.Sprintf("error while unpacking %q: %s", e.Name, err),
		map[string]string{
			"op":    op,
			"path":  e.Name,
			"cause": fmt.Sprintf("%v", cat),
		},
	)
}

func depth(p fs.RelPath) int {
	if p == (fs.RelPath{}) {
		return 0
	}
	return strings.Count(p.String(), "/")
}
