package fs

import (
	"path"
	"strings"

	. "github.com/warpfork/go-errcat"
)

// Meta: yep, these *are not* interchangeable.
// It's expected that if you *can* accept an AbsolutePath,
//  then you should normalize to that ASAP;
// and if you can't, then clearly it's correct to use the RelPath,
//  through and through the whole way.

/*
	A path relative to some base.  Always cleaned.

	The zero value is the base itself (".").
	A RelPath may go up (e.g. "../x"); functions placing files
	should check `GoesUp` and refuse those.
*/
type RelPath struct {
	path      string
	lastSplit int
}

func MustRelPath(p string) RelPath {
	p = path.Clean(p)
	if p[0] == '/' {
		panic("fs: RelPath must not be absolute")
	}
	if p == "." { // We can't stop people from using the zero value, so, use it.
		return RelPath{}
	}
	return RelPath{p, strings.LastIndexByte(p, '/')}
}

/*
	Parse an archive member name into a RelPath.

	Leading slashes are stripped (archives made with absolute names are still
	extracted relative to the base), and the result is cleaned.
	Names that would depart the base path are rejected with ErrBreakout;
	blank names are rejected with ErrInvalidPath.
*/
func ParseRelPath(p string) (RelPath, error) {
	if p == "" {
		return RelPath{}, Errorf(ErrInvalidPath, "fs: path must not be blank")
	}
	if strings.IndexByte(p, 0) >= 0 {
		return RelPath{}, Errorf(ErrInvalidPath, "fs: path %q contains NUL", p)
	}
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return RelPath{}, nil
	}
	rp := MustRelPath(p)
	if rp.GoesUp() {
		return rp, Errorf(ErrBreakout, "fs: invalid path %q: must not depart basepath", p)
	}
	return rp, nil
}

func (p RelPath) String() string {
	if p.path == "" {
		return "."
	} else if p.path[0] == '.' && (p.path == ".." || strings.HasPrefix(p.path, "../")) {
		return p.path
	} else {
		return "./" + p.path
	}
}

// True if the path begins with "..", i.e. refers to something outside the base.
func (p RelPath) GoesUp() bool {
	return p.path == ".." || strings.HasPrefix(p.path, "../")
}

func (p RelPath) Dir() RelPath {
	if p.path == "" {
		return p
	} else if p.lastSplit == -1 {
		return RelPath{}
	} else {
		p2 := p.path[0:p.lastSplit]
		return RelPath{p2, strings.LastIndexByte(p2, '/')}
	}
}

func (p RelPath) Last() string {
	if p.path == "" {
		return "."
	} else if p.lastSplit == -1 {
		return p.path
	} else {
		return p.path[p.lastSplit+1:]
	}
}

func (p RelPath) Join(p2 RelPath) RelPath {
	switch {
	case p2.path == "":
		return p
	case p.path == "":
		return p2
	default:
		return MustRelPath(p.path + "/" + p2.path)
	}
}

// Every path from the base down to and including this one.
func (p RelPath) Split() []RelPath {
	if p.path == "" {
		return []RelPath{{}}
	}
	segs := strings.Split(p.path, "/")
	ret := make([]RelPath, len(segs)+1)
	for i := range segs {
		p2 := strings.Join(segs[:i+1], "/")
		ret[i+1] = RelPath{p2, strings.LastIndexByte(p2, '/')}
	}
	return ret
}

// Like Split, but excluding the path itself.
func (p RelPath) SplitParent() []RelPath {
	s := p.Split()
	return s[:len(s)-1]
}

type AbsolutePath struct {
	path      string
	lastSplit int
}

func MustAbsolutePath(p string) AbsolutePath {
	p = path.Clean(p)
	if p[0] != '/' {
		panic("fs: AbsolutePath must be absolute")
	}
	if p == "/" { // We can't stop people from using the zero value, so, use it.
		return AbsolutePath{}
	}
	return AbsolutePath{p, strings.LastIndexByte(p, '/')}
}

func (p AbsolutePath) String() string {
	if p.path == "" {
		return "/"
	}
	return p.path
}

func (p AbsolutePath) Dir() AbsolutePath {
	if p.path == "" {
		return p
	} else if p.lastSplit == 0 {
		return AbsolutePath{}
	} else {
		p2 := p.path[0:p.lastSplit]
		return AbsolutePath{p2, strings.LastIndexByte(p2, '/')}
	}
}

func (p AbsolutePath) Last() string {
	if p.path == "" {
		return "/"
	} else {
		return p.path[p.lastSplit+1:]
	}
}

func (p AbsolutePath) Join(p2 RelPath) AbsolutePath {
	if p2.path == "" {
		return p
	}
	return MustAbsolutePath(p.String() + "/" + p2.path)
}
