/*
	Resolution of the user and group names carried in archive headers
	to numeric ids on the host.

	A nil Resolver is valid everywhere one is accepted, and means
	"don't look anything up; use the numeric ids from the header".
*/
package identity

import (
	"sync"

	"github.com/moby/sys/user"

	"github.com/polydawn/tarfn/config"
	"github.com/polydawn/tarfn/fs"
)

type Resolver interface {
	LookupUser(name string) (uid int, found bool)
	LookupGroup(name string) (gid int, found bool)
}

var (
	_ Resolver = &FileResolver{}
	_ Resolver = Table{}
)

/*
	FileResolver answers lookups from passwd and group databases on disk.

	Results (including misses) are memoized per name, since an archive
	tends to name the same few owners over and over.  A database that
	can't be read answers every lookup with "not found".
*/
type FileResolver struct {
	PasswdPath fs.AbsolutePath
	GroupPath  fs.AbsolutePath

	mu     sync.Mutex
	users  map[string]lookup
	groups map[string]lookup
}

type lookup struct {
	id    int
	found bool
}

// NewFileResolver returns a resolver reading the databases named by config.
func NewFileResolver() *FileResolver {
	return &FileResolver{
		PasswdPath: config.GetPasswdPath(),
		GroupPath:  config.GetGroupPath(),
	}
}

func (r *FileResolver) LookupUser(name string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit, ok := r.users[name]; ok {
		return hit.id, hit.found
	}
	var res lookup
	users, err := user.ParsePasswdFileFilter(r.PasswdPath.String(), func(u user.User) bool {
		return u.Name == name
	})
	if err == nil && len(users) > 0 {
		res = lookup{users[0].Uid, true}
	}
	if r.users == nil {
		r.users = make(map[string]lookup)
	}
	r.users[name] = res
	return res.id, res.found
}

func (r *FileResolver) LookupGroup(name string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit, ok := r.groups[name]; ok {
		return hit.id, hit.found
	}
	var res lookup
	groups, err := user.ParseGroupFileFilter(r.GroupPath.String(), func(g user.Group) bool {
		return g.Name == name
	})
	if err == nil && len(groups) > 0 {
		res = lookup{groups[0].Gid, true}
	}
	if r.groups == nil {
		r.groups = make(map[string]lookup)
	}
	r.groups[name] = res
	return res.id, res.found
}

/*
	Table is a fixed name-to-id mapping.  Handy for tests, and for
	extracting on behalf of a system whose accounts aren't the host's.
*/
type Table struct {
	Users  map[string]int
	Groups map[string]int
}

func (t Table) LookupUser(name string) (int, bool) {
	id, ok := t.Users[name]
	return id, ok
}

func (t Table) LookupGroup(name string) (int, bool) {
	id, ok := t.Groups[name]
	return id, ok
}
