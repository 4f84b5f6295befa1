/*
	Helpers for loading contextual config.

	Config for tarfn means "things that are the host machine operator's concerns":
	which account databases name lookups consult, and how long to wait on
	network sources.  Everything describing *what* to extract is a parameter
	to function calls instead.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/polydawn/tarfn/fs"
)

/*
	Return the path of the passwd database used to resolve user names in archives.

	The default value is `"/etc/passwd"`;
	this can be overriden by the `TARFN_PASSWD` environment variable
	(useful when extracting into a chroot whose accounts differ from the host's).
*/
func GetPasswdPath() fs.AbsolutePath {
	return envPath("TARFN_PASSWD", "/etc/passwd")
}

/*
	Return the path of the group database used to resolve group names in archives.

	The default value is `"/etc/group"`;
	this can be overriden by the `TARFN_GROUP` environment variable.
*/
func GetGroupPath() fs.AbsolutePath {
	return envPath("TARFN_GROUP", "/etc/group")
}

/*
	Return the timeout applied to fetching archives from http sources.

	The default is zero, meaning no timeout;
	this can be overriden by the `TARFN_HTTP_TIMEOUT` environment variable,
	which is parsed as a Go duration (e.g. "90s").  Unparsable values are ignored.
*/
func GetHTTPTimeout() time.Duration {
	s := os.Getenv("TARFN_HTTP_TIMEOUT")
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func envPath(key string, dflt string) fs.AbsolutePath {
	pth := os.Getenv(key)
	if pth == "" {
		pth = dflt
	}
	pth, err := filepath.Abs(pth)
	if err != nil {
		panic(err)
	}
	return fs.MustAbsolutePath(pth)
}
