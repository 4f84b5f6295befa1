package config

import (
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConfig(t *testing.T) {
	Convey("Config from env:", t, func() {
		Reset(func() {
			os.Unsetenv("TARFN_PASSWD")
			os.Unsetenv("TARFN_HTTP_TIMEOUT")
		})
		Convey("defaults apply when env is blank", func() {
			os.Unsetenv("TARFN_PASSWD")
			So(GetPasswdPath().String(), ShouldEqual, "/etc/passwd")
			So(GetGroupPath().String(), ShouldEqual, "/etc/group")
			So(GetHTTPTimeout(), ShouldEqual, time.Duration(0))
		})
		Convey("env overrides are honored", func() {
			os.Setenv("TARFN_PASSWD", "/srv/chroot/etc/passwd")
			os.Setenv("TARFN_HTTP_TIMEOUT", "90s")
			So(GetPasswdPath().String(), ShouldEqual, "/srv/chroot/etc/passwd")
			So(GetHTTPTimeout(), ShouldEqual, 90*time.Second)
		})
		Convey("garbage timeouts are ignored", func() {
			os.Setenv("TARFN_HTTP_TIMEOUT", "soon")
			So(GetHTTPTimeout(), ShouldEqual, time.Duration(0))
		})
	})
}
