package extract

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"strings"
	"testing"
	"testing/iotest"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/tarfn"
)

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, fmt.Errorf("no space left") }

func TestReadContent(t *testing.T) {
	Convey("ReadContent", t, func() {
		for _, size := range []int{0, 1, 511, 512, 513, 1024, 1500} {
			Convey(fmt.Sprintf("consumes %d bytes plus padding", size), func() {
				padded := (size + 511) / 512 * 512
				src := bytes.NewReader(append([]byte(strings.Repeat("c", padded)), "next"...))
				var buf bytes.Buffer
				So(ReadContent(src, int64(size), &buf), ShouldBeNil)
				So(buf.Len(), ShouldEqual, size)
				So(src.Len(), ShouldEqual, 4)
			})
		}
		Convey("reports missing padding as truncation", func() {
			src := bytes.NewReader([]byte(strings.Repeat("c", 600)))
			err := ReadContent(src, 513, &bytes.Buffer{})
			So(err, errcat.ErrorShouldHaveCategory, tarfn.ErrArchiveTruncated)
		})
		Convey("returns writer errors as-is", func() {
			src := bytes.NewReader(make([]byte, 512))
			err := ReadContent(src, 10, failWriter{})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldEqual, "no space left")
			_, categorized := err.(errcat.Error)
			So(categorized, ShouldBeFalse)
		})
	})
}

func TestContentReader(t *testing.T) {
	Convey("ContentReader", t, func() {
		src := bytes.NewReader(append([]byte(strings.Repeat("a", 700)), make([]byte, 324+10)...))
		cr := NewContentReader(src, 700)
		Convey("stops at the content's end", func() {
			buf := make([]byte, 1000)
			n, err := io.ReadFull(cr, buf)
			So(err, ShouldEqual, io.ErrUnexpectedEOF)
			So(n, ShouldEqual, 700)
			So(cr.Close(), ShouldBeNil)
			So(src.Len(), ShouldEqual, 10)
		})
		Convey("closing early skips the rest", func() {
			buf := make([]byte, 10)
			_, err := cr.Read(buf)
			So(err, ShouldBeNil)
			So(cr.Close(), ShouldBeNil)
			So(src.Len(), ShouldEqual, 10)
		})
		Convey("reports truncated content", func() {
			short := NewContentReader(bytes.NewReader([]byte("abc")), 10)
			_, err := ioutil.ReadAll(short)
			So(err, errcat.ErrorShouldHaveCategory, tarfn.ErrArchiveTruncated)
		})
		Convey("treats a cut decompression stream as truncation", func() {
			cut := io.MultiReader(bytes.NewReader([]byte("abc")), iotest.ErrReader(io.ErrUnexpectedEOF))
			_, err := ioutil.ReadAll(NewContentReader(cut, 10))
			So(err, errcat.ErrorShouldHaveCategory, tarfn.ErrArchiveTruncated)

			cut = io.MultiReader(bytes.NewReader([]byte("abc")), iotest.ErrReader(io.ErrUnexpectedEOF))
			So(SkipContent(cut, 3), errcat.ErrorShouldHaveCategory, tarfn.ErrArchiveTruncated)
		})
	})
}
