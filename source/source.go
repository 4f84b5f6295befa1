/*
	The byte-source collaborator: opening archives and peeling off compression.

	Sources are addressed much like URLs:

	  - `-` reads stdin;
	  - a bare path or `file://` URL reads a local file;
	  - `http://` and `https://` fetch with a GET.

	Whatever opens, the caller owns the returned ReadCloser.
*/
package source

import (
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/tarfn"
	"github.com/polydawn/tarfn/config"
)

/*
	Open the archive named by addr.

	May return errors of category:

	  - `tarfn.ErrUsage` -- for unparsable addresses or unsupported schemes
	  - `tarfn.ErrSourceUnavailable` -- if the archive can't be opened or fetched
*/
func Open(ctx context.Context, addr string, stdin io.Reader) (io.ReadCloser, error) {
	if addr == "-" {
		return ioutil.NopCloser(stdin), nil
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, Errorf(tarfn.ErrUsage, "failed to parse source address: %s", err)
	}
	switch u.Scheme {
	case "":
		return openFile(addr)
	case "file":
		return openFile(filepath.Join(u.Host, u.Path))
	case "http", "https":
		return openHTTP(ctx, u)
	default:
		return nil, Errorf(tarfn.ErrUsage, "unsupported scheme in source addr: %q (valid options are '-', a path, 'file', 'http', or 'https')", u.Scheme)
	}
}

func openFile(pth string) (io.ReadCloser, error) {
	file, err := os.OpenFile(pth, os.O_RDONLY, 0)
	switch {
	case err == nil:
		return file, nil
	case os.IsNotExist(err):
		return nil, Errorf(tarfn.ErrSourceUnavailable, "archive %s does not exist", pth)
	default:
		return nil, Errorf(tarfn.ErrSourceUnavailable, "archive %s could not be opened: %s", pth, err)
	}
}

func openHTTP(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, Errorf(tarfn.ErrUsage, "invalid source addr %s: %s", u, err)
	}
	client := &http.Client{Timeout: config.GetHTTPTimeout()}
	resp, err := client.Do(req)
	if err != nil {
		return nil, Errorf(tarfn.ErrSourceUnavailable, "error connecting to %s: %s", u, err)
	}
	switch resp.StatusCode {
	case 200:
		return resp.Body, nil
	case 404:
		resp.Body.Close()
		return nil, Errorf(tarfn.ErrSourceUnavailable, "archive not found at %s", u)
	default:
		resp.Body.Close()
		return nil, Errorf(tarfn.ErrSourceUnavailable, "unexpected HTTP code from %s: %s", u, resp.Status)
	}
}
