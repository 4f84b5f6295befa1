package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/json"
	. "github.com/warpfork/go-errcat"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/polydawn/tarfn"
	"github.com/polydawn/tarfn/caps"
	"github.com/polydawn/tarfn/extract"
	"github.com/polydawn/tarfn/filters"
	"github.com/polydawn/tarfn/fs"
	"github.com/polydawn/tarfn/fs/nilfs"
	"github.com/polydawn/tarfn/fs/osfs"
	"github.com/polydawn/tarfn/fsOp"
	"github.com/polydawn/tarfn/identity"
	"github.com/polydawn/tarfn/source"
)

/*
	Output serialization formats
*/
const (
	FmtJson = "json"
	FmtDumb = "dumb"
)

type baseCLI struct {
	Format     string // Output api format, eg. json
	Verbose    bool   // Print debug logs, not just warnings and errors
	Source     string // Archive address; "-" for stdin
	ExtractCLI struct {
		Path         string // Extraction target path
		Uid          string
		Gid          string
		Mtime        string
		Sticky       string
		InferParents bool
		DryRun       bool
	}
}

func configureExtract(cli *baseCLI, appExtract *kingpin.CmdClause) {
	// Non-filter flags
	appExtract.Arg("path", "Target path").
		Required().
		StringVar(&cli.ExtractCLI.Path)
	appExtract.Flag("infer-parents", "Create parent dirs the archive doesn't declare").
		BoolVar(&cli.ExtractCLI.InferParents)
	appExtract.Flag("dry-run", "Decode and check the archive without writing anything").
		BoolVar(&cli.ExtractCLI.DryRun)

	// Filter flags
	appExtract.Flag("uid", "Set UID filter [keep, mine, <int>]").
		Default("mine").
		StringVar(&cli.ExtractCLI.Uid)
	appExtract.Flag("gid", "Set GID filter [keep, mine, <int>]").
		Default("mine").
		StringVar(&cli.ExtractCLI.Gid)
	appExtract.Flag("mtime", "Set mtime filter [keep, <@UNIX>, <RFC3339>]").
		Default("keep").
		StringVar(&cli.ExtractCLI.Mtime)
	appExtract.Flag("sticky", "Keep setuid, setgid, and sticky bits [keep, zero]").
		Default("zero").
		EnumVar(&cli.ExtractCLI.Sticky,
			"keep", "zero")
}

/*
	Blocks until a sigint is received, then calls cancel.
*/
func CancelOnInterrupt(ctx context.Context, cancel context.CancelFunc) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	defer signal.Stop(signalChan)
	select {
	case <-signalChan:
		cancel()
	case <-ctx.Done():
	}
}

func main() {
	ctx := context.Background()
	exitCode := Main(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	os.Exit(int(exitCode))
}

func Main(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) tarfn.ExitCode {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go CancelOnInterrupt(ctx, cancel)

	cli := baseCLI{}

	app := kingpin.New("tarfn", "Tar extraction, symlinks last")
	app.HelpFlag.Short('h')

	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	app.Flag("format", "Output api format").
		Default(FmtDumb).
		EnumVar(&cli.Format, FmtJson, FmtDumb)
	app.Flag("verbose", "Print debug logs to stderr").
		Short('v').
		BoolVar(&cli.Verbose)
	app.Flag("source", "Archive to read: a path, file://, http(s)://, or '-' for stdin").
		Default("-").
		StringVar(&cli.Source)

	appExtract := app.Command("extract", "extract an archive into a directory")
	configureExtract(&cli, appExtract)

	appList := app.Command("list", "list the operations an archive would perform")

	var termErr error
	app.Terminate(func(status int) {
		termErr = fmt.Errorf("parsing error: %d\n", status)
	})
	cmd, err := app.Parse(args[1:])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return tarfn.ExitUsage
	}
	if termErr != nil {
		fmt.Fprintln(stderr, termErr)
		return tarfn.ExitUsage
	}
	var result tarfn.Event_Result
	switch cmd {
	case appExtract.FullCommand():
		err = executeExtract(ctx, cli, stdin, stderr, &result)
	case appList.FullCommand():
		err = executeList(ctx, cli, stdin, stderr, &result)
	}
	result.SetError(err)
	SerializeResult(cli.Format, result, stdout, stderr)
	return tarfn.ExitCodeForError(err)
}

func SerializeResult(format string, result tarfn.Event_Result, stdout io.Writer, stderr io.Writer) {
	ev := tarfn.Event{Result: &result}
	switch format {
	case FmtJson:
		marshaller := refmt.NewMarshallerAtlased(json.EncodeOptions{}, stdout, tarfn.Atlas)
		err := marshaller.Marshal(&ev)
		if err != nil {
			panic(err)
		}
		fmt.Fprintln(stdout)
	case FmtDumb:
		for _, m := range result.Manifest {
			switch {
			case m.Type == "symlink":
				fmt.Fprintf(stdout, "%s -> %s\n", m.Name, m.Linkname)
			case m.Type == "hardlink":
				fmt.Fprintf(stdout, "%s link to %s\n", m.Name, m.Linkname)
			default:
				fmt.Fprintln(stdout, m.Name)
			}
		}
		if result.Error != nil {
			fmt.Fprintln(stderr, result.Error.Message)
		}
	default:
		panic(fmt.Errorf("tarfn: invalid format %s", format))
	}
}

func executeExtract(ctx context.Context, cli baseCLI, stdin io.Reader, stderr io.Writer, result *tarfn.Event_Result) error {
	filt, err := filters.Parse(cli.ExtractCLI.Uid, cli.ExtractCLI.Gid, cli.ExtractCLI.Mtime, cli.ExtractCLI.Sticky)
	if err != nil {
		return err
	}
	filt.SkipChown = !caps.Scan().CanManageOwnership()

	var afs fs.FS
	if cli.ExtractCLI.DryRun {
		afs = nilfs.New()
	} else {
		pth, err := filepath.Abs(cli.ExtractCLI.Path)
		if err != nil {
			return Errorf(tarfn.ErrUsage, "invalid target path %q: %s", cli.ExtractCLI.Path, err)
		}
		if err := os.MkdirAll(pth, 0755); err != nil {
			return Errorf(tarfn.ErrInoperablePath, "could not create target path: %s", err)
		}
		afs = osfs.New(fs.MustAbsolutePath(pth))
	}

	src, err := openArchive(ctx, cli.Source, stdin)
	if err != nil {
		return err
	}
	defer src.Close()

	mon, wait := monitor(cli.Verbose, stderr)
	placer := fsOp.NewPlacer(afs, filt)
	placer.InferParents = cli.ExtractCLI.InferParents
	placer.Monitor = mon
	err = extract.Extract(ctx, src, placer, extract.Options{
		Identity: identity.NewFileResolver(),
		Monitor:  mon,
	})
	wait()
	result.Manifest = placer.Manifest()
	result.Entries = len(result.Manifest)
	if err != nil {
		return err
	}
	return placer.Finish()
}

func executeList(ctx context.Context, cli baseCLI, stdin io.Reader, stderr io.Writer, result *tarfn.Event_Result) error {
	src, err := openArchive(ctx, cli.Source, stdin)
	if err != nil {
		return err
	}
	defer src.Close()

	mon, wait := monitor(cli.Verbose, stderr)
	listing := &extract.Listing{}
	err = extract.Extract(ctx, src, listing, extract.Options{
		Monitor: mon,
	})
	wait()
	result.Manifest = listing.Manifest()
	result.Entries = len(result.Manifest)
	return err
}

// Opens the source and strips any compression.  Closing the result closes both.
func openArchive(ctx context.Context, addr string, stdin io.Reader) (io.ReadCloser, error) {
	raw, err := source.Open(ctx, addr, stdin)
	if err != nil {
		return nil, err
	}
	rc, _, err := source.Decompress(raw)
	if err != nil {
		raw.Close()
		return nil, err
	}
	return stacked{rc, raw}, nil
}

type stacked struct {
	io.ReadCloser
	under io.Closer
}

func (s stacked) Close() error {
	err := s.ReadCloser.Close()
	if err2 := s.under.Close(); err == nil {
		err = err2
	}
	return err
}

/*
	Starts a goroutine printing log events to stderr, and returns the
	monitor to hand to Extract (which closes it) plus a func that blocks
	until every event has been printed.

	Warnings and errors are always printed; debug and info only if verbose.
*/
func monitor(verbose bool, stderr io.Writer) (tarfn.Monitor, func()) {
	ch := make(chan tarfn.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range ch {
			if ev.Log == nil {
				continue
			}
			if !verbose && ev.Log.Level < tarfn.LogWarn {
				continue
			}
			fmt.Fprintf(stderr, "%s: %s\n", ev.Log.Level, ev.Log.Msg)
		}
	}()
	return tarfn.Monitor{Chan: ch}, func() { <-done }
}
