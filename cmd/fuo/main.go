package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/handiism/fuo/internal/app"
	"github.com/handiism/fuo/internal/audio"
	"github.com/handiism/fuo/internal/config"
	"github.com/handiism/fuo/internal/download"
	"github.com/handiism/fuo/internal/library"
	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/uri"
)

func usage() {
	fmt.Fprintln(os.Stderr, "fuo - multi-provider music player")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  fuo [options]                          run the control server")
	fmt.Fprintln(os.Stderr, "  fuo [options] search [-type song] <q>  search every provider")
	fmt.Fprintln(os.Stderr, "  fuo [options] export [-format m3u] [-o file] <collection>")
	fmt.Fprintln(os.Stderr, "  fuo [options] download <collection|uri>...")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "For interactive mode, use: fuo-tui")
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}

func main() {
	// Command line flags
	var (
		configFlag  = flag.String("config", "", "Path to config file")
		addrFlag    = flag.String("addr", "", "Control server address (overrides config)")
		verboseFlag = flag.Bool("verbose", false, "Show verbose output")
	)
	flag.Usage = usage
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addrFlag != "" {
		settings.ServerAddr = *addrFlag
	}
	logger := settings.NewLogger(os.Stderr, *verboseFlag)

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	a, err := app.New(settings, logger, app.WithDownloadProgress(func(event download.ProgressEvent) {
		printProgress(event, *verboseFlag)
	}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()
	if err := a.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "serve":
		err = serve(ctx, a)
	case "search":
		err = search(ctx, a, args)
	case "export":
		err = export(ctx, a, args)
	case "download":
		err = downloadSongs(ctx, a, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, a *app.App) error {
	srv := a.Server()
	defer srv.Close()
	return srv.ListenAndServe(ctx, a.Settings.ServerAddr)
}

func search(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	types := fs.String("type", "song", "Comma-separated types: song, album, artist, playlist, video")
	sources := fs.String("source", "", "Comma-separated providers (default: all)")
	limit := fs.Int("limit", 0, "Results per provider (default: search_limit)")
	_ = fs.Parse(args)

	q := strings.Join(fs.Args(), " ")
	if q == "" {
		return errors.New("search: missing query")
	}
	opts := library.SearchOptions{Limit: *limit, Sources: splitList(*sources)}
	for _, name := range splitList(*types) {
		typ, err := model.ParseSearchType(name)
		if err != nil {
			return err
		}
		opts.Types = append(opts.Types, typ)
	}

	for _, res := range a.Library.SearchAll(ctx, q, opts) {
		if res.ErrMsg != "" {
			fmt.Fprintf(os.Stderr, "# %s %s: %s\n", res.Source, res.Type, res.ErrMsg)
			continue
		}
		for _, m := range res.Models() {
			fmt.Println(uri.Reverse(m, true))
		}
	}
	return nil
}

func export(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	formatFlag := fs.String("format", "m3u", "Playlist format: m3u or pls")
	outFlag := fs.String("o", "", "Output file (default: stdout)")
	plain := fs.Bool("plain", false, "Write plain M3U without #EXTINF lines")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("export: expected one collection name")
	}
	format, err := audio.ParsePlaylistFormat(*formatFlag)
	if err != nil {
		return err
	}
	songs, err := collectionSongs(a, fs.Arg(0))
	if err != nil {
		return err
	}

	body, err := a.Export(ctx, songs, format, !*plain)
	if err != nil {
		// Songs without media are skipped; the rest is still written.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if *outFlag == "" {
		fmt.Print(body)
		return ctx.Err()
	}
	if err := os.WriteFile(*outFlag, []byte(body), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", *outFlag)
	return nil
}

func downloadSongs(ctx context.Context, a *app.App, args []string) error {
	if len(args) == 0 {
		return errors.New("download: expected collection names or song uris")
	}
	var songs []model.BriefSong
	for _, arg := range args {
		if strings.HasPrefix(arg, uri.Scheme) {
			m, err := a.Resolver.Resolve(arg)
			if err != nil {
				return err
			}
			s, ok := m.(model.BriefSong)
			if !ok {
				return fmt.Errorf("download: %s is not a song", arg)
			}
			songs = append(songs, s)
			continue
		}
		found, err := collectionSongs(a, arg)
		if err != nil {
			return err
		}
		songs = append(songs, found...)
	}

	results, err := a.Download(ctx, songs)
	if err != nil {
		return err
	}
	saved, skipped, failed := 0, 0, 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case r.Skipped:
			skipped++
		default:
			saved++
		}
	}
	received, _, _ := a.Downloads.GetProgress()
	fmt.Printf("Complete! %d saved, %d up to date, %d failed (%.2f MB)\n",
		saved, skipped, failed, float64(received)/1024/1024)
	if failed > 0 {
		return fmt.Errorf("%d song(s) failed", failed)
	}
	return nil
}

func collectionSongs(a *app.App, name string) ([]model.BriefSong, error) {
	c, err := a.Collections.Get(name)
	if err != nil {
		return nil, err
	}
	var songs []model.BriefSong
	for _, m := range c.Models() {
		if s, ok := m.(model.BriefSong); ok {
			songs = append(songs, s)
		}
	}
	return songs, nil
}

func printProgress(event download.ProgressEvent, verbose bool) {
	if event.Level == download.LevelVerbose && !verbose {
		return
	}

	prefix := ""
	switch event.Level {
	case download.LevelError:
		prefix = "✗ "
	case download.LevelWarning:
		prefix = "! "
	case download.LevelSuccess:
		prefix = "✓ "
	case download.LevelInfo:
		prefix = "› "
	default:
		prefix = "  "
	}

	fmt.Println(prefix + event.Message)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
