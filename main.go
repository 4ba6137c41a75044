package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/orb/internal/media"
	"github.com/olivier-w/orb/internal/offline"
	"github.com/olivier-w/orb/internal/queue"
	"github.com/olivier-w/orb/internal/session"
	"github.com/olivier-w/orb/internal/settings"
	"github.com/olivier-w/orb/internal/ui"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "analyze" {
		if err := runAnalyze(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("orb", flag.ExitOnError)
	mic := fs.Bool("mic", false, "start with the microphone as the source")
	configPath := fs.String("config", "", "settings file (default $XDG_CONFIG_HOME/orb/settings.toml)")
	logPath := fs.String("log", "", "write logs to this file")
	volume := fs.Float64("volume", 0.8, "initial volume, 0 to 1")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: orb [-mic] [-config path] [-log path] [files, folders or playlists...]\n       orb analyze [-fps n] [-json] file\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	log, closeLog, err := openLog(*logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	path := *configPath
	if path == "" {
		if path, err = settings.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, unknown, err := settings.Load(path)
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		log.Warn("unknown settings keys", "path", path, "keys", unknown)
	}
	store := settings.NewStore(cfg)

	sess, err := session.New(session.Config{
		Layout:     cfg.Bands,
		Thresholds: cfg.Detector,
		Volume:     *volume,
		Log:        log,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sess.Start(ctx)

	entries, errs := media.Expand(fs.Args())
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		log.Warn("skipping input", "err", err)
	}
	if len(fs.Args()) > 0 && len(entries) == 0 {
		return fmt.Errorf("nothing playable (supported: %s)", media.SupportedExtsList())
	}
	tracks := make([]queue.Track, 0, len(entries))
	for _, e := range entries {
		tracks = append(tracks, queue.Track{Title: e.Title, Path: e.Path})
	}
	opts := ui.Options{
		Session:    sess,
		Store:      store,
		Microphone: *mic,
		Settings:   path,
		Context:    ctx,
		Log:        log,
	}
	if *mic {
		// Queued once the microphone has connected, so nothing plays first.
		opts.Tracks = tracks
	} else {
		sess.Append(tracks...)
	}
	opts.Dir, _ = os.Getwd()
	program := tea.NewProgram(ui.New(opts), tea.WithAltScreen())

	go func() {
		err := settings.Watch(ctx, path, store, log, func(f settings.File) {
			program.Send(ui.SettingsChangedMsg{File: f})
		})
		if err != nil {
			log.Warn("settings hot reload disabled", "err", err)
		}
	}()

	_, err = program.Run()
	return err
}

func runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	fps := fs.Int("fps", offline.DefaultFPS, "frames per second of audio")
	asJSON := fs.Bool("json", false, "write JSON lines instead of columns")
	configPath := fs.String("config", "", "settings file for bands, detector and visual multipliers")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: orb analyze [-fps n] [-json] [-config path] file\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("analyze takes exactly one file")
	}

	cfg := settings.Default()
	if *configPath != "" {
		var err error
		if cfg, _, err = settings.Load(*configPath); err != nil {
			return err
		}
	}

	src, err := offline.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer src.Close()

	emit := offline.TextWriter(os.Stdout)
	if *asJSON {
		emit = offline.JSONWriter(os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return offline.Run(ctx, src, offline.Options{
		FPS:        *fps,
		Layout:     cfg.Bands,
		Thresholds: cfg.Detector,
		Settings:   cfg.Visual.Settings,
	}, emit)
}

// openLog returns a logger writing to path, or a discarding logger when
// path is empty. The terminal belongs to the TUI.
func openLog(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log: %w", err)
	}
	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return log, func() { f.Close() }, nil
}
