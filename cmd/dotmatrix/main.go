package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli"
	"github.com/valerio/go-dotmatrix/dotmatrix"
	"github.com/valerio/go-dotmatrix/dotmatrix/backend"
	"github.com/valerio/go-dotmatrix/dotmatrix/backend/headless"
	"github.com/valerio/go-dotmatrix/dotmatrix/backend/sdl2"
	"github.com/valerio/go-dotmatrix/dotmatrix/backend/terminal"
	"github.com/valerio/go-dotmatrix/dotmatrix/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "dotmatrix"
	app.Description = "A Game Boy (DMG) emulator"
	app.Usage = "dotmatrix [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file (.gb, optionally .gz/.xz/.zst/.lz4/.br/.zip/.7z)",
		},
		cli.StringFlag{
			Name:  "boot-rom",
			Usage: "Path to a 256 byte DMG boot ROM (default: skip the boot sequence)",
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Frontend to use: terminal, sdl2 or headless",
			Value: "terminal",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn or error",
			Value: "info",
		},
		cli.BoolFlag{
			Name:  "trace",
			Usage: "Log every executed instruction (implies --log-level debug)",
		},
		cli.StringFlag{
			Name:  "limiter",
			Usage: "Frame pacing: adaptive, ticker or none",
			Value: string(timing.Adaptive),
		},
		cli.BoolFlag{
			Name:  "no-limit",
			Usage: "Run as fast as possible (same as --limiter none)",
		},
		cli.IntFlag{
			Name:  "scale",
			Usage: "Window scale factor for the sdl2 backend",
			Value: 4,
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	level, err := parseLogLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	if c.Bool("trace") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() == 0 {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
		romPath = c.Args().Get(0)
	}

	b, err := newBackend(backendOptions{
		name:             c.String("backend"),
		frames:           c.Int("frames"),
		snapshotInterval: c.Int("snapshot-interval"),
		snapshotDir:      c.String("snapshot-dir"),
		romPath:          romPath,
		logLevel:         level,
	})
	if err != nil {
		return err
	}

	limiterKind := timing.Kind(c.String("limiter"))
	if c.Bool("no-limit") || c.String("backend") == "headless" {
		limiterKind = timing.None
	}
	limiter, err := timing.New(limiterKind)
	if err != nil {
		return err
	}
	if ticker, ok := limiter.(*timing.TickerLimiter); ok {
		defer ticker.Stop()
	}

	dmg, err := dotmatrix.NewWithFile(romPath, dotmatrix.Config{
		BootROMPath: c.String("boot-rom"),
		Trace:       c.Bool("trace"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	title := dmg.Cartridge().Header().Title
	if title == "" {
		title = c.App.Name
	}
	if err := b.Init(backend.BackendConfig{Title: title, Scale: c.Int("scale")}); err != nil {
		return err
	}
	runErr := dmg.Run(ctx, b, limiter)
	if err := b.Cleanup(); err != nil {
		slog.Warn("Backend cleanup failed", "error", err)
	}
	if runErr != nil {
		return runErr
	}

	slog.Info("Emulation finished", "ticks", dmg.Ticks(), "frames", dmg.PPU().FrameCount())
	return nil
}

type backendOptions struct {
	name             string
	frames           int
	snapshotInterval int
	snapshotDir      string
	romPath          string
	logLevel         slog.Level
}

func newBackend(opts backendOptions) (backend.Backend, error) {
	switch opts.name {
	case "terminal":
		return terminal.New(opts.logLevel), nil
	case "sdl2":
		return sdl2.New(), nil
	case "headless":
		if opts.frames <= 0 {
			return nil, errors.New("headless mode requires --frames option with a positive value")
		}
		snapshots, err := headless.CreateSnapshotConfig(opts.snapshotInterval, opts.snapshotDir, opts.romPath)
		if err != nil {
			return nil, err
		}
		return headless.New(opts.frames, snapshots), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.name)
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
