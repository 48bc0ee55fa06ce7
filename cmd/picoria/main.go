package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"github.com/retrobus/picoria/picoria"
	"github.com/retrobus/picoria/picoria/backend"
	"github.com/retrobus/picoria/picoria/backend/headless"
	"github.com/retrobus/picoria/picoria/backend/sdl2"
	"github.com/retrobus/picoria/picoria/backend/terminal"
	"github.com/retrobus/picoria/picoria/bus"
	"github.com/retrobus/picoria/picoria/debug"
	"github.com/retrobus/picoria/picoria/trace"
)

func main() {
	app := cli.NewApp()
	app.Name = "picoria"
	app.Description = "Replays recorded RIA bus traces and renders the VGA output"
	app.Usage = "picoria [options] <trace file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "trace",
			Usage: "Path to the trace file",
		},
		cli.StringFlag{
			Name:  "pattern",
			Usage: fmt.Sprintf("Replay a built-in pattern instead of a trace file (%s)", strings.Join(trace.PatternNames(), ", ")),
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Presentation backend: terminal, sdl2 or headless",
			Value: "terminal",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to present in headless mode",
			Value: 0,
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.BoolFlag{
			Name:  "dump",
			Usage: "Print the trace listing instead of replaying it",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	transactions, name, err := loadTrace(c)
	if err != nil {
		return err
	}

	if c.Bool("dump") {
		debug.DumpTrace(os.Stdout, transactions)
		return nil
	}

	b, err := selectBackend(c)
	if err != nil {
		return err
	}

	m := picoria.New()
	return m.Present(transactions, b, backend.Config{
		Title:     "picoria - " + name,
		TraceName: name,
	})
}

func loadTrace(c *cli.Context) ([]bus.Transaction, string, error) {
	if pattern := c.String("pattern"); pattern != "" {
		b, err := trace.Pattern(pattern)
		if err != nil {
			return nil, "", err
		}
		return b.Trace(), pattern, nil
	}

	path := c.String("trace")
	if path == "" {
		if c.NArg() > 0 {
			path = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return nil, "", errors.New("no trace file or pattern provided")
		}
	}

	transactions, err := trace.ParseFile(path)
	if err != nil {
		return nil, "", err
	}

	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return transactions, name, nil
}

func selectBackend(c *cli.Context) (backend.Backend, error) {
	switch c.String("backend") {
	case "terminal":
		return terminal.New(), nil

	case "sdl2":
		return sdl2.New(), nil

	case "headless":
		frames := c.Int("frames")
		if frames <= 0 {
			return nil, errors.New("headless mode requires --frames with a positive value")
		}

		snapshot, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"))
		if err != nil {
			return nil, err
		}

		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		slog.SetDefault(slog.New(handler))

		return headless.New(frames, snapshot), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", c.String("backend"))
	}
}
