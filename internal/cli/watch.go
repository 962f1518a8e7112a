package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	flag "github.com/spf13/pflag"
	"golang.org/x/time/rate"
)

func watchCmd(a *app) *Command {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	format := fs.StringP("format", "f", a.cfg.Format, formatHelp)
	clearScreen := fs.Bool("clear", false, "Clear the screen before each render")
	interval := fs.Duration("interval", 100*time.Millisecond, "Minimum time between renders")

	return &Command{
		Flags: fs,
		Usage: "watch <file> [flags]",
		Short: "Print a config file on every change",
		Long:  "Print a KEY VALUE file, then print it again each time it changes, until interrupted.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: watch takes one file", errUsage)
			}

			path := a.path(args[0])

			render := func() error {
				l, err := a.loader.ReadConfig(ctx, "!"+path)
				if err != nil {
					return err
				}

				if *clearScreen {
					o.Printf("\033[H\033[2J")
				}

				_, err = l.Render(o.Out(), lineFormat(*format))

				return err
			}

			w, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}

			defer func() { _ = w.Close() }()

			// Editors replace files by rename, so watch the directory.
			err = w.Add(filepath.Dir(path))
			if err != nil {
				return err
			}

			err = render()
			if err != nil {
				return err
			}

			return watchLoop(ctx, w, path, rate.NewLimiter(rate.Every(*interval), 1), render, a.log)
		},
	}
}

// watchLoop calls render after writes to target until ctx is done. Renders
// are spaced by lim; events queued while waiting are folded into one render.
// Render errors are logged and do not stop the loop.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, target string, lim *rate.Limiter, render func() error, log *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != target {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			log.DebugContext(ctx, "file changed", "path", target, "op", event.Op.String())

			if lim.Wait(ctx) != nil {
				return nil
			}

			if !drainEvents(w) {
				return nil
			}

			err := render()
			if err != nil {
				log.WarnContext(ctx, "render failed", "path", target, "err", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			log.WarnContext(ctx, "error watching file", "err", err)
		}
	}
}

// drainEvents discards queued events. Reports false when the watcher closed.
func drainEvents(w *fsnotify.Watcher) bool {
	for {
		select {
		case _, ok := <-w.Events:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}
