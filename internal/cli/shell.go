package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/reclist/pkg/reclist"
)

var shellCommands = []string{
	"count", "del", "find", "get", "help", "load", "ls", "purge", "quit", "rev", "save", "set", "sort",
}

func shellCmd(a *app) *Command {
	fs := flag.NewFlagSet("shell", flag.ContinueOnError)
	prompt := fs.String("prompt", "recl> ", "Prompt `text`")

	return &Command{
		Flags: fs,
		Usage: "shell [file] [flags]",
		Short: "Edit a config file interactively",
		Long: "Open a KEY VALUE file (or an empty list) in an interactive shell.\n" +
			"Changes are written only by the save command. Type 'help' in the shell for commands.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("%w: shell takes at most one file", errUsage)
			}

			s := &session{a: a, o: o, l: reclist.New()}

			if len(args) == 1 {
				s.path = a.path(args[0])

				l, err := a.loader.ReadConfig(ctx, "!"+s.path)
				if err != nil {
					return err
				}

				s.l = l
			}

			var err error
			if f, ok := o.In().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
				err = s.interactive(ctx, *prompt)
			} else {
				err = s.script(ctx)
			}

			if err == nil && s.dirty {
				o.Warn("unsaved changes discarded", "run save before quit")
			}

			return err
		},
	}
}

// session is one shell over a list.
type session struct {
	a     *app
	o     *IO
	l     *reclist.List
	path  string
	dirty bool
}

// script runs one command per line of stdin.
func (s *session) script(ctx context.Context) error {
	if s.o.In() == nil {
		return nil
	}

	sc := bufio.NewScanner(s.o.In())

	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		quit := s.run(ctx, sc.Text())
		if quit {
			return nil
		}
	}

	return sc.Err()
}

func (s *session) interactive(ctx context.Context, prompt string) error {
	ln := liner.NewLiner()
	defer ln.Close()

	ln.SetCtrlCAborts(true)
	ln.SetCompleter(func(line string) []string {
		var out []string

		for _, c := range shellCommands {
			if strings.HasPrefix(c, line) {
				out = append(out, c)
			}
		}

		return out
	})

	history := s.a.path(s.a.cfg.History)

	if f, err := s.a.fsys.Open(history); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	defer func() {
		var buf bytes.Buffer

		_, err := ln.WriteHistory(&buf)
		if err == nil {
			err = s.a.fsys.WriteFileAtomic(history, buf.Bytes())
		}

		if err != nil {
			s.a.log.Warn("cannot save shell history", "path", history, "err", err)
		}
	}()

	for ctx.Err() == nil {
		line, err := ln.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}

		if s.run(ctx, line) {
			break
		}
	}

	return nil
}

// run executes one shell line and reports whether the shell should exit.
// Errors are printed and do not end the session.
func (s *session) run(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false
	}

	cmd, args := fields[0], fields[1:]

	if cmd == "quit" || cmd == "exit" || cmd == "q" {
		return true
	}

	err := s.exec(ctx, cmd, args, line)
	if err != nil {
		s.o.ErrPrintln("error:", err)
	}

	return false
}

func (s *session) exec(ctx context.Context, cmd string, args []string, line string) error {
	switch cmd {
	case "help", "?":
		s.o.Println("commands: " + strings.Join(shellCommands, ", "))
	case "ls":
		// Everything after "ls " is the template, spaces included.
		format := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "ls"))

		_, err := s.l.Render(s.o.Out(), lineFormat(format))

		return err
	case "count":
		s.o.Println(strconv.Itoa(s.l.Count()))
	case "get":
		if len(args) != 1 {
			return fmt.Errorf("%w: get <key>", errUsage)
		}

		r := s.l.Find(args[0])
		if r == nil {
			return fmt.Errorf("%w: %s", reclist.ErrNotFound, args[0])
		}

		r.Touch()
		s.o.Println(r.Value())
	case "find":
		if len(args) != 1 {
			return fmt.Errorf("%w: find <prefix>", errUsage)
		}

		r := s.l.FindPrefix(len(args[0]), args[0])
		if r == nil {
			return fmt.Errorf("%w: %s", reclist.ErrNotFound, args[0])
		}

		s.o.Println(r.Key())
	case "set":
		if len(args) == 0 {
			return fmt.Errorf("%w: set <key> [value]", errUsage)
		}

		s.l.UpsertBack(args[0]).SetValue(strings.Join(args[1:], " "))
		s.dirty = true
	case "del":
		if len(args) != 1 {
			return fmt.Errorf("%w: del <key>", errUsage)
		}

		if !s.l.Remove(args[0]) {
			return fmt.Errorf("%w: %s", reclist.ErrNotFound, args[0])
		}

		s.dirty = true
	case "purge":
		s.o.Println(strconv.Itoa(s.l.Purge()))
	case "sort":
		reclist.BuildIndex(s.l)
		s.dirty = true
	case "rev":
		s.l.Reverse()
		s.dirty = true
	case "load":
		if len(args) != 1 {
			return fmt.Errorf("%w: load <src>", errUsage)
		}

		l, err := s.a.readConfig(ctx, args[0])
		if err != nil {
			return err
		}

		s.l = l
		s.dirty = true
	case "save":
		return s.save(args)
	default:
		return fmt.Errorf("%w: %s (type 'help' for commands)", errUnknownCommand, cmd)
	}

	return nil
}

func (s *session) save(args []string) error {
	switch len(args) {
	case 0:
		if s.path == "" {
			return fmt.Errorf("%w: save <file>", errUsage)
		}
	case 1:
		s.path = s.a.path(args[0])
	default:
		return fmt.Errorf("%w: save [file]", errUsage)
	}

	err := reclist.Save(s.a.fsys, s.l, s.path, nil)
	if err != nil {
		return err
	}

	s.dirty = false

	return nil
}
