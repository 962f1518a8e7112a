package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/reclist/pkg/boltstore"
	"github.com/calvinalkan/reclist/pkg/fs"
	"github.com/calvinalkan/reclist/pkg/reclist"
	"github.com/calvinalkan/reclist/pkg/reclist/codec"
)

func dumpCmd(a *app) *Command {
	return &Command{
		Usage: "dump <src> <out>",
		Short: "Write a source as a msgpack snapshot",
		Long:  "Read KEY VALUE lines from src and write them to out as msgpack, atomically.",
		Exec: func(ctx context.Context, _ *IO, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: dump takes a source and an output file", errUsage)
			}

			l, err := a.readConfig(ctx, args[0])
			if err != nil {
				return err
			}

			return reclist.SaveFunc(a.fsys, a.path(args[1]), func(w io.Writer) (int64, error) {
				cw := &fs.CountingWriter{W: w}
				err := codec.Encode(cw, l)

				return cw.N, err
			})
		},
	}
}

func loadCmd(a *app) *Command {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	format := fs.StringP("format", "f", a.cfg.Format, formatHelp)

	return &Command{
		Flags: fs,
		Usage: "load <file> [flags]",
		Short: "Print a msgpack snapshot",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: load takes one file", errUsage)
			}

			data, err := a.fsys.ReadFile(a.path(args[0]))
			if err != nil {
				return fmt.Errorf("%w: %w", reclist.ErrAccess, err)
			}

			l, err := codec.Decode(bytes.NewReader(data))
			if err != nil {
				return err
			}

			_, err = l.Render(o.Out(), lineFormat(*format))

			return err
		},
	}
}

func dbCmd(a *app) *Command {
	fs := flag.NewFlagSet("db", flag.ContinueOnError)
	store := fs.String("store", a.cfg.Store, "Database `file`")
	format := fs.StringP("format", "f", a.cfg.Format, formatHelp)

	return &Command{
		Flags: fs,
		Usage: "db <put|get|ls|rm> [args] [flags]",
		Short: "Keep named lists in a database",
		Long: "Store and fetch named lists in a bbolt database.\n\n" +
			"  db put <name> <src>   store the records of src under name\n" +
			"  db get <name>         print a stored list\n" +
			"  db ls                 list stored names\n" +
			"  db rm <name>          delete a stored list",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: db needs a subcommand", errUsage)
			}

			sub, args := args[0], args[1:]

			want := map[string]int{"put": 2, "get": 1, "ls": 0, "rm": 1}

			n, ok := want[sub]
			if !ok {
				return fmt.Errorf("%w: db %s", errUnknownSubcommand, sub)
			}

			if len(args) != n {
				return fmt.Errorf("%w: db %s takes %d arguments", errUsage, sub, n)
			}

			// Read the source before opening the store so a slow command
			// does not hold the database lock.
			var l *reclist.List

			if sub == "put" {
				var err error

				l, err = a.readConfig(ctx, args[1])
				if err != nil {
					return err
				}
			}

			path := a.path(*store)
			readOnly := sub == "get" || sub == "ls"

			if readOnly {
				exists, err := a.fsys.Exists(path)
				if err != nil {
					return err
				}

				if !exists && sub == "ls" {
					return nil
				}

				if !exists {
					return fmt.Errorf("%w: %s", boltstore.ErrNotFound, args[0])
				}
			}

			s, err := boltstore.Open(path, boltstore.Options{ReadOnly: readOnly})
			if err != nil {
				return err
			}

			defer func() { _ = s.Close() }()

			switch sub {
			case "put":
				a.log.Debug("db put", "name", args[0], "records", l.Len())

				return s.Put(args[0], l)
			case "get":
				l, err = s.Get(args[0])
				if err != nil {
					return err
				}

				_, err = l.Render(o.Out(), lineFormat(*format))

				return err
			case "ls":
				names, err := s.Names()
				if err != nil {
					return err
				}

				for _, name := range names {
					o.Println(name)
				}

				return nil
			default:
				return s.Delete(args[0])
			}
		},
	}
}
