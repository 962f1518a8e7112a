package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/reclist/pkg/reclist"
)

func setCmd(a *app) *Command {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	front := fs.Bool("front", false, "Insert new keys at the front instead of the back")
	sorted := fs.Bool("sorted", false, "Insert new keys at their sorted position")

	return &Command{
		Flags: fs,
		Usage: "set <file> <key> [value...]",
		Short: "Set a key in a config file",
		Long: "Set key to value in a KEY VALUE file, creating the file if missing.\n" +
			"An existing or removed key keeps its position. The file is replaced atomically.",
		Exec: func(ctx context.Context, _ *IO, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("%w: set takes a file, a key and an optional value", errUsage)
			}

			path := a.path(args[0])

			lk, err := a.lock(path)
			if err != nil {
				return err
			}

			defer func() { _ = lk.Close() }()

			l, err := a.loader.ReadConfig(ctx, "!"+path)
			if err != nil {
				return err
			}

			key := args[1]

			var r *reclist.Record

			switch {
			case *sorted:
				r = l.UpsertSorted(key)
			case *front:
				r = l.UpsertFront(key)
			default:
				r = l.UpsertBack(key)
			}

			if r == nil {
				return errEmptyKey
			}

			r.SetValue(strings.Join(args[2:], " "))

			err = reclist.Save(a.fsys, l, path, nil)
			if err != nil {
				return err
			}

			a.log.Debug("set", "file", path, "key", key, "records", l.Len())

			return nil
		},
	}
}

func delCmd(a *app) *Command {
	fs := flag.NewFlagSet("del", flag.ContinueOnError)
	all := fs.BoolP("all", "a", false, "Delete every record with the key")

	return &Command{
		Flags: fs,
		Usage: "del <file> <key> [flags]",
		Short: "Delete a key from a config file",
		Long:  "Delete the first record with key from a KEY VALUE file.\nExits 1 when the key is absent.",
		Exec: func(ctx context.Context, _ *IO, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: del takes a file and a key", errUsage)
			}

			path := a.path(args[0])

			lk, err := a.lock(path)
			if err != nil {
				return err
			}

			defer func() { _ = lk.Close() }()

			l, err := a.loader.ReadConfig(ctx, path)
			if err != nil {
				return err
			}

			if !l.Remove(args[1]) {
				return fmt.Errorf("%w: %s", reclist.ErrNotFound, args[1])
			}

			removed := 1
			for *all && l.Remove(args[1]) {
				removed++
			}

			l.Purge()

			err = reclist.Save(a.fsys, l, path, nil)
			if err != nil {
				return err
			}

			a.log.Debug("deleted", "file", path, "key", args[1], "removed", removed)

			return nil
		},
	}
}

func sortCmd(a *app) *Command {
	fs := flag.NewFlagSet("sort", flag.ContinueOnError)
	reverse := fs.BoolP("reverse", "r", false, "Sort in descending order")

	return &Command{
		Flags: fs,
		Usage: "sort <file> [flags]",
		Short: "Sort a config file by key",
		Long:  "Sort a KEY VALUE file by key, then value, and replace it atomically.",
		Exec: func(ctx context.Context, _ *IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: sort takes one file", errUsage)
			}

			path := a.path(args[0])

			lk, err := a.lock(path)
			if err != nil {
				return err
			}

			defer func() { _ = lk.Close() }()

			l, err := a.loader.ReadConfig(ctx, path)
			if err != nil {
				return err
			}

			ix := reclist.BuildIndex(l)

			if *reverse {
				l.Reverse()
			}

			a.log.Debug("sorted", "file", path, "records", ix.Len())

			return reclist.Save(a.fsys, l, path, nil)
		},
	}
}

func cmpCmd(a *app) *Command {
	return &Command{
		Usage: "cmp <file> <src>",
		Short: "Compare the lines of a file and a source",
		Long: "Compare the lines of file with the lines of src, in order and count.\n" +
			"Exits 1 and describes the first difference when they differ.",
		Exec: func(ctx context.Context, _ *IO, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: cmp takes a file and a source", errUsage)
			}

			l, err := a.loader.ReadFile(ctx, a.path(args[0]))
			if err != nil {
				return err
			}

			src, err := a.source(args[1])
			if err != nil {
				return err
			}

			return a.loader.CompareFile(ctx, l, src)
		},
	}
}
