package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/reclist/pkg/reclist"
)

const formatHelp = "Output template: %Tk key, %Ts value, %Tv value or key, %Td data, %Tl key and value, " +
	"%Ta %Tb %Tn %Tr numbers, %Tf %Te float; %Ok %Os %Od %Ov drop a line when that field is used in the template and empty"

var formatEscapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\\`, `\`)

// lineFormat expands \n and \t in a template given on the command line and
// ends it with a newline. The empty template stays empty.
func lineFormat(format string) string {
	if format == "" {
		return ""
	}

	format = formatEscapes.Replace(format)
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}

	return format
}

func showCmd(a *app) *Command {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	format := fs.StringP("format", "f", a.cfg.Format, formatHelp)
	lines := fs.BoolP("lines", "l", false, "Use whole lines as keys instead of KEY VALUE")
	sorted := fs.BoolP("sort", "s", false, "Sort by key")
	reverse := fs.BoolP("reverse", "r", false, "Reverse the order")
	split := fs.String("split", "", "Split keys at this byte into key and value")

	return &Command{
		Flags: fs,
		Usage: "show <src> [flags]",
		Short: "Print the records of a source",
		Long: "Read KEY VALUE lines from a source and print them through a template.\n" +
			"An empty template prints \"key value\" per record.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: show takes one source", errUsage)
			}

			var (
				l   *reclist.List
				err error
			)

			if *lines {
				var src string

				src, err = a.source(args[0])
				if err == nil {
					l, err = a.loader.ReadFile(ctx, src)
				}
			} else {
				l, err = a.readConfig(ctx, args[0])
			}

			if err != nil {
				return err
			}

			if *split != "" {
				l.SeparateAll((*split)[0])
			}

			if *sorted {
				l.Sort(nil)
			}

			if *reverse {
				l.Reverse()
			}

			_, err = l.Render(o.Out(), lineFormat(*format))

			return err
		},
	}
}

func getCmd(a *app) *Command {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	prefix := fs.IntP("prefix", "p", 0, "Match only the first `n` bytes of the key")
	orKey := fs.BoolP("or-key", "k", false, "Print the key when the value is empty")

	return &Command{
		Flags: fs,
		Usage: "get <src> <key> [flags]",
		Short: "Print the value of a key",
		Long:  "Print the value of the first active record with the given key.\nExits 1 when the key is absent.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("%w: get takes a source and a key", errUsage)
			}

			l, err := a.readConfig(ctx, args[0])
			if err != nil {
				return err
			}

			key := args[1]

			var r *reclist.Record
			if *prefix > 0 {
				r = l.FindPrefix(*prefix, key)
			} else {
				r = l.Find(key)
			}

			if r == nil {
				return fmt.Errorf("%w: %s", reclist.ErrNotFound, key)
			}

			if *orKey {
				o.Println(r.ValueOrKey())
			} else {
				o.Println(r.Value())
			}

			return nil
		},
	}
}

func dirCmd(a *app) *Command {
	fs := flag.NewFlagSet("dir", flag.ContinueOnError)
	format := fs.StringP("format", "f", "%Tk", formatHelp+"; %Ta is the name length")
	all := fs.BoolP("all", "a", false, "Include entries starting with a dot")
	sorted := fs.BoolP("sort", "s", false, "Sort by name")

	return &Command{
		Flags: fs,
		Usage: "dir <path> [flags]",
		Short: "List a directory as records",
		Long:  "List a directory: key is the entry name, value the full path.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: dir takes one path", errUsage)
			}

			var keep func(e os.DirEntry) bool
			if !*all {
				keep = func(e os.DirEntry) bool { return !strings.HasPrefix(e.Name(), ".") }
			}

			l, err := reclist.ReadDir(a.fsys, a.path(args[0]), keep)
			if err != nil {
				return err
			}

			if *sorted {
				l.Sort(nil)
			}

			_, err = l.Render(o.Out(), lineFormat(*format))

			return err
		},
	}
}
