package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/reclist/pkg/jsontree"
	"github.com/calvinalkan/reclist/pkg/reclist"
)

func jsonCmd(a *app) *Command {
	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	indent := fs.String("indent", a.cfg.Indent, "Indent `string` for pretty output")
	compact := fs.Bool("compact", false, "Write compact JSON")
	get := fs.StringP("get", "g", "", "Print only the value at a dotted `path`, e.g. servers.0.host")
	raw := fs.BoolP("raw", "r", false, "With --get, print scalars without JSON quoting")

	return &Command{
		Flags: fs,
		Usage: "json <file|-> [flags]",
		Short: "Reformat JSON or extract a value",
		Long: "Parse a JSON value stream into a record tree and write it back.\n" +
			"Member order and number text are preserved.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: json takes one file", errUsage)
			}

			l, err := a.parseJSON(o, args[0])
			if err != nil {
				return err
			}

			ind := *indent
			if *compact {
				ind = ""
			}

			if *get == "" {
				return jsontree.Write(o.Out(), l, ind)
			}

			r := jsontree.Lookup(l, strings.Split(*get, ".")...)
			if r == nil {
				return fmt.Errorf("%w: %s", reclist.ErrNotFound, *get)
			}

			if *raw && r.Sub() == nil {
				o.Println(r.Value())

				return nil
			}

			return jsontree.WriteRecord(o.Out(), r, ind)
		},
	}
}

func (a *app) parseJSON(o *IO, name string) (*reclist.List, error) {
	if name == "-" {
		if o.In() == nil {
			return jsontree.Parse(strings.NewReader(""))
		}

		return jsontree.Parse(o.In())
	}

	f, err := a.fsys.Open(a.path(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", reclist.ErrAccess, err)
	}

	defer func() { _ = f.Close() }()

	return jsontree.Parse(f)
}
