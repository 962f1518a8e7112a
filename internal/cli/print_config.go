package cli

import (
	"context"
	"fmt"
	"path/filepath"

	flag "github.com/spf13/pflag"
)

func configCmd(a *app) *Command {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	initFile := fs.Bool("init", false, "Write the effective config to "+ConfigFileName)
	force := fs.Bool("force", false, "With --init, overwrite an existing file")

	return &Command{
		Flags: fs,
		Usage: "config [flags]",
		Short: "Show resolved configuration",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("%w: config takes no arguments", errUsage)
			}

			formatted, err := FormatConfig(a.cfg)
			if err != nil {
				return err
			}

			if *initFile {
				return a.writeConfig(formatted, *force)
			}

			o.Println(formatted)

			// Print sources
			o.Println("")
			o.Println("# Sources:")

			if a.sources.Global != "" {
				o.Println("#   global:", a.sources.Global)
			}

			if a.sources.Project != "" {
				o.Println("#   project:", a.sources.Project)
			}

			if a.sources.Global == "" && a.sources.Project == "" {
				o.Println("#   (using defaults only)")
			}

			return nil
		},
	}
}

func (a *app) writeConfig(formatted string, force bool) error {
	path := filepath.Join(a.workDir, ConfigFileName)

	exists, err := a.fsys.Exists(path)
	if err != nil {
		return err
	}

	if exists && !force {
		return fmt.Errorf("%w: %s (use --force)", errConfigExists, path)
	}

	err = a.fsys.WriteFileAtomic(path, []byte(formatted+"\n"))
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	a.log.Debug("wrote config", "path", path)

	return nil
}
