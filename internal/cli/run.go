package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/reclist/pkg/fs"
	"github.com/calvinalkan/reclist/pkg/reclist"
)

// app is the state shared by all commands of one invocation.
type app struct {
	cfg     Config
	sources ConfigSources
	workDir string
	fsys    *fs.Real
	locker  *fs.Locker
	loader  *reclist.Loader
	log     *slog.Logger
}

// Run is the main entry point. Returns exit code.
//
// A signal on sigCh cancels the command's context. sigCh may be nil.
func Run(stdin io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	global := flag.NewFlagSet("recl", flag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(io.Discard)

	workDir := global.StringP("cwd", "C", "", "Run as if started in `dir`")
	configPath := global.StringP("config", "c", "", "Use specified config `file`")
	verbose := global.BoolP("verbose", "v", false, "Log debug output to stderr")
	help := global.BoolP("help", "h", false, "Show help")

	if len(args) == 0 {
		args = []string{"recl"}
	}

	err := global.Parse(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, nil)

		return 1
	}

	rest := global.Args()

	if *help || len(rest) == 0 {
		printUsage(out, nil)

		return 0
	}

	dir := *workDir
	if dir == "" {
		dir, err = os.Getwd()
		if err != nil {
			fprintln(errOut, "error: cannot get working directory:", err)

			return 1
		}
	}

	dir, err = filepath.Abs(dir)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	fsys := fs.NewReal()

	cfg, sources, err := LoadConfig(fsys, dir, *configPath, env)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	a := &app{
		cfg:     cfg,
		sources: sources,
		workDir: dir,
		fsys:    fsys,
		locker:  fs.NewLocker(),
		loader:  &reclist.Loader{FS: fsys, Stdin: stdin, Shell: cfg.Shell, Dir: dir},
		log:     newLogger(errOut, *verbose),
	}

	commands := a.commands()

	var cmd *Command

	for _, c := range commands {
		if c.Name() == rest[0] {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error:", fmt.Errorf("%w: %s", errUnknownCommand, rest[0]))
		printUsage(errOut, commands)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	a.log.Debug("running command", "cmd", cmd.Name(), "cwd", dir, "global", sources.Global, "project", sources.Project)

	return cmd.Run(ctx, NewIO(stdin, out, errOut), rest[1:])
}

func (a *app) commands() []*Command {
	return []*Command{
		showCmd(a),
		getCmd(a),
		setCmd(a),
		delCmd(a),
		sortCmd(a),
		cmpCmd(a),
		dirCmd(a),
		jsonCmd(a),
		dumpCmd(a),
		loadCmd(a),
		dbCmd(a),
		shellCmd(a),
		watchCmd(a),
		configCmd(a),
	}
}

// path resolves a plain file argument against the work dir.
func (a *app) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(a.workDir, p)
}

// source resolves the file part of a sigil path against the work dir.
// Commands and stdin are returned unchanged.
func (a *app) source(p string) (string, error) {
	src, err := reclist.ParseSource(p)
	if err != nil {
		return "", err
	}

	if src.Command != "" || src.Stdin {
		return p, nil
	}

	src.Path = a.path(src.Path)

	return src.String(), nil
}

// lock takes the edit lock of a file, "<path>.lock", waiting up to the
// configured lock timeout.
func (a *app) lock(path string) (*fs.Lock, error) {
	timeout, err := time.ParseDuration(a.cfg.LockTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errLockTimeoutInvalid, err)
	}

	lk, err := a.locker.LockWithTimeout(path+".lock", timeout)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	return lk, nil
}

// readConfig reads a "KEY VALUE" source.
func (a *app) readConfig(ctx context.Context, p string) (*reclist.List, error) {
	resolved, err := a.source(p)
	if err != nil {
		return nil, err
	}

	l, err := a.loader.ReadConfig(ctx, resolved)
	if err != nil {
		return nil, err
	}

	a.log.Debug("read config", "source", resolved, "records", l.Len())

	return l, nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, commands []*Command) {
	if commands == nil {
		commands = (&app{cfg: DefaultConfig()}).commands()
	}

	fprintln(w, `recl - keyed record lists from config files, commands and JSON

Usage: recl [options] <command> [args]

Options:
  -C, --cwd <dir>      Run as if started in <dir>
  -c, --config <file>  Use specified config file
  -v, --verbose        Log debug output to stderr

Sources:
  path, -              file or stdin
  !path                file, missing is empty
  :command             output of "sh -c command"
  #src, ;src           drop comments (# keeps "#=#" lines)

Commands:`)

	for _, c := range commands {
		fprintln(w, c.HelpLine())
	}
}
