package reclist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/calvinalkan/reclist/pkg/fs"
)

// MaxLineLen is the longest line a source yields. Longer lines are split.
const MaxLineLen = 8191

// CommentMode selects which comment lines a source drops.
type CommentMode uint8

const (
	// CommentsKeep passes every line through.
	CommentsKeep CommentMode = iota

	// CommentsDirectives drops ';' and '#' lines but keeps "#=#" directives.
	// Selected by a leading '#' on the path.
	CommentsDirectives

	// CommentsStrip drops every ';' and '#' line.
	// Selected by a leading ';' on the path.
	CommentsStrip
)

// Source is a parsed import path.
//
// Grammar: [#|;][:command | ![path] | path], where the path "-" is stdin.
type Source struct {
	Comments  CommentMode
	Command   string
	Path      string
	Stdin     bool
	MissingOK bool
}

// ParseSource decodes the sigils of an import path.
func ParseSource(path string) (Source, error) {
	var src Source

	rest := path

	switch {
	case strings.HasPrefix(rest, "#"):
		src.Comments = CommentsDirectives
		rest = rest[1:]
	case strings.HasPrefix(rest, ";"):
		src.Comments = CommentsStrip
		rest = rest[1:]
	}

	switch {
	case strings.HasPrefix(rest, ":"):
		src.Command = rest[1:]
		if src.Command == "" {
			return Source{}, fmt.Errorf("%w: %q", ErrEmptyPath, path)
		}

		return src, nil
	case strings.HasPrefix(rest, "!"):
		src.MissingOK = true
		rest = rest[1:]
	}

	if rest == "" {
		return Source{}, fmt.Errorf("%w: %q", ErrEmptyPath, path)
	}

	if rest == "-" {
		src.Stdin = true
	}

	src.Path = rest

	return src, nil
}

// String returns the source in path syntax.
func (s Source) String() string {
	var b strings.Builder

	switch s.Comments {
	case CommentsDirectives:
		b.WriteByte('#')
	case CommentsStrip:
		b.WriteByte(';')
	}

	if s.Command != "" {
		b.WriteByte(':')
		b.WriteString(s.Command)

		return b.String()
	}

	if s.MissingOK {
		b.WriteByte('!')
	}

	b.WriteString(s.Path)

	return b.String()
}

// LineFunc receives one line without its terminator. A non-nil error stops
// the read and is returned to the caller.
type LineFunc func(line string) error

// Loader reads sources through an [fs.FS].
type Loader struct {
	FS fs.FS

	// Stdin backs the "-" path. Nil means os.Stdin.
	Stdin io.Reader

	// Shell runs ":command" sources as Shell -c command. Empty means "sh".
	Shell string

	// Dir is the working directory of ":command" sources.
	// Empty means the current directory.
	Dir string
}

// NewLoader returns a Loader on fsys reading stdin from os.Stdin.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{FS: fsys}
}

// ReadLines streams the lines of path to fn.
//
// With a '#' or ';' prefix, empty lines and lines starting with ';' or '#'
// are dropped. A missing file with the '!' prefix yields no lines and no
// error. A ":command" source is always waited for, and a non-zero exit
// returns [ErrCommand] even when fn consumed every line.
func (ld *Loader) ReadLines(ctx context.Context, path string, fn LineFunc) error {
	src, err := ParseSource(path)
	if err != nil {
		return err
	}

	return ld.each(ctx, src, func(line string) error {
		if src.Comments != CommentsKeep && (line == "" || line[0] == '#' || line[0] == ';') {
			return nil
		}

		return fn(line)
	})
}

// ReadFile reads path into a list with one record per non-empty line, the
// whole line being the key.
func (ld *Loader) ReadFile(ctx context.Context, path string) (*List, error) {
	l := New()

	err := ld.ReadLines(ctx, path, func(line string) error {
		l.PushBack(line)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return l, nil
}

// ReadConfig reads "KEY VALUE" lines into a list in file order.
//
// Empty lines are skipped. Each line splits at its first run of blanks into
// key and value. The comment prefix on path selects [CommentMode]:
// '#' keeps "#=#" directive lines, ';' drops all comments, none keeps all.
func (ld *Loader) ReadConfig(ctx context.Context, path string) (*List, error) {
	src, err := ParseSource(path)
	if err != nil {
		return nil, err
	}

	l := New()

	err = ld.each(ctx, src, func(line string) error {
		if keepConfigLine(src.Comments, line) {
			key, value := SplitLine(line)
			l.PushBackValue(key, value)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return l, nil
}

func keepConfigLine(mode CommentMode, line string) bool {
	if strings.TrimLeft(line, " \t") == "" {
		return false
	}

	switch mode {
	case CommentsKeep:
		return true
	case CommentsStrip:
		return line[0] != '#' && line[0] != ';'
	}

	switch line[0] {
	case ';':
		return false
	case '#':
		return strings.HasPrefix(line, "#=#")
	}

	return true
}

// SplitLine splits a config line at its first run of spaces or tabs.
// Leading blanks are ignored.
func SplitLine(line string) (key, value string) {
	line = strings.TrimLeft(line, " \t")

	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}

	return line[:i], strings.TrimLeft(line[i:], " \t")
}

// CompareFile checks that the lines of path equal the record keys of l,
// removed records included, in order and count. It returns [ErrMismatch]
// describing the first difference.
func (ld *Loader) CompareFile(ctx context.Context, l *List, path string) error {
	i := 0

	err := ld.ReadLines(ctx, path, func(line string) error {
		if i >= len(l.recs) {
			return fmt.Errorf("%w: line %d %q beyond %d records", ErrMismatch, i+1, line, len(l.recs))
		}

		if key := l.recs[i].key; key != line {
			return fmt.Errorf("%w: line %d is %q, record key is %q", ErrMismatch, i+1, line, key)
		}

		i++

		return nil
	})
	if err != nil {
		return err
	}

	if i != len(l.recs) {
		return fmt.Errorf("%w: %d lines, %d records", ErrMismatch, i, len(l.recs))
	}

	return nil
}

func (ld *Loader) each(ctx context.Context, src Source, fn LineFunc) error {
	switch {
	case src.Command != "":
		return ld.eachCommand(ctx, src.Command, fn)
	case src.Stdin:
		in := ld.Stdin
		if in == nil {
			in = os.Stdin
		}

		return scanLines(in, fn)
	}

	f, err := ld.FS.Open(src.Path)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist) && src.MissingOK:
			return nil
		case errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("%w: %s", ErrNotFound, src.Path)
		default:
			return fmt.Errorf("%w: %w", ErrAccess, err)
		}
	}

	err = scanLines(f, fn)

	closeErr := f.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("close %s: %w", src.Path, closeErr)
	}

	return err
}

func (ld *Loader) eachCommand(ctx context.Context, command string, fn LineFunc) error {
	shell := ld.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Stdin = ld.Stdin
	cmd.Dir = ld.Dir
	cmd.Stderr = os.Stderr

	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCommand, command, err)
	}

	err = cmd.Start()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCommand, command, err)
	}

	readErr := scanLines(out, fn)
	if readErr != nil {
		// Drain so the child is not blocked writing while we wait for it.
		_, _ = io.Copy(io.Discard, out)
	}

	waitErr := cmd.Wait()

	if waitErr != nil {
		return errors.Join(fmt.Errorf("%w: %s: %w", ErrCommand, command, waitErr), readErr)
	}

	return readErr
}

// scanLines splits r into lines. LF and 0x04 end a line, CR is dropped and
// a line reaching [MaxLineLen] bytes is cut there.
func scanLines(r io.Reader, fn LineFunc) error {
	br := bufio.NewReader(r)
	line := make([]byte, 0, 256)

	for {
		c, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(line) > 0 {
					return fn(string(line))
				}

				return nil
			}

			return fmt.Errorf("read: %w", err)
		}

		switch c {
		case '\r':
			continue
		case '\n', 0x04:
			err = fn(string(line))
			line = line[:0]
		default:
			line = append(line, c)
			if len(line) == MaxLineLen {
				err = fn(string(line))
				line = line[:0]
			}
		}

		if err != nil {
			return err
		}
	}
}

// ReadDir lists dir into a list: key is the entry name, value the joined
// path and ATime the name length. A nil keep accepts every entry.
func ReadDir(fsys fs.FS, dir string, keep func(os.DirEntry) bool) (*List, error) {
	if dir == "" {
		return nil, ErrEmptyPath
	}

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
		}

		return nil, fmt.Errorf("%w: %w", ErrAccess, err)
	}

	l := New()

	for _, e := range entries {
		name := e.Name()
		if name == "." || name == ".." {
			continue
		}

		if keep != nil && !keep(e) {
			continue
		}

		r := l.PushBackValue(name, filepath.Join(dir, name))
		r.ATime = int64(len(name))
	}

	return l, nil
}

// ReadConfig is [Loader.ReadConfig] with stdin from os.Stdin.
func ReadConfig(ctx context.Context, fsys fs.FS, path string) (*List, error) {
	return NewLoader(fsys).ReadConfig(ctx, path)
}

// ReadFile is [Loader.ReadFile] with stdin from os.Stdin.
func ReadFile(ctx context.Context, fsys fs.FS, path string) (*List, error) {
	return NewLoader(fsys).ReadFile(ctx, path)
}
