package fs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Errors returned by [SaveAtomic]. They are joined with the underlying cause,
// so callers match with errors.Is.
var (
	ErrEmptyPath    = errors.New("fs: empty path")
	ErrWrite        = errors.New("fs: write temp file")
	ErrClose        = errors.New("fs: close temp file")
	ErrTempMissing  = errors.New("fs: temp file missing")
	ErrSizeMismatch = errors.New("fs: temp file size mismatch")
	ErrRename       = errors.New("fs: rename")

	// ErrDirSync means the new file is in place but the parent directory
	// could not be synced, so durability is not guaranteed.
	ErrDirSync = errors.New("fs: dir sync")
)

// WriteFunc writes the full file content to w and reports how many bytes it
// wrote. The count is checked against the temp file size before rename.
type WriteFunc func(w io.Writer) (int64, error)

// TempPath returns the temp name used by [SaveAtomic] for path.
func TempPath(path string) string {
	return path + ".tmp_" + strconv.Itoa(os.Getpid())
}

// SaveAtomic writes path through a sibling temp file.
//
// Sequence: create [TempPath], run fn, sync and close, check the temp file
// exists with exactly the size fn reported, rename over path, fsync the
// parent directory. On any failure before the rename completes the temp
// file is removed and the previous content of path is untouched.
func SaveAtomic(fsys FS, path string, fn WriteFunc) error {
	if path == "" {
		return ErrEmptyPath
	}

	if fn == nil {
		panic("fn is nil")
	}

	tmp := TempPath(path)

	err := writeTemp(fsys, tmp, fn)
	if err != nil {
		return errors.Join(err, removeTemp(fsys, tmp))
	}

	err = fsys.Rename(tmp, path)
	if err != nil {
		return errors.Join(fmt.Errorf("%w %q: %w", ErrRename, path, err), removeTemp(fsys, tmp))
	}

	dir := filepath.Dir(path)

	err = fsys.SyncDir(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDirSync, err)
	}

	return nil
}

func writeTemp(fsys FS, tmp string, fn WriteFunc) error {
	f, err := fsys.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create %q: %w", ErrWrite, tmp, err)
	}

	bw := bufio.NewWriter(f)

	n, err := fn(bw)
	if err == nil {
		err = bw.Flush()
	}

	if err == nil {
		err = f.Sync()
	}

	if err != nil {
		_ = f.Close()

		return fmt.Errorf("%w %q: %w", ErrWrite, tmp, err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrClose, tmp, err)
	}

	info, err := fsys.Stat(tmp)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrTempMissing, tmp, err)
	}

	if info.Size() != n {
		return fmt.Errorf("%w: %q has %d bytes, writer reported %d", ErrSizeMismatch, tmp, info.Size(), n)
	}

	return nil
}

func removeTemp(fsys FS, tmp string) error {
	err := fsys.Remove(tmp)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp file %q: %w", tmp, err)
	}

	return nil
}

// CountingWriter wraps W and tracks bytes written in N, for serializers
// that must report their byte count to [SaveAtomic].
type CountingWriter struct {
	W io.Writer
	N int64
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.W.Write(p)
	c.N += int64(n)

	return n, err
}
