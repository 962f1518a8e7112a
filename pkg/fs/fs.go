// Package fs is the filesystem seam used by reclist persistence.
//
// The main types are:
//   - [FS]: interface for filesystem operations
//   - [File]: interface for open files (satisfied by [os.File])
//   - [Real]: production implementation using [os] package
//   - [Chaos]: testing implementation that injects failures
//   - [Locker]: flock(2) locks on lock files
//
// [SaveAtomic] builds the write-temp, verify-size, rename sequence on top of
// any [FS], so persistence code can be exercised against [Chaos] in tests.
package fs

import (
	"io"
	"os"
)

// File represents an OS-backed open file descriptor.
//
// This interface is satisfied by [os.File]. [File] includes [io.Writer] even
// for read-only handles; like [os.File], Write must fail when the file wasn't
// opened for writing.
type File interface {
	io.ReadWriteCloser

	// Stat returns the [os.FileInfo] for this file. See [os.File.Stat].
	Stat() (os.FileInfo, error)

	// Sync commits the file's contents to disk. See [os.File.Sync].
	Sync() error
}

// FS defines the filesystem operations reclist needs.
//
// Paths use OS semantics (like the os package and path/filepath), not the
// slash-separated paths used by io/fs.
type FS interface {
	// Open opens a file for reading. See [os.Open].
	Open(path string) (File, error)

	// OpenFile opens a file with specified flags and permissions. See [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// ReadDir reads a directory and returns its entries sorted by name.
	ReadDir(path string) ([]os.DirEntry, error)

	// Stat returns file info. Returns [os.ErrNotExist] if the file doesn't exist.
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error

	// Rename moves a file. Atomic on the same filesystem. See [os.Rename].
	Rename(oldpath, newpath string) error

	// SyncDir fsyncs a directory so a preceding rename is durable.
	SyncDir(path string) error
}

var _ File = (*os.File)(nil)
