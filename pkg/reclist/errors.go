package reclist

import "errors"

// Sentinel errors returned by reclist operations.
//
// Callers should use [errors.Is] to check error types:
//
//	l, err := reclist.ReadConfig(ctx, fsys, "!app.cfg")
//	if errors.Is(err, reclist.ErrCommand) {
//	    // the :command source exited non-zero
//	}
var (
	// ErrEmptyPath indicates an empty path (or a path that is only sigils).
	//
	// This is a programming error.
	ErrEmptyPath = errors.New("reclist: empty path")

	// ErrNotFound indicates a missing source file or a key absent from an [Index].
	//
	// Sources prefixed with "!" never return it for a missing file.
	ErrNotFound = errors.New("reclist: not found")

	// ErrAccess indicates the source exists but cannot be read.
	ErrAccess = errors.New("reclist: access denied")

	// ErrCommand indicates a ":command" source could not be started or
	// exited non-zero. The *exec.ExitError is wrapped when available.
	ErrCommand = errors.New("reclist: command failed")

	// ErrStaleIndex indicates the [List] changed after the [Index] was built.
	//
	// Recovery: call [BuildIndex] again.
	ErrStaleIndex = errors.New("reclist: stale index")

	// ErrExternalSet indicates [Record.SetExternal] was called on a record
	// whose external slot is already taken.
	ErrExternalSet = errors.New("reclist: external data already set")

	// ErrMismatch indicates [CompareFile] found a line that differs from the
	// record key at the same position, or a length difference.
	ErrMismatch = errors.New("reclist: mismatch")
)
