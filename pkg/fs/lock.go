package fs

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

var (
	// ErrWouldBlock is returned when the lock is held elsewhere and the
	// caller asked not to wait, or the wait timed out.
	ErrWouldBlock = errors.New("fs: lock would block")

	// ErrInvalidTimeout is returned for a timeout <= 0.
	ErrInvalidTimeout = errors.New("fs: invalid lock timeout")

	// errReplaced means the lock file was replaced between open and flock.
	errReplaced = errors.New("lock file replaced")
)

// Locker takes exclusive flock(2) locks on lock files.
//
// flock is advisory and binds to an inode, so lock a dedicated file that is
// never renamed over (for example "app.cfg.lock"), not the file that
// [SaveAtomic] replaces. After flock the locked descriptor is checked against
// the inode at the path; on mismatch the lock is retried.
//
// Locks need a real descriptor, so Locker opens files through the os package
// rather than an [FS].
type Locker struct {
	flock func(fd int, how int) error
}

// NewLocker returns a Locker using flock(2).
func NewLocker() *Locker {
	return &Locker{flock: unix.Flock}
}

// Lock is a held lock. Close releases it.
type Lock struct {
	mu    sync.Mutex
	file  *os.File
	flock func(fd int, how int) error
}

// Close unlocks and closes the lock file. Further calls return nil.
func (lk *Lock) Close() error {
	lk.mu.Lock()
	defer lk.mu.Unlock()

	if lk.file == nil {
		return nil
	}

	unlockErr := flockRetryEINTR(lk.flock, int(lk.file.Fd()), unix.LOCK_UN)
	closeErr := lk.file.Close()
	lk.file = nil

	if unlockErr != nil {
		unlockErr = fmt.Errorf("unlocking lock: %w", unlockErr)
	}

	if closeErr != nil {
		closeErr = fmt.Errorf("closing lock fd: %w", closeErr)
	}

	return errors.Join(unlockErr, closeErr)
}

// Lock blocks until it holds the lock on path, creating the file if needed.
func (l *Locker) Lock(path string) (*Lock, error) {
	for {
		lk, err := l.try(path, true)
		if errors.Is(err, errReplaced) {
			continue
		}

		return lk, err
	}
}

// TryLock takes the lock on path or returns [ErrWouldBlock] at once.
func (l *Locker) TryLock(path string) (*Lock, error) {
	lk, err := l.try(path, false)
	if errors.Is(err, errReplaced) {
		return nil, fmt.Errorf("%w: lock file was replaced while acquiring lock", ErrWouldBlock)
	}

	return lk, err
}

// LockWithTimeout polls for the lock with backoff from 1ms to 25ms and
// returns [ErrWouldBlock] once timeout has passed.
func (l *Locker) LockWithTimeout(path string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimeout, timeout)
	}

	deadline := time.Now().Add(timeout)
	backoff := time.Millisecond

	for {
		lk, err := l.try(path, false)
		if err == nil {
			return lk, nil
		}

		if !errors.Is(err, ErrWouldBlock) && !errors.Is(err, errReplaced) {
			return nil, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: timed out after %s", ErrWouldBlock, timeout)
		}

		time.Sleep(min(backoff, remaining))

		backoff = min(backoff*2, 25*time.Millisecond)
	}
}

func (l *Locker) try(path string, block bool) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600) //nolint:gosec // lock path is caller-chosen
	if err != nil {
		return nil, fmt.Errorf("opening lockfile: %w", err)
	}

	how := unix.LOCK_EX
	if !block {
		how |= unix.LOCK_NB
	}

	err = flockRetryEINTR(l.flock, int(f.Fd()), how)
	if err != nil {
		_ = f.Close()

		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
			return nil, ErrWouldBlock
		}

		return nil, fmt.Errorf("flock: %w", err)
	}

	same, err := sameInode(f, path)
	if err != nil || !same {
		_ = flockRetryEINTR(l.flock, int(f.Fd()), unix.LOCK_UN)
		_ = f.Close()

		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("verifying lock inode: %w", err)
		}

		return nil, errReplaced
	}

	return &Lock{file: f, flock: l.flock}, nil
}

func sameInode(f *os.File, path string) (bool, error) {
	open, err := f.Stat()
	if err != nil {
		return false, err
	}

	cur, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	return os.SameFile(open, cur), nil
}

// flockRetryEINTR retries flock when a signal interrupts it, up to a cap.
func flockRetryEINTR(flock func(fd int, how int) error, fd int, how int) error {
	const maxEINTRRetries = 10000

	var err error
	for range maxEINTRRetries {
		err = flock(fd, how)
		if err == nil || !errors.Is(err, unix.EINTR) {
			return err
		}
	}

	return err
}
