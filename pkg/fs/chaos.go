package fs

import (
	"errors"
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
)

// ChaosConfig controls fault injection probabilities.
// Each rate is a float64 from 0.0 (never) to 1.0 (always).
//
// The zero value disables all fault injection.
type ChaosConfig struct {
	// OpenFailRate controls how often FS.Open and FS.OpenFile fail.
	OpenFailRate float64

	// ReadFailRate controls how often FS.ReadFile and File.Read fail with EIO.
	ReadFailRate float64

	// WriteFailRate controls how often File.Write fails, writing zero bytes.
	WriteFailRate float64

	// PartialWriteRate controls how often File.Write writes half the buffer
	// and then fails with ENOSPC.
	PartialWriteRate float64

	// SyncFailRate controls how often File.Sync fails.
	SyncFailRate float64

	// CloseFailRate controls how often File.Close reports an error.
	// The descriptor is always closed.
	CloseFailRate float64

	// StatFailRate controls how often FS.Stat and FS.Exists fail.
	StatFailRate float64

	// RenameFailRate controls how often FS.Rename fails.
	RenameFailRate float64

	// RemoveFailRate controls how often FS.Remove fails.
	RemoveFailRate float64

	// SyncDirFailRate controls how often FS.SyncDir fails.
	SyncDirFailRate float64
}

// ChaosMode controls how [Chaos] behaves.
type ChaosMode uint8

const (
	// ChaosModeActive enables fault-rate injection. Default for a new [Chaos].
	ChaosModeActive ChaosMode = iota

	// ChaosModeNoOp passes every operation directly to the underlying FS.
	ChaosModeNoOp
)

// Chaos wraps an [FS] and injects failures according to [ChaosConfig].
// Injected errors satisfy [IsInjected].
type Chaos struct {
	fs     FS
	config ChaosConfig
	mode   atomic.Uint32
	faults atomic.Int64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewChaos wraps underlying with a seeded fault injector.
// Panics if underlying or config is nil.
func NewChaos(underlying FS, seed int64, config *ChaosConfig) *Chaos {
	if underlying == nil {
		panic("underlying fs is nil")
	}

	if config == nil {
		panic("config is nil")
	}

	return &Chaos{
		fs:     underlying,
		config: *config,
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1)),
	}
}

// SetMode switches between active injection and passthrough.
func (c *Chaos) SetMode(m ChaosMode) { c.mode.Store(uint32(m)) }

// TotalFaults returns the number of faults injected so far.
func (c *Chaos) TotalFaults() int64 { return c.faults.Load() }

func (c *Chaos) Open(path string) (File, error) {
	if c.should(c.config.OpenFailRate) {
		return nil, c.pathError("open", path, syscall.EACCES)
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return nil, err
	}

	return &chaosFile{File: f, c: c, path: path}, nil
}

func (c *Chaos) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if c.should(c.config.OpenFailRate) {
		errno := syscall.EACCES
		if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
			errno = syscall.ENOSPC
		}

		return nil, c.pathError("open", path, errno)
	}

	f, err := c.fs.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	return &chaosFile{File: f, c: c, path: path}, nil
}

func (c *Chaos) ReadFile(path string) ([]byte, error) {
	if c.should(c.config.ReadFailRate) {
		return nil, c.pathError("read", path, syscall.EIO)
	}

	return c.fs.ReadFile(path)
}

func (c *Chaos) ReadDir(path string) ([]os.DirEntry, error) {
	if c.should(c.config.ReadFailRate) {
		return nil, c.pathError("readdirent", path, syscall.EIO)
	}

	return c.fs.ReadDir(path)
}

func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	if c.should(c.config.StatFailRate) {
		return nil, c.pathError("stat", path, syscall.EIO)
	}

	return c.fs.Stat(path)
}

func (c *Chaos) Exists(path string) (bool, error) {
	if c.should(c.config.StatFailRate) {
		return false, c.pathError("stat", path, syscall.EIO)
	}

	return c.fs.Exists(path)
}

func (c *Chaos) Remove(path string) error {
	if c.should(c.config.RemoveFailRate) {
		return c.pathError("remove", path, syscall.EBUSY)
	}

	return c.fs.Remove(path)
}

func (c *Chaos) Rename(oldpath, newpath string) error {
	if c.should(c.config.RenameFailRate) {
		c.faults.Add(1)

		return &InjectedError{Err: &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}}
	}

	return c.fs.Rename(oldpath, newpath)
}

func (c *Chaos) SyncDir(path string) error {
	if c.should(c.config.SyncDirFailRate) {
		return c.pathError("fsync", path, syscall.EIO)
	}

	return c.fs.SyncDir(path)
}

func (c *Chaos) should(rate float64) bool {
	if rate <= 0 || ChaosMode(c.mode.Load()) == ChaosModeNoOp {
		return false
	}

	c.mu.Lock()
	hit := c.rng.Float64() < rate
	c.mu.Unlock()

	return hit
}

func (c *Chaos) pathError(op, path string, errno syscall.Errno) error {
	c.faults.Add(1)

	return &InjectedError{Err: &os.PathError{Op: op, Path: path, Err: errno}}
}

type chaosFile struct {
	File

	c    *Chaos
	path string
}

func (f *chaosFile) Read(p []byte) (int, error) {
	if f.c.should(f.c.config.ReadFailRate) {
		return 0, f.c.pathError("read", f.path, syscall.EIO)
	}

	return f.File.Read(p)
}

func (f *chaosFile) Write(p []byte) (int, error) {
	if f.c.should(f.c.config.WriteFailRate) {
		return 0, f.c.pathError("write", f.path, syscall.EIO)
	}

	if len(p) > 1 && f.c.should(f.c.config.PartialWriteRate) {
		n, err := f.File.Write(p[:len(p)/2])
		if err != nil {
			return n, err
		}

		return n, f.c.pathError("write", f.path, syscall.ENOSPC)
	}

	return f.File.Write(p)
}

func (f *chaosFile) Sync() error {
	if f.c.should(f.c.config.SyncFailRate) {
		return f.c.pathError("sync", f.path, syscall.EIO)
	}

	return f.File.Sync()
}

func (f *chaosFile) Close() error {
	err := f.File.Close()
	if f.c.should(f.c.config.CloseFailRate) {
		return errors.Join(f.c.pathError("close", f.path, syscall.EIO), err)
	}

	return err
}

var _ FS = (*Chaos)(nil)
