// Package lock provides the advisory file lock that keeps a single writer per
// index directory.
package lock

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
)

// FileLock is an exclusive flock held on an open file. Locks belong to the
// open file description, so two Acquire calls on the same path conflict even
// within one process.
type FileLock struct {
	path string
	f    *os.File
}

// Acquire takes the lock at path without blocking. If another holder has it,
// the error wraps errors.ErrStoreLocked.
func Acquire(path string) (*FileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, errors.Newf(errors.ErrStoreLocked, errors.ExitUnavailable,
				"another writer holds %s", path)
		}
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}

	// Holder pid is informational only.
	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return &FileLock{path: path, f: f}, nil
}

func (l *FileLock) Path() string {
	return l.path
}

// Release unlocks and closes the lock file. The file itself is left in place.
func (l *FileLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	if err != nil {
		return fmt.Errorf("releasing lock %s: %w", l.path, err)
	}
	return nil
}
