package dubbing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created inside the output directory while a run holds it.
const LockFileName = ".opendub.lock"

// ErrRunInProgress reports that another process holds the output directory.
var ErrRunInProgress = errors.New("another opendub run is using the output directory")

// DirLock is an advisory lock on an output directory.
type DirLock struct {
	path string
	lock *flock.Flock
}

// LockOutputDir acquires the output directory lock without blocking.
func LockOutputDir(dir string) (*DirLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, LockFileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrRunInProgress, path)
	}
	return &DirLock{path: path, lock: lock}, nil
}

// Path returns the lock file location.
func (l *DirLock) Path() string { return l.path }

// Release unlocks and removes the lock file.
func (l *DirLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	_ = os.Remove(l.path)
	return nil
}
