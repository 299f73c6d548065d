// Package lock serialises mutating fossil operations across processes with
// an advisory lock file.
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/keshon/fossil/internal/apperr"
)

// RetryDelay is the polling interval used by Lock.
const RetryDelay = 100 * time.Millisecond

// Locker guards one lock file. The lock lives on the real filesystem even
// when the rest of fossil runs against another afero.Fs.
type Locker struct {
	Path string
}

// New returns a Locker for path.
func New(path string) *Locker {
	return &Locker{Path: path}
}

// Lock blocks until the lock is held or ctx is done.
func (l *Locker) Lock(ctx context.Context) (unlock func(), err error) {
	fl, err := l.open()
	if err != nil {
		return nil, err
	}
	ok, err := fl.TryLockContext(ctx, RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire lock %q: %w", l.Path, err)
	}
	if !ok {
		return nil, apperr.Path("acquire lock", l.Path, apperr.ErrLocked)
	}
	return release(fl), nil
}

// TryLock takes the lock without waiting; a held lock yields apperr.ErrLocked.
func (l *Locker) TryLock() (unlock func(), err error) {
	fl, err := l.open()
	if err != nil {
		return nil, err
	}
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %q: %w", l.Path, err)
	}
	if !ok {
		return nil, apperr.Path("acquire lock", l.Path, apperr.ErrLocked)
	}
	return release(fl), nil
}

func (l *Locker) open() (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	return flock.New(l.Path), nil
}

func release(fl *flock.Flock) func() {
	return func() { _ = fl.Unlock() }
}
