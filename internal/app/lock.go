package app

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrDaemonRunning is returned when another daemon holds the state lock.
var ErrDaemonRunning = errors.New("another daemon holds the lock")

// AcquireLock takes the daemon's single-instance lock at path without waiting.
// The returned release func is safe to call more than once.
func AcquireLock(path string) (func(), error) {
	l := flock.New(path)
	locked, err := l.TryLock()
	if err != nil {
		return func() {}, fmt.Errorf("cannot acquire daemon lock: %w", err)
	}
	if !locked {
		return func() {}, fmt.Errorf("%w (lock: %s)", ErrDaemonRunning, path)
	}
	return func() { _ = l.Unlock() }, nil
}
