// Package lockfile provides cross-process advisory file locks for config
// writes.
//
// A lock is a sidecar "<target>.lock" file held with a non-blocking flock.
// Acquisition retries with exponential backoff. A lock file untouched for
// longer than StaleTimeout whose flock is no longer held is treated as
// abandoned by a crashed holder and broken. Callers are expected to degrade
// gracefully: if locking fails
// (contention exhausted, unsupported filesystem), the writer logs a warning
// and proceeds unlocked rather than blocking the user.
package lockfile

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

const (
	// DefaultAttempts is how many times acquisition is retried.
	DefaultAttempts = 5

	// initialBackoff and maxBackoff bound the retry delays (100ms, 200ms,
	// 400ms, 800ms, 1s, roughly 1-5s total with jittered scheduling).
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = time.Second

	// StaleTimeout is how old a lock file must be before it is considered
	// for breaking.
	StaleTimeout = 10 * time.Second
)

// ErrLockHeld indicates the lock stayed contended through every retry.
var ErrLockHeld = errors.New("lock held by another process")

// Lock is a held advisory lock.
type Lock struct {
	path string
	file *os.File
}

// LockPath returns the sidecar lock file path for a target file.
func LockPath(target string) string {
	return target + ".lock"
}

// Acquire takes the advisory lock guarding target, retrying with backoff and
// breaking stale locks. Returns ErrLockHeld after exhausting retries, or the
// underlying error when the filesystem does not support flock.
func Acquire(target string) (*Lock, error) {
	path := LockPath(target)
	backoff := initialBackoff

	for attempt := 0; attempt < DefaultAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		lock, err := tryAcquire(path)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrLockHeld) {
			return nil, err
		}

		breakIfStale(path)
	}

	return nil, errors.Wrapf(ErrLockHeld, "%s", path)
}

// tryAcquire opens the lock file and attempts a non-blocking exclusive flock.
func tryAcquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, errors.Wrap(err, "opening lock file")
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrLockHeld
		}
		return nil, errors.Wrap(err, "flock")
	}

	// Refresh mtime so other processes see the lock as live.
	now := time.Now()
	os.Chtimes(path, now, now)

	return &Lock{path: path, file: f}, nil
}

// breakIfStale removes a lock file left behind by a crashed holder.
// Age alone is not proof of abandonment: a live writer can hold the flock
// past StaleTimeout, and unlinking its lock file would let a second process
// lock a fresh inode and write concurrently. So a candidate is only removed
// after a non-blocking flock on it succeeds, which no live holder allows.
func breakIfStale(path string) {
	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) <= StaleTimeout {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		// Still held; the holder is alive, just slow.
		return
	}
	os.Remove(path)
}

// Release unlocks and removes the lock file. Safe to call once per Lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	defer func() {
		l.file.Close()
		os.Remove(l.path)
		l.file = nil
	}()
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		return errors.Wrap(err, "unlocking")
	}
	return nil
}
