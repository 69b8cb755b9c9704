// Package filelock coordinates access to files shared between goroutines and
// processes, such as exported run histories and generated reports. It offers
// advisory locking backed by flock plus an atomic write primitive built on the
// temp-file-and-rename pattern.
package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryInterval is how often LockWithTimeout re-attempts a contended lock.
const lockRetryInterval = 10 * time.Millisecond

// ErrLockTimeout is returned by LockWithTimeout when the lock could not be
// acquired before the deadline. Callers match it with errors.Is.
var ErrLockTimeout = errors.New("timed out waiting for file lock")

// LockMetrics describes the most recent acquisition attempt on a FileLock.
type LockMetrics struct {
	// Attempts is the number of lock attempts made, including the final one.
	Attempts int
	// Wait is the total time spent trying to acquire the lock.
	Wait time.Duration
	// TimedOut reports whether the acquisition gave up at the deadline.
	TimedOut bool
}

// MonitorFunc receives lock metrics after each acquisition attempt completes,
// whether it succeeded or timed out.
type MonitorFunc func(path string, metrics LockMetrics)

// FileLock wraps an advisory flock lock on a path.
type FileLock struct {
	flock *flock.Flock
	path  string

	mu      sync.Mutex
	last    LockMetrics
	monitor MonitorFunc
}

// NewFileLock creates a lock handle for the given path. The lock file is
// created on first acquisition.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Lock acquires an exclusive lock, blocking until it is available.
func (fl *FileLock) Lock() error {
	start := time.Now()
	if err := fl.flock.Lock(); err != nil {
		return fmt.Errorf("acquire lock on %s: %w", fl.path, err)
	}
	fl.record(LockMetrics{Attempts: 1, Wait: time.Since(start)})
	return nil
}

// LockWithTimeout polls for an exclusive lock until it is acquired or the
// timeout elapses. On expiry the returned error wraps ErrLockTimeout.
func (fl *FileLock) LockWithTimeout(timeout time.Duration) error {
	start := time.Now()
	deadline := start.Add(timeout)
	var metrics LockMetrics
	for {
		metrics.Attempts++
		acquired, err := fl.flock.TryLock()
		if err != nil {
			metrics.Wait = time.Since(start)
			fl.record(metrics)
			return fmt.Errorf("try lock on %s: %w", fl.path, err)
		}
		if acquired {
			metrics.Wait = time.Since(start)
			fl.record(metrics)
			return nil
		}
		if !time.Now().Before(deadline) {
			metrics.TimedOut = true
			metrics.Wait = time.Since(start)
			fl.record(metrics)
			return fmt.Errorf("%w after %s: %s", ErrLockTimeout, timeout, fl.path)
		}
		time.Sleep(lockRetryInterval)
	}
}

// TryLock attempts to acquire the lock without blocking. It reports whether
// the lock was obtained.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("release lock on %s: %w", fl.path, err)
	}
	return nil
}

// LastMetrics returns the metrics recorded by the most recent Lock or
// LockWithTimeout call.
func (fl *FileLock) LastMetrics() LockMetrics {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.last
}

// SetMonitor installs a callback invoked with the metrics of every completed
// acquisition attempt. Passing nil removes the monitor.
func (fl *FileLock) SetMonitor(m MonitorFunc) {
	fl.mu.Lock()
	fl.monitor = m
	fl.mu.Unlock()
}

func (fl *FileLock) record(m LockMetrics) {
	fl.mu.Lock()
	fl.last = m
	monitor := fl.monitor
	fl.mu.Unlock()
	if monitor != nil {
		monitor(fl.path, m)
	}
}

// AtomicWrite writes data to path so that readers never observe a partial
// file. The data goes to a temp file in the target directory first and is
// renamed into place once fully written and synced. On any failure the
// original file is left untouched.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	// The temp file must live on the same filesystem as the target or the
	// rename stops being atomic.
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// CreateTemp uses 0600; widen to the usual file mode before publishing.
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}

// LockAndWrite acquires a lock, performs an atomic write, then releases the
// lock and removes the lock file. The lock path is the target path with a
// ".lock" suffix.
func LockAndWrite(path string, data []byte) error {
	lockPath := path + ".lock"
	lock := NewFileLock(lockPath)

	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() {
		lock.Unlock()
		os.Remove(lockPath)
	}()

	return AtomicWrite(path, data)
}
