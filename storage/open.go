package storage

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	bolt "go.etcd.io/bbolt"
)

// ErrLocked is returned when another process kept the database locked for
// longer than LockWait.
var ErrLocked = errors.New("storage: database is locked by another process")

// LockWait bounds how long Open and OpenReadOnly keep retrying while another
// process holds a conflicting file lock.
var LockWait = 5 * time.Second

// lockPoll is how long a single bbolt open waits on the file lock before the
// retry loop takes over.
const lockPoll = 50 * time.Millisecond

// Open returns a writable database for the named backend. Supported backends
// are "leveldb", "bolt" and "memory"; path is ignored for the latter. The
// persistent backends take an exclusive file lock, so Open waits up to
// LockWait for readers or another writer to let go.
func Open(backend, path string) (Database, error) {
	switch normalizeBackend(backend) {
	case "leveldb":
		return openLocked(func() (Database, error) { return NewLevelDB(path) })
	case "bolt":
		return openLocked(func() (Database, error) { return NewBoltDB(path) })
	case "memory":
		return NewMemDB(), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}

// OpenReadOnly opens an existing persistent database under a shared lock.
// Read-only handles coexist with each other but block writers, so callers
// should close them as soon as the read is done. The memory backend cannot be
// shared between processes and is rejected.
func OpenReadOnly(backend, path string) (Database, error) {
	switch normalizeBackend(backend) {
	case "leveldb":
		return openLocked(func() (Database, error) { return NewReadOnlyLevelDB(path) })
	case "bolt":
		return openLocked(func() (Database, error) { return NewReadOnlyBoltDB(path) })
	case "memory":
		return nil, fmt.Errorf("storage: memory backend cannot be opened read-only")
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}

func normalizeBackend(backend string) string {
	switch b := strings.ToLower(strings.TrimSpace(backend)); b {
	case "", "leveldb":
		return "leveldb"
	case "bolt", "bbolt":
		return "bolt"
	case "memory", "mem":
		return "memory"
	default:
		return b
	}
}

func openLocked(open func() (Database, error)) (Database, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = LockWait

	var db Database
	err := backoff.Retry(func() error {
		opened, err := open()
		if err == nil {
			db = opened
			return nil
		}
		if isLockContention(err) {
			return fmt.Errorf("%w: %v", ErrLocked, err)
		}
		return backoff.Permanent(err)
	}, policy)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func isLockContention(err error) bool {
	return errors.Is(err, bolt.ErrTimeout) ||
		errors.Is(err, syscall.EWOULDBLOCK) ||
		errors.Is(err, syscall.EAGAIN)
}
