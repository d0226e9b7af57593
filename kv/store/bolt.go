package store

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// DataBucket is the single BoltDB bucket holding a store's entries.
const DataBucket = "data"

// BoltStore is a Backend mapped onto BoltDB. Each store owns one database
// file; every operation runs inside one Bolt transaction, read-only for Get
// and read-write for the mutating operations, so atomicity and isolation of
// Update come from the engine rather than from hand-built locking.
//
// The database handle is opened lazily, exactly once, and memoized.
// Operations issued before the handle is ready wait on the in-flight open
// instead of racing or failing.
type BoltStore struct {
	path   string
	handle *bolt.DB
	bucket []byte
	opened atomic.Bool
	lock   sync.Mutex // Serializes open/close transitions
	logger *zap.Logger
}

// NewBoltStore constructs a BoltStore over the database file at path.
// The file is not touched until the first operation arrives.
func NewBoltStore(path string, logger *zap.Logger) *BoltStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BoltStore{
		path:   path,
		bucket: []byte(DataBucket),
		logger: logger,
	}
}

// Open ensures the database handle is ready. Safe to call concurrently and
// repeatedly; only the first call performs the actual open.
func (s *BoltStore) Open() error {
	return s.open()
}

// open is the memoized lazy initializer backing every operation.
//
// Fast path: the handle is already open. Slow path: one goroutine opens the
// file and creates the data bucket while everyone else queues on the mutex.
func (s *BoltStore) open() error {
	if s.opened.Load() {
		return nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	// Another goroutine may have finished the open while we were waiting.
	if s.opened.Load() {
		return nil
	}

	handle, err := bolt.Open(s.path, 0o600, nil)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrOpenFailed, s.path, err)
	}

	err = handle.Update(func(tx *bolt.Tx) error {
		_, bucketErr := tx.CreateBucketIfNotExists(s.bucket)

		return bucketErr
	})
	if err != nil {
		_ = handle.Close()

		return fmt.Errorf("%w: create bucket %q: %w", ErrOpenFailed, DataBucket, err)
	}

	s.handle = handle
	s.opened.Store(true)

	s.logger.Debug("opened bolt store", zap.String("path", s.path))

	return nil
}

// Get retrieves the raw value for key inside a read-only transaction.
func (s *BoltStore) Get(key string) ([]byte, bool, error) {
	if err := s.open(); err != nil {
		return nil, false, err
	}

	var (
		value  []byte
		loaded bool
	)

	err := s.handle.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return ErrBucketNotFound
		}

		if current := bucket.Get([]byte(key)); current != nil {
			loaded = true

			// Bolt-owned memory is only valid inside the transaction.
			value = append([]byte(nil), current...)
		}

		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	return value, loaded, nil
}

// Set writes the value for key inside one read-write transaction.
func (s *BoltStore) Set(key string, value []byte) error {
	if err := s.open(); err != nil {
		return err
	}

	err := s.handle.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return ErrBucketNotFound
		}

		return bucket.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	return nil
}

// Update runs read + fn + write inside a single read-write transaction. Bolt
// admits one writer at a time, so no other operation can commit to the bucket
// between this transaction's read and its write, and a failing fn rolls the
// transaction back without touching the store.
func (s *BoltStore) Update(key string, fn UpdateFunc) ([]byte, bool, []byte, error) {
	if err := s.open(); err != nil {
		return nil, false, nil, err
	}

	var (
		prev   []byte
		loaded bool
		next   []byte
		fnErr  error
	)

	err := s.handle.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return ErrBucketNotFound
		}

		if current := bucket.Get([]byte(key)); current != nil {
			loaded = true
			prev = append([]byte(nil), current...)
		}

		computed, err := fn(prev, loaded)
		if err != nil {
			// Remember the caller's error so it propagates unwrapped.
			fnErr = err

			return err
		}

		next = computed

		return bucket.Put([]byte(key), next)
	})
	if err != nil {
		if fnErr != nil {
			return nil, false, nil, fnErr
		}

		return nil, false, nil, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	return prev, loaded, next, nil
}

// Delete removes key inside one read-write transaction. Missing keys are a
// no-op, per the Backend contract.
func (s *BoltStore) Delete(key string) error {
	if err := s.open(); err != nil {
		return err
	}

	err := s.handle.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return ErrBucketNotFound
		}

		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}

	return nil
}

// Clear drops and recreates the data bucket, which is cheaper than deleting
// keys one by one.
func (s *BoltStore) Clear() error {
	if err := s.open(); err != nil {
		return err
	}

	err := s.handle.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil {
			return err
		}

		_, err := tx.CreateBucket(s.bucket)

		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClearFailed, err)
	}

	return nil
}

// Close releases the database handle. A later operation reopens on demand.
func (s *BoltStore) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.opened.Load() {
		return nil
	}

	if err := s.handle.Close(); err != nil {
		return err
	}

	s.handle = nil
	s.opened.Store(false)

	return nil
}

// Size returns the number of entries, straight from Bolt's bucket stats.
func (s *BoltStore) Size() (int64, error) {
	if err := s.open(); err != nil {
		return 0, err
	}

	var size int64

	err := s.handle.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return ErrBucketNotFound
		}

		size = int64(bucket.Stats().KeyN)

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	s.logger.Debug("bolt store size",
		zap.String("path", s.path),
		zap.String("entries", humanize.Comma(size)))

	return size, nil
}
