package kv

import (
	"context"

	"go.uber.org/zap"

	"github.com/john-yuan/browser-cache-store/kv/store"
)

// UpdateFunc derives the next value for a key from its previous one. loaded
// is false and previous is nil when the key had no value. Returning a non-nil
// error aborts the Put without writing.
type UpdateFunc func(previous any, loaded bool) (next any, err error)

// PutResult reports both sides of an atomic update: the value as it was
// immediately before the write and the value that was written, observed
// within the same atomic step.
type PutResult struct {
	// Previous is the value before the update, nil when Loaded is false.
	Previous any

	// Loaded reports whether a previous value existed.
	Loaded bool

	// Next is the value the update wrote.
	Next any
}

// Store is a named, durable mapping from string keys to serializable values.
// All operations are safe for concurrent use, and the mutating ones are
// atomic end-to-end relative to each other on the same instance.
//
// Operations accept a context for uniformity with blocking call sites, but an
// operation that has started is never aborted mid-flight: the context is
// consulted only before the backend is invoked. There is no cancellation or
// timeout of in-flight engine work.
type Store struct {
	name        string
	backendName string
	backend     store.Backend
	serializer  store.Serializer
	logger      *zap.Logger
}

// Name returns the store's name, which identifies its underlying database
// file or blob item.
func (s *Store) Name() string {
	return s.name
}

// Backend returns the name of the backend serving this store ("bolt" or
// "blob"), as decided by Open.
func (s *Store) Backend() string {
	return s.backendName
}

// Ready blocks until the store's underlying resource has finished
// initializing. Waiting for it is optional: operations issued earlier queue
// against the same initialization internally.
func (s *Store) Ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.backend.Open()
}

// Get returns the current value for key. A missing key is reported as
// loaded == false, never as an error.
func (s *Store) Get(ctx context.Context, key string) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	raw, loaded, err := s.backend.Get(key)
	if err != nil || !loaded {
		return nil, false, err
	}

	value, err := s.serializer.Deserialize(raw)
	if err != nil {
		return nil, false, err
	}

	return value, true, nil
}

// Set unconditionally stores value under key, creating or overwriting the
// entry.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := s.serializer.Serialize(value)
	if err != nil {
		return err
	}

	return s.backend.Set(key, raw)
}

// Put atomically reads the current value of key, derives the next value
// through fn and writes it back, returning both sides of the update. No
// other operation on this store can interleave between Put's read and its
// write. If fn fails, nothing is written and fn's error is returned.
func (s *Store) Put(ctx context.Context, key string, fn UpdateFunc) (PutResult, error) {
	if err := ctx.Err(); err != nil {
		return PutResult{}, err
	}

	var result PutResult

	// The closure runs inside the backend's critical section (a Bolt
	// read-write transaction, or the blob backend's locked body), so
	// deserialize + fn + serialize all happen within the atomic step.
	_, _, _, err := s.backend.Update(key, func(prevRaw []byte, loaded bool) ([]byte, error) {
		var previous any

		if loaded {
			decoded, err := s.serializer.Deserialize(prevRaw)
			if err != nil {
				return nil, err
			}

			previous = decoded
		}

		next, err := fn(previous, loaded)
		if err != nil {
			return nil, err
		}

		raw, err := s.serializer.Serialize(next)
		if err != nil {
			return nil, err
		}

		result = PutResult{
			Previous: previous,
			Loaded:   loaded,
			Next:     next,
		}

		return raw, nil
	})
	if err != nil {
		return PutResult{}, err
	}

	return result, nil
}

// Remove deletes the entry for key if present. Removing a missing key
// succeeds as a no-op.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.backend.Delete(key)
}

// Clear deletes all entries. The store itself remains usable.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.backend.Clear()
}

// Close releases the backend's resources. The store reopens on demand if
// used again.
func (s *Store) Close() error {
	s.logger.Debug("closing store", zap.String("store", s.name))

	return s.backend.Close()
}
