package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// blobEnvelope is the persisted shape of a whole store under BlobStore: one
// JSON object of the form {"data": {key: value}}. Values are kept as raw JSON
// so decoding the envelope never re-interprets them.
type blobEnvelope struct {
	Data map[string]json.RawMessage `json:"data"`
}

// BlobStore is a Backend emulated atop an ItemStore engine that only supports
// whole-value get/set of one named item. The entire store is serialized into
// a single blob stored under the store's name, and every mutation rewrites
// the whole blob.
//
// The engine offers no transactions, so every operation's read-mutate-write
// sequence runs under an explicit mutex. The host language has real parallel
// threads; without the lock, two concurrent updates could both decode the
// same blob and one of them would silently overwrite the other's write.
//
// A corrupt or missing blob is treated as an empty store, never as an error.
type BlobStore struct {
	name    string
	items   ItemStore
	mu      sync.Mutex
	lastSum uint64 // xxhash of the last payload written, 0 when unknown
	logger  *zap.Logger
}

// NewBlobStore constructs a BlobStore persisting under name in the given
// engine.
func NewBlobStore(name string, items ItemStore, logger *zap.Logger) *BlobStore {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BlobStore{
		name:   name,
		items:  items,
		logger: logger,
	}
}

// Open is an immediate success: the engine needs no asynchronous
// initialization.
func (s *BlobStore) Open() error {
	return nil
}

// Get decodes the current blob and returns the raw value stored under key.
func (s *BlobStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.load()
	if err != nil {
		return nil, false, err
	}

	raw, loaded := env.Data[key]
	if !loaded {
		return nil, false, nil
	}

	return append([]byte(nil), raw...), true, nil
}

// Set replaces the value under key and rewrites the blob.
func (s *BlobStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.load()
	if err != nil {
		return err
	}

	env.Data[key] = json.RawMessage(value)

	return s.flush(env)
}

// Update performs the read, fn call and write as one critical section. The
// mutex makes the sequence indivisible relative to every other operation on
// this instance, which is the whole atomicity story for this backend.
func (s *BlobStore) Update(key string, fn UpdateFunc) ([]byte, bool, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.load()
	if err != nil {
		return nil, false, nil, err
	}

	var prev []byte

	raw, loaded := env.Data[key]
	if loaded {
		prev = append([]byte(nil), raw...)
	}

	next, err := fn(prev, loaded)
	if err != nil {
		// No write happened; the stored blob is untouched.
		return nil, false, nil, err
	}

	env.Data[key] = json.RawMessage(next)

	if err := s.flush(env); err != nil {
		return nil, false, nil, err
	}

	return prev, loaded, next, nil
}

// Delete removes key from the mapping and rewrites the blob. The key is
// physically deleted so that key absence means the same thing on both
// backends. Deleting a missing key skips the rewrite entirely.
func (s *BlobStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.load()
	if err != nil {
		return err
	}

	if _, loaded := env.Data[key]; !loaded {
		return nil
	}

	delete(env.Data, key)

	return s.flush(env)
}

// Clear rewrites the blob as an empty mapping. The item itself survives, so
// the store's identity is preserved.
func (s *BlobStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.flush(&blobEnvelope{Data: map[string]json.RawMessage{}})
}

// Close is a no-op; the engine holds no per-store resources.
func (s *BlobStore) Close() error {
	return nil
}

// load reads and decodes the current blob. An absent or unparsable blob
// degrades to an empty mapping rather than failing; only engine-level read
// errors propagate.
func (s *BlobStore) load() (*blobEnvelope, error) {
	value, ok, err := s.items.GetItem(s.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	env := &blobEnvelope{}

	if ok {
		if err := json.Unmarshal([]byte(value), env); err != nil {
			s.logger.Warn("discarding unparsable blob",
				zap.String("store", s.name),
				zap.Error(err))

			env.Data = nil
		}
	}

	if env.Data == nil {
		env.Data = map[string]json.RawMessage{}
	}

	return env, nil
}

// flush encodes the envelope and hands it to the engine. When the encoded
// payload is byte-identical to the last one written by this instance, the
// engine write is skipped; the instance owns the item exclusively, so the
// remembered hash mirrors the stored content.
func (s *BlobStore) flush(env *blobEnvelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerializerEncodeFailed, err)
	}

	sum := xxhash.Sum64(payload)
	if s.lastSum != 0 && sum == s.lastSum {
		return nil
	}

	if err := s.items.SetItem(s.name, string(payload)); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	s.lastSum = sum

	s.logger.Debug("wrote blob",
		zap.String("store", s.name),
		zap.String("size", humanize.Bytes(uint64(len(payload)))))

	return nil
}
