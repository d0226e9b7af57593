package store

// UpdateFunc computes the next raw value for a key from its current raw
// value. loaded is false and prev is nil when the key has no current value.
// Returning a non-nil error aborts the update; the store is left untouched.
type UpdateFunc func(prev []byte, loaded bool) (next []byte, err error)

// Backend is the primitive contract both storage engines adapt to. Values are
// opaque byte slices; serialization concerns belong to the layer above.
//
// General notes:
//
//   - All methods are safe for concurrent use.
//   - Absence of a key is reported through the loaded flag, never as an
//     error.
//   - Methods return a non-nil error only in exceptional conditions (I/O
//     errors, engine-level failures, a rejected UpdateFunc).
//
// Atomicity:
//
//   - Update performs its read, the UpdateFunc call and the write as one
//     indivisible step relative to every other operation issued against the
//     same Backend instance. No caller can observe the key between Update's
//     read and its write.
type Backend interface {
	// Open ensures the backend is ready to accept operations by initializing
	// any deferred resources. Opening happens at most once; concurrent and
	// repeated calls wait on the in-flight initialization instead of racing.
	// Every other method opens the backend on demand, so calling Open first
	// is optional.
	Open() error

	// Get returns the raw value stored under key and whether it exists.
	Get(key string) (value []byte, loaded bool, err error)

	// Set stores value under key, overwriting any existing value.
	Set(key string, value []byte) error

	// Update atomically reads the current value of key, derives the next
	// value through fn and writes it back under the same key. It returns the
	// value as it was immediately before the write, whether that previous
	// value existed, and the value that was written. If fn fails, nothing is
	// written and fn's error is returned unwrapped.
	Update(key string, fn UpdateFunc) (prev []byte, loaded bool, next []byte, err error)

	// Delete removes key from the store. Deleting a missing key is a no-op.
	Delete(key string) error

	// Clear removes all keys and values from the store. The store itself
	// remains usable afterwards.
	Clear() error

	// Close releases any resources held by the backend. Close is idempotent,
	// and a closed backend reopens on demand when another operation arrives.
	Close() error
}
