package store

import "errors"

var (
	// ErrOpenFailed indicates the backend could not open its underlying resource.
	ErrOpenFailed = errors.New("store open failed")
	// ErrReadFailed indicates reading from the underlying engine failed.
	ErrReadFailed = errors.New("store read failed")
	// ErrWriteFailed indicates writing to the underlying engine failed.
	ErrWriteFailed = errors.New("store write failed")
	// ErrDeleteFailed indicates a delete operation failed inside the engine.
	ErrDeleteFailed = errors.New("store delete failed")
	// ErrClearFailed indicates clearing the store failed.
	ErrClearFailed = errors.New("store clear failed")
	// ErrBucketNotFound is returned when the data bucket is missing from a BoltDB file.
	ErrBucketNotFound = errors.New("data bucket not found")
	// ErrSerializerEncodeFailed indicates serializing a value failed.
	ErrSerializerEncodeFailed = errors.New("serializer encode failed")
	// ErrSerializerDecodeFailed indicates deserializing a stored value failed.
	ErrSerializerDecodeFailed = errors.New("serializer decode failed")
	// ErrItemStoreFailed indicates the blob engine rejected a get/set/remove call.
	ErrItemStoreFailed = errors.New("item store operation failed")
	// ErrInvalidBackend is returned when an unknown backend name is configured.
	ErrInvalidBackend = errors.New("invalid backend")
	// ErrStoreNameEmpty is returned when a store is opened without a name.
	ErrStoreNameEmpty = errors.New("store name is empty")
)
