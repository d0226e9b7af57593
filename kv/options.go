package kv

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/john-yuan/browser-cache-store/kv/store"
)

const (
	// BackendAuto lets the capability probe pick the backend at Open time.
	BackendAuto = "auto"
	// BackendBolt is the transactional backend on a BoltDB file.
	BackendBolt = "bolt"
	// BackendBlob is the serialized-blob backend on an ItemStore engine.
	BackendBlob = "blob"

	// DefaultBackend is used when the caller does not specify a backend.
	DefaultBackend = BackendAuto
	// DefaultDir is where store files live when no directory is configured.
	DefaultDir = ".kvdata"
)

// Options controls how a store is created by Open. The zero value is valid
// and means: probe for the transactional engine under DefaultDir, serialize
// values as JSON, log nothing.
type Options struct {
	// Backend selects the storage engine: "auto", "bolt" or "blob".
	// With "auto" the capability probe decides, once, at Open time.
	Backend string

	// Dir is the directory holding the store's files (the BoltDB database or
	// the blob items). Ignored when Items is set and the blob backend is
	// chosen.
	Dir string

	// Items overrides the engine behind the blob backend. When nil, a
	// FileItemStore rooted at Dir is used. Ignored by the bolt backend.
	Items store.ItemStore

	// Serializer converts values to and from their stored representation.
	// Defaults to the JSON serializer. A custom serializer used with the
	// blob backend must produce valid JSON documents.
	Serializer store.Serializer

	// Logger receives debug-level backend activity. Defaults to a no-op
	// logger.
	Logger *zap.Logger
}

// withDefaults fills unset fields with their documented defaults.
func (o Options) withDefaults() Options {
	if o.Backend == "" {
		o.Backend = DefaultBackend
	}

	if o.Dir == "" {
		o.Dir = DefaultDir
	}

	if o.Serializer == nil {
		o.Serializer = store.NewJSONSerializer()
	}

	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	return o
}

// validate rejects configurations before any resource is touched.
func (o Options) validate() error {
	switch o.Backend {
	case BackendAuto, BackendBolt, BackendBlob:
		return nil
	default:
		return fmt.Errorf(
			"%w: %q; valid values are: %q, %q, %q",
			store.ErrInvalidBackend, o.Backend, BackendAuto, BackendBolt, BackendBlob,
		)
	}
}
