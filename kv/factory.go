package kv

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/john-yuan/browser-cache-store/kv/store"
)

// transactionalProbe reports whether the transactional engine is usable in
// the current environment. It is a package variable so tests can force the
// fallback path without an unusable filesystem.
//
//nolint:gochecknoglobals // this is a test hook.
var transactionalProbe = probeTransactional

// probeTransactional checks that dir can be created and written, which is
// what the Bolt backend needs to open its database file.
func probeTransactional(dir string) bool {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return false
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return false
	}

	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	return true
}

// Open creates a store named name. The backend is selected once, here:
// explicitly via Options.Backend, or by the capability probe when the backend
// is "auto". The returned store satisfies the same contract either way, and
// no per-operation backend branching happens afterwards.
//
// Opening does not touch the underlying engine yet; the transactional
// backend's database handle is established lazily by the first operation (or
// by Ready).
func Open(name string, opts Options) (*Store, error) {
	if name == "" {
		return nil, store.ErrStoreNameEmpty
	}

	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	chosen := opts.Backend
	if chosen == BackendAuto {
		if transactionalProbe(opts.Dir) {
			chosen = BackendBolt
		} else {
			chosen = BackendBlob
		}
	}

	var backend store.Backend

	switch chosen {
	case BackendBolt:
		backend = store.NewBoltStore(filepath.Join(opts.Dir, name+".db"), opts.Logger)
	case BackendBlob:
		items := opts.Items
		if items == nil {
			items = store.NewFileItemStore(opts.Dir)
		}

		backend = store.NewBlobStore(name, items, opts.Logger)
	default:
		// Unreachable: the backend is validated above.
		return nil, fmt.Errorf("%w: %s", store.ErrInvalidBackend, chosen)
	}

	opts.Logger.Debug("selected backend",
		zap.String("store", name),
		zap.String("backend", chosen))

	return &Store{
		name:        name,
		backendName: chosen,
		backend:     backend,
		serializer:  opts.Serializer,
		logger:      opts.Logger,
	}, nil
}
