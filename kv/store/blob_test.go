package store

import (
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBlobStore_EmptyAndMalformed checks the degradation rules: a missing
// blob and an unparsable blob both read as an empty mapping, never as an
// error.
func TestBlobStore_EmptyAndMalformed(t *testing.T) {
	t.Parallel()

	engine := newMemItemStore()
	s := NewBlobStore("s1", engine, nil)

	_, loaded, err := s.Get("k")
	require.NoError(t, err)
	require.False(t, loaded, "missing blob must read as empty store")

	require.NoError(t, engine.SetItem("s1", "{not json"))

	_, loaded, err = s.Get("k")
	require.NoError(t, err, "malformed blob must not fail reads")
	require.False(t, loaded)

	// A mutation replaces the corrupt blob with a fresh valid one.
	require.NoError(t, s.Set("k", []byte(`1`)))

	got, loaded, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, loaded)
	assert.Equal(t, []byte(`1`), got)
}

// TestBlobStore_EnvelopeShape asserts the persisted layout: one JSON object
// of shape {"data": {key: value}} stored under the store's name.
func TestBlobStore_EnvelopeShape(t *testing.T) {
	t.Parallel()

	engine := newMemItemStore()
	s := NewBlobStore("s1", engine, nil)

	require.NoError(t, s.Set("a", []byte(`{"x":1}`)))

	raw, ok := engine.item("s1")
	require.True(t, ok)

	var envelope struct {
		Data map[string]json.RawMessage `json:"data"`
	}

	require.NoError(t, json.Unmarshal([]byte(raw), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.JSONEq(t, `{"x":1}`, string(envelope.Data["a"]))
}

// TestBlobStore_Update_Semantics mirrors the bolt test: previous value
// surfacing, and a failing UpdateFunc leaving the blob untouched.
func TestBlobStore_Update_Semantics(t *testing.T) {
	t.Parallel()

	engine := newMemItemStore()
	s := NewBlobStore("s1", engine, nil)

	prev, loaded, next, err := s.Update("c", func(prev []byte, loaded bool) ([]byte, error) {
		require.Nil(t, prev)
		require.False(t, loaded)

		return []byte("1"), nil
	})
	require.NoError(t, err)
	assert.Nil(t, prev)
	assert.False(t, loaded)
	assert.Equal(t, []byte("1"), next)

	prev, loaded, _, err = s.Update("c", func([]byte, bool) ([]byte, error) {
		return []byte("2"), nil
	})
	require.NoError(t, err)
	require.True(t, loaded)
	assert.Equal(t, []byte("1"), prev)

	writesBefore := engine.writeCount()
	failure := errors.New("compute failed")

	_, _, _, err = s.Update("c", func([]byte, bool) ([]byte, error) {
		return nil, failure
	})
	require.ErrorIs(t, err, failure)
	assert.Equal(t, writesBefore, engine.writeCount(), "failed update must not rewrite the blob")

	got, loaded, err := s.Get("c")
	require.NoError(t, err)
	require.True(t, loaded)
	assert.Equal(t, []byte("2"), got)
}

// TestBlobStore_Delete_Physical verifies that Remove deletes the key from the
// envelope's mapping (not an absent-marker) and that deleting a missing key
// skips the engine write.
func TestBlobStore_Delete_Physical(t *testing.T) {
	t.Parallel()

	engine := newMemItemStore()
	s := NewBlobStore("s1", engine, nil)

	require.NoError(t, s.Set("a", []byte("1")))
	require.NoError(t, s.Delete("a"))

	raw, ok := engine.item("s1")
	require.True(t, ok)

	var envelope struct {
		Data map[string]json.RawMessage `json:"data"`
	}

	require.NoError(t, json.Unmarshal([]byte(raw), &envelope))
	_, present := envelope.Data["a"]
	assert.False(t, present, "deleted key must not remain in the mapping")

	writesBefore := engine.writeCount()
	require.NoError(t, s.Delete("missing"))
	assert.Equal(t, writesBefore, engine.writeCount(), "no-op delete must not rewrite the blob")
}

// TestBlobStore_SkipIdenticalWrite checks that a mutation producing a
// byte-identical payload skips the engine write.
func TestBlobStore_SkipIdenticalWrite(t *testing.T) {
	t.Parallel()

	engine := newMemItemStore()
	s := NewBlobStore("s1", engine, nil)

	require.NoError(t, s.Set("a", []byte("1")))
	require.Equal(t, 1, engine.writeCount())

	require.NoError(t, s.Set("a", []byte("1")))
	assert.Equal(t, 1, engine.writeCount(), "identical payload must not be rewritten")

	require.NoError(t, s.Set("a", []byte("2")))
	assert.Equal(t, 2, engine.writeCount())
}

// TestBlobStore_Clear verifies Clear empties the mapping while keeping the
// blob item alive.
func TestBlobStore_Clear(t *testing.T) {
	t.Parallel()

	engine := newMemItemStore()
	s := NewBlobStore("s1", engine, nil)

	require.NoError(t, s.Set("a", []byte("1")))
	require.NoError(t, s.Set("b", []byte("2")))
	require.NoError(t, s.Clear())

	_, loaded, err := s.Get("a")
	require.NoError(t, err)
	require.False(t, loaded)

	raw, ok := engine.item("s1")
	require.True(t, ok, "Clear empties the store but keeps its identity")
	assert.JSONEq(t, `{"data":{}}`, raw)
}

// TestBlobStore_Update_ConcurrentIncrements runs 50 concurrent updates; the
// mutex around the read-rewrite cycle must prevent lost updates.
func TestBlobStore_Update_ConcurrentIncrements(t *testing.T) {
	t.Parallel()

	const workers = 50

	var (
		s  = NewBlobStore("s1", newMemItemStore(), nil)
		wg sync.WaitGroup
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, _, _, err := s.Update("counter", func(prev []byte, loaded bool) ([]byte, error) {
				var current int64

				if loaded {
					v, err := strconv.ParseInt(string(prev), 10, 64)
					if err != nil {
						return nil, err
					}

					current = v
				}

				return []byte(strconv.FormatInt(current+1, 10)), nil
			})

			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	got, loaded, err := s.Get("counter")
	require.NoError(t, err)
	require.True(t, loaded)
	assert.Equal(t, []byte(strconv.Itoa(workers)), got)
}

// TestBlobStore_EngineFailure verifies engine-level errors propagate wrapped
// over the package sentinels, carrying the engine's error.
func TestBlobStore_EngineFailure(t *testing.T) {
	t.Parallel()

	s := NewBlobStore("s1", failingItemStore{}, nil)

	_, _, err := s.Get("k")
	require.ErrorIs(t, err, ErrReadFailed)
	require.ErrorIs(t, err, errEngineDown)

	err = s.Set("k", []byte("1"))
	require.ErrorIs(t, err, ErrReadFailed, "Set reads the blob before writing")
}

// TestBlobStore_FileEngine runs the blob backend over the real file engine
// and checks persistence across instances.
func TestBlobStore_FileEngine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	first := NewBlobStore("s1", NewFileItemStore(dir), nil)
	require.NoError(t, first.Set("k", []byte(`"v"`)))
	require.NoError(t, first.Close())

	second := NewBlobStore("s1", NewFileItemStore(dir), nil)

	got, loaded, err := second.Get("k")
	require.NoError(t, err)
	require.True(t, loaded)
	assert.Equal(t, []byte(`"v"`), got)
}

// TestBlobStore_Ready checks that Open is an immediate success.
func TestBlobStore_Ready(t *testing.T) {
	t.Parallel()

	s := NewBlobStore("s1", newMemItemStore(), nil)

	require.NoError(t, s.Open())
	require.NoError(t, s.Open())
}
