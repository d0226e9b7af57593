// Package kv is a small key-value persistence layer that unifies two storage
// backends behind one contract: a transactional backend on BoltDB and a
// serialized-blob backend on a whole-value item engine. Which backend serves
// a store is decided once, when the store is opened, by a capability probe;
// callers never see the difference.
//
// The contract's distinguishing guarantee is the atomic Put operation: read
// the previous value, derive the next one through a caller-supplied function
// and write it back, as a single indivisible step relative to every other
// operation issued through the same store instance. The Bolt backend gets
// this from the engine's transactions; the blob backend builds it from a
// mutex around its synchronous read-rewrite cycle.
//
// Typical use:
//
//	s, err := kv.Open("session", kv.Options{Dir: "/var/lib/app"})
//	if err != nil { ... }
//	defer s.Close()
//
//	res, err := s.Put(ctx, "counter", func(prev any, loaded bool) (any, error) {
//		var n float64
//		if loaded {
//			n = prev.(float64)
//		}
//		return n + 1, nil
//	})
package kv
