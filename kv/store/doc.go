// Package store contains the storage backends behind the kv package.
//
// A Backend adapts one underlying engine to a small primitive contract
// operating on raw serialized bytes. Two adapters exist:
//
//   - BoltStore maps the contract onto BoltDB, whose transactions provide
//     native atomicity and isolation for read-modify-write updates.
//   - BlobStore emulates the same contract atop an ItemStore engine that only
//     supports whole-value get/set of a single named item, by keeping the
//     entire store as one JSON blob and rewriting it on every mutation under
//     an explicit mutex.
//
// All backends are safe for concurrent use. Update never interleaves its
// read, compute and write phases with another operation on the same backend
// instance.
package store
