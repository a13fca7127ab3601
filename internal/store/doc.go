// Package store implements the in-memory document store a node serves:
// named buckets of key -> JSON document pairs.
//
// Buckets guard every read-modify-write (conditional put, update function)
// with a per-key lock so that concurrent writers to the same key serialize
// at the owning node. Whole-bucket reads take a consistent snapshot under
// a read lock.
//
// Values are opaque, validated JSON blobs. A parsed view is materialized
// lazily as a Document, a tagged variant over the JSON data model, and only
// converted to a plain map at the operator boundary (update functions see
// an associative array, conditions see the raw document).
//
// The operator registry (functions, conditions, comparators) is populated
// explicitly at process init; commands arriving from remote nodes resolve
// operator names against the local registry, which is boot-identical across
// the ensemble.
package store
