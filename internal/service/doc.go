// Package service translates user operations into commands, fans them out
// across the ensemble and merges the results.
//
// UpdateService covers point operations: bucket schema changes, puts,
// removes and server-side updates, each sent to exactly one node (the
// local node for bucket schema changes, the key's owning node otherwise).
// QueryService covers fan-out reads: per-cluster multicasts that
// try each node in order and settle for the first success, followed by a
// parallel bulk read grouped by owning node.
//
// Partial failure inside a cluster is tolerated while any node responds.
// Key-collection multicasts accept an empty contribution from a fully
// unreachable cluster (logged); bulk value reads do not, and fail with the
// failing node's ErrorMessage unchanged (INTERNAL only for unexpected,
// non-protocol errors).
package service
