// Package router implements the partitioning and routing layer: a
// murmur3-based hash, the per-cluster 1024-slot ring, the ensemble
// partitioner spreading buckets across clusters, and the Router composing
// them over the live node sets.
//
// Routing never blocks on I/O. Lookups against a cluster with no live
// nodes fail fast with MissingRouteError. Ring rebuilds replace the slot
// snapshot atomically, so in-flight requests see either the old or the
// new ring, never a partial one.
package router
