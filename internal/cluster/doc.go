// Package cluster provides the transport abstraction of the distributed
// plane: clusters as named node groups, and nodes as command endpoints.
//
// A LocalNode executes commands in-process on the caller's goroutine,
// under a bounded concurrency limit.
// A RemoteNode holds a framed TCP session to its peer and performs one
// command/reply round trip per send. Both surface failures as
// ProcessingError carrying the wire-stable ErrorMessage, so callers handle
// local and remote execution uniformly.
//
// Nodes are owned by the router once added to a routing table: the
// discovery loop connects joiners, and disconnects leavers exactly once.
package cluster
