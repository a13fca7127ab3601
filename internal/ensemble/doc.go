// Package ensemble keeps routing tables consistent with the live cluster
// view.
//
// Remote clusters are probed periodically: the Manager asks the first
// reachable tracked node for its membership view, evicts candidates that
// fail the probe, then applies the view diff to the router (leavers are
// disconnected and dropped, joiners constructed, routed and connected).
// A cluster with no tracked nodes bootstraps from its seed on the next
// tick. Discovery failures are logged and never propagate; the next tick
// retries.
//
// The local cluster is never discovered: the clustered runtime drives
// LocalMembership callbacks directly, and the resulting view is what this
// node reports to membership probes from other clusters.
package ensemble
