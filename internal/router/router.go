package router

import (
	"sync"

	"github.com/ronaldjose/terrastore/internal/cluster"
	"github.com/ronaldjose/terrastore/internal/common"
	"github.com/ronaldjose/terrastore/internal/protocol"
)

// MissingRouteError is raised when no reachable node or cluster can serve
// a lookup.
type MissingRouteError struct {
	Msg common.ErrorMessage
}

func (e *MissingRouteError) Error() string {
	return e.Msg.String()
}

// ErrorMessage returns the structured failure payload.
func (e *MissingRouteError) ErrorMessage() common.ErrorMessage {
	return e.Msg
}

// NewMissingRouteError builds the failure for an unroutable cluster.
func NewMissingRouteError(clusterName string) *MissingRouteError {
	return &MissingRouteError{Msg: common.Errorf(common.UnavailableCode, "no route to cluster: %s", clusterName)}
}

// Router composes the two partitioners over the per-cluster live node
// sets. Mutations come from the local membership callbacks and the
// discovery loop; both serialize through the router's lock, and every
// mutation rebuilds the affected cluster's ring before returning.
type Router struct {
	mu sync.RWMutex

	localCluster *cluster.Cluster
	localNode    cluster.Node
	clusters     []*cluster.Cluster
	nodes        map[string][]cluster.Node

	partitioner         *ClusterPartitioner
	ensemblePartitioner EnsemblePartitioner
}

// NewRouter creates a router for the given local cluster.
func NewRouter(localCluster *cluster.Cluster) *Router {
	return &Router{
		localCluster: localCluster,
		nodes:        make(map[string][]cluster.Node),
		partitioner:  NewClusterPartitioner(),
	}
}

// SetupClusters initializes the ensemble's cluster set. The local cluster
// must be among them.
func (r *Router) SetupClusters(clusters []*cluster.Cluster) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clusters = make([]*cluster.Cluster, len(clusters))
	copy(r.clusters, clusters)
}

// SetLocalNode registers this process's node and routes it in the local
// cluster.
func (r *Router) SetLocalNode(node cluster.Node) {
	r.mu.Lock()
	r.localNode = node
	r.mu.Unlock()
	r.AddRouteTo(r.localCluster, node)
}

// Clusters returns a snapshot of the ensemble's cluster set.
func (r *Router) Clusters() []*cluster.Cluster {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*cluster.Cluster, len(r.clusters))
	copy(out, r.clusters)
	return out
}

// LocalCluster returns the process-local cluster.
func (r *Router) LocalCluster() *cluster.Cluster {
	return r.localCluster
}

// AddRouteTo adds a node to a cluster's routing table and rebuilds that
// cluster's ring. Adding a node whose name is already routed is a no-op.
func (r *Router) AddRouteTo(c *cluster.Cluster, node cluster.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.nodes[c.Name()]
	for _, existing := range current {
		if existing.Name() == node.Name() {
			return
		}
	}
	updated := append(append(make([]cluster.Node, 0, len(current)+1), current...), node)
	r.nodes[c.Name()] = updated
	r.partitioner.SetupCluster(c.Name(), updated)
}

// RemoveRouteTo removes a node (matched by name) from a cluster's routing
// table and rebuilds that cluster's ring.
func (r *Router) RemoveRouteTo(c *cluster.Cluster, node cluster.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.nodes[c.Name()]
	updated := make([]cluster.Node, 0, len(current))
	for _, existing := range current {
		if existing.Name() != node.Name() {
			updated = append(updated, existing)
		}
	}
	r.nodes[c.Name()] = updated
	r.partitioner.SetupCluster(c.Name(), updated)
}

// RouteToLocalNode returns this process's node.
func (r *Router) RouteToLocalNode() (protocol.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.localNode == nil {
		return nil, NewMissingRouteError(r.localCluster.Name())
	}
	return r.localNode, nil
}

// RouteToNodeFor resolves (bucket, key) to the single owning node across
// the ensemble.
func (r *Router) RouteToNodeFor(bucket, key string) (protocol.Node, error) {
	node, err := r.routeToClusterNode(bucket, key)
	if err != nil {
		return nil, err
	}
	return node, nil
}

// RouteToNodesFor groups keys by their owning node, for multi-key
// fan-out.
func (r *Router) RouteToNodesFor(bucket string, keys []string) (map[cluster.Node][]string, error) {
	grouped := make(map[cluster.Node][]string)
	for _, key := range keys {
		node, err := r.routeToClusterNode(bucket, key)
		if err != nil {
			return nil, err
		}
		grouped[node] = append(grouped[node], key)
	}
	return grouped, nil
}

// BroadcastRoute snapshots all live nodes per cluster, for whole-bucket
// operations.
func (r *Router) BroadcastRoute() map[*cluster.Cluster][]cluster.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	routes := make(map[*cluster.Cluster][]cluster.Node, len(r.clusters))
	for _, c := range r.clusters {
		nodes := r.nodes[c.Name()]
		snapshot := make([]cluster.Node, len(nodes))
		copy(snapshot, nodes)
		routes[c] = snapshot
	}
	return routes
}

func (r *Router) routeToClusterNode(bucket, key string) (cluster.Node, error) {
	r.mu.RLock()
	clusters := r.clusters
	r.mu.RUnlock()

	owner := r.ensemblePartitioner.GetClusterFor(clusters, bucket)
	if owner == nil {
		return nil, NewMissingRouteError("(none)")
	}
	node, ok := r.partitioner.GetNodeFor(owner.Name(), bucket, key)
	if !ok {
		return nil, NewMissingRouteError(owner.Name())
	}
	return node, nil
}
