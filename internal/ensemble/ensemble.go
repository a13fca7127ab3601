package ensemble

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ronaldjose/terrastore/internal/cluster"
	"github.com/ronaldjose/terrastore/internal/protocol"
	"github.com/ronaldjose/terrastore/internal/router"
)

// Configuration tunes discovery for a joined cluster.
type Configuration struct {
	DiscoveryInterval time.Duration
}

// clusterState is the discovery bookkeeping for one remote cluster.
type clusterState struct {
	cluster   *cluster.Cluster
	bootstrap cluster.Node
	nodes     []cluster.Node
	view      *protocol.View
}

// Manager runs membership discovery for remote clusters and keeps the
// router's per-cluster node lists in sync with the reported views.
type Manager struct {
	mu sync.Mutex

	scheduler   *Scheduler
	routes      *router.Router
	nodeFactory cluster.RemoteNodeFactory
	states      map[string]*clusterState
}

// NewManager creates a discovery manager mutating the given router.
func NewManager(scheduler *Scheduler, routes *router.Router, nodeFactory cluster.RemoteNodeFactory) *Manager {
	return &Manager{
		scheduler:   scheduler,
		routes:      routes,
		nodeFactory: nodeFactory,
		states:      make(map[string]*clusterState),
	}
}

// Join registers a remote cluster's bootstrap seed ("host:port") and
// activates its periodic discovery. Joining the local cluster is an
// error: its membership is callback-driven.
func (m *Manager) Join(c *cluster.Cluster, seed string, cfg Configuration) error {
	if c.IsLocal() {
		return fmt.Errorf("no need to join local cluster: %s", c)
	}
	host, portStr, err := net.SplitHostPort(seed)
	if err != nil {
		return fmt.Errorf("malformed seed %q: %w", seed, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("malformed seed port %q: %w", seed, err)
	}

	m.mu.Lock()
	m.states[c.Name()] = &clusterState{
		cluster:   c,
		bootstrap: m.nodeFactory(host, port, seed),
	}
	m.mu.Unlock()

	m.scheduler.Schedule(c, m, cfg)
	return nil
}

// Update refreshes one cluster's membership: bootstrap when no node is
// tracked, otherwise probe the tracked nodes in order and apply the view
// diff. Failures are logged and never propagate; the next tick retries.
func (m *Manager) Update(c *cluster.Cluster) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[c.Name()]
	if !ok {
		return
	}
	if len(state.nodes) == 0 {
		log.Printf("ensemble[%s]: bootstrapping discovery", c)
		if state.bootstrap == nil {
			return
		}
		defer state.bootstrap.Disconnect()
		if err := state.bootstrap.Connect(); err != nil {
			log.Printf("ensemble[%s]: seed unavailable: %v", c, err)
			return
		}
		view, err := requestMembership(c, []cluster.Node{state.bootstrap}, nil)
		if err != nil {
			log.Printf("ensemble[%s]: error updating membership: %v", c, err)
			return
		}
		m.calculateView(state, view)
		return
	}

	view, err := requestMembership(c, state.nodes, func(failed cluster.Node) {
		m.evict(state, failed)
	})
	if err != nil {
		// The previous view is preserved: with the node list now empty
		// the next tick bootstraps from the seed again.
		log.Printf("ensemble[%s]: error updating membership: %v", c, err)
		return
	}
	m.calculateView(state, view)
}

// Shutdown cancels the discovery timer and disconnects every tracked
// node in every cluster.
func (m *Manager) Shutdown() {
	m.scheduler.Shutdown()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, state := range m.states {
		for _, node := range state.nodes {
			node.Disconnect()
		}
		state.nodes = nil
	}
}

// requestMembership sends a Membership probe to the first reachable
// candidate. A failing candidate is reported through onFailure and
// skipped. With no candidate left the cluster is unroutable.
func requestMembership(c *cluster.Cluster, candidates []cluster.Node, onFailure func(cluster.Node)) (protocol.View, error) {
	for _, node := range candidates {
		result, err := node.Send(&protocol.MembershipCommand{})
		if err == nil && result.View != nil {
			return *result.View, nil
		}
		log.Printf("ensemble[%s]: failed to contact node %s for updating cluster view: %v", c, node, err)
		if onFailure != nil {
			onFailure(node)
		}
	}
	return protocol.View{}, router.NewMissingRouteError(c.Name())
}

// evict drops a failed node from the routing table and the tracked list.
func (m *Manager) evict(state *clusterState, node cluster.Node) {
	m.routes.RemoveRouteTo(state.cluster, node)
	node.Disconnect()
	remaining := make([]cluster.Node, 0, len(state.nodes))
	for _, tracked := range state.nodes {
		if tracked.Name() != node.Name() {
			remaining = append(remaining, tracked)
		}
	}
	state.nodes = remaining
	log.Printf("ensemble[%s]: disconnected remote node %s", state.cluster, node)
}

// calculateView applies the member diff between the current and updated
// views. On the first successful probe the diff runs against the empty
// set, so every reported member joins.
func (m *Manager) calculateView(state *clusterState, updated protocol.View) {
	var current map[protocol.Member]struct{}
	if state.view != nil {
		current = state.view.MemberSet()
	} else {
		current = map[protocol.Member]struct{}{}
	}
	next := updated.MemberSet()

	for member := range current {
		if _, stays := next[member]; stays {
			continue
		}
		node := findNode(state.nodes, member.Name)
		if node == nil {
			continue
		}
		m.evict(state, node)
	}
	for member := range next {
		if _, known := current[member]; known {
			continue
		}
		node := m.nodeFactory(member.Host, member.Port, member.Name)
		m.routes.AddRouteTo(state.cluster, node)
		if err := node.Connect(); err != nil {
			log.Printf("ensemble[%s]: cannot connect joining node %s: %v", state.cluster, member, err)
		}
		state.nodes = append(state.nodes, node)
		log.Printf("ensemble[%s]: joining remote node %s", state.cluster, member)
	}

	state.view = &updated
}

func findNode(nodes []cluster.Node, name string) cluster.Node {
	for _, node := range nodes {
		if node.Name() == name {
			return node
		}
	}
	return nil
}
