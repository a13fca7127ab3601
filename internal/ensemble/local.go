package ensemble

import (
	"log"
	"sync"

	"github.com/ronaldjose/terrastore/internal/cluster"
	"github.com/ronaldjose/terrastore/internal/protocol"
	"github.com/ronaldjose/terrastore/internal/router"
)

// LocalMembership tracks the local cluster's members. The clustered
// runtime invokes NodeJoined/NodeLeft directly; the resulting view is
// served to membership probes from foreign clusters.
type LocalMembership struct {
	mu sync.Mutex

	localCluster *cluster.Cluster
	localMember  protocol.Member
	routes       *router.Router
	nodeFactory  cluster.RemoteNodeFactory
	nodes        map[string]cluster.Node
	members      map[string]protocol.Member
}

// NewLocalMembership creates the membership tracker with the local member
// already present in the view.
func NewLocalMembership(localCluster *cluster.Cluster, localMember protocol.Member, routes *router.Router, nodeFactory cluster.RemoteNodeFactory) *LocalMembership {
	return &LocalMembership{
		localCluster: localCluster,
		localMember:  localMember,
		routes:       routes,
		nodeFactory:  nodeFactory,
		nodes:        make(map[string]cluster.Node),
		members:      map[string]protocol.Member{localMember.Name: localMember},
	}
}

// NodeJoined routes and connects a new local-cluster member.
func (m *LocalMembership) NodeJoined(member protocol.Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[member.Name]; ok {
		return
	}
	m.members[member.Name] = member
	if member.Name == m.localMember.Name {
		return
	}
	node := m.nodeFactory(member.Host, member.Port, member.Name)
	m.routes.AddRouteTo(m.localCluster, node)
	if err := node.Connect(); err != nil {
		log.Printf("ensemble[%s]: cannot connect joined node %s: %v", m.localCluster, member, err)
	}
	m.nodes[member.Name] = node
}

// NodeLeft evicts a local-cluster member from the routing table.
func (m *LocalMembership) NodeLeft(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[name]; !ok {
		return
	}
	delete(m.members, name)
	node, ok := m.nodes[name]
	if !ok {
		return
	}
	m.routes.RemoveRouteTo(m.localCluster, node)
	node.Disconnect()
	delete(m.nodes, name)
}

// CurrentView snapshots the local cluster's membership.
func (m *LocalMembership) CurrentView() protocol.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := make([]protocol.Member, 0, len(m.members))
	for _, member := range m.members {
		members = append(members, member)
	}
	return protocol.View{Cluster: m.localCluster.Name(), Members: members}
}
