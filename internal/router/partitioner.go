package router

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/ronaldjose/terrastore/internal/cluster"
)

// RingSlots is the number of virtual slots each cluster's ring carries,
// shared among its nodes.
const RingSlots = 1024

// slot is one virtual ring position owned by a node.
type slot struct {
	value uint32
	index int
	node  cluster.Node
}

// ClusterPartitioner maps (bucket, key) to the owning node within a
// cluster through a hash ring. Rebuilds replace a cluster's ring
// atomically; readers always see a consistent snapshot.
type ClusterPartitioner struct {
	mu    sync.RWMutex
	rings map[string][]slot
}

// NewClusterPartitioner creates an empty partitioner.
func NewClusterPartitioner() *ClusterPartitioner {
	return &ClusterPartitioner{
		rings: make(map[string][]slot),
	}
}

// SetupCluster rebuilds the ring for a cluster from its current node set.
// The RingSlots virtual slots are split evenly among the nodes; slot
// values hash the node name together with the slot index, sorted
// ascending with ties broken by slot index.
func (p *ClusterPartitioner) SetupCluster(clusterName string, nodes []cluster.Node) {
	ring := buildRing(nodes)
	p.mu.Lock()
	if len(ring) == 0 {
		delete(p.rings, clusterName)
	} else {
		p.rings[clusterName] = ring
	}
	p.mu.Unlock()
}

// GetNodeFor returns the node owning (bucket, key) in the cluster, or
// false when the cluster has no ring. Bucket-only lookups pass an empty
// key.
func (p *ClusterPartitioner) GetNodeFor(clusterName, bucket, key string) (cluster.Node, bool) {
	p.mu.RLock()
	ring := p.rings[clusterName]
	p.mu.RUnlock()
	if len(ring) == 0 {
		return nil, false
	}
	target := hashKey(bucket, key)
	i := sort.Search(len(ring), func(i int) bool {
		return ring[i].value >= target
	})
	if i == len(ring) {
		i = 0 // wrap
	}
	return ring[i].node, true
}

func buildRing(nodes []cluster.Node) []slot {
	if len(nodes) == 0 {
		return nil
	}
	perNode := RingSlots / len(nodes)
	if perNode == 0 {
		perNode = 1
	}
	ring := make([]slot, 0, perNode*len(nodes))
	for _, node := range nodes {
		for i := 0; i < perNode; i++ {
			ring = append(ring, slot{
				value: hashSlot(node.Name(), i),
				index: i,
				node:  node,
			})
		}
	}
	slices.SortFunc(ring, func(a, b slot) int {
		switch {
		case a.value != b.value:
			if a.value < b.value {
				return -1
			}
			return 1
		case a.index != b.index:
			return a.index - b.index
		default:
			return strings.Compare(a.node.Name(), b.node.Name())
		}
	})
	return ring
}

// EnsemblePartitioner maps a bucket to the cluster owning it. The
// selection is deterministic over the name-sorted cluster list, so every
// node of the ensemble agrees on bucket ownership.
type EnsemblePartitioner struct{}

// GetClusterFor picks the owning cluster for a bucket.
func (EnsemblePartitioner) GetClusterFor(clusters []*cluster.Cluster, bucket string) *cluster.Cluster {
	if len(clusters) == 0 {
		return nil
	}
	sorted := make([]*cluster.Cluster, len(clusters))
	copy(sorted, clusters)
	slices.SortFunc(sorted, func(a, b *cluster.Cluster) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return sorted[int(Hash([]byte(bucket))%uint32(len(sorted)))]
}
