package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronaldjose/terrastore/internal/cluster"
)

func newTestRouter() (*Router, *cluster.Cluster, *cluster.Cluster) {
	alpha := cluster.NewCluster("alpha", true)
	beta := cluster.NewCluster("beta", false)
	r := NewRouter(alpha)
	r.SetupClusters([]*cluster.Cluster{alpha, beta})
	return r, alpha, beta
}

func TestRouter_RouteToLocalNode(t *testing.T) {
	r, _, _ := newTestRouter()

	_, err := r.RouteToLocalNode()
	require.Error(t, err)

	local := &stubNode{name: "local"}
	r.SetLocalNode(local)

	node, err := r.RouteToLocalNode()
	require.NoError(t, err)
	assert.Equal(t, "local", node.Name())
}

func TestRouter_SingleOwnerPerKey(t *testing.T) {
	// For any (bucket, key) exactly one node is returned while
	// membership is unchanged.
	r, alpha, beta := newTestRouter()
	for _, n := range stubNodes("a1", "a2") {
		r.AddRouteTo(alpha, n)
	}
	for _, n := range stubNodes("b1", "b2") {
		r.AddRouteTo(beta, n)
	}

	for i := 0; i < 100; i++ {
		bucket := fmt.Sprintf("bucket-%d", i%7)
		key := fmt.Sprintf("key-%d", i)
		first, err := r.RouteToNodeFor(bucket, key)
		require.NoError(t, err)
		second, err := r.RouteToNodeFor(bucket, key)
		require.NoError(t, err)
		assert.Equal(t, first.Name(), second.Name())
	}
}

func TestRouter_MissingRoute(t *testing.T) {
	// A cluster with no live nodes fails fast.
	r, alpha, beta := newTestRouter()
	r.AddRouteTo(alpha, &stubNode{name: "a1"})
	_ = beta // beta stays empty

	var missing *MissingRouteError
	sawMissing := false
	for i := 0; i < 50; i++ {
		_, err := r.RouteToNodeFor(fmt.Sprintf("bucket-%d", i), "k")
		if err != nil {
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, 503, missing.Msg.Code)
			sawMissing = true
		}
	}
	assert.True(t, sawMissing, "no bucket resolved to the empty cluster")
}

func TestRouter_AddRemoveRoute(t *testing.T) {
	r, alpha, _ := newTestRouter()
	n1 := &stubNode{name: "n1"}
	n2 := &stubNode{name: "n2"}
	r.AddRouteTo(alpha, n1)
	r.AddRouteTo(alpha, n2)
	r.AddRouteTo(alpha, &stubNode{name: "n1"}) // duplicate name, no-op

	routes := r.BroadcastRoute()
	require.Len(t, routes[alpha], 2)

	r.RemoveRouteTo(alpha, n1)
	routes = r.BroadcastRoute()
	require.Len(t, routes[alpha], 1)
	assert.Equal(t, "n2", routes[alpha][0].Name())

	// Every remaining lookup lands on the surviving node.
	for i := 0; i < 20; i++ {
		node, ok := r.partitioner.GetNodeFor("alpha", "b", fmt.Sprintf("k%d", i))
		require.True(t, ok)
		assert.Equal(t, "n2", node.Name())
	}
}

func TestRouter_RouteToNodesFor(t *testing.T) {
	r, alpha, beta := newTestRouter()
	for _, n := range stubNodes("a1", "a2", "a3") {
		r.AddRouteTo(alpha, n)
	}
	r.AddRouteTo(beta, &stubNode{name: "b1"})

	keys := make([]string, 0, 60)
	for i := 0; i < 60; i++ {
		keys = append(keys, fmt.Sprintf("key-%d", i))
	}
	grouped, err := r.RouteToNodesFor("bucket", keys)
	require.NoError(t, err)

	// The grouping covers every key exactly once and agrees with the
	// single-key routing.
	total := 0
	for node, nodeKeys := range grouped {
		total += len(nodeKeys)
		for _, key := range nodeKeys {
			owner, err := r.RouteToNodeFor("bucket", key)
			require.NoError(t, err)
			assert.Equal(t, owner.Name(), node.Name())
		}
	}
	assert.Equal(t, len(keys), total)
}

func TestRouter_BroadcastRouteSnapshot(t *testing.T) {
	r, alpha, beta := newTestRouter()
	r.AddRouteTo(alpha, &stubNode{name: "a1"})
	r.AddRouteTo(beta, &stubNode{name: "b1"})

	routes := r.BroadcastRoute()
	require.Len(t, routes, 2)
	require.Len(t, routes[alpha], 1)
	require.Len(t, routes[beta], 1)

	// Mutating after the snapshot must not alter it.
	r.RemoveRouteTo(beta, &stubNode{name: "b1"})
	assert.Len(t, routes[beta], 1)
}
