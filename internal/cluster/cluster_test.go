package cluster

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronaldjose/terrastore/internal/common"
	"github.com/ronaldjose/terrastore/internal/operators"
	"github.com/ronaldjose/terrastore/internal/protocol"
	"github.com/ronaldjose/terrastore/internal/store"
)

type testEnv struct {
	backing  store.Store
	registry *store.Registry
	pool     *Pool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	pool := NewPool(4)
	t.Cleanup(pool.Shutdown)
	return &testEnv{
		backing:  store.NewMemoryStore(),
		registry: operators.NewRegistry(),
		pool:     pool,
	}
}

func (e *testEnv) Store() store.Store        { return e.backing }
func (e *testEnv) Registry() *store.Registry { return e.registry }
func (e *testEnv) Executor() store.Executor  { return e.pool }
func (e *testEnv) Membership() protocol.View {
	return protocol.View{Cluster: "alpha"}
}

func TestPool_RunsTasks(t *testing.T) {
	pool := NewPool(4)
	var count atomic.Int32
	done := make(chan struct{}, 32)
	for i := 0; i < 32; i++ {
		require.NoError(t, pool.Submit(func() {
			count.Add(1)
			done <- struct{}{}
		}))
	}
	for i := 0; i < 32; i++ {
		<-done
	}
	pool.Shutdown()
	assert.Equal(t, int32(32), count.Load())
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool(1)
	pool.Shutdown()
	pool.Shutdown() // idempotent
	assert.ErrorIs(t, pool.Submit(func() {}), ErrPoolClosed)
}

func TestLocalNode_Send(t *testing.T) {
	env := newTestEnv(t)
	node := NewLocalNode("n1", "127.0.0.1", 6000, env, 4)

	require.NoError(t, node.Connect())
	defer node.Disconnect()

	value, err := store.NewValue([]byte(`{"v":1}`))
	require.NoError(t, err)
	_, err = node.Send(&protocol.PutValueCommand{Bucket: "b", Key: "k1", Value: value})
	require.NoError(t, err)

	result, err := node.Send(&protocol.GetValueCommand{Bucket: "b", Key: "k1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(result.Value.Bytes()))
}

func TestLocalNode_SendFailureIsProcessingError(t *testing.T) {
	env := newTestEnv(t)
	node := NewLocalNode("n1", "127.0.0.1", 6000, env, 4)

	_, err := node.Send(&protocol.GetValueCommand{Bucket: "ghost", Key: "k"})
	require.Error(t, err)
	var procErr *ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, common.NotFoundCode, procErr.Msg.Code)
}

func TestRemoteNode_SendWithoutConnect(t *testing.T) {
	node := NewRemoteNode("127.0.0.1", 1, "ghost")
	_, err := node.Send(&protocol.GetBucketsCommand{})
	require.Error(t, err)
	var procErr *ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, common.UnavailableCode, procErr.Msg.Code)
}

func TestRemoteNode_ConnectFailure(t *testing.T) {
	// Port 1 on loopback is assumed closed.
	node := NewRemoteNode("127.0.0.1", 1, "ghost")
	node.dialTimeout = 200 * time.Millisecond
	err := node.Connect()
	require.Error(t, err)
	var procErr *ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, common.UnavailableCode, procErr.Msg.Code)

	node.Disconnect() // idempotent on a never-connected node
	node.Disconnect()
}

func TestCluster_Identity(t *testing.T) {
	local := NewCluster("alpha", true)
	remote := NewCluster("beta", false)
	assert.Equal(t, "alpha", local.Name())
	assert.True(t, local.IsLocal())
	assert.False(t, remote.IsLocal())
	assert.Equal(t, "beta", remote.String())
}
