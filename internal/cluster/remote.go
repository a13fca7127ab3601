package cluster

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ronaldjose/terrastore/internal/common"
	"github.com/ronaldjose/terrastore/internal/protocol"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultSendTimeout = 10 * time.Second
)

// RemoteNodeFactory constructs a node for a discovered member. The
// discovery loop uses it so tests can substitute fakes.
type RemoteNodeFactory func(host string, port int, name string) Node

// RemoteNode is a command endpoint reached over a framed TCP session.
// One command/reply round trip runs at a time per session.
type RemoteNode struct {
	name string
	host string
	port int

	dialTimeout time.Duration
	sendTimeout time.Duration

	mu   sync.Mutex
	conn net.Conn
}

// NewRemoteNode creates a disconnected remote node.
func NewRemoteNode(host string, port int, name string) *RemoteNode {
	return &RemoteNode{
		name:        name,
		host:        host,
		port:        port,
		dialTimeout: defaultDialTimeout,
		sendTimeout: defaultSendTimeout,
	}
}

func (n *RemoteNode) Name() string { return n.name }
func (n *RemoteNode) Host() string { return n.host }
func (n *RemoteNode) Port() int    { return n.port }

// Connect opens the transport session. Connecting an already-connected
// node is a no-op.
func (n *RemoteNode) Connect() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn != nil {
		return nil
	}
	addr := net.JoinHostPort(n.host, fmt.Sprintf("%d", n.port))
	conn, err := net.DialTimeout("tcp", addr, n.dialTimeout)
	if err != nil {
		return NewProcessingError(common.UnavailableCode, "cannot connect to %s: %v", n, err)
	}
	n.conn = conn
	return nil
}

// Disconnect tears the session down. Idempotent; close errors are
// swallowed as best-effort cleanup.
func (n *RemoteNode) Disconnect() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn != nil {
		_ = n.conn.Close()
		n.conn = nil
	}
}

// Send serializes the command, awaits one reply and deserializes it.
// Transport failures break the session and surface as ProcessingError.
func (n *RemoteNode) Send(cmd protocol.Command) (*protocol.Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn == nil {
		return nil, NewProcessingError(common.UnavailableCode, "node %s is not connected", n)
	}
	if err := n.conn.SetDeadline(time.Now().Add(n.sendTimeout)); err != nil {
		return nil, n.broken("set deadline on %s: %v", n, err)
	}
	if err := protocol.WriteCommand(n.conn, cmd); err != nil {
		return nil, n.broken("send to %s: %v", n, err)
	}
	result, errMsg, err := protocol.ReadReply(n.conn)
	if err != nil {
		return nil, n.broken("receive from %s: %v", n, err)
	}
	if errMsg != nil {
		return nil, &ProcessingError{Msg: *errMsg}
	}
	return result, nil
}

// broken drops the session after a transport failure so the next Send
// fails fast instead of reading a desynchronized stream.
func (n *RemoteNode) broken(format string, args ...any) *ProcessingError {
	if n.conn != nil {
		_ = n.conn.Close()
		n.conn = nil
	}
	return NewProcessingError(common.UnavailableCode, format, args...)
}

func (n *RemoteNode) String() string {
	return fmt.Sprintf("%s@%s:%d", n.name, n.host, n.port)
}
