package cluster

import (
	"fmt"

	"github.com/ronaldjose/terrastore/internal/protocol"
)

// LocalNode executes commands in-process against this node's environment.
// It carries no transport: Connect and Disconnect are no-ops.
//
// Sends run on the caller's goroutine, gated by a bounded semaphore. The
// worker pool itself stays reserved for store-side tasks (update
// functions), so a command waiting on the pool can never starve it.
type LocalNode struct {
	name string
	host string
	port int
	env  protocol.Environment
	sem  chan struct{}
}

// NewLocalNode creates the process-local node with the given command
// concurrency bound.
func NewLocalNode(name, host string, port int, env protocol.Environment, concurrency int) *LocalNode {
	if concurrency <= 0 {
		concurrency = 16
	}
	return &LocalNode{
		name: name,
		host: host,
		port: port,
		env:  env,
		sem:  make(chan struct{}, concurrency),
	}
}

func (n *LocalNode) Name() string { return n.name }
func (n *LocalNode) Host() string { return n.host }
func (n *LocalNode) Port() int    { return n.port }

// Connect is a no-op: the local node needs no transport.
func (n *LocalNode) Connect() error { return nil }

// Disconnect is a no-op.
func (n *LocalNode) Disconnect() {}

// Send executes the command against the local environment. Failures
// surface as ProcessingError, matching remote execution.
func (n *LocalNode) Send(cmd protocol.Command) (*protocol.Result, error) {
	n.sem <- struct{}{}
	defer func() { <-n.sem }()
	result, err := cmd.Execute(n.env)
	if err != nil {
		return nil, &ProcessingError{Msg: errorMessageOf(err)}
	}
	return result, nil
}

func (n *LocalNode) String() string {
	return fmt.Sprintf("%s@%s:%d", n.name, n.host, n.port)
}
