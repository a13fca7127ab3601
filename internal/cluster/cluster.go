package cluster

import (
	"errors"

	"github.com/ronaldjose/terrastore/internal/common"
	"github.com/ronaldjose/terrastore/internal/protocol"
	"github.com/ronaldjose/terrastore/internal/store"
)

// Cluster is a named group of nodes sharing a hash ring. Exactly one
// cluster in the ensemble is local to a given process.
type Cluster struct {
	name  string
	local bool
}

// NewCluster creates a cluster descriptor.
func NewCluster(name string, local bool) *Cluster {
	return &Cluster{name: name, local: local}
}

// Name returns the cluster name.
func (c *Cluster) Name() string {
	return c.name
}

// IsLocal reports whether this is the process-local cluster.
func (c *Cluster) IsLocal() bool {
	return c.local
}

func (c *Cluster) String() string {
	return c.name
}

// Node is a command endpoint. Lifecycle is explicit: Connect before Send,
// Disconnect when evicted. Disconnect is idempotent and best-effort.
type Node interface {
	Name() string
	Host() string
	Port() int
	Connect() error
	Disconnect()
	Send(cmd protocol.Command) (*protocol.Result, error)
}

// ProcessingError is the typed failure raised when sending a command to a
// node fails, either in transport or at the remote store.
type ProcessingError struct {
	Msg common.ErrorMessage
}

func (e *ProcessingError) Error() string {
	return e.Msg.String()
}

// ErrorMessage returns the structured failure payload.
func (e *ProcessingError) ErrorMessage() common.ErrorMessage {
	return e.Msg
}

// NewProcessingError builds a ProcessingError with a formatted message.
func NewProcessingError(code int, format string, args ...any) *ProcessingError {
	return &ProcessingError{Msg: common.Errorf(code, format, args...)}
}

// errorMessageOf extracts the structured payload from a command failure,
// wrapping unexpected errors as INTERNAL.
func errorMessageOf(err error) common.ErrorMessage {
	var opErr *store.OperationError
	if errors.As(err, &opErr) {
		return opErr.Msg
	}
	var procErr *ProcessingError
	if errors.As(err, &procErr) {
		return procErr.Msg
	}
	return common.Errorf(common.InternalCode, "unexpected error: %v", err)
}
