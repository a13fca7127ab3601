// Package server accepts framed command connections from peer nodes and
// executes the decoded commands against this node's environment.
package server

import (
	"errors"
	"io"
	"log"
	"net"
	"sync"

	"github.com/ronaldjose/terrastore/internal/cluster"
	"github.com/ronaldjose/terrastore/internal/common"
	"github.com/ronaldjose/terrastore/internal/protocol"
	"github.com/ronaldjose/terrastore/internal/router"
	"github.com/ronaldjose/terrastore/internal/store"
)

// ViewProvider reports the local cluster's current membership view.
type ViewProvider interface {
	CurrentView() protocol.View
}

// Server is the receiving side of the command protocol. It implements
// protocol.Environment: incoming commands execute against this node's
// store, registry, worker pool and membership view.
type Server struct {
	nodeName   string
	backing    store.Store
	registry   *store.Registry
	pool       *cluster.Pool
	membership ViewProvider

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// New creates a server for the given environment.
func New(nodeName string, backing store.Store, registry *store.Registry, pool *cluster.Pool, membership ViewProvider) *Server {
	return &Server{
		nodeName:   nodeName,
		backing:    backing,
		registry:   registry,
		pool:       pool,
		membership: membership,
		conns:      make(map[net.Conn]struct{}),
	}
}

// SetMembership swaps the membership view source. Used at boot when the
// view provider needs the server's bound port to exist first.
func (s *Server) SetMembership(membership ViewProvider) {
	s.mu.Lock()
	s.membership = membership
	s.mu.Unlock()
}

// Store returns the local store.
func (s *Server) Store() store.Store { return s.backing }

// Registry returns the local operator registry.
func (s *Server) Registry() *store.Registry { return s.registry }

// Executor returns the shared worker pool.
func (s *Server) Executor() store.Executor { return s.pool }

// Membership returns the local cluster's current view.
func (s *Server) Membership() protocol.View {
	s.mu.Lock()
	membership := s.membership
	s.mu.Unlock()
	return membership.CurrentView()
}

// Start listens on addr and serves connections until Close.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.wg.Add(1)
	go s.serve(listener)
	log.Printf("server[%s]: listening on %s", s.nodeName, addr)
	return nil
}

// Addr returns the bound listen address, or empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops accepting connections, drops the open ones and waits for
// handlers to drain.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	listener := s.listener
	open := make([]net.Conn, 0, len(s.conns))
	for conn := range s.conns {
		open = append(open, conn)
	}
	s.mu.Unlock()
	if listener != nil {
		_ = listener.Close()
	}
	for _, conn := range open {
		_ = conn.Close()
	}
	s.wg.Wait()
	log.Printf("server[%s]: stopped", s.nodeName)
}

func (s *Server) serve(listener net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				log.Printf("server[%s]: accept: %v", s.nodeName, err)
			}
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go s.handle(conn)
	}
}

// handle runs one connection's command/reply loop until the peer
// disconnects.
func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()
	for {
		cmd, err := protocol.ReadCommand(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Printf("server[%s]: read command: %v", s.nodeName, err)
			}
			return
		}
		result, execErr := cmd.Execute(s)
		if execErr != nil {
			if writeErr := protocol.WriteErrorReply(conn, failureOf(execErr)); writeErr != nil {
				log.Printf("server[%s]: write error reply: %v", s.nodeName, writeErr)
				return
			}
			continue
		}
		if writeErr := protocol.WriteReply(conn, result); writeErr != nil {
			log.Printf("server[%s]: write reply: %v", s.nodeName, writeErr)
			return
		}
	}
}

// failureOf maps an execution failure to its wire payload.
func failureOf(err error) common.ErrorMessage {
	var storeErr *store.OperationError
	if errors.As(err, &storeErr) {
		return storeErr.Msg
	}
	var procErr *cluster.ProcessingError
	if errors.As(err, &procErr) {
		return procErr.Msg
	}
	var routeErr *router.MissingRouteError
	if errors.As(err, &routeErr) {
		return routeErr.Msg
	}
	return common.Errorf(common.InternalCode, "unexpected error: %v", err)
}
