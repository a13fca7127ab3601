package ensemble

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ronaldjose/terrastore/internal/cluster"
)

// Updater refreshes one cluster's membership. Satisfied by *Manager;
// narrowed to an interface so scheduler tests can observe ticks.
type Updater interface {
	Update(c *cluster.Cluster)
}

// Scheduler drives discovery with a single timer: every tick updates each
// scheduled cluster in turn. The first schedule activates the timer; the
// interval comes from the first cluster's configuration.
type Scheduler struct {
	mu       sync.Mutex
	clusters []*cluster.Cluster
	updater  Updater
	started  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates an inactive scheduler.
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule registers a cluster for periodic discovery, activating the
// timer on first use.
func (s *Scheduler) Schedule(c *cluster.Cluster, updater Updater, cfg Configuration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusters = append(s.clusters, c)
	s.updater = updater
	if s.started {
		return
	}
	s.started = true
	interval := cfg.DiscoveryInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	s.wg.Add(1)
	go s.run(interval)
	log.Printf("ensemble: discovery scheduler started with interval %v", interval)
}

// Shutdown cancels the timer and waits for any in-flight tick.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	s.cancel()
	if started {
		s.wg.Wait()
	}
}

func (s *Scheduler) run(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.ctx.Done():
			log.Printf("ensemble: discovery scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	clusters := make([]*cluster.Cluster, len(s.clusters))
	copy(clusters, s.clusters)
	updater := s.updater
	s.mu.Unlock()
	for _, c := range clusters {
		updater.Update(c)
	}
}
