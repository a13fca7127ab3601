// Package main implements the terrastore node daemon: one process serving
// its share of the document store and participating in cluster and
// ensemble membership.
//
// The daemon wires the core plane together:
//   - the in-memory bucket store and the operator registry,
//   - the framed-TCP command server peers send commands to,
//   - the router with this process registered as the local node,
//   - the ensemble manager discovering every configured remote cluster.
//
// Configuration comes from a YAML file (path from -config or
// TERRASTORE_CONFIG), with TERRASTORE_NODE_NAME/TERRASTORE_NODE_HOST
// overriding the node identity.
//
// Example usage:
//
//	terrastore -config node1.yml
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ronaldjose/terrastore/internal/cluster"
	"github.com/ronaldjose/terrastore/internal/config"
	"github.com/ronaldjose/terrastore/internal/ensemble"
	"github.com/ronaldjose/terrastore/internal/operators"
	"github.com/ronaldjose/terrastore/internal/protocol"
	"github.com/ronaldjose/terrastore/internal/router"
	"github.com/ronaldjose/terrastore/internal/server"
	"github.com/ronaldjose/terrastore/internal/store"
)

// logFatal is a variable to allow intercepting fatal exits in tests.
var logFatal = log.Fatalf

func main() {
	configPath := flag.String("config", getenv("TERRASTORE_CONFIG", "terrastore.yml"), "path to the node configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logFatal("configuration: %v", err)
	}

	node := run(cfg)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	node.shutdown()
	log.Printf("node[%s] stopped", cfg.Node.Name)
}

// runtime holds the wired components for shutdown.
type runtime struct {
	manager *ensemble.Manager
	server  *server.Server
	pool    *cluster.Pool
}

// run wires and starts every component of the node.
func run(cfg *config.Config) *runtime {
	registry := operators.NewRegistry()
	backing := store.NewMemoryStore()
	pool := cluster.NewPool(cfg.WorkerPool)

	clusters := make([]*cluster.Cluster, 0, len(cfg.Ensemble.Clusters))
	var localCluster *cluster.Cluster
	for _, name := range cfg.Ensemble.Clusters {
		c := cluster.NewCluster(name, name == cfg.Cluster)
		if c.IsLocal() {
			localCluster = c
		}
		clusters = append(clusters, c)
	}

	routes := router.NewRouter(localCluster)
	routes.SetupClusters(clusters)

	nodeFactory := cluster.RemoteNodeFactory(func(host string, port int, name string) cluster.Node {
		return cluster.NewRemoteNode(host, port, name)
	})

	localMember := protocol.Member{
		Name: cfg.Node.Name,
		Host: cfg.Node.Host,
		Port: cfg.Node.Port,
	}
	membership := ensemble.NewLocalMembership(localCluster, localMember, routes, nodeFactory)

	srv := server.New(cfg.Node.Name, backing, registry, pool, membership)
	localNode := cluster.NewLocalNode(cfg.Node.Name, cfg.Node.Host, cfg.Node.Port, srv, cfg.WorkerPool)
	routes.SetLocalNode(localNode)

	if err := srv.Start(fmt.Sprintf("%s:%d", cfg.Node.Host, cfg.Node.Port)); err != nil {
		logFatal("server: %v", err)
	}
	log.Printf("node[%s] serving cluster %s on %s:%d", cfg.Node.Name, cfg.Cluster, cfg.Node.Host, cfg.Node.Port)

	scheduler := ensemble.NewScheduler()
	manager := ensemble.NewManager(scheduler, routes, nodeFactory)
	for _, c := range clusters {
		if c.IsLocal() {
			continue
		}
		seed := cfg.Ensemble.Seeds[c.Name()]
		if err := manager.Join(c, seed, ensemble.Configuration{
			DiscoveryInterval: cfg.Ensemble.DiscoveryInterval.Std(),
		}); err != nil {
			logFatal("ensemble join %s: %v", c, err)
		}
		log.Printf("node[%s] joined cluster %s via seed %s", cfg.Node.Name, c, seed)
	}

	return &runtime{manager: manager, server: srv, pool: pool}
}

func (r *runtime) shutdown() {
	r.manager.Shutdown()
	r.server.Close()
	r.pool.Shutdown()
}

// getenv retrieves an environment variable with a default fallback.
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
