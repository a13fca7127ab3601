package service

import (
	"log"
	"time"

	"github.com/ronaldjose/terrastore/internal/cluster"
	"github.com/ronaldjose/terrastore/internal/collect"
	"github.com/ronaldjose/terrastore/internal/common"
	"github.com/ronaldjose/terrastore/internal/protocol"
	"github.com/ronaldjose/terrastore/internal/router"
	"github.com/ronaldjose/terrastore/internal/store"
)

// KeyValue is one entry of an ordered query result.
type KeyValue struct {
	Key   string
	Value store.Value
}

// QueryService performs the fan-out read operations.
type QueryService struct {
	routes   *router.Router
	registry *store.Registry
}

// NewQueryService creates the query service.
func NewQueryService(routes *router.Router, registry *store.Registry) *QueryService {
	return &QueryService{routes: routes, registry: registry}
}

// GetValue reads a single document from its owning node, optionally
// guarded by a predicate.
func (s *QueryService) GetValue(bucketName, key string, predicate string) (store.Value, error) {
	log.Printf("service: getting value with key %s from bucket %s", key, bucketName)
	parsed := store.ParsePredicate(predicate)
	if !parsed.IsEmpty() {
		if _, err := s.registry.Condition(parsed.ConditionType); err != nil {
			return nil, wrap(err)
		}
	}
	cmd := &protocol.GetValueCommand{Bucket: bucketName, Key: key, Predicate: predicate}
	result, err := cmd.Route(s.routes)
	if err != nil {
		return nil, wrap(err)
	}
	return result.Value, nil
}

// GetBuckets returns the union of bucket names across all clusters.
func (s *QueryService) GetBuckets() ([]string, error) {
	log.Printf("service: getting bucket names")
	buckets, err := s.multicastKeys(func() protocol.Command {
		return &protocol.GetBucketsCommand{}
	}, func(result *protocol.Result) []string {
		return result.Buckets
	})
	if err != nil {
		return nil, wrap(err)
	}
	return collect.Union(buckets), nil
}

// GetAllValues reads every document of a bucket across the ensemble,
// bounded by limit when positive.
func (s *QueryService) GetAllValues(bucketName string, limit int) (map[string]store.Value, error) {
	log.Printf("service: getting all values from bucket %s", bucketName)
	keys, err := s.allKeys(bucketName)
	if err != nil {
		return nil, wrap(err)
	}
	keys = collect.Limited(keys, limit)
	return s.bulkGet(bucketName, keys, "")
}

// QueryByRange returns the documents whose keys fall in the range,
// ordered by the range's comparator, optionally filtered by a predicate.
func (s *QueryService) QueryByRange(bucketName string, keyRange store.Range, predicate string, timeToLive time.Duration) ([]KeyValue, error) {
	log.Printf("service: range query on bucket %s", bucketName)
	comparator := s.registry.Comparator(keyRange.ComparatorName)
	parsed := store.ParsePredicate(predicate)
	if !parsed.IsEmpty() {
		if _, err := s.registry.Condition(parsed.ConditionType); err != nil {
			return nil, wrap(err)
		}
	}

	perCluster, err := s.multicastKeys(func() protocol.Command {
		return &protocol.RangeQueryCommand{
			Bucket:     bucketName,
			Range:      keyRange,
			TimeToLive: timeToLive.Milliseconds(),
		}
	}, func(result *protocol.Result) []string {
		return result.Keys
	})
	if err != nil {
		return nil, wrap(err)
	}

	merged := collect.ParallelMerge(perCluster, comparator.Compare)
	merged = collect.Limited(merged, keyRange.Limit)

	values, err := s.bulkGet(bucketName, merged, predicate)
	if err != nil {
		return nil, err
	}

	// Compose the result preserving the merged key order.
	ordered := make([]KeyValue, 0, len(merged))
	for _, key := range merged {
		if value, ok := values[key]; ok {
			ordered = append(ordered, KeyValue{Key: key, Value: value})
		}
	}
	return ordered, nil
}

// QueryByPredicate returns every document of a bucket satisfying the
// predicate. The result is unordered. An empty predicate is an error.
func (s *QueryService) QueryByPredicate(bucketName string, predicate string) (map[string]store.Value, error) {
	log.Printf("service: predicate query on bucket %s", bucketName)
	parsed := store.ParsePredicate(predicate)
	if parsed.IsEmpty() {
		return nil, NewOperationError(common.BadRequestCode, "predicate is required")
	}
	if _, err := s.registry.Condition(parsed.ConditionType); err != nil {
		return nil, wrap(err)
	}
	keys, err := s.allKeys(bucketName)
	if err != nil {
		return nil, wrap(err)
	}
	return s.bulkGet(bucketName, keys, predicate)
}

// allKeys multicasts GetKeys across the ensemble and unions the replies.
func (s *QueryService) allKeys(bucketName string) ([]string, error) {
	perCluster, err := s.multicastKeys(func() protocol.Command {
		return &protocol.GetKeysCommand{Bucket: bucketName}
	}, func(result *protocol.Result) []string {
		return result.Keys
	})
	if err != nil {
		return nil, err
	}
	return collect.Union(perCluster), nil
}

// clusterNodes is one cluster's node snapshot from a broadcast route.
type clusterNodes struct {
	cluster *cluster.Cluster
	nodes   []cluster.Node
}

// multicastKeys runs a key-collection command against every cluster in
// parallel, trying each cluster's nodes in order and settling for the
// first success. A fully unreachable cluster contributes an empty set:
// for key and bucket inventories an absent contribution is acceptable.
func (s *QueryService) multicastKeys(makeCmd func() protocol.Command, extract func(*protocol.Result) []string) ([][]string, error) {
	routes := s.routes.BroadcastRoute()
	targets := make([]clusterNodes, 0, len(routes))
	for c, nodes := range routes {
		targets = append(targets, clusterNodes{cluster: c, nodes: nodes})
	}
	return collect.ParallelMap(targets, func(target clusterNodes) ([]string, error) {
		for _, node := range target.nodes {
			result, err := node.Send(makeCmd())
			if err != nil {
				log.Printf("service: node %s of cluster %s failed: %v", node, target.cluster, err)
				continue
			}
			return extract(result), nil
		}
		log.Printf("service: no node of cluster %s responded", target.cluster)
		return nil, nil
	}, func(sets [][]string) [][]string {
		return sets
	})
}

// bulkGet groups keys by owning node and reads each group in parallel.
// Any node failure fails the whole read.
func (s *QueryService) bulkGet(bucketName string, keys []string, predicate string) (map[string]store.Value, error) {
	grouped, err := s.routes.RouteToNodesFor(bucketName, keys)
	if err != nil {
		return nil, wrap(err)
	}
	type nodeKeys struct {
		node cluster.Node
		keys []string
	}
	targets := make([]nodeKeys, 0, len(grouped))
	for node, nodeKeySet := range grouped {
		targets = append(targets, nodeKeys{node: node, keys: nodeKeySet})
	}
	partials, err := collect.ParallelMap(targets, func(target nodeKeys) (map[string]store.Value, error) {
		cmd := &protocol.GetValuesCommand{
			Bucket:    bucketName,
			Keys:      target.keys,
			Predicate: predicate,
		}
		result, sendErr := target.node.Send(cmd)
		if sendErr != nil {
			return nil, sendErr
		}
		return result.Values, nil
	}, func(maps []map[string]store.Value) []map[string]store.Value {
		return maps
	})
	if err != nil {
		return nil, wrap(err)
	}
	union := make(map[string]store.Value)
	for _, partial := range partials {
		for key, value := range partial {
			union[key] = value
		}
	}
	return union, nil
}
