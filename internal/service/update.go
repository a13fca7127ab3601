package service

import (
	"log"

	"github.com/ronaldjose/terrastore/internal/protocol"
	"github.com/ronaldjose/terrastore/internal/router"
	"github.com/ronaldjose/terrastore/internal/store"
)

// UpdateService performs the point operations: bucket schema changes and
// single-key writes, each resolved to exactly one node.
type UpdateService struct {
	routes   *router.Router
	registry *store.Registry
}

// NewUpdateService creates the update service.
func NewUpdateService(routes *router.Router, registry *store.Registry) *UpdateService {
	return &UpdateService{routes: routes, registry: registry}
}

// AddBucket creates a bucket on the local node. Bucket names propagate
// lazily: other clusters create the bucket on first write or read.
func (s *UpdateService) AddBucket(bucketName string) error {
	log.Printf("service: adding bucket %s", bucketName)
	cmd := &protocol.AddBucketCommand{Bucket: bucketName}
	_, err := cmd.Route(s.routes)
	return wrap(err)
}

// RemoveBucket removes a bucket on the local node.
func (s *UpdateService) RemoveBucket(bucketName string) error {
	log.Printf("service: removing bucket %s", bucketName)
	cmd := &protocol.RemoveBucketCommand{Bucket: bucketName}
	_, err := cmd.Route(s.routes)
	return wrap(err)
}

// PutValue stores a document at its owning node, optionally guarded by a
// predicate ("type:expression").
func (s *UpdateService) PutValue(bucketName, key string, value store.Value, predicate string) error {
	log.Printf("service: putting value with key %s to bucket %s", key, bucketName)
	if err := s.checkPredicate(predicate); err != nil {
		return err
	}
	cmd := &protocol.PutValueCommand{
		Bucket:    bucketName,
		Key:       key,
		Value:     value,
		Predicate: predicate,
	}
	_, err := cmd.Route(s.routes)
	return wrap(err)
}

// RemoveValue deletes a document at its owning node.
func (s *UpdateService) RemoveValue(bucketName, key string) error {
	log.Printf("service: removing value with key %s from bucket %s", key, bucketName)
	cmd := &protocol.RemoveValueCommand{Bucket: bucketName, Key: key}
	_, err := cmd.Route(s.routes)
	return wrap(err)
}

// ExecuteUpdate runs a named server-side function against a document at
// its owning node. The function name is resolved locally first so an
// unknown name fails fast as BAD_REQUEST.
func (s *UpdateService) ExecuteUpdate(bucketName, key string, update store.Update) error {
	log.Printf("service: updating value with key %s in bucket %s", key, bucketName)
	if _, err := s.registry.Function(update.FunctionName); err != nil {
		return wrap(err)
	}
	cmd := &protocol.UpdateCommand{Bucket: bucketName, Key: key, Update: update}
	_, err := cmd.Route(s.routes)
	return wrap(err)
}

func (s *UpdateService) checkPredicate(predicate string) error {
	parsed := store.ParsePredicate(predicate)
	if parsed.IsEmpty() {
		return nil
	}
	if _, err := s.registry.Condition(parsed.ConditionType); err != nil {
		return wrap(err)
	}
	return nil
}
