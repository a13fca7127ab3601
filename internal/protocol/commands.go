package protocol

import (
	"time"

	"github.com/ronaldjose/terrastore/internal/common"
	"github.com/ronaldjose/terrastore/internal/store"
)

// AddBucketCommand creates a bucket on the receiving node.
type AddBucketCommand struct {
	Bucket string `json:"bucket"`
}

func (c *AddBucketCommand) Tag() Tag { return TagAddBucket }

func (c *AddBucketCommand) Route(router Router) (*Result, error) {
	node, err := router.RouteToLocalNode()
	if err != nil {
		return nil, err
	}
	return node.Send(c)
}

func (c *AddBucketCommand) Execute(env Environment) (*Result, error) {
	env.Store().GetOrCreate(c.Bucket)
	return &Result{}, nil
}

// RemoveBucketCommand deletes a bucket on the receiving node.
type RemoveBucketCommand struct {
	Bucket string `json:"bucket"`
}

func (c *RemoveBucketCommand) Tag() Tag { return TagRemoveBucket }

func (c *RemoveBucketCommand) Route(router Router) (*Result, error) {
	node, err := router.RouteToLocalNode()
	if err != nil {
		return nil, err
	}
	return node.Send(c)
}

func (c *RemoveBucketCommand) Execute(env Environment) (*Result, error) {
	if err := env.Store().Remove(c.Bucket); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

// PutValueCommand stores a document, optionally guarded by a predicate.
type PutValueCommand struct {
	Bucket    string      `json:"bucket"`
	Key       string      `json:"key"`
	Value     store.Value `json:"value"`
	Predicate string      `json:"predicate,omitempty"`
}

func (c *PutValueCommand) Tag() Tag { return TagPutValue }

func (c *PutValueCommand) Route(router Router) (*Result, error) {
	node, err := router.RouteToNodeFor(c.Bucket, c.Key)
	if err != nil {
		return nil, err
	}
	return node.Send(c)
}

func (c *PutValueCommand) Execute(env Environment) (*Result, error) {
	bucket := env.Store().GetOrCreate(c.Bucket)
	predicate := store.ParsePredicate(c.Predicate)
	if predicate.IsEmpty() {
		bucket.Put(c.Key, c.Value)
		return &Result{}, nil
	}
	condition, err := env.Registry().Condition(predicate.ConditionType)
	if err != nil {
		return nil, err
	}
	put, err := bucket.ConditionalPut(c.Key, c.Value, predicate, condition)
	if err != nil {
		return nil, err
	}
	if !put {
		return nil, store.NewOperationError(common.ConflictCode,
			"unsatisfied condition: %s for key: %s", predicate.String(), c.Key)
	}
	return &Result{}, nil
}

// RemoveValueCommand deletes a document.
type RemoveValueCommand struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

func (c *RemoveValueCommand) Tag() Tag { return TagRemoveValue }

func (c *RemoveValueCommand) Route(router Router) (*Result, error) {
	node, err := router.RouteToNodeFor(c.Bucket, c.Key)
	if err != nil {
		return nil, err
	}
	return node.Send(c)
}

func (c *RemoveValueCommand) Execute(env Environment) (*Result, error) {
	bucket := env.Store().Get(c.Bucket)
	if bucket == nil {
		return nil, store.NewOperationError(common.NotFoundCode, "bucket not found: %s", c.Bucket)
	}
	if err := bucket.Remove(c.Key); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

// GetValueCommand reads a single document, optionally guarded.
type GetValueCommand struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	Predicate string `json:"predicate,omitempty"`
}

func (c *GetValueCommand) Tag() Tag { return TagGetValue }

func (c *GetValueCommand) Route(router Router) (*Result, error) {
	node, err := router.RouteToNodeFor(c.Bucket, c.Key)
	if err != nil {
		return nil, err
	}
	return node.Send(c)
}

func (c *GetValueCommand) Execute(env Environment) (*Result, error) {
	bucket := env.Store().Get(c.Bucket)
	if bucket == nil {
		return nil, store.NewOperationError(common.NotFoundCode, "bucket not found: %s", c.Bucket)
	}
	predicate := store.ParsePredicate(c.Predicate)
	if predicate.IsEmpty() {
		value, err := bucket.Get(c.Key)
		if err != nil {
			return nil, err
		}
		return &Result{Value: value}, nil
	}
	condition, err := env.Registry().Condition(predicate.ConditionType)
	if err != nil {
		return nil, err
	}
	value, err := bucket.GetWithGuard(c.Key, predicate, condition)
	if err != nil {
		return nil, err
	}
	return &Result{Value: value}, nil
}

// GetValuesCommand bulk-reads documents owned by the receiving node.
type GetValuesCommand struct {
	Bucket    string   `json:"bucket"`
	Keys      []string `json:"keys"`
	Predicate string   `json:"predicate,omitempty"`
}

func (c *GetValuesCommand) Tag() Tag { return TagGetValues }

func (c *GetValuesCommand) Execute(env Environment) (*Result, error) {
	bucket := env.Store().Get(c.Bucket)
	if bucket == nil {
		return &Result{Values: map[string]store.Value{}}, nil
	}
	predicate := store.ParsePredicate(c.Predicate)
	var condition store.Condition
	if !predicate.IsEmpty() {
		var err error
		condition, err = env.Registry().Condition(predicate.ConditionType)
		if err != nil {
			return nil, err
		}
	}
	return &Result{Values: bucket.GetValues(c.Keys, predicate, condition)}, nil
}

// GetKeysCommand lists the keys the receiving node owns in a bucket.
type GetKeysCommand struct {
	Bucket string `json:"bucket"`
}

func (c *GetKeysCommand) Tag() Tag { return TagGetKeys }

func (c *GetKeysCommand) Execute(env Environment) (*Result, error) {
	bucket := env.Store().Get(c.Bucket)
	if bucket == nil {
		return &Result{Keys: []string{}}, nil
	}
	return &Result{Keys: bucket.Keys()}, nil
}

// GetBucketsCommand returns the receiving node's bucket-name inventory.
type GetBucketsCommand struct{}

func (c *GetBucketsCommand) Tag() Tag { return TagGetBuckets }

func (c *GetBucketsCommand) Route(router Router) (*Result, error) {
	node, err := router.RouteToLocalNode()
	if err != nil {
		return nil, err
	}
	return node.Send(c)
}

func (c *GetBucketsCommand) Execute(env Environment) (*Result, error) {
	return &Result{Buckets: env.Store().Buckets()}, nil
}

// RangeQueryCommand returns the ordered key subset of a bucket within a
// range, under the named comparator.
type RangeQueryCommand struct {
	Bucket     string      `json:"bucket"`
	Range      store.Range `json:"range"`
	TimeToLive int64       `json:"timeToLiveMs"`
}

func (c *RangeQueryCommand) Tag() Tag { return TagRangeQuery }

func (c *RangeQueryCommand) Execute(env Environment) (*Result, error) {
	bucket := env.Store().Get(c.Bucket)
	if bucket == nil {
		return &Result{Keys: []string{}}, nil
	}
	comparator := env.Registry().Comparator(c.Range.ComparatorName)
	keys := bucket.KeysInRange(c.Range, comparator, time.Duration(c.TimeToLive)*time.Millisecond)
	return &Result{Keys: keys}, nil
}

// UpdateCommand runs a named function against a document under the
// per-key guard, bounded by the update timeout.
//
// The reply carries an empty value map rather than the post-update value;
// callers re-read.
type UpdateCommand struct {
	Bucket string       `json:"bucket"`
	Key    string       `json:"key"`
	Update store.Update `json:"update"`
}

func (c *UpdateCommand) Tag() Tag { return TagUpdate }

func (c *UpdateCommand) Route(router Router) (*Result, error) {
	node, err := router.RouteToNodeFor(c.Bucket, c.Key)
	if err != nil {
		return nil, err
	}
	return node.Send(c)
}

func (c *UpdateCommand) Execute(env Environment) (*Result, error) {
	fn, err := env.Registry().Function(c.Update.FunctionName)
	if err != nil {
		return nil, err
	}
	bucket := env.Store().Get(c.Bucket)
	if bucket == nil {
		return nil, store.NewOperationError(common.NotFoundCode, "bucket not found: %s", c.Bucket)
	}
	if _, err := bucket.Update(c.Key, c.Update, fn, env.Executor()); err != nil {
		return nil, err
	}
	return &Result{Values: map[string]store.Value{}}, nil
}

// MembershipCommand asks a node for its cluster's current view.
type MembershipCommand struct{}

func (c *MembershipCommand) Tag() Tag { return TagMembership }

func (c *MembershipCommand) Execute(env Environment) (*Result, error) {
	view := env.Membership()
	return &Result{View: &view}, nil
}
