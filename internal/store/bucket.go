package store

import (
	"sort"
	"sync"
	"time"

	"github.com/ronaldjose/terrastore/internal/common"
)

// Bucket is a named container of key -> document pairs.
//
// Plain reads and writes go through the bucket-wide RWMutex. Read-modify-
// write operations (conditional put, update) additionally hold a per-key
// lock for the whole evaluate-then-write sequence, so concurrent guarded
// writes to the same key serialize at the owning node.
type Bucket struct {
	name string

	mu     sync.RWMutex
	values map[string]Value

	locks keyLocks

	indexMu sync.Mutex
	index   *keyIndex // cached sorted key snapshot for range queries
}

// keyIndex is a sorted snapshot of the bucket's keys under one comparator,
// reusable for range queries within a time-to-live window.
type keyIndex struct {
	comparatorName string
	keys           []string
	takenAt        time.Time
}

// NewBucket creates an empty bucket.
func NewBucket(name string) *Bucket {
	return &Bucket{
		name:   name,
		values: make(map[string]Value),
	}
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// Put stores a value, overwriting any existing one.
func (b *Bucket) Put(key string, value Value) {
	b.mu.Lock()
	b.values[key] = value.Copy()
	b.mu.Unlock()
	b.invalidateIndex()
}

// Get retrieves the value for key.
func (b *Bucket) Get(key string) (Value, error) {
	b.mu.RLock()
	value, ok := b.values[key]
	b.mu.RUnlock()
	if !ok {
		return nil, NewOperationError(common.NotFoundCode, "key not found: %s", key)
	}
	return value.Copy(), nil
}

// GetWithGuard retrieves the value for key only if the condition holds.
func (b *Bucket) GetWithGuard(key string, predicate Predicate, condition Condition) (Value, error) {
	value, err := b.Get(key)
	if err != nil {
		return nil, err
	}
	if !condition.IsSatisfied(key, value, predicate.Expression) {
		return nil, NewOperationError(common.NotFoundCode,
			"unsatisfied condition: %s for key: %s", predicate.String(), key)
	}
	return value, nil
}

// Remove deletes the value for key.
func (b *Bucket) Remove(key string) error {
	b.mu.Lock()
	_, ok := b.values[key]
	delete(b.values, key)
	b.mu.Unlock()
	if !ok {
		return NewOperationError(common.NotFoundCode, "key not found: %s", key)
	}
	b.invalidateIndex()
	return nil
}

// ConditionalPut stores value only if the condition holds against the
// existing value. A missing key is an unconditional insert. Returns false
// when the guard rejected the write.
func (b *Bucket) ConditionalPut(key string, value Value, predicate Predicate, condition Condition) (bool, error) {
	unlock := b.locks.lock(key)
	defer unlock()

	b.mu.RLock()
	existing, ok := b.values[key]
	b.mu.RUnlock()

	if ok && !condition.IsSatisfied(key, existing, predicate.Expression) {
		return false, nil
	}

	b.mu.Lock()
	b.values[key] = value.Copy()
	b.mu.Unlock()
	b.invalidateIndex()
	return true, nil
}

// Update runs the named function against the current value under the
// per-key lock, bounded by the update timeout. On timeout the invocation
// is abandoned, the value stays unchanged and a TIMEOUT failure surfaces.
func (b *Bucket) Update(key string, update Update, fn Function, executor Executor) (Value, error) {
	unlock := b.locks.lock(key)
	defer unlock()

	b.mu.RLock()
	current, ok := b.values[key]
	b.mu.RUnlock()
	if !ok {
		return nil, NewOperationError(common.NotFoundCode, "key not found: %s", key)
	}

	currentMap, err := current.Map()
	if err != nil {
		return nil, err
	}

	type outcome struct {
		value map[string]any
		err   error
	}
	done := make(chan outcome, 1)
	if err := executor.Submit(func() {
		updated, fnErr := fn.Apply(key, currentMap, update.Params)
		done <- outcome{value: updated, err: fnErr}
	}); err != nil {
		return nil, NewOperationError(common.InternalCode, "cannot execute update: %v", err)
	}

	timer := time.NewTimer(update.Timeout())
	defer timer.Stop()
	select {
	case out := <-done:
		if out.err != nil {
			return nil, NewOperationError(common.InternalCode,
				"update function %s failed: %v", update.FunctionName, out.err)
		}
		updated, err := ValueFromMap(out.value)
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		b.values[key] = updated
		b.mu.Unlock()
		b.invalidateIndex()
		return updated.Copy(), nil
	case <-timer.C:
		// The function goroutine is abandoned; its result is discarded.
		return nil, NewOperationError(common.TimeoutCode,
			"update on key %s timed out after %v", key, update.Timeout())
	}
}

// Keys returns all keys in the bucket, in no particular order.
func (b *Bucket) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.values))
	for key := range b.values {
		keys = append(keys, key)
	}
	return keys
}

// GetValues bulk-reads the given keys. Absent keys are skipped; when a
// condition is given, values not satisfying it are skipped too.
func (b *Bucket) GetValues(keys []string, predicate Predicate, condition Condition) map[string]Value {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make(map[string]Value, len(keys))
	for _, key := range keys {
		value, ok := b.values[key]
		if !ok {
			continue
		}
		if condition != nil && !condition.IsSatisfied(key, value, predicate.Expression) {
			continue
		}
		result[key] = value.Copy()
	}
	return result
}

// KeysInRange returns the ordered keys within [StartKey, EndKey] under the
// given comparator. The sorted key index may be served from a snapshot
// taken within the last timeToLive; a zero timeToLive forces a fresh one.
func (b *Bucket) KeysInRange(keyRange Range, comparator Comparator, timeToLive time.Duration) []string {
	index := b.sortedKeys(keyRange.ComparatorName, comparator, timeToLive)

	selected := make([]string, 0, len(index))
	for _, key := range index {
		if comparator.Compare(key, keyRange.StartKey) < 0 {
			continue
		}
		if keyRange.EndKey != "" && comparator.Compare(key, keyRange.EndKey) > 0 {
			break
		}
		selected = append(selected, key)
		if keyRange.Limit > 0 && len(selected) == keyRange.Limit {
			break
		}
	}
	return selected
}

// Size returns the number of keys in the bucket.
func (b *Bucket) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.values)
}

func (b *Bucket) sortedKeys(comparatorName string, comparator Comparator, timeToLive time.Duration) []string {
	b.indexMu.Lock()
	defer b.indexMu.Unlock()

	if b.index != nil && b.index.comparatorName == comparatorName && timeToLive > 0 &&
		time.Since(b.index.takenAt) <= timeToLive {
		return b.index.keys
	}

	keys := b.Keys()
	sort.Slice(keys, func(i, j int) bool {
		return comparator.Compare(keys[i], keys[j]) < 0
	})
	b.index = &keyIndex{
		comparatorName: comparatorName,
		keys:           keys,
		takenAt:        time.Now(),
	}
	return keys
}

func (b *Bucket) invalidateIndex() {
	b.indexMu.Lock()
	b.index = nil
	b.indexMu.Unlock()
}

// keyLocks hands out refcounted per-key mutexes.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// lock acquires the mutex for key and returns the release function.
func (l *keyLocks) lock(key string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*keyLock)
	}
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
