// Package collect provides the data-parallel primitives behind fan-out
// queries: a parallel map over independent inputs and a divide-and-conquer
// merge of ordered key sets.
package collect

import (
	"golang.org/x/sync/errgroup"
)

// ParallelMap applies mapFn to every item independently and feeds the
// outputs, in input order, to collectFn. The first mapFn error cancels
// the result.
func ParallelMap[I, O, R any](items []I, mapFn func(I) (O, error), collectFn func([]O) R) (R, error) {
	outputs := make([]O, len(items))
	var g errgroup.Group
	for i, item := range items {
		g.Go(func() error {
			out, err := mapFn(item)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var zero R
		return zero, err
	}
	return collectFn(outputs), nil
}

// ParallelMerge merges ordered key sets into a single ordered set by
// pairwise divide and conquer: halves merge concurrently, then combine.
// Every input must already be ordered under compare; duplicates collapse.
func ParallelMerge(sets [][]string, compare func(a, b string) int) []string {
	switch len(sets) {
	case 0:
		return nil
	case 1:
		return sets[0]
	case 2:
		return mergeOrdered(sets[0], sets[1], compare)
	default:
		middle := len(sets) / 2
		var left []string
		done := make(chan struct{})
		go func() {
			left = ParallelMerge(sets[:middle], compare)
			close(done)
		}()
		right := ParallelMerge(sets[middle:], compare)
		<-done
		return mergeOrdered(left, right, compare)
	}
}

func mergeOrdered(a, b []string, compare func(x, y string) int) []string {
	merged := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch c := compare(a[i], b[j]); {
		case c < 0:
			merged = append(merged, a[i])
			i++
		case c > 0:
			merged = append(merged, b[j])
			j++
		default:
			merged = append(merged, a[i])
			i++
			j++
		}
	}
	merged = append(merged, a[i:]...)
	merged = append(merged, b[j:]...)
	return merged
}

// Union collapses key sets into one unordered, deduplicated set.
func Union(sets [][]string) []string {
	seen := make(map[string]struct{})
	union := make([]string, 0)
	for _, set := range sets {
		for _, key := range set {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			union = append(union, key)
		}
	}
	return union
}

// Limited truncates keys to the first limit entries; limit 0 means
// unlimited.
func Limited(keys []string, limit int) []string {
	if limit <= 0 || len(keys) <= limit {
		return keys
	}
	return keys[:limit]
}
