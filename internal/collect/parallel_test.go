package collect

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelMap_PreservesOrder(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	doubled, err := ParallelMap(items, func(i int) (int, error) {
		return i * 2, nil
	}, func(outputs []int) []int {
		return outputs
	})
	require.NoError(t, err)
	for i, out := range doubled {
		assert.Equal(t, i*2, out)
	}
}

func TestParallelMap_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := ParallelMap([]int{1, 2, 3}, func(i int) (int, error) {
		if i == 2 {
			return 0, boom
		}
		return i, nil
	}, func(outputs []int) []int {
		return outputs
	})
	assert.ErrorIs(t, err, boom)
}

func TestParallelMap_Collect(t *testing.T) {
	sum, err := ParallelMap([]int{1, 2, 3, 4}, func(i int) (int, error) {
		return i, nil
	}, func(outputs []int) int {
		total := 0
		for _, out := range outputs {
			total += out
		}
		return total
	})
	require.NoError(t, err)
	assert.Equal(t, 10, sum)
}

func TestParallelMerge_MatchesSequentialSort(t *testing.T) {
	// Merging k sorted sets must equal sorting their deduplicated union.
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 25; round++ {
		setCount := 1 + rng.Intn(7)
		sets := make([][]string, setCount)
		seen := make(map[string]struct{})
		for i := range sets {
			size := rng.Intn(20)
			set := make([]string, 0, size)
			for j := 0; j < size; j++ {
				key := fmt.Sprintf("key-%03d", rng.Intn(50))
				set = append(set, key)
				seen[key] = struct{}{}
			}
			sort.Strings(set)
			sets[i] = dedupSorted(set)
		}

		expected := make([]string, 0, len(seen))
		for key := range seen {
			expected = append(expected, key)
		}
		sort.Strings(expected)

		merged := ParallelMerge(sets, strings.Compare)
		if len(expected) == 0 {
			assert.Empty(t, merged)
		} else {
			assert.Equal(t, expected, merged, "round %d", round)
		}
	}
}

func TestParallelMerge_DescendingComparator(t *testing.T) {
	desc := func(a, b string) int { return strings.Compare(b, a) }
	merged := ParallelMerge([][]string{
		{"c", "a"},
		{"d", "b", "a"},
	}, desc)
	assert.Equal(t, []string{"d", "c", "b", "a"}, merged)
}

func TestParallelMerge_Degenerate(t *testing.T) {
	assert.Nil(t, ParallelMerge(nil, strings.Compare))
	assert.Equal(t, []string{"a"}, ParallelMerge([][]string{{"a"}}, strings.Compare))
	assert.Equal(t, []string{"a", "b"}, ParallelMerge([][]string{{"a"}, nil, {"b"}}, strings.Compare))
}

func TestUnion(t *testing.T) {
	union := Union([][]string{{"a", "b"}, {"b", "c"}, nil})
	assert.ElementsMatch(t, []string{"a", "b", "c"}, union)
}

func TestLimited(t *testing.T) {
	keys := []string{"a", "b", "c"}
	assert.Equal(t, keys, Limited(keys, 0))
	assert.Equal(t, keys, Limited(keys, 5))
	assert.Equal(t, []string{"a", "b"}, Limited(keys, 2))
}

func dedupSorted(keys []string) []string {
	out := keys[:0]
	var last string
	for i, key := range keys {
		if i == 0 || key != last {
			out = append(out, key)
		}
		last = key
	}
	return out
}
