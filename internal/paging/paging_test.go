package paging

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPage_ReconstructsSequence(t *testing.T) {
	for _, n := range []int{0, 1, 4, 5, 6, 10, 23} {
		for _, size := range []int{1, 2, 5, 7} {
			results := seq(n)

			var got []int
			pages := 0
			for i := 0; ; i++ {
				p := Page(results, i, size)
				got = append(got, p.Items...)
				pages++
				if !p.HasNext {
					break
				}
				require.Less(t, pages, n+2, "paging did not terminate")
			}

			if n == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, results, got, "n=%d size=%d", n, size)
				assert.Equal(t, PageCount(n, size), pages)
			}
		}
	}
}

func TestPage_HasPrevious(t *testing.T) {
	results := seq(12)

	assert.False(t, Page(results, 0, 5).HasPrevious)
	for k := 1; k < 5; k++ {
		assert.True(t, Page(results, k, 5).HasPrevious, "page %d", k)
	}
}

func TestPage_Bounds(t *testing.T) {
	results := seq(12)

	first := Page(results, 0, 5)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, first.Items)
	assert.Equal(t, 0, first.StartIndex)
	assert.Equal(t, 12, first.TotalCount)
	assert.True(t, first.HasNext)

	last := Page(results, 2, 5)
	assert.Equal(t, []int{10, 11}, last.Items)
	assert.Equal(t, 10, last.StartIndex)
	assert.False(t, last.HasNext)
	assert.True(t, last.HasPrevious)
}

func TestPage_Empty(t *testing.T) {
	p := Page([]string{}, 0, 5)
	assert.Empty(t, p.Items)
	assert.NotNil(t, p.Items)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrevious)
	assert.Equal(t, 0, p.TotalCount)
}

func TestPage_FarBeyondEnd(t *testing.T) {
	p := Page(seq(3), 100, 5)
	assert.Empty(t, p.Items)
	assert.False(t, p.HasNext)
	assert.True(t, p.HasPrevious)
	assert.Equal(t, 500, p.StartIndex)
}

func TestPage_HugeIndex(t *testing.T) {
	for _, index := range []int{3689348814741910323, math.MaxInt} {
		p := Page(seq(3), index, 5)
		assert.Empty(t, p.Items)
		assert.False(t, p.HasNext)
		assert.True(t, p.HasPrevious)
		assert.Equal(t, math.MaxInt, p.StartIndex)
	}

	_, _, _, ok := Item(seq(3), math.MaxInt)
	assert.False(t, ok)
}

func TestPage_NormalisesArguments(t *testing.T) {
	p := Page(seq(8), -3, 0)
	assert.Equal(t, 0, p.PageIndex)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, p.Items)
	assert.False(t, p.HasPrevious)
}

func TestItem(t *testing.T) {
	results := []string{"a", "b", "c"}

	testCases := []struct {
		name     string
		index    int
		want     string
		prev     bool
		next     bool
		expectOK bool
	}{
		{"first", 0, "a", false, true, true},
		{"middle", 1, "b", true, true, true},
		{"last", 2, "c", true, false, true},
		{"past end", 3, "", true, false, false},
		{"negative", -1, "", false, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			item, prev, next, ok := Item(results, tc.index)
			assert.Equal(t, tc.expectOK, ok)
			assert.Equal(t, tc.want, item)
			assert.Equal(t, tc.prev, prev)
			assert.Equal(t, tc.next, next)
		})
	}
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, PageCount(0, 5))
	assert.Equal(t, 1, PageCount(5, 5))
	assert.Equal(t, 2, PageCount(6, 5))
	assert.Equal(t, 3, PageCount(11, 0))
}
