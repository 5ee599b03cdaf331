package contentapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortEntriesKeepsMissingValuesLast(t *testing.T) {
	t.Parallel()

	build := func() []Entry {
		return []Entry{
			{ID: 1, Attributes: map[string]any{"title": "one", "order": float64(1)}},
			{ID: 2, Attributes: map[string]any{"title": "none"}},
			{ID: 3, Attributes: map[string]any{"title": "two", "order": float64(2)}},
		}
	}
	titles := func(entries []Entry) []string {
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.Attributes["title"].(string))
		}
		return out
	}

	desc := build()
	sortEntries(desc, []sortKey{{field: "order", desc: true}})
	require.Equal(t, []string{"two", "one", "none"}, titles(desc))

	asc := build()
	sortEntries(asc, []sortKey{{field: "order"}})
	require.Equal(t, []string{"one", "two", "none"}, titles(asc))
}

func TestSortEntriesFallsThroughToSecondaryKey(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{ID: 1, Attributes: map[string]any{"category": "b", "title": "x"}},
		{ID: 2, Attributes: map[string]any{"title": "y"}},
		{ID: 3, Attributes: map[string]any{"category": "b", "title": "a"}},
		{ID: 4, Attributes: map[string]any{"category": "a", "title": "z"}},
	}
	sortEntries(entries, []sortKey{{field: "category", desc: true}, {field: "title"}})

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	require.Equal(t, []int64{3, 1, 4, 2}, ids)
}
