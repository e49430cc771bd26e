package catalogue

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSearcher serves a fixed result set page by page.
type fakeSearcher struct {
	total int
	calls int
}

func (f *fakeSearcher) SearchTitles(_ context.Context, query string, offset, pageSize int) (*SearchPage, error) {
	f.calls++
	page := &SearchPage{
		TotalRecords: f.total,
		Offset:       offset,
	}
	for i := offset; i < f.total && i < offset+pageSize; i++ {
		page.Results = append(page.Results, SearchResult{BID: fmt.Sprintf("B%d", i)})
	}
	page.HasMore = offset+pageSize < f.total
	return page, nil
}

func TestPagerWalksAllPages(t *testing.T) {
	searcher := &fakeSearcher{total: 45}
	pager := NewPager(searcher, "python", 20, 0)

	results, err := pager.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 45)
	assert.Equal(t, 3, searcher.calls)

	// Exhausted pager stays exhausted.
	_, err = pager.Next(context.Background())
	assert.ErrorIs(t, err, ErrNoMorePages)
}

func TestPagerRespectsPageCap(t *testing.T) {
	searcher := &fakeSearcher{total: 200}
	pager := NewPager(searcher, "python", 20, 2)

	results, err := pager.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 40)
	assert.Equal(t, 2, searcher.calls)
}

func TestPagerReset(t *testing.T) {
	searcher := &fakeSearcher{total: 30}
	pager := NewPager(searcher, "python", 20, 0)

	first, err := pager.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, first.CurrentOffset)

	pager.Reset()
	again, err := pager.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.CurrentOffset)
	assert.Equal(t, first.Results[0].BID, again.Results[0].BID)
}

func TestPageWindowOffsets(t *testing.T) {
	tests := []struct {
		name         string
		offset       int
		total        int
		hasMore      bool
		wantPrevious int
		wantNext     int
		wantLast     int
	}{
		{
			name:   "first page",
			offset: 0, total: 45, hasMore: true,
			wantPrevious: 0, wantNext: 20, wantLast: 40,
		},
		{
			name:   "middle page",
			offset: 20, total: 45, hasMore: true,
			wantPrevious: 0, wantNext: 40, wantLast: 40,
		},
		{
			name:   "last page",
			offset: 40, total: 45, hasMore: false,
			wantPrevious: 20, wantNext: 40, wantLast: 40,
		},
		{
			name:   "exact multiple",
			offset: 0, total: 40, hasMore: true,
			wantPrevious: 0, wantNext: 20, wantLast: 20,
		},
		{
			name:   "empty result",
			offset: 0, total: 0, hasMore: false,
			wantPrevious: 0, wantNext: 0, wantLast: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := PageWindow(&SearchPage{
				TotalRecords: tt.total,
				Offset:       tt.offset,
				HasMore:      tt.hasMore,
			}, 20)

			assert.Equal(t, tt.offset, window.CurrentOffset)
			assert.Equal(t, tt.wantPrevious, window.PreviousOffset)
			assert.Equal(t, tt.wantNext, window.NextOffset)
			assert.Equal(t, tt.wantLast, window.LastOffset)
			assert.Equal(t, tt.total, window.TotalRecords)
		})
	}
}
