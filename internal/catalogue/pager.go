package catalogue

import (
	"context"
	"errors"
)

// ErrNoMorePages is returned by Pager.Next once the search is exhausted or
// the page cap is reached.
var ErrNoMorePages = errors.New("no more search pages")

// Searcher is the slice of the catalogue client the pager needs.
type Searcher interface {
	SearchTitles(ctx context.Context, query string, offset, pageSize int) (*SearchPage, error)
}

// TitlePage is one fetched page plus the offsets a consumer needs to render
// previous/current/next/last navigation without re-querying.
type TitlePage struct {
	Results      []SearchResult
	TotalRecords int
	PageSize     int

	CurrentOffset  int
	PreviousOffset int
	NextOffset     int
	LastOffset     int
	HasMore        bool
}

// Pager walks a multi-page catalogue search, advancing the offset by the page
// size until the catalogue reports no more records or the page cap is hit.
// Reset restarts the walk from offset zero.
type Pager struct {
	client   Searcher
	query    string
	pageSize int
	maxPages int

	offset  int
	fetched int
	done    bool
}

// NewPager creates a pager over a keyword search. maxPages <= 0 means no cap.
func NewPager(client Searcher, query string, pageSize, maxPages int) *Pager {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Pager{
		client:   client,
		query:    query,
		pageSize: pageSize,
		maxPages: maxPages,
	}
}

// Next fetches the next page. It returns ErrNoMorePages when the search is
// exhausted or the page cap was reached; catalogue errors pass through
// unchanged so callers can apply their own retry policy.
func (p *Pager) Next(ctx context.Context) (*TitlePage, error) {
	if p.done {
		return nil, ErrNoMorePages
	}
	if p.maxPages > 0 && p.fetched >= p.maxPages {
		p.done = true
		return nil, ErrNoMorePages
	}

	page, err := p.client.SearchTitles(ctx, p.query, p.offset, p.pageSize)
	if err != nil {
		return nil, err
	}

	out := PageWindow(page, p.pageSize)
	p.fetched++
	p.offset += p.pageSize
	if !page.HasMore {
		p.done = true
	}
	return out, nil
}

// All fetches every remaining page and merges the results.
func (p *Pager) All(ctx context.Context) ([]SearchResult, error) {
	var results []SearchResult
	for {
		page, err := p.Next(ctx)
		if errors.Is(err, ErrNoMorePages) {
			return results, nil
		}
		if err != nil {
			return nil, err
		}
		results = append(results, page.Results...)
	}
}

// Reset restarts the pager from offset zero.
func (p *Pager) Reset() {
	p.offset = 0
	p.fetched = 0
	p.done = false
}

// PageWindow computes the navigation offsets for one fetched page so a
// consumer can render previous/current/next/last links without re-querying.
func PageWindow(page *SearchPage, pageSize int) *TitlePage {
	out := &TitlePage{
		Results:       page.Results,
		TotalRecords:  page.TotalRecords,
		PageSize:      pageSize,
		CurrentOffset: page.Offset,
		HasMore:       page.HasMore,
	}

	out.PreviousOffset = page.Offset - pageSize
	if out.PreviousOffset < 0 {
		out.PreviousOffset = 0
	}
	out.NextOffset = page.Offset
	if page.HasMore {
		out.NextOffset = page.Offset + pageSize
	}
	if page.TotalRecords > 0 {
		out.LastOffset = ((page.TotalRecords - 1) / pageSize) * pageSize
	}
	return out
}
