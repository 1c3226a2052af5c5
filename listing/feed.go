// Package listing holds the state behind the post listing: the summaries
// fetched so far and the reference to the next page.
package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/eringen/blogfront/post"
)

var (
	// ErrNoMorePages is returned by LoadMore once the cursor is exhausted.
	ErrNoMorePages = errors.New("listing: no more pages")

	// ErrLoadInFlight is returned when LoadMore is called while a previous
	// call has not completed. No request is issued.
	ErrLoadInFlight = errors.New("listing: load already in flight")

	// ErrStaleResponse is returned when the feed was reset while a load was
	// outstanding. The response is discarded.
	ErrStaleResponse = errors.New("listing: response superseded")
)

// Page is one batch of summaries plus the reference to the batch after it.
// An empty NextPage means there are no more pages.
type Page struct {
	NextPage string         `json:"next_page"`
	Results  []post.Summary `json:"results"`
}

// PageFetcher resolves a next-page reference into the page it names.
type PageFetcher interface {
	FetchPage(ctx context.Context, next string) (Page, error)
}

// LoadResult is the outcome of one LoadMore call. On failure Err is set and
// the feed is unchanged.
type LoadResult struct {
	Appended []post.Summary
	NextPage string
	Err      error
}

// OK reports whether the load succeeded.
func (r LoadResult) OK() bool {
	return r.Err == nil
}

// Fetch runs one load of the page named by next without a feed to hold the
// result. On failure NextPage is still next so the caller can offer a retry.
func Fetch(ctx context.Context, fetcher PageFetcher, next string) LoadResult {
	if next == "" {
		return LoadResult{Err: ErrNoMorePages}
	}
	page, err := fetcher.FetchPage(ctx, next)
	if err != nil {
		return LoadResult{Err: err, NextPage: next}
	}
	return LoadResult{Appended: page.Results, NextPage: page.NextPage}
}

// Feed is the ordered list of summaries shown so far and the cursor to the
// next page. It is safe for concurrent use: at most one LoadMore runs at a
// time and responses for a superseded feed are dropped.
type Feed struct {
	mu       sync.Mutex
	results  []post.Summary
	nextPage string
	inFlight bool
	token    uint64
}

// NewFeed starts a feed at the given first page.
func NewFeed(first Page) *Feed {
	f := &Feed{}
	f.reset(first)
	return f
}

// Reset replaces the feed's contents. Any load still in flight will have
// its response discarded.
func (f *Feed) Reset(first Page) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset(first)
}

func (f *Feed) reset(first Page) {
	f.results = append([]post.Summary(nil), first.Results...)
	f.nextPage = first.NextPage
	f.inFlight = false
	f.token++
}

// Results returns a copy of the summaries loaded so far, in order.
func (f *Feed) Results() []post.Summary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]post.Summary(nil), f.results...)
}

// Len returns the number of summaries loaded so far.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

// NextPage returns the current next-page reference ("" when exhausted).
func (f *Feed) NextPage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nextPage
}

// HasMore reports whether a load-more action is available.
func (f *Feed) HasMore() bool {
	return f.NextPage() != ""
}

// Loading reports whether a LoadMore call is outstanding.
func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

// LoadMore fetches the page named by the cursor and appends its summaries to
// the end of the feed, then advances the cursor. Existing entries are never
// reordered or deduplicated.
func (f *Feed) LoadMore(ctx context.Context, fetcher PageFetcher) LoadResult {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return LoadResult{Err: ErrLoadInFlight}
	}
	if f.nextPage == "" {
		f.mu.Unlock()
		return LoadResult{Err: ErrNoMorePages}
	}
	next, token := f.nextPage, f.token
	f.inFlight = true
	f.mu.Unlock()

	page, err := fetcher.FetchPage(ctx, next)

	f.mu.Lock()
	defer f.mu.Unlock()
	if token != f.token {
		return LoadResult{Err: ErrStaleResponse}
	}
	f.inFlight = false
	if err != nil {
		return LoadResult{Err: err, NextPage: f.nextPage}
	}
	f.results = append(f.results, page.Results...)
	f.nextPage = page.NextPage
	return LoadResult{Appended: page.Results, NextPage: f.nextPage}
}
