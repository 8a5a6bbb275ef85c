package app

import (
	"context"
	"sync"

	"github.com/tanzil/quran-cli/internal/quran"
)

// SurahPageSize is the fixed page size of the surah listing. Exhaustion is
// inferred by comparing a page's returned count against it.
const SurahPageSize = 10

type CollectionClient interface {
	ListSurahs(ctx context.Context, page int) ([]quran.Surah, error)
}

// Pager loads the surah index one page at a time. Accumulated order is
// arrival order; it does not sort and does not deduplicate across pages, so
// a record repeated by the remote source appears twice.
type Pager struct {
	client CollectionClient

	mu       sync.Mutex
	surahs   []quran.Surah
	nextPage int
	hasMore  bool
	loading  bool
	lastErr  error
}

func NewPager(client CollectionClient) *Pager {
	return &Pager{client: client, nextPage: 1, hasMore: true}
}

// LoadNextPage fetches the next page and appends it to the accumulated
// sequence. Calls while a load is in flight or after exhaustion are no-ops
// returning the current accumulation. A failed load keeps the page counter
// so the next call re-attempts the same page.
func (p *Pager) LoadNextPage(ctx context.Context) ([]quran.Surah, error) {
	p.mu.Lock()
	if p.loading || !p.hasMore {
		surahs := p.snapshotLocked()
		p.mu.Unlock()
		return surahs, nil
	}
	p.loading = true
	page := p.nextPage
	p.mu.Unlock()

	fetched, err := p.client.ListSurahs(ctx, page)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		p.lastErr = err
		return nil, err
	}

	p.lastErr = nil
	p.surahs = append(p.surahs, fetched...)
	p.hasMore = len(fetched) == SurahPageSize
	p.nextPage++
	return p.snapshotLocked(), nil
}

// Surahs returns the accumulated sequence in arrival order.
func (p *Pager) Surahs() []quran.Surah {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// Err returns the error retained from the most recent failed load, or nil.
func (p *Pager) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Pager) snapshotLocked() []quran.Surah {
	return append([]quran.Surah(nil), p.surahs...)
}
