package crawler

import (
	"context"
	"errors"
	"sync"
)

// memoryStore implements VisitedStore in memory
type memoryStore struct {
	mu        sync.Mutex
	records   []*CrawlRecord
	threshold int
	failWith  error
	onInsert  func(ctx context.Context)
}

func newMemoryStore(threshold int) *memoryStore {
	return &memoryStore{threshold: threshold}
}

func (m *memoryStore) ExistsByNetloc(ctx context.Context, netloc string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	return m.findLocked(netloc) != nil, nil
}

func (m *memoryStore) ExistsStrict(ctx context.Context, netloc, domain string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if m.findLocked(netloc) != nil {
		return true, nil
	}
	count := 0
	for _, rec := range m.records {
		if rec.Domain == domain {
			count++
		}
	}
	return count > m.threshold, nil
}

func (m *memoryStore) Insert(ctx context.Context, rec *CrawlRecord) (int64, bool, error) {
	if m.onInsert != nil {
		m.onInsert(ctx)
	}
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, false, m.failWith
	}
	if m.findLocked(rec.Netloc) != nil {
		return 0, false, nil
	}
	stored := *rec
	stored.ID = int64(len(m.records) + 1)
	m.records = append(m.records, &stored)
	return stored.ID, true, nil
}

func (m *memoryStore) ListPWAPages(ctx context.Context) ([]PWAPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pages []PWAPage
	for _, rec := range m.records {
		if rec.PWA {
			pages = append(pages, PWAPage{ID: rec.ID, Netloc: rec.Netloc})
		}
	}
	return pages, nil
}

func (m *memoryStore) Get(ctx context.Context, netloc string) (*CrawlRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findLocked(netloc), nil
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *memoryStore) findLocked(netloc string) *CrawlRecord {
	for _, rec := range m.records {
		if rec.Netloc == netloc {
			return rec
		}
	}
	return nil
}

// memoryFrontier implements Frontier as a slice
type memoryFrontier struct {
	mu      sync.Mutex
	items   []string
	popErr  error
	pushErr error
}

func (f *memoryFrontier) PushBatch(ctx context.Context, urls []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.items = append(f.items, urls...)
	return nil
}

func (f *memoryFrontier) Pop(ctx context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.popErr != nil {
		return "", false, f.popErr
	}
	if len(f.items) == 0 {
		return "", false, nil
	}
	head := f.items[0]
	f.items = f.items[1:]
	return head, true, nil
}

func (f *memoryFrontier) Len(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.items)), nil
}

func (f *memoryFrontier) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.items...)
}

// stubFetcher serves canned bodies keyed by URL
type stubFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	calls  []string
	onCall func(ctx context.Context, url string)
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) string {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	hook := s.onCall
	body := s.pages[url]
	s.mu.Unlock()

	if hook != nil {
		hook(ctx, url)
	}
	return body
}

func (s *stubFetcher) called() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

var errStoreDown = errors.New("store unavailable")
