package crawler

import "context"

// VisitedStore persists crawl records and answers dedup queries
type VisitedStore interface {
	// ExistsByNetloc reports whether a record for netloc exists
	ExistsByNetloc(ctx context.Context, netloc string) (bool, error)
	// ExistsStrict reports whether netloc exists or domain has more records
	// than the configured threshold
	ExistsStrict(ctx context.Context, netloc, domain string) (bool, error)
	// Insert stores rec unless its netloc is already present.
	// inserted is false when the insert was skipped.
	Insert(ctx context.Context, rec *CrawlRecord) (id int64, inserted bool, err error)
	// ListPWAPages returns every record flagged as a PWA
	ListPWAPages(ctx context.Context) ([]PWAPage, error)
	// Get returns the record for netloc, or nil when none exists
	Get(ctx context.Context, netloc string) (*CrawlRecord, error)
	Close() error
}

// Frontier is the FIFO queue of pending URLs
type Frontier interface {
	// PushBatch appends urls in order
	PushBatch(ctx context.Context, urls []string) error
	// Pop removes the oldest URL; ok is false when the queue is empty
	Pop(ctx context.Context) (url string, ok bool, err error)
	// Len returns the number of pending URLs
	Len(ctx context.Context) (int64, error)
}

// Fetcher retrieves page text. Every failure yields an empty string.
type Fetcher interface {
	Fetch(ctx context.Context, url string) string
}
