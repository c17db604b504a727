package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/masahif/pwascout/internal/config"
	"github.com/masahif/pwascout/internal/parser"
	"github.com/masahif/pwascout/internal/urlfilter"
)

// PageProcessor takes a single URL from filtering through to persistence.
//
// Work is split in two phases. Evaluate reads the visited store and the
// network but writes nothing; Commit performs the writes. A caller that
// abandons an evaluation therefore leaves no trace in either store.
type PageProcessor struct {
	visited   VisitedStore
	frontier  Frontier
	fetcher   Fetcher
	skipWords []string
	location  *time.Location
	now       func() time.Time
	logger    *slog.Logger
	metrics   *Metrics
}

// NewPageProcessor wires a processor from its collaborators
func NewPageProcessor(
	cfg *config.Config,
	visited VisitedStore,
	frontier Frontier,
	fetcher Fetcher,
	logger *slog.Logger,
	metrics *Metrics,
) (*PageProcessor, error) {
	location, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PageProcessor{
		visited:   visited,
		frontier:  frontier,
		fetcher:   fetcher,
		skipWords: append([]string(nil), cfg.SkipWords...),
		location:  location,
		now:       time.Now,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// Process evaluates rawURL and commits the result
func (p *PageProcessor) Process(ctx context.Context, rawURL string) (*Visit, error) {
	visit, err := p.Evaluate(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if err := p.Commit(ctx, visit); err != nil {
		return nil, err
	}
	return visit, nil
}

// Evaluate decides what should happen to rawURL without writing anything.
// Only visited store failures and context cancellation are returned as errors.
func (p *PageProcessor) Evaluate(ctx context.Context, rawURL string) (*Visit, error) {
	visit := &Visit{URL: rawURL, Outcome: OutcomeFilteredOut}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return visit, nil
	}

	scheme, err := ParseScheme(u.Scheme)
	if err != nil {
		p.logger.Info("Skipping URL with unsupported scheme", "url", rawURL, "scheme", u.Scheme)
		return visit, nil
	}

	if urlfilter.ContainsSkipWord(rawURL, p.skipWords) {
		return visit, nil
	}

	if urlfilter.HasFileExtension(u.Path) {
		return visit, nil
	}

	host, domain := urlfilter.SplitHost(u.Host)
	seen, err := p.visited.ExistsStrict(ctx, u.Host, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", u.Host, err)
	}
	if seen {
		visit.Outcome = OutcomeDuplicate
		return visit, nil
	}

	body := p.fetcher.Fetch(ctx, rawURL)
	if body == "" {
		visit.Outcome = OutcomeFetchFailed
		return visit, nil
	}

	page, err := parser.Extract(body)
	if err != nil {
		p.logger.Info("Failed to parse page", "url", rawURL, "error", err)
		visit.Outcome = OutcomeFetchFailed
		return visit, nil
	}

	external, err := p.newExternalLinks(ctx, page.Hrefs, u)
	if err != nil {
		return nil, err
	}

	visit.Outcome = OutcomeProcessed
	visit.Record = &CrawlRecord{
		CrawledAt:    p.now().In(p.location),
		Scheme:       scheme,
		Netloc:       u.Host,
		Host:         host,
		Domain:       domain,
		Path:         u.Path,
		PWA:          page.PWA,
		ExternalURLs: external,
	}

	p.logger.Debug("Evaluated page", "url", rawURL, "hrefs", len(page.Hrefs), "external", len(external), "pwa", page.PWA)
	return visit, nil
}

// newExternalLinks resolves hrefs against base and keeps, in order, the ones
// pointing at another netloc that pass the URL filter and have not been seen.
func (p *PageProcessor) newExternalLinks(ctx context.Context, hrefs []string, base *url.URL) ([]string, error) {
	external := []string{}

	for _, href := range hrefs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		link, ok := urlfilter.ResolveRelative(href, base.Scheme, base.Host)
		if !ok {
			continue
		}

		parsed, err := url.Parse(link)
		if err != nil || parsed.Host == base.Host {
			continue
		}

		if _, ok := urlfilter.Filter(link); !ok {
			continue
		}

		_, domain := urlfilter.SplitHost(parsed.Host)
		seen, err := p.visited.ExistsStrict(ctx, parsed.Host, domain)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s: %w", parsed.Host, err)
		}
		if seen {
			continue
		}

		external = append(external, link)
	}

	return external, nil
}

// Commit persists the record of a processed visit and enqueues its external
// links. Visits with any other outcome are ignored.
func (p *PageProcessor) Commit(ctx context.Context, visit *Visit) error {
	if visit == nil || visit.Outcome != OutcomeProcessed || visit.Record == nil {
		return nil
	}
	rec := visit.Record

	id, inserted, err := p.visited.Insert(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", rec.Netloc, err)
	}

	if inserted {
		rec.ID = id
		if rec.PWA {
			p.logger.Info("PWA detected", "pwa", true, "url", visit.URL, "id", id)
			p.metrics.observePWA()
		}
	}

	if len(rec.ExternalURLs) > 0 {
		if err := p.frontier.PushBatch(ctx, rec.ExternalURLs); err != nil {
			return fmt.Errorf("failed to enqueue links from %s: %w", rec.Netloc, err)
		}
		p.metrics.observePushed(len(rec.ExternalURLs))
	}

	return nil
}
