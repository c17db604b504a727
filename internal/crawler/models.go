package crawler

import (
	"fmt"
	"time"
)

// Scheme is the stored form of a URL scheme
type Scheme int

const (
	SchemeHTTP  Scheme = 0
	SchemeHTTPS Scheme = 1
)

// ParseScheme maps "http" and "https" to their stored values
func ParseScheme(s string) (Scheme, error) {
	switch s {
	case "http":
		return SchemeHTTP, nil
	case "https":
		return SchemeHTTPS, nil
	default:
		return 0, fmt.Errorf("unsupported scheme %q", s)
	}
}

func (s Scheme) String() string {
	if s == SchemeHTTPS {
		return "https"
	}
	return "http"
}

// CrawlRecord is the single row kept per network location ever fetched
type CrawlRecord struct {
	ID           int64     // Generated by the store
	CrawledAt    time.Time // Local wall-clock time of the crawl
	Scheme       Scheme    // Scheme of the first URL crawled for this netloc
	Netloc       string    // host[:port]
	Host         string    // Label before the first dot of Netloc
	Domain       string    // Everything after the first dot of Netloc
	Path         string    // Path of the first URL crawled for this netloc
	PWA          bool      // Page declares a web app manifest
	ExternalURLs []string  // New links to other netlocs, in document order
}

// PWAPage identifies a stored record whose page declared a manifest
type PWAPage struct {
	ID     int64
	Netloc string
}

// Outcome is the terminal state of one URL passing through the processor
type Outcome int

const (
	OutcomeFilteredOut Outcome = iota // Rejected before any store or network access
	OutcomeDuplicate                  // Netloc seen before or its domain is saturated
	OutcomeFetchFailed                // Transport error, non-2xx status or empty body
	OutcomeProcessed                  // Fetched and extracted
	OutcomeTimedOut                   // Killed by the watchdog
	OutcomeFailed                     // Store error
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFilteredOut:
		return "filtered_out"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeFetchFailed:
		return "fetch_failed"
	case OutcomeProcessed:
		return "processed"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Visit is the side-effect-free result of evaluating one URL.
// Record is only set when Outcome is OutcomeProcessed.
type Visit struct {
	URL     string
	Outcome Outcome
	Record  *CrawlRecord
}

// DrainStats counts outcomes over one drain run
type DrainStats struct {
	Popped      int
	Processed   int
	Duplicates  int
	FilteredOut int
	FetchFailed int
	TimedOut    int
	Failed      int
	StartTime   time.Time
	Duration    time.Duration
}

func (s *DrainStats) record(o Outcome) {
	switch o {
	case OutcomeProcessed:
		s.Processed++
	case OutcomeDuplicate:
		s.Duplicates++
	case OutcomeFilteredOut:
		s.FilteredOut++
	case OutcomeFetchFailed:
		s.FetchFailed++
	case OutcomeTimedOut:
		s.TimedOut++
	case OutcomeFailed:
		s.Failed++
	}
}
