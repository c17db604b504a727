// Package storage persists crawl records in a relational database.
// SQLite is the default backend; PostgreSQL is available for shared deployments.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// PostgreSQL driver
	_ "github.com/lib/pq"
	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"

	"github.com/masahif/pwascout/internal/config"
	"github.com/masahif/pwascout/internal/crawler"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"

	// DefaultMaxOpenConns applies to postgres only; sqlite uses one connection
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is the idle pool size for postgres
	DefaultMaxIdleConns = 2
	// DefaultConnMaxLifetime bounds how long a pooled connection lives
	DefaultConnMaxLifetime = 30 * time.Minute
	// DefaultPingTimeout bounds the connectivity check made by Open
	DefaultPingTimeout = 5 * time.Second
)

const urlColumns = `id, datetime, scheme, netloc, host, domain, path, pwa, urls_external`

// Store implements crawler.VisitedStore on top of sqlx
type Store struct {
	db        *sqlx.DB
	threshold int
}

var _ crawler.VisitedStore = (*Store)(nil)

// Open connects to the configured database and creates the schema.
// threshold is the number of stored hosts a domain may have before every
// further host on it counts as already seen.
func Open(ctx context.Context, cfg config.DatabaseConfig, threshold int) (*Store, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Driver {
	case driverSQLite:
		db, err = sqlx.Open(driverSQLite, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// Single connection prevents lock conflicts
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case driverPostgres:
		db, err = sqlx.Open(driverPostgres, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		db.SetMaxOpenConns(DefaultMaxOpenConns)
		db.SetMaxIdleConns(DefaultMaxIdleConns)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnsupportedDriver, cfg.Driver)
	}
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := New(db, threshold)
	if err := store.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// New wraps an existing connection without touching the schema
func New(db *sqlx.DB, threshold int) *Store {
	return &Store{db: db, threshold: threshold}
}

// InitSchema creates the urls table and its indexes if missing
func (s *Store) InitSchema(ctx context.Context) error {
	schema := postgresSchemaSQL
	if s.db.DriverName() == driverSQLite {
		schema = sqliteSchemaSQL
		for _, pragma := range sqlitePragmas {
			if _, err := s.db.ExecContext(ctx, pragma); err != nil {
				return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
			}
		}
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// ExistsByNetloc reports whether netloc has been stored
func (s *Store) ExistsByNetloc(ctx context.Context, netloc string) (bool, error) {
	var n int
	query := s.db.Rebind(`SELECT COUNT(*) FROM urls WHERE netloc = ?`)
	if err := s.db.GetContext(ctx, &n, query, netloc); err != nil {
		return false, fmt.Errorf("failed to look up netloc: %w", err)
	}
	return n > 0, nil
}

// ExistsStrict reports whether netloc has been stored or domain already
// holds more than threshold records. Both reads share one transaction.
func (s *Store) ExistsStrict(ctx context.Context, netloc, domain string) (found bool, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	var n int
	if err = tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM urls WHERE netloc = ?`), netloc); err != nil {
		return false, fmt.Errorf("failed to look up netloc: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	if err = tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM urls WHERE domain = ?`), domain); err != nil {
		return false, fmt.Errorf("failed to count domain: %w", err)
	}
	return n > s.threshold, nil
}

// Insert stores rec unless a record for its netloc already exists.
// The existence check and the insert run in one transaction, and the unique
// netloc index turns a lost race into a skipped insert.
func (s *Store) Insert(ctx context.Context, rec *crawler.CrawlRecord) (id int64, inserted bool, err error) {
	external, err := encodeExternal(rec.ExternalURLs)
	if err != nil {
		return 0, false, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	var n int
	if err = tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM urls WHERE netloc = ?`), rec.Netloc); err != nil {
		return 0, false, fmt.Errorf("failed to look up netloc: %w", err)
	}
	if n > 0 {
		return 0, false, nil
	}

	query := tx.Rebind(`
		INSERT INTO urls (datetime, scheme, netloc, host, domain, path, pwa, urls_external)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (netloc) DO NOTHING
		RETURNING id
	`)

	err = tx.QueryRowxContext(ctx, query,
		rec.CrawledAt.Format(time.RFC3339Nano),
		int(rec.Scheme),
		rec.Netloc,
		rec.Host,
		rec.Domain,
		rec.Path,
		rec.PWA,
		external,
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert %s: %w", rec.Netloc, err)
	}

	return id, true, nil
}

type pwaRow struct {
	ID     int64  `db:"id"`
	Netloc string `db:"netloc"`
}

// ListPWAPages returns the flagged records in insertion order
func (s *Store) ListPWAPages(ctx context.Context) ([]crawler.PWAPage, error) {
	var rows []pwaRow
	query := s.db.Rebind(`SELECT id, netloc FROM urls WHERE pwa = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &rows, query, true); err != nil {
		return nil, fmt.Errorf("failed to list PWA pages: %w", err)
	}

	pages := make([]crawler.PWAPage, 0, len(rows))
	for _, row := range rows {
		pages = append(pages, crawler.PWAPage{ID: row.ID, Netloc: row.Netloc})
	}
	return pages, nil
}

type urlRow struct {
	ID           int64     `db:"id"`
	CrawledAt    timestamp `db:"datetime"`
	Scheme       int       `db:"scheme"`
	Netloc       string    `db:"netloc"`
	Host         string    `db:"host"`
	Domain       string    `db:"domain"`
	Path         string    `db:"path"`
	PWA          bool      `db:"pwa"`
	ExternalURLs string    `db:"urls_external"`
}

// Get returns the record stored for netloc, or nil when there is none
func (s *Store) Get(ctx context.Context, netloc string) (*crawler.CrawlRecord, error) {
	var row urlRow
	query := s.db.Rebind(`SELECT ` + urlColumns + ` FROM urls WHERE netloc = ?`)
	err := s.db.GetContext(ctx, &row, query, netloc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", netloc, err)
	}

	external, err := decodeExternal(row.ExternalURLs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode urls_external for %s: %w", netloc, err)
	}

	return &crawler.CrawlRecord{
		ID:           row.ID,
		CrawledAt:    time.Time(row.CrawledAt),
		Scheme:       crawler.Scheme(row.Scheme),
		Netloc:       row.Netloc,
		Host:         row.Host,
		Domain:       row.Domain,
		Path:         row.Path,
		PWA:          row.PWA,
		ExternalURLs: external,
	}, nil
}

func encodeExternal(urls []string) (string, error) {
	if urls == nil {
		urls = []string{}
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return "", fmt.Errorf("failed to marshal external URLs: %w", err)
	}
	return string(data), nil
}

func decodeExternal(data string) ([]string, error) {
	urls := []string{}
	if data == "" {
		return urls, nil
	}
	if err := json.Unmarshal([]byte(data), &urls); err != nil {
		return nil, err
	}
	return urls, nil
}
