package storage

// The urls table keeps one row per network location ever fetched.
// netloc is unique so concurrent writers cannot both store the same host.

const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS urls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    datetime TEXT NOT NULL,
    scheme INTEGER NOT NULL CHECK (scheme IN (0, 1)),
    netloc TEXT NOT NULL,
    host TEXT NOT NULL,
    domain TEXT NOT NULL,
    path TEXT NOT NULL,
    pwa INTEGER NOT NULL DEFAULT 0,
    urls_external TEXT NOT NULL DEFAULT '[]'
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_urls_netloc ON urls(netloc);
CREATE INDEX IF NOT EXISTS idx_urls_domain ON urls(domain);
CREATE INDEX IF NOT EXISTS idx_urls_pwa ON urls(pwa) WHERE pwa = 1;
`

const postgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS urls (
    id BIGSERIAL PRIMARY KEY,
    datetime TIMESTAMPTZ NOT NULL,
    scheme SMALLINT NOT NULL CHECK (scheme IN (0, 1)),
    netloc TEXT NOT NULL,
    host TEXT NOT NULL,
    domain TEXT NOT NULL,
    path TEXT NOT NULL,
    pwa BOOLEAN NOT NULL DEFAULT FALSE,
    urls_external TEXT NOT NULL DEFAULT '[]'
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_urls_netloc ON urls(netloc);
CREATE INDEX IF NOT EXISTS idx_urls_domain ON urls(domain);
CREATE INDEX IF NOT EXISTS idx_urls_pwa ON urls(pwa) WHERE pwa;
`

// sqlitePragmas tune the embedded database for a single writer
var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA cache_size = -64000", // 64MB cache
	"PRAGMA temp_store = MEMORY",
	"PRAGMA busy_timeout = 30000",
}
