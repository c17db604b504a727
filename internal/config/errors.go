package config

import "errors"

var (
	// ErrNoUserAgents is returned when the User-Agent pool is empty
	ErrNoUserAgents = errors.New("user_agents must contain at least one entry")
	// ErrInvalidTimeout is returned when request timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrInvalidWorkerTimeout is returned when worker timeout is not greater than 0
	ErrInvalidWorkerTimeout = errors.New("worker_timeout must be greater than 0")
	// ErrInvalidBodyLimit is returned when max_body_bytes is not greater than 0
	ErrInvalidBodyLimit = errors.New("max_body_bytes must be greater than 0")
	// ErrInvalidThreshold is returned when the domain threshold is negative
	ErrInvalidThreshold = errors.New("domain_threshold cannot be negative")
	// ErrUnsupportedDriver is returned for database drivers other than sqlite and postgres
	ErrUnsupportedDriver = errors.New("database.driver must be 'sqlite' or 'postgres'")
	// ErrEmptyDSN is returned when database DSN is empty
	ErrEmptyDSN = errors.New("database.dsn cannot be empty")
	// ErrEmptyQueueKey is returned when the frontier list name is empty
	ErrEmptyQueueKey = errors.New("redis.queue_key cannot be empty")
	// ErrInvalidTimezone is returned when the timezone cannot be loaded
	ErrInvalidTimezone = errors.New("timezone is not a valid IANA zone name")
)
