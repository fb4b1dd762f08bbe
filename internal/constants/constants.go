package constants

import "time"

const (
	ExternalAPITimeout = 60 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 10 * time.Minute
	SideEffectTimeout  = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultRateLimitPerMinute = 30
	RateLimitWindow           = time.Minute
	DefaultProxyMaxRetries    = 3
	DefaultProxyRetryDelay    = 2 * time.Second
)

// historical seasons requested per run, on top of the current season
const (
	FirstRunHistoricalSeasons    = 3
	IncrementalHistoricalSeasons = 0
)

const (
	MaxErrorMessageLength = 1000
	SeasonListLimit       = 50
)
