package models

// Cache durations (in seconds) for different API data types.
const (
	CacheDurationLong  = 300
	CacheDurationShort = 30
	CacheDurationNone  = 0
)

const (
	DefaultSearchRadiusInMeters = 600
	MaxSearchRadiusInMeters     = 10000
)

const (
	DefaultMaxCountForStops  = 100
	DefaultMaxCountForRoutes = 50
	MaxAllowedCount          = 250
)
