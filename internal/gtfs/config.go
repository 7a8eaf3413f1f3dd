package gtfs

import (
	"strings"

	"tripplanner.org/internal/appconf"
)

// Config holds GTFS configuration for the manager.
type Config struct {
	// GtfsURL is a feed zip URL, a local zip path, or a directory of .txt tables.
	GtfsURL               string
	StaticAuthHeaderKey   string
	StaticAuthHeaderValue string
	// GTFSDataPath is the SQLite file backing the routes store. Use ":memory:"
	// in tests.
	GTFSDataPath string
	Env          appconf.Environment
	Verbose      bool
}

func (config Config) isRemote() bool {
	return isRemoteSource(config.GtfsURL)
}

func isRemoteSource(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
