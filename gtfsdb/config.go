package gtfsdb

import "tripplanner.org/internal/appconf"

// Config configures the SQLite routes store.
type Config struct {
	DBPath  string
	Env     appconf.Environment
	verbose bool
}

func NewConfig(dbPath string, env appconf.Environment, verbose bool) Config {
	return Config{
		DBPath:  dbPath,
		Env:     env,
		verbose: verbose,
	}
}
