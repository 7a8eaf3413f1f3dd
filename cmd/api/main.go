// Command api serves the trip planner over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"tripplanner.org/internal/appconf"
	"tripplanner.org/internal/gtfs"
	"tripplanner.org/internal/logging"
)

// cliFlags are the command-line overrides. Only flags the user actually
// passed are applied, so they win over the environment and the config file.
type cliFlags struct {
	configFile      string
	dumpConfig      bool
	port            int
	env             string
	apiKeys         string
	exemptApiKeys   string
	rateLimit       int
	verbose         bool
	allowedOrigins  string
	maxAlternatives int
	timezone        string
	geocoder        string
	nominatimURL    string
	gtfsURL         string
	authHeaderName  string
	authHeaderValue string
	dataPath        string
}

func parseFlags(args []string) (*cliFlags, *flag.FlagSet, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.StringVar(&f.configFile, "f", "", "Path to a YAML config file")
	fs.BoolVar(&f.dumpConfig, "dump-config", false, "Print the effective configuration as JSON and exit")
	fs.IntVar(&f.port, "port", 4000, "API server port")
	fs.StringVar(&f.env, "env", "development", "Environment (development|test|production)")
	fs.StringVar(&f.apiKeys, "api-keys", "test", "Comma Separated API Keys (test, etc)")
	fs.StringVar(&f.exemptApiKeys, "exempt-api-keys", "", "Comma Separated API Keys exempt from rate limiting")
	fs.IntVar(&f.rateLimit, "rate-limit", 100, "Requests per second per API key")
	fs.BoolVar(&f.verbose, "verbose", false, "Log at debug level")
	fs.StringVar(&f.allowedOrigins, "allowed-origins", "", "Comma separated origins allowed by CORS")
	fs.IntVar(&f.maxAlternatives, "max-alternatives", 5, "Alternatives returned with each itinerary (0 for all)")
	fs.StringVar(&f.timezone, "timezone", "Local", "Timezone of the feed's service day")
	fs.StringVar(&f.geocoder, "geocoder", "stops", "Geocoder (stops|nominatim)")
	fs.StringVar(&f.nominatimURL, "nominatim-url", "", "Nominatim base URL")
	fs.StringVar(&f.gtfsURL, "gtfs-url", "", "GTFS feed: URL, zip file or directory of .txt tables")
	fs.StringVar(&f.authHeaderName, "gtfs-static-auth-header-name", "", "Optional header name sent with the feed download")
	fs.StringVar(&f.authHeaderValue, "gtfs-static-auth-header-value", "", "Optional header value sent with the feed download")
	fs.StringVar(&f.dataPath, "data-path", "./tripplanner.db", "Routes store SQLite path")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs, nil
}

// buildConfigs layers defaults, the config file, .env files, TRIPPLANNER_*
// variables and finally the explicitly set flags.
func buildConfigs(f *cliFlags, fs *flag.FlagSet) (appconf.Config, gtfs.Config, error) {
	cfg := appconf.Default()
	gtfsCfg := gtfs.Config{GTFSDataPath: f.dataPath}

	if f.configFile != "" {
		fc, err := appconf.LoadFile(f.configFile)
		if err != nil {
			return cfg, gtfsCfg, err
		}
		fc.Apply(&cfg)
		if fc.GTFS.URL != "" {
			gtfsCfg.GtfsURL = fc.GTFS.URL
		}
		gtfsCfg.StaticAuthHeaderKey = fc.GTFS.AuthHeaderName
		gtfsCfg.StaticAuthHeaderValue = fc.GTFS.AuthHeaderValue
		if fc.GTFS.DataPath != "" {
			gtfsCfg.GTFSDataPath = fc.GTFS.DataPath
		}
	}

	appconf.LoadDotEnv(".")
	appconf.ApplyEnv(&cfg)
	if v := os.Getenv("TRIPPLANNER_GTFS_URL"); v != "" {
		gtfsCfg.GtfsURL = v
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "port":
			cfg.Port = f.port
		case "env":
			cfg.Env = appconf.EnvFlagToEnvironment(f.env)
		case "api-keys":
			cfg.ApiKeys = ParseAPIKeys(f.apiKeys)
		case "exempt-api-keys":
			cfg.ExemptApiKeys = ParseAPIKeys(f.exemptApiKeys)
		case "rate-limit":
			cfg.RateLimit = f.rateLimit
		case "verbose":
			cfg.Verbose = f.verbose
		case "allowed-origins":
			cfg.AllowedOrigins = ParseAPIKeys(f.allowedOrigins)
		case "max-alternatives":
			cfg.MaxAlternatives = f.maxAlternatives
		case "timezone":
			cfg.Timezone = f.timezone
		case "geocoder":
			cfg.Geocoder = f.geocoder
		case "nominatim-url":
			cfg.NominatimURL = f.nominatimURL
		case "gtfs-url":
			gtfsCfg.GtfsURL = f.gtfsURL
		case "gtfs-static-auth-header-name":
			gtfsCfg.StaticAuthHeaderKey = f.authHeaderName
		case "gtfs-static-auth-header-value":
			gtfsCfg.StaticAuthHeaderValue = f.authHeaderValue
		case "data-path":
			gtfsCfg.GTFSDataPath = f.dataPath
		}
	})

	gtfsCfg.Env = cfg.Env
	gtfsCfg.Verbose = cfg.Verbose

	if gtfsCfg.GtfsURL == "" {
		return cfg, gtfsCfg, fmt.Errorf("no GTFS feed configured: pass -gtfs-url or set gtfs-static-feed.url")
	}
	if cfg.Geocoder != "stops" && cfg.Geocoder != "nominatim" {
		return cfg, gtfsCfg, fmt.Errorf("unknown geocoder %q", cfg.Geocoder)
	}
	return cfg, gtfsCfg, nil
}

func main() {
	f, fs, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, gtfsCfg, err := buildConfigs(f, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if f.dumpConfig {
		dumpConfigJSON(cfg, gtfsCfg)
		return
	}

	coreApp, err := BuildApplication(cfg, gtfsCfg)
	if err != nil {
		logging.LogError(slog.Default(), "failed to build application", err)
		os.Exit(1)
	}

	srv, api := CreateServer(coreApp, cfg)

	if err := Run(context.Background(), srv, coreApp, api, coreApp.Logger); err != nil {
		logging.LogError(coreApp.Logger, "server error", err)
		os.Exit(1)
	}
}
