// Package appconf holds the application-level configuration: HTTP port,
// environment, API keys and the planner tunables exposed to operators.
package appconf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment converts a -env flag value to an Environment.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

// Config is the runtime configuration of the HTTP service.
type Config struct {
	Port            int
	Env             Environment
	ApiKeys         []string
	ExemptApiKeys   []string
	RateLimit       int
	Verbose         bool
	AllowedOrigins  []string
	MaxAlternatives int
	Timezone        string

	// Geocoder is "stops" (offline stop-name search) or "nominatim".
	Geocoder          string
	NominatimURL      string
	GeocoderUserAgent string
	// RegionLocalities restricts resolved addresses to these locality names.
	RegionLocalities []string
	// ProximityRadiusKm bounds proximity alighting; 0 leaves it unbounded.
	ProximityRadiusKm float64
}

// FileConfig is the YAML shape of an optional config file. Zero values mean
// "not set" so flags and environment variables can still supply them.
type FileConfig struct {
	Port            int      `yaml:"port" validate:"gte=0,lte=65535"`
	Env             string   `yaml:"env" validate:"omitempty,oneof=development test production prod"`
	ApiKeys         []string `yaml:"api-keys" validate:"dive,required"`
	ExemptApiKeys   []string `yaml:"exempt-api-keys" validate:"dive,required"`
	RateLimit       int      `yaml:"rate-limit" validate:"gte=0"`
	Verbose         bool     `yaml:"verbose"`
	AllowedOrigins  []string `yaml:"allowed-origins" validate:"dive,required"`
	MaxAlternatives int      `yaml:"max-alternatives" validate:"gte=0"`
	Timezone        string   `yaml:"timezone" validate:"omitempty,timezone"`

	Geocoder          string   `yaml:"geocoder" validate:"omitempty,oneof=stops nominatim"`
	NominatimURL      string   `yaml:"nominatim-url" validate:"omitempty,url"`
	GeocoderUserAgent string   `yaml:"geocoder-user-agent"`
	RegionLocalities  []string `yaml:"region-localities" validate:"dive,required"`
	ProximityRadiusKm float64  `yaml:"proximity-radius-km" validate:"gte=0"`

	GTFS GTFSFileConfig `yaml:"gtfs-static-feed"`
}

// GTFSFileConfig describes the static feed block of the config file.
type GTFSFileConfig struct {
	URL             string `yaml:"url" validate:"omitempty"`
	AuthHeaderName  string `yaml:"auth-header-name"`
	AuthHeaderValue string `yaml:"auth-header-value" validate:"required_with=AuthHeaderName"`
	DataPath        string `yaml:"data-path"`
}

// Default returns the configuration used when nothing else is provided.
func Default() Config {
	return Config{
		Port:            4000,
		Env:             Development,
		ApiKeys:         []string{"test"},
		RateLimit:       100,
		AllowedOrigins:  []string{"http://localhost:5173"},
		MaxAlternatives: 5,
		Timezone:        "Local",

		Geocoder:          "stops",
		GeocoderUserAgent: "tripplanner/1.0",
	}
}

// LoadFile reads and validates a YAML config file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := validator.New().Struct(fc); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &fc, nil
}

// Apply overlays the values set in the file onto cfg.
func (fc *FileConfig) Apply(cfg *Config) {
	if fc.Port != 0 {
		cfg.Port = fc.Port
	}
	if fc.Env != "" {
		cfg.Env = EnvFlagToEnvironment(fc.Env)
	}
	if len(fc.ApiKeys) > 0 {
		cfg.ApiKeys = fc.ApiKeys
	}
	if len(fc.ExemptApiKeys) > 0 {
		cfg.ExemptApiKeys = fc.ExemptApiKeys
	}
	if fc.RateLimit != 0 {
		cfg.RateLimit = fc.RateLimit
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
	if len(fc.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.MaxAlternatives != 0 {
		cfg.MaxAlternatives = fc.MaxAlternatives
	}
	if fc.Timezone != "" {
		cfg.Timezone = fc.Timezone
	}
	if fc.Geocoder != "" {
		cfg.Geocoder = fc.Geocoder
	}
	if fc.NominatimURL != "" {
		cfg.NominatimURL = fc.NominatimURL
	}
	if fc.GeocoderUserAgent != "" {
		cfg.GeocoderUserAgent = fc.GeocoderUserAgent
	}
	if len(fc.RegionLocalities) > 0 {
		cfg.RegionLocalities = fc.RegionLocalities
	}
	if fc.ProximityRadiusKm != 0 {
		cfg.ProximityRadiusKm = fc.ProximityRadiusKm
	}
}

// LoadDotEnv loads .env and then .env.local, the latter overriding the
// former. Missing files are not an error.
func LoadDotEnv(dir string) {
	base := strings.TrimSuffix(dir, "/")
	if base == "" {
		base = "."
	}
	_ = godotenv.Load(base + "/.env")
	_ = godotenv.Overload(base + "/.env.local")
}

// ApplyEnv overlays TRIPPLANNER_* environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("TRIPPLANNER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("TRIPPLANNER_ENV"); v != "" {
		cfg.Env = EnvFlagToEnvironment(v)
	}
	if v := os.Getenv("TRIPPLANNER_API_KEYS"); v != "" {
		cfg.ApiKeys = SplitList(v)
	}
	if v := os.Getenv("TRIPPLANNER_RATE_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit = limit
		}
	}
	if v := os.Getenv("TRIPPLANNER_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = SplitList(v)
	}
	if v := os.Getenv("TRIPPLANNER_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("TRIPPLANNER_GEOCODER"); v != "" {
		cfg.Geocoder = v
	}
	if v := os.Getenv("TRIPPLANNER_NOMINATIM_URL"); v != "" {
		cfg.NominatimURL = v
	}
}

// SplitList splits a comma-separated list and trims whitespace from each
// element. Empty elements are dropped.
func SplitList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
