package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"tripplanner.org/internal/logging"
	"tripplanner.org/internal/metrics"
	"tripplanner.org/internal/utils"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	defaultSearchLimit  = 8
	maxResponseSize     = 2 * 1024 * 1024
)

// NominatimConfig configures NominatimClient. The public instance allows one
// request per second and requires an identifying user agent.
type NominatimConfig struct {
	BaseURL           string
	UserAgent         string
	Email             string
	RequestsPerSecond float64
	Limit             int
	Timeout           time.Duration
}

// NominatimClient is a Geocoder backed by an OpenStreetMap Nominatim server.
type NominatimClient struct {
	config  NominatimConfig
	client  *http.Client
	limiter *rate.Limiter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewNominatimClient creates a client. m may be nil.
func NewNominatimClient(config NominatimConfig, m *metrics.Metrics) *NominatimClient {
	if config.BaseURL == "" {
		config.BaseURL = DefaultNominatimURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 1
	}
	if config.Limit <= 0 {
		config.Limit = defaultSearchLimit
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &NominatimClient{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		metrics: m,
		logger:  slog.Default().With(slog.String("component", "nominatim")),
	}
}

type nominatimPlace struct {
	PlaceID     int64             `json:"place_id"`
	OsmType     string            `json:"osm_type"`
	OsmID       int64             `json:"osm_id"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// Address keys from most to least specific.
var localityKeys = []string{"neighbourhood", "suburb", "city_district", "village", "town", "city", "municipality", "county", "state"}

func (p nominatimPlace) coordinate() (Coordinate, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("bad latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("bad longitude %q: %w", p.Lon, err)
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}

// placeID is the osm_ids form accepted by /lookup, e.g. "W1234".
func (p nominatimPlace) placeID() string {
	if p.OsmType == "" {
		return ""
	}
	return strings.ToUpper(p.OsmType[:1]) + strconv.FormatInt(p.OsmID, 10)
}

func (p nominatimPlace) place() (Place, error) {
	coord, err := p.coordinate()
	if err != nil {
		return Place{}, err
	}
	var components []string
	for _, key := range localityKeys {
		if v := p.Address[key]; v != "" {
			components = append(components, v)
		}
	}
	return Place{FormattedAddress: p.DisplayName, Coordinate: coord, Components: components}, nil
}

func (c *NominatimClient) Search(ctx context.Context, query string, bounds *utils.CoordinateBounds) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(c.config.Limit))
	if bounds != nil {
		params.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", bounds.MinLon, bounds.MaxLat, bounds.MaxLon, bounds.MinLat))
		params.Set("bounded", "1")
	}

	var places []nominatimPlace
	if err := c.get(ctx, "/search", params, &places); err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(places))
	for _, p := range places {
		coord, err := p.coordinate()
		if err != nil {
			logging.LogWarning(c.logger, "skipping nominatim result", slog.String("error", err.Error()))
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Description: p.DisplayName,
			Coordinate:  coord,
			PlaceID:     p.placeID(),
		})
	}
	return suggestions, nil
}

func (c *NominatimClient) Resolve(ctx context.Context, req ResolveRequest) (Place, error) {
	params := url.Values{}
	var endpoint string
	switch {
	case req.PlaceID != "":
		endpoint = "/lookup"
		params.Set("osm_ids", req.PlaceID)
	case req.Coord != nil:
		endpoint = "/reverse"
		params.Set("lat", strconv.FormatFloat(req.Coord.Lat, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(req.Coord.Lon, 'f', -1, 64))
	default:
		return Place{}, ErrEmptyQuery
	}

	var p nominatimPlace
	if endpoint == "/lookup" {
		var places []nominatimPlace
		if err := c.get(ctx, endpoint, params, &places); err != nil {
			return Place{}, err
		}
		if len(places) == 0 {
			return Place{}, ErrNotFound
		}
		p = places[0]
	} else {
		if err := c.get(ctx, endpoint, params, &p); err != nil {
			return Place{}, err
		}
		if p.Error != "" {
			return Place{}, fmt.Errorf("%w: %s", ErrNotFound, p.Error)
		}
	}
	return p.place()
}

func (c *NominatimClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	if c.config.Email != "" {
		params.Set("email", c.config.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("error creating geocode request: %w", err)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordGeocode("nominatim", "error")
		return fmt.Errorf("error calling geocoder: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "http_response_body")

	if resp.StatusCode != http.StatusOK {
		c.metrics.RecordGeocode("nominatim", strconv.Itoa(resp.StatusCode))
		return fmt.Errorf("geocoder returned HTTP status %s", resp.Status)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		c.metrics.RecordGeocode("nominatim", "decode_error")
		return fmt.Errorf("error decoding geocoder response: %w", err)
	}
	c.metrics.RecordGeocode("nominatim", "ok")
	return nil
}
