package utils

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const maxIDLength = 255

var validIDRegex = regexp.MustCompile(`^[\p{L}\p{N}\-_.:~ ]+$`)

type validatedIDKey struct{}

// ExtractIDFromParams returns the {id} path value.
func ExtractIDFromParams(r *http.Request) string {
	return r.PathValue("id")
}

// ValidateID rejects empty, oversized, and oddly-charactered ids before they
// reach a lookup.
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id is required")
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("id exceeds %d characters", maxIDLength)
	}
	if !validIDRegex.MatchString(id) {
		return errors.New("id contains invalid characters")
	}
	return nil
}

func WithValidatedID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, validatedIDKey{}, id)
}

func GetValidatedIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(validatedIDKey{}).(string)
	return id, ok
}

// ParseFloatParam reads an optional float query parameter. A missing value is
// 0; a malformed one is recorded in fieldErrors, which is allocated on demand
// and returned.
func ParseFloatParam(params url.Values, key string, fieldErrors map[string][]string) (float64, map[string][]string) {
	raw := strings.TrimSpace(params.Get(key))
	if raw == "" {
		return 0, fieldErrors
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		if fieldErrors == nil {
			fieldErrors = make(map[string][]string)
		}
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("invalid number: %s", raw))
		return 0, fieldErrors
	}
	return v, fieldErrors
}

// ParseMaxCount reads maxCount, defaulting to def and capped at ceiling.
func ParseMaxCount(params url.Values, def, ceiling int, fieldErrors map[string][]string) (int, map[string][]string) {
	raw := strings.TrimSpace(params.Get("maxCount"))
	if raw == "" {
		return def, fieldErrors
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		if fieldErrors == nil {
			fieldErrors = make(map[string][]string)
		}
		fieldErrors["maxCount"] = append(fieldErrors["maxCount"], "must be a positive integer")
		return def, fieldErrors
	}
	return min(n, ceiling), fieldErrors
}

// ValidateCoordinate checks a latitude/longitude pair.
func ValidateCoordinate(lat, lon float64) map[string][]string {
	var fieldErrors map[string][]string
	add := func(key, msg string) {
		if fieldErrors == nil {
			fieldErrors = make(map[string][]string)
		}
		fieldErrors[key] = append(fieldErrors[key], msg)
	}
	if lat < -90 || lat > 90 {
		add("lat", "latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		add("lon", "longitude must be between -180 and 180")
	}
	return fieldErrors
}

// ParseServiceTime accepts "HH:MM", "HH:MM:SS" (hours may pass 23) or a bare
// number of minutes since midnight.
func ParseServiceTime(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty time")
	}
	if !strings.Contains(raw, ":") {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("invalid time %q", raw)
		}
		return v, nil
	}
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	var fields [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || (i > 0 && v > 59) {
			return 0, fmt.Errorf("invalid time %q", raw)
		}
		fields[i] = v
	}
	return float64(fields[0]*60+fields[1]) + float64(fields[2])/60, nil
}
