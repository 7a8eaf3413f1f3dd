package gtfs

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseClock converts a GTFS "HH:MM:SS" time to fractional minutes since the
// service day's midnight. Hours may exceed 23. Malformed input yields NaN so
// every comparison against it is false.
func ParseClock(s string) float64 {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return math.NaN()
	}
	var fields [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return math.NaN()
		}
		fields[i] = v
	}
	return float64(fields[0]*60+fields[1]) + float64(fields[2])/60
}

// FormatClock renders minutes since midnight as "HH:MM" for display. Hours
// wrap into 0-23; comparisons never go through this.
func FormatClock(minutes float64) string {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return "--:--"
	}
	total := int(math.Round(minutes))
	h := total / 60
	m := total % 60
	if m < 0 {
		m += 60
		h--
	}
	h = ((h % 24) + 24) % 24
	return fmt.Sprintf("%02d:%02d", h, m)
}

// DisplayClock wraps the hour of a raw "HH:MM:SS" value, so "25:10:00"
// becomes "01:10:00". Malformed input is returned unchanged.
func DisplayClock(s string) string {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return s
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return s
	}
	h = ((h % 24) + 24) % 24
	return fmt.Sprintf("%02d:%s:%s", h, parts[1], parts[2])
}

// MinutesToDuration converts fractional minutes to a time.Duration.
func MinutesToDuration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute))
}

// durationToClock renders an offset from service-day midnight as "HH:MM:SS"
// without wrapping, the inverse of ParseClock.
func durationToClock(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
