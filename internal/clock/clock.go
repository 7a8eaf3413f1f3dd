// Package clock provides the time source for the planner. Search results depend
// on "now", so the current time is always read through a Clock and converted to
// minutes since the service day's midnight before it reaches the planner.
package clock

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Clock is the source of the current time.
type Clock interface {
	Now() time.Time
	NowUnixMilli() int64
}

// RealClock reads the system time.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}

// MockClock is a settable clock for tests. Safe for concurrent use.
type MockClock struct {
	currentTime time.Time
	mu          sync.Mutex
}

// NewMockClock creates a new MockClock set to the specified time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

func (m *MockClock) NowUnixMilli() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime.UnixMilli()
}

// Set changes the mock clock's current time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = t
}

// Advance moves the clock by d, which may be negative.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

// MinutesSinceMidnight converts t to fractional minutes since local midnight in
// loc, the unit used by the itinerary search. A nil loc means t's own location.
func MinutesSinceMidnight(t time.Time, loc *time.Location) float64 {
	if loc != nil {
		t = t.In(loc)
	}
	return float64(t.Hour()*60+t.Minute()) + float64(t.Second())/60
}

// ServiceMinutes reads c and returns the planner's "now" in loc.
func ServiceMinutes(c Clock, loc *time.Location) float64 {
	return MinutesSinceMidnight(c.Now(), loc)
}

// LoadLocation resolves a feed timezone name. Empty and "Local" map to
// time.Local; unknown names fall back to UTC with an error.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// EnvironmentClock reads a pinned time from an environment variable or a
// file, falling back to system time. Used by the test environment so a whole
// process can be frozen at, say, 07:00 to exercise the planner end to end.
type EnvironmentClock struct {
	envVar   string
	filePath string
	location *time.Location
}

func NewEnvironmentClock(envVar string, filePath string, location *time.Location) *EnvironmentClock {
	return &EnvironmentClock{
		envVar:   envVar,
		filePath: filePath,
		location: location,
	}
}

// Now prefers the environment variable, then the file, then system time.
func (e *EnvironmentClock) Now() time.Time {
	if t, err := e.pinned(); err == nil {
		return t
	}
	slog.Warn("environment clock not pinned, using system time",
		slog.String("envVar", e.envVar), slog.String("filePath", e.filePath))
	return time.Now()
}

func (e *EnvironmentClock) NowUnixMilli() int64 {
	return e.Now().UnixMilli()
}

func (e *EnvironmentClock) pinned() (time.Time, error) {
	if e.envVar != "" {
		if raw := os.Getenv(e.envVar); raw != "" {
			if t, err := e.parseTime(raw); err == nil {
				return t, nil
			}
		}
	}
	if e.filePath == "" {
		return time.Time{}, errors.New("no pinned time source configured")
	}
	data, err := os.ReadFile(e.filePath)
	if err != nil {
		return time.Time{}, err
	}
	return e.parseTime(string(data))
}

// parseTime accepts RFC3339, or a zone-less layout interpreted in e.location.
func (e *EnvironmentClock) parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if e.location == nil {
		return time.Time{}, errors.New("timezone not configured")
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, e.location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse time %q: expected RFC3339, YYYY-MM-DD HH:MM:SS, YYYY-MM-DDTHH:MM:SS or YYYY-MM-DD", s)
}
