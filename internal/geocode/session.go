package geocode

import (
	"context"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"tripplanner.org/internal/utils"
)

// Session serializes one user's lookups so that only the latest one counts.
// Starting a request cancels the one in flight; a request that finishes after
// being overtaken returns ErrSuperseded and its result is dropped.
type Session struct {
	geocoder Geocoder

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewSession(g Geocoder) *Session {
	return &Session{geocoder: g}
}

func (s *Session) begin(parent context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.seq++
	s.cancel = cancel
	return ctx, s.seq
}

// finish reports whether seq is still the latest request.
func (s *Session) finish(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	s.cancel()
	s.cancel = nil
	return true
}

func latest[T any](s *Session, parent context.Context, call func(context.Context) (T, error)) (T, error) {
	ctx, seq := s.begin(parent)
	result, err := call(ctx)
	if !s.finish(seq) {
		var zero T
		return zero, ErrSuperseded
	}
	return result, err
}

func (s *Session) Search(ctx context.Context, query string, bounds *utils.CoordinateBounds) ([]Suggestion, error) {
	return latest(s, ctx, func(ctx context.Context) ([]Suggestion, error) {
		return s.geocoder.Search(ctx, query, bounds)
	})
}

func (s *Session) Resolve(ctx context.Context, req ResolveRequest) (Place, error) {
	return latest(s, ctx, func(ctx context.Context) (Place, error) {
		return s.geocoder.Resolve(ctx, req)
	})
}

// Sessions hands out a Session per client key, forgetting idle ones.
type Sessions struct {
	geocoder Geocoder
	cache    gcache.Cache
}

func NewSessions(g Geocoder, size int, idle time.Duration) *Sessions {
	return &Sessions{
		geocoder: g,
		cache: gcache.New(size).
			LRU().
			Expiration(idle).
			LoaderFunc(func(any) (any, error) {
				return NewSession(g), nil
			}).
			Build(),
	}
}

// Get returns the session for key. An empty key gets a fresh session that
// is not remembered.
func (s *Sessions) Get(key string) *Session {
	if key == "" {
		return NewSession(s.geocoder)
	}
	v, err := s.cache.Get(key)
	if err != nil {
		return NewSession(s.geocoder)
	}
	return v.(*Session)
}
