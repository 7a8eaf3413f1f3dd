package planner

import (
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/bluele/gcache"
	"tripplanner.org/internal/gtfs"
	"tripplanner.org/internal/logging"
	"tripplanner.org/internal/metrics"
)

// Rider-facing messages.
const (
	MsgSameStop          = "Pick two different stops to build a route."
	MsgNoTrips           = "No trips found between those stops."
	MsgMissingEndpoint   = "Choose both an origin and a destination."
	NoteNoMoreDepartures = "No more departures today. Showing the next available trip."
)

// Request is a single search. NowMinutes is minutes since midnight of the
// current service day in the feed's timezone.
type Request struct {
	Origin      *gtfs.Stop
	Destination *gtfs.Stop
	NowMinutes  float64
	// DestinationCoord is set when the destination came from a geocoded
	// address rather than a chosen stop.
	DestinationCoord *Coordinate
}

type Options struct {
	// ProximityAlighting lets a direct trip that never reaches the
	// destination stop alight at the stop nearest DestinationCoord instead.
	ProximityAlighting bool
	// ProximityRadiusKm bounds that fallback. Zero means no bound.
	ProximityRadiusKm float64
	// MaxAlternatives caps the alternatives list. Zero means no cap.
	MaxAlternatives int
	// CacheSize is the number of searches kept by a Planner. Zero disables
	// caching.
	CacheSize int
	CacheTTL  time.Duration
}

func DefaultOptions() Options {
	return Options{
		ProximityAlighting: true,
		CacheSize:          1024,
		CacheTTL:           time.Hour,
	}
}

// searchOutcome is everything a search finds, sorted, before "now" picks the
// next departure. It only depends on the schedule and the endpoints.
type searchOutcome struct {
	direct    []CandidateTrip
	transfers []TransferPlan
}

// Plan runs one search without caching.
func Plan(req Request, sched Schedule, opts Options) Result {
	if res, ok := rejectRequest(req); ok {
		return res
	}
	return choose(search(sched, req, opts), req.NowMinutes, opts.MaxAlternatives)
}

func rejectRequest(req Request) (Result, bool) {
	if req.Origin == nil || req.Destination == nil {
		return ErrorResult{Message: MsgMissingEndpoint}, true
	}
	if req.Origin.ID == req.Destination.ID {
		return ErrorResult{Message: MsgSameStop}, true
	}
	return nil, false
}

// search runs direct enumeration and, only when that finds nothing, the
// transfer join.
func search(sched Schedule, req Request, opts Options) searchOutcome {
	direct := directCandidates(sched, req, opts)
	if len(direct) > 0 {
		sort.SliceStable(direct, func(i, j int) bool {
			return direct[i].BoardMinutes < direct[j].BoardMinutes
		})
		return searchOutcome{direct: direct}
	}

	plans := transferPlans(sched, req)
	sort.SliceStable(plans, func(i, j int) bool {
		a, b := plans[i], plans[j]
		if a.FirstLeg.BoardMinutes != b.FirstLeg.BoardMinutes {
			return a.FirstLeg.BoardMinutes < b.FirstLeg.BoardMinutes
		}
		return a.TotalMinutes < b.TotalMinutes
	})
	return searchOutcome{transfers: plans}
}

func choose(outcome searchOutcome, now float64, maxAlternatives int) Result {
	switch {
	case len(outcome.direct) > 0:
		next, alternatives, note := pickNext(outcome.direct, now, func(c CandidateTrip) float64 {
			return c.BoardMinutes
		})
		return DirectResult{Next: next, Alternatives: limit(alternatives, maxAlternatives), ServiceNote: note}
	case len(outcome.transfers) > 0:
		next, alternatives, note := pickNext(outcome.transfers, now, func(p TransferPlan) float64 {
			return p.FirstLeg.BoardMinutes
		})
		return TransferResult{Next: next, Alternatives: limit(alternatives, maxAlternatives), ServiceNote: note}
	default:
		return ErrorResult{Message: MsgNoTrips}
	}
}

// pickNext splits sorted (non-empty) into the first departure at or after
// now and the rest of the upcoming ones. When nothing is upcoming it rolls
// over to the earliest departure overall. sorted is never modified.
func pickNext[T any](sorted []T, now float64, boardMinutes func(T) float64) (T, []T, string) {
	var upcoming []T
	for _, item := range sorted {
		if boardMinutes(item) >= now {
			upcoming = append(upcoming, item)
		}
	}
	if len(upcoming) == 0 {
		return sorted[0], slices.Clone(sorted[1:]), NoteNoMoreDepartures
	}
	return upcoming[0], upcoming[1:], ""
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// Planner wraps Plan with a memo of search outcomes and metrics. It is safe
// for concurrent use.
type Planner struct {
	opts    Options
	cache   gcache.Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// searchKey identifies a cached search. The schedule is part of the key so a
// swapped index never serves stale candidates.
type searchKey struct {
	sched    Schedule
	origin   string
	dest     string
	hasCoord bool
	lat, lon float64
}

type eligibleKey struct {
	sched Schedule
	dest  string
}

// New builds a Planner. m may be nil.
func New(opts Options, m *metrics.Metrics) *Planner {
	p := &Planner{
		opts:    opts,
		metrics: m,
		logger:  slog.Default().With(slog.String("component", "planner")),
	}
	if opts.CacheSize > 0 {
		builder := gcache.New(opts.CacheSize).LRU()
		if opts.CacheTTL > 0 {
			builder = builder.Expiration(opts.CacheTTL)
		}
		p.cache = builder.Build()
	}
	return p
}

func (p *Planner) Options() Options {
	return p.opts
}

// Plan answers req against sched. Results for the same endpoints differ only
// by the now-dependent choice, so the sorted candidates are reused.
func (p *Planner) Plan(req Request, sched Schedule) Result {
	start := time.Now()
	res := p.plan(req, sched)
	p.metrics.RecordPlan(res.Kind(), time.Since(start))
	return res
}

func (p *Planner) plan(req Request, sched Schedule) Result {
	if res, ok := rejectRequest(req); ok {
		return res
	}
	if p.cache == nil {
		return choose(search(sched, req, p.opts), req.NowMinutes, p.opts.MaxAlternatives)
	}

	key := searchKey{sched: sched, origin: req.Origin.ID, dest: req.Destination.ID}
	if req.DestinationCoord != nil {
		key.hasCoord = true
		key.lat, key.lon = req.DestinationCoord.Lat, req.DestinationCoord.Lon
	}

	var outcome searchOutcome
	if cached, err := p.cache.Get(key); err == nil {
		outcome = cached.(searchOutcome)
		p.metrics.RecordPlanCache(true)
	} else {
		outcome = search(sched, req, p.opts)
		p.metrics.RecordPlanCache(false)
		if err := p.cache.Set(key, outcome); err != nil {
			logging.LogError(p.logger, "failed to cache search outcome", err)
		}
	}
	return choose(outcome, req.NowMinutes, p.opts.MaxAlternatives)
}

// EligibleOrigins is the cached form of the package-level EligibleOrigins.
// The returned set is shared and must not be modified.
func (p *Planner) EligibleOrigins(destinationID string, sched Schedule) map[string]struct{} {
	if p.cache == nil {
		return EligibleOrigins(destinationID, sched)
	}
	key := eligibleKey{sched: sched, dest: destinationID}
	if cached, err := p.cache.Get(key); err == nil {
		return cached.(map[string]struct{})
	}
	set := EligibleOrigins(destinationID, sched)
	if err := p.cache.Set(key, set); err != nil {
		logging.LogError(p.logger, "failed to cache eligible origins", err)
	}
	return set
}

// Purge drops every cached search. Wire it to the schedule manager so a hot
// swap releases the old index.
func (p *Planner) Purge() {
	if p.cache == nil {
		return
	}
	p.cache.Purge()
	logging.LogOperation(p.logger, "plan_cache_purged")
}
