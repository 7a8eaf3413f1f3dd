package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/tidwall/rtree"
	"tripplanner.org/gtfsdb"
	"tripplanner.org/internal/logging"
	"tripplanner.org/internal/utils"
)

// NoRadiusLimit disables the radius cap in StopsNear.
const NoRadiusLimit = -1

const defaultSearchRadius = 500.0

// Manager owns the current schedule index and swaps it wholesale when the
// feed is refreshed. Readers take a Snapshot and never see a partial update.
type Manager struct {
	index            *Index
	stopSpatialIndex *rtree.RTree
	regionBounds     *RegionBounds
	lastUpdated      time.Time
	isHealthy        bool

	// RoutesDB mirrors routes.txt for the routes list endpoint. May be nil.
	RoutesDB *gtfsdb.Client

	config            Config
	staticUpdateMutex sync.Mutex   // Protects against concurrent ForceUpdate calls
	staticMutex       sync.RWMutex // Protects index, spatial index, bounds and health
	listeners         []func(*Index)
	shutdownChan      chan struct{}
	wg                sync.WaitGroup
	shutdownOnce      sync.Once
}

// StopWithDistance pairs a stop with its distance in metres from a query point.
type StopWithDistance struct {
	Stop     *Stop
	Distance float64
}

// InitGTFSManager loads the configured feed, opens the routes store and, for
// remote feeds, starts the daily refresh.
func InitGTFSManager(config Config) (*Manager, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tables, err := LoadSource(ctx, config.GtfsURL, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		config:       config,
		shutdownChan: make(chan struct{}),
	}

	if config.GTFSDataPath != "" {
		db, err := gtfsdb.NewClient(gtfsdb.NewConfig(config.GTFSDataPath, config.Env, config.Verbose))
		if err != nil {
			return nil, fmt.Errorf("error opening routes store: %w", err)
		}
		manager.RoutesDB = db
	}

	index := BuildIndex(tables)
	if err := manager.syncRoutes(ctx, index); err != nil {
		manager.Shutdown()
		return nil, err
	}
	manager.setIndex(index)

	if config.isRemote() {
		manager.wg.Add(1)
		go manager.updateStaticGTFS()
	}

	return manager, nil
}

// NewManagerFromTables builds a manager around already parsed tables, with no
// background refresh.
func NewManagerFromTables(tables *Tables, routesDB *gtfsdb.Client) (*Manager, error) {
	manager := &Manager{
		RoutesDB:     routesDB,
		shutdownChan: make(chan struct{}),
	}
	index := BuildIndex(tables)
	if err := manager.syncRoutes(context.Background(), index); err != nil {
		return nil, err
	}
	manager.setIndex(index)
	return manager, nil
}

// OnUpdate registers fn to run after every successful index swap.
func (manager *Manager) OnUpdate(fn func(*Index)) {
	manager.staticMutex.Lock()
	defer manager.staticMutex.Unlock()
	manager.listeners = append(manager.listeners, fn)
}

func (manager *Manager) updateStaticGTFS() {
	defer manager.wg.Done()

	logger := slog.Default().With(slog.String("component", "gtfs_static_updater"))

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			err := manager.ForceUpdate(ctx)
			cancel()
			if err != nil {
				logging.LogError(logger, "Error updating GTFS data", err,
					slog.String("source", manager.config.GtfsURL))
			}
		case <-manager.shutdownChan:
			logging.LogOperation(logger, "shutting_down_static_gtfs_updates")
			return
		}
	}
}

// ForceUpdate reloads the feed, builds a fresh index off to the side and
// swaps it in under the write lock. On any failure before the swap the old
// index keeps serving.
func (manager *Manager) ForceUpdate(ctx context.Context) error {
	manager.staticUpdateMutex.Lock()
	defer manager.staticUpdateMutex.Unlock()

	logger := slog.Default().With(slog.String("component", "gtfs_updater"))

	tables, err := LoadSource(ctx, manager.config.GtfsURL, manager.config)
	if err != nil {
		logging.LogError(logger, "Error updating GTFS data", err,
			slog.String("source", manager.config.GtfsURL))
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	index := BuildIndex(tables)
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := manager.syncRoutes(ctx, index); err != nil {
		logging.LogError(logger, "Error syncing routes store", err)
		return err
	}

	manager.setIndex(index)

	logging.LogOperation(logger, "gtfs_static_data_updated_hot_swap",
		slog.String("source", manager.config.GtfsURL),
		slog.Int("stops", len(index.Stops())),
		slog.Int("trips", len(index.Trips())))
	return nil
}

func (manager *Manager) setIndex(index *Index) {
	spatial := buildStopSpatialIndex(index.Stops())
	bounds := ComputeRegionBounds(index.Stops())

	manager.staticMutex.Lock()
	manager.index = index
	manager.stopSpatialIndex = spatial
	manager.regionBounds = bounds
	manager.lastUpdated = time.Now()
	manager.isHealthy = true
	listeners := append([]func(*Index){}, manager.listeners...)
	manager.staticMutex.Unlock()

	for _, fn := range listeners {
		fn(index)
	}
}

func (manager *Manager) syncRoutes(ctx context.Context, index *Index) error {
	if manager.RoutesDB == nil {
		return nil
	}
	routes := make([]gtfsdb.Route, 0, len(index.Routes()))
	for _, r := range index.Routes() {
		routes = append(routes, gtfsdb.Route{ID: r.ID, ShortName: r.ShortName, LongName: r.LongName})
	}
	if _, err := manager.RoutesDB.ReplaceRoutes(ctx, manager.config.GtfsURL, routes); err != nil {
		return fmt.Errorf("error syncing routes store: %w", err)
	}
	return nil
}

// SetGtfsURL changes the source used by the next ForceUpdate.
func (manager *Manager) SetGtfsURL(url string) {
	manager.staticUpdateMutex.Lock()
	defer manager.staticUpdateMutex.Unlock()
	manager.config.GtfsURL = url
}

// Shutdown stops the refresh goroutine and closes the routes store.
func (manager *Manager) Shutdown() {
	manager.shutdownOnce.Do(func() {
		close(manager.shutdownChan)
		manager.wg.Wait()
		if manager.RoutesDB != nil {
			if err := manager.RoutesDB.Close(); err != nil {
				logger := slog.Default().With(slog.String("component", "gtfs_manager"))
				logging.LogError(logger, "failed to close routes store", err)
			}
		}
	})
}

// Snapshot returns the current index. It stays valid after a swap.
func (manager *Manager) Snapshot() *Index {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.index
}

// RegionBounds returns nil when no stop has coordinates.
func (manager *Manager) RegionBounds() *RegionBounds {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.regionBounds
}

func (manager *Manager) LastUpdated() time.Time {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.lastUpdated
}

// StopsNear returns located stops within radius metres, nearest first, at
// most maxCount of them (0 means no cap). A zero radius uses 500 m and
// NoRadiusLimit searches the whole feed.
func (manager *Manager) StopsNear(ctx context.Context, lat, lon, radius float64, maxCount int) []StopWithDistance {
	manager.staticMutex.RLock()
	tree := manager.stopSpatialIndex
	index := manager.index
	manager.staticMutex.RUnlock()

	if radius == 0 {
		radius = defaultSearchRadius
	}

	var stops []*Stop
	if radius == NoRadiusLimit {
		if index != nil {
			stops = index.Stops()
		}
	} else {
		stops = queryStopsInBounds(tree, utils.CalculateBounds(lat, lon, radius))
	}

	if ctx.Err() != nil {
		return nil
	}

	candidates := make([]StopWithDistance, 0, len(stops))
	for _, stop := range stops {
		if !stop.HasLocation() {
			continue
		}
		d := utils.Distance(lat, lon, stop.Lat, stop.Lon)
		if radius != NoRadiusLimit && d > radius {
			continue
		}
		candidates = append(candidates, StopWithDistance{Stop: stop, Distance: d})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if maxCount > 0 && len(candidates) > maxCount {
		candidates = candidates[:maxCount]
	}
	return candidates
}

func (manager *Manager) IsHealthy() bool {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.isHealthy
}

func (manager *Manager) MarkHealthy() {
	manager.staticMutex.Lock()
	defer manager.staticMutex.Unlock()
	manager.isHealthy = true
}

func (manager *Manager) MarkUnhealthy() {
	manager.staticMutex.Lock()
	defer manager.staticMutex.Unlock()
	manager.isHealthy = false
}
