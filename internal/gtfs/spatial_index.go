package gtfs

import (
	"github.com/tidwall/rtree"
	"tripplanner.org/internal/utils"
)

// buildStopSpatialIndex creates an R-tree over every stop with usable
// coordinates. Points are stored with min == max as [lat, lon].
func buildStopSpatialIndex(stops []*Stop) *rtree.RTree {
	tree := &rtree.RTree{}
	for _, stop := range stops {
		if !stop.HasLocation() {
			continue
		}
		point := [2]float64{stop.Lat, stop.Lon}
		tree.Insert(point, point, stop)
	}
	return tree
}

// queryStopsInBounds retrieves all stops within the given geographic bounds from the R-tree
func queryStopsInBounds(tree *rtree.RTree, bounds utils.CoordinateBounds) []*Stop {
	if tree == nil {
		return nil
	}

	var results []*Stop
	tree.Search(
		[2]float64{min(bounds.MinLat, bounds.MaxLat), min(bounds.MinLon, bounds.MaxLon)},
		[2]float64{max(bounds.MinLat, bounds.MaxLat), max(bounds.MinLon, bounds.MaxLon)},
		func(_, _ [2]float64, data interface{}) bool {
			if stop, ok := data.(*Stop); ok {
				results = append(results, stop)
			}
			return true
		},
	)
	return results
}
