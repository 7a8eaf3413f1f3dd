package planner

// EligibleOrigins returns every stop from which destinationID can be reached
// with at most one transfer: the stops that precede it on some trip, plus the
// stops that precede any of those. The result is empty when the destination
// is never served after a trip's first stop.
func EligibleOrigins(destinationID string, sched Schedule) map[string]struct{} {
	direct := make(map[string]struct{})
	for _, trip := range sched.Trips() {
		sts := sched.StopTimesByTrip(trip.ID)
		last := lastIndexOfStop(sts, destinationID)
		for j := 0; j < last; j++ {
			direct[sts[j].StopID] = struct{}{}
		}
	}
	if len(direct) == 0 {
		return direct
	}

	eligible := make(map[string]struct{}, len(direct))
	for id := range direct {
		eligible[id] = struct{}{}
	}
	for _, trip := range sched.Trips() {
		sts := sched.StopTimesByTrip(trip.ID)
		// Everything before the last direct-reachable stop of the trip
		// can ride to it.
		last := -1
		for i := range sts {
			if _, ok := direct[sts[i].StopID]; ok {
				last = i
			}
		}
		for j := 0; j < last; j++ {
			eligible[sts[j].StopID] = struct{}{}
		}
	}
	return eligible
}
