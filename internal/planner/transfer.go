package planner

// transferPlans pairs every first leg leaving the origin with every second leg
// reaching the destination from the first leg's alighting stop. Second legs
// are bucketed by boarding stop up front so the join is a map lookup.
func transferPlans(sched Schedule, req Request) []TransferPlan {
	leg2ByStop := make(map[string][]CandidateTrip)
	for _, trip := range sched.Trips() {
		sts := sched.StopTimesByTrip(trip.ID)
		// Each boarding stop rides to the next visit of the destination after
		// it, so a trip that starts or loops at the destination still feeds
		// the stops between its visits.
		nextDest := make([]int, len(sts))
		next := -1
		for i := len(sts) - 1; i >= 0; i-- {
			nextDest[i] = next
			if sts[i].StopID == req.Destination.ID {
				next = i
			}
		}
		for i, alight := range nextDest {
			if alight < 0 || sts[i].StopID == req.Destination.ID {
				continue
			}
			leg, ok := newLeg(sched, trip, sts, i, alight)
			if !ok {
				continue
			}
			leg2ByStop[sts[i].StopID] = append(leg2ByStop[sts[i].StopID], leg)
		}
	}
	if len(leg2ByStop) == 0 {
		return nil
	}

	var plans []TransferPlan
	for _, trip := range sched.Trips() {
		sts := sched.StopTimesByTrip(trip.ID)
		originIndex := indexOfStop(sts, req.Origin.ID, 0)
		if originIndex < 0 || originIndex == len(sts)-1 {
			continue
		}
		for i := originIndex + 1; i < len(sts); i++ {
			seconds := leg2ByStop[sts[i].StopID]
			if len(seconds) == 0 {
				continue
			}
			leg1, ok := newLeg(sched, trip, sts, originIndex, i)
			if !ok {
				continue
			}
			for _, leg2 := range seconds {
				layover := leg2.BoardMinutes - leg1.AlightMinutes
				total := leg2.AlightMinutes - leg1.BoardMinutes
				// NaN fails both comparisons too.
				if !(layover >= 0) || !(total >= 0) {
					continue
				}
				plans = append(plans, TransferPlan{
					FirstLeg:       leg1,
					SecondLeg:      leg2,
					TransferStop:   leg1.AlightStop,
					LayoverMinutes: layover,
					TotalMinutes:   total,
				})
			}
		}
	}
	return plans
}
