package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func TestEligibleOrigins(t *testing.T) {
	// X reaches D only by riding to Y first; P and Y ride straight to D.
	idx := buildIndex(gridStops("X", "Y", "P", "D", "Q", "W"), tripsFor("R", "feeder", "main", "branch", "away"), rows(
		row{"feeder", "X", "08:00:00", 1},
		row{"feeder", "Y", "08:10:00", 2},
		row{"main", "Y", "08:20:00", 1},
		row{"main", "D", "08:30:00", 2},
		row{"main", "Q", "08:40:00", 3},
		row{"branch", "P", "08:00:00", 1},
		row{"branch", "D", "08:15:00", 2},
		row{"away", "D", "09:00:00", 1},
		row{"away", "W", "09:10:00", 2},
	))

	tests := []struct {
		name        string
		destination string
		want        []string
	}{
		{"direct and transfer predecessors", "D", []string{"Y", "P", "X"}},
		{"stop served after the destination", "Q", []string{"Y", "D", "X", "P"}},
		{"only ever a first stop", "X", []string{}},
		{"unknown stop", "nowhere", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EligibleOrigins(tt.destination, idx)
			assert.ElementsMatch(t, tt.want, keys(got))
		})
	}
}

func TestEligibleOrigins_Metro(t *testing.T) {
	idx := metroIndex(t)
	got := EligibleOrigins("D", idx)
	assert.ElementsMatch(t, []string{"T", "A", "B", "C"}, keys(got))
	assert.NotContains(t, got, "Z")
}

func TestPlanner_EligibleOriginsCached(t *testing.T) {
	idx := metroIndex(t)
	p := New(DefaultOptions(), nil)

	first := p.EligibleOrigins("D", idx)
	second := p.EligibleOrigins("D", idx)
	assert.Equal(t, EligibleOrigins("D", idx), first)
	assert.Equal(t, first, second)
}
