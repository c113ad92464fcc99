package social

import (
	"errors"
	"math/rand"
	"testing"
)

func TestRandomTopologyIsRegularWithoutSelfLoops(t *testing.T) {
	rng := rand.New(rand.NewSource(19))
	ps, err := BuildTopology(6, 2, NetworkRandom, rng)
	if err != nil {
		t.Fatalf("random topology: %v", err)
	}
	for i := range ps.Out {
		if len(ps.Out[i]) != 2 {
			t.Fatalf("agent %d out-degree %d, want 2", i, len(ps.Out[i]))
		}
		if ps.InDegree(i) != 2 {
			t.Fatalf("agent %d in-degree %d, want 2", i, ps.InDegree(i))
		}
		for _, peer := range ps.Out[i] {
			if peer == i {
				t.Fatalf("agent %d has a self-loop", i)
			}
		}
	}
}

func TestRingTopologyNeighbors(t *testing.T) {
	ps, err := BuildTopology(5, 2, NetworkRing, nil)
	if err != nil {
		t.Fatalf("ring topology: %v", err)
	}
	for i := 0; i < 5; i++ {
		if len(ps.Out[i]) != 2 || ps.InDegree(i) != 2 {
			t.Fatalf("agent %d degree out=%d in=%d, want 2/2", i, len(ps.Out[i]), ps.InDegree(i))
		}
		left := ((i-1)%5 + 5) % 5
		right := (i + 1) % 5
		if !ps.HasEdge(i, left) || !ps.HasEdge(i, right) {
			t.Fatalf("agent %d peers %v, want {%d,%d}", i, ps.Out[i], left, right)
		}
	}
}

func TestLineTopologyEndpoints(t *testing.T) {
	ps, err := BuildTopology(4, 2, NetworkLine, nil)
	if err != nil {
		t.Fatalf("line topology: %v", err)
	}
	if len(ps.Out[0]) != 1 || len(ps.Out[3]) != 1 {
		t.Fatalf("endpoints out=%v/%v, want single peers", ps.Out[0], ps.Out[3])
	}
	if len(ps.Out[1]) != 2 || len(ps.Out[2]) != 2 {
		t.Fatalf("interior out=%v/%v, want two peers", ps.Out[1], ps.Out[2])
	}
	if ps.InDegree(0) != 1 || ps.InDegree(1) != 2 {
		t.Fatalf("in-degrees %d/%d, want 1/2", ps.InDegree(0), ps.InDegree(1))
	}
}

func TestCycleTopologyIsDirected(t *testing.T) {
	ps, err := BuildTopology(4, 1, NetworkCycle, nil)
	if err != nil {
		t.Fatalf("cycle topology: %v", err)
	}
	for i := 0; i < 4; i++ {
		next := (i + 1) % 4
		if !ps.HasEdge(i, next) {
			t.Fatalf("agent %d does not publish to %d", i, next)
		}
		if ps.HasEdge(next, i) {
			t.Fatalf("cycle is not directed: %d publishes back to %d", next, i)
		}
	}
}

func TestStarTopologyHubAndLeaves(t *testing.T) {
	ps, err := BuildTopology(5, 2, NetworkStar, nil)
	if err != nil {
		t.Fatalf("star topology: %v", err)
	}
	if len(ps.Out[0]) != 4 || ps.InDegree(0) != 4 {
		t.Fatalf("hub degree out=%d in=%d, want 4/4", len(ps.Out[0]), ps.InDegree(0))
	}
	for i := 1; i < 5; i++ {
		if len(ps.Out[i]) != 1 || ps.Out[i][0] != 0 {
			t.Fatalf("leaf %d peers %v, want {0}", i, ps.Out[i])
		}
		if ps.InDegree(i) != 1 {
			t.Fatalf("leaf %d in-degree %d, want 1", i, ps.InDegree(i))
		}
	}
}

func TestTopologyInfeasibleCombinations(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cases := []struct {
		p, deg int
		kind   string
	}{
		{1, 1, NetworkRing},
		{4, 4, NetworkRandom},
		{4, 0, NetworkCycle},
		{5, 3, NetworkRing},
		{5, 3, NetworkLine},
		{4, 2, "mesh"},
	}
	for _, tc := range cases {
		if _, err := BuildTopology(tc.p, tc.deg, tc.kind, rng); !errors.Is(err, ErrConfiguration) {
			t.Errorf("p=%d deg=%d kind=%q: expected ErrConfiguration, got %v", tc.p, tc.deg, tc.kind, err)
		}
	}
}
