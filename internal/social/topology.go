// Package social wires agents into a peer network and carries the
// bounded memory of socially observed bits.
package social

import (
	"errors"
	"fmt"
	"math/rand"

	"nkscape/internal/bitstring"
)

// ErrConfiguration reports an infeasible topology or parameter
// combination at construction time.
var ErrConfiguration = errors.New("invalid network configuration")

// Network kinds supported by BuildTopology.
const (
	NetworkRandom = "random"
	NetworkLine   = "line"
	NetworkCycle  = "cycle"
	NetworkRing   = "ring"
	NetworkStar   = "star"
)

// randomDrawAttempts bounds redraws of the constrained adjacency matrix
// before the topology build gives up.
const randomDrawAttempts = 32

// PeerSet is the index-based adjacency table of the agent network:
// Out[i] lists the agents i publishes to, In[i] the agents i receives
// from. No self-loops. Line and star endpoints legitimately carry fewer
// than deg peers; every receive protocol sizes itself by InDegree.
type PeerSet struct {
	Out [][]int
	In  [][]int
}

// InDegree returns how many peers publish to agent id.
func (ps *PeerSet) InDegree(id int) int {
	return len(ps.In[id])
}

// HasEdge reports whether from publishes to to.
func (ps *PeerSet) HasEdge(from, to int) bool {
	for _, peer := range ps.Out[from] {
		if peer == to {
			return true
		}
	}
	return false
}

// BuildTopology constructs the peer network for p agents. Kinds:
//
//   - random: deg-regular digraph drawn as a constrained binary
//     adjacency matrix with zero diagonal
//   - line: path, each agent linked to the deg/2 nearest neighbors on
//     each side, no wrap (endpoints have fewer)
//   - cycle: directed, agent i publishes to the next deg agents
//   - ring: undirected, deg/2 nearest neighbors on each side, wrapping
//   - star: agent 0 is the hub, linked both ways to every other agent
//     (leaves have exactly one peer)
//
// Deterministic per agent count except for the random kind.
func BuildTopology(p, deg int, kind string, rng *rand.Rand) (*PeerSet, error) {
	if p < 2 {
		return nil, fmt.Errorf("%w: need at least 2 agents, have %d", ErrConfiguration, p)
	}
	if kind != NetworkStar {
		if deg < 1 {
			return nil, fmt.Errorf("%w: degree %d", ErrConfiguration, deg)
		}
		if deg >= p {
			return nil, fmt.Errorf("%w: degree %d with %d agents", ErrConfiguration, deg, p)
		}
	}

	switch kind {
	case NetworkRandom:
		return randomTopology(p, deg, rng)
	case NetworkLine:
		return neighborTopology(p, deg, false)
	case NetworkCycle:
		return cycleTopology(p, deg), nil
	case NetworkRing:
		return neighborTopology(p, deg, true)
	case NetworkStar:
		return starTopology(p), nil
	default:
		return nil, fmt.Errorf("%w: unsupported network kind %q", ErrConfiguration, kind)
	}
}

func randomTopology(p, deg int, rng *rand.Rand) (*PeerSet, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random network needs a random source", ErrConfiguration)
	}
	var adjacency []bitstring.Bits
	var err error
	for attempt := 0; attempt < randomDrawAttempts; attempt++ {
		adjacency, err = bitstring.RandomBinaryMatrix(p, deg, 0, rng)
		if err == nil {
			break
		}
		if !errors.Is(err, bitstring.ErrInfeasibleDraw) {
			return nil, err
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: no regular network after %d draws: %v", ErrConfiguration, randomDrawAttempts, err)
	}

	ps := emptyPeerSet(p)
	for i, row := range adjacency {
		for j, b := range row {
			if b == 1 {
				ps.Out[i] = append(ps.Out[i], j)
				ps.In[j] = append(ps.In[j], i)
			}
		}
	}
	return ps, nil
}

func neighborTopology(p, deg int, wrap bool) (*PeerSet, error) {
	if deg%2 != 0 {
		return nil, fmt.Errorf("%w: neighbor networks need an even degree, have %d", ErrConfiguration, deg)
	}
	half := deg / 2
	ps := emptyPeerSet(p)
	for i := 0; i < p; i++ {
		for d := 1; d <= half; d++ {
			if wrap {
				ps.Out[i] = append(ps.Out[i], ((i-d)%p+p)%p)
				ps.Out[i] = append(ps.Out[i], (i+d)%p)
				continue
			}
			if i-d >= 0 {
				ps.Out[i] = append(ps.Out[i], i-d)
			}
			if i+d < p {
				ps.Out[i] = append(ps.Out[i], i+d)
			}
		}
	}
	mirrorIn(ps)
	return ps, nil
}

func cycleTopology(p, deg int) *PeerSet {
	ps := emptyPeerSet(p)
	for i := 0; i < p; i++ {
		for d := 1; d <= deg; d++ {
			to := (i + d) % p
			ps.Out[i] = append(ps.Out[i], to)
			ps.In[to] = append(ps.In[to], i)
		}
	}
	return ps
}

func starTopology(p int) *PeerSet {
	ps := emptyPeerSet(p)
	for i := 1; i < p; i++ {
		ps.Out[0] = append(ps.Out[0], i)
		ps.Out[i] = append(ps.Out[i], 0)
	}
	mirrorIn(ps)
	return ps
}

func emptyPeerSet(p int) *PeerSet {
	return &PeerSet{
		Out: make([][]int, p),
		In:  make([][]int, p),
	}
}

func mirrorIn(ps *PeerSet) {
	for i, outs := range ps.Out {
		for _, to := range outs {
			ps.In[to] = append(ps.In[to], i)
		}
	}
}
