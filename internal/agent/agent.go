// Package agent implements the per-agent decision unit: observing the
// shared configuration, screening one-bit alternatives, and the
// publish/receive protocol that feeds social memory.
package agent

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"nkscape/internal/bitstring"
	"nkscape/internal/landscape"
	"nkscape/internal/social"
)

// ErrProtocolViolation reports an unexpected social message: unknown or
// duplicate sender, wrong width, or more messages than incoming peers
// in one round. Violations always surface; nothing is dropped silently.
var ErrProtocolViolation = errors.New("social protocol violation")

// Config carries the per-agent run parameters, fixed at construction.
type Config struct {
	N    int     // bits per agent
	P    int     // number of agents
	Nsoc int     // shared (social) bits per agent
	Tm   int     // social memory depth
	W    float64 // utility weight: incentive vs conformity
	WF   float64 // incentive weight: own vs peers' performance
}

// Agent owns one N-bit block of the shared configuration. Between
// rounds it holds only read-only snapshots; its memory mutates solely
// through the receive protocol.
type Agent struct {
	id   int
	cfg  Config
	land *landscape.Landscape

	incoming map[int]bool
	expected int
	memory   *social.Memory

	state       bitstring.Bits
	performance []float64

	buffer   []bitstring.Bits
	seenFrom map[int]bool
}

// New builds an agent wired to its incoming peers. Agents with no
// incoming peers carry no social memory and score conformity as zero.
func New(id int, cfg Config, land *landscape.Landscape, peers *social.PeerSet) (*Agent, error) {
	if land == nil {
		return nil, fmt.Errorf("%w: landscape is required", bitstring.ErrInvalidParameter)
	}
	if peers == nil {
		return nil, fmt.Errorf("%w: peer set is required", bitstring.ErrInvalidParameter)
	}
	if id < 0 || id >= cfg.P {
		return nil, fmt.Errorf("%w: agent id %d with p=%d", bitstring.ErrInvalidParameter, id, cfg.P)
	}
	if cfg.N != land.N || cfg.P != land.P {
		return nil, fmt.Errorf("%w: config n=%d p=%d, landscape n=%d p=%d", bitstring.ErrInvalidParameter, cfg.N, cfg.P, land.N, land.P)
	}
	if cfg.Nsoc < 1 || cfg.Nsoc > cfg.N {
		return nil, fmt.Errorf("%w: nsoc=%d outside [1,%d]", bitstring.ErrInvalidParameter, cfg.Nsoc, cfg.N)
	}

	a := &Agent{
		id:       id,
		cfg:      cfg,
		land:     land,
		incoming: make(map[int]bool, len(peers.In[id])),
		expected: peers.InDegree(id),
		seenFrom: make(map[int]bool),
	}
	for _, from := range peers.In[id] {
		a.incoming[from] = true
	}
	if a.expected > 0 {
		memory, err := social.NewMemory(cfg.Tm, a.expected, cfg.Nsoc)
		if err != nil {
			return nil, err
		}
		a.memory = memory
	}
	return a, nil
}

// ID returns the agent's index.
func (a *Agent) ID() int {
	return a.id
}

// Memory exposes the agent's social memory (nil without incoming peers).
func (a *Agent) Memory() *social.Memory {
	return a.memory
}

// Observe takes defensive copies of the orchestrator's configuration
// and performance vector into the agent's local view.
func (a *Agent) Observe(cfg bitstring.Bits, performance []float64) error {
	if len(cfg) != a.cfg.N*a.cfg.P {
		return fmt.Errorf("%w: configuration length %d, want %d", bitstring.ErrInvalidParameter, len(cfg), a.cfg.N*a.cfg.P)
	}
	a.state = cfg.Clone()
	a.performance = append([]float64(nil), performance...)
	return nil
}

// Screen generates alt one-bit deviations of the observed configuration
// restricted to this agent's block, scores each full alternative,
// combines incentive and conformity through the policy, and returns the
// top prop alternatives' own-block slices in utility order. Ties keep
// generation order.
func (a *Agent) Screen(alt, prop int, policy Policy, rng *rand.Rand) ([]bitstring.Bits, error) {
	if policy == nil {
		return nil, fmt.Errorf("%w: screening policy is required", bitstring.ErrInvalidParameter)
	}
	if prop < 1 || prop > alt {
		return nil, fmt.Errorf("%w: prop=%d outside [1,%d]", bitstring.ErrInvalidParameter, prop, alt)
	}
	if a.state == nil {
		return nil, fmt.Errorf("%w: screen before observe", bitstring.ErrInvalidParameter)
	}

	alternatives, err := bitstring.OneBitDeviations(a.state, a.cfg.N, a.id, alt, rng)
	if err != nil {
		return nil, err
	}

	performances := make([][]float64, len(alternatives))
	for i, alternative := range alternatives {
		perf, err := a.land.Score(alternative)
		if err != nil {
			return nil, err
		}
		performances[i] = perf
	}

	own, others, err := bitstring.DecomposePerformances(performances, a.id)
	if err != nil {
		return nil, err
	}
	incentives := make([]float64, len(alternatives))
	for i := range incentives {
		incentives[i] = a.cfg.WF*own[i] + (1-a.cfg.WF)*others[i]
	}

	conformities := make([]float64, len(alternatives))
	if a.memory != nil {
		for i, alternative := range alternatives {
			conf, err := a.memory.Frequency(bitstring.SocialBlock(alternative, a.cfg.N, a.cfg.Nsoc, a.id))
			if err != nil {
				return nil, err
			}
			conformities[i] = conf
		}
	}

	utilities, err := policy.Utilities(rng, incentives, conformities, a.cfg.W)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(alternatives))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return utilities[order[x]] > utilities[order[y]]
	})

	proposals := make([]bitstring.Bits, prop)
	for i := 0; i < prop; i++ {
		proposals[i] = bitstring.Block(alternatives[order[i]], a.cfg.N, a.id).Clone()
	}
	return proposals, nil
}

// PublishSocialBits delivers this agent's social sub-block to every
// outgoing peer through the exchange.
func (a *Agent) PublishSocialBits(exchange *social.Exchange) error {
	if a.state == nil {
		return fmt.Errorf("%w: publish before observe", bitstring.ErrInvalidParameter)
	}
	bits := bitstring.SocialBlock(a.state, a.cfg.N, a.cfg.Nsoc, a.id).Clone()
	return exchange.Publish(a.id, bits)
}

// ReceiveSocialBits buffers one peer's bits for the round; once every
// incoming peer has delivered, the buffer commits as the newest memory
// row and clears. Unknown senders, duplicates, wrong widths and
// over-delivery are protocol violations.
func (a *Agent) ReceiveSocialBits(from int, bits bitstring.Bits) error {
	if !a.incoming[from] {
		return fmt.Errorf("%w: sender %d is not an incoming peer of agent %d", ErrProtocolViolation, from, a.id)
	}
	if a.seenFrom[from] {
		return fmt.Errorf("%w: duplicate delivery from %d to agent %d in one round", ErrProtocolViolation, from, a.id)
	}
	if len(bits) != a.cfg.Nsoc {
		return fmt.Errorf("%w: %d social bits from %d, want %d", ErrProtocolViolation, len(bits), from, a.cfg.Nsoc)
	}
	if len(a.buffer) >= a.expected {
		return fmt.Errorf("%w: agent %d received more than %d messages in one round", ErrProtocolViolation, a.id, a.expected)
	}

	a.seenFrom[from] = true
	a.buffer = append(a.buffer, bits.Clone())

	if len(a.buffer) == a.expected {
		row := make(bitstring.Bits, 0, a.expected*a.cfg.Nsoc)
		for _, b := range a.buffer {
			row = append(row, b...)
		}
		if err := a.memory.Commit(row); err != nil {
			return err
		}
		a.buffer = a.buffer[:0]
		a.seenFrom = make(map[int]bool)
	}
	return nil
}
