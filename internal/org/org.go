// Package org drives a simulation run: it owns the landscape, the agent
// registry and the peer network, and advances them through synchronous
// rounds of observe, screen, commit, publish and receive.
package org

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"nkscape/internal/agent"
	"nkscape/internal/bitstring"
	"nkscape/internal/landscape"
	"nkscape/internal/model"
	"nkscape/internal/social"
)

// matrixDrawAttempts bounds redraws of a random-shaped interaction
// matrix before construction gives up.
const matrixDrawAttempts = 16

// Organization is the owning registry of agents plus the shared run
// state. Agents never hold references to each other or to the
// organization; everything moves through indexed phase calls.
type Organization struct {
	params model.RunParameters
	land   *landscape.Landscape
	peers  *social.PeerSet
	agents []*agent.Agent
	policy agent.Policy

	exchange *social.Exchange

	// one source per agent keeps parallel screening deterministic for
	// a fixed seed regardless of scheduling
	rngs []*rand.Rand

	state       bitstring.Bits
	performance []float64
}

// Result collects the per-round series of one completed run.
type Result struct {
	Performance   []float64 // mean agent performance per round
	Synchrony     []float64 // social-bit alignment per round
	GlobalMaximum float64   // normalization value when normalized
	Normalized    bool
}

// New builds the landscape, topology and agents for a run. A random
// interaction shape is redrawn on infeasible draws, a bounded number of
// times.
func New(params model.RunParameters, rng *rand.Rand) (*Organization, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", bitstring.ErrInvalidParameter)
	}
	if params.Rounds < 1 {
		return nil, fmt.Errorf("%w: rounds=%d", bitstring.ErrInvalidParameter, params.Rounds)
	}
	if params.Alt < 1 || params.Alt > params.N {
		return nil, fmt.Errorf("%w: alt=%d outside [1,%d]", bitstring.ErrInvalidParameter, params.Alt, params.N)
	}
	if params.Prop < 1 || params.Prop > params.Alt {
		return nil, fmt.Errorf("%w: prop=%d outside [1,%d]", bitstring.ErrInvalidParameter, params.Prop, params.Alt)
	}
	policy, err := agent.PolicyByName(params.Method)
	if err != nil {
		return nil, err
	}

	matrix, err := buildMatrix(params, rng)
	if err != nil {
		return nil, err
	}
	table, err := landscape.BuildContributionTable(params.P, params.N, params.K, params.C, params.S, params.Rho, rng)
	if err != nil {
		return nil, err
	}
	land, err := landscape.New(matrix, table, params.P, params.C, params.S)
	if err != nil {
		return nil, err
	}

	peers, err := social.BuildTopology(params.P, params.Deg, params.Network, rng)
	if err != nil {
		return nil, err
	}

	cfg := agent.Config{
		N:    params.N,
		P:    params.P,
		Nsoc: params.Nsoc,
		Tm:   params.Tm,
		W:    params.W,
		WF:   params.WF,
	}
	agents := make([]*agent.Agent, params.P)
	receivers := make([]social.Receiver, params.P)
	rngs := make([]*rand.Rand, params.P)
	for i := range agents {
		a, err := agent.New(i, cfg, land, peers)
		if err != nil {
			return nil, err
		}
		agents[i] = a
		receivers[i] = a
		rngs[i] = rand.New(rand.NewSource(rng.Int63()))
	}
	exchange, err := social.NewExchange(peers, receivers)
	if err != nil {
		return nil, err
	}

	state := make(bitstring.Bits, land.Bits())
	for i := range state {
		state[i] = uint8(rng.Intn(2))
	}
	performance, err := land.Score(state)
	if err != nil {
		return nil, err
	}

	return &Organization{
		params:      params,
		land:        land,
		peers:       peers,
		agents:      agents,
		policy:      policy,
		exchange:    exchange,
		rngs:        rngs,
		state:       state,
		performance: performance,
	}, nil
}

func buildMatrix(params model.RunParameters, rng *rand.Rand) (landscape.InteractionMatrix, error) {
	var lastErr error
	for attempt := 0; attempt < matrixDrawAttempts; attempt++ {
		matrix, err := landscape.BuildInteractionMatrix(params.N, params.K, params.Shape, rng)
		if err == nil {
			return matrix, nil
		}
		if !errors.Is(err, bitstring.ErrInfeasibleDraw) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("interaction matrix after %d draws: %w", matrixDrawAttempts, lastErr)
}

// Landscape exposes the run's immutable landscape.
func (o *Organization) Landscape() *landscape.Landscape {
	return o.land
}

// State returns a copy of the current shared configuration.
func (o *Organization) State() bitstring.Bits {
	return o.state.Clone()
}

// Run advances the configured number of rounds. Each round every agent
// observes one consistent snapshot, screening runs in parallel across
// agents against the immutable landscape, each agent's top proposal
// commits onto its own disjoint block, and the publish/receive pass
// completes before the round's metrics are recorded.
func (o *Organization) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		Performance: make([]float64, 0, o.params.Rounds),
		Synchrony:   make([]float64, 0, o.params.Rounds),
	}

	if o.params.Normalize {
		maximum, err := o.land.GlobalMaximum(ctx, o.params.Workers, o.params.EnumerationCeiling)
		if err != nil {
			return nil, fmt.Errorf("normalization: %w", err)
		}
		result.GlobalMaximum = maximum
		result.Normalized = true
	}

	for round := 0; round < o.params.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// observe: every agent sees the same snapshot before any screens
		for _, a := range o.agents {
			if err := a.Observe(o.state, o.performance); err != nil {
				return nil, err
			}
		}

		proposals, err := o.screenAll(ctx)
		if err != nil {
			return nil, err
		}

		// commit: disjoint per-agent blocks, visible to all at once
		next := o.state.Clone()
		for i, agentProposals := range proposals {
			copy(bitstring.Block(next, o.params.N, i), agentProposals[0])
		}
		o.state = next
		if o.performance, err = o.land.Score(o.state); err != nil {
			return nil, err
		}

		// publish/receive against the committed configuration; every
		// publish completes before the round's memories are final
		for _, a := range o.agents {
			if err := a.Observe(o.state, o.performance); err != nil {
				return nil, err
			}
		}
		for _, a := range o.agents {
			if err := a.PublishSocialBits(o.exchange); err != nil {
				return nil, err
			}
		}

		mean := 0.0
		for _, v := range o.performance {
			mean += v
		}
		mean /= float64(o.params.P)
		if result.Normalized {
			mean /= result.GlobalMaximum
		}
		result.Performance = append(result.Performance, mean)

		synchrony, err := bitstring.Synchrony(o.state, o.params.P, o.params.N, o.params.Nsoc)
		if err != nil {
			return nil, err
		}
		result.Synchrony = append(result.Synchrony, synchrony)
	}
	return result, nil
}

// screenAll runs every agent's screening phase on a worker pool; the
// landscape and snapshots are read-only during the phase.
func (o *Organization) screenAll(ctx context.Context) ([][]bitstring.Bits, error) {
	type job struct {
		idx int
	}
	type result struct {
		idx       int
		proposals []bitstring.Bits
		err       error
	}

	workerCount := o.params.Workers
	if workerCount <= 0 {
		workerCount = 1
	}
	if workerCount > len(o.agents) {
		workerCount = len(o.agents)
	}

	jobs := make(chan job)
	results := make(chan result, len(o.agents))

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				proposals, err := o.agents[j.idx].Screen(o.params.Alt, o.params.Prop, o.policy, o.rngs[j.idx])
				results <- result{idx: j.idx, proposals: proposals, err: err}
			}
		}()
	}

	for i := range o.agents {
		jobs <- job{idx: i}
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := make([][]bitstring.Bits, len(o.agents))
	for res := range results {
		if res.err != nil {
			return nil, fmt.Errorf("screen agent %d: %w", res.idx, res.err)
		}
		out[res.idx] = res.proposals
	}
	return out, nil
}
