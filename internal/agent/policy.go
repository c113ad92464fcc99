package agent

import (
	"fmt"
	"math/rand"

	"nkscape/internal/bitstring"
)

// Policy turns per-alternative incentive and conformity scores into the
// utilities that rank screening alternatives.
type Policy interface {
	Name() string
	Utilities(rng *rand.Rand, incentives, conformities []float64, w float64) ([]float64, error)
}

// UtilityPolicy blends incentive and conformity: w*incentive +
// (1-w)*conformity. The default screening method.
type UtilityPolicy struct{}

func (UtilityPolicy) Name() string {
	return "utility"
}

func (UtilityPolicy) Utilities(_ *rand.Rand, incentives, conformities []float64, w float64) ([]float64, error) {
	if len(incentives) != len(conformities) {
		return nil, fmt.Errorf("%w: %d incentives vs %d conformities", bitstring.ErrInvalidParameter, len(incentives), len(conformities))
	}
	out := make([]float64, len(incentives))
	for i := range incentives {
		out[i] = w*incentives[i] + (1-w)*conformities[i]
	}
	return out, nil
}

// PerformancePolicy ranks purely by incentive, ignoring conformity.
type PerformancePolicy struct{}

func (PerformancePolicy) Name() string {
	return "performance"
}

func (PerformancePolicy) Utilities(_ *rand.Rand, incentives, _ []float64, _ float64) ([]float64, error) {
	return append([]float64(nil), incentives...), nil
}

// RandomPolicy ranks alternatives uniformly at random.
type RandomPolicy struct{}

func (RandomPolicy) Name() string {
	return "random"
}

func (RandomPolicy) Utilities(rng *rand.Rand, incentives, _ []float64, _ float64) ([]float64, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", bitstring.ErrInvalidParameter)
	}
	out := make([]float64, len(incentives))
	for i := range out {
		out[i] = rng.Float64()
	}
	return out, nil
}

// PolicyByName resolves a screening method name; the empty name selects
// the utility default.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "utility":
		return UtilityPolicy{}, nil
	case "performance":
		return PerformancePolicy{}, nil
	case "random":
		return RandomPolicy{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown screening method %q", bitstring.ErrInvalidParameter, name)
	}
}
