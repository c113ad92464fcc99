// Package landscape builds the immutable NK interdependency structure
// and contribution table, and scores configurations against them.
package landscape

import (
	"errors"
	"fmt"
	"math/rand"

	"nkscape/internal/bitstring"
)

// ErrConfiguration reports an invalid shape, parameter or correlation
// structure at construction time.
var ErrConfiguration = errors.New("invalid landscape configuration")

// InteractionMatrix is an N*N binary matrix: entry (i,j) set means the
// contribution of bit j depends on bit i. Every row and column sums to
// K+1 and the diagonal is always 1. Immutable after construction.
type InteractionMatrix []bitstring.Bits

// Interaction shapes supported by BuildInteractionMatrix.
const (
	ShapeRoll     = "roll"
	ShapeDiag     = "diag"
	ShapeUpDiag   = "updiag"
	ShapeDownDiag = "downdiag"
	ShapeSqDiag   = "sqdiag"
	ShapeRandom   = "random"
)

// BuildInteractionMatrix constructs the N*N interdependency matrix for
// the given K and shape. K=0 always yields the identity. The random
// shape draws a constrained binary matrix with forced unit diagonal and
// may fail with bitstring.ErrInfeasibleDraw; callers redraw.
func BuildInteractionMatrix(n, k int, shape string, rng *rand.Rand) (InteractionMatrix, error) {
	if n <= 0 || k < 0 {
		return nil, fmt.Errorf("%w: n=%d k=%d", ErrConfiguration, n, k)
	}
	if k+1 > n {
		return nil, fmt.Errorf("%w: k=%d needs at least %d bits, have %d", ErrConfiguration, k, k+1, n)
	}
	if k == 0 {
		return identity(n), nil
	}

	switch shape {
	case ShapeRoll:
		return bandMatrix(n, k, func(i, j int) bool {
			return ((i-j)%n+n)%n <= k
		}), nil
	case ShapeDiag:
		return bandMatrix(n, k, func(i, j int) bool {
			d := i - j
			return -k <= d && d <= k
		}), nil
	case ShapeUpDiag:
		return bandMatrix(n, k, func(i, j int) bool {
			d := j - i
			return 0 <= d && d <= k
		}), nil
	case ShapeDownDiag:
		return bandMatrix(n, k, func(i, j int) bool {
			d := i - j
			return 0 <= d && d <= k
		}), nil
	case ShapeSqDiag:
		return bandMatrix(n, k, func(i, j int) bool {
			return i/(k+1) == j/(k+1)
		}), nil
	case ShapeRandom:
		rows, err := bitstring.RandomBinaryMatrix(n, k+1, 1, rng)
		if err != nil {
			return nil, err
		}
		return InteractionMatrix(rows), nil
	default:
		return nil, fmt.Errorf("%w: unsupported interaction shape %q", ErrConfiguration, shape)
	}
}

func identity(n int) InteractionMatrix {
	m := make(InteractionMatrix, n)
	for i := range m {
		m[i] = make(bitstring.Bits, n)
		m[i][i] = 1
	}
	return m
}

func bandMatrix(n, k int, set func(i, j int) bool) InteractionMatrix {
	m := make(InteractionMatrix, n)
	for i := range m {
		m[i] = make(bitstring.Bits, n)
		for j := 0; j < n; j++ {
			if set(i, j) {
				m[i][j] = 1
			}
		}
	}
	return m
}

// Degree returns the column sum of the first column, which for a valid
// matrix equals K+1.
func (m InteractionMatrix) Degree() int {
	d := 0
	for _, row := range m {
		d += int(row[0])
	}
	return d
}
