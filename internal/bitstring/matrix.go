package bitstring

import (
	"fmt"
	"math/rand"
)

// DiagFree leaves the diagonal of a random binary matrix unconstrained.
const DiagFree = -1

// Combinations enumerates every binary vector of length n whose
// elements sum to r, in lexicographic order of the chosen positions.
func Combinations(n, r int) []Bits {
	if r < 0 || r > n {
		return nil
	}
	var out []Bits
	idx := make([]int, r)
	for i := range idx {
		idx[i] = i
	}
	for {
		row := make(Bits, n)
		for _, j := range idx {
			row[j] = 1
		}
		out = append(out, row)

		// advance to the next r-combination of {0..n-1}
		i := r - 1
		for i >= 0 && idx[i] == n-r+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < r; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return out
}

// RandomBinaryMatrix draws an n*n binary matrix whose rows and columns
// all sum to r, with every diagonal entry forced to diag (or left free
// when diag is DiagFree).
//
// The draw is constructive: row by row, the candidate set starts as all
// sum-r vectors and is pruned of anything that would push a column past
// its target or leave it short given the rows still to assign; the
// surviving candidates matching the diagonal constraint are sampled
// uniformly. A diagonal dead end is reported as ErrInfeasibleDraw so the
// caller can redraw; a malformed matrix is never returned.
func RandomBinaryMatrix(n, r, diag int, rng *rand.Rand) ([]Bits, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidParameter)
	}
	if n <= 0 || r <= 0 {
		return nil, fmt.Errorf("%w: n=%d r=%d", ErrInvalidParameter, n, r)
	}
	if n < r {
		return nil, fmt.Errorf("%w: row sum %d exceeds size %d", ErrInvalidParameter, r, n)
	}
	if n == r {
		out := make([]Bits, n)
		for i := range out {
			row := make(Bits, n)
			for j := range row {
				row[j] = 1
			}
			out[i] = row
		}
		return out, nil
	}

	candidates := Combinations(n, r)
	colSums := make([]int, n)
	out := make([]Bits, 0, n)

	for i := 0; i < n; i++ {
		// prune candidates inconsistent with the remaining budget
		kept := candidates[:0]
		for _, c := range candidates {
			if feasibleRow(c, colSums, n, r, i) {
				kept = append(kept, c)
			}
		}
		candidates = kept

		// restrict to the diagonal constraint for this row
		pool := candidates
		if diag != DiagFree {
			pool = nil
			for _, c := range candidates {
				if int(c[i]) != diag {
					continue
				}
				if diagDeadEnd(c, colSums, n, r, i, diag) {
					continue
				}
				pool = append(pool, c)
			}
		}

		switch {
		case len(pool) > 0:
			row := pool[rng.Intn(len(pool))].Clone()
			for j, v := range row {
				colSums[j] += int(v)
			}
			out = append(out, row)
		case len(candidates) > 0:
			return nil, fmt.Errorf("%w: no row %d candidate satisfies diagonal=%d", ErrInfeasibleDraw, i, diag)
		default:
			return nil, fmt.Errorf("%w: no feasible row %d for n=%d r=%d", ErrInvalidParameter, i, n, r)
		}
	}
	return out, nil
}

// feasibleRow reports whether candidate c for row i keeps every column
// fillable: no column may exceed its target sum, and a column that needs
// a 1 from every remaining row must get one here.
func feasibleRow(c Bits, colSums []int, n, r, i int) bool {
	remaining := n - i
	for j := 0; j < n; j++ {
		if colSums[j] >= r && c[j] == 1 {
			return false
		}
		if r-colSums[j] == remaining && c[j] == 0 {
			return false
		}
	}
	return true
}

// diagDeadEnd reports whether choosing c for row i would make a later
// diagonal entry impossible: with diag=1, a future column saturated
// before its own row can never place its diagonal 1; with diag=0, a
// future column needing a 1 from every remaining row forces a diagonal 1.
func diagDeadEnd(c Bits, colSums []int, n, r, i, diag int) bool {
	for j := i + 1; j < n; j++ {
		after := colSums[j] + int(c[j])
		if diag == 1 && after == r {
			return true
		}
		if diag == 0 && r-after == n-i-1 {
			return true
		}
	}
	return false
}
