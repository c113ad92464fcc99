package landscape

import (
	"fmt"
	"sort"
)

// Landscape couples the interaction matrix and the contribution table
// into the scoring structure used every round. Built once per run and
// never mutated afterwards, so concurrent reads are safe.
type Landscape struct {
	N int
	P int

	matrix InteractionMatrix
	table  ContributionTable

	// coupled[i] holds the global bit indices (ascending, read as a
	// big-endian integer) whose values select bit i's table row.
	coupled [][]int
}

// New assembles a landscape from its built parts. Within-agent coupling
// comes from the interaction matrix; across agents, every bit is also
// coupled to C consecutive bits (at its own offset, wrapping) in each of
// the S following agents' blocks, giving the 1+K+C*S bits the table's
// row count expects.
func New(matrix InteractionMatrix, table ContributionTable, p, c, s int) (*Landscape, error) {
	n := len(matrix)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty interaction matrix", ErrConfiguration)
	}
	for _, row := range matrix {
		if len(row) != n {
			return nil, fmt.Errorf("%w: interaction matrix is not square", ErrConfiguration)
		}
	}
	if p <= 0 {
		return nil, fmt.Errorf("%w: p=%d", ErrConfiguration, p)
	}
	if c < 0 || s < 0 || (c > 0 && c > n) {
		return nil, fmt.Errorf("%w: c=%d s=%d with n=%d", ErrConfiguration, c, s, n)
	}
	if c*s > 0 && s >= p {
		return nil, fmt.Errorf("%w: s=%d external agents need p>%d, have p=%d", ErrConfiguration, s, s, p)
	}

	k := matrix.Degree() - 1
	wantRows := 1 << (1 + k + c*s)
	if len(table) != wantRows {
		return nil, fmt.Errorf("%w: contribution table has %d rows, want %d", ErrConfiguration, len(table), wantRows)
	}
	for _, row := range table {
		if len(row) != n*p {
			return nil, fmt.Errorf("%w: contribution table has %d columns, want %d", ErrConfiguration, len(row), n*p)
		}
	}

	coupled := make([][]int, n*p)
	for j := 0; j < p; j++ {
		for t := 0; t < n; t++ {
			idx := make([]int, 0, 1+k+c*s)
			for u := 0; u < n; u++ {
				if matrix[u][t] == 1 {
					idx = append(idx, j*n+u)
				}
			}
			for sh := 1; sh <= s; sh++ {
				peer := (j + sh) % p
				for m := 0; m < c; m++ {
					idx = append(idx, peer*n+(t+m)%n)
				}
			}
			sort.Ints(idx)
			coupled[j*n+t] = idx
		}
	}

	return &Landscape{
		N:       n,
		P:       p,
		matrix:  matrix,
		table:   table,
		coupled: coupled,
	}, nil
}

// Matrix returns the interaction matrix the landscape was built with.
func (l *Landscape) Matrix() InteractionMatrix {
	return l.matrix
}

// Bits returns the total configuration length N*P.
func (l *Landscape) Bits() int {
	return l.N * l.P
}
