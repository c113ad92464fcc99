package landscape

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ContributionTable holds the performance contribution of every bit
// under every realization of its coupled bits: 2^(1+K+C*S) rows, N*P
// columns, entries in [0,1]. Column blocks of N belong to consecutive
// agents; corresponding columns across blocks are correlated by rho.
// Immutable after construction.
type ContributionTable [][]float64

// BuildContributionTable draws the correlated contribution table. A P*P
// equicorrelated matrix with off-diagonal rho is passed through the
// 2*sin(pi/6*x) transform to stay a valid correlation structure for the
// uniform margins, correlated normal samples are drawn with it, and the
// standard normal CDF maps every sample into [0,1]. Deterministic for a
// seeded rng.
func BuildContributionTable(p, n, k, c, s int, rho float64, rng *rand.Rand) (ContributionTable, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrConfiguration)
	}
	if p <= 0 || n <= 0 || k < 0 || c < 0 || s < 0 {
		return nil, fmt.Errorf("%w: p=%d n=%d k=%d c=%d s=%d", ErrConfiguration, p, n, k, c, s)
	}
	if rho < -1 || rho > 1 {
		return nil, fmt.Errorf("%w: rho=%g outside [-1,1]", ErrConfiguration, rho)
	}

	factor, err := correlationFactor(p, rho)
	if err != nil {
		return nil, err
	}

	rows := 1 << (1 + k + c*s)
	table := make(ContributionTable, rows)
	for r := range table {
		table[r] = make([]float64, n*p)
	}

	z := make([]float64, p)
	x := make([]float64, p)
	samples := n * rows
	for i := 0; i < samples; i++ {
		for d := range z {
			z[d] = rng.NormFloat64()
		}
		factorMul(factor, z, x)

		t := i / rows
		r := i % rows
		for j := 0; j < p; j++ {
			table[r][j*n+t] = distuv.UnitNormal.CDF(x[j])
		}
	}
	return table, nil
}

// correlationFactor returns a P*P matrix F with F*F' equal to the
// sine-transformed equicorrelated matrix. Cholesky is used when the
// matrix is positive definite; the semidefinite boundary cases (rho=1
// collapses all landscapes into one) fall back to a clamped symmetric
// eigendecomposition, matching how sampling libraries treat degenerate
// covariances.
func correlationFactor(p int, rho float64) (*mat.Dense, error) {
	off := 2 * math.Sin(math.Pi/6*rho)
	sym := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		sym.SetSym(i, i, 1)
		for j := i + 1; j < p; j++ {
			sym.SetSym(i, j, off)
		}
	}

	var chol mat.Cholesky
	if chol.Factorize(sym) {
		var lower mat.TriDense
		chol.LTo(&lower)
		out := mat.NewDense(p, p, nil)
		out.Copy(&lower)
		return out, nil
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return nil, fmt.Errorf("%w: eigendecomposition of correlation matrix failed", ErrConfiguration)
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	const tolerance = 1e-9
	scaled := mat.NewDense(p, p, nil)
	for j, v := range values {
		if v < -tolerance {
			return nil, fmt.Errorf("%w: rho=%g gives a non positive semidefinite correlation matrix", ErrConfiguration, rho)
		}
		if v < 0 {
			v = 0
		}
		root := math.Sqrt(v)
		for i := 0; i < p; i++ {
			scaled.Set(i, j, vectors.At(i, j)*root)
		}
	}
	return scaled, nil
}

func factorMul(factor *mat.Dense, z, x []float64) {
	p := len(z)
	for i := 0; i < p; i++ {
		sum := 0.0
		for j := 0; j < p; j++ {
			sum += factor.At(i, j) * z[j]
		}
		x[i] = sum
	}
}
