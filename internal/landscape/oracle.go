package landscape

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/dustin/go-humanize"

	"nkscape/internal/bitstring"
)

// DefaultEnumerationCeiling bounds GlobalMaximum: above this many total
// bits the exhaustive 2^(N*P) scan is refused.
const DefaultEnumerationCeiling = 24

// Score computes the per-agent performance vector for a configuration:
// every bit's coupled bits select a contribution-table row, and each
// agent's performance is the mean of its own N bits' contributions.
// Pure and read-only against the landscape, safe to call concurrently.
func (l *Landscape) Score(cfg bitstring.Bits) ([]float64, error) {
	if len(cfg) != l.Bits() {
		return nil, fmt.Errorf("%w: configuration length %d, want %d", bitstring.ErrInvalidParameter, len(cfg), l.Bits())
	}
	perf := make([]float64, l.P)
	l.scoreInto(cfg, perf)
	return perf, nil
}

func (l *Landscape) scoreInto(cfg bitstring.Bits, perf []float64) {
	n := l.N
	for j := 0; j < l.P; j++ {
		sum := 0.0
		for t := 0; t < n; t++ {
			i := j*n + t
			row := 0
			for _, b := range l.coupled[i] {
				row = row<<1 | int(cfg[b])
			}
			sum += l.table[row][i]
		}
		perf[j] = sum / float64(n)
	}
}

// GlobalMaximum exhaustively scores all 2^(N*P) configurations and
// returns the mean per-agent performance of the one maximizing the sum
// of performances, used to normalize reported results. Ties resolve to
// the numerically smallest configuration, so the result is independent
// of enumeration order and worker count. Cost is exponential in N*P:
// the scan is refused above ceiling bits (DefaultEnumerationCeiling when
// ceiling <= 0) and must stay out of the per-round hot path.
func (l *Landscape) GlobalMaximum(ctx context.Context, workers, ceiling int) (float64, error) {
	bits := l.Bits()
	if ceiling <= 0 {
		ceiling = DefaultEnumerationCeiling
	}
	if bits > ceiling {
		return 0, fmt.Errorf("%w: global maximum over %d bits means scoring %s configurations, ceiling is %d bits",
			ErrConfiguration, bits, humanize.Comma(1<<uint(bits)), ceiling)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	total := 1 << uint(bits)
	if workers > total {
		workers = total
	}

	type best struct {
		sum   float64
		value int
		mean  float64
		found bool
	}

	results := make([]best, workers)
	chunk := (total + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			lo := w * chunk
			hi := lo + chunk
			if hi > total {
				hi = total
			}

			cfg := make(bitstring.Bits, bits)
			perf := make([]float64, l.P)
			local := best{}
			for v := lo; v < hi; v++ {
				if v%4096 == 0 && ctx.Err() != nil {
					return
				}
				decodeInto(cfg, v)
				l.scoreInto(cfg, perf)
				sum := 0.0
				for _, x := range perf {
					sum += x
				}
				if !local.found || sum > local.sum {
					local = best{sum: sum, value: v, mean: sum / float64(l.P), found: true}
				}
			}
			results[w] = local
		}(w)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	overall := best{}
	for _, r := range results {
		if !r.found {
			continue
		}
		if !overall.found || r.sum > overall.sum || (r.sum == overall.sum && r.value < overall.value) {
			overall = r
		}
	}
	if !overall.found {
		return 0, fmt.Errorf("%w: nothing enumerated", ErrConfiguration)
	}
	return overall.mean, nil
}

// decodeInto writes value's big-endian binary form over cfg.
func decodeInto(cfg bitstring.Bits, value int) {
	for i := len(cfg) - 1; i >= 0; i-- {
		cfg[i] = uint8(value & 1)
		value >>= 1
	}
}
