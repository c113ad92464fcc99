// Package bitstring holds the binary algebra underneath the NK model:
// decimal conversions, constrained combinatorics, one-bit neighborhoods
// and the frequency/similarity scores used for social conformity.
package bitstring

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrInvalidParameter reports a call-time size or count violation.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInfeasibleDraw reports a random constructive procedure that
	// reached a dead end; the caller may retry with a fresh draw.
	ErrInfeasibleDraw = errors.New("infeasible draw")
)

// Bits is an ordered binary vector. A full configuration has N*P bits,
// partitioned into P contiguous agent blocks of N bits each.
type Bits []uint8

// Clone returns an independent copy.
func (b Bits) Clone() Bits {
	return append(Bits(nil), b...)
}

// ToDecimal interprets bits as a big-endian binary integer.
func ToDecimal(bits Bits) int {
	v := 0
	for _, bit := range bits {
		v = v<<1 | int(bit)
	}
	return v
}

// FromDecimal converts value to its big-endian binary form, left-padded
// with zeros to width. Values needing more than width bits keep all of
// their bits.
func FromDecimal(value, width int) Bits {
	out := make(Bits, 0, width)
	for v := value; v > 0; v >>= 1 {
		out = append(out, uint8(v&1))
	}
	for len(out) < width {
		out = append(out, 0)
	}
	// built least-significant first; reverse into big-endian order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Block returns agent agentID's n-bit slice of the configuration.
// The slice aliases cfg.
func Block(cfg Bits, n, agentID int) Bits {
	return cfg[agentID*n : (agentID+1)*n]
}

// SocialBlock returns the nsoc leading bits of agent agentID's block,
// the sub-block shared with peers. The slice aliases cfg.
func SocialBlock(cfg Bits, n, nsoc, agentID int) Bits {
	start := agentID * n
	return cfg[start : start+nsoc]
}

// OneBitDeviations returns count distinct configurations, each differing
// from cfg by exactly one bit inside agent agentID's n-bit block. Flip
// positions are drawn without replacement, so count must not exceed n.
func OneBitDeviations(cfg Bits, n, agentID, count int, rng *rand.Rand) ([]Bits, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidParameter)
	}
	if count > n {
		return nil, fmt.Errorf("%w: cannot have more one-bit deviations (%d) than bits (%d)", ErrInvalidParameter, count, n)
	}
	if count < 0 || n <= 0 {
		return nil, fmt.Errorf("%w: count=%d n=%d", ErrInvalidParameter, count, n)
	}
	if agentID < 0 || (agentID+1)*n > len(cfg) {
		return nil, fmt.Errorf("%w: agent %d block out of range for %d bits", ErrInvalidParameter, agentID, len(cfg))
	}

	positions := rng.Perm(n)[:count]
	out := make([]Bits, count)
	for i, p := range positions {
		flipped := cfg.Clone()
		idx := agentID*n + p
		flipped[idx] = 1 - flipped[idx]
		out[i] = flipped
	}
	return out, nil
}

// HammingDistance counts differing positions between two equal-length
// bitstrings.
func HammingDistance(a, b Bits) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: length mismatch %d vs %d", ErrInvalidParameter, len(a), len(b))
	}
	d := 0
	for i := range a {
		if a[i] != b[i] {
			d++
		}
	}
	return d, nil
}

// DecomposePerformances splits a per-alternative performance matrix
// (one row per alternative, P columns) into the focal agent's own
// column and the mean of all other agents' columns, per alternative.
func DecomposePerformances(performances [][]float64, agentID int) (own, others []float64, err error) {
	if len(performances) == 0 {
		return nil, nil, nil
	}
	p := len(performances[0])
	if agentID < 0 || agentID >= p {
		return nil, nil, fmt.Errorf("%w: agent %d outside %d columns", ErrInvalidParameter, agentID, p)
	}
	own = make([]float64, len(performances))
	others = make([]float64, len(performances))
	for i, row := range performances {
		if len(row) != p {
			return nil, nil, fmt.Errorf("%w: ragged performance matrix", ErrInvalidParameter)
		}
		own[i] = row[agentID]
		if p > 1 {
			sum := 0.0
			for j, v := range row {
				if j != agentID {
					sum += v
				}
			}
			others[i] = sum / float64(p-1)
		}
	}
	return own, others, nil
}

// SocialFrequency scores how well candidate matches the bits in memory.
// Every memory row holds the bits received from each incoming peer in
// one round, laid out as consecutive len(candidate)-sized slots. For
// each position the historical frequency of ones is taken across all
// rows and slots; a candidate 1 scores that frequency, a candidate 0
// scores its complement, and the result is the mean across positions.
func SocialFrequency(candidate Bits, memory []Bits) (float64, error) {
	width := len(candidate)
	if width == 0 {
		return 0, fmt.Errorf("%w: empty candidate", ErrInvalidParameter)
	}
	if len(memory) == 0 {
		return 0, fmt.Errorf("%w: empty memory", ErrInvalidParameter)
	}
	slots := len(memory[0]) / width
	if slots == 0 || len(memory[0])%width != 0 {
		return 0, fmt.Errorf("%w: memory row width %d not a multiple of candidate width %d", ErrInvalidParameter, len(memory[0]), width)
	}

	total := 0.0
	samples := float64(len(memory) * slots)
	for pos := 0; pos < width; pos++ {
		ones := 0
		for _, row := range memory {
			for s := 0; s < slots; s++ {
				ones += int(row[s*width+pos])
			}
		}
		freq := float64(ones) / samples
		if candidate[pos] == 1 {
			total += freq
		} else {
			total += 1 - freq
		}
	}
	return total / float64(width), nil
}

// Synchrony measures how aligned the agents' social sub-blocks are:
// 1 minus the normalized sum of pairwise Hamming distances between the
// nsoc leading bits of every pair of agent blocks.
func Synchrony(cfg Bits, p, n, nsoc int) (float64, error) {
	if p < 2 {
		return 0, fmt.Errorf("%w: need at least 2 agents for synchrony", ErrInvalidParameter)
	}
	if nsoc < 1 || nsoc > n {
		return 0, fmt.Errorf("%w: nsoc=%d outside [1,%d]", ErrInvalidParameter, nsoc, n)
	}
	if len(cfg) != n*p {
		return 0, fmt.Errorf("%w: configuration length %d, want %d", ErrInvalidParameter, len(cfg), n*p)
	}

	sum := 0
	for i := 0; i < p; i++ {
		for j := i + 1; j < p; j++ {
			d, err := HammingDistance(SocialBlock(cfg, n, nsoc, i), SocialBlock(cfg, n, nsoc, j))
			if err != nil {
				return 0, err
			}
			sum += d
		}
	}

	var maxSum float64
	if p%2 == 0 {
		maxSum = float64(nsoc) * float64(p) * float64(p) / 4
	} else {
		maxSum = float64(nsoc)*float64(p-1)*float64(p-1)/4 + float64(p-1)*float64(nsoc)/2
	}
	return 1 - float64(sum)/maxSum, nil
}
