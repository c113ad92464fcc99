package bitstring

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestDecimalRoundTrip(t *testing.T) {
	cases := []struct {
		bits Bits
		want int
	}{
		{Bits{0}, 0},
		{Bits{1}, 1},
		{Bits{1, 0}, 2},
		{Bits{1, 0, 1, 1}, 11},
		{Bits{0, 0, 1, 1}, 3},
	}
	for _, tc := range cases {
		if got := ToDecimal(tc.bits); got != tc.want {
			t.Errorf("ToDecimal(%v) = %d, want %d", tc.bits, got, tc.want)
		}
	}
}

func TestFromDecimalPadsToWidth(t *testing.T) {
	got := FromDecimal(3, 4)
	want := Bits{0, 0, 1, 1}
	if len(got) != len(want) {
		t.Fatalf("FromDecimal(3,4) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FromDecimal(3,4) = %v, want %v", got, want)
		}
	}
	if ToDecimal(FromDecimal(1234, 11)) != 1234 {
		t.Fatal("round trip mismatch for 1234")
	}
}

func TestOneBitDeviations(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cfg := Bits{0, 1, 0, 1, 1, 0, 1, 0} // two agents, n=4
	const n, agentID, count = 4, 1, 4

	devs, err := OneBitDeviations(cfg, n, agentID, count, rng)
	if err != nil {
		t.Fatalf("one bit deviations: %v", err)
	}
	if len(devs) != count {
		t.Fatalf("got %d deviations, want %d", len(devs), count)
	}

	seen := map[int]bool{}
	for _, d := range devs {
		dist, err := HammingDistance(cfg, d)
		if err != nil {
			t.Fatal(err)
		}
		if dist != 1 {
			t.Fatalf("deviation %v at Hamming distance %d from %v", d, dist, cfg)
		}
		// the flipped bit must sit in agent 1's block
		for i := 0; i < n; i++ {
			if d[i] != cfg[i] {
				t.Fatalf("deviation %v touched agent 0's block", d)
			}
		}
		key := ToDecimal(d)
		if seen[key] {
			t.Fatalf("duplicate deviation %v", d)
		}
		seen[key] = true
	}
}

func TestOneBitDeviationsRejectsCountAboveN(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := OneBitDeviations(Bits{0, 1, 0, 1}, 2, 0, 3, rng)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestDecomposePerformances(t *testing.T) {
	perfs := [][]float64{
		{0.1, 0.5, 0.9},
		{0.4, 0.2, 0.6},
	}
	own, others, err := DecomposePerformances(perfs, 1)
	if err != nil {
		t.Fatalf("decompose: %v", err)
	}
	if own[0] != 0.5 || own[1] != 0.2 {
		t.Fatalf("own = %v", own)
	}
	if math.Abs(others[0]-0.5) > 1e-12 || math.Abs(others[1]-0.5) > 1e-12 {
		t.Fatalf("others = %v", others)
	}
}

func TestSocialFrequencyMatchesHandComputation(t *testing.T) {
	// two rows, two peer slots, nsoc=2
	memory := []Bits{
		{1, 0, 1, 1}, // slots (1,0) and (1,1)
		{0, 0, 1, 0}, // slots (0,0) and (1,0)
	}
	// position 0 ones: 1+1+0+1 = 3 of 4 -> freq 0.75
	// position 1 ones: 0+1+0+0 = 1 of 4 -> freq 0.25
	got, err := SocialFrequency(Bits{1, 0}, memory)
	if err != nil {
		t.Fatalf("social frequency: %v", err)
	}
	want := (0.75 + 0.75) / 2
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("SocialFrequency = %.6f, want %.6f", got, want)
	}

	got, err = SocialFrequency(Bits{0, 1}, memory)
	if err != nil {
		t.Fatal(err)
	}
	want = (0.25 + 0.25) / 2
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("SocialFrequency = %.6f, want %.6f", got, want)
	}
}

func TestSocialFrequencyOnZeroMemoryFavorsZeros(t *testing.T) {
	memory := []Bits{make(Bits, 4), make(Bits, 4)}
	got, err := SocialFrequency(Bits{0, 0}, memory)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Fatalf("all-zero candidate against empty history scored %.3f, want 1", got)
	}
}

func TestSynchronyBounds(t *testing.T) {
	// p=2, n=2, nsoc=2: identical social blocks -> full synchrony
	full, err := Synchrony(Bits{1, 0, 1, 0}, 2, 2, 2)
	if err != nil {
		t.Fatalf("synchrony: %v", err)
	}
	if full != 1 {
		t.Fatalf("identical blocks: synchrony %.3f, want 1", full)
	}

	// opposite social blocks -> zero synchrony
	none, err := Synchrony(Bits{1, 1, 0, 0}, 2, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if none != 0 {
		t.Fatalf("opposite blocks: synchrony %.3f, want 0", none)
	}
}

func TestSynchronyNeedsTwoAgents(t *testing.T) {
	if _, err := Synchrony(Bits{1, 0}, 1, 2, 1); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestSocialBlockIsStartAligned(t *testing.T) {
	cfg := Bits{1, 1, 0, 0, 0, 0, 1, 1}
	got := SocialBlock(cfg, 4, 2, 1)
	if got[0] != 0 || got[1] != 0 {
		t.Fatalf("SocialBlock = %v, want leading bits of agent 1's block", got)
	}
}
