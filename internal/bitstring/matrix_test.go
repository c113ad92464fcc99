package bitstring

import (
	"errors"
	"math/rand"
	"testing"
)

func TestCombinationsCountAndSums(t *testing.T) {
	rows := Combinations(5, 2)
	if len(rows) != 10 {
		t.Fatalf("C(5,2) enumerated %d rows, want 10", len(rows))
	}
	seen := map[int]bool{}
	for _, row := range rows {
		sum := 0
		for _, b := range row {
			sum += int(b)
		}
		if sum != 2 {
			t.Fatalf("row %v has sum %d, want 2", row, sum)
		}
		key := ToDecimal(row)
		if seen[key] {
			t.Fatalf("duplicate row %v", row)
		}
		seen[key] = true
	}
}

func TestRandomBinaryMatrixRowColSums(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for draw := 0; draw < 20; draw++ {
		m, err := RandomBinaryMatrix(6, 3, DiagFree, rng)
		if err != nil {
			t.Fatalf("draw %d: %v", draw, err)
		}
		checkRegular(t, m, 3)
	}
}

func TestRandomBinaryMatrixForcedDiagonal(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for draw := 0; draw < 50; draw++ {
		m, err := RandomBinaryMatrix(6, 2, 1, rng)
		if errors.Is(err, ErrInfeasibleDraw) {
			continue // legitimate dead end, redraw
		}
		if err != nil {
			t.Fatalf("draw %d: %v", draw, err)
		}
		checkRegular(t, m, 2)
		for i, row := range m {
			if row[i] != 1 {
				t.Fatalf("draw %d: diagonal entry (%d,%d) = %d, want 1", draw, i, i, row[i])
			}
		}
	}
}

func TestRandomBinaryMatrixZeroDiagonal(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	for draw := 0; draw < 50; draw++ {
		m, err := RandomBinaryMatrix(5, 2, 0, rng)
		if errors.Is(err, ErrInfeasibleDraw) {
			continue
		}
		if err != nil {
			t.Fatalf("draw %d: %v", draw, err)
		}
		checkRegular(t, m, 2)
		for i, row := range m {
			if row[i] != 0 {
				t.Fatalf("draw %d: diagonal entry (%d,%d) = %d, want 0", draw, i, i, row[i])
			}
		}
	}
}

func TestRandomBinaryMatrixFullSum(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m, err := RandomBinaryMatrix(4, 4, DiagFree, rng)
	if err != nil {
		t.Fatalf("n==r: %v", err)
	}
	for _, row := range m {
		for _, b := range row {
			if b != 1 {
				t.Fatalf("n==r matrix not all ones: %v", m)
			}
		}
	}
}

func TestRandomBinaryMatrixRejectsOversizedSum(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := RandomBinaryMatrix(3, 4, DiagFree, rng); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func checkRegular(t *testing.T, m []Bits, r int) {
	t.Helper()
	n := len(m)
	colSums := make([]int, n)
	for _, row := range m {
		rowSum := 0
		for j, b := range row {
			rowSum += int(b)
			colSums[j] += int(b)
		}
		if rowSum != r {
			t.Fatalf("row sum %d, want %d in %v", rowSum, r, m)
		}
	}
	for j, s := range colSums {
		if s != r {
			t.Fatalf("column %d sum %d, want %d", j, s, r)
		}
	}
}
