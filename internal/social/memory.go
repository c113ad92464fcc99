package social

import (
	"fmt"

	"nkscape/internal/bitstring"
)

// Memory is the fixed-capacity FIFO of past social rounds: Tm rows,
// each holding the bits received from every incoming peer in one round.
// It starts zero-filled (an empty history reads as all-zero bits) and
// overwrites the oldest row on commit, addressed by a head index rather
// than shifting the whole buffer.
type Memory struct {
	rows  []bitstring.Bits
	width int
	head  int
}

// NewMemory allocates a depth-tm memory whose rows hold slots messages
// of nsoc bits each.
func NewMemory(tm, slots, nsoc int) (*Memory, error) {
	if tm < 1 || slots < 1 || nsoc < 1 {
		return nil, fmt.Errorf("%w: tm=%d slots=%d nsoc=%d", bitstring.ErrInvalidParameter, tm, slots, nsoc)
	}
	m := &Memory{
		rows:  make([]bitstring.Bits, tm),
		width: slots * nsoc,
	}
	for i := range m.rows {
		m.rows[i] = make(bitstring.Bits, m.width)
	}
	return m, nil
}

// Depth returns the fixed capacity Tm.
func (m *Memory) Depth() int {
	return len(m.rows)
}

// Commit installs row as the newest entry, evicting the oldest.
func (m *Memory) Commit(row bitstring.Bits) error {
	if len(row) != m.width {
		return fmt.Errorf("%w: row width %d, want %d", bitstring.ErrInvalidParameter, len(row), m.width)
	}
	m.head = (m.head - 1 + len(m.rows)) % len(m.rows)
	m.rows[m.head] = row.Clone()
	return nil
}

// Rows returns the memory newest-first. The returned rows are copies.
func (m *Memory) Rows() []bitstring.Bits {
	out := make([]bitstring.Bits, len(m.rows))
	for i := range m.rows {
		out[i] = m.rows[(m.head+i)%len(m.rows)].Clone()
	}
	return out
}

// Row returns the i-th newest row without copying the whole buffer.
func (m *Memory) Row(i int) bitstring.Bits {
	return m.rows[(m.head+i)%len(m.rows)].Clone()
}

// Frequency scores a candidate social sub-block against the whole
// memory via bitstring.SocialFrequency.
func (m *Memory) Frequency(candidate bitstring.Bits) (float64, error) {
	return bitstring.SocialFrequency(candidate, m.rows)
}
