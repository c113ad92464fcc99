package social

import (
	"fmt"

	"nkscape/internal/bitstring"
)

// Receiver accepts one peer's social bits for the current round.
type Receiver interface {
	ReceiveSocialBits(from int, bits bitstring.Bits) error
}

// Exchange delivers social bits along the peer network. It holds the
// adjacency table and an indexed registry of receivers, so agents refer
// to each other by id instead of holding direct handles.
type Exchange struct {
	peers     *PeerSet
	receivers []Receiver
}

// NewExchange wires receivers (indexed by agent id) to a peer set.
func NewExchange(peers *PeerSet, receivers []Receiver) (*Exchange, error) {
	if peers == nil {
		return nil, fmt.Errorf("%w: peer set is required", ErrConfiguration)
	}
	if len(receivers) != len(peers.Out) {
		return nil, fmt.Errorf("%w: %d receivers for %d agents", ErrConfiguration, len(receivers), len(peers.Out))
	}
	return &Exchange{peers: peers, receivers: receivers}, nil
}

// Peers exposes the adjacency table.
func (e *Exchange) Peers() *PeerSet {
	return e.peers
}

// Publish delivers bits from agent `from` to each of its outgoing
// peers. Delivery errors (protocol violations at the receiver) stop the
// fan-out and propagate.
func (e *Exchange) Publish(from int, bits bitstring.Bits) error {
	if from < 0 || from >= len(e.receivers) {
		return fmt.Errorf("%w: unknown publisher %d", ErrConfiguration, from)
	}
	for _, to := range e.peers.Out[from] {
		if err := e.receivers[to].ReceiveSocialBits(from, bits); err != nil {
			return fmt.Errorf("deliver %d -> %d: %w", from, to, err)
		}
	}
	return nil
}
