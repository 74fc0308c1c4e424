package auxinfo

import (
	"fmt"

	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/round"
)

// Round3 carries no further messages; it exists only to let the driver
// observe the protocol's terminal state through the same round.Session
// shape every other round uses, before type-asserting round.Result.
type Round3 struct {
	round.NoImmediate

	self party.Position
	n    int
	out  *Output
}

func (r *Round3) Number() round.Number               { return 3 }
func (r *Round3) N() int                             { return r.n }
func (r *Round3) SelfID() party.Position             { return r.self }
func (r *Round3) IsBroadcastRound() bool             { return false }

func (r *Round3) StoreMessage(party.Position, bool, []byte) error {
	return fmt.Errorf("auxinfo round3: protocol already finished, no further messages expected")
}

func (r *Round3) Ready() bool { return true }

func (r *Round3) Finalize() (round.Session, []round.OutMessage, error) {
	return nil, nil, nil
}

func (r *Round3) Output() interface{} { return r.out }
