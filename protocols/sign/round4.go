package sign

import (
	"fmt"

	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/round"
)

// Round4 carries no further messages; the driver observes the terminal
// Output through the same round.Session shape every other round uses.
type Round4 struct {
	round.NoImmediate

	self party.Position
	n    int
	out  *Output
}

func (r *Round4) Number() round.Number               { return 4 }
func (r *Round4) N() int                             { return r.n }
func (r *Round4) SelfID() party.Position             { return r.self }
func (r *Round4) IsBroadcastRound() bool             { return false }

func (r *Round4) StoreMessage(party.Position, bool, []byte) error {
	return fmt.Errorf("sign round4: protocol already finished, no further messages expected")
}

func (r *Round4) Ready() bool { return true }

func (r *Round4) Finalize() (round.Session, []round.OutMessage, error) {
	return nil, nil, nil
}

func (r *Round4) Output() interface{} { return r.out }
