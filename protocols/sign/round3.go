package sign

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/cggmp-signer/internal/curve"
	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/round"
)

// Round3 collects every cosigner's Lagrange-weighted partial signature
// and sums them into the final, low-s-normalized signature scalar.
type Round3 struct {
	round.NoImmediate

	self     party.Position
	n        int
	rScalar  *curve.Scalar
	partials map[party.Position]*curve.Scalar
}

func (r *Round3) Number() round.Number               { return 3 }
func (r *Round3) N() int                             { return r.n }
func (r *Round3) SelfID() party.Position             { return r.self }
func (r *Round3) IsBroadcastRound() bool             { return false }

func (r *Round3) StoreMessage(sender party.Position, broadcastFlag bool, payload []byte) error {
	m, err := unmarshalWire(payload)
	if err != nil {
		return err
	}
	if m.Kind != "partial" || m.Sender != sender {
		return fmt.Errorf("sign round3: malformed partial signature from %s", sender)
	}
	if _, ok := r.partials[sender]; ok {
		return fmt.Errorf("sign round3: duplicate partial signature from %s", sender)
	}
	var body partialMsg
	if err := json.Unmarshal(m.Body, &body); err != nil {
		return fmt.Errorf("sign round3: malformed partial signature body: %w", err)
	}
	r.partials[sender] = curve.SetBytesModOrder(body.Value)
	return nil
}

func (r *Round3) Ready() bool { return len(r.partials) == r.n }

func (r *Round3) Finalize() (round.Session, []round.OutMessage, error) {
	s := curve.NewScalar()
	for p := party.Position(0); int(p) < r.n; p++ {
		v, ok := r.partials[p]
		if !ok {
			return nil, nil, fmt.Errorf("sign round3: missing partial signature from %s", p)
		}
		s = s.Add(v)
	}
	s = curve.NormalizeLowS(s)

	out := &Output{R: r.rScalar, S: s}
	r4 := &Round4{self: r.self, n: r.n, out: out}
	return r4, nil, nil
}
