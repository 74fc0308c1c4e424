package keygen

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/cggmp-signer/internal/curve"
	"github.com/luxfi/cggmp-signer/internal/polynomial"
	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/round"
)

// Round2 collects every peer's Shamir share of their own polynomial,
// verifying each against the Feldman commitments Round1 agreed on.
type Round2 struct {
	round.NoImmediate

	self      party.Position
	n         int
	threshold int

	commitments map[party.Position][]*curve.Point
	shares      map[party.Position]*curve.Scalar
}

func (r *Round2) Number() round.Number               { return 2 }
func (r *Round2) N() int                             { return r.n }
func (r *Round2) SelfID() party.Position             { return r.self }
func (r *Round2) IsBroadcastRound() bool             { return false }

func (r *Round2) StoreMessage(sender party.Position, broadcastFlag bool, payload []byte) error {
	m, err := unmarshalWire(payload)
	if err != nil {
		return err
	}
	if m.Kind != "share" || m.Sender != sender {
		return fmt.Errorf("keygen round2: malformed share from %s", sender)
	}
	if _, ok := r.shares[sender]; ok {
		return fmt.Errorf("keygen round2: duplicate share from %s", sender)
	}
	var body shareMsg
	if err := json.Unmarshal(m.Body, &body); err != nil {
		return fmt.Errorf("keygen round2: malformed share body: %w", err)
	}
	commitments, ok := r.commitments[sender]
	if !ok {
		return fmt.Errorf("keygen round2: no commitments on file for %s", sender)
	}

	share := curve.SetBytesModOrder(body.Value)
	selfX := curve.NewScalar().SetNat(r.self.Nat())
	if !polynomial.VerifyShare(commitments, selfX, share) {
		return fmt.Errorf("keygen round2: %s's share failed Feldman verification", sender)
	}
	r.shares[sender] = share
	return nil
}

func (r *Round2) Ready() bool { return len(r.shares) == r.n }

func (r *Round2) Finalize() (round.Session, []round.OutMessage, error) {
	total := curve.NewScalar()
	for _, s := range r.shares {
		total = total.Add(s)
	}

	publicKey := curve.NewPoint()
	for p := party.Position(0); int(p) < r.n; p++ {
		commitments, ok := r.commitments[p]
		if !ok || len(commitments) == 0 {
			return nil, nil, fmt.Errorf("keygen round2: missing commitments for %s", p)
		}
		publicKey = publicKey.Add(commitments[0])
	}

	out := &Output{
		PublicKey:   publicKey,
		Share:       total,
		Commitments: r.commitments,
	}
	r3 := &Round3{self: r.self, n: r.n, out: out}
	return r3, nil, nil
}
