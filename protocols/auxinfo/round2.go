package auxinfo

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/cggmp-signer/internal/commitment"
	"github.com/luxfi/cggmp-signer/internal/curve"
	"github.com/luxfi/cggmp-signer/internal/paillier"
	"github.com/luxfi/cggmp-signer/internal/zkschnorr"
	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/round"
)

// Round2 reveals this party's (Paillier modulus, Schnorr proof) and
// verifies every peer's reveal against the commitment hash Round1's
// echo discipline already confirmed consistent across the group.
type Round2 struct {
	round.NoImmediate

	self party.Position
	n    int
	eid  []byte

	priv   *paillier.PrivateKey
	reveal revealMsg

	commitHashes map[party.Position][]byte
	revealed     map[party.Position]revealMsg
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
	if m.Kind != "original" || m.Sender != sender {
		return fmt.Errorf("auxinfo round2: malformed reveal from %s", sender)
	}
	if _, ok := r.revealed[sender]; ok {
		return fmt.Errorf("auxinfo round2: duplicate reveal from %s", sender)
	}

	var reveal revealMsg
	if err := json.Unmarshal(m.Body, &reveal); err != nil {
		return fmt.Errorf("auxinfo round2: malformed reveal body: %w", err)
	}
	wantHash, ok := r.commitHashes[sender]
	if !ok {
		return fmt.Errorf("auxinfo round2: no commitment on file for %s", sender)
	}
	revealBytes, err := commitPayload(reveal)
	if err != nil {
		return err
	}
	if err := commitment.Verify(wantHash, reveal.Salt, revealBytes); err != nil {
		return fmt.Errorf("auxinfo round2: %s failed to open its commitment: %w", sender, err)
	}

	X, err := curve.ParseCompressed(reveal.X)
	if err != nil {
		return fmt.Errorf("auxinfo round2: %s sent a malformed proof public value: %w", sender, err)
	}
	R, err := curve.ParseCompressed(reveal.ProofR)
	if err != nil {
		return fmt.Errorf("auxinfo round2: %s sent a malformed proof commitment: %w", sender, err)
	}
	proof := &zkschnorr.Proof{R: R, S: curve.SetBytesModOrder(reveal.ProofS)}
	ctx := schnorrContext(r.eid, sender, reveal.N)
	if !proof.Verify(X, ctx) {
		return fmt.Errorf("auxinfo round2: %s's proof of knowledge failed to verify", sender)
	}

	r.revealed[sender] = reveal
	return nil
}

func (r *Round2) Ready() bool {
	return len(r.revealed) == r.n-1
}

func (r *Round2) Finalize() (round.Session, []round.OutMessage, error) {
	parties := make(map[party.Position]PartyInfo, r.n)
	for pos, rv := range r.revealed {
		parties[pos] = PartyInfo{N: rv.N, X: rv.X, ProofR: rv.ProofR, ProofS: rv.ProofS}
	}
	parties[r.self] = PartyInfo{N: r.reveal.N, X: r.reveal.X, ProofR: r.reveal.ProofR, ProofS: r.reveal.ProofS}

	out := &Output{Parties: parties, Private: r.priv}
	r3 := &Round3{self: r.self, n: r.n, out: out}
	return r3, nil, nil
}
