package auxinfo

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/luxfi/cggmp-signer/internal/broadcast"
	"github.com/luxfi/cggmp-signer/internal/commitment"
	"github.com/luxfi/cggmp-signer/internal/curve"
	"github.com/luxfi/cggmp-signer/internal/paillier"
	"github.com/luxfi/cggmp-signer/internal/zkschnorr"
	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/round"
)

// Round1 broadcasts a commitment to this party's (Paillier modulus,
// Schnorr proof) pair; nothing is revealed until Round2.
type Round1 struct {
	self party.Position
	n    int
	eid  []byte

	priv   *paillier.PrivateKey
	reveal revealMsg
	salt   []byte

	tracker *broadcast.Tracker
	echoed  map[party.Position]bool
}

// Start generates this party's aux-info contribution and returns the
// first round together with the commitment broadcast it must send
// before it can receive anything.
func Start(self party.Position, n int, executionID []byte) (round.Session, []round.OutMessage, error) {
	priv, err := paillier.GenerateKey(rand.Reader, paillier.KeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("auxinfo: generating paillier key: %w", err)
	}
	return StartWithKey(self, n, executionID, priv)
}

// StartWithKey is Start for a party whose Paillier key has already been
// derived from a pre-generated prime pair (pkg/primegen), skipping the
// key-generation cost at ceremony time.
func StartWithKey(self party.Position, n int, executionID []byte, priv *paillier.PrivateKey) (round.Session, []round.OutMessage, error) {
	x := curve.RandomScalar()
	X := curve.ScalarBaseMul(x)
	ctx := schnorrContext(executionID, self, priv.N.Bytes())
	proof, err := zkschnorr.Prove(x, X, ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("auxinfo: proving knowledge: %w", err)
	}

	xb := X.CompressedBytes()
	reveal := revealMsg{
		N:      priv.N.Bytes(),
		X:      xb[:],
		ProofR: func() []byte { b := proof.R.CompressedBytes(); return b[:] }(),
		ProofS: proof.S.Bytes(),
	}
	revealBytes, err := commitPayload(reveal)
	if err != nil {
		return nil, nil, fmt.Errorf("auxinfo: marshaling reveal: %w", err)
	}
	c, err := commitment.Commit(revealBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("auxinfo: committing: %w", err)
	}
	reveal.Salt = c.Salt

	r1 := &Round1{
		self:    self,
		n:       n,
		eid:     executionID,
		priv:    priv,
		reveal:  reveal,
		salt:    c.Salt,
		tracker: broadcast.NewTracker(self, n),
	}

	out, err := r1.broadcastOriginal(self, c.C)
	if err != nil {
		return nil, nil, err
	}
	return r1, out, nil
}

func (r *Round1) broadcastOriginal(sender party.Position, commitHash []byte) ([]round.OutMessage, error) {
	recipients, _, err := r.tracker.StoreOriginal(sender, commitHash)
	if err != nil {
		return nil, err
	}
	msg := wireMsg{Kind: "original", Sender: sender, Hash: commitHash}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	out := []round.OutMessage{{Broadcast: true, Payload: payload}}
	for _, to := range recipients {
		to := to
		echo := wireMsg{Kind: "echo", Sender: sender, Hash: commitHash}
		echoPayload, err := json.Marshal(echo)
		if err != nil {
			return nil, err
		}
		out = append(out, round.OutMessage{To: &to, Payload: echoPayload})
	}
	return out, nil
}

func (r *Round1) Number() round.Number          { return 1 }
func (r *Round1) N() int                        { return r.n }
func (r *Round1) SelfID() party.Position        { return r.self }
func (r *Round1) IsBroadcastRound() bool        { return true }

func (r *Round1) StoreMessage(sender party.Position, broadcastFlag bool, payload []byte) error {
	m, err := unmarshalWire(payload)
	if err != nil {
		return err
	}
	switch m.Kind {
	case "original":
		if m.Sender != sender {
			return fmt.Errorf("auxinfo round1: sender mismatch")
		}
		if _, _, err := r.tracker.StoreOriginal(sender, m.Hash); err != nil {
			return err
		}
	case "echo":
		h, err := fromHash(m.Hash)
		if err != nil {
			return err
		}
		if err := r.tracker.StoreEcho(m.Sender, sender, h); err != nil {
			return err
		}
	default:
		return fmt.Errorf("auxinfo round1: unknown message kind %q", m.Kind)
	}
	return nil
}

// DrainImmediate echoes a newly-arrived original commitment to every
// party besides the original sender and self, the instant it arrives —
// not once it is confirmed, which is what the echo exists to do.
func (r *Round1) DrainImmediate() []round.OutMessage {
	var out []round.OutMessage
	for p := party.Position(0); int(p) < r.n; p++ {
		if p == r.self {
			continue
		}
		if !r.tracker.HasOriginal(p) {
			continue
		}
		if r.echoed == nil {
			r.echoed = make(map[party.Position]bool)
		}
		if r.echoed[p] {
			continue
		}
		r.echoed[p] = true
		hash := broadcast.Sum(r.tracker.Payload(p))
		for q := party.Position(0); int(q) < r.n; q++ {
			if q == r.self || q == p {
				continue
			}
			q := q
			echo := wireMsg{Kind: "echo", Sender: p, Hash: toHash(hash)}
			payload, _ := json.Marshal(echo)
			out = append(out, round.OutMessage{To: &q, Payload: payload})
		}
	}
	return out
}

func (r *Round1) Ready() bool { return r.tracker.ReadyAll() }

func (r *Round1) Finalize() (round.Session, []round.OutMessage, error) {
	r2 := &Round2{
		self:   r.self,
		n:      r.n,
		eid:    r.eid,
		priv:   r.priv,
		reveal: r.reveal,
		commitHashes: func() map[party.Position][]byte {
			m := make(map[party.Position][]byte)
			for p := party.Position(0); int(p) < r.n; p++ {
				if p == r.self {
					continue
				}
				m[p] = r.tracker.Payload(p)
			}
			return m
		}(),
		revealed: make(map[party.Position]revealMsg),
	}
	revealBytes, err := json.Marshal(r.reveal)
	if err != nil {
		return nil, nil, err
	}
	out := []round.OutMessage{{Broadcast: true, Payload: mustWrap(r.self, revealBytes)}}
	return r2, out, nil
}

func mustWrap(sender party.Position, body []byte) []byte {
	m := wireMsg{Kind: "original", Sender: sender, Body: body}
	b, _ := json.Marshal(m)
	return b
}

func schnorrContext(eid []byte, self party.Position, n []byte) []byte {
	ctx := make([]byte, 0, len(eid)+2+len(n))
	ctx = append(ctx, eid...)
	ctx = append(ctx, byte(self>>8), byte(self))
	ctx = append(ctx, n...)
	return ctx
}
