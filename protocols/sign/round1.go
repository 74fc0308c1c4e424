package sign

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/cggmp-signer/internal/broadcast"
	"github.com/luxfi/cggmp-signer/internal/curve"
	"github.com/luxfi/cggmp-signer/internal/polynomial"
	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/round"
)

// Round1 broadcasts, under reliable-broadcast echo discipline, a
// commitment to this party's ephemeral nonce point R_i = k_i*G.
type Round1 struct {
	self        party.Position
	n           int
	participants []party.Index // participants[pos] is the keygen index at signing position pos
	keyShare    *curve.Scalar
	message     *curve.Scalar
	lambda      *curve.Scalar

	nonce *curve.Scalar
	point *curve.Point
	salt  []byte

	tracker *broadcast.Tracker
	echoed  map[party.Position]bool

	commitHashes map[party.Position][]byte
}

// Start samples this party's nonce and returns the first round together
// with the commitment broadcast it must emit before it can receive
// anything. participants[pos] is the keygen index of the cosigner
// occupying signing position pos; self is this party's own position.
func Start(self party.Position, participants []party.Index, keyShare, message *curve.Scalar) (round.Session, []round.OutMessage, error) {
	n := len(participants)
	if int(self) >= n {
		return nil, nil, fmt.Errorf("sign: self position %d out of range for %d participants", self, n)
	}
	lambdas := polynomial.Lagrange(participants)
	lambda := lambdas[participants[self]]

	k := curve.RandomScalar()
	R := curve.ScalarBaseMul(k)
	rb := R.CompressedBytes()
	commitBytes, err := json.Marshal(struct {
		Point []byte `json:"point"`
	}{rb[:]})
	if err != nil {
		return nil, nil, err
	}

	r1 := &Round1{
		self:         self,
		n:            n,
		participants: append([]party.Index(nil), participants...),
		keyShare:     keyShare,
		message:      message,
		lambda:       lambda,
		nonce:        k,
		point:        R,
		tracker:      broadcast.NewTracker(self, n),
		commitHashes: make(map[party.Position][]byte),
	}

	h := broadcast.Sum(commitBytes)
	out, err := r1.broadcastOriginal(self, h[:])
	if err != nil {
		return nil, nil, err
	}
	r1.commitHashes[self] = h[:]
	return r1, out, nil
}

func (r *Round1) broadcastOriginal(sender party.Position, hash []byte) ([]round.OutMessage, error) {
	recipients, _, err := r.tracker.StoreOriginal(sender, hash)
	if err != nil {
		return nil, err
	}
	msg := wireMsg{Kind: "original", Sender: sender, Hash: hash}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	out := []round.OutMessage{{Broadcast: true, Payload: payload}}
	for _, to := range recipients {
		to := to
		echo := wireMsg{Kind: "echo", Sender: sender, Hash: hash}
		echoPayload, err := json.Marshal(echo)
		if err != nil {
			return nil, err
		}
		out = append(out, round.OutMessage{To: &to, Payload: echoPayload})
	}
	return out, nil
}

func (r *Round1) Number() round.Number   { return 1 }
func (r *Round1) N() int                 { return r.n }
func (r *Round1) SelfID() party.Position { return r.self }
func (r *Round1) IsBroadcastRound() bool { return true }

func (r *Round1) StoreMessage(sender party.Position, broadcastFlag bool, payload []byte) error {
	m, err := unmarshalWire(payload)
	if err != nil {
		return err
	}
	switch m.Kind {
	case "original":
		if m.Sender != sender {
			return fmt.Errorf("sign round1: sender mismatch")
		}
		if _, _, err := r.tracker.StoreOriginal(sender, m.Hash); err != nil {
			return err
		}
		r.commitHashes[sender] = m.Hash
	case "echo":
		h, err := fromHash(m.Hash)
		if err != nil {
			return err
		}
		if err := r.tracker.StoreEcho(m.Sender, sender, h); err != nil {
			return err
		}
	default:
		return fmt.Errorf("sign round1: unknown message kind %q", m.Kind)
	}
	return nil
}

// DrainImmediate echoes a newly-arrived commitment the instant it is received.
func (r *Round1) DrainImmediate() []round.OutMessage {
	var out []round.OutMessage
	for p := party.Position(0); int(p) < r.n; p++ {
		if p == r.self || !r.tracker.HasOriginal(p) {
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
			echo := wireMsg{Kind: "echo", Sender: p, Hash: hash[:]}
			payload, _ := json.Marshal(echo)
			out = append(out, round.OutMessage{To: &q, Payload: payload})
		}
	}
	return out
}

func (r *Round1) Ready() bool { return r.tracker.ReadyAll() }

func (r *Round1) Finalize() (round.Session, []round.OutMessage, error) {
	r2 := &Round2{
		self:         r.self,
		n:            r.n,
		participants: r.participants,
		keyShare:     r.keyShare,
		message:      r.message,
		lambda:       r.lambda,
		nonce:        r.nonce,
		point:        r.point,
		commitHashes: r.commitHashes,
		points:       map[party.Position]*curve.Point{r.self: r.point},
		nonces:       map[party.Position]*curve.Scalar{r.self: r.nonce},
	}
	rb := r.point.CompressedBytes()
	body, err := json.Marshal(revealMsg{Point: rb[:], Nonce: r.nonce.Bytes()})
	if err != nil {
		return nil, nil, err
	}
	msg := wireMsg{Kind: "original", Sender: r.self, Body: body}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, nil, err
	}
	return r2, []round.OutMessage{{Broadcast: true, Payload: payload}}, nil
}
