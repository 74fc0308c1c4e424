package keygen

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/cggmp-signer/internal/broadcast"
	"github.com/luxfi/cggmp-signer/internal/curve"
	"github.com/luxfi/cggmp-signer/internal/polynomial"
	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/round"
)

// Round1 broadcasts this party's Feldman coefficient commitments under
// reliable-broadcast echo discipline, the same tracker protocols/auxinfo
// uses, so no party can show different commitments to different peers.
type Round1 struct {
	self      party.Position
	n         int
	threshold int

	poly        *polynomial.Polynomial
	commitments []byte // this party's commitMsg, JSON-encoded, committed verbatim

	tracker *broadcast.Tracker
	echoed  map[party.Position]bool

	peerCommitments map[party.Position][]byte
}

// Start samples a fresh degree-(threshold-1) polynomial and returns the
// first round together with the commitment broadcast it must emit
// before it can receive anything.
func Start(self party.Position, n, threshold int) (round.Session, []round.OutMessage, error) {
	if threshold < 1 || threshold > n {
		return nil, nil, fmt.Errorf("keygen: threshold %d invalid for %d parties", threshold, n)
	}
	poly := polynomial.New(threshold-1, nil)
	commits := encodeCommitments(poly.Commitments())
	body, err := json.Marshal(commits)
	if err != nil {
		return nil, nil, fmt.Errorf("keygen: marshaling commitments: %w", err)
	}

	r1 := &Round1{
		self:            self,
		n:               n,
		threshold:       threshold,
		poly:            poly,
		commitments:     body,
		tracker:         broadcast.NewTracker(self, n),
		peerCommitments: make(map[party.Position][]byte),
	}

	out, err := r1.broadcastOriginal(self, body)
	if err != nil {
		return nil, nil, err
	}
	r1.peerCommitments[self] = body
	return r1, out, nil
}

func (r *Round1) broadcastOriginal(sender party.Position, body []byte) ([]round.OutMessage, error) {
	h := broadcast.Sum(body)
	recipients, _, err := r.tracker.StoreOriginal(sender, h[:])
	if err != nil {
		return nil, err
	}
	msg := wireMsg{Kind: "original", Sender: sender, Body: body}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	out := []round.OutMessage{{Broadcast: true, Payload: payload}}
	for _, to := range recipients {
		to := to
		echo := wireMsg{Kind: "echo", Sender: sender, Hash: h[:]}
		echoPayload, err := json.Marshal(echo)
		if err != nil {
			return nil, err
		}
		out = append(out, round.OutMessage{To: &to, Payload: echoPayload})
	}
	return out, nil
}

func (r *Round1) Number() round.Number               { return 1 }
func (r *Round1) N() int                             { return r.n }
func (r *Round1) SelfID() party.Position             { return r.self }
func (r *Round1) IsBroadcastRound() bool             { return true }

func (r *Round1) StoreMessage(sender party.Position, broadcastFlag bool, payload []byte) error {
	m, err := unmarshalWire(payload)
	if err != nil {
		return err
	}
	switch m.Kind {
	case "original":
		if m.Sender != sender {
			return fmt.Errorf("keygen round1: sender mismatch")
		}
		h := broadcast.Sum(m.Body)
		if _, _, err := r.tracker.StoreOriginal(sender, h[:]); err != nil {
			return err
		}
		r.peerCommitments[sender] = m.Body
	case "echo":
		h, err := fromHash(m.Hash)
		if err != nil {
			return err
		}
		if err := r.tracker.StoreEcho(m.Sender, sender, h); err != nil {
			return err
		}
	default:
		return fmt.Errorf("keygen round1: unknown message kind %q", m.Kind)
	}
	return nil
}

// DrainImmediate echoes a newly-arrived commitment broadcast the
// instant it is received.
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

// Finalize sends every other party its Shamir share of this party's
// polynomial, now that commitments are agreed group-wide.
func (r *Round1) Finalize() (round.Session, []round.OutMessage, error) {
	commitments := make(map[party.Position][]*curve.Point, r.n)
	for p, body := range r.peerCommitments {
		var m commitMsg
		if err := json.Unmarshal(body, &m); err != nil {
			return nil, nil, fmt.Errorf("keygen round1: decoding %s's commitments: %w", p, err)
		}
		points, err := decodeCommitments(m)
		if err != nil {
			return nil, nil, err
		}
		commitments[p] = points
	}

	ownX := curve.NewScalar().SetNat(r.self.Nat())
	ownShare := r.poly.Evaluate(ownX)

	r2 := &Round2{
		self:        r.self,
		n:           r.n,
		threshold:   r.threshold,
		commitments: commitments,
		shares:      map[party.Position]*curve.Scalar{r.self: ownShare},
	}

	var out []round.OutMessage
	for p := party.Position(0); int(p) < r.n; p++ {
		if p == r.self {
			continue
		}
		x := curve.NewScalar().SetNat(p.Nat())
		share := r.poly.Evaluate(x)
		body, err := json.Marshal(shareMsg{Value: share.Bytes()})
		if err != nil {
			return nil, nil, err
		}
		msg := wireMsg{Kind: "share", Sender: r.self, Body: body}
		payload, err := json.Marshal(msg)
		if err != nil {
			return nil, nil, err
		}
		p := p
		out = append(out, round.OutMessage{To: &p, Payload: payload})
	}
	return r2, out, nil
}
