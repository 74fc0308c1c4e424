package sign

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/luxfi/cggmp-signer/internal/broadcast"
	"github.com/luxfi/cggmp-signer/internal/curve"
	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/round"
)

// Round2 reveals this party's nonce point and the nonce itself,
// verified against Round1's reliably-broadcast commitment hash and
// against the point-nonce relationship R_i = k_i*G.
type Round2 struct {
	round.NoImmediate

	self         party.Position
	n            int
	participants []party.Index
	keyShare     *curve.Scalar
	message      *curve.Scalar
	lambda       *curve.Scalar

	nonce *curve.Scalar
	point *curve.Point

	commitHashes map[party.Position][]byte
	points       map[party.Position]*curve.Point
	nonces       map[party.Position]*curve.Scalar
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
		return fmt.Errorf("sign round2: malformed reveal from %s", sender)
	}
	if _, ok := r.points[sender]; ok {
		return fmt.Errorf("sign round2: duplicate reveal from %s", sender)
	}

	var reveal revealMsg
	if err := json.Unmarshal(m.Body, &reveal); err != nil {
		return fmt.Errorf("sign round2: malformed reveal body: %w", err)
	}
	wantHash, ok := r.commitHashes[sender]
	if !ok {
		return fmt.Errorf("sign round2: no commitment on file for %s", sender)
	}
	commitBody, err := json.Marshal(struct {
		Point []byte `json:"point"`
	}{reveal.Point})
	if err != nil {
		return err
	}
	h := broadcast.Sum(commitBody)
	if !bytes.Equal(h[:], wantHash) {
		return fmt.Errorf("sign round2: %s's reveal does not match its round1 commitment", sender)
	}

	R, err := curve.ParseCompressed(reveal.Point)
	if err != nil {
		return fmt.Errorf("sign round2: %s sent a malformed nonce point: %w", sender, err)
	}
	k := curve.SetBytesModOrder(reveal.Nonce)
	if !curve.ScalarBaseMul(k).Equal(R) {
		return fmt.Errorf("sign round2: %s's revealed nonce does not match its committed point", sender)
	}

	r.points[sender] = R
	r.nonces[sender] = k
	return nil
}

func (r *Round2) Ready() bool { return len(r.points) == r.n }

func (r *Round2) Finalize() (round.Session, []round.OutMessage, error) {
	R := curve.NewPoint()
	k := curve.NewScalar()
	for p := party.Position(0); int(p) < r.n; p++ {
		R = R.Add(r.points[p])
		k = k.Add(r.nonces[p])
	}
	rScalar := R.XScalar()
	kInv := k.Invert()

	si := kInv.Mul(r.lambda).Mul(r.message.Add(rScalar.Mul(r.keyShare)))

	r3 := &Round3{
		self:     r.self,
		n:        r.n,
		rScalar:  rScalar,
		partials: map[party.Position]*curve.Scalar{r.self: si},
	}
	body, err := json.Marshal(partialMsg{Value: si.Bytes()})
	if err != nil {
		return nil, nil, err
	}
	msg := wireMsg{Kind: "partial", Sender: r.self, Body: body}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, nil, err
	}
	return r3, []round.OutMessage{{Broadcast: true, Payload: payload}}, nil
}
