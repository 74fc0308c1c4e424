// Package keygen implements joint Feldman verifiable secret sharing:
// every party contributes a random polynomial, the group's combined
// public key is the sum of every party's polynomial's constant-term
// commitment, and each party's final private share is the sum of the
// per-polynomial shares it was sent. Round1 broadcasts commitments
// (reliable-broadcast echoed, as in protocols/auxinfo); Round2 carries
// the point-to-point Shamir shares and verifies them against those
// commitments; Round3 is the terminal combine.
package keygen

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/cggmp-signer/internal/broadcast"
	"github.com/luxfi/cggmp-signer/internal/curve"
	"github.com/luxfi/cggmp-signer/pkg/party"
)

// Output is the terminal result of a keygen run: the group's combined
// public key, this party's combined private share, and every party's
// published coefficient commitments (pkg/signloop recovers the signing
// threshold from their length).
type Output struct {
	PublicKey   *curve.Point
	Share       *curve.Scalar
	Commitments map[party.Position][]*curve.Point
}

func (o *Output) Output() interface{} { return o }

// outputWire is the wire-safe shape of Output: curve.Point/curve.Scalar
// carry no exported fields, so Output marshals through this instead of
// relying on encoding/json's struct reflection.
type outputWire struct {
	PublicKey   []byte                    `json:"public_key"`
	Share       []byte                    `json:"share"`
	Commitments map[party.Position][][]byte `json:"commitments"`
}

// MarshalJSON renders Output as the `core_share` opaque blob the wire
// format carries as base64(json).
func (o *Output) MarshalJSON() ([]byte, error) {
	pk := o.PublicKey.CompressedBytes()
	w := outputWire{
		PublicKey:   append([]byte(nil), pk[:]...),
		Share:       o.Share.Bytes(),
		Commitments: make(map[party.Position][][]byte, len(o.Commitments)),
	}
	for pos, pts := range o.Commitments {
		enc := make([][]byte, len(pts))
		for i, p := range pts {
			b := p.CompressedBytes()
			enc[i] = append([]byte(nil), b[:]...)
		}
		w.Commitments[pos] = enc
	}
	return json.Marshal(w)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (o *Output) UnmarshalJSON(data []byte) error {
	var w outputWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("keygen: decoding core share: %w", err)
	}
	pk, err := curve.ParseCompressed(w.PublicKey)
	if err != nil {
		return fmt.Errorf("keygen: decoding core share public key: %w", err)
	}
	o.PublicKey = pk
	o.Share = curve.SetBytesModOrder(w.Share)
	o.Commitments = make(map[party.Position][]*curve.Point, len(w.Commitments))
	for pos, pts := range w.Commitments {
		dec := make([]*curve.Point, len(pts))
		for i, b := range pts {
			p, err := curve.ParseCompressed(b)
			if err != nil {
				return fmt.Errorf("keygen: decoding core share commitment %d for %s: %w", i, pos, err)
			}
			dec[i] = p
		}
		o.Commitments[pos] = dec
	}
	return nil
}

type commitMsg struct {
	Points [][]byte `json:"points"` // compressed coefficient commitments, low-degree first
}

type shareMsg struct {
	Value []byte `json:"value"` // the Shamir share f_self(recipient), 32-byte scalar
}

type wireMsg struct {
	Kind   string          `json:"kind"` // "original" | "echo" | "share"
	Sender party.Position  `json:"sender"`
	Hash   []byte          `json:"hash,omitempty"`
	Body   json.RawMessage `json:"body,omitempty"`
}

func unmarshalWire(payload []byte) (wireMsg, error) {
	var m wireMsg
	if err := json.Unmarshal(payload, &m); err != nil {
		return wireMsg{}, fmt.Errorf("keygen: malformed message: %w", err)
	}
	return m, nil
}

func fromHash(b []byte) (broadcast.Hash, error) {
	var h broadcast.Hash
	if len(b) != len(h) {
		return h, fmt.Errorf("keygen: malformed hash")
	}
	copy(h[:], b)
	return h, nil
}

func decodeCommitments(m commitMsg) ([]*curve.Point, error) {
	out := make([]*curve.Point, len(m.Points))
	for i, b := range m.Points {
		p, err := curve.ParseCompressed(b)
		if err != nil {
			return nil, fmt.Errorf("keygen: malformed commitment point %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

func encodeCommitments(points []*curve.Point) commitMsg {
	out := make([][]byte, len(points))
	for i, p := range points {
		b := p.CompressedBytes()
		out[i] = append([]byte(nil), b[:]...)
	}
	return commitMsg{Points: out}
}
