// Package sign implements threshold ECDSA signing over a fixed set of
// cosigners via commit-reveal-combine: every cosigner commits to an
// ephemeral nonce point, reveals it once all commitments are in, then
// locally produces a Lagrange-weighted partial signature that every
// cosigner broadcasts and sums. No MtA or Paillier range proofs are
// used, matching this repository's deliberately simplified aux-info
// and keygen phases; the final signature's validity is never checked
// by the protocol itself, matching the "no signature verification"
// scope decision carried through the whole signer.
package sign

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/cggmp-signer/internal/broadcast"
	"github.com/luxfi/cggmp-signer/internal/curve"
	"github.com/luxfi/cggmp-signer/pkg/party"
)

// Output is the terminal result of a signing run: the combined nonce's
// x-coordinate (r) and the summed, low-s-normalized signature scalar.
type Output struct {
	R *curve.Scalar
	S *curve.Scalar
}

func (o *Output) Output() interface{} { return o }

type revealMsg struct {
	Point []byte `json:"point"` // compressed R_i
	Nonce []byte `json:"nonce"` // k_i, 32-byte scalar
}

type partialMsg struct {
	Value []byte `json:"value"` // s_i, 32-byte scalar
}

type wireMsg struct {
	Kind   string          `json:"kind"` // "original" | "echo" | "partial"
	Sender party.Position  `json:"sender"`
	Hash   []byte          `json:"hash,omitempty"`
	Body   json.RawMessage `json:"body,omitempty"`
}

func unmarshalWire(payload []byte) (wireMsg, error) {
	var m wireMsg
	if err := json.Unmarshal(payload, &m); err != nil {
		return wireMsg{}, fmt.Errorf("sign: malformed message: %w", err)
	}
	return m, nil
}

func fromHash(b []byte) (broadcast.Hash, error) {
	var h broadcast.Hash
	if len(b) != len(h) {
		return h, fmt.Errorf("sign: malformed hash")
	}
	copy(h[:], b)
	return h, nil
}
