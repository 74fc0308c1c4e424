// Package auxinfo implements the aux-info generation phase: every party
// mints a fresh Paillier keypair and proves, via a Schnorr proof of
// knowledge bound to the keypair's modulus, that it actually generated
// it for this ceremony rather than replaying material from another one.
// The phase is a commit/reveal/finalize three-round protocol.
package auxinfo

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/cggmp-signer/internal/broadcast"
	"github.com/luxfi/cggmp-signer/internal/paillier"
	"github.com/luxfi/cggmp-signer/pkg/party"
)

// PartyInfo is one party's published aux-info contribution: its Paillier
// modulus and the Schnorr proof binding it to this ceremony.
type PartyInfo struct {
	N     []byte `json:"n"`
	X     []byte `json:"x"` // compressed point, the proof's public value
	ProofR []byte `json:"proof_r"`
	ProofS []byte `json:"proof_s"`
}

// Output is the terminal result of the aux-info phase: every party's
// published modulus and proof, plus this party's own Paillier private
// key, keyed by each party's position in the aux-info run. It marshals directly to the
// `aux_info` opaque blob the wire format carries as base64(json).
type Output struct {
	Parties map[party.Position]PartyInfo `json:"parties"`
	Private *paillier.PrivateKey        `json:"private"`
}

func (o *Output) Output() interface{} { return o }

type revealMsg struct {
	N      []byte `json:"n"`
	X      []byte `json:"x"`
	ProofR []byte `json:"proof_r"`
	ProofS []byte `json:"proof_s"`
	Salt   []byte `json:"salt"`
}

type wireMsg struct {
	Kind   string          `json:"kind"` // "original" | "echo"
	Sender party.Position  `json:"sender"`
	Hash   []byte          `json:"hash,omitempty"`
	Body   json.RawMessage `json:"body,omitempty"`
}

func unmarshalWire(payload []byte) (wireMsg, error) {
	var m wireMsg
	if err := json.Unmarshal(payload, &m); err != nil {
		return wireMsg{}, fmt.Errorf("auxinfo: malformed message: %w", err)
	}
	return m, nil
}

func toHash(h broadcast.Hash) []byte {
	out := make([]byte, len(h))
	copy(out, h[:])
	return out
}

func fromHash(b []byte) (broadcast.Hash, error) {
	var h broadcast.Hash
	if len(b) != len(h) {
		return h, fmt.Errorf("auxinfo: malformed hash")
	}
	copy(h[:], b)
	return h, nil
}

// committedFields is exactly the subset of revealMsg that gets hashed
// into the round1 commitment; Salt is generated by commitment.Commit
// itself and is never part of the committed content, so it is excluded
// here rather than left to accidentally vary between commit and verify.
type committedFields struct {
	N      []byte `json:"n"`
	X      []byte `json:"x"`
	ProofR []byte `json:"proof_r"`
	ProofS []byte `json:"proof_s"`
}

func commitPayload(rv revealMsg) ([]byte, error) {
	return json.Marshal(committedFields{N: rv.N, X: rv.X, ProofR: rv.ProofR, ProofS: rv.ProofS})
}
