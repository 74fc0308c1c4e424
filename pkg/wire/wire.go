// Package wire defines the bit-exact JSON records exchanged at the
// stdio/host boundary: the signing loop's init and round records, the
// orchestrator's DKG output records, and the EnvelopeMsg carrier every
// protocol message travels in. Every opaque blob field (core_share,
// aux_info, payload) is base64 of a JSON value; every 32/33-byte field
// is hex.
package wire

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// EnvelopeMsg is the wire-format carrier of one protocol message.
// Recipient is nil for a broadcast message.
type EnvelopeMsg struct {
	Sender      uint16  `json:"sender"`
	IsBroadcast bool    `json:"is_broadcast"`
	Recipient   *uint16 `json:"recipient,omitempty"`
	Payload     string  `json:"payload"`
}

// DkgShare is one party's DKG output: its core key share and aux-info,
// each an opaque base64(json) blob.
type DkgShare struct {
	CoreShare string `json:"core_share"`
	AuxInfo   string `json:"aux_info"`
}

// DkgOutput is the result of running the ceremony orchestrator.
type DkgOutput struct {
	Shares    []DkgShare `json:"shares"`
	PublicKey string     `json:"public_key"` // hex, 33 bytes (SEC1 compressed)
}

// AuxInfoOutput is a batch of pre-generated aux-info blobs, as produced
// by `gen-aux` and consumed by `dkg-with-aux`.
type AuxInfoOutput struct {
	AuxInfos []string `json:"aux_infos"`
	N        int      `json:"n"`
}

// SignInit is the first line a signing session reads from stdin.
type SignInit struct {
	CoreShare       string   `json:"core_share"`
	AuxInfo         string   `json:"aux_info"`
	MessageHash     string   `json:"message_hash"` // hex, 32 bytes
	PartyIndex      uint16   `json:"party_index"`
	PartiesAtKeygen []uint16 `json:"parties_at_keygen"`
	Eid             string   `json:"eid"` // hex, 32 bytes
}

// SignOutput is emitted once per init/round of a signing session.
type SignOutput struct {
	Messages []EnvelopeMsg `json:"messages"`
	Complete bool          `json:"complete"`
	R        *string       `json:"r,omitempty"` // hex, 32 bytes
	S        *string       `json:"s,omitempty"` // hex, 32 bytes
}

// EncodeBlob base64-encodes the JSON encoding of v, the shape the
// core_share and aux_info blob fields take on the wire.
func EncodeBlob(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("wire: encoding blob: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeBlob is the inverse of EncodeBlob.
func DecodeBlob(s string, v interface{}) error {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("wire: malformed base64 blob: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("wire: malformed blob JSON: %w", err)
	}
	return nil
}

// EncodeRawBlob base64-encodes b directly, for fields (EnvelopeMsg's
// Payload) that are already an opaque byte string rather than a value
// needing its own JSON encoding first.
func EncodeRawBlob(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// DecodeRawBlob is the inverse of EncodeRawBlob.
func DecodeRawBlob(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("wire: malformed base64 payload: %w", err)
	}
	return b, nil
}

// EncodeHex hex-encodes b.
func EncodeHex(b []byte) string { return hex.EncodeToString(b) }

// DecodeHexFixed hex-decodes s and rejects anything but exactly
// wantLen bytes, the shape every fixed-size wire field (message_hash,
// eid, r, s, public_key) requires.
func DecodeHexFixed(s string, wantLen int) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("wire: malformed hex: %w", err)
	}
	if len(b) != wantLen {
		return nil, fmt.Errorf("wire: expected %d bytes, got %d", wantLen, len(b))
	}
	return b, nil
}
