// Package commitment implements the salted hash commit/decommit scheme
// the aux-info phase uses to commit to a Paillier public key and its
// Schnorr proof before any party reveals the underlying value.
package commitment

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/sha3"
)

// SaltSize is the size, in bytes, of the decommitment randomness.
const SaltSize = 32

// Commitment is C = H(salt || data...); Salt is kept by the committer
// until the reveal round.
type Commitment struct {
	C    []byte
	Salt []byte
}

// Commit hashes salt||parts... with SHA3-256, generating a fresh random
// salt.
func Commit(parts ...[]byte) (*Commitment, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	h := sha3.New256()
	h.Write(salt)
	for _, p := range parts {
		h.Write(p)
	}
	return &Commitment{C: h.Sum(nil), Salt: salt}, nil
}

// Verify recomputes H(salt||parts...) and compares it against c in
// constant time.
func Verify(c, salt []byte, parts ...[]byte) error {
	if len(c) != 32 || len(salt) != SaltSize {
		return errors.New("commitment: malformed commitment or salt")
	}
	h := sha3.New256()
	h.Write(salt)
	for _, p := range parts {
		h.Write(p)
	}
	got := h.Sum(nil)
	if subtle.ConstantTimeCompare(got, c) != 1 {
		return errors.New("commitment: decommitment does not match")
	}
	return nil
}
