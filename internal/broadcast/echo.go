// Package broadcast implements reliable-broadcast echo verification: a
// party that receives another party's broadcast value immediately
// relays (echoes) its hash to every other party, and only accepts the
// value once every echo agrees. This defeats a sender that tries to
// equivocate by broadcasting different values to different peers.
//
// Grounded on the broadcastHashes/checkBroadcastHash bookkeeping in
// luxfi-threshold's pkg/protocol/handler.go, adapted from that
// package's channel-based MultiHandler into the synchronous,
// single-threaded StoreMessage/DrainImmediate shape pkg/round uses.
package broadcast

import (
	"crypto/sha256"
	"fmt"

	"github.com/luxfi/cggmp-signer/pkg/party"
)

// Hash is a broadcast payload's digest, as relayed in an echo.
type Hash [32]byte

// Sum returns the digest of payload.
func Sum(payload []byte) Hash { return sha256.Sum256(payload) }

// Tracker accumulates one round's worth of broadcast originals and
// echoes for a fixed set of n parties.
type Tracker struct {
	self   party.Position
	n      int
	direct map[party.Position][]byte
	hashes map[party.Position]Hash
	echoes map[party.Position]map[party.Position]Hash
}

// NewTracker returns a Tracker for a group of n parties, this party
// occupying position self.
func NewTracker(self party.Position, n int) *Tracker {
	return &Tracker{
		self:   self,
		n:      n,
		direct: make(map[party.Position][]byte),
		hashes: make(map[party.Position]Hash),
		echoes: make(map[party.Position]map[party.Position]Hash),
	}
}

// StoreOriginal records sender's direct broadcast payload. It returns
// the set of peers this party must immediately echo sender's hash to
// (every party except sender and self); for this party's own broadcast
// (sender == self) that set is empty, since only received broadcasts
// are echoed.
func (t *Tracker) StoreOriginal(sender party.Position, payload []byte) ([]party.Position, Hash, error) {
	if _, ok := t.direct[sender]; ok {
		return nil, Hash{}, fmt.Errorf("broadcast: duplicate original from %s", sender)
	}
	h := Sum(payload)
	t.direct[sender] = payload
	t.hashes[sender] = h
	if err := t.crossCheck(sender); err != nil {
		return nil, h, err
	}

	var recipients []party.Position
	if sender == t.self {
		return recipients, h, nil
	}
	for p := party.Position(0); int(p) < t.n; p++ {
		if p != sender && p != t.self {
			recipients = append(recipients, p)
		}
	}
	return recipients, h, nil
}

// StoreEcho records echoer's report of sender's hash.
func (t *Tracker) StoreEcho(sender, echoer party.Position, h Hash) error {
	if t.echoes[sender] == nil {
		t.echoes[sender] = make(map[party.Position]Hash)
	}
	if prev, ok := t.echoes[sender][echoer]; ok && prev != h {
		return fmt.Errorf("broadcast: %s sent conflicting echoes for %s", echoer, sender)
	}
	t.echoes[sender][echoer] = h
	return t.crossCheck(sender)
}

func (t *Tracker) crossCheck(sender party.Position) error {
	want, ok := t.hashes[sender]
	if !ok {
		return nil
	}
	for echoer, h := range t.echoes[sender] {
		if h != want {
			return fmt.Errorf("broadcast: equivocation detected for sender %s (echo from %s disagrees)", sender, echoer)
		}
	}
	return nil
}

// Accepted reports whether sender's direct broadcast has been confirmed
// by every other party's echo.
func (t *Tracker) Accepted(sender party.Position) bool {
	if _, ok := t.direct[sender]; !ok {
		return false
	}
	want := t.n - 2 // every party other than sender and self
	if want < 0 {
		want = 0
	}
	return len(t.echoes[sender]) >= want
}

// Payload returns sender's accepted direct payload, or nil if not yet stored.
func (t *Tracker) Payload(sender party.Position) []byte { return t.direct[sender] }

// HasOriginal reports whether sender's direct broadcast has been
// stored, regardless of whether its echoes have yet confirmed it. A
// round uses this (not Accepted) to decide when to relay its own echo:
// echoing must happen the instant the original arrives, not once it is
// already confirmed.
func (t *Tracker) HasOriginal(sender party.Position) bool {
	_, ok := t.direct[sender]
	return ok
}

// ReadyAll reports whether every other party's contribution has been accepted.
func (t *Tracker) ReadyAll() bool {
	for p := party.Position(0); int(p) < t.n; p++ {
		if p == t.self {
			continue
		}
		if !t.Accepted(p) {
			return false
		}
	}
	return true
}
