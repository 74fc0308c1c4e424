// Package round defines the generic per-round contract that every
// concrete protocol phase (aux-info, keygen, sign) implements. It plays
// the role of the "unnameable generic type" in §4.1/§9 of the design:
// pkg/driver never references protocols/{auxinfo,keygen,sign} directly,
// only this interface.
package round

import "github.com/luxfi/cggmp-signer/pkg/party"

// Number is a round's 1-based position within its protocol.
type Number int

// OutMessage is a single outgoing message a round produces, either via
// Finalize (the round's normal output) or DrainImmediate (an echo
// produced the instant a broadcast is received, before the round is
// otherwise ready to finalize).
type OutMessage struct {
	// To is nil for a broadcast message, or the recipient's position
	// within the group for a point-to-point message.
	To        *party.Position
	Broadcast bool
	Payload   []byte
}

// Session is one round of a concrete protocol's state machine. A Driver
// owns exactly one Session at a time and advances through the protocol
// by repeatedly storing messages and finalizing once a round is ready.
type Session interface {
	// Number returns this round's 1-based round number.
	Number() Number
	// N returns the number of parties participating in this run.
	N() int
	// SelfID returns this party's position within the group.
	SelfID() party.Position
	// IsBroadcastRound reports whether this round expects a broadcast
	// message from every other party, and therefore requires the
	// driver to apply reliable-broadcast echo discipline.
	IsBroadcastRound() bool
	// StoreMessage records an incoming message from sender. It is an
	// error for sender to be unknown, for the payload to fail to
	// decode, or for the message to arrive out of turn.
	StoreMessage(sender party.Position, broadcast bool, payload []byte) error
	// DrainImmediate returns messages that must be sent *immediately*
	// as a side effect of the StoreMessage call that just completed
	// (reliable-broadcast echo), before the round is otherwise ready to
	// Finalize. Most rounds return nil here.
	DrainImmediate() []OutMessage
	// Ready reports whether every message this round requires (besides
	// this party's own contribution) has been stored.
	Ready() bool
	// Finalize consumes this round's state once Ready returns true,
	// producing the next round (a round that also implements Result once
	// the protocol has produced its terminal output) and the messages this
	// round emits. Finalize is called at most once per round.
	Finalize() (next Session, out []OutMessage, err error)
}

// Result is implemented by whatever Finalize returns as `next` once a
// protocol run has produced its terminal output; the driver
// type-asserts for it after each Finalize call.
type Result interface {
	Output() interface{}
}

// NoImmediate is embedded by round implementations that never need to
// echo a message the instant one is received.
type NoImmediate struct{}

// DrainImmediate implements Session.DrainImmediate as a no-op.
func (NoImmediate) DrainImmediate() []OutMessage { return nil }
