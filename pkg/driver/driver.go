// Package driver wraps a single party's protocol state machine behind
// an object-safe facade. The state machine's concrete type is produced
// by a generic protocol package (protocols/auxinfo, protocols/keygen,
// protocols/sign) and is never named here — only pkg/round.Session is.
// This is what lets pkg/session hold a heterogeneous map of drivers for
// different protocols and ceremony phases side by side.
package driver

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/luxfi/cggmp-signer/internal/curve"
	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/round"
)

// MessageKind distinguishes a broadcast message from a point-to-point one.
type MessageKind int

const (
	Broadcast MessageKind = iota
	P2P
)

// OutcomeKind is the tag of a DriveOutcome.
type OutcomeKind int

const (
	// SendMsg: the state machine wants to emit a message.
	SendMsg OutcomeKind = iota
	// NeedsInput: the state machine is blocked awaiting a message.
	NeedsInput
	// Yielded: the state machine made internal progress; keep driving.
	Yielded
	// Finished: terminal; Output is delivered once and never again.
	Finished
)

// SentMessage is a single outgoing message produced by driving the state
// machine one step, labeled with this party's position as sender.
type SentMessage struct {
	From      party.Position
	Kind      MessageKind
	Recipient party.Position // valid only when Kind == P2P
	Payload   []byte
}

// DriveOutcome is the sum type drive_one returns.
type DriveOutcome struct {
	Kind   OutcomeKind
	Msg    *SentMessage // set iff Kind == SendMsg
	Output interface{}  // set iff Kind == Finished
}

// Auxiliary bundles the collaborators a state machine builder captures
// by reference: the execution id, the combined key share, the RNG, the
// prehashed scalar (signing only), and the party position list. These
// must outlive the round.Session built from them; Driver owns all five
// on the heap and guarantees the destruction order documented on Close.
type Auxiliary struct {
	ExecutionID []byte
	KeyShare    interface{} // *protocols/keygen.CoreKeyShare + AuxInfo, or nil during keygen itself
	RNG         io.Reader
	Prehashed   *curve.Scalar // nil outside the signing protocol
	Parties     []party.Position
}

// Driver owns one party's state machine plus its Auxiliary collaborators.
//
// Destruction order matters: the builder that produced `round` captured
// references into `aux`, so `round` must be released before `aux` is.
// Close enforces this explicitly rather than relying on field
// declaration order and garbage collection timing.
type Driver struct {
	self party.Position
	n    int
	rnd  round.Session
	aux  *Auxiliary
	done bool
	out  []round.OutMessage
}

// New wraps an already-constructed first round together with the
// auxiliary collaborators its builder closed over. initialOut carries
// any messages the first round must emit before it can receive
// anything (e.g. a commit round's own broadcast), queued ahead of
// whatever StoreMessage/Finalize later produce.
func New(self party.Position, n int, first round.Session, aux *Auxiliary, initialOut []round.OutMessage) *Driver {
	if aux.RNG == nil {
		aux.RNG = rand.Reader
	}
	return &Driver{self: self, n: n, rnd: first, aux: aux, out: append([]round.OutMessage(nil), initialOut...)}
}

// DriveOne advances the state machine by one observable step.
func (d *Driver) DriveOne() (DriveOutcome, error) {
	if d.rnd == nil {
		// Close has already run, or Finished was already reported once.
		return DriveOutcome{Kind: NeedsInput}, nil
	}

	if len(d.out) > 0 {
		m := d.out[0]
		d.out = d.out[1:]
		return DriveOutcome{Kind: SendMsg, Msg: d.label(m)}, nil
	}

	if result, ok := d.rnd.(round.Result); ok {
		output := result.Output()
		d.finish()
		return DriveOutcome{Kind: Finished, Output: output}, nil
	}

	if !d.rnd.Ready() {
		return DriveOutcome{Kind: NeedsInput}, nil
	}

	next, out, err := d.rnd.Finalize()
	if err != nil {
		return DriveOutcome{}, fmt.Errorf("driver: round %d: %w", d.rnd.Number(), err)
	}
	d.out = append(d.out, out...)
	d.rnd = next
	return DriveOutcome{Kind: Yielded}, nil
}

// Receive delivers one incoming message to the state machine. Per the
// reliable-broadcast echo discipline (§4.4/§9), any echo the round wants
// to emit as an immediate side effect of this delivery is queued for the
// very next DriveOne call.
func (d *Driver) Receive(sender party.Position, kind MessageKind, payload []byte) error {
	if d.rnd == nil {
		return fmt.Errorf("driver: cannot receive, protocol already finished")
	}
	if err := d.rnd.StoreMessage(sender, kind == Broadcast, payload); err != nil {
		return fmt.Errorf("driver: rejected message from %s: %w", sender, err)
	}
	d.out = append(d.out, d.rnd.DrainImmediate()...)
	return nil
}

func (d *Driver) label(m round.OutMessage) *SentMessage {
	sm := &SentMessage{From: d.self, Payload: m.Payload}
	if m.Broadcast {
		sm.Kind = Broadcast
	} else {
		sm.Kind = P2P
		sm.Recipient = *m.To
	}
	return sm
}

// finish tears down the state machine before its auxiliary
// collaborators, matching the order the builder's captured references
// require: the machine must never outlive what it borrowed from.
func (d *Driver) finish() {
	d.rnd = nil
	d.done = true
}

// Close releases the driver's state machine and then its auxiliary
// collaborators, in that order, regardless of whether the protocol
// completed. Safe to call more than once.
func (d *Driver) Close() {
	d.rnd = nil
	if d.aux != nil {
		d.aux.KeyShare = nil
		d.aux.Prehashed = nil
		d.aux.ExecutionID = nil
		d.aux.Parties = nil
		d.aux.RNG = nil
		d.aux = nil
	}
}

// Done reports whether the protocol has already produced its result.
func (d *Driver) Done() bool { return d.done }

// N returns the number of parties participating in this run.
func (d *Driver) N() int { return d.n }

// SelfID returns this party's position within the group.
func (d *Driver) SelfID() party.Position { return d.self }
