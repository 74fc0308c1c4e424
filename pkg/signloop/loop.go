// Package signloop drives one interactive signing session over stdio:
// one JSON line in (the init record, then one envelope batch per
// round), one JSON line out (a SignOutput) per round, until the
// session either finishes or rejects the input. It is the one-shot,
// single-process sibling of pkg/session: signloop owns exactly one
// driver for the life of the process; pkg/session indexes many.
package signloop

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/luxfi/cggmp-signer/internal/curve"
	"github.com/luxfi/cggmp-signer/pkg/driver"
	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/round"
	"github.com/luxfi/cggmp-signer/pkg/wire"
	"github.com/luxfi/cggmp-signer/protocols/auxinfo"
	"github.com/luxfi/cggmp-signer/protocols/keygen"
	"github.com/luxfi/cggmp-signer/protocols/sign"
)

// session holds everything derived from the init record, ready to
// build a driver.
type session struct {
	self         party.Position
	partyIndex   uint16
	participants []party.Index
	first        round.Session
	initialOut   []round.OutMessage
}

func newSession(init wire.SignInit) (*session, error) {
	var coreShare keygen.Output
	if err := wire.DecodeBlob(init.CoreShare, &coreShare); err != nil {
		return nil, fmt.Errorf("signloop: decoding core_share: %w", err)
	}
	// aux_info carries the Paillier material the aux-info phase produced;
	// this signer's commit-reveal-combine math never consumes it, but it
	// is still decoded to reject a malformed blob early.
	var auxInfo auxinfo.Output
	if err := wire.DecodeBlob(init.AuxInfo, &auxInfo); err != nil {
		return nil, fmt.Errorf("signloop: decoding aux_info: %w", err)
	}

	hashBytes, err := wire.DecodeHexFixed(init.MessageHash, 32)
	if err != nil {
		return nil, fmt.Errorf("signloop: message_hash: %w", err)
	}

	participants := make([]party.Index, len(init.PartiesAtKeygen))
	for i, idx := range init.PartiesAtKeygen {
		participants[i] = party.Index(idx)
	}
	self, ok := party.PositionOf(party.Index(init.PartyIndex), participants)
	if !ok {
		return nil, fmt.Errorf("signloop: party_index %d not present in parties_at_keygen", init.PartyIndex)
	}

	// The threshold isn't carried on the wire explicitly, but it's
	// recoverable from the core share: every party's polynomial
	// commitments have length threshold (degree+1), regardless of which
	// party published them.
	threshold := 0
	for _, commitments := range coreShare.Commitments {
		threshold = len(commitments)
		break
	}
	if threshold == 0 {
		return nil, fmt.Errorf("signloop: core_share carries no commitments")
	}
	if len(participants) < threshold {
		return nil, fmt.Errorf("signloop: signing group has %d parties, below threshold %d", len(participants), threshold)
	}

	message := curve.SetBytesModOrder(hashBytes)
	first, initialOut, err := sign.Start(self, participants, coreShare.Share, message)
	if err != nil {
		return nil, fmt.Errorf("signloop: starting signing round: %w", err)
	}

	return &session{
		self:         self,
		partyIndex:   init.PartyIndex,
		participants: participants,
		first:        first,
		initialOut:   initialOut,
	}, nil
}

// Run reads a SignInit line followed by zero or more envelope-batch
// lines from in, drives the signing state machine, and writes one
// SignOutput line to out per round, until the session finishes or an
// error forces an early exit.
func Run(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	enc := json.NewEncoder(out)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("signloop: reading init: %w", err)
		}
		return fmt.Errorf("signloop: missing init line")
	}
	var init wire.SignInit
	if err := json.Unmarshal(scanner.Bytes(), &init); err != nil {
		return fmt.Errorf("signloop: malformed init: %w", err)
	}

	eidBytes, err := wire.DecodeHexFixed(init.Eid, 32)
	if err != nil {
		return fmt.Errorf("signloop: eid: %w", err)
	}

	sess, err := newSession(init)
	if err != nil {
		return err
	}

	d := driver.New(sess.self, len(sess.participants), sess.first, &driver.Auxiliary{
		ExecutionID: eidBytes,
		Parties:     allPositions(len(sess.participants)),
	}, sess.initialOut)

	if err := drainAndEmit(enc, sess, d); err != nil {
		return err
	}
	if d.Done() {
		return nil
	}

	for scanner.Scan() {
		var batch []wire.EnvelopeMsg
		if err := json.Unmarshal(scanner.Bytes(), &batch); err != nil {
			return fmt.Errorf("signloop: malformed envelope batch: %w", err)
		}

		for _, env := range batch {
			if !env.IsBroadcast && env.Recipient != nil && *env.Recipient != sess.partyIndex {
				continue // not addressed to this party
			}
			senderPos, ok := party.PositionOf(party.Index(env.Sender), sess.participants)
			if !ok {
				return fmt.Errorf("signloop: unknown sender %d", env.Sender)
			}
			payload, err := wire.DecodeRawBlob(env.Payload)
			if err != nil {
				return fmt.Errorf("signloop: %w", err)
			}
			kind := driver.P2P
			if env.IsBroadcast {
				kind = driver.Broadcast
			}
			if err := d.Receive(senderPos, kind, payload); err != nil {
				return fmt.Errorf("signloop: %w", err)
			}
			// Drive to exhaustion after each individual delivery, never
			// batching the round's incoming messages before driving: a
			// reliable-broadcast echo must go out the instant its
			// original arrives, not once the whole batch is in.
			if err := drainAndEmit(enc, sess, d); err != nil {
				return err
			}
			if d.Done() {
				return nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("signloop: reading round: %w", err)
	}
	return nil
}

// drainAndEmit calls DriveOne until the driver blocks or finishes,
// translating every outgoing message into the keygen-index-addressed
// wire.EnvelopeMsg shape, and writes exactly one SignOutput line.
func drainAndEmit(enc *json.Encoder, sess *session, d *driver.Driver) error {
	var envelopes []wire.EnvelopeMsg
	var result wire.SignOutput

	for {
		outcome, err := d.DriveOne()
		if err != nil {
			return fmt.Errorf("signloop: %w", err)
		}
		switch outcome.Kind {
		case driver.SendMsg:
			envelopes = append(envelopes, toEnvelope(sess, outcome.Msg))
		case driver.NeedsInput:
			result = wire.SignOutput{Messages: envelopes, Complete: false}
			return enc.Encode(result)
		case driver.Yielded:
			continue
		case driver.Finished:
			out := outcome.Output.(*sign.Output)
			r := wire.EncodeHex(out.R.Bytes())
			s := wire.EncodeHex(out.S.Bytes())
			result = wire.SignOutput{Messages: envelopes, Complete: true, R: &r, S: &s}
			return enc.Encode(result)
		}
	}
}

func toEnvelope(sess *session, m *driver.SentMessage) wire.EnvelopeMsg {
	env := wire.EnvelopeMsg{
		Sender:      uint16(sess.participants[m.From]),
		IsBroadcast: m.Kind == driver.Broadcast,
		Payload:     wire.EncodeRawBlob(m.Payload),
	}
	if !env.IsBroadcast {
		recipient := uint16(sess.participants[m.Recipient])
		env.Recipient = &recipient
	}
	return env
}

func allPositions(n int) []party.Position {
	out := make([]party.Position, n)
	for i := range out {
		out[i] = party.Position(i)
	}
	return out
}
