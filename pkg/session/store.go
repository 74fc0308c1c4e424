// Package session keeps a process-local table of in-flight protocol
// runs, each addressed by a random session id, so an embedder can host
// many concurrent ceremonies without threading party state through its
// own request handlers. It is a thinner, longer-lived sibling of
// pkg/signloop: signloop owns exactly one driver for the lifetime of a
// process reading stdin; Store owns many, keyed and looked up by id.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/luxfi/cggmp-signer/pkg/driver"
	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/round"
)

// Message is one message exchanged with a session's party, independent
// of any particular wire encoding.
type Message struct {
	From      party.Position
	Broadcast bool
	Recipient party.Position // valid only when !Broadcast
	Payload   []byte
}

// Store guards its session table with a mutex, so sessions can be
// created, looked up and destroyed from several goroutines. ProcessRound
// drives a session's driver after releasing that lock, so concurrent
// ProcessRound calls for the same id are not safe: a round.Session is
// not safe for concurrent access.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*driver.Driver
}

// New returns an empty session store.
func New() *Store {
	return &Store{sessions: make(map[string]*driver.Driver)}
}

// Create builds a new session around first/initialOut/aux (as produced
// by one of protocols/{auxinfo,keygen,sign}.Start) and drives it until
// it blocks awaiting input or finishes outright, returning a fresh
// session id and whatever it emitted along the way.
func (s *Store) Create(self party.Position, n int, first round.Session, initialOut []round.OutMessage, aux *driver.Auxiliary) (id string, outgoing []Message, complete bool, output interface{}, err error) {
	d := driver.New(self, n, first, aux, initialOut)
	id = uuid.NewString()

	out, complete, output, err := drain(d)
	if err != nil {
		d.Close()
		return "", nil, false, nil, fmt.Errorf("session: driving initial round: %w", err)
	}

	s.mu.Lock()
	s.sessions[id] = d
	s.mu.Unlock()

	if complete {
		s.Destroy(id)
	}
	return id, out, complete, output, nil
}

// ProcessRound delivers each incoming message in order, driving the
// session to exhaustion after every single delivery (never batched, so
// a round's reliable-broadcast echoes go out the instant their
// original arrives), and returns everything the session emitted plus
// whether it has now finished.
func (s *Store) ProcessRound(id string, incoming []Message) (outgoing []Message, complete bool, output interface{}, err error) {
	s.mu.Lock()
	d, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, false, nil, fmt.Errorf("session: unknown session %q", id)
	}

	for _, m := range incoming {
		kind := driver.P2P
		if m.Broadcast {
			kind = driver.Broadcast
		}
		if err := d.Receive(m.From, kind, m.Payload); err != nil {
			return nil, false, nil, fmt.Errorf("session: %s: %w", id, err)
		}
		out, done, result, err := drain(d)
		if err != nil {
			return nil, false, nil, fmt.Errorf("session: %s: %w", id, err)
		}
		outgoing = append(outgoing, out...)
		if done {
			complete = true
			output = result
			break
		}
	}

	if complete {
		s.Destroy(id)
	}
	return outgoing, complete, output, nil
}

// Destroy removes a session, returning true the first time it is
// called for a given id and false on every call after (including for
// an id that never existed), so a caller can treat it as idempotent
// cleanup.
func (s *Store) Destroy(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.sessions[id]
	if !ok {
		return false
	}
	d.Close()
	delete(s.sessions, id)
	return true
}

// drain calls DriveOne repeatedly until the driver reports NeedsInput
// or Finished, collecting every SendMsg outcome in between.
func drain(d *driver.Driver) (outgoing []Message, complete bool, output interface{}, err error) {
	for {
		outcome, err := d.DriveOne()
		if err != nil {
			return nil, false, nil, err
		}
		switch outcome.Kind {
		case driver.SendMsg:
			m := outcome.Msg
			msg := Message{From: m.From, Payload: m.Payload}
			if m.Kind == driver.Broadcast {
				msg.Broadcast = true
			} else {
				msg.Recipient = m.Recipient
			}
			outgoing = append(outgoing, msg)
		case driver.NeedsInput:
			return outgoing, false, nil, nil
		case driver.Yielded:
			continue
		case driver.Finished:
			return outgoing, true, outcome.Output, nil
		}
	}
}
