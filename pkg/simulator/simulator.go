// Package simulator runs n drivers of the same protocol to completion
// in-process, round-robin, routing each driver's outgoing messages
// into its peers' FIFO inboxes.
package simulator

import (
	"fmt"

	"github.com/luxfi/cggmp-signer/pkg/driver"
	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/round"
)

// IterationCap bounds the outer round-robin sweep count, a liveness
// backstop against a buggy protocol that never reaches NeedsInput or
// Finished for every party.
const IterationCap = 100_000

// BuildFunc constructs the first round and its auxiliary collaborators
// for the party occupying position self among n total parties. Each
// protocol package's Start function is adapted to this shape by its
// caller (typically the ceremony orchestrator).
type BuildFunc func(self party.Position) (first round.Session, initialOut []round.OutMessage, aux *driver.Auxiliary, err error)

type inboxMessage struct {
	from      party.Position
	broadcast bool
	payload   []byte
}

// Run drives n parties of the same protocol to completion, returning
// each party's terminal output indexed by position. It returns an
// error naming "protocol did not complete: k/n parties finished" if
// the iteration cap is reached first.
func Run(n int, build BuildFunc) ([]interface{}, error) {
	if n < 2 {
		return nil, fmt.Errorf("simulator: n must be at least 2, got %d", n)
	}

	drivers := make([]*driver.Driver, n)
	for i := 0; i < n; i++ {
		self := party.Position(i)
		first, initOut, aux, err := build(self)
		if err != nil {
			return nil, fmt.Errorf("simulator: building party %d: %w", i, err)
		}
		drivers[i] = driver.New(self, n, first, aux, initOut)
	}
	defer func() {
		for _, d := range drivers {
			d.Close()
		}
	}()

	inboxes := make([][]inboxMessage, n)
	wantsInput := make([]bool, n)
	finished := make([]bool, n)
	outputs := make([]interface{}, n)
	finishedCount := 0

	for iter := 0; iter < IterationCap && finishedCount < n; iter++ {
		for i := 0; i < n; i++ {
			if finished[i] {
				continue
			}

		inner:
			for {
				if wantsInput[i] && len(inboxes[i]) > 0 {
					msg := inboxes[i][0]
					inboxes[i] = inboxes[i][1:]
					kind := driver.P2P
					if msg.broadcast {
						kind = driver.Broadcast
					}
					if err := drivers[i].Receive(msg.from, kind, msg.payload); err != nil {
						return nil, fmt.Errorf("simulator: party %d: %w", i, err)
					}
					wantsInput[i] = false
				}

				outcome, err := drivers[i].DriveOne()
				if err != nil {
					return nil, fmt.Errorf("simulator: party %d: %w", i, err)
				}

				switch outcome.Kind {
				case driver.SendMsg:
					route(inboxes, n, party.Position(i), outcome.Msg)
				case driver.NeedsInput:
					wantsInput[i] = true
					break inner
				case driver.Yielded:
					continue
				case driver.Finished:
					outputs[i] = outcome.Output
					finished[i] = true
					finishedCount++
					break inner
				}
			}
		}
	}

	if finishedCount < n {
		return nil, fmt.Errorf("simulator: protocol did not complete: %d/%d parties finished", finishedCount, n)
	}
	return outputs, nil
}

// route enqueues a driver's outgoing message into its destination
// inbox(es): every other party's for a broadcast, or the single
// recipient's for a point-to-point message. Each enqueued copy is an
// independent clone so a later mutation by one recipient's protocol
// round can never alias another's.
func route(inboxes [][]inboxMessage, n int, from party.Position, msg *driver.SentMessage) {
	payload := append([]byte(nil), msg.Payload...)
	if msg.Kind == driver.Broadcast {
		for j := 0; j < n; j++ {
			if party.Position(j) == from {
				continue
			}
			inboxes[j] = append(inboxes[j], inboxMessage{from: from, broadcast: true, payload: append([]byte(nil), payload...)})
		}
		return
	}
	inboxes[int(msg.Recipient)] = append(inboxes[int(msg.Recipient)], inboxMessage{from: from, broadcast: false, payload: payload})
}
