package communication

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"roachrace/engine"
	"roachrace/game"
	"time"
)

const (
	MsgTick      = "tick"
	MsgStandings = "standings"
	MsgError     = "error"
)

var ErrNotFound = errors.New("race not found")

// Race is a stored race as exchanged between server and client.
type Race struct {
	ID       string          `json:"id"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// RaceEntry summarizes a stored race.
type RaceEntry struct {
	ID          string    `json:"id"`
	RunFinished bool      `json:"run_finished"`
	Cockroaches int       `json:"cockroaches"`
	CreatedAt   time.Time `json:"created_at"`
}

// TickFrame carries the states of every cockroach after one tick.
type TickFrame struct {
	Tick   int          `json:"tick"`
	States []game.State `json:"states"`
}

// RaceService abstracts where races are run and stored.
type RaceService interface {
	// Submit runs the snapshot's race and stores the result.
	Submit(ctx context.Context, snapshot engine.Snapshot) (Race, error)
	Fetch(ctx context.Context, id string) (Race, error)
	List(ctx context.Context) ([]RaceEntry, error)
}

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}

func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("trying to encode envelope without type")
	}
	if payload == nil {
		return nil, fmt.Errorf("trying to encode nil payload")
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{t, pb})
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("trying to decode empty envelope")
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("empty payload for type %q", env.T)
	}
	err := json.Unmarshal(env.P, &out)
	return out, err
}
