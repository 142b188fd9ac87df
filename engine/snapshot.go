package engine

import (
	"encoding/json"
	"fmt"
	"roachrace/game"
	"roachrace/utils"

	"github.com/rs/zerolog/log"
)

// Snapshot is the persisted form of a track. Standings are only present
// once the race has finished.
type Snapshot struct {
	RunFinished bool        `json:"run_finished"`
	World       *game.World `json:"world"`
	Standings   []int       `json:"standings,omitempty"`
}

type snapshotWire struct {
	RunFinished *bool           `json:"run_finished"`
	World       json.RawMessage `json:"world"`
	Standings   []int           `json:"standings"`
}

// Serialize captures the track's current world and result.
func (t *Track) Serialize() Snapshot {
	s := Snapshot{
		RunFinished: t.runFinished,
		World:       t.world.Copy(),
	}
	if t.runFinished {
		s.Standings = t.Standings()
	}
	return s
}

func (t *Track) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Serialize())
}

// Restore builds a track from a serialized snapshot. A structurally invalid
// snapshot yields an error wrapping game.ErrDeserialization and no track.
// Standings that do not rank every cockroach exactly once are dropped and
// the track comes back unfinished.
func Restore(data []byte, options ...Option) (*Track, error) {
	var sw snapshotWire
	if err := json.Unmarshal(data, &sw); err != nil {
		return nil, fmt.Errorf("%w: snapshot: %v", game.ErrDeserialization, err)
	}
	if sw.RunFinished == nil {
		return nil, fmt.Errorf("%w: snapshot: missing run_finished", game.ErrDeserialization)
	}
	if len(sw.World) == 0 {
		return nil, fmt.Errorf("%w: snapshot: missing world", game.ErrDeserialization)
	}
	world, err := game.DecodeWorld(sw.World)
	if err != nil {
		return nil, fmt.Errorf("failed to restore track: %w", err)
	}

	t := newTrack(world, options...)
	t.applyResult(*sw.RunFinished, sw.Standings)
	return t, nil
}

// FromSnapshot builds a track from an in-memory snapshot. The world is copied.
func FromSnapshot(s Snapshot, options ...Option) (*Track, error) {
	if s.World == nil {
		return nil, fmt.Errorf("%w: snapshot: missing world", game.ErrDeserialization)
	}
	t := newTrack(s.World.Copy(), options...)
	t.applyResult(s.RunFinished, s.Standings)
	return t, nil
}

func (t *Track) applyResult(finished bool, standings []int) {
	t.Reset()
	if !finished {
		return
	}
	// No race can finish without cockroaches
	if t.world.Len() == 0 || !utils.IsPermutation(standings, t.world.Len()) {
		log.Warn().Msgf("snapshot standings %v do not rank %d cockroaches, resetting track", standings, t.world.Len())
		return
	}
	t.runFinished = true
	t.standings = append([]int(nil), standings...)
}
