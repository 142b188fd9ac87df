package game

import (
	"encoding/json"
	"fmt"
)

// Vec2 is a point or displacement on the track. X runs along the track
// towards the finish line, Y is the lateral offset.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{v.X, v.Y})
}

func (v *Vec2) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("expected 2 components, got %d", len(pair))
	}
	v.X, v.Y = pair[0], pair[1]
	return nil
}

// State is a cockroach's position and velocity at a given tick.
type State struct {
	Position Vec2 `json:"position"`
	Velocity Vec2 `json:"velocity"`
}

// Move is the velocity a strategy asks for during one tick.
type Move struct {
	Speed Vec2
}

// Cockroach is a racer. Only the strategy name is kept; the behaviour is
// rebuilt from it at the start of every run.
type Cockroach struct {
	StrategyName string `json:"strategy"`
	State        State  `json:"state"`
}

// Obstacle is an axis-aligned rectangle on the track. Obstacles never move.
type Obstacle struct {
	Position Vec2 `json:"position"`
	Size     Vec2 `json:"size"`
}

// Contains reports whether p lies inside the obstacle.
func (o Obstacle) Contains(p Vec2) bool {
	return p.X >= o.Position.X && p.X <= o.Position.X+o.Size.X &&
		p.Y >= o.Position.Y && p.Y <= o.Position.Y+o.Size.Y
}
