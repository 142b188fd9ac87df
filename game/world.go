package game

import (
	"encoding/json"
	"fmt"
)

// World holds the track geometry, the cockroaches and the obstacles.
// The order of cockroaches is significant: the index of a cockroach
// identifies it for the whole race.
type World struct {
	length      float64
	width       float64
	cockroaches []Cockroach
	obstacles   []Obstacle
}

// NewWorld returns an empty world with the given track dimensions.
func NewWorld(length, width float64) *World {
	return &World{
		length: length,
		width:  width,
	}
}

func (w *World) Length() float64 { return w.length }
func (w *World) Width() float64  { return w.width }
func (w *World) Len() int        { return len(w.cockroaches) }

// Cockroaches returns the cockroaches ordered by index.
func (w *World) Cockroaches() []Cockroach {
	return w.cockroaches
}

func (w *World) Obstacles() []Obstacle {
	return w.obstacles
}

// SetCockroaches replaces all cockroaches. Only meant for race setup.
func (w *World) SetCockroaches(c []Cockroach) {
	w.cockroaches = append([]Cockroach(nil), c...)
}

// SetObstacles replaces all obstacles. Only meant for race setup.
func (w *World) SetObstacles(o []Obstacle) {
	w.obstacles = append([]Obstacle(nil), o...)
}

// Update applies a move to the cockroach at index i: its velocity becomes
// the move's speed and its position advances by that velocity.
func (w *World) Update(move Move, i int) {
	s := &w.cockroaches[i].State
	s.Velocity = move.Speed
	s.Position = s.Position.Add(s.Velocity)
}

// States returns a copy of the current state of every cockroach, ordered by index.
func (w *World) States() []State {
	states := make([]State, len(w.cockroaches))
	for i, c := range w.cockroaches {
		states[i] = c.State
	}
	return states
}

// Copy returns a deep copy of the world.
func (w *World) Copy() *World {
	return &World{
		length:      w.length,
		width:       w.width,
		cockroaches: append([]Cockroach(nil), w.cockroaches...),
		obstacles:   append([]Obstacle(nil), w.obstacles...),
	}
}

type worldJSON struct {
	Length      float64     `json:"length"`
	Width       float64     `json:"width"`
	Cockroaches []Cockroach `json:"cockroaches"`
	Obstacles   []Obstacle  `json:"obstacles"`
}

// Wire shapes used while decoding, with pointers so that missing fields can be told apart from zero values.
type worldWire struct {
	Length      *float64         `json:"length"`
	Width       *float64         `json:"width"`
	Cockroaches *[]cockroachWire `json:"cockroaches"`
	Obstacles   []obstacleWire   `json:"obstacles"`
}

type cockroachWire struct {
	StrategyName *string    `json:"strategy"`
	State        *stateWire `json:"state"`
}

type stateWire struct {
	Position *Vec2 `json:"position"`
	Velocity *Vec2 `json:"velocity"`
}

type obstacleWire struct {
	Position *Vec2 `json:"position"`
	Size     *Vec2 `json:"size"`
}

func (w *World) MarshalJSON() ([]byte, error) {
	wj := worldJSON{
		Length:      w.length,
		Width:       w.width,
		Cockroaches: w.cockroaches,
		Obstacles:   w.obstacles,
	}
	if wj.Cockroaches == nil {
		wj.Cockroaches = []Cockroach{}
	}
	if wj.Obstacles == nil {
		wj.Obstacles = []Obstacle{}
	}
	return json.Marshal(wj)
}

// UnmarshalJSON replaces the world with the decoded one. On error the
// world is left untouched and the error wraps ErrDeserialization.
func (w *World) UnmarshalJSON(data []byte) error {
	var ww worldWire
	if err := json.Unmarshal(data, &ww); err != nil {
		return fmt.Errorf("%w: world: %v", ErrDeserialization, err)
	}
	if ww.Length == nil {
		return fmt.Errorf("%w: world: missing length", ErrDeserialization)
	}
	if ww.Width == nil {
		return fmt.Errorf("%w: world: missing width", ErrDeserialization)
	}
	if ww.Cockroaches == nil {
		return fmt.Errorf("%w: world: missing cockroaches", ErrDeserialization)
	}

	var cockroaches []Cockroach
	if len(*ww.Cockroaches) > 0 {
		cockroaches = make([]Cockroach, len(*ww.Cockroaches))
	}
	for i, cw := range *ww.Cockroaches {
		if cw.StrategyName == nil {
			return fmt.Errorf("%w: cockroach %d: missing strategy", ErrDeserialization, i)
		}
		if cw.State == nil || cw.State.Position == nil {
			return fmt.Errorf("%w: cockroach %d: missing state position", ErrDeserialization, i)
		}
		cockroaches[i] = Cockroach{
			StrategyName: *cw.StrategyName,
			State:        State{Position: *cw.State.Position},
		}
		if cw.State.Velocity != nil {
			cockroaches[i].State.Velocity = *cw.State.Velocity
		}
	}

	var obstacles []Obstacle
	if len(ww.Obstacles) > 0 {
		obstacles = make([]Obstacle, len(ww.Obstacles))
	}
	for i, ow := range ww.Obstacles {
		if ow.Position == nil || ow.Size == nil {
			return fmt.Errorf("%w: obstacle %d: missing position or size", ErrDeserialization, i)
		}
		obstacles[i] = Obstacle{Position: *ow.Position, Size: *ow.Size}
	}

	w.length = *ww.Length
	w.width = *ww.Width
	w.cockroaches = cockroaches
	w.obstacles = obstacles
	return nil
}

// DecodeWorld builds a world from its serialized form.
func DecodeWorld(data []byte) (*World, error) {
	w := &World{}
	if err := w.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return w, nil
}
