package strategy

import (
	"roachrace/game"

	"golang.org/x/exp/rand"
)

const (
	MY_STRATEGY = "my_strategy"
	JITTER      = "jitter"
)

// DefaultStrategy runs straight down the track at unit speed.
type DefaultStrategy struct{}

func (DefaultStrategy) Move(self game.Cockroach, world *game.World) game.Move {
	return game.Move{Speed: game.Vec2{X: 1, Y: 0}}
}

// Constant always asks for the same velocity.
type Constant struct {
	Speed game.Vec2
}

func (c Constant) Move(self game.Cockroach, world *game.World) game.Move {
	return game.Move{Speed: c.Speed}
}

// NewMyStrategy returns the custom diagonal runner.
func NewMyStrategy() Constant {
	return Constant{Speed: game.Vec2{X: 2, Y: 2}}
}

// Jitter runs forward at unit speed while wandering sideways. The lateral
// speed is drawn from [-1, 1) and steered back towards the track's centre
// line once the cockroach drifts past a quarter of the width. If the move
// would land inside an obstacle, it sidesteps the other way when that is clear.
type Jitter struct {
	rng *rand.Rand
}

func NewJitter(seed uint64) *Jitter {
	return &Jitter{rng: rand.New(rand.NewSource(seed))}
}

func (j *Jitter) Move(self game.Cockroach, world *game.World) game.Move {
	lateral := j.rng.Float64()*2 - 1
	y := self.State.Position.Y
	limit := world.Width() / 4
	if (y > limit && lateral > 0) || (y < -limit && lateral < 0) {
		lateral = -lateral
	}

	pos := self.State.Position
	if blocked(world, pos.Add(game.Vec2{X: 1, Y: lateral})) && !blocked(world, pos.Add(game.Vec2{X: 1, Y: -lateral})) {
		lateral = -lateral
	}
	return game.Move{Speed: game.Vec2{X: 1, Y: lateral}}
}

func blocked(world *game.World, p game.Vec2) bool {
	for _, o := range world.Obstacles() {
		if o.Contains(p) {
			return true
		}
	}
	return false
}
