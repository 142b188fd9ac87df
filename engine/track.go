package engine

import (
	"fmt"
	"io"
	"roachrace/experiments/metrics"
	"roachrace/game"
	"roachrace/meta"
	"roachrace/strategy"
	"sync"

	"github.com/rs/zerolog/log"
)

// Track runs a race over its world. A Track is not safe for concurrent use.
type Track struct {
	world       *game.World
	runFinished bool
	standings   []int

	registry   *strategy.Registry
	recorder   Recorder
	metrics    metrics.Collector
	goroutines int
	runTime    int
	lastMetric metrics.RaceMetric
}

// NewTrack returns an idle track with an empty world of the given dimensions.
func NewTrack(length, width float64, options ...Option) *Track {
	return newTrack(game.NewWorld(length, width), options...)
}

func newTrack(world *game.World, options ...Option) *Track {
	t := &Track{world: world}
	defaults(t)
	for _, option := range options {
		option(t)
	}
	return t
}

func (t *Track) World() *game.World { return t.world }
func (t *Track) Finished() bool     { return t.runFinished }

// Standings returns the final ranking of cockroach indices: finishers in
// finish order, then the others by distance covered. Empty unless finished.
func (t *Track) Standings() []int {
	return append([]int(nil), t.standings...)
}

// History returns the states recorded during the last run, or nil if the
// track records somewhere else.
func (t *Track) History() [][]game.State {
	if h, ok := t.recorder.(*History); ok {
		return h.States()
	}
	return nil
}

// LastMetric returns the metrics collected during the last run.
func (t *Track) LastMetric() metrics.RaceMetric {
	return t.lastMetric
}

// SetCockroaches replaces the cockroaches. The result of the last run no
// longer describes them, so the track is reset.
func (t *Track) SetCockroaches(c []game.Cockroach) {
	t.world.SetCockroaches(c)
	t.Reset()
}

func (t *Track) SetObstacles(o []game.Obstacle) {
	t.world.SetObstacles(o)
}

// Reset forgets the result of the last run. The world is left as is.
func (t *Track) Reset() {
	t.runFinished = false
	t.standings = nil
}

// Run races every cockroach for the configured number of ticks and ranks
// them. It fails only if the world has no cockroaches, in which case the
// track is left unchanged.
func (t *Track) Run() error {
	n := t.world.Len()
	if n == 0 {
		return fmt.Errorf("%w: list of cockroaches cannot be empty", game.ErrInvalidInput)
	}
	t.Reset()

	t.metrics.Start(n, t.goroutines)
	strategies := t.bindStrategies()
	defer release(strategies)

	finished := make([]bool, n)
	finishOrder := make([]int, 0, n)
	moves := make([]game.Move, n)

	t.recorder.Begin(t.runTime, n)
	t.recorder.Record(0, t.world.States())

	for tick := 1; tick <= t.runTime; tick++ {
		// Every strategy sees the world as it was at the end of the previous tick
		t.computeMoves(strategies, finished, moves)
		for i := range moves {
			if !finished[i] {
				t.world.Update(moves[i], i)
			}
		}

		states := t.world.States()
		t.recorder.Record(tick, states)
		t.metrics.AddTick()

		for i, s := range states {
			if !finished[i] && s.Position.X+meta.EPS >= t.world.Length() {
				finished[i] = true
				finishOrder = append(finishOrder, i)
				t.metrics.AddFinisher()
				log.Debug().Msgf("cockroach %d finished at tick %d", i, tick)
			}
		}
	}

	t.standings = rank(finishOrder, finished, t.world.States())
	t.runFinished = true
	t.recorder.End(t.Standings())
	t.lastMetric = t.metrics.Complete()

	log.Info().Msgf("race over after %d ticks: %d of %d cockroaches finished, standings %v", t.runTime, len(finishOrder), n, t.standings)
	return nil
}

func (t *Track) bindStrategies() []game.Strategy {
	cockroaches := t.world.Cockroaches()
	strategies := make([]game.Strategy, len(cockroaches))
	for i, c := range cockroaches {
		factory, ok := t.registry.Resolve(c.StrategyName)
		if !ok {
			log.Warn().Msgf("cockroach %d: unknown strategy %q, using %q", i, c.StrategyName, meta.DEFAULT_STRATEGY)
			t.metrics.AddFallback()
		}
		strategies[i] = factory(i)
	}
	return strategies
}

func (t *Track) computeMoves(strategies []game.Strategy, finished []bool, moves []game.Move) {
	cockroaches := t.world.Cockroaches()

	if t.goroutines <= 1 {
		for i, s := range strategies {
			if !finished[i] {
				moves[i] = s.Move(cockroaches[i], t.world)
				t.metrics.AddEvaluation()
			}
		}
		return
	}

	task := make(chan int, len(strategies))
	for i := range strategies {
		if !finished[i] {
			task <- i
		}
	}
	close(task)

	var wg sync.WaitGroup
	for g := 0; g < min(t.goroutines, len(strategies)); g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := range task {
				moves[i] = strategies[i].Move(cockroaches[i], t.world)
				t.metrics.AddEvaluation()
			}
		}()
	}
	wg.Wait()
}

func release(strategies []game.Strategy) {
	for i, s := range strategies {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.Warn().Err(err).Msgf("failed to release strategy of cockroach %d", i)
			}
		}
	}
}
