package engine

import (
	"roachrace/experiments/metrics"
	"roachrace/meta"
	"roachrace/strategy"
)

type Option func(t *Track)

// WithRegistry sets the registry strategy names are resolved against.
func WithRegistry(registry *strategy.Registry) Option {
	return func(t *Track) {
		if registry != nil {
			t.registry = registry
		}
	}
}

// WithRecorder replaces the in-memory tick history.
func WithRecorder(recorder Recorder) Option {
	return func(t *Track) {
		if recorder != nil {
			t.recorder = recorder
		}
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(t *Track) {
		if collector != nil {
			t.metrics = collector
		}
	}
}

// WithGoroutines evaluates the strategies of a tick on the given number of goroutines.
func WithGoroutines(goroutines int) Option {
	return func(t *Track) {
		if goroutines > 0 {
			t.goroutines = goroutines
		}
	}
}

// WithRunTime overrides the number of ticks per race.
func WithRunTime(ticks int) Option {
	return func(t *Track) {
		if ticks > 0 {
			t.runTime = ticks
		}
	}
}

func defaults(t *Track) {
	t.registry = strategy.Default()
	t.recorder = NewHistory()
	t.metrics = metrics.NewDummyCollector()
	t.goroutines = 1
	t.runTime = meta.RUN_TIME
}
