package engine

import "roachrace/game"

// Recorder observes a race tick by tick. Record is called once with the
// initial states (tick 0) and once after every tick.
type Recorder interface {
	Begin(ticks, cockroaches int)
	Record(tick int, states []game.State)
	End(standings []int)
}

// History keeps every recorded tick in memory. Its size grows with
// ticks * cockroaches.
type History struct {
	states [][]game.State
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Begin(ticks, cockroaches int) {
	h.states = make([][]game.State, 0, ticks+1)
}

func (h *History) Record(tick int, states []game.State) {
	h.states = append(h.states, states)
}

func (h *History) End(standings []int) {}

// States returns the recorded states, indexed by tick then by cockroach.
func (h *History) States() [][]game.State {
	return h.states
}

type nopRecorder struct{}

// NewNopRecorder returns a recorder that drops everything, for races that are never replayed.
func NewNopRecorder() Recorder {
	return nopRecorder{}
}

func (nopRecorder) Begin(ticks, cockroaches int)         {}
func (nopRecorder) Record(tick int, states []game.State) {}
func (nopRecorder) End(standings []int)                  {}

// MultiRecorder forwards every call to each of its recorders in order.
type MultiRecorder []Recorder

func (m MultiRecorder) Begin(ticks, cockroaches int) {
	for _, r := range m {
		r.Begin(ticks, cockroaches)
	}
}

func (m MultiRecorder) Record(tick int, states []game.State) {
	for _, r := range m {
		r.Record(tick, states)
	}
}

func (m MultiRecorder) End(standings []int) {
	for _, r := range m {
		r.End(standings)
	}
}
