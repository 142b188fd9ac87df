package metrics

import (
	"sync/atomic"
	"time"
)

type RaceMetric struct {
	Cockroaches int
	Goroutines  int
	Ticks       int
	Evaluations int // Strategy calls
	Finishers   int
	Fallbacks   int // Cockroaches bound to the default strategy because their name was unknown
	StartTime   time.Time
	Duration    time.Duration
}

type Collector interface {
	Start(cockroaches, goroutines int)
	AddTick()
	AddEvaluation()
	AddFinisher()
	AddFallback()
	Complete() RaceMetric
}

type collector struct {
	cockroaches int
	goroutines  int
	startTime   time.Time
	ticks       atomic.Int32
	evaluations atomic.Int64
	finishers   atomic.Int32
	fallbacks   atomic.Int32
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(cockroaches, goroutines int) {
	m.startTime = time.Now()
	m.cockroaches = cockroaches
	m.goroutines = goroutines
	m.ticks.Store(0)
	m.evaluations.Store(0)
	m.finishers.Store(0)
	m.fallbacks.Store(0)
}

func (m *collector) AddTick() {
	m.ticks.Add(1)
}

func (m *collector) AddEvaluation() {
	m.evaluations.Add(1)
}

func (m *collector) AddFinisher() {
	m.finishers.Add(1)
}

func (m *collector) AddFallback() {
	m.fallbacks.Add(1)
}

func (m *collector) Complete() RaceMetric {
	return RaceMetric{
		Cockroaches: m.cockroaches,
		Goroutines:  m.goroutines,
		Ticks:       int(m.ticks.Load()),
		Evaluations: int(m.evaluations.Load()),
		Finishers:   int(m.finishers.Load()),
		Fallbacks:   int(m.fallbacks.Load()),
		StartTime:   m.startTime,
		Duration:    time.Since(m.startTime),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(cockroaches, goroutines int) {}
func (m *dummyCollector) AddTick()                          {}
func (m *dummyCollector) AddEvaluation()                    {}
func (m *dummyCollector) AddFinisher()                      {}
func (m *dummyCollector) AddFallback()                      {}
func (m *dummyCollector) Complete() RaceMetric              { return RaceMetric{} }
