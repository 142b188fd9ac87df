package experiments

import (
	"fmt"
	"roachrace/engine"
	"roachrace/experiments/metrics"
	"roachrace/game"
	"roachrace/meta"
	"strings"

	"github.com/rs/zerolog/log"
)

// Lineup names the strategy of each cockroach, by index.
type Lineup []string

func (l Lineup) String() string {
	return strings.Join(l, "+")
}

// ParseLineups reads lineups written as "a+b,c+d+e": lineups are separated
// by commas, the strategies of a lineup by "+".
func ParseLineups(s string) ([]Lineup, error) {
	lineups := []Lineup{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lineup := Lineup{}
		for _, name := range strings.Split(part, "+") {
			name = strings.TrimSpace(name)
			if name == "" {
				return nil, fmt.Errorf("%w: empty strategy name in lineup %q", game.ErrInvalidInput, part)
			}
			lineup = append(lineup, name)
		}
		lineups = append(lineups, lineup)
	}
	if len(lineups) == 0 {
		return nil, fmt.Errorf("%w: no lineup in %q", game.ErrInvalidInput, s)
	}
	return lineups, nil
}

// ParseLineup parses s like ParseLineups but requires exactly one lineup.
func ParseLineup(s string) (Lineup, error) {
	lineups, err := ParseLineups(s)
	if err != nil {
		return nil, err
	}
	if len(lineups) != 1 {
		return nil, fmt.Errorf("%w: expected a single lineup, got %d in %q", game.ErrInvalidInput, len(lineups), s)
	}
	return lineups[0], nil
}

type Result struct {
	Races     []metrics.RaceRecord
	Standings []metrics.StandingRecord
}

// Run races every lineup the given number of times on the base world.
// Cockroach i of a lineup starts from the state of cockroach i of the base
// world when there is one, and from the origin otherwise.
func Run(base engine.Snapshot, lineups []Lineup, races int, options ...engine.Option) (Result, error) {
	if base.World == nil {
		return Result{}, fmt.Errorf("%w: experiment needs a base world", game.ErrInvalidInput)
	}

	count := 0
	result := Result{}

	for li, lineup := range lineups {
		log.Info().Msgf("starting lineup %d of %d: %s...", li+1, len(lineups), lineup)

		for i := 0; i < races; i++ {
			standings, metric, err := runRace(base, lineup, options)
			if err != nil {
				return result, fmt.Errorf("lineup %s race %d: %w", lineup, i+1, err)
			}
			count++
			result.Races = append(result.Races, metrics.RaceRecord{
				ID:         count,
				Lineup:     lineup.String(),
				RaceMetric: metric,
			})
			for _, s := range standings {
				s.Race = count
				result.Standings = append(result.Standings, s)
			}
		}
		log.Info().Msgf("completed lineup %d of %d", li+1, len(lineups))
	}

	return result, nil
}

// RunAndWrite runs the experiment and stores its records under root/name.
// It returns the directory the records were written to.
func RunAndWrite(root, name string, base engine.Snapshot, lineups []Lineup, races int, options ...engine.Option) (string, error) {
	log.Info().Msgf("starting %s experiment...", name)
	result, err := Run(base, lineups, races, options...)
	if err != nil {
		return "", err
	}
	log.Info().Msgf("completed %s experiment", name)

	return write(root, name, result)
}

func runRace(base engine.Snapshot, lineup Lineup, options []engine.Option) ([]metrics.StandingRecord, metrics.RaceMetric, error) {
	// Caller options come first so that the race always gets its own collector and no history
	opts := append(append([]engine.Option{}, options...),
		engine.WithMetrics(metrics.NewCollector()),
		engine.WithRecorder(engine.NewNopRecorder()),
	)
	track, err := engine.FromSnapshot(engine.Snapshot{World: base.World}, opts...)
	if err != nil {
		return nil, metrics.RaceMetric{}, err
	}

	states := base.World.States()
	cockroaches := make([]game.Cockroach, len(lineup))
	for i, name := range lineup {
		cockroaches[i].StrategyName = name
		if i < len(states) {
			cockroaches[i].State = states[i]
		}
	}
	track.SetCockroaches(cockroaches)

	if err := track.Run(); err != nil {
		return nil, metrics.RaceMetric{}, err
	}

	final := track.World().States()
	length := track.World().Length()
	standings := track.Standings()
	records := make([]metrics.StandingRecord, len(standings))
	for place, i := range standings {
		records[place] = metrics.StandingRecord{
			Place:     place + 1,
			Cockroach: i,
			Strategy:  lineup[i],
			Distance:  final[i].Position.X,
			Finished:  final[i].Position.X+meta.EPS >= length,
		}
	}
	return records, track.LastMetric(), nil
}
