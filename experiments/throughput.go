package experiments

import (
	"fmt"
	"roachrace/engine"
	"roachrace/experiments/metrics"
	"roachrace/game"

	"github.com/rs/zerolog/log"
)

// RunThroughput races the same lineup with each number of goroutines in
// turn, to compare how strategy evaluation scales.
func RunThroughput(base engine.Snapshot, lineup Lineup, goroutines []int, races int, options ...engine.Option) (Result, error) {
	if len(goroutines) == 0 {
		return Result{}, fmt.Errorf("%w: throughput experiment needs at least one goroutine count", game.ErrInvalidInput)
	}

	log.Info().Msg("starting throughput experiment...")

	result := Result{}
	for _, g := range goroutines {
		if g < 1 {
			return result, fmt.Errorf("%w: goroutine count %d", game.ErrInvalidInput, g)
		}
		log.Info().Msgf("starting %d races on %d goroutines...", races, g)

		opts := append(append([]engine.Option{}, options...), engine.WithGoroutines(g))
		r, err := Run(base, []Lineup{lineup}, races, opts...)
		if err != nil {
			return result, err
		}
		result = merge(result, r)

		log.Info().Msgf("completed races on %d goroutines", g)
	}

	log.Info().Msg("completed throughput experiment")
	return result, nil
}

// RunThroughputAndWrite runs the throughput experiment and stores its
// records under root/throughput.
func RunThroughputAndWrite(root string, base engine.Snapshot, lineup Lineup, goroutines []int, races int, options ...engine.Option) (string, error) {
	result, err := RunThroughput(base, lineup, goroutines, races, options...)
	if err != nil {
		return "", err
	}
	return write(root, "throughput", result)
}

// merge appends b to a, renumbering the races of b after those of a.
func merge(a, b Result) Result {
	offset := len(a.Races)
	for _, r := range b.Races {
		r.ID += offset
		a.Races = append(a.Races, r)
	}
	for _, s := range b.Standings {
		s.Race += offset
		a.Standings = append(a.Standings, s)
	}
	return a
}

func write(root, name string, result Result) (string, error) {
	writer, err := metrics.NewWriter(root, name)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteRaceRecords(result.Races); err != nil {
		return "", err
	}
	log.Info().Msg("stored race records")
	if err := writer.WriteStandingRecords(result.Standings); err != nil {
		return "", err
	}
	log.Info().Msg("stored standings records")

	return writer.Dir(), nil
}
