package experiments

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"roachrace/engine"
	"roachrace/game"
	"roachrace/meta"
	"roachrace/strategy"
	"testing"

	"github.com/stretchr/testify/require"
)

func baseSnapshot() engine.Snapshot {
	w := game.NewWorld(400, 10)
	w.SetCockroaches([]game.Cockroach{
		{StrategyName: "default", State: game.State{Position: game.Vec2{X: 150}}},
	})
	return engine.Snapshot{World: w}
}

func TestRun(t *testing.T) {
	lineups := []Lineup{
		{"default", strategy.MY_STRATEGY},
		{strategy.JITTER, "default", "unknown"},
	}

	result, err := Run(baseSnapshot(), lineups, 2)
	require.NoError(t, err)

	require.Len(t, result.Races, 4, "Every lineup should race the requested number of times")
	require.Len(t, result.Standings, 2+2+3+3)

	first := result.Races[0]
	require.Equal(t, 1, first.ID)
	require.Equal(t, "default+my_strategy", first.Lineup)
	require.Equal(t, meta.RUN_TIME, first.Ticks)
	require.Equal(t, 2, first.Finishers, "Cockroach 0 starts at 150 and my_strategy reaches 400 at tick 200")
	require.Equal(t, 1, result.Races[2].Fallbacks)

	require.Equal(t, 1, result.Standings[0].Race)
	require.Equal(t, 1, result.Standings[0].Place)
	require.Equal(t, 1, result.Standings[0].Cockroach, "my_strategy reaches the line at tick 200, cockroach 0 at tick 250")
	require.Equal(t, 0, result.Standings[1].Cockroach)
}

func TestRunNeedsWorld(t *testing.T) {
	_, err := Run(engine.Snapshot{}, []Lineup{{"default"}}, 1)
	require.ErrorIs(t, err, game.ErrInvalidInput)
}

func TestRunEmptyLineup(t *testing.T) {
	_, err := Run(baseSnapshot(), []Lineup{{}}, 1)
	require.ErrorIs(t, err, game.ErrInvalidInput)
}

func TestRunAndWrite(t *testing.T) {
	root := t.TempDir()

	dir, err := RunAndWrite(root, "smoke", baseSnapshot(), []Lineup{{"default", strategy.MY_STRATEGY}}, 1)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "smoke"), filepath.Dir(dir))

	races := readCSV(t, filepath.Join(dir, "race_records.csv"))
	require.Len(t, races, 2)
	require.Equal(t, "lineup", races[0][1])
	require.Equal(t, "default+my_strategy", races[1][1])

	standings := readCSV(t, filepath.Join(dir, "standings_records.csv"))
	require.Len(t, standings, 3)
	require.Equal(t, []string{"1", "1", "1", "my_strategy", "400", "true"}, standings[1])
}

func TestParseLineups(t *testing.T) {
	lineups, err := ParseLineups("default+my_strategy, jitter ,")
	require.NoError(t, err)
	require.Equal(t, []Lineup{{"default", "my_strategy"}, {"jitter"}}, lineups)

	for _, input := range []string{"", " , ", "default++jitter"} {
		_, err := ParseLineups(input)
		require.ErrorIs(t, err, game.ErrInvalidInput, "input %q", input)
	}
}

func TestParseLineup(t *testing.T) {
	lineup, err := ParseLineup(" default+jitter ")
	require.NoError(t, err)
	require.Equal(t, Lineup{"default", "jitter"}, lineup)

	_, err = ParseLineup("default+jitter,my_strategy")
	require.ErrorIs(t, err, game.ErrInvalidInput, "Extra lineups should not be dropped silently")
	require.Contains(t, err.Error(), "got 2")

	_, err = ParseLineup("")
	require.ErrorIs(t, err, game.ErrInvalidInput)
}

func readCSV(t *testing.T, path string) [][]string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
