package engine

import (
	"encoding/json"
	"roachrace/game"
	"roachrace/strategy"
	"testing"

	"github.com/stretchr/testify/require"
)

func finishedTrack(t *testing.T) *Track {
	track := NewTrack(10, 4, WithRegistry(testRegistry()))
	track.SetCockroaches(cockroaches("slow", strategy.MY_STRATEGY, "crawl"))
	track.SetObstacles([]game.Obstacle{{Position: game.Vec2{X: 5, Y: 1}, Size: game.Vec2{X: 1, Y: 1}}})
	require.NoError(t, track.Run())
	return track
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Run("finished track", func(t *testing.T) {
		track := finishedTrack(t)

		data, err := json.Marshal(track)
		require.NoError(t, err)
		got, err := Restore(data)
		require.NoError(t, err)

		require.True(t, got.Finished())
		require.Equal(t, track.Standings(), got.Standings())
		require.Equal(t, track.World(), got.World(), "World geometry, bindings and latest states should survive")
	})

	t.Run("unfinished track omits standings", func(t *testing.T) {
		track := NewTrack(10, 4)
		track.SetCockroaches(cockroaches("default"))

		data, err := json.Marshal(track)
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		require.NotContains(t, raw, "standings")
		require.Equal(t, false, raw["run_finished"])

		got, err := Restore(data)
		require.NoError(t, err)
		require.False(t, got.Finished())
		require.Empty(t, got.Standings())
	})

	t.Run("restored track runs again", func(t *testing.T) {
		data, err := json.Marshal(finishedTrack(t))
		require.NoError(t, err)
		got, err := Restore(data, WithRegistry(testRegistry()))
		require.NoError(t, err)

		require.NoError(t, got.Run())
		require.True(t, got.Finished())
		require.Len(t, got.Standings(), 3)
	})

	t.Run("in memory snapshot", func(t *testing.T) {
		track := finishedTrack(t)

		got, err := FromSnapshot(track.Serialize())
		require.NoError(t, err)
		require.Equal(t, track.Standings(), got.Standings())

		got.World().Update(game.Move{Speed: game.Vec2{X: 1}}, 0)
		require.NotEqual(t, track.World().States(), got.World().States(), "Restored world should be a copy")
	})
}

func TestRestoreStandings(t *testing.T) {
	world := `{"length": 10, "width": 1, "cockroaches": [
		{"strategy": "a", "state": {"position": [0, 0]}},
		{"strategy": "b", "state": {"position": [0, 0]}}
	]}`

	cases := map[string]struct {
		snapshot  string
		finished  bool
		standings []int
	}{
		"valid":            {`{"run_finished": true, "world": ` + world + `, "standings": [1, 0]}`, true, []int{1, 0}},
		"length mismatch":  {`{"run_finished": true, "world": ` + world + `, "standings": [1]}`, false, nil},
		"missing":          {`{"run_finished": true, "world": ` + world + `}`, false, nil},
		"duplicates":       {`{"run_finished": true, "world": ` + world + `, "standings": [1, 1]}`, false, nil},
		"out of range":     {`{"run_finished": true, "world": ` + world + `, "standings": [0, 2]}`, false, nil},
		"unfinished drops": {`{"run_finished": false, "world": ` + world + `, "standings": [0, 1]}`, false, nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Restore([]byte(tc.snapshot))
			require.NoError(t, err, "Standings problems should not fail the restore")
			require.Equal(t, tc.finished, got.Finished())
			require.Equal(t, tc.standings, got.Standings())
			require.Equal(t, 2, got.World().Len())
		})
	}
}

func TestRestoreMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":             `{"run_finished": tru`,
		"not an object":        `"race"`,
		"missing run_finished": `{"world": {"length": 1, "width": 1, "cockroaches": []}}`,
		"missing world":        `{"run_finished": false}`,
		"null world":           `{"run_finished": false, "world": null}`,
		"wrong flag type":      `{"run_finished": "yes", "world": {"length": 1, "width": 1, "cockroaches": []}}`,
		"wrong standings type": `{"run_finished": true, "world": {"length": 1, "width": 1, "cockroaches": []}, "standings": "0"}`,
		"bad world":            `{"run_finished": false, "world": {"length": 1, "cockroaches": []}}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Restore([]byte(input))
			require.ErrorIs(t, err, game.ErrDeserialization)
			require.Nil(t, got, "No partial track should escape")
		})
	}

	t.Run("finished without cockroaches", func(t *testing.T) {
		got, err := Restore([]byte(`{"run_finished": true, "world": {"length": 1, "width": 1, "cockroaches": []}, "standings": []}`))
		require.NoError(t, err)
		require.False(t, got.Finished())
		require.ErrorIs(t, got.Run(), game.ErrInvalidInput)
		require.False(t, got.Finished())
	})

	t.Run("in memory snapshot without world", func(t *testing.T) {
		got, err := FromSnapshot(Snapshot{RunFinished: true})
		require.ErrorIs(t, err, game.ErrDeserialization)
		require.Nil(t, got)
	})
}
