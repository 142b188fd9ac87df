package store

import (
	"context"
	"path/filepath"
	"roachrace/engine"
	"roachrace/game"
	"testing"

	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	s, err := Open(filepath.Join(t.TempDir(), "races.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func finishedSnapshot(t *testing.T) engine.Snapshot {
	track := engine.NewTrack(10, 4)
	track.SetCockroaches([]game.Cockroach{
		{StrategyName: "default"},
		{StrategyName: "my_strategy"},
	})
	require.NoError(t, track.Run())
	return track.Serialize()
}

func TestSaveAndLoad(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	snapshot := finishedSnapshot(t)

	id, err := s.Save(ctx, snapshot)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	track, err := s.Load(ctx, id)
	require.NoError(t, err)
	require.True(t, track.Finished())
	require.Equal(t, snapshot.Standings, track.Standings())
	require.Equal(t, snapshot.World, track.World())
}

func TestSaveRaceKeepsOrigin(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	track := engine.NewTrack(10, 4)
	track.SetCockroaches([]game.Cockroach{{StrategyName: "default"}})
	origin := track.Serialize()
	require.NoError(t, track.Run())

	id, err := s.SaveRace(ctx, origin, track.Serialize())
	require.NoError(t, err)

	data, err := s.Origin(ctx, id)
	require.NoError(t, err)
	restored, err := engine.Restore(data)
	require.NoError(t, err)
	require.False(t, restored.Finished())
	require.Equal(t, 0.0, restored.World().States()[0].Position.X)

	result, err := s.Load(ctx, id)
	require.NoError(t, err)
	require.True(t, result.Finished())
	require.Equal(t, 10.0, result.World().States()[0].Position.X)
}

func TestOriginFallsBackToData(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, finishedSnapshot(t))
	require.NoError(t, err)

	data, err := s.Origin(ctx, id)
	require.NoError(t, err)
	raw, err := s.Raw(ctx, id)
	require.NoError(t, err)
	require.Equal(t, raw, data)

	_, err = s.Origin(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPutReplaces(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	unfinished := engine.NewTrack(10, 4)
	unfinished.SetCockroaches([]game.Cockroach{{StrategyName: "default"}})
	require.NoError(t, s.Put(ctx, "race", unfinished.Serialize()))
	require.NoError(t, s.Put(ctx, "race", finishedSnapshot(t)))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "race", entries[0].ID)
	require.True(t, entries[0].RunFinished)
	require.Equal(t, 2, entries[0].Cockroaches)
}

func TestPutNeedsWorld(t *testing.T) {
	s := openStore(t)
	require.Error(t, s.Put(context.Background(), "race", engine.Snapshot{}))
}

func TestNotFound(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.Raw(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Load(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, "missing"), ErrNotFound)
}

func TestListAndDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)

	first, err := s.Save(ctx, finishedSnapshot(t))
	require.NoError(t, err)
	second, err := s.Save(ctx, finishedSnapshot(t))
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	entries, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.NoError(t, s.Delete(ctx, first))
	entries, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, second, entries[0].ID)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "races.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.Save(ctx, finishedSnapshot(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Raw(ctx, id)
	require.NoError(t, err, "Snapshots should outlive the connection")
}
