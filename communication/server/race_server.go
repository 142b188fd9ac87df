package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"roachrace/communication"
	"roachrace/engine"
	"roachrace/game"
	"roachrace/store"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const maxSnapshotSize = 1 << 20 // 1MB

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RaceServer runs submitted races, stores them and streams replays.
type RaceServer struct {
	store   *store.Store
	options []engine.Option
	router  *mux.Router
}

var _ communication.RaceService = (*RaceServer)(nil)

// NewRaceServer serves races stored in s. The options are applied to every
// track the server runs.
func NewRaceServer(s *store.Store, options ...engine.Option) *RaceServer {
	rs := &RaceServer{
		store:   s,
		options: options,
		router:  mux.NewRouter(),
	}
	rs.router.HandleFunc("/races", rs.handleSubmit).Methods(http.MethodPost)
	rs.router.HandleFunc("/races", rs.handleList).Methods(http.MethodGet)
	rs.router.HandleFunc("/races/{id}", rs.handleFetch).Methods(http.MethodGet)
	rs.router.HandleFunc("/races/{id}/ws", rs.handleReplay).Methods(http.MethodGet)
	return rs
}

func (rs *RaceServer) Handler() http.Handler {
	return rs.router
}

// Start serves HTTP on addr until it fails.
func (rs *RaceServer) Start(addr string) error {
	log.Info().Msgf("race server listening on %s", addr)
	return http.ListenAndServe(addr, rs.router)
}

func (rs *RaceServer) Submit(ctx context.Context, snapshot engine.Snapshot) (communication.Race, error) {
	opts := append(append([]engine.Option{}, rs.options...), engine.WithRecorder(engine.NewNopRecorder()))
	track, err := engine.FromSnapshot(snapshot, opts...)
	if err != nil {
		return communication.Race{}, err
	}
	origin := track.Serialize()
	if err := track.Run(); err != nil {
		return communication.Race{}, err
	}

	result := track.Serialize()
	id, err := rs.store.SaveRace(ctx, origin, result)
	if err != nil {
		return communication.Race{}, err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return communication.Race{}, err
	}
	log.Info().Msgf("stored race %s", id)
	return communication.Race{ID: id, Snapshot: data}, nil
}

func (rs *RaceServer) Fetch(ctx context.Context, id string) (communication.Race, error) {
	data, err := rs.store.Raw(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return communication.Race{}, fmt.Errorf("%w: %s", communication.ErrNotFound, id)
	}
	if err != nil {
		return communication.Race{}, err
	}
	return communication.Race{ID: id, Snapshot: data}, nil
}

func (rs *RaceServer) List(ctx context.Context) ([]communication.RaceEntry, error) {
	entries, err := rs.store.List(ctx)
	if err != nil {
		return nil, err
	}
	races := make([]communication.RaceEntry, len(entries))
	for i, e := range entries {
		races[i] = communication.RaceEntry{
			ID:          e.ID,
			RunFinished: e.RunFinished,
			Cockroaches: e.Cockroaches,
			CreatedAt:   e.CreatedAt,
		}
	}
	return races, nil
}

// Replay re-runs the race stored under id from where it started, feeding
// every tick to recorder.
func (rs *RaceServer) Replay(ctx context.Context, id string, recorder engine.Recorder) error {
	data, err := rs.store.Origin(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", communication.ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	opts := append(append([]engine.Option{}, rs.options...), engine.WithRecorder(recorder))
	track, err := engine.Restore(data, opts...)
	if err != nil {
		return err
	}
	return track.Run()
}

func (rs *RaceServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSnapshotSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("snapshot exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	track, err := engine.Restore(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	race, err := rs.Submit(r.Context(), track.Serialize())
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, race)
}

func (rs *RaceServer) handleList(w http.ResponseWriter, r *http.Request) {
	races, err := rs.List(r.Context())
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, races)
}

func (rs *RaceServer) handleFetch(w http.ResponseWriter, r *http.Request) {
	race, err := rs.Fetch(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, race)
}

func (rs *RaceServer) handleReplay(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	// Answer unknown races over plain HTTP, before upgrading
	if _, err := rs.store.Origin(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = fmt.Errorf("%w: %s", communication.ErrNotFound, id)
		}
		writeError(w, statusOf(err), err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	stream := newStreamRecorder(conn)
	if err := rs.Replay(r.Context(), id, stream); err != nil {
		log.Warn().Err(err).Msgf("replay of race %s failed", id)
		stream.send(communication.MsgError, err.Error())
	}
	if stream.err != nil {
		log.Warn().Err(stream.err).Msgf("streaming race %s stopped", id)
		return
	}
	stream.close()
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, communication.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidInput), errors.Is(err, game.ErrDeserialization):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
