package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"roachrace/communication"
	"roachrace/engine"
	"strings"

	"github.com/gorilla/websocket"
)

// RaceClient talks to a race server over HTTP.
type RaceClient struct {
	serverURL string
	http      *http.Client
	dialer    *websocket.Dialer
}

var _ communication.RaceService = (*RaceClient)(nil)

// NewRaceClient returns a client for the server at serverURL, e.g. "http://localhost:9002".
func NewRaceClient(serverURL string) *RaceClient {
	return &RaceClient{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		http:      http.DefaultClient,
		dialer:    websocket.DefaultDialer,
	}
}

func (rc *RaceClient) Submit(ctx context.Context, snapshot engine.Snapshot) (communication.Race, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return communication.Race{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rc.serverURL+"/races", bytes.NewReader(data))
	if err != nil {
		return communication.Race{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var race communication.Race
	err = rc.do(req, http.StatusCreated, &race)
	return race, err
}

func (rc *RaceClient) Fetch(ctx context.Context, id string) (communication.Race, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rc.serverURL+"/races/"+url.PathEscape(id), nil)
	if err != nil {
		return communication.Race{}, err
	}

	var race communication.Race
	err = rc.do(req, http.StatusOK, &race)
	return race, err
}

func (rc *RaceClient) List(ctx context.Context) ([]communication.RaceEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rc.serverURL+"/races", nil)
	if err != nil {
		return nil, err
	}

	var races []communication.RaceEntry
	err = rc.do(req, http.StatusOK, &races)
	return races, err
}

// Replay streams the race stored under id, calling onTick for every tick
// in order, and returns the final standings.
func (rc *RaceClient) Replay(ctx context.Context, id string, onTick func(communication.TickFrame)) ([]int, error) {
	wsURL, err := rc.websocketURL("/races/" + url.PathEscape(id) + "/ws")
	if err != nil {
		return nil, err
	}
	conn, resp, err := rc.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", communication.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to open replay of %s: %w", id, err)
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("replay of %s ended before standings: %w", id, err)
		}
		env, err := communication.DecodeEnvelope(msg)
		if err != nil {
			return nil, err
		}

		switch env.T {
		case communication.MsgTick:
			frame, err := communication.DecodePayload[communication.TickFrame](env)
			if err != nil {
				return nil, err
			}
			if onTick != nil {
				onTick(frame)
			}
		case communication.MsgStandings:
			return communication.DecodePayload[[]int](env)
		case communication.MsgError:
			reason, _ := communication.DecodePayload[string](env)
			return nil, fmt.Errorf("replay of %s failed: %s", id, reason)
		}
	}
}

func (rc *RaceClient) websocketURL(path string) (string, error) {
	u, err := url.Parse(rc.serverURL + path)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

func (rc *RaceClient) do(req *http.Request, want int, out any) error {
	resp, err := rc.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var e struct {
		Error string `json:"error"`
	}
	reason := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		reason = e.Error
	}

	err := fmt.Errorf("server returned %s: %s", resp.Status, reason)
	if resp.StatusCode == http.StatusNotFound {
		return errors.Join(communication.ErrNotFound, err)
	}
	return err
}
