package server

import (
	"roachrace/communication"
	"roachrace/game"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// streamRecorder sends every recorded tick over a websocket as it happens.
// After the first failed write it drops everything.
type streamRecorder struct {
	conn *websocket.Conn
	err  error
}

func newStreamRecorder(conn *websocket.Conn) *streamRecorder {
	return &streamRecorder{conn: conn}
}

func (s *streamRecorder) Begin(ticks, cockroaches int) {}

func (s *streamRecorder) Record(tick int, states []game.State) {
	s.send(communication.MsgTick, communication.TickFrame{Tick: tick, States: states})
}

func (s *streamRecorder) End(standings []int) {
	s.send(communication.MsgStandings, standings)
}

func (s *streamRecorder) send(t string, payload any) {
	if s.err != nil {
		return
	}
	b, err := communication.Encode(t, payload)
	if err != nil {
		s.err = err
		return
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	s.err = s.conn.WriteMessage(websocket.TextMessage, b)
}

func (s *streamRecorder) close() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "race over")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
