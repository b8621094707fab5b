package hub

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/itemsync/internal/protocol"
)

// session одно websocket-подключение пира
type session struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	logger *slog.Logger
	owner  string
	peer   string
	once   sync.Once
}

func newSession(conn *websocket.Conn, owner, peer string, buffer int, logger *slog.Logger) *session {
	return &session{
		conn:   conn,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
		owner:  owner,
		peer:   peer,
		logger: logger.With(slog.String("owner", owner), slog.String("peer", peer)),
	}
}

// enqueue возвращает false, только если буфер переполнен
func (s *session) enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return true
	default:
	}

	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

func (s *session) close() {
	s.once.Do(func() { close(s.done) })
}

// readPump читает кадры до ошибки транспорта; невалидные кадры отбрасываются
func (h *Hub) readPump(s *session) {
	defer func() {
		h.unregister(s)
		s.close()
	}()

	s.conn.SetReadLimit(h.cfg.ReadLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(h.cfg.IdleTimeout))

	for {
		msgType, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read error", slog.Any("error", err))
			} else {
				s.logger.Debug("websocket closed", slog.Any("error", err))
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(h.cfg.IdleTimeout))

		if msgType != websocket.TextMessage {
			continue
		}

		env, err := h.codec.Decode(frame)
		if err != nil {
			h.metrics.FrameDropped(protocol.ReasonLabel(err))
			s.logger.Warn("invalid frame dropped", slog.Any("error", err))
			continue
		}

		h.handle(s, env)
	}
}

// writePump единственный писатель в соединение
func (h *Hub) writePump(s *session) {
	defer func() {
		_ = s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Warn("failed to write frame", slog.Any("error", err))
				s.close()
				return
			}
		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing session")
			err := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.cfg.WriteTimeout))
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				s.logger.Debug("failed to send close frame", slog.Any("error", err))
			}
			return
		}
	}
}
