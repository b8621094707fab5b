package hub

import (
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/itemsync/internal/metrics"
	"github.com/iudanet/itemsync/internal/protocol"
	"github.com/iudanet/itemsync/internal/server/jwt"
)

const (
	defaultPresenceTimeout = 15 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 90 * time.Second
	defaultReadLimit       = 1 << 20
	defaultSendBuffer      = 256
)

//go:generate moq -out token_validator_mock.go . TokenValidator

// TokenValidator проверяет токен доступа
type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

// Config параметры хаба
type Config struct {
	// PresenceTimeout сколько ждать переподключения пира, прежде чем
	// снять его просмотры и блокировки
	PresenceTimeout time.Duration
	WriteTimeout    time.Duration
	// IdleTimeout сессия без входящих кадров дольше этого срока закрывается
	IdleTimeout time.Duration
	ReadLimit   int64
	SendBuffer  int
}

func (c Config) withDefaults() Config {
	if c.PresenceTimeout <= 0 {
		c.PresenceTimeout = defaultPresenceTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = defaultReadLimit
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = defaultSendBuffer
	}
	return c
}

// ownerState присутствие и блокировки в пределах коллекции одного владельца
type ownerState struct {
	sessions map[*session]struct{}
	viewers  map[string]map[string]struct{} // item -> peers
	editors  map[string]string              // item -> peer
	expiry   map[string]*time.Timer         // peer -> отложенное освобождение
}

func newOwnerState() *ownerState {
	return &ownerState{
		sessions: make(map[*session]struct{}),
		viewers:  make(map[string]map[string]struct{}),
		editors:  make(map[string]string),
		expiry:   make(map[string]*time.Timer),
	}
}

func (o *ownerState) empty() bool {
	return len(o.sessions) == 0 && len(o.viewers) == 0 && len(o.editors) == 0 && len(o.expiry) == 0
}

func (o *ownerState) hasPeer(peer string) bool {
	for s := range o.sessions {
		if s.peer == peer {
			return true
		}
	}
	return false
}

// Hub держит websocket-сессии, арбитрирует присутствие и блокировки
// редактирования и рассылает изменения элементов сессиям владельца.
type Hub struct {
	tokens   TokenValidator
	codec    *protocol.Codec
	logger   *slog.Logger
	metrics  *metrics.Metrics
	owners   map[string]*ownerState
	upgrader websocket.Upgrader
	cfg      Config
	mu       sync.Mutex
	closed   bool
}

// New создает хаб
func New(tokens TokenValidator, codec *protocol.Codec, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		tokens:  tokens,
		codec:   codec,
		logger:  logger,
		metrics: m,
		owners:  make(map[string]*ownerState),
		cfg:     cfg.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Клиенты не браузерные, авторизация по токену
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Publish рассылает сообщение всем сессиям владельца
func (h *Hub) Publish(owner, msgType string, payload protocol.Payload) {
	frame, err := h.codec.Encode(msgType, payload)
	if err != nil {
		h.logger.Error("failed to encode broadcast", slog.String("type", msgType), slog.Any("error", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.owners[owner]
	if !ok {
		return
	}

	// Удаленный элемент больше не нуждается в присутствии и блокировке
	if deleted, ok := payload.(protocol.ItemDeleted); ok {
		delete(state.viewers, deleted.ID)
		delete(state.editors, deleted.ID)
	}

	h.fanOutLocked(state, msgType, frame, nil)
}

// Sessions количество активных сессий владельца
func (h *Hub) Sessions(owner string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if state, ok := h.owners[owner]; ok {
		return len(state.sessions)
	}
	return 0
}

// Close закрывает все сессии и отменяет отложенные освобождения
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for _, state := range h.owners {
		for _, t := range state.expiry {
			t.Stop()
		}
		for s := range state.sessions {
			s.close()
			h.metrics.SessionClosed()
		}
	}
	h.owners = make(map[string]*ownerState)
}

func (h *Hub) register(s *session) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}

	state, ok := h.owners[s.owner]
	if !ok {
		state = newOwnerState()
		h.owners[s.owner] = state
	}

	// Пир вернулся до истечения таймаута: его просмотры и блокировки сохраняются
	if t, ok := state.expiry[s.peer]; ok {
		t.Stop()
		delete(state.expiry, s.peer)
		h.logger.Debug("peer reconnected within presence timeout", slog.String("peer", s.peer))
	}

	state.sessions[s] = struct{}{}
	h.metrics.SessionOpened()

	h.sendSnapshotLocked(state, s)
	return nil
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.owners[s.owner]
	if !ok {
		return
	}
	if _, ok := state.sessions[s]; !ok {
		return
	}

	delete(state.sessions, s)
	h.metrics.SessionClosed()

	if h.closed || state.hasPeer(s.peer) {
		return
	}

	owner, peer := s.owner, s.peer
	var timer *time.Timer
	timer = time.AfterFunc(h.cfg.PresenceTimeout, func() {
		h.expirePeer(owner, peer, timer)
	})
	state.expiry[peer] = timer
}

// expirePeer снимает просмотры и блокировки пира, не вернувшегося вовремя
func (h *Hub) expirePeer(owner, peer string, timer *time.Timer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.owners[owner]
	if !ok || state.expiry[peer] != timer {
		return
	}
	delete(state.expiry, peer)

	h.logger.Info("presence timeout expired", slog.String("peer", peer))

	for _, itemID := range slices.Sorted(maps.Keys(state.viewers)) {
		if _, ok := state.viewers[itemID][peer]; ok {
			h.leaveLocked(state, itemID, peer)
		}
	}
	for _, itemID := range slices.Sorted(maps.Keys(state.editors)) {
		if state.editors[itemID] == peer {
			h.releaseLocked(state, itemID, peer)
		}
	}

	if state.empty() {
		delete(h.owners, owner)
	}
}

func (h *Hub) handle(s *session, env protocol.Envelope) {
	switch p := env.Payload.(type) {
	case protocol.Heartbeat:
		if env.Type == protocol.TypePing {
			h.sendTo(s, protocol.TypePong, protocol.Heartbeat{Timestamp: p.Timestamp})
		}
	case protocol.PresenceIntent:
		if p.Peer != s.peer {
			h.logger.Warn("intent for foreign peer dropped",
				slog.String("type", env.Type),
				slog.String("peer", s.peer),
				slog.String("claimed_peer", p.Peer))
			return
		}
		h.handleIntent(s, env.Type, p.ItemID)
	case protocol.EditingOperation:
		h.relayOperation(s, p)
	default:
		h.logger.Debug("unexpected message from client", slog.String("type", env.Type))
	}
}

func (h *Hub) handleIntent(s *session, msgType, itemID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.owners[s.owner]
	if !ok {
		return
	}

	switch msgType {
	case protocol.TypePresenceJoin:
		viewers, ok := state.viewers[itemID]
		if !ok {
			viewers = make(map[string]struct{})
			state.viewers[itemID] = viewers
		}
		viewers[s.peer] = struct{}{}
		h.broadcastPresenceLocked(state, itemID)

	case protocol.TypePresenceLeave:
		h.leaveLocked(state, itemID, s.peer)

	case protocol.TypeEditingRequest:
		holder, held := state.editors[itemID]
		if held && holder != s.peer {
			// Отказ: сообщаем запросившему текущего редактора
			h.sendToLocked(s, protocol.TypeEditingUpdate, protocol.EditingUpdate{ItemID: itemID, Editor: &holder})
			return
		}
		state.editors[itemID] = s.peer
		h.broadcastEditorLocked(state, itemID)

	case protocol.TypeEditingRelease:
		h.releaseLocked(state, itemID, s.peer)
	}
}

func (h *Hub) leaveLocked(state *ownerState, itemID, peer string) {
	viewers, ok := state.viewers[itemID]
	if !ok {
		return
	}
	if _, ok := viewers[peer]; !ok {
		return
	}
	delete(viewers, peer)
	h.broadcastPresenceLocked(state, itemID)
	if len(viewers) == 0 {
		delete(state.viewers, itemID)
	}
}

// releaseLocked снимает блокировку, только если ее держит peer
func (h *Hub) releaseLocked(state *ownerState, itemID, peer string) {
	if state.editors[itemID] != peer {
		return
	}
	delete(state.editors, itemID)
	h.broadcastEditorLocked(state, itemID)
}

func (h *Hub) relayOperation(s *session, op protocol.EditingOperation) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.owners[s.owner]
	if !ok {
		return
	}

	if op.Peer != s.peer || state.editors[op.ItemID] != s.peer {
		h.logger.Warn("edit operation from non-editor dropped",
			slog.String("item_id", op.ItemID),
			slog.String("peer", s.peer))
		return
	}

	frame, err := h.codec.Encode(protocol.TypeEditingOperation, op)
	if err != nil {
		h.logger.Error("failed to encode operation", slog.Any("error", err))
		return
	}
	h.fanOutLocked(state, protocol.TypeEditingOperation, frame, s)
}

func (h *Hub) broadcastPresenceLocked(state *ownerState, itemID string) {
	viewers := slices.Sorted(maps.Keys(state.viewers[itemID]))
	if viewers == nil {
		viewers = []string{}
	}
	h.encodeAndFanOutLocked(state, protocol.TypePresenceUpdate, protocol.PresenceUpdate{ItemID: itemID, Viewers: viewers})
}

func (h *Hub) broadcastEditorLocked(state *ownerState, itemID string) {
	update := protocol.EditingUpdate{ItemID: itemID}
	if editor, ok := state.editors[itemID]; ok {
		update.Editor = &editor
	}
	h.encodeAndFanOutLocked(state, protocol.TypeEditingUpdate, update)
}

// sendSnapshotLocked сообщает новой сессии текущее присутствие и блокировки
func (h *Hub) sendSnapshotLocked(state *ownerState, s *session) {
	for _, itemID := range slices.Sorted(maps.Keys(state.viewers)) {
		viewers := slices.Sorted(maps.Keys(state.viewers[itemID]))
		h.sendToLocked(s, protocol.TypePresenceUpdate, protocol.PresenceUpdate{ItemID: itemID, Viewers: viewers})
	}
	for _, itemID := range slices.Sorted(maps.Keys(state.editors)) {
		editor := state.editors[itemID]
		h.sendToLocked(s, protocol.TypeEditingUpdate, protocol.EditingUpdate{ItemID: itemID, Editor: &editor})
	}
}

func (h *Hub) encodeAndFanOutLocked(state *ownerState, msgType string, payload protocol.Payload) {
	frame, err := h.codec.Encode(msgType, payload)
	if err != nil {
		h.logger.Error("failed to encode broadcast", slog.String("type", msgType), slog.Any("error", err))
		return
	}
	h.fanOutLocked(state, msgType, frame, nil)
}

// fanOutLocked отправляет кадр всем сессиям владельца, кроме except
func (h *Hub) fanOutLocked(state *ownerState, msgType string, frame []byte, except *session) {
	h.metrics.Broadcast(msgType)
	for s := range state.sessions {
		if s == except {
			continue
		}
		h.enqueueLocked(s, frame)
	}
}

func (h *Hub) sendTo(s *session, msgType string, payload protocol.Payload) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendToLocked(s, msgType, payload)
}

func (h *Hub) sendToLocked(s *session, msgType string, payload protocol.Payload) {
	frame, err := h.codec.Encode(msgType, payload)
	if err != nil {
		h.logger.Error("failed to encode message", slog.String("type", msgType), slog.Any("error", err))
		return
	}
	h.enqueueLocked(s, frame)
}

// enqueueLocked не блокирует хаб: медленная сессия закрывается
func (h *Hub) enqueueLocked(s *session, frame []byte) {
	if s.enqueue(frame) {
		return
	}
	h.logger.Warn("session send buffer full, closing", slog.String("peer", s.peer))
	s.close()
}
