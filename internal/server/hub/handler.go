package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/iudanet/itemsync/internal/validation"
	"github.com/iudanet/itemsync/pkg/api"
)

// ServeHTTP обрабатывает GET /api/v1/ws?token=&peer=.
// Токен проверяется до upgrade, поэтому неаутентифицированный клиент получает 401.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := tokenFromRequest(r)
	if token == "" {
		h.logger.Warn("websocket request without token", slog.String("remote_addr", r.RemoteAddr))
		writeError(w, ErrMissingToken.Error(), http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.Validate(token)
	if err != nil {
		h.logger.Warn("websocket token rejected", slog.String("remote_addr", r.RemoteAddr), slog.Any("error", err))
		writeError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	peer := r.URL.Query().Get("peer")
	if peer == "" {
		peer = "peer-" + uuid.NewString()
	}
	if err := validation.ValidateIdentifier(peer); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrader уже ответил клиенту
		h.logger.Warn("failed to upgrade connection", slog.Any("error", err))
		return
	}

	s := newSession(conn, claims.Owner(), peer, h.cfg.SendBuffer, h.logger)
	if err := h.register(s); err != nil {
		s.close()
		h.writePump(s)
		return
	}

	s.logger.Info("websocket session opened", slog.String("remote_addr", r.RemoteAddr))
	go h.writePump(s)
	h.readPump(s)
	s.logger.Info("websocket session closed")
}

// tokenFromRequest токен из параметра token либо из Bearer-заголовка
func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
