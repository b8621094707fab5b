package connection

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	defaultReadLimit        = 1 << 20
)

// WebSocketDialer подключается к websocket-эндпоинту сервера
type WebSocketDialer struct {
	URL              string
	Peer             string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadLimit        int64
}

// Dial передает credential и как параметр token, и как Bearer-заголовок
func (d *WebSocketDialer) Dial(ctx context.Context, credential string) (Transport, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse websocket url: %w", err)
	}
	q := u.Query()
	q.Set("token", credential)
	if d.Peer != "" {
		q.Set("peer", d.Peer)
	}
	u.RawQuery = q.Encode()

	handshake := d.HandshakeTimeout
	if handshake <= 0 {
		handshake = defaultHandshakeTimeout
	}
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshake,
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+credential)

	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("failed to dial %s: %w", d.redactedURL(), ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to dial %s: %w", d.redactedURL(), err)
	}

	limit := d.ReadLimit
	if limit <= 0 {
		limit = defaultReadLimit
	}
	conn.SetReadLimit(limit)

	writeTimeout := d.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &wsTransport{conn: conn, writeTimeout: writeTimeout}, nil
}

// redactedURL адрес без токена для логов и ошибок
func (d *WebSocketDialer) redactedURL() string {
	u, err := url.Parse(d.URL)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}

type wsTransport struct {
	conn         *websocket.Conn
	closeOnce    sync.Once
	writeTimeout time.Duration
}

func (t *wsTransport) ReadMessage() ([]byte, error) {
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil, fmt.Errorf("%w: %w", ErrServerClosed, err)
			}
			return nil, err
		}
		// бинарные кадры протоколом не используются
		if msgType != websocket.TextMessage {
			continue
		}
		return data, nil
	}
}

func (t *wsTransport) WriteMessage(data []byte) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close(reason string) error {
	var err error
	t.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		werr := t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(t.writeTimeout))
		if werr != nil && errors.Is(werr, websocket.ErrCloseSent) {
			werr = nil
		}
		err = errors.Join(werr, t.conn.Close())
	})
	return err
}
