package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/iudanet/itemsync/internal/metrics"
	"github.com/iudanet/itemsync/internal/protocol"
)

// State состояние соединения
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// StateChange событие перехода между состояниями
type StateChange struct {
	// Err причина перехода, если она есть
	Err      error
	State    State
	Previous State
	// Attempt номер запланированной попытки переподключения
	Attempt int
	// Delay задержка до следующей попытки
	Delay time.Duration
}

// Config параметры соединения
type Config struct {
	Heartbeat   time.Duration
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Factor      float64
	MaxAttempts int
}

// DefaultConfig значения по умолчанию
func DefaultConfig() Config {
	return Config{
		Heartbeat:   30 * time.Second,
		BaseDelay:   2 * time.Second,
		MaxDelay:    60 * time.Second,
		Factor:      2,
		MaxAttempts: 10,
	}
}

// Manager владеет единственным соединением с сервером: переподключение с
// экспоненциальной задержкой, heartbeat и декодирование входящих кадров.
type Manager struct {
	dialer  Dialer
	codec   *protocol.Codec
	logger  *slog.Logger
	metrics *metrics.Metrics
	backoff *backoff.ExponentialBackOff

	transport Transport
	cancel    context.CancelFunc
	done      chan struct{}
	// retryNow прерывает ожидание перед очередной попыткой
	retryNow chan struct{}

	state   State
	cfg     Config
	gen     uint64
	attempt int
	closed  bool

	mu      sync.Mutex
	writeMu sync.Mutex

	handlersMu sync.RWMutex
	onState    []func(StateChange)
	onEnvelope []func(protocol.Envelope)

	awaitingPong atomic.Bool
}

// NewManager создает менеджер соединения
func NewManager(dialer Dialer, codec *protocol.Codec, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Manager {
	def := DefaultConfig()
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = def.Heartbeat
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if cfg.Factor < 1 {
		cfg.Factor = def.Factor
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = def.MaxAttempts
	}

	return &Manager{
		dialer:   dialer,
		codec:    codec,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		state:    StateDisconnected,
		retryNow: make(chan struct{}, 1),
		backoff: &backoff.ExponentialBackOff{
			InitialInterval:     cfg.BaseDelay,
			RandomizationFactor: 0,
			Multiplier:          cfg.Factor,
			MaxInterval:         cfg.MaxDelay,
		},
	}
}

// OnStateChange регистрирует наблюдателя переходов.
// Наблюдатель вызывается синхронно и не должен вызывать Connect/Disconnect.
func (m *Manager) OnStateChange(fn func(StateChange)) {
	m.handlersMu.Lock()
	m.onState = append(m.onState, fn)
	m.handlersMu.Unlock()
}

// OnEnvelope регистрирует получателя входящих сообщений.
// Вызывается из единственной читающей горутины в порядке поступления кадров.
func (m *Manager) OnEnvelope(fn func(protocol.Envelope)) {
	m.handlersMu.Lock()
	m.onEnvelope = append(m.onEnvelope, fn)
	m.handlersMu.Unlock()
}

// State текущее состояние
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect запускает сессию в фоне. Повторный вызов до Disconnect ничего не делает.
func (m *Manager) Connect(ctx context.Context, credential string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.state != StateDisconnected {
		m.mu.Unlock()
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.gen++
	gen := m.gen
	m.cancel = cancel
	m.done = make(chan struct{})
	m.attempt = 0
	m.backoff.Reset()
	change := m.setStateLocked(StateConnecting, 0, 0, nil)
	done := m.done
	m.mu.Unlock()

	m.emitState(change)

	go m.run(runCtx, gen, credential, done)
	return nil
}

// Disconnect штатно закрывает соединение и отменяет таймеры. Терминально.
func (m *Manager) Disconnect(reason string) {
	m.mu.Lock()
	if m.state == StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.gen++
	t := m.transport
	m.transport = nil
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.attempt = 0
	change := m.setStateLocked(StateDisconnected, 0, 0, nil)
	m.mu.Unlock()

	if t != nil {
		m.writeMu.Lock()
		if err := t.Close(reason); err != nil {
			m.logger.Debug("Failed to close transport", "error", err)
		}
		m.writeMu.Unlock()
	}
	m.logger.Info("Disconnected", "reason", reason)
	m.emitState(change)
}

// Close отключается и дожидается завершения фоновой горутины
func (m *Manager) Close() error {
	m.Disconnect("closed")

	m.mu.Lock()
	m.closed = true
	done := m.done
	m.mu.Unlock()

	if done != nil {
		<-done
	}
	return nil
}

// RetryNow запускает запланированную попытку переподключения без ожидания
// задержки. Вне состояния reconnecting ничего не делает. Счетчик попыток не сбрасывается.
func (m *Manager) RetryNow() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateReconnecting {
		return
	}
	select {
	case m.retryNow <- struct{}{}:
	default:
	}
}

// Send кодирует и отправляет сообщение
func (m *Manager) Send(msgType string, payload protocol.Payload) error {
	m.mu.Lock()
	t := m.transport
	connected := m.state == StateConnected
	m.mu.Unlock()

	if !connected || t == nil {
		return ErrNotConnected
	}

	frame, err := m.codec.Encode(msgType, payload)
	if err != nil {
		return err
	}
	return m.write(t, frame)
}

func (m *Manager) write(t Transport, frame []byte) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := t.WriteMessage(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

func (m *Manager) run(ctx context.Context, gen uint64, credential string, done chan struct{}) {
	defer close(done)

	for {
		t, err := m.dialer.Dial(ctx, credential)
		if ctx.Err() != nil {
			if t != nil {
				_ = t.Close("cancelled")
			}
			m.finish(gen, ctx.Err())
			return
		}
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				m.logger.Error("Connection rejected", "error", err)
				m.finish(gen, err)
				return
			}
			if !m.retry(ctx, gen, err) {
				return
			}
			continue
		}

		if !m.opened(gen, t) {
			_ = t.Close("superseded")
			return
		}

		err = m.serve(ctx, t)
		_ = t.Close("")

		if ctx.Err() != nil {
			m.finish(gen, ctx.Err())
			return
		}
		if errors.Is(err, ErrServerClosed) {
			m.logger.Info("Server closed connection")
			m.finish(gen, err)
			return
		}
		m.logger.Warn("Connection lost", "error", err)
		if !m.retry(ctx, gen, err) {
			return
		}
	}
}

// opened переводит менеджер в connected и сбрасывает счетчик попыток
func (m *Manager) opened(gen uint64, t Transport) bool {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return false
	}
	m.transport = t
	m.attempt = 0
	m.backoff.Reset()
	change := m.setStateLocked(StateConnected, 0, 0, nil)
	m.mu.Unlock()

	m.awaitingPong.Store(false)
	m.logger.Info("Connected")
	m.emitState(change)
	return true
}

// retry планирует следующую попытку; false означает, что сессия завершена
func (m *Manager) retry(ctx context.Context, gen uint64, cause error) bool {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return false
	}
	m.transport = nil
	if m.attempt >= m.cfg.MaxAttempts {
		m.mu.Unlock()
		m.logger.Error("Reconnect attempts exhausted", "attempts", m.cfg.MaxAttempts, "error", cause)
		m.finish(gen, fmt.Errorf("%w: %w", ErrReconnectExhausted, cause))
		return false
	}
	m.attempt++
	attempt := m.attempt
	delay := m.backoff.NextBackOff()
	// Сигнал от прошлого ожидания не должен сократить это
	select {
	case <-m.retryNow:
	default:
	}
	change := m.setStateLocked(StateReconnecting, attempt, delay, cause)
	m.mu.Unlock()

	m.metrics.ReconnectScheduled()
	m.logger.Info("Reconnect scheduled", "attempt", attempt, "delay_ms", delay.Milliseconds(), "error", cause)
	m.emitState(change)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		m.finish(gen, ctx.Err())
		return false
	case <-timer.C:
		return true
	case <-m.retryNow:
		m.logger.Info("Reconnect wait skipped", "attempt", attempt)
		return true
	}
}

// finish терминальный переход в disconnected, если сессия всё ещё актуальна
func (m *Manager) finish(gen uint64, cause error) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.transport = nil
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.attempt = 0
	change := m.setStateLocked(StateDisconnected, 0, 0, cause)
	m.mu.Unlock()

	m.emitState(change)
}

// serve читает кадры и шлет heartbeat до первой ошибки
func (m *Manager) serve(ctx context.Context, t Transport) error {
	readErr := make(chan error, 1)
	go func() {
		readErr <- m.readLoop(t)
	}()

	ticker := time.NewTicker(m.cfg.Heartbeat)
	defer ticker.Stop()

	var err error
loop:
	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break loop
		case err = <-readErr:
			return err
		case <-ticker.C:
			if m.awaitingPong.Load() {
				err = ErrHeartbeatTimeout
				break loop
			}
			m.awaitingPong.Store(true)
			frame, encErr := m.codec.Encode(protocol.TypePing, protocol.Heartbeat{Timestamp: time.Now().UnixMilli()})
			if encErr != nil {
				err = encErr
				break loop
			}
			if err = m.write(t, frame); err != nil {
				break loop
			}
		}
	}

	// читающая горутина завершится после закрытия транспорта
	_ = t.Close("")
	<-readErr
	return err
}

func (m *Manager) readLoop(t Transport) error {
	for {
		frame, err := t.ReadMessage()
		if err != nil {
			return err
		}

		env, err := m.codec.Decode(frame)
		if err != nil {
			reason := protocol.ReasonLabel(err)
			m.metrics.FrameDropped(reason)
			m.logger.Warn("Dropped invalid frame", "reason", reason, "error", err)
			continue
		}

		switch env.Type {
		case protocol.TypePing:
			pong, encErr := m.codec.Encode(protocol.TypePong, protocol.Heartbeat{Timestamp: time.Now().UnixMilli()})
			if encErr == nil {
				if err := m.write(t, pong); err != nil {
					m.logger.Debug("Failed to answer ping", "error", err)
				}
			}
		case protocol.TypePong:
			m.awaitingPong.Store(false)
		default:
			m.emitEnvelope(env)
		}
	}
}

func (m *Manager) setStateLocked(state State, attempt int, delay time.Duration, cause error) StateChange {
	change := StateChange{
		State:    state,
		Previous: m.state,
		Attempt:  attempt,
		Delay:    delay,
		Err:      cause,
	}
	m.state = state
	m.metrics.ConnectionState(string(state))
	return change
}

func (m *Manager) emitState(change StateChange) {
	m.handlersMu.RLock()
	handlers := append([]func(StateChange){}, m.onState...)
	m.handlersMu.RUnlock()

	for _, fn := range handlers {
		fn(change)
	}
}

func (m *Manager) emitEnvelope(env protocol.Envelope) {
	m.handlersMu.RLock()
	handlers := append([]func(protocol.Envelope){}, m.onEnvelope...)
	m.handlersMu.RUnlock()

	for _, fn := range handlers {
		fn(env)
	}
}
