// Package connectivity reports whether the server is reachable.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Observer источник событий online/offline
type Observer interface {
	Online() bool
	OnChange(fn func(online bool))
}

// Manual состояние, которое выставляется вызывающим кодом
type Manual struct {
	handlers []func(bool)
	mu       sync.Mutex
	online   bool
}

// NewManual создает наблюдателя с начальным состоянием
func NewManual(online bool) *Manual {
	return &Manual{online: online}
}

// Online текущее состояние
func (m *Manual) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnChange регистрирует обработчик переходов
func (m *Manual) OnChange(fn func(online bool)) {
	m.mu.Lock()
	m.handlers = append(m.handlers, fn)
	m.mu.Unlock()
}

// Set меняет состояние; обработчики вызываются только при переходе
func (m *Manual) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	handlers := append([]func(bool){}, m.handlers...)
	m.mu.Unlock()

	for _, fn := range handlers {
		fn(online)
	}
}

// Checker проверка доступности сервера
type Checker interface {
	Health(ctx context.Context) error
}

// Probe периодически опрашивает сервер и сообщает о переходах online/offline
type Probe struct {
	*Manual
	checker  Checker
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

// NewProbe создает пробу; состояние до первой проверки offline
func NewProbe(checker Checker, interval time.Duration, logger *slog.Logger) *Probe {
	timeout := interval / 2
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &Probe{
		Manual:   NewManual(false),
		checker:  checker,
		logger:   logger,
		interval: interval,
		timeout:  timeout,
	}
}

// Run проверяет сервер сразу и затем каждые interval до отмены ctx
func (p *Probe) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.check(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *Probe) check(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.checker.Health(checkCtx)
	if ctx.Err() != nil {
		return
	}

	online := err == nil
	if online != p.Online() {
		if online {
			p.logger.Info("Server reachable")
		} else {
			p.logger.Warn("Server unreachable", "error", err)
		}
	}
	p.Set(online)
}
