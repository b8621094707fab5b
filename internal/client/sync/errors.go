package sync

import "errors"

var (
	// ErrDrainExhausted записи outbox исчерпали лимит попыток
	ErrDrainExhausted = errors.New("pending changes exhausted retry attempts")
	// ErrNotStarted оркестратор не запущен
	ErrNotStarted = errors.New("orchestrator not started")
)
