package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/iudanet/itemsync/internal/client/api"
	"github.com/iudanet/itemsync/internal/client/storage"
	"github.com/iudanet/itemsync/internal/metrics"
	"github.com/iudanet/itemsync/internal/models"
)

// DefaultMaxAttempts число неудачных отправок, после которого запись считается исчерпанной
const DefaultMaxAttempts = 5

// DrainResult итог прохода по outbox
type DrainResult struct {
	Exhausted []string // Exhausted элементы, превысившие лимит попыток
	Sent      int      // Sent подтверждённые сервером записи
	Failed    int      // Failed неудачные попытки в этом проходе
	Conflicts int      // Conflicts сервер хранит более новую версию
	Passes    int      // Passes сколько раз очередь была пройдена
	Deferred  bool     // Deferred слив уже выполнялся, запрошен повторный проход
}

func (r *DrainResult) merge(o DrainResult) {
	r.Sent += o.Sent
	r.Failed += o.Failed
	r.Conflicts += o.Conflicts
	r.Passes += o.Passes
	r.Exhausted = o.Exhausted // актуален последний проход
}

// ChangeLog durable очередь локальных мутаций с объединением по элементу.
// Запись в хранилище выполняется под общим с Reconciliation Engine замком.
type ChangeLog struct {
	items   storage.ItemStorage
	changes storage.OutboxStorage
	remote  api.RemoteStore
	writeMu sync.Locker
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	drainMu  sync.Mutex
	draining bool
	again    bool

	handlersMu sync.RWMutex
	onRemapped []func(oldID string, item *models.Item)

	// remapped временный ID -> серверный, защищено writeMu
	remapped map[string]string

	stopped     atomic.Bool
	maxAttempts int
}

// Option настройка ChangeLog
type Option func(*ChangeLog)

// WithMaxAttempts задает лимит попыток отправки одной записи
func WithMaxAttempts(n int) Option {
	return func(c *ChangeLog) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithMetrics подключает метрики
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *ChangeLog) { c.metrics = m }
}

// WithClock подменяет источник времени
func WithClock(now func() time.Time) Option {
	return func(c *ChangeLog) { c.now = now }
}

// New создает ChangeLog. writeMu должен быть тем же замком, что получает Reconciliation Engine.
func New(items storage.ItemStorage, changes storage.OutboxStorage, remote api.RemoteStore, writeMu sync.Locker, logger *slog.Logger, opts ...Option) *ChangeLog {
	c := &ChangeLog{
		items:       items,
		changes:     changes,
		remote:      remote,
		writeMu:     writeMu,
		logger:      logger,
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
		remapped:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnItemRemapped регистрирует наблюдателя замены временного ID серверным.
// Вызывается после освобождения замка записи.
func (c *ChangeLog) OnItemRemapped(fn func(oldID string, item *models.Item)) {
	c.handlersMu.Lock()
	c.onRemapped = append(c.onRemapped, fn)
	c.handlersMu.Unlock()
}

func (c *ChangeLog) emitRemapped(oldID string, item *models.Item) {
	c.handlersMu.RLock()
	handlers := append([]func(string, *models.Item){}, c.onRemapped...)
	c.handlersMu.RUnlock()

	for _, fn := range handlers {
		fn(oldID, item.Clone())
	}
}

// Enqueue сохраняет элемент и ставит изменение в очередь, объединяя его
// с уже ожидающим изменением этого элемента. Возвращает сохранённый элемент;
// nil означает, что элемент удалён локально без обращения к серверу.
func (c *ChangeLog) Enqueue(ctx context.Context, op models.ChangeOp, item *models.Item) (*models.Item, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOp, op)
	}
	if item == nil || item.ID == "" {
		return nil, fmt.Errorf("enqueue %s: item without id", op)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.enqueueLocked(ctx, op, item)
}

// Mutate читает элемент, применяет к нему fn и ставит изменение в очередь
// одним шагом под замком записи. Временный ID, который уже заменён серверным,
// разрешается в серверный. Ошибка fn возвращается без изменений.
func (c *ChangeLog) Mutate(ctx context.Context, id string, op models.ChangeOp, fn func(item *models.Item) error) (*models.Item, error) {
	if op != models.OpUpdate && op != models.OpDelete {
		return nil, fmt.Errorf("%w: mutate with %q", ErrInvalidOp, op)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	item, err := c.items.GetItem(ctx, c.resolveLocked(id))
	if err != nil {
		return nil, err
	}
	if err := fn(item); err != nil {
		return nil, err
	}
	return c.enqueueLocked(ctx, op, item)
}

// ResolveID возвращает актуальный ID элемента
func (c *ChangeLog) ResolveID(id string) string {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.resolveLocked(id)
}

func (c *ChangeLog) resolveLocked(id string) string {
	if serverID, ok := c.remapped[id]; ok {
		return serverID
	}
	return id
}

func (c *ChangeLog) enqueueLocked(ctx context.Context, op models.ChangeOp, item *models.Item) (*models.Item, error) {
	existing, err := c.changes.GetChange(ctx, item.ID)
	if err != nil && !errors.Is(err, storage.ErrChangeNotFound) {
		return nil, fmt.Errorf("failed to get pending change: %w", err)
	}

	snapshot := item.Clone()
	snapshot.NeedsSync = true

	switch op {
	case models.OpCreate, models.OpUpdate:
		if existing != nil && existing.Op == models.OpDelete {
			return nil, fmt.Errorf("%s %s: %w", op, item.ID, ErrItemDeleted)
		}
		// update после неотправленного create остается create
		if existing != nil && existing.Op == models.OpCreate {
			op = models.OpCreate
		}
	case models.OpDelete:
		// Сервер элемента не видел: удаляем локально и забываем
		if existing != nil && existing.Op == models.OpCreate && models.IsLocalID(item.ID) {
			if err := c.changes.DeleteChange(ctx, item.ID); err != nil {
				return nil, fmt.Errorf("failed to drop pending create: %w", err)
			}
			if err := c.items.DeleteItem(ctx, item.ID); err != nil {
				return nil, fmt.Errorf("failed to delete local item: %w", err)
			}
			c.logger.Debug("Dropped never-synced item", "item_id", item.ID)
			c.reportPending(ctx)
			return nil, nil
		}
		snapshot.Tombstone = true
	}

	change := &models.PendingChange{
		Seq:        ulid.Make().String(),
		ItemID:     item.ID,
		Op:         op,
		Item:       snapshot,
		EnqueuedAt: c.now(),
		Revision:   1,
	}
	if existing != nil {
		// Сохраняем место в очереди
		change.Seq = existing.Seq
		change.EnqueuedAt = existing.EnqueuedAt
		change.Revision = existing.Revision + 1
	}

	if err := c.items.PutItem(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save item: %w", err)
	}
	if err := c.changes.PutChange(ctx, change); err != nil {
		return nil, fmt.Errorf("failed to save pending change: %w", err)
	}

	c.logger.Debug("Change enqueued",
		"item_id", item.ID,
		"op", op,
		"revision", change.Revision,
		"coalesced", existing != nil)
	c.reportPending(ctx)

	return snapshot.Clone(), nil
}

// Discard отбрасывает ожидающее изменение элемента. Элемент помечается чистым;
// элемент, который сервер ещё не видел, удаляется.
func (c *ChangeLog) Discard(ctx context.Context, itemID string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.changes.DeleteChange(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete pending change: %w", err)
	}

	err := c.items.MutateItem(ctx, itemID, func(item *models.Item) (*models.Item, error) {
		if item == nil || models.IsLocalID(item.ID) {
			return nil, nil
		}
		item.NeedsSync = false
		item.Tombstone = false
		return item, nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset item: %w", err)
	}

	c.reportPending(ctx)
	return nil
}

// ResetAttempts обнуляет счетчики попыток, чтобы исчерпанные записи снова отправлялись
func (c *ChangeLog) ResetAttempts(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	queue, err := c.changes.ListChanges(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending changes: %w", err)
	}
	for _, change := range queue {
		if change.Attempts == 0 {
			continue
		}
		change.Attempts = 0
		if err := c.changes.PutChange(ctx, change); err != nil {
			return fmt.Errorf("failed to reset attempts: %w", err)
		}
	}
	return nil
}

// PendingCount возвращает количество ожидающих изменений
func (c *ChangeLog) PendingCount(ctx context.Context) (int, error) {
	return c.changes.CountChanges(ctx)
}

// Stop выставляет флаг отмены: текущий запрос к серверу завершится,
// следующая запись обработана не будет.
func (c *ChangeLog) Stop() {
	c.stopped.Store(true)
}

// Drain отправляет ожидающие изменения в FIFO порядке.
// Повторный вызов во время слива не запускает второй слив: текущий
// выполнит ещё один проход после завершения.
func (c *ChangeLog) Drain(ctx context.Context) (DrainResult, error) {
	c.drainMu.Lock()
	if c.draining {
		c.again = true
		c.drainMu.Unlock()
		return DrainResult{Deferred: true}, nil
	}
	c.draining = true
	c.drainMu.Unlock()

	var total DrainResult
	for {
		res, err := c.drainOnce(ctx)
		total.merge(res)

		c.drainMu.Lock()
		if err != nil || !c.again {
			c.draining = false
			c.again = false
			c.drainMu.Unlock()
			c.reportPending(ctx)
			return total, err
		}
		c.again = false
		c.drainMu.Unlock()
	}
}

func (c *ChangeLog) drainOnce(ctx context.Context) (DrainResult, error) {
	res := DrainResult{Passes: 1}

	queue, err := c.changes.ListChanges(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list pending changes: %w", err)
	}

	for _, change := range queue {
		// Отмена проверяется только между записями
		if c.stopped.Load() {
			return res, ErrStopped
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if change.Attempts >= c.maxAttempts {
			res.Exhausted = append(res.Exhausted, change.ItemID)
			continue
		}

		err := c.send(ctx, change)
		switch {
		case err == nil:
			res.Sent++
			c.metrics.DrainEntry(string(change.Op), "ok")
		case errors.Is(err, api.ErrUnauthorized):
			c.metrics.DrainEntry(string(change.Op), "unauthorized")
			return res, fmt.Errorf("drain aborted on %s: %w", change.ItemID, err)
		case errors.Is(err, api.ErrConflict):
			res.Conflicts++
			c.metrics.DrainEntry(string(change.Op), "conflict")
		default:
			res.Failed++
			c.metrics.DrainEntry(string(change.Op), "failed")
			attempts, ferr := c.recordFailure(ctx, change, err)
			if ferr != nil {
				return res, ferr
			}
			if attempts >= c.maxAttempts {
				res.Exhausted = append(res.Exhausted, change.ItemID)
			}
		}
	}

	return res, nil
}

// send выполняет одну запись и применяет подтверждение к локальному хранилищу
func (c *ChangeLog) send(ctx context.Context, change *models.PendingChange) error {
	switch change.Op {
	case models.OpCreate:
		created, err := c.remote.CreateItem(ctx, change.Item)
		if err != nil {
			return err
		}
		remapped, err := c.ackCreate(ctx, change, created)
		if err != nil {
			return err
		}
		if remapped != nil {
			c.emitRemapped(change.ItemID, remapped)
		}
		return nil

	case models.OpUpdate:
		updated, err := c.remote.UpdateItem(ctx, change.Item)
		if errors.Is(err, api.ErrConflict) {
			// На сервере более новая версия: локальный снимок проигрывает
			c.logger.Warn("Update rejected, server holds a newer version", "item_id", change.ItemID)
			current, _ := api.ConflictCurrent(err)
			if aerr := c.ackConflict(ctx, change, current); aerr != nil {
				return aerr
			}
			return err
		}
		if errors.Is(err, api.ErrNotFound) {
			// Сервер удалил элемент: удаление побеждает
			c.logger.Warn("Update target deleted on server, dropping local edit", "item_id", change.ItemID)
			return c.ackDelete(ctx, change)
		}
		if err != nil {
			return err
		}
		return c.ackUpdate(ctx, change, updated)

	case models.OpDelete:
		err := c.remote.DeleteItem(ctx, change.ItemID)
		if err != nil && !errors.Is(err, api.ErrNotFound) {
			return err
		}
		return c.ackDelete(ctx, change)
	}

	return fmt.Errorf("%w: %q", ErrInvalidOp, change.Op)
}

// ackCreate возвращает элемент под серверным ID; nil, если элемент удален во время запроса
func (c *ChangeLog) ackCreate(ctx context.Context, sent *models.PendingChange, created *models.Item) (*models.Item, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	localID := sent.ItemID
	current, err := c.changes.GetChange(ctx, localID)
	if err != nil && !errors.Is(err, storage.ErrChangeNotFound) {
		return nil, fmt.Errorf("failed to get pending change: %w", err)
	}

	// Элемент удалили локально, пока шёл запрос: удаляем его и на сервере
	if current == nil {
		tombstone := created.Clone()
		tombstone.NeedsSync = true
		tombstone.Tombstone = true
		c.logger.Info("Item deleted while its create was in flight", "item_id", localID, "server_id", created.ID)
		err := c.items.MutateItem(ctx, created.ID, func(item *models.Item) (*models.Item, error) {
			if item == nil {
				return nil, nil
			}
			item.NeedsSync = true
			item.Tombstone = true
			return item, nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to mark server copy deleted: %w", err)
		}
		return nil, c.changes.PutChange(ctx, &models.PendingChange{
			Seq:        ulid.Make().String(),
			ItemID:     created.ID,
			Op:         models.OpDelete,
			Item:       tombstone,
			EnqueuedAt: c.now(),
			Revision:   1,
		})
	}

	// Широковещательное item.created могло прийти раньше ответа
	if err := c.items.DeleteItem(ctx, created.ID); err != nil {
		return nil, fmt.Errorf("failed to clear server copy: %w", err)
	}

	if current.Revision == sent.Revision {
		clean := created.Clone()
		clean.NeedsSync = false
		if err := c.items.RemapItem(ctx, localID, clean); err != nil {
			return nil, fmt.Errorf("failed to remap %s -> %s: %w", localID, created.ID, err)
		}
		c.remapped[localID] = created.ID
		if err := c.changes.DeleteChange(ctx, created.ID); err != nil {
			return nil, fmt.Errorf("failed to delete acknowledged change: %w", err)
		}
		c.logger.Info("Item created on server", "local_id", localID, "item_id", created.ID)
		return clean, nil
	}

	// Во время запроса элемент изменили: переносим под серверный ID, новое состояние остаётся в очереди
	local, err := c.items.GetItem(ctx, localID)
	if err != nil {
		return nil, fmt.Errorf("failed to get local item: %w", err)
	}
	local.ID = created.ID
	local.Version = created.Version
	if err := c.items.RemapItem(ctx, localID, local); err != nil {
		return nil, fmt.Errorf("failed to remap %s -> %s: %w", localID, created.ID, err)
	}
	c.remapped[localID] = created.ID
	moved, err := c.changes.GetChange(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get moved change: %w", err)
	}
	if moved.Op == models.OpCreate {
		moved.Op = models.OpUpdate
	}
	c.logger.Info("Item created on server, newer local edit queued", "local_id", localID, "item_id", created.ID)
	if err := c.changes.PutChange(ctx, moved); err != nil {
		return nil, err
	}
	return local, nil
}

func (c *ChangeLog) ackUpdate(ctx context.Context, sent *models.PendingChange, updated *models.Item) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if !c.unchanged(ctx, sent) {
		// Новое изменение уже в очереди, элемент остается грязным
		return nil
	}

	if err := c.changes.DeleteChange(ctx, sent.ItemID); err != nil {
		return fmt.Errorf("failed to delete acknowledged change: %w", err)
	}

	return c.items.MutateItem(ctx, sent.ItemID, func(item *models.Item) (*models.Item, error) {
		if item == nil {
			return nil, nil
		}
		item.NeedsSync = false
		if updated != nil {
			item.Version = updated.Version
		}
		return item, nil
	})
}

func (c *ChangeLog) ackDelete(ctx context.Context, sent *models.PendingChange) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.changes.DeleteChange(ctx, sent.ItemID); err != nil {
		return fmt.Errorf("failed to delete acknowledged change: %w", err)
	}
	if err := c.items.DeleteItem(ctx, sent.ItemID); err != nil {
		return fmt.Errorf("failed to delete tombstone: %w", err)
	}
	return nil
}

// ackConflict снимает запись и сохраняет серверную версию, если она пришла в ответе.
// Без неё элемент остается как есть до полной синхронизации.
func (c *ChangeLog) ackConflict(ctx context.Context, sent *models.PendingChange, current *models.Item) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if !c.unchanged(ctx, sent) {
		return nil
	}
	if err := c.changes.DeleteChange(ctx, sent.ItemID); err != nil {
		return fmt.Errorf("failed to delete conflicting change: %w", err)
	}
	return c.items.MutateItem(ctx, sent.ItemID, func(item *models.Item) (*models.Item, error) {
		if item == nil {
			return nil, nil
		}
		if current != nil && current.ID == item.ID {
			clean := current.Clone()
			clean.NeedsSync = false
			clean.Tombstone = false
			return clean, nil
		}
		item.NeedsSync = false
		return item, nil
	})
}

func (c *ChangeLog) recordFailure(ctx context.Context, sent *models.PendingChange, sendErr error) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	current, err := c.changes.GetChange(ctx, sent.ItemID)
	if errors.Is(err, storage.ErrChangeNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get pending change: %w", err)
	}

	current.Attempts++
	current.LastError = sendErr.Error()
	if err := c.changes.PutChange(ctx, current); err != nil {
		return 0, fmt.Errorf("failed to record attempt: %w", err)
	}

	c.logger.Warn("Failed to send pending change",
		"item_id", sent.ItemID,
		"op", sent.Op,
		"attempt", current.Attempts,
		"error", sendErr)

	return current.Attempts, nil
}

// unchanged сообщает, что запись в очереди та же, что была отправлена
func (c *ChangeLog) unchanged(ctx context.Context, sent *models.PendingChange) bool {
	current, err := c.changes.GetChange(ctx, sent.ItemID)
	if err != nil {
		return false
	}
	return current.Seq == sent.Seq && current.Revision == sent.Revision
}

func (c *ChangeLog) reportPending(ctx context.Context) {
	if c.metrics == nil {
		return
	}
	if n, err := c.changes.CountChanges(ctx); err == nil {
		c.metrics.SetOutboxPending(n)
	}
}
