package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/itemsync/internal/client/storage"
	"github.com/iudanet/itemsync/internal/metrics"
	"github.com/iudanet/itemsync/internal/models"
)

// Outcome результат применения удалённого изменения
type Outcome string

const (
	OutcomeInserted    Outcome = "inserted"
	OutcomeUpdated     Outcome = "updated"
	OutcomeIgnored     Outcome = "ignored"
	OutcomeRegenerated Outcome = "regenerated"
	OutcomeRemoved     Outcome = "removed"
)

// Engine применяет удалённые изменения к локальному хранилищу.
// Грязные элементы никогда не перезаписываются входящими обновлениями,
// удаление с сервера побеждает всегда.
type Engine struct {
	items   storage.ItemStorage
	changes storage.OutboxStorage
	writeMu sync.Locker
	logger  *slog.Logger
	metrics *metrics.Metrics

	handlersMu sync.RWMutex
	onChanged  []func(item *models.Item)
	onRemoved  []func(id string)
}

// New создает Engine. writeMu общий с Change Log.
func New(items storage.ItemStorage, changes storage.OutboxStorage, writeMu sync.Locker, logger *slog.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		items:   items,
		changes: changes,
		writeMu: writeMu,
		logger:  logger,
		metrics: m,
	}
}

// OnItemChanged регистрирует наблюдателя изменений элемента
func (e *Engine) OnItemChanged(fn func(item *models.Item)) {
	e.handlersMu.Lock()
	e.onChanged = append(e.onChanged, fn)
	e.handlersMu.Unlock()
}

// OnItemRemoved регистрирует наблюдателя удаления элемента
func (e *Engine) OnItemRemoved(fn func(id string)) {
	e.handlersMu.Lock()
	e.onRemoved = append(e.onRemoved, fn)
	e.handlersMu.Unlock()
}

// events накапливает уведомления, чтобы вызвать их после снятия замка
type events struct {
	changed []*models.Item
	removed []string
}

func (e *Engine) emit(ev events) {
	e.handlersMu.RLock()
	onChanged := append([]func(*models.Item){}, e.onChanged...)
	onRemoved := append([]func(string){}, e.onRemoved...)
	e.handlersMu.RUnlock()

	for _, id := range ev.removed {
		for _, fn := range onRemoved {
			fn(id)
		}
	}
	for _, item := range ev.changed {
		for _, fn := range onChanged {
			fn(item.Clone())
		}
	}
}

// ApplyRemoteCreate применяет item.created
func (e *Engine) ApplyRemoteCreate(ctx context.Context, remote *models.Item) (Outcome, error) {
	var ev events

	outcome, err := e.locked(func() (Outcome, error) {
		existing, err := e.get(ctx, remote.ID)
		if err != nil {
			return "", err
		}

		// Временный ID совпал с серверным: локальному элементу выдаем новый
		if existing != nil && existing.NeedsSync && models.IsLocalID(existing.ID) {
			renamed := existing.Clone()
			renamed.ID = models.NewLocalID()
			if err := e.items.RemapItem(ctx, existing.ID, renamed); err != nil {
				return "", fmt.Errorf("failed to regenerate local id: %w", err)
			}
			if err := e.putClean(ctx, remote); err != nil {
				return "", err
			}
			e.logger.Warn("Local id collided with server id, regenerated",
				"item_id", remote.ID,
				"new_local_id", renamed.ID)
			ev.changed = append(ev.changed, renamed, remote)
			return OutcomeRegenerated, nil
		}

		return e.applyUpdate(ctx, existing, remote, &ev)
	})

	e.finish(outcome, ev)
	return outcome, err
}

// ApplyRemoteUpdate применяет item.updated: только к чистому элементу
// и только если удалённая версия строго новее
func (e *Engine) ApplyRemoteUpdate(ctx context.Context, remote *models.Item) (Outcome, error) {
	var ev events

	outcome, err := e.locked(func() (Outcome, error) {
		existing, err := e.get(ctx, remote.ID)
		if err != nil {
			return "", err
		}
		return e.applyUpdate(ctx, existing, remote, &ev)
	})

	e.finish(outcome, ev)
	return outcome, err
}

func (e *Engine) applyUpdate(ctx context.Context, existing, remote *models.Item, ev *events) (Outcome, error) {
	if existing == nil {
		if err := e.putClean(ctx, remote); err != nil {
			return "", err
		}
		ev.changed = append(ev.changed, remote)
		return OutcomeInserted, nil
	}

	if existing.NeedsSync {
		e.logger.Debug("Remote update ignored, local item has unsynced changes",
			"item_id", remote.ID,
			"local_updated_at", existing.UpdatedAt,
			"remote_updated_at", remote.UpdatedAt)
		return OutcomeIgnored, nil
	}

	if !remote.IsNewerThan(existing) {
		e.logger.Debug("Remote update ignored, not newer",
			"item_id", remote.ID,
			"local_updated_at", existing.UpdatedAt,
			"remote_updated_at", remote.UpdatedAt)
		return OutcomeIgnored, nil
	}

	if err := e.putClean(ctx, remote); err != nil {
		return "", err
	}
	ev.changed = append(ev.changed, remote)
	return OutcomeUpdated, nil
}

// ApplyRemoteDelete применяет item.deleted: удаляет элемент и его отложенное изменение
func (e *Engine) ApplyRemoteDelete(ctx context.Context, id string) (Outcome, error) {
	var ev events

	outcome, err := e.locked(func() (Outcome, error) {
		existing, err := e.get(ctx, id)
		if err != nil {
			return "", err
		}

		change, err := e.changes.GetChange(ctx, id)
		if err != nil && !errors.Is(err, storage.ErrChangeNotFound) {
			return "", fmt.Errorf("failed to get pending change: %w", err)
		}
		if change != nil {
			contentLen := 0
			if change.Item != nil {
				contentLen = len(change.Item.Content)
			}
			e.logger.Warn("Remote delete discards local change",
				"item_id", id,
				"op", change.Op,
				"content_length", contentLen)
			if err := e.changes.DeleteChange(ctx, id); err != nil {
				return "", fmt.Errorf("failed to discard pending change: %w", err)
			}
		}

		if existing == nil {
			return OutcomeIgnored, nil
		}
		if err := e.items.DeleteItem(ctx, id); err != nil {
			return "", fmt.Errorf("failed to delete item: %w", err)
		}
		ev.removed = append(ev.removed, id)
		return OutcomeRemoved, nil
	})

	e.finish(outcome, ev)
	return outcome, err
}

// ApplyEditOperation применяет операцию редактора к содержимому чистого элемента.
// UpdatedAt не меняется: итоговую версию принесет item.updated.
func (e *Engine) ApplyEditOperation(ctx context.Context, itemID string, op models.EditOperation) (Outcome, error) {
	var ev events

	outcome, err := e.locked(func() (Outcome, error) {
		existing, err := e.get(ctx, itemID)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return "", fmt.Errorf("apply operation to %s: %w", itemID, storage.ErrItemNotFound)
		}
		if existing.NeedsSync {
			e.logger.Debug("Edit operation ignored, local item is dirty", "item_id", itemID)
			return OutcomeIgnored, nil
		}

		content, err := op.Apply(existing.Content)
		if err != nil {
			return "", fmt.Errorf("apply operation to %s: %w", itemID, err)
		}
		existing.Content = content
		if err := e.items.PutItem(ctx, existing); err != nil {
			return "", fmt.Errorf("failed to save item: %w", err)
		}
		ev.changed = append(ev.changed, existing)
		return OutcomeUpdated, nil
	})

	e.finish(outcome, ev)
	return outcome, err
}

// RemoveMissing удаляет чистые элементы с серверными ID, которых нет в keep.
// Используется полной синхронизацией, чтобы подобрать пропущенные удаления.
func (e *Engine) RemoveMissing(ctx context.Context, keep map[string]struct{}) ([]string, error) {
	var ev events

	_, err := e.locked(func() (Outcome, error) {
		items, err := e.items.ListItems(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list items: %w", err)
		}
		for _, item := range items {
			if item.NeedsSync || models.IsLocalID(item.ID) {
				continue
			}
			if _, ok := keep[item.ID]; ok {
				continue
			}
			if err := e.items.DeleteItem(ctx, item.ID); err != nil {
				return "", fmt.Errorf("failed to delete item: %w", err)
			}
			ev.removed = append(ev.removed, item.ID)
		}
		return OutcomeRemoved, nil
	})

	e.emit(ev)
	return ev.removed, err
}

func (e *Engine) locked(fn func() (Outcome, error)) (Outcome, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return fn()
}

func (e *Engine) finish(outcome Outcome, ev events) {
	if outcome != "" {
		e.metrics.RemoteOutcome(string(outcome))
	}
	e.emit(ev)
}

func (e *Engine) get(ctx context.Context, id string) (*models.Item, error) {
	item, err := e.items.GetItem(ctx, id)
	if errors.Is(err, storage.ErrItemNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (e *Engine) putClean(ctx context.Context, remote *models.Item) error {
	clean := remote.Clone()
	clean.NeedsSync = false
	clean.Tombstone = false
	if err := e.items.PutItem(ctx, clean); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}
