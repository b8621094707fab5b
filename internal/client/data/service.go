package data

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/iudanet/itemsync/internal/client/storage"
	"github.com/iudanet/itemsync/internal/models"
)

// MaxTitleLength ограничение длины заголовка в символах
const MaxTitleLength = 512

//go:generate moq -out changelog_mock.go . ChangeLog

// ChangeLog очередь локальных мутаций
type ChangeLog interface {
	Enqueue(ctx context.Context, op models.ChangeOp, item *models.Item) (*models.Item, error)
	// Mutate выполняет чтение, fn и постановку в очередь атомарно
	Mutate(ctx context.Context, id string, op models.ChangeOp, fn func(item *models.Item) error) (*models.Item, error)
	ResolveID(id string) string
}

// Patch частичное изменение элемента; nil поля не меняются
type Patch struct {
	Title   *string
	Content *string
}

// Service выполняет локальные мутации элементов. Каждая мутация сразу
// сохраняется и ставится в очередь на отправку, сеть не требуется.
type Service struct {
	items storage.ItemStorage
	log   ChangeLog
	now   func() time.Time
}

// NewService создает сервис локальных мутаций
func NewService(items storage.ItemStorage, log ChangeLog) *Service {
	return &Service{
		items: items,
		log:   log,
		now:   time.Now,
	}
}

// CreateItem создает элемент с временным идентификатором
func (s *Service) CreateItem(ctx context.Context, title, content string) (*models.Item, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item := &models.Item{
		ID:        models.NewLocalID(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	saved, err := s.log.Enqueue(ctx, models.OpCreate, item)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return saved, nil
}

// UpdateItem применяет patch к элементу
func (s *Service) UpdateItem(ctx context.Context, id string, patch Patch) (*models.Item, error) {
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return nil, err
		}
	}

	return s.modify(ctx, id, func(item *models.Item) error {
		if patch.Title != nil {
			item.Title = *patch.Title
		}
		if patch.Content != nil {
			item.Content = *patch.Content
		}
		return nil
	})
}

// ApplyLocalEdit применяет операцию редактирования к содержимому
func (s *Service) ApplyLocalEdit(ctx context.Context, id string, op models.EditOperation) (*models.Item, error) {
	return s.modify(ctx, id, func(item *models.Item) error {
		content, err := op.Apply(item.Content)
		if err != nil {
			return err
		}
		item.Content = content
		return nil
	})
}

// DeleteItem помечает элемент удаленным до подтверждения сервером
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	_, err := s.log.Mutate(ctx, id, models.OpDelete, func(item *models.Item) error {
		if item.Tombstone {
			return storage.ErrItemNotFound
		}
		item.UpdatedAt = s.nextTimestamp(item.UpdatedAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	return nil
}

// GetItem возвращает элемент; элементы, ожидающие удаления, не видны
func (s *Service) GetItem(ctx context.Context, id string) (*models.Item, error) {
	item, err := s.items.GetItem(ctx, s.log.ResolveID(id))
	if err != nil {
		return nil, err
	}
	if item.Tombstone {
		return nil, storage.ErrItemNotFound
	}
	return item, nil
}

// ListItems возвращает видимые элементы
func (s *Service) ListItems(ctx context.Context) ([]*models.Item, error) {
	all, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	visible := make([]*models.Item, 0, len(all))
	for _, item := range all {
		if !item.Tombstone {
			visible = append(visible, item)
		}
	}
	return visible, nil
}

func (s *Service) modify(ctx context.Context, id string, fn func(item *models.Item) error) (*models.Item, error) {
	saved, err := s.log.Mutate(ctx, id, models.OpUpdate, func(item *models.Item) error {
		if item.Tombstone {
			return fmt.Errorf("update %s: %w", id, ErrItemDeleted)
		}
		if err := fn(item); err != nil {
			return err
		}
		item.UpdatedAt = s.nextTimestamp(item.UpdatedAt)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update item %s: %w", id, err)
	}
	return saved, nil
}

// nextTimestamp метка локальной правки строго позже предыдущей версии элемента
func (s *Service) nextTimestamp(prev time.Time) time.Time {
	now := s.now().UTC()
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}

func validateTitle(title string) error {
	if n := utf8.RuneCountInString(title); n > MaxTitleLength {
		return fmt.Errorf("%w: %d > %d", ErrTitleTooLong, n, MaxTitleLength)
	}
	return nil
}
