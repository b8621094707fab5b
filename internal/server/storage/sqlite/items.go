package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/itemsync/internal/models"
	"github.com/iudanet/itemsync/internal/server/storage"
)

// Compile-time check
var _ storage.ItemStorage = (*Storage)(nil)

const itemColumns = `id, title, content, version, created_at, updated_at`

// CreateItem stores a new item under a server-assigned ID
func (s *Storage) CreateItem(ctx context.Context, owner, clientID string, item *models.Item) (*models.Item, error) {
	if clientID != "" {
		// Повтор create после потерянного ответа: отдаем уже созданный элемент
		existing, err := s.getByClientID(ctx, owner, clientID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, storage.ErrItemNotFound) {
			return nil, err
		}
	}

	created := &models.Item{
		ID:        uuid.NewString(),
		Title:     item.Title,
		Content:   item.Content,
		Version:   1,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = created.UpdatedAt
	}

	query := `
		INSERT INTO items (id, owner, client_id, title, content, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		created.ID,
		owner,
		nullString(clientID),
		created.Title,
		created.Content,
		created.Version,
		timeToNanos(created.CreatedAt),
		timeToNanos(created.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert item: %w", err)
	}

	return created, nil
}

// UpdateItem applies last-writer-wins by updated_at
func (s *Storage) UpdateItem(ctx context.Context, owner string, item *models.Item) (*models.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner = ? AND id = ?`, owner, item.ID))
	if err != nil {
		return nil, err
	}

	// Равные метки: побеждает хранимая версия
	if !item.IsNewerThan(current) {
		return nil, &storage.ConflictError{Current: current}
	}

	updated := current.Clone()
	updated.Title = item.Title
	updated.Content = item.Content
	updated.UpdatedAt = item.UpdatedAt
	updated.Version++

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET title = ?, content = ?, version = ?, updated_at = ? WHERE owner = ? AND id = ?`,
		updated.Title,
		updated.Content,
		updated.Version,
		timeToNanos(updated.UpdatedAt),
		owner,
		updated.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}
	return updated, nil
}

// DeleteItem removes the item
func (s *Storage) DeleteItem(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrItemNotFound
	}
	return nil
}

// GetItem retrieves a single item
func (s *Storage) GetItem(ctx context.Context, owner, id string) (*models.Item, error) {
	return scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner = ? AND id = ?`, owner, id))
}

// ListItems returns a page of items ordered by ID
func (s *Storage) ListItems(ctx context.Context, owner, cursor string, limit int) (items []*models.Item, next string, err error) {
	if limit <= 0 {
		limit = 100
	}

	// Запрашиваем на одну запись больше, чтобы понять, есть ли следующая страница
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner = ? AND id > ? ORDER BY id LIMIT ?`,
		owner, cursor, limit+1)
	if err != nil {
		return nil, "", fmt.Errorf("failed to query items: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	items = make([]*models.Item, 0, limit)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, "", err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to iterate items: %w", err)
	}

	if len(items) > limit {
		items = items[:limit]
		next = items[limit-1].ID
	}
	return items, next, nil
}

func (s *Storage) getByClientID(ctx context.Context, owner, clientID string) (*models.Item, error) {
	return scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner = ? AND client_id = ?`, owner, clientID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	item := &models.Item{}
	var createdAt, updatedAt int64

	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Content,
		&item.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	item.CreatedAt = nanosToTime(createdAt)
	item.UpdatedAt = nanosToTime(updatedAt)
	return item, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timeToNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func nanosToTime(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
