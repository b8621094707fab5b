package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/iudanet/itemsync/internal/client/data"
	"github.com/iudanet/itemsync/internal/client/storage"
)

var itemTmpl = template.Must(template.New("item").Parse(itemTemplate))

// RunAdd создает элемент локально; отправка произойдет при следующей синхронизации
func (c *Cli) RunAdd(ctx context.Context, title, content string) error {
	item, err := c.items.CreateItem(ctx, title, content)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	c.io.Printf("✓ Created %s\n", item.ID)
	c.io.Println("Pending sync. Run 'itemsync run' to synchronize with server.")
	return nil
}

// RunEdit применяет изменения заголовка и/или содержимого
func (c *Cli) RunEdit(ctx context.Context, id string, patch data.Patch) error {
	if patch.Title == nil && patch.Content == nil {
		return errors.New("nothing to change: pass --title and/or --content")
	}

	item, err := c.items.UpdateItem(ctx, id, patch)
	if err != nil {
		return c.itemError("update", id, err)
	}

	c.io.Printf("✓ Updated %s\n", item.ID)
	return nil
}

// RunDelete удаляет элемент после подтверждения
func (c *Cli) RunDelete(ctx context.Context, id string, confirmed bool) error {
	item, err := c.items.GetItem(ctx, id)
	if err != nil {
		return c.itemError("get", id, err)
	}

	if !confirmed {
		c.io.Println("About to delete:")
		c.io.Printf("  ID:    %s\n", item.ID)
		c.io.Printf("  Title: %s\n", item.Title)

		answer, err := c.io.ReadInput("Are you sure? (y/N): ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if a := strings.ToLower(answer); a != "y" && a != "yes" {
			c.io.Println("Cancelled.")
			return nil
		}
	}

	if err := c.items.DeleteItem(ctx, id); err != nil {
		return c.itemError("delete", id, err)
	}

	c.io.Printf("✓ Deleted %s\n", id)
	return nil
}

// RunList печатает все элементы; несинхронизированные отмечены звездочкой
func (c *Cli) RunList(ctx context.Context) error {
	items, err := c.items.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}

	if len(items) == 0 {
		c.io.Println("No items found.")
		c.io.Println("Use 'itemsync add <title>' to add your first item.")
		return nil
	}

	c.io.Printf("Found %d item(s):\n", len(items))
	for _, item := range items {
		marker := " "
		if item.NeedsSync {
			marker = "*"
		}
		c.io.Printf("%s %-40s %s\n", marker, item.ID, item.Title)
	}
	return nil
}

// RunGet печатает элемент целиком
func (c *Cli) RunGet(ctx context.Context, id string) error {
	item, err := c.items.GetItem(ctx, id)
	if err != nil {
		return c.itemError("get", id, err)
	}
	if err := itemTmpl.Execute(c.io, item); err != nil {
		return fmt.Errorf("failed to render item: %w", err)
	}
	return nil
}

func (c *Cli) itemError(action, id string, err error) error {
	switch {
	case errors.Is(err, storage.ErrItemNotFound):
		return fmt.Errorf("item not found with ID: %s", id)
	case errors.Is(err, data.ErrTitleTooLong):
		return fmt.Errorf("title is longer than %d characters", data.MaxTitleLength)
	default:
		return fmt.Errorf("failed to %s item: %w", action, err)
	}
}
