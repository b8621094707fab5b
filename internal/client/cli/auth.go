package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/itemsync/internal/client/auth"
)

// RunLogin сохраняет токен доступа. Пустой token запрашивается интерактивно.
func (c *Cli) RunLogin(ctx context.Context, token, serverURL string) error {
	if token == "" {
		var err error
		token, err = c.io.ReadSecret("Access token: ")
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}
	if token == "" {
		return errors.New("token cannot be empty")
	}

	data, err := c.auth.Login(ctx, token, serverURL)
	if err != nil {
		return err
	}

	c.io.Println("✓ Login successful!")
	if data.Subject != "" {
		c.io.Printf("Subject: %s\n", data.Subject)
	}
	c.io.Printf("Server:  %s\n", data.ServerURL)
	if data.ExpiresAt > 0 {
		c.io.Printf("Token expires: %s\n", time.Unix(data.ExpiresAt, 0).UTC().Format(time.RFC3339))
	}
	return nil
}

// RunLogout удаляет сохраненный токен; локальные элементы остаются
func (c *Cli) RunLogout(ctx context.Context) error {
	if err := c.auth.Logout(ctx); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	c.io.Println("✓ Logged out")
	return nil
}

// RunStatus печатает состояние авторизации и очереди синхронизации
func (c *Cli) RunStatus(ctx context.Context) error {
	c.io.Println("=== Status ===")

	data, err := c.auth.Current(ctx)
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		c.io.Println("Auth:    not authenticated (run 'itemsync login')")
	case err != nil:
		return fmt.Errorf("failed to check authentication: %w", err)
	default:
		c.io.Printf("Auth:    %s @ %s\n", data.Subject, data.ServerURL)
		if data.ExpiresAt > 0 && time.Unix(data.ExpiresAt, 0).Before(time.Now()) {
			c.io.Println("⚠️  Token has expired. Please login again.")
		}
	}

	last, err := c.meta.GetLastSyncTime(ctx)
	if err != nil {
		return fmt.Errorf("failed to get last sync time: %w", err)
	}
	if last.IsZero() {
		c.io.Println("Last sync: never")
	} else {
		c.io.Printf("Last sync: %s\n", last.UTC().Format(time.RFC3339))
	}

	pending, err := c.items.PendingCount(ctx)
	if err != nil {
		// Не прерываем выполнение
		c.io.Printf("Warning: failed to get pending sync count: %v\n", err)
		return nil
	}
	if pending > 0 {
		c.io.Printf("⚠️  Pending sync: %d change(s) waiting to be sent\n", pending)
	} else {
		c.io.Println("✓ All changes synchronized with server")
	}
	return nil
}
