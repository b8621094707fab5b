package storage

import (
	"context"
)

//go:generate moq -out authstorage_mock.go . AuthStorage

// AuthStorage defines interface for storing the bearer credential on client.
// The engine never mints tokens: the stored token is issued elsewhere.
type AuthStorage interface {
	// SaveAuth stores authentication data
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored authentication data
	// Returns ErrAuthNotFound if no auth data exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored authentication data (logout)
	DeleteAuth(ctx context.Context) error
}

// AuthData represents authentication information in storage
type AuthData struct {
	Token     string `json:"token"`
	Subject   string `json:"subject"`
	ServerURL string `json:"server_url"`
	ExpiresAt int64  `json:"expires_at"` // unix seconds, 0 = без срока
}
