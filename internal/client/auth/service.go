package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/itemsync/internal/client/storage"
)

// Service хранит bearer-токен клиента и выдает его соединению и REST-клиенту.
// Токены выпускаются сервером; клиент лишь проверяет срок действия.
type Service struct {
	store  storage.AuthStorage
	logger *slog.Logger
	parser *jwt.Parser
	now    func() time.Time
}

// NewService создает сервис учетных данных
func NewService(store storage.AuthStorage, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		parser: jwt.NewParser(),
		now:    time.Now,
	}
}

// Login проверяет формат токена и сохраняет его вместе с адресом сервера
func (s *Service) Login(ctx context.Context, token, serverURL string) (*storage.AuthData, error) {
	token = strings.TrimSpace(token)
	subject, expiresAt, err := s.inspect(token)
	if err != nil {
		return nil, err
	}
	if expiresAt != 0 && s.now().Unix() >= expiresAt {
		return nil, ErrTokenExpired
	}

	data := &storage.AuthData{
		Token:     token,
		Subject:   subject,
		ServerURL: serverURL,
		ExpiresAt: expiresAt,
	}
	if err := s.store.SaveAuth(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to save auth data: %w", err)
	}

	s.logger.Info("Token stored", "subject", subject, "expires_at", expiresAt)
	return data, nil
}

// Token возвращает действующий токен
func (s *Service) Token(ctx context.Context) (string, error) {
	data, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	if data.ExpiresAt != 0 && s.now().Unix() >= data.ExpiresAt {
		return "", ErrTokenExpired
	}
	return data.Token, nil
}

// Current возвращает сохраненные данные без проверки срока
func (s *Service) Current(ctx context.Context) (*storage.AuthData, error) {
	data, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to get auth data: %w", err)
	}
	return data, nil
}

// IsAuthenticated есть ли действующий токен
func (s *Service) IsAuthenticated(ctx context.Context) (bool, error) {
	_, err := s.Token(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrTokenExpired):
		return false, nil
	default:
		return false, err
	}
}

// Logout удаляет локальный токен
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete local auth data: %w", err)
	}
	return nil
}

// inspect читает subject и exp без проверки подписи: секрет знает только сервер
func (s *Service) inspect(token string) (string, int64, error) {
	if token == "" {
		return "", 0, ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := s.parser.ParseUnverified(token, claims); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var expiresAt int64
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Unix()
	}
	return claims.Subject, expiresAt, nil
}

// StaticToken токен из окружения (ITEMSYNC_TOKEN), минуя хранилище
type StaticToken string

// Token возвращает значение или ErrNotAuthenticated для пустой строки
func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", ErrNotAuthenticated
	}
	return string(t), nil
}
