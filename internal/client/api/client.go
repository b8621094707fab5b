package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/iudanet/itemsync/internal/models"
	"github.com/iudanet/itemsync/pkg/api"
)

// Compile-time check
var _ RemoteStore = (*Client)(nil)

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
	baseURL    string
}

// NewClient создает новый API клиент.
// Все запросы проходят через circuit breaker: после серии сбоев сервера
// запросы сразу получают ErrUnavailable, пока breaker не перейдёт в half-open.
func NewClient(baseURL string, tokens TokenSource, logger *slog.Logger) *Client {
	c := &Client{
		baseURL: baseURL,
		tokens:  tokens,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "remote-store",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		// 4xx означает, что сервер работает: breaker не размыкаем
		IsSuccessful: func(err error) bool {
			return err == nil || isClientError(err) || errors.Is(err, context.Canceled)
		},
	})

	return c
}

// ListItems получает страницу элементов
func (c *Client) ListItems(ctx context.Context, cursor string, limit int) ([]*models.Item, string, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/v1/items"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp api.ListItemsResponse
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, "", fmt.Errorf("list items request failed: %w", err)
	}

	items := make([]*models.Item, 0, len(resp.Items))
	for _, it := range resp.Items {
		items = append(items, fromDTO(it))
	}
	return items, resp.NextCursor, nil
}

// CreateItem создает элемент на сервере
func (c *Client) CreateItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	req := toRequest(item)
	if models.IsLocalID(item.ID) {
		req.ClientID = item.ID
	}

	var resp api.Item
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/items", req, &resp); err != nil {
		return nil, fmt.Errorf("create item request failed: %w", err)
	}
	return fromDTO(resp), nil
}

// UpdateItem отправляет полный снимок элемента
func (c *Client) UpdateItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	var resp api.Item
	path := "/api/v1/items/" + url.PathEscape(item.ID)
	if err := c.doRequest(ctx, http.MethodPut, path, toRequest(item), &resp); err != nil {
		return nil, fmt.Errorf("update item request failed: %w", err)
	}
	return fromDTO(resp), nil
}

// DeleteItem удаляет элемент на сервере
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	path := "/api/v1/items/" + url.PathEscape(id)
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete item request failed: %w", err)
	}
	return nil
}

// Health проверяет доступность сервера; в обход breaker, чтобы probe видел восстановление
func (c *Client) Health(ctx context.Context) error {
	var resp api.HealthResponse
	if err := c.send(ctx, http.MethodGet, "/api/v1/health", nil, &resp, false); err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	return nil
}

// doRequest выполняет HTTP запрос через circuit breaker
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.send(ctx, method, path, body, result, true)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// send выполняет HTTP запрос
func (c *Client) send(ctx context.Context, method, path string, body, result interface{}, auth bool) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if auth && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to get token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: string(respBody)}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			statusErr.Message = errResp.Error
			if errResp.Message != "" {
				statusErr.Message += ": " + errResp.Message
			}
		}
		if resp.StatusCode == http.StatusConflict {
			var current api.Item
			if err := json.Unmarshal(respBody, &current); err == nil && current.ID != "" {
				statusErr.Current = fromDTO(current)
				statusErr.Message = "server holds a newer version"
			}
		}
		c.logger.Debug("Request failed", "method", method, "path", path, "status", resp.StatusCode)
		return statusErr
	}

	// Декодируем успешный ответ
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func toRequest(item *models.Item) api.ItemRequest {
	return api.ItemRequest{
		Title:     item.Title,
		Content:   item.Content,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func fromDTO(it api.Item) *models.Item {
	return &models.Item{
		ID:        it.ID,
		Title:     it.Title,
		Content:   it.Content,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
		Version:   it.Version,
	}
}
