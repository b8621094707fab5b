package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/iudanet/itemsync/internal/models"
	"github.com/iudanet/itemsync/internal/protocol"
	"github.com/iudanet/itemsync/internal/server/storage"
	"github.com/iudanet/itemsync/internal/validation"
	"github.com/iudanet/itemsync/pkg/api"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

//go:generate moq -out publisher_mock.go . Publisher

// Publisher рассылает изменения элементов websocket-сессиям владельца
type Publisher interface {
	Publish(owner, msgType string, payload protocol.Payload)
}

// ItemsHandler обрабатывает REST запросы к коллекции элементов
type ItemsHandler struct {
	logger    *slog.Logger
	storage   storage.ItemStorage
	publisher Publisher
	validate  *validator.Validate
}

// NewItemsHandler создает handler элементов
func NewItemsHandler(logger *slog.Logger, store storage.ItemStorage, publisher Publisher) *ItemsHandler {
	return &ItemsHandler{
		logger:    logger,
		storage:   store,
		publisher: publisher,
		validate:  validation.NewValidator(),
	}
}

// List обрабатывает GET /api/v1/items?cursor=&limit=
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			sendError(h.logger, w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = min(n, maxPageSize)
	}

	items, next, err := h.storage.ListItems(ctx, owner, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list items", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.ListItemsResponse{
		Items:      make([]api.Item, 0, len(items)),
		NextCursor: next,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toDTO(item))
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Get обрабатывает GET /api/v1/items/{id}
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	item, err := h.storage.GetItem(ctx, owner, id)
	if err != nil {
		h.storageError(w, r, err)
		return
	}

	sendJSON(h.logger, w, toDTO(item), http.StatusOK)
}

// Create обрабатывает POST /api/v1/items
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	created, err := h.storage.CreateItem(ctx, owner, req.ClientID, fromRequest("", req))
	if err != nil {
		h.storageError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "item created",
		slog.String("item_id", created.ID),
		slog.String("client_id", req.ClientID))

	h.publisher.Publish(owner, protocol.TypeItemCreated, protocol.NewItemPayload(created))
	sendJSON(h.logger, w, toDTO(created), http.StatusCreated)
}

// Update обрабатывает PUT /api/v1/items/{id}.
// Изменение применяется, только если updated_at строго новее хранимого;
// иначе 409 с текущей версией элемента.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	updated, err := h.storage.UpdateItem(ctx, owner, fromRequest(id, req))
	if err != nil {
		var conflict *storage.ConflictError
		if errors.As(err, &conflict) {
			h.logger.InfoContext(ctx, "stale update rejected",
				slog.String("item_id", id),
				slog.Time("updated_at", req.UpdatedAt),
				slog.Time("current_updated_at", conflict.Current.UpdatedAt))
			sendJSON(h.logger, w, toDTO(conflict.Current), http.StatusConflict)
			return
		}
		h.storageError(w, r, err)
		return
	}

	h.publisher.Publish(owner, protocol.TypeItemUpdated, protocol.NewItemPayload(updated))
	sendJSON(h.logger, w, toDTO(updated), http.StatusOK)
}

// Delete обрабатывает DELETE /api/v1/items/{id}
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	if err := h.storage.DeleteItem(ctx, owner, id); err != nil {
		h.storageError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "item deleted", slog.String("item_id", id))
	h.publisher.Publish(owner, protocol.TypeItemDeleted, protocol.ItemDeleted{ID: id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *ItemsHandler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner, ok := GetOwner(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "owner not found in context")
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
	}
	return owner, ok
}

func (h *ItemsHandler) itemID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := validation.ValidateIdentifier(id); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func (h *ItemsHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (api.ItemRequest, bool) {
	var req api.ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(r.Context(), "failed to decode item request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (h *ItemsHandler) storageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrItemNotFound) {
		sendError(h.logger, w, "item not found", http.StatusNotFound)
		return
	}
	h.logger.ErrorContext(r.Context(), "storage operation failed", slog.Any("error", err))
	sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
}

func fromRequest(id string, req api.ItemRequest) *models.Item {
	return &models.Item{
		ID:        id,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	}
}

func toDTO(item *models.Item) api.Item {
	return api.Item{
		ID:        item.ID,
		Title:     item.Title,
		Content:   item.Content,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
		Version:   item.Version,
	}
}
