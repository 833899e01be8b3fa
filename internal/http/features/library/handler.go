// Package library exposes the personal collection CRUD endpoints.
package library

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shelfmark/shelfmark/internal/http/middleware"
	"github.com/shelfmark/shelfmark/internal/httputil"
	"github.com/shelfmark/shelfmark/pkg/domain"
	"github.com/shelfmark/shelfmark/pkg/repository"
)

// Handler handles collection item endpoints.
type Handler struct {
	logger *slog.Logger
	items  *repository.ItemsRepository
}

// NewHandler creates a new library handler.
func NewHandler(logger *slog.Logger, items *repository.ItemsRepository) *Handler {
	return &Handler{logger: logger, items: items}
}

// ItemRequest represents the create/update payload.
type ItemRequest struct {
	Kind   string  `json:"kind"`
	Title  string  `json:"title"`
	Year   *int    `json:"year,omitempty"`
	Rating *int    `json:"rating,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// ItemResponse represents one collection entry.
type ItemResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Year      *int      `json:"year,omitempty"`
	Rating    *int      `json:"rating,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toResponse(item *domain.Item) ItemResponse {
	return ItemResponse{
		ID:        item.ID.String(),
		Kind:      string(item.Kind),
		Title:     item.Title,
		Year:      item.Year,
		Rating:    item.Rating,
		Notes:     item.Notes,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func (r *ItemRequest) validate() string {
	if r.Title == "" {
		return "title is required"
	}
	if !domain.ValidItemKind(domain.ItemKind(r.Kind)) {
		return "kind must be one of game, film, series, book"
	}
	if r.Rating != nil && (*r.Rating < 1 || *r.Rating > 10) {
		return "rating must be between 1 and 10"
	}
	return ""
}

// Create handles POST /v1/items.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.Error(w, http.StatusBadRequest, msg)
		return
	}

	now := time.Now()
	item := &domain.Item{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      domain.ItemKind(req.Kind),
		Title:     req.Title,
		Year:      req.Year,
		Rating:    req.Rating,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.items.Create(r.Context(), item); err != nil {
		h.logger.Error("failed to create item", "user_id", userID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	httputil.JSON(w, http.StatusCreated, toResponse(item))
}

// List handles GET /v1/items?kind=...
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	kind := domain.ItemKind(r.URL.Query().Get("kind"))
	if kind != "" && !domain.ValidItemKind(kind) {
		httputil.Error(w, http.StatusBadRequest, "kind must be one of game, film, series, book")
		return
	}

	items, err := h.items.ListByUser(r.Context(), userID, kind)
	if err != nil {
		h.logger.Error("failed to list items", "user_id", userID, "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	resp := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(item))
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// Get handles GET /v1/items/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, itemID, ok := h.itemScope(w, r)
	if !ok {
		return
	}

	item, err := h.items.GetByID(r.Context(), userID, itemID)
	if err != nil {
		h.writeItemError(w, userID, err)
		return
	}
	httputil.JSON(w, http.StatusOK, toResponse(item))
}

// Update handles PUT /v1/items/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, itemID, ok := h.itemScope(w, r)
	if !ok {
		return
	}

	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		httputil.Error(w, http.StatusBadRequest, msg)
		return
	}

	item := &domain.Item{
		ID:     itemID,
		UserID: userID,
		Kind:   domain.ItemKind(req.Kind),
		Title:  req.Title,
		Year:   req.Year,
		Rating: req.Rating,
		Notes:  req.Notes,
	}
	if err := h.items.Update(r.Context(), item); err != nil {
		h.writeItemError(w, userID, err)
		return
	}

	updated, err := h.items.GetByID(r.Context(), userID, itemID)
	if err != nil {
		h.writeItemError(w, userID, err)
		return
	}
	httputil.JSON(w, http.StatusOK, toResponse(updated))
}

// Delete handles DELETE /v1/items/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, itemID, ok := h.itemScope(w, r)
	if !ok {
		return
	}

	if err := h.items.Delete(r.Context(), userID, itemID); err != nil {
		h.writeItemError(w, userID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) itemScope(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid item id")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, itemID, true
}

func (h *Handler) writeItemError(w http.ResponseWriter, userID uuid.UUID, err error) {
	if errors.Is(err, domain.ErrItemNotFound) {
		httputil.Error(w, http.StatusNotFound, "item not found")
		return
	}
	h.logger.Error("item operation failed", "user_id", userID, "error", err)
	httputil.Error(w, http.StatusInternalServerError, "internal error")
}
