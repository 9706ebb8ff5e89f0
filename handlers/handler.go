package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"myfinance/events"
	"myfinance/filters"
	"myfinance/models"
	"myfinance/services"
)

// TransactionRepository is the transaction storage the handlers need.
type TransactionRepository interface {
	services.TransactionSource
	Get(ctx context.Context, id string) (models.Transaction, error)
	Create(ctx context.Context, t models.Transaction) (models.Transaction, error)
	Update(ctx context.Context, id string, t models.Transaction) (models.Transaction, error)
	Delete(ctx context.Context, id string) error
}

// CategoryRepository is the category storage the handlers need.
type CategoryRepository interface {
	services.CategorySource
	List(ctx context.Context, t models.TransactionType, includeInactive bool) ([]models.CategoryWithCount, error)
	Get(ctx context.Context, id string) (models.Category, error)
	Create(ctx context.Context, c models.Category) (models.Category, error)
	Update(ctx context.Context, id string, c models.Category) (models.Category, error)
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) (models.Category, error)
}

// Handler serves the REST API.
type Handler struct {
	transactions TransactionRepository
	categories   CategoryRepository
	engine       *filters.Engine
	hub          *events.Hub
	logger       *slog.Logger
}

// New wires the handlers. hub may be nil, in which case the stream endpoint
// answers 503.
func New(transactions TransactionRepository, categories CategoryRepository, engine *filters.Engine, hub *events.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		transactions: transactions,
		categories:   categories,
		engine:       engine,
		hub:          hub,
		logger:       logger,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors to status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrInvalid),
		errors.Is(err, filters.ErrEmptyPresetName),
		errors.Is(err, filters.ErrUnknownFilter),
		errors.Is(err, filters.ErrInvalidFilterValue):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrConflict):
		h.logger.WarnContext(r.Context(), "Request conflicts with stored data", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
