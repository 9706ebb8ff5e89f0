package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"myfinance/events"
	"myfinance/filters"
	"myfinance/models"
	"myfinance/services"
)

const maxFilterBody = 64 << 10

// ActiveFilters is the response of the active-criteria endpoints.
type ActiveFilters struct {
	Criteria      models.FilterCriteria `json:"criteria"`
	ActiveCount   int                   `json:"activeCount"`
	CategoryNames []string              `json:"categoryNames"`
}

// FilteredTransactions is the response of GET /transactions/filtered.
type FilteredTransactions struct {
	Transactions  []models.Transaction `json:"transactions"`
	Summary       models.Summary       `json:"summary"`
	TotalCount    int                  `json:"totalCount"`
	FilteredCount int                  `json:"filteredCount"`
	ActiveCount   int                  `json:"activeCount"`
}

type savePresetRequest struct {
	Name     string                 `json:"name"`
	Criteria *models.FilterCriteria `json:"criteria"`
}

func (h *Handler) activeFilters(r *http.Request) (ActiveFilters, error) {
	criteria := h.engine.Criteria()
	names := []string{}
	if len(criteria.Categories) > 0 {
		categories, err := h.categories.CategoriesByType(r.Context(), "")
		if err != nil {
			return ActiveFilters{}, err
		}
		names = services.CategoryNames(criteria.Categories, categories)
	}
	return ActiveFilters{
		Criteria:      criteria,
		ActiveCount:   filters.CountActive(criteria),
		CategoryNames: names,
	}, nil
}

func (h *Handler) respondActive(w http.ResponseWriter, r *http.Request) {
	active, err := h.activeFilters(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, active)
}

// GetActiveFilters returns the current criteria.
func (h *Handler) GetActiveFilters(w http.ResponseWriter, r *http.Request) {
	h.respondActive(w, r)
}

// UpdateActiveFilter replaces one sub-filter. A JSON null body removes it.
func (h *Handler) UpdateActiveFilter(w http.ResponseWriter, r *http.Request) {
	kind := filters.Kind(mux.Vars(r)["kind"])

	body, err := io.ReadAll(io.LimitReader(r.Body, maxFilterBody))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	value, err := filters.DecodeValue(kind, body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.engine.UpdateFilter(kind, value); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondActive(w, r)
}

func (h *Handler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearAll()
	h.respondActive(w, r)
}

func (h *Handler) GetPresets(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Presets())
}

// SavePreset stores a named preset. Without criteria in the body the current
// criteria are saved.
func (h *Handler) SavePreset(w http.ResponseWriter, r *http.Request) {
	var req savePresetRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxFilterBody)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	criteria := h.engine.Criteria()
	if req.Criteria != nil {
		criteria = *req.Criteria
	}

	preset, err := h.engine.SavePreset(req.Name, criteria)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, preset)
}

func (h *Handler) DeletePreset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.engine.DeletePreset(id) {
		h.writeError(w, r, fmt.Errorf("preset %s: %w", id, services.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadPreset makes the preset's criteria the active criteria.
func (h *Handler) LoadPreset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.engine.LoadPresetByID(id); !ok {
		h.writeError(w, r, fmt.Errorf("preset %s: %w", id, services.ErrNotFound))
		return
	}
	h.respondActive(w, r)
}

// GetFilteredTransactions applies the active criteria to every transaction.
func (h *Handler) GetFilteredTransactions(w http.ResponseWriter, r *http.Request) {
	all, err := h.transactions.ListTransactions(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	categories, err := h.categories.CategoriesByType(r.Context(), "")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	criteria := h.engine.Criteria()
	filtered := filters.ApplyCriteria(criteria, all)
	h.writeJSON(w, http.StatusOK, FilteredTransactions{
		Transactions:  filtered,
		Summary:       services.Summarize(filtered, categories),
		TotalCount:    len(all),
		FilteredCount: len(filtered),
		ActiveCount:   filters.CountActive(criteria),
	})
}

// StreamFilters upgrades to a websocket that receives the current criteria
// followed by every change.
func (h *Handler) StreamFilters(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		http.Error(w, "filter stream disabled", http.StatusServiceUnavailable)
		return
	}

	initial, err := events.NewFilterEvent(h.engine.Criteria(), time.Now()).ToJSON()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.hub.ServeWS(w, r, initial)
}
