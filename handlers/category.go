package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"myfinance/models"
)

// GetCategories lists categories with their transaction counts, optionally
// restricted by ?type=income|expense. Deleted categories are listed only with
// ?include_inactive=true.
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	t := models.TransactionType(query.Get("type"))
	if t != "" && !t.Valid() {
		http.Error(w, "type must be 'income' or 'expense'", http.StatusBadRequest)
		return
	}

	includeInactive := false
	if raw := query.Get("include_inactive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "include_inactive must be a boolean", http.StatusBadRequest)
			return
		}
		includeInactive = v
	}

	categories, err := h.categories.List(r.Context(), t, includeInactive)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.categories.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, category)
}

func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var c models.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.categories.Create(r.Context(), c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c models.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.categories.Update(r.Context(), mux.Vars(r)["id"], c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.categories.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RestoreCategory(w http.ResponseWriter, r *http.Request) {
	restored, err := h.categories.Restore(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, restored)
}
