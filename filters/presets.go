package filters

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"myfinance/models"
)

// Presets returns the persisted presets in save order. Unreadable or
// malformed storage yields an empty list.
func (e *Engine) Presets() []models.SavedFilterPreset {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadPresetsLocked()
}

// SavePreset appends a preset holding a copy of criteria. The id is a
// time-ordered UUID.
func (e *Engine) SavePreset(name string, criteria models.FilterCriteria) (models.SavedFilterPreset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.SavedFilterPreset{}, ErrEmptyPresetName
	}

	preset := models.SavedFilterPreset{
		ID:       newPresetID(),
		Name:     name,
		Criteria: criteria.Clone(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	presets := append(e.loadPresetsLocked(), preset)
	e.storePresetsLocked(presets)
	e.logger.Info("Saved filter preset", "id", preset.ID, "name", preset.Name)
	return preset, nil
}

// LoadPreset replaces the current criteria wholesale with the preset's and
// fires the change callback once. A rolling date range is re-derived from
// the current time, as SetDateRange would.
func (e *Engine) LoadPreset(preset models.SavedFilterPreset) {
	criteria := preset.Criteria.Clone()
	criteria.DateRange = e.derivePeriod(criteria.DateRange)
	e.mutate(func(c *models.FilterCriteria) { *c = criteria })
}

// LoadPresetByID loads the persisted preset with id. It reports whether the
// preset exists.
func (e *Engine) LoadPresetByID(id string) (models.SavedFilterPreset, bool) {
	for _, p := range e.Presets() {
		if p.ID == id {
			e.LoadPreset(p)
			return p, true
		}
	}
	return models.SavedFilterPreset{}, false
}

// DeletePreset removes the preset with id. It reports whether one was removed;
// an unknown id leaves storage untouched.
func (e *Engine) DeletePreset(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	presets := e.loadPresetsLocked()
	kept := make([]models.SavedFilterPreset, 0, len(presets))
	for _, p := range presets {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(presets) {
		return false
	}

	e.storePresetsLocked(kept)
	e.logger.Info("Deleted filter preset", "id", id)
	return true
}

func (e *Engine) loadPresetsLocked() []models.SavedFilterPreset {
	raw, ok, err := e.store.Get(e.savedKey())
	if err != nil {
		e.logger.Warn("Failed to read saved presets", "error", err)
		return []models.SavedFilterPreset{}
	}
	if !ok {
		return []models.SavedFilterPreset{}
	}

	var presets []models.SavedFilterPreset
	if err := json.Unmarshal([]byte(raw), &presets); err != nil {
		e.logger.Warn("Ignoring malformed saved presets", "error", err)
		return []models.SavedFilterPreset{}
	}
	if presets == nil {
		presets = []models.SavedFilterPreset{}
	}
	return presets
}

func (e *Engine) storePresetsLocked(presets []models.SavedFilterPreset) {
	data, err := json.Marshal(presets)
	if err != nil {
		e.logger.Warn("Failed to encode saved presets", "error", err)
		return
	}
	if err := e.store.Set(e.savedKey(), string(data)); err != nil {
		e.logger.Warn("Failed to persist saved presets", "error", err)
	}
}

func newPresetID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
