// Package filters holds the transaction filter engine: the current criteria,
// the predicate chain that applies them, and named presets persisted in a
// key-value store.
package filters

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"myfinance/kvstore"
	"myfinance/models"
)

// DefaultStorageKey is the base key for persisted filter state.
const DefaultStorageKey = "myfinance-advanced-filters"

var (
	ErrUnknownFilter      = errors.New("unknown filter")
	ErrInvalidFilterValue = errors.New("invalid filter value")
	ErrEmptyPresetName    = errors.New("preset name is required")
)

// Kind names one sub-filter group.
type Kind string

const (
	KindDateRange   Kind = "dateRange"
	KindCategories  Kind = "categories"
	KindAmountRange Kind = "amountRange"
	KindStatus      Kind = "status"
)

// ChangeFunc receives the full criteria after every criteria mutation.
type ChangeFunc func(criteria models.FilterCriteria)

// Engine owns the active filter criteria. It is safe for concurrent use;
// the change callback runs synchronously on the mutating goroutine after
// the engine lock is released.
type Engine struct {
	mu       sync.Mutex
	store    kvstore.Store
	baseKey  string
	criteria models.FilterCriteria
	onChange ChangeFunc
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Engine)

func WithStorageKey(key string) Option {
	return func(e *Engine) {
		if key != "" {
			e.baseKey = key
		}
	}
}

// WithInitialCriteria sets the criteria used when nothing valid is persisted.
func WithInitialCriteria(c models.FilterCriteria) Option {
	return func(e *Engine) { e.criteria = c.Clone() }
}

func WithOnChange(fn ChangeFunc) Option {
	return func(e *Engine) { e.onChange = fn }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an engine over store and restores any persisted active criteria.
func New(store kvstore.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		baseKey: DefaultStorageKey,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "filters", "storage_key", e.baseKey)

	if restored, ok := e.loadActive(); ok {
		e.criteria = restored
		if dr := e.derivePeriod(restored.DateRange); !dr.Equal(restored.DateRange) {
			e.criteria.DateRange = dr
			e.persistActive(e.criteria)
			e.logger.Info("Re-derived restored rolling date range", "period", dr.Period)
		}
	}
	return e
}

func (e *Engine) activeKey() string { return e.baseKey + "-active" }
func (e *Engine) savedKey() string  { return e.baseKey + "-saved" }

// OnFiltersChange replaces the registered change callback. A nil fn unregisters it.
func (e *Engine) OnFiltersChange(fn ChangeFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

// Criteria returns a copy of the current criteria.
func (e *Engine) Criteria() models.FilterCriteria {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.criteria.Clone()
}

// UpdateFilter replaces one sub-filter wholesale. value must be the sub-filter's
// model type (or a pointer to it); nil removes the sub-filter. Ranges are not
// validated: min > max simply matches nothing.
func (e *Engine) UpdateFilter(kind Kind, value any) error {
	switch kind {
	case KindDateRange:
		dr, err := asPointer[models.DateRange](kind, value)
		if err != nil {
			return err
		}
		e.SetDateRange(dr)
	case KindCategories:
		ids, ok := value.([]string)
		if !ok && value != nil {
			return fmt.Errorf("%w: %s expects []string, got %T", ErrInvalidFilterValue, kind, value)
		}
		e.SetCategories(ids)
	case KindAmountRange:
		ar, err := asPointer[models.AmountRange](kind, value)
		if err != nil {
			return err
		}
		e.SetAmountRange(ar)
	case KindStatus:
		st, err := asPointer[models.StatusFilter](kind, value)
		if err != nil {
			return err
		}
		e.SetStatus(st)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFilter, kind)
	}
	return nil
}

func asPointer[T any](kind Kind, value any) (*T, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case T:
		return &v, nil
	case *T:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %s expects %T, got %T", ErrInvalidFilterValue, kind, *new(T), value)
	}
}

// SetDateRange replaces the date sub-filter. A rolling period (anything but
// custom) has its bounds derived from the current time, overriding any
// supplied dates.
func (e *Engine) SetDateRange(dr *models.DateRange) {
	dr = e.derivePeriod(dr)
	e.mutate(func(c *models.FilterCriteria) { c.DateRange = dr })
}

// derivePeriod returns a copy of dr with rolling bounds computed from now.
// Custom and nil ranges are copied unchanged.
func (e *Engine) derivePeriod(dr *models.DateRange) *models.DateRange {
	dr = dr.Clone()
	if dr != nil && dr.Period.Rolling() {
		start, end := PeriodRange(dr.Period, e.now())
		dr.StartDate, dr.EndDate = &start, &end
	}
	return dr
}

// SetCategories replaces the category set. An empty set removes the restriction.
func (e *Engine) SetCategories(ids []string) {
	var set []string
	if len(ids) > 0 {
		set = append([]string(nil), ids...)
	}
	e.mutate(func(c *models.FilterCriteria) { c.Categories = set })
}

func (e *Engine) SetAmountRange(ar *models.AmountRange) {
	ar = ar.Clone()
	e.mutate(func(c *models.FilterCriteria) { c.AmountRange = ar })
}

func (e *Engine) SetStatus(st *models.StatusFilter) {
	st = st.Clone()
	e.mutate(func(c *models.FilterCriteria) { c.Status = st })
}

// ClearAll resets the criteria to empty and removes the persisted active entry.
func (e *Engine) ClearAll() {
	e.mutate(func(c *models.FilterCriteria) { *c = models.FilterCriteria{} })
}

// RefreshPeriod re-derives a rolling date range against the current time.
// It reports whether the criteria changed; unchanged criteria are neither
// persisted nor announced.
func (e *Engine) RefreshPeriod() bool {
	e.mu.Lock()
	current := e.criteria.DateRange
	dr := e.derivePeriod(current)
	if dr.Equal(current) {
		e.mu.Unlock()
		return false
	}
	e.criteria.DateRange = dr
	snapshot, notify := e.commitLocked()
	e.mu.Unlock()

	e.logger.Info("Refreshed rolling date range", "period", dr.Period, "start", *dr.StartDate, "end", *dr.EndDate)
	if notify != nil {
		notify(snapshot)
	}
	return true
}

// mutate applies fn to the criteria, persists the result and fires the
// change callback exactly once.
func (e *Engine) mutate(fn func(c *models.FilterCriteria)) {
	e.mu.Lock()
	fn(&e.criteria)
	snapshot, notify := e.commitLocked()
	e.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
}

func (e *Engine) commitLocked() (models.FilterCriteria, ChangeFunc) {
	e.persistActive(e.criteria)
	return e.criteria.Clone(), e.onChange
}

func (e *Engine) persistActive(c models.FilterCriteria) {
	if c.IsEmpty() {
		if err := e.store.Remove(e.activeKey()); err != nil {
			e.logger.Warn("Failed to remove active filters", "error", err)
		}
		return
	}

	data, err := json.Marshal(c)
	if err != nil {
		e.logger.Warn("Failed to encode active filters", "error", err)
		return
	}
	if err := e.store.Set(e.activeKey(), string(data)); err != nil {
		e.logger.Warn("Failed to persist active filters", "error", err)
	}
}

func (e *Engine) loadActive() (models.FilterCriteria, bool) {
	raw, ok, err := e.store.Get(e.activeKey())
	if err != nil {
		e.logger.Warn("Failed to read active filters, using defaults", "error", err)
		return models.FilterCriteria{}, false
	}
	if !ok {
		return models.FilterCriteria{}, false
	}

	var c models.FilterCriteria
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		e.logger.Warn("Ignoring malformed active filters", "error", err)
		return models.FilterCriteria{}, false
	}
	return c, true
}
