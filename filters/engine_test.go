package filters

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfinance/kvstore"
	"myfinance/models"
)

const testKey = "test-filters"

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type failingStore struct{}

func (failingStore) Get(string) (string, bool, error) { return "", false, kvstore.ErrUnavailable }
func (failingStore) Set(string, string) error         { return kvstore.ErrUnavailable }
func (failingStore) Remove(string) error              { return kvstore.ErrUnavailable }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func ptr[T any](v T) *T { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func sampleTransactions() []models.Transaction {
	return []models.Transaction{
		{ID: "1", Type: models.TypeIncome, Amount: decimal.NewFromInt(100), Description: "salary", CreatedAt: date(2024, 1, 5), CategoryID: ptr("salary")},
		{ID: "2", Type: models.TypeExpense, Amount: decimal.NewFromInt(50), Description: "groceries", CreatedAt: date(2024, 2, 10)},
	}
}

func newTestEngine(t *testing.T, store kvstore.Store, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithStorageKey(testKey), WithLogger(quietLogger)}, opts...)
	return New(store, opts...)
}

func ids(txs []models.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}

func TestApply_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		value    any
		expected []string
	}{
		{
			name:     "status expense",
			kind:     KindStatus,
			value:    models.StatusFilter{Type: models.StatusExpense},
			expected: []string{"2"},
		},
		{
			name:     "minimum amount",
			kind:     KindAmountRange,
			value:    models.AmountRange{Min: dec("60")},
			expected: []string{"1"},
		},
		{
			name: "custom date range",
			kind: KindDateRange,
			value: models.DateRange{
				Period:    models.PeriodCustom,
				StartDate: ptr(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
				EndDate:   ptr(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)),
			},
			expected: []string{"2"},
		},
		{
			name:     "category set",
			kind:     KindCategories,
			value:    []string{"salary", "rent"},
			expected: []string{"1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, kvstore.NewMemoryStore())
			require.NoError(t, engine.UpdateFilter(tt.kind, tt.value))
			assert.Equal(t, tt.expected, ids(engine.Apply(sampleTransactions())))
		})
	}
}

func TestApply_EmptyCriteriaReturnsInput(t *testing.T) {
	engine := newTestEngine(t, kvstore.NewMemoryStore())
	txs := sampleTransactions()

	assert.Equal(t, txs, engine.Apply(txs))
	assert.Empty(t, engine.Apply(nil))
}

func TestApply_IsPureAndStable(t *testing.T) {
	engine := newTestEngine(t, kvstore.NewMemoryStore())
	require.NoError(t, engine.UpdateFilter(KindStatus, models.StatusFilter{Type: models.StatusExpense}))

	txs := []models.Transaction{
		{ID: "a", Type: models.TypeExpense, Amount: decimal.NewFromInt(5), CreatedAt: date(2024, 3, 1)},
		{ID: "b", Type: models.TypeIncome, Amount: decimal.NewFromInt(5), CreatedAt: date(2024, 3, 2)},
		{ID: "c", Type: models.TypeExpense, Amount: decimal.NewFromInt(5), CreatedAt: date(2024, 1, 1)},
		{ID: "d", Type: models.TypeExpense, Amount: decimal.NewFromInt(5), CreatedAt: date(2024, 2, 1)},
	}
	original := append([]models.Transaction(nil), txs...)

	first := engine.Apply(txs)
	second := engine.Apply(txs)

	assert.Equal(t, []string{"a", "c", "d"}, ids(first))
	assert.Equal(t, first, second)
	assert.Equal(t, original, txs)
}

func TestApply_AndComposition(t *testing.T) {
	engine := newTestEngine(t, kvstore.NewMemoryStore())
	require.NoError(t, engine.UpdateFilter(KindStatus, models.StatusFilter{Type: models.StatusExpense}))
	require.NoError(t, engine.UpdateFilter(KindAmountRange, models.AmountRange{Min: dec("10"), Max: dec("100")}))
	require.NoError(t, engine.UpdateFilter(KindCategories, []string{"food"}))

	txs := []models.Transaction{
		{ID: "match", Type: models.TypeExpense, Amount: decimal.NewFromInt(40), CreatedAt: date(2024, 1, 1), CategoryID: ptr("food")},
		{ID: "wrong-type", Type: models.TypeIncome, Amount: decimal.NewFromInt(40), CreatedAt: date(2024, 1, 1), CategoryID: ptr("food")},
		{ID: "too-big", Type: models.TypeExpense, Amount: decimal.NewFromInt(400), CreatedAt: date(2024, 1, 1), CategoryID: ptr("food")},
		{ID: "other-category", Type: models.TypeExpense, Amount: decimal.NewFromInt(40), CreatedAt: date(2024, 1, 1), CategoryID: ptr("fun")},
		{ID: "boundary", Type: models.TypeExpense, Amount: decimal.NewFromInt(100), CreatedAt: date(2024, 1, 1), CategoryID: ptr("food")},
	}

	assert.Equal(t, []string{"match", "boundary"}, ids(engine.Apply(txs)))
	assert.Equal(t, 3, engine.ActiveCriteriaCount())
}

func TestApply_MissingDataIsExcluded(t *testing.T) {
	txs := []models.Transaction{
		{ID: "nil-category", Type: models.TypeExpense, Amount: decimal.NewFromInt(1), CreatedAt: date(2024, 1, 1)},
		{ID: "empty-category", Type: models.TypeExpense, Amount: decimal.NewFromInt(1), CreatedAt: date(2024, 1, 1), CategoryID: ptr("")},
		{ID: "no-date", Type: models.TypeExpense, Amount: decimal.NewFromInt(1), CategoryID: ptr("x")},
	}

	t.Run("category filter", func(t *testing.T) {
		c := models.FilterCriteria{Categories: []string{"x", "y"}}
		assert.Equal(t, []string{"no-date"}, ids(ApplyCriteria(c, txs)))
	})

	t.Run("date filter with only an end bound", func(t *testing.T) {
		c := models.FilterCriteria{DateRange: &models.DateRange{Period: models.PeriodCustom, EndDate: ptr(date(2025, 1, 1))}}
		assert.Equal(t, []string{"nil-category", "empty-category"}, ids(ApplyCriteria(c, txs)))
	})
}

func TestApply_ZeroMinimumIsARealBound(t *testing.T) {
	c := models.FilterCriteria{AmountRange: &models.AmountRange{Min: dec("0")}}
	txs := []models.Transaction{
		{ID: "zero", Amount: decimal.Zero},
		{ID: "negative", Amount: decimal.NewFromInt(-1)},
	}

	assert.Equal(t, []string{"zero"}, ids(ApplyCriteria(c, txs)))
	assert.Equal(t, 1, CountActive(c))
}

func TestApply_InvertedRangeMatchesNothing(t *testing.T) {
	c := models.FilterCriteria{AmountRange: &models.AmountRange{Min: dec("100"), Max: dec("10")}}
	assert.Empty(t, ApplyCriteria(c, sampleTransactions()))
}

func TestApply_StatusFlags(t *testing.T) {
	txs := []models.Transaction{
		{ID: "plain", Type: models.TypeExpense},
		{ID: "categorized", Type: models.TypeExpense, CategoryID: ptr("food")},
		{ID: "noted", Type: models.TypeExpense, Notes: ptr("split with Ana")},
		{ID: "blank-note", Type: models.TypeExpense, Notes: ptr("")},
	}

	tests := []struct {
		name     string
		status   models.StatusFilter
		expected []string
	}{
		{"has category", models.StatusFilter{HasCategory: ptr(true)}, []string{"categorized"}},
		{"no category", models.StatusFilter{HasCategory: ptr(false)}, []string{"plain", "noted", "blank-note"}},
		{"has notes", models.StatusFilter{HasNotes: ptr(true)}, []string{"noted"}},
		{"all types", models.StatusFilter{Type: models.StatusAll}, []string{"plain", "categorized", "noted", "blank-note"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := models.FilterCriteria{Status: &tt.status}
			assert.Equal(t, tt.expected, ids(ApplyCriteria(c, txs)))
		})
	}
}

func TestCountActive(t *testing.T) {
	tests := []struct {
		name     string
		criteria models.FilterCriteria
		expected int
	}{
		{"empty", models.FilterCriteria{}, 0},
		{"five categories count once", models.FilterCriteria{Categories: []string{"a", "b", "c", "d", "e"}}, 1},
		{"custom period without dates", models.FilterCriteria{DateRange: &models.DateRange{Period: models.PeriodCustom}}, 0},
		{"status all", models.FilterCriteria{Status: &models.StatusFilter{Type: models.StatusAll}}, 0},
		{"empty amount range", models.FilterCriteria{AmountRange: &models.AmountRange{}}, 0},
		{
			name: "every group",
			criteria: models.FilterCriteria{
				DateRange:   &models.DateRange{Period: models.PeriodCustom, StartDate: ptr(date(2024, 1, 1))},
				Categories:  []string{"a"},
				AmountRange: &models.AmountRange{Max: dec("5")},
				Status:      &models.StatusFilter{Type: models.StatusAll, HasNotes: ptr(true)},
			},
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CountActive(tt.criteria))
		})
	}
}

func TestUpdateFilter_PersistsAndNotifies(t *testing.T) {
	store := kvstore.NewMemoryStore()
	var calls []models.FilterCriteria
	engine := newTestEngine(t, store, WithOnChange(func(c models.FilterCriteria) { calls = append(calls, c) }))

	require.NoError(t, engine.UpdateFilter(KindStatus, models.StatusFilter{Type: models.StatusIncome}))

	assert.Equal(t, 1, engine.ActiveCriteriaCount())
	require.Len(t, calls, 1)
	assert.Equal(t, models.StatusIncome, calls[0].Status.Type)

	raw, ok, err := store.Get(testKey + "-active")
	require.NoError(t, err)
	require.True(t, ok)
	var persisted models.FilterCriteria
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Equal(t, engine.Criteria(), persisted)
}

func TestUpdateFilter_ReplacesSubFilterWholesale(t *testing.T) {
	engine := newTestEngine(t, kvstore.NewMemoryStore())
	require.NoError(t, engine.UpdateFilter(KindAmountRange, models.AmountRange{Min: dec("10"), Max: dec("20")}))
	require.NoError(t, engine.UpdateFilter(KindAmountRange, &models.AmountRange{Max: dec("30")}))

	ar := engine.Criteria().AmountRange
	require.NotNil(t, ar)
	assert.Nil(t, ar.Min)
	assert.True(t, ar.Max.Equal(decimal.NewFromInt(30)))
}

func TestUpdateFilter_NilRemovesSubFilter(t *testing.T) {
	store := kvstore.NewMemoryStore()
	engine := newTestEngine(t, store)
	require.NoError(t, engine.UpdateFilter(KindCategories, []string{"a"}))
	require.NoError(t, engine.UpdateFilter(KindCategories, nil))

	assert.True(t, engine.Criteria().IsEmpty())
	_, ok, _ := store.Get(testKey + "-active")
	assert.False(t, ok)
}

func TestUpdateFilter_Errors(t *testing.T) {
	engine := newTestEngine(t, kvstore.NewMemoryStore())

	err := engine.UpdateFilter("tags", []string{"x"})
	assert.ErrorIs(t, err, ErrUnknownFilter)

	err = engine.UpdateFilter(KindStatus, "expense")
	assert.ErrorIs(t, err, ErrInvalidFilterValue)

	err = engine.UpdateFilter(KindCategories, "food")
	assert.ErrorIs(t, err, ErrInvalidFilterValue)

	assert.True(t, engine.Criteria().IsEmpty())
}

func TestUpdateFilter_CallerCannotMutateState(t *testing.T) {
	engine := newTestEngine(t, kvstore.NewMemoryStore())
	cats := []string{"a", "b"}
	engine.SetCategories(cats)
	cats[0] = "changed"

	got := engine.Criteria()
	got.Categories[1] = "changed"

	assert.Equal(t, []string{"a", "b"}, engine.Criteria().Categories)
}

func TestClearAll(t *testing.T) {
	store := kvstore.NewMemoryStore()
	var last *models.FilterCriteria
	engine := newTestEngine(t, store, WithOnChange(func(c models.FilterCriteria) { last = &c }))

	require.NoError(t, engine.UpdateFilter(KindStatus, models.StatusFilter{Type: models.StatusExpense}))
	require.NoError(t, engine.UpdateFilter(KindCategories, []string{"x"}))
	engine.ClearAll()

	assert.Equal(t, 0, engine.ActiveCriteriaCount())
	require.NotNil(t, last)
	assert.True(t, last.IsEmpty())
	_, ok, err := store.Get(testKey + "-active")
	require.NoError(t, err)
	assert.False(t, ok)

	txs := sampleTransactions()
	assert.Equal(t, txs, engine.Apply(txs))
}

func TestNew_RestoresActiveCriteria(t *testing.T) {
	store := kvstore.NewMemoryStore()
	first := newTestEngine(t, store)
	require.NoError(t, first.UpdateFilter(KindAmountRange, models.AmountRange{Min: dec("60")}))

	second := newTestEngine(t, store)
	assert.Equal(t, []string{"1"}, ids(second.Apply(sampleTransactions())))
}

func TestNew_MalformedActiveFallsBack(t *testing.T) {
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(testKey+"-active", "{not json"))

	engine := newTestEngine(t, store)
	assert.True(t, engine.Criteria().IsEmpty())

	initial := models.FilterCriteria{Status: &models.StatusFilter{Type: models.StatusIncome}}
	withInitial := newTestEngine(t, store, WithInitialCriteria(initial))
	assert.Equal(t, initial, withInitial.Criteria())
}

func TestEngine_StorageFailuresAreSwallowed(t *testing.T) {
	notified := 0
	engine := newTestEngine(t, failingStore{}, WithOnChange(func(models.FilterCriteria) { notified++ }))

	require.NoError(t, engine.UpdateFilter(KindStatus, models.StatusFilter{Type: models.StatusExpense}))
	engine.ClearAll()

	preset, err := engine.SavePreset("kept in memory only", models.FilterCriteria{})
	require.NoError(t, err)
	assert.NotEmpty(t, preset.ID)
	assert.Empty(t, engine.Presets())
	assert.False(t, engine.DeletePreset(preset.ID))
	assert.Equal(t, 2, notified)
}

func TestPresets_RoundTrip(t *testing.T) {
	store := kvstore.NewMemoryStore()
	engine := newTestEngine(t, store)
	criteria := models.FilterCriteria{
		DateRange: &models.DateRange{
			Period:    models.PeriodCustom,
			StartDate: ptr(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
			EndDate:   ptr(time.Date(2024, 2, 28, 23, 59, 59, 0, time.UTC)),
		},
		Categories:  []string{"food", "rent"},
		AmountRange: &models.AmountRange{Min: dec("0"), Max: dec("99.95")},
		Status:      &models.StatusFilter{Type: models.StatusExpense, HasNotes: ptr(false)},
	}

	saved, err := engine.SavePreset("February spending", criteria)
	require.NoError(t, err)

	// Reload through a fresh engine so the preset crosses the JSON boundary.
	reloaded := newTestEngine(t, store).Presets()
	require.Len(t, reloaded, 1)
	assert.Equal(t, saved.ID, reloaded[0].ID)

	var notified int
	engine.OnFiltersChange(func(models.FilterCriteria) { notified++ })
	engine.LoadPreset(reloaded[0])

	got := engine.Criteria()
	assert.Equal(t, criteria.Categories, got.Categories)
	assert.Equal(t, criteria.Status, got.Status)
	assert.True(t, criteria.DateRange.StartDate.Equal(*got.DateRange.StartDate))
	assert.True(t, criteria.DateRange.EndDate.Equal(*got.DateRange.EndDate))
	assert.True(t, criteria.AmountRange.Min.Equal(*got.AmountRange.Min))
	assert.True(t, criteria.AmountRange.Max.Equal(*got.AmountRange.Max))
	assert.Equal(t, 1, notified)
}

func TestSavePreset(t *testing.T) {
	store := kvstore.NewMemoryStore()
	var notified int
	engine := newTestEngine(t, store, WithOnChange(func(models.FilterCriteria) { notified++ }))

	_, err := engine.SavePreset("My Filter", models.FilterCriteria{Status: &models.StatusFilter{Type: models.StatusIncome}})
	require.NoError(t, err)

	raw, ok, err := store.Get(testKey + "-saved")
	require.NoError(t, err)
	require.True(t, ok)

	var presets []models.SavedFilterPreset
	require.NoError(t, json.Unmarshal([]byte(raw), &presets))
	require.Len(t, presets, 1)
	assert.Equal(t, "My Filter", presets[0].Name)
	assert.Equal(t, models.StatusIncome, presets[0].Criteria.Status.Type)
	assert.Zero(t, notified)

	_, err = engine.SavePreset("   ", models.FilterCriteria{})
	assert.True(t, errors.Is(err, ErrEmptyPresetName))
	assert.Len(t, engine.Presets(), 1)
}

func TestDeletePreset(t *testing.T) {
	engine := newTestEngine(t, kvstore.NewMemoryStore())
	first, err := engine.SavePreset("first", models.FilterCriteria{})
	require.NoError(t, err)
	second, err := engine.SavePreset("second", models.FilterCriteria{})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	assert.False(t, engine.DeletePreset("missing"))
	assert.Len(t, engine.Presets(), 2)

	assert.True(t, engine.DeletePreset(first.ID))
	remaining := engine.Presets()
	require.Len(t, remaining, 1)
	assert.Equal(t, second.ID, remaining[0].ID)
}

func TestLoadPresetByID(t *testing.T) {
	engine := newTestEngine(t, kvstore.NewMemoryStore())
	saved, err := engine.SavePreset("income", models.FilterCriteria{Status: &models.StatusFilter{Type: models.StatusIncome}})
	require.NoError(t, err)

	_, ok := engine.LoadPresetByID("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, engine.ActiveCriteriaCount())

	loaded, ok := engine.LoadPresetByID(saved.ID)
	require.True(t, ok)
	assert.Equal(t, "income", loaded.Name)
	assert.Equal(t, []string{"1"}, ids(engine.Apply(sampleTransactions())))
}

func TestPresets_MalformedStorage(t *testing.T) {
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(testKey+"-saved", "[{"))
	engine := newTestEngine(t, store)

	assert.Empty(t, engine.Presets())

	_, err := engine.SavePreset("fresh", models.FilterCriteria{})
	require.NoError(t, err)
	assert.Len(t, engine.Presets(), 1)
}
