package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfinance/database"
	"myfinance/migrations"
	"myfinance/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "services.db")
	require.NoError(t, migrations.Run(path))

	db, err := database.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr[T any](v T) *T { return &v }

func TestTransactionStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(setupTestDB(t))

	created, err := store.Create(ctx, models.Transaction{
		Type:        models.TypeExpense,
		Amount:      decimal.RequireFromString("42.50"),
		Description: "Dinner",
		CreatedAt:   time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC),
		CategoryID:  ptr("leisure"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("42.5")))
	assert.Equal(t, "leisure", *got.CategoryID)
	assert.Nil(t, got.Notes)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))

	got.Notes = ptr("with friends")
	updated, err := store.Update(ctx, created.ID, got)
	require.NoError(t, err)
	assert.Equal(t, "with friends", *updated.Notes)

	require.NoError(t, store.Delete(ctx, created.ID))
	_, err = store.Get(ctx, created.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(store.Delete(ctx, created.ID), ErrNotFound))
}

func TestTransactionStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(setupTestDB(t))

	for i, day := range []int{3, 1, 2} {
		_, err := store.Create(ctx, models.Transaction{
			ID:          string(rune('a' + i)),
			Type:        models.TypeIncome,
			Amount:      decimal.NewFromInt(10),
			Description: "pay",
			CreatedAt:   time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	list, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"a", "c", "b"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestTransactionStore_EmptyList(t *testing.T) {
	list, err := NewTransactionStore(setupTestDB(t)).ListTransactions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestTransactionStore_Validation(t *testing.T) {
	store := NewTransactionStore(setupTestDB(t))

	tests := []struct {
		name string
		tx   models.Transaction
	}{
		{"bad type", models.Transaction{Type: "transfer", Amount: decimal.NewFromInt(1), Description: "x"}},
		{"zero amount", models.Transaction{Type: models.TypeIncome, Amount: decimal.Zero, Description: "x"}},
		{"negative amount", models.Transaction{Type: models.TypeIncome, Amount: decimal.NewFromInt(-5), Description: "x"}},
		{"blank description", models.Transaction{Type: models.TypeIncome, Amount: decimal.NewFromInt(1), Description: "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(context.Background(), tt.tx)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestTransactionStore_UpdateMissing(t *testing.T) {
	store := NewTransactionStore(setupTestDB(t))
	_, err := store.Update(context.Background(), "missing", models.Transaction{
		Type: models.TypeIncome, Amount: decimal.NewFromInt(1), Description: "x",
	})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCategoryStore(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	categories := NewCategoryStore(db)
	transactions := NewTransactionStore(db)

	all, err := categories.CategoriesByType(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 6)

	income, err := categories.CategoriesByType(ctx, models.TypeIncome)
	require.NoError(t, err)
	require.Len(t, income, 2)
	assert.Equal(t, "Freelance", income[0].Name)
	assert.Equal(t, "Salary", income[1].Name)

	created, err := categories.Create(ctx, models.Category{Name: " Health ", Type: models.TypeExpense})
	require.NoError(t, err)
	assert.Equal(t, "Health", created.Name)
	assert.NotEmpty(t, created.Color)

	assert.True(t, created.IsActive)

	_, err = categories.Create(ctx, models.Category{Name: "", Type: models.TypeExpense})
	assert.True(t, errors.Is(err, ErrInvalid))

	renamed, err := categories.Update(ctx, created.ID, models.Category{Name: "Pharmacy", Type: models.TypeExpense, Color: "#000000"})
	require.NoError(t, err)
	assert.Equal(t, "Pharmacy", renamed.Name)

	_, err = categories.Update(ctx, "missing", models.Category{Name: "x", Type: models.TypeIncome})
	assert.True(t, errors.Is(err, ErrNotFound))

	tx, err := transactions.Create(ctx, models.Transaction{
		Type: models.TypeExpense, Amount: decimal.NewFromInt(12), Description: "pills", CategoryID: ptr(created.ID),
	})
	require.NoError(t, err)

	require.NoError(t, categories.Delete(ctx, created.ID))
	got, err := transactions.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, *got.CategoryID, "soft delete keeps the transaction's category")

	assert.True(t, errors.Is(categories.Delete(ctx, created.ID), ErrNotFound))
	_, err = categories.Get(ctx, created.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = categories.Update(ctx, created.ID, models.Category{Name: "x", Type: models.TypeExpense})
	assert.True(t, errors.Is(err, ErrNotFound))

	// Name resolution still sees deleted categories.
	all, err = categories.CategoriesByType(ctx, models.TypeExpense)
	require.NoError(t, err)
	assert.Contains(t, CategoryNames([]string{created.ID}, all), "Pharmacy")
}

func TestCategoryStore_ListAndRestore(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	categories := NewCategoryStore(db)
	transactions := NewTransactionStore(db)

	for _, desc := range []string{"bread", "milk"} {
		_, err := transactions.Create(ctx, models.Transaction{
			Type: models.TypeExpense, Amount: decimal.NewFromInt(3), Description: desc, CategoryID: ptr("groceries"),
		})
		require.NoError(t, err)
	}

	listed, err := categories.List(ctx, models.TypeExpense, false)
	require.NoError(t, err)
	require.Len(t, listed, 4)
	counts := map[string]int{}
	for _, c := range listed {
		counts[c.ID] = c.TransactionCount
		assert.True(t, c.IsActive)
	}
	assert.Equal(t, map[string]int{"groceries": 2, "leisure": 0, "rent": 0, "transport": 0}, counts)

	require.NoError(t, categories.Delete(ctx, "groceries"))

	active, err := categories.List(ctx, "", false)
	require.NoError(t, err)
	assert.Len(t, active, 5)

	withDeleted, err := categories.List(ctx, "", true)
	require.NoError(t, err)
	require.Len(t, withDeleted, 6)
	assert.Equal(t, "Freelance", withDeleted[0].Name)
	assert.Equal(t, "Groceries", withDeleted[1].Name)
	assert.False(t, withDeleted[1].IsActive)
	assert.Equal(t, 2, withDeleted[1].TransactionCount)

	restored, err := categories.Restore(ctx, "groceries")
	require.NoError(t, err)
	assert.True(t, restored.IsActive)
	assert.Equal(t, "Groceries", restored.Name)

	got, err := categories.Get(ctx, "groceries")
	require.NoError(t, err)
	assert.Equal(t, restored, got)

	_, err = categories.Restore(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStores_ConstraintViolationsAreConflicts(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	categories := NewCategoryStore(db)
	transactions := NewTransactionStore(db)

	_, err := categories.Create(ctx, models.Category{Name: "Salary", Type: models.TypeIncome})
	assert.True(t, errors.Is(err, ErrConflict), "duplicate name and type: %v", err)

	// Same name under the other type is allowed.
	_, err = categories.Create(ctx, models.Category{Name: "Salary", Type: models.TypeExpense})
	require.NoError(t, err)

	// A deleted category still holds its name.
	require.NoError(t, categories.Delete(ctx, "rent"))
	_, err = categories.Create(ctx, models.Category{Name: "Rent", Type: models.TypeExpense})
	assert.True(t, errors.Is(err, ErrConflict), "name held by a deleted category: %v", err)

	_, err = categories.Update(ctx, "freelance", models.Category{Name: "Salary", Type: models.TypeIncome})
	assert.True(t, errors.Is(err, ErrConflict), "rename onto an existing name: %v", err)

	_, err = transactions.Create(ctx, models.Transaction{
		Type: models.TypeExpense, Amount: decimal.NewFromInt(1), Description: "x", CategoryID: ptr("no-such-category"),
	})
	assert.True(t, errors.Is(err, ErrConflict), "unknown category_id: %v", err)

	created, err := transactions.Create(ctx, models.Transaction{
		Type: models.TypeExpense, Amount: decimal.NewFromInt(1), Description: "x",
	})
	require.NoError(t, err)
	created.CategoryID = ptr("no-such-category")
	_, err = transactions.Update(ctx, created.ID, created)
	assert.True(t, errors.Is(err, ErrConflict), "unknown category_id on update: %v", err)
}

func TestSummarize(t *testing.T) {
	cats := []models.Category{
		{ID: "salary", Name: "Salary", Type: models.TypeIncome, Color: "#2ECC71"},
		{ID: "rent", Name: "Rent", Type: models.TypeExpense},
	}
	txs := []models.Transaction{
		{ID: "1", Type: models.TypeIncome, Amount: decimal.RequireFromString("1000"), CategoryID: ptr("salary")},
		{ID: "2", Type: models.TypeExpense, Amount: decimal.RequireFromString("400.25"), CategoryID: ptr("rent")},
		{ID: "3", Type: models.TypeExpense, Amount: decimal.RequireFromString("20")},
		{ID: "4", Type: models.TypeExpense, Amount: decimal.RequireFromString("5"), CategoryID: ptr("gone")},
	}

	s := Summarize(txs, cats)

	assert.Equal(t, 4, s.Count)
	assert.True(t, s.TotalIncome.Equal(decimal.RequireFromString("1000")))
	assert.True(t, s.TotalExpense.Equal(decimal.RequireFromString("425.25")))
	assert.True(t, s.Balance.Equal(decimal.RequireFromString("574.75")))

	require.Len(t, s.ByCategory, 4)
	assert.Equal(t, "Salary", s.ByCategory[0].Name)
	assert.Equal(t, "#2ECC71", s.ByCategory[0].Color)
	assert.Equal(t, "Rent", s.ByCategory[1].Name)
	assert.Equal(t, "", s.ByCategory[2].CategoryID)
	assert.Equal(t, "Uncategorized", s.ByCategory[2].Name)
	assert.Equal(t, "gone", s.ByCategory[3].CategoryID)
	assert.Equal(t, "Uncategorized", s.ByCategory[3].Name)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, nil)
	assert.Equal(t, 0, s.Count)
	assert.True(t, s.Balance.IsZero())
	assert.NotNil(t, s.ByCategory)
	assert.Empty(t, s.ByCategory)
}

func TestCategoryNames(t *testing.T) {
	cats := []models.Category{{ID: "a", Name: "Food"}, {ID: "b", Name: "Rent"}}
	assert.Equal(t, []string{"Rent", "unknown", "Food"}, CategoryNames([]string{"b", "unknown", "a"}, cats))
	assert.Empty(t, CategoryNames(nil, cats))
}

type countingRefresher struct{ calls int }

func (r *countingRefresher) RefreshPeriod() bool {
	r.calls++
	return true
}

func TestRunScheduler_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	refresher := &countingRefresher{}

	done := make(chan error, 1)
	go func() { done <- RunScheduler(ctx, refresher, quietLogger) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, 1, refresher.calls, "only the startup refresh runs before midnight")
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
