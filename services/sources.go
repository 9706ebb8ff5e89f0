package services

import (
	"context"
	"errors"

	"myfinance/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
	ErrConflict = errors.New("conflict")
)

// TransactionSource supplies the already-fetched transaction list the filter
// engine runs over.
type TransactionSource interface {
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
}

// CategorySource resolves categories for display. An empty type returns all.
// Deleted categories are included so filtered ids keep resolving to names.
type CategorySource interface {
	CategoriesByType(ctx context.Context, t models.TransactionType) ([]models.Category, error)
}
