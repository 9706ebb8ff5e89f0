package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	CategoryID  *string         `json:"category_id,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
}

// HasCategory reports whether the transaction is assigned to a category.
func (t Transaction) HasCategory() bool {
	return t.CategoryID != nil && *t.CategoryID != ""
}

// HasNotes reports whether the transaction carries non-empty notes.
func (t Transaction) HasNotes() bool {
	return t.Notes != nil && *t.Notes != ""
}
