package models

import "github.com/shopspring/decimal"

// CategoryTotal is one row of the per-category breakdown.
type CategoryTotal struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Color      string          `json:"color,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
}

// Summary aggregates a list of transactions for the dashboard cards.
type Summary struct {
	Count        int             `json:"count"`
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	Balance      decimal.Decimal `json:"balance"`
	ByCategory   []CategoryTotal `json:"byCategory"`
}
