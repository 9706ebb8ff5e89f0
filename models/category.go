package models

type Category struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Type     TransactionType `json:"type"`
	Color    string          `json:"color,omitempty"`
	Icon     string          `json:"icon,omitempty"`
	IsActive bool            `json:"is_active"`
}

// CategoryWithCount is a category listed with the number of transactions
// filed under it.
type CategoryWithCount struct {
	Category
	TransactionCount int `json:"transaction_count"`
}
