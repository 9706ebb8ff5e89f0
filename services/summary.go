package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"myfinance/models"
)

const uncategorizedName = "Uncategorized"

// Summarize totals transactions for the dashboard. Expenses count against the
// balance. The breakdown is sorted by total descending, then by name.
func Summarize(transactions []models.Transaction, categories []models.Category) models.Summary {
	byID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	summary := models.Summary{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		ByCategory:   []models.CategoryTotal{},
	}
	buckets := map[string]*models.CategoryTotal{}
	var order []string

	for _, t := range transactions {
		summary.Count++
		switch t.Type {
		case models.TypeIncome:
			summary.TotalIncome = summary.TotalIncome.Add(t.Amount)
		case models.TypeExpense:
			summary.TotalExpense = summary.TotalExpense.Add(t.Amount)
		}

		key := ""
		if t.HasCategory() {
			key = *t.CategoryID
		}
		bucket, ok := buckets[key]
		if !ok {
			bucket = &models.CategoryTotal{CategoryID: key, Name: uncategorizedName, Total: decimal.Zero}
			if c, known := byID[key]; known {
				bucket.Name = c.Name
				bucket.Color = c.Color
			}
			buckets[key] = bucket
			order = append(order, key)
		}
		bucket.Total = bucket.Total.Add(t.Amount)
		bucket.Count++
	}

	summary.Balance = summary.TotalIncome.Sub(summary.TotalExpense)
	for _, key := range order {
		summary.ByCategory = append(summary.ByCategory, *buckets[key])
	}
	sort.SliceStable(summary.ByCategory, func(i, j int) bool {
		a, b := summary.ByCategory[i], summary.ByCategory[j]
		if cmp := a.Total.Cmp(b.Total); cmp != 0 {
			return cmp > 0
		}
		return a.Name < b.Name
	})
	return summary
}

// CategoryNames resolves ids to category names, keeping unknown ids as-is.
func CategoryNames(ids []string, categories []models.Category) []string {
	byID := make(map[string]string, len(categories))
	for _, c := range categories {
		byID[c.ID] = c.Name
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		} else {
			names = append(names, id)
		}
	}
	return names
}
