package filters

import (
	"slices"

	"myfinance/models"
)

// Apply filters transactions with the current criteria. See ApplyCriteria.
func (e *Engine) Apply(transactions []models.Transaction) []models.Transaction {
	return ApplyCriteria(e.Criteria(), transactions)
}

// ActiveCriteriaCount returns the number of active sub-filter groups.
func (e *Engine) ActiveCriteriaCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return CountActive(e.criteria)
}

// ApplyCriteria returns the transactions passing every active sub-filter, in
// their original order. The input is not modified.
func ApplyCriteria(c models.FilterCriteria, transactions []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if Match(c, t) {
			out = append(out, t)
		}
	}
	return out
}

// Match reports whether t passes every active sub-filter of c. A transaction
// missing the data an active sub-filter tests is excluded.
func Match(c models.FilterCriteria, t models.Transaction) bool {
	return matchDate(c.DateRange, t) &&
		matchCategories(c.Categories, t) &&
		matchAmount(c.AmountRange, t) &&
		matchStatus(c.Status, t)
}

func matchDate(dr *models.DateRange, t models.Transaction) bool {
	if dr == nil || (dr.StartDate == nil && dr.EndDate == nil) {
		return true
	}
	if t.CreatedAt.IsZero() {
		return false
	}
	if dr.StartDate != nil && t.CreatedAt.Before(*dr.StartDate) {
		return false
	}
	if dr.EndDate != nil && t.CreatedAt.After(*dr.EndDate) {
		return false
	}
	return true
}

func matchCategories(ids []string, t models.Transaction) bool {
	if len(ids) == 0 {
		return true
	}
	if !t.HasCategory() {
		return false
	}
	return slices.Contains(ids, *t.CategoryID)
}

func matchAmount(ar *models.AmountRange, t models.Transaction) bool {
	if ar == nil {
		return true
	}
	if ar.Min != nil && t.Amount.LessThan(*ar.Min) {
		return false
	}
	if ar.Max != nil && t.Amount.GreaterThan(*ar.Max) {
		return false
	}
	return true
}

func matchStatus(st *models.StatusFilter, t models.Transaction) bool {
	if st == nil {
		return true
	}
	if st.Type != "" && st.Type != models.StatusAll && string(t.Type) != string(st.Type) {
		return false
	}
	if st.HasCategory != nil && t.HasCategory() != *st.HasCategory {
		return false
	}
	if st.HasNotes != nil && t.HasNotes() != *st.HasNotes {
		return false
	}
	return true
}

// CountActive counts active sub-filter groups; each group counts at most once.
func CountActive(c models.FilterCriteria) int {
	count := 0
	if c.DateRange != nil && (c.DateRange.StartDate != nil || c.DateRange.EndDate != nil) {
		count++
	}
	if len(c.Categories) > 0 {
		count++
	}
	if c.AmountRange != nil && (c.AmountRange.Min != nil || c.AmountRange.Max != nil) {
		count++
	}
	if st := c.Status; st != nil && ((st.Type != "" && st.Type != models.StatusAll) || st.HasCategory != nil || st.HasNotes != nil) {
		count++
	}
	return count
}
