package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// DateRange restricts transactions by creation time. Nil bounds are open.
type DateRange struct {
	Period    Period     `json:"period"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// AmountRange restricts transactions by amount. A nil bound is unset; a zero
// bound is a real constraint.
type AmountRange struct {
	Min *decimal.Decimal `json:"min,omitempty"`
	Max *decimal.Decimal `json:"max,omitempty"`
}

// StatusFilter restricts transactions by type and by the presence of a
// category or notes. Nil flags do not restrict.
type StatusFilter struct {
	Type        StatusType `json:"type,omitempty"`
	HasCategory *bool      `json:"hasCategory,omitempty"`
	HasNotes    *bool      `json:"hasNotes,omitempty"`
}

// FilterCriteria is the full set of sub-filters. Absent sub-filters do not
// restrict anything.
type FilterCriteria struct {
	DateRange   *DateRange    `json:"dateRange,omitempty"`
	Categories  []string      `json:"categories,omitempty"`
	AmountRange *AmountRange  `json:"amountRange,omitempty"`
	Status      *StatusFilter `json:"status,omitempty"`
}

// SavedFilterPreset is a user-named snapshot of a FilterCriteria.
type SavedFilterPreset struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Criteria FilterCriteria `json:"criteria"`
}

// IsEmpty reports whether no sub-filter is present.
func (c FilterCriteria) IsEmpty() bool {
	return c.DateRange == nil && len(c.Categories) == 0 && c.AmountRange == nil && c.Status == nil
}

// Clone returns a deep copy so callers cannot alias engine state.
func (c FilterCriteria) Clone() FilterCriteria {
	out := FilterCriteria{
		DateRange:   c.DateRange.Clone(),
		AmountRange: c.AmountRange.Clone(),
		Status:      c.Status.Clone(),
	}
	if len(c.Categories) > 0 {
		out.Categories = slices.Clone(c.Categories)
	}
	return out
}

func (d *DateRange) Clone() *DateRange {
	if d == nil {
		return nil
	}
	out := &DateRange{Period: d.Period}
	if d.StartDate != nil {
		start := *d.StartDate
		out.StartDate = &start
	}
	if d.EndDate != nil {
		end := *d.EndDate
		out.EndDate = &end
	}
	return out
}

// Equal reports whether d and o hold the same period and bounds. Two nil
// ranges are equal.
func (d *DateRange) Equal(o *DateRange) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Period == o.Period && timePtrEqual(d.StartDate, o.StartDate) && timePtrEqual(d.EndDate, o.EndDate)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (a *AmountRange) Clone() *AmountRange {
	if a == nil {
		return nil
	}
	out := &AmountRange{}
	if a.Min != nil {
		lo := *a.Min
		out.Min = &lo
	}
	if a.Max != nil {
		hi := *a.Max
		out.Max = &hi
	}
	return out
}

func (s *StatusFilter) Clone() *StatusFilter {
	if s == nil {
		return nil
	}
	out := &StatusFilter{Type: s.Type}
	if s.HasCategory != nil {
		v := *s.HasCategory
		out.HasCategory = &v
	}
	if s.HasNotes != nil {
		v := *s.HasNotes
		out.HasNotes = &v
	}
	return out
}
