package models

// TransactionType is the direction of money for a transaction or category.
type TransactionType string

// Transaction types
const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is income or expense.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// StatusType is the transaction type selector of the status sub-filter.
type StatusType string

// Status selector values
const (
	StatusAll     StatusType = "all"
	StatusIncome  StatusType = "income"
	StatusExpense StatusType = "expense"
)

// Period is a named date range understood by the date sub-filter.
type Period string

// Periods
const (
	PeriodToday   Period = "today"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
	PeriodCustom  Period = "custom"
)

// Rolling reports whether the period's bounds are derived from the current time.
func (p Period) Rolling() bool {
	switch p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return true
	}
	return false
}
