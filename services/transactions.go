package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"myfinance/models"
)

const maxDescriptionLength = 500

// TransactionStore reads and writes transactions in SQLite.
type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// ListTransactions returns all transactions, newest first.
func (s *TransactionStore) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, amount, description, created_at, category_id, notes
		FROM transactions
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

func (s *TransactionStore) Get(ctx context.Context, id string) (models.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, amount, description, created_at, category_id, notes
		FROM transactions
		WHERE id = ?
	`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return t, err
}

// Create validates and inserts t, assigning an id and creation time when missing.
func (s *TransactionStore) Create(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.CreatedAt = t.CreatedAt.UTC()
	if err := validateTransaction(t); err != nil {
		return models.Transaction{}, err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, type, amount, description, created_at, category_id, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Type, t.Amount, t.Description, t.CreatedAt, nullString(t.CategoryID), nullString(t.Notes))
	if err != nil {
		return models.Transaction{}, wrapExecError("insert transaction", err)
	}
	return t, nil
}

// Update replaces the stored fields of the transaction with id.
func (s *TransactionStore) Update(ctx context.Context, id string, t models.Transaction) (models.Transaction, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return models.Transaction{}, err
	}

	t.ID = id
	if t.CreatedAt.IsZero() {
		t.CreatedAt = existing.CreatedAt
	}
	t.CreatedAt = t.CreatedAt.UTC()
	if err := validateTransaction(t); err != nil {
		return models.Transaction{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, amount = ?, description = ?, created_at = ?, category_id = ?, notes = ?
		WHERE id = ?
	`, t.Type, t.Amount, t.Description, t.CreatedAt, nullString(t.CategoryID), nullString(t.Notes), id)
	if err != nil {
		return models.Transaction{}, wrapExecError("update transaction", err)
	}
	return t, nil
}

func (s *TransactionStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var (
		t          models.Transaction
		categoryID sql.NullString
		notes      sql.NullString
	)
	err := row.Scan(&t.ID, &t.Type, &t.Amount, &t.Description, &t.CreatedAt, &categoryID, &notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Transaction{}, err
		}
		return models.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}
	if categoryID.Valid {
		t.CategoryID = &categoryID.String
	}
	if notes.Valid {
		t.Notes = &notes.String
	}
	return t, nil
}

func validateTransaction(t models.Transaction) error {
	var problems []string
	if !t.Type.Valid() {
		problems = append(problems, "type must be 'income' or 'expense'")
	}
	if !t.Amount.IsPositive() {
		problems = append(problems, "amount must be greater than zero")
	}
	desc := strings.TrimSpace(t.Description)
	if desc == "" {
		problems = append(problems, "description is required")
	} else if len(desc) > maxDescriptionLength {
		problems = append(problems, fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
