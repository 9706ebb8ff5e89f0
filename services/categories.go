package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"myfinance/models"
)

// CategoryStore reads and writes categories in SQLite.
type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `c.id, c.name, c.type, c.color, c.icon, c.is_active`

// CategoriesByType returns categories of type t ordered by name, or every
// category when t is empty. Deleted categories are included.
func (s *CategoryStore) CategoriesByType(ctx context.Context, t models.TransactionType) ([]models.Category, error) {
	listed, err := s.List(ctx, t, true)
	if err != nil {
		return nil, err
	}
	categories := make([]models.Category, 0, len(listed))
	for _, c := range listed {
		categories = append(categories, c.Category)
	}
	return categories, nil
}

// List returns categories ordered by name with their transaction counts.
// An empty t lists both types; deleted categories are skipped unless
// includeInactive is set.
func (s *CategoryStore) List(ctx context.Context, t models.TransactionType, includeInactive bool) ([]models.CategoryWithCount, error) {
	query := `SELECT ` + categoryColumns + `, COUNT(tx.id)
		FROM categories c
		LEFT JOIN transactions tx ON tx.category_id = c.id`
	var conditions []string
	args := []any{}
	if t != "" {
		conditions = append(conditions, `c.type = ?`)
		args = append(args, t)
	}
	if !includeInactive {
		conditions = append(conditions, `c.is_active = 1`)
	}
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}
	query += ` GROUP BY c.id ORDER BY c.name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []models.CategoryWithCount{}
	for rows.Next() {
		var c models.CategoryWithCount
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Color, &c.Icon, &c.IsActive, &c.TransactionCount); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// Get returns the active category with id.
func (s *CategoryStore) Get(ctx context.Context, id string) (models.Category, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return models.Category{}, err
	}
	if !c.IsActive {
		return models.Category{}, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return c, nil
}

func (s *CategoryStore) find(ctx context.Context, id string) (models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories c WHERE c.id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Type, &c.Color, &c.Icon, &c.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// Create inserts an active category. Reusing the name and type of an
// existing category, deleted or not, is a conflict.
func (s *CategoryStore) Create(ctx context.Context, c models.Category) (models.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Color == "" {
		c.Color = randomColor()
	}
	if err := validateCategory(c); err != nil {
		return models.Category{}, err
	}
	c.Name = strings.TrimSpace(c.Name)
	c.IsActive = true

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, type, color, icon, is_active)
		VALUES (?, ?, ?, ?, ?, 1)
	`, c.ID, c.Name, c.Type, c.Color, c.Icon)
	if err != nil {
		return models.Category{}, wrapExecError("insert category", err)
	}
	return c, nil
}

// Update replaces the fields of an active category.
func (s *CategoryStore) Update(ctx context.Context, id string, c models.Category) (models.Category, error) {
	c.ID = id
	if err := validateCategory(c); err != nil {
		return models.Category{}, err
	}
	c.Name = strings.TrimSpace(c.Name)
	c.IsActive = true

	result, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, type = ?, color = ?, icon = ?
		WHERE id = ? AND is_active = 1
	`, c.Name, c.Type, c.Color, c.Icon, id)
	if err != nil {
		return models.Category{}, wrapExecError("update category", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return models.Category{}, fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return models.Category{}, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// Delete marks the category inactive. Its transactions keep their category
// so filters and summaries still resolve it.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE categories SET is_active = 0 WHERE id = ? AND is_active = 1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return nil
}

// Restore reactivates a deleted category. Restoring an active one is a no-op.
func (s *CategoryStore) Restore(ctx context.Context, id string) (models.Category, error) {
	if _, err := s.db.ExecContext(ctx, `UPDATE categories SET is_active = 1 WHERE id = ?`, id); err != nil {
		return models.Category{}, fmt.Errorf("failed to restore category: %w", err)
	}
	return s.find(ctx, id)
}

func validateCategory(c models.Category) error {
	var problems []string
	if strings.TrimSpace(c.Name) == "" {
		problems = append(problems, "name is required")
	}
	if !c.Type.Valid() {
		problems = append(problems, "type must be 'income' or 'expense'")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func randomColor() string {
	colors := []string{
		"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEEAD",
		"#D4A5A5", "#9B59B6", "#3498DB", "#1ABC9C", "#F1C40F",
	}
	return colors[rand.Intn(len(colors))]
}
