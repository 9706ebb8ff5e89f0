package services

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// wrapExecError wraps err with action, classifying SQLite constraint
// violations (unique, foreign key) as ErrConflict.
func wrapExecError(action string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%s: %w: %s", action, ErrConflict, constraintMessage(sqliteErr))
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func constraintMessage(err sqlite3.Error) string {
	switch err.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return "already exists"
	case sqlite3.ErrConstraintForeignKey:
		return "references an unknown record"
	default:
		return err.Error()
	}
}
