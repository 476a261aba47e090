package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/asakaida/monban/internal/entities"
	"github.com/lib/pq"
)

const foreignKeyViolation = "23503"

// affected reports whether the statement touched at least one row
func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}

func scanLevel(name string) (entities.Level, error) {
	level, err := entities.ParseLevel(name)
	if err != nil {
		return entities.LevelEveryone, fmt.Errorf("corrupt level column: %w", err)
	}
	return level, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
