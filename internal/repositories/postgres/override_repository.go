package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
)

// overrideTables maps each subject kind to its table and subject column.
// Identifiers come only from this map, never from user input.
var overrideTables = map[entities.SubjectKind]struct {
	table  string
	column string
}{
	entities.SubjectUser:    {"user_overrides", "user_id"},
	entities.SubjectChannel: {"channel_overrides", "channel_id"},
	entities.SubjectRole:    {"role_overrides", "role_id"},
}

// PostgresOverrideRepository implements OverrideRepository using PostgreSQL
type PostgresOverrideRepository struct {
	db *sql.DB
}

// NewPostgresOverrideRepository creates a new PostgreSQL override repository
func NewPostgresOverrideRepository(db *sql.DB) repositories.OverrideRepository {
	return &PostgresOverrideRepository{db: db}
}

func overrideTable(kind entities.SubjectKind) (string, string, error) {
	t, ok := overrideTables[kind]
	if !ok {
		return "", "", fmt.Errorf("invalid subject kind: %q", kind)
	}
	return t.table, t.column, nil
}

// Add creates an override unless one already exists for the exact key
func (r *PostgresOverrideRepository) Add(ctx context.Context, override *entities.SubjectOverride) (bool, error) {
	if err := override.Validate(); err != nil {
		return false, fmt.Errorf("invalid override: %w", err)
	}
	table, column, err := overrideTable(override.Kind)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (guild_id, %s, command, allow, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, %s, command)
		DO NOTHING
	`, table, column, column)
	result, err := r.db.ExecContext(ctx, query,
		override.GuildID, override.SubjectID, override.Command, override.Allow, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to add %s override: %w", override.Kind, err)
	}

	return affected(result)
}

// Get retrieves an override by exact key
func (r *PostgresOverrideRepository) Get(ctx context.Context, kind entities.SubjectKind, guildID string, subjectID string, command string) (*entities.SubjectOverride, error) {
	table, column, err := overrideTable(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT allow, created_at
		FROM %s
		WHERE guild_id = $1 AND %s = $2 AND command = $3
	`, table, column)
	override := &entities.SubjectOverride{
		Kind:      kind,
		GuildID:   guildID,
		SubjectID: subjectID,
		Command:   command,
	}
	err = r.db.QueryRowContext(ctx, query, guildID, subjectID, command).Scan(&override.Allow, &override.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s override: %w", kind, err)
	}

	return override, nil
}

// Delete removes an override by exact key
func (r *PostgresOverrideRepository) Delete(ctx context.Context, kind entities.SubjectKind, guildID string, subjectID string, command string) (bool, error) {
	table, column, err := overrideTable(kind)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE guild_id = $1 AND %s = $2 AND command = $3`, table, column)
	result, err := r.db.ExecContext(ctx, query, guildID, subjectID, command)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s override: %w", kind, err)
	}

	return affected(result)
}

// List retrieves every override of one kind in a guild
func (r *PostgresOverrideRepository) List(ctx context.Context, kind entities.SubjectKind, guildID string) ([]*entities.SubjectOverride, error) {
	table, column, err := overrideTable(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s, command, allow, created_at
		FROM %s
		WHERE guild_id = $1
		ORDER BY command, %s
	`, column, table, column)
	rows, err := r.db.QueryContext(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s overrides: %w", kind, err)
	}
	defer rows.Close()

	var overrides []*entities.SubjectOverride
	for rows.Next() {
		override := &entities.SubjectOverride{Kind: kind, GuildID: guildID}
		if err := rows.Scan(&override.SubjectID, &override.Command, &override.Allow, &override.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s override: %w", kind, err)
		}
		overrides = append(overrides, override)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s overrides: %w", kind, err)
	}

	return overrides, nil
}
