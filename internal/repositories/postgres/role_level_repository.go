package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
)

// PostgresRoleLevelRepository implements RoleLevelRepository using PostgreSQL
type PostgresRoleLevelRepository struct {
	db *sql.DB
}

// NewPostgresRoleLevelRepository creates a new PostgreSQL role level repository
func NewPostgresRoleLevelRepository(db *sql.DB) repositories.RoleLevelRepository {
	return &PostgresRoleLevelRepository{db: db}
}

// Set creates or updates a role binding
func (r *PostgresRoleLevelRepository) Set(ctx context.Context, binding *entities.RoleLevelBinding) error {
	if err := binding.Validate(); err != nil {
		return fmt.Errorf("invalid role level binding: %w", err)
	}

	query := `
		INSERT INTO role_levels (guild_id, role_id, level, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, role_id)
		DO UPDATE SET level = EXCLUDED.level, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, binding.GuildID, binding.RoleID, binding.Level.String(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to set role level: %w", err)
	}

	return nil
}

// Get retrieves a role binding
func (r *PostgresRoleLevelRepository) Get(ctx context.Context, guildID string, roleID string) (*entities.RoleLevelBinding, error) {
	query := `
		SELECT level, updated_at
		FROM role_levels
		WHERE guild_id = $1 AND role_id = $2
	`
	var levelName string
	binding := &entities.RoleLevelBinding{GuildID: guildID, RoleID: roleID}
	err := r.db.QueryRowContext(ctx, query, guildID, roleID).Scan(&levelName, &binding.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role level: %w", err)
	}

	if binding.Level, err = scanLevel(levelName); err != nil {
		return nil, err
	}
	return binding, nil
}

// Delete removes a role binding
func (r *PostgresRoleLevelRepository) Delete(ctx context.Context, guildID string, roleID string) (bool, error) {
	query := `DELETE FROM role_levels WHERE guild_id = $1 AND role_id = $2`
	result, err := r.db.ExecContext(ctx, query, guildID, roleID)
	if err != nil {
		return false, fmt.Errorf("failed to delete role level: %w", err)
	}
	return affected(result)
}

// List retrieves every role binding of a guild
func (r *PostgresRoleLevelRepository) List(ctx context.Context, guildID string) ([]*entities.RoleLevelBinding, error) {
	query := `
		SELECT role_id, level, updated_at
		FROM role_levels
		WHERE guild_id = $1
		ORDER BY role_id
	`
	rows, err := r.db.QueryContext(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list role levels: %w", err)
	}
	defer rows.Close()

	var bindings []*entities.RoleLevelBinding
	for rows.Next() {
		var levelName string
		binding := &entities.RoleLevelBinding{GuildID: guildID}
		if err := rows.Scan(&binding.RoleID, &levelName, &binding.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role level: %w", err)
		}
		if binding.Level, err = scanLevel(levelName); err != nil {
			return nil, err
		}
		bindings = append(bindings, binding)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role levels: %w", err)
	}

	return bindings, nil
}

// PostgresCommandLevelRepository implements CommandLevelRepository using PostgreSQL
type PostgresCommandLevelRepository struct {
	db *sql.DB
}

// NewPostgresCommandLevelRepository creates a new PostgreSQL command level repository
func NewPostgresCommandLevelRepository(db *sql.DB) repositories.CommandLevelRepository {
	return &PostgresCommandLevelRepository{db: db}
}

// Set creates or updates a command level override
func (r *PostgresCommandLevelRepository) Set(ctx context.Context, override *entities.CommandLevelOverride) error {
	if err := override.Validate(); err != nil {
		return fmt.Errorf("invalid command level override: %w", err)
	}

	query := `
		INSERT INTO command_levels (guild_id, command, level, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, command)
		DO UPDATE SET level = EXCLUDED.level, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, override.GuildID, override.Command, override.Level.String(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to set command level: %w", err)
	}

	return nil
}

// Get retrieves a command level override
func (r *PostgresCommandLevelRepository) Get(ctx context.Context, guildID string, command string) (*entities.CommandLevelOverride, error) {
	query := `
		SELECT level, updated_at
		FROM command_levels
		WHERE guild_id = $1 AND command = $2
	`
	var levelName string
	override := &entities.CommandLevelOverride{GuildID: guildID, Command: command}
	err := r.db.QueryRowContext(ctx, query, guildID, command).Scan(&levelName, &override.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get command level: %w", err)
	}

	if override.Level, err = scanLevel(levelName); err != nil {
		return nil, err
	}
	return override, nil
}

// Delete removes a command level override
func (r *PostgresCommandLevelRepository) Delete(ctx context.Context, guildID string, command string) (bool, error) {
	query := `DELETE FROM command_levels WHERE guild_id = $1 AND command = $2`
	result, err := r.db.ExecContext(ctx, query, guildID, command)
	if err != nil {
		return false, fmt.Errorf("failed to delete command level: %w", err)
	}
	return affected(result)
}

// List retrieves every command level override of a guild
func (r *PostgresCommandLevelRepository) List(ctx context.Context, guildID string) ([]*entities.CommandLevelOverride, error) {
	query := `
		SELECT command, level, updated_at
		FROM command_levels
		WHERE guild_id = $1
		ORDER BY command
	`
	rows, err := r.db.QueryContext(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list command levels: %w", err)
	}
	defer rows.Close()

	var overrides []*entities.CommandLevelOverride
	for rows.Next() {
		var levelName string
		override := &entities.CommandLevelOverride{GuildID: guildID}
		if err := rows.Scan(&override.Command, &levelName, &override.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan command level: %w", err)
		}
		if override.Level, err = scanLevel(levelName); err != nil {
			return nil, err
		}
		overrides = append(overrides, override)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating command levels: %w", err)
	}

	return overrides, nil
}
