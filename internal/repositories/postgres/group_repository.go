package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
)

// PostgresGroupRepository implements GroupRepository using PostgreSQL
type PostgresGroupRepository struct {
	db *sql.DB
}

// NewPostgresGroupRepository creates a new PostgreSQL group repository
func NewPostgresGroupRepository(db *sql.DB) repositories.GroupRepository {
	return &PostgresGroupRepository{db: db}
}

// Add creates or updates a group after checking that its parent exists
func (r *PostgresGroupRepository) Add(ctx context.Context, group *entities.PermissionGroup) error {
	if err := group.Validate(); err != nil {
		return fmt.Errorf("invalid group: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if group.Parent != "" {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM permission_groups WHERE guild_id = $1 AND name = $2)`,
			group.GuildID, group.Parent,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check parent group: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", entities.ErrInvalidParentGroup, group.Parent)
		}
	}

	query := `
		INSERT INTO permission_groups (guild_id, name, parent, role_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id, name)
		DO UPDATE SET parent = EXCLUDED.parent, role_id = EXCLUDED.role_id
	`
	_, err = tx.ExecContext(ctx, query,
		group.GuildID, group.Name, nullString(group.Parent), nullString(group.RoleID), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to add group: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Get retrieves a group by name
func (r *PostgresGroupRepository) Get(ctx context.Context, guildID string, name string) (*entities.PermissionGroup, error) {
	query := `
		SELECT name, parent, role_id, created_at
		FROM permission_groups
		WHERE guild_id = $1 AND name = $2
	`
	return r.getOne(ctx, guildID, query, guildID, name)
}

// GetByRole retrieves the group bound to a role
func (r *PostgresGroupRepository) GetByRole(ctx context.Context, guildID string, roleID string) (*entities.PermissionGroup, error) {
	query := `
		SELECT name, parent, role_id, created_at
		FROM permission_groups
		WHERE guild_id = $1 AND role_id = $2
		ORDER BY name
		LIMIT 1
	`
	return r.getOne(ctx, guildID, query, guildID, roleID)
}

func (r *PostgresGroupRepository) getOne(ctx context.Context, guildID string, query string, args ...interface{}) (*entities.PermissionGroup, error) {
	group, err := scanGroup(guildID, r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGroup(guildID string, row rowScanner) (*entities.PermissionGroup, error) {
	var parent, roleID sql.NullString
	group := &entities.PermissionGroup{GuildID: guildID}
	if err := row.Scan(&group.Name, &parent, &roleID, &group.CreatedAt); err != nil {
		return nil, err
	}
	group.Parent = parent.String
	group.RoleID = roleID.String
	return group, nil
}

// Delete removes a single group; children are not touched
func (r *PostgresGroupRepository) Delete(ctx context.Context, guildID string, name string) (bool, error) {
	query := `DELETE FROM permission_groups WHERE guild_id = $1 AND name = $2`
	result, err := r.db.ExecContext(ctx, query, guildID, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete group: %w", err)
	}
	return affected(result)
}

// List retrieves every group of a guild
func (r *PostgresGroupRepository) List(ctx context.Context, guildID string) ([]*entities.PermissionGroup, error) {
	query := `
		SELECT name, parent, role_id, created_at
		FROM permission_groups
		WHERE guild_id = $1
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*entities.PermissionGroup
	for rows.Next() {
		group, err := scanGroup(guildID, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}

	return groups, nil
}
