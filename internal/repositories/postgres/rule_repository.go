package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/repositories"
)

// PostgresRuleRepository implements RuleRepository using PostgreSQL
type PostgresRuleRepository struct {
	db *sql.DB
}

// NewPostgresRuleRepository creates a new PostgreSQL rule repository
func NewPostgresRuleRepository(db *sql.DB) repositories.RuleRepository {
	return &PostgresRuleRepository{db: db}
}

// Set creates or updates the default of a rule
func (r *PostgresRuleRepository) Set(ctx context.Context, guildID string, command string, allowByDefault bool) error {
	rule := &entities.CommandRule{GuildID: guildID, Command: command}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}

	query := `
		INSERT INTO command_rules (guild_id, command, allow_default, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, command)
		DO UPDATE SET allow_default = EXCLUDED.allow_default, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, guildID, command, allowByDefault, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set rule: %w", err)
	}

	return nil
}

// Get retrieves a rule and its constraints
func (r *PostgresRuleRepository) Get(ctx context.Context, guildID string, command string) (*entities.CommandRule, error) {
	query := `
		SELECT allow_default, updated_at
		FROM command_rules
		WHERE guild_id = $1 AND command = $2
	`
	rule := &entities.CommandRule{GuildID: guildID, Command: command}
	err := r.db.QueryRowContext(ctx, query, guildID, command).Scan(&rule.Default, &rule.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	if err := r.loadConstraints(ctx, rule); err != nil {
		return nil, err
	}

	return rule, nil
}

func (r *PostgresRuleRepository) loadConstraints(ctx context.Context, rule *entities.CommandRule) error {
	userRows, err := r.db.QueryContext(ctx,
		`SELECT user_id, allow FROM rule_user_constraints WHERE guild_id = $1 AND command = $2 ORDER BY user_id`,
		rule.GuildID, rule.Command,
	)
	if err != nil {
		return fmt.Errorf("failed to read user constraints: %w", err)
	}
	defer userRows.Close()

	for userRows.Next() {
		var c entities.RuleUserConstraint
		if err := userRows.Scan(&c.UserID, &c.Allow); err != nil {
			return fmt.Errorf("failed to scan user constraint: %w", err)
		}
		rule.Users = append(rule.Users, c)
	}
	if err := userRows.Err(); err != nil {
		return fmt.Errorf("error iterating user constraints: %w", err)
	}

	groupRows, err := r.db.QueryContext(ctx,
		`SELECT group_name, allow FROM rule_group_constraints WHERE guild_id = $1 AND command = $2 ORDER BY group_name`,
		rule.GuildID, rule.Command,
	)
	if err != nil {
		return fmt.Errorf("failed to read group constraints: %w", err)
	}
	defer groupRows.Close()

	for groupRows.Next() {
		var c entities.RuleGroupConstraint
		if err := groupRows.Scan(&c.Group, &c.Allow); err != nil {
			return fmt.Errorf("failed to scan group constraint: %w", err)
		}
		rule.Groups = append(rule.Groups, c)
	}
	if err := groupRows.Err(); err != nil {
		return fmt.Errorf("error iterating group constraints: %w", err)
	}

	return nil
}

// Delete removes a rule; constraints cascade
func (r *PostgresRuleRepository) Delete(ctx context.Context, guildID string, command string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM command_rules WHERE guild_id = $1 AND command = $2`,
		guildID, command,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete rule: %w", err)
	}
	return affected(result)
}

// List retrieves every rule of a guild
func (r *PostgresRuleRepository) List(ctx context.Context, guildID string) ([]*entities.CommandRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT command, allow_default, updated_at FROM command_rules WHERE guild_id = $1 ORDER BY command`,
		guildID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	var rules []*entities.CommandRule
	for rows.Next() {
		rule := &entities.CommandRule{GuildID: guildID}
		if err := rows.Scan(&rule.Command, &rule.Default, &rule.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	rows.Close()

	for _, rule := range rules {
		if err := r.loadConstraints(ctx, rule); err != nil {
			return nil, err
		}
	}

	return rules, nil
}

// SetUserConstraint creates or updates a user constraint
func (r *PostgresRuleRepository) SetUserConstraint(ctx context.Context, guildID string, command string, constraint entities.RuleUserConstraint) error {
	if constraint.UserID == "" {
		return fmt.Errorf("invalid user constraint: user ID is required")
	}

	query := `
		INSERT INTO rule_user_constraints (guild_id, command, user_id, allow)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, command, user_id)
		DO UPDATE SET allow = EXCLUDED.allow
	`
	_, err := r.db.ExecContext(ctx, query, guildID, command, constraint.UserID, constraint.Allow)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("rule %s in guild %s: %w", command, guildID, entities.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to set user constraint: %w", err)
	}

	return nil
}

// DeleteUserConstraint removes a user constraint
func (r *PostgresRuleRepository) DeleteUserConstraint(ctx context.Context, guildID string, command string, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM rule_user_constraints WHERE guild_id = $1 AND command = $2 AND user_id = $3`,
		guildID, command, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete user constraint: %w", err)
	}
	return affected(result)
}

// SetGroupConstraint creates or updates a group constraint
func (r *PostgresRuleRepository) SetGroupConstraint(ctx context.Context, guildID string, command string, constraint entities.RuleGroupConstraint) error {
	if constraint.Group == "" {
		return fmt.Errorf("invalid group constraint: group name is required")
	}

	query := `
		INSERT INTO rule_group_constraints (guild_id, command, group_name, allow)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, command, group_name)
		DO UPDATE SET allow = EXCLUDED.allow
	`
	_, err := r.db.ExecContext(ctx, query, guildID, command, constraint.Group, constraint.Allow)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("rule %s in guild %s: %w", command, guildID, entities.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to set group constraint: %w", err)
	}

	return nil
}

// DeleteGroupConstraint removes a group constraint
func (r *PostgresRuleRepository) DeleteGroupConstraint(ctx context.Context, guildID string, command string, group string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM rule_group_constraints WHERE guild_id = $1 AND command = $2 AND group_name = $3`,
		guildID, command, group,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete group constraint: %w", err)
	}
	return affected(result)
}
