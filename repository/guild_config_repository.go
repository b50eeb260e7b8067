package repository

import (
	"context"
	"fmt"

	"whojoined/database"
	"whojoined/models"

	"github.com/jackc/pgx/v5"
)

// GuildConfigRepository implements the GuildConfigRepository interface
type GuildConfigRepository struct {
	q queryable
}

// NewGuildConfigRepository creates a new guild config repository
func NewGuildConfigRepository(db *database.DB) *GuildConfigRepository {
	return &GuildConfigRepository{q: db.Pool}
}

// newGuildConfigRepositoryWithTx creates a new guild config repository with a transaction
func newGuildConfigRepositoryWithTx(tx queryable) *GuildConfigRepository {
	return &GuildConfigRepository{q: tx}
}

// Get retrieves a guild config with its allow lists, or (nil, nil) when the
// guild has never been configured
func (r *GuildConfigRepository) Get(ctx context.Context, guildID int64) (*models.GuildConfig, error) {
	query := `
		SELECT guild_id, default_locale, default_timezone,
		       default_message_template, default_title_template,
		       created_at, updated_at
		FROM guild_configs
		WHERE guild_id = $1
	`

	var config models.GuildConfig
	err := r.q.QueryRow(ctx, query, guildID).Scan(
		&config.GuildID,
		&config.DefaultLocale,
		&config.DefaultTimezone,
		&config.DefaultMessageTemplate,
		&config.DefaultTitleTemplate,
		&config.CreatedAt,
		&config.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config for guild %d: %w", guildID, err)
	}

	if err := r.loadGrants(ctx, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetOrCreate retrieves a guild config, creating one seeded with the given
// defaults if absent
func (r *GuildConfigRepository) GetOrCreate(ctx context.Context, guildID int64, defaultLocale, defaultTimezone string) (*models.GuildConfig, error) {
	config, err := r.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if config != nil {
		return config, nil
	}

	insertQuery := `
		INSERT INTO guild_configs (guild_id, default_locale, default_timezone)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id) DO UPDATE SET updated_at = guild_configs.updated_at
		RETURNING guild_id, default_locale, default_timezone,
		          default_message_template, default_title_template,
		          created_at, updated_at
	`

	var created models.GuildConfig
	err = r.q.QueryRow(ctx, insertQuery, guildID, defaultLocale, defaultTimezone).Scan(
		&created.GuildID,
		&created.DefaultLocale,
		&created.DefaultTimezone,
		&created.DefaultMessageTemplate,
		&created.DefaultTitleTemplate,
		&created.CreatedAt,
		&created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create guild config for guild %d: %w", guildID, err)
	}

	return &created, nil
}

// Update persists the guild's default fields
func (r *GuildConfigRepository) Update(ctx context.Context, config *models.GuildConfig) error {
	query := `
		UPDATE guild_configs
		SET default_locale = $2,
		    default_timezone = $3,
		    default_message_template = $4,
		    default_title_template = $5,
		    updated_at = NOW()
		WHERE guild_id = $1
	`

	result, err := r.q.Exec(ctx, query,
		config.GuildID,
		config.DefaultLocale,
		config.DefaultTimezone,
		config.DefaultMessageTemplate,
		config.DefaultTitleTemplate,
	)
	if err != nil {
		return fmt.Errorf("failed to update guild config for guild %d: %w", config.GuildID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("guild config for guild %d not found", config.GuildID)
	}

	return nil
}

// UpsertAllowedRole adds or updates a role grant
func (r *GuildConfigRepository) UpsertAllowedRole(ctx context.Context, grant models.AllowedRole) error {
	query := `
		INSERT INTO allowed_roles (guild_id, role_id, is_admin)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, role_id) DO UPDATE SET is_admin = $3
	`

	if _, err := r.q.Exec(ctx, query, grant.GuildID, grant.RoleID, grant.IsAdmin); err != nil {
		return fmt.Errorf("failed to upsert allowed role %d for guild %d: %w", grant.RoleID, grant.GuildID, err)
	}
	return nil
}

// RemoveAllowedRole deletes a role grant
func (r *GuildConfigRepository) RemoveAllowedRole(ctx context.Context, guildID, roleID int64) error {
	query := `DELETE FROM allowed_roles WHERE guild_id = $1 AND role_id = $2`

	if _, err := r.q.Exec(ctx, query, guildID, roleID); err != nil {
		return fmt.Errorf("failed to remove allowed role %d for guild %d: %w", roleID, guildID, err)
	}
	return nil
}

// UpsertAllowedUser adds or updates a user grant
func (r *GuildConfigRepository) UpsertAllowedUser(ctx context.Context, grant models.AllowedUser) error {
	query := `
		INSERT INTO allowed_users (guild_id, user_id, is_admin)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, user_id) DO UPDATE SET is_admin = $3
	`

	if _, err := r.q.Exec(ctx, query, grant.GuildID, grant.UserID, grant.IsAdmin); err != nil {
		return fmt.Errorf("failed to upsert allowed user %d for guild %d: %w", grant.UserID, grant.GuildID, err)
	}
	return nil
}

// RemoveAllowedUser deletes a user grant
func (r *GuildConfigRepository) RemoveAllowedUser(ctx context.Context, guildID, userID int64) error {
	query := `DELETE FROM allowed_users WHERE guild_id = $1 AND user_id = $2`

	if _, err := r.q.Exec(ctx, query, guildID, userID); err != nil {
		return fmt.Errorf("failed to remove allowed user %d for guild %d: %w", userID, guildID, err)
	}
	return nil
}

// loadGrants fills the config's allow lists
func (r *GuildConfigRepository) loadGrants(ctx context.Context, config *models.GuildConfig) error {
	roleRows, err := r.q.Query(ctx,
		`SELECT guild_id, role_id, is_admin FROM allowed_roles WHERE guild_id = $1`,
		config.GuildID)
	if err != nil {
		return fmt.Errorf("failed to get allowed roles for guild %d: %w", config.GuildID, err)
	}
	defer roleRows.Close()

	for roleRows.Next() {
		var grant models.AllowedRole
		if err := roleRows.Scan(&grant.GuildID, &grant.RoleID, &grant.IsAdmin); err != nil {
			return fmt.Errorf("failed to scan allowed role: %w", err)
		}
		config.AllowedRoles = append(config.AllowedRoles, grant)
	}
	if err := roleRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate allowed roles: %w", err)
	}

	userRows, err := r.q.Query(ctx,
		`SELECT guild_id, user_id, is_admin FROM allowed_users WHERE guild_id = $1`,
		config.GuildID)
	if err != nil {
		return fmt.Errorf("failed to get allowed users for guild %d: %w", config.GuildID, err)
	}
	defer userRows.Close()

	for userRows.Next() {
		var grant models.AllowedUser
		if err := userRows.Scan(&grant.GuildID, &grant.UserID, &grant.IsAdmin); err != nil {
			return fmt.Errorf("failed to scan allowed user: %w", err)
		}
		config.AllowedUsers = append(config.AllowedUsers, grant)
	}
	if err := userRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate allowed users: %w", err)
	}

	return nil
}
