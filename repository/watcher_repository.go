package repository

import (
	"context"
	"fmt"

	"whojoined/database"
	"whojoined/models"

	"github.com/jackc/pgx/v5"
)

const watcherColumns = `
	id, guild_id, user_id, enabled, notify_self_join, notify_while_in_voice,
	notify_on_move, notify_on_bot_join, keep_in_sync, message_template,
	title_template, locale, timezone, created_at, updated_at`

// WatcherRepository implements the WatcherRepository interface
type WatcherRepository struct {
	q queryable
}

// NewWatcherRepository creates a new watcher repository
func NewWatcherRepository(db *database.DB) *WatcherRepository {
	return &WatcherRepository{q: db.Pool}
}

// newWatcherRepositoryWithTx creates a new watcher repository with a transaction
func newWatcherRepositoryWithTx(tx queryable) *WatcherRepository {
	return &WatcherRepository{q: tx}
}

// GetByGuildAndUser retrieves a watcher with its exclusion lists, or
// (nil, nil) when absent
func (r *WatcherRepository) GetByGuildAndUser(ctx context.Context, guildID, userID int64) (*models.WatcherConfig, error) {
	query := `SELECT` + watcherColumns + `
		FROM watcher_configs
		WHERE guild_id = $1 AND user_id = $2`

	watcher, err := r.scanOne(r.q.QueryRow(ctx, query, guildID, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get watcher for guild %d, user %d: %w", guildID, userID, err)
	}

	if err := r.loadExclusions(ctx, watcher); err != nil {
		return nil, err
	}
	return watcher, nil
}

// ListByGuild returns all watchers for a guild with their exclusion lists,
// in storage order
func (r *WatcherRepository) ListByGuild(ctx context.Context, guildID int64) ([]*models.WatcherConfig, error) {
	query := `SELECT` + watcherColumns + `
		FROM watcher_configs
		WHERE guild_id = $1
		ORDER BY id`

	watchers, err := r.scanMany(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchers for guild %d: %w", guildID, err)
	}

	for _, w := range watchers {
		if err := r.loadExclusions(ctx, w); err != nil {
			return nil, err
		}
	}
	return watchers, nil
}

// ListByUser returns all of a user's watchers across guilds
func (r *WatcherRepository) ListByUser(ctx context.Context, userID int64) ([]*models.WatcherConfig, error) {
	query := `SELECT` + watcherColumns + `
		FROM watcher_configs
		WHERE user_id = $1
		ORDER BY id`

	watchers, err := r.scanMany(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchers for user %d: %w", userID, err)
	}
	return watchers, nil
}

// Create inserts a new watcher record and fills its ID and timestamps
func (r *WatcherRepository) Create(ctx context.Context, watcher *models.WatcherConfig) error {
	query := `
		INSERT INTO watcher_configs (
			guild_id, user_id, enabled, notify_self_join, notify_while_in_voice,
			notify_on_move, notify_on_bot_join, keep_in_sync, message_template,
			title_template, locale, timezone
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		watcher.GuildID,
		watcher.UserID,
		watcher.Enabled,
		watcher.NotifySelfJoin,
		watcher.NotifyWhileInVoice,
		watcher.NotifyOnMove,
		watcher.NotifyOnBotJoin,
		watcher.KeepInSyncAcrossGuilds,
		watcher.MessageTemplate,
		watcher.TitleTemplate,
		watcher.Locale,
		watcher.Timezone,
	).Scan(&watcher.ID, &watcher.CreatedAt, &watcher.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create watcher for guild %d, user %d: %w", watcher.GuildID, watcher.UserID, err)
	}
	return nil
}

// Update persists a watcher's policy fields
func (r *WatcherRepository) Update(ctx context.Context, watcher *models.WatcherConfig) error {
	query := `
		UPDATE watcher_configs
		SET enabled = $2,
		    notify_self_join = $3,
		    notify_while_in_voice = $4,
		    notify_on_move = $5,
		    notify_on_bot_join = $6,
		    keep_in_sync = $7,
		    message_template = $8,
		    title_template = $9,
		    locale = $10,
		    timezone = $11,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query,
		watcher.ID,
		watcher.Enabled,
		watcher.NotifySelfJoin,
		watcher.NotifyWhileInVoice,
		watcher.NotifyOnMove,
		watcher.NotifyOnBotJoin,
		watcher.KeepInSyncAcrossGuilds,
		watcher.MessageTemplate,
		watcher.TitleTemplate,
		watcher.Locale,
		watcher.Timezone,
	)
	if err != nil {
		return fmt.Errorf("failed to update watcher %d: %w", watcher.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("watcher %d not found", watcher.ID)
	}
	return nil
}

// Delete removes a watcher; its exclusion lists go with it via cascade
func (r *WatcherRepository) Delete(ctx context.Context, guildID, userID int64) error {
	query := `DELETE FROM watcher_configs WHERE guild_id = $1 AND user_id = $2`

	if _, err := r.q.Exec(ctx, query, guildID, userID); err != nil {
		return fmt.Errorf("failed to delete watcher for guild %d, user %d: %w", guildID, userID, err)
	}
	return nil
}

// SyncByUser bulk-updates the synced fields on all of the user's watchers
// except the one on sourceGuildID. Exclusion lists are untouched.
func (r *WatcherRepository) SyncByUser(ctx context.Context, userID, sourceGuildID int64, fields models.SyncedFields) (int64, error) {
	query := `
		UPDATE watcher_configs
		SET enabled = $3,
		    notify_self_join = $4,
		    notify_while_in_voice = $5,
		    notify_on_move = $6,
		    notify_on_bot_join = $7,
		    keep_in_sync = $8,
		    message_template = $9,
		    title_template = $10,
		    locale = $11,
		    timezone = $12,
		    updated_at = NOW()
		WHERE user_id = $1 AND guild_id != $2
	`

	result, err := r.q.Exec(ctx, query,
		userID,
		sourceGuildID,
		fields.Enabled,
		fields.NotifySelfJoin,
		fields.NotifyWhileInVoice,
		fields.NotifyOnMove,
		fields.NotifyOnBotJoin,
		fields.KeepInSyncAcrossGuilds,
		fields.MessageTemplate,
		fields.TitleTemplate,
		fields.Locale,
		fields.Timezone,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to sync watchers for user %d: %w", userID, err)
	}
	return result.RowsAffected(), nil
}

// AddExcludedUser adds a user to a watcher's exclusion list. Idempotent.
func (r *WatcherRepository) AddExcludedUser(ctx context.Context, watcherID, userID int64) error {
	query := `
		INSERT INTO excluded_users (watcher_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (watcher_id, user_id) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, watcherID, userID); err != nil {
		return fmt.Errorf("failed to add excluded user %d to watcher %d: %w", userID, watcherID, err)
	}
	return nil
}

// RemoveExcludedUser removes a user from a watcher's exclusion list
func (r *WatcherRepository) RemoveExcludedUser(ctx context.Context, watcherID, userID int64) error {
	query := `DELETE FROM excluded_users WHERE watcher_id = $1 AND user_id = $2`

	if _, err := r.q.Exec(ctx, query, watcherID, userID); err != nil {
		return fmt.Errorf("failed to remove excluded user %d from watcher %d: %w", userID, watcherID, err)
	}
	return nil
}

// AddExcludedRole adds a role to a watcher's exclusion list. Idempotent.
func (r *WatcherRepository) AddExcludedRole(ctx context.Context, watcherID, roleID int64) error {
	query := `
		INSERT INTO excluded_roles (watcher_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (watcher_id, role_id) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, watcherID, roleID); err != nil {
		return fmt.Errorf("failed to add excluded role %d to watcher %d: %w", roleID, watcherID, err)
	}
	return nil
}

// RemoveExcludedRole removes a role from a watcher's exclusion list
func (r *WatcherRepository) RemoveExcludedRole(ctx context.Context, watcherID, roleID int64) error {
	query := `DELETE FROM excluded_roles WHERE watcher_id = $1 AND role_id = $2`

	if _, err := r.q.Exec(ctx, query, watcherID, roleID); err != nil {
		return fmt.Errorf("failed to remove excluded role %d from watcher %d: %w", roleID, watcherID, err)
	}
	return nil
}

func (r *WatcherRepository) scanOne(row pgx.Row) (*models.WatcherConfig, error) {
	var w models.WatcherConfig
	err := row.Scan(
		&w.ID,
		&w.GuildID,
		&w.UserID,
		&w.Enabled,
		&w.NotifySelfJoin,
		&w.NotifyWhileInVoice,
		&w.NotifyOnMove,
		&w.NotifyOnBotJoin,
		&w.KeepInSyncAcrossGuilds,
		&w.MessageTemplate,
		&w.TitleTemplate,
		&w.Locale,
		&w.Timezone,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WatcherRepository) scanMany(ctx context.Context, query string, args ...any) ([]*models.WatcherConfig, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var watchers []*models.WatcherConfig
	for rows.Next() {
		w, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watcher: %w", err)
		}
		watchers = append(watchers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watchers: %w", err)
	}
	return watchers, nil
}

// loadExclusions fills the watcher's exclusion lists
func (r *WatcherRepository) loadExclusions(ctx context.Context, watcher *models.WatcherConfig) error {
	userRows, err := r.q.Query(ctx,
		`SELECT watcher_id, user_id FROM excluded_users WHERE watcher_id = $1`,
		watcher.ID)
	if err != nil {
		return fmt.Errorf("failed to get excluded users for watcher %d: %w", watcher.ID, err)
	}
	defer userRows.Close()

	for userRows.Next() {
		var eu models.ExcludedUser
		if err := userRows.Scan(&eu.WatcherID, &eu.UserID); err != nil {
			return fmt.Errorf("failed to scan excluded user: %w", err)
		}
		watcher.ExcludedUsers = append(watcher.ExcludedUsers, eu)
	}
	if err := userRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate excluded users: %w", err)
	}

	roleRows, err := r.q.Query(ctx,
		`SELECT watcher_id, role_id FROM excluded_roles WHERE watcher_id = $1`,
		watcher.ID)
	if err != nil {
		return fmt.Errorf("failed to get excluded roles for watcher %d: %w", watcher.ID, err)
	}
	defer roleRows.Close()

	for roleRows.Next() {
		var er models.ExcludedRole
		if err := roleRows.Scan(&er.WatcherID, &er.RoleID); err != nil {
			return fmt.Errorf("failed to scan excluded role: %w", err)
		}
		watcher.ExcludedRoles = append(watcher.ExcludedRoles, er)
	}
	if err := roleRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate excluded roles: %w", err)
	}

	return nil
}
