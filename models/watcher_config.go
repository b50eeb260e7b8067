package models

import (
	"time"
)

// WatcherConfig is the notification policy for one (guild, user) pair.
// Nullable overrides inherit from the GuildConfig and then from the system
// defaults; the boolean flags are per-watcher only and never inherited.
type WatcherConfig struct {
	ID                    int64     `db:"id"`
	GuildID               int64     `db:"guild_id"`
	UserID                int64     `db:"user_id"`
	Enabled               bool      `db:"enabled"`
	NotifySelfJoin        bool      `db:"notify_self_join"`
	NotifyWhileInVoice    bool      `db:"notify_while_in_voice"`
	NotifyOnMove          bool      `db:"notify_on_move"`
	NotifyOnBotJoin       bool      `db:"notify_on_bot_join"`
	KeepInSyncAcrossGuilds bool     `db:"keep_in_sync"`
	MessageTemplate       *string   `db:"message_template"`
	TitleTemplate         *string   `db:"title_template"`
	Locale                *string   `db:"locale"`
	Timezone              *string   `db:"timezone"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`

	// Exclusion lists, scoped to this watcher and never propagated
	ExcludedUsers []ExcludedUser `db:"-"`
	ExcludedRoles []ExcludedRole `db:"-"`
}

// ExcludedUser suppresses notifications to the owning watcher when the
// acting user matches.
type ExcludedUser struct {
	WatcherID int64 `db:"watcher_id"`
	UserID    int64 `db:"user_id"`
}

// ExcludedRole suppresses notifications to the owning watcher when the
// acting user holds the role.
type ExcludedRole struct {
	WatcherID int64 `db:"watcher_id"`
	RoleID    int64 `db:"role_id"`
}

// HasExcludedUser reports whether userID is on the watcher's exclusion list.
func (w *WatcherConfig) HasExcludedUser(userID int64) bool {
	for _, eu := range w.ExcludedUsers {
		if eu.UserID == userID {
			return true
		}
	}
	return false
}

// HasExcludedRole reports whether any of roleIDs is on the watcher's
// exclusion list.
func (w *WatcherConfig) HasExcludedRole(roleIDs []int64) bool {
	for _, er := range w.ExcludedRoles {
		for _, id := range roleIDs {
			if er.RoleID == id {
				return true
			}
		}
	}
	return false
}

// SyncedFields is the subset of WatcherConfig mirrored across a user's other
// guilds when keep-in-sync is active. Exclusion lists are deliberately
/// absent: each server's exclusions stay local.
type SyncedFields struct {
	Enabled                bool
	NotifySelfJoin         bool
	NotifyWhileInVoice     bool
	NotifyOnMove           bool
	NotifyOnBotJoin        bool
	KeepInSyncAcrossGuilds bool
	MessageTemplate        *string
	TitleTemplate          *string
	Locale                 *string
	Timezone               *string
}

// Synced extracts the propagated fields from the watcher record.
func (w *WatcherConfig) Synced() SyncedFields {
	return SyncedFields{
		Enabled:                w.Enabled,
		NotifySelfJoin:         w.NotifySelfJoin,
		NotifyWhileInVoice:     w.NotifyWhileInVoice,
		NotifyOnMove:           w.NotifyOnMove,
		NotifyOnBotJoin:        w.NotifyOnBotJoin,
		KeepInSyncAcrossGuilds: w.KeepInSyncAcrossGuilds,
		MessageTemplate:        w.MessageTemplate,
		TitleTemplate:          w.TitleTemplate,
		Locale:                 w.Locale,
		Timezone:               w.Timezone,
	}
}
