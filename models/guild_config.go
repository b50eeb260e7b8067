package models

import (
	"time"
)

// GuildConfig holds the per-server notification defaults. Overridable fields
// are nullable; a nil value falls back to the system-wide default.
type GuildConfig struct {
	GuildID                int64     `db:"guild_id"`
	DefaultLocale          *string   `db:"default_locale"`
	DefaultTimezone        *string   `db:"default_timezone"`
	DefaultMessageTemplate *string   `db:"default_message_template"`
	DefaultTitleTemplate   *string   `db:"default_title_template"`
	CreatedAt              time.Time `db:"created_at"`
	UpdatedAt              time.Time `db:"updated_at"`

	// Loaded with the config when permission checks need them
	AllowedRoles []AllowedRole `db:"-"`
	AllowedUsers []AllowedUser `db:"-"`
}

// AllowedRole grants configuration permission to every holder of a role.
// IsAdmin distinguishes the admin tier from the plain config tier.
type AllowedRole struct {
	GuildID int64 `db:"guild_id"`
	RoleID  int64 `db:"role_id"`
	IsAdmin bool  `db:"is_admin"`
}

// AllowedUser grants configuration permission to a single user.
type AllowedUser struct {
	GuildID int64 `db:"guild_id"`
	UserID  int64 `db:"user_id"`
	IsAdmin bool  `db:"is_admin"`
}
