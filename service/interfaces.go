package service

import (
	"context"
	"time"

	"whojoined/events"
	"whojoined/models"
)

// GuildConfigRepository defines the interface for guild configuration data access
type GuildConfigRepository interface {
	// Get retrieves a guild config with its allow lists, or (nil, nil) when
	// the guild has never been configured
	Get(ctx context.Context, guildID int64) (*models.GuildConfig, error)

	// GetOrCreate retrieves a guild config, creating one seeded with the
	// given defaults if absent
	GetOrCreate(ctx context.Context, guildID int64, defaultLocale, defaultTimezone string) (*models.GuildConfig, error)

	// Update persists the guild's default fields
	Update(ctx context.Context, config *models.GuildConfig) error

	// UpsertAllowedRole adds or updates a role grant
	UpsertAllowedRole(ctx context.Context, grant models.AllowedRole) error

	// RemoveAllowedRole deletes a role grant
	RemoveAllowedRole(ctx context.Context, guildID, roleID int64) error

	// UpsertAllowedUser adds or updates a user grant
	UpsertAllowedUser(ctx context.Context, grant models.AllowedUser) error

	// RemoveAllowedUser deletes a user grant
	RemoveAllowedUser(ctx context.Context, guildID, userID int64) error
}

// WatcherRepository defines the interface for watcher policy data access
type WatcherRepository interface {
	// GetByGuildAndUser retrieves a watcher with its exclusion lists, or
	// (nil, nil) when absent
	GetByGuildAndUser(ctx context.Context, guildID, userID int64) (*models.WatcherConfig, error)

	// ListByGuild returns all watchers for a guild with their exclusion
	// lists, in storage order
	ListByGuild(ctx context.Context, guildID int64) ([]*models.WatcherConfig, error)

	// ListByUser returns all of a user's watchers across guilds
	ListByUser(ctx context.Context, userID int64) ([]*models.WatcherConfig, error)

	// Create inserts a new watcher record and fills its ID and timestamps
	Create(ctx context.Context, watcher *models.WatcherConfig) error

	// Update persists a watcher's policy fields
	Update(ctx context.Context, watcher *models.WatcherConfig) error

	// Delete removes a watcher and its exclusion lists
	Delete(ctx context.Context, guildID, userID int64) error

	// SyncByUser bulk-updates the synced fields on all of the user's
	// watchers except the one on sourceGuildID. Returns the number of
	// records updated.
	SyncByUser(ctx context.Context, userID, sourceGuildID int64, fields models.SyncedFields) (int64, error)

	// Exclusion list management
	AddExcludedUser(ctx context.Context, watcherID, userID int64) error
	RemoveExcludedUser(ctx context.Context, watcherID, userID int64) error
	AddExcludedRole(ctx context.Context, watcherID, roleID int64) error
	RemoveExcludedRole(ctx context.Context, watcherID, roleID int64) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	GuildConfigRepository() GuildConfigRepository
	WatcherRepository() WatcherRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// Actor identifies the user invoking a configuration command, with the
// platform facts needed for permission checks.
type Actor struct {
	UserID          int64
	RoleIDs         []int64
	IsAdministrator bool
}

// WatcherPresence is the result of a watcher voice-presence lookup.
type WatcherPresence struct {
	DisplayName string
	InVoice     bool
}

// VoicePresenceProvider looks up a guild member's current voice presence.
// Implemented by the platform binding.
type VoicePresenceProvider interface {
	// WatcherPresence returns the member's display name and whether they are
	// currently connected to a voice channel on the guild. An error means
	// the member could not be resolved.
	WatcherPresence(guildID, userID int64) (*WatcherPresence, error)
}

// DirectMessage is the structured notification handed to the delivery
// collaborator. Optional content is controlled by the template's marker
// tokens.
type DirectMessage struct {
	Title         string
	Body          string
	Color         int
	ThumbnailURL  string
	AuthorName    string
	AuthorIconURL string
	Timestamp     *time.Time
	LinkLabel     string
	LinkURL       string
}

// Notifier delivers a private message to a user. Implemented by the platform
// binding; delivery is best-effort.
type Notifier interface {
	SendDirectMessage(ctx context.Context, recipientID int64, msg *DirectMessage) error
}

// Translator resolves fixed system strings by key and locale
type Translator interface {
	Translate(key, locale string) string
}

// WatcherService defines the interface for watcher policy operations
type WatcherService interface {
	// CreateWatcher creates a watcher for (guildID, userID), priming it from
	// the user's synced records on other guilds when applicable
	CreateWatcher(ctx context.Context, actor Actor, guildID, userID int64, opts models.WatcherUpdate) (*models.WatcherConfig, error)

	// UpdateWatcher applies a partial update and runs sync propagation
	UpdateWatcher(ctx context.Context, actor Actor, guildID, userID int64, update models.WatcherUpdate) (*models.WatcherConfig, error)

	// RemoveWatcher deletes the watcher record
	RemoveWatcher(ctx context.Context, actor Actor, guildID, userID int64) error

	// GetWatcher retrieves a watcher, or (nil, nil) when absent
	GetWatcher(ctx context.Context, guildID, userID int64) (*models.WatcherConfig, error)

	// Exclusion list management on another user's watcher requires admin
	ExcludeUser(ctx context.Context, actor Actor, guildID, watcherUserID, excludedUserID int64) error
	UnexcludeUser(ctx context.Context, actor Actor, guildID, watcherUserID, excludedUserID int64) error
	ExcludeRole(ctx context.Context, actor Actor, guildID, watcherUserID, roleID int64) error
	UnexcludeRole(ctx context.Context, actor Actor, guildID, watcherUserID, roleID int64) error
}

// GuildConfigService defines the interface for server-level configuration
type GuildConfigService interface {
	// EnsureGuild lazily creates the guild config (server-join hook)
	EnsureGuild(ctx context.Context, guildID int64) error

	// GetGuildConfig retrieves the guild config, or (nil, nil) when absent
	GetGuildConfig(ctx context.Context, guildID int64) (*models.GuildConfig, error)

	// UpdateDefaults updates server-wide defaults (admin only)
	UpdateDefaults(ctx context.Context, actor Actor, guildID int64, update models.GuildConfigUpdate) error

	// Allow-list management (admin only)
	AllowRole(ctx context.Context, actor Actor, guildID, roleID int64, isAdmin bool) error
	DisallowRole(ctx context.Context, actor Actor, guildID, roleID int64) error
	AllowUser(ctx context.Context, actor Actor, guildID, userID int64, isAdmin bool) error
	DisallowUser(ctx context.Context, actor Actor, guildID, userID int64) error

	// HasConfigPermission and HasAdminPermission resolve the actor's
	// authorization tier for a guild
	HasConfigPermission(ctx context.Context, actor Actor, guildID int64) (bool, error)
	HasAdminPermission(ctx context.Context, actor Actor, guildID int64) (bool, error)
}

// NotificationService dispatches voice-presence transitions to watchers
type NotificationService interface {
	// Dispatch runs the filter/render/deliver pipeline for one transition
	Dispatch(ctx context.Context, transition *events.PresenceTransitionEvent) error
}
