package testutil

import (
	"whojoined/models"
)

// CreateTestWatcher creates a watcher with default notification flags
func CreateTestWatcher(guildID, userID int64) *models.WatcherConfig {
	return &models.WatcherConfig{
		GuildID:         guildID,
		UserID:          userID,
		Enabled:         true,
		NotifyOnBotJoin: true,
	}
}

// CreateTestWatcherWithOverrides creates a watcher with locale and template
// overrides set
func CreateTestWatcherWithOverrides(guildID, userID int64, locale, template string) *models.WatcherConfig {
	w := CreateTestWatcher(guildID, userID)
	w.Locale = &locale
	w.MessageTemplate = &template
	return w
}

// CreateTestGuildConfig creates a guild config with the given defaults
func CreateTestGuildConfig(guildID int64, locale, timezone string) *models.GuildConfig {
	return &models.GuildConfig{
		GuildID:         guildID,
		DefaultLocale:   &locale,
		DefaultTimezone: &timezone,
	}
}

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to the given bool
func BoolPtr(b bool) *bool {
	return &b
}
