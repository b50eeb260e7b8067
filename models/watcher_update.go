package models

// InheritSentinel supplied as a locale/timezone/template override clears the
// stored override back to NULL instead of being stored literally.
const InheritSentinel = "inherit"

// WatcherUpdate carries a partial update to a WatcherConfig. Nil fields are
// left untouched; string fields set to InheritSentinel clear the stored
// override to NULL.
type WatcherUpdate struct {
	Enabled                *bool
	NotifySelfJoin         *bool
	NotifyWhileInVoice     *bool
	NotifyOnMove           *bool
	NotifyOnBotJoin        *bool
	KeepInSyncAcrossGuilds *bool
	MessageTemplate        *string
	TitleTemplate          *string
	Locale                 *string
	Timezone               *string
}

// Apply merges the update into the watcher record, resolving the inherit
// sentinel to NULL.
func (u WatcherUpdate) Apply(w *WatcherConfig) {
	if u.Enabled != nil {
		w.Enabled = *u.Enabled
	}
	if u.NotifySelfJoin != nil {
		w.NotifySelfJoin = *u.NotifySelfJoin
	}
	if u.NotifyWhileInVoice != nil {
		w.NotifyWhileInVoice = *u.NotifyWhileInVoice
	}
	if u.NotifyOnMove != nil {
		w.NotifyOnMove = *u.NotifyOnMove
	}
	if u.NotifyOnBotJoin != nil {
		w.NotifyOnBotJoin = *u.NotifyOnBotJoin
	}
	if u.KeepInSyncAcrossGuilds != nil {
		w.KeepInSyncAcrossGuilds = *u.KeepInSyncAcrossGuilds
	}
	w.MessageTemplate = applyOverride(u.MessageTemplate, w.MessageTemplate)
	w.TitleTemplate = applyOverride(u.TitleTemplate, w.TitleTemplate)
	w.Locale = applyOverride(u.Locale, w.Locale)
	w.Timezone = applyOverride(u.Timezone, w.Timezone)
}

func applyOverride(update, current *string) *string {
	if update == nil {
		return current
	}
	if *update == InheritSentinel {
		return nil
	}
	v := *update
	return &v
}

// GuildConfigUpdate carries a partial update to a guild's defaults, with the
// same nil / sentinel semantics as WatcherUpdate.
type GuildConfigUpdate struct {
	DefaultLocale          *string
	DefaultTimezone        *string
	DefaultMessageTemplate *string
	DefaultTitleTemplate   *string
}

// Apply merges the update into the guild config record.
func (u GuildConfigUpdate) Apply(g *GuildConfig) {
	g.DefaultLocale = applyOverride(u.DefaultLocale, g.DefaultLocale)
	g.DefaultTimezone = applyOverride(u.DefaultTimezone, g.DefaultTimezone)
	g.DefaultMessageTemplate = applyOverride(u.DefaultMessageTemplate, g.DefaultMessageTemplate)
	g.DefaultTitleTemplate = applyOverride(u.DefaultTitleTemplate, g.DefaultTitleTemplate)
}
