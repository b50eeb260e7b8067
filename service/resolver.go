package service

import (
	"whojoined/models"
)

// SystemDefaults are the compiled-in fallbacks at the bottom of the
// configuration cascade. Passed explicitly so resolution stays deterministic
// and test-injectable.
type SystemDefaults struct {
	Locale   string
	Timezone string
}

// Resolver computes effective configuration values for a (guild, watcher)
// pair by walking the cascade: watcher override, then guild default, then
// system default. System-default templates are localized strings, so the
// resolver holds a Translator.
type Resolver struct {
	defaults   SystemDefaults
	translator Translator
}

// NewResolver creates a resolver with the given system defaults
func NewResolver(defaults SystemDefaults, translator Translator) *Resolver {
	return &Resolver{
		defaults:   defaults,
		translator: translator,
	}
}

// resolveCascade returns the first non-nil value, falling back to the system
// default. Both sources may be nil-safe absent.
func resolveCascade(override, guildDefault *string, systemDefault string) string {
	if override != nil {
		return *override
	}
	if guildDefault != nil {
		return *guildDefault
	}
	return systemDefault
}

// EffectiveLocale resolves the locale cascade. Either record may be nil.
func (r *Resolver) EffectiveLocale(guild *models.GuildConfig, watcher *models.WatcherConfig) string {
	return resolveCascade(watcherField(watcher, func(w *models.WatcherConfig) *string { return w.Locale }),
		guildField(guild, func(g *models.GuildConfig) *string { return g.DefaultLocale }),
		r.defaults.Locale)
}

// EffectiveTimezone resolves the timezone cascade. Either record may be nil.
func (r *Resolver) EffectiveTimezone(guild *models.GuildConfig, watcher *models.WatcherConfig) string {
	return resolveCascade(watcherField(watcher, func(w *models.WatcherConfig) *string { return w.Timezone }),
		guildField(guild, func(g *models.GuildConfig) *string { return g.DefaultTimezone }),
		r.defaults.Timezone)
}

// EffectiveMessageTemplate resolves the body template cascade. The system
// default is the localized stock notification text.
func (r *Resolver) EffectiveMessageTemplate(guild *models.GuildConfig, watcher *models.WatcherConfig, locale string) string {
	return resolveCascade(watcherField(watcher, func(w *models.WatcherConfig) *string { return w.MessageTemplate }),
		guildField(guild, func(g *models.GuildConfig) *string { return g.DefaultMessageTemplate }),
		r.translator.Translate("notifications.voice.default", locale))
}

// EffectiveTitleTemplate resolves the title template cascade
func (r *Resolver) EffectiveTitleTemplate(guild *models.GuildConfig, watcher *models.WatcherConfig, locale string) string {
	return resolveCascade(watcherField(watcher, func(w *models.WatcherConfig) *string { return w.TitleTemplate }),
		guildField(guild, func(g *models.GuildConfig) *string { return g.DefaultTitleTemplate }),
		r.translator.Translate("notifications.voice.title", locale))
}

func watcherField(w *models.WatcherConfig, get func(*models.WatcherConfig) *string) *string {
	if w == nil {
		return nil
	}
	return get(w)
}

func guildField(g *models.GuildConfig, get func(*models.GuildConfig) *string) *string {
	if g == nil {
		return nil
	}
	return get(g)
}
