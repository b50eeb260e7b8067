package service

import (
	"testing"

	"whojoined/models"

	"github.com/stretchr/testify/assert"
)

func newTestResolver() *Resolver {
	translator := &stubTranslator{entries: map[string]string{
		"notifications.voice.default":    "{user} joined {channel} on {server}",
		"notifications.voice.title":      "Voice activity",
		"notifications.voice.default:es": "{user} se ha unido a {channel} en {server}",
	}}
	return NewResolver(SystemDefaults{Locale: "en", Timezone: "UTC"}, translator)
}

func strPtr(s string) *string {
	return &s
}

func TestResolver_EffectiveLocale(t *testing.T) {
	r := newTestResolver()

	t.Run("watcher override wins", func(t *testing.T) {
		guild := &models.GuildConfig{DefaultLocale: strPtr("es")}
		watcher := &models.WatcherConfig{Locale: strPtr("fr")}
		assert.Equal(t, "fr", r.EffectiveLocale(guild, watcher))
	})

	t.Run("guild default when watcher has none", func(t *testing.T) {
		guild := &models.GuildConfig{DefaultLocale: strPtr("es")}
		watcher := &models.WatcherConfig{}
		assert.Equal(t, "es", r.EffectiveLocale(guild, watcher))
	})

	t.Run("system default at the bottom", func(t *testing.T) {
		assert.Equal(t, "en", r.EffectiveLocale(&models.GuildConfig{}, &models.WatcherConfig{}))
	})

	t.Run("nil records fall through", func(t *testing.T) {
		assert.Equal(t, "en", r.EffectiveLocale(nil, nil))
	})
}

func TestResolver_EffectiveTimezone(t *testing.T) {
	r := newTestResolver()

	guild := &models.GuildConfig{DefaultTimezone: strPtr("Europe/Madrid")}

	assert.Equal(t, "America/New_York",
		r.EffectiveTimezone(guild, &models.WatcherConfig{Timezone: strPtr("America/New_York")}))
	assert.Equal(t, "Europe/Madrid", r.EffectiveTimezone(guild, &models.WatcherConfig{}))
	assert.Equal(t, "UTC", r.EffectiveTimezone(nil, nil))
}

func TestResolver_EffectiveMessageTemplate(t *testing.T) {
	r := newTestResolver()

	t.Run("watcher override wins", func(t *testing.T) {
		guild := &models.GuildConfig{DefaultMessageTemplate: strPtr("guild template")}
		watcher := &models.WatcherConfig{MessageTemplate: strPtr("my template")}
		assert.Equal(t, "my template", r.EffectiveMessageTemplate(guild, watcher, "en"))
	})

	t.Run("guild default when watcher has none", func(t *testing.T) {
		guild := &models.GuildConfig{DefaultMessageTemplate: strPtr("guild template")}
		assert.Equal(t, "guild template", r.EffectiveMessageTemplate(guild, &models.WatcherConfig{}, "en"))
	})

	t.Run("stock text is localized", func(t *testing.T) {
		got := r.EffectiveMessageTemplate(&models.GuildConfig{}, &models.WatcherConfig{}, "es")
		assert.Equal(t, "{user} se ha unido a {channel} en {server}", got)
	})
}

func TestResolver_EffectiveTitleTemplate(t *testing.T) {
	r := newTestResolver()

	guild := &models.GuildConfig{DefaultTitleTemplate: strPtr("guild title")}
	watcher := &models.WatcherConfig{TitleTemplate: strPtr("my title")}

	assert.Equal(t, "my title", r.EffectiveTitleTemplate(guild, watcher, "en"))
	assert.Equal(t, "guild title", r.EffectiveTitleTemplate(guild, &models.WatcherConfig{}, "en"))
	assert.Equal(t, "Voice activity", r.EffectiveTitleTemplate(nil, nil, "en"))
}
