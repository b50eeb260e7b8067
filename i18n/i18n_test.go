package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("loads bundled locales", func(t *testing.T) {
		tr, err := New("en")
		require.NoError(t, err)
		assert.NotEmpty(t, tr.bundles["en"])
		assert.NotEmpty(t, tr.bundles["es"])
	})

	t.Run("unknown default locale", func(t *testing.T) {
		_, err := New("zz")
		assert.Error(t, err)
	})
}

func TestTranslator_Translate(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	t.Run("exact locale", func(t *testing.T) {
		assert.Equal(t, "{user} joined {channel} on {server}",
			tr.Translate("notifications.voice.default", "en"))
	})

	t.Run("bundled non-default locale", func(t *testing.T) {
		got := tr.Translate("notifications.voice.default", "es")
		assert.NotEqual(t, tr.Translate("notifications.voice.default", "en"), got)
		assert.Contains(t, got, "{user}")
	})

	t.Run("region variant matches base locale", func(t *testing.T) {
		assert.Equal(t, tr.Translate("notifications.voice.default", "es"),
			tr.Translate("notifications.voice.default", "es-MX"))
	})

	t.Run("underscore separator accepted", func(t *testing.T) {
		assert.Equal(t, tr.Translate("notifications.voice.default", "es"),
			tr.Translate("notifications.voice.default", "es_ES"))
	})

	t.Run("unknown locale falls back to default", func(t *testing.T) {
		assert.Equal(t, tr.Translate("notifications.voice.default", "en"),
			tr.Translate("notifications.voice.default", "xx-boguslocale"))
	})

	t.Run("missing key returns key", func(t *testing.T) {
		assert.Equal(t, "no.such.key", tr.Translate("no.such.key", "en"))
	})

	t.Run("nested keys flattened", func(t *testing.T) {
		assert.Equal(t, "Invite me", tr.Translate("commands.invite.success", "en"))
	})
}
