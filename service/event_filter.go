package service

import (
	log "github.com/sirupsen/logrus"

	"whojoined/events"
	"whojoined/models"
)

// NotifyTarget is a watcher that survived filtering, together with the
// display name resolved during the presence lookup.
type NotifyTarget struct {
	Watcher     *models.WatcherConfig
	DisplayName string
}

// FilterWatchers returns the subset of watchers to notify for a transition,
// in storage order. Each watcher is checked against a fixed suppression
// sequence; the first matching rule suppresses and later rules are not
// evaluated. A failed presence lookup counts as "watcher not found" and
// suppresses rather than guessing.
func FilterWatchers(t *events.PresenceTransitionEvent, watchers []*models.WatcherConfig, presence VoicePresenceProvider) []NotifyTarget {
	moved := t.Moved()

	var targets []NotifyTarget
	for _, w := range watchers {
		if !w.Enabled {
			continue
		}
		if t.ActorID == w.UserID && !w.NotifySelfJoin {
			continue
		}
		if moved && !w.NotifyOnMove {
			continue
		}
		if t.ActorIsBot && !w.NotifyOnBotJoin {
			continue
		}

		wp, err := presence.WatcherPresence(t.GuildID, w.UserID)
		if err != nil {
			log.WithFields(log.Fields{
				"guild_id": t.GuildID,
				"user_id":  w.UserID,
			}).Debug("Watcher presence lookup failed, suppressing notification")
			continue
		}
		if wp.InVoice && !w.NotifyWhileInVoice {
			continue
		}

		if w.HasExcludedUser(t.ActorID) {
			continue
		}
		if w.HasExcludedRole(t.ActorRoleIDs) {
			continue
		}

		targets = append(targets, NotifyTarget{Watcher: w, DisplayName: wp.DisplayName})
	}
	return targets
}
