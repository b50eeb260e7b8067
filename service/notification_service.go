package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"whojoined/events"
	"whojoined/models"
)

const embedColor = 0x7289DA

// fallbackActorName replaces {user} when the platform gave us no display
// name for the actor
const fallbackActorName = "Someone"

// notificationService implements the NotificationService interface.
// It orchestrates the pipeline for one transition: load policies, filter
// watchers, resolve effective config, render, deliver.
type notificationService struct {
	uowFactory UnitOfWorkFactory
	resolver   *Resolver
	presence   VoicePresenceProvider
	notifier   Notifier
	translator Translator
	now        func() time.Time
}

// NewNotificationService creates a new notification dispatcher
func NewNotificationService(uowFactory UnitOfWorkFactory, resolver *Resolver, presence VoicePresenceProvider, notifier Notifier, translator Translator) NotificationService {
	return &notificationService{
		uowFactory: uowFactory,
		resolver:   resolver,
		presence:   presence,
		notifier:   notifier,
		translator: translator,
		now:        time.Now,
	}
}

// Dispatch runs the notification pipeline for a single voice-presence
// transition. Uninitialized guilds and pure leaves are dropped silently.
// Each delivery is independent and best-effort: a rejected direct message
// never aborts the remaining fan-out and is never retried.
func (s *notificationService) Dispatch(ctx context.Context, t *events.PresenceTransitionEvent) error {
	if !t.Joined() && !t.Moved() {
		return nil
	}

	guild, watchers, err := s.loadPolicies(ctx, t.GuildID)
	if err != nil {
		return err
	}
	if guild == nil {
		// An uninitialized server has no watchers by construction
		return nil
	}

	targets := FilterWatchers(t, watchers, s.presence)
	for _, target := range targets {
		s.notifyOne(ctx, guild, t, target)
	}
	return nil
}

// loadPolicies reads the guild config and watcher list in one transaction
func (s *notificationService) loadPolicies(ctx context.Context, guildID int64) (*models.GuildConfig, []*models.WatcherConfig, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	guild, err := uow.GuildConfigRepository().Get(ctx, guildID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get guild config: %w", err)
	}
	if guild == nil {
		return nil, nil, nil
	}

	watchers, err := uow.WatcherRepository().ListByGuild(ctx, guildID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list watchers: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return guild, watchers, nil
}

// notifyOne resolves effective configuration for a single watcher, renders
// the templates, and attempts delivery
func (s *notificationService) notifyOne(ctx context.Context, guild *models.GuildConfig, t *events.PresenceTransitionEvent, target NotifyTarget) {
	w := target.Watcher

	locale := s.resolver.EffectiveLocale(guild, w)
	timezone := s.resolver.EffectiveTimezone(guild, w)
	bodyTemplate := s.resolver.EffectiveMessageTemplate(guild, w, locale)
	titleTemplate := s.resolver.EffectiveTitleTemplate(guild, w, locale)

	now := s.now()
	date, _ := FormatDate(now, locale, timezone)

	actorName := t.ActorDisplayName
	if actorName == "" {
		actorName = fallbackActorName
	}

	rendered := RenderNotification(bodyTemplate, titleTemplate, RenderContext{
		WatcherName: target.DisplayName,
		ActorName:   actorName,
		ChannelName: t.ChannelName,
		ServerName:  t.GuildName,
		Date:        date,
	})

	msg := &DirectMessage{
		Title: rendered.Title,
		Body:  rendered.Body,
		Color: embedColor,
	}
	if rendered.Markers.ShowDate {
		msg.Timestamp = &now
	}
	if rendered.Markers.ShowUserImage && t.ActorAvatarURL != "" {
		msg.ThumbnailURL = t.ActorAvatarURL
	}
	if rendered.Markers.ShowServerInfo && t.GuildIconURL != "" {
		msg.AuthorName = t.GuildName
		msg.AuthorIconURL = t.GuildIconURL
	}
	if rendered.Markers.ChannelLink && t.IsChannelID != nil {
		msg.LinkLabel = s.translator.Translate("notifications.voice.join", locale)
		msg.LinkURL = fmt.Sprintf("https://discord.com/channels/%d/%d", t.GuildID, *t.IsChannelID)
	}

	if err := s.notifier.SendDirectMessage(ctx, w.UserID, msg); err != nil {
		// Best-effort delivery: one blocked recipient must never stall the
		// batch, so failures are swallowed here
		log.WithFields(log.Fields{
			"guild_id": t.GuildID,
			"user_id":  w.UserID,
		}).Debug("Direct message delivery failed, dropping notification")
	}
}
