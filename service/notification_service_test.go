package service

import (
	"context"
	"errors"
	"testing"

	"whojoined/events"
	"whojoined/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupNotificationService() (NotificationService, *MockUnitOfWork, *MockGuildConfigRepository, *MockWatcherRepository, *MockVoicePresenceProvider, *MockNotifier) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockGuildRepo := new(MockGuildConfigRepository)
	mockWatcherRepo := new(MockWatcherRepository)
	mockPresence := new(MockVoicePresenceProvider)
	mockNotifier := new(MockNotifier)

	mockUoW.SetRepositories(mockGuildRepo, mockWatcherRepo, nil)
	mockFactory.On("Create").Return(mockUoW)

	translator := &stubTranslator{entries: map[string]string{
		"notifications.voice.default": "{user} joined {channel} on {server}",
		"notifications.voice.title":   "Voice activity",
		"notifications.voice.join":    "Join them",
	}}
	resolver := NewResolver(SystemDefaults{Locale: "en", Timezone: "UTC"}, translator)

	service := NewNotificationService(mockFactory, resolver, mockPresence, mockNotifier, translator)
	return service, mockUoW, mockGuildRepo, mockWatcherRepo, mockPresence, mockNotifier
}

func transition(guildID, actorID int64) *events.PresenceTransitionEvent {
	return &events.PresenceTransitionEvent{
		GuildID:          guildID,
		GuildName:        "My Server",
		ActorID:          actorID,
		ActorDisplayName: "Alice",
		IsChannelID:      int64Ptr(500),
		ChannelName:      "General",
	}
}

func TestNotificationService_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("renders guild template and delivers", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, mockPresence, mockNotifier := setupNotificationService()

		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Commit").Return(nil)
		mockUoW.On("Rollback").Return(nil)

		guild := &models.GuildConfig{GuildID: 100, DefaultMessageTemplate: strPtr("Hello {user}")}
		watcher := &models.WatcherConfig{ID: 1, GuildID: 100, UserID: 200, Enabled: true}

		mockGuildRepo.On("Get", ctx, int64(100)).Return(guild, nil)
		mockWatcherRepo.On("ListByGuild", ctx, int64(100)).Return([]*models.WatcherConfig{watcher}, nil)
		mockPresence.On("WatcherPresence", int64(100), int64(200)).Return(&WatcherPresence{DisplayName: "Bob"}, nil)
		mockNotifier.On("SendDirectMessage", ctx, int64(200), mock.MatchedBy(func(msg *DirectMessage) bool {
			return msg.Body == "Hello Alice" &&
				msg.Title == "Voice activity" &&
				msg.Color == 0x7289DA &&
				msg.Timestamp == nil
		})).Return(nil)

		err := service.Dispatch(ctx, transition(100, 300))

		assert.NoError(t, err)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("uninitialized guild is dropped silently", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, _, mockNotifier := setupNotificationService()

		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockGuildRepo.On("Get", ctx, int64(100)).Return(nil, nil)

		err := service.Dispatch(ctx, transition(100, 300))

		assert.NoError(t, err)
		mockWatcherRepo.AssertNotCalled(t, "ListByGuild", mock.Anything, mock.Anything)
		mockNotifier.AssertNotCalled(t, "SendDirectMessage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("pure leave is dropped before any loading", func(t *testing.T) {
		service, mockUoW, _, _, _, mockNotifier := setupNotificationService()

		leave := &events.PresenceTransitionEvent{
			GuildID:      100,
			ActorID:      300,
			WasChannelID: int64Ptr(500),
		}

		err := service.Dispatch(ctx, leave)

		assert.NoError(t, err)
		mockUoW.AssertNotCalled(t, "Begin", mock.Anything)
		mockNotifier.AssertNotCalled(t, "SendDirectMessage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("delivery failure is swallowed per recipient", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, mockPresence, mockNotifier := setupNotificationService()

		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Commit").Return(nil)
		mockUoW.On("Rollback").Return(nil)

		guild := &models.GuildConfig{GuildID: 100}
		watchers := []*models.WatcherConfig{
			{ID: 1, GuildID: 100, UserID: 200, Enabled: true},
			{ID: 2, GuildID: 100, UserID: 201, Enabled: true},
		}

		mockGuildRepo.On("Get", ctx, int64(100)).Return(guild, nil)
		mockWatcherRepo.On("ListByGuild", ctx, int64(100)).Return(watchers, nil)
		mockPresence.On("WatcherPresence", int64(100), int64(200)).Return(&WatcherPresence{DisplayName: "Bob"}, nil)
		mockPresence.On("WatcherPresence", int64(100), int64(201)).Return(&WatcherPresence{DisplayName: "Carol"}, nil)

		mockNotifier.On("SendDirectMessage", ctx, int64(200), mock.Anything).Return(errors.New("cannot DM user"))
		mockNotifier.On("SendDirectMessage", ctx, int64(201), mock.Anything).Return(nil)

		err := service.Dispatch(ctx, transition(100, 300))

		assert.NoError(t, err)
		mockNotifier.AssertNumberOfCalls(t, "SendDirectMessage", 2)
	})

	t.Run("marker tokens drive optional content", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, mockPresence, mockNotifier := setupNotificationService()

		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Commit").Return(nil)
		mockUoW.On("Rollback").Return(nil)

		guild := &models.GuildConfig{GuildID: 100}
		template := "Hi {user}{showDate}{showUserImage}{showServerInfo}{channelLink}"
		watcher := &models.WatcherConfig{
			ID: 1, GuildID: 100, UserID: 200, Enabled: true,
			MessageTemplate: &template,
		}

		mockGuildRepo.On("Get", ctx, int64(100)).Return(guild, nil)
		mockWatcherRepo.On("ListByGuild", ctx, int64(100)).Return([]*models.WatcherConfig{watcher}, nil)
		mockPresence.On("WatcherPresence", int64(100), int64(200)).Return(&WatcherPresence{DisplayName: "Bob"}, nil)

		ev := transition(100, 300)
		ev.GuildIconURL = "https://cdn.example/icon.png"
		ev.ActorAvatarURL = "https://cdn.example/avatar.png"

		mockNotifier.On("SendDirectMessage", ctx, int64(200), mock.MatchedBy(func(msg *DirectMessage) bool {
			return msg.Body == "Hi Alice" &&
				msg.Timestamp != nil &&
				msg.ThumbnailURL == "https://cdn.example/avatar.png" &&
				msg.AuthorName == "My Server" &&
				msg.AuthorIconURL == "https://cdn.example/icon.png" &&
				msg.LinkLabel == "Join them" &&
				msg.LinkURL == "https://discord.com/channels/100/500"
		})).Return(nil)

		err := service.Dispatch(ctx, ev)

		assert.NoError(t, err)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("anonymous actor falls back to Someone", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, mockPresence, mockNotifier := setupNotificationService()

		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Commit").Return(nil)
		mockUoW.On("Rollback").Return(nil)

		guild := &models.GuildConfig{GuildID: 100}
		watcher := &models.WatcherConfig{ID: 1, GuildID: 100, UserID: 200, Enabled: true}

		mockGuildRepo.On("Get", ctx, int64(100)).Return(guild, nil)
		mockWatcherRepo.On("ListByGuild", ctx, int64(100)).Return([]*models.WatcherConfig{watcher}, nil)
		mockPresence.On("WatcherPresence", int64(100), int64(200)).Return(&WatcherPresence{DisplayName: "Bob"}, nil)

		ev := transition(100, 300)
		ev.ActorDisplayName = ""

		mockNotifier.On("SendDirectMessage", ctx, int64(200), mock.MatchedBy(func(msg *DirectMessage) bool {
			return msg.Body == "Someone joined General on My Server"
		})).Return(nil)

		err := service.Dispatch(ctx, ev)

		assert.NoError(t, err)
		mockNotifier.AssertExpectations(t)
	})
}
