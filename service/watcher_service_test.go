package service

import (
	"context"
	"testing"

	"whojoined/events"
	"whojoined/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func boolPtr(b bool) *bool {
	return &b
}

func setupWatcherService() (WatcherService, *MockUnitOfWork, *MockGuildConfigRepository, *MockWatcherRepository, *recordingPublisher) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockGuildRepo := new(MockGuildConfigRepository)
	mockWatcherRepo := new(MockWatcherRepository)
	bus := &recordingPublisher{}

	mockUoW.SetRepositories(mockGuildRepo, mockWatcherRepo, bus)
	mockFactory.On("Create").Return(mockUoW)

	service := NewWatcherService(mockFactory, SystemDefaults{Locale: "en", Timezone: "UTC"})
	return service, mockUoW, mockGuildRepo, mockWatcherRepo, bus
}

func adminActor(userID int64) Actor {
	return Actor{UserID: userID, IsAdministrator: true}
}

func TestWatcherService_CreateWatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("creates enabled watcher", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, _ := setupWatcherService()

		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Commit").Return(nil)
		mockUoW.On("Rollback").Return(nil)

		mockGuildRepo.On("GetOrCreate", ctx, int64(100), "en", "UTC").Return(&models.GuildConfig{GuildID: 100}, nil)
		mockWatcherRepo.On("GetByGuildAndUser", ctx, int64(100), int64(200)).Return(nil, nil)
		mockWatcherRepo.On("ListByUser", ctx, int64(200)).Return([]*models.WatcherConfig{}, nil)
		mockWatcherRepo.On("Create", ctx, mock.MatchedBy(func(w *models.WatcherConfig) bool {
			return w.GuildID == 100 && w.UserID == 200 && w.Enabled && !w.KeepInSyncAcrossGuilds
		})).Return(nil)

		watcher, err := service.CreateWatcher(ctx, adminActor(200), 100, 200, models.WatcherUpdate{})

		assert.NoError(t, err)
		assert.NotNil(t, watcher)
		mockWatcherRepo.AssertExpectations(t)
	})

	t.Run("rejects duplicate", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, _ := setupWatcherService()

		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Rollback").Return(nil)

		mockGuildRepo.On("GetOrCreate", ctx, int64(100), "en", "UTC").Return(&models.GuildConfig{GuildID: 100}, nil)
		mockWatcherRepo.On("GetByGuildAndUser", ctx, int64(100), int64(200)).Return(&models.WatcherConfig{ID: 1}, nil)

		_, err := service.CreateWatcher(ctx, adminActor(200), 100, 200, models.WatcherUpdate{})

		assert.ErrorIs(t, err, ErrWatcherExists)
		mockWatcherRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("primes from synced record elsewhere", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, _ := setupWatcherService()

		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Commit").Return(nil)
		mockUoW.On("Rollback").Return(nil)

		synced := &models.WatcherConfig{
			ID:                     7,
			GuildID:                999,
			UserID:                 200,
			Enabled:                true,
			NotifyOnMove:           true,
			KeepInSyncAcrossGuilds: true,
			Locale:                 strPtr("es"),
		}

		mockGuildRepo.On("GetOrCreate", ctx, int64(100), "en", "UTC").Return(&models.GuildConfig{GuildID: 100}, nil)
		mockWatcherRepo.On("GetByGuildAndUser", ctx, int64(100), int64(200)).Return(nil, nil)
		mockWatcherRepo.On("ListByUser", ctx, int64(200)).Return([]*models.WatcherConfig{synced}, nil)
		mockWatcherRepo.On("Create", ctx, mock.MatchedBy(func(w *models.WatcherConfig) bool {
			return w.NotifyOnMove && w.KeepInSyncAcrossGuilds &&
				w.Locale != nil && *w.Locale == "es" &&
				// Explicit option beat the primed value
				w.NotifySelfJoin
		})).Return(nil)

		_, err := service.CreateWatcher(ctx, adminActor(200), 100, 200, models.WatcherUpdate{
			NotifySelfJoin: boolPtr(true),
		})

		assert.NoError(t, err)
		mockWatcherRepo.AssertExpectations(t)
	})

	t.Run("permission denied for other user without admin", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, _ := setupWatcherService()

		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Rollback").Return(nil)

		mockGuildRepo.On("GetOrCreate", ctx, int64(100), "en", "UTC").Return(&models.GuildConfig{GuildID: 100}, nil)

		_, err := service.CreateWatcher(ctx, Actor{UserID: 1}, 100, 200, models.WatcherUpdate{})

		assert.ErrorIs(t, err, ErrPermissionDenied)
		mockWatcherRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		mockUoW.AssertNotCalled(t, "Commit")
	})

	t.Run("config grant allows editing own watcher", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, _ := setupWatcherService()

		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Commit").Return(nil)
		mockUoW.On("Rollback").Return(nil)

		guild := &models.GuildConfig{
			GuildID:      100,
			AllowedUsers: []models.AllowedUser{{GuildID: 100, UserID: 200, IsAdmin: false}},
		}
		mockGuildRepo.On("GetOrCreate", ctx, int64(100), "en", "UTC").Return(guild, nil)
		mockWatcherRepo.On("GetByGuildAndUser", ctx, int64(100), int64(200)).Return(nil, nil)
		mockWatcherRepo.On("ListByUser", ctx, int64(200)).Return([]*models.WatcherConfig{}, nil)
		mockWatcherRepo.On("Create", ctx, mock.Anything).Return(nil)

		_, err := service.CreateWatcher(ctx, Actor{UserID: 200}, 100, 200, models.WatcherUpdate{})

		assert.NoError(t, err)
	})
}

func TestWatcherService_UpdateWatcher(t *testing.T) {
	ctx := context.Background()

	existing := func() *models.WatcherConfig {
		return &models.WatcherConfig{ID: 1, GuildID: 100, UserID: 200, Enabled: true}
	}

	expectAuthorized := func(mockUoW *MockUnitOfWork, mockGuildRepo *MockGuildConfigRepository) {
		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Commit").Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockGuildRepo.On("GetOrCreate", ctx, int64(100), "en", "UTC").Return(&models.GuildConfig{GuildID: 100}, nil)
	}

	t.Run("applies partial update without propagation", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, bus := setupWatcherService()
		expectAuthorized(mockUoW, mockGuildRepo)

		mockWatcherRepo.On("GetByGuildAndUser", ctx, int64(100), int64(200)).Return(existing(), nil)
		mockWatcherRepo.On("Update", ctx, mock.MatchedBy(func(w *models.WatcherConfig) bool {
			return w.NotifyOnMove
		})).Return(nil)

		watcher, err := service.UpdateWatcher(ctx, adminActor(200), 100, 200, models.WatcherUpdate{
			NotifyOnMove: boolPtr(true),
		})

		assert.NoError(t, err)
		assert.True(t, watcher.NotifyOnMove)
		mockWatcherRepo.AssertNotCalled(t, "SyncByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, bus.published)
	})

	t.Run("inherit sentinel clears override", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, _ := setupWatcherService()
		expectAuthorized(mockUoW, mockGuildRepo)

		w := existing()
		w.Locale = strPtr("es")
		mockWatcherRepo.On("GetByGuildAndUser", ctx, int64(100), int64(200)).Return(w, nil)
		mockWatcherRepo.On("Update", ctx, mock.MatchedBy(func(w *models.WatcherConfig) bool {
			return w.Locale == nil
		})).Return(nil)

		watcher, err := service.UpdateWatcher(ctx, adminActor(200), 100, 200, models.WatcherUpdate{
			Locale: strPtr(models.InheritSentinel),
		})

		assert.NoError(t, err)
		assert.Nil(t, watcher.Locale)
		mockWatcherRepo.AssertExpectations(t)
	})

	t.Run("enabling sync propagates", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, bus := setupWatcherService()
		expectAuthorized(mockUoW, mockGuildRepo)

		mockWatcherRepo.On("GetByGuildAndUser", ctx, int64(100), int64(200)).Return(existing(), nil)
		mockWatcherRepo.On("Update", ctx, mock.Anything).Return(nil)
		mockWatcherRepo.On("SyncByUser", ctx, int64(200), int64(100), mock.MatchedBy(func(f models.SyncedFields) bool {
			return f.KeepInSyncAcrossGuilds
		})).Return(int64(2), nil)

		_, err := service.UpdateWatcher(ctx, adminActor(200), 100, 200, models.WatcherUpdate{
			KeepInSyncAcrossGuilds: boolPtr(true),
		})

		assert.NoError(t, err)
		assert.Len(t, bus.published, 1)
		ev, ok := bus.published[0].(events.WatcherSyncedEvent)
		assert.True(t, ok)
		assert.Equal(t, int64(200), ev.UserID)
		assert.Equal(t, int64(100), ev.SourceGuildID)
		assert.Equal(t, int64(2), ev.TargetCount)
	})

	t.Run("disabling sync propagates the final state once", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, _ := setupWatcherService()
		expectAuthorized(mockUoW, mockGuildRepo)

		w := existing()
		w.KeepInSyncAcrossGuilds = true
		mockWatcherRepo.On("GetByGuildAndUser", ctx, int64(100), int64(200)).Return(w, nil)
		mockWatcherRepo.On("Update", ctx, mock.Anything).Return(nil)
		mockWatcherRepo.On("SyncByUser", ctx, int64(200), int64(100), mock.MatchedBy(func(f models.SyncedFields) bool {
			return !f.KeepInSyncAcrossGuilds
		})).Return(int64(1), nil)

		_, err := service.UpdateWatcher(ctx, adminActor(200), 100, 200, models.WatcherUpdate{
			KeepInSyncAcrossGuilds: boolPtr(false),
		})

		assert.NoError(t, err)
		mockWatcherRepo.AssertExpectations(t)
	})

	t.Run("no propagation when sync stays off", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, _ := setupWatcherService()
		expectAuthorized(mockUoW, mockGuildRepo)

		mockWatcherRepo.On("GetByGuildAndUser", ctx, int64(100), int64(200)).Return(existing(), nil)
		mockWatcherRepo.On("Update", ctx, mock.Anything).Return(nil)

		_, err := service.UpdateWatcher(ctx, adminActor(200), 100, 200, models.WatcherUpdate{
			KeepInSyncAcrossGuilds: boolPtr(false),
		})

		assert.NoError(t, err)
		mockWatcherRepo.AssertNotCalled(t, "SyncByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing watcher", func(t *testing.T) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, _ := setupWatcherService()

		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockGuildRepo.On("GetOrCreate", ctx, int64(100), "en", "UTC").Return(&models.GuildConfig{GuildID: 100}, nil)
		mockWatcherRepo.On("GetByGuildAndUser", ctx, int64(100), int64(200)).Return(nil, nil)

		_, err := service.UpdateWatcher(ctx, adminActor(200), 100, 200, models.WatcherUpdate{})

		assert.ErrorIs(t, err, ErrWatcherNotFound)
		mockUoW.AssertNotCalled(t, "Commit")
	})
}

func TestWatcherService_RemoveWatcher(t *testing.T) {
	ctx := context.Background()

	service, mockUoW, mockGuildRepo, mockWatcherRepo, _ := setupWatcherService()

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockGuildRepo.On("GetOrCreate", ctx, int64(100), "en", "UTC").Return(&models.GuildConfig{GuildID: 100}, nil)
	mockWatcherRepo.On("Delete", ctx, int64(100), int64(200)).Return(nil)

	err := service.RemoveWatcher(ctx, adminActor(200), 100, 200)

	assert.NoError(t, err)
	mockWatcherRepo.AssertExpectations(t)
}

func TestWatcherService_Exclusions(t *testing.T) {
	ctx := context.Background()

	setup := func() (WatcherService, *MockUnitOfWork, *MockWatcherRepository) {
		service, mockUoW, mockGuildRepo, mockWatcherRepo, _ := setupWatcherService()
		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Commit").Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockGuildRepo.On("GetOrCreate", ctx, int64(100), "en", "UTC").Return(&models.GuildConfig{GuildID: 100}, nil)
		mockWatcherRepo.On("GetByGuildAndUser", ctx, int64(100), int64(200)).
			Return(&models.WatcherConfig{ID: 7, GuildID: 100, UserID: 200}, nil)
		return service, mockUoW, mockWatcherRepo
	}

	t.Run("exclude user", func(t *testing.T) {
		service, _, mockWatcherRepo := setup()
		mockWatcherRepo.On("AddExcludedUser", ctx, int64(7), int64(555)).Return(nil)

		err := service.ExcludeUser(ctx, adminActor(200), 100, 200, 555)
		assert.NoError(t, err)
		mockWatcherRepo.AssertExpectations(t)
	})

	t.Run("unexclude role", func(t *testing.T) {
		service, _, mockWatcherRepo := setup()
		mockWatcherRepo.On("RemoveExcludedRole", ctx, int64(7), int64(777)).Return(nil)

		err := service.UnexcludeRole(ctx, adminActor(200), 100, 200, 777)
		assert.NoError(t, err)
		mockWatcherRepo.AssertExpectations(t)
	})

	t.Run("exclusion edits never propagate", func(t *testing.T) {
		service, _, mockWatcherRepo := setup()
		mockWatcherRepo.On("AddExcludedRole", ctx, int64(7), int64(777)).Return(nil)

		err := service.ExcludeRole(ctx, adminActor(200), 100, 200, 777)
		assert.NoError(t, err)
		mockWatcherRepo.AssertNotCalled(t, "SyncByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
