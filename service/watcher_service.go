package service

import (
	"context"
	"fmt"

	"whojoined/events"
	"whojoined/models"
)

// watcherService implements the WatcherService interface
type watcherService struct {
	uowFactory UnitOfWorkFactory
	defaults   SystemDefaults
}

// NewWatcherService creates a new watcher service
func NewWatcherService(uowFactory UnitOfWorkFactory, defaults SystemDefaults) WatcherService {
	return &watcherService{
		uowFactory: uowFactory,
		defaults:   defaults,
	}
}

// authorize loads (or lazily creates) the guild config inside the unit of
// work and checks the actor's tier. Editing another user's watcher requires
// admin; editing one's own requires config permission.
func (s *watcherService) authorize(ctx context.Context, uow UnitOfWork, actor Actor, guildID, targetUserID int64) (*models.GuildConfig, error) {
	guild, err := uow.GuildConfigRepository().GetOrCreate(ctx, guildID, s.defaults.Locale, s.defaults.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config: %w", err)
	}

	if actor.UserID == targetUserID {
		if !HasConfigPermission(actor, guild) {
			return nil, ErrPermissionDenied
		}
	} else if !HasAdminPermission(actor, guild) {
		return nil, ErrPermissionDenied
	}
	return guild, nil
}

// CreateWatcher creates a watcher for (guildID, userID). If the user already
// has a synced watcher on another guild, the new record is primed from its
// synced fields before the explicit creation options are applied, so a
// synced user's policy follows them onto new servers immediately.
func (s *watcherService) CreateWatcher(ctx context.Context, actor Actor, guildID, userID int64, opts models.WatcherUpdate) (*models.WatcherConfig, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if _, err := s.authorize(ctx, uow, actor, guildID, userID); err != nil {
		return nil, err
	}

	existing, err := uow.WatcherRepository().GetByGuildAndUser(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up watcher: %w", err)
	}
	if existing != nil {
		return nil, ErrWatcherExists
	}

	watcher := &models.WatcherConfig{
		GuildID: guildID,
		UserID:  userID,
		Enabled: true,
	}

	// On-creation priming from the user's synced records elsewhere
	others, err := uow.WatcherRepository().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user watchers: %w", err)
	}
	for _, other := range others {
		if other.KeepInSyncAcrossGuilds {
			applySyncedFields(watcher, other.Synced())
			break
		}
	}

	// Explicit creation options win over primed values
	opts.Apply(watcher)

	if err := uow.WatcherRepository().Create(ctx, watcher); err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return watcher, nil
}

// UpdateWatcher applies a partial update to a watcher and mirrors the result
// to the user's other guilds when sync is (or was) active. Propagation fires
// when the previous sync flag was true or the update turns it on; a
// synced-to-unsynced transition therefore mirrors the final state once and
// then stops.
func (s *watcherService) UpdateWatcher(ctx context.Context, actor Actor, guildID, userID int64, update models.WatcherUpdate) (*models.WatcherConfig, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := s.authorize(ctx, uow, actor, guildID, userID); err != nil {
		return nil, err
	}

	watcher, err := uow.WatcherRepository().GetByGuildAndUser(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up watcher: %w", err)
	}
	if watcher == nil {
		return nil, ErrWatcherNotFound
	}

	prevSync := watcher.KeepInSyncAcrossGuilds
	update.Apply(watcher)

	if err := uow.WatcherRepository().Update(ctx, watcher); err != nil {
		return nil, fmt.Errorf("failed to update watcher: %w", err)
	}

	shouldPropagate := prevSync || (update.KeepInSyncAcrossGuilds != nil && *update.KeepInSyncAcrossGuilds)
	if shouldPropagate {
		count, err := uow.WatcherRepository().SyncByUser(ctx, userID, guildID, watcher.Synced())
		if err != nil {
			return nil, fmt.Errorf("failed to propagate watcher config: %w", err)
		}
		uow.EventBus().Publish(events.WatcherSyncedEvent{
			UserID:        userID,
			SourceGuildID: guildID,
			TargetCount:   count,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return watcher, nil
}

// RemoveWatcher deletes the watcher record and its exclusion lists
func (s *watcherService) RemoveWatcher(ctx context.Context, actor Actor, guildID, userID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := s.authorize(ctx, uow, actor, guildID, userID); err != nil {
		return err
	}

	if err := uow.WatcherRepository().Delete(ctx, guildID, userID); err != nil {
		return fmt.Errorf("failed to delete watcher: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetWatcher retrieves a watcher record, or (nil, nil) when absent
func (s *watcherService) GetWatcher(ctx context.Context, guildID, userID int64) (*models.WatcherConfig, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	watcher, err := uow.WatcherRepository().GetByGuildAndUser(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up watcher: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return watcher, nil
}

// ExcludeUser adds a user to the watcher's exclusion list
func (s *watcherService) ExcludeUser(ctx context.Context, actor Actor, guildID, watcherUserID, excludedUserID int64) error {
	return s.mutateExclusion(ctx, actor, guildID, watcherUserID, func(uow UnitOfWork, watcherID int64) error {
		return uow.WatcherRepository().AddExcludedUser(ctx, watcherID, excludedUserID)
	})
}

// UnexcludeUser removes a user from the watcher's exclusion list
func (s *watcherService) UnexcludeUser(ctx context.Context, actor Actor, guildID, watcherUserID, excludedUserID int64) error {
	return s.mutateExclusion(ctx, actor, guildID, watcherUserID, func(uow UnitOfWork, watcherID int64) error {
		return uow.WatcherRepository().RemoveExcludedUser(ctx, watcherID, excludedUserID)
	})
}

// ExcludeRole adds a role to the watcher's exclusion list
func (s *watcherService) ExcludeRole(ctx context.Context, actor Actor, guildID, watcherUserID, roleID int64) error {
	return s.mutateExclusion(ctx, actor, guildID, watcherUserID, func(uow UnitOfWork, watcherID int64) error {
		return uow.WatcherRepository().AddExcludedRole(ctx, watcherID, roleID)
	})
}

// UnexcludeRole removes a role from the watcher's exclusion list
func (s *watcherService) UnexcludeRole(ctx context.Context, actor Actor, guildID, watcherUserID, roleID int64) error {
	return s.mutateExclusion(ctx, actor, guildID, watcherUserID, func(uow UnitOfWork, watcherID int64) error {
		return uow.WatcherRepository().RemoveExcludedRole(ctx, watcherID, roleID)
	})
}

// mutateExclusion is the shared authorize-load-mutate-commit path for
// exclusion list edits. Exclusions never trigger sync propagation.
func (s *watcherService) mutateExclusion(ctx context.Context, actor Actor, guildID, watcherUserID int64, mutate func(UnitOfWork, int64) error) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := s.authorize(ctx, uow, actor, guildID, watcherUserID); err != nil {
		return err
	}

	watcher, err := uow.WatcherRepository().GetByGuildAndUser(ctx, guildID, watcherUserID)
	if err != nil {
		return fmt.Errorf("failed to look up watcher: %w", err)
	}
	if watcher == nil {
		return ErrWatcherNotFound
	}

	if err := mutate(uow, watcher.ID); err != nil {
		return fmt.Errorf("failed to update exclusion list: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func applySyncedFields(w *models.WatcherConfig, f models.SyncedFields) {
	w.Enabled = f.Enabled
	w.NotifySelfJoin = f.NotifySelfJoin
	w.NotifyWhileInVoice = f.NotifyWhileInVoice
	w.NotifyOnMove = f.NotifyOnMove
	w.NotifyOnBotJoin = f.NotifyOnBotJoin
	w.KeepInSyncAcrossGuilds = f.KeepInSyncAcrossGuilds
	w.MessageTemplate = f.MessageTemplate
	w.TitleTemplate = f.TitleTemplate
	w.Locale = f.Locale
	w.Timezone = f.Timezone
}
