package service

import (
	"context"
	"fmt"

	"whojoined/models"
)

// guildConfigService implements the GuildConfigService interface
type guildConfigService struct {
	uowFactory UnitOfWorkFactory
	defaults   SystemDefaults
}

// NewGuildConfigService creates a new guild configuration service
func NewGuildConfigService(uowFactory UnitOfWorkFactory, defaults SystemDefaults) GuildConfigService {
	return &guildConfigService{
		uowFactory: uowFactory,
		defaults:   defaults,
	}
}

// EnsureGuild lazily creates the guild config seeded with the system
// defaults. Called on server-join; an existing config is left untouched.
func (s *guildConfigService) EnsureGuild(ctx context.Context, guildID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if _, err := uow.GuildConfigRepository().GetOrCreate(ctx, guildID, s.defaults.Locale, s.defaults.Timezone); err != nil {
		return fmt.Errorf("failed to ensure guild config: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetGuildConfig retrieves the guild config, or (nil, nil) when absent
func (s *guildConfigService) GetGuildConfig(ctx context.Context, guildID int64) (*models.GuildConfig, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	guild, err := uow.GuildConfigRepository().Get(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild config: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return guild, nil
}

// UpdateDefaults updates server-wide defaults. Admin only.
func (s *guildConfigService) UpdateDefaults(ctx context.Context, actor Actor, guildID int64, update models.GuildConfigUpdate) error {
	return s.adminWrite(ctx, actor, guildID, func(uow UnitOfWork, guild *models.GuildConfig) error {
		update.Apply(guild)
		return uow.GuildConfigRepository().Update(ctx, guild)
	})
}

// AllowRole grants config (or admin) permission to a role. Admin only.
func (s *guildConfigService) AllowRole(ctx context.Context, actor Actor, guildID, roleID int64, isAdmin bool) error {
	return s.adminWrite(ctx, actor, guildID, func(uow UnitOfWork, guild *models.GuildConfig) error {
		return uow.GuildConfigRepository().UpsertAllowedRole(ctx, models.AllowedRole{
			GuildID: guildID,
			RoleID:  roleID,
			IsAdmin: isAdmin,
		})
	})
}

// DisallowRole revokes a role grant. Admin only.
func (s *guildConfigService) DisallowRole(ctx context.Context, actor Actor, guildID, roleID int64) error {
	return s.adminWrite(ctx, actor, guildID, func(uow UnitOfWork, guild *models.GuildConfig) error {
		return uow.GuildConfigRepository().RemoveAllowedRole(ctx, guildID, roleID)
	})
}

// AllowUser grants config (or admin) permission to a user. Admin only.
func (s *guildConfigService) AllowUser(ctx context.Context, actor Actor, guildID, userID int64, isAdmin bool) error {
	return s.adminWrite(ctx, actor, guildID, func(uow UnitOfWork, guild *models.GuildConfig) error {
		return uow.GuildConfigRepository().UpsertAllowedUser(ctx, models.AllowedUser{
			GuildID: guildID,
			UserID:  userID,
			IsAdmin: isAdmin,
		})
	})
}

// DisallowUser revokes a user grant. Admin only.
func (s *guildConfigService) DisallowUser(ctx context.Context, actor Actor, guildID, userID int64) error {
	return s.adminWrite(ctx, actor, guildID, func(uow UnitOfWork, guild *models.GuildConfig) error {
		return uow.GuildConfigRepository().RemoveAllowedUser(ctx, guildID, userID)
	})
}

// HasConfigPermission resolves the actor's config tier for a guild
func (s *guildConfigService) HasConfigPermission(ctx context.Context, actor Actor, guildID int64) (bool, error) {
	guild, err := s.GetGuildConfig(ctx, guildID)
	if err != nil {
		return false, err
	}
	return HasConfigPermission(actor, guild), nil
}

// HasAdminPermission resolves the actor's admin tier for a guild
func (s *guildConfigService) HasAdminPermission(ctx context.Context, actor Actor, guildID int64) (bool, error) {
	guild, err := s.GetGuildConfig(ctx, guildID)
	if err != nil {
		return false, err
	}
	return HasAdminPermission(actor, guild), nil
}

// adminWrite is the shared authorize-load-mutate-commit path for admin-tier
// guild writes. The guild config is lazily created before the permission
// check so a brand-new server can be configured by its administrator.
func (s *guildConfigService) adminWrite(ctx context.Context, actor Actor, guildID int64, mutate func(UnitOfWork, *models.GuildConfig) error) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	guild, err := uow.GuildConfigRepository().GetOrCreate(ctx, guildID, s.defaults.Locale, s.defaults.Timezone)
	if err != nil {
		return fmt.Errorf("failed to get guild config: %w", err)
	}

	if !HasAdminPermission(actor, guild) {
		return ErrPermissionDenied
	}

	if err := mutate(uow, guild); err != nil {
		return fmt.Errorf("failed to update guild config: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
