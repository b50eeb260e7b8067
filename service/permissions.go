package service

import (
	"whojoined/models"
)

// HasConfigPermission reports whether the actor may edit their own watcher on
// the guild: platform administrators always may, otherwise the actor must
// appear on the guild's allow lists at either tier.
func HasConfigPermission(actor Actor, guild *models.GuildConfig) bool {
	if actor.IsAdministrator {
		return true
	}
	if guild == nil {
		return false
	}
	for _, u := range guild.AllowedUsers {
		if u.UserID == actor.UserID {
			return true
		}
	}
	for _, r := range guild.AllowedRoles {
		if actorHasRole(actor, r.RoleID) {
			return true
		}
	}
	return false
}

// HasAdminPermission reports whether the actor may edit other users'
// watchers, server defaults, or the allow lists: platform administrators, or
// an explicit is_admin grant.
func HasAdminPermission(actor Actor, guild *models.GuildConfig) bool {
	if actor.IsAdministrator {
		return true
	}
	if guild == nil {
		return false
	}
	for _, u := range guild.AllowedUsers {
		if u.UserID == actor.UserID && u.IsAdmin {
			return true
		}
	}
	for _, r := range guild.AllowedRoles {
		if r.IsAdmin && actorHasRole(actor, r.RoleID) {
			return true
		}
	}
	return false
}

func actorHasRole(actor Actor, roleID int64) bool {
	for _, id := range actor.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
