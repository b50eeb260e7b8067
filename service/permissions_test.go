package service

import (
	"testing"

	"whojoined/models"

	"github.com/stretchr/testify/assert"
)

func TestHasConfigPermission(t *testing.T) {
	guild := &models.GuildConfig{
		GuildID:      100,
		AllowedUsers: []models.AllowedUser{{GuildID: 100, UserID: 1, IsAdmin: false}},
		AllowedRoles: []models.AllowedRole{{GuildID: 100, RoleID: 777, IsAdmin: true}},
	}

	assert.True(t, HasConfigPermission(Actor{UserID: 9, IsAdministrator: true}, guild))
	assert.True(t, HasConfigPermission(Actor{UserID: 1}, guild))
	assert.True(t, HasConfigPermission(Actor{UserID: 9, RoleIDs: []int64{777}}, guild))
	assert.False(t, HasConfigPermission(Actor{UserID: 9}, guild))
	assert.False(t, HasConfigPermission(Actor{UserID: 9}, nil))
	assert.True(t, HasConfigPermission(Actor{UserID: 9, IsAdministrator: true}, nil))
}

func TestHasAdminPermission(t *testing.T) {
	guild := &models.GuildConfig{
		GuildID: 100,
		AllowedUsers: []models.AllowedUser{
			{GuildID: 100, UserID: 1, IsAdmin: false},
			{GuildID: 100, UserID: 2, IsAdmin: true},
		},
		AllowedRoles: []models.AllowedRole{
			{GuildID: 100, RoleID: 777, IsAdmin: true},
			{GuildID: 100, RoleID: 888, IsAdmin: false},
		},
	}

	assert.True(t, HasAdminPermission(Actor{UserID: 9, IsAdministrator: true}, guild))
	assert.True(t, HasAdminPermission(Actor{UserID: 2}, guild))
	assert.True(t, HasAdminPermission(Actor{UserID: 9, RoleIDs: []int64{777}}, guild))

	// Config-tier grants do not reach the admin tier
	assert.False(t, HasAdminPermission(Actor{UserID: 1}, guild))
	assert.False(t, HasAdminPermission(Actor{UserID: 9, RoleIDs: []int64{888}}, guild))
	assert.False(t, HasAdminPermission(Actor{UserID: 9}, nil))
}
