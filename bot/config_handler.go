package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"whojoined/bot/common"
	"whojoined/models"
	"whojoined/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// invitePermissions is the permission set requested in the OAuth invite link:
// View Channels + Send Messages + Embed Links.
const invitePermissions = 19456

// handleInvite responds with the OAuth invite link
func (b *Bot) handleInvite(s *discordgo.Session, i *discordgo.InteractionCreate) {
	locale := b.replyLocale(i)

	clientID := b.config.DiscordClientID
	if clientID == "" {
		clientID = s.State.User.ID
	}
	url := fmt.Sprintf("https://discord.com/api/oauth2/authorize?client_id=%s&permissions=%d&scope=bot%%20applications.commands",
		clientID, invitePermissions)

	common.RespondWithEmbed(s, i, &discordgo.MessageEmbed{
		Title:       b.translator.Translate("commands.app.title", locale),
		Description: fmt.Sprintf("%s\n\n[%s](%s)",
			b.translator.Translate("commands.invite.description", locale),
			b.translator.Translate("commands.invite.success", locale),
			url),
		Color: 0x7289DA,
	})
}

// handleConfig routes the /config subcommands
func (b *Bot) handleConfig(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Member == nil {
		// Guild-only command invoked from a DM
		return
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	sub := options[0]
	switch sub.Name {
	case "view":
		b.handleConfigView(s, i)
	case "server-config":
		b.handleServerConfig(s, i, sub.Options)
	case "add-watcher":
		b.handleAddWatcher(s, i, sub.Options)
	case "watcher-config":
		b.handleWatcherConfig(s, i, sub.Options)
	case "remove-watcher":
		b.handleRemoveWatcher(s, i, sub.Options)
	case "permissions":
		b.handlePermissions(s, i, sub)
	case "exclude":
		b.handleExclude(s, i, sub)
	}
}

// actorFromInteraction extracts the invoking member's identity for permission
// checks
func actorFromInteraction(i *discordgo.InteractionCreate) (service.Actor, int64, error) {
	guildID, err := strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		return service.Actor{}, 0, fmt.Errorf("failed to parse guild ID %s: %w", i.GuildID, err)
	}
	userID, err := strconv.ParseInt(i.Member.User.ID, 10, 64)
	if err != nil {
		return service.Actor{}, 0, fmt.Errorf("failed to parse user ID %s: %w", i.Member.User.ID, err)
	}

	actor := service.Actor{
		UserID:          userID,
		IsAdministrator: i.Member.Permissions&discordgo.PermissionAdministrator != 0,
	}
	for _, roleID := range i.Member.Roles {
		if id, err := strconv.ParseInt(roleID, 10, 64); err == nil {
			actor.RoleIDs = append(actor.RoleIDs, id)
		}
	}
	return actor, guildID, nil
}

// replyLocale resolves the locale used for command replies: the server
// default if set, otherwise the system default
func (b *Bot) replyLocale(i *discordgo.InteractionCreate) string {
	if i.GuildID == "" {
		return b.config.DefaultLocale
	}
	guildID, err := strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		return b.config.DefaultLocale
	}
	guild, err := b.guildConfigService.GetGuildConfig(context.Background(), guildID)
	if err != nil || guild == nil || guild.DefaultLocale == nil {
		return b.config.DefaultLocale
	}
	return *guild.DefaultLocale
}

// respondServiceError maps service sentinel errors to localized replies
func (b *Bot) respondServiceError(s *discordgo.Session, i *discordgo.InteractionCreate, locale string, err error) {
	var key string
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		key = "errors.missing_permissions"
	case errors.Is(err, service.ErrWatcherNotFound):
		key = "commands.watcher.not_found"
	case errors.Is(err, service.ErrWatcherExists):
		key = "commands.watcher.already_exists"
	default:
		log.WithFields(log.Fields{
			"guild_id": i.GuildID,
			"command":  i.ApplicationCommandData().Name,
		}).Errorf("Command failed: %v", err)
		key = "errors.unexpected"
	}
	common.RespondWithError(s, i, b.translator.Translate(key, locale))
}

// optionIndex maps option names to values for a subcommand
func optionIndex(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

// targetUserID resolves the optional "watcher" option, defaulting to the caller
func targetUserID(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, caller int64) int64 {
	o, ok := opts["watcher"]
	if !ok {
		return caller
	}
	id, err := strconv.ParseInt(o.UserValue(s).ID, 10, 64)
	if err != nil {
		return caller
	}
	return id
}

func boolOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) *bool {
	o, ok := opts[name]
	if !ok {
		return nil
	}
	v := o.BoolValue()
	return &v
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) *string {
	o, ok := opts[name]
	if !ok {
		return nil
	}
	v := o.StringValue()
	return &v
}

// watcherUpdateFromOptions parses the shared flag and override options
func watcherUpdateFromOptions(opts map[string]*discordgo.ApplicationCommandInteractionDataOption) models.WatcherUpdate {
	return models.WatcherUpdate{
		Enabled:                boolOption(opts, "enabled"),
		NotifySelfJoin:         boolOption(opts, "notify-self-join"),
		NotifyWhileInVoice:     boolOption(opts, "notify-while-in-voice"),
		NotifyOnMove:           boolOption(opts, "notify-on-move"),
		NotifyOnBotJoin:        boolOption(opts, "notify-on-bot-join"),
		KeepInSyncAcrossGuilds: boolOption(opts, "keep-in-sync"),
		MessageTemplate:        stringOption(opts, "message-template"),
		TitleTemplate:          stringOption(opts, "title-template"),
		Locale:                 stringOption(opts, "locale"),
		Timezone:               stringOption(opts, "timezone"),
	}
}

func (b *Bot) handleServerConfig(s *discordgo.Session, i *discordgo.InteractionCreate, subOpts []*discordgo.ApplicationCommandInteractionDataOption) {
	locale := b.replyLocale(i)
	actor, guildID, err := actorFromInteraction(i)
	if err != nil {
		b.respondServiceError(s, i, locale, err)
		return
	}

	opts := optionIndex(subOpts)
	update := models.GuildConfigUpdate{
		DefaultLocale:          stringOption(opts, "locale"),
		DefaultTimezone:        stringOption(opts, "timezone"),
		DefaultMessageTemplate: stringOption(opts, "message-template"),
		DefaultTitleTemplate:   stringOption(opts, "title-template"),
	}

	if err := b.guildConfigService.UpdateDefaults(context.Background(), actor, guildID, update); err != nil {
		b.respondServiceError(s, i, locale, err)
		return
	}
	common.RespondEphemeral(s, i, b.translator.Translate("commands.config.saved", locale))
}

func (b *Bot) handleAddWatcher(s *discordgo.Session, i *discordgo.InteractionCreate, subOpts []*discordgo.ApplicationCommandInteractionDataOption) {
	locale := b.replyLocale(i)
	actor, guildID, err := actorFromInteraction(i)
	if err != nil {
		b.respondServiceError(s, i, locale, err)
		return
	}

	opts := optionIndex(subOpts)
	target := targetUserID(s, i, opts, actor.UserID)

	if _, err := b.watcherService.CreateWatcher(context.Background(), actor, guildID, target, watcherUpdateFromOptions(opts)); err != nil {
		b.respondServiceError(s, i, locale, err)
		return
	}
	common.RespondEphemeral(s, i, b.translator.Translate("commands.watcher.added", locale))
}

func (b *Bot) handleWatcherConfig(s *discordgo.Session, i *discordgo.InteractionCreate, subOpts []*discordgo.ApplicationCommandInteractionDataOption) {
	locale := b.replyLocale(i)
	actor, guildID, err := actorFromInteraction(i)
	if err != nil {
		b.respondServiceError(s, i, locale, err)
		return
	}

	opts := optionIndex(subOpts)
	target := targetUserID(s, i, opts, actor.UserID)

	if _, err := b.watcherService.UpdateWatcher(context.Background(), actor, guildID, target, watcherUpdateFromOptions(opts)); err != nil {
		b.respondServiceError(s, i, locale, err)
		return
	}
	common.RespondEphemeral(s, i, b.translator.Translate("commands.watcher.updated", locale))
}

func (b *Bot) handleRemoveWatcher(s *discordgo.Session, i *discordgo.InteractionCreate, subOpts []*discordgo.ApplicationCommandInteractionDataOption) {
	locale := b.replyLocale(i)
	actor, guildID, err := actorFromInteraction(i)
	if err != nil {
		b.respondServiceError(s, i, locale, err)
		return
	}

	opts := optionIndex(subOpts)
	target := targetUserID(s, i, opts, actor.UserID)

	if err := b.watcherService.RemoveWatcher(context.Background(), actor, guildID, target); err != nil {
		b.respondServiceError(s, i, locale, err)
		return
	}
	common.RespondEphemeral(s, i, b.translator.Translate("commands.watcher.removed", locale))
}

func (b *Bot) handlePermissions(s *discordgo.Session, i *discordgo.InteractionCreate, group *discordgo.ApplicationCommandInteractionDataOption) {
	locale := b.replyLocale(i)
	actor, guildID, err := actorFromInteraction(i)
	if err != nil {
		b.respondServiceError(s, i, locale, err)
		return
	}
	if len(group.Options) == 0 {
		return
	}

	sub := group.Options[0]
	opts := optionIndex(sub.Options)
	ctx := context.Background()

	switch sub.Name {
	case "add-role":
		roleID, ok := parseRoleOption(s, opts)
		if !ok {
			return
		}
		isAdmin := opts["admin"] != nil && opts["admin"].BoolValue()
		if err := b.guildConfigService.AllowRole(ctx, actor, guildID, roleID, isAdmin); err != nil {
			b.respondServiceError(s, i, locale, err)
			return
		}
		common.RespondEphemeral(s, i, b.translator.Translate("commands.permissions.role.allowed", locale))

	case "remove-role":
		roleID, ok := parseRoleOption(s, opts)
		if !ok {
			return
		}
		if err := b.guildConfigService.DisallowRole(ctx, actor, guildID, roleID); err != nil {
			b.respondServiceError(s, i, locale, err)
			return
		}
		common.RespondEphemeral(s, i, b.translator.Translate("commands.permissions.role.removed", locale))

	case "add-user":
		userID, ok := parseUserOption(s, opts)
		if !ok {
			return
		}
		isAdmin := opts["admin"] != nil && opts["admin"].BoolValue()
		if err := b.guildConfigService.AllowUser(ctx, actor, guildID, userID, isAdmin); err != nil {
			b.respondServiceError(s, i, locale, err)
			return
		}
		common.RespondEphemeral(s, i, b.translator.Translate("commands.permissions.user.allowed", locale))

	case "remove-user":
		userID, ok := parseUserOption(s, opts)
		if !ok {
			return
		}
		if err := b.guildConfigService.DisallowUser(ctx, actor, guildID, userID); err != nil {
			b.respondServiceError(s, i, locale, err)
			return
		}
		common.RespondEphemeral(s, i, b.translator.Translate("commands.permissions.user.removed", locale))

	case "list":
		b.handlePermissionsList(s, i, locale, guildID)
	}
}

func (b *Bot) handlePermissionsList(s *discordgo.Session, i *discordgo.InteractionCreate, locale string, guildID int64) {
	guild, err := b.guildConfigService.GetGuildConfig(context.Background(), guildID)
	if err != nil {
		b.respondServiceError(s, i, locale, err)
		return
	}

	var configUsers, configRoles, adminUsers, adminRoles []string
	if guild != nil {
		for _, u := range guild.AllowedUsers {
			mention := fmt.Sprintf("<@%d>", u.UserID)
			if u.IsAdmin {
				adminUsers = append(adminUsers, mention)
			} else {
				configUsers = append(configUsers, mention)
			}
		}
		for _, r := range guild.AllowedRoles {
			mention := fmt.Sprintf("<@&%d>", r.RoleID)
			if r.IsAdmin {
				adminRoles = append(adminRoles, mention)
			} else {
				configRoles = append(configRoles, mention)
			}
		}
	}

	none := b.translator.Translate("commands.permissions.list.none", locale)
	join := func(v []string) string {
		if len(v) == 0 {
			return none
		}
		return strings.Join(v, " ")
	}
	usersLabel := b.translator.Translate("commands.permissions.list.users_label", locale)
	rolesLabel := b.translator.Translate("commands.permissions.list.roles_label", locale)

	common.RespondWithEmbed(s, i, &discordgo.MessageEmbed{
		Title: b.translator.Translate("commands.permissions.title", locale),
		Color: 0x7289DA,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  b.translator.Translate("commands.permissions.list.usage_title", locale),
				Value: fmt.Sprintf("%s: %s\n%s: %s", usersLabel, join(configUsers), rolesLabel, join(configRoles)),
			},
			{
				Name:  b.translator.Translate("commands.permissions.list.admin_title", locale),
				Value: fmt.Sprintf("%s: %s\n%s: %s", usersLabel, join(adminUsers), rolesLabel, join(adminRoles)),
			},
		},
	})
}

func (b *Bot) handleExclude(s *discordgo.Session, i *discordgo.InteractionCreate, group *discordgo.ApplicationCommandInteractionDataOption) {
	locale := b.replyLocale(i)
	actor, guildID, err := actorFromInteraction(i)
	if err != nil {
		b.respondServiceError(s, i, locale, err)
		return
	}
	if len(group.Options) == 0 {
		return
	}

	sub := group.Options[0]
	opts := optionIndex(sub.Options)
	target := targetUserID(s, i, opts, actor.UserID)
	ctx := context.Background()

	var opErr error
	switch sub.Name {
	case "add-user":
		userID, ok := parseUserOption(s, opts)
		if !ok {
			return
		}
		opErr = b.watcherService.ExcludeUser(ctx, actor, guildID, target, userID)
	case "remove-user":
		userID, ok := parseUserOption(s, opts)
		if !ok {
			return
		}
		opErr = b.watcherService.UnexcludeUser(ctx, actor, guildID, target, userID)
	case "add-role":
		roleID, ok := parseRoleOption(s, opts)
		if !ok {
			return
		}
		opErr = b.watcherService.ExcludeRole(ctx, actor, guildID, target, roleID)
	case "remove-role":
		roleID, ok := parseRoleOption(s, opts)
		if !ok {
			return
		}
		opErr = b.watcherService.UnexcludeRole(ctx, actor, guildID, target, roleID)
	default:
		return
	}

	if opErr != nil {
		b.respondServiceError(s, i, locale, opErr)
		return
	}
	common.RespondEphemeral(s, i, b.translator.Translate("commands.watcher.updated", locale))
}

func parseRoleOption(s *discordgo.Session, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) (int64, bool) {
	o, ok := opts["role"]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(o.RoleValue(s, "").ID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func parseUserOption(s *discordgo.Session, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) (int64, bool) {
	o, ok := opts["user"]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(o.UserValue(s).ID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
