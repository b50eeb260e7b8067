package bot

import (
	"context"
	"fmt"
	"strings"

	"whojoined/bot/common"
	"whojoined/models"

	"github.com/bwmarrin/discordgo"
)

// handleConfigView shows the server defaults and the caller's watcher profile
func (b *Bot) handleConfigView(s *discordgo.Session, i *discordgo.InteractionCreate) {
	locale := b.replyLocale(i)
	actor, guildID, err := actorFromInteraction(i)
	if err != nil {
		b.respondServiceError(s, i, locale, err)
		return
	}

	ctx := context.Background()
	guild, err := b.guildConfigService.GetGuildConfig(ctx, guildID)
	if err != nil {
		b.respondServiceError(s, i, locale, err)
		return
	}
	watcher, err := b.watcherService.GetWatcher(ctx, guildID, actor.UserID)
	if err != nil {
		b.respondServiceError(s, i, locale, err)
		return
	}

	label := func(key string) string {
		return b.translator.Translate("commands.config.view.labels."+key, locale)
	}
	inherit := label("inherit")
	orInherit := func(v *string) string {
		if v == nil {
			return inherit
		}
		return *v
	}
	onOff := func(v bool) string {
		if v {
			return "on"
		}
		return "off"
	}

	embed := &discordgo.MessageEmbed{
		Title: b.translator.Translate("commands.config.view.title", locale),
		Color: 0x7289DA,
	}

	serverLines := []string{
		fmt.Sprintf("%s: %s", label("locale"), orInherit(serverField(guild, func(g *models.GuildConfig) *string { return g.DefaultLocale }))),
		fmt.Sprintf("%s: %s", label("timezone"), orInherit(serverField(guild, func(g *models.GuildConfig) *string { return g.DefaultTimezone }))),
		fmt.Sprintf("%s: %s", label("title_template"), orInherit(serverField(guild, func(g *models.GuildConfig) *string { return g.DefaultTitleTemplate }))),
		fmt.Sprintf("%s: %s", label("message_template"), orInherit(serverField(guild, func(g *models.GuildConfig) *string { return g.DefaultMessageTemplate }))),
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  b.translator.Translate("commands.config.view.server", locale),
		Value: strings.Join(serverLines, "\n"),
	})

	if watcher == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: b.translator.Translate("commands.config.view.user", locale),
			Value: b.translator.Translate("commands.config.view.user_none", locale) + "\n" +
				b.translator.Translate("commands.config.view.create_hint", locale),
		})
	} else {
		watcherLines := []string{
			fmt.Sprintf("%s: %s", label("enabled"), onOff(watcher.Enabled)),
			fmt.Sprintf("%s: %s", label("self_join"), onOff(watcher.NotifySelfJoin)),
			fmt.Sprintf("%s: %s", label("while_in_voice"), onOff(watcher.NotifyWhileInVoice)),
			fmt.Sprintf("%s: %s", label("on_move"), onOff(watcher.NotifyOnMove)),
			fmt.Sprintf("%s: %s", label("on_bot_join"), onOff(watcher.NotifyOnBotJoin)),
			fmt.Sprintf("%s: %s", label("keep_in_sync"), onOff(watcher.KeepInSyncAcrossGuilds)),
			fmt.Sprintf("%s: %s", label("locale"), orInherit(watcher.Locale)),
			fmt.Sprintf("%s: %s", label("timezone"), orInherit(watcher.Timezone)),
			fmt.Sprintf("%s: %s", label("title_template"), orInherit(watcher.TitleTemplate)),
			fmt.Sprintf("%s: %s", label("message_template"), orInherit(watcher.MessageTemplate)),
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  b.translator.Translate("commands.config.view.user", locale),
			Value: strings.Join(watcherLines, "\n"),
		})

		if len(watcher.ExcludedUsers) > 0 || len(watcher.ExcludedRoles) > 0 {
			var users, roles []string
			for _, u := range watcher.ExcludedUsers {
				users = append(users, fmt.Sprintf("<@%d>", u.UserID))
			}
			for _, r := range watcher.ExcludedRoles {
				roles = append(roles, fmt.Sprintf("<@&%d>", r.RoleID))
			}
			none := b.translator.Translate("commands.permissions.list.none", locale)
			joinOrNone := func(v []string) string {
				if len(v) == 0 {
					return none
				}
				return strings.Join(v, " ")
			}
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: b.translator.Translate("commands.config.view.exclusive_title", locale),
				Value: fmt.Sprintf("%s: %s\n%s: %s",
					label("excluded_users"), joinOrNone(users),
					label("excluded_roles"), joinOrNone(roles)),
			})
		}
	}

	common.RespondWithEmbed(s, i, embed)
}

// serverField tolerates an uninitialized guild config
func serverField(g *models.GuildConfig, get func(*models.GuildConfig) *string) *string {
	if g == nil {
		return nil
	}
	return get(g)
}
