package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// watcherFlagOptions are the boolean policy switches shared by add-watcher
// and watcher-config
func watcherFlagOptions() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "enabled",
			Description: "Whether voice notifications are delivered at all",
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "notify-self-join",
			Description: "Notify you about your own joins",
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "notify-while-in-voice",
			Description: "Notify you even while you are in a voice channel",
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "notify-on-move",
			Description: "Notify you when someone moves between voice channels",
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "notify-on-bot-join",
			Description: "Notify you when a bot joins a voice channel",
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "keep-in-sync",
			Description: "Mirror this configuration to your other servers",
		},
	}
}

// watcherOverrideOptions are the nullable overrides; pass 'inherit' to clear
func watcherOverrideOptions() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "message-template",
			Description: "Notification body template, or 'inherit' to use the server default",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "title-template",
			Description: "Notification title template, or 'inherit' to use the server default",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "locale",
			Description: "Locale for your notifications, or 'inherit'",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "timezone",
			Description: "IANA timezone for {date}, or 'inherit'",
		},
	}
}

// targetUserOption lets admins act on another user's watcher
func targetUserOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "watcher",
		Description: "Watcher owner (admins only, defaults to yourself)",
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "invite",
			Description: "Get a link to invite the bot to your server",
		},
		{
			Name:        "config",
			Description: "Configure voice join notifications",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "view",
					Description: "Show the server defaults and your watcher profile",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "server-config",
					Description: "Update server-wide notification defaults (admins only)",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "locale",
							Description: "Default locale, or 'inherit' to use the system default",
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "timezone",
							Description: "Default IANA timezone, or 'inherit'",
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "message-template",
							Description: "Default notification body template, or 'inherit'",
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "title-template",
							Description: "Default notification title template, or 'inherit'",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add-watcher",
					Description: "Create a watcher profile",
					Options: append(append(watcherFlagOptions(), watcherOverrideOptions()...), targetUserOption()),
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "watcher-config",
					Description: "Update a watcher profile",
					Options: append(append(watcherFlagOptions(), watcherOverrideOptions()...), targetUserOption()),
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove-watcher",
					Description: "Remove a watcher profile",
					Options: []*discordgo.ApplicationCommandOption{
						targetUserOption(),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
					Name:        "permissions",
					Description: "Manage who may configure the bot (admins only)",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "add-role",
							Description: "Allow a role to configure the bot",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionRole,
									Name:        "role",
									Description: "Role to allow",
									Required:    true,
								},
								{
									Type:        discordgo.ApplicationCommandOptionBoolean,
									Name:        "admin",
									Description: "Grant the admin tier instead of the config tier",
								},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "remove-role",
							Description: "Revoke a role's access",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionRole,
									Name:        "role",
									Description: "Role to remove",
									Required:    true,
								},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "add-user",
							Description: "Allow a user to configure the bot",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionUser,
									Name:        "user",
									Description: "User to allow",
									Required:    true,
								},
								{
									Type:        discordgo.ApplicationCommandOptionBoolean,
									Name:        "admin",
									Description: "Grant the admin tier instead of the config tier",
								},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "remove-user",
							Description: "Revoke a user's access",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionUser,
									Name:        "user",
									Description: "User to remove",
									Required:    true,
								},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "list",
							Description: "List the configured allow lists",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
					Name:        "exclude",
					Description: "Manage a watcher's exclusion lists",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "add-user",
							Description: "Stop notifying about a specific user",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionUser,
									Name:        "user",
									Description: "User to exclude",
									Required:    true,
								},
								targetUserOption(),
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "remove-user",
							Description: "Resume notifying about a user",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionUser,
									Name:        "user",
									Description: "User to unexclude",
									Required:    true,
								},
								targetUserOption(),
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "add-role",
							Description: "Stop notifying about holders of a role",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionRole,
									Name:        "role",
									Description: "Role to exclude",
									Required:    true,
								},
								targetUserOption(),
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Name:        "remove-role",
							Description: "Resume notifying about holders of a role",
							Options: []*discordgo.ApplicationCommandOption{
								{
									Type:        discordgo.ApplicationCommandOptionRole,
									Name:        "role",
									Description: "Role to unexclude",
									Required:    true,
								},
								targetUserOption(),
							},
						},
					},
				},
			},
		},
	}

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
	}

	return nil
}
