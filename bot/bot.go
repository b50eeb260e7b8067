package bot

import (
	"context"
	"fmt"
	"strconv"

	"whojoined/config"
	"whojoined/events"
	"whojoined/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Bot manages the Discord session: gateway handlers, slash commands, and the
// platform-facing collaborators (DM notifier, voice-presence lookup).
type Bot struct {
	config             *config.Config
	session            *discordgo.Session
	watcherService     service.WatcherService
	guildConfigService service.GuildConfigService
	eventBus           *events.Bus
	translator         service.Translator
}

// New creates a bot, opens the gateway connection, and registers the slash
// commands.
func New(cfg *config.Config, watcherService service.WatcherService, guildConfigService service.GuildConfigService, eventBus *events.Bus, translator service.Translator) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages

	bot := &Bot{
		config:             cfg,
		session:            dg,
		watcherService:     watcherService,
		guildConfigService: guildConfigService,
		eventBus:           eventBus,
		translator:         translator,
	}

	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleGuildCreate)
	dg.AddHandler(bot.handleVoiceStateUpdate)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	return bot, nil
}

// Close gracefully shuts down the bot
func (b *Bot) Close() error {
	return b.session.Close()
}

// Notifier returns the DM delivery implementation bound to this session
func (b *Bot) Notifier() service.Notifier {
	return &dmNotifier{session: b.session}
}

// PresenceProvider returns the voice-presence lookup bound to this session
func (b *Bot) PresenceProvider() service.VoicePresenceProvider {
	return &sessionPresence{session: b.session}
}

// handleCommands routes slash commands to the appropriate handlers
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "invite":
		b.handleInvite(s, i)
	case "config":
		b.handleConfig(s, i)
	}
}

// handleGuildCreate lazily creates the guild config when the bot joins a
// server
func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	ctx := context.Background()

	guildID, err := strconv.ParseInt(g.ID, 10, 64)
	if err != nil {
		log.Errorf("Failed to parse guild ID %s: %v", g.ID, err)
		return
	}

	if err := b.guildConfigService.EnsureGuild(ctx, guildID); err != nil {
		log.Errorf("Failed to track new guild %s (%s): %v", g.Name, g.ID, err)
		return
	}

	b.eventBus.Emit(ctx, events.GuildJoinedEvent{GuildID: guildID, GuildName: g.Name})

	log.Infof("Bot joined guild: %s (ID: %d)", g.Name, guildID)
}

// handleVoiceStateUpdate converts a gateway voice-state update into a
// presence transition and puts it on the bus. Pure leaves are dropped here;
// everything else is the dispatcher's decision.
func (b *Bot) handleVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.ChannelID == "" {
		return
	}

	guildID, err := strconv.ParseInt(v.GuildID, 10, 64)
	if err != nil {
		log.Errorf("Failed to parse guild ID %s: %v", v.GuildID, err)
		return
	}
	actorID, err := strconv.ParseInt(v.UserID, 10, 64)
	if err != nil {
		log.Errorf("Failed to parse user ID %s: %v", v.UserID, err)
		return
	}
	channelID, err := strconv.ParseInt(v.ChannelID, 10, 64)
	if err != nil {
		log.Errorf("Failed to parse channel ID %s: %v", v.ChannelID, err)
		return
	}

	event := events.PresenceTransitionEvent{
		GuildID:     guildID,
		ActorID:     actorID,
		IsChannelID: &channelID,
	}

	if v.BeforeUpdate != nil && v.BeforeUpdate.ChannelID != "" {
		wasID, err := strconv.ParseInt(v.BeforeUpdate.ChannelID, 10, 64)
		if err == nil {
			event.WasChannelID = &wasID
		}
	}
	// Mute/deafen toggles arrive as updates within the same channel
	if event.WasChannelID != nil && *event.WasChannelID == channelID {
		return
	}

	if guild, err := s.State.Guild(v.GuildID); err == nil {
		event.GuildName = guild.Name
		event.GuildIconURL = guild.IconURL("")
	}
	if channel, err := s.State.Channel(v.ChannelID); err == nil {
		event.ChannelName = channel.Name
	}

	member := v.Member
	if member == nil {
		member, _ = s.State.Member(v.GuildID, v.UserID)
	}
	if member != nil {
		event.ActorDisplayName = memberDisplayName(member)
		event.ActorIsBot = member.User != nil && member.User.Bot
		if member.User != nil {
			event.ActorAvatarURL = member.User.AvatarURL("")
		}
		for _, roleID := range member.Roles {
			if id, err := strconv.ParseInt(roleID, 10, 64); err == nil {
				event.ActorRoleIDs = append(event.ActorRoleIDs, id)
			}
		}
	}

	b.eventBus.Emit(context.Background(), event)
}

// memberDisplayName picks the best name for a member: server nickname, then
// global display name, then username
func memberDisplayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User == nil {
		return ""
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}
