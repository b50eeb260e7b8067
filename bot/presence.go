package bot

import (
	"fmt"
	"strconv"

	"whojoined/service"

	"github.com/bwmarrin/discordgo"
)

// sessionPresence resolves watcher voice presence from the gateway state,
// falling back to the REST API for members the state has not seen. Implements
// service.VoicePresenceProvider.
type sessionPresence struct {
	session *discordgo.Session
}

// WatcherPresence returns the member's display name and whether they are
// currently connected to a voice channel on the guild. A member the guild no
// longer has resolves to an error, which callers treat as "do not notify".
func (p *sessionPresence) WatcherPresence(guildID, userID int64) (*service.WatcherPresence, error) {
	guildIDStr := strconv.FormatInt(guildID, 10)
	userIDStr := strconv.FormatInt(userID, 10)

	member, err := p.session.State.Member(guildIDStr, userIDStr)
	if err != nil {
		member, err = p.session.GuildMember(guildIDStr, userIDStr)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve member %d on guild %d: %w", userID, guildID, err)
		}
	}

	inVoice := false
	if guild, err := p.session.State.Guild(guildIDStr); err == nil {
		for _, vs := range guild.VoiceStates {
			if vs.UserID == userIDStr && vs.ChannelID != "" {
				inVoice = true
				break
			}
		}
	}

	return &service.WatcherPresence{
		DisplayName: memberDisplayName(member),
		InVoice:     inVoice,
	}, nil
}
