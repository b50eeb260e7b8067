package bot

import (
	"context"
	"fmt"
	"strconv"

	"whojoined/service"

	"github.com/bwmarrin/discordgo"
)

// dmNotifier delivers notifications over direct messages. Implements
// service.Notifier.
type dmNotifier struct {
	session *discordgo.Session
}

// SendDirectMessage opens (or reuses) the DM channel with the recipient and
// sends the notification embed. Errors bubble up; retry policy is the
// caller's concern.
func (n *dmNotifier) SendDirectMessage(ctx context.Context, recipientID int64, msg *service.DirectMessage) error {
	channel, err := n.session.UserChannelCreate(strconv.FormatInt(recipientID, 10))
	if err != nil {
		return fmt.Errorf("failed to open DM channel with user %d: %w", recipientID, err)
	}

	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Body,
		Color:       msg.Color,
	}
	if msg.Timestamp != nil {
		embed.Timestamp = msg.Timestamp.Format("2006-01-02T15:04:05Z07:00")
	}
	if msg.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: msg.ThumbnailURL}
	}
	if msg.AuthorName != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    msg.AuthorName,
			IconURL: msg.AuthorIconURL,
		}
	}
	if msg.LinkURL != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Value: fmt.Sprintf("[%s](%s)", msg.LinkLabel, msg.LinkURL),
		})
	}

	if _, err := n.session.ChannelMessageSendEmbed(channel.ID, embed); err != nil {
		return fmt.Errorf("failed to send DM to user %d: %w", recipientID, err)
	}
	return nil
}
