package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	apperrors "exhub-store-bot/internal/common/errors"
	"exhub-store-bot/internal/features/giveaway/models"
)

// ReactionEmoji is the entry reaction on giveaway announcements.
const ReactionEmoji = "🎉"

const embedColor = 0x5865F2

// Publisher renders giveaway state into the announcement channel.
type Publisher struct {
	session *discordgo.Session
}

func NewPublisher(session *discordgo.Session) *Publisher {
	return &Publisher{session: session}
}

func (p *Publisher) PublishAnnouncement(_ context.Context, g *models.Giveaway) (string, error) {
	msg, err := p.session.ChannelMessageSendEmbed(g.ChannelID, announcementEmbed(g, 0))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeDiscordAPI, "failed to send giveaway announcement")
	}

	if err := p.session.MessageReactionAdd(g.ChannelID, msg.ID, ReactionEmoji); err != nil {
		// Users can still react themselves; the seed reaction is a convenience.
		return msg.ID, nil
	}
	return msg.ID, nil
}

func (p *Publisher) RefreshAnnouncement(_ context.Context, g *models.Giveaway, entrantCount int) error {
	_, err := p.session.ChannelMessageEditEmbed(g.ChannelID, g.ID, announcementEmbed(g, entrantCount))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDiscordAPI, "failed to edit giveaway announcement")
	}
	return nil
}

func (p *Publisher) PublishResults(_ context.Context, g *models.Giveaway) error {
	var firstErr error

	if _, err := p.session.ChannelMessageEditEmbed(g.ChannelID, g.ID, endedEmbed(g)); err != nil {
		firstErr = apperrors.Wrap(err, apperrors.ErrCodeDiscordAPI, "failed to edit ended announcement")
	}

	content := resultMessage(g)
	if _, err := p.session.ChannelMessageSend(g.ChannelID, content); err != nil && firstErr == nil {
		firstErr = apperrors.Wrap(err, apperrors.ErrCodeDiscordAPI, "failed to send winner message")
	}
	return firstErr
}

func announcementEmbed(g *models.Giveaway, entrantCount int) *discordgo.MessageEmbed {
	desc := &strings.Builder{}
	if g.Description != "" {
		fmt.Fprintf(desc, "%s\n\n", g.Description)
	}
	fmt.Fprintf(desc, "React with %s to enter!\n\n", ReactionEmoji)
	fmt.Fprintf(desc, "**Winners:** %d\n", g.WinnersCount)
	fmt.Fprintf(desc, "**Ends:** <t:%d:R>\n", g.EndAt/1000)
	fmt.Fprintf(desc, "**Hosted by:** <@%s>", g.HostID)

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎉 %s", g.Prize),
		Description: desc.String(),
		Color:       embedColor,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d entries", entrantCount),
		},
		Timestamp: g.EndsAt().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func endedEmbed(g *models.Giveaway) *discordgo.MessageEmbed {
	desc := &strings.Builder{}
	if len(g.Winners) == 0 {
		desc.WriteString("No valid entries, no winner could be drawn.\n")
	} else {
		fmt.Fprintf(desc, "**Winners:** %s\n", mentionList(g.Winners))
	}
	fmt.Fprintf(desc, "**Ended:** <t:%d:R>\n", g.EndedAt/1000)
	fmt.Fprintf(desc, "**Hosted by:** <@%s>", g.HostID)
	if g.RemoteSummaryURL != "" {
		fmt.Fprintf(desc, "\n[Giveaway summary](%s)", g.RemoteSummaryURL)
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎉 %s (ended)", g.Prize),
		Description: desc.String(),
		Color:       0x99AAB5,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d entries", len(g.EntrantsDetail)),
		},
	}
}

func resultMessage(g *models.Giveaway) string {
	if len(g.Winners) == 0 {
		return fmt.Sprintf("No one entered the giveaway for **%s**, so there is no winner.", g.Prize)
	}
	msg := fmt.Sprintf("Congratulations %s! You won **%s**!", mentionList(g.Winners), g.Prize)
	if g.RemoteSummaryURL != "" {
		msg += "\n" + g.RemoteSummaryURL
	}
	return msg
}

func mentionList(winners []models.EntrantDetail) string {
	mentions := make([]string, 0, len(winners))
	for _, w := range winners {
		mentions = append(mentions, "<@"+w.ID+">")
	}
	return strings.Join(mentions, ", ")
}
