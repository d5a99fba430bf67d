package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	apperrors "exhub-store-bot/internal/common/errors"
	"exhub-store-bot/internal/common/logger"
	"exhub-store-bot/internal/features/giveaway/models"
	"exhub-store-bot/internal/features/giveaway/service"
)

// Commands handles the giveaway slash commands and entry reactions.
type Commands struct {
	engine *service.Engine
}

func NewCommands(engine *service.Engine) *Commands {
	return &Commands{engine: engine}
}

// HandleStart runs /gstart.
func (c *Commands) HandleStart(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)

	in := models.GiveawayCreate{
		GuildID:      i.GuildID,
		ChannelID:    i.ChannelID,
		HostID:       interactionUserID(i),
		Prize:        stringOption(opts, "prize"),
		Description:  stringOption(opts, "description"),
		WinnersCount: int(intOption(opts, "winners", 1)),
		DurationText: stringOption(opts, "duration"),
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to defer gstart response")
		return
	}

	rec, err := c.engine.Create(context.Background(), in)
	if err != nil {
		editReply(s, i, userFacingError(err))
		return
	}

	editReply(s, i, "Giveaway for **"+rec.Prize+"** started, ending <t:"+timestamp(rec.EndAt)+":R>.")
}

// HandleEnd runs /gend.
func (c *Commands) HandleEnd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	messageID := stringOption(opts, "message_id")

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to defer gend response")
		return
	}

	rec, err := c.engine.End(context.Background(), messageID, interactionUserID(i))
	if err != nil {
		editReply(s, i, userFacingError(err))
		return
	}

	editReply(s, i, "Giveaway for **"+rec.Prize+"** ended.")
}

// HandleList runs /glist.
func (c *Commands) HandleList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	active := c.engine.Active()

	content := "No active giveaways."
	if len(active) > 0 {
		content = "Active giveaways:\n"
		for _, g := range active {
			content += "• **" + g.Prize + "** in <#" + g.ChannelID + ">, ends <t:" + timestamp(g.EndAt) + ":R> (id `" + g.ID + "`)\n"
		}
	}

	respondEphemeral(s, i, content)
}

// HandleReactionAdd records an entry when someone reacts with the entry
// emoji on an announcement the engine knows about.
func (c *Commands) HandleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.Emoji.Name != ReactionEmoji || r.UserID == s.State.User.ID {
		return
	}
	c.engine.Join(context.Background(), r.MessageID, r.UserID)
}

// HandleReactionRemove withdraws an entry.
func (c *Commands) HandleReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if r.Emoji.Name != ReactionEmoji || r.UserID == s.State.User.ID {
		return
	}
	c.engine.Leave(context.Background(), r.MessageID, r.UserID)
}

func userFacingError(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok && appErr.IsValidation() {
		return appErr.Message
	}
	if apperrors.IsCode(err, apperrors.ErrCodeGiveawayNotFound) {
		return "No giveaway found with that message id."
	}
	logger.Error().Err(err).Msg("Giveaway command failed")
	return "Something went wrong, please try again."
}
