package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	apperrors "exhub-store-bot/internal/common/errors"
	"exhub-store-bot/internal/common/logger"
	"exhub-store-bot/internal/features/giveaway/models"
	"exhub-store-bot/internal/platform/rediscache"
)

// MemberResolver turns user ids into display identities, checking the
// session state first, then the optional Redis cache, then the API.
type MemberResolver struct {
	session *discordgo.Session
	cache   *rediscache.Cache
}

func NewMemberResolver(session *discordgo.Session, cache *rediscache.Cache) *MemberResolver {
	return &MemberResolver{session: session, cache: cache}
}

func (r *MemberResolver) ResolveMember(ctx context.Context, guildID, userID string) (models.EntrantDetail, error) {
	if member, err := r.session.State.Member(guildID, userID); err == nil {
		return detailFromMember(member), nil
	}

	if detail, ok, err := r.cache.GetMember(ctx, guildID, userID); err != nil {
		logger.Debug().Err(err).Str("user_id", userID).Msg("Member cache read failed")
	} else if ok {
		return detail, nil
	}

	member, err := r.session.GuildMember(guildID, userID)
	if err != nil {
		return models.EntrantDetail{}, apperrors.Wrap(err, apperrors.ErrCodeDiscordAPI, "failed to fetch guild member")
	}

	detail := detailFromMember(member)
	if err := r.cache.SetMember(ctx, guildID, detail); err != nil {
		logger.Debug().Err(err).Str("user_id", userID).Msg("Member cache write failed")
	}
	return detail, nil
}

func detailFromMember(m *discordgo.Member) models.EntrantDetail {
	detail := models.EntrantDetail{
		ID:          m.User.ID,
		Username:    m.User.Username,
		DisplayName: m.Nick,
	}
	if detail.DisplayName == "" {
		detail.DisplayName = m.User.GlobalName
	}
	return detail
}
