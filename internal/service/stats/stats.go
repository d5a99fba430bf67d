package stats

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"exhub-store-bot/internal/common/config"
	"exhub-store-bot/internal/common/logger"
)

// Updater renames the server-stats voice channels to reflect the
// current member, bot and boost counts.
type Updater struct {
	cfg config.Config
}

func NewUpdater(cfg *config.Config) *Updater {
	return &Updater{cfg: *cfg}
}

func (u *Updater) enabled() bool {
	s := u.cfg.Stats
	return s.AllID != "" || s.MembersID != "" || s.BotsID != "" || s.BoostsID != ""
}

// Refresh recomputes the counts for a guild and renames each configured
// stats channel, skipping channels whose name is already current.
func (u *Updater) Refresh(s *discordgo.Session, guildID string) {
	if !u.enabled() {
		return
	}

	guild, err := s.State.Guild(guildID)
	if err != nil {
		guild, err = s.Guild(guildID)
		if err != nil {
			logger.Warn().Err(err).Str("guild_id", guildID).Msg("Failed to fetch guild for stats")
			return
		}
	}

	total := guild.MemberCount
	bots := 0
	for _, m := range guild.Members {
		if m.User != nil && m.User.Bot {
			bots++
		}
	}
	humans := total - bots
	boosts := guild.PremiumSubscriptionCount

	targets := []struct {
		id   string
		name string
	}{
		{u.cfg.Stats.AllID, fmt.Sprintf("🔒 🌍 • All Members: %d", total)},
		{u.cfg.Stats.MembersID, fmt.Sprintf("🔒 📈 • Members: %d", humans)},
		{u.cfg.Stats.BotsID, fmt.Sprintf("🔒 🤖 • Bots: %d", bots)},
		{u.cfg.Stats.BoostsID, fmt.Sprintf("🔒 🚀 • Boosts: %d", boosts)},
	}

	for _, t := range targets {
		if t.id == "" {
			continue
		}

		ch, err := s.State.Channel(t.id)
		if err != nil {
			ch, err = s.Channel(t.id)
			if err != nil {
				logger.Warn().Err(err).Str("channel_id", t.id).Msg("Stats channel not found")
				continue
			}
		}

		edit := &discordgo.ChannelEdit{}
		dirty := false
		if ch.Name != t.name {
			edit.Name = t.name
			dirty = true
		}
		if u.cfg.Stats.CategoryID != "" && ch.ParentID != u.cfg.Stats.CategoryID {
			edit.ParentID = u.cfg.Stats.CategoryID
			dirty = true
		}
		if !dirty {
			continue
		}

		if _, err := s.ChannelEdit(t.id, edit); err != nil {
			logger.Warn().Err(err).Str("channel_id", t.id).Msg("Failed to update stats channel")
		}
	}
}

// RefreshAll refreshes every guild the session is in.
func (u *Updater) RefreshAll(s *discordgo.Session) {
	for _, g := range s.State.Guilds {
		u.Refresh(s, g.ID)
	}
}
