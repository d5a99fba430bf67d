package welcome

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"exhub-store-bot/internal/common/logger"
)

// Greeter posts a welcome embed when a member joins. The target channel
// can be changed at runtime with /setwelcomechannel.
type Greeter struct {
	mu            sync.RWMutex
	channelID     string
	backgroundURL string
}

func NewGreeter(channelID, backgroundURL string) *Greeter {
	return &Greeter{channelID: channelID, backgroundURL: backgroundURL}
}

// SetChannel switches the welcome channel.
func (g *Greeter) SetChannel(channelID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channelID = channelID
}

// ChannelID returns the current welcome channel.
func (g *Greeter) ChannelID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.channelID
}

// Greet posts the welcome message for a new member. Missing
// configuration is a silent no-op.
func (g *Greeter) Greet(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	channelID := g.ChannelID()
	if channelID == "" || m.User == nil {
		return
	}

	guildName := m.GuildID
	if guild, err := s.State.Guild(m.GuildID); err == nil {
		guildName = guild.Name
	}

	embed := &discordgo.MessageEmbed{
		Title: "👋 Welcome!",
		Description: fmt.Sprintf("Hi <@%s>, welcome to **%s**!\n\n"+
			"Please read the rules and pick your roles before you start chatting.",
			m.User.ID, guildName),
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: m.User.AvatarURL("256")},
		Color:     0x5865F2,
	}

	g.mu.RLock()
	if g.backgroundURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: g.backgroundURL}
	}
	g.mu.RUnlock()

	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: "<@" + m.User.ID + ">",
		Embeds:  []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		logger.Warn().Err(err).Str("user_id", m.User.ID).Msg("Failed to send welcome message")
	}
}
