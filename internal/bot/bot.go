package bot

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"exhub-store-bot/internal/common/config"
	"exhub-store-bot/internal/common/logger"
	giveawaydiscord "exhub-store-bot/internal/features/giveaway/delivery/discord"
	keysdiscord "exhub-store-bot/internal/features/keys/delivery/discord"
	"exhub-store-bot/internal/features/ticket"
	ticketdiscord "exhub-store-bot/internal/features/ticket/delivery/discord"
	"exhub-store-bot/internal/service/reactionrole"
	"exhub-store-bot/internal/service/stats"
	"exhub-store-bot/internal/service/welcome"
)

// Bot owns the Discord session and routes gateway events to the
// feature handlers.
type Bot struct {
	session *discordgo.Session
	cfg     *config.Config

	giveaways *giveawaydiscord.Commands
	tickets   *ticketdiscord.Handler
	keys      *keysdiscord.Commands
	prices    *ticket.Prices
	reactions *reactionrole.Manager
	greeter   *welcome.Greeter
	stats     *stats.Updater

	owners    map[string]struct{}
	startedAt time.Time
}

// Deps collects the wired feature handlers the bot routes to.
type Deps struct {
	Giveaways *giveawaydiscord.Commands
	Tickets   *ticketdiscord.Handler
	Keys      *keysdiscord.Commands
	Prices    *ticket.Prices
	Reactions *reactionrole.Manager
	Greeter   *welcome.Greeter
	Stats     *stats.Updater
}

func New(session *discordgo.Session, cfg *config.Config, deps Deps) *Bot {
	owners := make(map[string]struct{}, len(cfg.Discord.OwnerIDs))
	for _, id := range cfg.Discord.OwnerIDs {
		owners[strings.TrimSpace(id)] = struct{}{}
	}

	b := &Bot{
		session:   session,
		cfg:       cfg,
		giveaways: deps.Giveaways,
		tickets:   deps.Tickets,
		keys:      deps.Keys,
		prices:    deps.Prices,
		reactions: deps.Reactions,
		greeter:   deps.Greeter,
		stats:     deps.Stats,
		owners:    owners,
		startedAt: time.Now(),
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	session.AddHandler(b.onReactionAdd)
	session.AddHandler(b.onReactionRemove)
	session.AddHandler(b.onMemberAdd)
	session.AddHandler(b.onMemberRemove)

	return b
}

// IsOwner reports whether the user id is in the configured owner list.
func (b *Bot) IsOwner(userID string) bool {
	_, ok := b.owners[userID]
	return ok
}

func (b *Bot) Open() error {
	return b.session.Open()
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, _ *discordgo.Ready) {
	logger.Info().
		Str("user", s.State.User.Username).
		Int("guilds", len(s.State.Guilds)).
		Msg("Gateway session ready")
	if b.stats != nil {
		go b.stats.RefreshAll(s)
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.routeCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.routeComponent(s, i)
	case discordgo.InteractionModalSubmit:
		b.routeModal(s, i)
	}
}

func (b *Bot) routeCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	switch name {
	case CommandGStart:
		b.giveaways.HandleStart(s, i)
	case CommandGEnd:
		b.giveaways.HandleEnd(s, i)
	case CommandGList:
		b.giveaways.HandleList(s, i)

	case CommandSendTicketPanel:
		if !b.requireOwner(s, i) {
			return
		}
		if err := b.tickets.SendPanel(s, i.ChannelID); err != nil {
			logger.Error().Err(err).Msg("Failed to send store panel")
			respondEphemeral(s, i, "Gagal mengirim panel store.")
			return
		}
		respondEphemeral(s, i, "Panel store terkirim.")

	case CommandGenerateKeyMonth:
		if !b.requireOwner(s, i) {
			return
		}
		b.keys.HandleGenerate(s, i, "month")
	case CommandGenerateKeyLife:
		if !b.requireOwner(s, i) {
			return
		}
		b.keys.HandleGenerate(s, i, "lifetime")
	case CommandRedeemKeyMonth:
		b.keys.HandleRedeemPrompt(s, i, "month")
	case CommandRedeemKeyLife:
		b.keys.HandleRedeemPrompt(s, i, "lifetime")
	case CommandMyKey, CommandCheckMyKey:
		b.keys.HandleMyKey(s, i)

	case CommandSetPriceMonth:
		b.handleSetPrice(s, i, b.prices.SetKeyMonth, "sebulan")
	case CommandSetPriceLifetime:
		b.handleSetPrice(s, i, b.prices.SetKeyLifetime, "lifetime")
	case CommandSetPriceIndo:
		b.handleSetPrice(s, i, b.prices.SetIndoHangout, "Indo Hangout")

	case CommandSendReactionRole:
		b.handleSendReactionRole(s, i)
	case CommandSetWelcomeChannel:
		b.handleSetWelcomeChannel(s, i)
	case CommandRefreshServerStats:
		if !b.requireOwner(s, i) {
			return
		}
		go b.stats.Refresh(s, i.GuildID)
		respondEphemeral(s, i, "Server stats diperbarui.")
	case CommandRuntime:
		b.handleRuntime(s, i)

	default:
		logger.Warn().Str("command", name).Msg("Unrouted slash command")
	}
}

func (b *Bot) routeComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	if ticketdiscord.Routes(customID) {
		b.tickets.HandleComponent(s, i, customID)
		return
	}
	logger.Debug().Str("custom_id", customID).Msg("Unrouted component interaction")
}

func (b *Bot) routeModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	modalID := i.ModalSubmitData().CustomID
	switch modalID {
	case ticketdiscord.CustomIDRobloxModal:
		b.tickets.HandleRobloxModal(s, i)
	case keysdiscord.CustomIDRedeemMonthModal, keysdiscord.CustomIDRedeemLifeModal:
		b.keys.HandleRedeemSubmit(s, i, modalID)
	default:
		logger.Debug().Str("custom_id", modalID).Msg("Unrouted modal submit")
	}
}

func (b *Bot) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	b.giveaways.HandleReactionAdd(s, r)
	b.reactions.HandleReactionAdd(s, r)
}

func (b *Bot) onReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	b.giveaways.HandleReactionRemove(s, r)
	b.reactions.HandleReactionRemove(s, r)
}

func (b *Bot) onMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	b.greeter.Greet(s, m)
	if b.stats != nil {
		go b.stats.Refresh(s, m.GuildID)
	}
}

func (b *Bot) onMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if b.stats != nil {
		go b.stats.Refresh(s, m.GuildID)
	}
}

func (b *Bot) requireOwner(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	userID := interactionUserID(i)
	if b.IsOwner(userID) {
		return true
	}
	respondEphemeral(s, i, "Command ini hanya untuk owner bot.")
	return false
}

func (b *Bot) handleSetPrice(s *discordgo.Session, i *discordgo.InteractionCreate, set func(int64), label string) {
	if !b.requireOwner(s, i) {
		return
	}

	var amount int64
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "harga" {
			amount = opt.IntValue()
		}
	}
	if amount <= 0 {
		respondEphemeral(s, i, "Harga harus lebih dari 0.")
		return
	}

	set(amount)
	logger.Info().Str("package", label).Int64("price", amount).Msg("Price updated")
	respondEphemeral(s, i, fmt.Sprintf("Harga %s diubah menjadi Rp %d.", label, amount))
}

func (b *Bot) handleSendReactionRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireOwner(s, i) {
		return
	}

	var title, rawConfig, rawChannels string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "title":
			title = opt.StringValue()
		case "config":
			rawConfig = opt.StringValue()
		case "channels":
			rawChannels = opt.StringValue()
		}
	}

	roles, err := s.GuildRoles(i.GuildID)
	if err != nil {
		logger.Error().Err(err).Str("guild_id", i.GuildID).Msg("Failed to fetch guild roles")
		respondEphemeral(s, i, "Gagal membaca daftar role server.")
		return
	}

	pairs, bad := reactionrole.ParseConfig(rawConfig, reactionrole.GuildRoleResolver(roles))
	if len(pairs) == 0 {
		respondEphemeral(s, i, "Tidak ada pasangan emoji/role yang valid di config.")
		return
	}

	channels := reactionrole.ParseTargetChannels(rawChannels)
	if len(channels) == 0 {
		channels = []string{i.ChannelID}
	}

	posted := b.reactions.Publish(s, title, pairs, channels)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Reaction role terkirim ke %d channel (%d pasangan).", len(posted), len(pairs))
	if len(bad) > 0 {
		fmt.Fprintf(&sb, " Baris dilewati: %s", strings.Join(bad, "; "))
	}
	respondEphemeral(s, i, sb.String())
}

func (b *Bot) handleSetWelcomeChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.requireOwner(s, i) {
		return
	}

	var channelID string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "channel" {
			channelID = opt.ChannelValue(nil).ID
		}
	}
	if channelID == "" {
		respondEphemeral(s, i, "Channel tidak valid.")
		return
	}

	b.greeter.SetChannel(channelID)
	logger.Info().Str("channel_id", channelID).Msg("Welcome channel updated")
	respondEphemeral(s, i, fmt.Sprintf("Welcome channel diubah ke <#%s>.", channelID))
}

func (b *Bot) handleRuntime(s *discordgo.Session, i *discordgo.InteractionCreate) {
	uptime := time.Since(b.startedAt)
	hours := int(uptime.Hours())
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	embed := &discordgo.MessageEmbed{
		Title: "🤖 Bot Runtime",
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Uptime",
				Value:  fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds),
				Inline: true,
			},
			{
				Name:   "Servers",
				Value:  fmt.Sprintf("%d", len(s.State.Guilds)),
				Inline: true,
			},
			{
				Name:   "Go",
				Value:  runtime.Version(),
				Inline: true,
			},
			{
				Name:   "Goroutines",
				Value:  fmt.Sprintf("%d", runtime.NumGoroutine()),
				Inline: true,
			},
			{
				Name:   "Heap",
				Value:  fmt.Sprintf("%.1f MiB", float64(mem.HeapAlloc)/1024/1024),
				Inline: true,
			},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to respond to runtime command")
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to respond to interaction")
	}
}
