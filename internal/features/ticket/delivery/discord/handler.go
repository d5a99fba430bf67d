package discord

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"exhub-store-bot/internal/common/config"
	"exhub-store-bot/internal/common/logger"
	"exhub-store-bot/internal/features/ticket"
	"exhub-store-bot/internal/platform/rediscache"
	"exhub-store-bot/internal/platform/roblox"
	"exhub-store-bot/internal/utils/format"
)

// Component custom ids. Message components survive restarts, so these
// are part of the bot's persisted surface and must stay stable.
const (
	CustomIDCreateTicket  = "store_create_ticket"
	CustomIDSelectPackage = "ticket_select_package"
	CustomIDCancel        = "ticket_cancel"
	CustomIDClose         = "ticket_close"
	CustomIDRobloxModal   = "modal_roblox_username"
	CustomIDRobloxField   = "field_roblox_username"
	CustomIDRobloxReinput = "roblox_reinput"
	CustomIDRobloxWrong   = "roblox_wrong"

	robloxConfirmPrefix = "roblox_confirm_"
)

// Package select values.
const (
	PackageKeyMonth   = "KEY_MONTH"
	PackageKeyLife    = "KEY_LIFE"
	PackageIndoVIP    = "INDO_VIP"
	deleteDelay       = 3 * time.Second
	paymentEmbedColor = 0xFEE75C
)

var channelNamePattern = regexp.MustCompile(`[^a-z0-9]`)

// Handler runs the store ticket workflow: panel, private channel
// creation, package selection, payment instructions and the Roblox
// verification loop for the Indo Hangout package.
type Handler struct {
	owners   *ticket.Registry
	prices   *ticket.Prices
	roblox   *roblox.Client
	cache    *rediscache.Cache
	cfg      *config.Config
	isOwner  func(userID string) bool
	randomID func() int
}

func NewHandler(owners *ticket.Registry, prices *ticket.Prices, rb *roblox.Client, cache *rediscache.Cache, cfg *config.Config, isOwner func(string) bool) *Handler {
	return &Handler{
		owners:   owners,
		prices:   prices,
		roblox:   rb,
		cache:    cache,
		cfg:      cfg,
		isOwner:  isOwner,
		randomID: func() int { return rand.Intn(9000) + 1000 },
	}
}

// Routes reports whether this handler owns a component custom id.
func Routes(customID string) bool {
	switch customID {
	case CustomIDCreateTicket, CustomIDSelectPackage, CustomIDCancel,
		CustomIDClose, CustomIDRobloxModal, CustomIDRobloxReinput, CustomIDRobloxWrong:
		return true
	}
	return strings.HasPrefix(customID, robloxConfirmPrefix)
}

// SendPanel posts the store panel with the create-ticket button.
func (h *Handler) SendPanel(s *discordgo.Session, channelID string) error {
	embed := &discordgo.MessageEmbed{
		Title: "🎮 EXHUB STORE - Premium Scripts",
		Description: "Welcome to **EXHUB STORE** 👋\n\n" +
			"Looking for premium Roblox scripts? You are in the right place!\n\n" +
			"✨ Quality scripts\n" +
			"💰 Friendly prices\n" +
			"⚡ Fast admin response\n\n" +
			"Click **📩 Create Ticket** below to start your order.\n" +
			"We are happy to help 24/7 🙂",
		Color: 0x2B2D31,
	}

	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					CustomID: CustomIDCreateTicket,
					Label:    "Create Ticket",
					Emoji:    &discordgo.ComponentEmoji{Name: "📩"},
					Style:    discordgo.PrimaryButton,
				},
			}},
		},
	})
	return err
}

// HandleCreate opens a private ticket channel for the clicking user.
func (h *Handler) HandleCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		respondEphemeral(s, i, "This button only works inside a server.")
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to defer ticket create")
		return
	}

	user := interactionUser(i)
	cleanName := channelNamePattern.ReplaceAllString(strings.ToLower(user.Username), "")
	if cleanName == "" {
		cleanName = "user"
	}
	name := fmt.Sprintf("ticket-%s-%d", cleanName, h.randomID())
	if len(name) > 90 {
		name = name[:90]
	}

	overwrites := h.permissionOverwrites(s, i.GuildID, user.ID)

	channel, err := s.GuildChannelCreateComplex(i.GuildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             h.cfg.Ticket.CategoryID,
		Topic:                ticket.Topic(user.Username, user.ID),
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create ticket channel")
		editReply(s, i, "Could not create your ticket channel, please try again.")
		return
	}

	h.owners.Set(channel.ID, user.ID)
	editReply(s, i, "Your ticket is ready: <#"+channel.ID+">")

	if err := h.sendIntro(s, channel.ID, user.ID); err != nil {
		logger.Warn().Err(err).Str("channel_id", channel.ID).Msg("Failed to send ticket intro")
	}

	h.logOrder(s, &discordgo.MessageEmbed{
		Title: "🎫 New Ticket",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: fmt.Sprintf("<@%s> (%s)", user.ID, user.ID)},
			{Name: "Channel", Value: "<#" + channel.ID + ">"},
		},
		Color:     0x5865F2,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) permissionOverwrites(s *discordgo.Session, guildID, creatorID string) []*discordgo.PermissionOverwrite {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   guildID, // @everyone shares the guild id
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    creatorID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionAttachFiles,
		},
		{
			ID:    s.State.User.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionManageChannels,
		},
	}

	for _, id := range h.cfg.Discord.OwnerIDs {
		id = strings.TrimSpace(id)
		if id == "" || id == creatorID {
			continue
		}
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    id,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionManageChannels,
		})
	}
	return overwrites
}

func (h *Handler) sendIntro(s *discordgo.Session, channelID, userID string) error {
	desc := strings.Join([]string{
		fmt.Sprintf("Hi <@%s>, thanks for opening a VIP order ticket.", userID),
		"",
		"**Available Packages**",
		fmt.Sprintf("⚡ Monthly Key – Rp %s (5 scripts • 30 days)", format.Rupiah(h.prices.KeyMonth())),
		fmt.Sprintf("🔥 Lifetime Key – Rp %s (5 scripts • 1 year)", format.Rupiah(h.prices.KeyLifetime())),
		fmt.Sprintf("🇮🇩 Indo Hangout Premium – Rp %s (1 username • permanent)", format.Rupiah(h.prices.IndoHangout())),
		"",
		"**Next Steps**",
		"1. Pick a package from the dropdown below.",
		"2. Follow the instructions that appear.",
		"3. Upload your payment screenshot in this channel.",
		"4. Wait for an admin to confirm ✅",
	}, "\n")

	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: "<@" + userID + ">",
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "✨ VIP Order Ticket",
			Description: desc,
			Color:       paymentEmbedColor,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    CustomIDSelectPackage,
					Placeholder: "📦 Pick the package you want...",
					Options: []discordgo.SelectMenuOption{
						{
							Label:       "Monthly Key",
							Description: fmt.Sprintf("Rp %s • 5 premium scripts (30 days)", format.Rupiah(h.prices.KeyMonth())),
							Value:       PackageKeyMonth,
							Emoji:       &discordgo.ComponentEmoji{Name: "⚡"},
						},
						{
							Label:       "Lifetime Key",
							Description: fmt.Sprintf("Rp %s • 5 premium scripts (1 year)", format.Rupiah(h.prices.KeyLifetime())),
							Value:       PackageKeyLife,
							Emoji:       &discordgo.ComponentEmoji{Name: "🔥"},
						},
						{
							Label:       "Indo Hangout Premium",
							Description: fmt.Sprintf("Rp %s • 1 username (permanent)", format.Rupiah(h.prices.IndoHangout())),
							Value:       PackageIndoVIP,
							Emoji:       &discordgo.ComponentEmoji{Name: "🇮🇩"},
						},
					},
				},
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					CustomID: CustomIDCancel,
					Label:    "Cancel Order",
					Emoji:    &discordgo.ComponentEmoji{Name: "❌"},
					Style:    discordgo.SecondaryButton,
				},
				discordgo.Button{
					CustomID: CustomIDClose,
					Label:    "Close Ticket",
					Emoji:    &discordgo.ComponentEmoji{Name: "🔒"},
					Style:    discordgo.DangerButton,
				},
			}},
		},
	})
	return err
}

func (h *Handler) channelOwnerID(s *discordgo.Session, i *discordgo.InteractionCreate) string {
	topic := ""
	if ch, err := s.State.Channel(i.ChannelID); err == nil {
		topic = ch.Topic
	} else if ch, err := s.Channel(i.ChannelID); err == nil {
		topic = ch.Topic
	}
	return h.owners.OwnerID(i.ChannelID, topic)
}

func (h *Handler) requireTicketOwner(s *discordgo.Session, i *discordgo.InteractionCreate, denyMsg string) bool {
	userID := interactionUser(i).ID
	ownerID := h.channelOwnerID(s, i)
	if userID == ownerID || h.isOwner(userID) {
		return true
	}
	respondEphemeral(s, i, denyMsg)
	return false
}

// HandleCancel deletes the ticket at the creator's request.
func (h *Handler) HandleCancel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireTicketOwner(s, i, "Only the ticket creator can cancel this order.") {
		return
	}

	respondEphemeral(s, i, "This ticket will be deleted in 3 seconds...")
	h.deleteLater(s, i.ChannelID)
}

// HandleClose deletes the ticket; staff only.
func (h *Handler) HandleClose(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUser(i).ID
	canManage := i.Member != nil && i.Member.Permissions&discordgo.PermissionManageChannels != 0
	if !canManage && !h.isOwner(userID) {
		respondEphemeral(s, i, "Only staff can close this ticket.")
		return
	}

	respondEphemeral(s, i, "This ticket will be closed in 3 seconds...")
	h.deleteLater(s, i.ChannelID)
}

func (h *Handler) deleteLater(s *discordgo.Session, channelID string) {
	time.AfterFunc(deleteDelay, func() {
		if _, err := s.ChannelDelete(channelID); err != nil {
			logger.Warn().Err(err).Str("channel_id", channelID).Msg("Failed to delete ticket channel")
			return
		}
		h.owners.Remove(channelID)
	})
}

// HandleSelectPackage answers a package choice with payment
// instructions, or opens the Roblox username modal for Indo Hangout.
func (h *Handler) HandleSelectPackage(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireTicketOwner(s, i, "Only the ticket creator can pick a package in this ticket.") {
		return
	}

	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return
	}

	switch values[0] {
	case PackageKeyMonth:
		h.sendPaymentInstructions(s, i, "Monthly Key", h.prices.KeyMonth(), nil)
	case PackageKeyLife:
		h.sendPaymentInstructions(s, i, "Lifetime Key", h.prices.KeyLifetime(), nil)
	case PackageIndoVIP:
		h.showRobloxModal(s, i)
	}
}

func (h *Handler) sendPaymentInstructions(s *discordgo.Session, i *discordgo.InteractionCreate, pkg string, price int64, extraDetails []string) {
	details := append([]string{
		"Package: " + pkg,
	}, extraDetails...)
	details = append(details, "Amount : Rp "+format.Rupiah(price))

	embed := &discordgo.MessageEmbed{
		Title:       "✨ Payment Instructions — " + pkg,
		Description: "Scan the QRIS below to pay",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Order Details", Value: strings.Join(details, "\n")},
			{Name: "Payment Steps", Value: "1. Scan the QRIS below with your payment app.\n" +
				"2. Pay the exact amount.\n" +
				"3. Upload a screenshot of the payment here.\n" +
				"4. Wait for admin confirmation (up to 10 minutes)."},
			{Name: "Operating Hours", Value: "08:00 - 23:00 WIB"},
		},
		Color: paymentEmbedColor,
	}
	if h.cfg.Ticket.QRISImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: h.cfg.Ticket.QRISImageURL}
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("✅ Please send your payment proof here <@%s>", interactionUser(i).ID),
			Embeds:  []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to send payment instructions")
	}
}

func (h *Handler) showRobloxModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: CustomIDRobloxModal,
			Title:    "Enter your Roblox username",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    CustomIDRobloxField,
						Label:       "Roblox username",
						Placeholder: "Example: BloxGuy123",
						Style:       discordgo.TextInputShort,
						Required:    true,
					},
				}},
			},
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to open roblox modal")
	}
}

// HandleRobloxReinput reopens the username modal.
func (h *Handler) HandleRobloxReinput(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.requireTicketOwner(s, i, "Only the ticket creator can re-enter the Roblox username.") {
		return
	}
	h.showRobloxModal(s, i)
}

// HandleRobloxModal verifies the submitted username against the Roblox
// API and posts either a confirm panel or a retry panel.
func (h *Handler) HandleRobloxModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to defer roblox modal")
		return
	}

	userID := interactionUser(i).ID
	ownerID := h.channelOwnerID(s, i)
	if userID != ownerID && !h.isOwner(userID) {
		editReply(s, i, "Only the ticket creator can enter the Roblox username.")
		return
	}

	username := strings.TrimSpace(modalValue(i, CustomIDRobloxField))
	if username == "" {
		editReply(s, i, "The username must not be empty.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	user, err := h.lookupRoblox(ctx, username)
	if err != nil {
		logger.Error().Err(err).Str("username", username).Msg("Roblox lookup failed")
		editReply(s, i, "Could not reach the Roblox API, please try again shortly.")
		return
	}

	if user == nil {
		editReply(s, i, "❌ Username not found. See the panel below to retry.")
		h.sendUsernameNotFound(s, i.ChannelID, username)
		return
	}

	editReply(s, i, "✅ Username verified! Confirm it in the panel below.")
	h.sendUsernameConfirm(s, i.ChannelID, username, user)
}

func (h *Handler) lookupRoblox(ctx context.Context, username string) (*roblox.User, error) {
	if cached, ok, err := h.cache.GetRobloxUser(ctx, username); err == nil && ok {
		return &cached, nil
	}

	user, err := h.roblox.LookupUser(ctx, username)
	if err != nil || user == nil {
		return user, err
	}

	if err := h.cache.SetRobloxUser(ctx, username, *user); err != nil {
		logger.Debug().Err(err).Str("username", username).Msg("Roblox cache write failed")
	}
	return user, nil
}

func (h *Handler) sendUsernameNotFound(s *discordgo.Session, channelID, username string) {
	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "✨ Username Not Found",
			Description: fmt.Sprintf("The username `%s` does not exist on Roblox.", username),
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Possible Causes", Value: "• Typo in the username\n" +
					"• You entered a Display Name instead of a Username\n" +
					"• The account does not exist\n" +
					"• Extra spaces or special characters"},
				{Name: "How to Check", Value: "1. Open your Roblox profile.\n" +
					"2. The username is the `@username`, not the Display Name.\n" +
					"3. Example: Display `John` → Username `@john123`."},
			},
			Color: 0xED4245,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					CustomID: CustomIDRobloxReinput,
					Label:    "Enter Username Again",
					Emoji:    &discordgo.ComponentEmoji{Name: "🔁"},
					Style:    discordgo.PrimaryButton,
				},
			}},
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to send username retry panel")
	}
}

func (h *Handler) sendUsernameConfirm(s *discordgo.Session, channelID, username string, user *roblox.User) {
	displayName := user.DisplayName
	if displayName == "" {
		displayName = "-"
	}

	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "✨ Username Found",
			Description: fmt.Sprintf("%s (@%s)", user.Name, username),
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Username", Value: user.Name, Inline: true},
				{Name: "Display Name", Value: displayName, Inline: true},
				{Name: "User ID", Value: fmt.Sprintf("%d", user.ID), Inline: true},
			},
			Thumbnail: &discordgo.MessageEmbedThumbnail{URL: roblox.AvatarURL(user.ID)},
			Color:     0x57F287,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					CustomID: fmt.Sprintf("%s%d", robloxConfirmPrefix, user.ID),
					Label:    "Yes, that's me!",
					Emoji:    &discordgo.ComponentEmoji{Name: "✅"},
					Style:    discordgo.SuccessButton,
				},
				discordgo.Button{
					CustomID: CustomIDRobloxWrong,
					Label:    "Wrong, re-enter",
					Emoji:    &discordgo.ComponentEmoji{Name: "❌"},
					Style:    discordgo.DangerButton,
				},
			}},
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to send username confirm panel")
	}
}

// HandleRobloxConfirm disables the confirm buttons, posts the Indo
// Hangout payment instructions and logs the order.
func (h *Handler) HandleRobloxConfirm(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUser(i).ID
	ownerID := h.channelOwnerID(s, i)
	if userID != ownerID && !h.isOwner(userID) {
		respondEphemeral(s, i, "Only the ticket creator can confirm this username.")
		return
	}

	username, robloxID := "-", "-"
	if len(i.Message.Embeds) > 0 {
		for _, f := range i.Message.Embeds[0].Fields {
			switch f.Name {
			case "Username":
				username = f.Value
			case "User ID":
				robloxID = f.Value
			}
		}
	}

	components := disableButtons(i.Message.Components)
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     i.Message.Embeds,
			Components: components,
		},
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to disable confirm buttons")
	}

	price := h.prices.IndoHangout()
	embed := &discordgo.MessageEmbed{
		Title:       "✨ Payment Instructions",
		Description: "Scan the QRIS below to pay",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Order Details", Value: strings.Join([]string{
				"Package : Indo Hangout Premium",
				"Username: " + username,
				"User ID : " + robloxID,
				"Amount  : Rp " + format.Rupiah(price),
			}, "\n")},
			{Name: "Payment Steps", Value: "1. Scan the QRIS below with your payment app.\n" +
				"2. Pay the exact amount.\n" +
				"3. Upload a screenshot of the payment here.\n" +
				"4. Wait for admin confirmation (up to 10 minutes)."},
			{Name: "Operating Hours", Value: "08:00 - 23:00 WIB"},
		},
		Color: paymentEmbedColor,
	}
	if h.cfg.Ticket.QRISImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: h.cfg.Ticket.QRISImageURL}
	}

	if _, err := s.ChannelMessageSendEmbed(i.ChannelID, embed); err != nil {
		logger.Warn().Err(err).Msg("Failed to send Indo Hangout instructions")
	}

	h.logOrder(s, &discordgo.MessageEmbed{
		Title: "🧾 Indo Hangout Premium Order",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Discord User", Value: fmt.Sprintf("<@%s> (%s)", userID, userID)},
			{Name: "Roblox Username", Value: username},
			{Name: "Roblox User ID", Value: robloxID},
			{Name: "Amount", Value: "Rp " + format.Rupiah(price)},
			{Name: "Ticket Channel", Value: "<#" + i.ChannelID + ">"},
		},
		Color:     0x57F287,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// HandleComponent routes a component interaction by custom id.
func (h *Handler) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	switch {
	case customID == CustomIDCreateTicket:
		h.HandleCreate(s, i)
	case customID == CustomIDSelectPackage:
		h.HandleSelectPackage(s, i)
	case customID == CustomIDCancel:
		h.HandleCancel(s, i)
	case customID == CustomIDClose:
		h.HandleClose(s, i)
	case customID == CustomIDRobloxReinput, customID == CustomIDRobloxWrong:
		h.HandleRobloxReinput(s, i)
	case strings.HasPrefix(customID, robloxConfirmPrefix):
		h.HandleRobloxConfirm(s, i)
	}
}

func (h *Handler) logOrder(s *discordgo.Session, embed *discordgo.MessageEmbed) {
	if h.cfg.Ticket.OrderLogChannelID == "" {
		return
	}
	if _, err := s.ChannelMessageSendEmbed(h.cfg.Ticket.OrderLogChannelID, embed); err != nil {
		logger.Warn().Err(err).Msg("Failed to send order log")
	}
}

func disableButtons(rows []discordgo.MessageComponent) []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(rows))
	for _, row := range rows {
		actions, ok := row.(*discordgo.ActionsRow)
		if !ok {
			out = append(out, row)
			continue
		}
		newRow := discordgo.ActionsRow{}
		for _, comp := range actions.Components {
			if btn, ok := comp.(*discordgo.Button); ok {
				b := *btn
				b.Disabled = true
				newRow.Components = append(newRow.Components, b)
			} else {
				newRow.Components = append(newRow.Components, comp)
			}
		}
		out = append(out, newRow)
	}
	return out
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func modalValue(i *discordgo.InteractionCreate, fieldID string) string {
	data := i.ModalSubmitData()
	for _, row := range data.Components {
		actions, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range actions.Components {
			if input, ok := comp.(*discordgo.TextInput); ok && input.CustomID == fieldID {
				return input.Value
			}
		}
	}
	return ""
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to respond to interaction")
	}
}

func editReply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to edit interaction reply")
	}
}
