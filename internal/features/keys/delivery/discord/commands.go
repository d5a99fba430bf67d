package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"exhub-store-bot/internal/common/logger"
	"exhub-store-bot/internal/features/keys"
	"exhub-store-bot/internal/features/ticket"
)

// Modal custom ids for the redeem flows.
const (
	CustomIDRedeemMonthModal = "modal_redeem_key_month"
	CustomIDRedeemMonthField = "field_key_month"
	CustomIDRedeemLifeModal  = "modal_redeem_key_life"
	CustomIDRedeemLifeField  = "field_key_life"
)

// Commands handles the paid-key slash commands and redeem modals.
type Commands struct {
	service *keys.Service
	owners  *ticket.Registry
}

func NewCommands(service *keys.Service, owners *ticket.Registry) *Commands {
	return &Commands{service: service, owners: owners}
}

// keyOwnerID decides which Discord account a generated key binds to:
// the explicit member option, else the ticket creator when run inside a
// ticket channel, else the command invoker.
func (c *Commands) keyOwnerID(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.User) string {
	if target != nil {
		return target.ID
	}

	topic := ""
	if ch, err := s.State.Channel(i.ChannelID); err == nil {
		topic = ch.Topic
	} else if ch, err := s.Channel(i.ChannelID); err == nil {
		topic = ch.Topic
	}
	if ownerID := c.owners.OwnerID(i.ChannelID, topic); ownerID != "" {
		return ownerID
	}

	return interactionUser(i).ID
}

// HandleGenerate runs /generatekeysebulan and /generatekeylifetime.
func (c *Commands) HandleGenerate(s *discordgo.Session, i *discordgo.InteractionCreate, keyType string) {
	var target *discordgo.User
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "member" {
			target = opt.UserValue(s)
		}
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to defer key generate")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	key, err := c.service.Generate(ctx, keyType, c.keyOwnerID(s, i, target))
	if err != nil {
		logger.Error().Err(err).Str("key_type", keyType).Msg("Key generation failed")
		editReply(s, i, "Key generation failed, please try again.")
		return
	}

	label, redeemCmd := "Monthly Key", "/redeemkeysebulan"
	if key.Type == keys.TypeLifetime {
		label, redeemCmd = "Lifetime Key", "/redeemkeylifetime"
	}

	expiresTs := key.ExpiresAfter / 1000
	msg := fmt.Sprintf("🎟️ %s:\n`%s`\nExpires: <t:%d:R> • <t:%d:f>\nRedeem it with `%s`.",
		label, key.Token, expiresTs, expiresTs, redeemCmd)

	if target != nil {
		dm, err := s.UserChannelCreate(target.ID)
		if err == nil {
			_, err = s.ChannelMessageSend(dm.ID, msg)
		}
		if err != nil {
			logger.Warn().Err(err).Str("user_id", target.ID).Msg("Failed to DM key")
			editReply(s, i, "Could not DM the key; here it is instead:\n"+msg)
			return
		}
		editReply(s, i, fmt.Sprintf("The %s was sent to <@%s> by DM.", label, target.ID))
		if _, err := s.ChannelMessageSend(i.ChannelID,
			fmt.Sprintf("✅ <@%s>, check your DMs! Redeem the key here with `%s`.", target.ID, redeemCmd)); err != nil {
			logger.Debug().Err(err).Msg("Failed to post DM notice")
		}
		return
	}

	editReply(s, i, msg)
}

// HandleRedeemPrompt opens the redeem modal for a key type.
func (c *Commands) HandleRedeemPrompt(s *discordgo.Session, i *discordgo.InteractionCreate, keyType string) {
	modalID, fieldID, title := CustomIDRedeemMonthModal, CustomIDRedeemMonthField, "Redeem Monthly Key"
	if keyType == keys.TypeLifetime {
		modalID, fieldID, title = CustomIDRedeemLifeModal, CustomIDRedeemLifeField, "Redeem Lifetime Key"
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: modalID,
			Title:    title,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    fieldID,
						Label:       "Your key",
						Placeholder: "EXHUBPAID-XXXX",
						Style:       discordgo.TextInputShort,
						Required:    true,
					},
				}},
			},
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to open redeem modal")
	}
}

// HandleRedeemSubmit validates and activates a submitted key.
func (c *Commands) HandleRedeemSubmit(s *discordgo.Session, i *discordgo.InteractionCreate, modalID string) {
	keyType, fieldID := keys.TypeMonth, CustomIDRedeemMonthField
	if modalID == CustomIDRedeemLifeModal {
		keyType, fieldID = keys.TypeLifetime, CustomIDRedeemLifeField
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to defer redeem")
		return
	}

	rawKey := strings.TrimSpace(modalValue(i, fieldID))
	if rawKey == "" {
		editReply(s, i, "The key must not be empty.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := c.service.Redeem(ctx, rawKey, keyType, interactionUser(i).ID)
	if err != nil {
		editReply(s, i, redeemErrorMessage(err, keyType))
		return
	}

	editReply(s, i, fmt.Sprintf("✅ Key redeemed!\nKey: `%s`\nThanks for using ExHub.",
		strings.ToUpper(rawKey)))
}

func redeemErrorMessage(err error, wantType string) string {
	switch {
	case errors.Is(err, keys.ErrKeyNotFound):
		return "❌ This key does not exist in our database."
	case errors.Is(err, keys.ErrKeyDeleted):
		return "❌ This key has been blocked or deleted."
	case errors.Is(err, keys.ErrKeyExpired):
		return "❌ This key has expired."
	case errors.Is(err, keys.ErrKeyAlreadyRedeemed):
		return "⚠️ This key has already been redeemed."
	case errors.Is(err, keys.ErrKeyUntyped):
		return "⚠️ This key has no package type on record. Please contact an admin."
	case errors.Is(err, keys.ErrKeyTypeMismatch):
		if wantType == keys.TypeMonth {
			return "❌ This is not a **Monthly Key**. If it is a lifetime key, use `/redeemkeylifetime`."
		}
		return "❌ This is not a **Lifetime Key**. If it is a monthly key, use `/redeemkeysebulan`."
	case errors.Is(err, keys.ErrKeyOwnerMismatch):
		return "❌ This key is bound to a different Discord account.\nUse the account that placed the order."
	default:
		logger.Error().Err(err).Msg("Key redeem failed")
		return "Could not reach the key API, please try again shortly."
	}
}

// HandleMyKey runs /mykey.
func (c *Commands) HandleMyKey(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to defer mykey")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	user := interactionUser(i)
	paidKeys := c.service.UserKeys(ctx, user.ID, user.Username)
	if len(paidKeys) == 0 {
		editReply(s, i, "You have no paid keys on record. Open a ticket in the store to order one!")
		return
	}

	fields := make([]*discordgo.MessageEmbedField, 0, len(paidKeys))
	for idx, k := range paidKeys {
		value := &strings.Builder{}
		fmt.Fprintf(value, "`%s`\n", k.Token)
		fmt.Fprintf(value, "Type: %s • Status: %s\n", keyTypeLabel(k.Type), k.Status)
		if k.ExpiresAfter > 0 {
			fmt.Fprintf(value, "Expires: <t:%d:f>", k.ExpiresAfter/1000)
		} else {
			value.WriteString("Expires: never")
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Key #%d", idx+1),
			Value: value.String(),
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎟️ Your Paid Keys",
		Description: fmt.Sprintf("Found %d paid key(s) for <@%s>.", len(paidKeys), user.ID),
		Fields:      fields,
		Color:       0x5865F2,
	}

	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to send mykey embed")
	}
}

func keyTypeLabel(t string) string {
	switch t {
	case keys.TypeMonth:
		return "Monthly"
	case keys.TypeLifetime:
		return "Lifetime"
	default:
		return t
	}
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

func editReply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to edit interaction reply")
	}
}
