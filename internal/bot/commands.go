package bot

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"exhub-store-bot/internal/common/logger"
)

// Slash command names.
const (
	CommandGStart             = "gstart"
	CommandGEnd               = "gend"
	CommandGList              = "glist"
	CommandSendTicketPanel    = "sendticketpanel"
	CommandGenerateKeyMonth   = "generatekeysebulan"
	CommandGenerateKeyLife    = "generatekeylifetime"
	CommandRedeemKeyMonth     = "redeemkeysebulan"
	CommandRedeemKeyLife      = "redeemkeylifetime"
	CommandMyKey              = "mykey"
	CommandCheckMyKey         = "checkmykey"
	CommandSetPriceMonth      = "setharga_sebulan"
	CommandSetPriceLifetime   = "setharga_lifetime"
	CommandSetPriceIndo       = "setharga_indohangout"
	CommandSendReactionRole   = "sendreactionrole"
	CommandSetWelcomeChannel  = "setwelcomechannel"
	CommandRefreshServerStats = "refreshserverstats"
	CommandRuntime            = "runtime"
)

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandGStart: {
		Name:        CommandGStart,
		Description: "Start a giveaway in this channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "prize",
				Description: "What the winners receive",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "duration",
				Description: "How long it runs, e.g. \"30 minutes\", \"2 days\", \"1 bulan\"",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "winners",
				Description: "Number of winners (default 1)",
				MinValue:    func() *float64 { v := 1.0; return &v }(),
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "description",
				Description: "Extra text shown on the announcement",
			},
		},
	},
	CommandGEnd: {
		Name:        CommandGEnd,
		Description: "End a giveaway early",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "message_id",
				Description: "Message id of the giveaway announcement",
				Required:    true,
			},
		},
	},
	CommandGList: {
		Name:        CommandGList,
		Description: "List active giveaways",
	},
	CommandSendTicketPanel: {
		Name:        CommandSendTicketPanel,
		Description: "Post the store panel in this channel (owner only)",
	},
	CommandGenerateKeyMonth: {
		Name:        CommandGenerateKeyMonth,
		Description: "Generate a monthly key (owner only)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "member",
				Description: "Member to DM the key to",
			},
		},
	},
	CommandGenerateKeyLife: {
		Name:        CommandGenerateKeyLife,
		Description: "Generate a lifetime key (owner only)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "member",
				Description: "Member to DM the key to",
			},
		},
	},
	CommandRedeemKeyMonth: {
		Name:        CommandRedeemKeyMonth,
		Description: "Redeem a monthly key",
	},
	CommandRedeemKeyLife: {
		Name:        CommandRedeemKeyLife,
		Description: "Redeem a lifetime key",
	},
	CommandMyKey: {
		Name:        CommandMyKey,
		Description: "Show the paid keys bound to your account",
	},
	CommandCheckMyKey: {
		Name:        CommandCheckMyKey,
		Description: "Show the paid keys bound to your account",
	},
	CommandSetPriceMonth: {
		Name:        CommandSetPriceMonth,
		Description: "Set the monthly key price (owner only)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "harga",
				Description: "Price in rupiah",
				Required:    true,
			},
		},
	},
	CommandSetPriceLifetime: {
		Name:        CommandSetPriceLifetime,
		Description: "Set the lifetime key price (owner only)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "harga",
				Description: "Price in rupiah",
				Required:    true,
			},
		},
	},
	CommandSetPriceIndo: {
		Name:        CommandSetPriceIndo,
		Description: "Set the Indo Hangout price (owner only)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "harga",
				Description: "Price in rupiah",
				Required:    true,
			},
		},
	},
	CommandSendReactionRole: {
		Name:        CommandSendReactionRole,
		Description: "Post a reaction-role message (owner only)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "title",
				Description: "Embed title",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "config",
				Description: "One pair per line: emoji ; role",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "channels",
				Description: "Target channels (mentions or ids); defaults to this channel",
			},
		},
	},
	CommandSetWelcomeChannel: {
		Name:        CommandSetWelcomeChannel,
		Description: "Set the welcome channel (owner only)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionChannel,
				Name:        "channel",
				Description: "Channel for welcome messages",
				Required:    true,
			},
		},
	},
	CommandRefreshServerStats: {
		Name:        CommandRefreshServerStats,
		Description: "Refresh the server stats channels (owner only)",
	},
	CommandRuntime: {
		Name:        CommandRuntime,
		Description: "Show bot uptime and host stats",
	},
}

var defaultCommandOrder = []string{
	CommandGStart,
	CommandGEnd,
	CommandGList,
	CommandSendTicketPanel,
	CommandGenerateKeyMonth,
	CommandGenerateKeyLife,
	CommandRedeemKeyMonth,
	CommandRedeemKeyLife,
	CommandMyKey,
	CommandCheckMyKey,
	CommandSetPriceMonth,
	CommandSetPriceLifetime,
	CommandSetPriceIndo,
	CommandSendReactionRole,
	CommandSetWelcomeChannel,
	CommandRefreshServerStats,
	CommandRuntime,
}

// RegisterSlashCommands registers the requested slash commands for a
// guild. With no names, all known commands are registered.
func RegisterSlashCommands(s *discordgo.Session, guildID string, names ...string) error {
	if len(names) == 0 {
		names = defaultCommandOrder
	}

	var failures []string
	for _, name := range names {
		definition, ok := commandDefinitions[name]
		if !ok {
			logger.Warn().Str("command", name).Msg("Unknown slash command")
			continue
		}

		// Empty guild id registers globally.
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, definition); err != nil {
			failures = append(failures, name+": "+err.Error())
			logger.Error().Err(err).Str("command", name).Msg("Failed to register slash command")
		}
	}

	if len(failures) > 0 {
		return &registrationError{failures: failures}
	}
	return nil
}

type registrationError struct {
	failures []string
}

func (e *registrationError) Error() string {
	return "slash command registration errors: " + strings.Join(e.failures, "; ")
}
