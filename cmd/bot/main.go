package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	"exhub-store-bot/internal/bot"
	"exhub-store-bot/internal/common/config"
	"exhub-store-bot/internal/common/logger"
	giveawaydiscord "exhub-store-bot/internal/features/giveaway/delivery/discord"
	"exhub-store-bot/internal/features/giveaway/service"
	"exhub-store-bot/internal/features/giveaway/store"
	"exhub-store-bot/internal/features/keys"
	keysdiscord "exhub-store-bot/internal/features/keys/delivery/discord"
	"exhub-store-bot/internal/features/ticket"
	ticketdiscord "exhub-store-bot/internal/features/ticket/delivery/discord"
	"exhub-store-bot/internal/ops"
	"exhub-store-bot/internal/platform/backend"
	"exhub-store-bot/internal/platform/exhub"
	"exhub-store-bot/internal/platform/rediscache"
	"exhub-store-bot/internal/platform/roblox"
	"exhub-store-bot/internal/service/reactionrole"
	"exhub-store-bot/internal/service/stats"
	"exhub-store-bot/internal/service/welcome"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init("exhub-store-bot", cfg.Debug)
	logger.Info().Msg("Starting exhub-store-bot")

	cache, err := rediscache.New(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if cache != nil {
		defer cache.Close()
		logger.Info().Str("host", cfg.Redis.Host).Msg("Redis cache connected")
	} else {
		logger.Info().Msg("Redis cache disabled")
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Discord session")
	}

	// Giveaway engine: durable file store plus the optional remote
	// summary backend.
	giveawayStore := store.NewFileStore(cfg.Giveaway.StorePath)
	remote := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token)
	publisher := giveawaydiscord.NewPublisher(session)
	resolver := giveawaydiscord.NewMemberResolver(session, cache)
	engine := service.NewEngine(giveawayStore, remote, publisher, resolver)

	// Store tickets and paid keys.
	owners := ticket.NewRegistry()
	prices := ticket.NewPrices(cfg.Prices.KeyMonth, cfg.Prices.KeyLifetime, cfg.Prices.IndoHangout)
	keySvc := keys.NewService(exhub.NewClient(cfg.ExHub.ValidateBase, cfg.ExHub.CreateURL, cfg.ExHub.UserInfoURL))

	statsUpdater := stats.NewUpdater(cfg)
	greeter := welcome.NewGreeter(cfg.Welcome.ChannelID, cfg.Welcome.BackgroundURL)
	reactions := reactionrole.NewManager()

	ownerSet := make(map[string]struct{}, len(cfg.Discord.OwnerIDs))
	for _, id := range cfg.Discord.OwnerIDs {
		ownerSet[strings.TrimSpace(id)] = struct{}{}
	}
	isOwner := func(userID string) bool {
		_, ok := ownerSet[userID]
		return ok
	}

	ticketHandler := ticketdiscord.NewHandler(owners, prices, roblox.NewClient(), cache, cfg, isOwner)

	b := bot.New(session, cfg, bot.Deps{
		Giveaways: giveawaydiscord.NewCommands(engine),
		Tickets:   ticketHandler,
		Keys:      keysdiscord.NewCommands(keySvc, owners),
		Prices:    prices,
		Reactions: reactions,
		Greeter:   greeter,
		Stats:     statsUpdater,
	})

	if err := b.Open(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to open Discord gateway connection")
	}

	if err := bot.RegisterSlashCommands(session, cfg.Discord.GuildID); err != nil {
		logger.Error().Err(err).Msg("Some slash commands failed to register")
	}

	// Re-arm persisted giveaways once the gateway is up so overdue
	// ones can announce their results.
	if err := engine.Restore(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to restore giveaways")
	}

	opsServer := ops.New(cfg.Server.Port, engine, func(ctx context.Context) error {
		if session.State.User == nil {
			return fmt.Errorf("gateway session not ready")
		}
		if cache != nil {
			return cache.Ping(ctx)
		}
		return nil
	}, cfg.Debug)
	opsServer.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down")

	engine.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := opsServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Ops server shutdown error")
	}

	if err := b.Close(); err != nil {
		logger.Error().Err(err).Msg("Discord session close error")
	}

	logger.Info().Msg("Shutdown complete")
}
