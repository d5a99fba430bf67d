package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Discord struct {
		Token    string   `env:"DISCORD_TOKEN,required"`
		GuildID  string   `env:"GUILD_ID"`
		OwnerIDs []string `env:"OWNER_IDS" envSeparator:","`
	}

	Server struct {
		Port int `env:"PORT" envDefault:"8080"`
	}

	Giveaway struct {
		StorePath string `env:"GIVEAWAY_STORE_PATH" envDefault:"data/giveaways.json"`
	}

	// Remote giveaway backend (optional; giveaways run local-only
	// when the base URL is empty).
	Backend struct {
		BaseURL string `env:"GIVEAWAY_API_URL"`
		Token   string `env:"GIVEAWAY_API_TOKEN"`
	}

	// ExHub key API endpoints.
	ExHub struct {
		ValidateBase string `env:"PAIDKEY_VALIDATE_BASE" envDefault:"https://exc-webs.vercel.app/api/paidkey/isValidate"`
		CreateURL    string `env:"PAIDKEY_CREATE_URL" envDefault:"https://exc-webs.vercel.app/api/paidkey/createOrUpdate"`
		UserInfoURL  string `env:"EXHUB_USERINFO_URL" envDefault:"https://exc-webs.vercel.app/api/paidfree/user-info"`
	}

	Ticket struct {
		CategoryID        string `env:"TICKET_CATEGORY_ID"`
		OrderLogChannelID string `env:"CHANNEL_LOGORDER_ID"`
		QRISImageURL      string `env:"QRIS_IMAGE_URL"`
	}

	Welcome struct {
		ChannelID     string `env:"WELCOME_CHANNEL_ID"`
		BackgroundURL string `env:"WELCOME_BG_URL"`
	}

	Stats struct {
		CategoryID string `env:"SERVER_STATS_CATEGORY_ID"`
		AllID      string `env:"SERVER_STATS_ALL_ID"`
		MembersID  string `env:"SERVER_STATS_MEMBERS_ID"`
		BotsID     string `env:"SERVER_STATS_BOTS_ID"`
		BoostsID   string `env:"SERVER_STATS_BOOSTS_ID"`
	}

	Prices struct {
		KeyMonth    int64 `env:"PRICE_KEY_MONTH" envDefault:"15000"`
		KeyLifetime int64 `env:"PRICE_KEY_LIFETIME" envDefault:"25000"`
		IndoHangout int64 `env:"PRICE_INDO_HANGOUT" envDefault:"10000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}
}

func Load() (*Config, error) {
	// The .env file is optional; production environments set the
	// variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
