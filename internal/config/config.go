package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	DiscordToken            string   `envconfig:"DISCORD_BOT_TOKEN"`
	TargetGuildIDs          []string `envconfig:"TARGET_GUILD_IDS"`
	PublicSummaryChannelIDs []string `envconfig:"PUBLIC_SUMMARY_CHANNEL_IDS"`
	AdminRoleNames          []string `envconfig:"ADMIN_ROLE_NAMES" default:"Sales Leader"`

	// Payout
	GuildCutPercentage      float64 `envconfig:"GUILD_CUT_PERCENTAGE" default:"0.035"`
	RaidLeaderCutPercentage float64 `envconfig:"RAID_LEADER_CUT_PERCENTAGE" default:"0.015"`
	PaymentRealm            string  `envconfig:"PAYMENT_REALM" default:"Area52"`

	// Roster roles that never receive a payout. Earlier roster formats only
	// knew absence and bench; tentative was added later.
	RosterExcludedRoles []string `envconfig:"ROSTER_EXCLUDED_ROLES" default:"absence,tentative,bench"`

	// Database
	DatabasePath     string        `envconfig:"DATABASE_PATH" default:"./data/raidpay.db"`
	DBConnectTimeout time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"30s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	// Validate required fields
	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if cfg.GuildCutPercentage < 0 || cfg.GuildCutPercentage >= 1 {
		return nil, fmt.Errorf("GUILD_CUT_PERCENTAGE must be in [0, 1), got %v", cfg.GuildCutPercentage)
	}
	if cfg.RaidLeaderCutPercentage < 0 || cfg.RaidLeaderCutPercentage >= 1 {
		return nil, fmt.Errorf("RAID_LEADER_CUT_PERCENTAGE must be in [0, 1), got %v", cfg.RaidLeaderCutPercentage)
	}
	if len(cfg.AdminRoleNames) == 0 {
		return nil, fmt.Errorf("ADMIN_ROLE_NAMES must name at least one role")
	}

	return cfg, nil
}
