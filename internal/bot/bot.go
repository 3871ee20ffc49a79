package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/guildtools/raidpay-bot/internal/config"
	"github.com/guildtools/raidpay-bot/internal/registry"
	"github.com/guildtools/raidpay-bot/internal/roster"
	"github.com/guildtools/raidpay-bot/internal/storage"
)

// Bot represents the Discord bot instance
type Bot struct {
	config   *config.Config
	session  *discordgo.Session
	repo     *storage.Repository
	registry *registry.Registry
	parser   *roster.Parser
	commands []*discordgo.ApplicationCommand

	// Used to download roster attachments from Discord's CDN.
	httpClient *http.Client
}

// New creates a new Bot instance. A storage backend that never comes up does
// not prevent startup: the bot runs in degraded mode and refuses
// persistence-touching commands until restarted.
func New(cfg *config.Config) (*Bot, error) {
	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Set intents
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	// Initialize storage
	repo, err := storage.Open(cfg.DatabasePath, cfg.DBConnectTimeout)
	if err != nil {
		slog.Warn("Storage backend unavailable, continuing in degraded mode", "error", err)
	}

	b := &Bot{
		config:   cfg,
		session:  session,
		repo:     repo,
		registry: registry.New(repo),
		parser:   roster.NewParser(cfg.RosterExcludedRoles),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	// Register command handlers
	b.registerHandlers()

	return b, nil
}

// Start opens the Discord connection, warms the registry cache, and
// registers slash commands
func (b *Bot) Start(ctx context.Context) error {
	// Open Discord connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	slog.Info("Connected to Discord", "user", b.session.State.User.Username)

	// Warm the payment character cache
	if b.repo.Ready() {
		if err := b.registry.Load(ctx); err != nil {
			slog.Error("Failed to load payment characters", "error", err)
		} else {
			slog.Info("Payment character cache loaded", "count", b.registry.Len())
		}
	}

	// Register slash commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the bot
func (b *Bot) Stop() error {
	// Close storage
	if b.repo != nil {
		b.repo.Close()
	}

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// registerHandlers sets up Discord event handlers
func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "guilds", len(r.Guilds))
	})
}

// handleInteraction processes slash command interactions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	slog.Debug("Received command", "command", data.Name, "guild", i.GuildID)

	switch data.Name {
	case "set-payment-character":
		b.handleSetPaymentCharacter(s, i)
	case "check-payment-character":
		b.handleCheckPaymentCharacter(s, i)
	case "admin-set-payment-character":
		b.handleAdminSetPaymentCharacter(s, i)
	case "admin-check-payment-character":
		b.handleAdminCheckPaymentCharacter(s, i)
	case "export-logs":
		b.handleExportLogs(s, i)
	case "run-payout":
		b.handleRunPayout(s, i)
	default:
		slog.Warn("Unknown command", "command", data.Name)
	}
}

// permissionDeniedMessage is the fixed reply for unauthorized privileged
// commands. The command performs no side effect in that case.
const permissionDeniedMessage = "You do not have the required role to use this command."

// memberHasAdminRole reports whether the invoking member holds at least one
// of the configured admin roles, matched by role name or role ID.
func (b *Bot) memberHasAdminRole(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.Member == nil || i.GuildID == "" {
		return false
	}

	allowed := make(map[string]struct{}, len(b.config.AdminRoleNames))
	for _, name := range b.config.AdminRoleNames {
		allowed[name] = struct{}{}
	}

	guildRoles, err := s.GuildRoles(i.GuildID)
	if err != nil {
		slog.Error("Failed to fetch guild roles", "guild", i.GuildID, "error", err)
		return false
	}

	byID := make(map[string]*discordgo.Role, len(guildRoles))
	for _, role := range guildRoles {
		byID[role.ID] = role
	}

	for _, roleID := range i.Member.Roles {
		if _, ok := allowed[roleID]; ok {
			return true
		}
		if role, ok := byID[roleID]; ok {
			if _, ok := allowed[role.Name]; ok {
				return true
			}
		}
	}
	return false
}

// Helper functions

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

func (b *Bot) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
}

func followupEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		slog.Error("Failed to send followup", "error", err)
	}
}
