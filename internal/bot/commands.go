package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/guildtools/raidpay-bot/internal/export"
	"github.com/guildtools/raidpay-bot/internal/storage"
)

const storageUnavailableMessage = "The storage backend is currently unavailable. Please try again later."

func factionChoices() []*discordgo.ApplicationCommandOptionChoice {
	return []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Horde", Value: "Horde"},
		{Name: "Alliance", Value: "Alliance"},
	}
}

// Slash command definitions
func (b *Bot) getCommandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "set-payment-character",
			Description: "Register or update your payment character and faction.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "character_name",
					Description: "Your in-game character name (e.g., Altname).",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "faction",
					Description: "Your character's faction (Horde or Alliance).",
					Required:    true,
					Choices:     factionChoices(),
				},
			},
		},
		{
			Name:        "check-payment-character",
			Description: "Check your registered payment character.",
		},
		{
			Name:        "admin-set-payment-character",
			Description: "[Admin] Set or update a payment character for a user.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "The Discord user to set the payment character for.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "character_name",
					Description: "The user's in-game character name.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "faction",
					Description: "The user's character faction.",
					Required:    true,
					Choices:     factionChoices(),
				},
			},
		},
		{
			Name:        "admin-check-payment-character",
			Description: "[Admin] Check a user's registered payment character.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "The Discord user to check.",
					Required:    true,
				},
			},
		},
		{
			Name:        "export-logs",
			Description: "Export all run logs to a CSV file. (Admin Only)",
		},
		{
			Name:        "run-payout",
			Description: "Calculate gold split, log the run, and generate payment strings. (Admin Only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "date",
					Description: "Date of the run (YYYY-MM-DD).",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "report_link",
					Description: "Link to the Warcraft Logs report.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "total_gold",
					Description: "Total gold amount for the run.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "roster_file",
					Description: "Upload roster .txt or .csv (Discord IDs in 4th column).",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "subject",
					Description: "Subject for payment mail (triggers payment string generation).",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "body",
					Description: "Body for payment mail.",
					Required:    false,
				},
			},
		},
	}
}

// registerCommands registers all slash commands with Discord, per target
// guild when configured (instant availability) or globally otherwise.
func (b *Bot) registerCommands() error {
	slog.Info("Registering slash commands")

	guilds := b.config.TargetGuildIDs
	if len(guilds) == 0 {
		guilds = []string{""} // Empty string = global command
	}

	commandDefinitions := b.getCommandDefinitions()
	registeredCommands := make([]*discordgo.ApplicationCommand, 0, len(commandDefinitions)*len(guilds))

	for _, guildID := range guilds {
		for _, cmd := range commandDefinitions {
			registered, err := b.session.ApplicationCommandCreate(
				b.session.State.User.ID,
				guildID,
				cmd,
			)
			if err != nil {
				return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
			}
			registeredCommands = append(registeredCommands, registered)
			slog.Debug("Registered command", "name", cmd.Name, "guild", guildID)
		}
	}

	b.commands = registeredCommands
	slog.Info("Slash commands registered", "count", len(registeredCommands))
	return nil
}

// optionMap indexes a command's options by name.
func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

// invokingUser returns the user behind an interaction, which lives on Member
// in guilds and directly on User in DMs.
func invokingUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// handleSetPaymentCharacter handles the /set-payment-character command
func (b *Bot) handleSetPaymentCharacter(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	characterName := strings.TrimSpace(opts["character_name"].StringValue())
	faction := opts["faction"].StringValue()
	user := invokingUser(i)

	deferEphemeral(s, i)

	if characterName == "" {
		b.editResponse(s, i, "Character name cannot be empty.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := b.registry.Set(ctx, user.ID, characterName, faction); err != nil {
		if errors.Is(err, storage.ErrUnavailable) {
			b.editResponse(s, i, storageUnavailableMessage)
			return
		}
		slog.Error("Failed to save payment character", "user", user.ID, "error", err)
		b.editResponse(s, i, "Failed to save your payment character. Please try again.")
		return
	}

	slog.Info("Payment character set", "user", user.ID, "character", characterName, "faction", faction)
	b.editResponse(s, i, fmt.Sprintf("Your payment character has been set/updated to: **%s** (%s).", characterName, faction))
}

// handleCheckPaymentCharacter handles the /check-payment-character command
func (b *Bot) handleCheckPaymentCharacter(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := invokingUser(i)

	reg, ok := b.registry.Get(user.ID)
	if !ok {
		respondEphemeral(s, i, "You do not have a payment character registered yet. Use `/set-payment-character` to add one.")
		return
	}
	respondEphemeral(s, i, fmt.Sprintf("Your registered payment character is: **%s** (%s).", reg.Character, reg.Faction))
}

// handleAdminSetPaymentCharacter handles the /admin-set-payment-character command
func (b *Bot) handleAdminSetPaymentCharacter(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.memberHasAdminRole(s, i) {
		respondEphemeral(s, i, permissionDeniedMessage)
		return
	}

	opts := optionMap(i)
	target := opts["user"].UserValue(s)
	characterName := strings.TrimSpace(opts["character_name"].StringValue())
	faction := opts["faction"].StringValue()

	deferEphemeral(s, i)

	if characterName == "" {
		b.editResponse(s, i, "Character name cannot be empty.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := b.registry.Set(ctx, target.ID, characterName, faction); err != nil {
		if errors.Is(err, storage.ErrUnavailable) {
			b.editResponse(s, i, storageUnavailableMessage)
			return
		}
		slog.Error("Failed to save payment character", "target", target.ID, "error", err)
		b.editResponse(s, i, "Failed to save the payment character. Please try again.")
		return
	}

	slog.Info("Payment character set by admin",
		"admin", invokingUser(i).ID, "target", target.ID, "character", characterName, "faction", faction)
	b.editResponse(s, i, fmt.Sprintf("Payment character for **%s** (`%s`) has been set/updated to: **%s** (%s).",
		target.Username, target.ID, characterName, faction))
}

// handleAdminCheckPaymentCharacter handles the /admin-check-payment-character command
func (b *Bot) handleAdminCheckPaymentCharacter(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.memberHasAdminRole(s, i) {
		respondEphemeral(s, i, permissionDeniedMessage)
		return
	}

	target := optionMap(i)["user"].UserValue(s)

	reg, ok := b.registry.Get(target.ID)
	if !ok {
		respondEphemeral(s, i, fmt.Sprintf("**%s** (`%s`) does not have a payment character registered.", target.Username, target.ID))
		return
	}
	respondEphemeral(s, i, fmt.Sprintf("Registered payment character for **%s** (`%s`) is: **%s** (%s).",
		target.Username, target.ID, reg.Character, reg.Faction))
}

// handleExportLogs handles the /export-logs command
func (b *Bot) handleExportLogs(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.memberHasAdminRole(s, i) {
		respondEphemeral(s, i, permissionDeniedMessage)
		return
	}

	deferEphemeral(s, i)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logs, err := b.repo.ListRunLogs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrUnavailable) {
			b.editResponse(s, i, storageUnavailableMessage)
			return
		}
		slog.Error("Failed to list run logs", "error", err)
		b.editResponse(s, i, "An error occurred while generating the log export.")
		return
	}
	if len(logs) == 0 {
		b.editResponse(s, i, "No logs available to export.")
		return
	}

	csvContent, err := export.RunLogsCSV(logs)
	if err != nil {
		slog.Error("Failed to render run log CSV", "error", err)
		b.editResponse(s, i, "An error occurred while generating the log export.")
		return
	}

	content := "Run logs exported:"
	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
		Files: []*discordgo.File{
			{
				Name:        "all_run_logs.csv",
				ContentType: "text/csv",
				Reader:      strings.NewReader(csvContent),
			},
		},
	})
	if err != nil {
		slog.Error("Failed to send log export", "error", err)
	}
}
