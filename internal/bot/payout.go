package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/guildtools/raidpay-bot/internal/delivery"
	"github.com/guildtools/raidpay-bot/internal/payout"
	"github.com/guildtools/raidpay-bot/internal/storage"
)

const runDateLayout = "2006-01-02"

func isValidRunDate(s string) bool {
	_, err := time.Parse(runDateLayout, s)
	return err == nil
}

// handleRunPayout is the main pipeline: parse the uploaded roster, compute
// the split, persist the run log, generate payment instructions against the
// registry, and deliver summaries publicly and in detail to the admin. All
// run state is local to this invocation.
func (b *Bot) handleRunPayout(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.memberHasAdminRole(s, i) {
		respondEphemeral(s, i, permissionDeniedMessage)
		return
	}

	opts := optionMap(i)
	runDate := opts["date"].StringValue()
	reportLink := opts["report_link"].StringValue()
	totalGold := opts["total_gold"].IntValue()

	var subject, body string
	if opt, ok := opts["subject"]; ok {
		subject = opt.StringValue()
	}
	if opt, ok := opts["body"]; ok {
		body = opt.StringValue()
	}

	deferEphemeral(s, i)

	// Validations: abort before any side effect, no log entry is written.
	if !isValidRunDate(runDate) {
		b.editResponse(s, i, "Invalid date format. Please use `YYYY-MM-DD`.")
		return
	}
	if totalGold <= 0 {
		b.editResponse(s, i, "Total gold must be a positive number.")
		return
	}
	if (subject == "") != (body == "") {
		b.editResponse(s, i, "To generate payment strings, please provide both a `subject` AND a `body`.")
		return
	}

	attachment := resolveAttachment(i, opts["roster_file"])
	if attachment == nil {
		b.editResponse(s, i, "Could not read the roster attachment. Please re-upload and try again.")
		return
	}
	lowerName := strings.ToLower(attachment.Filename)
	if !strings.HasSuffix(lowerName, ".txt") && !strings.HasSuffix(lowerName, ".csv") {
		b.editResponse(s, i, "Roster file must be a `.txt` or `.csv` file.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	rosterText, err := b.downloadRoster(ctx, attachment.URL)
	if err != nil {
		slog.Error("Failed to download roster", "url", attachment.URL, "error", err)
		b.editResponse(s, i, fmt.Sprintf("Error reading roster file: %v", err))
		return
	}

	classified, parseWarnings := b.parser.Parse(rosterText)
	if len(classified.Active) == 0 {
		b.editResponse(s, i, "No active boosters found in the roster. Please check the file format and content.")
		return
	}
	if classified.EventDate != "" && classified.EventDate != runDate {
		parseWarnings = append(parseWarnings,
			fmt.Sprintf("Roster event date %s differs from the provided run date %s.", classified.EventDate, runDate))
	}

	result, err := payout.Compute(totalGold, b.config.RaidLeaderCutPercentage, b.config.GuildCutPercentage, len(classified.Active))
	if err != nil {
		slog.Error("Payout computation rejected input", "total", totalGold, "boosters", len(classified.Active), "error", err)
		b.editResponse(s, i, "Could not compute the gold split for this run.")
		return
	}

	user := invokingUser(i)
	run := payout.Run{
		Date:       runDate,
		ReportLink: reportLink,
		TotalGold:  totalGold,
		Roster:     classified,
		Result:     result,
		ProcessedBy: payout.ProcessedBy{
			UserID:   user.ID,
			Username: user.Username,
		},
		Timestamp: time.Now().UTC(),
	}

	// Persist the run log. Failure is reported but does not unwind the
	// already-computed results; the operator intervenes manually.
	if err := b.repo.InsertRunLog(ctx, runLogFromRun(run)); err != nil {
		slog.Error("Failed to persist run log", "date", runDate, "error", err)
		followupEphemeral(s, i, fmt.Sprintf(
			"Warning: the run was computed but could not be logged (%v). Record it manually, and check whether it was already logged before re-running.", err))
	}

	// Admin detail lands on the deferred ephemeral response.
	adminEmbed := buildAdminDetailEmbed(run, parseWarnings)
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{adminEmbed},
	}); err != nil {
		slog.Error("Failed to send admin detail embed", "error", err)
	}

	// Public summary goes to the configured channels, falling back to the
	// invoking channel.
	publicEmbed := buildPublicSummaryEmbed(run)
	for _, channelID := range b.publicChannels(i) {
		if _, err := s.ChannelMessageSendEmbed(channelID, publicEmbed); err != nil {
			slog.Error("Failed to send public summary", "channel", channelID, "error", err)
			followupEphemeral(s, i, fmt.Sprintf("Critical: failed to send the public raid summary to <#%s>.", channelID))
		}
	}

	// The registry join runs on every run so that missing or unknown-faction
	// registrations always surface as admin warnings and public pings.
	// Payment strings are emitted only when a mail subject and body were
	// provided.
	withPayments := subject != "" && body != ""
	instructions := payout.GenerateInstructions(
		classified.Active, b.registry.Get, result.PerParticipantMail, subject, body, b.config.PaymentRealm)

	if withPayments {
		// Short-circuit outcomes (no boosters payable at all) carry a
		// single explanatory warning and nothing else.
		totalInstructions := 0
		for _, bucket := range instructions.ByFaction {
			totalInstructions += len(bucket)
		}
		if totalInstructions == 0 && len(instructions.PublicPings) == 0 && len(instructions.Warnings) > 0 {
			followupEphemeral(s, i, instructions.Warnings[0])
			return
		}
	}

	primary, secondary := formatPaymentFollowup(instructions, withPayments)
	if primary != "" || secondary != "" {
		plan := delivery.Build(primary, secondary, "payment_details.txt")
		b.sendPlanFollowup(s, i, plan)
	}

	if len(instructions.PublicPings) > 0 {
		pingContent := "**⚠️ Public Alt/Faction Warnings**\n" + strings.Join(instructions.PublicPings, "\n")
		pingPlan := delivery.Build(pingContent, "", "payment_warnings.txt")
		for _, channelID := range b.publicChannels(i) {
			b.sendPlanToChannel(s, channelID, pingPlan)
		}
	}
}

// publicChannels returns where public run output goes.
func (b *Bot) publicChannels(i *discordgo.InteractionCreate) []string {
	if len(b.config.PublicSummaryChannelIDs) > 0 {
		return b.config.PublicSummaryChannelIDs
	}
	if i.ChannelID != "" {
		return []string{i.ChannelID}
	}
	return nil
}

func resolveAttachment(i *discordgo.InteractionCreate, opt *discordgo.ApplicationCommandInteractionDataOption) *discordgo.MessageAttachment {
	if opt == nil {
		return nil
	}
	id, ok := opt.Value.(string)
	if !ok {
		return nil
	}
	resolved := i.ApplicationCommandData().Resolved
	if resolved == nil {
		return nil
	}
	return resolved.Attachments[id]
}

// formatPaymentSections renders the per-faction instruction blocks. Each
// faction keeps its own block because the payment tool batches by faction.
func formatPaymentSections(instructions payout.Instructions) string {
	sections := make([]string, 0, 2)

	if horde := instructions.ByFaction[payout.FactionHorde]; len(horde) > 0 {
		sections = append(sections, fmt.Sprintf("**Horde SalesTools (%d):**\n```\n%s\n```", len(horde), strings.Join(horde, "\n")))
	} else {
		sections = append(sections, "**Horde Payouts:** None.")
	}

	if alliance := instructions.ByFaction[payout.FactionAlliance]; len(alliance) > 0 {
		sections = append(sections, fmt.Sprintf("**Alliance SalesTools (%d):**\n```\n%s\n```", len(alliance), strings.Join(alliance, "\n")))
	} else {
		sections = append(sections, "**Alliance Payouts:** None.")
	}

	return strings.Join(sections, "\n\n")
}

// formatPaymentFollowup renders the admin followup for a run. With payments
// it is the per-faction instruction blocks followed by any warnings. Without
// payments only the warnings ship, behind a note that no strings were asked
// for; a warning-free log-only run produces nothing.
func formatPaymentFollowup(instructions payout.Instructions, withPayments bool) (primary, secondary string) {
	if len(instructions.Warnings) > 0 {
		secondary = "**Payment Warnings:**\n" + strings.Join(instructions.Warnings, "\n")
	}
	if withPayments {
		return formatPaymentSections(instructions), secondary
	}
	if secondary != "" {
		primary = "No payment strings requested."
	}
	return primary, secondary
}

// runLogFromRun converts a completed run into its durable record. Share
// amounts are rounded to 2 decimals for logging; the mail amount is not.
func runLogFromRun(run payout.Run) *storage.RunLog {
	active := make([]storage.Booster, len(run.Roster.Active))
	for idx, p := range run.Roster.Active {
		active[idx] = storage.Booster{Name: p.Name, DiscordID: p.DiscordID}
	}

	return &storage.RunLog{
		RunDate:             run.Date,
		WCLLink:             run.ReportLink,
		TotalGold:           run.TotalGold,
		RaidLeaderCutPct:    run.Result.RaidLeaderCutPct,
		RaidLeaderShareGold: payout.Round2(run.Result.RaidLeaderShare),
		GuildCutPct:         run.Result.GuildCutPct,
		GuildShareGold:      payout.Round2(run.Result.GuildShare),
		GoldPerBooster:      payout.Round2(run.Result.PerParticipantPrecise),
		NumBoosters:         run.Result.ParticipantCount,
		ActiveBoosters:      active,
		BenchedPlayers:      run.Roster.Benched,
		ProcessedByUserID:   run.ProcessedBy.UserID,
		ProcessedByUsername: run.ProcessedBy.Username,
		TimestampUTC:        run.Timestamp,
	}
}

// sendPlanFollowup delivers a plan as an ephemeral followup, attaching the
// file when the content did not fit inline.
func (b *Bot) sendPlanFollowup(s *discordgo.Session, i *discordgo.InteractionCreate, plan delivery.Plan) {
	params := &discordgo.WebhookParams{
		Content: plan.Inline,
		Flags:   discordgo.MessageFlagsEphemeral,
	}
	if plan.HasFile() {
		params.Files = []*discordgo.File{
			{
				Name:        plan.FileName,
				ContentType: "text/plain",
				Reader:      strings.NewReader(plan.FileContent),
			},
		}
	}
	if _, err := s.FollowupMessageCreate(i.Interaction, true, params); err != nil {
		slog.Error("Failed to deliver payment details", "error", err)
	}
}

// sendPlanToChannel delivers a plan as a public channel message with user
// mentions enabled (the pings ask players to fix their registration).
func (b *Bot) sendPlanToChannel(s *discordgo.Session, channelID string, plan delivery.Plan) {
	msg := &discordgo.MessageSend{
		Content: plan.Inline,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
		},
	}
	if plan.HasFile() {
		msg.Files = []*discordgo.File{
			{
				Name:        plan.FileName,
				ContentType: "text/plain",
				Reader:      strings.NewReader(plan.FileContent),
			},
		}
	}
	if _, err := s.ChannelMessageSendComplex(channelID, msg); err != nil {
		slog.Error("Failed to send public warnings", "channel", channelID, "error", err)
	}
}
