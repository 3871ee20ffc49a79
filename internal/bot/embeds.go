package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"

	"github.com/guildtools/raidpay-bot/internal/payout"
)

const (
	colorPublicSummary = 0x57F287 // green
	colorAdminDetail   = 0xF1C40F // gold

	// Discord caps embed field values at 1024 characters.
	embedFieldLimit = 1020
)

// buildPublicSummaryEmbed is the summary every participant sees: per-booster
// cut and who was active or benched, without the pot breakdown.
func buildPublicSummaryEmbed(run payout.Run) *discordgo.MessageEmbed {
	activeNames := make([]string, len(run.Roster.Active))
	for idx, p := range run.Roster.Active {
		activeNames[idx] = p.Name
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Raid Cut Summary: %s", run.Date),
		Color: colorPublicSummary,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Logs",
				Value: reportLinkField(run.ReportLink),
			},
			{
				Name:   "Booster Cut",
				Value:  fmt.Sprintf("%sg", humanize.CommafWithDigits(run.Result.PerParticipantPrecise, 2)),
				Inline: true,
			},
			{
				Name:   "Num. of Boosters",
				Value:  fmt.Sprintf("%d", run.Result.ParticipantCount),
				Inline: true,
			},
			{
				Name:  fmt.Sprintf("Active Boosters (%d)", len(activeNames)),
				Value: nameListField(activeNames),
			},
			{
				Name:  fmt.Sprintf("Benched (%d)", len(run.Roster.Benched)),
				Value: nameListField(run.Roster.Benched),
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Run processed. Admins have detailed view & payment options.",
		},
	}
}

// buildAdminDetailEmbed is the operator's view: the full pot breakdown,
// booster IDs, and any parse warnings.
func buildAdminDetailEmbed(run payout.Run, parseWarnings []string) *discordgo.MessageEmbed {
	res := run.Result

	rlField := "0g (Not configured or 0%)"
	if res.RaidLeaderCutPct > 0 {
		rlField = fmt.Sprintf("%sg (Manual Payout)", humanize.CommafWithDigits(res.RaidLeaderShare, 2))
	}

	activeDetails := make([]string, len(run.Roster.Active))
	for idx, p := range run.Roster.Active {
		activeDetails[idx] = fmt.Sprintf("%s (ID: `%s`)", p.Name, p.DiscordID)
	}

	remainingForBoosters := res.PerParticipantPrecise * float64(res.ParticipantCount)

	fields := []*discordgo.MessageEmbedField{
		{
			Name:  "Logs",
			Value: reportLinkField(run.ReportLink),
		},
		{
			Name:   "Total Gold Pot",
			Value:  fmt.Sprintf("%sg", humanize.Comma(res.Total)),
			Inline: true,
		},
		{
			Name:   fmt.Sprintf("Raid Leader Cut (%.1f%%)", res.RaidLeaderCutPct*100),
			Value:  rlField,
			Inline: true,
		},
		{
			Name:   fmt.Sprintf("Guild Cut (%.1f%%)", res.GuildCutPct*100),
			Value:  fmt.Sprintf("%sg", humanize.CommafWithDigits(res.GuildShare, 2)),
			Inline: true,
		},
		{
			Name:   "Gold for Boosters (Total)",
			Value:  fmt.Sprintf("%sg", humanize.CommafWithDigits(remainingForBoosters, 2)),
			Inline: true,
		},
		{
			Name:   "Gold/Booster (Precise)",
			Value:  fmt.Sprintf("%sg", humanize.CommafWithDigits(res.PerParticipantPrecise, 2)),
			Inline: true,
		},
		{
			Name:   "Gold/Booster (Mail)",
			Value:  fmt.Sprintf("%sg", humanize.Comma(res.PerParticipantMail)),
			Inline: true,
		},
		{
			Name:  fmt.Sprintf("Active Boosters + IDs (%d)", len(activeDetails)),
			Value: nameListField(activeDetails),
		},
		{
			Name:  fmt.Sprintf("Benched (%d)", len(run.Roster.Benched)),
			Value: nameListField(run.Roster.Benched),
		},
	}

	if len(parseWarnings) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Roster Warnings",
			Value: truncateFieldValue(strings.Join(parseWarnings, "\n")),
		})
	}

	return &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("ADMIN VIEW - Cut Details: %s", run.Date),
		Color:  colorAdminDetail,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Processed by: %s", run.ProcessedBy.Username),
		},
	}
}

func reportLinkField(link string) string {
	label := "Report"
	if idx := strings.LastIndex(link, "/"); idx >= 0 && idx < len(link)-1 {
		label = link[idx+1:]
	}
	return fmt.Sprintf("[%s](%s)", label, link)
}

func nameListField(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return truncateFieldValue(strings.Join(names, "\n"))
}

func truncateFieldValue(s string) string {
	if len(s) <= embedFieldLimit {
		return s
	}
	// Back up to a rune boundary so a multi-byte name never gets split.
	cut := embedFieldLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
