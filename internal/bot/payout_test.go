package bot

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildtools/raidpay-bot/internal/payout"
	"github.com/guildtools/raidpay-bot/internal/roster"
)

func TestIsValidRunDate(t *testing.T) {
	assert.True(t, isValidRunDate("2026-08-30"))
	assert.False(t, isValidRunDate("30-08-2026"))
	assert.False(t, isValidRunDate("2026-8-30"))
	assert.False(t, isValidRunDate("not a date"))
	assert.False(t, isValidRunDate(""))
}

func TestFormatPaymentSectionsBothFactions(t *testing.T) {
	out := formatPaymentSections(payout.Instructions{
		ByFaction: map[payout.Faction][]string{
			payout.FactionHorde:    {"Apay-Area52:100:S:B", "Bpay-Area52:100:S:B"},
			payout.FactionAlliance: {"Cpay-Area52:100:S:B"},
		},
	})

	assert.Contains(t, out, "**Horde SalesTools (2):**")
	assert.Contains(t, out, "**Alliance SalesTools (1):**")
	assert.Contains(t, out, "Apay-Area52:100:S:B\nBpay-Area52:100:S:B")
}

func TestFormatPaymentSectionsEmptyFactionSaysNone(t *testing.T) {
	out := formatPaymentSections(payout.Instructions{
		ByFaction: map[payout.Faction][]string{
			payout.FactionHorde: {"Apay-Area52:100:S:B"},
		},
	})

	assert.Contains(t, out, "**Horde SalesTools (1):**")
	assert.Contains(t, out, "**Alliance Payouts:** None.")
}

func TestFormatPaymentFollowupWithPayments(t *testing.T) {
	primary, secondary := formatPaymentFollowup(payout.Instructions{
		ByFaction: map[payout.Faction][]string{
			payout.FactionHorde: {"Apay-Area52:100:S:B"},
		},
		Warnings: []string{"No Alt/Faction registered for ID `2` (Bob)."},
	}, true)

	assert.Contains(t, primary, "**Horde SalesTools (1):**")
	assert.Equal(t, "**Payment Warnings:**\nNo Alt/Faction registered for ID `2` (Bob).", secondary)
}

func TestFormatPaymentFollowupLogOnlyStillCarriesWarnings(t *testing.T) {
	primary, secondary := formatPaymentFollowup(payout.Instructions{
		ByFaction: map[payout.Faction][]string{
			payout.FactionHorde: {"Apay-Area52:100::"},
		},
		Warnings: []string{"No Alt/Faction registered for ID `2` (Bob)."},
	}, false)

	assert.Equal(t, "No payment strings requested.", primary)
	assert.Contains(t, secondary, "No Alt/Faction registered for ID `2` (Bob).")
	assert.NotContains(t, primary, "SalesTools")
}

func TestFormatPaymentFollowupLogOnlyCleanRunIsSilent(t *testing.T) {
	primary, secondary := formatPaymentFollowup(payout.Instructions{
		ByFaction: map[payout.Faction][]string{
			payout.FactionHorde: {"Apay-Area52:100::"},
		},
	}, false)

	assert.Empty(t, primary)
	assert.Empty(t, secondary)
}

func TestRunLogFromRunRoundsSharesButNotMailAmount(t *testing.T) {
	result, err := payout.Compute(1000, 0.015, 0.035, 3)
	require.NoError(t, err)

	run := payout.Run{
		Date:       "2026-08-01",
		ReportLink: "https://example.com/report/abc",
		TotalGold:  1000,
		Roster: roster.Classified{
			Active: []roster.Participant{
				{Name: "Alice", DiscordID: "1"},
				{Name: "Bob", DiscordID: "2"},
				{Name: "Cleo", DiscordID: "3"},
			},
			Benched: []string{"Dana"},
		},
		Result:      result,
		ProcessedBy: payout.ProcessedBy{UserID: "42", Username: "operator"},
		Timestamp:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	entry := runLogFromRun(run)

	assert.Equal(t, "2026-08-01", entry.RunDate)
	assert.Equal(t, int64(1000), entry.TotalGold)
	assert.InDelta(t, 15.0, entry.RaidLeaderShareGold, 1e-9)
	assert.InDelta(t, 34.47, entry.GuildShareGold, 1e-9)
	assert.InDelta(t, 316.84, entry.GoldPerBooster, 1e-9)
	assert.Equal(t, 3, entry.NumBoosters)
	require.Len(t, entry.ActiveBoosters, 3)
	assert.Equal(t, "Alice", entry.ActiveBoosters[0].Name)
	assert.Equal(t, []string{"Dana"}, entry.BenchedPlayers)
	assert.Equal(t, "operator", entry.ProcessedByUsername)
}

func TestReportLinkField(t *testing.T) {
	assert.Equal(t, "[abc123](https://example.com/reports/abc123)",
		reportLinkField("https://example.com/reports/abc123"))
	assert.Equal(t, "[Report](no-slashes-here)", reportLinkField("no-slashes-here"))
}

func TestNameListField(t *testing.T) {
	assert.Equal(t, "None", nameListField(nil))
	assert.Equal(t, "Alice\nBob", nameListField([]string{"Alice", "Bob"}))
}

func TestTruncateFieldValue(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}

	out := truncateFieldValue(string(long))
	assert.Len(t, out, embedFieldLimit+3)
	assert.True(t, len(out) <= 1024)
}

func TestTruncateFieldValueKeepsRunesIntact(t *testing.T) {
	// The leading ASCII byte puts every following 2-byte rune across the
	// cut offset.
	long := "x" + strings.Repeat("é", embedFieldLimit)

	out := truncateFieldValue(long)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.True(t, len(out) <= 1024)
}
