package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildtools/raidpay-bot/internal/roster"
)

func mapLookup(m map[string]Registration) LookupFunc {
	return func(id string) (Registration, bool) {
		reg, ok := m[id]
		return reg, ok
	}
}

func TestGenerateInstructionsBucketsByFaction(t *testing.T) {
	active := []roster.Participant{
		{Name: "Alice", DiscordID: "1"},
		{Name: "Bob", DiscordID: "2"},
	}
	lookup := mapLookup(map[string]Registration{
		"1": {Character: "Alicepay", Faction: "Horde"},
		"2": {Character: "Bobpay", Faction: "Alliance"},
	})

	out := GenerateInstructions(active, lookup, 316, "Raid Cut", "Thanks!", "Area52")

	assert.Empty(t, out.Warnings)
	assert.Empty(t, out.PublicPings)
	require.Len(t, out.ByFaction[FactionHorde], 1)
	require.Len(t, out.ByFaction[FactionAlliance], 1)
	assert.Equal(t, "Alicepay-Area52:316:Raid Cut:Thanks!", out.ByFaction[FactionHorde][0])
	assert.Equal(t, "Bobpay-Area52:316:Raid Cut:Thanks!", out.ByFaction[FactionAlliance][0])
}

func TestGenerateInstructionsRealmSuffixNotDuplicated(t *testing.T) {
	active := []roster.Participant{{Name: "Alice", DiscordID: "1"}}
	lookup := mapLookup(map[string]Registration{
		"1": {Character: "Alicepay-Area52", Faction: "Horde"},
	})

	out := GenerateInstructions(active, lookup, 100, "S", "B", "Area52")

	require.Len(t, out.ByFaction[FactionHorde], 1)
	assert.Equal(t, "Alicepay-Area52:100:S:B", out.ByFaction[FactionHorde][0])
}

func TestGenerateInstructionsRealmCheckIgnoresSpaces(t *testing.T) {
	active := []roster.Participant{{Name: "Alice", DiscordID: "1"}}
	lookup := mapLookup(map[string]Registration{
		"1": {Character: "Alicepay - Area52", Faction: "Horde"},
	})

	out := GenerateInstructions(active, lookup, 100, "S", "B", "Area52")

	require.Len(t, out.ByFaction[FactionHorde], 1)
	assert.Equal(t, "Alicepay - Area52:100:S:B", out.ByFaction[FactionHorde][0])
}

func TestGenerateInstructionsRealmWithSpaceNotDuplicated(t *testing.T) {
	active := []roster.Participant{
		{Name: "Alice", DiscordID: "1"},
		{Name: "Bob", DiscordID: "2"},
	}
	lookup := mapLookup(map[string]Registration{
		"1": {Character: "Alicepay-Area 52", Faction: "Horde"},
		"2": {Character: "Bobpay", Faction: "Horde"},
	})

	out := GenerateInstructions(active, lookup, 100, "S", "B", "Area 52")

	require.Len(t, out.ByFaction[FactionHorde], 2)
	assert.Equal(t, "Alicepay-Area 52:100:S:B", out.ByFaction[FactionHorde][0])
	assert.Equal(t, "Bobpay-Area 52:100:S:B", out.ByFaction[FactionHorde][1])
}

func TestGenerateInstructionsMissingRegistration(t *testing.T) {
	active := []roster.Participant{{Name: "Ghost", DiscordID: "42"}}

	out := GenerateInstructions(active, mapLookup(nil), 100, "S", "B", "Area52")

	assert.Empty(t, out.ByFaction[FactionHorde])
	assert.Empty(t, out.ByFaction[FactionAlliance])
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, "No Alt/Faction registered for ID `42` (Ghost).", out.Warnings[0])
	require.Len(t, out.PublicPings, 1)
	assert.Contains(t, out.PublicPings[0], "<@42>")
	assert.Contains(t, out.PublicPings[0], "/set-payment-character")
}

func TestGenerateInstructionsEmptyCharacterTreatedAsMissing(t *testing.T) {
	active := []roster.Participant{{Name: "Blank", DiscordID: "7"}}
	lookup := mapLookup(map[string]Registration{
		"7": {Character: "", Faction: "Horde"},
	})

	out := GenerateInstructions(active, lookup, 100, "S", "B", "Area52")

	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "No Alt/Faction registered")
}

func TestGenerateInstructionsUnknownFaction(t *testing.T) {
	active := []roster.Participant{{Name: "Oddball", DiscordID: "9"}}
	lookup := mapLookup(map[string]Registration{
		"9": {Character: "Oddpay", Faction: "Pirates"},
	})

	out := GenerateInstructions(active, lookup, 100, "S", "B", "Area52")

	assert.Empty(t, out.ByFaction[FactionHorde])
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "Unknown faction for ID `9`")
	require.Len(t, out.PublicPings, 1)
	assert.Contains(t, out.PublicPings[0], "'Pirates'")
}

func TestGenerateInstructionsFactionCaseInsensitive(t *testing.T) {
	active := []roster.Participant{
		{Name: "A", DiscordID: "1"},
		{Name: "B", DiscordID: "2"},
	}
	lookup := mapLookup(map[string]Registration{
		"1": {Character: "Apay", Faction: "horde"},
		"2": {Character: "Bpay", Faction: "ALLIANCE"},
	})

	out := GenerateInstructions(active, lookup, 100, "S", "B", "Area52")

	assert.Len(t, out.ByFaction[FactionHorde], 1)
	assert.Len(t, out.ByFaction[FactionAlliance], 1)
}

func TestGenerateInstructionsZeroAmount(t *testing.T) {
	active := []roster.Participant{{Name: "Alice", DiscordID: "1"}}

	out := GenerateInstructions(active, mapLookup(nil), 0, "S", "B", "Area52")

	assert.Empty(t, out.ByFaction)
	assert.Empty(t, out.PublicPings)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, "Gold per booster is 0 or less. No payment strings generated.", out.Warnings[0])
}

func TestGenerateInstructionsNoActive(t *testing.T) {
	out := GenerateInstructions(nil, mapLookup(nil), 100, "S", "B", "Area52")

	assert.Empty(t, out.ByFaction)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, "No active boosters to generate payments for.", out.Warnings[0])
}

// Every active participant lands in exactly one faction bucket or in the
// warnings list; the two sets partition the roster.
func TestGenerateInstructionsPartition(t *testing.T) {
	active := []roster.Participant{
		{Name: "A", DiscordID: "1"},
		{Name: "B", DiscordID: "2"},
		{Name: "C", DiscordID: "3"},
		{Name: "D", DiscordID: "4"},
	}
	lookup := mapLookup(map[string]Registration{
		"1": {Character: "Apay", Faction: "Horde"},
		"2": {Character: "Bpay", Faction: "Sideways"},
		"4": {Character: "Dpay", Faction: "Alliance"},
	})

	out := GenerateInstructions(active, lookup, 100, "S", "B", "Area52")

	paid := len(out.ByFaction[FactionHorde]) + len(out.ByFaction[FactionAlliance])
	assert.Equal(t, len(active), paid+len(out.Warnings))
	assert.Len(t, out.Warnings, 2)
	assert.Len(t, out.PublicPings, 2)
}

func TestGenerateInstructionsPreservesRosterOrder(t *testing.T) {
	active := []roster.Participant{
		{Name: "First", DiscordID: "1"},
		{Name: "Second", DiscordID: "2"},
		{Name: "Third", DiscordID: "3"},
	}
	lookup := mapLookup(map[string]Registration{
		"1": {Character: "Fpay", Faction: "Horde"},
		"2": {Character: "Spay", Faction: "Horde"},
		"3": {Character: "Tpay", Faction: "Horde"},
	})

	out := GenerateInstructions(active, lookup, 100, "S", "B", "Area52")

	require.Len(t, out.ByFaction[FactionHorde], 3)
	assert.Equal(t, "Fpay-Area52:100:S:B", out.ByFaction[FactionHorde][0])
	assert.Equal(t, "Spay-Area52:100:S:B", out.ByFaction[FactionHorde][1])
	assert.Equal(t, "Tpay-Area52:100:S:B", out.ByFaction[FactionHorde][2])
}
