package payout

import (
	"fmt"
	"strings"

	"github.com/guildtools/raidpay-bot/internal/roster"
)

// Faction is a recognized payment faction. Payment tooling batches mail by
// faction, so the two buckets are never merged.
type Faction string

const (
	FactionHorde    Faction = "Horde"
	FactionAlliance Faction = "Alliance"
)

// Registration is a participant's payment character as recorded in the
// registry.
type Registration struct {
	Character string
	Faction   string
}

// LookupFunc resolves a Discord user ID to its registration, reporting
// whether one exists.
type LookupFunc func(discordID string) (Registration, bool)

// Instructions is the output of instruction generation: per-faction payment
// strings in roster order, admin-facing warnings for participants that could
// not be paid, and public mention pings asking those participants to fix
// their registration.
type Instructions struct {
	ByFaction   map[Faction][]string
	Warnings    []string
	PublicPings []string
}

// GenerateInstructions joins the active roster with the payment registry and
// produces one mail instruction per payable participant, formatted
// <character>-<realm>:<amount>:<subject>:<body>. Participants without a
// usable registration get a warning and a public ping instead. A non-positive
// amount or an empty roster short-circuits with a single explanatory warning.
func GenerateInstructions(active []roster.Participant, lookup LookupFunc, amount int64, subject, body, realm string) Instructions {
	out := Instructions{ByFaction: make(map[Faction][]string)}

	if len(active) == 0 {
		out.Warnings = append(out.Warnings, "No active boosters to generate payments for.")
		return out
	}
	if amount <= 0 {
		out.Warnings = append(out.Warnings, "Gold per booster is 0 or less. No payment strings generated.")
		return out
	}

	// Spaces are stripped from both sides of the suffix check so a realm
	// like "Area 52" still matches a character already carrying it.
	compactRealm := strings.ReplaceAll(realm, " ", "")

	for _, p := range active {
		reg, ok := lookup(p.DiscordID)
		if !ok || reg.Character == "" || reg.Faction == "" {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("No Alt/Faction registered for ID `%s` (%s).", p.DiscordID, p.Name))
			out.PublicPings = append(out.PublicPings,
				fmt.Sprintf("<@%s> (%s): Needs to register Alt/Faction (e.g., use `/set-payment-character`).", p.DiscordID, p.Name))
			continue
		}

		var faction Faction
		switch strings.ToLower(reg.Faction) {
		case "horde":
			faction = FactionHorde
		case "alliance":
			faction = FactionAlliance
		default:
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("Unknown faction for ID `%s` (%s). Alt: %s, Faction: '%s'", p.DiscordID, p.Name, reg.Character, reg.Faction))
			out.PublicPings = append(out.PublicPings,
				fmt.Sprintf("<@%s> (%s): Faction '%s' for alt '%s' is not recognized. Please update (e.g., use `/set-payment-character`).", p.DiscordID, p.Name, reg.Faction, reg.Character))
			continue
		}

		character := reg.Character
		if !strings.Contains(strings.ReplaceAll(character, " ", ""), "-"+compactRealm) {
			character += "-" + realm
		}
		out.ByFaction[faction] = append(out.ByFaction[faction],
			fmt.Sprintf("%s:%d:%s:%s", character, amount, subject, body))
	}

	return out
}
