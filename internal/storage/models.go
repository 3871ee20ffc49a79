package storage

import "time"

// PaymentCharacter is a user's registered payment character. Keyed by
// Discord user ID; latest write wins.
type PaymentCharacter struct {
	DiscordUserID string
	CharacterName string
	Faction       string
	UpdatedAt     time.Time
}

// Booster is one active participant as recorded in a run log.
type Booster struct {
	Name      string `json:"name"`
	DiscordID string `json:"discord_id"`
}

// RunLog is the durable record of one completed payout computation.
// Append-only; never mutated or deleted.
type RunLog struct {
	ID                  int64
	RunDate             string
	WCLLink             string
	TotalGold           int64
	RaidLeaderCutPct    float64
	RaidLeaderShareGold float64
	GuildCutPct         float64
	GuildShareGold      float64
	GoldPerBooster      float64
	NumBoosters         int
	ActiveBoosters      []Booster
	BenchedPlayers      []string
	ProcessedByUserID   string
	ProcessedByUsername string
	TimestampUTC        time.Time
}
