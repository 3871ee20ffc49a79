package payout

import (
	"errors"
	"math"
)

// ErrInvalidInput is returned when a split is requested for a non-positive
// pot or participant count.
var ErrInvalidInput = errors.New("total gold and participant count must be positive")

// Result is the outcome of one gold split. PerParticipantPrecise carries the
// exact share for display and logging (rounded to 2 decimals at the edges);
// PerParticipantMail is the truncated whole-gold amount used for in-game
// mail, which only accepts integer amounts. The fractional remainder is
// absorbed, not redistributed.
type Result struct {
	Total                 int64
	RaidLeaderCutPct      float64
	RaidLeaderShare       float64
	GuildCutPct           float64
	GuildShare            float64
	PerParticipantPrecise float64
	PerParticipantMail    int64
	ParticipantCount      int
}

// Compute splits a raid's gold pot three ways: raid-leader cut off the top,
// guild cut off the remainder, and an even share of what is left per active
// participant. The step order matters: each cut applies to the amount left
// by the previous one. Cut percentages of 0 disable that cut.
func Compute(total int64, raidLeaderCutPct, guildCutPct float64, participantCount int) (Result, error) {
	if total <= 0 || participantCount <= 0 {
		return Result{}, ErrInvalidInput
	}

	var raidLeaderShare float64
	actualRLPct := 0.0
	if raidLeaderCutPct > 0 {
		raidLeaderShare = float64(total) * raidLeaderCutPct
		actualRLPct = raidLeaderCutPct
	}

	remainingAfterRL := float64(total) - raidLeaderShare
	guildShare := remainingAfterRL * guildCutPct
	remainingForParticipants := remainingAfterRL - guildShare
	perParticipant := remainingForParticipants / float64(participantCount)

	return Result{
		Total:                 total,
		RaidLeaderCutPct:      actualRLPct,
		RaidLeaderShare:       raidLeaderShare,
		GuildCutPct:           guildCutPct,
		GuildShare:            guildShare,
		PerParticipantPrecise: perParticipant,
		PerParticipantMail:    int64(perParticipant),
		ParticipantCount:      participantCount,
	}, nil
}

// Round2 rounds a gold amount to 2 decimal places for display and logging.
// Mail amounts never use this; they truncate.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
