// Package export flattens run logs into the spreadsheet CSV layout the
// guild's accounting sheet imports. The column order is a compatibility
// contract; do not reorder.
package export

import (
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/guildtools/raidpay-bot/internal/storage"
)

var runLogColumns = []string{
	"run_date",
	"wcl_link",
	"total_gold_run",
	"guild_share_run",
	"raid_leader_share_run",
	"gold_per_booster_run",
	"booster_name",
	"booster_discord_id",
	"is_benched_player_on_this_row",
	"run_processed_by",
	"run_timestamp_utc",
}

// RunLogsCSV renders all run logs as CSV, one row per (run, participant)
// pair: active boosters and benched players are zipped side by side, run
// summary fields appear only on each run's first row, and a blank row
// separates consecutive runs.
func RunLogsCSV(logs []storage.RunLog) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(runLogColumns); err != nil {
		return "", err
	}

	for idx, entry := range logs {
		rows := len(entry.ActiveBoosters)
		if len(entry.BenchedPlayers) > rows {
			rows = len(entry.BenchedPlayers)
		}
		if rows < 1 {
			rows = 1
		}

		for i := 0; i < rows; i++ {
			row := make([]string, len(runLogColumns))
			if i == 0 {
				row[0] = entry.RunDate
				row[1] = entry.WCLLink
				row[2] = strconv.FormatInt(entry.TotalGold, 10)
				row[3] = formatGold(entry.GuildShareGold)
				row[4] = formatGold(entry.RaidLeaderShareGold)
				row[5] = formatGold(entry.GoldPerBooster)
				row[9] = entry.ProcessedByUsername
				row[10] = entry.TimestampUTC.UTC().Format(time.RFC3339)
			}
			if i < len(entry.ActiveBoosters) {
				row[6] = entry.ActiveBoosters[i].Name
				row[7] = entry.ActiveBoosters[i].DiscordID
			}
			if i < len(entry.BenchedPlayers) {
				row[8] = entry.BenchedPlayers[i]
			}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}

		if len(logs) > 1 && idx < len(logs)-1 {
			if err := w.Write(make([]string, len(runLogColumns))); err != nil {
				return "", err
			}
		}
	}

	w.Flush()
	return sb.String(), w.Error()
}

func formatGold(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
