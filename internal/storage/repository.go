package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite"
)

var (
	// ErrUnavailable is returned by every operation while the repository is
	// in degraded mode (the backend never came up).
	ErrUnavailable = errors.New("storage backend unavailable")

	// ErrNotFound is returned when a point lookup matches no record.
	ErrNotFound = errors.New("record not found")
)

// Repository handles all database operations.
type Repository struct {
	mu    sync.RWMutex
	db    *sql.DB
	ready bool
}

// Open creates a repository backed by SQLite at dbPath. The connection is
// attempted under a bounded exponential backoff capped at maxWait; if it
// never succeeds the repository is returned in degraded mode together with
// the final error, and every operation reports ErrUnavailable. Callers can
// check Ready before attempting persistence.
func Open(dbPath string, maxWait time.Duration) (*Repository, error) {
	repo := &Repository{}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return repo, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return repo, fmt.Errorf("failed to open database: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxWait
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := db.Ping(); err != nil {
			slog.Warn("Database not reachable, retrying", "attempt", attempt, "error", err)
			return err
		}
		return nil
	}, policy)
	if err != nil {
		db.Close()
		return repo, fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
	}

	repo.db = db
	if err := repo.migrate(); err != nil {
		db.Close()
		return repo, fmt.Errorf("failed to run migrations: %w", err)
	}

	repo.ready = true
	return repo, nil
}

// Ready reports whether the backend is usable. False means degraded mode:
// the bot keeps serving commands but refuses persistence operations.
func (r *Repository) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}

// Close closes the database connection.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = false
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// migrate creates the database schema
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS payment_characters (
			discord_user_id TEXT PRIMARY KEY,
			character_name TEXT NOT NULL,
			faction TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS run_logs (
			log_id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_date TEXT NOT NULL,
			wcl_link TEXT NOT NULL,
			total_gold INTEGER NOT NULL,
			raid_leader_cut_percentage REAL NOT NULL,
			raid_leader_share_gold REAL NOT NULL,
			guild_cut_percentage REAL NOT NULL,
			guild_share_gold REAL NOT NULL,
			gold_per_booster REAL NOT NULL,
			num_boosters INTEGER NOT NULL,
			active_boosters TEXT NOT NULL DEFAULT '[]',
			benched_players TEXT NOT NULL DEFAULT '[]',
			processed_by_user_id TEXT NOT NULL,
			processed_by_username TEXT NOT NULL,
			timestamp_utc TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_logs_timestamp ON run_logs(timestamp_utc)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

func (r *Repository) guard() error {
	if !r.Ready() {
		return ErrUnavailable
	}
	return nil
}

// Payment character operations

// UpsertPaymentCharacter creates or replaces a user's payment character.
func (r *Repository) UpsertPaymentCharacter(ctx context.Context, pc *PaymentCharacter) error {
	if err := r.guard(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_characters (discord_user_id, character_name, faction, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(discord_user_id) DO UPDATE SET
		 	character_name = excluded.character_name,
		 	faction = excluded.faction,
		 	updated_at = excluded.updated_at`,
		pc.DiscordUserID, pc.CharacterName, pc.Faction, time.Now().UTC(),
	)
	return err
}

// GetPaymentCharacter finds a user's payment character by Discord user ID.
func (r *Repository) GetPaymentCharacter(ctx context.Context, discordUserID string) (*PaymentCharacter, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	pc := &PaymentCharacter{}
	err := r.db.QueryRowContext(ctx,
		`SELECT discord_user_id, character_name, faction, updated_at
		 FROM payment_characters WHERE discord_user_id = ?`,
		discordUserID,
	).Scan(&pc.DiscordUserID, &pc.CharacterName, &pc.Faction, &pc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return pc, nil
}

// ListPaymentCharacters returns every registered payment character.
func (r *Repository) ListPaymentCharacters(ctx context.Context) ([]PaymentCharacter, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT discord_user_id, character_name, faction, updated_at FROM payment_characters`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chars []PaymentCharacter
	for rows.Next() {
		var pc PaymentCharacter
		if err := rows.Scan(&pc.DiscordUserID, &pc.CharacterName, &pc.Faction, &pc.UpdatedAt); err != nil {
			return nil, err
		}
		chars = append(chars, pc)
	}

	return chars, rows.Err()
}

// Run log operations

// InsertRunLog appends one run log record. The booster and benched lists are
// stored as JSON.
func (r *Repository) InsertRunLog(ctx context.Context, entry *RunLog) error {
	if err := r.guard(); err != nil {
		return err
	}

	activeJSON, err := json.Marshal(entry.ActiveBoosters)
	if err != nil {
		return fmt.Errorf("failed to encode active boosters: %w", err)
	}
	benchedJSON, err := json.Marshal(entry.BenchedPlayers)
	if err != nil {
		return fmt.Errorf("failed to encode benched players: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO run_logs (
			run_date, wcl_link, total_gold,
			raid_leader_cut_percentage, raid_leader_share_gold,
			guild_cut_percentage, guild_share_gold,
			gold_per_booster, num_boosters,
			active_boosters, benched_players,
			processed_by_user_id, processed_by_username, timestamp_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunDate, entry.WCLLink, entry.TotalGold,
		entry.RaidLeaderCutPct, entry.RaidLeaderShareGold,
		entry.GuildCutPct, entry.GuildShareGold,
		entry.GoldPerBooster, entry.NumBoosters,
		string(activeJSON), string(benchedJSON),
		entry.ProcessedByUserID, entry.ProcessedByUsername,
		entry.TimestampUTC.UTC(),
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

// ListRunLogs returns all run logs in insertion order. Records whose JSON
// list columns fail to decode are rejected rather than passed through
// half-populated.
func (r *Repository) ListRunLogs(ctx context.Context) ([]RunLog, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT log_id, run_date, wcl_link, total_gold,
		        raid_leader_cut_percentage, raid_leader_share_gold,
		        guild_cut_percentage, guild_share_gold,
		        gold_per_booster, num_boosters,
		        active_boosters, benched_players,
		        processed_by_user_id, processed_by_username, timestamp_utc
		 FROM run_logs ORDER BY log_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []RunLog
	for rows.Next() {
		var (
			entry       RunLog
			activeJSON  string
			benchedJSON string
		)
		if err := rows.Scan(
			&entry.ID, &entry.RunDate, &entry.WCLLink, &entry.TotalGold,
			&entry.RaidLeaderCutPct, &entry.RaidLeaderShareGold,
			&entry.GuildCutPct, &entry.GuildShareGold,
			&entry.GoldPerBooster, &entry.NumBoosters,
			&activeJSON, &benchedJSON,
			&entry.ProcessedByUserID, &entry.ProcessedByUsername, &entry.TimestampUTC,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(activeJSON), &entry.ActiveBoosters); err != nil {
			return nil, fmt.Errorf("run log %d has malformed active_boosters: %w", entry.ID, err)
		}
		if err := json.Unmarshal([]byte(benchedJSON), &entry.BenchedPlayers); err != nil {
			return nil, fmt.Errorf("run log %d has malformed benched_players: %w", entry.ID, err)
		}
		logs = append(logs, entry)
	}

	return logs, rows.Err()
}
