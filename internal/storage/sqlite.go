// Package storage provides SQLite-based persistence for gauntlet runs and
// the battles fought in them.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/gauntlet"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/runner"
)

// Store manages the SQLite database connection for run persistence.
type Store struct {
	db *sql.DB
}

// RunEntry represents a single finished run.
type RunEntry struct {
	ID          int64
	RunID       string
	GauntletID  string
	Policy      string // "human" for interactive play
	Seed        int64
	Outcome     core.Outcome
	Steps       int
	Battles     int
	Wins        int
	Progress    int
	NodeCount   int
	Survivors   int
	RosterSize  int
	TotalReward float64
	Duration    time.Duration
	CreatedAt   time.Time
}

// BattleEntry is a stored battle record.
type BattleEntry struct {
	ID int64
	gauntlet.BattleRecord
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	// Run migrations
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			gauntlet_id TEXT NOT NULL,
			policy TEXT NOT NULL,
			seed INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL,
			steps INTEGER NOT NULL DEFAULT 0,
			battles INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			progress INTEGER NOT NULL DEFAULT 0,
			node_count INTEGER NOT NULL DEFAULT 0,
			survivors INTEGER NOT NULL DEFAULT 0,
			roster_size INTEGER NOT NULL DEFAULT 0,
			total_reward REAL NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_gauntlet_id ON runs(gauntlet_id);
		CREATE INDEX IF NOT EXISTS idx_runs_top ON runs(gauntlet_id, progress DESC, total_reward DESC);

		CREATE TABLE IF NOT EXISTS battles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			battle_id TEXT NOT NULL UNIQUE,
			run_id TEXT NOT NULL,
			node_id TEXT NOT NULL,
			node_name TEXT NOT NULL DEFAULT '',
			trainer_index INTEGER NOT NULL DEFAULT 0,
			won INTEGER NOT NULL DEFAULT 0,
			truncated INTEGER NOT NULL DEFAULT 0,
			turns INTEGER NOT NULL DEFAULT 0,
			opponent_fainted INTEGER NOT NULL DEFAULT 0,
			deaths INTEGER NOT NULL DEFAULT 0,
			party_size INTEGER NOT NULL DEFAULT 0,
			reward REAL NOT NULL DEFAULT 0,
			sim_error TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_battles_run_id ON battles(run_id);
		CREATE INDEX IF NOT EXISTS idx_battles_node_id ON battles(node_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InsertRun records a finished run.
// Returns the ID of the inserted record.
func (s *Store) InsertRun(e RunEntry) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO runs
		 (run_id, gauntlet_id, policy, seed, outcome, steps, battles, wins, progress,
		  node_count, survivors, roster_size, total_reward, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.GauntletID, e.Policy, e.Seed, string(e.Outcome),
		e.Steps, e.Battles, e.Wins, e.Progress,
		e.NodeCount, e.Survivors, e.RosterSize, e.TotalReward, e.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// SaveRun implements runner.ResultSaver.
// This adapter allows the coordinator to save runs without direct storage dependency.
func (s *Store) SaveRun(r runner.RunResult) error {
	_, err := s.InsertRun(RunEntry{
		RunID:       r.RunID,
		GauntletID:  r.GauntletID,
		Policy:      r.Policy,
		Seed:        r.Seed,
		Outcome:     r.Outcome,
		Steps:       r.Steps,
		Battles:     r.Battles,
		Wins:        r.Wins,
		Progress:    r.Progress,
		NodeCount:   r.NodeCount,
		Survivors:   r.Survivors,
		RosterSize:  r.RosterSize,
		TotalReward: r.TotalReward,
		Duration:    r.Duration,
	})
	return err
}

// SaveBattles records the battles of a run in one transaction.
// Implements runner.ResultSaver.
func (s *Store) SaveBattles(records []gauntlet.BattleRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.Prepare(
		`INSERT INTO battles
		 (battle_id, run_id, node_id, node_name, trainer_index, won, truncated, turns,
		  opponent_fainted, deaths, party_size, reward, sim_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot prepare battle insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range records {
		var simErr sql.NullString
		if b.SimError != "" {
			simErr = sql.NullString{String: b.SimError, Valid: true}
		}
		if _, err := stmt.Exec(
			b.BattleID, b.RunID, b.NodeID, b.NodeName, b.TrainerIndex, b.Won, b.Truncated, b.Turns,
			b.OpponentFainted, b.Deaths, b.PartySize, b.Reward, simErr,
		); err != nil {
			return fmt.Errorf("storage: cannot save battle %s: %w", b.BattleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit battles: %w", err)
	}
	return nil
}

// Ensure Store implements ResultSaver
var _ runner.ResultSaver = (*Store)(nil)

const runColumns = `id, run_id, gauntlet_id, policy, seed, outcome, steps, battles, wins, progress,
	node_count, survivors, roster_size, total_reward, duration_ms, created_at`

// TopRuns retrieves the best N runs for the given gauntlet.
// Results are ordered by progress, then total reward, descending.
func (s *Store) TopRuns(gauntletID string, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+`
		 FROM runs
		 WHERE gauntlet_id = ?
		 ORDER BY progress DESC, total_reward DESC, id ASC
		 LIMIT ?`,
		gauntletID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	return scanRuns(rows)
}

// RecentRuns retrieves the most recent runs. An empty gauntletID covers
// every gauntlet.
func (s *Store) RecentRuns(gauntletID string, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+`
		 FROM runs
		 WHERE ? = '' OR gauntlet_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		gauntletID, gauntletID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	return scanRuns(rows)
}

// RunByID retrieves a run by its run ID. Returns nil if it does not exist.
func (s *Store) RunByID(runID string) (*RunEntry, error) {
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query run: %w", err)
	}
	entries, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func scanRuns(rows *sql.Rows) ([]RunEntry, error) {
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var outcome string
		var durationMS int64
		var createdAt any
		if err := rows.Scan(
			&e.ID, &e.RunID, &e.GauntletID, &e.Policy, &e.Seed, &outcome,
			&e.Steps, &e.Battles, &e.Wins, &e.Progress,
			&e.NodeCount, &e.Survivors, &e.RosterSize, &e.TotalReward, &durationMS, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Outcome = core.Outcome(outcome)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// BattlesForRun retrieves the battles of a run in the order they were fought.
func (s *Store) BattlesForRun(runID string) ([]BattleEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, battle_id, run_id, node_id, node_name, trainer_index, won, truncated, turns,
		        opponent_fainted, deaths, party_size, reward, sim_error, created_at
		 FROM battles
		 WHERE run_id = ?
		 ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query battles: %w", err)
	}
	defer rows.Close()

	var entries []BattleEntry
	for rows.Next() {
		var e BattleEntry
		var simErr sql.NullString
		var createdAt any
		if err := rows.Scan(
			&e.ID, &e.BattleID, &e.RunID, &e.NodeID, &e.NodeName, &e.TrainerIndex, &e.Won, &e.Truncated, &e.Turns,
			&e.OpponentFainted, &e.Deaths, &e.PartySize, &e.Reward, &simErr, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		if simErr.Valid {
			e.SimError = simErr.String
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// ClearRuns deletes all runs, and their battles, for the given gauntlet.
func (s *Store) ClearRuns(gauntletID string) error {
	_, err := s.db.Exec(
		`DELETE FROM battles WHERE run_id IN (SELECT run_id FROM runs WHERE gauntlet_id = ?)`,
		gauntletID,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot clear battles: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM runs WHERE gauntlet_id = ?", gauntletID); err != nil {
		return fmt.Errorf("storage: cannot clear runs: %w", err)
	}
	return nil
}

// GauntletStats contains aggregated statistics for a gauntlet.
type GauntletStats struct {
	GauntletID   string
	Runs         int
	Victories    int
	BestProgress int
	AvgProgress  float64
	AvgReward    float64
	LastPlayed   time.Time
}

// WinRate returns the share of runs that cleared the gauntlet.
func (g GauntletStats) WinRate() float64 {
	if g.Runs == 0 {
		return 0
	}
	return float64(g.Victories) / float64(g.Runs)
}

// GetGauntletStats retrieves aggregated statistics for a specific gauntlet.
func (s *Store) GetGauntletStats(gauntletID string) (*GauntletStats, error) {
	stats := &GauntletStats{GauntletID: gauntletID}

	var lastPlayed any
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(MAX(progress), 0), COALESCE(AVG(progress), 0), COALESCE(AVG(total_reward), 0),
		        MAX(created_at)
		 FROM runs WHERE gauntlet_id = ?`,
		string(core.OutcomeVictory), gauntletID,
	).Scan(&stats.Runs, &stats.Victories, &stats.BestProgress, &stats.AvgProgress, &stats.AvgReward, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get gauntlet stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)

	return stats, nil
}

// GetAllGauntletStats retrieves statistics for all gauntlets that have been played.
func (s *Store) GetAllGauntletStats() (map[string]*GauntletStats, error) {
	rows, err := s.db.Query(
		`SELECT gauntlet_id, COUNT(*),
		        SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		        MAX(progress), AVG(progress), AVG(total_reward), MAX(created_at)
		 FROM runs
		 GROUP BY gauntlet_id`,
		string(core.OutcomeVictory),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get all gauntlet stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*GauntletStats)
	for rows.Next() {
		var g GauntletStats
		var lastPlayed any
		if err := rows.Scan(&g.GauntletID, &g.Runs, &g.Victories, &g.BestProgress, &g.AvgProgress, &g.AvgReward, &lastPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		g.LastPlayed = parseTime(lastPlayed)
		stats[g.GauntletID] = &g
	}

	return stats, rows.Err()
}

// NodeStat aggregates the battles fought at one node of a gauntlet.
type NodeStat struct {
	NodeID       string
	NodeName     string
	TrainerIndex int
	Battles      int
	Wins         int
	Deaths       int
	AvgTurns     float64
}

// NodeStats retrieves per-node battle statistics for a gauntlet, in
// gauntlet order.
func (s *Store) NodeStats(gauntletID string) ([]NodeStat, error) {
	rows, err := s.db.Query(
		`SELECT b.node_id, MAX(b.node_name), MIN(b.trainer_index), COUNT(*),
		        SUM(b.won), SUM(b.deaths), AVG(b.turns)
		 FROM battles b
		 JOIN runs r ON r.run_id = b.run_id
		 WHERE r.gauntlet_id = ?
		 GROUP BY b.node_id
		 ORDER BY MIN(b.trainer_index)`,
		gauntletID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query node stats: %w", err)
	}
	defer rows.Close()

	var out []NodeStat
	for rows.Next() {
		var n NodeStat
		if err := rows.Scan(&n.NodeID, &n.NodeName, &n.TrainerIndex, &n.Battles, &n.Wins, &n.Deaths, &n.AvgTurns); err != nil {
			return nil, fmt.Errorf("storage: cannot scan node row: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// parseTime handles both time.Time and string datetimes.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
