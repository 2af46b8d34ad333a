package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"RiskOffRotator/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_snapshots (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp            INTEGER NOT NULL,
			as_of                INTEGER NOT NULL,
			trigger_type         TEXT,
			in_the_market        INTEGER,
			bear_signal          INTEGER,
			days_since_bear      INTEGER,
			bear_seen_in_window  INTEGER,
			metals               INTEGER,
			industrials          INTEGER,
			debt                 INTEGER,
			dollar               INTEGER,
			metals_days          INTEGER,
			industrials_days     INTEGER,
			debt_days            INTEGER,
			dollar_days          INTEGER,
			window_len           INTEGER,
			suspend_days         INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_ts ON signal_snapshots(timestamp)`,

		`CREATE TABLE IF NOT EXISTS rebalance_events (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp           INTEGER NOT NULL,
			request_id          TEXT NOT NULL,
			trigger_type        TEXT,
			allocation          TEXT,
			previous_allocation TEXT,
			switched            INTEGER,
			weights             TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rebalance_ts ON rebalance_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS evaluation_errors (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			trigger_type TEXT,
			stage        TEXT,
			message      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_errors_ts ON evaluation_errors(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSignal(snap *SignalSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sig := snap.Signal
	recent := make(map[string]model.ConditionState, len(sig.Conditions))
	for _, c := range sig.Conditions {
		recent[c.Name] = c
	}
	metals := recent[model.ConditionMetalsDown]
	industrials := recent[model.ConditionIndustrialsDown]
	debt := recent[model.ConditionCostOfDebtUp]
	dollar := recent[model.ConditionDollarUp]

	_, err := r.db.Exec(`INSERT INTO signal_snapshots
		(timestamp, as_of, trigger_type, in_the_market, bear_signal, days_since_bear, bear_seen_in_window,
		 metals, industrials, debt, dollar,
		 metals_days, industrials_days, debt_days, dollar_days,
		 window_len, suspend_days)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), sig.AsOf.Unix(), string(snap.Trigger),
		sig.InMarket(), sig.BearSignal, sig.DaysSinceBear, sig.BearSeenInWindow,
		metals.Recent, industrials.Recent, debt.Recent, dollar.Recent,
		metals.DaysSince, industrials.DaysSince, debt.DaysSince, dollar.DaysSince,
		sig.Window, sig.SuspendDays,
	)
	return err
}

func (r *SQLiteRecorder) RecordRebalance(evt *RebalanceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req := evt.Result.Request
	weights, err := json.Marshal(req.Weights)
	if err != nil {
		return fmt.Errorf("encode weights: %w", err)
	}
	_, err = r.db.Exec(`INSERT INTO rebalance_events
		(timestamp, request_id, trigger_type, allocation, previous_allocation, switched, weights)
		VALUES (?,?,?,?,?,?,?)`,
		req.RequestedAt.Unix(), req.ID, string(req.Trigger), req.Allocation,
		evt.Result.PreviousAllocation, evt.Result.Switched, string(weights),
	)
	return err
}

func (r *SQLiteRecorder) RecordError(evt *ErrorEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO evaluation_errors
		(timestamp, trigger_type, stage, message)
		VALUES (?,?,?,?)`,
		time.Now().Unix(), string(evt.Trigger), evt.Stage, evt.Message,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
