package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"SignalDesk/internal/model"
)

// SQLiteRecorder persists evaluation history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the sweep writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			bar_time    INTEGER,
			asset       TEXT NOT NULL,
			symbol      TEXT,
			interval    TEXT NOT NULL,
			close       REAL,
			ema50       REAL,
			ema200      REAL,
			adx         REAL,
			adx_default INTEGER,
			rsi         REAL,
			stoch_k     REAL,
			stoch_d     REAL,
			lower_bb    REAL,
			upper_bb    REAL,
			signal      TEXT,
			confidence  INTEGER,
			score       INTEGER,
			reasons     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_ts ON signal_snapshots(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_asset ON signal_snapshots(asset, interval)`,

		`CREATE TABLE IF NOT EXISTS fetch_failures (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			asset     TEXT,
			interval  TEXT,
			source    TEXT,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_ts ON fetch_failures(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func (r *SQLiteRecorder) RecordSignal(a *model.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reasons, err := json.Marshal(a.Result.Reasons)
	if err != nil {
		return fmt.Errorf("encode reasons: %w", err)
	}

	var barTime any
	adxDefault := 0
	if a.Series != nil {
		if n := len(a.Series.Bars); n > 0 {
			barTime = a.Series.Bars[n-1].Time.Unix()
		}
		if a.Series.ADXFallback {
			adxDefault = 1
		}
	}

	row := a.Row
	_, err = r.db.Exec(`INSERT INTO signal_snapshots
		(timestamp, bar_time, asset, symbol, interval, close,
		 ema50, ema200, adx, adx_default, rsi, stoch_k, stoch_d, lower_bb, upper_bb,
		 signal, confidence, score, reasons)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.At.Unix(), barTime, a.Asset, a.Symbol, a.Interval, row.Close,
		nullable(row.EMA50), nullable(row.EMA200), nullable(row.ADX), adxDefault,
		nullable(row.RSI), nullable(row.StochK), nullable(row.StochD),
		nullable(row.LowerBB), nullable(row.UpperBB),
		string(a.Result.Signal), a.Result.Confidence, a.Result.Score, string(reasons),
	)
	return err
}

func (r *SQLiteRecorder) RecordFetchFailure(evt *FetchFailure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO fetch_failures
		(timestamp, asset, interval, source, error)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.Asset, evt.Interval, evt.Source, evt.Error,
	)
	return err
}

// Recent returns the latest evaluations for asset, newest first. An empty asset matches all.
func (r *SQLiteRecorder) Recent(asset string, limit int) ([]SignalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, asset, interval, close, signal, confidence, score, reasons
		FROM signal_snapshots
		WHERE (? = '' OR asset = ?)
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, asset, asset, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent signals: %w", err)
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var (
			rec     SignalRecord
			ts      int64
			signal  string
			reasons string
		)
		if err := rows.Scan(&ts, &rec.Asset, &rec.Interval, &rec.Close, &signal, &rec.Confidence, &rec.Score, &reasons); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		rec.At = time.Unix(ts, 0)
		rec.Signal = model.Direction(signal)
		if err := json.Unmarshal([]byte(reasons), &rec.Reasons); err != nil {
			return nil, fmt.Errorf("decode reasons: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
