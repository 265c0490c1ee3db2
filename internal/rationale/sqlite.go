package rationale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/HendryAvila/designflow/internal/logging"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLiteConfig configures a SQLiteLog.
type SQLiteConfig struct {
	// DataDir holds rationale.db. Empty keeps the database in memory, so
	// nothing outlives the process.
	DataDir string
}

// SQLiteLog is a Log backed by SQLite.
type SQLiteLog struct {
	db     *sql.DB
	logger *logging.Logger
	hooks  logHooks
}

type logHooks struct {
	beginTx func(ctx context.Context, db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func defaultLogHooks() logHooks {
	return logHooks{
		beginTx: func(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
			return db.BeginTx(ctx, nil)
		},
		commit: func(tx *sql.Tx) error {
			return tx.Commit()
		},
	}
}

// NewSQLiteLog opens (creating if needed) the rationale database and runs
// migrations.
func NewSQLiteLog(cfg SQLiteConfig, logger *logging.Logger) (*SQLiteLog, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	dsn := ":memory:"
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("rationale: create data dir: %w", err)
		}
		dsn = filepath.Join(cfg.DataDir, "rationale.db")
	}

	db, err := openDB("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("rationale: open database: %w", err)
	}
	// Every pooled connection to :memory: would be a separate database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("rationale: pragma %q: %w", p, err)
		}
	}

	l := &SQLiteLog{db: db, logger: logger.Named("rationale"), hooks: defaultLogHooks()}
	if err := l.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("rationale: migration: %w", err)
	}
	l.logger.Debug(context.Background(), "rationale log opened", zap.String("dsn", dsn))
	return l, nil
}

// Close closes the underlying database connection.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

func (l *SQLiteLog) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS rationales (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT    NOT NULL UNIQUE,
			session_id TEXT    NOT NULL,
			phase_id   TEXT    NOT NULL,
			created_at TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_rationales_session ON rationales(session_id, seq);

		CREATE TABLE IF NOT EXISTS rationale_records (
			id           TEXT    PRIMARY KEY,
			rationale_id TEXT    NOT NULL REFERENCES rationales(id),
			kind         TEXT    NOT NULL,
			statement    TEXT    NOT NULL,
			position     INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_records_rationale ON rationale_records(rationale_id, position);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Append stores r and its records in one transaction.
func (l *SQLiteLog) Append(ctx context.Context, r Rationale) error {
	if r.SessionID == "" {
		return errors.New("rationale: session id is required")
	}

	tx, err := l.hooks.beginTx(ctx, l.db)
	if err != nil {
		return fmt.Errorf("rationale: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rationales (id, session_id, phase_id, created_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.SessionID, r.PhaseID, r.Timestamp.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("rationale: insert rationale: %w", err)
	}

	for i, rec := range r.Records() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rationale_records (id, rationale_id, kind, statement, position) VALUES (?, ?, ?, ?, ?)`,
			rec.ID, r.ID, string(rec.Kind), rec.Statement, i,
		); err != nil {
			return fmt.Errorf("rationale: insert record: %w", err)
		}
	}

	if err := l.hooks.commit(tx); err != nil {
		l.logger.Warn(ctx, "rationale commit failed", zap.String("rationale.id", r.ID), zap.Error(err))
		return fmt.Errorf("rationale: commit: %w", err)
	}
	return nil
}

// List returns the session's rationale in append order.
func (l *SQLiteLog) List(ctx context.Context, sessionID string) ([]Rationale, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT r.id, r.phase_id, r.created_at, rec.id, rec.kind, rec.statement
		FROM rationales r
		LEFT JOIN rationale_records rec ON rec.rationale_id = r.id
		WHERE r.session_id = ?
		ORDER BY r.seq, rec.position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("rationale: list: %w", err)
	}
	defer rows.Close()

	var out []Rationale
	for rows.Next() {
		var (
			id, phaseID, createdAt string
			recID, kind, statement sql.NullString
		)
		if err := rows.Scan(&id, &phaseID, &createdAt, &recID, &kind, &statement); err != nil {
			return nil, fmt.Errorf("rationale: scan: %w", err)
		}

		if len(out) == 0 || out[len(out)-1].ID != id {
			ts, err := time.Parse(time.RFC3339Nano, createdAt)
			if err != nil {
				return nil, fmt.Errorf("rationale: parse timestamp %q: %w", createdAt, err)
			}
			out = append(out, Rationale{ID: id, SessionID: sessionID, PhaseID: phaseID, Timestamp: ts})
		}
		if !recID.Valid {
			continue
		}

		cur := &out[len(out)-1]
		rec := Record{ID: recID.String, Kind: Kind(kind.String), Statement: statement.String}
		switch rec.Kind {
		case KindDecision:
			cur.Decisions = append(cur.Decisions, rec)
		case KindAssumption:
			cur.Assumptions = append(cur.Assumptions, rec)
		case KindAlternative:
			cur.Alternatives = append(cur.Alternatives, rec)
		case KindRisk:
			cur.Risks = append(cur.Risks, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rationale: rows: %w", err)
	}
	return out, nil
}
