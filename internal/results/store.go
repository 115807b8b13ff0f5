package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stellarlinkco/benchkit/internal/harness"
)

const (
	DefaultSQLitePath = "data/benchkit.db"
	defaultListLimit  = 50
)

// ErrNotFound reports a run id with no stored row.
var ErrNotFound = errors.New("results: run not found")

// Store persists benchmark runs to SQLite.
type Store struct {
	db *sql.DB
}

// Run is one persisted benchmark run.
type Run struct {
	ID        int64            `json:"id"`
	Topic     string           `json:"topic"`
	Provider  string           `json:"provider"`
	Model     string           `json:"model"`
	Shots     int              `json:"shots"`
	Total     int              `json:"total"`
	Correct   int              `json:"correct"`
	Accuracy  float64          `json:"accuracy"`
	LatencyMs int64            `json:"latency_ms"`
	Answers   []harness.Answer `json:"answers,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func NewStore(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("results: empty db path")
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("results: create db dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("results: open db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("results: ping db: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("results: nil db")
	}

	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS benchmark_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			topic TEXT NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			shots INTEGER NOT NULL,
			total INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			latency_ms INTEGER NOT NULL,
			answers BLOB NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_benchmark_runs_topic ON benchmark_runs(topic)`,
		`CREATE INDEX IF NOT EXISTS idx_benchmark_runs_model_topic ON benchmark_runs(model, topic)`,
		`CREATE INDEX IF NOT EXISTS idx_benchmark_runs_created_at ON benchmark_runs(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("results: init schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveReport stores a finished harness report and returns its run ID.
func (s *Store) SaveReport(ctx context.Context, report *harness.Report) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("results: nil store")
	}
	if ctx == nil {
		return 0, errors.New("results: nil context")
	}
	if report == nil {
		return 0, errors.New("results: nil report")
	}

	topic := strings.TrimSpace(report.Topic)
	provider := strings.TrimSpace(report.Provider)
	if topic == "" || provider == "" {
		return 0, errors.New("results: missing topic/provider")
	}
	model := strings.TrimSpace(report.Model)
	if model == "" {
		model = "default"
	}

	answers, err := json.Marshal(report.Answers)
	if err != nil {
		return 0, fmt.Errorf("results: encode answers: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO benchmark_runs (
			topic, provider, model, shots, total, correct, accuracy, latency_ms, answers, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, topic, provider, model, report.Shots, report.Total, report.Correct,
		report.Accuracy, report.TotalTime.Milliseconds(), answers, time.Now().UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("results: insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("results: last insert id: %w", err)
	}
	return id, nil
}

// GetRun loads one run with its per-question answers.
func (s *Store) GetRun(ctx context.Context, id int64) (*Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("results: nil store")
	}
	if ctx == nil {
		return nil, errors.New("results: nil context")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, topic, provider, model, shots, total, correct, accuracy, latency_ms, answers, created_at
		FROM benchmark_runs
		WHERE id = ?
	`, id)

	var r Run
	var answers []byte
	var createdMS int64
	err := row.Scan(&r.ID, &r.Topic, &r.Provider, &r.Model, &r.Shots, &r.Total,
		&r.Correct, &r.Accuracy, &r.LatencyMs, &answers, &createdMS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("results: scan run: %w", err)
	}

	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &r.Answers); err != nil {
			return nil, fmt.Errorf("results: decode answers: %w", err)
		}
	}
	r.CreatedAt = time.UnixMilli(createdMS).UTC()
	return &r, nil
}

// ListRuns returns recent runs, newest first, without per-question answers.
func (s *Store) ListRuns(ctx context.Context, topic string, limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("results: nil store")
	}
	if ctx == nil {
		return nil, errors.New("results: nil context")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, topic, provider, model, shots, total, correct, accuracy, latency_ms, created_at
		FROM benchmark_runs`
	args := []any{}
	if topic = strings.TrimSpace(topic); topic != "" {
		query += ` WHERE topic = ?`
		args = append(args, topic)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("results: query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// Leaderboard ranks runs for a topic by accuracy.
func (s *Store) Leaderboard(ctx context.Context, topic string, limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("results: nil store")
	}
	if ctx == nil {
		return nil, errors.New("results: nil context")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errors.New("results: empty topic")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic, provider, model, shots, total, correct, accuracy, latency_ms, created_at
		FROM benchmark_runs
		WHERE topic = ?
		ORDER BY accuracy DESC, latency_ms ASC, created_at DESC
		LIMIT ?
	`, topic, limit)
	if err != nil {
		return nil, fmt.Errorf("results: query leaderboard: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var out []Run
	for rows.Next() {
		var r Run
		var createdMS int64
		if err := rows.Scan(&r.ID, &r.Topic, &r.Provider, &r.Model, &r.Shots,
			&r.Total, &r.Correct, &r.Accuracy, &r.LatencyMs, &createdMS); err != nil {
			return nil, fmt.Errorf("results: scan run: %w", err)
		}
		r.CreatedAt = time.UnixMilli(createdMS).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("results: scan rows: %w", err)
	}
	return out, nil
}
