// Package store persists evaluation runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("run not found")

// fixed width so created_at sorts lexically
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const createTableSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	method TEXT NOT NULL DEFAULT '',
	method_param REAL,
	k_percent REAL,
	target_fpr REAL,
	samples INTEGER NOT NULL,
	failures INTEGER NOT NULL,
	threshold REAL,
	tpr REAL,
	precision REAL,
	recall REAL,
	f1 REAL,
	auc REAL,
	scores TEXT NOT NULL,
	labels TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

const selectColumns = `id, created_at, model, method, method_param, k_percent, target_fpr,
	samples, failures, threshold, tpr, precision, recall, f1, auc, scores, labels`

// Run is one calibrated evaluation of the detector over a labeled dataset.
// Non-finite metrics are stored as NULL and read back as NaN, except scores
// which read back as -Inf.
type Run struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Model       string    `json:"model"`
	Method      string    `json:"method"`
	MethodParam float64   `json:"method_param"`
	KPercent    float64   `json:"k_percent"`
	TargetFPR   float64   `json:"target_fpr"`
	Samples     int       `json:"samples"`
	Failures    int       `json:"failures"`
	Threshold   float64   `json:"threshold"`
	TPR         float64   `json:"tpr"`
	Precision   float64   `json:"precision"`
	Recall      float64   `json:"recall"`
	F1          float64   `json:"f1"`
	AUC         float64   `json:"auc"`
	Scores      []float64 `json:"scores"`
	Labels      []int     `json:"labels"`
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the run database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open run db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init run schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("run store opened")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun inserts run, assigning an ID and creation time when unset.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	scores, err := sonic.MarshalString(encodeScores(run.Scores))
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	labels, err := sonic.MarshalString(run.Labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO runs (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(timeFormat), run.Model, run.Method,
		nullable(run.MethodParam), nullable(run.KPercent), nullable(run.TargetFPR),
		run.Samples, run.Failures,
		nullable(run.Threshold), nullable(run.TPR),
		nullable(run.Precision), nullable(run.Recall), nullable(run.F1), nullable(run.AUC),
		scores, labels,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                                          Run
		createdAt, scores, labels                    string
		param, kPercent, fpr, thr, tpr, p, r, f1, au sql.NullFloat64
	)
	if err := row.Scan(&run.ID, &createdAt, &run.Model, &run.Method, &param, &kPercent, &fpr,
		&run.Samples, &run.Failures, &thr, &tpr, &p, &r, &f1, &au, &scores, &labels); err != nil {
		return Run{}, err
	}

	t, err := time.Parse(timeFormat, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	run.CreatedAt = t

	run.MethodParam = orNaN(param)
	run.KPercent = orNaN(kPercent)
	run.TargetFPR = orNaN(fpr)
	run.Threshold = orNaN(thr)
	run.TPR = orNaN(tpr)
	run.Precision = orNaN(p)
	run.Recall = orNaN(r)
	run.F1 = orNaN(f1)
	run.AUC = orNaN(au)

	var encoded []*float64
	if err := sonic.UnmarshalString(scores, &encoded); err != nil {
		return Run{}, fmt.Errorf("decode scores: %w", err)
	}
	run.Scores = decodeScores(encoded)
	if err := sonic.UnmarshalString(labels, &run.Labels); err != nil {
		return Run{}, fmt.Errorf("decode labels: %w", err)
	}
	return run, nil
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func encodeScores(scores []float64) []*float64 {
	out := make([]*float64, len(scores))
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		out[i] = &scores[i]
	}
	return out
}

func decodeScores(encoded []*float64) []float64 {
	out := make([]float64, len(encoded))
	for i, s := range encoded {
		if s == nil {
			out[i] = math.Inf(-1)
			continue
		}
		out[i] = *s
	}
	return out
}
