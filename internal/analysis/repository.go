package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/umebot/insight/internal/contracts"
)

// ErrRunNotFound is returned by RunRepository.Get for an unknown run id
var ErrRunNotFound = errors.New("analysis run not found")

// Run statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RunRecord is one persisted analysis run
type RunRecord struct {
	ID         string
	StartDate  time.Time
	EndDate    time.Time
	Status     string
	Error      string
	Duration   time.Duration
	Report     *contracts.AnalysisReport
	FinishedAt time.Time
}

// RunStore persists analysis runs
type RunStore interface {
	Save(ctx context.Context, run RunRecord) error
	Get(ctx context.Context, id string) (*RunRecord, error)
}

// DB is the subset of pgxpool.Pool the run repository needs
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RunRepository stores runs in analytics.analysis_runs
type RunRepository struct {
	db DB
}

// NewRunRepository creates a run repository over a pgx pool
func NewRunRepository(db DB) *RunRepository {
	return &RunRepository{db: db}
}

var _ RunStore = (*RunRepository)(nil)

// Save upserts a run by id
func (r *RunRepository) Save(ctx context.Context, run RunRecord) error {
	report, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	query := `
		INSERT INTO analytics.analysis_runs
			(id, start_date, end_date, status, error, duration_ms, report, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			duration_ms = EXCLUDED.duration_ms,
			report = EXCLUDED.report,
			finished_at = EXCLUDED.finished_at`

	_, err = r.db.Exec(ctx, query,
		run.ID, run.StartDate, run.EndDate, run.Status, run.Error,
		run.Duration.Milliseconds(), report, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save analysis run %s: %w", run.ID, err)
	}
	return nil
}

// Get loads a run by id
func (r *RunRepository) Get(ctx context.Context, id string) (*RunRecord, error) {
	query := `
		SELECT id, start_date, end_date, status, error, duration_ms, report, finished_at
		FROM analytics.analysis_runs
		WHERE id = $1`

	var (
		run        RunRecord
		durationMs int64
		report     []byte
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.StartDate, &run.EndDate, &run.Status, &run.Error,
		&durationMs, &report, &run.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis run %s: %w", id, err)
	}

	run.Duration = time.Duration(durationMs) * time.Millisecond
	if len(report) > 0 && string(report) != "null" {
		run.Report = &contracts.AnalysisReport{}
		if err := json.Unmarshal(report, run.Report); err != nil {
			return nil, fmt.Errorf("decode report of run %s: %w", id, err)
		}
	}
	return &run, nil
}
