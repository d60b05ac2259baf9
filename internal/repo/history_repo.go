package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Pipedeck/internal/domain"
)

// HistoryRepo — репозиторий истории запусков панели.
type HistoryRepo struct {
	pool *pgxpool.Pool
}

// NewHistoryRepo создаёт новый HistoryRepo.
func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

// Create создаёт запись о попытке запуска.
func (r *HistoryRepo) Create(ctx context.Context, rec *domain.RunRecord) error {
	stagesJSON, err := json.Marshal(rec.Stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}

	query := `
		INSERT INTO run_history (id, experiment_id, run_id, pipeline, stages,
		                         status, error, started_at, finished_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.pool.Exec(ctx, query,
		rec.ID,
		rec.ExperimentID,
		nullString(rec.RunID),
		rec.Pipeline,
		stagesJSON,
		rec.Status,
		nullString(rec.Error),
		rec.StartedAt,
		rec.FinishedAt,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

// SetRunID записывает run id, присвоенный backend.
func (r *HistoryRepo) SetRunID(ctx context.Context, id uuid.UUID, runID string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE run_history SET run_id = $2 WHERE id = $1`, id, runID)
	if err != nil {
		return fmt.Errorf("set run id: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Finalize записывает терминальный статус и время завершения.
func (r *HistoryRepo) Finalize(ctx context.Context, id uuid.UUID, status domain.RunStatus, errText string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE run_history
		SET status = $2, error = $3, finished_at = NOW()
		WHERE id = $1
	`, id, status, nullString(errText))
	if err != nil {
		return fmt.Errorf("finalize run record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает запись по ID.
func (r *HistoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.RunRecord, error) {
	query := `
		SELECT id, experiment_id, run_id, pipeline, stages, status, error,
		       started_at, finished_at, created_at
		FROM run_history
		WHERE id = $1
	`
	return r.scanRecord(r.pool.QueryRow(ctx, query, id))
}

// List возвращает записи истории с фильтрацией.
func (r *HistoryRepo) List(ctx context.Context, filter HistoryFilter) ([]domain.RunRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, experiment_id, run_id, pipeline, stages, status, error,
		       started_at, finished_at, created_at
		FROM run_history
		WHERE ($1::text IS NULL OR pipeline = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.Pipeline),
		nullString(string(filter.Status)),
		limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list run history: %w", err)
	}
	defer rows.Close()

	var records []domain.RunRecord
	for rows.Next() {
		rec, err := r.scanRecordFromRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// HistoryFilter — параметры фильтрации истории запусков.
type HistoryFilter struct {
	Pipeline string
	Status   domain.RunStatus
	Limit    int
	Offset   int
}

func (r *HistoryRepo) scanRecord(row pgx.Row) (*domain.RunRecord, error) {
	var rec domain.RunRecord
	var runID, errText *string
	var stagesJSON []byte
	var finishedAt *time.Time

	err := row.Scan(
		&rec.ID,
		&rec.ExperimentID,
		&runID,
		&rec.Pipeline,
		&stagesJSON,
		&rec.Status,
		&errText,
		&rec.StartedAt,
		&finishedAt,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run record: %w", err)
	}

	if runID != nil {
		rec.RunID = *runID
	}
	if errText != nil {
		rec.Error = *errText
	}
	rec.FinishedAt = finishedAt
	if stagesJSON != nil {
		if err := json.Unmarshal(stagesJSON, &rec.Stages); err != nil {
			return nil, fmt.Errorf("unmarshal stages: %w", err)
		}
	}

	return &rec, nil
}

func (r *HistoryRepo) scanRecordFromRows(rows pgx.Rows) (*domain.RunRecord, error) {
	var rec domain.RunRecord
	var runID, errText *string
	var stagesJSON []byte
	var finishedAt *time.Time

	err := rows.Scan(
		&rec.ID,
		&rec.ExperimentID,
		&runID,
		&rec.Pipeline,
		&stagesJSON,
		&rec.Status,
		&errText,
		&rec.StartedAt,
		&finishedAt,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan run record: %w", err)
	}

	if runID != nil {
		rec.RunID = *runID
	}
	if errText != nil {
		rec.Error = *errText
	}
	rec.FinishedAt = finishedAt
	if stagesJSON != nil {
		if err := json.Unmarshal(stagesJSON, &rec.Stages); err != nil {
			return nil, fmt.Errorf("unmarshal stages: %w", err)
		}
	}

	return &rec, nil
}

// --- Helpers ---

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt(i int) *int {
	if i == 0 {
		return nil
	}
	return &i
}
