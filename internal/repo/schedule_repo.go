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

// ScheduleRepo — репозиторий для работы с schedules.
type ScheduleRepo struct {
	pool *pgxpool.Pool
}

// NewScheduleRepo создаёт новый ScheduleRepo.
func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

// Create создаёт новый schedule.
func (r *ScheduleRepo) Create(ctx context.Context, schedule *domain.Schedule) error {
	stagesJSON, err := json.Marshal(schedule.Stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}
	configJSON, err := json.Marshal(schedule.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	query := `
		INSERT INTO schedules (id, name, pipeline, stages, config, cron_expr,
		                       interval_sec, timezone, enabled, next_due_at,
		                       created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.pool.Exec(ctx, query,
		schedule.ID,
		nullString(schedule.Name),
		schedule.Pipeline,
		stagesJSON,
		configJSON,
		nullString(schedule.CronExpr),
		nullInt(schedule.IntervalSec),
		schedule.Timezone,
		schedule.Enabled,
		schedule.NextDueAt,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// GetByID возвращает schedule по ID.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	query := `
		SELECT id, name, pipeline, stages, config, cron_expr, interval_sec,
		       timezone, enabled, next_due_at, last_run_at, last_run_id,
		       created_at, updated_at
		FROM schedules
		WHERE id = $1
	`
	return scanSchedule(r.pool.QueryRow(ctx, query, id))
}

// List возвращает список schedules с фильтрацией.
func (r *ScheduleRepo) List(ctx context.Context, filter ScheduleFilter) ([]domain.Schedule, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, name, pipeline, stages, config, cron_expr, interval_sec,
		       timezone, enabled, next_due_at, last_run_at, last_run_id,
		       created_at, updated_at
		FROM schedules
		WHERE ($1::text IS NULL OR pipeline = $1)
		  AND ($2::boolean IS NULL OR enabled = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.Pipeline),
		filter.Enabled,
		limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.Schedule
	for rows.Next() {
		schedule, err := scanScheduleFromRows(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *schedule)
	}
	return schedules, rows.Err()
}

// ListDue возвращает schedules, готовые к выполнению.
func (r *ScheduleRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Schedule, error) {
	query := `
		SELECT id, name, pipeline, stages, config, cron_expr, interval_sec,
		       timezone, enabled, next_due_at, last_run_at, last_run_id,
		       created_at, updated_at
		FROM schedules
		WHERE enabled = true
		  AND next_due_at IS NOT NULL
		  AND next_due_at <= $1
		ORDER BY next_due_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.Schedule
	for rows.Next() {
		schedule, err := scanScheduleFromRows(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *schedule)
	}
	return schedules, rows.Err()
}

// Update обновляет schedule.
func (r *ScheduleRepo) Update(ctx context.Context, schedule *domain.Schedule) error {
	stagesJSON, err := json.Marshal(schedule.Stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}
	configJSON, err := json.Marshal(schedule.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	query := `
		UPDATE schedules
		SET name = $2, stages = $3, config = $4, cron_expr = $5,
		    interval_sec = $6, timezone = $7, enabled = $8, next_due_at = $9,
		    last_run_at = $10, last_run_id = $11, updated_at = $12
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		schedule.ID,
		nullString(schedule.Name),
		stagesJSON,
		configJSON,
		nullString(schedule.CronExpr),
		nullInt(schedule.IntervalSec),
		schedule.Timezone,
		schedule.Enabled,
		schedule.NextDueAt,
		schedule.LastRunAt,
		nullString(schedule.LastRunID),
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет schedule.
func (r *ScheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEnabled включает/выключает schedule.
func (r *ScheduleRepo) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE schedules SET enabled = $2, updated_at = NOW() WHERE id = $1
	`, id, enabled)
	if err != nil {
		return fmt.Errorf("set enabled: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// ScheduleFilter — параметры фильтрации schedules.
type ScheduleFilter struct {
	Pipeline string
	Enabled  *bool
	Limit    int
	Offset   int
}

func scanSchedule(row pgx.Row) (*domain.Schedule, error) {
	var s domain.Schedule
	var name, cronExpr, lastRunID *string
	var intervalSec *int
	var stagesJSON, configJSON []byte

	err := row.Scan(
		&s.ID,
		&name,
		&s.Pipeline,
		&stagesJSON,
		&configJSON,
		&cronExpr,
		&intervalSec,
		&s.Timezone,
		&s.Enabled,
		&s.NextDueAt,
		&s.LastRunAt,
		&lastRunID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan schedule: %w", err)
	}

	applyScheduleNullables(&s, name, cronExpr, lastRunID, intervalSec)
	if err := unmarshalSchedulePayload(&s, stagesJSON, configJSON); err != nil {
		return nil, err
	}

	return &s, nil
}

func scanScheduleFromRows(rows pgx.Rows) (*domain.Schedule, error) {
	var s domain.Schedule
	var name, cronExpr, lastRunID *string
	var intervalSec *int
	var stagesJSON, configJSON []byte

	err := rows.Scan(
		&s.ID,
		&name,
		&s.Pipeline,
		&stagesJSON,
		&configJSON,
		&cronExpr,
		&intervalSec,
		&s.Timezone,
		&s.Enabled,
		&s.NextDueAt,
		&s.LastRunAt,
		&lastRunID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan schedule: %w", err)
	}

	applyScheduleNullables(&s, name, cronExpr, lastRunID, intervalSec)
	if err := unmarshalSchedulePayload(&s, stagesJSON, configJSON); err != nil {
		return nil, err
	}

	return &s, nil
}

func applyScheduleNullables(s *domain.Schedule, name, cronExpr, lastRunID *string, intervalSec *int) {
	if name != nil {
		s.Name = *name
	}
	if cronExpr != nil {
		s.CronExpr = *cronExpr
	}
	if lastRunID != nil {
		s.LastRunID = *lastRunID
	}
	if intervalSec != nil {
		s.IntervalSec = *intervalSec
	}
}

func unmarshalSchedulePayload(s *domain.Schedule, stagesJSON, configJSON []byte) error {
	if stagesJSON != nil {
		if err := json.Unmarshal(stagesJSON, &s.Stages); err != nil {
			return fmt.Errorf("unmarshal stages: %w", err)
		}
	}
	if configJSON != nil {
		if err := json.Unmarshal(configJSON, &s.Config); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
	}
	return nil
}
