package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Pipedeck/internal/domain"
	"github.com/shaiso/Pipedeck/internal/mq"
	"github.com/shaiso/Pipedeck/internal/remote"
)

// Executor — операция запуска пайплайна на backend.
// Реализуется remote.Client.
type Executor interface {
	Execute(ctx context.Context, req remote.ExecuteRequest) (*remote.ExecuteResponse, error)
}

// ScheduleStore — хранилище расписаний. Реализуется repo.ScheduleRepo.
type ScheduleStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Schedule, error)
	Update(ctx context.Context, sched *domain.Schedule) error
}

// HistoryStore — хранилище истории запусков. Может быть nil.
type HistoryStore interface {
	Create(ctx context.Context, rec *domain.RunRecord) error
}

// Scheduler — планировщик, обрабатывающий due schedules.
//
// Schedule хранит замороженный payload запуска (пайплайн, этапы,
// конфигурацию); планировщик отправляет его на backend как есть.
// Fire-and-forget: планировщик не опрашивает статус запущенного —
// история фиксирует попытку, актуальный статус живёт на backend.
type Scheduler struct {
	scheduleRepo ScheduleStore
	historyRepo  HistoryStore
	backend      Executor
	publisher    *mq.Publisher
	logger       *slog.Logger
	batchSize    int
}

// Config — конфигурация Scheduler.
type Config struct {
	ScheduleRepo ScheduleStore
	HistoryRepo  HistoryStore // опционально
	Backend      Executor
	Publisher    *mq.Publisher // опционально
	Logger       *slog.Logger
	BatchSize    int // количество schedules за один тик (default: 100)
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		scheduleRepo: cfg.ScheduleRepo,
		historyRepo:  cfg.HistoryRepo,
		backend:      cfg.Backend,
		publisher:    cfg.Publisher,
		logger:       logger,
		batchSize:    batchSize,
	}
}

// Tick выполняет один тик планировщика.
//
// 1. Находит due schedules (enabled=true, next_due_at <= now)
// 2. Для каждого schedule отправляет execute на backend
// 3. Обновляет next_due_at
// 4. Публикует run.started (если publisher настроен)
//
// Ошибки одного schedule не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := time.Now()

	schedules, err := s.scheduleRepo.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}

	if len(schedules) == 0 {
		return nil
	}

	s.logger.Debug("found due schedules", "count", len(schedules))

	var processed, started int
	for i := range schedules {
		sched := &schedules[i]

		runStarted, err := s.processSchedule(ctx, sched, now)
		if err != nil {
			s.logger.Error("failed to process schedule",
				"schedule_id", sched.ID,
				"schedule_name", sched.Name,
				"error", err,
			)
			// Продолжаем обработку остальных
			continue
		}

		processed++
		if runStarted {
			started++
		}
	}

	s.logger.Info("scheduler tick completed",
		"due", len(schedules),
		"processed", processed,
		"runs_started", started,
	)

	return nil
}

// processSchedule обрабатывает один schedule.
// Возвращает true, если backend принял запуск.
func (s *Scheduler) processSchedule(ctx context.Context, sched *domain.Schedule, now time.Time) (bool, error) {
	// Experiment id детерминирован по schedule и слоту времени:
	// повтор тика для того же слота даёт backend шанс дедуплицировать.
	experimentID := fmt.Sprintf("sched_%s_%d", sched.ID, sched.NextDueAt.Unix())

	rec := &domain.RunRecord{
		ID:           uuid.New(),
		ExperimentID: experimentID,
		Pipeline:     sched.Pipeline,
		Stages:       sched.Stages,
		Status:       domain.RunStatusPending,
		StartedAt:    now,
		CreatedAt:    now,
	}

	resp, err := s.backend.Execute(ctx, remote.ExecuteRequest{
		Pipeline: sched.Pipeline,
		Stages:   sched.Stages,
		Config:   sched.Config,
		Metadata: remote.ExecuteMetadata{ExperimentID: experimentID},
	})
	if err != nil {
		return false, fmt.Errorf("execute pipeline: %w", err)
	}

	runStarted := resp.Error == ""
	if runStarted {
		rec.RunID = resp.PipelineID
		if resp.Status != "" {
			rec.Status = resp.Status
		}

		s.logger.Info("started run from schedule",
			"run_id", resp.PipelineID,
			"schedule_id", sched.ID,
			"schedule_name", sched.Name,
			"pipeline", sched.Pipeline,
		)
	} else {
		rec.Finalize(domain.RunStatusError, resp.Error)

		s.logger.Warn("backend rejected scheduled run",
			"schedule_id", sched.ID,
			"pipeline", sched.Pipeline,
			"error", resp.Error,
		)
	}

	if s.historyRepo != nil {
		if err := s.historyRepo.Create(ctx, rec); err != nil {
			// История вторична: запуск уже отправлен
			s.logger.Warn("failed to record scheduled run",
				"schedule_id", sched.ID,
				"error", err,
			)
		}
	}

	// Вычисляем следующее время выполнения
	nextDue, err := CalculateNextDue(sched, now)
	if err != nil {
		s.logger.Error("failed to calculate next due, leaving schedule as is",
			"schedule_id", sched.ID,
			"error", err,
		)
		return runStarted, nil
	}

	sched.RecordRun(resp.PipelineID, nextDue)
	if err := s.scheduleRepo.Update(ctx, sched); err != nil {
		return runStarted, fmt.Errorf("update schedule: %w", err)
	}

	if s.publisher != nil && runStarted {
		if err := s.publisher.PublishRunStarted(ctx, resp.PipelineID, sched.Pipeline, experimentID); err != nil {
			// Не фатальная ошибка — запуск уже отправлен
			s.logger.Warn("failed to publish run.started",
				"run_id", resp.PipelineID,
				"error", err,
			)
		}
	}

	return runStarted, nil
}
