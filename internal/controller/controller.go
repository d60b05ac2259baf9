package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Pipedeck/internal/config"
	"github.com/shaiso/Pipedeck/internal/domain"
	"github.com/shaiso/Pipedeck/internal/remote"
	"github.com/shaiso/Pipedeck/internal/selection"
	"github.com/shaiso/Pipedeck/internal/telemetry"
)

// Default configuration values.
const (
	defaultPollInterval   = 2 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

// Backend — операции backend, которые использует контроллер.
// Реализуется remote.Client; в тестах — скриптованной заглушкой.
type Backend interface {
	Validate(ctx context.Context, req remote.ValidateRequest) (*domain.ValidationResult, error)
	Execute(ctx context.Context, req remote.ExecuteRequest) (*remote.ExecuteResponse, error)
	GetStatus(ctx context.Context, runID string) (*domain.StatusSnapshot, error)
	Cancel(ctx context.Context, runID string) (*remote.CancelResponse, error)
}

// HistoryStore — хранилище истории запусков. Может быть nil.
type HistoryStore interface {
	Create(ctx context.Context, rec *domain.RunRecord) error
	SetRunID(ctx context.Context, id uuid.UUID, runID string) error
	Finalize(ctx context.Context, id uuid.UUID, status domain.RunStatus, errText string) error
}

// EventPublisher — публикация событий жизненного цикла запуска. Может быть nil.
type EventPublisher interface {
	PublishRunStarted(ctx context.Context, runID, pipeline, experimentID string) error
	PublishRunFinished(ctx context.Context, runID, pipeline string, status domain.RunStatus) error
}

// Controller — машина состояний validate → execute → poll → cancel.
//
// Контроллер читает Selection и Configuration, вызывает backend
// и владеет состоянием сессии (результат валидации, run id, статус,
// накопленные ошибки). Один экземпляр переживает несколько попыток
// запуска; каждый execute с новым run id перезапускает poll-цикл.
//
// Poll-цикл — единственный механизм наблюдения завершения: и обычного,
// и отмены. Cancel лишь просит backend перевести запуск в cancelled,
// а остановку цикла выполняет следующий тик, увидевший терминальный статус.
type Controller struct {
	backend Backend
	sel     *selection.State
	cfg     *config.State

	history HistoryStore   // nil-safe
	events  EventPublisher // nil-safe

	pollInterval   time.Duration
	requestTimeout time.Duration
	logger         *slog.Logger

	// Сессия и её блокировка.
	mu      sync.RWMutex
	session Session

	// recordID — запись истории текущей попытки (uuid.Nil, если нет).
	recordID uuid.UUID
	pipeline string // пайплайн текущей попытки, для событий и истории

	// Единственный слот активного poll-цикла: перед стартом нового
	// цикла и при teardown прежний останавливается. Утечка цикла —
	// это вечный опрос backend, поэтому дисциплина владения строгая.
	pollMu   sync.Mutex
	pollStop chan struct{}
	wg       sync.WaitGroup

	// Монотонный номер poll-запроса и номер последнего применённого
	// ответа: применяется только ответ новее применённого
	// (last-issued-wins, защита от затирания свежего статуса медленным
	// ответом).
	seq        uint64
	appliedSeq uint64
}

// Config — конфигурация Controller.
type Config struct {
	Backend   Backend
	Selection *selection.State
	Configs   *config.State

	History HistoryStore   // опционально
	Events  EventPublisher // опционально

	PollInterval   time.Duration // интервал опроса статуса (default: 2s)
	RequestTimeout time.Duration // таймаут одного запроса poll-цикла (default: 30s)
	Logger         *slog.Logger
}

// New создаёт новый Controller.
func New(cfg Config) *Controller {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		backend:        cfg.Backend,
		sel:            cfg.Selection,
		cfg:            cfg.Configs,
		history:        cfg.History,
		events:         cfg.Events,
		pollInterval:   pollInterval,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

// Session возвращает снимок состояния сессии.
func (c *Controller) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.session.clone()
}

// Validate отправляет текущий выбор и конфигурацию на валидацию.
//
// Требует только непустого имени пайплайна: требование "хотя бы один
// этап" обеспечивает UI, а не контроллер. Validate можно вызывать
// сколько угодно раз, независимо от execute.
//
// Транспортная ошибка добавляется в лог сессии и возвращается;
// структурированные ошибки валидации остаются в ValidationResult
// и в лог не попадают.
func (c *Controller) Validate(ctx context.Context) error {
	pipeline := c.sel.Pipeline()
	if pipeline == "" {
		return ErrNoPipeline
	}

	stages := c.sel.Stages()

	c.mu.Lock()
	c.session.ValidationInFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.session.ValidationInFlight = false
		c.mu.Unlock()
	}()

	result, err := c.backend.Validate(ctx, remote.ValidateRequest{
		Pipeline: pipeline,
		Stages:   stages,
		Config:   c.cfg.ConfigsFor(stages),
	})
	if err != nil {
		c.appendError(fmt.Sprintf("validation request failed: %v", err))
		return err
	}

	c.mu.Lock()
	c.session.ValidationResult = result
	c.mu.Unlock()

	c.logger.Info("validation completed",
		"pipeline", pipeline,
		"valid", result.Valid,
		"warnings", len(result.Warnings),
	)

	return nil
}

// Execute запускает пайплайн.
//
// Предварительной успешной валидации контроллер не требует — это
// ответственность UI. На каждый вызов генерируется свежий experiment id.
//
// Ответ backend с полем error означает отклонённый запуск: ошибка
// попадает в лог, run id не сохраняется, опрос не начинается.
// При успехе сохраняется run id и немедленно стартует poll-цикл.
func (c *Controller) Execute(ctx context.Context) error {
	pipeline := c.sel.Pipeline()
	if pipeline == "" {
		return ErrNoPipeline
	}

	stages := c.sel.Stages()
	experimentID := uuid.NewString()
	logger := telemetry.WithExperimentID(telemetry.WithPipeline(c.logger, pipeline), experimentID)

	c.mu.Lock()
	c.session.ExecutionInFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.session.ExecutionInFlight = false
		c.mu.Unlock()
	}()

	rec := &domain.RunRecord{
		ID:           uuid.New(),
		ExperimentID: experimentID,
		Pipeline:     pipeline,
		Stages:       stages,
		Status:       domain.RunStatusPending,
		StartedAt:    time.Now(),
		CreatedAt:    time.Now(),
	}
	if c.history != nil {
		if err := c.history.Create(ctx, rec); err != nil {
			// История вторична: её сбой не блокирует запуск.
			logger.Warn("failed to create history record", "error", err)
		}
	}

	resp, err := c.backend.Execute(ctx, remote.ExecuteRequest{
		Pipeline: pipeline,
		Stages:   stages,
		Config:   c.cfg.ConfigsFor(stages),
		Metadata: remote.ExecuteMetadata{ExperimentID: experimentID},
	})
	if err != nil {
		c.appendError(fmt.Sprintf("execution request failed: %v", err))
		c.finalizeHistory(rec.ID, domain.RunStatusError, err.Error())
		return err
	}

	if resp.Error != "" {
		c.appendError(resp.Error)
		c.finalizeHistory(rec.ID, domain.RunStatusError, resp.Error)
		logger.Warn("execution rejected by backend", "error", resp.Error)
		return nil
	}

	status := resp.Status
	if status == "" {
		status = domain.RunStatusPending
	}

	c.mu.Lock()
	c.session.RunID = resp.PipelineID
	c.session.Status = &domain.StatusSnapshot{Status: status}
	c.recordID = rec.ID
	c.pipeline = pipeline
	c.mu.Unlock()

	if c.history != nil {
		if err := c.history.SetRunID(ctx, rec.ID, resp.PipelineID); err != nil {
			logger.Warn("failed to record run id", "error", err)
		}
	}

	telemetry.IncRunStarted()
	if c.events != nil {
		if err := c.events.PublishRunStarted(ctx, resp.PipelineID, pipeline, experimentID); err != nil {
			logger.Warn("failed to publish run.started", "error", err)
		}
	}

	logger.Info("execution started", "run_id", resp.PipelineID, "stages", len(stages))

	c.startPolling(resp.PipelineID)
	return nil
}

// Cancel просит backend отменить текущий запуск.
//
// Run id читается из сессии в момент вызова, не из устаревшего
// замыкания. Без run id — no-op. Cancel не останавливает poll-цикл
// и не выставляет локальный статус: переход в cancelled наблюдает
// следующий тик опроса.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.RLock()
	runID := c.session.RunID
	c.mu.RUnlock()

	if runID == "" {
		return nil
	}

	resp, err := c.backend.Cancel(ctx, runID)
	if err != nil {
		c.appendError(fmt.Sprintf("cancel request failed: %v", err))
		return err
	}

	c.logger.Info("cancellation requested", "run_id", runID, "accepted", resp.Success)
	return nil
}

// ClearErrors очищает лог транспортных ошибок.
func (c *Controller) ClearErrors() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.Errors = nil
}

// Reset останавливает опрос и сбрасывает сессию в исходное состояние.
// После Reset контроллер готов к новой попытке.
func (c *Controller) Reset() {
	c.stopPolling()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = Session{}
	c.recordID = uuid.Nil
	c.pipeline = ""
}

// Close останавливает poll-цикл и дожидается его завершения.
// Обязателен при teardown: забытый цикл опрашивает backend вечно.
func (c *Controller) Close() {
	c.stopPolling()
	c.wg.Wait()
}

// --- Poll loop ---

// startPolling запускает poll-цикл для запуска runID.
// Прежний цикл (если был) останавливается первым: на контроллер
// допускается не более одного активного таймера.
func (c *Controller) startPolling(runID string) {
	c.pollMu.Lock()
	defer c.pollMu.Unlock()

	if c.pollStop != nil {
		close(c.pollStop)
	}

	stop := make(chan struct{})
	c.pollStop = stop

	c.wg.Add(1)
	go c.pollLoop(runID, stop)
}

// stopPolling останавливает активный poll-цикл, если он есть.
func (c *Controller) stopPolling() {
	c.pollMu.Lock()
	defer c.pollMu.Unlock()

	if c.pollStop != nil {
		close(c.pollStop)
		c.pollStop = nil
	}
}

// pollLoop опрашивает статус запуска с фиксированным периодом.
//
// Транспортная ошибка опроса логируется и НЕ попадает в лог сессии:
// цикл продолжает повторять запрос, терпя сетевые сбои неограниченно,
// пока не придёт терминальный статус или контроллер не остановят.
func (c *Controller) pollLoop(runID string, stop <-chan struct{}) {
	defer c.wg.Done()

	logger := telemetry.WithRunID(c.logger, runID)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		seq := c.nextSeq()
		telemetry.IncPollTick()

		ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
		snapshot, err := c.backend.GetStatus(ctx, runID)
		cancel()

		if err != nil {
			logger.Warn("status poll failed, will retry", "error", err)
			continue
		}

		if !c.applySnapshot(runID, seq, snapshot) {
			continue
		}

		if snapshot.Status.IsTerminal() {
			c.finalizeRun(runID, snapshot)
			return
		}
	}
}

// nextSeq выдаёт следующий номер poll-запроса.
func (c *Controller) nextSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	return c.seq
}

// applySnapshot применяет снимок статуса к сессии.
//
// Снимок отбрасывается, если:
//   - сессия уже относится к другому запуску (второй execute обогнал
//     медленный ответ старого цикла);
//   - ответ с меньшим номером пришёл позже уже применённого
//     (last-issued-wins).
func (c *Controller) applySnapshot(runID string, seq uint64, snapshot *domain.StatusSnapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.RunID != runID {
		telemetry.IncStaleSnapshot()
		return false
	}
	if seq <= c.appliedSeq {
		telemetry.IncStaleSnapshot()
		return false
	}

	c.appliedSeq = seq
	c.session.Status = snapshot
	return true
}

// finalizeRun завершает наблюдение запуска: метрики, история, событие.
// Вызывается из poll-цикла ровно один раз, на терминальном снимке.
func (c *Controller) finalizeRun(runID string, snapshot *domain.StatusSnapshot) {
	c.mu.Lock()
	recordID := c.recordID
	pipeline := c.pipeline
	c.recordID = uuid.Nil
	c.mu.Unlock()

	telemetry.IncRunFinished(string(snapshot.Status))

	c.logger.Info("run finished",
		"run_id", runID,
		"status", snapshot.Status,
		"elapsed_seconds", snapshot.ElapsedSeconds,
	)

	ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
	defer cancel()

	if recordID != uuid.Nil {
		c.finalizeHistoryCtx(ctx, recordID, snapshot.Status, snapshot.Error)
	}

	if c.events != nil {
		if err := c.events.PublishRunFinished(ctx, runID, pipeline, snapshot.Status); err != nil {
			c.logger.Warn("failed to publish run.finished", "run_id", runID, "error", err)
		}
	}
}

// appendError добавляет сообщение в лог транспортных ошибок сессии.
func (c *Controller) appendError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.Errors = append(c.session.Errors, msg)
}

func (c *Controller) finalizeHistory(id uuid.UUID, status domain.RunStatus, errText string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
	defer cancel()
	c.finalizeHistoryCtx(ctx, id, status, errText)
}

func (c *Controller) finalizeHistoryCtx(ctx context.Context, id uuid.UUID, status domain.RunStatus, errText string) {
	if c.history == nil || id == uuid.Nil {
		return
	}
	if err := c.history.Finalize(ctx, id, status, errText); err != nil {
		c.logger.Warn("failed to finalize history record", "record_id", id, "error", err)
	}
}
