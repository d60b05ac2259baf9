package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Pipedeck/internal/config"
	"github.com/shaiso/Pipedeck/internal/controller"
	"github.com/shaiso/Pipedeck/internal/remote"
	"github.com/shaiso/Pipedeck/internal/repo"
	"github.com/shaiso/Pipedeck/internal/selection"
)

// Handler — главный обработчик API с зависимостями.
//
// Панель обслуживает одно рабочее пространство: выбор, конфигурация
// и сессия запуска разделяются всеми клиентами API.
type Handler struct {
	backend      *remote.Client
	sel          *selection.State
	cfg          *config.State
	global       *config.Global
	ctrl         *controller.Controller
	historyRepo  *repo.HistoryRepo
	scheduleRepo *repo.ScheduleRepo
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Backend      *remote.Client
	Selection    *selection.State
	Configs      *config.State
	Global       *config.Global
	Controller   *controller.Controller
	HistoryRepo  *repo.HistoryRepo
	ScheduleRepo *repo.ScheduleRepo
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		backend:      cfg.Backend,
		sel:          cfg.Selection,
		cfg:          cfg.Configs,
		global:       cfg.Global,
		ctrl:         cfg.Controller,
		historyRepo:  cfg.HistoryRepo,
		scheduleRepo: cfg.ScheduleRepo,
		logger:       cfg.Logger,
	}
}

// ensureStageLoaded лениво подтягивает схему и дефолты этапа с backend.
//
// Схема кэшируется; дефолты сеются в рабочую конфигурацию только при
// первой загрузке (seed-once) — правки пользователя повторная загрузка
// не затирает.
func (h *Handler) ensureStageLoaded(ctx context.Context, stage string) error {
	if h.cfg.HasSchema(stage) {
		return nil
	}

	schema, err := h.backend.GetStageSchema(ctx, stage)
	if err != nil {
		return fmt.Errorf("load schema for stage %q: %w", stage, err)
	}
	h.cfg.SetSchema(stage, schema)

	defaults, err := h.backend.GetStageDefaults(ctx, stage)
	if err != nil {
		return fmt.Errorf("load defaults for stage %q: %w", stage, err)
	}
	h.cfg.SetDefaults(stage, defaults)

	return nil
}
