package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shaiso/Pipedeck/internal/api"
	"github.com/shaiso/Pipedeck/internal/catalog"
	"github.com/shaiso/Pipedeck/internal/config"
	"github.com/shaiso/Pipedeck/internal/controller"
	"github.com/shaiso/Pipedeck/internal/mq"
	"github.com/shaiso/Pipedeck/internal/remote"
	"github.com/shaiso/Pipedeck/internal/repo"
	"github.com/shaiso/Pipedeck/internal/selection"
	"github.com/shaiso/Pipedeck/internal/telemetry"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipedeck_panel_http_requests_total",
		Help: "Total HTTP requests handled by pipedeck-panel",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting pipedeck-panel")

	// Backend, с которым работает панель
	backendURL := os.Getenv("BACKEND_URL")
	if backendURL == "" {
		backendURL = "http://localhost:8000"
	}
	backend := remote.NewClient(backendURL)

	// Загружаем каталог пайплайнов и этапов
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	listing, err := backend.ListStages(bootCtx)
	bootCancel()
	if err != nil {
		logger.Error("failed to load catalog from backend", "backend_url", backendURL, "error", err)
		os.Exit(1)
	}
	cat := catalog.New(listing.Pipelines, listing.Stages)
	logger.Info("catalog loaded", "pipelines", len(listing.Pipelines), "stages", len(listing.Stages))

	// Подключаемся к базе данных
	pool, err := repo.NewPool(context.Background())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	historyRepo := repo.NewHistoryRepo(pool)
	scheduleRepo := repo.NewScheduleRepo(pool)

	// RabbitMQ опционален: без него панель работает, события не публикуются
	var publisher *mq.Publisher
	if os.Getenv("AMQP_DISABLED") == "" {
		conn, err := mq.NewConnection(mq.DefaultURL(), logger)
		if err != nil {
			logger.Warn("rabbitmq unavailable, run events disabled", "error", err)
		} else {
			defer conn.Close()
			if err := mq.SetupTopology(context.Background(), conn); err != nil {
				logger.Warn("failed to setup mq topology", "error", err)
			}
			publisher = mq.NewPublisher(conn, logger)
			logger.Info("connected to rabbitmq")
		}
	}

	// Рабочее пространство панели
	sel := selection.NewState(cat)
	cfgState := config.NewState()
	global := config.NewGlobal()

	ctrlCfg := controller.Config{
		Backend:   backend,
		Selection: sel,
		Configs:   cfgState,
		History:   historyRepo,
		Logger:    logger,
	}
	if publisher != nil {
		ctrlCfg.Events = publisher
	}
	ctrl := controller.New(ctrlCfg)
	defer ctrl.Close()

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		Backend:      backend,
		Selection:    sel,
		Configs:      cfgState,
		Global:       global,
		Controller:   ctrl,
		HistoryRepo:  historyRepo,
		ScheduleRepo: scheduleRepo,
		Logger:       logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("PANEL_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
