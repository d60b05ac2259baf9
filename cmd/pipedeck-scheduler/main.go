package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Pipedeck/internal/mq"
	"github.com/shaiso/Pipedeck/internal/remote"
	"github.com/shaiso/Pipedeck/internal/repo"
	"github.com/shaiso/Pipedeck/internal/scheduler"
	"github.com/shaiso/Pipedeck/internal/telemetry"
)

// Ключ advisory lock: среди нескольких экземпляров планировщика
// тики выполняет только лидер.
const schedLockKey int64 = 731031

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting pipedeck-scheduler")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	backendURL := os.Getenv("BACKEND_URL")
	if backendURL == "" {
		backendURL = "http://localhost:8000"
	}
	backend := remote.NewClient(backendURL)

	// RabbitMQ опционален
	var publisher *mq.Publisher
	if os.Getenv("AMQP_DISABLED") == "" {
		conn, err := mq.NewConnection(mq.DefaultURL(), logger)
		if err != nil {
			logger.Warn("rabbitmq unavailable, run events disabled", "error", err)
		} else {
			defer conn.Close()
			publisher = mq.NewPublisher(conn, logger)
			logger.Info("connected to rabbitmq")
		}
	}

	sched := scheduler.New(scheduler.Config{
		ScheduleRepo: repo.NewScheduleRepo(pool),
		HistoryRepo:  repo.NewHistoryRepo(pool),
		Backend:      backend,
		Publisher:    publisher,
		Logger:       logger,
	})

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// scheduler loop
	go func() {
		tk := time.NewTicker(1 * time.Second)
		defer tk.Stop()

		var hasLock bool
		defer func() {
			if hasLock {
				_, _ = pool.Exec(context.Background(), "select pg_advisory_unlock($1)", schedLockKey)
			}
		}()

		for {
			select {
			case <-tk.C:
				// пытаемся стать лидером (или подтвердить лидерство)
				var ok bool
				if !hasLock {
					if err := pool.QueryRow(ctx, "select pg_try_advisory_lock($1)", schedLockKey).Scan(&ok); err != nil {
						logger.Warn("advisory lock query failed", "error", err)
						continue
					}
					hasLock = ok
				}

				if !hasLock {
					// не лидер — пропускаем тик
					continue
				}

				if err := sched.Tick(ctx); err != nil {
					logger.Error("scheduler tick failed", "error", err)
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	// serve
	port := ":8081"
	if v := os.Getenv("SCHED_PORT"); v != "" {
		port = ":" + v
	}
	logger.Info("listening", "addr", port)
	if err := http.ListenAndServe(port, mux); err != nil {
		logger.Error("http server error", "error", err)
		cancel()
	}
}
