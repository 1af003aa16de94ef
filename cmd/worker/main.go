package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rentaldesk/rentaldesk/internal/app"
	"github.com/rentaldesk/rentaldesk/internal/backend"
	"github.com/rentaldesk/rentaldesk/internal/events"
	"github.com/rentaldesk/rentaldesk/internal/feature"
	jobmetrics "github.com/rentaldesk/rentaldesk/internal/jobs"
	"github.com/rentaldesk/rentaldesk/internal/platform/cache"
	"github.com/rentaldesk/rentaldesk/internal/records"
	"github.com/rentaldesk/rentaldesk/internal/shared"
	"github.com/rentaldesk/rentaldesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	trigger := flag.Bool("trigger", false, "enqueue one event reminder scan and exit")
	metricsAddr := flag.String("metrics-addr", ":9091", "address serving worker metrics, empty to disable")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg).With(slog.String("process", "worker"))
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}

	if *trigger {
		if err := enqueueOnce(ctx, redisOpts, cfg); err != nil {
			logger.Error("enqueue reminders", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("event reminder scan enqueued")
		return
	}

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	if cfg.BackendServiceToken == "" {
		logger.Warn("BACKEND_SERVICE_TOKEN not set, event reminders will be skipped")
	}

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	eventsResource := backend.NewResource[records.Event](client, "events", feature.PathEvents)
	relay := events.NewRelay(redisClient, cfg.NotifyChannel, logger)
	reminderJob := jobs.NewEventReminderJob(eventsResource, relay, cfg.BackendServiceToken, cfg.ReminderWindow, logger, jobmetrics.NewMetrics(nil))
	reminderJob.Sent = shared.NewIdempotencyStore(redisClient)

	reminderTask, err := jobs.NewEventRemindersTask(jobs.EventRemindersPayload{})
	if err != nil {
		logger.Error("build reminder task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskEventReminders, Handler: reminderJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ReminderCron, Task: reminderTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("starting worker", slog.String("reminder_cron", cfg.ReminderCron), slog.Duration("reminder_window", cfg.ReminderWindow))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

func enqueueOnce(ctx context.Context, opts asynq.RedisClientOpt, cfg *app.Config) error {
	client, err := jobs.NewClient(opts)
	if err != nil {
		return err
	}
	defer client.Close()
	info, err := client.EnqueueEventReminders(ctx, jobs.EventRemindersPayload{
		WindowMinutes: int(cfg.ReminderWindow / time.Minute),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "enqueued %s (%s) on %s\n", info.ID, info.Type, info.Queue)
	return nil
}
