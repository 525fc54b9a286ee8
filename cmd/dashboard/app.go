package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"prod-dashboard/internal/cache"
	"prod-dashboard/internal/config"
	"prod-dashboard/internal/mailer"
	"prod-dashboard/internal/service/alerting"
	"prod-dashboard/internal/service/dashboard"
	"prod-dashboard/internal/storage/mysql"
	"prod-dashboard/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type app struct {
	cfg       *config.Config
	log       *slog.Logger
	loc       *time.Location
	storage   *mysql.Storage
	cache     cache.Store
	metrics   *telemetry.Metrics
	dashboard *dashboard.Service
	notifier  *alerting.Notifier

	closeLog func()
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	const op = "main.newApp"

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log, closeLog := setupLogger(cfg.Env, cfg.ErrorLog)
	log = log.With(slog.String("env", cfg.Env), slog.String("version", version))

	loc, err := cfg.Reporting.TimeLocation()
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	storage, err := mysql.New(ctx, log, cfg.Database)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	store, err := cache.NewStore(ctx, cfg.Cache, log)
	if err != nil {
		// Кеш не обязателен, работаем без него
		log.Warn("cache unavailable, falling back to noop", slog.String("error", err.Error()))
		store = cache.Noop{}
	}

	metrics := telemetry.New()
	rules := alerting.Rules{
		UrgentWindowDays: cfg.Alerts.UrgentWindowDays,
		UrgentProgress:   cfg.Alerts.UrgentProgress,
	}

	svc := dashboard.New(log, storage, store, dashboard.Settings{
		NearTermWindowDays:  cfg.Reporting.NearTermWindowDays,
		ChargePeriodDays:    cfg.Reporting.ChargePeriodDays,
		HistoryLookbackDays: cfg.Reporting.HistoryLookbackDays,
		TopN:                cfg.Reporting.TopN,
		Location:            loc,
		Rules:               rules,
		CacheTTL:            cfg.Cache.TTL,
		Version:             version,
	})

	var sender alerting.Sender = alerting.LogSender{Log: log}
	if cfg.MailEnabled() {
		smtp, err := mailer.New(cfg.SMTP, cfg.Alerts.Recipients)
		if err != nil {
			storage.Close()
			store.Close()
			closeLog()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sender = smtp
	} else {
		log.Info("smtp not configured, alerts are only logged")
	}

	notifier := alerting.NewNotifier(log, svc, sender, metrics, alerting.Settings{
		Enabled:      cfg.Alerts.Enabled,
		Interval:     cfg.Alerts.Interval,
		RunWindow:    cfg.Alerts.RunWindow,
		Retention:    cfg.Alerts.Retention,
		Timeout:      cfg.HTTPServer.ExportTimeout,
		Completions:  cfg.Alerts.Completions,
		DailySummary: cfg.Alerts.DailySummary,
		Rules:        rules,
	})

	return &app{
		cfg:       cfg,
		log:       log,
		loc:       loc,
		storage:   storage,
		cache:     store,
		metrics:   metrics,
		dashboard: svc,
		notifier:  notifier,
		closeLog:  closeLog,
	}, nil
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		a.log.Warn("cache close failed", slog.String("error", err.Error()))
	}
	if err := a.storage.Close(); err != nil {
		a.log.Error("db close failed", slog.String("error", err.Error()))
	}
	a.closeLog()
}
