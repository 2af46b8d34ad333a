package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"RiskOffRotator/internal/metrics"
	"RiskOffRotator/internal/notifier"
	"RiskOffRotator/internal/portfolio"
	"RiskOffRotator/internal/recorder"
	"RiskOffRotator/internal/scheduler"
	"RiskOffRotator/internal/server"
)

func runCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler, HTTP endpoint and Telegram bot until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), *cfgPath)
		},
	}
}

func run(parent context.Context, cfgPath string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	log.Info().Msg("RiskOffRotator starting...")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	col, closeCache := buildCollector(ctx, cfg)
	defer closeCache()

	mgr, err := portfolio.NewManager(cfg.Portfolio.StateFile)
	if err != nil {
		return err
	}
	alloc, err := portfolio.NewAllocator(cfg.Allocations.Market, cfg.Allocations.Safe, mgr)
	if err != nil {
		return err
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	met := metrics.New(reg)

	var tn *notifier.TelegramNotifier
	var notify notifier.Notifier = notifier.Noop{}
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		notify = tn
	} else {
		log.Warn().Msg("telegram not configured, notifications disabled")
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	sched := scheduler.NewScheduler(ctx, scheduler.Options{
		Source:      col,
		Params:      cfg.StrategyParams(),
		Allocator:   alloc,
		Portfolio:   mgr,
		Notifier:    notify,
		Recorder:    rec,
		Metrics:     met,
		Location:    loc,
		TaskTimeout: cfg.Schedule.TaskTimeout,
	})
	if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.WeeklyCron, cfg.Schedule.RecordCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	var srv *server.Server
	if cfg.HTTP.Addr != "" {
		srv = server.New(cfg.HTTP.Addr, reg, sched, mgr)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Msg("http server stopped")
			}
		}()
	}

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, evaluating now")
		go sched.RunNow()
	}

	log.Info().Msg("RiskOffRotator is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Info().Msg("shutdown signal received, stopping...")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}
	return nil
}
