package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	telegramAdapter "scholarship-telegram-bot/internal/adapter/telegram"
	"scholarship-telegram-bot/internal/config"
	"scholarship-telegram-bot/internal/domain"
	"scholarship-telegram-bot/internal/infra/csvstore"
	"scholarship-telegram-bot/internal/infra/macrocrm"
	"scholarship-telegram-bot/internal/infra/memory"
	sqliteRepo "scholarship-telegram-bot/internal/infra/sqlite"
	"scholarship-telegram-bot/internal/logging"
	"scholarship-telegram-bot/internal/metrics"
	"scholarship-telegram-bot/internal/usecase"
)

type stores struct {
	apps   domain.ApplicationRepository
	users  domain.UserRepository
	funnel usecase.FunnelRepository
	stats  usecase.BroadcastStatRepository
	db     *sql.DB
}

func openStores(cfg config.Config) (stores, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		db, err := sqliteRepo.Open(cfg.SQLiteDSN)
		if err != nil {
			return stores{}, err
		}
		return stores{
			apps:   sqliteRepo.NewApplicationRepo(db),
			users:  sqliteRepo.NewUserRepo(db),
			funnel: sqliteRepo.NewFunnelRepo(db),
			stats:  sqliteRepo.NewBroadcastStatRepo(db),
			db:     db,
		}, nil
	case config.BackendMemory:
		return stores{
			apps:   memory.NewApplicationRepo(),
			users:  memory.NewUserRepo(),
			funnel: memory.NewFunnelRepo(),
			stats:  memory.NewBroadcastStatRepo(),
		}, nil
	default:
		apps, err := csvstore.NewApplicationRepo(cfg.CSVPath)
		if err != nil {
			return stores{}, err
		}
		return stores{
			apps:   apps,
			users:  memory.NewUserRepo(),
			funnel: memory.NewFunnelRepo(),
			stats:  memory.NewBroadcastStatRepo(),
		}, nil
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)

	st, err := openStores(cfg)
	if err != nil {
		logger.Error("storage init failed", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	if st.db != nil {
		defer st.db.Close()
	}
	logger.Info("storage ready", "backend", cfg.StorageBackend)

	m := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "addr", cfg.HTTPAddr, "error", err)
		}
	}()

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error("telegram bot init failed", "error", err)
		os.Exit(1)
	}
	bot.Debug = cfg.BotDebug
	logger.Info("authorized", "bot", bot.Self.UserName)

	steps := usecase.ScholarshipSteps()
	dialog := usecase.NewDialog(steps, st.apps, usecase.WithDialogLogger(logger))
	coord := usecase.NewCoordinator(dialog, logger)
	funnelUC := usecase.NewFunnelUsecase(st.funnel, steps)
	broadcastUC := usecase.NewBroadcastUsecase(st.users, telegramAdapter.NewSender(bot), st.stats)

	handler := telegramAdapter.NewHandler(bot, coord, st.apps, st.users, broadcastUC, cfg.AdminIDs, funnelUC, logger)
	handler.SetMetrics(m)
	handler.SetPolling(cfg.Workers, cfg.PollTimeout)
	if cfg.MacroCRM.Enabled() {
		handler.SetDelivery(macrocrm.NewClient(cfg.MacroCRM.Domain, cfg.MacroCRM.AppSecret,
			macrocrm.WithBaseURL(cfg.MacroCRM.BaseURL),
			macrocrm.WithAction(cfg.MacroCRM.Action),
		))
		logger.Info("crm delivery enabled", "domain", cfg.MacroCRM.Domain)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler.Run(ctx)
	logger.Info("bot stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
}
