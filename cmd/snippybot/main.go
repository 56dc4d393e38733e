package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snippymart/whatsapp-bot/pkg/admin"
	"github.com/snippymart/whatsapp-bot/pkg/bot"
	"github.com/snippymart/whatsapp-bot/pkg/catalog"
	"github.com/snippymart/whatsapp-bot/pkg/config"
	"github.com/snippymart/whatsapp-bot/pkg/dedup"
	"github.com/snippymart/whatsapp-bot/pkg/generate"
	"github.com/snippymart/whatsapp-bot/pkg/hours"
	"github.com/snippymart/whatsapp-bot/pkg/metrics"
	"github.com/snippymart/whatsapp-bot/pkg/outbound"
	redisclient "github.com/snippymart/whatsapp-bot/pkg/redis"
	"github.com/snippymart/whatsapp-bot/pkg/router"
	"github.com/snippymart/whatsapp-bot/pkg/session"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	logger.WithField("instance_id", cfg.InstanceID).Info("Starting SnippyMart dispatch service")

	m := metrics.NewMetrics()

	windows, err := hours.ParseWindows(cfg.HoursWindows)
	if err != nil {
		logger.WithError(err).Fatal("Invalid business hours configuration")
	}
	gate := hours.NewGate(windows)

	var dd dedup.Deduplicator
	if cfg.RedisURL != "" {
		rdb, err := redisclient.Connect(cfg.RedisURL, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer rdb.Close()
		dd = dedup.NewRedisStore(rdb, cfg.DedupTTL(), logger)
	} else {
		dd = dedup.NewMemoryStore(cfg.DedupTTL(), cfg.DedupSweepInterval(), logger)
	}

	sessions := session.NewMemoryStore(logger)
	cat := catalog.NewService(catalog.NewHTTPClient(cfg.CatalogURL, logger, m), cfg.CatalogRefresh(), logger)
	gen := generate.NewHTTPClient(cfg.GenerateURL, logger, m)
	out := outbound.NewDispatcher(outbound.NewHTTPTransport(cfg.OutboundURL, cfg.OutboundToken, m), logger, m)
	console := admin.NewConsole(cfg.CommandPrefix, sessions, cat, gate, out, logger, m)
	rt := router.New(cfg, sessions, dd, gate, cat, gen, out, console, logger, m)

	service := bot.NewService(cfg, rt, sessions, dd, gate, cat, logger, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := service.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start service")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := service.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error during service shutdown")
	}

	logger.Info("Dispatch service shutdown complete")
}
