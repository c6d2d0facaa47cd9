package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iliyamo/room-reservation/internal/config"
	"github.com/iliyamo/room-reservation/internal/logger"
	"github.com/iliyamo/room-reservation/internal/queue"
)

// booking-consumer appends every booking event to <EVENT_LOG_DIR>/booking.log.
func main() {
	cfg := config.LoadEventsConfig()
	zl, err := logger.New(cfg.IsProd(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zl.Info("booking consumer starting", zap.String("log_dir", cfg.LogDir))
	err = queue.StartBookingConsumer(ctx, cfg.RabbitURL, cfg.LogDir, zl)
	if err != nil && !errors.Is(err, context.Canceled) {
		zl.Fatal("booking consumer stopped", zap.Error(err))
	}
	zl.Info("booking consumer stopped")
}
