package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/room-reservation/internal/booking"
	"github.com/iliyamo/room-reservation/internal/chatbot"
	"github.com/iliyamo/room-reservation/internal/config"
	"github.com/iliyamo/room-reservation/internal/database"
	"github.com/iliyamo/room-reservation/internal/handler"
	"github.com/iliyamo/room-reservation/internal/logger"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/repository"
	"github.com/iliyamo/room-reservation/internal/router"
	"github.com/iliyamo/room-reservation/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.IsProd(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	store := repository.NewStore(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	identities := repository.NewIdentityRepo(db, users, cfg.BcryptCost)

	clock := booking.SystemClock{}
	manager := booking.NewManager(store, clock, zl.Named("booking"))
	catalog := booking.NewCatalog(store, clock)
	publisher := service.NewPublisher(cfg.RabbitURL, zl.Named("events"))

	rdb := config.NewRedisClient()
	var sessions chatbot.SessionStore
	if rdb != nil {
		defer rdb.Close()
		sessions = chatbot.NewRedisSessionStore(rdb, cfg.ChatSessionTTL)
	} else {
		zl.Warn("redis unreachable: chat sessions kept in memory, search cache off, local rate limits")
		sessions = chatbot.NewMemorySessionStore(cfg.ChatSessionTTL)
	}
	bot := chatbot.New(manager, catalog, identities, identities, sessions, publisher, zl.Named("chat"))

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLog(zl.Named("http")))

	search := []echo.MiddlewareFunc{
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, zl),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb, zl),
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, zl), cfg.JWTSecret)
	router.RegisterRooms(e, handler.NewRoomHandler(catalog, store, zl), cfg.JWTSecret, search...)
	router.RegisterBookings(e, handler.NewBookingHandler(manager, publisher, zl), cfg.JWTSecret)
	router.RegisterChat(e, handler.NewChatHandler(bot, zl), cfg.ChatToken)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
