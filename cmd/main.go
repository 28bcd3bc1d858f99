// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/config"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/database"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/handler"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/logger"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/repository"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/service"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/telemetry"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/tools"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/weather"
)

func main() {
	ctx := context.Background()

	// ── 1. Configuration, logging, tracing ───────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logg, err := logger.New(cfg.App.LogLevel, cfg.App.LogFormat, cfg.App.Name)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	shutdownTracing, err := telemetry.Init(ctx, cfg.OTel, cfg.App.Environment)
	if err != nil {
		logg.Fatal("telemetry init failed", zap.Error(err))
	}

	// ── 2. Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.Database, logg)
	if err != nil {
		logg.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()
	logg.Info("connected to postgres", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			logg.Fatal("schema migration failed", zap.Error(err))
		}
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	roomRepo := repository.NewRoomRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	hotelSvc := service.NewHotelService(roomRepo, bookingRepo, logg)
	toolkit := tools.New(hotelSvc, weather.NewClient(cfg.Weather, logg), logg)
	hotelHandler := handler.NewHotelHandler(toolkit, func(ctx context.Context) error {
		return database.HealthCheck(ctx, pool)
	}, logg)

	// Booking submits replay their first response when Redis is available.
	var idempotent func(http.Handler) http.Handler
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logg.Warn("redis unreachable, idempotency keys will be ignored until it recovers", zap.Error(err))
		}
		idempotent = handler.NewIdempotency(rdb, cfg.Redis.IdempotencyTTL, logg).Middleware
	}

	// ── 4. Build the router ──────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger(logg))    // structured access log
	r.Use(handler.CORS)            // permissive CORS for the chat page
	r.Use(handler.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, logg).Middleware)
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))

	hotelHandler.Routes(r, handler.RequireAdmin(cfg.Admin.JWTSecret), idempotent)

	// ── 5. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	go func() {
		logg.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server error", zap.Error(err))
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logg.Warn("tracer shutdown failed", zap.Error(err))
	}
	logg.Info("server stopped")
}
