package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-insights/internal/config"
	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	appHTTP "github.com/cmlabs-hris/attendance-insights/internal/handler/http"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
	"github.com/cmlabs-hris/attendance-insights/internal/repository/cache"
	"github.com/cmlabs-hris/attendance-insights/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-insights/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-insights/internal/repository/sqlite"
	attendanceService "github.com/cmlabs-hris/attendance-insights/internal/service/attendance"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	attendanceRepo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	attendanceRepo = cache.NewAttendanceRepository(attendanceRepo, cfg.Store.CacheTTL)

	resolver, err := timezone.NewResolver(cfg.Organization.Timezone)
	if err != nil {
		return fmt.Errorf("timezone resolver: %w", err)
	}
	pipeline := attendanceService.NewPipeline(
		resolver,
		attendanceService.ShiftPolicy{
			ExpectedStart: cfg.ExpectedStart(),
			GracePeriod:   cfg.Organization.GracePeriod,
		},
		attendanceService.Aggregator{
			FullDayHours:  cfg.Organization.FullDayHours,
			ExpectedStart: cfg.ExpectedStart(),
		},
	)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, pipeline, attendanceService.Options{
		DefaultWindowDays: cfg.Organization.WindowDays,
	})
	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)

	router := appHTTP.NewRouter(
		JWTService,
		appHTTP.RouterOptions{
			Env:            cfg.App.Env,
			Version:        version,
			AllowedOrigins: cfg.App.AllowedOrigins,
		},
		attendanceHandler,
	)

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(attendanceRepo, pipeline).RegisterJobs(scheduler, cfg.Cron.AuditInterval)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "store", cfg.Store.Type, "timezone", resolver.Name())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore opens the raw attendance document store selected by STORE_TYPE
// and applies its migrations.
func openStore(ctx context.Context, cfg *config.Config) (attendance.RawAttendanceRepository, func(), error) {
	switch cfg.Store.Type {
	case config.StorePostgres:
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := database.MigratePostgreSQL(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return postgresql.NewAttendanceRepository(db), db.Close, nil
	case config.StoreSQLite:
		db, err := database.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return sqlite.NewAttendanceRepository(db), func() { _ = db.Close() }, nil
	case config.StoreMemory:
		slog.Warn("Using in-memory attendance store; data is lost on restart")
		return memory.NewAttendanceRepository(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store type: %s", cfg.Store.Type)
	}
}
