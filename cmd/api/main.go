package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medleave/internal/config"
	"medleave/internal/database"
	"medleave/internal/domain/evidence"
	"medleave/internal/metrics"
	"medleave/internal/middleware"
	folioalloc "medleave/internal/modules/folio"
	"medleave/internal/modules/intake"
	jwtsvc "medleave/internal/pkg/jwt"
	"medleave/internal/pkg/logger"
	"medleave/internal/pkg/response"
	"medleave/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, database.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, log)
	if err != nil {
		return err
	}
	if err := repository.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	store, err := newEvidenceStore(ctx, cfg)
	if err != nil {
		return err
	}

	r := newRouter(cfg, db, store, log, metrics.New())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.AppEnv).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}

// newRouter wires the full HTTP stack: middleware, health, metrics and the
// authenticated intake API.
func newRouter(cfg *config.Config, db *gorm.DB, store evidence.Store, log zerolog.Logger, m *metrics.Metrics) *gin.Engine {
	tokens := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	allocator := folioalloc.NewAllocator(db, cfg.FolioMaxAttempts, log, m)
	intakeService := intake.NewService(db, allocator, log, m)
	intakeHandler := intake.NewHandler(intakeService, store, cfg.StagingDir, cfg.MaxUploadBytes, log)

	if cfg.ProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(log, m), middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/healthz", healthz(db))
	r.GET("/metrics", gin.WrapH(m.Handler()))

	v1 := r.Group("/api/v1")
	protected := v1.Group("/")
	protected.Use(middleware.JWTAuth(tokens))
	intakeHandler.RegisterRoutes(protected)

	return r
}

func newEvidenceStore(ctx context.Context, cfg *config.Config) (evidence.Store, error) {
	switch cfg.EvidenceBackend {
	case "s3":
		return evidence.NewS3Store(ctx, cfg.S3())
	default:
		return evidence.NewDiskStore(cfg.EvidenceDir), nil
	}
}

func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			response.Error(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unreachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
