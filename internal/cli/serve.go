package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carelink/benefitlimits/internal/api"
	"github.com/carelink/benefitlimits/internal/config"
	"github.com/carelink/benefitlimits/internal/ingestion"
	"github.com/carelink/benefitlimits/internal/logging"
	"github.com/carelink/benefitlimits/internal/metrics"
	"github.com/carelink/benefitlimits/internal/repository"
	"github.com/carelink/benefitlimits/internal/utilization"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.LogLevel, cfg.LogPretty)
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	handler, db, err := buildServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

// buildServer opens the database, wires repositories and services, seeds
// an empty database from cfg.SeedDir and returns the router.
func buildServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, *sql.DB, error) {
	logger.Info().Str("db_path", cfg.DBPath).Msg("initializing database")
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("init db: %w", err)
	}

	// Create repositories.
	planRepo := repository.NewPlanRepo(db)
	claimRepo := repository.NewClaimRepo(db)
	findingRepo := repository.NewFindingRepo(db)
	importRepo := repository.NewImportRepo(db)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.NewPrometheus(reg, "benefitlimits")

	// Create services.
	utilSvc, err := utilization.NewService(planRepo, claimRepo, findingRepo, utilization.Config{
		Thresholds: cfg.Thresholds(),
		Logger:     logger,
		Metrics:    rec,
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	importSvc := ingestion.NewService(planRepo, claimRepo, importRepo, utilSvc, rec, logger)

	// Seed plans if DB is empty.
	count, err := planRepo.Count(ctx)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("count plans: %w", err)
	}
	if count == 0 {
		logger.Info().Str("seed_dir", cfg.SeedDir).Msg("database is empty, seeding plans")
		if err := seedPlans(ctx, importSvc, cfg.SeedDir, logger); err != nil {
			logger.Warn().Err(err).Msg("failed to seed plans")
		}
	} else {
		logger.Info().Int("plans", count).Msg("database already has plans, skipping seed")
	}

	router := api.NewRouter(planRepo, findingRepo, importSvc, utilSvc,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), logger)
	return router, db, nil
}

// seedPlans imports every plan file under dir/plans, then each
// dir/claims/<plan id>.csv.
func seedPlans(ctx context.Context, svc *ingestion.Service, dir string, logger zerolog.Logger) error {
	var planFiles []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, "plans", pattern))
		if err != nil {
			return err
		}
		planFiles = append(planFiles, matches...)
	}
	if len(planFiles) == 0 {
		return fmt.Errorf("no plan files in %s", filepath.Join(dir, "plans"))
	}

	for _, path := range planFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		res, err := svc.Import(ctx, data, ingestion.KindPlan, planFormat(path), "")
		if err != nil {
			return fmt.Errorf("seed %s: %w", path, err)
		}
		logger.Info().Str("file", path).Str("plan_id", res.PlanID).Int("limits", res.RecordsImported).Msg("seeded plan")
	}

	claimFiles, err := filepath.Glob(filepath.Join(dir, "claims", "*.csv"))
	if err != nil {
		return err
	}
	for _, path := range claimFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		planID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		res, err := svc.Import(ctx, data, ingestion.KindClaims, ingestion.FormatClaimsCSV, planID)
		if err != nil {
			return fmt.Errorf("seed %s: %w", path, err)
		}
		logger.Info().Str("file", path).Str("plan_id", planID).Int("claims", res.RecordsImported).Msg("seeded claims")
	}
	return nil
}
