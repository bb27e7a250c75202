package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordpace/internal/adapter/httpapi"
	adapterrepo "github.com/eslsoft/wordpace/internal/adapter/repository"
	"github.com/eslsoft/wordpace/internal/infrastructure/config"
	"github.com/eslsoft/wordpace/internal/repository"
	"github.com/eslsoft/wordpace/internal/usecase"
)

// Server wires the repositories, usecases and HTTP surface together and owns
// the background job scheduler.
type Server struct {
	cfg    *config.Config
	logger *logrus.Logger
	echo   *echo.Echo
	jobs   *gocron.Scheduler

	progress repository.ProgressRepository
}

// New assembles a ready-to-start server on top of the given connection pool.
func New(cfg *config.Config, logger *logrus.Logger, pool *pgxpool.Pool) (*Server, error) {
	itemRepo := adapterrepo.NewItemRepository(pool)
	progressRepo := adapterrepo.NewProgressRepository(pool)
	attemptRepo := adapterrepo.NewAttemptRepository(pool)
	mistakeRepo := adapterrepo.NewMistakeRepository(pool)

	reviewCfg := usecase.DefaultReviewConfig()
	if cfg.Review.MinIntervalDays > 0 {
		reviewCfg.MinIntervalDays = cfg.Review.MinIntervalDays
	}
	if cfg.Review.MaxIntervalDays > 0 {
		reviewCfg.MaxIntervalDays = cfg.Review.MaxIntervalDays
	}
	if cfg.Review.ExpectedResponseMs > 0 {
		reviewCfg.ExpectedResponseMs = cfg.Review.ExpectedResponseMs
	}
	if cfg.Review.SlowRatio > 1 {
		reviewCfg.SlowRatio = cfg.Review.SlowRatio
	}

	review := usecase.NewReviewUsecase(itemRepo, progressRepo, attemptRepo, mistakeRepo, reviewCfg)
	session := usecase.NewSessionUsecase(progressRepo, attemptRepo)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(RequestLogger(logger))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	httpapi.NewHandler(review, session).Register(e.Group("/api/v1"))

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		echo:     e,
		jobs:     gocron.NewScheduler(time.UTC),
		progress: progressRepo,
	}
	if _, err := s.jobs.Every(1).Hour().Do(s.reportDueBacklog); err != nil {
		return nil, fmt.Errorf("schedule due backlog job: %w", err)
	}
	return s, nil
}

// Start runs the background jobs and serves HTTP until Shutdown.
func (s *Server) Start() error {
	s.jobs.StartAsync()
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.HTTPPort)
	s.logger.WithField("addr", addr).Info("http server listening")
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the job scheduler and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.jobs.Stop()
	return s.echo.Shutdown(ctx)
}

// reportDueBacklog logs how many records are currently waiting for review, a
// cheap signal for dashboards scraping the logs.
func (s *Server) reportDueBacklog() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := s.progress.CountDue(ctx, time.Now())
	if err != nil {
		s.logger.WithError(err).Warn("count due reviews")
		return
	}
	s.logger.WithField("due_count", count).Info("review backlog")
}
