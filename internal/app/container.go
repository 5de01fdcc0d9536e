// Package app assembles the application dependency graph.
package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	pgrepo "github.com/nbennett1978/vocab-trainer/internal/adapter/repository"
	"github.com/nbennett1978/vocab-trainer/internal/adapter/sessionstore"
	"github.com/nbennett1978/vocab-trainer/internal/infrastructure/config"
	"github.com/nbennett1978/vocab-trainer/internal/infrastructure/database"
	"github.com/nbennett1978/vocab-trainer/internal/infrastructure/logging"
	"github.com/nbennett1978/vocab-trainer/internal/repository"
	"github.com/nbennett1978/vocab-trainer/internal/scheduler"
	"github.com/nbennett1978/vocab-trainer/internal/usecase"
	"github.com/nbennett1978/vocab-trainer/pkg/answermatch"
)

// Container aggregates the wired application dependencies.
type Container struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Pool     *pgxpool.Pool
	Words    repository.WordRepository
	Sessions *usecase.SessionUsecase
	Stats    *usecase.StatsUsecase
}

// Initialize loads configuration, connects the database and wires the
// training engine. The returned cleanup closes the pool.
func Initialize() (*Container, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	pool, cleanup, err := database.NewConnection(cfg)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, nil, err
	}

	words := pgrepo.NewWordRepository(pool)
	progress := pgrepo.NewProgressRepository(pool)
	headers := pgrepo.NewSessionHeaderRepository(pool)
	statsRepo := pgrepo.NewStatsRepository(pool)
	store := sessionstore.NewMemoryStore()

	matcher := answermatch.New()
	if cfg.Training.AlmostThreshold > 0 {
		matcher.AlmostThreshold = cfg.Training.AlmostThreshold
	}

	sched := scheduler.New(words, progress, &cfg.Training, nil)
	stats := usecase.NewStatsUsecase(statsRepo, progress, logger)
	sessions := usecase.NewSessionUsecase(sched, matcher, store, headers, progress, words, stats, &cfg.Training, logger)

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Pool:     pool,
		Words:    words,
		Sessions: sessions,
		Stats:    stats,
	}, cleanup, nil
}
