package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/traffick-desk/backend/internal/config"
	"github.com/traffick-desk/backend/internal/db"
	"github.com/traffick-desk/backend/internal/dispatch"
	"github.com/traffick-desk/backend/internal/models"
	"github.com/traffick-desk/backend/internal/repositories"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	ticketRepo := repositories.NewTicketRepo(pool)
	coordinator := dispatch.NewCoordinator(ticketRepo, cfg, log)

	log.Info("worker started",
		zap.Duration("sweep_interval", cfg.SweepInterval),
		zap.Duration("sweep_min_age", cfg.SweepMinAge),
	)

	sweepTicker := time.NewTicker(cfg.SweepInterval)
	defer sweepTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			sweepStuckDispatches(ctx, ticketRepo, coordinator, cfg, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

// sweepStuckDispatches re-enqueues approved tickets that never reached a
// terminal state, e.g. because the process died mid-dispatch. Submit takes
// the durable dispatch claim first, so a ticket still in flight in any
// process (including the api) is skipped until its claim expires.
func sweepStuckDispatches(ctx context.Context, ticketRepo *repositories.TicketRepo, coordinator *dispatch.Coordinator, cfg *config.Config, log *zap.Logger) {
	tickets, err := ticketRepo.ListByStatusOlderThan(ctx, models.TicketStatusApprovedForDispatch, cfg.SweepMinAge)
	if err != nil {
		log.Error("failed to list stuck tickets", zap.Error(err))
		return
	}

	for _, t := range tickets {
		log.Info("re-enqueueing stuck ticket", zap.String("ticket_id", t.ID.String()))
		if _, err := coordinator.Submit(ctx, t.ID); err != nil {
			// Someone else may have driven it terminal in the meantime.
			if errors.Is(err, dispatch.ErrInvalidState) || errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			log.Error("failed to re-enqueue ticket", zap.String("ticket_id", t.ID.String()), zap.Error(err))
		}
	}
}
