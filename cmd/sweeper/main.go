// The sweeper refunds jobs abandoned by crashed or redeployed api instances.
// It claims jobs stuck in submitted or polling past the polling budget and
// returns their held credits.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"radiocore/internal/domain"
	"radiocore/internal/infra"
	"radiocore/internal/jobs"
	"radiocore/internal/ledger"
	"radiocore/internal/notify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fallbackLogger := infra.NewLogger("production")
		fallbackLogger.Fatal().Err(err).Msg("config load failed")
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("component", "sweeper").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connect failed")
	}
	defer pool.Close()

	sqlRunner := infra.NewSQLRunner(pool, logger)
	repo := jobs.NewRepository(sqlRunner, logger)
	credits := ledger.NewService(sqlRunner, logger)
	notifier := notify.NewNotifier(sqlRunner, logger)

	// A job is stale once it has outlived the whole polling budget plus
	// slack for persistence and the refund itself.
	staleAfter := cfg.PollInterval*time.Duration(cfg.PollMaxAttempts) + 5*time.Minute
	interval := time.Minute

	logger.Info().Dur("stale_after", staleAfter).Msg("sweeper running")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("sweeper stopped")
			return
		case <-ticker.C:
		}

		stale, err := repo.ClaimStale(ctx, staleAfter)
		if err != nil {
			logger.Error().Err(err).Msg("stale claim failed")
			continue
		}
		for _, job := range stale {
			balance, err := credits.Refund(ctx, job.UserID, job.Price, "refund: abandoned job", map[string]string{
				"reason": "timed_out",
				"detail": "abandoned by instance",
				"job_id": job.ID,
			})
			if err != nil {
				logger.Error().Err(err).Str("job_id", job.ID).Str("user_id", job.UserID).Msg("stale refund failed")
				continue
			}
			repo.SetState(ctx, job.ID, domain.StateRefunded, "", "abandoned by instance")
			notifier.CreditChange(ctx, job.UserID, job.Price, balance, "refund: abandoned job")
			logger.Info().Str("job_id", job.ID).Str("user_id", job.UserID).Int("price", job.Price).Msg("stale job refunded")
		}
	}
}
