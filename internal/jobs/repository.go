// Package jobs records the durable trail of generation jobs. The pipeline
// itself runs in process; these rows exist so crashed instances can be swept
// and refunded, and state writes are therefore best effort on the hot path.
package jobs

import (
	"context"
	"fmt"
	"time"

	"radiocore/internal/domain"
	"radiocore/internal/infra"
	"radiocore/internal/sqlinline"
)

type Repository struct {
	SQL    infra.SQLExecutor
	Logger infra.Logger
}

func NewRepository(sql infra.SQLExecutor, logger infra.Logger) *Repository {
	return &Repository{SQL: sql, Logger: logger}
}

// Create inserts the job row. Called right after the credit hold so a stale
// sweep can always find the money.
func (r *Repository) Create(ctx context.Context, jobID, userID, provider string, price int) error {
	_, err := r.SQL.Exec(ctx, sqlinline.QInsertGenerationJob,
		jobID, userID, provider, "", string(domain.StateCreditHeld), price,
	)
	if err != nil {
		return fmt.Errorf("insert generation job: %w", err)
	}
	return nil
}

// SetState records a transition. A lost write only widens the sweeper's
// window, so failures are logged and swallowed.
func (r *Repository) SetState(ctx context.Context, jobID string, state domain.JobState, providerJobID, errDetail string) {
	_, err := r.SQL.Exec(ctx, sqlinline.QUpdateGenerationJobState,
		jobID, string(state), providerJobID, errDetail,
	)
	if err != nil {
		r.Logger.Error().Err(err).Str("job_id", jobID).Str("state", string(state)).Msg("job state write failed")
	}
}

// StaleJob is a job abandoned by a dead instance, found by the sweeper.
type StaleJob struct {
	ID     string
	UserID string
	Price  int
}

// ClaimStale flips jobs stuck in any state that still holds credits, older
// than the cutoff, to timed-out and returns them for refunding. Concurrent
// sweepers never claim the same job twice.
func (r *Repository) ClaimStale(ctx context.Context, olderThan time.Duration) ([]StaleJob, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	rows, err := r.SQL.Query(ctx, sqlinline.QClaimStaleJobs, cutoff)
	if err != nil {
		return nil, fmt.Errorf("claim stale jobs: %w", err)
	}
	defer rows.Close()

	var out []StaleJob
	for rows.Next() {
		var j StaleJob
		if err := rows.Scan(&j.ID, &j.UserID, &j.Price); err != nil {
			return nil, fmt.Errorf("scan stale job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
