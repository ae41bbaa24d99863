// Package generation runs the credit-backed music pipeline: hold credits,
// submit to a provider, poll to a terminal state, persist the artifact, and
// discharge the hold with either a saved track or a refund. Nothing in
// between may strand a deduction.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"radiocore/internal/catalog"
	"radiocore/internal/domain"
	"radiocore/internal/infra"
	"radiocore/internal/ledger"
	"radiocore/internal/providers/music"
	"radiocore/internal/stream"
)

// Refund reason tags recorded in the ledger metadata.
const (
	reasonProviderFailed = "provider_failed"
	reasonTimedOut       = "timed_out"
	reasonUserCancelled  = "user_cancelled"
	reasonPersistFailed  = "persist_failed"
)

// pollErrorBudget is how many consecutive failed status calls are tolerated
// before the job is declared lost.
const pollErrorBudget = 5

// CreditLedger is the slice of the ledger the pipeline needs.
type CreditLedger interface {
	Deduct(ctx context.Context, userID string, amount int, description string) (ledger.DeductResult, error)
	Refund(ctx context.Context, userID string, amount int, description string, metadata map[string]string) (int, error)
}

// ContentResolver produces provider-ready lyrics for a request.
type ContentResolver interface {
	Resolve(ctx context.Context, userID, prompt, userLyrics string, duration domain.DurationClass) (string, error)
}

// ArtifactPersister copies a provider URL into durable storage.
type ArtifactPersister interface {
	Persist(ctx context.Context, kind, userID, libraryID, sourceURL string) (string, error)
}

// TrackCatalog records delivered tracks.
type TrackCatalog interface {
	SaveTrack(ctx context.Context, t catalog.NewTrack) (libraryID, trackID string, err error)
	SetCoverArt(ctx context.Context, libraryID, imageURL string) error
}

// JobTrail is the durable job state record.
type JobTrail interface {
	Create(ctx context.Context, jobID, userID, provider string, price int) error
	SetState(ctx context.Context, jobID string, state domain.JobState, providerJobID, errDetail string)
}

// Notifier receives best-effort completion notices.
type Notifier interface {
	TrackReady(ctx context.Context, userID, title, libraryID string)
	TrackFailed(ctx context.Context, userID, title, reason string)
	CreditChange(ctx context.Context, userID string, amount, balance int, description string)
}

// CoverArtGenerator produces one image URL for a prompt.
type CoverArtGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Controller orchestrates one generation from hold to discharge.
type Controller struct {
	Cfg       *infra.Config
	Ledger    CreditLedger
	Router    *music.Router
	Resolver  ContentResolver
	Persister ArtifactPersister
	Catalog   TrackCatalog
	Jobs      JobTrail
	Notifier  Notifier
	CoverArt  CoverArtGenerator
	Registry  *Registry
	Logger    infra.Logger
}

// Job is a prepared generation holding credits, ready to run.
type Job struct {
	ID       string
	Request  domain.GenerationRequest
	Content  string
	Provider music.Provider
	Price    int
	Balance  int

	cancel <-chan struct{}
}

// Prepare performs everything that can still fail synchronously: lyric
// resolution, provider routing, and the credit hold. Errors returned here
// map to plain HTTP statuses; once Prepare succeeds the only way failure
// reaches the client is through the stream.
func (c *Controller) Prepare(ctx context.Context, req domain.GenerationRequest) (*Job, error) {
	content, err := c.Resolver.Resolve(ctx, req.UserID, req.Prompt, req.Lyrics, req.Duration)
	if err != nil {
		return nil, err
	}

	provider := c.Router.Pick(req.Language, content)

	price := c.Cfg.MusicPrice
	res, err := c.Ledger.Deduct(ctx, req.UserID, price, "music generation: "+req.Title)
	if err != nil {
		return nil, err
	}
	if res.Reason != nil {
		return nil, res.Reason
	}

	jobID := uuid.NewString()
	if err := c.Jobs.Create(ctx, jobID, req.UserID, provider.Name(), price); err != nil {
		// Without the job row a crash would strand the hold where no
		// sweeper can find it, so give the money back right away.
		if _, refundErr := c.Ledger.Refund(ctx, req.UserID, price, "refund: job setup failed", map[string]string{
			"reason": reasonPersistFailed,
			"detail": err.Error(),
		}); refundErr != nil {
			c.Logger.Error().Err(refundErr).Str("user_id", req.UserID).Msg("refund after job create failure also failed")
		}
		return nil, err
	}

	return &Job{
		ID:       jobID,
		Request:  req,
		Content:  content,
		Provider: provider,
		Price:    price,
		Balance:  res.NewBalance,
		cancel:   c.Registry.register(jobID, req.UserID),
	}, nil
}

// Run drives a prepared job to discharge. It ignores the transport's fate:
// the whole pipeline runs on a detached context so a dropped connection
// never interrupts polling, persistence, or the refund. Run returns only
// when the job is terminal.
func (c *Controller) Run(ctx context.Context, job *Job, emit *stream.Emitter) {
	detached := context.WithoutCancel(ctx)
	defer c.Registry.unregister(job.ID)

	emit.Emit(stream.Started(job.ID))

	handle, err := job.Provider.Submit(detached, music.JobInput{
		Prompt:     job.Request.Prompt,
		Lyrics:     job.Content,
		Format:     job.Request.AudioFormat,
		SampleRate: job.Request.SampleRate,
		Bitrate:    job.Request.Bitrate,
	})
	if err != nil {
		c.fail(detached, job, emit, reasonProviderFailed, fmt.Errorf("%w: submit: %v", domain.ErrProviderFailure, err))
		return
	}
	c.Jobs.SetState(detached, job.ID, domain.StateSubmitted, handle.ID, "")
	c.Logger.Info().Str("job_id", job.ID).Str("provider", handle.Provider).Str("provider_job_id", handle.ID).Msg("job submitted")

	poll, err := c.pollLoop(detached, job, handle)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCancelled):
			c.tryUpstreamCancel(detached, job.Provider, handle)
			c.fail(detached, job, emit, reasonUserCancelled, domain.ErrCancelled)
		case errors.Is(err, domain.ErrTimedOut):
			c.tryUpstreamCancel(detached, job.Provider, handle)
			c.fail(detached, job, emit, reasonTimedOut, domain.ErrTimedOut)
		default:
			c.fail(detached, job, emit, reasonProviderFailed, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err))
		}
		return
	}

	switch poll.Status {
	case music.StatusSucceeded:
		c.deliver(detached, job, emit, poll)
	case music.StatusCanceled:
		c.fail(detached, job, emit, reasonUserCancelled, domain.ErrCancelled)
	default:
		c.fail(detached, job, emit, reasonProviderFailed, fmt.Errorf("%w: %s", domain.ErrProviderFailure, poll.Err))
	}
}

// pollLoop polls until terminal, cancelled, or out of attempts.
func (c *Controller) pollLoop(ctx context.Context, job *Job, handle music.Handle) (music.Poll, error) {
	ticker := time.NewTicker(c.Cfg.PollInterval)
	defer ticker.Stop()

	errStreak := 0
	for attempt := 0; attempt < c.Cfg.PollMaxAttempts; attempt++ {
		select {
		case <-job.cancel:
			return music.Poll{}, domain.ErrCancelled
		case <-ticker.C:
		}

		poll, err := job.Provider.Status(ctx, handle)
		if err != nil {
			errStreak++
			if errStreak >= pollErrorBudget {
				return music.Poll{}, fmt.Errorf("status polling: %w", err)
			}
			c.Logger.Warn().Err(err).Str("job_id", job.ID).Int("streak", errStreak).Msg("status poll failed")
			continue
		}
		errStreak = 0

		if poll.Status.Terminal() {
			return poll, nil
		}
		if attempt == 0 {
			c.Jobs.SetState(ctx, job.ID, domain.StatePolling, "", "")
		}
	}
	return music.Poll{}, domain.ErrTimedOut
}

// deliver persists the artifact, records the track, and reports success. A
// persistence failure after provider success still refunds: the user paid
// for a durable track, not a temporary URL.
func (c *Controller) deliver(ctx context.Context, job *Job, emit *stream.Emitter, poll music.Poll) {
	req := job.Request

	sourceURL, err := music.AudioURL(poll.Output)
	if err != nil {
		c.fail(ctx, job, emit, reasonProviderFailed, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err))
		return
	}
	c.Jobs.SetState(ctx, job.ID, domain.StateSucceeded, "", "")

	storedURL, err := c.Persister.Persist(ctx, "audio", req.UserID, job.ID, sourceURL)
	if err != nil {
		c.fail(ctx, job, emit, reasonPersistFailed, fmt.Errorf("%w: %v", domain.ErrPersistence, err))
		return
	}

	libraryID, trackID, err := c.Catalog.SaveTrack(ctx, catalog.NewTrack{
		UserID:      req.UserID,
		Title:       req.Title,
		Prompt:      req.Prompt,
		Lyrics:      job.Content,
		AudioURL:    storedURL,
		AudioFormat: req.AudioFormat,
		Provider:    job.Provider.Name(),
	})
	if err != nil {
		c.fail(ctx, job, emit, reasonPersistFailed, fmt.Errorf("%w: %v", domain.ErrPersistence, err))
		return
	}
	c.Jobs.SetState(ctx, job.ID, domain.StatePersisted, "", "")

	balance := job.Balance
	imageURL := ""
	if req.WantCoverArt && c.CoverArt != nil {
		imageURL, balance = c.coverArt(ctx, job, libraryID, balance)
	}

	emit.Emit(stream.Event{
		Type:      "result",
		Success:   stream.Bool(true),
		AudioURL:  storedURL,
		ImageURL:  imageURL,
		LibraryID: libraryID,
		TrackID:   trackID,
		Provider:  job.Provider.Name(),
		Credits:   stream.Int(balance),
	})
	c.Notifier.TrackReady(ctx, req.UserID, req.Title, libraryID)
	c.Logger.Info().Str("job_id", job.ID).Str("library_id", libraryID).Str("track_id", trackID).Msg("track delivered")
}

// coverArt runs the optional sub-job. It takes its own fresh deduction and
// swallows every failure: a missing cover never fails a delivered track.
func (c *Controller) coverArt(ctx context.Context, job *Job, libraryID string, balance int) (string, int) {
	req := job.Request

	res, err := c.Ledger.Deduct(ctx, req.UserID, c.Cfg.CoverArtPrice, "cover art: "+req.Title)
	if err != nil || res.Reason != nil {
		if err != nil {
			c.Logger.Warn().Err(err).Str("job_id", job.ID).Msg("cover art deduct failed")
		}
		return "", balance
	}

	refundCover := func(detail string) int {
		newBalance, refundErr := c.Ledger.Refund(ctx, req.UserID, c.Cfg.CoverArtPrice, "refund: cover art failed", map[string]string{
			"reason": reasonProviderFailed,
			"detail": detail,
			"job_id": job.ID,
		})
		if refundErr != nil {
			c.Logger.Error().Err(refundErr).Str("job_id", job.ID).Msg("cover art refund failed")
			return res.NewBalance
		}
		return newBalance
	}

	imageURL, err := c.CoverArt.Generate(ctx, req.Prompt)
	if err != nil {
		c.Logger.Warn().Err(err).Str("job_id", job.ID).Msg("cover art generation failed")
		return "", refundCover(err.Error())
	}

	storedURL, err := c.Persister.Persist(ctx, "covers", req.UserID, job.ID, imageURL)
	if err != nil {
		c.Logger.Warn().Err(err).Str("job_id", job.ID).Msg("cover art persistence failed")
		return "", refundCover(err.Error())
	}

	if err := c.Catalog.SetCoverArt(ctx, libraryID, storedURL); err != nil {
		c.Logger.Warn().Err(err).Str("job_id", job.ID).Msg("cover art attach failed")
		return "", refundCover(err.Error())
	}
	return storedURL, res.NewBalance
}

// fail refunds the hold, records the terminal state, and reports a sanitized
// failure on the stream. The raw cause goes to logs and refund metadata only.
func (c *Controller) fail(ctx context.Context, job *Job, emit *stream.Emitter, reason string, cause error) {
	req := job.Request
	c.Logger.Error().Err(cause).Str("job_id", job.ID).Str("reason", reason).Msg("generation failed")

	refunded := true
	balance, err := c.Ledger.Refund(ctx, req.UserID, job.Price, "refund: "+reason, map[string]string{
		"reason": reason,
		"detail": cause.Error(),
		"job_id": job.ID,
	})
	if err != nil {
		// The hold stays on the books; this needs an operator, not a
		// retry from here.
		c.Logger.Error().Err(err).Str("job_id", job.ID).Str("user_id", req.UserID).Msg("refund failed, credits stranded")
		refunded = false
		balance = job.Balance
		c.Jobs.SetState(ctx, job.ID, domain.StateFailed, "", "refund failed: "+err.Error())
	} else {
		c.Jobs.SetState(ctx, job.ID, domain.StateRefunded, "", cause.Error())
	}

	emit.Emit(stream.Event{
		Type:     "result",
		Success:  stream.Bool(false),
		Error:    SanitizeError(cause),
		Refunded: stream.Bool(refunded),
		Credits:  stream.Int(balance),
	})
	c.Notifier.TrackFailed(ctx, req.UserID, req.Title, reason)
	if refunded {
		c.Notifier.CreditChange(ctx, req.UserID, job.Price, balance, "refund: "+reason)
	}
}

func (c *Controller) tryUpstreamCancel(ctx context.Context, p music.Provider, handle music.Handle) {
	canceler, ok := p.(music.Canceler)
	if !ok {
		return
	}
	if err := canceler.Cancel(ctx, handle); err != nil {
		c.Logger.Warn().Err(err).Str("provider_job_id", handle.ID).Msg("upstream cancel failed")
	}
}
