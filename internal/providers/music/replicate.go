package music

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"radiocore/internal/infra"
)

// ReplicateClient drives the predictions API. Submissions retry on transient
// upstream errors; status polls never retry because the caller's poll loop
// already provides the cadence.
type ReplicateClient struct {
	BaseURL    string
	Token      string
	Model      string
	MaxRetries int
	HTTPClient *http.Client
	Logger     infra.Logger
}

func NewReplicateClient(cfg *infra.Config, logger infra.Logger) *ReplicateClient {
	return &ReplicateClient{
		BaseURL:    cfg.ReplicateBaseURL,
		Token:      cfg.ReplicateAPIToken,
		Model:      cfg.ReplicateModel,
		MaxRetries: cfg.SubmitMaxRetries,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     logger,
	}
}

func (c *ReplicateClient) Name() string { return NameReplicate }

type replicatePrediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

func (c *ReplicateClient) Submit(ctx context.Context, in JobInput) (Handle, error) {
	payload := map[string]any{
		"input": map[string]any{
			"prompt":       in.Prompt,
			"lyrics":       in.Lyrics,
			"audio_format": in.Format,
			"sample_rate":  in.SampleRate,
			"bitrate":      in.Bitrate,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Handle{}, fmt.Errorf("marshal prediction input: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s/predictions", c.BaseURL, c.Model)

	var pred replicatePrediction
	backoff := retry.WithMaxRetries(uint64(c.MaxRetries), retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		c.authorize(req)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			c.Logger.Warn().Int("status", resp.StatusCode).Msg("replicate submit upstream error")
			return retry.RetryableError(fmt.Errorf("replicate submit: status %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("replicate submit: status %d: %s", resp.StatusCode, detail)
		}
		return json.NewDecoder(resp.Body).Decode(&pred)
	})
	if err != nil {
		return Handle{}, err
	}
	if pred.ID == "" {
		return Handle{}, fmt.Errorf("replicate submit: missing prediction id")
	}
	return Handle{ID: pred.ID, Provider: NameReplicate}, nil
}

func (c *ReplicateClient) Status(ctx context.Context, h Handle) (Poll, error) {
	url := fmt.Sprintf("%s/predictions/%s", c.BaseURL, h.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Poll{}, err
	}
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Poll{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Poll{}, fmt.Errorf("replicate status: status %d", resp.StatusCode)
	}

	var pred replicatePrediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return Poll{}, fmt.Errorf("decode prediction: %w", err)
	}
	return Poll{
		Status: mapReplicateStatus(pred.Status),
		Output: pred.Output,
		Err:    pred.Error,
	}, nil
}

// Cancel asks the upstream to stop the prediction. Errors are reported but
// never block the caller's own cancellation path.
func (c *ReplicateClient) Cancel(ctx context.Context, h Handle) error {
	url := fmt.Sprintf("%s/predictions/%s/cancel", c.BaseURL, h.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("replicate cancel: status %d", resp.StatusCode)
	}
	return nil
}

func (c *ReplicateClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")
}

func mapReplicateStatus(s string) Status {
	switch s {
	case "starting":
		return StatusQueued
	case "processing":
		return StatusProcessing
	case "succeeded":
		return StatusSucceeded
	case "canceled":
		return StatusCanceled
	default:
		return StatusFailed
	}
}
