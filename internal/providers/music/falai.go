package music

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"radiocore/internal/infra"
)

// FalClient drives the fal queue API. The queue splits a job across three
// endpoints: submit, status, and a separate response fetch once the status
// says COMPLETED. Status folds the last two together so callers see the same
// poll contract as every other provider.
type FalClient struct {
	BaseURL    string
	Key        string
	Model      string
	HTTPClient *http.Client
	Logger     infra.Logger
}

func NewFalClient(cfg *infra.Config, logger infra.Logger) *FalClient {
	return &FalClient{
		BaseURL:    cfg.FalBaseURL,
		Key:        cfg.FalAPIKey,
		Model:      cfg.FalModel,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     logger,
	}
}

func (c *FalClient) Name() string { return NameFal }

func (c *FalClient) Submit(ctx context.Context, in JobInput) (Handle, error) {
	payload := map[string]any{
		"prompt":      in.Prompt,
		"lyrics":      in.Lyrics,
		"sample_rate": in.SampleRate,
		"bitrate":     in.Bitrate,
		"format":      in.Format,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Handle{}, fmt.Errorf("marshal fal input: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.BaseURL, c.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Handle{}, err
	}
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Handle{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Handle{}, fmt.Errorf("fal submit: status %d: %s", resp.StatusCode, detail)
	}

	var queued struct {
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&queued); err != nil {
		return Handle{}, fmt.Errorf("decode fal submit response: %w", err)
	}
	if queued.RequestID == "" {
		return Handle{}, fmt.Errorf("fal submit: missing request id")
	}
	return Handle{ID: queued.RequestID, Provider: NameFal}, nil
}

func (c *FalClient) Status(ctx context.Context, h Handle) (Poll, error) {
	url := fmt.Sprintf("%s/%s/requests/%s/status", c.BaseURL, c.Model, h.ID)
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

	if resp.StatusCode >= 400 {
		return Poll{}, fmt.Errorf("fal status: status %d", resp.StatusCode)
	}

	var st struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return Poll{}, fmt.Errorf("decode fal status: %w", err)
	}

	switch st.Status {
	case "IN_QUEUE":
		return Poll{Status: StatusQueued}, nil
	case "IN_PROGRESS":
		return Poll{Status: StatusProcessing}, nil
	case "COMPLETED":
		output, err := c.fetchResponse(ctx, h)
		if err != nil {
			return Poll{}, err
		}
		return Poll{Status: StatusSucceeded, Output: output}, nil
	case "CANCELLED":
		return Poll{Status: StatusCanceled}, nil
	default:
		return Poll{Status: StatusFailed, Err: st.Error}, nil
	}
}

// Cancel asks the queue to drop the request. Only queued requests can be
// cancelled upstream; in-progress ones run to completion there.
func (c *FalClient) Cancel(ctx context.Context, h Handle) error {
	url := fmt.Sprintf("%s/%s/requests/%s/cancel", c.BaseURL, c.Model, h.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
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
		return fmt.Errorf("fal cancel: status %d", resp.StatusCode)
	}
	return nil
}

func (c *FalClient) fetchResponse(ctx context.Context, h Handle) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/%s/requests/%s", c.BaseURL, c.Model, h.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fal response: status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read fal response: %w", err)
	}
	return json.RawMessage(raw), nil
}

func (c *FalClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Key "+c.Key)
	req.Header.Set("Content-Type", "application/json")
}
