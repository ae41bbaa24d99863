// Package image generates cover art through the predictions API. Cover art is
// a best-effort add-on, so the client keeps its own short poll budget instead
// of sharing the music pipeline's.
package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"radiocore/internal/infra"
	"radiocore/internal/providers/music"
)

const (
	pollInterval    = time.Second
	pollMaxAttempts = 40
)

type Client struct {
	BaseURL    string
	Token      string
	Model      string
	HTTPClient *http.Client
	Logger     infra.Logger
}

func NewClient(cfg *infra.Config, logger infra.Logger) *Client {
	return &Client{
		BaseURL:    cfg.ReplicateBaseURL,
		Token:      cfg.ReplicateAPIToken,
		Model:      cfg.CoverArtModel,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     logger,
	}
}

// Generate submits a cover art prediction and polls it to completion,
// returning the image URL. The whole call is bounded by the internal poll
// budget on top of ctx.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	id, err := c.submit(ctx, prompt)
	if err != nil {
		return "", err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < pollMaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		status, output, err := c.status(ctx, id)
		if err != nil {
			return "", err
		}
		switch status {
		case "succeeded":
			return music.AudioURL(output) // same url shapes as audio output
		case "failed", "canceled":
			return "", fmt.Errorf("cover art prediction %s", status)
		}
	}
	return "", fmt.Errorf("cover art prediction timed out")
}

func (c *Client) submit(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"input": map[string]any{
			"prompt":        prompt,
			"aspect_ratio":  "1:1",
			"output_format": "webp",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s/predictions", c.BaseURL, c.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("cover art submit: status %d: %s", resp.StatusCode, detail)
	}

	var pred struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return "", fmt.Errorf("decode cover art submit: %w", err)
	}
	if pred.ID == "" {
		return "", fmt.Errorf("cover art submit: missing prediction id")
	}
	return pred.ID, nil
}

func (c *Client) status(ctx context.Context, id string) (string, json.RawMessage, error) {
	url := fmt.Sprintf("%s/predictions/%s", c.BaseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, err
	}
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("cover art status: status %d", resp.StatusCode)
	}

	var pred struct {
		Status string          `json:"status"`
		Output json.RawMessage `json:"output"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return "", nil, fmt.Errorf("decode cover art status: %w", err)
	}
	return pred.Status, pred.Output, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")
}
