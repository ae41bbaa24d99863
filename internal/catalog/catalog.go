// Package catalog is the user-facing track library. A row only appears here
// after the audio artifact is durable.
package catalog

import (
	"context"
	"fmt"
	"time"

	"radiocore/internal/domain"
	"radiocore/internal/infra"
	"radiocore/internal/sqlinline"
)

// Track is one library entry.
type Track struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Title       string    `json:"title"`
	Prompt      string    `json:"prompt"`
	Lyrics      string    `json:"lyrics"`
	AudioURL    string    `json:"audio_url"`
	ImageURL    string    `json:"image_url,omitempty"`
	AudioFormat string    `json:"audio_format"`
	Provider    string    `json:"provider"`
	TrackID     string    `json:"track_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type Catalog struct {
	SQL    infra.SQLExecutor
	Logger infra.Logger
}

func NewCatalog(sql infra.SQLExecutor, logger infra.Logger) *Catalog {
	return &Catalog{SQL: sql, Logger: logger}
}

// NewTrack captures what SaveTrack needs to persist.
type NewTrack struct {
	UserID      string
	Title       string
	Prompt      string
	Lyrics      string
	AudioURL    string
	AudioFormat string
	Provider    string
}

// SaveTrack inserts a ready track and returns its library id. The public
// track id is minted here so every saved track carries one.
func (c *Catalog) SaveTrack(ctx context.Context, t NewTrack) (libraryID, trackID string, err error) {
	trackID = MintTrackID(t.UserID, time.Now().UTC())
	err = c.SQL.QueryRow(ctx, sqlinline.QInsertTrack,
		t.UserID, t.Title, t.Prompt, t.Lyrics, t.AudioURL, t.AudioFormat, t.Provider, trackID,
	).Scan(&libraryID)
	if err != nil {
		return "", "", fmt.Errorf("insert track: %w", err)
	}
	return libraryID, trackID, nil
}

// SetCoverArt attaches an image URL to an existing track.
func (c *Catalog) SetCoverArt(ctx context.Context, libraryID, imageURL string) error {
	if _, err := c.SQL.Exec(ctx, sqlinline.QSetTrackCover, libraryID, imageURL); err != nil {
		return fmt.Errorf("set track cover: %w", err)
	}
	return nil
}

// Get returns one track owned by userID.
func (c *Catalog) Get(ctx context.Context, libraryID, userID string) (Track, error) {
	var t Track
	err := c.SQL.QueryRow(ctx, sqlinline.QSelectTrack, libraryID, userID).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Prompt, &t.Lyrics, &t.AudioURL, &t.ImageURL,
		&t.AudioFormat, &t.Provider, &t.TrackID, &t.Status, &t.CreatedAt,
	)
	if infra.IsNoRows(err) {
		return Track{}, domain.ErrTrackNotFound
	}
	if err != nil {
		return Track{}, fmt.Errorf("select track: %w", err)
	}
	return t, nil
}

// RecentReady lists the user's ready tracks created within the window, newest
// first.
func (c *Catalog) RecentReady(ctx context.Context, userID string, window time.Duration, limit int) ([]Track, error) {
	since := time.Now().UTC().Add(-window)
	rows, err := c.SQL.Query(ctx, sqlinline.QSelectRecentTracks, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent tracks: %w", err)
	}
	defer rows.Close()

	var out []Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Title, &t.Prompt, &t.Lyrics, &t.AudioURL, &t.ImageURL,
			&t.AudioFormat, &t.Provider, &t.TrackID, &t.Status, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan recent track: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
