// Package artifacts copies provider output into durable storage. Provider
// URLs expire, so a track only counts as delivered once its audio lives under
// our own storage root.
package artifacts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"radiocore/internal/infra"
	"radiocore/internal/storage"
)

const maxArtifactBytes = 200 << 20

type Persister struct {
	Store      *storage.FileStore
	HTTPClient *http.Client
	Logger     infra.Logger
}

func NewPersister(store *storage.FileStore, logger infra.Logger) *Persister {
	return &Persister{
		Store:      store,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
		Logger:     logger,
	}
}

// Persist downloads sourceURL and stores it under a key derived from the
// owner and library id, returning the public URL. Kind groups artifacts by
// directory ("audio", "covers").
func (p *Persister) Persist(ctx context.Context, kind, userID, libraryID, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("artifact request: %w", err)
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("artifact download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("artifact download: status %d", resp.StatusCode)
	}

	key := fmt.Sprintf("%s/%s/%s%s", kind, userID, libraryID, extensionFor(sourceURL, resp.Header.Get("Content-Type")))
	stored, err := p.Store.WriteStream(ctx, key, io.LimitReader(resp.Body, maxArtifactBytes))
	if err != nil {
		return "", err
	}

	p.Logger.Info().Str("key", stored).Str("kind", kind).Msg("artifact persisted")
	return p.Store.PublicURL(stored), nil
}

// extensionFor keeps the source extension when it has one, falling back to
// the content type.
func extensionFor(sourceURL, contentType string) string {
	base := path.Base(sourceURL)
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	if ext := path.Ext(base); ext != "" && len(ext) <= 6 {
		return ext
	}
	switch {
	case strings.Contains(contentType, "mpeg"):
		return ".mp3"
	case strings.Contains(contentType, "flac"):
		return ".flac"
	case strings.Contains(contentType, "wav"):
		return ".wav"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "jpeg"):
		return ".jpg"
	default:
		return ".bin"
	}
}
