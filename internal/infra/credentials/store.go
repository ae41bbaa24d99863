package credentials

import (
	"context"
	"errors"
	"strings"

	"radiocore/internal/infra"
	"radiocore/internal/sqlinline"
)

const (
	ProviderReplicate = "replicate"
	ProviderFal       = "fal"
)

// Store keeps provider API keys in the database so deployments can rotate
// them without a restart. Environment variables take precedence; the store is
// only consulted when the env value is empty.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("credentials: token is required")
	}
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, []byte("{}"))
	return err
}
