// Package notify writes in-app notifications. Everything here is best
// effort: a failed insert is logged and forgotten, never surfaced to the
// generation pipeline.
package notify

import (
	"context"
	"encoding/json"

	"radiocore/internal/infra"
	"radiocore/internal/sqlinline"
)

// Notification types shown in the client feed.
const (
	TypeTrackReady   = "track_ready"
	TypeTrackFailed  = "track_failed"
	TypeCreditChange = "credit_change"
)

type Notifier struct {
	SQL    infra.SQLExecutor
	Logger infra.Logger
}

func NewNotifier(sql infra.SQLExecutor, logger infra.Logger) *Notifier {
	return &Notifier{SQL: sql, Logger: logger}
}

// TrackReady announces a finished track.
func (n *Notifier) TrackReady(ctx context.Context, userID, title, libraryID string) {
	n.insert(ctx, userID, TypeTrackReady, map[string]string{
		"title":      title,
		"library_id": libraryID,
	})
}

// TrackFailed announces a failed generation together with the refund.
func (n *Notifier) TrackFailed(ctx context.Context, userID, title, reason string) {
	n.insert(ctx, userID, TypeTrackFailed, map[string]string{
		"title":  title,
		"reason": reason,
	})
}

// CreditChange announces a balance movement.
func (n *Notifier) CreditChange(ctx context.Context, userID string, amount, balance int, description string) {
	n.insert(ctx, userID, TypeCreditChange, map[string]any{
		"amount":      amount,
		"balance":     balance,
		"description": description,
	})
}

func (n *Notifier) insert(ctx context.Context, userID, notifType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		n.Logger.Error().Err(err).Str("type", notifType).Msg("notification payload marshal failed")
		return
	}
	if _, err := n.SQL.Exec(ctx, sqlinline.QInsertNotification, userID, notifType, string(payload)); err != nil {
		n.Logger.Error().Err(err).Str("type", notifType).Msg("notification insert failed")
	}
}
