// Package ledger owns the credit balance and its audit trail. Every balance
// movement, including rejected deduction attempts, leaves a row in
// credit_transactions.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"radiocore/internal/domain"
	"radiocore/internal/infra"
	"radiocore/internal/sqlinline"
)

// Transaction types and statuses recorded in the audit trail.
const (
	TxDeduct = "deduct"
	TxRefund = "refund"

	TxCompleted = "completed"
	TxRejected  = "rejected"
)

// DeductResult reports the outcome of one deduction attempt.
type DeductResult struct {
	OK         bool
	NewBalance int
	Reason     error
	TxID       string
}

type Service struct {
	SQL    infra.SQLExecutor
	Logger infra.Logger
}

func NewService(sql infra.SQLExecutor, logger infra.Logger) *Service {
	return &Service{SQL: sql, Logger: logger}
}

// Deduct atomically takes amount from the user's balance. The conditional
// update is the only balance check; when it matches no row the user either
// does not exist or cannot afford the charge, and a rejected audit row is
// written either way. The caller distinguishes the two via Reason.
func (s *Service) Deduct(ctx context.Context, userID string, amount int, description string) (DeductResult, error) {
	var balance int
	err := s.SQL.QueryRow(ctx, sqlinline.QDeductCredits, userID, amount).Scan(&balance)
	if err == nil {
		txID, auditErr := s.audit(ctx, userID, -amount, balance, TxDeduct, TxCompleted, description)
		if auditErr != nil {
			s.Logger.Error().Err(auditErr).Str("user_id", userID).Msg("deduct audit insert failed")
		}
		return DeductResult{OK: true, NewBalance: balance, TxID: txID}, nil
	}
	if !infra.IsNoRows(err) {
		return DeductResult{}, fmt.Errorf("deduct credits: %w", err)
	}

	// Zero rows: look at the current balance to tell missing user from
	// insufficient funds.
	var current int
	err = s.SQL.QueryRow(ctx, sqlinline.QSelectCredits, userID).Scan(&current)
	if infra.IsNoRows(err) {
		return DeductResult{Reason: domain.ErrUserNotFound}, nil
	}
	if err != nil {
		return DeductResult{}, fmt.Errorf("select credits: %w", err)
	}

	if _, auditErr := s.audit(ctx, userID, -amount, current, TxDeduct, TxRejected, description); auditErr != nil {
		s.Logger.Error().Err(auditErr).Str("user_id", userID).Msg("rejected deduct audit insert failed")
	}
	return DeductResult{NewBalance: current, Reason: domain.ErrInsufficientCredits}, nil
}

// Refund returns amount to the user's balance and records it. Refund never
// checks affordability; it must succeed whenever the user row exists. The
// metadata map carries diagnostic detail that must not reach clients.
func (s *Service) Refund(ctx context.Context, userID string, amount int, description string, metadata map[string]string) (int, error) {
	var balance int
	err := s.SQL.QueryRow(ctx, sqlinline.QRefundCredits, userID, amount).Scan(&balance)
	if infra.IsNoRows(err) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("refund credits: %w", err)
	}

	if _, auditErr := s.auditWithMetadata(ctx, userID, amount, balance, TxRefund, TxCompleted, description, metadata); auditErr != nil {
		s.Logger.Error().Err(auditErr).Str("user_id", userID).Msg("refund audit insert failed")
	}
	return balance, nil
}

// Balance reads the current balance without touching it.
func (s *Service) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := s.SQL.QueryRow(ctx, sqlinline.QSelectCredits, userID).Scan(&balance)
	if infra.IsNoRows(err) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("select credits: %w", err)
	}
	return balance, nil
}

func (s *Service) audit(ctx context.Context, userID string, amount, balanceAfter int, txType, status, description string) (string, error) {
	return s.auditWithMetadata(ctx, userID, amount, balanceAfter, txType, status, description, nil)
}

func (s *Service) auditWithMetadata(ctx context.Context, userID string, amount, balanceAfter int, txType, status, description string, metadata map[string]string) (string, error) {
	meta := []byte("{}")
	if len(metadata) > 0 {
		if encoded, err := json.Marshal(metadata); err == nil {
			meta = encoded
		}
	}
	var id string
	err := s.SQL.QueryRow(ctx, sqlinline.QInsertCreditTransaction,
		userID, amount, balanceAfter, txType, status, description, string(meta),
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
