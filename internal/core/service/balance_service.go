package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/core/ports"
	"github.com/yieldvault/invest-api/internal/pkg/metrics"
)

// BalanceService is the balance engine. Every balance-affecting operation goes
// through AdjustBalance; the repository performs the read-modify-write as one
// conditional update so concurrent adjustments on a user serialise in the store.
type BalanceService struct {
	users ports.UserRepository
	log   zerolog.Logger
}

func NewBalanceService(users ports.UserRepository, log zerolog.Logger) *BalanceService {
	return &BalanceService{users: users, log: log}
}

// AdjustBalance applies delta to the user's balance. A negative result is
// refused with domain.ErrInsufficientFunds and leaves the store untouched.
func (s *BalanceService) AdjustBalance(ctx context.Context, userID string, delta decimal.Decimal) (*domain.User, error) {
	direction := "credit"
	if delta.IsNegative() {
		direction = "debit"
	}

	user, err := s.users.AdjustBalance(ctx, userID, delta.Round(domain.MoneyScale))
	if err != nil {
		metrics.BalanceAdjustmentsTotal.WithLabelValues(direction, adjustResult(err)).Inc()
		if !errors.Is(err, domain.ErrInsufficientFunds) && !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error().Err(err).Str("user_id", userID).Str("delta", delta.String()).Msg("balance adjustment failed")
		}
		return nil, fmt.Errorf("adjust balance: %w", err)
	}

	metrics.BalanceAdjustmentsTotal.WithLabelValues(direction, "ok").Inc()
	s.log.Debug().
		Str("user_id", userID).
		Str("delta", delta.StringFixed(domain.MoneyScale)).
		Str("balance", user.Balance.StringFixed(domain.MoneyScale)).
		Msg("balance adjusted")
	return user, nil
}

func (s *BalanceService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func adjustResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	default:
		return "error"
	}
}
