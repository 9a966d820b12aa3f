package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/core/ports"
	"github.com/yieldvault/invest-api/internal/pkg/metrics"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Limits holds the configurable minimum amounts. A zero value disables the check.
type Limits struct {
	MinDeposit    decimal.Decimal
	MinWithdrawal decimal.Decimal
}

// TransactionService implements the transaction state machine. Each operation
// runs its status change and balance effect inside one Transactor unit, so a
// retried rejection can never refund twice.
type TransactionService struct {
	tx        ports.Transactor
	balances  ports.BalanceService
	repo      ports.TransactionRepository
	publisher ports.LedgerPublisher
	limits    Limits
	log       zerolog.Logger
	now       func() time.Time
}

func NewTransactionService(
	tx ports.Transactor,
	balances ports.BalanceService,
	repo ports.TransactionRepository,
	publisher ports.LedgerPublisher,
	limits Limits,
	log zerolog.Logger,
) *TransactionService {
	if publisher == nil {
		publisher = ports.NopLedgerPublisher()
	}
	return &TransactionService{
		tx:        tx,
		balances:  balances,
		repo:      repo,
		publisher: publisher,
		limits:    limits,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Deposit records a self-reported deposit as completed and credits it.
// There is no on-chain verification: the user's claim is trusted as is.
func (s *TransactionService) Deposit(ctx context.Context, in ports.DepositInput) (*domain.Transaction, error) {
	amount, err := s.checkAmount(in.Amount, s.limits.MinDeposit)
	if err != nil {
		return nil, fmt.Errorf("deposit: %w", err)
	}

	t := s.newTransaction(in.UserID, domain.TypeDeposit, amount)
	t.Currency = in.Currency

	if err := s.createWithBalance(ctx, t, amount); err != nil {
		return nil, fmt.Errorf("deposit: %w", err)
	}

	s.committed(t)
	s.log.Info().Str("user_id", in.UserID).Str("transaction_id", t.ID).Str("amount", amount.StringFixed(domain.MoneyScale)).Msg("deposit credited")
	return t, nil
}

// RequestWithdrawal reserves the amount immediately and records a pending
// withdrawal for admin review. Insufficient balance creates nothing.
func (s *TransactionService) RequestWithdrawal(ctx context.Context, in ports.WithdrawalInput) (*domain.Transaction, error) {
	amount, err := s.checkAmount(in.Amount, s.limits.MinWithdrawal)
	if err != nil {
		return nil, fmt.Errorf("request withdrawal: %w", err)
	}

	t := s.newTransaction(in.UserID, domain.TypeWithdrawal, amount)
	t.Currency = in.Currency
	t.WalletAddress = in.WalletAddress
	t.Reason = in.Reason

	if err := s.createWithBalance(ctx, t, amount.Neg()); err != nil {
		s.countError(err)
		return nil, fmt.Errorf("request withdrawal: %w", err)
	}

	s.committed(t)
	s.log.Info().Str("user_id", in.UserID).Str("transaction_id", t.ID).Str("amount", amount.StringFixed(domain.MoneyScale)).Msg("withdrawal requested")
	return t, nil
}

// ApproveWithdrawal completes a pending withdrawal. The funds were debited at
// request time, so approval has no balance effect.
func (s *TransactionService) ApproveWithdrawal(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	var updated *domain.Transaction
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.pendingWithdrawal(ctx, transactionID); err != nil {
			return err
		}
		t, err := s.repo.TransitionStatus(ctx, transactionID, domain.TxPending, domain.TxCompleted, s.now())
		if err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		s.countError(err)
		return nil, fmt.Errorf("approve withdrawal: %w", err)
	}

	s.committed(updated)
	s.log.Info().Str("transaction_id", transactionID).Msg("withdrawal approved")
	return updated, nil
}

// RejectWithdrawal rejects a pending withdrawal and returns the reserved
// funds. The status flip and the refund commit together.
func (s *TransactionService) RejectWithdrawal(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	var updated *domain.Transaction
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.pendingWithdrawal(ctx, transactionID); err != nil {
			return err
		}
		t, err := s.repo.TransitionStatus(ctx, transactionID, domain.TxPending, domain.TxRejected, s.now())
		if err != nil {
			return err
		}
		if _, err := s.balances.AdjustBalance(ctx, t.UserID, t.Amount); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		s.countError(err)
		return nil, fmt.Errorf("reject withdrawal: %w", err)
	}

	s.committed(updated)
	s.log.Info().Str("transaction_id", transactionID).Str("user_id", updated.UserID).Msg("withdrawal rejected, funds returned")
	return updated, nil
}

// CreditProfit records accrued profit as completed and credits it.
func (s *TransactionService) CreditProfit(ctx context.Context, in ports.ProfitInput) (*domain.Transaction, error) {
	amount, err := domain.NormalizeAmount(in.Amount)
	if err != nil {
		return nil, fmt.Errorf("credit profit: %w", err)
	}

	t := s.newTransaction(in.UserID, domain.TypeProfit, amount)
	t.Reason = in.Reason

	if err := s.createWithBalance(ctx, t, amount); err != nil {
		return nil, fmt.Errorf("credit profit: %w", err)
	}

	s.committed(t)
	return t, nil
}

// List returns transactions matching filter, newest first.
func (s *TransactionService) List(ctx context.Context, filter ports.TransactionFilter) ([]*domain.Transaction, error) {
	filter.Limit = clampLimit(filter.Limit)
	return s.repo.List(ctx, filter)
}

// createWithBalance applies delta and inserts t as one atomic unit.
func (s *TransactionService) createWithBalance(ctx context.Context, t *domain.Transaction, delta decimal.Decimal) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.balances.AdjustBalance(ctx, t.UserID, delta); err != nil {
			return err
		}
		return s.repo.Create(ctx, t)
	})
}

func (s *TransactionService) pendingWithdrawal(ctx context.Context, id string) (*domain.Transaction, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Type != domain.TypeWithdrawal {
		return nil, domain.ErrNotWithdrawal
	}
	if t.Status != domain.TxPending {
		return nil, fmt.Errorf("%w (from %s)", domain.ErrInvalidTransition, t.Status)
	}
	return t, nil
}

func (s *TransactionService) checkAmount(amount, minimum decimal.Decimal) (decimal.Decimal, error) {
	normalized, err := domain.NormalizeAmount(amount)
	if err != nil {
		s.countError(err)
		return decimal.Zero, err
	}
	if normalized.LessThan(minimum) {
		metrics.TransactionErrorsTotal.WithLabelValues("below_minimum").Inc()
		return decimal.Zero, fmt.Errorf("%w (minimum %s)", domain.ErrBelowMinimum, minimum.StringFixed(domain.MoneyScale))
	}
	return normalized, nil
}

func (s *TransactionService) newTransaction(userID string, typ domain.TransactionType, amount decimal.Decimal) *domain.Transaction {
	now := s.now()
	return &domain.Transaction{
		UserID:    userID,
		Type:      typ,
		Amount:    amount,
		Status:    typ.InitialStatus(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *TransactionService) committed(t *domain.Transaction) {
	metrics.TransactionsTotal.WithLabelValues(string(t.Type), string(t.Status)).Inc()
	s.publisher.Publish(t)
}

func (s *TransactionService) countError(err error) {
	var reason string
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		reason = "insufficient_funds"
	case errors.Is(err, domain.ErrInvalidTransition):
		reason = "invalid_transition"
	case errors.Is(err, domain.ErrInvalidAmount):
		reason = "invalid_amount"
	case errors.Is(err, domain.ErrTransactionNotFound):
		reason = "not_found"
	default:
		return
	}
	metrics.TransactionErrorsTotal.WithLabelValues(reason).Inc()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
