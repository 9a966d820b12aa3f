package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/core/ports"
	"github.com/yieldvault/invest-api/internal/pkg/metrics"
)

// InvestmentService is the investment allocator.
type InvestmentService struct {
	tx          ports.Transactor
	balances    ports.BalanceService
	plans       ports.PlanRepository
	investments ports.InvestmentRepository
	log         zerolog.Logger
	now         func() time.Time
}

func NewInvestmentService(
	tx ports.Transactor,
	balances ports.BalanceService,
	plans ports.PlanRepository,
	investments ports.InvestmentRepository,
	log zerolog.Logger,
) *InvestmentService {
	return &InvestmentService{
		tx:          tx,
		balances:    balances,
		plans:       plans,
		investments: investments,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Invest validates the plan and its bounds, then debits the balance and
// records the position as one atomic unit. If either write fails neither is
// kept.
func (s *InvestmentService) Invest(ctx context.Context, in ports.InvestInput) (*domain.Investment, error) {
	amount, err := domain.NormalizeAmount(in.Amount)
	if err != nil {
		return nil, fmt.Errorf("invest: %w", err)
	}

	// 1. Plan must exist and be open.
	plan, err := s.plans.FindByID(ctx, in.PlanID)
	if err != nil {
		return nil, fmt.Errorf("invest: %w", err)
	}
	if plan.Status != domain.PlanActive {
		return nil, fmt.Errorf("invest: %w", domain.ErrPlanInactive)
	}

	// 2. Amount must sit inside the plan bounds.
	if !plan.Accepts(amount) {
		return nil, fmt.Errorf("invest: %w (plan accepts %s to %s)", domain.ErrAmountOutOfRange,
			plan.MinAmount.StringFixed(domain.MoneyScale), plan.MaxAmount.StringFixed(domain.MoneyScale))
	}

	// 3+4. Debit and insert together.
	now := s.now()
	inv := &domain.Investment{
		UserID:    in.UserID,
		PlanID:    plan.ID,
		Amount:    amount,
		StartDate: now,
		IsActive:  true,
		CreatedAt: now,
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.balances.AdjustBalance(ctx, in.UserID, amount.Neg()); err != nil {
			return err
		}
		return s.investments.Create(ctx, inv)
	})
	if err != nil {
		return nil, fmt.Errorf("invest: %w", err)
	}

	metrics.InvestmentsCreatedTotal.WithLabelValues(plan.ID).Inc()
	s.log.Info().
		Str("user_id", in.UserID).
		Str("plan_id", plan.ID).
		Str("investment_id", inv.ID).
		Str("amount", amount.StringFixed(domain.MoneyScale)).
		Msg("investment created")
	return inv, nil
}

func (s *InvestmentService) ListInvestments(ctx context.Context, userID string) ([]*domain.Investment, error) {
	return s.investments.ListByUser(ctx, userID)
}

func (s *InvestmentService) ListPlans(ctx context.Context) ([]*domain.Plan, error) {
	return s.plans.ListActive(ctx)
}

// CreatePlan stores a plan after checking its bounds are coherent.
func (s *InvestmentService) CreatePlan(ctx context.Context, in ports.CreatePlanInput) (*domain.Plan, error) {
	minAmount, err := domain.NormalizeAmount(in.MinAmount)
	if err != nil {
		return nil, fmt.Errorf("create plan: min amount: %w", err)
	}
	maxAmount, err := domain.NormalizeAmount(in.MaxAmount)
	if err != nil {
		return nil, fmt.Errorf("create plan: max amount: %w", err)
	}
	if maxAmount.LessThan(minAmount) {
		return nil, fmt.Errorf("create plan: %w (max below min)", domain.ErrAmountOutOfRange)
	}

	status := in.Status
	if status == "" {
		status = domain.PlanActive
	}

	plan := &domain.Plan{
		Name:         in.Name,
		MinAmount:    minAmount,
		MaxAmount:    maxAmount,
		DailyProfit:  in.DailyProfit,
		DurationDays: in.DurationDays,
		Status:       status,
		CreatedAt:    s.now(),
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	return plan, nil
}
