package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/yieldvault/invest-api/internal/core/domain"
)

// BalanceService is the single path through which balances change.
type BalanceService interface {
	AdjustBalance(ctx context.Context, userID string, delta decimal.Decimal) (*domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// DepositInput is the pre-validated payload for a self-reported deposit.
type DepositInput struct {
	UserID   string
	Amount   decimal.Decimal
	Currency string
}

// WithdrawalInput is the pre-validated payload for a withdrawal request.
type WithdrawalInput struct {
	UserID        string
	Amount        decimal.Decimal
	Currency      string
	WalletAddress string
	Reason        string
}

// ProfitInput is posted by the accrual process to credit earned profit.
type ProfitInput struct {
	UserID string
	Amount decimal.Decimal
	Reason string
}

// TransactionService drives the transaction lifecycle and its balance effects.
type TransactionService interface {
	Deposit(ctx context.Context, in DepositInput) (*domain.Transaction, error)
	RequestWithdrawal(ctx context.Context, in WithdrawalInput) (*domain.Transaction, error)
	ApproveWithdrawal(ctx context.Context, transactionID string) (*domain.Transaction, error)
	RejectWithdrawal(ctx context.Context, transactionID string) (*domain.Transaction, error)
	CreditProfit(ctx context.Context, in ProfitInput) (*domain.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, error)
}

// InvestInput is the pre-validated payload for buying into a plan.
type InvestInput struct {
	UserID string
	PlanID string
	Amount decimal.Decimal
}

// CreatePlanInput carries the fields the allocator reads from a plan.
type CreatePlanInput struct {
	Name         string
	MinAmount    decimal.Decimal
	MaxAmount    decimal.Decimal
	DailyProfit  decimal.Decimal
	DurationDays int
	Status       domain.PlanStatus
}

// InvestmentService converts balance into standing investment positions.
type InvestmentService interface {
	Invest(ctx context.Context, in InvestInput) (*domain.Investment, error)
	ListInvestments(ctx context.Context, userID string) ([]*domain.Investment, error)
	ListPlans(ctx context.Context) ([]*domain.Plan, error)
	CreatePlan(ctx context.Context, in CreatePlanInput) (*domain.Plan, error)
}

// ChatService persists support messages and routes live pushes. It is shared
// by the HTTP and socket adapters.
type ChatService interface {
	SendUserMessage(ctx context.Context, userID, content string) (*domain.ChatMessage, error)
	SendAdminReply(ctx context.Context, messageID, adminID, content string) (*domain.ChatMessage, error)
	MarkRead(ctx context.Context, messageID string) (*domain.ChatMessage, error)
	List(ctx context.Context, filter ChatFilter) ([]*domain.ChatMessage, error)
}

// AuthService implements registration and login.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
